// Package research orchestrates the staged enrichment of a question
// framework: a base pass over every work unit, an optional deep pass for
// questions with sub-questions, and a finalizing pass attaching tracked
// references and run statistics.
package research

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/minhvu-dev/marketscribe/internal/common"
	"github.com/minhvu-dev/marketscribe/internal/enrich"
	"github.com/minhvu-dev/marketscribe/internal/framework"
	"github.com/minhvu-dev/marketscribe/internal/llm"
	"github.com/minhvu-dev/marketscribe/internal/store"
)

// State names the phases of a run. Done and Failed are terminal.
type State string

const (
	StateIdle         State = "idle"
	StateBuildingTree State = "building-tree"
	StateEnriching    State = "enriching"
	StateEnhancing    State = "enhancing"
	StateFinalizing   State = "finalizing"
	StateDone         State = "done"
	StateFailed       State = "failed"
)

// Request describes one batch run.
type Request struct {
	Grid     [][]string
	Industry string
	Market   string
	// Purpose overrides the purpose parsed from the grid when non-empty.
	Purpose     string
	Mode        store.Mode
	TestingMode bool
	// OutputPath receives the result document, rewritten after every work
	// unit so an aborted run loses at most one unit of work. Empty
	// disables persistence.
	OutputPath string
}

// Runner executes runs sequentially: one external call at a time, with a
// fixed pause between work units. A Runner owns its tally and result tree
// exclusively; there is exactly one logical thread of control per run.
type Runner struct {
	provider llm.Provider
	client   *enrich.Client
	tally    *enrich.ReferenceTally
	catalog  *store.Catalog
	cfg      Config

	sleep func(time.Duration)
	now   func() time.Time

	mu      sync.Mutex
	state   State
	failure string
}

// NewRunner wires a runner around a provider. catalog may be nil; runs are
// then not recorded.
func NewRunner(provider llm.Provider, catalog *store.Catalog, cfg Config) *Runner {
	cfg.applyDefaults()
	tally := enrich.NewReferenceTally()
	client := enrich.NewClient(provider, tally, enrich.Config{
		MaxRetries: cfg.MaxRetries,
		BaseDelay:  cfg.BaseBackoff,
		MaxDelay:   cfg.MaxBackoff,
	})
	return &Runner{
		provider: provider,
		client:   client,
		tally:    tally,
		catalog:  catalog,
		cfg:      cfg,
		sleep:    time.Sleep,
		now:      time.Now,
		state:    StateIdle,
	}
}

// State reports the current run phase.
func (r *Runner) State() State {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.state
}

// Failure reports the reason of the last failed run, if any.
func (r *Runner) Failure() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.failure
}

func (r *Runner) setState(s State) {
	r.mu.Lock()
	r.state = s
	if s != StateFailed {
		r.failure = ""
	}
	r.mu.Unlock()
}

// Run executes one full enrichment run and returns the completed document.
// Individual call failures are stored as content and never abort the run;
// only a malformed framework or a storage failure does.
func (r *Runner) Run(ctx context.Context, req Request) (*store.Document, error) {
	logger := common.Logger()
	if req.Mode == "" {
		req.Mode = store.ModePerQuestion
	}
	runID := uuid.NewString()
	started := r.now()

	if r.catalog != nil {
		rec := store.RunRecord{
			ID:         runID,
			Industry:   req.Industry,
			Market:     req.Market,
			Mode:       string(req.Mode),
			OutputPath: req.OutputPath,
			StartedAt:  started.UTC(),
		}
		if err := r.catalog.RecordStart(ctx, rec); err != nil {
			logger.Warn("research: catalog record start failed", "error", err)
		}
	}

	r.setState(StateBuildingTree)
	fw, err := framework.Build(req.Grid, req.Purpose)
	if err != nil {
		return nil, r.fail(ctx, runID, err)
	}

	doc := &store.Document{
		Industry:     req.Industry,
		Market:       req.Market,
		Purpose:      fw.Purpose,
		ModelUsed:    llm.ModelName(r.provider),
		APIProvider:  r.provider.Name(),
		AnalysisMode: req.Mode,
		Timestamp:    started.Format(store.TimestampLayout),
		TestingMode:  req.TestingMode,
	}
	r.tally.Reset()

	pc := enrich.PromptContext{Industry: req.Industry, Market: req.Market, Purpose: fw.Purpose}
	progress := &runProgress{}

	logger.Info("research: run started",
		"run_id", runID, "industry", req.Industry, "market", req.Market,
		"mode", req.Mode, "testing", req.TestingMode,
		"themes", len(fw.Themes), "questions", fw.QuestionCount())

	r.setState(StateEnriching)
	switch req.Mode {
	case store.ModePerCategory:
		err = r.enrichPerCategory(ctx, req, fw, doc, pc, progress)
	default:
		err = r.enrichPerQuestion(ctx, req, fw, doc, pc, progress)
	}
	if err != nil {
		return nil, r.fail(ctx, runID, err)
	}

	if req.Mode == store.ModePerQuestion {
		r.setState(StateEnhancing)
		if err := r.enhance(ctx, req, doc, pc, progress); err != nil {
			return nil, r.fail(ctx, runID, err)
		}
	}

	r.setState(StateFinalizing)
	doc.TrackedReferences = r.tally.Top(10)
	doc.Statistics = &store.Statistics{
		QuestionsProcessed:  progress.questions,
		CategoriesProcessed: progress.categories,
		APICalls:            progress.calls,
		SourcesTracked:      r.tally.Sources(),
		EstimatedDuration:   fmt.Sprintf("%.1f minutes", r.now().Sub(started).Minutes()),
	}
	if err := r.checkpoint(doc, req.OutputPath); err != nil {
		return nil, r.fail(ctx, runID, err)
	}
	if r.catalog != nil {
		if err := r.catalog.RecordCompletion(ctx, runID, progress.questions, progress.calls); err != nil {
			logger.Warn("research: catalog record completion failed", "error", err)
		}
	}

	r.setState(StateDone)
	logger.Info("research: run completed",
		"run_id", runID, "questions", progress.questions,
		"categories", progress.categories, "api_calls", progress.calls,
		"sources", r.tally.Sources())
	return doc, nil
}

type runProgress struct {
	questions  int
	categories int
	units      int
	calls      int
}

func (r *Runner) enrichPerQuestion(ctx context.Context, req Request, fw *framework.Framework, doc *store.Document, pc enrich.PromptContext, progress *runProgress) error {
	logger := common.Logger()
	for _, theme := range fw.Themes {
		tr := &store.ThemeResult{Theme: theme.Name}
		doc.Results = append(doc.Results, tr)
		for _, category := range theme.Categories {
			cr := &store.CategoryResult{Category: category.Name}
			tr.Categories = append(tr.Categories, cr)
			progress.categories++
			for _, question := range category.Questions {
				if req.TestingMode && progress.units >= r.cfg.TestLimit {
					logger.Info("research: test limit reached, stopping traversal", "limit", r.cfg.TestLimit)
					return nil
				}
				logger.Info("research: enriching question",
					"theme", theme.Name, "category", category.Name, "question", question.Main)
				generated := r.client.Complete(ctx, enrich.BasePromptRequest(pc, theme.Name, category.Name, question.Main))
				answer := r.client.Complete(ctx, generated)
				progress.calls += 2
				cr.Questions = append(cr.Questions, &store.QuestionResult{
					MainQuestion:    question.Main,
					GeneratedPrompt: generated,
					BaseContent:     answer,
					SubQuestions:    append([]string(nil), question.SubQuestions...),
					EnrichedAt:      r.now().Format(store.TimestampLayout),
				})
				progress.questions++
				progress.units++
				if err := r.checkpoint(doc, req.OutputPath); err != nil {
					return err
				}
				r.pause()
			}
		}
	}
	return nil
}

func (r *Runner) enrichPerCategory(ctx context.Context, req Request, fw *framework.Framework, doc *store.Document, pc enrich.PromptContext, progress *runProgress) error {
	logger := common.Logger()
	for _, theme := range fw.Themes {
		tr := &store.ThemeResult{Theme: theme.Name}
		doc.Results = append(doc.Results, tr)
		for _, category := range theme.Categories {
			if req.TestingMode && progress.units >= r.cfg.TestLimit {
				logger.Info("research: test limit reached, stopping traversal", "limit", r.cfg.TestLimit)
				return nil
			}
			names := make([]string, 0, len(category.Questions))
			cr := &store.CategoryResult{Category: category.Name}
			for _, question := range category.Questions {
				names = append(names, question.Main)
				cr.Questions = append(cr.Questions, &store.QuestionResult{
					MainQuestion: question.Main,
					SubQuestions: append([]string(nil), question.SubQuestions...),
				})
			}
			logger.Info("research: enriching category",
				"theme", theme.Name, "category", category.Name, "questions", len(names))
			cr.CategoryContent = r.client.Complete(ctx, enrich.CategoryPrompt(pc, theme.Name, category.Name, names))
			progress.calls++
			tr.Categories = append(tr.Categories, cr)
			progress.categories++
			progress.questions += len(names)
			progress.units++
			if err := r.checkpoint(doc, req.OutputPath); err != nil {
				return err
			}
			r.pause()
		}
	}
	return nil
}

func (r *Runner) enhance(ctx context.Context, req Request, doc *store.Document, pc enrich.PromptContext, progress *runProgress) error {
	logger := common.Logger()
	for _, tr := range doc.Results {
		for _, cr := range tr.Categories {
			for _, qr := range cr.Questions {
				if len(qr.SubQuestions) == 0 {
					continue
				}
				logger.Info("research: deep enrichment",
					"question", qr.MainQuestion, "sub_questions", len(qr.SubQuestions))
				content := r.client.Complete(ctx, enrich.DeepReportPrompt(pc, tr.Theme, cr.Category, qr.MainQuestion, qr.SubQuestions, qr.BaseContent))
				progress.calls++
				qr.DeepReport = &store.DeepReport{
					Content:                content,
					Timestamp:              r.now().Format(store.TimestampLayout),
					IntegratedSubQuestions: append([]string(nil), qr.SubQuestions...),
				}
				if err := r.checkpoint(doc, req.OutputPath); err != nil {
					return err
				}
				r.pause()
			}
		}
	}
	return nil
}

func (r *Runner) checkpoint(doc *store.Document, path string) error {
	if path == "" {
		return nil
	}
	return store.SaveDocument(doc, path)
}

func (r *Runner) pause() {
	if r.cfg.CallDelay > 0 {
		r.sleep(r.cfg.CallDelay)
	}
}

func (r *Runner) fail(ctx context.Context, runID string, cause error) error {
	logger := common.Logger()
	r.mu.Lock()
	r.state = StateFailed
	r.failure = cause.Error()
	r.mu.Unlock()
	logger.Error("research: run failed", "run_id", runID, "error", cause)
	if r.catalog != nil {
		if err := r.catalog.RecordFailure(ctx, runID, cause.Error()); err != nil {
			logger.Warn("research: catalog record failure failed", "error", err)
		}
	}
	return cause
}

// IsFormatError reports whether a run failure was caused by a malformed
// input grid rather than a storage problem.
func IsFormatError(err error) bool {
	var fe *framework.FormatError
	return errors.As(err, &fe)
}
