// Package store persists the evolving result document and keeps the durable
// run catalog. The document is the sole interchange format between the
// pipeline and the report renderer.
package store

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/minhvu-dev/marketscribe/internal/enrich"
)

// Mode selects how a run enriches the framework: one call pair per main
// question, or one combined call per category. Exactly one applies per run.
type Mode string

const (
	ModePerQuestion Mode = "per-question"
	ModePerCategory Mode = "per-category"
)

// TimestampLayout is used for every human-readable timestamp in the document.
const TimestampLayout = "2006-01-02 15:04:05"

// Document is the full serialized result tree, isomorphic to the input
// framework with enrichment payloads attached.
type Document struct {
	Industry          string                   `json:"industry"`
	Market            string                   `json:"market"`
	Purpose           string                   `json:"purpose"`
	ModelUsed         string                   `json:"model_used"`
	APIProvider       string                   `json:"api_provider"`
	AnalysisMode      Mode                     `json:"analysis_mode"`
	Timestamp         string                   `json:"research_timestamp"`
	TestingMode       bool                     `json:"testing_mode,omitempty"`
	Results           []*ThemeResult           `json:"research_results"`
	TrackedReferences []enrich.ReferenceCount  `json:"tracked_references,omitempty"`
	Statistics        *Statistics              `json:"statistics,omitempty"`
}

type ThemeResult struct {
	Theme      string            `json:"theme"`
	Categories []*CategoryResult `json:"categories"`
}

type CategoryResult struct {
	Category string `json:"category"`
	// CategoryContent is set only in per-category mode; its questions then
	// carry no base content.
	CategoryContent string            `json:"category_content,omitempty"`
	Questions       []*QuestionResult `json:"questions,omitempty"`
}

type QuestionResult struct {
	MainQuestion    string                  `json:"main_question"`
	GeneratedPrompt string                  `json:"generated_prompt,omitempty"`
	BaseContent     string                  `json:"base_content,omitempty"`
	SubQuestions    []string                `json:"sub_questions,omitempty"`
	EnrichedAt      string                  `json:"enriched_at,omitempty"`
	DeepReport      *DeepReport             `json:"deep_report,omitempty"`
	Enhancements    map[string]*Enhancement `json:"layer4_enhancements,omitempty"`
}

// DeepReport is the second-stage analysis integrating all sub-questions of a
// main question.
type DeepReport struct {
	Content                string   `json:"content"`
	Timestamp              string   `json:"timestamp"`
	IntegratedSubQuestions []string `json:"integrated_sub_questions,omitempty"`
}

// Enhancement is a later, targeted expansion of a single sub-question.
type Enhancement struct {
	Content   string `json:"content"`
	Timestamp string `json:"timestamp"`
}

type Statistics struct {
	QuestionsProcessed  int    `json:"questions_processed"`
	CategoriesProcessed int    `json:"categories_processed"`
	APICalls            int    `json:"api_calls"`
	SourcesTracked      int    `json:"sources_tracked"`
	EstimatedDuration   string `json:"estimated_duration,omitempty"`
}

// Locator addresses one question by its exact label path. Matching is
// case-sensitive and stops at the first hit in traversal order.
type Locator struct {
	Theme    string
	Category string
	Question string
}

func (l Locator) String() string {
	return fmt.Sprintf("%s > %s > %s", l.Theme, l.Category, l.Question)
}

// NotFoundError reports a locator that matched no question. Storage is left
// untouched when it is returned.
type NotFoundError struct {
	Locator Locator
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("store: no question at %q", e.Locator.String())
}

// StorageError reports a failure reading or writing the persisted document.
// It is the one error class that aborts an in-progress run.
type StorageError struct {
	Op   string
	Path string
	Err  error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("store: %s %s: %v", e.Op, e.Path, e.Err)
}

func (e *StorageError) Unwrap() error {
	return e.Err
}

// SaveDocument serializes the document to path, replacing any existing file.
// The write goes through a temp file and rename so a crash mid-write never
// leaves a truncated document behind.
func SaveDocument(doc *Document, path string) error {
	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return &StorageError{Op: "encode", Path: path, Err: err}
	}
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return &StorageError{Op: "mkdir", Path: dir, Err: err}
	}
	tmp, err := os.CreateTemp(dir, ".document-*.json")
	if err != nil {
		return &StorageError{Op: "create", Path: path, Err: err}
	}
	tmpPath := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return &StorageError{Op: "write", Path: path, Err: err}
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpPath)
		return &StorageError{Op: "close", Path: path, Err: err}
	}
	if err := os.Rename(tmpPath, path); err != nil {
		os.Remove(tmpPath)
		return &StorageError{Op: "rename", Path: path, Err: err}
	}
	return nil
}

// LoadDocument reads a previously saved document.
func LoadDocument(path string) (*Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, &StorageError{Op: "read", Path: path, Err: err}
	}
	var doc Document
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, &StorageError{Op: "decode", Path: path, Err: err}
	}
	return &doc, nil
}

// ApplyDeepReport loads the document at path, attaches a deep report to the
// located question, and rewrites the whole document. Either the question is
// found and the tree is rewritten, or nothing is written at all.
func ApplyDeepReport(path string, loc Locator, report DeepReport) error {
	return mutate(path, loc, func(q *QuestionResult) {
		q.DeepReport = &report
	})
}

// ApplyEnhancement attaches a single sub-question enhancement to the located
// question with the same all-or-nothing guarantee as ApplyDeepReport.
func ApplyEnhancement(path string, loc Locator, subQuestion string, enh Enhancement) error {
	return mutate(path, loc, func(q *QuestionResult) {
		if q.Enhancements == nil {
			q.Enhancements = make(map[string]*Enhancement)
		}
		q.Enhancements[subQuestion] = &enh
	})
}

func mutate(path string, loc Locator, apply func(*QuestionResult)) error {
	doc, err := LoadDocument(path)
	if err != nil {
		return err
	}
	question := doc.locate(loc)
	if question == nil {
		return &NotFoundError{Locator: loc}
	}
	apply(question)
	return SaveDocument(doc, path)
}

func (d *Document) locate(loc Locator) *QuestionResult {
	for _, theme := range d.Results {
		if theme.Theme != loc.Theme {
			continue
		}
		for _, category := range theme.Categories {
			if category.Category != loc.Category {
				continue
			}
			for _, question := range category.Questions {
				if question.MainQuestion == loc.Question {
					return question
				}
			}
		}
	}
	return nil
}
