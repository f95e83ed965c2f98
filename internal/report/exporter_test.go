package report

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/minhvu-dev/marketscribe/internal/enrich"
	"github.com/minhvu-dev/marketscribe/internal/store"
)

func TestExportWritesDocument(t *testing.T) {
	doc := &store.Document{
		Industry:     "Automotive",
		Market:       "Việt Nam",
		Purpose:      "Đánh giá thị trường xe điện",
		ModelUsed:    "gpt-4o-mini",
		APIProvider:  "openai",
		AnalysisMode: store.ModePerQuestion,
		Timestamp:    "2026-08-31 10:00:00",
		Results: []*store.ThemeResult{
			{
				Theme: "Automotive",
				Categories: []*store.CategoryResult{
					{
						Category: "Market Size",
						Questions: []*store.QuestionResult{
							{
								MainQuestion: "What drives EV adoption?",
								BaseContent:  "Charging networks.\n\nIncentives.",
								SubQuestions: []string{"Price", "Range"},
								DeepReport: &store.DeepReport{
									Content:                "Integrated analysis.",
									Timestamp:              "2026-08-31 10:05:00",
									IntegratedSubQuestions: []string{"Price", "Range"},
								},
								Enhancements: map[string]*store.Enhancement{
									"Price": {Content: "Price deep dive.", Timestamp: "2026-08-31 10:06:00"},
								},
							},
						},
					},
				},
			},
		},
		TrackedReferences: []enrich.ReferenceCount{{Source: "World Bank", Count: 2}},
		Statistics: &store.Statistics{
			QuestionsProcessed: 1, CategoriesProcessed: 1, APICalls: 3,
			SourcesTracked: 1, EstimatedDuration: "0.5 minutes",
		},
	}

	path := filepath.Join(t.TempDir(), "report.docx")
	exporter := &Exporter{}
	if err := exporter.Export(doc, path); err != nil {
		t.Fatalf("export: %v", err)
	}
	info, err := os.Stat(path)
	if err != nil {
		t.Fatalf("stat report: %v", err)
	}
	if info.Size() == 0 {
		t.Fatal("exported report is empty")
	}
}

func TestExportPerCategoryDocument(t *testing.T) {
	doc := &store.Document{
		Industry:     "Retail",
		Market:       "Việt Nam",
		Purpose:      "p",
		AnalysisMode: store.ModePerCategory,
		Timestamp:    "2026-08-31 10:00:00",
		Results: []*store.ThemeResult{
			{
				Theme: "Retail",
				Categories: []*store.CategoryResult{
					{
						Category:        "Consumers",
						CategoryContent: "Combined category analysis.",
						Questions: []*store.QuestionResult{
							{MainQuestion: "Who shops online?"},
						},
					},
				},
			},
		},
	}
	path := filepath.Join(t.TempDir(), "report.docx")
	exporter := &Exporter{}
	if err := exporter.Export(doc, path); err != nil {
		t.Fatalf("export: %v", err)
	}
}

func TestExportBadPath(t *testing.T) {
	doc := &store.Document{Industry: "X", Market: "Y", Timestamp: "2026-08-31 10:00:00"}
	exporter := &Exporter{}
	if err := exporter.Export(doc, filepath.Join(t.TempDir(), "missing-dir", "report.docx")); err == nil {
		t.Fatal("expected error for unwritable path")
	}
}
