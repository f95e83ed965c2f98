// Package report renders a result document into a Word report. It is a thin
// collaborator of the pipeline; layout stays minimal on purpose.
package report

import (
	"fmt"
	"os"
	"strings"

	"github.com/fumiama/go-docx"

	"github.com/minhvu-dev/marketscribe/internal/common"
	"github.com/minhvu-dev/marketscribe/internal/store"
)

const (
	titleSize    = "48"
	headingSize  = "32"
	subheadSize  = "28"
	questionSize = "24"

	accentColor = "003366"
)

// Exporter writes .docx reports from result documents.
type Exporter struct{}

// Export renders doc into a Word file at path.
func (e *Exporter) Export(doc *store.Document, path string) error {
	logger := common.Logger()
	w := docx.New().WithDefaultTheme()

	title := w.AddParagraph()
	title.Justification("center")
	title.AddText("BÁO CÁO NGHIÊN CỨU THỊ TRƯỜNG").Size(titleSize).Bold().Color(accentColor)

	subtitle := w.AddParagraph()
	subtitle.Justification("center")
	subtitle.AddText(fmt.Sprintf("%s - %s", strings.ToUpper(doc.Industry), strings.ToUpper(doc.Market))).Size(headingSize).Bold()

	w.AddParagraph()
	meta := [][2]string{
		{"Mục đích nghiên cứu", doc.Purpose},
		{"Model", doc.ModelUsed},
		{"API provider", doc.APIProvider},
		{"Chế độ phân tích", string(doc.AnalysisMode)},
		{"Thời gian", doc.Timestamp},
	}
	for _, item := range meta {
		p := w.AddParagraph()
		p.AddText(item[0] + ": ").Bold()
		p.AddText(item[1])
	}

	w.AddParagraph()
	results := w.AddParagraph()
	results.Justification("center")
	results.AddText("KẾT QUẢ NGHIÊN CỨU CHI TIẾT").Size(headingSize).Bold().Color(accentColor)

	for ti, theme := range doc.Results {
		p := w.AddParagraph()
		p.AddText(fmt.Sprintf("%d. %s", ti+1, theme.Theme)).Size(headingSize).Bold().Color(accentColor)
		for ci, category := range theme.Categories {
			cp := w.AddParagraph()
			cp.AddText(fmt.Sprintf("%d.%d %s", ti+1, ci+1, category.Category)).Size(subheadSize).Bold()
			if category.CategoryContent != "" {
				writeBody(w, category.CategoryContent)
			}
			for qi, question := range category.Questions {
				qp := w.AddParagraph()
				qp.AddText(fmt.Sprintf("%d.%d.%d %s", ti+1, ci+1, qi+1, question.MainQuestion)).Size(questionSize).Bold()
				if question.BaseContent != "" {
					writeBody(w, question.BaseContent)
				}
				if question.DeepReport != nil {
					dp := w.AddParagraph()
					dp.AddText("Phân tích chuyên sâu").Bold().Italic()
					writeBody(w, question.DeepReport.Content)
				}
				for sub, enh := range question.Enhancements {
					ep := w.AddParagraph()
					ep.AddText("Mở rộng: " + sub).Bold().Italic()
					writeBody(w, enh.Content)
				}
			}
		}
	}

	if len(doc.TrackedReferences) > 0 {
		w.AddParagraph()
		rp := w.AddParagraph()
		rp.AddText("TÀI LIỆU THAM KHẢO").Size(headingSize).Bold().Color(accentColor)
		for i, ref := range doc.TrackedReferences {
			p := w.AddParagraph()
			p.AddText(fmt.Sprintf("%d. %s (%dx)", i+1, ref.Source, ref.Count))
		}
	}

	if doc.Statistics != nil {
		w.AddParagraph()
		sp := w.AddParagraph()
		sp.AddText("THỐNG KÊ").Size(headingSize).Bold().Color(accentColor)
		stats := doc.Statistics
		lines := []string{
			fmt.Sprintf("Câu hỏi đã xử lý: %d", stats.QuestionsProcessed),
			fmt.Sprintf("Lĩnh vực đã xử lý: %d", stats.CategoriesProcessed),
			fmt.Sprintf("Số lần gọi API: %d", stats.APICalls),
			fmt.Sprintf("Nguồn tham khảo: %d", stats.SourcesTracked),
			fmt.Sprintf("Thời lượng: %s", stats.EstimatedDuration),
		}
		for _, line := range lines {
			w.AddParagraph().AddText(line)
		}
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create report: %w", err)
	}
	defer f.Close()
	if _, err := w.WriteTo(f); err != nil {
		return fmt.Errorf("write report: %w", err)
	}
	logger.Info("report: document exported", "path", path)
	return nil
}

// writeBody emits content as one paragraph per non-empty line so model
// answers keep their paragraph breaks.
func writeBody(w *docx.Docx, content string) {
	for _, line := range strings.Split(content, "\n") {
		trimmed := strings.TrimSpace(line)
		if trimmed == "" {
			continue
		}
		w.AddParagraph().AddText(trimmed)
	}
}
