package framework

import (
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"

	"github.com/minhvu-dev/marketscribe/internal/common"
)

// TemplateSheet is the sheet the research framework lives on. Workbooks
// without it fall back to their first sheet.
const TemplateSheet = "template"

// LoadWorkbook reads the framework grid from an .xlsx file on disk.
func LoadWorkbook(path string) ([][]string, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("open workbook: %w", err)
	}
	defer f.Close()
	return workbookGrid(f)
}

// ReadWorkbook reads the framework grid from workbook bytes, e.g. an upload.
func ReadWorkbook(r io.Reader) ([][]string, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("read workbook: %w", err)
	}
	defer f.Close()
	return workbookGrid(f)
}

func workbookGrid(f *excelize.File) ([][]string, error) {
	logger := common.Logger()
	sheet := TemplateSheet
	if idx, err := f.GetSheetIndex(sheet); err != nil || idx < 0 {
		sheet = f.GetSheetName(0)
		logger.Warn("framework: template sheet missing, using first sheet", "sheet", sheet)
	}
	if sheet == "" {
		return nil, &FormatError{Reason: "workbook has no sheets"}
	}
	rows, err := f.GetRows(sheet)
	if err != nil {
		return nil, fmt.Errorf("read sheet %q: %w", sheet, err)
	}
	if len(rows) == 0 {
		return nil, &FormatError{Reason: "sheet is empty"}
	}
	logger.Debug("framework: workbook loaded", "sheet", sheet, "rows", len(rows))
	return rows, nil
}
