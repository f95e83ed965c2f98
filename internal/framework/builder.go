package framework

import (
	"strings"

	"github.com/minhvu-dev/marketscribe/internal/common"
)

const (
	purposeMarker = "Mục đích của Market Research"
	layerMarker   = "Layer"

	// DefaultPurpose is used when neither a custom purpose nor a parsed
	// purpose cell is available.
	DefaultPurpose = "Nghiên cứu và phân tích thị trường"

	minLayerColumns = 3
)

// Build parses a sparse tabular grid into a Framework. The grid must contain
// a purpose-marker row followed by a header row with at least three "Layer"
// columns. customPurpose, when non-empty, overrides the parsed purpose.
func Build(grid [][]string, customPurpose string) (*Framework, error) {
	logger := common.Logger()
	if len(grid) == 0 {
		return nil, formatErrorf("empty grid")
	}

	purposeRow, parsedPurpose := findPurpose(grid)
	if purposeRow < 0 {
		return nil, formatErrorf("purpose marker %q not found", purposeMarker)
	}

	headerRow, layerCols := findLayerHeader(grid, purposeRow+1)
	if headerRow < 0 {
		return nil, formatErrorf("layer header row not found")
	}
	if len(layerCols) < minLayerColumns {
		return nil, formatErrorf("insufficient layer columns: found %d, need %d", len(layerCols), minLayerColumns)
	}
	logger.Debug("framework: layer header located", "row", headerRow, "columns", len(layerCols))

	fw := &Framework{Purpose: resolvePurpose(customPurpose, parsedPurpose)}

	var (
		theme    *Theme
		category *Category
		question *Question
	)

	for _, row := range grid[headerRow+1:] {
		values := layerValues(row, layerCols)
		deepest := deepestLevel(values)
		if deepest < 0 {
			continue
		}
		for level := 0; level <= deepest; level++ {
			value := values[level]
			if value == "" {
				continue
			}
			switch level {
			case 0:
				next := findTheme(fw, value)
				if next == nil {
					next = &Theme{Name: value}
					fw.Themes = append(fw.Themes, next)
				}
				if next != theme {
					// Switching themes invalidates the deeper
					// pointers; skipped-level values in the same
					// row have nothing to attach to and are dropped.
					category = nil
					question = nil
				}
				theme = next
			case 1:
				if theme == nil {
					logger.Warn("framework: category without theme dropped", "value", value)
					continue
				}
				next := findCategory(theme, value)
				if next == nil {
					next = &Category{Name: value}
					theme.Categories = append(theme.Categories, next)
				}
				if next != category {
					question = nil
				}
				category = next
			case 2:
				if category == nil {
					logger.Warn("framework: question without category dropped", "value", value)
					continue
				}
				question = &Question{Main: value}
				category.Questions = append(category.Questions, question)
			default:
				if question == nil {
					logger.Warn("framework: sub-question without question dropped", "value", value)
					continue
				}
				question.SubQuestions = append(question.SubQuestions, splitSubQuestions(value)...)
			}
		}
		// Pointers deeper than the row's deepest value go stale.
		if deepest < 2 {
			question = nil
		}
		if deepest < 1 {
			category = nil
		}
	}

	logger.Info("framework: grid parsed",
		"themes", len(fw.Themes),
		"categories", fw.CategoryCount(),
		"questions", fw.QuestionCount())
	return fw, nil
}

func resolvePurpose(custom, parsed string) string {
	if p := strings.TrimSpace(custom); p != "" {
		return p
	}
	if p := strings.TrimSpace(parsed); p != "" {
		return p
	}
	return DefaultPurpose
}

func findPurpose(grid [][]string) (int, string) {
	for idx, row := range grid {
		marked := false
		for _, cell := range row {
			if strings.Contains(cell, purposeMarker) {
				marked = true
				break
			}
		}
		if !marked {
			continue
		}
		for _, cell := range row {
			trimmed := strings.TrimSpace(cell)
			if trimmed == "" || strings.Contains(cell, purposeMarker) {
				continue
			}
			return idx, trimmed
		}
		return idx, ""
	}
	return -1, ""
}

func findLayerHeader(grid [][]string, start int) (int, []int) {
	for idx := start; idx < len(grid); idx++ {
		var cols []int
		for col, cell := range grid[idx] {
			if strings.Contains(cell, layerMarker) {
				cols = append(cols, col)
			}
		}
		if len(cols) > 0 {
			return idx, cols
		}
	}
	return -1, nil
}

func layerValues(row []string, layerCols []int) []string {
	values := make([]string, len(layerCols))
	for i, col := range layerCols {
		if col < len(row) {
			values[i] = strings.TrimSpace(row[col])
		}
	}
	return values
}

func deepestLevel(values []string) int {
	deepest := -1
	for level, value := range values {
		if value != "" {
			deepest = level
		}
	}
	return deepest
}

// splitSubQuestions breaks a layer 4+ cell into individual sub-questions.
// Authors routinely pack several facets into one cell separated by
// semicolons.
func splitSubQuestions(cell string) []string {
	parts := strings.Split(cell, ";")
	out := make([]string, 0, len(parts))
	for _, part := range parts {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}

func findTheme(fw *Framework, name string) *Theme {
	for _, theme := range fw.Themes {
		if theme.Name == name {
			return theme
		}
	}
	return nil
}

func findCategory(theme *Theme, name string) *Category {
	for _, category := range theme.Categories {
		if category.Name == name {
			return category
		}
	}
	return nil
}
