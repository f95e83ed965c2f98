// Package framework turns the sparse spreadsheet layout of a research
// framework into a nested question hierarchy: Theme > Category > Question,
// with flattened sub-questions hanging off each question.
package framework

import "fmt"

// Framework is the parsed question hierarchy plus the research purpose.
type Framework struct {
	Purpose string
	Themes  []*Theme
}

// Theme is a Layer 1 grouping.
type Theme struct {
	Name       string
	Categories []*Category
}

// Category is a Layer 2 grouping within a theme.
type Category struct {
	Name      string
	Questions []*Question
}

// Question is a Layer 3 research question. Layer 4 and deeper cells are
// flattened into SubQuestions rather than nested further.
type Question struct {
	Main         string
	SubQuestions []string
}

// QuestionCount returns the number of main questions across all themes.
func (f *Framework) QuestionCount() int {
	total := 0
	for _, theme := range f.Themes {
		for _, category := range theme.Categories {
			total += len(category.Questions)
		}
	}
	return total
}

// CategoryCount returns the number of categories across all themes.
func (f *Framework) CategoryCount() int {
	total := 0
	for _, theme := range f.Themes {
		total += len(theme.Categories)
	}
	return total
}

// FormatError reports an input grid that does not satisfy the minimum
// structural contract. No partial framework accompanies it.
type FormatError struct {
	Reason string
}

func (e *FormatError) Error() string {
	return fmt.Sprintf("framework format: %s", e.Reason)
}

func formatErrorf(format string, args ...any) error {
	return &FormatError{Reason: fmt.Sprintf(format, args...)}
}
