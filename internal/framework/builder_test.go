package framework

import (
	"errors"
	"reflect"
	"testing"
)

func sampleGrid() [][]string {
	return [][]string{
		{"", "", ""},
		{"Mục đích của Market Research", "Đánh giá thị trường xe điện"},
		{"Layer 1", "Layer 2", "Layer 3", "Layer 4"},
		{"Automotive", "Market Size", "What drives EV adoption?", "Price; Range"},
		{"", "", "How big is the market?", ""},
		{"", "Competition", "Who are the key players?", "Local brands"},
	}
}

func TestBuildSampleGrid(t *testing.T) {
	fw, err := Build(sampleGrid(), "")
	if err != nil {
		t.Fatalf("build sample grid: %v", err)
	}
	if fw.Purpose != "Đánh giá thị trường xe điện" {
		t.Fatalf("unexpected purpose: %q", fw.Purpose)
	}
	if len(fw.Themes) != 1 {
		t.Fatalf("expected 1 theme, got %d", len(fw.Themes))
	}
	theme := fw.Themes[0]
	if theme.Name != "Automotive" {
		t.Fatalf("unexpected theme name: %q", theme.Name)
	}
	if len(theme.Categories) != 2 {
		t.Fatalf("expected 2 categories, got %d", len(theme.Categories))
	}
	market := theme.Categories[0]
	if market.Name != "Market Size" || len(market.Questions) != 2 {
		t.Fatalf("unexpected first category: %q with %d questions", market.Name, len(market.Questions))
	}
	if got := market.Questions[0].SubQuestions; !reflect.DeepEqual(got, []string{"Price", "Range"}) {
		t.Fatalf("semicolon cell not split: %v", got)
	}
	if len(market.Questions[1].SubQuestions) != 0 {
		t.Fatalf("second question should have no sub-questions: %v", market.Questions[1].SubQuestions)
	}
	competition := theme.Categories[1]
	if competition.Name != "Competition" || len(competition.Questions) != 1 {
		t.Fatalf("unexpected second category: %q with %d questions", competition.Name, len(competition.Questions))
	}
	if fw.QuestionCount() != 3 || fw.CategoryCount() != 2 {
		t.Fatalf("counts: questions=%d categories=%d", fw.QuestionCount(), fw.CategoryCount())
	}
}

func TestBuildDeduplicatesShallowLevels(t *testing.T) {
	grid := [][]string{
		{"Mục đích của Market Research", "p"},
		{"Layer 1", "Layer 2", "Layer 3"},
		{"Theme A", "Cat 1", "Q1"},
		{"Theme B", "Cat 1", "Q2"},
		{"Theme A", "Cat 1", "Q3"},
	}
	fw, err := Build(grid, "")
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	if len(fw.Themes) != 2 {
		t.Fatalf("expected themes merged by label, got %d", len(fw.Themes))
	}
	themeA := fw.Themes[0]
	if len(themeA.Categories) != 1 {
		t.Fatalf("expected Cat 1 reused within Theme A, got %d categories", len(themeA.Categories))
	}
	// Categories dedupe within a theme only; Theme B gets its own Cat 1.
	if len(fw.Themes[1].Categories) != 1 {
		t.Fatalf("Theme B should carry its own category, got %d", len(fw.Themes[1].Categories))
	}
	if got := len(themeA.Categories[0].Questions); got != 2 {
		t.Fatalf("Theme A / Cat 1 should hold Q1 and Q3, got %d questions", got)
	}
}

func TestBuildNeverDeduplicatesQuestions(t *testing.T) {
	grid := [][]string{
		{"Mục đích của Market Research", "p"},
		{"Layer 1", "Layer 2", "Layer 3"},
		{"T", "C", "Same question"},
		{"", "", "Same question"},
	}
	fw, err := Build(grid, "")
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	if got := fw.QuestionCount(); got != 2 {
		t.Fatalf("identical question labels must stay distinct nodes, got %d", got)
	}
}

func TestBuildDropsSkippedLevelValues(t *testing.T) {
	grid := [][]string{
		{"Mục đích của Market Research", "p"},
		{"Layer 1", "Layer 2", "Layer 3", "Layer 4"},
		{"Theme A", "Cat 1", "Q1", ""},
		// New theme with no category or question: the layer 4 value has
		// nothing to attach to.
		{"Theme B", "", "", "Orphan sub"},
		// The theme switch above cleared the category pointer, so this
		// question has no parent either.
		{"", "", "Q2", ""},
	}
	fw, err := Build(grid, "")
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	if got := fw.QuestionCount(); got != 1 {
		t.Fatalf("expected only Q1 to survive, got %d questions", got)
	}
	q1 := fw.Themes[0].Categories[0].Questions[0]
	if len(q1.SubQuestions) != 0 {
		t.Fatalf("orphan sub-question leaked onto Q1: %v", q1.SubQuestions)
	}
	if len(fw.Themes) != 2 || len(fw.Themes[1].Categories) != 0 {
		t.Fatalf("Theme B should exist but stay empty: %+v", fw.Themes)
	}
}

func TestBuildRowsAttachUnderActivePointers(t *testing.T) {
	grid := [][]string{
		{"Mục đích của Market Research", "p"},
		{"Layer 1", "Layer 2", "Layer 3", "Layer 4"},
		{"T", "C", "Q1", ""},
		{"", "", "", "Follow-up"},
		{"", "", "Q2", ""},
	}
	fw, err := Build(grid, "")
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	questions := fw.Themes[0].Categories[0].Questions
	if len(questions) != 2 {
		t.Fatalf("expected 2 questions, got %d", len(questions))
	}
	if !reflect.DeepEqual(questions[0].SubQuestions, []string{"Follow-up"}) {
		t.Fatalf("sub-question row did not attach to Q1: %v", questions[0].SubQuestions)
	}
}

func TestBuildPurposePrecedence(t *testing.T) {
	fw, err := Build(sampleGrid(), "Custom purpose")
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	if fw.Purpose != "Custom purpose" {
		t.Fatalf("custom purpose should win, got %q", fw.Purpose)
	}

	grid := [][]string{
		{"Mục đích của Market Research", ""},
		{"Layer 1", "Layer 2", "Layer 3"},
		{"T", "C", "Q"},
	}
	fw, err = Build(grid, "")
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	if fw.Purpose != DefaultPurpose {
		t.Fatalf("empty purpose cell should fall back to default, got %q", fw.Purpose)
	}
}

func TestBuildMissingPurposeMarker(t *testing.T) {
	grid := [][]string{
		{"Layer 1", "Layer 2", "Layer 3"},
		{"T", "C", "Q"},
	}
	_, err := Build(grid, "")
	var fe *FormatError
	if !errors.As(err, &fe) {
		t.Fatalf("expected FormatError, got %v", err)
	}
}

func TestBuildInsufficientLayerColumns(t *testing.T) {
	grid := [][]string{
		{"Mục đích của Market Research", "p"},
		{"Layer 1", "Layer 2"},
		{"T", "C"},
	}
	_, err := Build(grid, "")
	var fe *FormatError
	if !errors.As(err, &fe) {
		t.Fatalf("expected FormatError, got %v", err)
	}
}

func TestBuildEmptyGrid(t *testing.T) {
	_, err := Build(nil, "")
	var fe *FormatError
	if !errors.As(err, &fe) {
		t.Fatalf("expected FormatError for empty grid, got %v", err)
	}
}

func TestBuildSkipsBlankRows(t *testing.T) {
	grid := [][]string{
		{"Mục đích của Market Research", "p"},
		{"Layer 1", "Layer 2", "Layer 3"},
		{"", "", ""},
		{"T", "C", "Q"},
		{},
	}
	fw, err := Build(grid, "")
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	if fw.QuestionCount() != 1 {
		t.Fatalf("blank rows should be ignored, got %d questions", fw.QuestionCount())
	}
}

func TestSplitSubQuestions(t *testing.T) {
	got := splitSubQuestions(" Price ; Range ;; ")
	if !reflect.DeepEqual(got, []string{"Price", "Range"}) {
		t.Fatalf("unexpected split: %v", got)
	}
}
