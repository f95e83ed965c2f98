package enrich

import (
	"regexp"
	"sort"
	"strings"
)

// referencePatterns matches organization and source names that commonly
// appear in model answers: statistics offices, consultancies, market-data
// vendors, banks, and generic ministry phrases. RE2's \b only recognizes
// ASCII word characters, so names ending in accented Vietnamese letters are
// matched as plain substrings instead of boundary-anchored alternates.
var referencePatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)Tổng cục Thống kê`),
	regexp.MustCompile(`(?i)\b(?:General Statistics Office|GSO)\b`),
	regexp.MustCompile(`(?i)Ngân hàng Thế giới`),
	regexp.MustCompile(`(?i)\bWorld Bank\b`),
	regexp.MustCompile(`(?i)\b(?:IMF|International Monetary Fund)\b`),
	regexp.MustCompile(`(?i)\b(?:ADB|Asian Development Bank)\b`),
	regexp.MustCompile(`(?i)\b(?:McKinsey|Deloitte|PwC|KPMG|BCG)\b`),
	regexp.MustCompile(`(?i)\b(?:Nielsen|Euromonitor|Statista)\b`),
	regexp.MustCompile(`(?i)\b(?:VCCI|Vietnam Chamber of Commerce)\b`),
	regexp.MustCompile(`(?i)Bộ (?:Kế hoạch|Tài chính|Công Thương|Y tế|Giáo dục)`),
	regexp.MustCompile(`(?i)\b(?:VAMA|Vietnam Automobile)\b`),
	regexp.MustCompile(`(?i)\b(?:VINASA|Vietnam Software)\b`),
	regexp.MustCompile(`(?i)\b(?:VFA|Vietnam Food Association)\b`),
	regexp.MustCompile(`(?i)\b(?:FPT|Viettel|VNPT)\b`),
	regexp.MustCompile(`(?i)Ngân hàng Nhà nước`),
	regexp.MustCompile(`(?i)\bState Bank of Vietnam\b`),
	regexp.MustCompile(`(?i)\b(?:Bloomberg|Reuters|Financial Times)\b`),
	regexp.MustCompile(`(?i)\b(?:Forbes|Harvard Business Review|MIT)\b`),
	regexp.MustCompile(`(?i)\b(?:Gartner|IDC|Forrester)\b`),
	regexp.MustCompile(`(?i)\bMinistry of\s+[A-Za-zÀ-ỹ]+(?:\s+[A-Za-zÀ-ỹ]+)?`),
	regexp.MustCompile(`(?i)\bGovernment of\s+[A-Za-zÀ-ỹ]+(?:\s+[A-Za-zÀ-ỹ]+)?`),
	regexp.MustCompile(`(?i)Chính phủ\s+[A-Za-zÀ-ỹ]+(?:\s+[A-Za-zÀ-ỹ]+)?`),
}

// sourceAliases folds known variants of a source name onto one canonical key.
var sourceAliases = map[string]string{
	"Tổng cục Thống kê":          "General Statistics Office (GSO)",
	"General Statistics Office":  "General Statistics Office (GSO)",
	"GSO":                        "General Statistics Office (GSO)",
	"Ngân hàng Thế giới":         "World Bank",
	"IMF":                        "International Monetary Fund (IMF)",
	"International Monetary Fund": "International Monetary Fund (IMF)",
	"McKinsey":                   "McKinsey & Company",
	"Deloitte":                   "Deloitte Consulting",
	"PwC":                        "PricewaterhouseCoopers (PwC)",
	"KPMG":                       "KPMG International",
	"Nielsen":                    "Nielsen Holdings",
	"Euromonitor":                "Euromonitor International",
	"Statista":                   "Statista GmbH",
	"VCCI":                       "Vietnam Chamber of Commerce and Industry (VCCI)",
	"Vietnam Chamber of Commerce": "Vietnam Chamber of Commerce and Industry (VCCI)",
}

// ReferenceCount is one ranked entry of the tracked-source list.
type ReferenceCount struct {
	Source string `json:"source"`
	Count  int    `json:"count"`
}

// ReferenceTally accumulates source-name frequencies across the model calls
// of a single run. It is injected into the enrichment client rather than
// held globally, so concurrent runs in one process cannot cross-contaminate.
// A tally is not safe for concurrent use; each run owns exactly one.
type ReferenceTally struct {
	counts    map[string]int
	firstSeen map[string]int
	next      int
}

func NewReferenceTally() *ReferenceTally {
	t := &ReferenceTally{}
	t.Reset()
	return t
}

// Reset clears all accumulated counts. Called at run start.
func (t *ReferenceTally) Reset() {
	t.counts = make(map[string]int)
	t.firstSeen = make(map[string]int)
	t.next = 0
}

// Observe scans response content for known source patterns and counts each
// normalized match.
func (t *ReferenceTally) Observe(content string) {
	for _, pattern := range referencePatterns {
		for _, match := range pattern.FindAllString(content, -1) {
			source := strings.TrimSpace(match)
			if len(source) <= 3 {
				continue
			}
			t.Add(normalizeSource(source))
		}
	}
}

// Add counts one occurrence of an already-normalized source name.
func (t *ReferenceTally) Add(source string) {
	if source == "" {
		return
	}
	if _, seen := t.counts[source]; !seen {
		t.firstSeen[source] = t.next
		t.next++
	}
	t.counts[source]++
}

// Sources returns the number of distinct sources tracked so far.
func (t *ReferenceTally) Sources() int {
	return len(t.counts)
}

// Top returns up to n sources ranked by occurrence count, descending.
// Ties break by first-seen order so rankings are reproducible.
func (t *ReferenceTally) Top(n int) []ReferenceCount {
	ranked := make([]ReferenceCount, 0, len(t.counts))
	for source, count := range t.counts {
		ranked = append(ranked, ReferenceCount{Source: source, Count: count})
	}
	sort.Slice(ranked, func(i, j int) bool {
		if ranked[i].Count != ranked[j].Count {
			return ranked[i].Count > ranked[j].Count
		}
		return t.firstSeen[ranked[i].Source] < t.firstSeen[ranked[j].Source]
	})
	if n > 0 && len(ranked) > n {
		ranked = ranked[:n]
	}
	return ranked
}

func normalizeSource(source string) string {
	if canonical, ok := sourceAliases[source]; ok {
		return canonical
	}
	return source
}
