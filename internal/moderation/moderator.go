// Package moderation classifies chat text as clean or offensive.
//
// A Moderator holds only its immutable lexicon, so every method is a pure
// function of its input and a single instance is safe for concurrent use.
package moderation

import (
	"regexp"
	"sort"
	"strings"
	"unicode"
	"unicode/utf8"
)

type Severity string

const (
	SeverityNone     Severity = "none"
	SeverityLow      Severity = "low"
	SeverityMedium   Severity = "medium"
	SeverityHigh     Severity = "high"
	SeverityCritical Severity = "critical"
)

// Rank orders severities from none (0) to critical (4).
func (s Severity) Rank() int {
	switch s {
	case SeverityLow:
		return 1
	case SeverityMedium:
		return 2
	case SeverityHigh:
		return 3
	case SeverityCritical:
		return 4
	}
	return 0
}

const (
	ReasonOffensive     = "offensive language detected"
	ReasonPossibleSpam  = "possible spam"
	ReasonCharacterSpam = "character spam"

	maxURLs          = 3
	maxRepeatedChars = 10
)

var (
	urlPattern   = regexp.MustCompile(`(?i)(?:https?://|www\.)[^\s]+`)
	phonePattern = regexp.MustCompile(`\+?\d[\d\s.\-]{6,}\d`)
)

// Result is the outcome of CheckMessage.
type Result struct {
	IsClean        bool     `json:"is_clean"`
	Reason         string   `json:"reason,omitempty"`
	DetectedWords  []string `json:"detected_words,omitempty"`
	PrivacyWarning bool     `json:"privacy_warning,omitempty"`
}

// Analysis bundles every verdict the moderator can give on one text.
type Analysis struct {
	Result
	Severity Severity `json:"severity"`
	Censored string   `json:"censored"`
}

type Moderator struct {
	lexicon  []string
	patterns []leetPattern
	critical map[string]bool
	high     map[string]bool
	medium   map[string]bool
}

// New returns a Moderator loaded with the built-in lexicon.
func New() *Moderator {
	lexicon := make([]string, 0, len(criticalTerms)+len(highTerms)+len(mediumTerms)+len(lowTerms))
	for term := range termSet(criticalTerms, highTerms, mediumTerms, lowTerms) {
		lexicon = append(lexicon, term)
	}
	sort.Strings(lexicon)

	return &Moderator{
		lexicon:  lexicon,
		patterns: leetPatterns,
		critical: termSet(criticalTerms),
		high:     termSet(highTerms),
		medium:   termSet(mediumTerms),
	}
}

var defaultModerator = New()

// CheckMessage runs the default moderator.
func CheckMessage(text string) Result {
	return defaultModerator.CheckMessage(text)
}

// CensorMessage runs the default moderator.
func CensorMessage(text string) string {
	return defaultModerator.CensorMessage(text)
}

// GetSeverityLevel runs the default moderator.
func GetSeverityLevel(detected []string) Severity {
	return defaultModerator.SeverityLevel(detected)
}

// CheckMessage classifies text. Word matches take precedence; the spam
// heuristics are only consulted when no term was found.
func (m *Moderator) CheckMessage(text string) Result {
	if text == "" {
		return Result{IsClean: true}
	}

	result := Result{IsClean: true, PrivacyWarning: phonePattern.MatchString(text)}

	terms, _ := m.scan(text)
	if len(terms) > 0 {
		result.IsClean = false
		result.Reason = ReasonOffensive
		result.DetectedWords = terms
		return result
	}

	if len(urlPattern.FindAllStringIndex(text, -1)) > maxURLs {
		result.IsClean = false
		result.Reason = ReasonPossibleSpam
		return result
	}

	if longestRun(text) > maxRepeatedChars {
		result.IsClean = false
		result.Reason = ReasonCharacterSpam
	}

	return result
}

// CensorMessage masks every matched span with a run of '*' of the same rune length.
func (m *Moderator) CensorMessage(text string) string {
	if text == "" {
		return text
	}
	_, spans := m.scan(text)
	if len(spans) == 0 {
		return text
	}

	runes := []rune(text)
	for _, s := range spans {
		for i := s.start; i < s.end && i < len(runes); i++ {
			runes[i] = '*'
		}
	}
	return string(runes)
}

// SeverityLevel grades detected terms; the first tier that contains any of
// them wins, checked from critical down to medium.
func (m *Moderator) SeverityLevel(detected []string) Severity {
	if len(detected) == 0 {
		return SeverityNone
	}
	tiers := []struct {
		set      map[string]bool
		severity Severity
	}{
		{m.critical, SeverityCritical},
		{m.high, SeverityHigh},
		{m.medium, SeverityMedium},
	}
	for _, tier := range tiers {
		for _, word := range detected {
			if tier.set[strings.ToLower(word)] {
				return tier.severity
			}
		}
	}
	return SeverityLow
}

// Analyze runs CheckMessage, SeverityLevel and CensorMessage in one call.
func (m *Moderator) Analyze(text string) Analysis {
	result := m.CheckMessage(text)
	return Analysis{
		Result:   result,
		Severity: m.SeverityLevel(result.DetectedWords),
		Censored: m.CensorMessage(text),
	}
}

// span is a half-open range of rune offsets.
type span struct {
	start, end int
}

// scan returns the de-duplicated matched terms in first-seen order, and every
// matched span, from both the lexicon pass and the pattern pass.
func (m *Moderator) scan(text string) ([]string, []span) {
	lowered := lower(text)

	var terms []string
	var spans []span
	seen := make(map[string]bool)
	record := func(term string, startByte, endByte int) {
		spans = append(spans, span{
			start: utf8.RuneCountInString(lowered[:startByte]),
			end:   utf8.RuneCountInString(lowered[:endByte]),
		})
		if !seen[term] {
			seen[term] = true
			terms = append(terms, term)
		}
	}

	for _, term := range m.lexicon {
		for _, loc := range findWholeWord(lowered, term) {
			record(term, loc[0], loc[1])
		}
	}

	for _, p := range m.patterns {
		for _, loc := range p.re.FindAllStringIndex(lowered, -1) {
			if isBoundary(lowered, loc[0], loc[1]) {
				record(p.term, loc[0], loc[1])
			}
		}
	}

	return terms, spans
}

// lower maps each rune to its lowercase form one-to-one, so rune offsets in
// the result line up with the input.
func lower(text string) string {
	runes := []rune(text)
	for i, r := range runes {
		runes[i] = unicode.ToLower(r)
	}
	return string(runes)
}

func findWholeWord(text, term string) [][2]int {
	var locs [][2]int
	offset := 0
	for {
		idx := strings.Index(text[offset:], term)
		if idx < 0 {
			return locs
		}
		start := offset + idx
		end := start + len(term)
		if isBoundary(text, start, end) {
			locs = append(locs, [2]int{start, end})
		}
		_, size := utf8.DecodeRuneInString(text[start:])
		offset = start + size
	}
}

func isBoundary(text string, start, end int) bool {
	if start > 0 {
		r, _ := utf8.DecodeLastRuneInString(text[:start])
		if isWordRune(r) {
			return false
		}
	}
	if end < len(text) {
		r, _ := utf8.DecodeRuneInString(text[end:])
		if isWordRune(r) {
			return false
		}
	}
	return true
}

func isWordRune(r rune) bool {
	return unicode.IsLetter(r) || unicode.IsDigit(r)
}

func longestRun(text string) int {
	longest, current := 0, 0
	var prev rune
	for i, r := range text {
		if i > 0 && r == prev {
			current++
		} else {
			current = 1
		}
		if current > longest {
			longest = current
		}
		prev = r
	}
	return longest
}
