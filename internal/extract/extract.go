// Package extract parses loosely structured playbook text into typed fields.
//
// Each field is extracted independently by trying an ordered list of pattern
// strategies. The first strategy that matches commits the field; when none
// match, a per-field default applies. A malformed or reordered section can
// only ever affect its own field.
package extract

import (
	"regexp"
	"strconv"
	"strings"
	"unicode/utf8"

	"sahayak/internal/model"
)

// Result holds every field recoverable from a playbook text. List fields are
// never nil and scalar fields always carry a usable value, so callers can
// assemble a playbook without re-checking.
type Result struct {
	Title             string
	Summary           string
	ImmediateActions  []string
	RecoverySteps     []model.RecoveryStep
	Alternatives      []string
	SuccessIndicators []string
	TeachingTips      []string
	TeachingResources []model.TeachingResource
	NCERTReference    string
	EstimatedMinutes  int
	Difficulty        model.DifficultyLevel
}

const (
	defaultTitle   = "Teaching Rescue Playbook"
	defaultMinutes = 10
	maxMinutes     = 45

	// Texts below this length carry no recoverable structure.
	minParseableLen = 50

	titleCap   = 200
	summaryCap = 500
	ncertCap   = 500
)

// genericTips backstops responses that carry no tips section at all. Teachers
// still get something actionable on every playbook.
var genericTips = []string{
	"Use visual aids like diagrams and charts",
	"Break complex concepts into smaller steps",
	"Encourage peer discussion and teaching",
	"Relate topics to real-world examples students know",
	"Check understanding with quick formative questions",
}

var titlePatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)###?\s*(?:🎯\s*)?Title\s*\n\s*(.+?)(?:\n|$)`),
	regexp.MustCompile(`(?im)^##?\s+(.+?)(?:\n|$)`),
	regexp.MustCompile(`(?i)\*\*Title[:\s]*\*\*\s*(.+?)(?:\n|$)`),
}

var summaryPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?is)###?\s*(?:📋\s*)?Summary\s*\n(.+?)(?:\n###?|\n\*\*Step|\n\*\*Immediate|$)`),
	regexp.MustCompile(`(?is)Summary[:\s]*\n(.+?)(?:\n###?|\n\*\*|$)`),
}

var immediatePatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)###?\s*(?:⚡\s*)?Immediate Actions[^\n]*\n((?:\d+[.:)].+\n?)+)`),
	regexp.MustCompile(`(?i)Immediate Actions[^\n]*\n((?:\d+[.:)].+\n?)+)`),
	regexp.MustCompile(`(?i)###?\s*(?:⚡\s*)?Immediate Actions[^\n]*\n((?:[-•*]\s*.+\n?)+)`),
	regexp.MustCompile(`(?i)Do\s*(?:NOW|RIGHT\s*NOW)[^\n]*\n((?:\d+[.:)].+\n?)+)`),
	regexp.MustCompile(`(?i)Do\s*(?:NOW|RIGHT\s*NOW)[^\n]*\n((?:[-•*]\s*.+\n?)+)`),
}

var alternativePatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)###?\s*(?:🔄\s*)?Alternative[^\n]*\n((?:\d+[.)].+\n?)+)`),
	regexp.MustCompile(`(?i)Alternative[^\n]*\n((?:\d+[.)].+\n?)+)`),
}

var successPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)###?\s*(?:✅\s*)?Success Indicators[^\n]*\n((?:[-•*]\s*.+\n?)+)`),
	regexp.MustCompile(`(?i)Success Indicators[^\n]*\n((?:[-•*]\s*.+\n?)+)`),
}

// Inline steps with an explicit duration keep their own numbering.
var stepPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)\*\*Step\s*(\d+)[:\s]*([^*]+)\*\*\s*\((\d+)\s*(?:min|minutes)?\)`),
	regexp.MustCompile(`(?i)Step\s*(\d+)[:\s]*\*\*([^*]+)\*\*\s*\((\d+)\s*(?:min|minutes)?\)`),
	regexp.MustCompile(`(?i)###?\s*Step\s*(\d+)[:\s]*([^\n]+?)\s*\((\d+)\s*(?:min|minutes)?\)`),
}

var (
	simpleStepRe      = regexp.MustCompile(`(?i)\*\*Step\s*(\d+)[^:]*:\s*([^*\n]+)`)
	recoverySectionRe = regexp.MustCompile(`(?i)Recovery Steps[^\n]*\n((?:\d+[.:)].+\n?)+)`)
)

var ncertPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?is)###?\s*NCERT Reference[^\n]*\n(.*?)(?:###|\n\n|$)`),
	regexp.MustCompile(`(?is)NCERT Reference[:\s]*(.*?)(?:###|\n\n|$)`),
	regexp.MustCompile(`(?i)\*\*Chapter\*\*[:\s]*([^\n]+)`),
}

var (
	tipGlyphRe     = regexp.MustCompile(`[💡🔹•]\s*(.+?)(?:\n|$)`)
	tipsSectionRe  = regexp.MustCompile(`(?is)(?:Quick )?Teaching Tips[^\n]*\n(.*?)(?:###|\n\n|$)`)
	resourcesRe    = regexp.MustCompile(`(?is)Teaching Resources[^\n]*\n(.*?)(?:###|\n\n|$)`)
	timeEstimateRe = regexp.MustCompile(`(?i)Time(?:\s+Estimate)?[:\s]+(\d+)\s*(?:min|minutes)?`)
	difficultyRe   = regexp.MustCompile(`(?i)Difficulty[:\s]+(\w+)`)
)

var resourceLinePatterns = []*regexp.Regexp{
	regexp.MustCompile(`\*\*([^*]+)\*\*[:\s]*(.+?)(?:\n|$)`),
	regexp.MustCompile(`\d+\.\s*\*\*([^*]+)\*\*[:\s]*(.+?)(?:\n|$)`),
}

var (
	numberedItemRe = regexp.MustCompile(`\d+[.:)]\s*(.+?)(?:\n|$)`)
	altItemRe      = regexp.MustCompile(`\d+[.)]\s*(.+?)(?:\n|$)`)
	bulletItemRe   = regexp.MustCompile(`[-•*]\s*(.+?)(?:\n|$)`)
)

// Parse extracts a Result from text. It never fails: text shorter than 50
// characters yields the all-default structure, and any field whose patterns
// do not match keeps its default.
func Parse(text string) Result {
	r := Result{
		Title:             defaultTitle,
		ImmediateActions:  []string{},
		RecoverySteps:     []model.RecoveryStep{},
		Alternatives:      []string{},
		SuccessIndicators: []string{},
		TeachingTips:      []string{},
		TeachingResources: []model.TeachingResource{},
		EstimatedMinutes:  defaultMinutes,
		Difficulty:        model.DifficultyMedium,
	}

	if utf8.RuneCountInString(text) < minParseableLen {
		r.TeachingTips = append(r.TeachingTips, genericTips...)
		return r
	}

	if title, ok := firstGroup(titlePatterns, text); ok {
		r.Title = capRunes(strings.TrimSpace(title), titleCap)
	}

	if summary, ok := firstGroup(summaryPatterns, text); ok {
		r.Summary = capRunes(strings.TrimSpace(summary), summaryCap)
	}

	if block, ok := firstGroup(immediatePatterns, text); ok {
		items := numberedItems(block)
		if len(items) == 0 {
			items = bulletItems(block)
		}
		r.ImmediateActions = trimFilter(items, 5, 5)
	}

	if block, ok := firstGroup(alternativePatterns, text); ok {
		r.Alternatives = trimFilter(allGroups(altItemRe, block), 3, 0)
	}

	if block, ok := firstGroup(successPatterns, text); ok {
		r.SuccessIndicators = trimFilter(bulletItems(block), 5, 0)
	}

	if m := timeEstimateRe.FindStringSubmatch(text); m != nil {
		if n, err := strconv.Atoi(m[1]); err == nil {
			r.EstimatedMinutes = min(n, maxMinutes)
		}
	}

	if m := difficultyRe.FindStringSubmatch(text); m != nil {
		switch d := model.DifficultyLevel(strings.ToLower(m[1])); d {
		case model.DifficultyEasy, model.DifficultyMedium, model.DifficultyHard:
			r.Difficulty = d
		}
	}

	r.RecoverySteps = parseRecoverySteps(text)
	r.NCERTReference = parseNCERTReference(text)
	r.TeachingTips = parseTeachingTips(text)
	r.TeachingResources = parseTeachingResources(text)

	return r
}

// parseRecoverySteps tries the explicit-duration forms first, then bold step
// titles without a duration, then a plain numbered list under a "Recovery
// Steps" heading. Source step numbers are kept as written, never renumbered;
// only the last strategy numbers by list position.
func parseRecoverySteps(text string) []model.RecoveryStep {
	steps := []model.RecoveryStep{}

	for _, re := range stepPatterns {
		matches := re.FindAllStringSubmatch(text, -1)
		if len(matches) == 0 {
			continue
		}
		if len(matches) > 5 {
			matches = matches[:5]
		}
		for _, m := range matches {
			num, err := strconv.Atoi(m[1])
			if err != nil {
				continue
			}
			dur, err := strconv.Atoi(m[3])
			if err != nil {
				continue
			}
			steps = append(steps, model.RecoveryStep{
				StepNumber:      num,
				Action:          strings.TrimSpace(m[2]),
				DurationMinutes: dur,
			})
		}
		return steps
	}

	simple := simpleStepRe.FindAllStringSubmatch(text, -1)
	if len(simple) > 5 {
		simple = simple[:5]
	}
	for _, m := range simple {
		num, err := strconv.Atoi(m[1])
		if err != nil {
			continue
		}
		steps = append(steps, model.RecoveryStep{
			StepNumber:      num,
			Action:          strings.TrimSpace(m[2]),
			DurationMinutes: 3,
		})
	}
	if len(steps) > 0 {
		return steps
	}

	if m := recoverySectionRe.FindStringSubmatch(text); m != nil {
		items := numberedItems(m[1])
		if len(items) > 5 {
			items = items[:5]
		}
		for i, item := range items {
			steps = append(steps, model.RecoveryStep{
				StepNumber:      i + 1,
				Action:          strings.TrimSpace(item),
				DurationMinutes: 3,
			})
		}
	}
	return steps
}

func parseNCERTReference(text string) string {
	for _, re := range ncertPatterns {
		m := re.FindStringSubmatch(text)
		if m == nil {
			continue
		}
		ref := capRunes(strings.TrimSpace(m[1]), ncertCap)
		if utf8.RuneCountInString(ref) > 10 {
			return ref
		}
	}
	return ""
}

// parseTeachingTips prefers glyph-led lines anywhere in the text, then
// bullets under a tips heading, then the generic fallback list.
func parseTeachingTips(text string) []string {
	if glyphed := allGroups(tipGlyphRe, text); len(glyphed) > 0 {
		if tips := trimFilter(glyphed, 5, 5); len(tips) > 0 {
			return tips
		}
	} else if m := tipsSectionRe.FindStringSubmatch(text); m != nil {
		if tips := trimFilter(bulletItems(m[1]), 5, 5); len(tips) > 0 {
			return tips
		}
	}

	tips := make([]string, len(genericTips))
	copy(tips, genericTips)
	return tips
}

// parseTeachingResources reads "**Type**: description" lines under a
// "Teaching Resources" heading. URLs are left empty here; real links are
// attached from the curated resource bundle when the playbook is assembled.
func parseTeachingResources(text string) []model.TeachingResource {
	resources := []model.TeachingResource{}

	m := resourcesRe.FindStringSubmatch(text)
	if m == nil {
		return resources
	}

	for _, re := range resourceLinePatterns {
		lines := re.FindAllStringSubmatch(m[1], -1)
		if len(lines) == 0 {
			continue
		}
		if len(lines) > 5 {
			lines = lines[:5]
		}
		for _, line := range lines {
			desc := capRunes(strings.TrimSpace(line[2]), titleCap)
			resources = append(resources, model.TeachingResource{
				Title:        desc,
				ResourceType: strings.ToLower(strings.TrimSpace(line[1])),
				Description:  desc,
			})
		}
		break
	}
	return resources
}

func firstGroup(patterns []*regexp.Regexp, text string) (string, bool) {
	for _, re := range patterns {
		if m := re.FindStringSubmatch(text); m != nil {
			return m[1], true
		}
	}
	return "", false
}

func allGroups(re *regexp.Regexp, text string) []string {
	matches := re.FindAllStringSubmatch(text, -1)
	out := make([]string, 0, len(matches))
	for _, m := range matches {
		out = append(out, m[1])
	}
	return out
}

func numberedItems(block string) []string {
	return allGroups(numberedItemRe, block)
}

func bulletItems(block string) []string {
	return allGroups(bulletItemRe, block)
}

// trimFilter keeps at most max items, then trims each and drops those at or
// under minLen runes. Capping happens before filtering, so short early items
// reduce the final count.
func trimFilter(items []string, max, minLen int) []string {
	if len(items) > max {
		items = items[:max]
	}
	out := make([]string, 0, len(items))
	for _, item := range items {
		s := strings.TrimSpace(item)
		if utf8.RuneCountInString(s) <= minLen {
			continue
		}
		out = append(out, s)
	}
	return out
}

func capRunes(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n])
}
