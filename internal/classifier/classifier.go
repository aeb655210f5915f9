// Package classifier extracts structured classroom context from a teacher's
// free-text problem description using ordered keyword tables. Table order is
// significant: the first matching entry wins.
package classifier

import (
	"regexp"
	"strconv"
	"strings"

	"sahayak/internal/model"
)

const summaryMaxLen = 200

type subjectEntry struct {
	subject  string
	keywords []string
}

// Ordered by priority. Keywords include Devanagari and Kannada script terms
// teachers commonly mix into English input.
var subjectTable = []subjectEntry{
	{"mathematics", []string{"math", "maths", "mathematics", "गणित", "ಗಣಿತ", "calculation", "numbers", "algebra", "geometry", "fraction", "decimal"}},
	{"science", []string{"science", "विज्ञान", "ವಿಜ್ಞಾನ", "physics", "chemistry", "biology", "experiment"}},
	{"english", []string{"english", "अंग्रेजी", "ಇಂಗ್ಲಿಷ್", "grammar", "reading", "writing", "comprehension"}},
	{"hindi", []string{"hindi", "हिंदी", "ಹಿಂದಿ"}},
	{"kannada", []string{"kannada", "ಕನ್ನಡ"}},
	{"social_studies", []string{"social", "history", "geography", "civics", "इतिहास", "भूगोल"}},
	{"evs", []string{"evs", "environment", "पर्यावरण", "ಪರಿಸರ"}},
}

type gradeEntry struct {
	grade   string
	phrases []string
}

var gradeTable = []gradeEntry{
	{"1", []string{"class 1", "grade 1", "first class", "कक्षा 1", "1st grade"}},
	{"2", []string{"class 2", "grade 2", "second class", "कक्षा 2", "2nd grade"}},
	{"3", []string{"class 3", "grade 3", "third class", "कक्षा 3", "3rd grade"}},
	{"4", []string{"class 4", "grade 4", "fourth class", "कक्षा 4", "4th grade"}},
	{"5", []string{"class 5", "grade 5", "fifth class", "कक्षा 5", "5th grade"}},
	{"6", []string{"class 6", "grade 6", "sixth class", "कक्षा 6", "6th grade"}},
	{"7", []string{"class 7", "grade 7", "seventh class", "कक्षा 7", "7th grade"}},
	{"8", []string{"class 8", "grade 8", "eighth class", "कक्षा 8", "8th grade"}},
	{"9", []string{"class 9", "grade 9", "ninth class", "कक्षा 9", "9th grade"}},
	{"10", []string{"class 10", "grade 10", "tenth class", "कक्षा 10", "10th grade"}},
}

// Topic keywords are matched independently of the detected subject
var topicKeywords = []string{
	// math
	"fractions", "decimals", "algebra", "geometry", "multiplication",
	"division", "addition", "subtraction", "percentages", "ratios",
	"shapes", "area", "perimeter", "volume",
	// science
	"plants", "animals", "human body", "matter", "energy",
	"force", "motion", "electricity", "water cycle", "solar system",
}

type issueEntry struct {
	category model.IssueCategory
	phrases  []string
}

var issueTable = []issueEntry{
	{model.IssueConceptConfusion, []string{
		"not understanding", "don't understand", "confused",
		"struggling", "difficulty", "can't grasp", "समझ नहीं आ रहा",
		"hard to explain", "wrong answers",
	}},
	{model.IssueBehaviorManagement, []string{
		"misbehaving", "discipline", "noisy", "not listening",
		"fighting", "disrupting", "शोर", "attention problem",
		"out of control", "chaos",
	}},
	{model.IssueEngagementDrop, []string{
		"bored", "not interested", "sleepy", "distracted",
		"lost interest", "not paying attention", "ऊब गए",
	}},
	{model.IssueActivityStuck, []string{
		"activity not working", "stuck", "can't continue",
		"failed activity", "didn't work",
	}},
	{model.IssueDifferentiation, []string{
		"different levels", "mixed ability", "some understand some don't",
		"fast learners", "slow learners", "gap",
	}},
	{model.IssueResourceMissing, []string{
		"no materials", "no textbook", "missing resources",
		"don't have", "need supplies",
	}},
	{model.IssueTimeManagement, []string{
		"running out of time", "no time left", "behind schedule",
		"too slow", "taking too long", "समय कम है",
	}},
}

type urgencyEntry struct {
	level   model.UrgencyLevel
	phrases []string
}

// Most severe first
var urgencyTable = []urgencyEntry{
	{model.UrgencyCritical, []string{
		"emergency", "urgent", "help now", "immediately",
		"crisis", "safety", "dangerous",
	}},
	{model.UrgencyHigh, []string{
		"very", "really", "completely", "totally",
		"chaos", "out of control", "frustrated",
	}},
	{model.UrgencyMedium, []string{
		"having trouble", "some difficulty", "struggling a bit",
	}},
	{model.UrgencyLow, []string{
		"minor", "small", "just wondering", "general question",
	}},
}

// Engine classifies raw teacher input into a ClassifiedContext
type Engine struct {
	gradeRe  *regexp.Regexp
	countRes []*regexp.Regexp
}

// NewEngine creates a classifier engine with its patterns compiled
func NewEngine() *Engine {
	return &Engine{
		gradeRe: regexp.MustCompile(`class\s*(\d+)|(\d+)\s*(?:st|nd|rd|th)?\s*(?:class|grade)`),
		countRes: []*regexp.Regexp{
			regexp.MustCompile(`(\d+)\s*students`),
			regexp.MustCompile(`(\d+)\s*kids`),
			regexp.MustCompile(`(\d+)\s*children`),
			regexp.MustCompile(`class of\s*(\d+)`),
		},
	}
}

// Classify maps raw input to a best-effort context. It is total: unmatched
// fields come back as zero values or defaults, never as an error.
func (e *Engine) Classify(rawInput string) model.ClassifiedContext {
	text := strings.ToLower(rawInput)

	return model.ClassifiedContext{
		Subject:           e.subject(text),
		Grade:             e.grade(text),
		Topic:             e.topic(text),
		IssueCategory:     e.issueCategory(text),
		Urgency:           e.urgency(text),
		StudentCount:      e.studentCount(text),
		SpecificChallenge: summarize(rawInput),
	}
}

func (e *Engine) subject(text string) string {
	for _, entry := range subjectTable {
		for _, kw := range entry.keywords {
			if strings.Contains(text, kw) {
				return titleCase(entry.subject)
			}
		}
	}
	return ""
}

func (e *Engine) grade(text string) string {
	for _, entry := range gradeTable {
		for _, phrase := range entry.phrases {
			if strings.Contains(text, phrase) {
				return entry.grade
			}
		}
	}

	if m := e.gradeRe.FindStringSubmatch(text); m != nil {
		if m[1] != "" {
			return m[1]
		}
		return m[2]
	}

	return ""
}

func (e *Engine) topic(text string) string {
	for _, kw := range topicKeywords {
		if strings.Contains(text, kw) {
			return titleCase(kw)
		}
	}
	return ""
}

func (e *Engine) issueCategory(text string) model.IssueCategory {
	best := model.IssueOther
	bestScore := 0

	for _, entry := range issueTable {
		score := 0
		for _, phrase := range entry.phrases {
			if strings.Contains(text, phrase) {
				score++
			}
		}
		if score > bestScore {
			bestScore = score
			best = entry.category
		}
	}

	return best
}

func (e *Engine) urgency(text string) model.UrgencyLevel {
	for _, entry := range urgencyTable {
		for _, phrase := range entry.phrases {
			if strings.Contains(text, phrase) {
				return entry.level
			}
		}
	}
	return model.UrgencyMedium
}

func (e *Engine) studentCount(text string) int {
	for _, re := range e.countRes {
		if m := re.FindStringSubmatch(text); m != nil {
			n, err := strconv.Atoi(m[1])
			if err == nil {
				return n
			}
		}
	}
	return 0
}

// summarize collapses whitespace and truncates to 200 chars
func summarize(rawInput string) string {
	cleaned := strings.Join(strings.Fields(rawInput), " ")
	runes := []rune(cleaned)
	if len(runes) > summaryMaxLen {
		return string(runes[:summaryMaxLen]) + "..."
	}
	return cleaned
}

// titleCase capitalizes the first letter of each word, keeping underscores
// as separators ("social_studies" becomes "Social_Studies")
func titleCase(s string) string {
	var b strings.Builder
	upperNext := true
	for _, r := range s {
		switch {
		case r == ' ' || r == '_':
			b.WriteRune(r)
			upperNext = true
		case upperNext:
			b.WriteString(strings.ToUpper(string(r)))
			upperNext = false
		default:
			b.WriteRune(r)
		}
	}
	return b.String()
}
