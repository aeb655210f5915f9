// Package resources maps a classroom context to curated study material:
// NCERT textbook links, DIKSHA content, and YouTube search links. All data
// is static, so lookups are pure and never fail.
package resources

import (
	"fmt"
	"net/url"
	"strings"

	"sahayak/internal/model"
)

const (
	ncertBase  = "https://ncert.nic.in"
	dikshaWeb  = "https://diksha.gov.in"
	dikshaApp  = "diksha://play"
	youtubeURL = "https://www.youtube.com/results?search_query="
)

// Book is one NCERT textbook. The code drives the official URL scheme:
// textbook.php?{code}={chapter} and textbook/pdf/{code}{chapter}.pdf.
type Book struct {
	Code     string
	Name     string
	Chapters int
}

// Textbook is a resolved NCERT reference for a subject and grade. Chapter is
// zero when no topic mapping was found; the chapter list URL always works.
type Textbook struct {
	BookName       string
	BookCode       string
	TotalChapters  int
	Chapter        int
	TextbookURL    string
	PDFURL         string
	ChapterListURL string
}

// AppLink points at DIKSHA content: a direct lesson when the topic is mapped
// to a known content id, a search link otherwise.
type AppLink struct {
	Direct bool
	WebURL string
	AppURL string
	Text   string
}

// Bundle is everything the provider could find for a context. Any part may
// be missing; an empty bundle is valid.
type Bundle struct {
	Videos   []model.VideoResource
	Textbook *Textbook
	App      *AppLink
}

var books = map[string]map[string]Book{
	"mathematics": {
		"1":  {"aemh1", "Math-Magic Book 1", 13},
		"2":  {"bemh1", "Math-Magic Book 2", 15},
		"3":  {"cemh1", "Math-Magic Book 3", 14},
		"4":  {"demh1", "Math-Magic Book 4", 14},
		"5":  {"eemh1", "Math-Magic Book 5", 14},
		"6":  {"femh1", "Mathematics Class 6", 14},
		"7":  {"gemh1", "Mathematics Class 7", 15},
		"8":  {"hemh1", "Mathematics Class 8", 16},
		"9":  {"iemh1", "Mathematics Class 9", 15},
		"10": {"jemh1", "Mathematics Class 10", 15},
		"11": {"kemh1", "Mathematics Class 11", 16},
		"12": {"lemh1", "Mathematics Part I Class 12", 13},
	},
	"science": {
		"6":  {"fesc1", "Science Class 6", 16},
		"7":  {"gesc1", "Science Class 7", 18},
		"8":  {"hesc1", "Science Class 8", 18},
		"9":  {"iesc1", "Science Class 9", 15},
		"10": {"jesc1", "Science Class 10", 16},
	},
	"physics": {
		"11": {"keph1", "Physics Part I Class 11", 8},
		"12": {"leph1", "Physics Part I Class 12", 8},
	},
	"chemistry": {
		"11": {"kech1", "Chemistry Part I Class 11", 7},
		"12": {"lech1", "Chemistry Part I Class 12", 10},
	},
	"biology": {
		"11": {"kebo1", "Biology Class 11", 22},
		"12": {"lebo1", "Biology Class 12", 16},
	},
	"english": {
		"1":  {"aeen1", "Marigold Class 1", 10},
		"2":  {"been1", "Marigold Class 2", 15},
		"3":  {"ceen1", "Marigold Class 3", 10},
		"4":  {"deen1", "Marigold Class 4", 10},
		"5":  {"eeen1", "Marigold Class 5", 10},
		"6":  {"fehl1", "Honeysuckle Class 6", 10},
		"7":  {"gehc1", "Honeycomb Class 7", 10},
		"8":  {"hehd1", "Honeydew Class 8", 10},
		"9":  {"iebe1", "Beehive Class 9", 11},
		"10": {"jeff1", "First Flight Class 10", 11},
	},
	"hindi": {
		"1":  {"ahhn1", "Rimjhim Class 1", 23},
		"2":  {"bhhn1", "Rimjhim Class 2", 15},
		"3":  {"chhn1", "Rimjhim Class 3", 14},
		"4":  {"dhhn1", "Rimjhim Class 4", 14},
		"5":  {"ehhn1", "Rimjhim Class 5", 18},
		"6":  {"fhvs1", "Vasant Class 6", 17},
		"7":  {"ghvs1", "Vasant Class 7", 20},
		"8":  {"hhvs1", "Vasant Class 8", 18},
		"9":  {"ihks1", "Kshitij Class 9", 17},
		"10": {"jhks1", "Kshitij Class 10", 17},
	},
	"social_science": {
		"6":  {"fess1", "History - Our Pasts I", 12},
		"7":  {"gess1", "History - Our Pasts II", 10},
		"8":  {"hess1", "History - Our Pasts III", 12},
		"9":  {"iess1", "History - India and Contemporary World I", 8},
		"10": {"jess3", "History - India and Contemporary World II", 8},
	},
}

var subjectAliases = map[string]string{
	"maths":     "mathematics",
	"math":      "mathematics",
	"ganit":     "mathematics",
	"bhautiki":  "physics",
	"rasayan":   "chemistry",
	"bio":       "biology",
	"jeev":      "biology",
	"social":    "social_science",
	"sst":       "social_science",
	"history":   "social_science",
	"geography": "social_science",
	"civics":    "social_science",
}

// topicChapters is ordered so partial topic matches stay deterministic.
type topicChapters struct {
	topic    string
	chapters map[string]map[string]int
}

var chapterIndex = []topicChapters{
	{"fractions", map[string]map[string]int{"mathematics": {"5": 4, "6": 7, "7": 2}}},
	{"decimals", map[string]map[string]int{"mathematics": {"5": 10, "6": 8, "7": 2}}},
	{"algebra", map[string]map[string]int{"mathematics": {"6": 11, "7": 12, "8": 9}}},
	{"geometry", map[string]map[string]int{"mathematics": {"6": 4, "7": 6, "8": 3}}},
	{"photosynthesis", map[string]map[string]int{"science": {"7": 1, "10": 6}}},
	{"cells", map[string]map[string]int{"science": {"8": 8, "9": 5}}},
	{"motion", map[string]map[string]int{"science": {"9": 8}, "physics": {"11": 3}}},
	{"force", map[string]map[string]int{"science": {"8": 11, "9": 9}}},
	{"electricity", map[string]map[string]int{"science": {"10": 12}, "physics": {"12": 1}}},
	{"chemical_reactions", map[string]map[string]int{"science": {"10": 1}, "chemistry": {"11": 1}}},
}

type topicContent struct {
	topic string
	ids   map[string]map[string]string
}

var dikshaIndex = []topicContent{
	{"fractions", map[string]map[string]string{"mathematics": {
		"5": "do_31307360985432064011843",
		"6": "do_31307361029767168011914",
		"7": "do_31310347499001446411662",
	}}},
	{"decimals", map[string]map[string]string{"mathematics": {
		"5": "do_31307361058553446411992",
		"6": "do_31310347590830489611835",
	}}},
	{"algebra", map[string]map[string]string{"mathematics": {
		"7": "do_31307361170044518412243",
		"8": "do_31310348148426342411907",
	}}},
	{"photosynthesis", map[string]map[string]string{"science": {
		"7":  "do_31307361251647078412404",
		"10": "do_31310348314580992012187",
	}}},
	{"cells", map[string]map[string]string{"science": {
		"8": "do_31307361325785088012565",
		"9": "do_31310348455229849612438",
	}}},
	{"motion", map[string]map[string]string{"science": {
		"9": "do_31307361394821324812726",
	}}},
	{"electricity", map[string]map[string]string{"science": {
		"10": "do_31307361459507404812887",
	}}},
	{"english_grammar", map[string]map[string]string{"english": {
		"5": "do_31307361528193638413048",
		"6": "do_31310348648653209612689",
	}}},
	{"hindi_vyakaran", map[string]map[string]string{"hindi": {
		"5": "do_31307361597880115213209",
		"6": "do_31310348798918246412940",
	}}},
}

// StaticProvider resolves bundles from the built-in tables.
type StaticProvider struct{}

func NewStaticProvider() *StaticProvider {
	return &StaticProvider{}
}

// Bundle collects videos, a textbook, and a DIKSHA link for the context.
// Each part is resolved independently of the others.
func (p *StaticProvider) Bundle(subject, grade, topic string) Bundle {
	return Bundle{
		Videos:   p.videoLinks(subject, grade, topic),
		Textbook: p.textbook(subject, grade, topic),
		App:      p.appLink(subject, grade, topic),
	}
}

func (p *StaticProvider) videoLinks(subject, grade, topic string) []model.VideoResource {
	query := strings.TrimSpace(topic)
	var terms string
	if query == "" {
		query = strings.TrimSpace(subject) + " basics"
		terms = fmt.Sprintf("%s class %s", query, grade)
	} else {
		terms = fmt.Sprintf("%s %s class %s", query, subject, grade)
	}
	base := youtubeURL + url.QueryEscape(strings.TrimSpace(terms))

	return []model.VideoResource{
		{
			Title:       "📚 " + query + " - Educational Video",
			URL:         base + "+NCERT+Hindi",
			Description: "Search for Hindi medium educational videos",
		},
		{
			Title:       "🎓 " + query + " - Khan Academy Style",
			URL:         base + "+Khan+Academy+India",
			Description: "Search for Khan Academy India videos",
		},
		{
			Title:       "📖 " + query + " - BYJU'S / Vedantu",
			URL:         base + "+BYJU+Vedantu",
			Description: "Search for BYJU'S and Vedantu explanations",
		},
	}
}

func (p *StaticProvider) textbook(subject, grade, topic string) *Textbook {
	sub := canonicalSubject(subject)
	gradeKey := canonicalGrade(grade)

	byGrade, ok := books[sub]
	if !ok {
		return nil
	}
	book, ok := byGrade[gradeKey]
	if !ok {
		return nil
	}

	tb := &Textbook{
		BookName:       book.Name,
		BookCode:       book.Code,
		TotalChapters:  book.Chapters,
		ChapterListURL: fmt.Sprintf("%s/textbook.php?%s=0", ncertBase, book.Code),
	}

	if ch := chapterForTopic(topic, sub, gradeKey); ch >= 1 && ch <= book.Chapters {
		tb.Chapter = ch
		tb.TextbookURL = fmt.Sprintf("%s/textbook.php?%s=%d", ncertBase, book.Code, ch)
		tb.PDFURL = fmt.Sprintf("%s/textbook/pdf/%s%02d.pdf", ncertBase, book.Code, ch)
	}
	return tb
}

func (p *StaticProvider) appLink(subject, grade, topic string) *AppLink {
	sub := canonicalSubject(subject)
	gradeKey := canonicalGrade(grade)

	if topic != "" {
		if id := dikshaContentID(topic, sub, gradeKey); id != "" {
			return &AppLink{
				Direct: true,
				WebURL: fmt.Sprintf("%s/play/content/%s", dikshaWeb, id),
				AppURL: fmt.Sprintf("%s/content/%s", dikshaApp, id),
				Text:   "📱 DIKSHA: Watch lesson on " + topic,
			}
		}
	}

	query := topic
	if query == "" {
		query = subject
	}
	terms := query
	if subject != "" && query != subject {
		terms += " " + subject
	}
	if grade != "" {
		terms += " class " + grade
	}
	searchURL := fmt.Sprintf("%s/search/Library/1?key=%s&selectedTab=all",
		dikshaWeb, strings.ReplaceAll(terms, " ", "%20"))

	return &AppLink{
		WebURL: searchURL,
		AppURL: "diksha://search?key=" + query,
		Text:   "🔍 DIKSHA: Search " + query + " resources",
	}
}

func canonicalSubject(subject string) string {
	s := strings.ReplaceAll(strings.ToLower(subject), " ", "_")
	if _, ok := books[s]; ok {
		return s
	}
	if alias, ok := subjectAliases[s]; ok {
		return alias
	}
	return s
}

// canonicalGrade reduces grade spellings like "class 5", "5th" or "grade 5"
// to the bare number used as a table key.
func canonicalGrade(grade string) string {
	g := strings.TrimSpace(grade)
	for _, prefix := range []string{"class", "grade", "th", "st", "nd", "rd"} {
		g = strings.TrimSpace(strings.ReplaceAll(g, prefix, ""))
	}
	return g
}

func chapterForTopic(topic, subject, grade string) int {
	key := strings.ReplaceAll(strings.ToLower(topic), " ", "_")
	if key == "" {
		return 0
	}

	for _, entry := range chapterIndex {
		if entry.topic != key {
			continue
		}
		if grades, ok := entry.chapters[subject]; ok {
			return grades[grade]
		}
		return 0
	}

	for _, entry := range chapterIndex {
		if !strings.Contains(entry.topic, key) && !strings.Contains(key, entry.topic) {
			continue
		}
		if grades, ok := entry.chapters[subject]; ok {
			return grades[grade]
		}
	}
	return 0
}

func dikshaContentID(topic, subject, grade string) string {
	key := strings.ReplaceAll(strings.ToLower(topic), " ", "_")
	if key == "" {
		return ""
	}

	for _, entry := range dikshaIndex {
		if entry.topic != key {
			continue
		}
		if grades, ok := entry.ids[subject]; ok {
			return grades[grade]
		}
		return ""
	}

	for _, entry := range dikshaIndex {
		if !strings.Contains(entry.topic, key) && !strings.Contains(key, entry.topic) {
			continue
		}
		if grades, ok := entry.ids[subject]; ok {
			return grades[grade]
		}
	}
	return ""
}
