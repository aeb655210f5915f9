package resources

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestBundleVideoSearchLinks(t *testing.T) {
	p := NewStaticProvider()

	b := p.Bundle("mathematics", "5", "fractions")
	require.Len(t, b.Videos, 3)

	require.Equal(t, "📚 fractions - Educational Video", b.Videos[0].Title)
	require.Equal(t,
		"https://www.youtube.com/results?search_query=fractions+mathematics+class+5+NCERT+Hindi",
		b.Videos[0].URL)
	require.Equal(t, "🎓 fractions - Khan Academy Style", b.Videos[1].Title)
	require.Equal(t,
		"https://www.youtube.com/results?search_query=fractions+mathematics+class+5+Khan+Academy+India",
		b.Videos[1].URL)
	require.Equal(t, "📖 fractions - BYJU'S / Vedantu", b.Videos[2].Title)
	require.Equal(t,
		"https://www.youtube.com/results?search_query=fractions+mathematics+class+5+BYJU+Vedantu",
		b.Videos[2].URL)
}

func TestBundleVideosWithoutTopic(t *testing.T) {
	p := NewStaticProvider()

	b := p.Bundle("Science", "7", "")
	require.Len(t, b.Videos, 3)
	require.Equal(t, "📚 Science basics - Educational Video", b.Videos[0].Title)
	require.Equal(t,
		"https://www.youtube.com/results?search_query=Science+basics+class+7+NCERT+Hindi",
		b.Videos[0].URL)
}

func TestBundleTextbookWithChapter(t *testing.T) {
	p := NewStaticProvider()

	b := p.Bundle("mathematics", "5", "fractions")
	require.NotNil(t, b.Textbook)
	require.Equal(t, "Math-Magic Book 5", b.Textbook.BookName)
	require.Equal(t, "eemh1", b.Textbook.BookCode)
	require.Equal(t, 14, b.Textbook.TotalChapters)
	require.Equal(t, 4, b.Textbook.Chapter)
	require.Equal(t, "https://ncert.nic.in/textbook.php?eemh1=4", b.Textbook.TextbookURL)
	require.Equal(t, "https://ncert.nic.in/textbook/pdf/eemh104.pdf", b.Textbook.PDFURL)
	require.Equal(t, "https://ncert.nic.in/textbook.php?eemh1=0", b.Textbook.ChapterListURL)
}

func TestBundleTextbookWithoutTopicChapter(t *testing.T) {
	p := NewStaticProvider()

	b := p.Bundle("science", "9", "magnetism")
	require.NotNil(t, b.Textbook)
	require.Equal(t, "Science Class 9", b.Textbook.BookName)
	require.Zero(t, b.Textbook.Chapter)
	require.Empty(t, b.Textbook.PDFURL)
	require.Equal(t, "https://ncert.nic.in/textbook.php?iesc1=0", b.Textbook.ChapterListURL)
}

func TestBundleTextbookSubjectAliasAndGradeSpelling(t *testing.T) {
	p := NewStaticProvider()

	b := p.Bundle("Maths", "class 5", "")
	require.NotNil(t, b.Textbook)
	require.Equal(t, "Math-Magic Book 5", b.Textbook.BookName)

	b = p.Bundle("sst", "8th", "")
	require.NotNil(t, b.Textbook)
	require.Equal(t, "History - Our Pasts III", b.Textbook.BookName)
}

func TestBundleTextbookUnknownSubject(t *testing.T) {
	p := NewStaticProvider()

	b := p.Bundle("music", "5", "")
	require.Nil(t, b.Textbook)
}

func TestBundleAppDirectContent(t *testing.T) {
	p := NewStaticProvider()

	b := p.Bundle("mathematics", "5", "fractions")
	require.NotNil(t, b.App)
	require.True(t, b.App.Direct)
	require.Equal(t, "https://diksha.gov.in/play/content/do_31307360985432064011843", b.App.WebURL)
	require.Equal(t, "diksha://play/content/do_31307360985432064011843", b.App.AppURL)
	require.Equal(t, "📱 DIKSHA: Watch lesson on fractions", b.App.Text)
}

func TestBundleAppSearchFallback(t *testing.T) {
	p := NewStaticProvider()

	b := p.Bundle("science", "3", "plants")
	require.NotNil(t, b.App)
	require.False(t, b.App.Direct)
	require.Equal(t,
		"https://diksha.gov.in/search/Library/1?key=plants%20science%20class%203&selectedTab=all",
		b.App.WebURL)
	require.Equal(t, "diksha://search?key=plants", b.App.AppURL)
	require.Equal(t, "🔍 DIKSHA: Search plants resources", b.App.Text)
}

func TestChapterForTopicPartialMatch(t *testing.T) {
	require.Equal(t, 4, chapterForTopic("fraction", "mathematics", "5"))
	require.Equal(t, 1, chapterForTopic("chemical reactions", "science", "10"))
	require.Zero(t, chapterForTopic("water cycle", "science", "5"))
	require.Zero(t, chapterForTopic("", "mathematics", "5"))
}

func TestCanonicalGrade(t *testing.T) {
	tests := map[string]string{
		"5":       "5",
		"class 5": "5",
		"grade 8": "8",
		"5th":     "5",
		"1st":     "1",
		"2nd":     "2",
		"3rd":     "3",
		" 10 ":    "10",
	}
	for in, want := range tests {
		require.Equal(t, want, canonicalGrade(in), "grade %q", in)
	}
}
