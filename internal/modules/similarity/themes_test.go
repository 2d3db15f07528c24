package similarity

import (
	"reflect"
	"testing"
)

func TestExtractThemesHikingSentence(t *testing.T) {
	got := ExtractThemes("I really think the weekend hiking trip was amazing and exhausting")
	want := []string{"weekend", "hiking", "trip", "amazing", "exhausting"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("ExtractThemes: want=%v got=%v", want, got)
	}
}

func TestExtractThemesRanksByFrequencyThenFirstSeen(t *testing.T) {
	got := ExtractThemes("Coffee, coffee and more COFFEE! Rain on the window; rain again. Quiet mornings 2024 2024 2024")
	want := []string{"coffee", "rain", "window", "again", "quiet"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("ExtractThemes: want=%v got=%v", want, got)
	}
}

func TestExtractThemesEmpty(t *testing.T) {
	if got := ExtractThemes("I am so ok, we did it!"); len(got) != 0 {
		t.Fatalf("only stop words and short tokens: got=%v", got)
	}
}

func TestThemesOfPrefersStored(t *testing.T) {
	if got := ThemesOf([]string{"stored"}, "hiking trip"); !reflect.DeepEqual(got, []string{"stored"}) {
		t.Fatalf("ThemesOf stored: got=%v", got)
	}
	if got := ThemesOf(nil, "hiking trip"); !reflect.DeepEqual(got, []string{"hiking", "trip"}) {
		t.Fatalf("ThemesOf fallback: got=%v", got)
	}
}

func TestKeywordLabelKeepsStopWords(t *testing.T) {
	got := KeywordLabel([]string{"Really tired after work", "work work really tired"}, 3)
	if got != "work really tired" {
		t.Fatalf("KeywordLabel: got=%q", got)
	}
}

func TestTopKeywords(t *testing.T) {
	got := TopKeywords([]string{"exam stress tonight", "exam results stress", "exam"}, 2)
	if !reflect.DeepEqual(got, []string{"exam", "stress"}) {
		t.Fatalf("TopKeywords: got=%v", got)
	}
}

func TestSentimentAndSummarize(t *testing.T) {
	if got := Sentiment("I am so happy and grateful today"); got != "positive" {
		t.Fatalf("positive: got=%s", got)
	}
	if got := Sentiment("lonely, tired and sad"); got != "negative" {
		t.Fatalf("negative: got=%s", got)
	}
	if got := Sentiment("I am not happy"); got != "negative" {
		t.Fatalf("negated: got=%s", got)
	}
	if got := Sentiment("went to the store"); got != "neutral" {
		t.Fatalf("neutral: got=%s", got)
	}

	short := "  a short post  "
	if got := Summarize(short); got != "a short post" {
		t.Fatalf("Summarize short: got=%q", got)
	}
	long := ""
	for i := 0; i < 30; i++ {
		long += "word "
	}
	got := Summarize(long)
	if len([]rune(got)) != 120 || got[len(got)-3:] != "..." {
		t.Fatalf("Summarize long: len=%d got=%q", len([]rune(got)), got)
	}
}

func TestTopTermsTiesKeepFirstOccurrence(t *testing.T) {
	singles := []string{"yak", "xylo", "wren", "vole", "umbra", "tern", "sloth", "raven", "quail", "puma",
		"otter", "newt", "moth", "lynx", "kiwi", "ibis", "hare", "gnu", "fox", "eel"}
	tokens := append([]string{"zeta", "alpha", "zeta"}, singles...)
	want := append([]string{"zeta", "alpha"}, singles...)

	got := topTerms(tokens, func(string) bool { return true }, 0)
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("topTerms: want=%v got=%v", want, got)
	}
	if got := topTerms(tokens, func(string) bool { return true }, 3); !reflect.DeepEqual(got, want[:3]) {
		t.Fatalf("topTerms n=3: want=%v got=%v", want[:3], got)
	}
}
