package similarity

import (
	"sort"
	"strings"
	"unicode"
)

const maxThemes = 5

var stopWords = toSet(
	"the", "a", "an", "and", "or", "but", "if", "then", "i", "me", "my", "we", "our", "you", "your",
	"they", "them", "their", "to", "of", "in", "on", "for", "with", "at", "from", "by", "it", "is",
	"was", "are", "were", "be", "been", "am", "as", "that", "this", "these", "those", "so", "just",
	"really", "very", "have", "has", "had", "do", "did", "does", "than", "because", "while", "during",
	"over", "under", "into", "out", "about", "after", "before", "between", "through", "without",
	"within", "across", "against", "around", "down", "up", "off", "onto", "upon", "via", "per", "each",
	"every", "either", "neither", "both", "all", "any", "some", "many", "much", "most", "more", "less",
	"few", "lot", "lots", "none", "no", "not", "never", "always", "can", "could", "should", "would",
	"will", "shall", "may", "might", "must", "what", "when", "why", "how", "where", "who", "whom",
	"whose", "like", "feel", "feels", "felt", "feeling", "think", "thinks", "thought", "know", "knows",
	"knew", "known", "say", "says", "said", "make", "makes", "made", "get", "gets", "got", "gotten",
	"go", "goes", "went", "gone", "come", "comes", "came", "seem", "seems", "seemed", "seeming", "try",
	"tries", "tried", "want", "wants", "wanted", "need", "needs", "needed", "able", "cannot", "gonna",
	"wanna", "good", "bad", "worse", "worst", "best", "better", "great", "okay", "ok", "fine", "ever",
	"wonder", "wondered", "wondering",
)

func toSet(words ...string) map[string]struct{} {
	out := make(map[string]struct{}, len(words))
	for _, w := range words {
		out[w] = struct{}{}
	}
	return out
}

// Tokenize lowercases text, turns every rune outside [a-z0-9] and whitespace
// into a space and splits on whitespace.
func Tokenize(text string) []string {
	cleaned := strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			return r
		case unicode.IsSpace(r):
			return r
		default:
			return ' '
		}
	}, strings.ToLower(text))
	return strings.Fields(cleaned)
}

func isNumeric(s string) bool {
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return s != ""
}

type termCount struct {
	term  string
	count int
	first int
}

// topTerms ranks tokens by frequency, ties by first occurrence.
func topTerms(tokens []string, keep func(string) bool, n int) []string {
	counts := map[string]*termCount{}
	order := []*termCount{}
	for _, t := range tokens {
		if !keep(t) {
			continue
		}
		if tc, ok := counts[t]; ok {
			tc.count++
			continue
		}
		tc := &termCount{term: t, count: 1, first: len(order)}
		counts[t] = tc
		order = append(order, tc)
	}
	sort.Slice(order, func(i, j int) bool {
		if order[i].count != order[j].count {
			return order[i].count > order[j].count
		}
		return order[i].first < order[j].first
	})
	if n > 0 && len(order) > n {
		order = order[:n]
	}
	out := make([]string, 0, len(order))
	for _, tc := range order {
		out = append(out, tc.term)
	}
	return out
}

func isThemeToken(t string) bool {
	if len(t) <= 3 || isNumeric(t) {
		return false
	}
	_, stop := stopWords[t]
	return !stop
}

// ExtractThemes returns up to five keyword themes for text.
func ExtractThemes(text string) []string {
	return topTerms(Tokenize(text), isThemeToken, maxThemes)
}

// ThemesOf returns the stored themes, or extracted ones when none are stored.
func ThemesOf(stored []string, text string) []string {
	if len(stored) > 0 {
		return stored
	}
	return ExtractThemes(text)
}

// TopKeywords aggregates extracted themes across texts.
func TopKeywords(texts []string, n int) []string {
	var all []string
	for _, t := range texts {
		all = append(all, ExtractThemes(t)...)
	}
	return topTerms(all, func(string) bool { return true }, n)
}

// KeywordLabel joins the n most frequent tokens longer than three characters.
// Unlike ExtractThemes it does not filter stop words.
func KeywordLabel(texts []string, n int) string {
	tokens := Tokenize(strings.Join(texts, " "))
	return strings.Join(topTerms(tokens, func(t string) bool { return len(t) > 3 }, n), " ")
}
