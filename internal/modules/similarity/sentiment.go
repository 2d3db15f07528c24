package similarity

import "strings"

// afinn is a trimmed AFINN-165 valence lexicon covering the words that show
// up most in short personal posts.
var afinn = map[string]int{
	"abandoned": -2, "accomplished": 2, "afraid": -2, "agony": -3, "alone": -2, "amazing": 4,
	"angry": -3, "annoyed": -2, "anxious": -2, "anxiety": -2, "appreciate": 2, "ashamed": -2,
	"awesome": 4, "awful": -3, "bad": -3, "beautiful": 3, "best": 3, "better": 2, "betrayed": -3,
	"bitter": -2, "blessed": 3, "bored": -2, "boring": -3, "brave": 2, "broke": -1, "broken": -1,
	"burnout": -2, "calm": 2, "care": 2, "celebrate": 3, "cheerful": 2, "comfort": 2, "confident": 2,
	"confused": -2, "crazy": -2, "cried": -2, "cry": -1, "crying": -2, "cute": 2, "danger": -2,
	"dead": -3, "depressed": -2, "depression": -2, "despair": -3, "devastated": -2, "difficult": -1,
	"disappointed": -2, "disaster": -2, "disgusted": -3, "dread": -2, "drained": -2, "easy": 1,
	"embarrassed": -2, "empty": -1, "energetic": 2, "enjoy": 2, "enjoyed": 2, "excellent": 3,
	"excited": 3, "exciting": 3, "exhausted": -2, "exhausting": -2, "fail": -2, "failed": -2,
	"failure": -2, "fantastic": 4, "fear": -2, "fine": 2, "free": 1, "friendly": 2, "frustrated": -2,
	"frustrating": -2, "fun": 4, "funny": 4, "glad": 3, "good": 3, "grateful": 3, "great": 3,
	"grief": -2, "guilty": -3, "happy": 3, "hate": -3, "hated": -3, "healthy": 2, "heartbroken": -3,
	"help": 2, "helpful": 2, "helpless": -2, "hope": 2, "hopeful": 2, "hopeless": -2, "horrible": -3,
	"hurt": -2, "ill": -2, "inspired": 2, "insecure": -2, "isolated": -1, "joy": 3, "kind": 2,
	"lonely": -2, "lost": -3, "love": 3, "loved": 3, "lovely": 3, "lucky": 3, "mad": -3, "miserable": -3,
	"miss": -2, "missed": -2, "nervous": -2, "nice": 3, "overwhelmed": -2, "pain": -2, "painful": -2,
	"panic": -3, "peaceful": 2, "perfect": 3, "pleased": 3, "proud": 2, "regret": -2, "rejected": -1,
	"relaxed": 2, "relief": 1, "relieved": 2, "sad": -2, "safe": 1, "scared": -2, "shame": -2,
	"sick": -2, "smile": 2, "sorry": -1, "stress": -1, "stressed": -2, "struggle": -2,
	"struggling": -2, "stuck": -2, "success": 2, "successful": 3, "suffer": -2, "suffering": -2,
	"terrible": -3, "terrified": -3, "thank": 2, "thankful": 2, "tired": -2, "tragic": -2,
	"trust": 1, "ugly": -3, "unhappy": -2, "upset": -2, "useless": -2, "warm": 1, "weak": -2,
	"win": 4, "won": 3, "wonderful": 4, "worried": -3, "worry": -3, "worse": -3, "worst": -3,
	"worthless": -2, "wow": 4,
}

var negators = toSet("not", "no", "never", "dont", "don't", "cant", "can't", "wont", "won't",
	"isnt", "isn't", "wasnt", "wasn't", "didnt", "didn't", "aint", "nothing")

// SentimentScore sums lexicon valences, flipping a word preceded by a negator.
func SentimentScore(text string) int {
	fields := strings.Fields(strings.ToLower(text))
	score := 0
	prev := ""
	for _, raw := range fields {
		w := strings.Trim(raw, ".,!?;:\"()[]{}*")
		if v, ok := afinn[w]; ok {
			if _, neg := negators[prev]; neg {
				v = -v
			}
			score += v
		}
		prev = w
	}
	return score
}

// Sentiment maps the lexicon score to positive (>1), negative (<-1) or neutral.
func Sentiment(text string) string {
	s := SentimentScore(text)
	switch {
	case s > 1:
		return "positive"
	case s < -1:
		return "negative"
	default:
		return "neutral"
	}
}

const summaryMaxChars = 120

// Summarize trims text to a one-line summary of at most 120 characters.
func Summarize(text string) string {
	s := []rune(strings.TrimSpace(text))
	if len(s) <= summaryMaxChars {
		return string(s)
	}
	return string(s[:summaryMaxChars-3]) + "..."
}
