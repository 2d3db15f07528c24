package domain

import (
	"encoding/json"

	"gorm.io/datatypes"
)

const (
	SentimentPositive = "positive"
	SentimentNeutral  = "neutral"
	SentimentNegative = "negative"
)

// NormalizeSentiment maps anything outside the three known labels to neutral.
func NormalizeSentiment(s string) string {
	switch s {
	case SentimentPositive, SentimentNegative, SentimentNeutral:
		return s
	default:
		return SentimentNeutral
	}
}

func toJSON(v any) datatypes.JSON {
	b, err := json.Marshal(v)
	if err != nil {
		return nil
	}
	return datatypes.JSON(b)
}

func stringsFromJSON(raw datatypes.JSON) []string {
	if len(raw) == 0 {
		return nil
	}
	var out []string
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil
	}
	return out
}

func floatsFromJSON(raw datatypes.JSON) []float32 {
	if len(raw) == 0 {
		return nil
	}
	var out []float32
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil
	}
	return out
}
