package gemini

import (
	"context"
	"testing"

	"github.com/yungbote/sharedexperiences-backend/internal/platform/logger"
)

func TestNewClientRequiresAPIKey(t *testing.T) {
	if _, err := NewClient(context.Background(), logger.Nop(), Config{}); err == nil {
		t.Fatalf("expected error without api key")
	}
}

func TestDecodeJSONObject(t *testing.T) {
	cases := map[string]string{
		"plain":  `{"sentiment":"positive"}`,
		"fenced": "```json\n{\"sentiment\":\"positive\"}\n```",
	}
	for name, in := range cases {
		out, err := decodeJSONObject(in)
		if err != nil {
			t.Fatalf("%s: %v", name, err)
		}
		if out["sentiment"] != "positive" {
			t.Fatalf("%s: got=%v", name, out)
		}
	}
	if out, err := decodeJSONObject("  "); err != nil || len(out) != 0 {
		t.Fatalf("empty: err=%v out=%v", err, out)
	}
	if _, err := decodeJSONObject("not json"); err == nil {
		t.Fatalf("expected decode error")
	}
}
