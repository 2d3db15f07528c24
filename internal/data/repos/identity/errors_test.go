package identity

import (
	"errors"
	"fmt"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
)

func TestIsUniqueViolation(t *testing.T) {
	cases := []struct {
		name string
		err  error
		want bool
	}{
		{"nil", nil, false},
		{"pg unique", fmt.Errorf("insert: %w", &pgconn.PgError{Code: "23505"}), true},
		{"pg fk", &pgconn.PgError{Code: "23503"}, false},
		{"sqlite", errors.New("constraint failed: UNIQUE constraint failed: user_identity.ip_hash (2067)"), true},
		{"other", errors.New("connection reset"), false},
	}
	for _, tc := range cases {
		if got := isUniqueViolation(tc.err); got != tc.want {
			t.Fatalf("%s: want=%v got=%v", tc.name, tc.want, got)
		}
	}
}
