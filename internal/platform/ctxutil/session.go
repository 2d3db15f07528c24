package ctxutil

import "context"

type sessionDataKey struct{}

// SessionData is the anonymous identity attached to every request.
type SessionData struct {
	SessionID       string
	IPHash          string
	FingerprintHash string
	UserAgent       string
}

func WithSessionData(ctx context.Context, sd *SessionData) context.Context {
	return context.WithValue(ctx, sessionDataKey{}, sd)
}

func GetSessionData(ctx context.Context) *SessionData {
	if sd, ok := ctx.Value(sessionDataKey{}).(*SessionData); ok {
		return sd
	}
	return nil
}

// SessionID returns the request's anonymous session id or "".
func SessionID(ctx context.Context) string {
	if sd := GetSessionData(ctx); sd != nil {
		return sd.SessionID
	}
	return ""
}
