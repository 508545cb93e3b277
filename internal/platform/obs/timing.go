package obs

import (
	"context"
	"log"
	"time"
)

type ctxKey string

const (
	RequestIDKey ctxKey = "req_id"
	SessionIDKey ctxKey = "session"
)

// WithSession tags ctx with a navigation session id for Time logs.
func WithSession(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, SessionIDKey, id)
}

// WithRequest tags ctx with an HTTP request id for Time logs.
func WithRequest(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, RequestIDKey, id)
}

func SessionID(ctx context.Context) string {
	id, _ := ctx.Value(SessionIDKey).(string)
	return id
}

// Time logs the duration of an operation. Use as
//
//	defer obs.Time(ctx, "op")(&err)
func Time(ctx context.Context, name string) func(errp *error) {
	start := time.Now()

	tag := "session=" + SessionID(ctx)
	if reqID, ok := ctx.Value(RequestIDKey).(string); ok {
		tag = "req_id=" + reqID + " " + tag
	}

	return func(errp *error) {
		dur := time.Since(start)

		if errp != nil && *errp != nil {
			log.Printf("%s op=%s dur=%dms err=%v", tag, name, dur.Milliseconds(), *errp)
			return
		}
		log.Printf("%s op=%s dur=%dms", tag, name, dur.Milliseconds())
	}
}
