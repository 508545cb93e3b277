package obs

import (
	"bytes"
	"context"
	"errors"
	"log"
	"strings"
	"testing"
)

func captureLog(t *testing.T) *bytes.Buffer {
	t.Helper()
	var buf bytes.Buffer
	prev, flags := log.Writer(), log.Flags()
	log.SetOutput(&buf)
	log.SetFlags(0)
	t.Cleanup(func() {
		log.SetOutput(prev)
		log.SetFlags(flags)
	})
	return &buf
}

func TestTimeLogsSessionAndError(t *testing.T) {
	buf := captureLog(t)

	ctx := WithRequest(WithSession(context.Background(), "abc"), "r1")
	err := errors.New("boom")
	Time(ctx, "reroute")(&err)

	line := buf.String()
	for _, want := range []string{"req_id=r1", "session=abc", "op=reroute", "err=boom"} {
		if !strings.Contains(line, want) {
			t.Fatalf("log line %q missing %q", line, want)
		}
	}
}

func TestTimeWithoutError(t *testing.T) {
	buf := captureLog(t)

	var err error
	Time(context.Background(), "save")(&err)
	if strings.Contains(buf.String(), "err=") {
		t.Fatalf("unexpected error field: %q", buf.String())
	}
}
