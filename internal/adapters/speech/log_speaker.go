// Package speech holds narration sinks.
package speech

import (
	"context"
	"errors"
	"log"

	"turn-guidance-service/internal/platform/obs"
	"turn-guidance-service/internal/ports"
)

// LogSpeaker writes every instruction to the standard logger. It stands in
// for a TTS engine on headless hosts.
type LogSpeaker struct{}

func (LogSpeaker) Speak(ctx context.Context, text string) error {
	log.Printf("session=%s narration=%q", obs.SessionID(ctx), text)
	return nil
}

// Fanout forwards each instruction to every speaker and joins their errors.
type Fanout []ports.Speaker

func (f Fanout) Speak(ctx context.Context, text string) error {
	var errs []error
	for _, s := range f {
		if err := s.Speak(ctx, text); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
