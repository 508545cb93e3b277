package ports

import "context"

// Contract for the speech/narration sink. Implementations must not block the
// caller for the duration of the utterance.
type Speaker interface {
	// Say an instruction. Voice, queueing and locale belong to the sink.
	Speak(ctx context.Context, text string) error
}
