package voice

import (
	"context"
	"errors"
	"fmt"
	"io"

	logx "github.com/vijaylaxmi/flourmill/pkg/logger"
)

var ErrNotUnderstood = errors.New("speech not understood")

const retryPrompt = "Sorry, I didn't catch that. Please try again."

// Listener records and transcribes one answer at a time. Unintelligible audio
// is retried up to maxAttempts times; recorder and service failures are not.
type Listener struct {
	recorder    Recorder
	transcriber Transcriber
	maxAttempts int
	out         io.Writer
}

func NewListener(recorder Recorder, transcriber Transcriber, maxAttempts int, out io.Writer) *Listener {
	if maxAttempts < 1 {
		maxAttempts = 1
	}
	if out == nil {
		out = io.Discard
	}
	return &Listener{recorder: recorder, transcriber: transcriber, maxAttempts: maxAttempts, out: out}
}

func (l *Listener) Listen(ctx context.Context, prompt string) (string, error) {
	fmt.Fprintln(l.out, prompt)
	for attempt := 1; attempt <= l.maxAttempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return "", err
		}

		fmt.Fprintln(l.out, "Listening...")
		clip, err := l.recorder.Record(ctx)
		if err != nil {
			return "", err
		}
		text, err := l.transcriber.Transcribe(ctx, clip)
		if err != nil {
			return "", err
		}
		if text != "" {
			fmt.Fprintf(l.out, "You said: %s\n", text)
			return text, nil
		}

		logx.Debug().Str("component", "listener").Int("attempt", attempt).Msg("speech not understood")
		if attempt < l.maxAttempts {
			fmt.Fprintln(l.out, retryPrompt)
		}
	}
	return "", ErrNotUnderstood
}
