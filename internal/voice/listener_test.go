package voice

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"
)

type fakeRecorder struct {
	calls int
	err   error
}

func (r *fakeRecorder) Record(context.Context) (Clip, error) {
	r.calls++
	if r.err != nil {
		return Clip{}, r.err
	}
	return Clip{Data: []byte("RIFF"), MIMEType: "audio/wav"}, nil
}

// scriptedTranscriber returns its answers in order, repeating the last one.
type scriptedTranscriber struct {
	answers []string
	err     error
	calls   int
}

func (s *scriptedTranscriber) Transcribe(context.Context, Clip) (string, error) {
	s.calls++
	if s.err != nil {
		return "", s.err
	}
	i := s.calls - 1
	if i >= len(s.answers) {
		i = len(s.answers) - 1
	}
	return s.answers[i], nil
}

func TestListener_RetriesUnclearSpeech(t *testing.T) {
	var out bytes.Buffer
	rec := &fakeRecorder{}
	tr := &scriptedTranscriber{answers: []string{"", "", "ramesh"}}

	got, err := NewListener(rec, tr, 3, &out).Listen(context.Background(), "Please say the customer name:")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != "ramesh" {
		t.Errorf("expected ramesh, got %q", got)
	}
	if rec.calls != 3 {
		t.Errorf("expected 3 recordings, got %d", rec.calls)
	}
	if n := strings.Count(out.String(), retryPrompt); n != 2 {
		t.Errorf("expected 2 retry prompts, got %d\n%s", n, out.String())
	}
}

func TestListener_GivesUp(t *testing.T) {
	rec := &fakeRecorder{}
	tr := &scriptedTranscriber{answers: []string{""}}

	_, err := NewListener(rec, tr, 2, nil).Listen(context.Background(), "Say quantity in kg:")
	if !errors.Is(err, ErrNotUnderstood) {
		t.Fatalf("expected ErrNotUnderstood, got %v", err)
	}
	if rec.calls != 2 {
		t.Errorf("expected 2 recordings, got %d", rec.calls)
	}
}

func TestListener_ServiceErrorsAreNotRetried(t *testing.T) {
	boom := errors.New("service unavailable")

	rec := &fakeRecorder{}
	_, err := NewListener(rec, &scriptedTranscriber{err: boom}, 3, nil).Listen(context.Background(), "prompt")
	if !errors.Is(err, boom) {
		t.Fatalf("expected transcriber error, got %v", err)
	}
	if rec.calls != 1 {
		t.Errorf("expected a single recording, got %d", rec.calls)
	}

	_, err = NewListener(&fakeRecorder{err: boom}, &scriptedTranscriber{answers: []string{"x"}}, 3, nil).Listen(context.Background(), "prompt")
	if !errors.Is(err, boom) {
		t.Fatalf("expected recorder error, got %v", err)
	}
}

func TestListener_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	rec := &fakeRecorder{}
	if _, err := NewListener(rec, &scriptedTranscriber{answers: []string{"x"}}, 3, nil).Listen(ctx, "prompt"); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
	if rec.calls != 0 {
		t.Errorf("recorder should not run, got %d calls", rec.calls)
	}
}
