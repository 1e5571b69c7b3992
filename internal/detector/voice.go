package detector

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"sync"
	"time"
)

// voiceJoinTimeout bounds how long Stop waits for the listen goroutine. A
// recognizer stuck in a blocking read must not hang engine shutdown.
const voiceJoinTimeout = 2 * time.Second

// voiceRetryDelay is the pause after a recognizer error before listening
// again, so a misbehaving microphone does not spin the loop.
const voiceRetryDelay = time.Second

// Recognizer transcribes one utterance per call. Listen blocks until speech
// is transcribed, the stream ends, or ctx is cancelled.
type Recognizer interface {
	Listen(ctx context.Context) (string, error)
	Close() error
}

// VoiceConfig holds the voice detector settings. TriggerWords is derived
// from the loaded voice bindings; words are matched case-insensitively
// against individual transcript tokens.
type VoiceConfig struct {
	TriggerWords []string
}

// VoiceDetector runs its own blocking listen loop on a dedicated goroutine,
// unlike the frame-driven visual detectors. Each transcribed utterance is
// tokenised and every token that matches a trigger word becomes one event,
// in transcript order.
type VoiceDetector struct {
	rec      Recognizer
	triggers map[string]struct{}
	emit     Emitter
	now      func() time.Time

	mu     sync.Mutex
	cancel context.CancelFunc
	done   chan struct{}
	closed bool
}

// NewVoiceDetector returns a voice detector using rec for transcription.
func NewVoiceDetector(cfg VoiceConfig, rec Recognizer) *VoiceDetector {
	triggers := make(map[string]struct{}, len(cfg.TriggerWords))
	for _, w := range cfg.TriggerWords {
		w = strings.ToLower(strings.TrimSpace(w))
		if w != "" {
			triggers[w] = struct{}{}
		}
	}
	return &VoiceDetector{rec: rec, triggers: triggers, now: time.Now}
}

// Modality implements Handle.
func (d *VoiceDetector) Modality() Modality { return ModalityVoice }

// Start spawns the listen loop. Calling Start on a running detector is a
// no-op.
func (d *VoiceDetector) Start(emit Emitter) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.done != nil {
		return nil
	}
	if d.rec == nil {
		return errors.New("voice detector: no recognizer configured")
	}
	if len(d.triggers) == 0 {
		slog.Warn("voice detector: no trigger words configured")
	}

	d.emit = emit
	ctx, cancel := context.WithCancel(context.Background())
	d.cancel = cancel
	d.done = make(chan struct{})
	go d.listenLoop(ctx, d.done)
	return nil
}

// Stop cancels the listen loop, waits for it with a bounded timeout, and
// closes the recognizer. Idempotent, and it closes the recognizer even
// when the detector was never started.
func (d *VoiceDetector) Stop() {
	d.mu.Lock()
	cancel := d.cancel
	done := d.done
	closed := d.closed
	d.cancel = nil
	d.done = nil
	d.closed = true
	d.mu.Unlock()

	if cancel != nil {
		cancel()
		select {
		case <-done:
		case <-time.After(voiceJoinTimeout):
			slog.Warn("voice detector: listen loop did not exit in time")
		}
	}

	if closed || d.rec == nil {
		return
	}
	if err := d.rec.Close(); err != nil {
		slog.Warn("voice detector: recognizer close failed", "error", err)
	}
}

func (d *VoiceDetector) listenLoop(ctx context.Context, done chan<- struct{}) {
	defer close(done)

	for {
		if ctx.Err() != nil {
			return
		}

		transcript, err := d.rec.Listen(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			slog.Warn("voice detector: listen failed", "error", err)
			select {
			case <-ctx.Done():
				return
			case <-time.After(voiceRetryDelay):
			}
			continue
		}

		d.processTranscript(transcript)
	}
}

// processTranscript emits one event per trigger word found, preserving the
// order the words were spoken in.
func (d *VoiceDetector) processTranscript(transcript string) {
	for _, word := range strings.Fields(strings.ToLower(transcript)) {
		word = strings.Trim(word, ".,!?\"'")
		if word == "" {
			continue
		}
		if _, ok := d.triggers[word]; ok {
			d.emit(Event{Modality: ModalityVoice, ID: word, Time: d.now()})
		}
	}
}
