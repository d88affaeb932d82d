package orchestration

import (
	"context"
	"fmt"
	"time"

	"github.com/koscakluka/aria-core/core/sessions"
	"github.com/koscakluka/aria-core/core/speechtotext"
)

// speechToText is the transcription step of the turn pipeline. It is a pure
// function of (audio, session config) to transcript: it never touches the
// ledger, and it normalizes backend failures into ProviderError.
type speechToText struct {
	// client stores the configured speech-to-text implementation.
	client SpeechToText
}

func (s *speechToText) set(client SpeechToText) {
	if s != nil {
		s.client = client
	}
}

func (s *speechToText) isConfigured() bool {
	return s != nil && s.client != nil
}

func (s *speechToText) transcribe(ctx context.Context, audio []byte, config sessions.Config) (*speechtotext.Transcript, error) {
	if !s.isConfigured() {
		return nil, fmt.Errorf("speech-to-text client: %w", ErrNotInitialized)
	}

	opts := []speechtotext.TranscriptionOption{}
	if config.Language != "" {
		opts = append(opts, speechtotext.WithLanguage(config.Language))
	}
	if !config.Encoding.IsZero() {
		opts = append(opts, speechtotext.WithEncodingInfo(config.Encoding))
	}
	if config.EndpointingMs > 0 {
		opts = append(opts, speechtotext.WithEndpointing(config.EndpointingMs))
	}

	transcript, err := s.client.Transcribe(ctx, audio, opts...)
	if err != nil {
		return nil, &ProviderError{Backend: BackendSpeech, Err: err}
	}
	if transcript == nil {
		return nil, &ProviderError{Backend: BackendSpeech, Err: fmt.Errorf("backend returned no transcript")}
	}

	// One-shot transcription is terminal for its utterance regardless of
	// what the backend reports.
	transcript.IsFinal = true
	if transcript.CapturedAt.IsZero() {
		transcript.CapturedAt = time.Now()
	}
	if transcript.Duration == 0 && !config.Encoding.IsZero() {
		transcript.Duration = config.Encoding.Duration(audio).Seconds()
	}

	return transcript, nil
}

func (s *speechToText) close(ctx context.Context) error {
	if !s.isConfigured() {
		return nil
	}

	switch c := s.client.(type) {
	case interface{ Close(context.Context) error }:
		if err := c.Close(ctx); err != nil {
			return fmt.Errorf("failed to close speech-to-text client: %w", err)
		}
	case interface{ Close(context.Context) }:
		c.Close(ctx)
	case interface{ Close() error }:
		if err := c.Close(); err != nil {
			return fmt.Errorf("failed to close speech-to-text client: %w", err)
		}
	case interface{ Close() }:
		c.Close()
	}

	return nil
}
