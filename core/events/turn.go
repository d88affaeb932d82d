package events

import (
	"github.com/koscakluka/aria-core/core/llms"
	"github.com/koscakluka/aria-core/core/speechtotext"
)

const (
	// KindAudioReceived identifies raw audio entering the turn pipeline.
	KindAudioReceived Kind = "turn.audio_received"
	// KindTranscriptInterim identifies a non-final transcript snapshot.
	KindTranscriptInterim Kind = "turn.transcript_interim"
	// KindTranscriptFinal identifies the terminal transcript for an
	// utterance.
	KindTranscriptFinal Kind = "turn.transcript_final"
	// KindCompletionStarted identifies the hand-off of the conversation to
	// the completion backend.
	KindCompletionStarted Kind = "turn.completion_started"
	// KindCompletionResponse identifies a completed backend response.
	KindCompletionResponse Kind = "turn.completion_response"
)

// AudioReceived marks raw audio entering a turn. The payload is passed
// through as-is, without a defensive copy.
type AudioReceived struct {
	Base
	SessionID string
	Audio     []byte
}

// NewAudioReceived creates an audio received event.
func NewAudioReceived(sessionID string, audio []byte) AudioReceived {
	return AudioReceived{Base: NewBase(KindAudioReceived), SessionID: sessionID, Audio: audio}
}

// TranscriptInterim carries a mutable, non-final transcript snapshot.
type TranscriptInterim struct {
	Base
	SessionID  string
	Transcript string
}

// NewTranscriptInterim creates an interim transcript event.
func NewTranscriptInterim(sessionID, transcript string) TranscriptInterim {
	return TranscriptInterim{Base: NewBase(KindTranscriptInterim), SessionID: sessionID, Transcript: transcript}
}

// TranscriptFinal carries the terminal transcript for the utterance.
type TranscriptFinal struct {
	Base
	SessionID  string
	Transcript speechtotext.Transcript
}

// NewTranscriptFinal creates a final transcript event.
func NewTranscriptFinal(sessionID string, transcript speechtotext.Transcript) TranscriptFinal {
	return TranscriptFinal{Base: NewBase(KindTranscriptFinal), SessionID: sessionID, Transcript: transcript}
}

// CompletionStarted marks the conversation being handed to the completion
// backend.
type CompletionStarted struct {
	Base
	SessionID string
	// MessageCount is the length of the conversation being replayed,
	// excluding the prepended system message.
	MessageCount int
}

// NewCompletionStarted creates a completion started event.
func NewCompletionStarted(sessionID string, messageCount int) CompletionStarted {
	return CompletionStarted{Base: NewBase(KindCompletionStarted), SessionID: sessionID, MessageCount: messageCount}
}

// CompletionResponse marks a backend response for the current turn.
type CompletionResponse struct {
	Base
	SessionID string
	Content   string
	Usage     *llms.Usage
}

// NewCompletionResponse creates a completion response event.
func NewCompletionResponse(sessionID, content string, usage *llms.Usage) CompletionResponse {
	return CompletionResponse{Base: NewBase(KindCompletionResponse), SessionID: sessionID, Content: content, Usage: usage}
}
