package speechtotext

import "time"

// Transcript is the normalized result of one transcription call. It is
// immutable after creation; the orchestration core folds it into the
// conversation ledger as a user message and does not persist it otherwise.
type Transcript struct {
	Text string
	// Confidence is the backend's confidence in Text, in [0, 1].
	Confidence float64
	// IsFinal reports whether the transcript is terminal for its
	// utterance. One-shot transcription always produces final transcripts;
	// interim ones only occur on streaming paths.
	IsFinal bool

	// Words is the optional word-level timing/confidence breakdown.
	Words []WordInfo
	// Language is the detected language, when the backend reports one.
	Language string

	CapturedAt time.Time
	// Duration is the audio duration in seconds, when known.
	Duration float64
}

// WordInfo is per-word timing and confidence, as reported by the backend.
type WordInfo struct {
	Word       string
	Start      float64
	End        float64
	Confidence float64
}
