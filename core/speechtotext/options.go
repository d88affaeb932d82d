package speechtotext

import "github.com/koscakluka/aria-core/core/audio"

type TranscriptionOptions struct {
	Language     string
	EncodingInfo audio.EncodingInfo
	// EndpointingMs is the silence window (milliseconds) after which the
	// backend should consider an utterance finished. Zero leaves the
	// backend default in place.
	EndpointingMs int
	Keywords      []string
}

type TranscriptionOption func(*TranscriptionOptions)

func WithLanguage(language string) TranscriptionOption {
	return func(o *TranscriptionOptions) {
		o.Language = language
	}
}

func WithEncodingInfo(encodingInfo audio.EncodingInfo) TranscriptionOption {
	return func(o *TranscriptionOptions) {
		o.EncodingInfo = encodingInfo
	}
}

func WithEndpointing(milliseconds int) TranscriptionOption {
	return func(o *TranscriptionOptions) {
		o.EndpointingMs = milliseconds
	}
}

// WithKeywords boosts recognition of the passed keywords, for backends that
// support it. Repeating this option adds more keywords.
func WithKeywords(keywords ...string) TranscriptionOption {
	return func(o *TranscriptionOptions) {
		o.Keywords = append(o.Keywords, keywords...)
	}
}
