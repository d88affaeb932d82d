package events

const (
	// KindPipelineError identifies a failed turn pipeline stage.
	KindPipelineError Kind = "error.pipeline"
)

// PipelineError marks a turn pipeline stage failing. The failure is also
// returned to the caller; the event only notifies observers.
type PipelineError struct {
	Base
	SessionID string
	// Stage names the pipeline step that failed, e.g. "transcription" or
	// "completion".
	Stage string
	Err   error
}

// NewPipelineError creates a pipeline error event.
func NewPipelineError(sessionID, stage string, err error) PipelineError {
	return PipelineError{Base: NewBase(KindPipelineError), SessionID: sessionID, Stage: stage, Err: err}
}
