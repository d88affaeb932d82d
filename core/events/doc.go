// Package events defines the typed orchestration event contract and the
// bus that delivers it.
//
// Events are immutable, fire-and-forget notifications emitted at
// checkpoints of the session lifecycle and the turn pipeline. They are not
// retried or persisted.
//
// Event kinds are grouped by namespaces:
//
//   - session.*
//   - turn.*
//   - tool_call.*
//   - error.*
//
// session events
//
//   - SessionStarted (session.started): a session finished its start
//     sequence and is active.
//   - SessionEnded (session.ended): a session entered its terminal ended
//     status; carries the computed duration.
//
// turn events
//
//   - AudioReceived (turn.audio_received): raw audio entered the turn
//     pipeline.
//   - TranscriptInterim (turn.transcript_interim): non-final transcript
//     snapshot. Reserved for streaming integrations; the one-shot turn
//     pipeline never publishes it, and the streaming transcription client
//     reports interim text through its callbacks instead.
//   - TranscriptFinal (turn.transcript_final): terminal transcript for the
//     utterance, carrying the full normalized transcript.
//   - CompletionStarted (turn.completion_started): the accumulated
//     conversation is about to be handed to the completion backend.
//   - CompletionResponse (turn.completion_response): the backend produced a
//     response; carries the response text and token usage when known.
//
// tool_call events
//
//   - ToolCallRequested (tool_call.requested): the backend asked the caller
//     to execute a tool. One event per requested call, in backend order.
//     Advisory only; no waiting is implied.
//   - ToolCallResolved (tool_call.resolved): a tool result was folded back
//     into the conversation and responded to.
//
// error events
//
//   - PipelineError (error.pipeline): a turn pipeline stage failed. The
//     failure is also propagated to the caller; the event exists for
//     observers only.
package events
