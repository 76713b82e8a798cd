// Package events defines the typed interaction event contract.
//
// Event kinds are grouped by receiver-facing namespaces:
//
//   - user_input.*
//   - visual_context.*
//   - assistant_response.*
//   - assistant_playback.*
//   - turn_state.*
//
// Semantics used across the package:
//
//   - Segment: append-only text piece emitted in stream order.
//   - Updated: mutable point-in-time snapshot that can change over time.
//   - Final: terminal immutable text for the current turn phase.
//   - Settled: terminal outcome of a best effort step, success or not.
//   - Ended: lifecycle boundary indicating completion.
//
// user_input events
//
//   - UserSpeechStarted (user_input.speech_started): speech activity began.
//   - UserSpeechEnded (user_input.speech_ended): speech activity ended.
//   - UserTranscriptInterimUpdated (user_input.transcript_interim_updated):
//     mutable interim full transcript snapshot.
//   - UserTranscriptSegment (user_input.transcript_segment): finalized,
//     append-only transcript segment.
//   - UserTranscriptFinal (user_input.transcript_final): terminal full
//     transcript for the utterance.
//
// visual_context events
//
//   - VisualContextRequested (visual_context.requested): the current frame is
//     being described.
//   - VisualContextSettled (visual_context.settled): description or the reason
//     there is none (unavailable, timeout).
//
// assistant_response events
//
//   - AssistantResponseStarted (assistant_response.started): reply generation
//     started with the composed prompt.
//   - AssistantResponseFinal (assistant_response.final): complete reply.
//
// assistant_playback events
//
//   - AssistantPlaybackStarted (assistant_playback.started): playback started for
//     the current reply.
//   - AssistantPlaybackEnded (assistant_playback.ended): the reply was played in
//     full. Cancelled playback never ends with this event.
//
// turn_state events
//
//   - TurnStarted (turn_state.started): current turn started.
//   - TurnCompleted (turn_state.completed): current turn completed
//     successfully.
//   - TurnFailed (turn_state.failed): current turn failed.
//   - TurnCancelled (turn_state.cancelled): current turn was cancelled.
package events
