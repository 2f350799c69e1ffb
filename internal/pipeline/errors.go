package pipeline

import "fmt"

// The failure taxonomy. Stage-local code converts provider errors into one of
// these at the point of call; the orchestrator inspects the type to decide
// whether to proceed degraded or abort, and tests assert the policy table
// directly.

// FatalInputError aborts the run: the user's preferences or interests are
// missing or unusable, so there is nothing to personalize.
type FatalInputError struct {
	Reason string
}

func (e *FatalInputError) Error() string {
	return "fatal input: " + e.Reason
}

// FatalGenerationError aborts the run: the narrative script call failed or
// returned unparseable output, so there is nothing to render audio from.
type FatalGenerationError struct {
	Err error
}

func (e *FatalGenerationError) Error() string {
	return fmt.Sprintf("fatal generation: %v", e.Err)
}

func (e *FatalGenerationError) Unwrap() error { return e.Err }

// DegradedFetchError marks a non-fatal stage failure: the pipeline logs it
// and continues with partial content.
type DegradedFetchError struct {
	Op  string
	Err error
}

func (e *DegradedFetchError) Error() string {
	return fmt.Sprintf("degraded %s: %v", e.Op, e.Err)
}

func (e *DegradedFetchError) Unwrap() error { return e.Err }

// HandoffError marks a failed best-effort notification to the downstream
// audio renderer. Non-fatal: the renderer's poller retries delivery.
type HandoffError struct {
	Err error
}

func (e *HandoffError) Error() string {
	return fmt.Sprintf("audio handoff: %v", e.Err)
}

func (e *HandoffError) Unwrap() error { return e.Err }
