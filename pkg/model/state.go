package model

// FormState represents the lifecycle state of one algorithm form.
type FormState string

const (
	FormStateUninitialized    FormState = "UNINITIALIZED"
	FormStateInitialized      FormState = "INITIALIZED"
	FormStateDirty            FormState = "DIRTY"
	FormStateSubmitting       FormState = "SUBMITTING"
	FormStateResultAvailable  FormState = "RESULT_AVAILABLE"
	FormStateSubmissionFailed FormState = "SUBMISSION_FAILED"
)

// String returns the string representation of the form state.
func (s FormState) String() string {
	return string(s)
}

// IsEditable returns true if field edits are accepted in this state.
func (s FormState) IsEditable() bool {
	switch s {
	case FormStateUninitialized, FormStateSubmitting:
		return false
	}
	return true
}

// ValidFormTransitions defines the allowed state transitions for forms.
// Loading another algorithm is always allowed and is handled separately.
var ValidFormTransitions = map[FormState][]FormState{
	FormStateUninitialized:    {FormStateInitialized},
	FormStateInitialized:      {FormStateDirty, FormStateSubmitting},
	FormStateDirty:            {FormStateDirty, FormStateSubmitting},
	FormStateSubmitting:       {FormStateResultAvailable, FormStateSubmissionFailed},
	FormStateResultAvailable:  {FormStateDirty, FormStateSubmitting},
	FormStateSubmissionFailed: {FormStateDirty, FormStateSubmitting},
}

// CanTransitionTo returns true if moving from the current state to next is valid.
func (s FormState) CanTransitionTo(next FormState) bool {
	for _, allowed := range ValidFormTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// RunState represents the lifecycle state of a recorded execution.
type RunState string

const (
	RunStatePending   RunState = "PENDING"
	RunStateCompleted RunState = "COMPLETED"
	RunStateFailed    RunState = "FAILED"
	RunStateDiscarded RunState = "DISCARDED"
)

// String returns the string representation of the run state.
func (s RunState) String() string {
	return string(s)
}

// IsTerminal returns true if the run is in a final state.
func (s RunState) IsTerminal() bool {
	switch s {
	case RunStateCompleted, RunStateFailed, RunStateDiscarded:
		return true
	}
	return false
}

// ValidRunTransitions defines the allowed state transitions for runs.
var ValidRunTransitions = map[RunState][]RunState{
	RunStatePending: {RunStateCompleted, RunStateFailed, RunStateDiscarded},
}

// CanTransitionTo returns true if moving from the current state to next is valid.
func (s RunState) CanTransitionTo(next RunState) bool {
	for _, allowed := range ValidRunTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}
