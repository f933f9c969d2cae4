package models

import "errors"

// VerificationState is the review state of a doctor account.
type VerificationState string

const (
	StatePending  VerificationState = "pending"
	StateVerified VerificationState = "verified"
	StateRejected VerificationState = "rejected"
)

// StateFromFlags maps the stored booleans to a state. verified wins over a
// stale rejected flag left by records written before transitions cleared it.
func StateFromFlags(verified, rejected bool) VerificationState {
	switch {
	case verified:
		return StateVerified
	case rejected:
		return StateRejected
	default:
		return StatePending
	}
}

type VerificationEvent string

const (
	EventVerify   VerificationEvent = "verify"
	EventReject   VerificationEvent = "reject"
	EventUnverify VerificationEvent = "unverify"
)

var ErrInvalidTransition = errors.New("invalid verification transition")

// Next returns the state reached by applying ev to s.
func (s VerificationState) Next(ev VerificationEvent) (VerificationState, error) {
	switch ev {
	case EventVerify:
		return StateVerified, nil
	case EventReject:
		return StateRejected, nil
	case EventUnverify:
		if s == StateVerified {
			return StatePending, nil
		}
		return s, nil
	}
	return s, ErrInvalidTransition
}

// Fields is the write that persists s. Pending only clears verified so a
// prior rejection stays visible to reviewers.
func (s VerificationState) Fields() Fields {
	switch s {
	case StateVerified:
		return Fields{"verified": true, "rejected": false}
	case StateRejected:
		return Fields{"verified": false, "rejected": true}
	default:
		return Fields{"verified": false}
	}
}
