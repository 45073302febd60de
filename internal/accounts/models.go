package accounts

import "errors"

// Policy constants. These are fixed and intentionally not configurable.
const (
	MaxFailedAttempts = 5
	MinSecretLength   = 8
)

// Account is a staff identity allowed to triage reports.
//
// Invariants:
// - Name is unique.
// - FailedAttempts >= 0 and resets to 0 on every successful authentication
//   and on every transition into StateOpen.
type Account struct {
	ID             string `json:"id"`
	Name           string `json:"name"`
	PasswordHash   string `json:"-"`
	State          State  `json:"state"`
	FailedAttempts int    `json:"failed_attempts"`
}

type State string

const (
	StateOpen   State = "open"
	StateLocked State = "locked"
)

// Result enumerates authentication outcomes.
type Result string

const (
	ResultNotFound      Result = "not_found"
	ResultLocked        Result = "locked"
	ResultFailure       Result = "failure"
	ResultLockedJustNow Result = "locked_just_now"
	ResultSuccess       Result = "success"
)

// Outcome is returned by the authentication gate. Only Success carries the
// account identity; RemainingAttempts is meaningful for Failure.
type Outcome struct {
	Result            Result `json:"result"`
	RemainingAttempts int    `json:"remaining_attempts,omitempty"`
	AccountID         string `json:"-"`
	Name              string `json:"-"`
}

func (o Outcome) OK() bool { return o.Result == ResultSuccess }

var (
	ErrNotFound       = errors.New("accounts: account not found")
	ErrAlreadyExists  = errors.New("accounts: account name already taken")
	ErrSecretTooShort = errors.New("accounts: secret shorter than 8 characters")
	ErrInvalidInput   = errors.New("accounts: invalid input")
	ErrNilMutator     = errors.New("accounts: mutator is nil")
)
