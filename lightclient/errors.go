package lightclient

import (
	"errors"
	"fmt"
)

type ErrorKind int

const (
	Unauthorized ErrorKind = iota + 1
	StaleUpdate
	InvalidOrdering
	PeriodSkip
	InvalidFinalityProof
	InvalidExecutionProof
	MissingSyncCommitteeUpdate
	InvalidSyncCommitteeProof
	InsufficientParticipants
	QuorumNotMet
	SignatureVerificationFailed
	UnknownParent
	DuplicateSubmission
	QuotaExceeded
	UnknownExecutionBlockHash
	AlreadyRegistered
	NotRegistered
	ProofStructureInvalid
	PendingHeaders
	Paused
	NotInitialized
	AlreadyInitialized
	InvalidInitInput
	InvalidHeader
	Storage
	InvalidArgument
)

var kindNames = map[ErrorKind]string{
	Unauthorized:                "Unauthorized",
	StaleUpdate:                 "StaleUpdate",
	InvalidOrdering:             "InvalidOrdering",
	PeriodSkip:                  "PeriodSkip",
	InvalidFinalityProof:        "InvalidFinalityProof",
	InvalidExecutionProof:       "InvalidExecutionProof",
	MissingSyncCommitteeUpdate:  "MissingSyncCommitteeUpdate",
	InvalidSyncCommitteeProof:   "InvalidSyncCommitteeProof",
	InsufficientParticipants:    "InsufficientParticipants",
	QuorumNotMet:                "QuorumNotMet",
	SignatureVerificationFailed: "SignatureVerificationFailed",
	UnknownParent:               "UnknownParent",
	DuplicateSubmission:         "DuplicateSubmission",
	QuotaExceeded:               "QuotaExceeded",
	UnknownExecutionBlockHash:   "UnknownExecutionBlockHash",
	AlreadyRegistered:           "AlreadyRegistered",
	NotRegistered:               "NotRegistered",
	ProofStructureInvalid:       "ProofStructureInvalid",
	PendingHeaders:              "PendingHeaders",
	Paused:                      "Paused",
	NotInitialized:              "NotInitialized",
	AlreadyInitialized:          "AlreadyInitialized",
	InvalidInitInput:            "InvalidInitInput",
	InvalidHeader:               "InvalidHeader",
	Storage:                     "Storage",
	InvalidArgument:             "InvalidArgument",
}

func (k ErrorKind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return fmt.Sprintf("ErrorKind(%d)", int(k))
}

// Error is an ordinary rejection of a call. Two errors match under errors.Is
// when their kinds are equal, so callers can test against the sentinels.
type Error struct {
	Kind ErrorKind
	Msg  string
	Err  error
}

func (e *Error) Error() string {
	if e.Msg == "" {
		return e.Kind.String()
	}
	return e.Msg
}

func (e *Error) Unwrap() error {
	return e.Err
}

func (e *Error) Is(target error) bool {
	var other *Error
	if !errors.As(target, &other) {
		return false
	}
	return other.Kind == e.Kind
}

func newError(kind ErrorKind, format string, args ...interface{}) *Error {
	return &Error{Kind: kind, Msg: fmt.Sprintf(format, args...)}
}

func wrapError(kind ErrorKind, err error, format string, args ...interface{}) *Error {
	return &Error{Kind: kind, Msg: fmt.Sprintf(format, args...), Err: err}
}

var (
	ErrUnauthorized                = &Error{Kind: Unauthorized}
	ErrStaleUpdate                 = &Error{Kind: StaleUpdate}
	ErrInvalidOrdering             = &Error{Kind: InvalidOrdering}
	ErrPeriodSkip                  = &Error{Kind: PeriodSkip}
	ErrInvalidFinalityProof        = &Error{Kind: InvalidFinalityProof}
	ErrInvalidExecutionProof       = &Error{Kind: InvalidExecutionProof}
	ErrMissingSyncCommitteeUpdate  = &Error{Kind: MissingSyncCommitteeUpdate}
	ErrInvalidSyncCommitteeProof   = &Error{Kind: InvalidSyncCommitteeProof}
	ErrInsufficientParticipants    = &Error{Kind: InsufficientParticipants}
	ErrQuorumNotMet                = &Error{Kind: QuorumNotMet}
	ErrSignatureVerificationFailed = &Error{Kind: SignatureVerificationFailed}
	ErrUnknownParent               = &Error{Kind: UnknownParent}
	ErrDuplicateSubmission         = &Error{Kind: DuplicateSubmission}
	ErrQuotaExceeded               = &Error{Kind: QuotaExceeded}
	ErrUnknownExecutionBlockHash   = &Error{Kind: UnknownExecutionBlockHash}
	ErrAlreadyRegistered           = &Error{Kind: AlreadyRegistered}
	ErrNotRegistered               = &Error{Kind: NotRegistered}
	ErrProofStructureInvalid       = &Error{Kind: ProofStructureInvalid}
	ErrPendingHeaders              = &Error{Kind: PendingHeaders}
	ErrPaused                      = &Error{Kind: Paused}
	ErrNotInitialized              = &Error{Kind: NotInitialized}
	ErrAlreadyInitialized          = &Error{Kind: AlreadyInitialized}
	ErrInvalidInitInput            = &Error{Kind: InvalidInitInput}
	ErrInvalidHeader               = &Error{Kind: InvalidHeader}
	ErrStorage                     = &Error{Kind: Storage}
	ErrInvalidArgument             = &Error{Kind: InvalidArgument}
)

// InvariantError reports state that earlier checks should have made
// impossible, such as a broken parent chain during finalization. It never
// matches an ordinary *Error.
type InvariantError struct {
	Kind ErrorKind
	Msg  string
}

func (e *InvariantError) Error() string {
	return fmt.Sprintf("invariant violated (%s): %s", e.Kind, e.Msg)
}

func newInvariant(kind ErrorKind, format string, args ...interface{}) *InvariantError {
	return &InvariantError{Kind: kind, Msg: fmt.Sprintf(format, args...)}
}

func IsInvariant(err error) bool {
	var inv *InvariantError
	return errors.As(err, &inv)
}

// KindOf returns the kind carried by err, or zero if it carries none.
func KindOf(err error) ErrorKind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	var inv *InvariantError
	if errors.As(err, &inv) {
		return inv.Kind
	}
	return 0
}

func storageError(err error, op string) *Error {
	return wrapError(Storage, err, "storage failure: %s: %v", op, err)
}
