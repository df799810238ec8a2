package pomo

import "fmt"

// ErrorKind classifies model errors.
type ErrorKind int

// Error kinds.
const (
	UnsupportedModel ErrorKind = iota + 1
	InvalidState
	StateCountMismatch
	UnknownFreqType
	UserFreqMissing
	NoPolymorphicData
	UnsupportedDecomposition
	UnsupportedSampling
	InvalidParameter
	DecompositionFailed
)

var kindNames = map[ErrorKind]string{
	UnsupportedModel:         "unsupported mutation model",
	InvalidState:             "invalid state",
	StateCountMismatch:       "state count mismatch",
	UnknownFreqType:          "unknown frequency type",
	UserFreqMissing:          "user-defined frequencies missing",
	NoPolymorphicData:        "no polymorphic data",
	UnsupportedDecomposition: "unsupported decomposition",
	UnsupportedSampling:      "unsupported sampling method",
	InvalidParameter:         "invalid parameter",
	DecompositionFailed:      "decomposition failed",
}

// String returns a short description of the kind.
func (k ErrorKind) String() string {
	if s, ok := kindNames[k]; ok {
		return s
	}
	return fmt.Sprintf("error kind %d", int(k))
}

// Error is an error returned by the PoMo model. All errors are
// configuration errors and abort model construction or a single
// parameter update.
type Error struct {
	Kind ErrorKind
	Msg  string
	Err  error
}

// Sentinel errors for errors.Is.
var (
	ErrUnsupportedModel         = &Error{Kind: UnsupportedModel}
	ErrInvalidState             = &Error{Kind: InvalidState}
	ErrStateCountMismatch       = &Error{Kind: StateCountMismatch}
	ErrUnknownFreqType          = &Error{Kind: UnknownFreqType}
	ErrUserFreqMissing          = &Error{Kind: UserFreqMissing}
	ErrNoPolymorphicData        = &Error{Kind: NoPolymorphicData}
	ErrUnsupportedDecomposition = &Error{Kind: UnsupportedDecomposition}
	ErrUnsupportedSampling      = &Error{Kind: UnsupportedSampling}
	ErrInvalidParameter         = &Error{Kind: InvalidParameter}
	ErrDecompositionFailed      = &Error{Kind: DecompositionFailed}
)

func (e *Error) Error() string {
	s := "pomo: " + e.Kind.String()
	if e.Msg != "" {
		s += ": " + e.Msg
	}
	if e.Err != nil {
		s += ": " + e.Err.Error()
	}
	return s
}

// Unwrap returns the underlying error.
func (e *Error) Unwrap() error {
	return e.Err
}

// Is matches errors of the same kind.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	return ok && t.Kind == e.Kind
}

// newError creates a new error of the kind.
func newError(kind ErrorKind, format string, args ...interface{}) *Error {
	return &Error{Kind: kind, Msg: fmt.Sprintf(format, args...)}
}

// wrapError wraps an error from a collaborator.
func wrapError(kind ErrorKind, err error) *Error {
	return &Error{Kind: kind, Err: err}
}
