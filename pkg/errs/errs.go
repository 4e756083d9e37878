package errs

import (
	"fmt"

	"github.com/pkg/errors"
)

type Kind int

const (
	// Index covers version control failures while synchronizing the index.
	Index Kind = iota + 1
	IO
	Parse
)

func (k Kind) String() string {
	switch k {
	case Index:
		return "updating index"
	case IO:
		return "I/O"
	case Parse:
		return "parsing"
	default:
		return "unknown"
	}
}

type Error struct {
	Kind    Kind
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("Error occurred when %s: %s", e.Kind, e.Message)
	}

	return fmt.Sprintf("Error occurred when %s: %s: %s", e.Kind, e.Message, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

func newError(kind Kind, err error, format string, args []interface{}) error {
	return errors.WithStack(&Error{
		Kind:    kind,
		Message: fmt.Sprintf(format, args...),
		Err:     err,
	})
}

func IndexErr(err error, format string, args ...interface{}) error {
	return newError(Index, err, format, args)
}

func IOErr(err error, format string, args ...interface{}) error {
	return newError(IO, err, format, args)
}

func ParseErr(err error, format string, args ...interface{}) error {
	return newError(Parse, err, format, args)
}

// KindOf returns the Kind of the first *Error in err's chain, or 0.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}

	return 0
}

func Is(err error, kind Kind) bool {
	return KindOf(err) == kind
}
