package usecase

import (
	"errors"
	"net/http"

	"github.com/shandysiswandi/authotp/internal/pkg/goerror"
	"github.com/shandysiswandi/authotp/internal/pkg/validator"
)

// Kind tags an Outcome.
type Kind int

const (
	KindSuccess Kind = iota
	KindFailure
	KindValidationError
)

func (k Kind) String() string {
	switch k {
	case KindSuccess:
		return "success"
	case KindValidationError:
		return "validation_error"
	default:
		return "failure"
	}
}

// Outcome is the uniform result of every operation.
//
// Code is the HTTP-like status: 200 on success, 400/422 for rejected input,
// 401, 404 and 409 for business failures and 500 for internal errors.
// Errors carries the diagnostic of an internal error and is meant for logs,
// not for end users.
type Outcome struct {
	Kind    Kind
	Message string
	Code    int
	Data    any
	Errors  string
	Fields  map[string]string

	err error
}

// Err returns the structured error behind a failed outcome, nil on success.
func (o Outcome) Err() error {
	if o.Kind == KindSuccess {
		return nil
	}
	return o.err
}

func succeed(msg string, data any) Outcome {
	return Outcome{Kind: KindSuccess, Message: msg, Code: http.StatusOK, Data: data}
}

func fail(err error) Outcome {
	gerr, ok := goerror.As(err)
	if !ok {
		err = goerror.NewServer(err)
		gerr, _ = goerror.As(err)
	}

	o := Outcome{
		Kind:    KindFailure,
		Message: gerr.Msg(),
		Code:    gerr.StatusCode(),
		Fields:  gerr.Fields(),
		err:     err,
	}

	if gerr.Type() == goerror.TypeValidation {
		o.Kind = KindValidationError
		var verr validator.V10ValidationError
		if errors.As(err, &verr) {
			o.Fields = verr.Values()
		}
	}

	if gerr.Type() == goerror.TypeServer && gerr.Unwrap() != nil {
		o.Errors = gerr.Unwrap().Error()
	}

	return o
}

// result builds the outcome of an operation returning data. A failure
// keeps non-nil data so partial results still reach the caller.
func result[T any](msg string, out *T, err error) Outcome {
	if err != nil {
		o := fail(err)
		if out != nil {
			o.Data = *out
		}
		return o
	}

	if out == nil {
		return succeed(msg, nil)
	}
	return succeed(msg, *out)
}
