// Package validation binds JSON request bodies and validates them with
// go-playground/validator struct tags before any handler side effect runs.
package validation

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	validatorv10 "github.com/go-playground/validator/v10"
)

// maxBodyBytes bounds request bodies; catalog and order payloads are small.
const maxBodyBytes = 1 << 20

// Validator wraps a configured validator instance.
type Validator struct {
	v *validatorv10.Validate
}

// New returns a Validator with required-struct validation enabled.
func New() *Validator {
	v := validatorv10.New(validatorv10.WithRequiredStructEnabled())
	return &Validator{v: v}
}

// Error carries field-level validation failures.
type Error struct {
	Fields map[string]string
}

func (e *Error) Error() string {
	return fmt.Sprintf("validation failed: %d invalid field(s)", len(e.Fields))
}

// DecodeAndValidate strictly decodes the request body into out (unknown
// fields rejected) and runs struct validation. The returned error is either
// a plain decode error or an *Error with per-field messages.
func (va *Validator) DecodeAndValidate(r *http.Request, out any) error {
	defer func() { _, _ = io.Copy(io.Discard, r.Body) }()

	dec := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(out); err != nil {
		return fmt.Errorf("decode request body: %w", err)
	}

	if err := va.v.Struct(out); err != nil {
		return &Error{Fields: fieldErrors(err)}
	}
	return nil
}

func fieldErrors(err error) map[string]string {
	out := map[string]string{}
	var verrs validatorv10.ValidationErrors
	if ok := asValidationErrors(err, &verrs); ok {
		for _, fe := range verrs {
			out[fe.StructNamespace()] = fmt.Sprintf("failed %q constraint", fe.Tag())
		}
	} else {
		out["_"] = err.Error()
	}
	return out
}

func asValidationErrors(err error, target *validatorv10.ValidationErrors) bool {
	verrs, ok := err.(validatorv10.ValidationErrors)
	if ok {
		*target = verrs
	}
	return ok
}
