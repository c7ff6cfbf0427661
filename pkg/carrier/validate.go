package carrier

import (
	"fmt"
)

// Validator accumulates every field-requirement violation found while
// building a carrier request. Builders run all their checks before asking
// for the verdict, so a single error reports the complete list of problems.
type Validator struct {
	carrier  string
	missing  []string
	failures []string
}

// NewValidator returns a validator attributing violations to carrier.
func NewValidator(carrier string) *Validator {
	return &Validator{carrier: carrier}
}

// Require records field as missing unless present is true.
func (v *Validator) Require(field string, present bool) {
	if !present {
		v.missing = append(v.missing, field)
	}
}

// RequireString records field as missing when value is empty.
func (v *Validator) RequireString(field, value string) {
	v.Require(field, value != "")
}

// Failf records a free-form violation that is not a simple missing field.
func (v *Validator) Failf(format string, args ...any) {
	v.failures = append(v.failures, fmt.Sprintf(format, args...))
}

// Valid reports whether no violation has been recorded yet.
func (v *Validator) Valid() bool {
	return len(v.missing) == 0 && len(v.failures) == 0
}

// Err returns an InvalidRequestError listing every recorded violation, or
// nil when the request is clean. Missing fields keep recording order.
func (v *Validator) Err() error {
	if v.Valid() {
		return nil
	}
	return &InvalidRequestError{
		Carrier:  v.carrier,
		Missing:  v.missing,
		Failures: v.failures,
	}
}
