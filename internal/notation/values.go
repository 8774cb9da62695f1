package notation

import "fmt"

type valueError struct {
	value  string
	reason string
}

func (e *valueError) Error() string {
	return fmt.Sprintf("%q %s", e.value, e.reason)
}

func errInvalid(v string) error     { return &valueError{v, "is not valid"} }
func errNotPositive(v string) error { return &valueError{v, "must be positive"} }
func errNegative(v string) error    { return &valueError{v, "must not be negative"} }
func errOffGrid(v string) error {
	return &valueError{v, "is not a whole number of ticks"}
}
