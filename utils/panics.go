package utils

import "fmt"

// RecoverWithError must be deferred directly; it turns a panic into *err.
func RecoverWithError(err *error) {
	if rv := recover(); rv != nil {
		*err = fmt.Errorf("recovered from panic: %v", rv)
	}
}
