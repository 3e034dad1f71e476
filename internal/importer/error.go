package importer

import "fmt"

// Error is the single terminal error kind of the import core. Anything
// the translator cannot express aborts the function with one of these;
// nothing is retried or partially recovered.
type Error struct {
	Msg string
}

func (e *Error) Error() string {
	return e.Msg
}

// Errorf builds an import error.
func Errorf(format string, args ...any) *Error {
	return &Error{Msg: fmt.Sprintf(format, args...)}
}
