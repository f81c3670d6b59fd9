package mesh

import "fmt"

// MalformedRecordError is returned when a position or texture line cannot be parsed
// into numeric components.
type MalformedRecordError struct {
	Text    string
	Message string
	Cause   error
}

func (e *MalformedRecordError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("malformed record %q: %s: %v", e.Text, e.Message, e.Cause)
	}
	return fmt.Sprintf("malformed record %q: %s", e.Text, e.Message)
}

func (e *MalformedRecordError) Unwrap() error {
	return e.Cause
}
