package bible

import "fmt"

// ParseError wraps a malformed upstream response so callers can tell parse
// failures from transport failures without seeing raw xml errors.
type ParseError struct {
	Err error
	URL string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("failed to parse response from %s: %v", e.URL, e.Err)
}

func (e *ParseError) Unwrap() error {
	return e.Err
}
