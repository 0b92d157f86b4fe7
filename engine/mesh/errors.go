package mesh

import "fmt"

// ParseError reports a malformed mesh record file. The template under
// construction is discarded; no partial result is ever cached.
type ParseError struct {
	Path string
	Line int
	Msg  string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("mesh: parse %s:%d: %s", e.Path, e.Line, e.Msg)
}

// NotFoundError reports a mesh record file that could not be opened.
type NotFoundError struct {
	Path string
	Err  error
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("mesh: not found %s: %v", e.Path, e.Err)
}

func (e *NotFoundError) Unwrap() error {
	return e.Err
}
