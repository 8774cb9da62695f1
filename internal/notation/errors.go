package notation

import "fmt"

// ParseError locates a problem in a text file. Col is 0 when the error
// concerns a whole line.
type ParseError struct {
	Path string
	Line int
	Col  int
	Msg  string
}

func (e *ParseError) Error() string {
	path := e.Path
	if path == "" {
		path = "<input>"
	}
	if e.Col > 0 {
		return fmt.Sprintf("%s:%d:%d: %s", path, e.Line, e.Col, e.Msg)
	}
	return fmt.Sprintf("%s:%d: %s", path, e.Line, e.Msg)
}

func errorf(path string, line, col int, format string, args ...any) *ParseError {
	return &ParseError{Path: path, Line: line, Col: col, Msg: fmt.Sprintf(format, args...)}
}
