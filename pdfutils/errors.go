package pdfutils

import "fmt"

// DocumentReadError reports a source that could not be opened or parsed as a
// PDF.
type DocumentReadError struct {
	Path string
	Err  error
}

func (e *DocumentReadError) Error() string {
	if e.Path == "" {
		return fmt.Sprintf("read pdf: %v", e.Err)
	}
	return fmt.Sprintf("read pdf %q: %v", e.Path, e.Err)
}

func (e *DocumentReadError) Unwrap() error { return e.Err }

// PageIndexError reports an occurrence that points at a page the document
// does not have.
type PageIndexError struct {
	Index    int
	NumPages int
}

func (e *PageIndexError) Error() string {
	return fmt.Sprintf("page index %d out of range [0, %d)", e.Index, e.NumPages)
}

// WriteError reports an output destination that could not be written.
type WriteError struct {
	Path string
	Err  error
}

func (e *WriteError) Error() string {
	return fmt.Sprintf("write pdf %q: %v", e.Path, e.Err)
}

func (e *WriteError) Unwrap() error { return e.Err }
