package source

import (
	"errors"
	"fmt"

	cueerrors "cuelang.org/go/cue/errors"
)

// FileTypeMismatchError is returned when a file's extension names a
// different format than the one requested.
type FileTypeMismatchError struct {
	Path      string
	Requested Format
	Detected  Format
}

func (e *FileTypeMismatchError) Error() string {
	return fmt.Sprintf("%s: file type %s does not match requested format %s", e.Path, e.Detected, e.Requested)
}

// IsFileTypeMismatch reports whether err is a FileTypeMismatchError.
func IsFileTypeMismatch(err error) bool {
	var e *FileTypeMismatchError
	return errors.As(err, &e)
}

// DecodeError is a malformed document. Line and Column are 1-based and
// zero when the decoder reports no position.
type DecodeError struct {
	Path    string
	Line    int
	Column  int
	Message string
}

func (e *DecodeError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("%s:%d:%d: %s", e.Path, e.Line, e.Column, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Path, e.Message)
}

// IsDecodeError reports whether err is a DecodeError.
func IsDecodeError(err error) bool {
	var e *DecodeError
	return errors.As(err, &e)
}

// cueError extracts the first position from a CUE error.
func cueError(path string, err error) error {
	if err == nil {
		return nil
	}
	errs := cueerrors.Errors(err)
	if len(errs) == 0 {
		return &DecodeError{Path: path, Message: err.Error()}
	}

	first := errs[0]
	if positions := cueerrors.Positions(first); len(positions) > 0 && positions[0].IsValid() {
		pos := positions[0]
		return &DecodeError{Path: path, Line: pos.Line(), Column: pos.Column(), Message: first.Error()}
	}
	return &DecodeError{Path: path, Message: first.Error()}
}

// offsetPosition converts a byte offset into a 1-based line and column.
func offsetPosition(data []byte, offset int64) (int, int) {
	line, col := 1, 1
	for i := int64(0); i < offset && i < int64(len(data)); i++ {
		if data[i] == '\n' {
			line++
			col = 1
			continue
		}
		col++
	}
	return line, col
}
