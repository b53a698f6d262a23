package sdl

import (
	"fmt"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/errors"
	"cuelang.org/go/cue/token"
)

// CompileError reports a bad declaration. Field is the dotted path of the
// offending value (for example modules.std.functions.len[0].returns), or
// "cue" when CUE itself rejected the input.
type CompileError struct {
	Field   string
	Message string
	Pos     token.Pos
}

func (e *CompileError) Error() string {
	if !e.Pos.IsValid() {
		return e.Field + ": " + e.Message
	}
	return fmt.Sprintf("%s:%d:%d: %s: %s", e.Pos.Filename(), e.Pos.Line(), e.Pos.Column(), e.Field, e.Message)
}

func fieldError(field string, v cue.Value, err error) error {
	return &CompileError{Field: field, Message: err.Error(), Pos: v.Pos()}
}

func fieldErrorf(field string, v cue.Value, format string, args ...any) error {
	return &CompileError{Field: field, Message: fmt.Sprintf(format, args...), Pos: v.Pos()}
}

// cueError positions a CUE evaluation error at the first location any of
// its parts reports. Errors without positions are returned unchanged.
func cueError(err error) error {
	for _, e := range errors.Errors(err) {
		if pos := errors.Positions(e); len(pos) > 0 {
			return &CompileError{Field: "cue", Message: e.Error(), Pos: pos[0]}
		}
	}
	return err
}

// valueError is cueError falling back to v's position.
func valueError(v cue.Value, err error) error {
	err = cueError(err)
	if _, ok := err.(*CompileError); ok {
		return err
	}
	return fieldError("cue", v, err)
}
