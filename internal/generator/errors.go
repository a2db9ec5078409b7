package generator

import (
	"errors"
	"fmt"
)

// ErrMissingColumn marks a target sheet without a month, activity or bookable hours header.
var ErrMissingColumn = errors.New("missing required column")

// SheetError reports a target sheet left out of the output.
type SheetError struct {
	Sheet string
	Stage string
	Err   error
}

func (e *SheetError) Error() string {
	return fmt.Sprintf("sheet %s (%s): %v", e.Sheet, e.Stage, e.Err)
}

func (e *SheetError) Unwrap() error { return e.Err }
