package report

import (
	"errors"
	"fmt"
)

// MalformedInputError means a file could not be read or holds no usable table.
type MalformedInputError struct {
	Path   string
	Reason string
	Err    error
}

func (e *MalformedInputError) Error() string {
	msg := "malformed input"
	if e.Path != "" {
		msg += " " + e.Path
	}
	if e.Reason != "" {
		msg += ": " + e.Reason
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *MalformedInputError) Unwrap() error { return e.Err }

// DateGrammarError reports a period literal that does not match the variant's grammar.
type DateGrammarError struct {
	Literal string
	Grammar Grammar
}

func (e *DateGrammarError) Error() string {
	return fmt.Sprintf("invalid period %q: expected %q", e.Literal, e.Grammar.String())
}

// AmountError reports a value cell on a ledger row that is not a currency amount.
type AmountError struct {
	Literal string
	Row     int // line index in the source file
	Column  string
}

func (e *AmountError) Error() string {
	return fmt.Sprintf("line %d column %q: invalid amount %q", e.Row+1, e.Column, e.Literal)
}

// IsFileScoped reports whether err only invalidates the file being processed,
// so a batch run may continue with the next file.
func IsFileScoped(err error) bool {
	var (
		mi *MalformedInputError
		dg *DateGrammarError
		ae *AmountError
	)
	return errors.As(err, &mi) || errors.As(err, &dg) || errors.As(err, &ae)
}
