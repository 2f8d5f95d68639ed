package alda

import (
	"fmt"
	"strings"
)

// ParseError is the base shape shared by scan and syntax errors. When a
// source line is available the formatted message includes the offending
// line with a caret under the error column.
type ParseError struct {
	Message    string
	Pos        Position
	SourceLine string
	HasPos     bool
}

func (e *ParseError) Error() string {
	var b strings.Builder
	if e.HasPos {
		fmt.Fprintf(&b, "%s: ", e.Pos)
	}
	b.WriteString(e.Message)
	if e.SourceLine != "" && e.HasPos {
		fmt.Fprintf(&b, "\n  %s", e.SourceLine)
		fmt.Fprintf(&b, "\n  %s^", strings.Repeat(" ", e.Pos.Column-1))
	}
	return b.String()
}

// ScanError reports an error during lexical analysis.
type ScanError struct {
	ParseError
}

func newScanError(message string, pos Position, sourceLine string) *ScanError {
	return &ScanError{ParseError{
		Message:    message,
		Pos:        pos,
		SourceLine: sourceLine,
		HasPos:     true,
	}}
}

// SyntaxError reports an error during parsing.
type SyntaxError struct {
	ParseError
}

func newSyntaxError(message string, pos Position) *SyntaxError {
	return &SyntaxError{ParseError{
		Message: message,
		Pos:     pos,
		HasPos:  true,
	}}
}
