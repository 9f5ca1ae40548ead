package grammar

import (
	"fmt"
	"strings"
	"unicode/utf8"
)

// SyntaxError reports that the input does not match a rule.
type SyntaxError struct {
	// Entry is the rule passed to the parse call.
	Entry Rule
	// Rule is the innermost rule that could not be matched.
	Rule Rule
	// Offset is the byte offset where matching stopped.
	Offset int
	// Line and Col are 1-based; Col counts runes.
	Line, Col int
}

func newSyntaxError(src string, entry, rule Rule, offset int) *SyntaxError {
	line, col := lineCol(src, offset)
	return &SyntaxError{
		Entry:  entry,
		Rule:   rule,
		Offset: offset,
		Line:   line,
		Col:    col,
	}
}

func (e *SyntaxError) Error() string {
	msg := fmt.Sprintf("syntax error: expected %s at line %d col %d", e.Rule, e.Line, e.Col)
	if e.Entry != 0 && e.Entry != e.Rule {
		msg += fmt.Sprintf(" (parsing %s)", e.Entry)
	}
	return msg
}

func lineCol(src string, pos int) (line, col int) {
	if pos < 0 {
		pos = 0
	} else if pos > len(src) {
		pos = len(src)
	}
	head := src[:pos]
	lineStart := strings.LastIndexByte(head, '\n') + 1
	return strings.Count(head, "\n") + 1, utf8.RuneCountInString(head[lineStart:]) + 1
}
