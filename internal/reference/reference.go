// Package reference is a whole-buffer reparse of a finished reply. It is slow
// (every call starts from scratch) but small enough to trust, which makes it
// the oracle the incremental scanner is checked against.
package reference

import (
	"fmt"
	"strings"

	"github.com/dlclark/regexp2"

	"github.com/riverfjs/tagstream-go/internal/grammar"
	"github.com/riverfjs/tagstream-go/internal/segment"
)

// Piece is one segment of a finished reply.
type Piece struct {
	Kind    segment.Kind
	TagName string
	Raw     string
}

// Parser holds the compiled pattern for one grammar.
type Parser struct {
	re *regexp2.Regexp
}

// New compiles a parser for reg.
//
// The pattern matches the leftmost opening delimiter and, when possible, the
// lazily matched body up to the first closing delimiter of the same name
// (\1). An opener whose body group did not participate was never closed.
func New(reg *grammar.Registry) (*Parser, error) {
	names := reg.Names()
	for i, n := range names {
		names[i] = regexp2.Escape(n)
	}
	alt := strings.Join(names, "|")
	re, err := regexp2.Compile(`<(`+alt+`)>(?:([\s\S]*?)</\1>)?`, regexp2.None)
	if err != nil {
		return nil, fmt.Errorf("reference: compile: %w", err)
	}
	return &Parser{re: re}, nil
}

// Parse splits s into pieces. Text after an opener that is never closed,
// including the opener, is literal.
func (p *Parser) Parse(s string) ([]Piece, error) {
	var pieces []Piece
	var text strings.Builder
	flush := func() {
		if text.Len() > 0 {
			pieces = append(pieces, Piece{Kind: segment.Text, Raw: text.String()})
			text.Reset()
		}
	}

	// regexp2 reports rune offsets
	runes := []rune(s)
	pos := 0
	for pos < len(runes) {
		m, err := p.re.FindRunesMatchStartingAt(runes, pos)
		if err != nil {
			return nil, fmt.Errorf("reference: match: %w", err)
		}
		if m == nil {
			break
		}
		body := m.GroupByNumber(2)
		if body == nil || len(body.Captures) == 0 {
			break
		}
		text.WriteString(string(runes[pos:m.Index]))
		flush()
		pieces = append(pieces, Piece{
			Kind:    segment.Tag,
			TagName: m.GroupByNumber(1).String(),
			Raw:     body.String(),
		})
		pos = m.Index + m.Length
	}
	text.WriteString(string(runes[pos:]))
	flush()
	return pieces, nil
}

// Parse is a one-off helper around New and Parser.Parse.
func Parse(s string, reg *grammar.Registry) ([]Piece, error) {
	p, err := New(reg)
	if err != nil {
		return nil, err
	}
	return p.Parse(s)
}

// FromViews converts model views to pieces so both sides compare directly.
func FromViews(views []segment.View) []Piece {
	out := make([]Piece, 0, len(views))
	for _, v := range views {
		out = append(out, Piece{Kind: v.Kind, TagName: v.TagName, Raw: v.Raw})
	}
	return out
}
