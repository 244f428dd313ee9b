// Package resolver decides how much of an unconsumed buffer tail can be
// classified now and how much has to wait for more input.
package resolver

import (
	"strings"

	"github.com/riverfjs/tagstream-go/internal/grammar"
)

// Kind is the classification of a tail.
type Kind int

const (
	// Literal: tail[:End] is plain text and can be emitted.
	Literal Kind = iota
	// CompleteTag: the tail starts with a full <name>…</name> span.
	CompleteTag
	// Ambiguous: the tail starts with a candidate delimiter that more input
	// could still complete. Nothing may be emitted.
	Ambiguous
)

func (k Kind) String() string {
	switch k {
	case Literal:
		return "literal"
	case CompleteTag:
		return "complete-tag"
	case Ambiguous:
		return "ambiguous"
	default:
		return "unknown"
	}
}

// Decision is the outcome of Classify.
type Decision struct {
	Kind Kind
	// End is the number of tail bytes the decision consumes. Zero for Ambiguous.
	End int
	// Tag and Body are set for CompleteTag.
	Tag  grammar.Tag
	Body string
	// Resume is set for an opened tag still waiting for its closing delimiter:
	// the offset from which the next close search may start.
	Resume int
}

// Classify inspects tail from its first byte. hint is a Resume value returned
// by a previous Ambiguous decision on a prefix of the same tail, or 0.
//
// The earliest candidate '<' wins. Text before it is returned as Literal
// first, so every decision covers a prefix of the tail and the caller can loop
// until it gets Ambiguous or runs out of input.
func Classify(tail string, reg *grammar.Registry, hint int) Decision {
	offset := 0
	for {
		idx := strings.IndexByte(tail[offset:], '<')
		if idx < 0 {
			return Decision{Kind: Literal, End: len(tail)}
		}
		pos := offset + idx
		rest := tail[pos:]

		if tag, ok := reg.OpenAt(rest); ok {
			if pos > 0 {
				return Decision{Kind: Literal, End: pos}
			}
			return closeTag(tail, tag, hint)
		}
		if reg.IsDelimiterPrefix(rest) {
			if pos > 0 {
				return Decision{Kind: Literal, End: pos}
			}
			return Decision{Kind: Ambiguous}
		}
		// '<' that cannot start any registered delimiter: plain text
		offset = pos + 1
	}
}

// closeTag looks for the first closing delimiter of tag in a tail that begins
// with tag's opening delimiter.
func closeTag(tail string, tag grammar.Tag, hint int) Decision {
	from := max(len(tag.Open), hint)
	if from > len(tail) {
		from = len(tag.Open)
	}
	idx := strings.Index(tail[from:], tag.Close)
	if idx < 0 {
		// a partial closing delimiter may sit at the very end
		resume := max(len(tag.Open), len(tail)-len(tag.Close)+1)
		return Decision{Kind: Ambiguous, Resume: resume}
	}
	bodyEnd := from + idx
	return Decision{
		Kind: CompleteTag,
		End:  bodyEnd + len(tag.Close),
		Tag:  tag,
		Body: tail[len(tag.Open):bodyEnd],
	}
}
