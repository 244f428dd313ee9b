// Package segment is the ordered, reference-stable list of renderable units a
// chat UI binds to. Segments are created and grown only by the scanner; every
// field is unexported so readers cannot mutate them.
package segment

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Kind 区分纯文本片段与标签片段
type Kind int

const (
	// Text is Markdown source.
	Text Kind = iota
	// Tag is the opaque body of a registered block tag.
	Tag
)

// String returns the string representation of Kind.
func (k Kind) String() string {
	switch k {
	case Text:
		return "text"
	case Tag:
		return "tag"
	default:
		return "unknown"
	}
}

// MarshalText implements encoding.TextMarshaler.
func (k Kind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (k *Kind) UnmarshalText(b []byte) error {
	switch string(b) {
	case "text":
		*k = Text
	case "tag":
		*k = Tag
	default:
		return fmt.Errorf("segment: unknown kind %q", b)
	}
	return nil
}

// Status 流式状态
type Status int

const (
	// Streaming marks the trailing text segment while it may still grow.
	Streaming Status = iota
	// Complete segments never change again.
	Complete
)

// String returns the string representation of Status.
func (s Status) String() string {
	switch s {
	case Streaming:
		return "streaming"
	case Complete:
		return "complete"
	default:
		return "unknown"
	}
}

// MarshalText implements encoding.TextMarshaler.
func (s Status) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (s *Status) UnmarshalText(b []byte) error {
	switch string(b) {
	case "streaming":
		*s = Streaming
	case "complete":
		*s = Complete
	default:
		return fmt.Errorf("segment: unknown status %q", b)
	}
	return nil
}

// RenderFunc turns Markdown source into displayable markup.
type RenderFunc func(markdown string) (string, error)

// Segment is one typed, ordered unit of a reply.
type Segment struct {
	id      uint64
	kind    Kind
	tagName string
	raw     strings.Builder
	status  Status

	// rendered 缓存，raw 变化时失效
	rendered      string
	renderedValid bool
}

// ID is unique within the owning model and never reused.
func (s *Segment) ID() uint64 { return s.id }

// Kind reports whether the segment is text or a tag.
func (s *Segment) Kind() Kind { return s.kind }

// TagName is empty for text segments.
func (s *Segment) TagName() string { return s.tagName }

// Raw is the exact source this segment owns. For tags it excludes the delimiters.
func (s *Segment) Raw() string { return s.raw.String() }

// Status reports whether the segment may still grow.
func (s *Segment) Status() Status { return s.status }

// Delimited returns Raw with the tag delimiters put back, i.e. the exact
// stretch of the original stream the segment came from.
func (s *Segment) Delimited() string {
	if s.kind != Tag {
		return s.Raw()
	}
	return "<" + s.tagName + ">" + s.Raw() + "</" + s.tagName + ">"
}

// Rendered returns the cached rendering of a text segment, computing it with
// render on first use or after the source grew. Tag segments are handed to
// component renderers by the host and always return "".
//
// A failed render is not cached; Raw stays intact so the caller can retry.
func (s *Segment) Rendered(render RenderFunc) (string, error) {
	if s.kind != Text {
		return "", nil
	}
	if s.renderedValid {
		return s.rendered, nil
	}
	out, err := render(s.Raw())
	if err != nil {
		return "", err
	}
	s.rendered, s.renderedValid = out, true
	return out, nil
}

// View is an immutable copy of a segment, safe to hand to another goroutine.
type View struct {
	ID      uint64 `json:"id"`
	Kind    Kind   `json:"kind"`
	TagName string `json:"tag_name,omitempty"`
	Raw     string `json:"raw"`
	Status  Status `json:"status"`
}

// View snapshots the segment.
func (s *Segment) View() View {
	return View{
		ID:      s.id,
		Kind:    s.kind,
		TagName: s.tagName,
		Raw:     s.Raw(),
		Status:  s.status,
	}
}

// MarshalJSON encodes the segment as its View.
func (s *Segment) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.View())
}

// String is used in logs and test failures.
func (s *Segment) String() string {
	if s.kind == Tag {
		return fmt.Sprintf("#%d tag<%s> %q (%s)", s.id, s.tagName, s.Raw(), s.status)
	}
	return fmt.Sprintf("#%d text %q (%s)", s.id, s.Raw(), s.status)
}

func (s *Segment) write(text string) {
	s.raw.WriteString(text)
	s.renderedValid = false
	s.rendered = ""
}
