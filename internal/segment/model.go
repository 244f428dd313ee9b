package segment

import (
	"errors"
	"fmt"
)

// ErrFrozen is returned by mutating calls on a frozen model.
var ErrFrozen = errors.New("segment: model is frozen")

// Model is the ordered segment list of one message. It has exactly one
// writer (the scanner) and is not safe for concurrent use; hand View values
// to other goroutines instead.
type Model struct {
	segments []*Segment
	nextID   uint64
	frozen   bool
}

// NewModel creates an empty model. IDs start at 1.
func NewModel() *Model {
	return &Model{nextID: 1}
}

// Segments returns the current list. The slice is a copy; the segments are
// the live, identity-stable objects.
func (m *Model) Segments() []*Segment {
	out := make([]*Segment, len(m.segments))
	copy(out, m.segments)
	return out
}

// Views snapshots every segment.
func (m *Model) Views() []View {
	out := make([]View, len(m.segments))
	for i, s := range m.segments {
		out[i] = s.View()
	}
	return out
}

// Len returns the number of segments.
func (m *Model) Len() int { return len(m.segments) }

// Last returns the trailing segment or nil.
func (m *Model) Last() *Segment {
	if len(m.segments) == 0 {
		return nil
	}
	return m.segments[len(m.segments)-1]
}

// Frozen reports whether Freeze has been called.
func (m *Model) Frozen() bool { return m.frozen }

// AppendText grows the trailing streaming text segment, or pushes a new one
// when the list is empty or ends with a complete segment. Empty text is a
// no-op and returns nil.
func (m *Model) AppendText(text string) (*Segment, error) {
	if m.frozen {
		return nil, ErrFrozen
	}
	if text == "" {
		return nil, nil
	}
	if last := m.Last(); last != nil && last.kind == Text && last.status == Streaming {
		last.write(text)
		return last, nil
	}
	seg := m.push(Text, "", Streaming)
	seg.write(text)
	return seg, nil
}

// PushTag closes out the trailing text segment and appends a complete tag
// segment. Tags are atomic: their body never changes after this call.
func (m *Model) PushTag(name, body string) (*Segment, error) {
	if m.frozen {
		return nil, ErrFrozen
	}
	m.closeOut()
	seg := m.push(Tag, name, Complete)
	seg.write(body)
	return seg, nil
}

// Freeze marks every segment complete. It may be called once.
func (m *Model) Freeze() error {
	if m.frozen {
		return ErrFrozen
	}
	m.closeOut()
	m.frozen = true
	return nil
}

func (m *Model) closeOut() {
	if last := m.Last(); last != nil {
		last.status = Complete
	}
}

func (m *Model) push(kind Kind, name string, status Status) *Segment {
	seg := &Segment{
		id:      m.nextID,
		kind:    kind,
		tagName: name,
		status:  status,
	}
	m.nextID++
	m.segments = append(m.segments, seg)
	return seg
}

// Mark records enough of the model to tell later what changed.
type Mark struct {
	n          int
	lastRawLen int
	lastStatus Status
}

// Mark captures the current state.
func (m *Model) Mark() Mark {
	mk := Mark{n: len(m.segments)}
	if last := m.Last(); last != nil {
		mk.lastRawLen = last.raw.Len()
		mk.lastStatus = last.status
	}
	return mk
}

// Since returns, in list order, the segments that are new since mk or whose
// content or status changed since mk.
func (m *Model) Since(mk Mark) []*Segment {
	var out []*Segment
	if mk.n > 0 && mk.n <= len(m.segments) {
		prev := m.segments[mk.n-1]
		if prev.raw.Len() != mk.lastRawLen || prev.status != mk.lastStatus {
			out = append(out, prev)
		}
	}
	if mk.n < len(m.segments) {
		out = append(out, m.segments[mk.n:]...)
	}
	return out
}

// Check verifies the model invariants: IDs strictly increase, only the last
// segment may be streaming, streaming segments are text, a frozen model has
// no streaming segment.
func (m *Model) Check() error {
	var prev uint64
	for i, s := range m.segments {
		if s.id <= prev {
			return fmt.Errorf("segment %d: id %d not greater than %d", i, s.id, prev)
		}
		prev = s.id
		if s.status != Streaming {
			continue
		}
		if s.kind != Text {
			return fmt.Errorf("segment %d: streaming %s segment", i, s.kind)
		}
		if i != len(m.segments)-1 {
			return fmt.Errorf("segment %d: streaming segment is not last", i)
		}
		if m.frozen {
			return fmt.Errorf("segment %d: streaming segment in frozen model", i)
		}
	}
	return nil
}
