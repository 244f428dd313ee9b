package tagstream

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/google/uuid"

	"github.com/riverfjs/tagstream-go/internal/buffer"
	"github.com/riverfjs/tagstream-go/internal/reference"
	"github.com/riverfjs/tagstream-go/internal/scanner"
)

// ErrInvalidState is returned by Append after Finish and by a second Finish.
var ErrInvalidState = scanner.ErrInvalidState

// ErrMismatch is returned by Verify when the segments do not account for the
// received text.
var ErrMismatch = errors.New("segments do not match received text")

// Stream 一条消息的流式切分器
//
// 每条回复一个 Stream。Append/Finish 由单个生产者调用；Views 可在其他
// goroutine 中调用以获取快照。
type Stream struct {
	mu sync.Mutex

	id       string
	buf      *buffer.Buffer
	scan     *scanner.Scanner
	renderer Renderer
	mounters map[string]Mounter
	onUpdate UpdateHook
	log      *slog.Logger
}

// NewStream creates a stream for one message.
func NewStream(opts ...Option) (*Stream, error) {
	return newStream(applyOptions(opts...))
}

func newStream(o *Options) (*Stream, error) {
	if o.err != nil {
		return nil, fmt.Errorf("tagstream: %w", o.err)
	}
	id := uuid.NewString()
	log := o.Logger.With("message_id", id)
	return &Stream{
		id:       id,
		buf:      buffer.New(),
		scan:     scanner.New(o.Registry, scanner.WithLogger(log)),
		renderer: o.Renderer,
		mounters: o.Mounters,
		onUpdate: o.OnUpdate,
		log:      log,
	}, nil
}

// ID returns the message identifier.
func (s *Stream) ID() string { return s.id }

// Registry returns the tag grammar of the stream.
func (s *Stream) Registry() *Registry { return s.scan.Registry() }

// Append feeds the next chunk. It returns the segments that are new or whose
// content or status changed, in list order.
func (s *Stream) Append(chunk string) ([]*Segment, error) {
	s.mu.Lock()
	changed, err := s.scan.Append(chunk)
	if err == nil {
		s.buf.Write(chunk)
	}
	s.mu.Unlock()
	if err != nil {
		return nil, err
	}
	s.notify(changed)
	return changed, nil
}

// Finish ends the message. Any withheld tail becomes literal text and every
// segment is marked complete.
func (s *Stream) Finish() ([]*Segment, error) {
	s.mu.Lock()
	changed, err := s.scan.Finish()
	s.mu.Unlock()
	if err != nil {
		return nil, err
	}
	s.log.Debug("stream finished", "segments", s.scan.Model().Len(), "bytes", s.buf.Len(), "chunks", s.buf.Chunks())
	s.notify(changed)
	return changed, nil
}

func (s *Stream) notify(changed []*Segment) {
	if s.onUpdate != nil && len(changed) > 0 {
		s.onUpdate(s, changed)
	}
}

// Segments returns the live segment list.
func (s *Stream) Segments() []*Segment {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.scan.Model().Segments()
}

// Views snapshots every segment. Safe to call from any goroutine.
func (s *Stream) Views() []View {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.scan.Model().Views()
}

// Pending returns the withheld tail that belongs to no segment yet.
func (s *Stream) Pending() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.scan.Pending()
}

// State returns the lifecycle state.
func (s *Stream) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.scan.State()
}

// Raw returns everything received so far.
func (s *Stream) Raw() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.buf.String()
}

// Render returns the HTML of a text segment. The result is cached until the
// segment grows. Tag segments render to "".
func (s *Stream) Render(seg *Segment) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return seg.Rendered(s.renderer.Render)
}

// Verify checks the segment list against everything received: invariants
// hold, segments plus the pending tail reproduce the raw text, and once
// finished a full reparse yields the same segments.
func (s *Stream) Verify() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	model := s.scan.Model()
	if err := model.Check(); err != nil {
		return fmt.Errorf("%w: %w", ErrMismatch, err)
	}
	var sb strings.Builder
	for _, seg := range model.Segments() {
		sb.WriteString(seg.Delimited())
	}
	sb.WriteString(s.scan.Pending())
	if got := sb.String(); got != s.buf.String() {
		return fmt.Errorf("%w: reassembled %d bytes, received %d", ErrMismatch, len(got), s.buf.Len())
	}
	if s.scan.State() != scanner.StateFinished {
		return nil
	}
	want, err := reference.Parse(s.buf.String(), s.scan.Registry())
	if err != nil {
		return err
	}
	if diff := cmp.Diff(want, reference.FromViews(model.Views()), cmpopts.EquateEmpty()); diff != "" {
		return fmt.Errorf("%w: reparse differs (-reparse +stream):\n%s", ErrMismatch, diff)
	}
	return nil
}
