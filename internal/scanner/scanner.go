// Package scanner feeds streamed chunks through the boundary resolver and
// keeps a segment model up to date. Finish is the finalizer: it folds any
// withheld tail back into text and freezes the model.
package scanner

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/riverfjs/tagstream-go/internal/grammar"
	"github.com/riverfjs/tagstream-go/internal/logutil"
	"github.com/riverfjs/tagstream-go/internal/resolver"
	"github.com/riverfjs/tagstream-go/internal/segment"
)

// ErrInvalidState is returned by Append after Finish and by a second Finish.
var ErrInvalidState = errors.New("invalid state")

// State of a scanner.
type State int

const (
	StateEmpty State = iota
	StateStreaming
	StateFinished
)

func (s State) String() string {
	switch s {
	case StateEmpty:
		return "Empty"
	case StateStreaming:
		return "Streaming"
	case StateFinished:
		return "Finished"
	default:
		return "Unknown"
	}
}

// Scanner owns the unresolved tail of one message.
type Scanner struct {
	reg   *grammar.Registry
	model *segment.Model
	log   *slog.Logger

	state   State
	pending string
	// hint 是已打开标签的闭合搜索起点，pending 起点变化时清零
	hint int
}

// Option configures a Scanner.
type Option func(*Scanner)

// WithLogger sets the logger. Decisions are logged at trace level.
func WithLogger(l *slog.Logger) Option {
	return func(s *Scanner) {
		if l != nil {
			s.log = l
		}
	}
}

// WithModel makes the scanner write into m instead of a fresh model.
func WithModel(m *segment.Model) Option {
	return func(s *Scanner) {
		if m != nil {
			s.model = m
		}
	}
}

// New creates a scanner for reg. A nil registry means grammar.Default().
func New(reg *grammar.Registry, opts ...Option) *Scanner {
	if reg == nil {
		reg = grammar.Default()
	}
	s := &Scanner{
		reg:   reg,
		model: segment.NewModel(),
		log:   logutil.Discard(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Model returns the segment model the scanner writes to.
func (s *Scanner) Model() *segment.Model { return s.model }

// Registry returns the grammar in use.
func (s *Scanner) Registry() *grammar.Registry { return s.reg }

// State returns the lifecycle state.
func (s *Scanner) State() State { return s.state }

// Pending returns the withheld tail that belongs to no segment yet.
func (s *Scanner) Pending() string { return s.pending }

// Append consumes chunk and returns the segments that are new or changed, in
// list order. Text that could still turn into a delimiter is withheld.
func (s *Scanner) Append(chunk string) ([]*segment.Segment, error) {
	if s.state == StateFinished {
		return nil, fmt.Errorf("append: %w: stream already finished", ErrInvalidState)
	}
	if chunk == "" {
		return nil, nil
	}
	s.state = StateStreaming

	mark := s.model.Mark()
	s.pending += chunk
	for s.pending != "" {
		if !s.eat() {
			break
		}
	}
	return s.model.Since(mark), nil
}

// eat applies one resolver decision. It returns false once the rest of the
// tail has to wait for more input.
func (s *Scanner) eat() bool {
	d := resolver.Classify(s.pending, s.reg, s.hint)
	s.log.Log(context.TODO(), logutil.LevelTrace, "resolver decision", "kind", d.Kind, "end", d.End, "pending", len(s.pending))

	switch d.Kind {
	case resolver.Literal:
		if _, err := s.model.AppendText(s.pending[:d.End]); err != nil {
			// unreachable while state != StateFinished
			panic(err)
		}
		s.consume(d.End)
		return true

	case resolver.CompleteTag:
		seg, err := s.model.PushTag(d.Tag.Name, d.Body)
		if err != nil {
			panic(err)
		}
		s.log.Log(context.TODO(), logutil.LevelTrace, "tag segment emitted", "id", seg.ID(), "tag", d.Tag.Name, "bytes", len(d.Body))
		s.consume(d.End)
		return true

	case resolver.Ambiguous:
		s.hint = d.Resume
		return false

	default:
		panic("unreachable")
	}
}

func (s *Scanner) consume(n int) {
	s.pending = s.pending[n:]
	s.hint = 0
}

// Finish resolves the withheld tail as literal text and marks every segment
// complete. It is legal once, from Empty or Streaming.
func (s *Scanner) Finish() ([]*segment.Segment, error) {
	if s.state == StateFinished {
		return nil, fmt.Errorf("finish: %w: stream already finished", ErrInvalidState)
	}
	mark := s.model.Mark()
	if s.pending != "" {
		s.log.Debug("unresolved tail folded into text", "bytes", len(s.pending))
		if _, err := s.model.AppendText(s.pending); err != nil {
			return nil, fmt.Errorf("finish: %w", err)
		}
		s.consume(len(s.pending))
	}
	if err := s.model.Freeze(); err != nil {
		return nil, fmt.Errorf("finish: %w", err)
	}
	s.state = StateFinished
	return s.model.Since(mark), nil
}
