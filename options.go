package tagstream

import (
	"context"
	"log/slog"

	"github.com/riverfjs/tagstream-go/internal/grammar"
	"github.com/riverfjs/tagstream-go/internal/render"
)

// Mounter turns the payload of a tag segment into host markup for the
// component placeholder. Payloads are opaque to this package.
type Mounter func(ctx context.Context, payload string) (string, error)

// UpdateHook is called after every Append or Finish that changed segments.
type UpdateHook func(s *Stream, changed []*Segment)

// Options holds options for streams and pipelines.
type Options struct {
	Registry   *Registry
	Renderer   Renderer
	UnsafeHTML bool
	Logger     *slog.Logger
	Mounters   map[string]Mounter
	OnUpdate   UpdateHook
	ChunkSize  int

	err error
}

// Option is a function that configures Options.
type Option func(*Options)

// WithRegistry sets the tag grammar.
func WithRegistry(reg *Registry) Option {
	return func(opts *Options) {
		if reg != nil {
			opts.Registry = reg
		}
	}
}

// WithTags replaces the tag grammar with the given names. Invalid names make
// NewStream fail.
func WithTags(names ...string) Option {
	return func(opts *Options) {
		reg, err := grammar.New(names...)
		if err != nil {
			opts.err = err
			return
		}
		opts.Registry = reg
	}
}

// WithRenderer sets a custom Markdown renderer.
func WithRenderer(r Renderer) Option {
	return func(opts *Options) {
		if r != nil {
			opts.Renderer = r
		}
	}
}

// WithUnsafeHTML keeps raw HTML found in Markdown text. Ignored when a custom
// renderer is set.
func WithUnsafeHTML(enable bool) Option {
	return func(opts *Options) {
		opts.UnsafeHTML = enable
	}
}

// WithLogger sets the logger; the package Logger is used otherwise.
func WithLogger(l *slog.Logger) Option {
	return func(opts *Options) {
		opts.Logger = l
	}
}

// WithMounter registers the component mounter for tagName.
func WithMounter(tagName string, m Mounter) Option {
	return func(opts *Options) {
		if opts.Mounters == nil {
			opts.Mounters = make(map[string]Mounter)
		}
		opts.Mounters[tagName] = m
	}
}

// WithUpdateHook sets a callback invoked after each change.
func WithUpdateHook(h UpdateHook) Option {
	return func(opts *Options) {
		opts.OnUpdate = h
	}
}

// WithChunkSize sets the transport read size used by Process.
func WithChunkSize(n int) Option {
	return func(opts *Options) {
		opts.ChunkSize = n
	}
}

// defaultOptions returns the default options.
func defaultOptions() *Options {
	cfg := DefaultConfig()
	return &Options{
		Registry: cfg.Registry,
	}
}

// applyOptions applies the given options to the default options.
func applyOptions(opts ...Option) *Options {
	options := defaultOptions()
	for _, opt := range opts {
		if opt != nil {
			opt(options)
		}
	}
	if options.Renderer == nil {
		if options.UnsafeHTML {
			options.Renderer = render.New(render.WithUnsafeHTML(true))
		} else {
			options.Renderer = DefaultConfig().Renderer
		}
	}
	if options.Logger == nil {
		options.Logger = Logger
	}
	return options
}
