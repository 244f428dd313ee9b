// Package render is the Markdown to HTML bridge used for text segments.
package render

import (
	"bytes"
	"fmt"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/parser"
	"github.com/yuin/goldmark/renderer"
	"github.com/yuin/goldmark/renderer/html"
	"github.com/yuin/goldmark/text"
)

// StandardOptions goldmark 扩展配置
var StandardOptions = []goldmark.Option{
	goldmark.WithExtensions(
		extension.GFM,            // GitHub Flavored Markdown (tables, strikethrough, tasklists)
		extension.DefinitionList, // 定义列表
		extension.Footnote,       // 脚注
	),
	goldmark.WithParserOptions(
		parser.WithAutoHeadingID(), // 自动生成标题 ID
	),
}

// Config 渲染配置
type Config struct {
	// UnsafeHTML 保留原始 HTML；默认由 goldmark 省略
	UnsafeHTML bool
	// HardWraps 将软换行渲染为 <br>，聊天气泡中更符合直觉
	HardWraps bool
}

// Option configures a Markdown renderer.
type Option func(*Config)

// WithUnsafeHTML passes raw HTML in the source through to the output.
func WithUnsafeHTML(enable bool) Option {
	return func(c *Config) {
		c.UnsafeHTML = enable
	}
}

// WithHardWraps renders soft line breaks as <br>.
func WithHardWraps(enable bool) Option {
	return func(c *Config) {
		c.HardWraps = enable
	}
}

// Markdown renders Markdown source to HTML. It keeps no per-call state and is
// safe for concurrent use.
type Markdown struct {
	md goldmark.Markdown
}

// New builds a renderer from StandardOptions plus opts.
func New(opts ...Option) *Markdown {
	cfg := Config{}
	for _, opt := range opts {
		opt(&cfg)
	}
	var htmlOpts []goldmark.Option
	var rendererOpts []renderer.Option
	if cfg.UnsafeHTML {
		rendererOpts = append(rendererOpts, html.WithUnsafe())
	}
	if cfg.HardWraps {
		rendererOpts = append(rendererOpts, html.WithHardWraps())
	}
	if len(rendererOpts) > 0 {
		htmlOpts = append(htmlOpts, goldmark.WithRendererOptions(rendererOpts...))
	}
	return &Markdown{md: goldmark.New(append(append([]goldmark.Option{}, StandardOptions...), htmlOpts...)...)}
}

// Render converts markdown to an HTML fragment.
func (m *Markdown) Render(markdown string) (string, error) {
	var buf bytes.Buffer
	if err := m.md.Convert([]byte(markdown), &buf); err != nil {
		return "", fmt.Errorf("render: %w", err)
	}
	return buf.String(), nil
}

// ParseAST 仅解析为 AST，不渲染
func (m *Markdown) ParseAST(markdown string) ast.Node {
	return m.md.Parser().Parse(text.NewReader([]byte(markdown)))
}

// HasBlock reports whether markdown parses into at least one block other than
// blank space. Hosts use it to skip empty bubbles between two tags.
func (m *Markdown) HasBlock(markdown string) bool {
	return m.ParseAST(markdown).HasChildren()
}
