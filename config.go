package tagstream

import (
	"sync"

	"github.com/riverfjs/tagstream-go/internal/grammar"
	"github.com/riverfjs/tagstream-go/internal/render"
	"github.com/riverfjs/tagstream-go/internal/scanner"
	"github.com/riverfjs/tagstream-go/internal/segment"
)

// 导出类型别名
type (
	Registry = grammar.Registry
	Tag      = grammar.Tag
	Kind     = segment.Kind
	Status   = segment.Status
	View     = segment.View
	State    = scanner.State
)

// Segment 是 UI 绑定的片段；字段只读，由 Stream 负责更新
type Segment = segment.Segment

const (
	KindText = segment.Text
	KindTag  = segment.Tag

	StatusStreaming = segment.Streaming
	StatusComplete  = segment.Complete

	StateEmpty     = scanner.StateEmpty
	StateStreaming = scanner.StateStreaming
	StateFinished  = scanner.StateFinished
)

// DefaultTags 默认注册的标签名
var DefaultTags = grammar.DefaultNames

// NewRegistry builds a tag registry from names.
func NewRegistry(names ...string) (*Registry, error) {
	return grammar.New(names...)
}

// Renderer converts the Markdown source of a text segment to HTML.
type Renderer interface {
	Render(markdown string) (string, error)
}

// Config 默认配置：标签表与 Markdown 渲染器
type Config struct {
	Registry *Registry
	Renderer Renderer
}

var (
	defaultConfig     *Config
	defaultConfigOnce sync.Once
)

// DefaultConfig returns the default configuration (singleton). Both fields
// are immutable or safe for concurrent use, so sharing them across streams is
// fine.
func DefaultConfig() *Config {
	defaultConfigOnce.Do(func() {
		defaultConfig = &Config{
			Registry: grammar.Default(),
			Renderer: render.New(),
		}
	})
	return defaultConfig
}
