// Package grammar holds the fixed vocabulary of block tags a reply may carry.
//
// A Registry is an immutable value. Callers inject it into the scanner instead
// of reaching for a package-level table, so several grammars can live side by
// side (per request overrides, test fixtures).
package grammar

import (
	"errors"
	"fmt"
	"regexp"
	"strings"

	orderedmap "github.com/wk8/go-ordered-map/v2"
)

var (
	// ErrInvalidName is returned for names that cannot form a delimiter.
	ErrInvalidName = errors.New("grammar: invalid tag name")
	// ErrDuplicateName is returned when a name is registered twice.
	ErrDuplicateName = errors.New("grammar: duplicate tag name")
	// ErrEmpty is returned when no names are given.
	ErrEmpty = errors.New("grammar: no tag names")
)

// DefaultNames 默认注册的标签
var DefaultNames = []string{"prompt", "chart", "image", "chat", "download"}

var namePattern = regexp.MustCompile(`^[A-Za-z][A-Za-z0-9_-]*$`)

// Tag is one registered block tag and its literal delimiters.
type Tag struct {
	Name  string
	Open  string
	Close string
}

// Registry is an ordered, read-only set of tags.
type Registry struct {
	tags *orderedmap.OrderedMap[string, Tag]
	// delims 包含全部开/闭分隔符，用于前缀判断
	delims []string
}

// New builds a registry from names, keeping declaration order.
func New(names ...string) (*Registry, error) {
	if len(names) == 0 {
		return nil, ErrEmpty
	}
	r := &Registry{
		tags:   orderedmap.New[string, Tag](),
		delims: make([]string, 0, len(names)*2),
	}
	for _, name := range names {
		if !namePattern.MatchString(name) {
			return nil, fmt.Errorf("%w: %q", ErrInvalidName, name)
		}
		if _, ok := r.tags.Get(name); ok {
			return nil, fmt.Errorf("%w: %q", ErrDuplicateName, name)
		}
		tag := Tag{
			Name:  name,
			Open:  "<" + name + ">",
			Close: "</" + name + ">",
		}
		r.tags.Set(name, tag)
		r.delims = append(r.delims, tag.Open, tag.Close)
	}
	return r, nil
}

// MustNew is like New but panics on error. Intended for package-level fixtures.
func MustNew(names ...string) *Registry {
	r, err := New(names...)
	if err != nil {
		panic(err)
	}
	return r
}

// Default returns a fresh registry with DefaultNames.
func Default() *Registry {
	return MustNew(DefaultNames...)
}

// Parse splits a comma separated list ("chart, image") into a registry.
func Parse(list string) (*Registry, error) {
	var names []string
	for _, part := range strings.Split(list, ",") {
		if part = strings.TrimSpace(part); part != "" {
			names = append(names, part)
		}
	}
	return New(names...)
}

// Names returns the registered names in declaration order.
func (r *Registry) Names() []string {
	names := make([]string, 0, r.tags.Len())
	for pair := r.tags.Oldest(); pair != nil; pair = pair.Next() {
		names = append(names, pair.Key)
	}
	return names
}

// Len returns the number of registered tags.
func (r *Registry) Len() int {
	return r.tags.Len()
}

// Lookup returns the tag registered under name.
func (r *Registry) Lookup(name string) (Tag, bool) {
	return r.tags.Get(name)
}

// OpenAt reports whether s begins with a complete opening delimiter.
func (r *Registry) OpenAt(s string) (Tag, bool) {
	if len(s) < 3 || s[0] != '<' || s[1] == '/' {
		return Tag{}, false
	}
	end := strings.IndexByte(s, '>')
	if end < 0 {
		return Tag{}, false
	}
	return r.tags.Get(s[1:end])
}

// IsDelimiterPrefix reports whether s is a strict prefix of a registered
// opening or closing delimiter, i.e. more input could still complete it.
func (r *Registry) IsDelimiterPrefix(s string) bool {
	if s == "" {
		return false
	}
	for _, d := range r.delims {
		if len(s) < len(d) && strings.HasPrefix(d, s) {
			return true
		}
	}
	return false
}

// MaxDelimiterLen returns the length of the longest delimiter.
func (r *Registry) MaxDelimiterLen() int {
	n := 0
	for _, d := range r.delims {
		n = max(n, len(d))
	}
	return n
}
