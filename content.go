package tagstream

// ContentType represents the type of content.
type ContentType int

const (
	// ContentTypeMarkdown represents rendered Markdown text.
	ContentTypeMarkdown ContentType = iota
	// ContentTypeComponent represents a block tag handed to a component.
	ContentTypeComponent
)

// String returns the string representation of ContentType.
func (ct ContentType) String() string {
	switch ct {
	case ContentTypeMarkdown:
		return "markdown"
	case ContentTypeComponent:
		return "component"
	default:
		return "unknown"
	}
}

// ContentTrace tracks the source and metadata of content.
type ContentTrace struct {
	SegmentID  uint64
	SourceType string
	Extra      map[string]interface{}
}

// Content represents a piece of content ready to be placed in a chat bubble.
type Content interface {
	GetContentType() ContentType
	GetContentTrace() ContentTrace
}

// Markdown represents a text segment.
type Markdown struct {
	Source       string
	HTML         string
	ContentTrace ContentTrace
}

// GetContentType returns ContentTypeMarkdown.
func (m *Markdown) GetContentType() ContentType {
	return ContentTypeMarkdown
}

// GetContentTrace returns the content trace.
func (m *Markdown) GetContentTrace() ContentTrace {
	return m.ContentTrace
}

// Component represents a tag segment. Payload is the tag body unchanged;
// Markup is set when a Mounter is registered for the tag.
type Component struct {
	TagName      string
	Payload      string
	Markup       string
	ContentTrace ContentTrace
}

// GetContentType returns ContentTypeComponent.
func (c *Component) GetContentType() ContentType {
	return ContentTypeComponent
}

// GetContentTrace returns the content trace.
func (c *Component) GetContentTrace() ContentTrace {
	return c.ContentTrace
}
