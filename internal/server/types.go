package server

import "github.com/riverfjs/tagstream-go/internal/segment"

// TagsResponse is the body of GET /api/tags.
type TagsResponse struct {
	Tags []string `json:"tags"`
}

// RenderRequest is the body of POST /api/render.
type RenderRequest struct {
	Markdown string `json:"markdown"`
}

// RenderResponse is the reply of POST /api/render.
type RenderResponse struct {
	HTML string `json:"html"`
}

// SegmentEvent is one line (or SSE event) of the POST /api/segment reply.
// Segments holds only the segments that changed since the previous event.
type SegmentEvent struct {
	MessageID string         `json:"message_id"`
	Segments  []segment.View `json:"segments,omitempty"`
	Done      bool           `json:"done"`
}
