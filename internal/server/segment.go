package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	tagstream "github.com/riverfjs/tagstream-go"
	"github.com/riverfjs/tagstream-go/internal/grammar"
	"github.com/riverfjs/tagstream-go/internal/segment"
	"github.com/riverfjs/tagstream-go/internal/transport"
)

// SegmentHandler segments the request body as it arrives and streams the
// changed segments back. The stream is owned by the producer goroutine; only
// views cross the channel.
func (s *Server) SegmentHandler(c *gin.Context) {
	reg := s.reg
	if tags := c.Query("tags"); tags != "" {
		var err error
		if reg, err = grammar.Parse(tags); err != nil {
			c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
	}

	st, err := tagstream.NewStream(tagstream.WithRegistry(reg), tagstream.WithLogger(s.log))
	if err != nil {
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	ctx := c.Request.Context()
	ch := make(chan any)
	go s.produce(ctx, st, c.Request.Body, ch)

	if strings.Contains(c.GetHeader("Accept"), "text/event-stream") {
		streamEvents(c, ch)
		return
	}
	streamResponse(c, ch)
}

func (s *Server) produce(ctx context.Context, st *tagstream.Stream, body io.Reader, ch chan<- any) {
	defer close(ch)

	send := func(v any) bool {
		select {
		case ch <- v:
			return true
		case <-ctx.Done():
			return false
		}
	}
	event := func(changed []*segment.Segment, done bool) SegmentEvent {
		ev := SegmentEvent{MessageID: st.ID(), Done: done}
		for _, seg := range changed {
			ev.Segments = append(ev.Segments, seg.View())
		}
		return ev
	}

	tr := transport.NewReader(body, 0)
	for {
		chunk, err := tr.Next()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			// the client went away or sent a broken body; fold what we have
			s.log.Warn("segment: read failed", "message_id", st.ID(), "error", err)
			break
		}
		changed, err := st.Append(chunk)
		if err != nil {
			send(gin.H{"error": err.Error()})
			return
		}
		if len(changed) > 0 && !send(event(changed, false)) {
			return
		}
	}

	changed, err := st.Finish()
	if err != nil {
		send(gin.H{"error": err.Error()})
		return
	}
	send(event(changed, true))
}

func streamResponse(c *gin.Context, ch chan any) {
	c.Header("Content-Type", "application/x-ndjson")
	c.Stream(func(w io.Writer) bool {
		val, ok := <-ch
		if !ok {
			return false
		}

		if h, ok := val.(gin.H); ok {
			if e, ok := h["error"].(string); ok {
				if !c.Writer.Written() {
					c.Header("Content-Type", "application/json")
					c.JSON(http.StatusInternalServerError, gin.H{"error": e})
				} else if err := json.NewEncoder(c.Writer).Encode(gin.H{"error": e}); err != nil {
					slog.Error("streamResponse failed to encode json error", "error", err)
				}
				return false
			}
		}

		bts, err := json.Marshal(val)
		if err != nil {
			slog.Info(fmt.Sprintf("streamResponse: json.Marshal failed with %s", err))
			return false
		}

		bts = append(bts, '\n')
		if _, err := w.Write(bts); err != nil {
			slog.Info(fmt.Sprintf("streamResponse: w.Write failed with %s", err))
			return false
		}

		return true
	})
}

func streamEvents(c *gin.Context, ch chan any) {
	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")
	c.Stream(func(w io.Writer) bool {
		val, ok := <-ch
		if !ok {
			return false
		}
		switch v := val.(type) {
		case gin.H:
			c.SSEvent("error", v)
			return false
		case SegmentEvent:
			if v.Done {
				c.SSEvent("done", v)
				return false
			}
			c.SSEvent("segment", v)
		}
		return true
	})
}
