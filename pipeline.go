package tagstream

import (
	"context"
	"errors"
	"io"
	"strings"

	"github.com/riverfjs/tagstream-go/internal/segment"
	"github.com/riverfjs/tagstream-go/internal/transport"
)

// Process 完整管道：io.Reader → 片段 → 可展示的内容列表
//
// 步骤：
//  1. 按 UTF-8 边界分块读取 r，逐块 Append
//  2. 读取结束、出错或 ctx 取消时 Finish，未解析的尾部回落为文本
//  3. 文本片段渲染为 HTML，标签片段交给已注册的 Mounter
//
// 读取错误或 ctx 取消时仍返回已切分的内容与该错误。
func Process(ctx context.Context, r io.Reader, opts ...Option) (*Stream, []Content, error) {
	o := applyOptions(opts...)
	s, err := newStream(o)
	if err != nil {
		return nil, nil, err
	}

	tr := transport.NewReader(r, o.ChunkSize)
	var readErr error
	for {
		if err := ctx.Err(); err != nil {
			readErr = err
			break
		}
		chunk, err := tr.Next()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			readErr = err
			break
		}
		if _, err := s.Append(chunk); err != nil {
			return s, nil, err
		}
	}
	if readErr != nil {
		s.log.Warn("stream ended early", "error", readErr)
	}
	if _, err := s.Finish(); err != nil {
		return s, nil, err
	}
	return s, s.Contents(ctx), readErr
}

// Contents converts the current segments to content values. Whitespace-only
// text between two tags is skipped. Renderer and mounter failures are logged
// and the raw source is kept.
func (s *Stream) Contents(ctx context.Context) []Content {
	result := make([]Content, 0)
	for _, seg := range s.Segments() {
		trace := ContentTrace{SegmentID: seg.ID(), SourceType: seg.Kind().String()}
		switch seg.Kind() {
		case segment.Text:
			if strings.TrimSpace(seg.Raw()) == "" {
				continue
			}
			html, err := s.Render(seg)
			if err != nil {
				s.log.Warn("markdown rendering failed", "id", seg.ID(), "error", err)
			}
			result = append(result, &Markdown{Source: seg.Raw(), HTML: html, ContentTrace: trace})

		case segment.Tag:
			trace.Extra = map[string]interface{}{"status": seg.Status().String()}
			c := &Component{TagName: seg.TagName(), Payload: seg.Raw(), ContentTrace: trace}
			if mount, ok := s.mounters[seg.TagName()]; ok {
				markup, err := mount(ctx, seg.Raw())
				if err != nil {
					s.log.Warn("component mount failed", "id", seg.ID(), "tag", seg.TagName(), "error", err)
				} else {
					c.Markup = markup
				}
			}
			result = append(result, c)
		}
	}
	return result
}
