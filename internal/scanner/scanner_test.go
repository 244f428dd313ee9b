package scanner

import (
	"errors"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"

	"github.com/riverfjs/tagstream-go/internal/grammar"
	"github.com/riverfjs/tagstream-go/internal/reference"
	"github.com/riverfjs/tagstream-go/internal/segment"
)

func text(id uint64, raw string) segment.View {
	return segment.View{ID: id, Kind: segment.Text, Raw: raw, Status: segment.Complete}
}

func tag(id uint64, name, raw string) segment.View {
	return segment.View{ID: id, Kind: segment.Tag, TagName: name, Raw: raw, Status: segment.Complete}
}

// run feeds chunks, finishes, and returns the final views.
func run(t *testing.T, reg *grammar.Registry, chunks ...string) []segment.View {
	t.Helper()
	s := New(reg)
	for _, c := range chunks {
		if _, err := s.Append(c); err != nil {
			t.Fatalf("Append(%q): %v", c, err)
		}
		if err := s.Model().Check(); err != nil {
			t.Fatalf("after Append(%q): %v", c, err)
		}
	}
	if _, err := s.Finish(); err != nil {
		t.Fatalf("Finish: %v", err)
	}
	if err := s.Model().Check(); err != nil {
		t.Fatalf("after Finish: %v", err)
	}
	return s.Model().Views()
}

var corpus = []string{
	"",
	"plain text without tags",
	"Hello <chart>{\"a\":1}</chart> world",
	"<chart>{incomplete",
	"price < 5 and > 3",
	"a <foo>x</foo> b",
	"stray </chart> close",
	"<chart>1</chart><image>2</image>",
	"<chart>a<image>b</image>c</chart>",
	"<chart>a<chart>b</chart>c</chart>",
	"你好<chart>数据</chart>再见",
	"<chart></chart>",
	"x <cha",
	"<chat>hi</chat> and <chart>{}</chart>",
	"<<chart>>1</chart>>",
	"text\n\n<prompt>[\"a\",\"b\"]</prompt>\n\nmore <download>{\"u\":1}",
	"<image>half</imag",
	"a < b <c <chart>ok</chart> </",
}

// TestScannerExamples 测试典型输入的最终片段
func TestScannerExamples(t *testing.T) {
	tests := []struct {
		name   string
		chunks []string
		want   []segment.View
	}{
		{
			name:   "opening delimiter split across chunks",
			chunks: []string{"Hello <cha", "rt>{\"a\":1}</chart> world"},
			want:   []segment.View{text(1, "Hello "), tag(2, "chart", `{"a":1}`), text(3, " world")},
		},
		{
			name:   "unclosed tag falls back to text",
			chunks: []string{"<chart>{incomplete"},
			want:   []segment.View{text(1, "<chart>{incomplete")},
		},
		{
			name:   "comparison operators",
			chunks: []string{"price < 5 and > 3"},
			want:   []segment.View{text(1, "price < 5 and > 3")},
		},
		{
			name:   "unknown tag is text",
			chunks: []string{"a <foo>x</foo> b"},
			want:   []segment.View{text(1, "a <foo>x</foo> b")},
		},
		{
			name:   "stray closing delimiter is text",
			chunks: []string{"stray </chart> close"},
			want:   []segment.View{text(1, "stray </chart> close")},
		},
		{
			name:   "adjacent tags",
			chunks: []string{"<chart>1</chart><image>2</image>"},
			want:   []segment.View{tag(1, "chart", "1"), tag(2, "image", "2")},
		},
		{
			name:   "other tag inside body is payload",
			chunks: []string{"<chart>a<image>b</image>c</chart>"},
			want:   []segment.View{tag(1, "chart", "a<image>b</image>c")},
		},
		{
			name:   "first close wins",
			chunks: []string{"<chart>a<chart>b</chart>c</chart>"},
			want:   []segment.View{tag(1, "chart", "a<chart>b"), text(2, "c</chart>")},
		},
		{
			name:   "multibyte text",
			chunks: []string{"你好<cha", "rt>数", "据</chart>再见"},
			want:   []segment.View{text(1, "你好"), tag(2, "chart", "数据"), text(3, "再见")},
		},
		{
			name:   "empty body",
			chunks: []string{"<chart></chart>"},
			want:   []segment.View{tag(1, "chart", "")},
		},
		{
			name:   "closing delimiter split byte by byte",
			chunks: []string{"<image>x<", "/", "i", "m", "a", "g", "e", ">", "!"},
			want:   []segment.View{tag(1, "image", "x"), text(2, "!")},
		},
		{
			name:   "partial delimiter at end of stream",
			chunks: []string{"x <cha"},
			want:   []segment.View{text(1, "x <cha")},
		},
		{
			name:   "empty stream",
			chunks: nil,
			want:   []segment.View{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := run(t, nil, tt.chunks...)
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("segments mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

// TestScannerChangedSegments 测试 Append 返回的变化片段
func TestScannerChangedSegments(t *testing.T) {
	s := New(nil)

	changed, err := s.Append("Hello <cha")
	if err != nil {
		t.Fatal(err)
	}
	if len(changed) != 1 || changed[0].Raw() != "Hello " || changed[0].Status() != segment.Streaming {
		t.Fatalf("first append changed = %v", changed)
	}
	if s.Pending() != "<cha" {
		t.Errorf("Pending() = %q, want %q", s.Pending(), "<cha")
	}
	first := changed[0]

	changed, err = s.Append("rt>{\"a\":1}</chart> world")
	if err != nil {
		t.Fatal(err)
	}
	var ids []uint64
	for _, seg := range changed {
		ids = append(ids, seg.ID())
	}
	if diff := cmp.Diff([]uint64{1, 2, 3}, ids); diff != "" {
		t.Errorf("changed ids (-want +got):\n%s", diff)
	}
	if changed[0] != first {
		t.Error("text segment was replaced instead of updated in place")
	}
	if first.Status() != segment.Complete {
		t.Errorf("text before tag status = %s, want complete", first.Status())
	}
	if changed[2].Status() != segment.Streaming {
		t.Errorf("trailing text status = %s, want streaming", changed[2].Status())
	}

	changed, err = s.Finish()
	if err != nil {
		t.Fatal(err)
	}
	if len(changed) != 1 || changed[0].ID() != 3 || changed[0].Status() != segment.Complete {
		t.Errorf("finish changed = %v", changed)
	}
}

// TestScannerNoAmbiguityWithoutDelimiter 测试不可能成为分隔符的 '<' 不会被暂存
func TestScannerNoAmbiguityWithoutDelimiter(t *testing.T) {
	s := New(nil)
	if _, err := s.Append("price < 5 and > 3"); err != nil {
		t.Fatal(err)
	}
	if s.Pending() != "" {
		t.Errorf("Pending() = %q, want empty", s.Pending())
	}
	last := s.Model().Last()
	if last == nil || last.Raw() != "price < 5 and > 3" || last.Status() != segment.Streaming {
		t.Errorf("last = %v", last)
	}
}

// TestScannerUnclosedTagWithheld 测试未闭合标签在结束前不产生片段
func TestScannerUnclosedTagWithheld(t *testing.T) {
	s := New(nil)
	changed, err := s.Append("<chart>{incomplete")
	if err != nil {
		t.Fatal(err)
	}
	if len(changed) != 0 || s.Model().Len() != 0 {
		t.Fatalf("changed = %v, want nothing before finish", changed)
	}
	changed, err = s.Finish()
	if err != nil {
		t.Fatal(err)
	}
	if len(changed) != 1 || changed[0].Kind() != segment.Text || changed[0].Raw() != "<chart>{incomplete" {
		t.Errorf("finish changed = %v", changed)
	}
}

// TestScannerStateMachine 测试生命周期与非法调用
func TestScannerStateMachine(t *testing.T) {
	s := New(nil)
	if s.State() != StateEmpty {
		t.Fatalf("State() = %s, want Empty", s.State())
	}

	changed, err := s.Append("")
	if err != nil || changed != nil {
		t.Errorf("Append(\"\") = %v, %v; want nil, nil", changed, err)
	}
	if s.State() != StateEmpty {
		t.Errorf("empty chunk moved state to %s", s.State())
	}

	if _, err := s.Append("hi"); err != nil {
		t.Fatal(err)
	}
	if s.State() != StateStreaming {
		t.Errorf("State() = %s, want Streaming", s.State())
	}

	if _, err := s.Finish(); err != nil {
		t.Fatal(err)
	}
	if s.State() != StateFinished {
		t.Errorf("State() = %s, want Finished", s.State())
	}

	if _, err := s.Finish(); !errors.Is(err, ErrInvalidState) {
		t.Errorf("second Finish error = %v, want ErrInvalidState", err)
	}
	if _, err := s.Append("more"); !errors.Is(err, ErrInvalidState) {
		t.Errorf("Append after Finish error = %v, want ErrInvalidState", err)
	}
	if got := s.Model().Views(); len(got) != 1 || got[0].Raw != "hi" {
		t.Errorf("failed calls changed the model: %v", got)
	}
}

// TestScannerFinishEmpty 测试空流直接结束
func TestScannerFinishEmpty(t *testing.T) {
	s := New(nil)
	changed, err := s.Finish()
	if err != nil {
		t.Fatal(err)
	}
	if len(changed) != 0 || s.Model().Len() != 0 {
		t.Errorf("changed = %v", changed)
	}
	if !s.Model().Frozen() {
		t.Error("model not frozen")
	}
}

// TestScannerChunkSplitInvariance 测试任意 1-3 块切分结果一致
func TestScannerChunkSplitInvariance(t *testing.T) {
	for _, input := range corpus {
		want := run(t, nil, input)
		for i := 0; i <= len(input); i++ {
			for j := i; j <= len(input); j++ {
				got := run(t, nil, input[:i], input[i:j], input[j:])
				if diff := cmp.Diff(want, got); diff != "" {
					t.Fatalf("input %q split at %d,%d (-whole +split):\n%s", input, i, j, diff)
				}
			}
		}
	}
}

// TestScannerNoLoss 测试片段与暂存尾部拼接后等于已接收文本
func TestScannerNoLoss(t *testing.T) {
	for _, input := range corpus {
		s := New(nil)
		var received strings.Builder
		for i := 0; i < len(input); i += 3 {
			chunk := input[i:min(i+3, len(input))]
			if _, err := s.Append(chunk); err != nil {
				t.Fatal(err)
			}
			received.WriteString(chunk)
			if got := reassemble(s); got != received.String() {
				t.Fatalf("input %q after %d bytes: reassembled %q", input, received.Len(), got)
			}
		}
		if _, err := s.Finish(); err != nil {
			t.Fatal(err)
		}
		if s.Pending() != "" {
			t.Errorf("input %q: pending %q after finish", input, s.Pending())
		}
		if got := reassemble(s); got != input {
			t.Errorf("input %q: reassembled %q after finish", input, got)
		}
	}
}

func reassemble(s *Scanner) string {
	var sb strings.Builder
	for _, seg := range s.Model().Segments() {
		sb.WriteString(seg.Delimited())
	}
	sb.WriteString(s.Pending())
	return sb.String()
}

// TestScannerMonotonic 测试已完成片段不再变化，ID 只增不减
func TestScannerMonotonic(t *testing.T) {
	input := "intro <chart>{\"x\":[1,2]}</chart> mid <cha <image>i</image> tail <prompt>p"
	s := New(nil)
	frozen := map[uint64]segment.View{}
	var lastID uint64

	check := func(changed []*segment.Segment) {
		t.Helper()
		for _, seg := range changed {
			if old, ok := frozen[seg.ID()]; ok {
				t.Fatalf("complete segment %d changed: %v -> %v", seg.ID(), old, seg.View())
			}
		}
		for _, seg := range s.Model().Segments() {
			if seg.ID() > lastID {
				lastID = seg.ID()
			}
			if seg.Status() == segment.Complete {
				if old, ok := frozen[seg.ID()]; ok && old != seg.View() {
					t.Fatalf("complete segment %d changed: %v -> %v", seg.ID(), old, seg.View())
				}
				frozen[seg.ID()] = seg.View()
			}
		}
		if err := s.Model().Check(); err != nil {
			t.Fatal(err)
		}
	}

	for i := 0; i < len(input); i++ {
		changed, err := s.Append(input[i : i+1])
		if err != nil {
			t.Fatal(err)
		}
		check(changed)
	}
	changed, err := s.Finish()
	if err != nil {
		t.Fatal(err)
	}
	check(changed)
	if lastID != uint64(s.Model().Len()) {
		t.Errorf("last id %d with %d segments", lastID, s.Model().Len())
	}
}

// TestScannerAgreesWithReference 测试与整段重解析结果一致
func TestScannerAgreesWithReference(t *testing.T) {
	reg := grammar.Default()
	for _, input := range corpus {
		want, err := reference.Parse(input, reg)
		if err != nil {
			t.Fatal(err)
		}
		for size := 1; size <= 8; size++ {
			var chunks []string
			for i := 0; i < len(input); i += size {
				chunks = append(chunks, input[i:min(i+size, len(input))])
			}
			got := reference.FromViews(run(t, reg, chunks...))
			if diff := cmp.Diff(want, got, cmpopts.EquateEmpty()); diff != "" {
				t.Errorf("input %q chunk size %d (-reference +scanner):\n%s", input, size, diff)
			}
		}
	}
}

// TestScannerLongBody 测试逐字节输入的长标签体
func TestScannerLongBody(t *testing.T) {
	body := strings.Repeat(`{"k":"<chart"},`, 500)
	input := "<chart>" + body + "</chart>"
	s := New(nil)
	for i := 0; i < len(input); i++ {
		if _, err := s.Append(input[i : i+1]); err != nil {
			t.Fatal(err)
		}
	}
	if _, err := s.Finish(); err != nil {
		t.Fatal(err)
	}
	want := []segment.View{tag(1, "chart", body)}
	if diff := cmp.Diff(want, s.Model().Views()); diff != "" {
		t.Errorf("(-want +got):\n%s", diff)
	}
}

// TestScannerCustomRegistry 测试自定义标签表
func TestScannerCustomRegistry(t *testing.T) {
	reg := grammar.MustNew("quiz")
	got := run(t, reg, "<chart>x</chart><qu", "iz>q</quiz>")
	want := []segment.View{text(1, "<chart>x</chart>"), tag(2, "quiz", "q")}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("(-want +got):\n%s", diff)
	}
}

// TestScannerWithModel 测试写入外部提供的模型
func TestScannerWithModel(t *testing.T) {
	m := segment.NewModel()
	s := New(nil, WithModel(m))
	if s.Model() != m {
		t.Fatal("WithModel ignored")
	}
	if _, err := s.Append("<chat>hi</chat>"); err != nil {
		t.Fatal(err)
	}
	if m.Len() != 1 || m.Last().TagName() != "chat" {
		t.Errorf("model = %v", m.Views())
	}
	if s.Registry().Len() != len(grammar.DefaultNames) {
		t.Errorf("Registry() = %v", s.Registry().Names())
	}
}
