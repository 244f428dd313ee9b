package render

import (
	"strings"
	"testing"
)

// TestRender 测试常见 Markdown 渲染
func TestRender(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		contains []string
		excludes []string
	}{
		{
			name:     "emphasis",
			input:    "**bold** and *italic*",
			contains: []string{"<strong>bold</strong>", "<em>italic</em>"},
		},
		{
			name:     "heading with id",
			input:    "# Sales Report",
			contains: []string{`<h1 id="sales-report">Sales Report</h1>`},
		},
		{
			name:     "gfm table",
			input:    "| a | b |\n|---|---|\n| 1 | 2 |",
			contains: []string{"<table>", "<td>1</td>"},
		},
		{
			name:     "strikethrough",
			input:    "~~old~~",
			contains: []string{"<del>old</del>"},
		},
		{
			name:     "raw html omitted by default",
			input:    "<script>alert(1)</script>",
			excludes: []string{"<script>"},
		},
		{
			name:     "comparison is escaped",
			input:    "price < 5 and > 3",
			contains: []string{"price &lt; 5 and &gt; 3"},
		},
	}

	r := New()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := r.Render(tt.input)
			if err != nil {
				t.Fatalf("Render() error = %v", err)
			}
			for _, want := range tt.contains {
				if !strings.Contains(got, want) {
					t.Errorf("Render(%q) = %q, missing %q", tt.input, got, want)
				}
			}
			for _, bad := range tt.excludes {
				if strings.Contains(got, bad) {
					t.Errorf("Render(%q) = %q, should not contain %q", tt.input, got, bad)
				}
			}
		})
	}
}

// TestRenderOptions 测试 UnsafeHTML 与 HardWraps
func TestRenderOptions(t *testing.T) {
	got, err := New(WithUnsafeHTML(true)).Render("<b>raw</b>")
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(got, "<b>raw</b>") {
		t.Errorf("unsafe render = %q", got)
	}

	got, err = New(WithHardWraps(true)).Render("line one\nline two")
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(got, "<br") {
		t.Errorf("hard wrap render = %q", got)
	}
}

// TestHasBlock 测试空白文本判断
func TestHasBlock(t *testing.T) {
	r := New()
	if r.HasBlock("\n\n  \n") {
		t.Error("blank text reported a block")
	}
	if !r.HasBlock("hello") {
		t.Error("paragraph not detected")
	}
}
