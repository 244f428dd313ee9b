package tagstream

// RenderMarkdown 将 Markdown 转换为 HTML 片段
//
// 与文本片段使用同一个渲染器，WithUnsafeHTML() 与 WithRenderer() 生效。
func RenderMarkdown(markdown string, opts ...Option) (string, error) {
	return applyOptions(opts...).Renderer.Render(markdown)
}
