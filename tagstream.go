// Package tagstream 将 LLM 流式回复切分为可渲染的片段
//
// 回复由普通 Markdown 与一小组固定的块标签（chart、image、prompt 等）混合组成，
// 标签体是交给专用组件的不透明负载（通常是 JSON）。本包逐块接收文本，
// 维护一个有序、引用稳定的片段列表，UI 按片段 ID 绑定。
//
// 核心保证：
//   - 分隔符被拆分在两个网络块之间时仍能正确识别
//   - 已完成的片段不再变化，只有末尾文本片段会增长
//   - 流在标签中途结束时，未解析的尾部按原样回落为文本，不丢任何字符
//
// 主要 API：
//   - NewStream(): 每条消息一个 Stream，Append() 逐块输入，Finish() 结束
//   - Split(): 同步切分完整文本
//   - Process(): 从 io.Reader 读取并返回可渲染的内容列表
//
// 示例：
//
//	s, err := tagstream.NewStream()
//	for chunk := range chunks {
//	    changed, err := s.Append(chunk)
//	    // 重新渲染 changed 中的片段
//	}
//	changed, err := s.Finish()
package tagstream

// Split 同步切分完整文本
//
// 等价于对整段文本调用一次 Append() 再调用 Finish()。
//
// 参数：
//   - content: 完整的回复文本
//   - opts: 配置选项，如 WithTags()
//
// 返回：
//   - []*Segment: 全部片段，均为 complete 状态
//   - error: 仅在配置无效时返回
func Split(content string, opts ...Option) ([]*Segment, error) {
	s, err := newStream(applyOptions(opts...))
	if err != nil {
		return nil, err
	}
	if _, err := s.Append(content); err != nil {
		return nil, err
	}
	if _, err := s.Finish(); err != nil {
		return nil, err
	}
	return s.Segments(), nil
}
