// Package normalize converts backend result records into one canonical
// {content, toolCalls} shape regardless of how the backend encoded them.
package normalize

import "reqtester/pkg/tester"

const (
	// NoResponsePlaceholder is displayed when a result has no response at all.
	NoResponsePlaceholder = "无响应内容"
	// UnknownErrorPlaceholder is displayed for failures without a message.
	UnknownErrorPlaceholder = "未知错误"
)

// Response is the canonical display shape of one result.
// Fallback is set only when neither encoding produced content or tool
// calls; it is display text, not content.
type Response struct {
	Content   string
	ToolCalls []ToolCall
	Fallback  string
}

// HasData reports whether content or tool calls were recovered.
func (r Response) HasData() bool {
	return r.Content != "" || len(r.ToolCalls) > 0
}

// Normalize decodes a raw result and returns its canonical shape.
func Normalize(raw tester.RawResult) Response {
	return Decode(raw).Response()
}

// Response returns the canonical shape of a decoded record.
func (r Record) Response() Response {
	switch r.Payload.Kind {
	case PayloadStructured, PayloadLegacy:
		out := Response{Content: r.Payload.Content, ToolCalls: r.Payload.ToolCalls}
		if !out.HasData() {
			out.Fallback = fallbackText(r.Payload.Raw)
		}
		return out
	case PayloadRaw:
		return Response{Fallback: fallbackText(r.Payload.Raw)}
	default:
		return Response{Fallback: NoResponsePlaceholder}
	}
}

// ToolCallCount returns the number of tool calls that count towards
// statistics. Failed results never contribute.
func (r Record) ToolCallCount() int {
	if !r.Success {
		return 0
	}
	return len(r.Payload.ToolCalls)
}

// DisplayText returns the main text to show for a record.
func (r Record) DisplayText() string {
	if !r.Success {
		if r.Error == "" {
			return UnknownErrorPlaceholder
		}
		return r.Error
	}
	resp := r.Response()
	if resp.Content != "" {
		return resp.Content
	}
	if resp.Fallback != "" {
		return resp.Fallback
	}
	return ""
}

func fallbackText(raw string) string {
	if raw == "" {
		return NoResponsePlaceholder
	}
	return raw
}
