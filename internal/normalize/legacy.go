package normalize

import "strings"

// Legacy summary string grammar, e.g. "内容: 你好 | 调用工具: search, calc".
// Parsing is deliberately loose: segment order is free and a delimiter that
// appears inside content is tolerated.
const (
	LegacyDelimiter   = " | "
	ContentMarker     = "内容: "
	ToolCallMarker    = "调用工具: "
	toolNameSeparator = ", "
)

// parseLegacy splits a legacy summary string into content and tool names.
// ok is false when the string yields neither.
func parseLegacy(summary string) (string, []ToolCall, bool) {
	segments := strings.Split(summary, LegacyDelimiter)
	var (
		matched      bool
		inContent    bool
		leading      []string
		contentParts []string
		tools        []ToolCall
	)
	for _, segment := range segments {
		if rest, ok := cutMarker(segment, ContentMarker); ok {
			contentParts = append(contentParts, rest)
			matched = true
			inContent = true
			continue
		}
		if rest, ok := cutMarker(segment, ToolCallMarker); ok {
			tools = append(tools, toolCallsFromNames(rest)...)
			matched = true
			inContent = false
			continue
		}
		if inContent {
			contentParts = append(contentParts, segment)
			continue
		}
		leading = append(leading, segment)
	}
	if !matched {
		return summary, nil, strings.TrimSpace(summary) != ""
	}
	content := strings.Join(append(leading, contentParts...), LegacyDelimiter)
	return content, tools, content != "" || len(tools) > 0
}

// cutMarker strips a marker, tolerating missing or extra spaces around it.
func cutMarker(segment, marker string) (string, bool) {
	if rest, ok := strings.CutPrefix(segment, marker); ok {
		return rest, true
	}
	trimmedMarker := strings.TrimSpace(marker)
	if rest, ok := strings.CutPrefix(strings.TrimSpace(segment), trimmedMarker); ok {
		return strings.TrimLeft(rest, " "), true
	}
	return "", false
}

// toolCallsFromNames turns "a, b" into bare-name tool calls.
func toolCallsFromNames(names string) []ToolCall {
	parts := strings.Split(names, toolNameSeparator)
	calls := make([]ToolCall, 0, len(parts))
	for _, part := range parts {
		name := strings.TrimSpace(part)
		if name == "" {
			continue
		}
		calls = append(calls, ToolCall{Name: name})
	}
	return calls
}
