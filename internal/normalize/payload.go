package normalize

import (
	"bytes"
	"encoding/json"
	"strings"

	"reqtester/pkg/tester"
)

// PayloadKind identifies which encoding a result payload was decoded from.
type PayloadKind int

const (
	// PayloadEmpty means the result carried no response data at all.
	PayloadEmpty PayloadKind = iota
	// PayloadStructured means content and/or tool_calls fields were present.
	PayloadStructured
	// PayloadLegacy means the delimited summary string was parsed.
	PayloadLegacy
	// PayloadRaw means a response string was present but yielded nothing.
	PayloadRaw
)

// String returns a short label for the kind.
func (k PayloadKind) String() string {
	switch k {
	case PayloadStructured:
		return "structured"
	case PayloadLegacy:
		return "legacy"
	case PayloadRaw:
		return "raw"
	default:
		return "empty"
	}
}

// ArgumentsKind identifies how tool call arguments were encoded.
type ArgumentsKind int

const (
	// ArgumentsNone means no arguments were supplied.
	ArgumentsNone ArgumentsKind = iota
	// ArgumentsObject means arguments arrived as a JSON object or array.
	ArgumentsObject
	// ArgumentsText means arguments arrived as an opaque string.
	ArgumentsText
)

// Arguments holds tool call arguments without interpreting them.
type Arguments struct {
	Kind   ArgumentsKind
	Object json.RawMessage
	Text   string
}

// String renders arguments for display.
func (a Arguments) String() string {
	switch a.Kind {
	case ArgumentsObject:
		return string(a.Object)
	case ArgumentsText:
		return a.Text
	default:
		return ""
	}
}

// ToolCall is the canonical tool invocation record.
type ToolCall struct {
	Name      string
	ID        string
	Arguments Arguments
}

// Payload is the decoded response data of one result.
type Payload struct {
	Kind      PayloadKind
	Content   string
	ToolCalls []ToolCall
	Raw       string
}

// Record is one result after the decode step. Downstream code reads only
// Records and never branches on the raw wire shape.
type Record struct {
	Index        int
	Success      bool
	Duration     float64
	HasDuration  bool
	Timestamp    string
	Error        string
	InputTokens  int
	OutputTokens int
	TotalTokens  int
	HasTokens    bool
	Model        string
	Payload      Payload
}

// Decode converts a raw backend result into a Record. It never fails.
func Decode(raw tester.RawResult) Record {
	record := Record{
		Index:     raw.Index,
		Success:   raw.Success,
		Timestamp: raw.Timestamp,
		Model:     raw.Model,
		Payload:   decodePayload(raw),
	}
	if raw.Duration != nil {
		record.Duration = *raw.Duration
		record.HasDuration = true
	}
	if raw.Error != nil {
		record.Error = *raw.Error
	}
	if raw.InputTokens != nil {
		record.InputTokens = *raw.InputTokens
		record.HasTokens = true
	}
	if raw.OutputTokens != nil {
		record.OutputTokens = *raw.OutputTokens
		record.HasTokens = true
	}
	if raw.TotalTokens != nil {
		record.TotalTokens = *raw.TotalTokens
		record.HasTokens = true
	}
	if record.HasTokens && record.TotalTokens == 0 {
		record.TotalTokens = record.InputTokens + record.OutputTokens
	}
	return record
}

// DecodeAll decodes every result, preserving order.
func DecodeAll(raws []tester.RawResult) []Record {
	records := make([]Record, 0, len(raws))
	for _, raw := range raws {
		records = append(records, Decode(raw))
	}
	return records
}

// decodePayload applies the encoding priority: structured, legacy, raw.
func decodePayload(raw tester.RawResult) Payload {
	toolCalls, hasToolCalls := parseToolCalls(raw.ToolCalls)
	if raw.Content != nil || hasToolCalls {
		payload := Payload{Kind: PayloadStructured, ToolCalls: toolCalls}
		if raw.Content != nil {
			payload.Content = *raw.Content
		}
		if raw.Response != nil {
			payload.Raw = *raw.Response
		}
		return payload
	}
	if raw.Response == nil {
		return Payload{Kind: PayloadEmpty}
	}
	if content, tools, ok := parseLegacy(*raw.Response); ok {
		return Payload{Kind: PayloadLegacy, Content: content, ToolCalls: tools, Raw: *raw.Response}
	}
	return Payload{Kind: PayloadRaw, Raw: *raw.Response}
}

// parseToolCalls accepts a list of objects, a list of names, a single
// object or a bare comma-separated string. The bool is false when the field
// is absent or unusable.
func parseToolCalls(raw json.RawMessage) ([]ToolCall, bool) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return nil, false
	}
	switch trimmed[0] {
	case '[':
		var items []json.RawMessage
		if err := json.Unmarshal(trimmed, &items); err != nil {
			return nil, false
		}
		calls := make([]ToolCall, 0, len(items))
		for _, item := range items {
			if call, ok := parseToolCall(item); ok {
				calls = append(calls, call)
			}
		}
		return calls, true
	case '{':
		call, ok := parseToolCall(trimmed)
		if !ok {
			return nil, false
		}
		return []ToolCall{call}, true
	case '"':
		var names string
		if err := json.Unmarshal(trimmed, &names); err != nil {
			return nil, false
		}
		return toolCallsFromNames(names), true
	default:
		return nil, false
	}
}

type wireToolCall struct {
	Name      string          `json:"name"`
	ID        string          `json:"id"`
	Arguments json.RawMessage `json:"arguments"`
	Function  *struct {
		Name      string          `json:"name"`
		Arguments json.RawMessage `json:"arguments"`
	} `json:"function"`
}

// parseToolCall decodes one list element. Entries without a name are
// dropped so they never count as tool use.
func parseToolCall(raw json.RawMessage) (ToolCall, bool) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 {
		return ToolCall{}, false
	}
	if trimmed[0] == '"' {
		var name string
		if err := json.Unmarshal(trimmed, &name); err != nil {
			return ToolCall{}, false
		}
		name = strings.TrimSpace(name)
		return ToolCall{Name: name}, name != ""
	}
	var wire wireToolCall
	if err := json.Unmarshal(trimmed, &wire); err != nil {
		return ToolCall{}, false
	}
	call := ToolCall{Name: wire.Name, ID: wire.ID, Arguments: parseArguments(wire.Arguments)}
	if wire.Function != nil {
		if call.Name == "" {
			call.Name = wire.Function.Name
		}
		if call.Arguments.Kind == ArgumentsNone {
			call.Arguments = parseArguments(wire.Function.Arguments)
		}
	}
	call.Name = strings.TrimSpace(call.Name)
	if call.Name == "" {
		return ToolCall{}, false
	}
	return call, true
}

// parseArguments keeps objects as compact JSON and everything else as text.
func parseArguments(raw json.RawMessage) Arguments {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return Arguments{}
	}
	switch trimmed[0] {
	case '{', '[':
		var buf bytes.Buffer
		if err := json.Compact(&buf, trimmed); err != nil {
			return Arguments{Kind: ArgumentsText, Text: string(trimmed)}
		}
		return Arguments{Kind: ArgumentsObject, Object: buf.Bytes()}
	case '"':
		var text string
		if err := json.Unmarshal(trimmed, &text); err != nil {
			return Arguments{Kind: ArgumentsText, Text: string(trimmed)}
		}
		return Arguments{Kind: ArgumentsText, Text: text}
	default:
		return Arguments{Kind: ArgumentsText, Text: string(trimmed)}
	}
}
