package tester

import (
	"bytes"
	"encoding/json"
)

// Mode identifies how the backend builds each repeated request.
type Mode string

const (
	// ModeSimple builds the request from prompt, model and sampling parameters.
	ModeSimple Mode = "simple"
	// ModeJSON sends a caller-provided request body verbatim.
	ModeJSON Mode = "json"
)

// SessionStatus is the backend-reported state of a test session.
type SessionStatus string

const (
	// StatusRunning means repetitions are still executing.
	StatusRunning SessionStatus = "running"
	// StatusCompleted means every repetition has a result.
	StatusCompleted SessionStatus = "completed"
	// StatusFailed means the session aborted.
	StatusFailed SessionStatus = "failed"
)

// TestRequest is the POST /test payload.
type TestRequest struct {
	Mode        Mode            `json:"mode"`
	Prompt      string          `json:"prompt,omitempty"`
	Model       string          `json:"model,omitempty"`
	Temperature *float64        `json:"temperature,omitempty"`
	MaxTokens   *int            `json:"max_tokens,omitempty"`
	RequestJSON json.RawMessage `json:"request_json,omitempty"`
	Count       int             `json:"count"`
}

// SubmitResponse is returned by POST /test.
type SubmitResponse struct {
	SessionID string `json:"session_id"`
	Success   *bool  `json:"success,omitempty"`
	Message   string `json:"message,omitempty"`
}

// ResultsResponse is returned by GET /results/{id}. It always carries the
// full current result set for the session.
type ResultsResponse struct {
	SessionID           string        `json:"session_id,omitempty"`
	Status              SessionStatus `json:"status"`
	Completed           int           `json:"completed"`
	Total               int           `json:"total"`
	Results             []RawResult   `json:"results"`
	ToolCallCount       *int          `json:"tool_call_count,omitempty"`
	TotalToolCalls      *int          `json:"total_tool_calls,omitempty"`
	ToolCallProbability *float64      `json:"tool_call_probability,omitempty"`
}

// RawResult is one repetition outcome exactly as the backend encoded it.
// Content and ToolCalls form the structured encoding; Response is the legacy
// delimited summary string. Either, both or neither may be set.
type RawResult struct {
	Index        int             `json:"index"`
	Success      bool            `json:"success"`
	Duration     *float64        `json:"duration,omitempty"`
	Timestamp    string          `json:"timestamp,omitempty"`
	Error        *string         `json:"error,omitempty"`
	Content      *string         `json:"content,omitempty"`
	ToolCalls    json.RawMessage `json:"tool_calls,omitempty"`
	Response     *string         `json:"response,omitempty"`
	InputTokens  *int            `json:"input_tokens,omitempty"`
	OutputTokens *int            `json:"output_tokens,omitempty"`
	TotalTokens  *int            `json:"total_tokens,omitempty"`
	Model        string          `json:"model,omitempty"`
	Mode         Mode            `json:"mode,omitempty"`
}

// rawResultAlias avoids recursion in UnmarshalJSON.
type rawResultAlias RawResult

// UnmarshalJSON accepts both tool_calls and toolCalls spellings.
func (r *RawResult) UnmarshalJSON(data []byte) error {
	var alias rawResultAlias
	if err := json.Unmarshal(data, &alias); err != nil {
		return err
	}
	if isJSONNull(alias.ToolCalls) {
		var camel struct {
			ToolCalls json.RawMessage `json:"toolCalls"`
		}
		if err := json.Unmarshal(data, &camel); err == nil && !isJSONNull(camel.ToolCalls) {
			alias.ToolCalls = camel.ToolCalls
		}
	}
	if isJSONNull(alias.ToolCalls) {
		alias.ToolCalls = nil
	}
	*r = RawResult(alias)
	return nil
}

// SessionSummary is one entry of GET /sessions.
type SessionSummary struct {
	SessionID string        `json:"session_id"`
	Status    SessionStatus `json:"status"`
	Timestamp string        `json:"timestamp"`
}

// SessionsResponse is returned by GET /sessions.
type SessionsResponse struct {
	Sessions []SessionSummary `json:"sessions"`
}

// SystemPromptResponse is returned by GET /system-prompt.
type SystemPromptResponse struct {
	SystemPrompt string `json:"system_prompt"`
}

// DefaultModelResponse is returned by GET /default-model.
type DefaultModelResponse struct {
	DefaultModel string `json:"default_model"`
}

// ServerConfig is returned by GET /config.
type ServerConfig struct {
	APIURL             string   `json:"api_url"`
	AvailableModels    []string `json:"available_models"`
	DefaultModel       string   `json:"default_model"`
	DefaultTemperature float64  `json:"default_temperature"`
	DefaultMaxTokens   int      `json:"default_max_tokens"`
	MaxRequestCount    int      `json:"max_request_count"`
	RequestTimeout     int      `json:"request_timeout"`
}

// Health is returned by GET /health.
type Health struct {
	Status         string `json:"status"`
	ActiveSessions int    `json:"active_sessions"`
	Version        string `json:"version"`
}

func isJSONNull(raw json.RawMessage) bool {
	trimmed := bytes.TrimSpace(raw)
	return len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null"))
}
