package request

import (
	"encoding/json"
	"strings"
)

// DefaultPrompt seeds the structured template's user message.
const DefaultPrompt = "你好，请介绍一下你自己。"

// Default sampling parameters used when the user gives none.
const (
	DefaultTemperature = 0.7
	DefaultMaxTokens   = 2000
)

type templateMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type templateBody struct {
	Model       string            `json:"model"`
	Messages    []templateMessage `json:"messages"`
	Temperature float64           `json:"temperature"`
	MaxTokens   int               `json:"max_tokens"`
}

// DefaultStructured returns a starter chat-completion body for model.
func DefaultStructured(model string) json.RawMessage {
	body := templateBody{
		Model:       strings.TrimSpace(model),
		Messages:    []templateMessage{{Role: "user", Content: DefaultPrompt}},
		Temperature: DefaultTemperature,
		MaxTokens:   DefaultMaxTokens,
	}
	data, err := json.MarshalIndent(body, "", "  ")
	if err != nil {
		return json.RawMessage(`{}`)
	}
	return json.RawMessage(data)
}
