package request

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/Laisky/errors/v2"
	"github.com/go-playground/validator/v10"

	"reqtester/pkg/tester"
)

// ErrInvalidSpec marks a request rejected before submission.
var ErrInvalidSpec = errors.New("invalid test request")

// Mode selects how the request body is built.
type Mode string

const (
	// ModeSimple builds the body from prompt, model and sampling parameters.
	ModeSimple Mode = "simple"
	// ModeStructured sends a caller-provided JSON object.
	ModeStructured Mode = "structured"
)

// ParseMode accepts the user-facing mode names. "json" is an alias for
// structured because that is the backend's name for it.
func ParseMode(value string) (Mode, error) {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "", "simple":
		return ModeSimple, nil
	case "structured", "json":
		return ModeStructured, nil
	default:
		return "", errors.Wrapf(ErrInvalidSpec, "unknown mode %q", value)
	}
}

// Simple holds the simplified request form.
type Simple struct {
	Prompt      string  `validate:"required"`
	Model       string  `validate:"required"`
	Temperature float64 `validate:"gte=0,lte=2"`
	MaxTokens   int     `validate:"gte=1,lte=200000"`
}

// Spec is one test request, replicated Count times by the backend.
type Spec struct {
	Mode       Mode
	Simple     Simple
	Structured json.RawMessage
	Count      int
}

// Limits bounds what the client will submit.
type Limits struct {
	MaxCount int
}

// DefaultLimits mirrors the backend's replication cap.
var DefaultLimits = Limits{MaxCount: 20}

var validate = validator.New()

// Issue is one validation finding.
type Issue struct {
	Field   string
	Message string
}

// ValidationError collects every problem found in a spec.
type ValidationError struct {
	Issues []Issue
}

// Error summarizes the issues.
func (e *ValidationError) Error() string {
	if e == nil || len(e.Issues) == 0 {
		return ErrInvalidSpec.Error()
	}
	parts := make([]string, 0, len(e.Issues))
	for _, issue := range e.Issues {
		parts = append(parts, fmt.Sprintf("%s: %s", issue.Field, issue.Message))
	}
	return ErrInvalidSpec.Error() + ": " + strings.Join(parts, "; ")
}

// Unwrap lets callers match ErrInvalidSpec.
func (e *ValidationError) Unwrap() error { return ErrInvalidSpec }

// Validate checks the spec against limits without contacting the backend.
func (s Spec) Validate(limits Limits) error {
	var issues []Issue
	maxCount := limits.MaxCount
	if maxCount <= 0 {
		maxCount = DefaultLimits.MaxCount
	}
	if s.Count < 1 {
		issues = append(issues, Issue{Field: "count", Message: "must be at least 1"})
	} else if s.Count > maxCount {
		issues = append(issues, Issue{Field: "count", Message: fmt.Sprintf("must not exceed %d", maxCount)})
	}
	switch s.Mode {
	case ModeSimple:
		issues = append(issues, simpleIssues(s.Simple)...)
	case ModeStructured:
		issues = append(issues, structuredIssues(s.Structured)...)
	default:
		issues = append(issues, Issue{Field: "mode", Message: fmt.Sprintf("unknown mode %q", s.Mode)})
	}
	if len(issues) > 0 {
		return &ValidationError{Issues: issues}
	}
	return nil
}

func simpleIssues(simple Simple) []Issue {
	simple.Prompt = strings.TrimSpace(simple.Prompt)
	simple.Model = strings.TrimSpace(simple.Model)
	err := validate.Struct(simple)
	if err == nil {
		return nil
	}
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return []Issue{{Field: "simple", Message: err.Error()}}
	}
	issues := make([]Issue, 0, len(fieldErrs))
	for _, fe := range fieldErrs {
		issues = append(issues, Issue{Field: simpleFieldName(fe.Field()), Message: describeTag(fe)})
	}
	return issues
}

func simpleFieldName(field string) string {
	switch field {
	case "MaxTokens":
		return "max_tokens"
	default:
		return strings.ToLower(field)
	}
}

func describeTag(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "gte":
		return "must be >= " + fe.Param()
	case "lte":
		return "must be <= " + fe.Param()
	default:
		return "failed " + fe.Tag()
	}
}

// ToWire converts a validated spec into the backend payload.
func (s Spec) ToWire() tester.TestRequest {
	if s.Mode == ModeStructured {
		return tester.TestRequest{
			Mode:        tester.ModeJSON,
			RequestJSON: compact(s.Structured),
			Count:       s.Count,
		}
	}
	temperature := s.Simple.Temperature
	maxTokens := s.Simple.MaxTokens
	return tester.TestRequest{
		Mode:        tester.ModeSimple,
		Prompt:      s.Simple.Prompt,
		Model:       strings.TrimSpace(s.Simple.Model),
		Temperature: &temperature,
		MaxTokens:   &maxTokens,
		Count:       s.Count,
	}
}

func compact(raw json.RawMessage) json.RawMessage {
	var buf bytes.Buffer
	if err := json.Compact(&buf, raw); err != nil {
		return raw
	}
	return json.RawMessage(buf.Bytes())
}
