package request

import (
	"bytes"
	"encoding/json"
	"strings"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

// structuredSchema constrains the well-known chat-completion fields by type.
// Unknown fields are allowed; the backend forwards the body verbatim.
const structuredSchema = `{
  "$schema": "http://json-schema.org/draft-07/schema#",
  "type": "object",
  "minProperties": 1,
  "properties": {
    "model": {"type": "string", "minLength": 1},
    "messages": {
      "type": "array",
      "items": {
        "type": "object",
        "required": ["role"],
        "properties": {"role": {"type": "string"}}
      }
    },
    "temperature": {"type": "number", "minimum": 0, "maximum": 2},
    "max_tokens": {"type": "integer", "minimum": 1},
    "stream": {"type": "boolean"},
    "tools": {"type": "array"}
  }
}`

const schemaURL = "mem://reqtester/structured-request.json"

var compiledSchema = jsonschema.MustCompileString(schemaURL, structuredSchema)

func structuredIssues(raw json.RawMessage) []Issue {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 {
		return []Issue{{Field: "request_json", Message: "is required"}}
	}
	decoder := json.NewDecoder(bytes.NewReader(trimmed))
	decoder.UseNumber()
	var doc any
	if err := decoder.Decode(&doc); err != nil {
		return []Issue{{Field: "request_json", Message: "invalid JSON: " + err.Error()}}
	}
	if decoder.More() {
		return []Issue{{Field: "request_json", Message: "invalid JSON: trailing data"}}
	}
	if _, ok := doc.(map[string]any); !ok {
		return []Issue{{Field: "request_json", Message: "must be a JSON object"}}
	}
	if err := compiledSchema.Validate(doc); err != nil {
		return schemaIssues(err)
	}
	return nil
}

func schemaIssues(err error) []Issue {
	verr, ok := err.(*jsonschema.ValidationError)
	if !ok {
		return []Issue{{Field: "request_json", Message: err.Error()}}
	}
	var issues []Issue
	collectSchemaIssues(verr, &issues)
	if len(issues) == 0 {
		issues = append(issues, Issue{Field: "request_json", Message: verr.Message})
	}
	return issues
}

func collectSchemaIssues(verr *jsonschema.ValidationError, issues *[]Issue) {
	if len(verr.Causes) == 0 {
		field := "request_json"
		if loc := strings.TrimPrefix(verr.InstanceLocation, "/"); loc != "" {
			field += "." + strings.ReplaceAll(loc, "/", ".")
		}
		*issues = append(*issues, Issue{Field: field, Message: verr.Message})
		return
	}
	for _, cause := range verr.Causes {
		collectSchemaIssues(cause, issues)
	}
}
