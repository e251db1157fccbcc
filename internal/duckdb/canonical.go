package duckdb

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"

	"github.com/Laisky/errors/v2"

	"reqtester/internal/normalize"
)

// CanonicalJSON returns deterministic JSON bytes for hashing and storage.
// Object keys are emitted in sorted order.
func CanonicalJSON(value any) ([]byte, error) {
	normalized, err := normalizeJSON(value)
	if err != nil {
		return nil, err
	}
	return json.Marshal(normalized)
}

// FingerprintJSON returns a SHA-256 hex digest for the canonical JSON.
func FingerprintJSON(value any) (string, error) {
	data, err := CanonicalJSON(value)
	if err != nil {
		return "", err
	}
	return fingerprintBytes(data), nil
}

// ArgumentsFingerprint identifies tool call arguments independent of key
// order or whitespace. It returns "" when there are no arguments.
func ArgumentsFingerprint(args normalize.Arguments) (string, error) {
	switch args.Kind {
	case normalize.ArgumentsObject:
		return FingerprintJSON(args.Object)
	case normalize.ArgumentsText:
		return FingerprintJSON(args.Text)
	default:
		return "", nil
	}
}

func fingerprintBytes(data []byte) string {
	hash := sha256.Sum256(data)
	return hex.EncodeToString(hash[:])
}

func normalizeJSON(value any) (any, error) {
	switch v := value.(type) {
	case json.RawMessage:
		var decoded any
		if err := json.Unmarshal(v, &decoded); err != nil {
			return nil, errors.Wrap(err, "normalize json raw")
		}
		return normalizeJSON(decoded)
	case []byte:
		var decoded any
		if err := json.Unmarshal(v, &decoded); err != nil {
			return nil, errors.Wrap(err, "normalize json bytes")
		}
		return normalizeJSON(decoded)
	case map[string]any:
		out := make(map[string]any, len(v))
		for k, inner := range v {
			norm, err := normalizeJSON(inner)
			if err != nil {
				return nil, err
			}
			out[k] = norm
		}
		return out, nil
	case []any:
		out := make([]any, len(v))
		for i := range v {
			norm, err := normalizeJSON(v[i])
			if err != nil {
				return nil, err
			}
			out[i] = norm
		}
		return out, nil
	default:
		return v, nil
	}
}
