package llm

import (
	"context"
	"encoding/json"
	"strings"
)

// Validator is implemented by response shapes with invariants beyond their JSON types.
type Validator interface {
	Validate() error
}

// CleanJSONResponse trims the reply and unwraps a leading markdown code fence,
// dropping a "json" language tag.
func CleanJSONResponse(text string) string {
	text = strings.TrimSpace(text)
	if !strings.HasPrefix(text, "```") {
		return text
	}
	body := strings.TrimPrefix(text, "```")
	if end := strings.Index(body, "```"); end >= 0 {
		body = body[:end]
	}
	body = strings.TrimPrefix(body, "json")
	return strings.TrimSpace(body)
}

// GenerateJSON runs req and decodes the cleaned reply into T. Unknown fields are
// ignored. When *T implements Validator the decoded value must pass it.
func GenerateJSON[T any](ctx context.Context, g Generator, req Request, prefix string) (*T, error) {
	text, err := g.Generate(ctx, req)
	if err != nil {
		return nil, &GenerationError{Prefix: prefix, Kind: FailureProvider, Err: err}
	}

	out := new(T)
	if err := json.Unmarshal([]byte(CleanJSONResponse(text)), out); err != nil {
		return nil, &GenerationError{Prefix: prefix, Kind: FailureDecode, Err: err}
	}
	if v, ok := any(out).(Validator); ok {
		if err := v.Validate(); err != nil {
			return nil, &GenerationError{Prefix: prefix, Kind: FailureSchema, Err: err}
		}
	}
	return out, nil
}
