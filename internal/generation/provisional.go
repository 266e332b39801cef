package generation

import (
	"bytes"
	"encoding/json"
	"strconv"

	"github.com/templui/goalplanner/internal/apperr"
)

// ProvisionalGoal is the untrusted shape decoded from generated text. A nil
// field was absent from the response.
type ProvisionalGoal struct {
	ID          *string
	Title       *string
	Description *string
	Deadline    *string
	Subgoals    []ProvisionalSubgoal
}

type ProvisionalSubgoal struct {
	Title       *string
	Description *string
}

// ParseProvisional decodes candidate JSON into a ProvisionalGoal. Scalar
// fields of any JSON type are kept as strings. When the text is not a single
// JSON object the first complete top-level object inside it is used instead.
func ParseProvisional(candidate string) (ProvisionalGoal, error) {
	raw, err := decodeObject([]byte(candidate))
	if err != nil {
		for _, obj := range findJSONObjects(candidate) {
			raw, err = decodeObject([]byte(obj))
			if err == nil {
				break
			}
		}
	}
	if err != nil {
		return ProvisionalGoal{}, apperr.Wrap(apperr.ErrInvalidGeneratedGoal, err, "response is not a JSON object")
	}

	pg := ProvisionalGoal{
		ID:          optionalString(raw["id"]),
		Title:       optionalString(raw["title"]),
		Description: optionalString(raw["description"]),
		Deadline:    optionalString(raw["deadline"]),
	}

	if list, ok := raw["subgoals"].([]any); ok {
		pg.Subgoals = make([]ProvisionalSubgoal, 0, len(list))
		for _, item := range list {
			sub, _ := item.(map[string]any)
			pg.Subgoals = append(pg.Subgoals, ProvisionalSubgoal{
				Title:       optionalString(sub["title"]),
				Description: optionalString(sub["description"]),
			})
		}
	}

	return pg, nil
}

func decodeObject(data []byte) (map[string]any, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	var raw map[string]any
	if err := dec.Decode(&raw); err != nil {
		return nil, err
	}
	if raw == nil {
		return nil, errNullObject
	}
	return raw, nil
}

var errNullObject = apperr.New(apperr.ErrInvalidGeneratedGoal, "response is null")

func optionalString(v any) *string {
	var s string
	switch t := v.(type) {
	case nil:
		return nil
	case string:
		s = t
	case json.Number:
		s = t.String()
	case bool:
		s = strconv.FormatBool(t)
	default:
		return nil
	}
	return &s
}

// findJSONObjects returns every balanced top-level {...} span in s, skipping
// braces inside string literals.
func findJSONObjects(s string) []string {
	var objects []string
	depth := 0
	start := -1
	inString := false
	escape := false

	for i := 0; i < len(s); i++ {
		b := s[i]
		if escape {
			escape = false
			continue
		}
		if inString {
			if b == '\\' {
				escape = true
			} else if b == '"' {
				inString = false
			}
			continue
		}

		switch b {
		case '"':
			inString = true
		case '{':
			if depth == 0 {
				start = i
			}
			depth++
		case '}':
			if depth > 0 {
				depth--
				if depth == 0 && start != -1 {
					objects = append(objects, s[start:i+1])
					start = -1
				}
			}
		}
	}

	return objects
}
