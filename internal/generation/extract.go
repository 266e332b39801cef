package generation

import (
	"encoding/json"
	"strings"

	"github.com/templui/goalplanner/internal/apperr"
)

// Each level of the envelope that can be missing has its own error so logs
// show where the response broke.
var (
	ErrEnvelopeNotJSON = apperr.New(apperr.ErrMalformedUpstreamEnvelope, "response is not a JSON object")
	ErrNoCandidates    = apperr.New(apperr.ErrMalformedUpstreamEnvelope, "no candidates in response")
	ErrNoContent       = apperr.New(apperr.ErrMalformedUpstreamEnvelope, "no content in first candidate")
	ErrNoParts         = apperr.New(apperr.ErrMalformedUpstreamEnvelope, "no parts in candidate content")
	ErrNoText          = apperr.New(apperr.ErrMalformedUpstreamEnvelope, "empty text in first part")
)

const fence = "```"

// ExtractCandidateJSON returns the text of candidates[0].content.parts[0]
// with any surrounding code fence removed. The text is not parsed.
func ExtractCandidateJSON(envelope string) (string, error) {
	var root map[string]any
	if err := json.Unmarshal([]byte(envelope), &root); err != nil || root == nil {
		return "", ErrEnvelopeNotJSON
	}

	candidates, ok := root["candidates"].([]any)
	if !ok || len(candidates) == 0 {
		return "", ErrNoCandidates
	}

	candidate, _ := candidates[0].(map[string]any)
	content, ok := candidate["content"].(map[string]any)
	if !ok {
		return "", ErrNoContent
	}

	parts, ok := content["parts"].([]any)
	if !ok || len(parts) == 0 {
		return "", ErrNoParts
	}

	part, _ := parts[0].(map[string]any)
	text, _ := part["text"].(string)
	if strings.TrimSpace(text) == "" {
		return "", ErrNoText
	}

	return StripCodeFence(text), nil
}

// StripCodeFence removes a leading ``` marker (with or without a language
// tag) and a trailing ``` marker, then trims.
func StripCodeFence(s string) string {
	s = strings.TrimSpace(s)
	if strings.HasPrefix(s, fence) {
		s = s[len(fence):]
		s = strings.TrimLeftFunc(s, isLanguageTagRune)
	}
	s = strings.TrimSpace(s)
	if strings.HasSuffix(s, fence) {
		s = s[:len(s)-len(fence)]
	}
	return strings.TrimSpace(s)
}

func isLanguageTagRune(r rune) bool {
	return r >= 'a' && r <= 'z' || r >= 'A' && r <= 'Z' || r >= '0' && r <= '9' || r == '-' || r == '_' || r == '+'
}
