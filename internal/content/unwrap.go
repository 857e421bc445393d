// ABOUTME: Turns model output into JSON values, tolerating markdown code fences
// ABOUTME: Unparseable text is kept verbatim and rendered as {"raw": text}

package content

import (
	"encoding/json"
	"strings"
)

const (
	fenceJSON = "```json"
	fence     = "```"
)

// StripFences removes a surrounding markdown code fence, with or without a json
// language tag, and the whitespace around it. Clean JSON is returned unchanged.
func StripFences(text string) string {
	for {
		next := stripOnce(text)
		if next == text {
			return next
		}
		text = next
	}
}

func stripOnce(text string) string {
	s := strings.TrimSpace(text)
	if strings.HasPrefix(s, fenceJSON) {
		s = s[len(fenceJSON):]
	} else if strings.HasPrefix(s, fence) {
		s = s[len(fence):]
	}
	s = strings.TrimSuffix(s, fence)
	return strings.TrimSpace(s)
}

// Kind tags an Unwrapped value
type Kind int

const (
	// KindParsed means Value holds the decoded JSON
	KindParsed Kind = iota
	// KindRaw means the text was not JSON and Raw holds it unchanged
	KindRaw
)

func (k Kind) String() string {
	if k == KindRaw {
		return "raw"
	}
	return "parsed"
}

// Unwrapped is model output after fence stripping and JSON decoding
type Unwrapped struct {
	Kind  Kind
	Value any
	Raw   string
}

// Unwrap strips fences and decodes the text. It never fails: text that is not
// valid JSON comes back as KindRaw holding the original, unstripped text.
func Unwrap(text string) Unwrapped {
	var v any
	if err := json.Unmarshal([]byte(StripFences(text)), &v); err != nil {
		return Unwrapped{Kind: KindRaw, Raw: text}
	}
	return Unwrapped{Kind: KindParsed, Value: v}
}

// Object returns the parsed value as a JSON object, if it is one
func (u Unwrapped) Object() (map[string]any, bool) {
	if u.Kind != KindParsed {
		return nil, false
	}
	m, ok := u.Value.(map[string]any)
	return m, ok
}

// MarshalJSON writes the decoded value, or {"raw": text} for raw output
func (u Unwrapped) MarshalJSON() ([]byte, error) {
	if u.Kind == KindRaw {
		return json.Marshal(map[string]string{"raw": u.Raw})
	}
	return json.Marshal(u.Value)
}
