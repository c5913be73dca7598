// Package extract recovers a JSON value from free-form model output.
//
// Generation services are not guaranteed to honor "respond with only JSON",
// so extraction is deliberately lenient about surrounding prose and fenced
// code blocks; only the final parse is strict.
package extract

import (
	"encoding/json"
	"fmt"
	"strings"
)

const fence = "```"

// snippetLen bounds how much of the original text an Error carries.
const snippetLen = 120

// Error reports that no parseable JSON could be recovered. Snippet holds a
// short prefix of the original text for diagnostics.
type Error struct {
	Snippet string
	Err     error
}

func (e *Error) Error() string {
	return fmt.Sprintf("no JSON found in model output (starts %q): %v", e.Snippet, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// JSON selects the most plausible JSON substring of text and parses it.
//
// Selection order: the contents of a json-tagged fenced block, else the
// contents of the first fenced block, else the trimmed text verbatim.
// Fence detection never fails; only the parse does.
func JSON(text string) (json.RawMessage, error) {
	candidate := selectCandidate(text)

	var v any
	if err := json.Unmarshal([]byte(candidate), &v); err != nil {
		snippet := strings.TrimSpace(text)
		if len(snippet) > snippetLen {
			snippet = snippet[:snippetLen]
		}
		return nil, &Error{Snippet: snippet, Err: err}
	}
	return json.RawMessage(candidate), nil
}

func selectCandidate(text string) string {
	if idx := strings.Index(text, fence+"json"); idx >= 0 {
		start := idx + len(fence) + len("json")
		if end := strings.Index(text[start:], fence); end >= 0 {
			return strings.TrimSpace(text[start : start+end])
		}
	}
	if idx := strings.Index(text, fence); idx >= 0 {
		start := idx + len(fence)
		if end := strings.Index(text[start:], fence); end >= 0 {
			return strings.TrimSpace(text[start : start+end])
		}
	}
	return strings.TrimSpace(text)
}
