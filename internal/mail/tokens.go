package mail

import (
	"errors"
	"slices"
	"strings"
)

// ErrEmptyToken is returned when a token map contains an empty placeholder.
var ErrEmptyToken = errors.New("token placeholder must not be empty")

// SortedTokenKeys returns the placeholders of tokens in ascending order.
func SortedTokenKeys(tokens map[string]string) []string {
	keys := make([]string, 0, len(tokens))
	for k := range tokens {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}

// ApplyTokens replaces every placeholder of tokens in the subject, bodies
// and header values. Placeholders are applied in sorted order so identical
// input always renders identically.
func (m *Message) ApplyTokens(tokens map[string]string) error {
	if len(tokens) == 0 {
		return nil
	}
	keys := SortedTokenKeys(tokens)
	pairs := make([]string, 0, len(keys)*2)
	for _, k := range keys {
		if k == "" {
			return ErrEmptyToken
		}
		pairs = append(pairs, k, tokens[k])
	}
	r := strings.NewReplacer(pairs...)

	m.Subject = r.Replace(m.Subject)
	m.HTMLBody = r.Replace(m.HTMLBody)
	m.TextBody = r.Replace(m.TextBody)
	for i := range m.Headers {
		m.Headers[i].Value = r.Replace(m.Headers[i].Value)
	}
	return nil
}
