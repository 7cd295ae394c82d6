package mail

import (
	"fmt"
	netmail "net/mail"
	"strings"
)

// Address is an e-mail address with an optional display name.
type Address struct {
	Address string `json:"address"`
	Name    string `json:"name,omitempty"`
}

// String renders the address as "Name <addr>" when a display name is set,
// otherwise as the bare address.
func (a Address) String() string {
	name := strings.TrimSpace(a.Name)
	if name == "" {
		return a.Address
	}
	return fmt.Sprintf("%s <%s>", name, a.Address)
}

// ParseAddress parses "addr" or "Name <addr>".
func ParseAddress(s string) (Address, error) {
	parsed, err := netmail.ParseAddress(strings.TrimSpace(s))
	if err != nil {
		return Address{}, fmt.Errorf("parsing address %q: %w", s, err)
	}
	return Address{Address: parsed.Address, Name: parsed.Name}, nil
}

// Normalize strips a display-name wrapper and surrounding whitespace,
// returning the bare address. Input that does not parse is returned with
// any angle-bracket wrapper removed, and "" when it holds no '@'.
func Normalize(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return ""
	}
	if a, err := ParseAddress(s); err == nil {
		return a.Address
	}
	if i := strings.LastIndex(s, "<"); i >= 0 {
		if j := strings.LastIndex(s, ">"); j > i {
			s = strings.TrimSpace(s[i+1 : j])
		}
	}
	if !strings.Contains(s, "@") {
		return ""
	}
	return s
}

// Strings renders each address with String.
func Strings(addrs []Address) []string {
	out := make([]string, 0, len(addrs))
	for _, a := range addrs {
		out = append(out, a.String())
	}
	return out
}
