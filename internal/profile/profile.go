// Package profile loads per-email sender profiles. A profile is selected by
// the correlation id carried in a message's recipient metadata and can
// override the sender identity, the Reply-To list and add custom headers.
package profile

import (
	"fmt"
	"os"
	"slices"
	"strings"

	"gopkg.in/yaml.v3"
)

// Profile overrides sender fields for one email id.
type Profile struct {
	EmailID     string            `yaml:"email_id"`
	FromAddress string            `yaml:"from_address"`
	FromName    string            `yaml:"from_name"`
	ReplyTo     []string          `yaml:"reply_to"`
	Headers     map[string]string `yaml:"headers"`
}

// HeaderNames returns the custom header names in sorted order.
func (p Profile) HeaderNames() []string {
	names := make([]string, 0, len(p.Headers))
	for k := range p.Headers {
		names = append(names, k)
	}
	slices.Sort(names)
	return names
}

// Registry holds the loaded profiles keyed by email id.
type Registry struct {
	byID map[string]Profile
}

// NewRegistry builds a Registry from in-memory profiles.
func NewRegistry(profiles ...Profile) *Registry {
	r := &Registry{byID: make(map[string]Profile, len(profiles))}
	for _, p := range profiles {
		r.byID[p.EmailID] = p
	}
	return r
}

// Lookup returns the profile for emailID.
func (r *Registry) Lookup(emailID string) (Profile, bool) {
	if r == nil || emailID == "" {
		return Profile{}, false
	}
	p, ok := r.byID[emailID]
	return p, ok
}

// Len returns the number of loaded profiles.
func (r *Registry) Len() int {
	if r == nil {
		return 0
	}
	return len(r.byID)
}

// Load reads the profiles YAML file at filePath. The file is a list of
// profiles. If the file does not exist, an empty registry is returned (not an error).
func Load(filePath string) (*Registry, error) {
	data, err := os.ReadFile(filePath) //nolint:gosec // path is from admin-configured data dir
	if err != nil {
		if os.IsNotExist(err) {
			return NewRegistry(), nil
		}
		return nil, fmt.Errorf("reading profiles %q: %w", filePath, err)
	}

	var raw []Profile
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("parsing profiles %q: %w", filePath, err)
	}

	for i, p := range raw {
		if strings.TrimSpace(p.EmailID) == "" {
			return nil, fmt.Errorf("profile #%d: email_id is required", i+1)
		}
		for _, addr := range p.ReplyTo {
			if strings.TrimSpace(addr) == "" {
				return nil, fmt.Errorf("profile %q: reply_to entries must not be empty", p.EmailID)
			}
		}
	}

	return NewRegistry(raw...), nil
}
