// Package siteconfig types the values stored in the key/value content store. Every known
// key maps to one Section type; decoding starts from that type's defaults so payloads that
// omit subfields still produce a complete value.
package siteconfig

import (
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"

	appValidator "github.com/mindfulpath/practicesite/pkg/validator"
)

var (
	// ErrUnknownKey is returned for keys with no registered section type.
	ErrUnknownKey = errors.New("siteconfig: unknown key")
	// ErrNotFound is returned by Lookup when the entry list lacks the key.
	ErrNotFound = errors.New("siteconfig: entry not found")
)

// Entry is the wire shape of one stored section.
type Entry struct {
	Key   string          `json:"key"`
	Value json.RawMessage `json:"value"`
}

type definition struct {
	deletable bool
	defaults  func() Section
}

var registry = map[Key]definition{
	KeyHero: {defaults: func() Section {
		return &Hero{
			Title:    "Compassionate, evidence-based therapy",
			Subtitle: "Individual and couples counselling in a calm, confidential space.",
			CTALabel: "Book a consultation",
			CTAHref:  "#contact",
		}
	}},
	KeyAbout: {defaults: func() Section {
		return &About{Heading: "About me", Credentials: []string{}}
	}},
	KeyServices: {defaults: func() Section {
		return &Services{Heading: "Services", Items: []ServiceItem{}}
	}},
	KeyContact: {defaults: func() Section {
		return &Contact{Heading: "Get in touch", ShowForm: true}
	}},
	KeyFAQ: {defaults: func() Section {
		return &FAQ{Heading: "Frequently asked questions"}
	}},
	KeyTestimonials: {defaults: func() Section {
		return &Testimonials{Heading: "What clients say", Enabled: true}
	}},
	KeySEO: {defaults: func() Section {
		return &SEO{SiteTitle: "Psychology Practice", Keywords: []string{}}
	}},
	KeyMaintenance: {defaults: func() Section {
		return &Maintenance{Message: "We'll be back shortly."}
	}},
	KeyAvatar: {deletable: true, defaults: func() Section {
		return &Avatar{}
	}},
	KeyAnnouncement: {deletable: true, defaults: func() Section {
		return &Announcement{}
	}},
}

// Keys returns every registered key in lexical order.
func Keys() []Key {
	keys := make([]Key, 0, len(registry))
	for key := range registry {
		keys = append(keys, key)
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i] < keys[j] })
	return keys
}

// Known reports whether key has a registered section type.
func Known(key string) bool {
	_, ok := registry[Key(normalise(key))]
	return ok
}

// Deletable reports whether the section under key is optional and may be removed.
func Deletable(key string) bool {
	def, ok := registry[Key(normalise(key))]
	return ok && def.deletable
}

// Default returns a fresh default value for key.
func Default(key string) (Section, error) {
	def, ok := registry[Key(normalise(key))]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownKey, key)
	}
	return def.defaults(), nil
}

// Seeds returns the default value of every required (non-deletable) section.
func Seeds() []Section {
	var out []Section
	for _, key := range Keys() {
		def := registry[key]
		if def.deletable {
			continue
		}
		out = append(out, def.defaults())
	}
	return out
}

// Decode parses raw into the section type registered for key, filling absent fields from
// the defaults, and validates the result. An empty or null payload yields the defaults
// without validation.
func Decode(key string, raw []byte) (Section, error) {
	section, err := Default(key)
	if err != nil {
		return nil, err
	}

	trimmed := strings.TrimSpace(string(raw))
	if trimmed == "" || trimmed == "null" {
		return section, nil
	}

	if err := json.Unmarshal(raw, section); err != nil {
		return nil, fmt.Errorf("siteconfig: decode %s: %w", key, err)
	}
	if err := Validate(section); err != nil {
		return nil, err
	}
	return section, nil
}

// Validate runs the section's validation rules.
func Validate(section Section) error {
	if section == nil {
		return errors.New("siteconfig: section is nil")
	}
	if err := appValidator.ValidateStruct(section); err != nil {
		return fmt.Errorf("siteconfig: invalid %s: %w", section.Key(), err)
	}
	return nil
}

// Encode validates section and returns its stored JSON form.
func Encode(section Section) (json.RawMessage, error) {
	if err := Validate(section); err != nil {
		return nil, err
	}
	payload, err := json.Marshal(section)
	if err != nil {
		return nil, fmt.Errorf("siteconfig: encode %s: %w", section.Key(), err)
	}
	return payload, nil
}

// EntryFor encodes section into a wire Entry.
func EntryFor(section Section) (Entry, error) {
	payload, err := Encode(section)
	if err != nil {
		return Entry{}, err
	}
	return Entry{Key: string(section.Key()), Value: payload}, nil
}

// Lookup finds key in entries and decodes it into T. A missing entry yields the defaults
// together with ErrNotFound so callers may render defaults and still notice the gap.
func Lookup[T Section](entries []Entry, key Key) (T, error) {
	var zero T

	raw := json.RawMessage(nil)
	found := false
	for _, entry := range entries {
		if normalise(entry.Key) == string(key) {
			raw = entry.Value
			found = true
			break
		}
	}

	section, err := Decode(string(key), raw)
	if err != nil {
		return zero, err
	}
	typed, ok := section.(T)
	if !ok {
		return zero, fmt.Errorf("siteconfig: %s holds %T, not %T", key, section, zero)
	}
	if !found {
		return typed, ErrNotFound
	}
	return typed, nil
}

func normalise(key string) string {
	return strings.ToLower(strings.TrimSpace(key))
}
