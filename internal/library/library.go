// Package library holds the reference data recognition runs against: template
// images keyed by "<category>_<name>" identifiers, and domain metadata for the
// entities those templates depict.
//
// A Library is built once at startup and is read-only afterwards, so it can be
// shared freely. Metadata lookups are case-insensitive and O(1): the name index
// is built when the library is constructed.
package library

import (
	"fmt"
	"image"
	"sort"
	"strings"
)

// Category groups templates by the kind of entity they depict.
type Category string

const (
	CategoryMinion Category = "minion"
	CategoryHero   Category = "hero"
)

// Prefix returns the identifier prefix of the category, e.g. "minion_".
func (c Category) Prefix() string { return string(c) + "_" }

// TemplateID joins a category and a name into a template identifier.
func TemplateID(c Category, name string) string { return c.Prefix() + name }

// Template is a reference image for one entity.
type Template struct {
	ID    string
	Image image.Image
}

// MinionRecord is the static metadata of a minion.
type MinionRecord struct {
	Name   string `json:"name"`
	Attack int    `json:"attack"`
	Health int    `json:"health"`
	Tier   int    `json:"tier"`
	Tribe  string `json:"tribe"`
}

// HeroRecord is the static metadata of a hero.
type HeroRecord struct {
	Name   string `json:"name"`
	Health int    `json:"health"`
	Armor  int    `json:"armor"`
}

// Library is the immutable template and metadata store.
type Library struct {
	templates map[string]*Template
	ids       []string

	minions map[string]MinionRecord
	heroes  map[string]HeroRecord
}

// New builds a library. Template identifiers must be unique. Metadata records
// with an empty name are ignored; when two records share a name
// (case-insensitively) the first one wins.
func New(templates []Template, minions []MinionRecord, heroes []HeroRecord) (*Library, error) {
	l := &Library{
		templates: make(map[string]*Template, len(templates)),
		ids:       make([]string, 0, len(templates)),
		minions:   make(map[string]MinionRecord, len(minions)),
		heroes:    make(map[string]HeroRecord, len(heroes)),
	}

	for i := range templates {
		t := templates[i]
		if t.ID == "" || t.Image == nil {
			return nil, fmt.Errorf("template %d: missing id or image", i)
		}
		if _, dup := l.templates[t.ID]; dup {
			return nil, fmt.Errorf("duplicate template id %q", t.ID)
		}
		l.templates[t.ID] = &t
		l.ids = append(l.ids, t.ID)
	}
	sort.Strings(l.ids)

	for _, m := range minions {
		key := normalize(m.Name)
		if key == "" {
			continue
		}
		if _, seen := l.minions[key]; !seen {
			l.minions[key] = m
		}
	}
	for _, h := range heroes {
		key := normalize(h.Name)
		if key == "" {
			continue
		}
		if _, seen := l.heroes[key]; !seen {
			l.heroes[key] = h
		}
	}

	return l, nil
}

func normalize(name string) string {
	return strings.ToLower(name)
}

// Template returns the template registered under id.
func (l *Library) Template(id string) (*Template, bool) {
	t, ok := l.templates[id]
	return t, ok
}

// TemplateIDs returns, in ascending order, every identifier starting with prefix.
func (l *Library) TemplateIDs(prefix string) []string {
	start := sort.SearchStrings(l.ids, prefix)
	end := start
	for end < len(l.ids) && strings.HasPrefix(l.ids[end], prefix) {
		end++
	}
	return l.ids[start:end:end]
}

// Minion looks up minion metadata by name, ignoring case.
func (l *Library) Minion(name string) (MinionRecord, bool) {
	m, ok := l.minions[normalize(name)]
	return m, ok
}

// Hero looks up hero metadata by name, ignoring case.
func (l *Library) Hero(name string) (HeroRecord, bool) {
	h, ok := l.heroes[normalize(name)]
	return h, ok
}

// Stats summarises library contents.
type Stats struct {
	Templates int `json:"templates"`
	Minions   int `json:"minions"`
	Heroes    int `json:"heroes"`
}

// Stats returns the number of templates and metadata records.
func (l *Library) Stats() Stats {
	return Stats{
		Templates: len(l.ids),
		Minions:   len(l.minions),
		Heroes:    len(l.heroes),
	}
}
