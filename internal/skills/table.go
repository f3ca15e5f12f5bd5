// Package skills folds skill names onto canonical forms and knows which skills are related.
package skills

import (
	"bytes"
	_ "embed"
	"fmt"
	"sort"
	"strings"
	"sync"
	"unicode"

	"github.com/spf13/viper"
)

//go:embed skills.yaml
var defaultTable []byte

type synonymEntry struct {
	Canonical string   `mapstructure:"canonical"`
	Aliases   []string `mapstructure:"aliases"`
}

// Table is an immutable skill lookup table.
type Table struct {
	canonical map[string]string
	groups    map[string][]int
}

var (
	defaultOnce  sync.Once
	defaultValue *Table
)

// Default returns the built-in lookup table.
func Default() *Table {
	defaultOnce.Do(func() {
		table, err := parse(bytes.NewReader(defaultTable), "yaml")
		if err != nil {
			panic(fmt.Sprintf("parsing built-in skills table: %v", err))
		}
		defaultValue = table
	})
	return defaultValue
}

// Load reads a lookup table from a YAML/JSON/TOML file. An empty path yields the built-in table.
func Load(path string) (*Table, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return Default(), nil
	}

	v := viper.New()
	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("reading skills table %q: %w", path, err)
	}

	return fromViper(v)
}

func parse(r *bytes.Reader, kind string) (*Table, error) {
	v := viper.New()
	v.SetConfigType(kind)
	if err := v.ReadConfig(r); err != nil {
		return nil, err
	}
	return fromViper(v)
}

func fromViper(v *viper.Viper) (*Table, error) {
	var synonyms []synonymEntry
	if err := v.UnmarshalKey("synonyms", &synonyms); err != nil {
		return nil, fmt.Errorf("decoding synonyms: %w", err)
	}

	var related [][]string
	if err := v.UnmarshalKey("related", &related); err != nil {
		return nil, fmt.Errorf("decoding related groups: %w", err)
	}

	return New(synonyms2map(synonyms), related), nil
}

func synonyms2map(entries []synonymEntry) map[string][]string {
	out := make(map[string][]string, len(entries))
	for _, entry := range entries {
		out[entry.Canonical] = append(out[entry.Canonical], entry.Aliases...)
	}
	return out
}

// New builds a table from canonical -> aliases and groups of related skills.
func New(synonyms map[string][]string, related [][]string) *Table {
	t := &Table{
		canonical: make(map[string]string),
		groups:    make(map[string][]int),
	}

	for canonical, aliases := range synonyms {
		c := Normalize(canonical)
		if c == "" {
			continue
		}
		t.canonical[c] = c
		for _, alias := range aliases {
			if a := Normalize(alias); a != "" {
				t.canonical[a] = c
			}
		}
	}

	for i, group := range related {
		for _, skill := range group {
			c := t.Canonical(skill)
			if c == "" {
				continue
			}
			t.groups[c] = append(t.groups[c], i)
		}
	}

	return t
}

// Normalize lowercases the skill, drops punctuation other than dots, '#' and '+', and collapses spaces.
func Normalize(skill string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(skill) {
		switch {
		case unicode.IsLetter(r), unicode.IsDigit(r), r == '.', r == '#', r == '+', r == '_':
			b.WriteRune(r)
		case unicode.IsSpace(r), r == '-', r == '/':
			b.WriteRune(' ')
		}
	}
	return strings.TrimRight(strings.Join(strings.Fields(b.String()), " "), ".")
}

// Canonical returns the canonical form of the skill, or its normalized form when unknown.
func (t *Table) Canonical(skill string) string {
	n := Normalize(skill)
	if t == nil {
		return n
	}
	if c, ok := t.canonical[n]; ok {
		return c
	}
	return n
}

// Related reports whether two different skills share a related group.
func (t *Table) Related(a, b string) bool {
	if t == nil {
		return false
	}
	ca, cb := t.Canonical(a), t.Canonical(b)
	if ca == "" || cb == "" || ca == cb {
		return false
	}
	for _, ga := range t.groups[ca] {
		for _, gb := range t.groups[cb] {
			if ga == gb {
				return true
			}
		}
	}
	return false
}

// Known returns every canonical skill and alias, longest first.
func (t *Table) Known() []string {
	if t == nil {
		return nil
	}
	seen := make(map[string]struct{}, len(t.canonical)+len(t.groups))
	for alias := range t.canonical {
		seen[alias] = struct{}{}
	}
	for skill := range t.groups {
		seen[skill] = struct{}{}
	}

	out := make([]string, 0, len(seen))
	for skill := range seen {
		out = append(out, skill)
	}
	sort.Slice(out, func(i, j int) bool {
		if len(out[i]) != len(out[j]) {
			return len(out[i]) > len(out[j])
		}
		return out[i] < out[j]
	})
	return out
}

// TokenOverlap returns the share of tokens of target found in candidate.
func TokenOverlap(target, candidate string) float64 {
	want := strings.Fields(Normalize(target))
	if len(want) == 0 {
		return 0
	}
	have := make(map[string]struct{})
	for _, token := range strings.Fields(Normalize(candidate)) {
		have[token] = struct{}{}
	}
	hits := 0
	for _, token := range want {
		if _, ok := have[token]; ok {
			hits++
		}
	}
	return float64(hits) / float64(len(want))
}
