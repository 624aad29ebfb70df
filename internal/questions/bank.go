// Package questions holds the static interview question catalog and the
// anti-repeat selection policy used when a new primary question is asked.
package questions

import (
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/spigell/interview-coach/internal/utils"
)

// Category groups questions of one kind inside a role pool.
type Category string

const (
	Behavioral Category = "behavioral"
	Technical  Category = "technical"
)

// DefaultRole is used when the candidate never names a known role.
const DefaultRole = "Software Engineer"

// ErrEmptyPool is returned when neither the role nor the default role has
// questions for a category.
var ErrEmptyPool = errors.New("question pool is empty")

//go:embed questions.json
var catalogJSON []byte

type catalog struct {
	Roles []Role `json:"roles"`
}

// Role is one catalog entry: a role name, free-text aliases that select it and
// its question pools.
type Role struct {
	Name      string                `json:"name"`
	Aliases   []string              `json:"aliases"`
	Questions map[Category][]string `json:"questions"`
}

// Bank is an immutable question catalog. It is safe for concurrent use.
type Bank struct {
	defaultRole string
	roles       []Role
	byName      map[string]int
}

// Default returns the bank built from the embedded catalog.
func Default() (*Bank, error) {
	return Load(catalogJSON, DefaultRole)
}

// Catalog returns a copy of the embedded JSON catalog.
func Catalog() []byte {
	out := make([]byte, len(catalogJSON))
	copy(out, catalogJSON)
	return out
}

// Load parses a JSON catalog. defaultRole must be one of the catalog roles.
func Load(data []byte, defaultRole string) (*Bank, error) {
	var c catalog
	if err := json.Unmarshal(data, &c); err != nil {
		return nil, fmt.Errorf("parse question catalog: %w", err)
	}

	return New(c.Roles, defaultRole)
}

// New builds a bank from role entries.
func New(roles []Role, defaultRole string) (*Bank, error) {
	if len(roles) == 0 {
		return nil, errors.New("question catalog has no roles")
	}

	b := &Bank{byName: make(map[string]int, len(roles))}
	for _, r := range roles {
		name := strings.TrimSpace(r.Name)
		if name == "" {
			return nil, errors.New("question catalog contains a role without a name")
		}
		if _, dup := b.byName[strings.ToLower(name)]; dup {
			return nil, fmt.Errorf("duplicate role %q in question catalog", name)
		}
		r.Name = name
		b.byName[strings.ToLower(name)] = len(b.roles)
		b.roles = append(b.roles, r)
	}

	defaultRole = strings.TrimSpace(defaultRole)
	if defaultRole == "" {
		defaultRole = b.roles[0].Name
	}
	idx, ok := b.byName[strings.ToLower(defaultRole)]
	if !ok {
		return nil, fmt.Errorf("default role %q is not in the question catalog", defaultRole)
	}
	b.defaultRole = b.roles[idx].Name

	return b, nil
}

// Roles returns role names in catalog order.
func (b *Bank) Roles() []string {
	names := make([]string, 0, len(b.roles))
	for _, r := range b.roles {
		names = append(names, r.Name)
	}
	return names
}

func (b *Bank) DefaultRole() string { return b.defaultRole }

// Known reports whether role is a catalog role (case-insensitive).
func (b *Bank) Known(role string) bool {
	_, ok := b.byName[strings.ToLower(strings.TrimSpace(role))]
	return ok
}

// Questions returns a copy of the pool for role and category, falling back to
// the default role's pool when role is unknown.
func (b *Bank) Questions(role string, category Category) []string {
	idx, ok := b.byName[strings.ToLower(strings.TrimSpace(role))]
	if !ok {
		idx = b.byName[strings.ToLower(b.defaultRole)]
	}

	pool := b.roles[idx].Questions[category]
	out := make([]string, len(pool))
	copy(out, pool)
	return out
}

// MatchRole finds the catalog role named in free text. Role names win over
// aliases; among aliases the longest matching phrase wins.
func (b *Bank) MatchRole(text string) (string, bool) {
	if strings.TrimSpace(text) == "" {
		return "", false
	}

	for _, r := range b.roles {
		if utils.ContainsPhrase(text, r.Name) {
			return r.Name, true
		}
	}

	match, longest := "", 0
	for _, r := range b.roles {
		for _, alias := range r.Aliases {
			n := len(utils.NormalizeText(alias))
			if n > longest && utils.ContainsPhrase(text, alias) {
				match, longest = r.Name, n
			}
		}
	}

	return match, match != ""
}

// Pick selects one question of category for role that is not in used. Once
// every question of the pool was used the whole pool becomes eligible again,
// so repeats only happen after novel content is exhausted.
func (b *Bank) Pick(role string, category Category, used []string, picker Picker) (string, error) {
	pool := b.Questions(role, category)
	if len(pool) == 0 {
		return "", fmt.Errorf("%w: role %q, category %q", ErrEmptyPool, role, category)
	}

	seen := make(map[string]struct{}, len(used))
	for _, q := range used {
		seen[q] = struct{}{}
	}

	fresh := make([]string, 0, len(pool))
	for _, q := range pool {
		if _, ok := seen[q]; !ok {
			fresh = append(fresh, q)
		}
	}
	if len(fresh) == 0 {
		fresh = pool
	}

	return fresh[picker.IntN(len(fresh))], nil
}
