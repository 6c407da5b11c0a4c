package capinfo

import (
	"fmt"
	"sort"

	"github.com/hpungsan/termcaps/internal/errors"
)

// Database is a validated, read-only collection of profiles in dataset order.
type Database struct {
	profiles []Profile
	byName   map[string]int
	byTerm   map[string]int // first profile defining the term
	groups   map[string]*TermGroup
}

// TermGroup gathers the terminals that set the same $TERM value.
type TermGroup struct {
	Term string `json:"term"`
	// Members in dataset order.
	Members []Name `json:"members"`
	// MinCaps is the set of capabilities every member supports.
	MinCaps Caps `json:"min_caps"`
}

// New builds a database from already materialized profiles, e.g. a
// snapshot read back from storage. It applies the same name checks as Load
// and rejects profiles with unset variant fields.
func New(profiles []Profile) (*Database, error) {
	var errs errors.List
	for i, p := range profiles {
		if !ValidCompact(p.Name.Compact) {
			errs = append(errs, errors.NewInvalidValue(i, "name.compact",
				fmt.Sprintf("compact name %q must consist of alphanumerics, hyphens, or underscores", p.Name.Compact)))
		}
		if p.Caps.Style.SetColor == nil {
			errs = append(errs, errors.NewMissingField(i, "style.set-color"))
		}
		if p.Caps.Style.SetUnderline == nil {
			errs = append(errs, errors.NewMissingField(i, "style.set-underline"))
		}
	}
	errs = append(errs, checkNames(profiles)...)
	if len(errs) > 0 {
		return nil, errs
	}

	cp := make([]Profile, len(profiles))
	copy(cp, profiles)
	return newDatabase(cp), nil
}

// checkNames reports every compact name used by more than one profile.
// Empty names are skipped; they are reported where they are decoded.
func checkNames(profiles []Profile) errors.List {
	seen := make(map[string][]int)
	var order []string
	for i, p := range profiles {
		name := p.Name.Compact
		if name == "" {
			continue
		}
		if _, ok := seen[name]; !ok {
			order = append(order, name)
		}
		seen[name] = append(seen[name], i)
	}

	var errs errors.List
	for _, name := range order {
		if records := seen[name]; len(records) > 1 {
			errs = append(errs, errors.NewDuplicateCompactName(name, records))
		}
	}
	return errs
}

// newDatabase indexes profiles, which must already be validated.
func newDatabase(profiles []Profile) *Database {
	db := &Database{
		profiles: profiles,
		byName:   make(map[string]int, len(profiles)),
		byTerm:   make(map[string]int),
		groups:   make(map[string]*TermGroup),
	}
	for i, p := range profiles {
		db.byName[p.Name.Compact] = i

		if _, ok := db.byTerm[p.Name.Term]; !ok {
			db.byTerm[p.Name.Term] = i
		}

		g, ok := db.groups[p.Name.Term]
		if !ok {
			db.groups[p.Name.Term] = &TermGroup{
				Term:    p.Name.Term,
				Members: []Name{p.Name},
				MinCaps: p.Caps,
			}
			continue
		}
		g.Members = append(g.Members, p.Name)
		g.MinCaps = g.MinCaps.Min(p.Caps)
	}
	return db
}

// Len returns the number of profiles.
func (db *Database) Len() int {
	return len(db.profiles)
}

// Profiles returns every profile in dataset order.
func (db *Database) Profiles() []Profile {
	out := make([]Profile, len(db.profiles))
	copy(out, db.profiles)
	return out
}

// ByName returns the profile with the given compact name.
func (db *Database) ByName(compact string) (Profile, bool) {
	i, ok := db.byName[compact]
	if !ok {
		return Profile{}, false
	}
	return db.profiles[i], true
}

// ByTerm returns the first profile, in dataset order, whose $TERM value is
// term. This is a first match, not a best match: when several terminals
// share a value, reordering the dataset changes the answer.
func (db *Database) ByTerm(term string) (Profile, bool) {
	i, ok := db.byTerm[term]
	if !ok {
		return Profile{}, false
	}
	return db.profiles[i], true
}

// Resolve never fails. An exact compact name wins over a $TERM match, since
// $TERM is frequently generic or wrong; unknown identifiers get the
// Conservative profile.
func (db *Database) Resolve(identifier string) Profile {
	p, _ := db.Lookup(identifier)
	return p
}

// Match says which rule Lookup applied.
type Match string

const (
	MatchName         Match = "name"
	MatchTerm         Match = "term"
	MatchConservative Match = "conservative"
)

// Lookup is Resolve that also reports how the profile was found.
func (db *Database) Lookup(identifier string) (Profile, Match) {
	if p, ok := db.ByName(identifier); ok {
		return p, MatchName
	}
	if p, ok := db.ByTerm(identifier); ok {
		return p, MatchTerm
	}
	return Conservative(identifier), MatchConservative
}

// Terms returns every known $TERM value, sorted.
func (db *Database) Terms() []string {
	terms := make([]string, 0, len(db.groups))
	for t := range db.groups {
		terms = append(terms, t)
	}
	sort.Strings(terms)
	return terms
}

// Group returns the terminals that set term, with their shared capabilities.
func (db *Database) Group(term string) (TermGroup, bool) {
	g, ok := db.groups[term]
	if !ok {
		return TermGroup{}, false
	}
	out := *g
	out.Members = append([]Name(nil), g.Members...)
	return out, true
}
