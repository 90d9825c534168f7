package tables

import (
	"slices"
	"strings"
)

// Source names known to the loader.
const (
	PrimarySource = "smackdown"
	ArcanaSource  = "arcana"
)

// GeneralBucket is the fallback fumble bucket.
const GeneralBucket = "general"

// Secondary table names.
const (
	MinorInjuries = "minor_injuries"
	MajorInjuries = "major_injuries"
	Insanities    = "insanities"
)

type family struct {
	crits   map[string]Table
	fumbles map[string]Table
}

// Repository holds every rule table, grouped by source. It is built once and
// never mutated, so concurrent readers need no locking.
type Repository struct {
	families  map[string]family
	secondary map[string]Table
}

// NewRepository builds a repository from the two table documents.
func NewRepository(primary CritFumbleDocument, arcana SourceDocument) *Repository {
	r := &Repository{
		families:  make(map[string]family),
		secondary: make(map[string]Table),
	}

	r.families[PrimarySource] = family{
		crits:   normalizeTables(primary.CritTables),
		fumbles: normalizeTables(map[string]Table{GeneralBucket: primary.Fumbles}),
	}

	for name, doc := range primary.Sources {
		key := Normalize(name)
		if key == "" || key == PrimarySource || key == ArcanaSource {
			continue
		}
		r.families[key] = family{
			crits:   normalizeTables(doc.CritTables),
			fumbles: normalizeTables(doc.Fumbles),
		}
	}

	r.families[ArcanaSource] = family{
		crits:   normalizeTables(arcana.CritTables),
		fumbles: normalizeTables(arcana.Fumbles),
	}

	r.secondary[MinorInjuries] = slices.Clone(primary.MinorInjuries)
	r.secondary[MajorInjuries] = slices.Clone(primary.MajorInjuries)
	r.secondary[Insanities] = slices.Clone(primary.Insanities)

	return r
}

// Normalize lower-cases and trims a source, category, or bucket key.
func Normalize(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

func normalizeTables(in map[string]Table) map[string]Table {
	out := make(map[string]Table, len(in))
	for name, t := range in {
		key := Normalize(name)
		if _, exists := out[key]; exists {
			continue
		}
		out[key] = slices.Clone(t)
	}
	return out
}

// Lookup returns the crit table for category within source.
func (r *Repository) Lookup(source, category string) (Table, bool) {
	f, ok := r.families[Normalize(source)]
	if !ok {
		return nil, false
	}
	t, ok := f.crits[Normalize(category)]
	return t, ok
}

// Bucket returns the fumble bucket for source. A bucket that exists but is
// empty is reported as found with zero entries.
func (r *Repository) Bucket(source, bucket string) (Table, bool) {
	f, ok := r.families[Normalize(source)]
	if !ok {
		return nil, false
	}
	t, ok := f.fumbles[Normalize(bucket)]
	return t, ok
}

// Secondary returns one of the shared secondary tables.
func (r *Repository) Secondary(name string) (Table, bool) {
	t, ok := r.secondary[Normalize(name)]
	return t, ok
}

// HasSource reports whether tables were loaded for source.
func (r *Repository) HasSource(source string) bool {
	_, ok := r.families[Normalize(source)]
	return ok
}

// Sources returns the loaded source names, sorted.
func (r *Repository) Sources() []string {
	names := make([]string, 0, len(r.families))
	for name := range r.families {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

// Categories returns the crit categories for source, sorted.
func (r *Repository) Categories(source string) []string {
	f, ok := r.families[Normalize(source)]
	if !ok {
		return []string{}
	}
	names := make([]string, 0, len(f.crits))
	for name := range f.crits {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

// Buckets returns the fumble bucket names for source, sorted.
func (r *Repository) Buckets(source string) []string {
	f, ok := r.families[Normalize(source)]
	if !ok {
		return []string{}
	}
	names := make([]string, 0, len(f.fumbles))
	for name := range f.fumbles {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}
