package roll

import (
	"strings"

	"github.com/jwebster45206/critfumble/pkg/dice"
	"github.com/jwebster45206/critfumble/pkg/tables"
)

// SourceID names a rule variant.
type SourceID string

const (
	SourceSmackDown SourceID = tables.PrimarySource
	SourceArcana    SourceID = tables.ArcanaSource
	SourceGrim      SourceID = "grim"
)

// FallbackCategory is used when a crit request names no damage type.
const FallbackCategory = "slashing"

// Placeholder texts for structured outcomes.
const (
	EffectPlaceholder     = "No additional effect."
	NoFumbleDescription   = "No matching fumble found."
	arcanaEffectDelimiter = " Effect: "
	grimEffectDelimiter   = ": "
)

var sourceAliases = map[string]SourceID{
	"":                   SourceSmackDown,
	"smackdown":          SourceSmackDown,
	"questionablearcana": SourceArcana,
	"arcana":             SourceArcana,
	"grimreckoning":      SourceGrim,
	"grim":               SourceGrim,
}

// ParseSourceID maps a source name or display name to its SourceID. An
// empty name selects the default source.
func ParseSourceID(name string) (SourceID, error) {
	key := strings.ToLower(name)
	key = strings.NewReplacer(" ", "", "_", "", "-", "").Replace(key)
	if id, ok := sourceAliases[key]; ok {
		return id, nil
	}
	return "", invalidf("unknown source: %q", name)
}

// Source is the strategy for one rule variant: which die it rolls, how it
// derives table keys, and how it formats outcomes.
type Source interface {
	ID() SourceID
	DisplayName() string
	CritDie() dice.Spec
	CritCategory(damageType, magicSubtype string) string
	// Structured reports whether outcomes are split into description and effect.
	Structured() bool
	// Split turns an outcome into a description/effect pair.
	Split(o tables.Outcome) (description, effect string)
	// FumbleBuckets lists candidate buckets for attackType, most specific first.
	FumbleBuckets(attackType string) []string
}

var sources = map[SourceID]Source{
	SourceSmackDown: smackDown{},
	SourceArcana:    arcana{},
	SourceGrim:      grim{},
}

// LookupSource returns the strategy for id.
func LookupSource(id SourceID) (Source, bool) {
	s, ok := sources[id]
	return s, ok
}

// AllSources returns every source in a stable order.
func AllSources() []Source {
	return []Source{sources[SourceSmackDown], sources[SourceArcana], sources[SourceGrim]}
}

func damageCategory(damageType, magicSubtype string) string {
	category := damageType
	if strings.EqualFold(strings.TrimSpace(damageType), "magic") {
		category = magicSubtype
	}
	category = tables.Normalize(category)
	if category == "" {
		return FallbackCategory
	}
	return category
}

func splitOn(o tables.Outcome, delimiter string) (string, string) {
	if o.Structured() {
		return o.Description, o.Effect
	}
	desc, effect, ok := strings.Cut(o.Text, delimiter)
	if !ok {
		return strings.TrimSpace(o.Text), EffectPlaceholder
	}
	return strings.TrimSpace(desc), strings.TrimSpace(effect)
}

// smackDown is the default single-d20 crit family with a flat fumble table.
type smackDown struct{}

func (smackDown) ID() SourceID        { return SourceSmackDown }
func (smackDown) DisplayName() string { return "Smack Down" }
func (smackDown) CritDie() dice.Spec  { return dice.D20 }
func (smackDown) Structured() bool    { return false }

func (smackDown) CritCategory(damageType, magicSubtype string) string {
	return damageCategory(damageType, magicSubtype)
}

func (smackDown) Split(o tables.Outcome) (string, string) {
	return o.String(), EffectPlaceholder
}

func (smackDown) FumbleBuckets(string) []string {
	return []string{tables.GeneralBucket}
}

// arcana is the list-based Questionable Arcana family.
type arcana struct{}

var arcanaBuckets = map[string]string{
	"weapon": "weapon attack",
	"magic":  "spell attack",
}

func (arcana) ID() SourceID        { return SourceArcana }
func (arcana) DisplayName() string { return "Questionable Arcana" }
func (arcana) CritDie() dice.Spec  { return dice.D100 }
func (arcana) Structured() bool    { return true }

func (arcana) CritCategory(damageType, _ string) string {
	category := tables.Normalize(damageType)
	if category == "" {
		return FallbackCategory
	}
	return category
}

func (arcana) Split(o tables.Outcome) (string, string) {
	return splitOn(o, arcanaEffectDelimiter)
}

func (arcana) FumbleBuckets(attackType string) []string {
	if bucket, ok := arcanaBuckets[tables.Normalize(attackType)]; ok {
		return []string{bucket}
	}
	return []string{arcanaBuckets["weapon"]}
}

// grim is the Grim Reckoning family: colon-delimited text and attack-range
// buckets with a general fallback.
type grim struct{}

func (grim) ID() SourceID        { return SourceGrim }
func (grim) DisplayName() string { return "Grim Reckoning" }
func (grim) CritDie() dice.Spec  { return dice.D100 }
func (grim) Structured() bool    { return true }

func (grim) CritCategory(damageType, magicSubtype string) string {
	return damageCategory(damageType, magicSubtype)
}

func (grim) Split(o tables.Outcome) (string, string) {
	return splitOn(o, grimEffectDelimiter)
}

func (grim) FumbleBuckets(attackType string) []string {
	switch bucket := tables.Normalize(attackType); bucket {
	case "melee", "ranged", "magic":
		return []string{bucket, tables.GeneralBucket}
	default:
		return []string{tables.GeneralBucket}
	}
}
