// Package narrative turns roll results into one-line log sentences.
package narrative

import (
	"fmt"
	"strings"

	"github.com/jwebster45206/critfumble/pkg/dice"
	"github.com/jwebster45206/critfumble/pkg/roll"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// PendingSuffix is appended when a bonus roll was raised but not yet made.
const PendingSuffix = " (Bonus roll pending...)"

// Descriptors are the archetype phrases a roller is described with.
var Descriptors = []string{
	"an intrepid adventurer", "a curious scholar", "a daring rogue",
	"a wise wizard", "a valiant knight", "a mysterious stranger",
	"a lucky gambler", "an unfortunate soul", "a cautious traveler",
	"a brave hero", "a cunning strategist", "a wandering minstrel",
	"a forgotten deity", "a mischievous sprite", "a stoic guardian",
}

// Location is a display-safe place name. It never carries a raw address.
type Location struct {
	City   string `json:"city"`
	Region string `json:"region"`
}

func (l Location) String() string {
	switch {
	case l.City == "":
		return l.Region
	case l.Region == "":
		return l.City
	default:
		return l.City + ", " + l.Region
	}
}

// SplitArticle returns the capitalized article and the noun phrase for a
// descriptor. A leading "a"/"an" is reused; otherwise the article follows
// the first letter of the phrase.
func SplitArticle(descriptor string) (article, noun string) {
	descriptor = strings.TrimSpace(descriptor)
	first, rest, _ := strings.Cut(descriptor, " ")
	switch strings.ToLower(first) {
	case "a":
		return "A", strings.TrimSpace(rest)
	case "an":
		return "An", strings.TrimSpace(rest)
	}

	if descriptor != "" && strings.ContainsRune("aeiouAEIOU", rune(descriptor[0])) {
		return "An", descriptor
	}
	return "A", descriptor
}

// TableDisplayName title-cases a raw table label for presentation.
func TableDisplayName(raw string) string {
	if raw == "" {
		return "Unknown Table"
	}
	return cases.Title(language.English).String(raw)
}

// Composer builds narrative sentences. It is safe for concurrent use when
// its Source is.
type Composer struct {
	src         dice.Source
	descriptors []string
}

// NewComposer returns a Composer picking descriptors with src.
func NewComposer(src dice.Source) *Composer {
	return &Composer{src: src, descriptors: Descriptors}
}

// Compose renders one sentence for a successful result.
func (c *Composer) Compose(res *roll.Result, loc Location) string {
	descriptor := c.descriptors[c.src.Intn(len(c.descriptors))]
	article, noun := SplitArticle(descriptor)

	sentence := fmt.Sprintf("%s %s from %s, rolled %d on %s, resulting in: “%s”",
		article, noun, loc, res.RollValue, TableDisplayName(res.TableName),
		strings.TrimSpace(res.NarrativeText()))

	if res.PendingSecondary() {
		sentence += PendingSuffix
	}
	return sentence
}
