// Package roll resolves critical hits, fumbles, and the bonus rolls they
// trigger against the loaded rule tables.
package roll

import (
	"fmt"
	"strings"

	"github.com/jwebster45206/critfumble/pkg/dice"
	"github.com/jwebster45206/critfumble/pkg/tables"
)

type triggerPhrase struct {
	phrase  string
	trigger Trigger
	prompt  string
}

// Checked in order; the first phrase found wins.
var triggerPhrases = []triggerPhrase{
	{phrase: "minor injury", trigger: TriggerMinor, prompt: "Minor Injury!"},
	{phrase: "major injury", trigger: TriggerMajor, prompt: "Major Injury!"},
	{phrase: "insanity", trigger: TriggerInsanity, prompt: "Insanity!"},
}

// DetectTrigger scans text case-insensitively for a secondary trigger phrase.
func DetectTrigger(text string) (Trigger, string, bool) {
	lower := strings.ToLower(text)
	for _, tp := range triggerPhrases {
		if strings.Contains(lower, tp.phrase) {
			return tp.trigger, tp.prompt, true
		}
	}
	return "", "", false
}

type secondaryTable struct {
	table string
	label string
}

var secondaryTables = map[Trigger]secondaryTable{
	TriggerMinor:    {table: tables.MinorInjuries, label: "minor injury"},
	TriggerMajor:    {table: tables.MajorInjuries, label: "major injury"},
	TriggerInsanity: {table: tables.Insanities, label: "insanity"},
}

// Engine dispatches validated rolls to the right source and table. It holds
// no per-request state and is safe for concurrent use.
type Engine struct {
	repo   *tables.Repository
	roller *dice.Roller
}

// NewEngine returns an Engine reading from repo and rolling with roller.
func NewEngine(repo *tables.Repository, roller *dice.Roller) *Engine {
	return &Engine{repo: repo, roller: roller}
}

// Roll resolves r. Errors wrapping ErrInvalidInput describe a request that
// cannot be resolved; every other outcome, including table misses, succeeds.
func (e *Engine) Roll(r Roll) (*Result, error) {
	switch r := r.(type) {
	case CritRoll:
		return e.crit(r)
	case FumbleRoll:
		return e.fumble(r)
	case SecondaryRoll:
		return e.secondary(r)
	default:
		return nil, invalidf("unsupported roll %T", r)
	}
}

func (e *Engine) source(id SourceID) (Source, error) {
	src, ok := LookupSource(id)
	if !ok || !e.repo.HasSource(string(id)) {
		return nil, invalidf("unknown source: %q", id)
	}
	return src, nil
}

func (e *Engine) rollDie(spec dice.Spec) (dice.Roll, error) {
	rolled, err := e.roller.Roll(spec)
	if err != nil {
		return dice.Roll{}, fmt.Errorf("failed to roll %s: %w", spec, err)
	}
	return rolled, nil
}

func newResult(ctx Context, kind string, rolled dice.Roll) *Result {
	return &Result{
		Status:    StatusSuccess,
		Context:   ctx,
		Kind:      kind,
		RollValue: rolled.Total,
		NumDice:   rolled.Spec.Count,
		DieType:   rolled.Spec.DieType(),
		DieSpec:   rolled.Spec.String(),
	}
}

func (e *Engine) crit(r CritRoll) (*Result, error) {
	src, err := e.source(r.Source)
	if err != nil {
		return nil, err
	}

	category := src.CritCategory(r.DamageType, r.MagicSubtype)
	table, ok := e.repo.Lookup(string(src.ID()), category)
	if !ok {
		return nil, invalidf("invalid damage type for crit: %s", category)
	}

	rolled, err := e.rollDie(src.CritDie())
	if err != nil {
		return nil, err
	}

	res := newResult(ContextPrimary, string(KindCrit), rolled)
	res.Source = src.ID()
	res.Category = category
	res.TableName = fmt.Sprintf("%s critical hit (%s)", src.DisplayName(), category)

	text := tables.Resolve(rolled.Total, table)
	res.ResultText = text
	if src.Structured() {
		res.Description, res.Effect = src.Split(tables.Outcome{Text: text})
	}

	if trigger, prompt, ok := DetectTrigger(text); ok {
		res.IsSecondaryPrompt = true
		res.SecondaryType = trigger
		res.SecondaryPromptText = prompt
	}

	return res, nil
}

func (e *Engine) fumble(r FumbleRoll) (*Result, error) {
	src, err := e.source(r.Source)
	if err != nil {
		return nil, err
	}

	candidates := src.FumbleBuckets(r.AttackType)
	var (
		bucket string
		table  tables.Table
	)
	for _, name := range candidates {
		if t, ok := e.repo.Bucket(string(src.ID()), name); ok && len(t) > 0 {
			bucket, table = name, t
			break
		}
	}
	if bucket == "" {
		return nil, invalidf("no fumble entries for bucket: %s", candidates[0])
	}

	rolled, err := e.rollDie(dice.D100)
	if err != nil {
		return nil, err
	}

	res := newResult(ContextPrimary, string(KindFumble), rolled)
	res.Source = src.ID()
	res.Category = bucket

	if !src.Structured() {
		res.TableName = fmt.Sprintf("%s fumble", src.DisplayName())
		res.ResultText = tables.Resolve(rolled.Total, table)
		return res, nil
	}

	res.TableName = fmt.Sprintf("%s fumble (%s)", src.DisplayName(), bucket)
	if entry, ok := table.Match(rolled.Total); ok {
		res.Description, res.Effect = src.Split(entry.Outcome)
	} else {
		res.Description, res.Effect = NoFumbleDescription, EffectPlaceholder
	}
	return res, nil
}

func (e *Engine) secondary(r SecondaryRoll) (*Result, error) {
	st, ok := secondaryTables[r.Trigger]
	if !ok {
		return nil, invalidf("invalid secondary roll type: %q", r.Trigger)
	}
	table, ok := e.repo.Secondary(st.table)
	if !ok {
		return nil, invalidf("no table loaded for secondary roll type: %q", r.Trigger)
	}

	rolled, err := e.rollDie(dice.D20)
	if err != nil {
		return nil, err
	}

	res := newResult(ContextSecondary, string(r.Trigger), rolled)
	res.Category = string(r.Trigger)
	res.TableName = st.label
	res.SecondaryType = r.Trigger
	res.SecondaryResultText = tables.Resolve(rolled.Total, table)
	res.PrimaryRollValueForSecondary = r.PrimaryValue
	res.PrimaryResultForSecondary = r.PrimaryText
	return res, nil
}
