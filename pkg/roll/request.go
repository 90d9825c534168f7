package roll

import (
	"errors"
	"fmt"
	"strings"
)

// ErrInvalidInput marks requests that are structurally invalid: unknown
// context, kind, source, trigger, or an unresolved category. Callers see the
// message; nothing is logged to the event log.
var ErrInvalidInput = errors.New("invalid input")

func invalidf(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalidInput, fmt.Sprintf(format, args...))
}

// Context separates the first roll from its follow-up.
type Context string

const (
	ContextPrimary   Context = "primary"
	ContextSecondary Context = "secondary"
)

// Kind is the primary roll kind.
type Kind string

const (
	KindCrit   Kind = "crit"
	KindFumble Kind = "fumble"
)

// Trigger is the secondary table category raised by a primary crit.
type Trigger string

const (
	TriggerMinor    Trigger = "minor"
	TriggerMajor    Trigger = "major"
	TriggerInsanity Trigger = "insanity"
)

// Request is the wire form of a roll request. It is parsed into a typed
// Roll before reaching the engine.
type Request struct {
	RollContext       string `json:"rollContext,omitempty"`
	RollType          string `json:"rollType"`
	Source            string `json:"source,omitempty"`
	FumbleType        string `json:"fumbleType,omitempty"`
	DamageType        string `json:"damageType,omitempty"`
	MagicSubtype      string `json:"magicSubtype,omitempty"`
	AttackType        string `json:"attackType,omitempty"`
	PrimaryRollValue  *int   `json:"primaryRollValue,omitempty"`
	PrimaryResultText string `json:"primaryResultText,omitempty"`
}

// Roll is a validated request. Exactly one of CritRoll, FumbleRoll or
// SecondaryRoll.
type Roll interface {
	isRoll()
}

// CritRoll is a primary critical-hit roll.
type CritRoll struct {
	Source       SourceID
	DamageType   string
	MagicSubtype string
}

// FumbleRoll is a primary fumble roll.
type FumbleRoll struct {
	Source     SourceID
	AttackType string
}

// SecondaryRoll is the bonus roll opened by a primary trigger. The primary
// value and text are echoed back; the engine does not re-derive them.
type SecondaryRoll struct {
	Trigger      Trigger
	PrimaryValue *int
	PrimaryText  string
}

func (CritRoll) isRoll()      {}
func (FumbleRoll) isRoll()    {}
func (SecondaryRoll) isRoll() {}

// Parse validates req and returns the typed roll it describes.
func Parse(req Request) (Roll, error) {
	ctx := Context(strings.ToLower(strings.TrimSpace(req.RollContext)))
	if ctx == "" {
		ctx = ContextPrimary
	}
	rollType := strings.ToLower(strings.TrimSpace(req.RollType))

	switch ctx {
	case ContextPrimary:
		sourceName := req.Source
		if strings.TrimSpace(sourceName) == "" {
			sourceName = req.FumbleType
		}
		source, err := ParseSourceID(sourceName)
		if err != nil {
			return nil, err
		}

		switch Kind(rollType) {
		case KindCrit:
			return CritRoll{
				Source:       source,
				DamageType:   strings.TrimSpace(req.DamageType),
				MagicSubtype: strings.TrimSpace(req.MagicSubtype),
			}, nil
		case KindFumble:
			return FumbleRoll{
				Source:     source,
				AttackType: strings.TrimSpace(req.AttackType),
			}, nil
		default:
			return nil, invalidf("invalid primary roll type: %q", req.RollType)
		}

	case ContextSecondary:
		switch t := Trigger(rollType); t {
		case TriggerMinor, TriggerMajor, TriggerInsanity:
			return SecondaryRoll{
				Trigger:      t,
				PrimaryValue: req.PrimaryRollValue,
				PrimaryText:  req.PrimaryResultText,
			}, nil
		default:
			return nil, invalidf("invalid secondary roll type: %q", req.RollType)
		}

	default:
		return nil, invalidf("invalid roll context: %q", req.RollContext)
	}
}
