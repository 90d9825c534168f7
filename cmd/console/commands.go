package main

import (
	"fmt"
	"strings"

	"github.com/jwebster45206/critfumble/pkg/roll"
)

// Command is one parsed line of console input.
type Command struct {
	Name string
	Args []string
}

const helpText = `Commands:
• crit <damage type> [magic subtype]  roll a critical hit
• fumble [weapon|magic|melee|ranged]  roll a fumble
• bonus                               roll the pending bonus roll
• source <name>                       switch rules (smackdown, arcana, grim)
• tables                              list sources and damage types
• history [n]                         show recent rolls
• copy                                copy the last narrative
• share                               post the last narrative to the webhook
• help                                show this help
• quit                                exit
`

var commandAliases = map[string]string{
	"c":    "crit",
	"f":    "fumble",
	"b":    "bonus",
	"s":    "source",
	"h":    "history",
	"q":    "quit",
	"exit": "quit",
	"?":    "help",
}

var knownCommands = map[string]bool{
	"crit": true, "fumble": true, "bonus": true, "source": true, "tables": true,
	"history": true, "copy": true, "share": true, "help": true, "quit": true,
}

// ParseCommand splits input into a command name and arguments. A leading
// slash is optional.
func ParseCommand(input string) (Command, error) {
	fields := strings.Fields(strings.TrimPrefix(strings.TrimSpace(input), "/"))
	if len(fields) == 0 {
		return Command{}, fmt.Errorf("empty command")
	}

	name := strings.ToLower(fields[0])
	if alias, ok := commandAliases[name]; ok {
		name = alias
	}
	if !knownCommands[name] {
		return Command{}, fmt.Errorf("unknown command %q, type help for a list", fields[0])
	}
	return Command{Name: name, Args: fields[1:]}, nil
}

// Session holds the console's roll state between commands.
type Session struct {
	Source  string
	Pending *roll.Result
}

// PrimaryRequest builds the roll request for a crit or fumble command.
func (s Session) PrimaryRequest(cmd Command) (roll.Request, error) {
	req := roll.Request{
		RollContext: string(roll.ContextPrimary),
		RollType:    cmd.Name,
		Source:      s.Source,
	}

	switch cmd.Name {
	case "crit":
		if len(cmd.Args) > 0 {
			req.DamageType = cmd.Args[0]
		}
		if len(cmd.Args) > 1 {
			req.MagicSubtype = strings.Join(cmd.Args[1:], " ")
		}
	case "fumble":
		if len(cmd.Args) > 0 {
			req.AttackType = attackType(cmd.Args[0])
		}
	default:
		return roll.Request{}, fmt.Errorf("%s is not a roll", cmd.Name)
	}
	return req, nil
}

// BonusRequest builds the secondary roll for the pending result.
func (s Session) BonusRequest() (roll.Request, error) {
	if s.Pending == nil || !s.Pending.PendingSecondary() {
		return roll.Request{}, fmt.Errorf("no bonus roll pending")
	}
	value := s.Pending.RollValue
	text := s.Pending.ResultText
	if text == "" {
		text = s.Pending.NarrativeText()
	}
	return roll.Request{
		RollContext:       string(roll.ContextSecondary),
		RollType:          string(s.Pending.SecondaryType),
		PrimaryRollValue:  &value,
		PrimaryResultText: text,
	}, nil
}

// attackType restores the capitalization the structured tables expect.
func attackType(arg string) string {
	switch strings.ToLower(arg) {
	case "weapon":
		return "Weapon"
	case "magic", "spell":
		return "Magic"
	default:
		return arg
	}
}
