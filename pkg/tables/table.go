package tables

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// MissText is returned by Resolve when no key in the table covers the roll.
const MissText = "No result found."

// Key is a table key: either an exact value ("7") or an inclusive range ("1-5").
// Keys that fail to parse are kept so the declaration order stays intact,
// but they never match a roll.
type Key struct {
	Raw   string
	Start int
	End   int
	Range bool
	Valid bool
}

// ParseKey parses a table key. It never fails; malformed keys are marked invalid.
func ParseKey(raw string) Key {
	k := Key{Raw: raw}
	s := strings.TrimSpace(raw)
	if s == "" {
		return k
	}

	if start, end, ok := strings.Cut(s, "-"); ok {
		lo, errLo := strconv.Atoi(strings.TrimSpace(start))
		hi, errHi := strconv.Atoi(strings.TrimSpace(end))
		if errLo != nil || errHi != nil {
			return k
		}
		k.Start, k.End, k.Range, k.Valid = lo, hi, true, true
		return k
	}

	v, err := strconv.Atoi(s)
	if err != nil {
		return k
	}
	k.Start, k.End, k.Valid = v, v, true
	return k
}

// Matches reports whether the key covers value.
func (k Key) Matches(value int) bool {
	if !k.Valid {
		return false
	}
	if k.Range {
		return k.Start <= value && value <= k.End
	}
	return k.Start == value
}

func (k Key) String() string {
	return k.Raw
}

// Outcome is the payload of a table entry. Text-keyed documents fill Text;
// list-based documents fill Description and Effect.
type Outcome struct {
	Text        string `json:"text,omitempty"`
	Description string `json:"description,omitempty"`
	Effect      string `json:"effect,omitempty"`
}

// Structured reports whether the outcome came from a description/effect record.
func (o Outcome) Structured() bool {
	return o.Text == "" && (o.Description != "" || o.Effect != "")
}

// String renders the outcome as a single line of text.
func (o Outcome) String() string {
	if !o.Structured() {
		return o.Text
	}
	return strings.TrimSpace(o.Description + " Effect: " + o.Effect)
}

// Entry is one (key, outcome) pair.
type Entry struct {
	Key     Key
	Outcome Outcome
}

// Table is an ordered list of entries. Declaration order is the tie-break
// order when ranges overlap.
type Table []Entry

// Match returns the first entry, in declaration order, whose key covers value.
func (t Table) Match(value int) (Entry, bool) {
	for _, e := range t {
		if e.Key.Matches(value) {
			return e, true
		}
	}
	return Entry{}, false
}

// Resolve returns the outcome text of the first entry covering value, or
// MissText when nothing matches. It is a pure function of its inputs.
func Resolve(value int, table Table) string {
	if e, ok := table.Match(value); ok {
		return e.Outcome.String()
	}
	return MissText
}

// listEntry is the wire shape of a list-based table entry.
type listEntry struct {
	Roll        string `json:"roll"`
	Description string `json:"description"`
	Effect      string `json:"effect"`
}

// UnmarshalJSON decodes either an object of key -> text (keeping key order)
// or a list of {roll, description, effect} records.
func (t *Table) UnmarshalJSON(data []byte) error {
	trimmed := bytes.TrimSpace(data)
	if bytes.Equal(trimmed, []byte("null")) {
		*t = nil
		return nil
	}

	if len(trimmed) > 0 && trimmed[0] == '[' {
		var items []listEntry
		if err := json.Unmarshal(trimmed, &items); err != nil {
			return fmt.Errorf("failed to decode list table: %w", err)
		}
		out := make(Table, 0, len(items))
		for _, item := range items {
			out = append(out, Entry{
				Key: ParseKey(item.Roll),
				Outcome: Outcome{
					Description: item.Description,
					Effect:      item.Effect,
				},
			})
		}
		*t = out
		return nil
	}

	dec := json.NewDecoder(bytes.NewReader(trimmed))
	tok, err := dec.Token()
	if err != nil {
		return fmt.Errorf("failed to read table: %w", err)
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return fmt.Errorf("table must be an object or a list, got %v", tok)
	}

	out := make(Table, 0)
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return fmt.Errorf("failed to read table key: %w", err)
		}
		raw, ok := tok.(string)
		if !ok {
			return fmt.Errorf("unexpected table key %v", tok)
		}

		var text string
		if err := dec.Decode(&text); err != nil {
			return fmt.Errorf("table key %q: %w", raw, err)
		}
		out = append(out, Entry{Key: ParseKey(raw), Outcome: Outcome{Text: text}})
	}

	if _, err := dec.Token(); err != nil {
		return fmt.Errorf("failed to close table: %w", err)
	}

	*t = out
	return nil
}
