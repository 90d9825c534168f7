package main

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/jwebster45206/critfumble/pkg/tables"
)

func main() {
	dir := "./data"
	if len(os.Args) > 1 {
		dir = os.Args[1]
	}

	validator := &TableValidator{}
	if err := validator.validateDir(dir); err != nil {
		fmt.Fprintf(os.Stderr, "Validation failed: %v\n", err)
		os.Exit(1)
	}

	for _, w := range validator.warnings {
		fmt.Println("warning:" + strings.TrimPrefix(w, "  -"))
	}
	fmt.Println("Table documents are valid!")
}

// TableValidator checks rule table documents. Errors make a table unusable;
// warnings flag rolls that will fall through to the miss text or to an
// earlier overlapping entry.
type TableValidator struct {
	errors   []string
	warnings []string
}

func (v *TableValidator) validateDir(dir string) error {
	v.errors, v.warnings = nil, nil

	primaryPath := filepath.Join(dir, tables.PrimaryDocumentFile)
	fmt.Printf("Validating %s...\n", primaryPath)
	primary, err := tables.ReadPrimaryDocument(primaryPath)
	if err != nil {
		return err
	}

	arcanaPath := filepath.Join(dir, tables.ArcanaDocumentFile)
	fmt.Printf("Validating %s...\n", arcanaPath)
	arcana, err := tables.ReadSourceDocument(arcanaPath)
	if err != nil {
		return err
	}

	v.validatePrimary(primary)
	v.validateSource(tables.ArcanaSource, arcana, 100)

	if len(v.errors) > 0 {
		return fmt.Errorf("validation errors in %s:\n%s", dir, strings.Join(v.errors, "\n"))
	}
	return nil
}

func (v *TableValidator) validatePrimary(doc tables.CritFumbleDocument) {
	if len(doc.CritTables) == 0 {
		v.addError(tables.PrimarySource + " has no crit tables")
	}
	for _, name := range sortedNames(doc.CritTables) {
		v.validateTable(fmt.Sprintf("%s crit table %q", tables.PrimarySource, name), doc.CritTables[name], 20)
	}
	v.validateTable(tables.PrimarySource+" fumbles", doc.Fumbles, 100)
	v.validateTable(tables.MinorInjuries, doc.MinorInjuries, 20)
	v.validateTable(tables.MajorInjuries, doc.MajorInjuries, 20)
	v.validateTable(tables.Insanities, doc.Insanities, 20)

	for _, name := range sortedNames(doc.Sources) {
		v.validateSource(name, doc.Sources[name], 100)
	}
}

func (v *TableValidator) validateSource(name string, doc tables.SourceDocument, faces int) {
	if len(doc.CritTables) == 0 && len(doc.Fumbles) == 0 {
		v.addError(fmt.Sprintf("source %q has no tables", name))
		return
	}
	for _, category := range sortedNames(doc.CritTables) {
		v.validateTable(fmt.Sprintf("%s crit table %q", name, category), doc.CritTables[category], faces)
	}
	for _, bucket := range sortedNames(doc.Fumbles) {
		// An empty bucket is allowed; lookups fall through to the general bucket.
		if len(doc.Fumbles[bucket]) == 0 {
			v.addWarning(fmt.Sprintf("%s fumble bucket %q is empty", name, bucket))
			continue
		}
		v.validateTable(fmt.Sprintf("%s fumble bucket %q", name, bucket), doc.Fumbles[bucket], 100)
	}
}

// validateTable checks keys and coverage of 1..faces.
func (v *TableValidator) validateTable(label string, t tables.Table, faces int) {
	if len(t) == 0 {
		v.addError(label + " is empty")
		return
	}

	covered := make([]int, faces+1)
	for i, e := range t {
		switch {
		case !e.Key.Valid:
			v.addError(fmt.Sprintf("%s entry %d has malformed key %q", label, i+1, e.Key.Raw))
			continue
		case e.Key.Start > e.Key.End:
			v.addError(fmt.Sprintf("%s entry %d has reversed range %q", label, i+1, e.Key.Raw))
			continue
		case e.Key.Start < 1 || e.Key.End > faces:
			v.addWarning(fmt.Sprintf("%s key %q is outside 1-%d", label, e.Key.Raw, faces))
		}
		if strings.TrimSpace(e.Outcome.String()) == "" {
			v.addError(fmt.Sprintf("%s key %q has no text", label, e.Key.Raw))
		}

		overlapped := false
		for n := max(e.Key.Start, 1); n <= min(e.Key.End, faces); n++ {
			if covered[n] > 0 && !overlapped {
				v.addWarning(fmt.Sprintf("%s key %q overlaps entry %d at %d", label, e.Key.Raw, covered[n], n))
				overlapped = true
			}
			if covered[n] == 0 {
				covered[n] = i + 1
			}
		}
	}

	var gaps []string
	for n := 1; n <= faces; n++ {
		if covered[n] != 0 {
			continue
		}
		end := n
		for end < faces && covered[end+1] == 0 {
			end++
		}
		if end == n {
			gaps = append(gaps, fmt.Sprintf("%d", n))
		} else {
			gaps = append(gaps, fmt.Sprintf("%d-%d", n, end))
		}
		n = end
	}
	if len(gaps) > 0 {
		v.addWarning(fmt.Sprintf("%s does not cover %s", label, strings.Join(gaps, ", ")))
	}
}

func (v *TableValidator) addError(msg string) {
	v.errors = append(v.errors, "  - "+msg)
}

func (v *TableValidator) addWarning(msg string) {
	v.warnings = append(v.warnings, "  - "+msg)
}

func sortedNames[T any](m map[string]T) []string {
	names := make([]string, 0, len(m))
	for name := range m {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
