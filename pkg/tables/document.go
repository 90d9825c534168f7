package tables

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

// Default file names inside the data directory.
const (
	PrimaryDocumentFile = "crits_and_fumbles.json"
	ArcanaDocumentFile  = "fumbles_arcana.json"
)

// CritFumbleDocument is the primary table document. Its top level is the
// default source; Sources carries any additional text-based sources.
type CritFumbleDocument struct {
	CritTables    map[string]Table          `json:"crit_tables"`
	Fumbles       Table                     `json:"fumbles"`
	MinorInjuries Table                     `json:"minor_injuries"`
	MajorInjuries Table                     `json:"major_injuries"`
	Insanities    Table                     `json:"insanities"`
	Sources       map[string]SourceDocument `json:"sources,omitempty"`
}

// SourceDocument holds one source's crit tables and fumble buckets.
type SourceDocument struct {
	CritTables map[string]Table `json:"crit_tables"`
	Fumbles    map[string]Table `json:"fumbles"`
}

// ReadPrimaryDocument decodes the primary document at path.
func ReadPrimaryDocument(path string) (CritFumbleDocument, error) {
	var doc CritFumbleDocument
	if err := readJSON(path, &doc); err != nil {
		return CritFumbleDocument{}, err
	}
	return doc, nil
}

// ReadSourceDocument decodes a list-based source document at path.
func ReadSourceDocument(path string) (SourceDocument, error) {
	var doc SourceDocument
	if err := readJSON(path, &doc); err != nil {
		return SourceDocument{}, err
	}
	return doc, nil
}

func readJSON(path string, v any) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read table document %s: %w", path, err)
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("failed to parse table document %s: %w", path, err)
	}
	return nil
}

// LoadDir builds a Repository from the two documents in dir.
func LoadDir(dir string) (*Repository, error) {
	primary, err := ReadPrimaryDocument(filepath.Join(dir, PrimaryDocumentFile))
	if err != nil {
		return nil, err
	}
	arcana, err := ReadSourceDocument(filepath.Join(dir, ArcanaDocumentFile))
	if err != nil {
		return nil, err
	}
	return NewRepository(primary, arcana), nil
}
