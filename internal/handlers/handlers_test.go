package handlers

import (
	"log/slog"
	"os"

	"github.com/jwebster45206/critfumble/pkg/tables"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelError, // Reduce noise in tests
	}))
}

func entry(key, text string) tables.Entry {
	return tables.Entry{Key: tables.ParseKey(key), Outcome: tables.Outcome{Text: text}}
}

func testRepo() *tables.Repository {
	primary := tables.CritFumbleDocument{
		CritTables: map[string]tables.Table{
			"slashing": {entry("1-20", "A clean cut.")},
			"fire":     {entry("1-20", "Scorched.")},
		},
		Fumbles: tables.Table{entry("1-100", "You stumble.")},
		Sources: map[string]tables.SourceDocument{
			"grim": {
				CritTables: map[string]tables.Table{"slashing": {entry("1-100", "Cut: bleed")}},
				Fumbles:    map[string]tables.Table{"general": {entry("1-100", "Trip: fall prone")}},
			},
		},
	}
	arcana := tables.SourceDocument{
		CritTables: map[string]tables.Table{"slashing": {entry("1-100", "Runes. Effect: blind")}},
		Fumbles: map[string]tables.Table{
			"Weapon Attack": {{Key: tables.ParseKey("1-100"), Outcome: tables.Outcome{Description: "Slip.", Effect: "Prone."}}},
		},
	}
	return tables.NewRepository(primary, arcana)
}
