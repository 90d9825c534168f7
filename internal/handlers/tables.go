package handlers

import (
	"log/slog"
	"net/http"

	"github.com/jwebster45206/critfumble/pkg/dice"
	"github.com/jwebster45206/critfumble/pkg/roll"
	"github.com/jwebster45206/critfumble/pkg/tables"
)

type SourceSummary struct {
	ID             roll.SourceID  `json:"id"`
	Name           string         `json:"name"`
	CritDie        string         `json:"critDie"`
	FumbleDie      string         `json:"fumbleDie"`
	CritCategories []string       `json:"critCategories"`
	FumbleBuckets  []string       `json:"fumbleBuckets"`
	SecondaryRolls []roll.Trigger `json:"secondaryRolls"`
}

type TablesHandler struct {
	sources []SourceSummary
	log     *slog.Logger
}

// NewTablesHandler snapshots the loaded sources; the repository never changes.
func NewTablesHandler(repo *tables.Repository, log *slog.Logger) *TablesHandler {
	summaries := make([]SourceSummary, 0, len(roll.AllSources()))
	for _, src := range roll.AllSources() {
		id := string(src.ID())
		if !repo.HasSource(id) {
			continue
		}
		summaries = append(summaries, SourceSummary{
			ID:             src.ID(),
			Name:           src.DisplayName(),
			CritDie:        src.CritDie().String(),
			FumbleDie:      dice.D100.String(),
			CritCategories: repo.Categories(id),
			FumbleBuckets:  repo.Buckets(id),
			SecondaryRolls: []roll.Trigger{roll.TriggerMinor, roll.TriggerMajor, roll.TriggerInsanity},
		})
	}

	return &TablesHandler{
		sources: summaries,
		log:     log,
	}
}

func (h *TablesHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	writeJSON(w, h.log, http.StatusOK, map[string]any{"sources": h.sources})
}
