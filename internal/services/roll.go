package services

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/jwebster45206/critfumble/pkg/narrative"
	"github.com/jwebster45206/critfumble/pkg/roll"
	"github.com/jwebster45206/critfumble/pkg/storage"
)

// RollService runs the roll pipeline: validate, resolve, locate, narrate,
// append. It is safe for concurrent use.
type RollService struct {
	engine   *roll.Engine
	composer *narrative.Composer
	locator  LocationResolver
	events   storage.EventLog
	logger   *slog.Logger
}

// NewRollService wires the pipeline stages together.
func NewRollService(engine *roll.Engine, composer *narrative.Composer, locator LocationResolver, events storage.EventLog, logger *slog.Logger) *RollService {
	return &RollService{
		engine:   engine,
		composer: composer,
		locator:  locator,
		events:   events,
		logger:   logger,
	}
}

// Roll resolves req for the caller at addr. Errors wrapping
// roll.ErrInvalidInput mean nothing was rolled or logged. A failed log append
// is reported only in the server log.
func (s *RollService) Roll(ctx context.Context, req roll.Request, addr string) (*roll.Result, error) {
	parsed, err := roll.Parse(req)
	if err != nil {
		return nil, err
	}

	res, err := s.engine.Roll(parsed)
	if err != nil {
		return nil, err
	}

	loc := s.locator.Resolve(ctx, addr)
	sentence := s.composer.Compose(res, loc)
	res.Narrative = sentence

	// The roll already happened; a client hanging up must not drop the entry.
	entry := storage.NewLogEntry(sentence, loc, req, res)
	if err := s.events.Append(context.WithoutCancel(ctx), entry); err != nil {
		s.logger.Error("Failed to append roll to event log",
			"error", err,
			"entry_id", entry.ID.String())
	}

	s.logger.Debug("Roll resolved",
		"entry_id", entry.ID.String(),
		"source", res.Source,
		"table", res.TableName,
		"roll_value", res.RollValue,
		"secondary_pending", res.PendingSecondary())
	return res, nil
}

// History returns up to limit recent narratives, newest first.
func (s *RollService) History(ctx context.Context, limit int) ([]storage.HistoryItem, error) {
	items, err := s.events.Recent(ctx, storage.ClampLimit(limit))
	if err != nil {
		return nil, fmt.Errorf("failed to read history: %w", err)
	}
	return items, nil
}
