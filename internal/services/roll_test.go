package services

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	eventlog "github.com/jwebster45206/critfumble/internal/storage"
	"github.com/jwebster45206/critfumble/pkg/dice"
	"github.com/jwebster45206/critfumble/pkg/narrative"
	"github.com/jwebster45206/critfumble/pkg/roll"
	"github.com/jwebster45206/critfumble/pkg/storage"
	"github.com/jwebster45206/critfumble/pkg/tables"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fixedSource struct{ value int }

func (f fixedSource) Intn(n int) int { return (f.value - 1) % n }

type staticLocator struct {
	loc   narrative.Location
	calls int
}

func (s *staticLocator) Resolve(ctx context.Context, addr string) narrative.Location {
	s.calls++
	return s.loc
}

func testRepo() *tables.Repository {
	primary := tables.CritFumbleDocument{
		CritTables: map[string]tables.Table{
			"slashing": {
				{Key: tables.ParseKey("1-10"), Outcome: tables.Outcome{Text: "A glancing slash."}},
				{Key: tables.ParseKey("11-20"), Outcome: tables.Outcome{Text: "You carve a Major Injury into your foe."}},
			},
		},
		Fumbles: tables.Table{
			{Key: tables.ParseKey("1-100"), Outcome: tables.Outcome{Text: "You stumble."}},
		},
		MajorInjuries: tables.Table{
			{Key: tables.ParseKey("1-20"), Outcome: tables.Outcome{Text: "Shattered kneecap."}},
		},
	}
	return tables.NewRepository(primary, tables.SourceDocument{})
}

func newTestRollService(value int, locator LocationResolver, events storage.EventLog) *RollService {
	rng := fixedSource{value: value}
	engine := roll.NewEngine(testRepo(), dice.NewRoller(rng))
	return NewRollService(engine, narrative.NewComposer(rng), locator, events, quietLogger())
}

func TestRollService_AppendsNarrative(t *testing.T) {
	events := storage.NewMockEventLog()
	locator := &staticLocator{loc: narrative.Location{City: "Lyon", Region: "Auvergne"}}
	svc := newTestRollService(15, locator, events)

	res, err := svc.Roll(context.Background(), roll.Request{RollType: "crit", DamageType: "slashing"}, "8.8.8.8")
	require.NoError(t, err)
	assert.True(t, res.Succeeded())
	assert.True(t, res.PendingSecondary())

	entries := events.Entries()
	require.Len(t, entries, 1)
	assert.Contains(t, entries[0].Narrative, "from Lyon, Auvergne, rolled 15 on Smack Down Critical Hit (Slashing)")
	assert.True(t, strings.HasSuffix(entries[0].Narrative, narrative.PendingSuffix))
	assert.Equal(t, "crit", entries[0].Request.RollType)
	assert.Same(t, res, entries[0].Result)
	assert.Equal(t, entries[0].Narrative, res.Narrative)
	assert.Equal(t, time.UTC, entries[0].Timestamp.Location())
}

func TestRollService_InvalidInputNotLogged(t *testing.T) {
	events := storage.NewMockEventLog()
	locator := &staticLocator{}
	svc := newTestRollService(5, locator, events)

	for _, req := range []roll.Request{
		{RollType: "crit", DamageType: "radiant"},
		{RollType: "sneeze"},
		{RollContext: "tertiary"},
		{RollType: "fumble", Source: "homebrew"},
	} {
		_, err := svc.Roll(context.Background(), req, "8.8.8.8")
		assert.ErrorIs(t, err, roll.ErrInvalidInput)
	}
	assert.Empty(t, events.Entries())
	assert.Zero(t, locator.calls)
}

func TestRollService_AppendFailureAbsorbed(t *testing.T) {
	events := storage.NewMockEventLog()
	events.SetAppendError(errors.New("read-only file system"))
	svc := newTestRollService(40, &staticLocator{loc: LocalLocation}, events)

	res, err := svc.Roll(context.Background(), roll.Request{RollType: "fumble"}, "127.0.0.1")
	require.NoError(t, err)
	assert.Equal(t, "You stumble.", res.ResultText)
}

func TestRollService_GeoTimeoutStillLogs(t *testing.T) {
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	defer srv.Close()
	defer close(release)

	events := storage.NewMockEventLog()
	geo := NewGeoResolver(srv.URL, 50*time.Millisecond, nil, 0, quietLogger())
	svc := newTestRollService(3, geo, events)

	res, err := svc.Roll(context.Background(), roll.Request{RollType: "crit"}, "8.8.8.8")
	require.NoError(t, err)
	assert.True(t, res.Succeeded())

	entries := events.Entries()
	require.Len(t, entries, 1)
	assert.Equal(t, TimeoutLocation, entries[0].Location)
	assert.Contains(t, entries[0].Narrative, "from a realm beyond reach, the mists of time, rolled 3")
	assert.NotContains(t, entries[0].Narrative, "8.8.8.8")
}

func TestRollService_SecondaryEchoesPrimary(t *testing.T) {
	events := storage.NewMockEventLog()
	svc := newTestRollService(9, &staticLocator{loc: LocalLocation}, events)

	value := 15
	res, err := svc.Roll(context.Background(), roll.Request{
		RollContext:       "secondary",
		RollType:          "major",
		PrimaryRollValue:  &value,
		PrimaryResultText: "You carve a Major Injury into your foe.",
	}, "")
	require.NoError(t, err)
	assert.Equal(t, "Shattered kneecap.", res.SecondaryResultText)

	entries := events.Entries()
	require.Len(t, entries, 1)
	assert.Contains(t, entries[0].Narrative, "rolled 9 on Major Injury, resulting in: “Shattered kneecap.”")
}

func TestRollService_History(t *testing.T) {
	events := storage.NewMockEventLog()
	svc := newTestRollService(15, &staticLocator{loc: LocalLocation}, events)
	for i := 0; i < 3; i++ {
		_, err := svc.Roll(context.Background(), roll.Request{RollType: "fumble"}, "")
		require.NoError(t, err)
	}

	items, err := svc.History(context.Background(), 0)
	require.NoError(t, err)
	assert.Len(t, items, 3)

	events.SetRecentError(errors.New("boom"))
	_, err = svc.History(context.Background(), 5)
	assert.Error(t, err)
}

func TestRollService_CancelledRequestStillLogs(t *testing.T) {
	store, err := eventlog.NewFileStore(filepath.Join(t.TempDir(), "logs"), "", "", quietLogger())
	require.NoError(t, err)
	svc := newTestRollService(15, &staticLocator{loc: narrative.Location{City: "Lyon", Region: "Auvergne"}}, store)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	res, err := svc.Roll(ctx, roll.Request{RollType: "crit", DamageType: "slashing"}, "8.8.8.8")
	require.NoError(t, err)
	assert.True(t, res.Succeeded())

	items, err := store.Recent(context.Background(), storage.MaxHistory)
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, res.Narrative, items[0].Narrative)
}
