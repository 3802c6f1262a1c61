package draft

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ducminhle1904/dca-strategy-wizard/internal/errors"
	"github.com/ducminhle1904/dca-strategy-wizard/internal/logger"
	"github.com/ducminhle1904/dca-strategy-wizard/pkg/catalog"
	"github.com/ducminhle1904/dca-strategy-wizard/pkg/condition"
)

func fallbackLookup(name string) (*catalog.IndicatorDefinition, bool) {
	return catalog.Fallback(name)
}

func readyDraft(t *testing.T) *BotDraft {
	t.Helper()
	d := New("btc-scalper")
	d.Symbols = []string{"BTCUSDT"}
	c, ok := condition.NewCondition(catalog.FallbackRSI(), "1h")
	require.True(t, ok)
	d.Entry.MainTriggers[0] = &c
	return d
}

func TestNew_NeedsSymbolsAndTrigger(t *testing.T) {
	d := New("grid-1")
	assert.Equal(t, []string{
		"at least one symbol is required",
		"at least one main trigger is required",
	}, d.Issues())
	assert.False(t, d.Savable())

	assert.True(t, readyDraft(t).Savable())
}

func TestBotDraft_MetadataIssues(t *testing.T) {
	d := readyDraft(t)
	d.Name = " "
	d.Capital.BaseAmount = 2000
	d.Risk.TPPercent = 0
	d.DCA.StepScale = 0.5

	assert.Equal(t, []string{
		"bot name is required",
		"base amount 2000.00 exceeds capital 1000.00",
		"TP percent must be within (0, 1.00], got 0.0000",
		"DCA step scale must be at least 1.0, got: 0.50",
	}, d.Issues())

	// DCA settings are ignored when no safety orders are placed
	d = readyDraft(t)
	d.DCA.MaxOrders = 0
	d.DCA.StepPercent = 0
	assert.Empty(t, d.Issues())
}

func TestBotDraft_EntryIssuesFollowMetadata(t *testing.T) {
	d := readyDraft(t)
	d.Symbols = nil
	d.Entry.MainTriggers[0].Comparison = condition.Literal(150)

	assert.Equal(t, []string{
		"at least one symbol is required",
		"Main trigger 1: value 150 is above the maximum of 100",
	}, d.Issues())
}

func TestBotDraft_NormalizeSymbols(t *testing.T) {
	d := New("x")
	d.Symbols = []string{"btcusdt", " ETHUSDT ", "", "BTCUSDT"}
	d.NormalizeSymbols()
	assert.Equal(t, []string{"BTCUSDT", "ETHUSDT"}, d.Symbols)
}

func TestFileStore_RoundTrip(t *testing.T) {
	store, err := NewFileStore(t.TempDir())
	require.NoError(t, err)
	ctx := context.Background()

	_, err = store.Load(ctx)
	assert.ErrorIs(t, err, ErrNoDraft)

	d := readyDraft(t)
	require.NoError(t, store.Save(ctx, d))
	assert.False(t, d.UpdatedAt.IsZero())

	loaded, err := store.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, d.Name, loaded.Name)
	assert.Equal(t, d.Symbols, loaded.Symbols)
	assert.Equal(t, d.Capital, loaded.Capital)
	require.NotNil(t, loaded.Entry.MainTriggers[0])
	assert.Equal(t, *d.Entry.MainTriggers[0], *loaded.Entry.MainTriggers[0])
	assert.Nil(t, loaded.Entry.MainTriggers[1])

	require.NoError(t, store.Clear(ctx))
	_, err = store.Load(ctx)
	assert.ErrorIs(t, err, ErrNoDraft)
	assert.NoError(t, store.Clear(ctx), "clearing twice is fine")
}

func TestFileStore_CorruptDocument(t *testing.T) {
	store, err := NewFileStore(t.TempDir())
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(store.Path(), []byte(`{"name":`), 0644))

	_, err = store.Load(context.Background())
	require.Error(t, err)
	assert.True(t, errors.IsCategory(err, errors.ErrorCategoryDecode))
}

func TestLoadAndMigrate(t *testing.T) {
	ctx := context.Background()
	store, err := NewFileStore(t.TempDir())
	require.NoError(t, err)

	d, repaired, err := LoadAndMigrate(ctx, store, fallbackLookup, "fresh")
	require.NoError(t, err)
	assert.Equal(t, 0, repaired)
	assert.Equal(t, "fresh", d.Name)
	require.NotNil(t, d.Entry)

	saved := readyDraft(t)
	saved.Entry.MainTriggers[0].Subject = catalog.ComponentSubject{Component: "histogram"}
	require.NoError(t, store.Save(ctx, saved))

	d, repaired, err = LoadAndMigrate(ctx, store, fallbackLookup, "ignored")
	require.NoError(t, err)
	assert.Equal(t, 1, repaired)
	assert.Equal(t, "btc-scalper", d.Name)
	assert.Equal(t, catalog.ComponentSubject{Component: "line"}, d.Entry.MainTriggers[0].Subject)
	assert.True(t, d.Savable())
}

func TestLoadAndMigrate_DraftWithoutEntry(t *testing.T) {
	ctx := context.Background()
	store, err := NewFileStore(t.TempDir())
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(store.Path(), []byte(`{"name":"legacy","symbols":["ETHUSDT"]}`), 0644))

	d, repaired, err := LoadAndMigrate(ctx, store, fallbackLookup, "")
	require.NoError(t, err)
	assert.Equal(t, 0, repaired)
	require.NotNil(t, d.Entry)
	assert.Equal(t, condition.TimingOnBarClose, d.Entry.Timing)
}

func TestAutoSaver_SavesLatestSnapshot(t *testing.T) {
	store, err := NewFileStore(t.TempDir())
	require.NoError(t, err)
	saver := NewAutoSaver(store, time.Hour, logger.Nop())
	defer saver.Stop()

	d := readyDraft(t)
	saver.Changed(d)
	d.Name = "renamed"
	saver.Changed(d)

	require.NoError(t, saver.Flush())
	assert.Equal(t, 1, saver.Saves())

	loaded, err := store.Load(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "renamed", loaded.Name)
}

func TestRedisStore_UnreachableIsStorageError(t *testing.T) {
	store := NewRedisStore(RedisConfig{Addr: "127.0.0.1:1"})
	defer store.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()

	err := store.Ping(ctx)
	require.Error(t, err)
	assert.True(t, errors.IsCategory(err, errors.ErrorCategoryStorage))

	_, err = store.Load(ctx)
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrNoDraft)
}

func TestAutoSaver_SnapshotIgnoresLaterEdits(t *testing.T) {
	store, err := NewFileStore(t.TempDir())
	require.NoError(t, err)
	saver := NewAutoSaver(store, time.Hour, logger.Nop())
	defer saver.Stop()

	d := readyDraft(t)
	d.Name = "first"
	saver.Changed(d)

	d.Name = "second"
	d.Entry.MainTriggers[0].Comparison.Value = 45
	d.Entry.MainTriggers[0] = nil
	d.Symbols[0] = "ETHUSDT"

	require.NoError(t, saver.Flush())

	loaded, err := store.Load(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "first", loaded.Name)
	assert.Equal(t, []string{"BTCUSDT"}, loaded.Symbols)
	require.NotNil(t, loaded.Entry.MainTriggers[0])
	assert.Equal(t, condition.Literal(30), loaded.Entry.MainTriggers[0].Comparison)
}

func TestBotDraft_CloneIsDeep(t *testing.T) {
	d := readyDraft(t)
	d.Entry.SetA = &condition.SupportingGroup{Logic: condition.LogicOr, Conditions: []condition.Condition{*d.Entry.MainTriggers[0]}}

	clone := d.Clone()
	clone.Symbols[0] = "SOLUSDT"
	clone.Entry.MainTriggers[0].Timeframe = "1d"
	clone.Entry.SetA.Conditions[0].Indicator.Settings["period"] = 7.0

	assert.Equal(t, "BTCUSDT", d.Symbols[0])
	assert.Equal(t, "1h", d.Entry.MainTriggers[0].Timeframe)
	assert.Equal(t, 14.0, d.Entry.SetA.Conditions[0].Indicator.Settings["period"])
}
