package draft

import (
	"context"
	stderrors "errors"
	"sync"
	"time"

	"github.com/ducminhle1904/dca-strategy-wizard/internal/logger"
	"github.com/ducminhle1904/dca-strategy-wizard/internal/monitoring"
	"github.com/ducminhle1904/dca-strategy-wizard/pkg/advisory"
	"github.com/ducminhle1904/dca-strategy-wizard/pkg/condition"
)

// LoadAndMigrate loads the saved draft and repairs every condition whose
// subject or target no longer resolves against the current definitions.
// A missing draft yields a fresh one named name. The second return value is
// the number of conditions that were repaired.
func LoadAndMigrate(ctx context.Context, store Store, lookup condition.DefinitionLookup, name string) (*BotDraft, int, error) {
	d, err := store.Load(ctx)
	if stderrors.Is(err, ErrNoDraft) {
		return New(name), 0, nil
	}
	if err != nil {
		return nil, 0, err
	}

	if d.Entry == nil {
		d.Entry = condition.NewEntryRuleSet()
		return d, 0, nil
	}

	migrated, changed := condition.MigrateRuleSet(d.Entry, lookup)
	d.Entry = migrated
	monitoring.RecordMigrations(changed)
	return d, changed, nil
}

// AutoSaver writes the draft after edits settle. It is the only writer of
// the store while a wizard session is open.
type AutoSaver struct {
	store     Store
	debouncer *advisory.Debouncer
	logger    *logger.Logger

	mu      sync.Mutex
	lastErr error
	saves   int
}

// NewAutoSaver creates an auto-saver with the given quiescence delay
func NewAutoSaver(store Store, delay time.Duration, log *logger.Logger) *AutoSaver {
	if log == nil {
		log = logger.Nop()
	}
	return &AutoSaver{
		store:     store,
		debouncer: advisory.NewDebouncer(delay),
		logger:    log,
	}
}

// Changed schedules a save of d as it is now. Later edits to d are not
// seen by the pending save.
func (a *AutoSaver) Changed(d *BotDraft) {
	snapshot := d.Clone()
	a.debouncer.Trigger(func() {
		a.save(snapshot)
	})
}

// Flush saves any pending snapshot now and returns the last save error
func (a *AutoSaver) Flush() error {
	a.debouncer.Flush()
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.lastErr
}

// Stop drops any pending save
func (a *AutoSaver) Stop() {
	a.debouncer.Stop()
}

// Saves returns how many saves have completed
func (a *AutoSaver) Saves() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.saves
}

func (a *AutoSaver) save(d *BotDraft) {
	err := a.store.Save(context.Background(), d)

	a.mu.Lock()
	defer a.mu.Unlock()
	a.lastErr = err
	if err != nil {
		a.logger.Error("auto-save failed", err)
		return
	}
	a.saves++
	a.logger.Debugf("draft %q auto-saved", d.Name)
}
