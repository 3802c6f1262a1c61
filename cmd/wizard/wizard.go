package main

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/ducminhle1904/dca-strategy-wizard/internal/config"
	"github.com/ducminhle1904/dca-strategy-wizard/internal/errors"
	"github.com/ducminhle1904/dca-strategy-wizard/internal/exchange/bybit"
	"github.com/ducminhle1904/dca-strategy-wizard/internal/logger"
	"github.com/ducminhle1904/dca-strategy-wizard/internal/monitoring"
	"github.com/ducminhle1904/dca-strategy-wizard/pkg/advisory"
	"github.com/ducminhle1904/dca-strategy-wizard/pkg/catalog"
	"github.com/ducminhle1904/dca-strategy-wizard/pkg/condition"
	"github.com/ducminhle1904/dca-strategy-wizard/pkg/data"
	"github.com/ducminhle1904/dca-strategy-wizard/pkg/draft"
	"github.com/ducminhle1904/dca-strategy-wizard/pkg/reporting"
	"github.com/ducminhle1904/dca-strategy-wizard/pkg/validation"
)

const wizardComponent = "wizard"

type options struct {
	name          string
	symbols       string
	addTrigger    string
	addSupport    string
	timeframe     string
	list          bool
	pairings      string
	noRemote      bool
	verifySymbols bool
	exportXLSX    string
	exportJSON    string
	save          bool
	clear         bool
}

// wizard holds the collaborators of one session
type wizard struct {
	cfg     *config.Config
	logger  *logger.Logger
	health  *monitoring.HealthChecker
	catalog *data.Catalog
	advisor *advisory.Advisor
	store   draft.Store
	console *reporting.DefaultConsoleReporter
	out     io.Writer
	files   *reporting.DefaultExcelReporter

	metricsServer *http.Server
	closers       []func() error
}

func newWizard(ctx context.Context, cfg *config.Config, log *logger.Logger, out io.Writer) (*wizard, error) {
	httpProvider := data.NewHTTPProvider(data.HTTPConfig{
		BaseURL:      cfg.Service.URL,
		ReadTimeout:  cfg.Service.ReadTimeout,
		ProbeTimeout: cfg.Service.ProbeTimeout,
	}, nil)
	cached := data.NewCachedProvider(httpProvider, cfg.Service.CacheTTL, log.Component("catalog-cache"))
	health := monitoring.NewHealthChecker()
	cat := data.NewCatalog(cached, health, log.Component("catalog"))

	w := &wizard{
		cfg:     cfg,
		logger:  log,
		health:  health,
		catalog: cat,
		advisor: advisory.NewAdvisor(advisory.NewHTTPClient(httpProvider), cat, cfg.Advisory.Debounce, cfg.Service.ReadTimeout, log.Component("advisory")),
		console: reporting.NewDefaultConsoleReporter(out),
		out:     out,
		files:   reporting.NewDefaultExcelReporter(),
	}

	store, err := w.openStore(ctx)
	if err != nil {
		return nil, err
	}
	w.store = store

	if cfg.Monitoring.MetricsAddr != "" {
		w.startMetrics(cfg.Monitoring.MetricsAddr)
	}
	return w, nil
}

func (w *wizard) openStore(ctx context.Context) (draft.Store, error) {
	switch w.cfg.Draft.Store {
	case config.StoreRedis:
		rs := draft.NewRedisStore(draft.RedisConfig{
			Addr:     w.cfg.Redis.Addr,
			Password: w.cfg.Redis.Password,
			DB:       w.cfg.Redis.DB,
		})
		if err := rs.Ping(ctx); err != nil {
			rs.Close()
			return nil, err
		}
		w.closers = append(w.closers, rs.Close)
		w.logger.Infof("draft store: redis %s", w.cfg.Redis.Addr)
		return rs, nil
	default:
		fs, err := draft.NewFileStore(w.cfg.Draft.Path)
		if err != nil {
			return nil, err
		}
		w.logger.Infof("draft store: %s", fs.Path())
		return fs, nil
	}
}

func (w *wizard) startMetrics(addr string) {
	r := chi.NewRouter()
	r.Handle("/metrics", monitoring.NewMetricsHandler())
	r.Handle("/status", w.health)

	w.metricsServer = &http.Server{
		Addr:              addr,
		Handler:           r,
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		if err := w.metricsServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			w.logger.Error("metrics server failed", err)
		}
	}()
	w.logger.Infof("metrics available on %s/metrics", addr)
}

// Close releases the advisor, the store and the metrics server
func (w *wizard) Close() {
	w.advisor.Close()
	for _, closeFn := range w.closers {
		if err := closeFn(); err != nil {
			w.logger.LogWarning("close failed", err)
		}
	}
	if w.metricsServer != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		w.metricsServer.Shutdown(ctx)
	}
}

// Run executes one wizard pass: probe, load and migrate the draft, apply
// edits, review every condition and persist the draft.
func (w *wizard) Run(ctx context.Context, opts options) error {
	if err := w.catalog.Probe(ctx); err != nil {
		switch {
		case errors.IsTimeout(err):
			w.logger.Warnf("catalog service probe timed out, working offline: %v", err)
		case errors.IsTransient(err):
			w.logger.Warnf("catalog service unreachable, working offline: %v", err)
		default:
			w.logger.Error("catalog service probe rejected, working offline", err)
		}
	}

	if opts.list {
		return w.printCatalog(ctx)
	}
	if opts.pairings != "" {
		def, err := w.catalog.GetDefinition(ctx, opts.pairings)
		if err != nil {
			return err
		}
		w.console.PrintPairings(def)
		return nil
	}

	if opts.clear {
		if err := w.store.Clear(ctx); err != nil {
			return err
		}
		w.logger.Info("saved draft discarded")
	}

	d, repaired, err := draft.LoadAndMigrate(ctx, w.store, w.catalog.Lookup(ctx), opts.name)
	if err != nil {
		return fmt.Errorf("failed to load draft: %w", err)
	}
	if repaired > 0 {
		w.logger.Infof("repaired %d condition(s) against the current indicator definitions", repaired)
	}

	edited, err := w.applyEdits(ctx, d, opts)
	if err != nil {
		return err
	}

	local := d.Issues()
	monitoring.RecordValidation(len(local))
	remote := w.review(ctx, d, opts.noRemote)

	if opts.verifySymbols {
		issues, err := w.verifySymbols(ctx, d)
		if err != nil {
			w.logger.LogWarning("symbol verification failed", err)
		}
		remote = append(remote, issues...)
	}

	report := validation.Merge(local, remote)
	w.console.PrintDraft(d)
	w.console.PrintIssues("ISSUES", report.Local)
	if len(report.Remote) > 0 {
		w.console.PrintIssues("ADVISORIES", report.Remote)
	}
	if report.Savable() {
		fmt.Fprintln(w.out, "Draft is ready to create a bot.")
	}

	if opts.save && (edited || repaired > 0) {
		saver := draft.NewAutoSaver(w.store, w.cfg.Advisory.Debounce, w.logger.Component("draft"))
		saver.Changed(d)
		err := saver.Flush()
		saver.Stop()
		if err != nil {
			return fmt.Errorf("failed to save draft: %w", err)
		}
	}

	if opts.exportJSON != "" {
		if err := w.files.WriteJSON(d, opts.exportJSON); err != nil {
			return err
		}
		w.logger.Infof("draft written to %s", opts.exportJSON)
	}
	if opts.exportXLSX != "" {
		return w.exportWorkbook(ctx, report.Issues, opts.exportXLSX)
	}
	return nil
}

func (w *wizard) printCatalog(ctx context.Context) error {
	summaries, err := w.catalog.ListIndicators(ctx)
	if err != nil {
		return err
	}
	w.console.PrintCatalog(summaries, w.catalog.Offline())
	return nil
}

// applyEdits applies the command line changes; true means d changed
func (w *wizard) applyEdits(ctx context.Context, d *draft.BotDraft, opts options) (bool, error) {
	edited := false
	if opts.name != "" && opts.name != d.Name {
		d.Name = opts.name
		edited = true
	}
	if opts.symbols != "" {
		d.Symbols = strings.Split(opts.symbols, ",")
		d.NormalizeSymbols()
		edited = true
	}

	if opts.addTrigger != "" {
		c, err := w.newCondition(ctx, opts.addTrigger, opts.timeframe)
		if err != nil {
			return edited, err
		}
		if !placeTrigger(d.Entry, c) {
			return edited, errors.NewValidationError(wizardComponent, "add trigger", "both main trigger slots are in use")
		}
		edited = true
	}
	if opts.addSupport != "" {
		c, err := w.newCondition(ctx, opts.addSupport, opts.timeframe)
		if err != nil {
			return edited, err
		}
		if d.Entry.SetA == nil {
			d.Entry.SetA = &condition.SupportingGroup{Logic: condition.LogicAnd}
		}
		d.Entry.SetA.Conditions = append(d.Entry.SetA.Conditions, c)
		edited = true
	}
	return edited, nil
}

func (w *wizard) newCondition(ctx context.Context, indicator, timeframe string) (condition.Condition, error) {
	def, err := w.catalog.GetDefinition(ctx, indicator)
	if err != nil {
		return condition.Condition{}, err
	}
	c, ok := condition.NewCondition(def, timeframe)
	if !ok {
		return condition.Condition{}, errors.NewValidationError(wizardComponent, "new condition", fmt.Sprintf("indicator %s has no usable pairings", def.ID))
	}
	return c, nil
}

// placeTrigger puts c in the first free main trigger slot
func placeTrigger(rules *condition.EntryRuleSet, c condition.Condition) bool {
	for i := range rules.MainTriggers {
		if rules.MainTriggers[i] == nil {
			rules.MainTriggers[i] = &c
			return true
		}
	}
	return false
}

// review runs the remote checks for every condition and prints the result
// table. It returns the remote issues, prefixed with the condition label.
func (w *wizard) review(ctx context.Context, d *draft.BotDraft, noRemote bool) []string {
	var rows []reporting.ReviewRow
	var remote []string

	d.Entry.Each(func(label string, c *condition.Condition) {
		var result *advisory.Result
		if !noRemote {
			payload := advisory.FromCondition(*c)
			r := w.advisor.Check(ctx, payload)
			if w.advisor.Accept(r, payload) {
				result = &r
			}
		}

		review := advisory.ReviewCondition(*c, result)
		for _, issue := range review.Report.Remote {
			remote = append(remote, label+": "+issue)
		}
		rows = append(rows, reporting.ReviewRow{
			Label:    label,
			Sentence: review.Sentence,
			Remote:   review.Remote,
			Issues:   len(review.Report.Issues),
		})
	})

	if len(rows) > 0 {
		w.console.PrintReviews(rows)
	}
	return remote
}

func (w *wizard) verifySymbols(ctx context.Context, d *draft.BotDraft) ([]string, error) {
	client := bybit.NewClient(bybit.Config{
		APIKey:    os.Getenv("BYBIT_API_KEY"),
		APISecret: os.Getenv("BYBIT_API_SECRET"),
		Testnet:   w.cfg.Exchange.Testnet,
	})
	w.logger.Infof("verifying symbols on bybit %s (%s)", w.cfg.Exchange.Category, client.GetEnvironment())
	verifier := bybit.NewSymbolVerifier(client, w.cfg.Exchange.Category)
	return verifier.Verify(ctx, d.Symbols, d.Capital.BaseAmount)
}

func (w *wizard) exportWorkbook(ctx context.Context, issues []string, path string) error {
	summaries, err := w.catalog.ListIndicators(ctx)
	if err != nil {
		return err
	}

	defs := make([]*catalog.IndicatorDefinition, 0, len(summaries))
	for _, s := range summaries {
		def, err := w.catalog.GetDefinition(ctx, s.ID)
		if err != nil {
			w.logger.LogWarning("skipping "+s.ID+" in export", err)
			continue
		}
		defs = append(defs, def)
	}

	if err := w.files.WriteCatalogXLSX(defs, issues, path); err != nil {
		return err
	}
	w.logger.Infof("workbook written to %s", path)
	return nil
}
