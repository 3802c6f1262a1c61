package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/ducminhle1904/dca-strategy-wizard/cmd/common"
	"github.com/ducminhle1904/dca-strategy-wizard/internal/config"
)

func main() {
	fs := flag.NewFlagSet("wizard", flag.ExitOnError)
	flags := common.RegisterCommonFlags(fs)

	opts := options{}
	fs.StringVar(&opts.name, "name", "", "Bot name for a new draft (or rename the loaded one)")
	fs.StringVar(&opts.symbols, "symbols", "", "Comma-separated trading symbols (e.g. BTCUSDT,ETHUSDT)")
	fs.StringVar(&opts.addTrigger, "add-trigger", "", "Add a main trigger for this indicator with its defaults")
	fs.StringVar(&opts.addSupport, "add-support", "", "Add a Set A supporting condition for this indicator")
	fs.StringVar(&opts.timeframe, "timeframe", "1h", "Timeframe for added conditions")
	fs.BoolVar(&opts.list, "list", false, "List available indicators and exit")
	fs.StringVar(&opts.pairings, "pairings", "", "Show the pairing table of an indicator and exit")
	fs.BoolVar(&opts.noRemote, "no-remote", false, "Skip remote advisory checks")
	fs.BoolVar(&opts.verifySymbols, "verify-symbols", false, "Check symbols against the Bybit instrument listing")
	fs.StringVar(&opts.exportXLSX, "export", "", "Write the catalog and issues to an Excel workbook")
	fs.StringVar(&opts.exportJSON, "json", "", "Write the draft to a JSON file")
	fs.BoolVar(&opts.save, "save", true, "Save the draft when it has no local issues")
	fs.BoolVar(&opts.clear, "clear", false, "Discard the saved draft and start over")
	fs.Parse(os.Args[1:])

	usage := common.NewUsageFormatter("wizard", "DCA strategy entry-condition wizard").
		AddExample("wizard -list", "List indicators (offline falls back to built-ins)").
		AddExample("wizard -pairings MACD", "Show what MACD can be compared against").
		AddExample("wizard -name scalper -symbols BTCUSDT -add-trigger RSI", "Start a draft with an RSI trigger").
		AddExample("wizard -export results/catalog.xlsx", "Export catalog and issues")
	if common.CheckHelpAndVersion("wizard", flags, fs, usage) {
		return
	}

	validator := common.NewFlagValidator().ValidateCommon(flags)
	if store := os.Getenv("WIZARD_DRAFT_STORE"); store != "" {
		validator.ValidateChoice("WIZARD_DRAFT_STORE", strings.ToLower(store), []string{config.StoreFile, config.StoreRedis})
	}
	if opts.addTrigger != "" && opts.timeframe == "" {
		validator.AddError("-timeframe is required with -add-trigger")
	}
	if validator.HasErrors() {
		fmt.Fprintln(os.Stderr, validator.GetError())
		os.Exit(2)
	}

	cfg, log, err := common.Setup("wizard", flags)
	if err != nil {
		fmt.Fprintf(os.Stderr, "setup failed: %v\n", err)
		os.Exit(1)
	}
	defer log.Close()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	w, err := newWizard(ctx, cfg, log, os.Stdout)
	if err != nil {
		log.Error("failed to start wizard", err)
		os.Exit(1)
	}
	defer w.Close()

	if err := w.Run(ctx, opts); err != nil {
		log.Error("wizard failed", err)
		os.Exit(1)
	}
}
