package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/ducminhle1904/dca-strategy-wizard/cmd/common"
	"github.com/ducminhle1904/dca-strategy-wizard/internal/server"
	"github.com/ducminhle1904/dca-strategy-wizard/pkg/catalog"
)

func main() {
	fs := flag.NewFlagSet("catalog-server", flag.ExitOnError)
	flags := common.RegisterCommonFlags(fs)
	addr := fs.String("addr", ":8088", "Listen address")
	defsDir := fs.String("definitions", "", "Directory of indicator definition JSON files (default: built-in set)")
	fs.Parse(os.Args[1:])

	usage := common.NewUsageFormatter("catalog-server", "Reference indicator catalog service").
		AddExample("catalog-server -addr :8088", "Serve the built-in definitions").
		AddExample("catalog-server -definitions ./defs", "Serve definitions from a directory")
	if common.CheckHelpAndVersion("catalog-server", flags, fs, usage) {
		return
	}

	validator := common.NewFlagValidator().ValidateCommon(flags)
	validator.ValidateFile("definitions", *defsDir, false)
	if validator.HasErrors() {
		fmt.Fprintln(os.Stderr, validator.GetError())
		os.Exit(2)
	}

	_, log, err := common.Setup("catalog-server", flags)
	if err != nil {
		fmt.Fprintf(os.Stderr, "setup failed: %v\n", err)
		os.Exit(1)
	}
	defer log.Close()

	defs, err := loadDefinitions(*defsDir)
	if err != nil {
		log.Error("failed to load definitions", err)
		os.Exit(1)
	}

	srv, err := server.New(server.Config{Definitions: defs, Logger: log})
	if err != nil {
		log.Error("failed to create server", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := srv.Run(ctx, *addr); err != nil {
		log.Error("server stopped", err)
		os.Exit(1)
	}
	log.Info("server stopped")
}

// loadDefinitions reads every *.json file in dir; an empty dir means the
// built-in set.
func loadDefinitions(dir string) ([]*catalog.IndicatorDefinition, error) {
	if dir == "" {
		return nil, nil
	}
	files, err := filepath.Glob(filepath.Join(dir, "*.json"))
	if err != nil {
		return nil, err
	}

	defs := make([]*catalog.IndicatorDefinition, 0, len(files))
	for _, file := range files {
		data, err := os.ReadFile(file)
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", file, err)
		}
		var def catalog.IndicatorDefinition
		if err := json.Unmarshal(data, &def); err != nil {
			return nil, fmt.Errorf("parse %s: %w", file, err)
		}
		defs = append(defs, &def)
	}
	return defs, nil
}
