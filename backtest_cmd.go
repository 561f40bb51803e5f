package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"gopkg.in/yaml.v3"

	"fxbacktest/backtest"
	"fxbacktest/tickdata"
)

// runFileConfig is the one-shot backtest document: where the ticks live,
// which signals to trade, and how to manage them.
type runFileConfig struct {
	Data struct {
		File            string `yaml:"file"`
		Stream          bool   `yaml:"stream"`
		tickdata.Format `yaml:",inline"`
	} `yaml:"data"`

	Signals  []backtest.Signal       `yaml:"signals"`
	Strategy backtest.StrategyConfig `yaml:"strategy"`
	Risk     backtest.RiskConfig     `yaml:"risk"`
}

func runBacktest(configPath, outPath string, summary bool) error {
	raw, err := os.ReadFile(configPath)
	if err != nil {
		return fmt.Errorf("read run config: %w", err)
	}

	defaults := backtest.DefaultRunConfig()
	fc := runFileConfig{Strategy: defaults.Strategy, Risk: defaults.Risk}
	fc.Data.Format = tickdata.DefaultFormat()
	if err := yaml.Unmarshal(raw, &fc); err != nil {
		return fmt.Errorf("parse run config: %w", err)
	}
	if fc.Data.File == "" {
		return fmt.Errorf("run config: data.file is required")
	}

	var src backtest.TickSource
	if fc.Data.Stream {
		src, err = tickdata.OpenCSVFile(fc.Data.File, fc.Data.Format)
		if err != nil {
			return fmt.Errorf("open tick file: %w", err)
		}
	} else {
		f, err := os.Open(fc.Data.File)
		if err != nil {
			return fmt.Errorf("open tick file: %w", err)
		}
		ticks, err := tickdata.ParseAll(f, fc.Data.Format)
		f.Close()
		if err != nil {
			return fmt.Errorf("parse tick file: %w", err)
		}
		src = tickdata.NewMemorySource(ticks)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	runner := backtest.NewRunner(backtest.RunConfig{
		Strategy: fc.Strategy,
		Risk:     fc.Risk,
		Progress: func(n int64) { log.Printf("[BT] %d ticks processed\n", n) },
	})
	res, err := runner.Run(ctx, src, fc.Signals)
	if err != nil {
		return err
	}
	if !res.Completed {
		log.Printf("[WARN] run cancelled after %d ticks; results are partial\n", res.TicksProcessed)
	}

	if summary {
		if err := backtest.WriteSummary(os.Stderr, res); err != nil {
			return err
		}
	}

	if outPath == "" {
		return backtest.WriteResultsJSON(os.Stdout, res)
	}
	f, err := os.Create(outPath)
	if err != nil {
		return fmt.Errorf("create output: %w", err)
	}
	defer f.Close()
	return backtest.WriteResultsJSON(f, res)
}
