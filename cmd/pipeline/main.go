package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/schollz/progressbar/v3"
	"gorm.io/gorm"

	"cellseg-pipeline/internal/config"
	"cellseg-pipeline/internal/core"
	"cellseg-pipeline/internal/database"
	"cellseg-pipeline/internal/pipeline"
)

func usage() {
	fmt.Fprintf(flag.CommandLine.Output(), "usage: %s <input_root> <output_root>\n\n", filepath.Base(os.Args[0]))
	fmt.Fprintln(flag.CommandLine.Output(), "Runs cell segmentation and annotation over every sample directory under input_root.")
	flag.PrintDefaults()
}

func main() {
	flag.Usage = usage
	flag.Parse()

	if flag.NArg() != 2 {
		usage()
		os.Exit(1)
	}
	inputRoot, outputRoot := flag.Arg(0), flag.Arg(1)

	if _, err := os.Stat(inputRoot); err != nil {
		slog.Error("input root is not readable", "path", inputRoot, "error", err)
		os.Exit(1)
	}

	cfg, err := config.Load()
	if err != nil {
		slog.Error("loading configuration", "error", err)
		os.Exit(1)
	}

	var db *gorm.DB
	if cfg.Ledger {
		if err := os.MkdirAll(outputRoot, 0o755); err != nil {
			slog.Error("creating output root", "path", outputRoot, "error", err)
			os.Exit(1)
		}
		db, err = database.Connect(filepath.Join(outputRoot, "pipeline.db"))
		if err != nil {
			slog.Error("opening run ledger, continuing without it", "error", err)
			db = nil
		}
	}

	segmenter := core.NewRemoteSegmenter(cfg.SegmenterURL, cfg.RequestTimeout)
	annotator := core.NewRemoteAnnotator(cfg.AnnotatorURL, cfg.RequestTimeout)
	orch := pipeline.NewOrchestrator(db, segmenter, annotator, cfg.Concurrency)

	samples, err := pipeline.DiscoverSamples(inputRoot)
	if err != nil {
		slog.Error("discovering samples", "error", err)
		os.Exit(1)
	}

	bar := progressbar.NewOptions(len(samples),
		progressbar.OptionSetDescription("processing samples"),
		progressbar.OptionSetWidth(30),
		progressbar.OptionShowCount(),
		progressbar.OptionClearOnFinish(),
	)
	orch.OnSampleDone = func(*pipeline.SampleRecord) {
		_ = bar.Add(1)
	}

	summary, err := orch.RunBatch(context.Background(), inputRoot, outputRoot)
	if err != nil {
		slog.Error("batch run aborted", "error", err)
		os.Exit(1)
	}

	printSummary(summary)
}

func printSummary(summary *pipeline.RunSummary) {
	fmt.Printf("\nProcessed %d samples: %d succeeded, %d failed\n",
		summary.Total, summary.Succeeded, len(summary.Failed))
	if len(summary.Failed) > 0 {
		fmt.Println("\nFailed samples:")
		for _, f := range summary.Failed {
			fmt.Printf("  - %s: %s\n", f.SampleId, f.Error)
		}
	}
}
