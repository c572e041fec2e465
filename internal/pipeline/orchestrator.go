package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"cellseg-pipeline/internal/core"
	"cellseg-pipeline/internal/database"
	"cellseg-pipeline/internal/geometry"
)

// Orchestrator drives the two-stage segment → annotate pipeline over every
// sample directory under an input root. Failures are isolated at the sample
// boundary; one bad sample never aborts the batch.
type Orchestrator struct {
	db          *gorm.DB // run ledger; nil disables it
	segmenter   core.Segmenter
	annotator   core.Annotator
	concurrency int

	// OnSampleDone, if set, is invoked from the accumulator goroutine after
	// each sample reaches a terminal state.
	OnSampleDone func(*SampleRecord)

	loadVolume func(string) (*geometry.Volume, error)
}

func NewOrchestrator(db *gorm.DB, segmenter core.Segmenter, annotator core.Annotator, concurrency int) *Orchestrator {
	if concurrency < 1 {
		concurrency = 1
	}
	return &Orchestrator{
		db:          db,
		segmenter:   segmenter,
		annotator:   annotator,
		concurrency: concurrency,
		loadVolume:  geometry.LoadVolume,
	}
}

// ProcessSample runs one sample end to end. The returned record is always in
// a terminal state; any stage error is captured on it rather than returned.
func (o *Orchestrator) ProcessSample(ctx context.Context, sampleDir, outputRoot string) *SampleRecord {
	id := filepath.Base(sampleDir)
	rec := newSampleRecord(id, sampleDir, filepath.Join(outputRoot, id))

	slog.Info("processing sample", "sample", id, "stage", "start")
	if err := o.runStages(ctx, rec); err != nil {
		rec.fail(err)
		slog.Error("sample failed", "sample", id, "stage", rec.Status, "error", err)
		return rec
	}

	slog.Info("sample complete", "sample", id, "stage", "done")
	return rec
}

func (o *Orchestrator) runStages(ctx context.Context, rec *SampleRecord) error {
	cfgPath, err := FindConfig(rec.InputDir)
	if err != nil {
		return err
	}
	cfg, err := LoadSampleConfig(cfgPath)
	if err != nil {
		return err
	}

	vol, err := o.loadVolume(filepath.Join(rec.InputDir, cfg.ImagePath))
	if err != nil {
		return err
	}

	nuclear, membrane, err := selectChannels(vol, cfg.Channels)
	if err != nil {
		return err
	}

	composite, err := geometry.BuildComposite(nuclear, membrane)
	if err != nil {
		return err
	}

	if err := os.MkdirAll(rec.OutputDir, 0o755); err != nil {
		return err
	}

	slog.Info("running segmentation", "sample", rec.SampleId, "stage", "segment", "shape", vol.Shape)
	mask, err := o.segmenter.Segment(ctx, composite, cfg.UseWSI)
	if err != nil {
		return err
	}
	if err := writeMask(filepath.Join(rec.OutputDir, rec.SampleId+"_segmented.tiff"), mask); err != nil {
		return err
	}
	rec.Status = SampleSegmented
	slog.Info("segmentation complete", "sample", rec.SampleId, "stage", "segment", "cells", mask.NumCells())

	slog.Info("running annotation", "sample", rec.SampleId, "stage", "annotate", "mpp", cfg.MPP)
	cellTypes, err := o.annotator.Annotate(ctx, vol.Squeeze(), mask, cfg.MarkerNames(), cfg.MPP)
	if err != nil {
		return err
	}

	cellTable := filepath.Join(rec.OutputDir, rec.SampleId+"_deepcell_type.csv")
	if err := writeCellTypeTable(cellTable, cellTypes); err != nil {
		return err
	}
	popTable := filepath.Join(rec.OutputDir, rec.SampleId+"_deepcell_population.csv")
	if err := writePopulationTable(popTable, buildPopulation(cellTypes, mask.NumCells())); err != nil {
		return err
	}

	rec.Status = SampleAnnotated
	return nil
}

// selectChannels resolves the channel axis and extracts the first two
// configured channels as comparable planes. For a 2-D image there is no
// channel axis; the whole plane is used for both channels.
func selectChannels(vol *geometry.Volume, channels []ChannelSpec) (nuclear, membrane *geometry.Plane, err error) {
	primary, secondary := channels[0], channels[1]

	axis := 0
	if vol.NDim() > 2 {
		maxIdx := primary.Number
		if secondary.Number > maxIdx {
			maxIdx = secondary.Number
		}
		axis, err = geometry.ResolveChannelAxis(vol.Shape, maxIdx)
		if err != nil {
			return nil, nil, err
		}
		slog.Info("resolved channel axis", "axis", axis, "length", vol.Shape[axis],
			"primary", primary.Name, "secondary", secondary.Name)
	}

	nuclear, err = geometry.ExtractPlane(vol, axis, primary.Number)
	if err != nil {
		return nil, nil, err
	}
	membrane, err = geometry.ExtractPlane(vol, axis, secondary.Number)
	if err != nil {
		return nil, nil, err
	}
	return nuclear, membrane, nil
}

func writeMask(path string, mask *geometry.Mask) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()
	return mask.EncodeTIFF(f)
}

// RunBatch processes every discovered sample and returns the aggregate
// summary. Only a missing input root or a failure to persist the summary
// aborts the run.
func (o *Orchestrator) RunBatch(ctx context.Context, inputRoot, outputRoot string) (*RunSummary, error) {
	if _, err := os.Stat(inputRoot); err != nil {
		return nil, fmt.Errorf("input root %s: %w", inputRoot, err)
	}
	if err := os.MkdirAll(outputRoot, 0o755); err != nil {
		return nil, fmt.Errorf("creating output root: %w", err)
	}

	samples, err := DiscoverSamples(inputRoot)
	if err != nil {
		return nil, err
	}

	runId := uuid.New()
	slog.Info("starting batch run", "run", runId, "samples", len(samples), "concurrency", o.concurrency)

	if o.db != nil {
		run := database.PipelineRun{
			Id:        runId,
			StartTime: time.Now().UTC(),
			Status:    database.RunRunning,
			Total:     len(samples),
		}
		if err := o.db.Create(&run).Error; err != nil {
			slog.Error("disabling run ledger", "error", err)
			o.db = nil
		}
	}

	worker := func(dir string) *SampleRecord {
		return o.ProcessSample(ctx, dir, outputRoot)
	}

	// Single accumulator: ledger writes, progress callbacks and the summary
	// all stay on this goroutine.
	records := make(map[string]*SampleRecord, len(samples))
	for rec := range runPool(worker, samples, o.concurrency) {
		records[rec.InputDir] = rec
		o.recordSample(runId, rec)
		if o.OnSampleDone != nil {
			o.OnSampleDone(rec)
		}
	}

	summary := &RunSummary{RunId: runId, Total: len(samples)}
	for _, dir := range samples {
		rec := records[dir]
		if rec.Succeeded() {
			summary.Succeeded++
		} else {
			summary.Failed = append(summary.Failed, SampleFailure{SampleId: rec.SampleId, Error: rec.Error})
		}
	}

	o.finishRun(runId, summary)

	if err := summary.Write(filepath.Join(outputRoot, "run_summary.json")); err != nil {
		return summary, fmt.Errorf("writing run summary: %w", err)
	}

	slog.Info("batch run complete", "run", runId, "total", summary.Total,
		"succeeded", summary.Succeeded, "failed", len(summary.Failed))
	return summary, nil
}

func (o *Orchestrator) recordSample(runId uuid.UUID, rec *SampleRecord) {
	if o.db == nil {
		return
	}
	row := database.SampleResult{
		RunId:    runId,
		SampleId: rec.SampleId,
		Status:   rec.Status,
		Error:    rec.Error,
	}
	if err := o.db.Create(&row).Error; err != nil {
		slog.Error("recording sample in ledger", "sample", rec.SampleId, "error", err)
	}
}

func (o *Orchestrator) finishRun(runId uuid.UUID, summary *RunSummary) {
	if o.db == nil {
		return
	}
	updates := map[string]any{
		"status":    database.RunCompleted,
		"end_time":  time.Now().UTC(),
		"succeeded": summary.Succeeded,
		"failed":    len(summary.Failed),
	}
	if err := o.db.Model(&database.PipelineRun{}).Where("id = ?", runId).Updates(updates).Error; err != nil {
		slog.Error("finalizing run in ledger", "run", runId, "error", err)
	}
}
