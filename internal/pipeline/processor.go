// Package pipeline is the one entry point both front ends drive: check the
// folder, measure cups and plungers, then write the workbook and CSV report.
package pipeline

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"github.com/joseph-ayodele/dist1-extractor/constants"
	"github.com/joseph-ayodele/dist1-extractor/internal/common"
	"github.com/joseph-ayodele/dist1-extractor/internal/entity"
)

// Progress is one status update of a running pipeline.
type Progress struct {
	Stage   constants.Stage `json:"stage"`
	Percent int             `json:"percent"`
	Message string          `json:"message"`
}

// ProgressFunc receives progress updates on the pipeline goroutine.
type ProgressFunc func(Progress)

// Result is what a completed run produced. WorkbookErr is set when the CSV
// was written but the workbook update failed.
type Result struct {
	RunID        uuid.UUID
	Folder       string
	Cups         []entity.Measurement
	Plungers     []entity.Measurement
	WorkbookPath string
	CSVPath      string
	WorkbookErr  error
	StartedAt    time.Time
	FinishedAt   time.Time
}

// State is SUCCEEDED, or PARTIAL when only the workbook failed.
func (r *Result) State() constants.RunState {
	if r.WorkbookErr != nil {
		return constants.RunStatePartial
	}
	return constants.RunStateSucceeded
}

// Measurer is the folder aggregation stage.
type Measurer interface {
	CupPass(ctx context.Context, dir string) []entity.Measurement
	PlungerPass(ctx context.Context, dir string) []entity.Measurement
}

// ReportWriter is the report stage.
type ReportWriter interface {
	WriteWorkbook(path string, cups, plungers []entity.Measurement) error
	WriteCSV(folder string, cups, plungers []entity.Measurement) (string, error)
}

// HistoryRecorder persists finished runs. Optional.
type HistoryRecorder interface {
	SaveRun(ctx context.Context, run entity.Run, measurements []entity.Measurement) error
}

type Processor struct {
	measurer Measurer
	writer   ReportWriter
	history  HistoryRecorder
	logger   *slog.Logger
}

type Option func(*Processor)

// WithHistory records every run, failed ones included, in h.
func WithHistory(h HistoryRecorder) Option {
	return func(p *Processor) { p.history = h }
}

func NewProcessor(measurer Measurer, writer ReportWriter, logger *slog.Logger, opts ...Option) *Processor {
	if logger == nil {
		logger = slog.Default()
	}
	p := &Processor{measurer: measurer, writer: writer, logger: logger}
	for _, o := range opts {
		o(p)
	}
	return p
}

// Run processes folder. It fails only when cup/, plunger/ or c2025.xlsx is
// missing, or when the CSV cannot be written; a workbook failure is reported
// through Result.WorkbookErr. The run ID and message language are taken from
// ctx (common.WithRunID, common.WithLang); a fresh ID is generated when unset.
func (p *Processor) Run(ctx context.Context, folder string, progress ProgressFunc) (*Result, error) {
	runID := common.RunIDFromContext(ctx)
	if runID == uuid.Nil {
		runID = uuid.New()
	}
	lang := NormalizeLang(common.LangFromContext(ctx))
	log := common.LoggerFromContext(ctx, p.logger).With("run_id", runID, "folder", folder)
	if progress == nil {
		progress = func(Progress) {}
	}
	report := func(stage constants.Stage) {
		pr := Progress{Stage: stage, Percent: constants.StagePercent[stage], Message: Message(lang, stage)}
		log.Info("pipeline.progress", "stage", pr.Stage, "percent", pr.Percent)
		progress(pr)
	}

	res := &Result{RunID: runID, Folder: folder, StartedAt: time.Now()}
	res, err := p.run(ctx, res, report)
	res.FinishedAt = time.Now()

	if err != nil {
		log.Error("pipeline.failed", "error", err, "elapsed_ms", res.FinishedAt.Sub(res.StartedAt).Milliseconds())
	} else {
		log.Info("pipeline.ok",
			"state", res.State(),
			"cups", len(res.Cups),
			"plungers", len(res.Plungers),
			"elapsed_ms", res.FinishedAt.Sub(res.StartedAt).Milliseconds(),
		)
	}
	p.record(ctx, log, lang, res, err)
	return res, err
}

func (p *Processor) run(ctx context.Context, res *Result, report func(constants.Stage)) (*Result, error) {
	folder := res.Folder
	cupDir := filepath.Join(folder, constants.CupDir)
	if !isDir(cupDir) {
		return res, common.MissingPrerequisiteError(constants.CupDir, cupDir)
	}
	report(constants.StageCup)
	res.Cups = p.measurer.CupPass(ctx, cupDir)

	report(constants.StagePlunger)
	plungerDir := filepath.Join(folder, constants.PlungerDir)
	if !isDir(plungerDir) {
		return res, common.MissingPrerequisiteError(constants.PlungerDir, plungerDir)
	}
	res.Plungers = p.measurer.PlungerPass(ctx, plungerDir)

	report(constants.StageWorkbook)
	workbook := filepath.Join(folder, constants.WorkbookName)
	if !isFile(workbook) {
		return res, common.MissingPrerequisiteError(constants.WorkbookName, workbook)
	}
	if err := p.writer.WriteWorkbook(workbook, res.Cups, res.Plungers); err != nil {
		res.WorkbookErr = err
	} else {
		res.WorkbookPath = workbook
	}

	csvPath, err := p.writer.WriteCSV(folder, res.Cups, res.Plungers)
	if err != nil {
		return res, common.WrapError(err, "write csv report")
	}
	res.CSVPath = csvPath

	if res.WorkbookErr == nil {
		report(constants.StageDone)
	}
	return res, nil
}

func (p *Processor) record(ctx context.Context, log *slog.Logger, lang string, res *Result, runErr error) {
	if p.history == nil {
		return
	}
	started, finished := res.StartedAt, res.FinishedAt
	run := entity.Run{
		ID:           res.RunID,
		Folder:       res.Folder,
		Lang:         lang,
		SubmittedAt:  started,
		StartedAt:    &started,
		FinishedAt:   &finished,
		WorkbookPath: res.WorkbookPath,
		CSVPath:      res.CSVPath,
	}
	switch {
	case runErr != nil:
		run.State = string(constants.RunStateFailed)
		run.Error = runErr.Error()
	default:
		run.State = string(res.State())
		run.Percent = 100
		if res.WorkbookErr != nil {
			run.Percent = constants.StagePercent[constants.StageWorkbook]
			run.WorkbookError = res.WorkbookErr.Error()
		}
	}

	all := make([]entity.Measurement, 0, len(res.Cups)+len(res.Plungers))
	all = append(all, res.Cups...)
	all = append(all, res.Plungers...)
	if err := p.history.SaveRun(context.WithoutCancel(ctx), run, all); err != nil {
		log.Warn("pipeline.history.failed", "error", err)
	}
}

// IsMissingPrerequisite reports whether err aborted the run before any report was written.
func IsMissingPrerequisite(err error) bool {
	return errors.Is(err, common.ErrMissingPrerequisite)
}

func isDir(path string) bool {
	fi, err := os.Stat(path)
	return err == nil && fi.IsDir()
}

func isFile(path string) bool {
	fi, err := os.Stat(path)
	return err == nil && !fi.IsDir()
}
