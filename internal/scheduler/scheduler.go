package scheduler

import (
	"context"
	"fmt"
	"log"
	"path/filepath"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"btracker/internal/config"
	"btracker/internal/exporter"
	"btracker/internal/ingest"
	"btracker/internal/model"
	"btracker/internal/notifier"
	"btracker/internal/pipeline"
	"btracker/internal/recorder"
	"btracker/internal/report"
	"btracker/internal/runstate"
)

// Notifier delivers run summaries.
type Notifier interface {
	SendWithRetry(ctx context.Context, text string, maxRetries int, baseBackoff time.Duration) error
}

// Scheduler regenerates the reports on a cron schedule.
type Scheduler struct {
	Cron     *cron.Cron
	Config   *config.Config
	Source   ingest.Source
	Recorder recorder.Recorder
	Notifier Notifier // nil disables notifications
	Ctx      context.Context

	mu sync.Mutex // one generation at a time
}

// NewScheduler creates a new Scheduler.
func NewScheduler(ctx context.Context, cfg *config.Config, src ingest.Source, rec recorder.Recorder, n Notifier) *Scheduler {
	return &Scheduler{
		Cron:     cron.New(cron.WithParser(cron.NewParser(config.CronFields))),
		Config:   cfg,
		Source:   src,
		Recorder: rec,
		Notifier: n,
		Ctx:      ctx,
	}
}

// Register adds the report task under the given cron spec.
func (s *Scheduler) Register(spec string) error {
	if _, err := s.Cron.AddFunc(spec, s.reportTask); err != nil {
		return fmt.Errorf("register report task: %w", err)
	}
	return nil
}

// Start starts the cron scheduler.
func (s *Scheduler) Start() {
	s.Cron.Start()
	log.Println("[INFO] scheduler started")
}

// Stop stops the cron scheduler and waits for a running task to finish.
func (s *Scheduler) Stop() {
	<-s.Cron.Stop().Done()
	log.Println("[INFO] scheduler stopped")
}

// RunNow generates the reports regardless of whether the input changed.
func (s *Scheduler) RunNow() (*model.Result, error) {
	res, _, err := s.Generate(true)
	return res, err
}

func (s *Scheduler) reportTask() {
	log.Println("[INFO] running report task")
	res, ran, err := s.Generate(false)
	if err != nil {
		log.Printf("[ERROR] report task: %v", err)
		return
	}
	if !ran {
		log.Println("[INFO] input unchanged, skipping")
		return
	}
	log.Printf("[INFO] report task done, run %s", res.RunID)
}

// Generate runs the pipeline and writes every output. Unless force is set it
// skips the run when neither the source content nor the analytics settings
// changed since the last run; the bool result reports whether a run happened.
// Outputs are staged and only published once all of them were written.
func (s *Scheduler) Generate(force bool) (*model.Result, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	cfg := s.Config
	state, err := runstate.Load(cfg.Schedule.StateFile)
	if err != nil {
		return nil, false, fmt.Errorf("load run state: %w", err)
	}
	inputDigest, err := s.Source.Fingerprint()
	if err != nil {
		return nil, false, err
	}
	settings := pipeline.SettingsFromConfig(cfg)
	settingsDigest, err := settings.Digest()
	if err != nil {
		return nil, false, fmt.Errorf("settings digest: %w", err)
	}
	if !force && state.Unchanged(s.Source.Name(), inputDigest, settingsDigest) {
		return nil, false, nil
	}

	series, err := s.Source.Load()
	if err != nil {
		return nil, false, fmt.Errorf("load %s: %w", s.Source.Name(), err)
	}
	res, err := pipeline.Run(s.Ctx, series, settings)
	if err != nil {
		return nil, false, fmt.Errorf("pipeline: %w", err)
	}
	if res.NonFinite > 0 {
		log.Printf("[WARN] %d percent changes are not finite (zero price in the data)", res.NonFinite)
	}

	if err := s.publish(res); err != nil {
		return nil, false, err
	}

	if err := s.Recorder.RecordRun(res, s.Source.Name()); err != nil {
		log.Printf("[ERROR] record run: %v", err)
	}
	s.trySend(notifier.FormatRunSummary(cfg.Output.Title, res))

	if err := runstate.Save(cfg.Schedule.StateFile, &runstate.State{
		Source:         s.Source.Name(),
		InputDigest:    inputDigest,
		SettingsDigest: settingsDigest,
		NewestDate:     res.Latest().Date.Format(exporter.DateFormat),
		LastRunID:      res.RunID,
	}); err != nil {
		log.Printf("[ERROR] save run state: %v", err)
	}
	return res, true, nil
}

// publish writes the tables, workbook and HTML page to a staging directory
// and moves them into the output directory only when all of them succeeded.
func (s *Scheduler) publish(res *model.Result) error {
	cfg := s.Config
	stage, err := exporter.NewStaging(cfg.Output.Dir)
	if err != nil {
		return err
	}
	defer stage.Discard()

	if _, err := exporter.Export(res, cfg, stage.Dir()); err != nil {
		return fmt.Errorf("export: %w", err)
	}
	page := report.NewPage(res, cfg.Output.Title, cfg.Output.RepositoryURL, cfg.Output.AnalyticsCSV, cfg.Output.Workbook)
	if err := report.WriteHTML(filepath.Join(stage.Dir(), cfg.Output.HTML), page); err != nil {
		return fmt.Errorf("html report: %w", err)
	}
	if err := stage.Commit(); err != nil {
		return fmt.Errorf("publish outputs: %w", err)
	}
	return nil
}

func (s *Scheduler) trySend(text string) {
	if s.Notifier == nil {
		return
	}
	if err := s.Notifier.SendWithRetry(s.Ctx, text, 3, time.Second); err != nil {
		log.Printf("[ERROR] send notification: %v", err)
	}
}
