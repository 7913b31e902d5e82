package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"btracker/internal/config"
	"btracker/internal/ingest"
	"btracker/internal/notifier"
	"btracker/internal/recorder"
	"btracker/internal/scheduler"
)

func main() {
	log.SetFlags(log.LstdFlags | log.Lshortfile)

	cfgPath := flag.String("config", "", "path to config.yaml (default $CONFIG_PATH or configs/config.yaml)")
	once := flag.Bool("once", false, "generate the reports once and exit even if a schedule is configured")
	flag.Parse()

	log.Println("[INFO] btracker starting...")

	// .env is optional
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		log.Printf("[WARN] load .env: %v", err)
	}

	path := *cfgPath
	if path == "" {
		path = "configs/config.yaml"
		if v := os.Getenv("CONFIG_PATH"); v != "" {
			path = v
		}
	}
	cfg, err := config.Load(path)
	if err != nil {
		log.Fatalf("[FATAL] load config: %v", err)
	}
	if err := cfg.Validate(); err != nil {
		log.Fatalf("[FATAL] config validation: %v", err)
	}

	src := ingest.NewFileSource(cfg.Input.Path, ingest.Options{Delimiter: ingest.Delimiter(cfg.Input.Delimiter)})
	log.Printf("[INFO] data source: %s", src.Name())

	// Init recorder
	var rec recorder.Recorder
	if cfg.Database.SQLitePath != "" {
		sr, err := recorder.NewSQLiteRecorder(cfg.Database.SQLitePath)
		if err != nil {
			log.Printf("[WARN] init sqlite recorder failed, using noop: %v", err)
			rec = recorder.NewNoopRecorder()
		} else {
			rec = sr
			defer sr.Close()
		}
	} else {
		rec = recorder.NewNoopRecorder()
	}

	var tn scheduler.Notifier
	if cfg.NotifyEnabled() {
		tn = notifier.NewTelegramNotifier(cfg.Telegram.BotToken, cfg.Telegram.ChatID, cfg.Proxy)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sched := scheduler.NewScheduler(ctx, cfg, src, rec, tn)

	if *once || !cfg.Scheduled() {
		res, err := sched.RunNow()
		if err != nil {
			// log.Fatalf would skip the deferred recorder close.
			log.Printf("[FATAL] %v", err)
			rec.Close()
			os.Exit(1)
		}
		log.Printf("[INFO] run %s done: %d observations, output in %s", res.RunID, len(res.Rows), cfg.Output.Dir)
		return
	}

	if err := sched.Register(cfg.Schedule.Cron); err != nil {
		log.Fatalf("[FATAL] register cron task: %v", err)
	}
	sched.Start()
	defer sched.Stop()

	if cfg.Schedule.RunOnStart {
		log.Println("[INFO] run_on_start enabled, generating reports now")
		go func() {
			if _, err := sched.RunNow(); err != nil {
				log.Printf("[ERROR] initial run: %v", err)
			}
		}()
	}

	log.Printf("[INFO] btracker is running on %q. Press Ctrl+C to stop.", cfg.Schedule.Cron)

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh

	log.Println("[INFO] shutdown signal received, stopping...")
	cancel()
	log.Println("[INFO] btracker stopped")
}
