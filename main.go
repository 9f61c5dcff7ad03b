package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/example/vocabpack/internal/bot"
	"github.com/example/vocabpack/internal/config"
	"github.com/example/vocabpack/internal/database"
	"github.com/example/vocabpack/internal/scheduler"
	"github.com/example/vocabpack/internal/session"
	"github.com/example/vocabpack/internal/vocab"
)

func main() {
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	db, err := database.Connect(cfg.Database())
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()

	repo := database.NewStateRepository(db)
	state, err := repo.Load(ctx)
	if err != nil {
		log.Fatalf("Failed to load state: %v", err)
	}

	// Word lists are required; a broken list stops startup
	items, err := vocab.NewLoader(cfg.VocabRoot, cfg.VocabSources).LoadAll()
	if err != nil {
		log.Fatalf("Failed to load vocabulary: %v", err)
	}

	manager := session.NewManager(state, items, repo, session.Options{
		PackSize: cfg.PackSize,
		Gaps:     cfg.Gaps(),
	})

	b, err := bot.New(bot.Config{
		Token:       cfg.TelegramToken,
		OwnerChatID: cfg.OwnerChatID,
	}, manager)
	if err != nil {
		log.Fatalf("Failed to create bot: %v", err)
	}

	done := make(chan struct{})
	go func() {
		defer close(done)
		if err := b.Start(ctx); err != nil {
			log.Printf("Bot error: %v", err)
			cancel()
		}
	}()

	if cfg.EnableScheduler {
		s := scheduler.New(b, manager, scheduler.Window{
			Interval:  cfg.ReminderInterval,
			StartHour: cfg.NotificationStartHour,
			EndHour:   cfg.NotificationEndHour,
		})
		if err := s.Start(); err != nil {
			log.Fatalf("Failed to start scheduler: %v", err)
		}
		defer s.Stop()
		b.SetReminder(s)
		log.Println("Reminder scheduler started successfully")
	}

	log.Println("Bot started. Press Ctrl+C to stop.")
	select {
	case sig := <-sigChan:
		log.Printf("Received signal: %v", sig)
	case <-ctx.Done():
	}

	b.Stop()
	<-done
	log.Println("Bot stopped successfully")
}
