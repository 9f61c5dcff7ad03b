package scheduler

import (
	"log"
	"time"

	"github.com/go-co-op/gocron"

	"github.com/example/vocabpack/internal/session"
	"github.com/example/vocabpack/pkg/models"
)

// Default notification window, inclusive on both ends
const (
	DefaultNotificationStartHour = 8
	DefaultNotificationEndHour   = 22
)

// Scheduler manages scheduled tasks for the application
type Scheduler struct {
	scheduler *gocron.Scheduler
	notifier  Notifier
	source    CountSource
	window    Window
	now       func() time.Time
}

// Notifier interface for sending notifications
type Notifier interface {
	SendReminder(counts session.Counts) error
}

// CountSource reports due counts for the learner's active language
type CountSource interface {
	ActiveLanguage() models.Language
	CountsFor(lang models.Language) session.Counts
}

// Window configures when reminders may be sent
type Window struct {
	Interval  time.Duration
	StartHour int
	EndHour   int
}

// DefaultWindow returns an hourly window between 8:00 and 22:00
func DefaultWindow() Window {
	return Window{
		Interval:  time.Hour,
		StartHour: DefaultNotificationStartHour,
		EndHour:   DefaultNotificationEndHour,
	}
}

// Contains reports whether hour is inside the window
func (w Window) Contains(hour int) bool {
	if w.StartHour <= w.EndHour {
		return hour >= w.StartHour && hour <= w.EndHour
	}
	// window wraps past midnight, e.g. 20-6
	return hour >= w.StartHour || hour <= w.EndHour
}

// New creates a new scheduler instance
func New(notifier Notifier, source CountSource, window Window) *Scheduler {
	if window.Interval <= 0 {
		window.Interval = time.Hour
	}
	return &Scheduler{
		scheduler: gocron.NewScheduler(time.Local),
		notifier:  notifier,
		source:    source,
		window:    window,
		now:       time.Now,
	}
}

// Start begins running all scheduled tasks
func (s *Scheduler) Start() error {
	_, err := s.scheduler.Every(s.window.Interval).WaitForSchedule().Do(s.checkAndSendReminders)
	if err != nil {
		return err
	}

	// Start the scheduler in a non-blocking manner
	s.scheduler.StartAsync()
	return nil
}

// Stop terminates all scheduled tasks
func (s *Scheduler) Stop() {
	s.scheduler.Stop()
}

func (s *Scheduler) checkAndSendReminders() {
	s.remind(s.now())
}

// remind sends one reminder for the active language when cards are due and
// the current hour is within the window. It reports whether a reminder went out.
func (s *Scheduler) remind(now time.Time) bool {
	currentHour := now.Hour()
	if !s.window.Contains(currentHour) {
		log.Printf("Current hour %d is outside notification hours (%d-%d), skipping reminders",
			currentHour, s.window.StartHour, s.window.EndHour)
		return false
	}

	counts := s.source.CountsFor(s.source.ActiveLanguage())
	if counts.Due == 0 {
		return false
	}

	if err := s.notifier.SendReminder(counts); err != nil {
		log.Printf("Error sending reminder for %s: %v", counts.Language, err)
		return false
	}
	return true
}

// RunManualCheck sends a reminder immediately, ignoring the time window.
// It returns the number of due cards; nothing is sent when it is zero.
func (s *Scheduler) RunManualCheck() (int, error) {
	counts := s.source.CountsFor(s.source.ActiveLanguage())
	if counts.Due == 0 {
		return 0, nil
	}
	return counts.Due, s.notifier.SendReminder(counts)
}
