package scheduler

import (
	"context"
	"fmt"
	"time"

	"med_reminder_bot/internal/app"
	"med_reminder_bot/internal/infra/config"

	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"
)

// ReminderScheduler fires the daily reminder dispatch at every configured
// reminder time, in the configured timezone.
type ReminderScheduler struct {
	cronEngine *cron.Cron
	service    app.ReminderService
	logger     *logrus.Entry
	times      []config.ReminderTime
}

func NewReminderScheduler(
	service app.ReminderService,
	logger *logrus.Entry,
	location *time.Location,
	times []config.ReminderTime,
) *ReminderScheduler {
	return &ReminderScheduler{
		cronEngine: cron.New(cron.WithLocation(location)),
		service:    service,
		logger:     logger,
		times:      times,
	}
}

// Start registers one cron job per reminder time and starts the engine.
func (s *ReminderScheduler) Start() error {
	s.logger.Info("Starting reminder scheduler...")

	for _, t := range s.times {
		slot := t.Slot()
		expr := fmt.Sprintf("%d %d * * *", t.Minute, t.Hour)
		_, err := s.cronEngine.AddFunc(expr, func() {
			jobLogger := s.logger.WithField("slot", slot)
			jobLogger.Info("Cron job triggered for daily reminder.")
			ctx, cancel := context.WithTimeout(context.Background(), 1*time.Minute)
			defer cancel()
			if err := s.service.DispatchSlot(ctx, slot); err != nil {
				jobLogger.WithError(err).Error("Error during reminder dispatch")
			}
		})
		if err != nil {
			return fmt.Errorf("could not add cron job for slot %s: %w", slot, err)
		}
		s.logger.WithField("slot", slot).WithField("expr", expr).Info("Registered daily reminder job")
	}

	s.cronEngine.Start()
	s.logger.Info("Reminder scheduler started with jobs.")
	return nil
}

// Stop stops the scheduler and waits for running jobs to finish.
func (s *ReminderScheduler) Stop() {
	s.logger.Info("Stopping reminder scheduler...")
	ctx := s.cronEngine.Stop()
	<-ctx.Done()
	s.logger.Info("Reminder scheduler gracefully stopped.")
}
