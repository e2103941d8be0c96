package app

import (
	"context"
	"fmt"

	"med_reminder_bot/internal/domain/subscriber"
	domainTelegram "med_reminder_bot/internal/domain/telegram"

	"github.com/sirupsen/logrus"
)

// ErrAdminNotAuthorized is returned when a non-admin invokes an admin operation.
var ErrAdminNotAuthorized = fmt.Errorf("performing user is not authorized as an admin")

// AdminService gates maintenance operations behind the configured admin
// Telegram ID.
type AdminService struct {
	subscriberRepo  subscriber.Repository
	telegramClient  domainTelegram.Client
	logger          *logrus.Entry
	adminTelegramID int64
}

func NewAdminService(
	sr subscriber.Repository,
	tc domainTelegram.Client,
	logger *logrus.Entry,
	adminID int64,
) *AdminService {
	return &AdminService{
		subscriberRepo:  sr,
		telegramClient:  tc,
		logger:          logger,
		adminTelegramID: adminID,
	}
}

// IsAdmin reports whether the user may run admin commands. An unset admin ID
// disables admin commands entirely.
func (s *AdminService) IsAdmin(telegramID int64) bool {
	return s.adminTelegramID != 0 && telegramID == s.adminTelegramID
}

// ListSubscribers returns all subscribed chat ids.
func (s *AdminService) ListSubscribers(ctx context.Context, performingID int64) ([]int64, error) {
	if !s.IsAdmin(performingID) {
		return nil, ErrAdminNotAuthorized
	}
	return s.subscriberRepo.ListAll(ctx)
}

// Broadcast sends a message to every subscriber. Individual send failures
// are logged and counted but do not abort the broadcast.
func (s *AdminService) Broadcast(ctx context.Context, performingID int64, text string) (sent, total int, err error) {
	if !s.IsAdmin(performingID) {
		return 0, 0, ErrAdminNotAuthorized
	}
	subscribers, err := s.subscriberRepo.ListAll(ctx)
	if err != nil {
		return 0, 0, fmt.Errorf("failed to list subscribers: %w", err)
	}
	for _, chatID := range subscribers {
		if _, err := s.telegramClient.SendMessage(chatID, text, nil); err != nil {
			s.logger.WithError(err).WithField("chat_id", chatID).Warn("Broadcast send failed")
			continue
		}
		sent++
	}
	return sent, len(subscribers), nil
}
