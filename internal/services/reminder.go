package services

import (
	"context"

	"github.com/Subhasishpanda1777/Cipher7/internal/metrics"
	"github.com/Subhasishpanda1777/Cipher7/internal/models"

	"go.uber.org/zap"
)

// Notifier delivers a follow-up reminder for a screening that needs a recheck.
type Notifier interface {
	SendFollowUpReminder(ctx context.Context, record models.ScreeningRecord) error
}

// ReminderService logs follow-up reminders.
type ReminderService struct {
	log *zap.Logger
}

func NewReminderService(log *zap.Logger) *ReminderService {
	return &ReminderService{log: log}
}

func (s *ReminderService) SendFollowUpReminder(ctx context.Context, record models.ScreeningRecord) error {
	s.log.Info("Sending follow-up screening reminder",
		zap.String("parentID", record.ParentID),
		zap.String("childID", record.ChildID),
		zap.Uint("screeningID", record.ID),
		zap.String("classification", string(record.Classification)),
		zap.String("riskScore", metrics.FormatPercent(&record.RiskScore)),
		zap.Time("screenedAt", record.CreatedAt),
	)
	return nil
}
