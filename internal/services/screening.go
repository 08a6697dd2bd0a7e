package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/Subhasishpanda1777/Cipher7/internal/models"
	"github.com/Subhasishpanda1777/Cipher7/internal/repository"
	"github.com/Subhasishpanda1777/Cipher7/internal/screening"

	"go.uber.org/zap"
)

// ScreeningService connects live sessions to the persisted records.
type ScreeningService struct {
	log           *zap.Logger
	Sessions      *screening.Manager
	notifier      Notifier
	sessionTTL    time.Duration
	followUpAfter time.Duration
	now           func() time.Time
}

func NewScreeningService(log *zap.Logger, sessions *screening.Manager, notifier Notifier, sessionTTL, followUpAfter time.Duration) *ScreeningService {
	return &ScreeningService{
		log:           log,
		Sessions:      sessions,
		notifier:      notifier,
		sessionTTL:    sessionTTL,
		followUpAfter: followUpAfter,
		now:           time.Now,
	}
}

// Finish aggregates the session and saves it exactly once. Later calls
// return the stored record.
func (s *ScreeningService) Finish(ctx context.Context, key string) (*models.ScreeningRecord, error) {
	sess, err := s.Sessions.Get(key)
	if err != nil {
		return nil, err
	}
	if id := sess.RecordID(); id != 0 {
		return repository.GetScreeningByID(ctx, id)
	}

	result, err := sess.Aggregate()
	if err != nil {
		return nil, err
	}
	scores, err := sess.Scores()
	if err != nil {
		return nil, err
	}

	record := models.NewScreeningRecord(key, scores, result)
	record.ParentID = sess.Consent.ParentID
	record.ChildID = sess.Consent.ChildID
	record.ConsentGiven = sess.Consent.ConsentGiven
	record.Notes = sess.Consent.Notes
	record.DurationSeconds = sess.Duration().Seconds()
	record.DataCompleteness = sess.DataCompleteness()

	err = repository.SaveScreeningTx(ctx, record)
	if errors.Is(err, repository.ErrDuplicateScreening) {
		// a concurrent finish won the insert
		record, err = repository.GetScreeningBySessionKey(ctx, key)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to save screening: %w", err)
	}

	sess.SetRecordID(record.ID)
	s.log.Info("Screening completed",
		zap.String("sessionKey", key),
		zap.Uint("recordID", record.ID),
		zap.String("childID", record.ChildID),
		zap.Float64("riskScore", record.RiskScore),
		zap.String("classification", string(record.Classification)),
		zap.Float64("dataCompleteness", record.DataCompleteness),
	)
	return record, nil
}

// ExpireSessions drops abandoned sessions.
func (s *ScreeningService) ExpireSessions() int {
	removed := s.Sessions.Expire(s.sessionTTL)
	if removed > 0 {
		s.log.Info("Expired idle screening sessions", zap.Int("removed", removed), zap.Int("active", s.Sessions.Len()))
	}
	return removed
}

// RunFollowUps reminds families whose latest screening flagged a risk and
// is older than the follow-up interval. It returns the reminders sent.
func (s *ScreeningService) RunFollowUps(ctx context.Context) (int, error) {
	now := s.now()
	candidates, err := repository.GetFollowUpCandidates(ctx, now.Add(-s.followUpAfter))
	if err != nil {
		return 0, fmt.Errorf("failed to load follow-up candidates: %w", err)
	}

	sent := 0
	for _, record := range candidates {
		if err := s.notifier.SendFollowUpReminder(ctx, record); err != nil {
			s.log.Error("Failed to send follow-up reminder", zap.Uint("recordID", record.ID), zap.Error(err))
			continue
		}
		if err := repository.MarkFollowUpSent(ctx, record.ID, now); err != nil {
			s.log.Error("Failed to mark follow-up as sent", zap.Uint("recordID", record.ID), zap.Error(err))
			continue
		}
		sent++
	}
	s.log.Debug("Follow-up check finished", zap.Int("candidates", len(candidates)), zap.Int("sent", sent))
	return sent, nil
}
