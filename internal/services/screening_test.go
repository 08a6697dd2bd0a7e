package services

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/Subhasishpanda1777/Cipher7/internal/config"
	"github.com/Subhasishpanda1777/Cipher7/internal/database"
	"github.com/Subhasishpanda1777/Cipher7/internal/metrics"
	"github.com/Subhasishpanda1777/Cipher7/internal/models"
	"github.com/Subhasishpanda1777/Cipher7/internal/repository"
	"github.com/Subhasishpanda1777/Cipher7/internal/screening"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func setupDB(t *testing.T) {
	t.Helper()
	db, err := database.Open(config.DatabaseConfig{
		Driver: "sqlite",
		Path:   filepath.Join(t.TempDir(), "services.db"),
	}, zap.NewNop())
	require.NoError(t, err)
	require.NoError(t, database.Migrate(db, zap.NewNop()))

	prev := database.DB
	database.DB = db
	t.Cleanup(func() {
		database.DB = prev
		if sqlDB, err := db.DB(); err == nil {
			sqlDB.Close()
		}
	})
}

type recordingNotifier struct {
	sent []uint
	err  error
}

func (n *recordingNotifier) SendFollowUpReminder(ctx context.Context, record models.ScreeningRecord) error {
	if n.err != nil {
		return n.err
	}
	n.sent = append(n.sent, record.ID)
	return nil
}

func newService(notifier Notifier) *ScreeningService {
	return NewScreeningService(zap.NewNop(), screening.NewManager(nil), notifier, 30*time.Minute, 30*24*time.Hour)
}

// runAllTests walks a session through the three tests with contrast data only.
func runAllTests(t *testing.T, s *screening.Session) {
	t.Helper()
	for _, test := range []metrics.Test{metrics.TestAlignment, metrics.TestTracking, metrics.TestContrast} {
		require.NoError(t, s.Start(test))
		if test == metrics.TestContrast {
			_, err := s.AddContrastTrials([]metrics.ContrastTrial{
				{Eye: metrics.EyeLeft, ContrastLevel: 0.3, ShapeShown: metrics.ShapeCircle, Correct: true, ReactionTimeMs: 800},
				{Eye: metrics.EyeRight, ContrastLevel: 0.3, ShapeShown: metrics.ShapeSquare, Correct: true, ReactionTimeMs: 800},
			})
			require.NoError(t, err)
		}
		_, err := s.Complete(test)
		require.NoError(t, err)
	}
}

func TestFinish(t *testing.T) {
	setupDB(t)
	ctx := context.Background()
	svc := newService(&recordingNotifier{})

	sess, err := svc.Sessions.Create(screening.Consent{ConsentGiven: true, ParentID: "p1", ChildID: "c1", Notes: "note"})
	require.NoError(t, err)

	_, err = svc.Finish(ctx, sess.Key)
	assert.ErrorIs(t, err, screening.ErrIncomplete)

	runAllTests(t, sess)

	record, err := svc.Finish(ctx, sess.Key)
	require.NoError(t, err)
	assert.NotZero(t, record.ID)
	assert.Equal(t, sess.Key, record.SessionKey)
	assert.Equal(t, "p1", record.ParentID)
	assert.Equal(t, "c1", record.ChildID)
	assert.Equal(t, "note", record.Notes)
	assert.True(t, record.ConsentGiven)
	// alignment 1.0, tracking 0, contrast 1.0 -> 0.4 + 0 + 0.3
	assert.InDelta(t, 0.7, record.RiskScore, 1e-9)
	assert.Equal(t, metrics.ClassificationHigh, record.Classification)
	assert.Equal(t, record.ID, sess.RecordID())

	again, err := svc.Finish(ctx, sess.Key)
	require.NoError(t, err)
	assert.Equal(t, record.ID, again.ID)
	require.NotNil(t, again.Contrast)
	assert.Equal(t, 2, again.Contrast.TrialCount)

	all, err := repository.ListRecentScreenings(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 1)

	_, err = svc.Finish(ctx, "unknown")
	assert.ErrorIs(t, err, screening.ErrSessionNotFound)
}

func TestExpireSessions(t *testing.T) {
	svc := NewScreeningService(zap.NewNop(), screening.NewManager(nil), &recordingNotifier{}, 0, 0)
	_, err := svc.Sessions.Create(screening.Consent{ConsentGiven: true})
	require.NoError(t, err)

	time.Sleep(2 * time.Millisecond)
	assert.Equal(t, 1, svc.ExpireSessions())
	assert.Equal(t, 0, svc.Sessions.Len())
}

func TestRunFollowUps(t *testing.T) {
	setupDB(t)
	ctx := context.Background()
	now := time.Date(2026, 6, 1, 9, 0, 0, 0, time.UTC)

	save := func(key, child string, score float64, at time.Time) *models.ScreeningRecord {
		scores := metrics.SubScores{
			Alignment: metrics.AlignmentScore{AlignmentDeviationScore: score},
			Tracking:  metrics.TrackingScore{TrackingStabilityScore: score},
			Contrast:  metrics.ContrastScore{ContrastSensitivityScore: score},
		}
		r := models.NewScreeningRecord(key, scores, scores.Result())
		r.ChildID = child
		r.CreatedAt = at
		require.NoError(t, repository.SaveScreeningTx(ctx, r))
		return r
	}
	flagged := save("k1", "c1", 0.9, now.Add(-45*24*time.Hour))
	save("k2", "c2", 0.1, now.Add(-45*24*time.Hour))
	save("k3", "c3", 0.9, now.Add(-24*time.Hour))

	failing := &recordingNotifier{err: errors.New("smtp down")}
	svc := newService(failing)
	svc.now = func() time.Time { return now }
	sent, err := svc.RunFollowUps(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, sent)

	notifier := &recordingNotifier{}
	svc = newService(notifier)
	svc.now = func() time.Time { return now }
	sent, err = svc.RunFollowUps(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, sent)
	assert.Equal(t, []uint{flagged.ID}, notifier.sent)

	// Already reminded records are not picked up again.
	sent, err = svc.RunFollowUps(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, sent)
}

func TestReminderServiceLogs(t *testing.T) {
	r := NewReminderService(zap.NewNop())
	assert.NoError(t, r.SendFollowUpReminder(context.Background(), models.ScreeningRecord{ID: 1, RiskScore: 0.7}))
}
