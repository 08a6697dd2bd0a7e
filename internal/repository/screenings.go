package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/Subhasishpanda1777/Cipher7/internal/database"
	"github.com/Subhasishpanda1777/Cipher7/internal/metrics"
	"github.com/Subhasishpanda1777/Cipher7/internal/models"

	"github.com/lib/pq"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// RecentLimit caps listing queries.
const RecentLimit = 200

var (
	ErrDuplicateScreening = errors.New("screening already saved")
	ErrRecordNotFound     = errors.New("screening record not found")
)

func isUniqueViolation(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == "23505"
}

// SaveScreeningTx stores a record and its per-test detail rows in a single transaction.
func SaveScreeningTx(ctx context.Context, record *models.ScreeningRecord) error {
	err := database.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		// 1. Insert the summary to obtain its ID
		if err := tx.Omit(clause.Associations).Create(record).Error; err != nil {
			return err
		}

		// 2. Insert each detail row referencing the summary ID
		if record.Alignment != nil {
			record.Alignment.ScreeningID = record.ID
			if err := tx.Create(record.Alignment).Error; err != nil {
				return err
			}
		}
		if record.Tracking != nil {
			record.Tracking.ScreeningID = record.ID
			if err := tx.Create(record.Tracking).Error; err != nil {
				return err
			}
		}
		if record.Contrast != nil {
			record.Contrast.ScreeningID = record.ID
			if err := tx.Create(record.Contrast).Error; err != nil {
				return err
			}
		}
		return nil
	})
	if isUniqueViolation(err) {
		return fmt.Errorf("session %s: %w", record.SessionKey, ErrDuplicateScreening)
	}
	return err
}

func withDetails(db *gorm.DB) *gorm.DB {
	return db.Preload("Alignment").Preload("Tracking").Preload("Contrast")
}

func first(db *gorm.DB, query string, args ...interface{}) (*models.ScreeningRecord, error) {
	var record models.ScreeningRecord
	err := withDetails(db).Where(query, args...).First(&record).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrRecordNotFound
	}
	if err != nil {
		return nil, err
	}
	return &record, nil
}

func GetScreeningByID(ctx context.Context, id uint) (*models.ScreeningRecord, error) {
	return first(database.DB.WithContext(ctx), "id = ?", id)
}

func GetScreeningBySessionKey(ctx context.Context, key string) (*models.ScreeningRecord, error) {
	return first(database.DB.WithContext(ctx), "session_key = ?", key)
}

func list(ctx context.Context, query string, args ...interface{}) ([]models.ScreeningRecord, error) {
	records := []models.ScreeningRecord{}
	db := database.DB.WithContext(ctx)
	if query != "" {
		db = db.Where(query, args...)
	}
	err := db.Order("created_at DESC").Order("id DESC").Limit(RecentLimit).Find(&records).Error
	return records, err
}

// ListScreeningsByParent returns a parent's screenings, newest first.
func ListScreeningsByParent(ctx context.Context, parentID string) ([]models.ScreeningRecord, error) {
	return list(ctx, "parent_id = ?", parentID)
}

func ListScreeningsByChild(ctx context.Context, childID string) ([]models.ScreeningRecord, error) {
	return list(ctx, "child_id = ?", childID)
}

func ListRecentScreenings(ctx context.Context) ([]models.ScreeningRecord, error) {
	return list(ctx, "")
}

// TimelinePoint is one screening of a child on the risk timeline.
type TimelinePoint struct {
	CreatedAt      time.Time              `json:"date"`
	RiskScore      float64                `json:"riskScore"`
	AlignmentScore float64                `json:"alignmentScore"`
	TrackingScore  float64                `json:"trackingScore"`
	ContrastScore  float64                `json:"contrastScore"`
	Classification metrics.Classification `json:"classification"`
}

// GetRiskTimeline returns a child's scores in chronological order.
func GetRiskTimeline(ctx context.Context, childID string) ([]TimelinePoint, error) {
	points := []TimelinePoint{}
	err := database.DB.WithContext(ctx).
		Model(&models.ScreeningRecord{}).
		Select("created_at, risk_score, alignment_score, tracking_score, contrast_score, classification").
		Where("child_id = ?", childID).
		Order("created_at ASC").
		Order("id ASC").
		Scan(&points).Error
	return points, err
}

// GetFollowUpCandidates finds, for each child, the latest screening when it
// was classified moderate or high, was taken before the cutoff and has not
// had a follow-up reminder yet.
func GetFollowUpCandidates(ctx context.Context, before time.Time) ([]models.ScreeningRecord, error) {
	records := []models.ScreeningRecord{}
	db := database.DB.WithContext(ctx)

	latest := db.Model(&models.ScreeningRecord{}).
		Select("MAX(id)").
		Group("child_id")

	err := db.
		Where("id IN (?)", latest).
		Where("classification IN ?", []string{string(metrics.ClassificationModerate), string(metrics.ClassificationHigh)}).
		Where("created_at < ?", before).
		Where("follow_up_sent_at IS NULL").
		Order("created_at ASC").
		Find(&records).Error
	return records, err
}

// MarkFollowUpSent records when the follow-up reminder went out.
func MarkFollowUpSent(ctx context.Context, id uint, at time.Time) error {
	res := database.DB.WithContext(ctx).
		Model(&models.ScreeningRecord{}).
		Where("id = ?", id).
		Update("follow_up_sent_at", at)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrRecordNotFound
	}
	return nil
}
