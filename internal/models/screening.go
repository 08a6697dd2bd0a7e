package models

import (
	"time"

	"github.com/Subhasishpanda1777/Cipher7/internal/metrics"
)

// ScreeningRecord is the persisted outcome of one completed screening.
type ScreeningRecord struct {
	ID               uint                   `gorm:"primaryKey" json:"id"`
	SessionKey       string                 `gorm:"size:64;not null;uniqueIndex" json:"sessionKey"`
	ParentID         string                 `gorm:"size:64;index" json:"parentId"`
	ChildID          string                 `gorm:"size:64;index:idx_child_created" json:"childId"`
	AlignmentScore   float64                `json:"alignmentScore"`
	TrackingScore    float64                `json:"trackingScore"`
	ContrastScore    float64                `json:"contrastScore"`
	RiskScore        float64                `json:"riskScore"`
	Classification   metrics.Classification `gorm:"size:16;index" json:"classification"`
	ConsentGiven     bool                   `json:"consentGiven"`
	Notes            string                 `json:"notes"`
	DurationSeconds  float64                `json:"durationSeconds"`
	DataCompleteness float64                `json:"dataCompleteness"`
	FollowUpSentAt   *time.Time             `json:"followUpSentAt,omitempty"`
	CreatedAt        time.Time              `gorm:"index:idx_child_created" json:"createdAt"`
	UpdatedAt        time.Time              `json:"updatedAt"`

	Alignment *AlignmentResult `gorm:"foreignKey:ScreeningID;constraint:OnDelete:CASCADE" json:"alignment,omitempty"`
	Tracking  *TrackingResult  `gorm:"foreignKey:ScreeningID;constraint:OnDelete:CASCADE" json:"tracking,omitempty"`
	Contrast  *ContrastResult  `gorm:"foreignKey:ScreeningID;constraint:OnDelete:CASCADE" json:"contrast,omitempty"`
}

// Result returns the flat score record of the screening.
func (r *ScreeningRecord) Result() metrics.ScreeningResult {
	return metrics.ScreeningResult{
		AlignmentScore: r.AlignmentScore,
		TrackingScore:  r.TrackingScore,
		ContrastScore:  r.ContrastScore,
		RiskScore:      r.RiskScore,
		Classification: r.Classification,
	}
}

type AlignmentResult struct {
	ID                      uint    `gorm:"primaryKey" json:"-"`
	ScreeningID             uint    `gorm:"uniqueIndex" json:"-"`
	SymmetryRatio           float64 `json:"symmetryRatio"`
	DeviationScore          float64 `json:"deviationScore"`
	AngleScore              float64 `json:"angleScore"`
	AlignmentDeviationScore float64 `json:"alignmentDeviationScore"`
	SampleSize              int     `json:"sampleSize"`
}

type TrackingResult struct {
	ID                     uint    `gorm:"primaryKey" json:"-"`
	ScreeningID            uint    `gorm:"uniqueIndex" json:"-"`
	DistanceScore          float64 `json:"distanceScore"`
	LagScore               float64 `json:"lagScore"`
	Smoothness             float64 `json:"smoothness"`
	TrackingStabilityScore float64 `json:"trackingStabilityScore"`
	SegmentCount           int     `json:"segmentCount"`
	SampleSize             int     `json:"sampleSize"`
}

type ContrastResult struct {
	ID                       uint    `gorm:"primaryKey" json:"-"`
	ScreeningID              uint    `gorm:"uniqueIndex" json:"-"`
	LeftAccuracy             float64 `json:"leftAccuracy"`
	RightAccuracy            float64 `json:"rightAccuracy"`
	ContrastDifference       float64 `json:"contrastDifference"`
	ReactionDeltaMs          float64 `json:"reactionDeltaMs"`
	AccuracyScore            float64 `json:"accuracyScore"`
	BalanceScore             float64 `json:"balanceScore"`
	ReactionScore            float64 `json:"reactionScore"`
	ContrastSensitivityScore float64 `json:"contrastSensitivityScore"`
	TrialCount               int     `json:"trialCount"`
}

// NewScreeningRecord flattens a finished screening into its persisted form.
func NewScreeningRecord(sessionKey string, scores metrics.SubScores, result metrics.ScreeningResult) *ScreeningRecord {
	a, t, c := scores.Alignment, scores.Tracking, scores.Contrast
	return &ScreeningRecord{
		SessionKey:     sessionKey,
		AlignmentScore: result.AlignmentScore,
		TrackingScore:  result.TrackingScore,
		ContrastScore:  result.ContrastScore,
		RiskScore:      result.RiskScore,
		Classification: result.Classification,
		Alignment: &AlignmentResult{
			SymmetryRatio:           a.SymmetryRatio,
			DeviationScore:          a.DeviationScore,
			AngleScore:              a.AngleScore,
			AlignmentDeviationScore: a.AlignmentDeviationScore,
			SampleSize:              a.SampleSize,
		},
		Tracking: &TrackingResult{
			DistanceScore:          t.DistanceScore,
			LagScore:               t.LagScore,
			Smoothness:             t.Smoothness,
			TrackingStabilityScore: t.TrackingStabilityScore,
			SegmentCount:           t.SegmentCount,
			SampleSize:             t.SampleSize,
		},
		Contrast: &ContrastResult{
			LeftAccuracy:             c.LeftAccuracy,
			RightAccuracy:            c.RightAccuracy,
			ContrastDifference:       c.ContrastDifference,
			ReactionDeltaMs:          c.ReactionDeltaMs,
			AccuracyScore:            c.AccuracyScore,
			BalanceScore:             c.BalanceScore,
			ReactionScore:            c.ReactionScore,
			ContrastSensitivityScore: c.ContrastSensitivityScore,
			TrialCount:               c.TrialCount,
		},
	}
}
