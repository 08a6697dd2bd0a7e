package metrics

import "math"

// Eye identifies which eye a contrast trial tested.
type Eye string

const (
	EyeLeft  Eye = "left"
	EyeRight Eye = "right"
)

func (e Eye) Valid() bool {
	return e == EyeLeft || e == EyeRight
}

// Shape is the forced-choice stimulus shown during a contrast trial.
type Shape string

const (
	ShapeCircle   Shape = "circle"
	ShapeSquare   Shape = "square"
	ShapeTriangle Shape = "triangle"
)

func (s Shape) Valid() bool {
	switch s {
	case ShapeCircle, ShapeSquare, ShapeTriangle:
		return true
	}
	return false
}

const (
	contrastBalancePenalty = 5.0
	reactionBalanceSpanMs  = 2000.0
	accuracyWeight         = 0.6
	balanceWeight          = 0.25
	reactionWeight         = 0.15
)

// ContrastStimulus is one entry of the fixed presentation sequence.
type ContrastStimulus struct {
	Eye           Eye     `json:"eye" yaml:"eye"`
	ContrastLevel float64 `json:"contrastLevel" yaml:"contrast"`
	Shape         Shape   `json:"shape" yaml:"shape"`
}

// ContrastTrial is the outcome of one forced-choice presentation.
type ContrastTrial struct {
	Eye            Eye     `json:"eye"`
	ContrastLevel  float64 `json:"contrastLevel"`
	ShapeShown     Shape   `json:"shapeShown"`
	Correct        bool    `json:"correct"`
	ReactionTimeMs float64 `json:"reactionTimeMs"`
}

// ContrastScore is the reduction of a contrast sensitivity session.
type ContrastScore struct {
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

// SubScore is the value consumed by the risk aggregator.
func (s ContrastScore) SubScore() float64 {
	return s.ContrastSensitivityScore
}

// eyeSummary collects per-eye aggregates. An eye with no trials has accuracy,
// mean contrast and mean reaction all equal to 0.
type eyeSummary struct {
	trials   int
	accuracy float64
	contrast float64
	reaction float64
}

func summarizeEye(trials []ContrastTrial, eye Eye) eyeSummary {
	var contrasts, reactions []float64
	correct := 0
	for _, t := range trials {
		if t.Eye != eye {
			continue
		}
		if t.Correct {
			correct++
		}
		contrasts = append(contrasts, t.ContrastLevel)
		reactions = append(reactions, t.ReactionTimeMs)
	}

	summary := eyeSummary{
		trials:   len(contrasts),
		contrast: Mean(contrasts),
		reaction: Mean(reactions),
	}
	if summary.trials > 0 {
		summary.accuracy = float64(correct) / float64(summary.trials)
	}
	return summary
}

// ScoreContrast reduces forced-choice trials into a single score. No trials at
// all yields the zero score; a missing eye counts as 0% accurate.
func ScoreContrast(trials []ContrastTrial) ContrastScore {
	if len(trials) == 0 {
		return ContrastScore{}
	}

	left := summarizeEye(trials, EyeLeft)
	right := summarizeEye(trials, EyeRight)

	contrastDifference := math.Abs(left.contrast - right.contrast)
	reactionDelta := math.Abs(left.reaction - right.reaction)

	accuracyScore := (left.accuracy + right.accuracy) / 2
	balanceScore := linearPenalty(contrastDifference, contrastBalancePenalty)
	reactionScore := math.Max(0, 1-reactionDelta/reactionBalanceSpanMs)

	blended := blend3(accuracyScore, accuracyWeight, balanceScore, balanceWeight, reactionScore, reactionWeight)

	return ContrastScore{
		LeftAccuracy:             left.accuracy,
		RightAccuracy:            right.accuracy,
		ContrastDifference:       contrastDifference,
		ReactionDeltaMs:          reactionDelta,
		AccuracyScore:            accuracyScore,
		BalanceScore:             balanceScore,
		ReactionScore:            reactionScore,
		ContrastSensitivityScore: Clamp(Round2(blended), 0, 1),
		TrialCount:               len(trials),
	}
}
