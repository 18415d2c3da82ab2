package lead

import (
	"fmt"

	contractx "github.com/zensbot/leadflow/agent/contract"
)

// Stage is a lead's position in the enrollment funnel.
type Stage string

const (
	StageNew                Stage = "NEW"
	StageNameCollected      Stage = "NAME_COLLECTED"
	StageCourseSelected     Stage = "COURSE_SELECTED"
	StageEducationCollected Stage = "EDUCATION_COLLECTED"
	StageGoalCollected      Stage = "GOAL_COLLECTED"
	StageDemoShared         Stage = "DEMO_SHARED"
	StageEnrolled           Stage = "ENROLLED"
	StageLost               Stage = "LOST"
)

// stageRank orders stages for the derivation priority and for the
// forward-progress floor after a manual override. LOST sits outside the
// automatic order and is handled explicitly.
var stageRank = map[Stage]int{
	StageNew:                0,
	StageNameCollected:      1,
	StageCourseSelected:     2,
	StageEducationCollected: 3,
	StageGoalCollected:      4,
	StageDemoShared:         5,
	StageEnrolled:           6,
	StageLost:               -1,
}

// AllStages lists every valid stage, funnel order first, LOST last.
var AllStages = []Stage{
	StageNew,
	StageNameCollected,
	StageCourseSelected,
	StageEducationCollected,
	StageGoalCollected,
	StageDemoShared,
	StageEnrolled,
	StageLost,
}

func (s Stage) Valid() bool {
	_, ok := stageRank[s]
	return ok
}

// ParseStage validates an externally supplied stage value.
func ParseStage(v string) (Stage, error) {
	s := Stage(v)
	if !s.Valid() {
		return "", fmt.Errorf("%w: %q", contractx.ErrInvalidStage, v)
	}
	return s, nil
}

// DeriveStage computes the stage implied by collected lead data. Evaluated
// top-down, first match wins: the stage is a function of the highest-value
// field present, not of the order fields were collected in. ENROLLED and LOST
// are never produced here unless the enrolled flag was set by a manual path.
func DeriveStage(d Data) Stage {
	switch {
	case d.Enrolled:
		return StageEnrolled
	case d.DemoShared:
		return StageDemoShared
	case d.Goal != nil:
		return StageGoalCollected
	case d.EducationLevel != nil:
		return StageEducationCollected
	case d.SelectedCourse != nil:
		return StageCourseSelected
	case d.Name != nil:
		return StageNameCollected
	default:
		return StageNew
	}
}

// later reports whether a is strictly later than b in the funnel order.
func later(a, b Stage) bool {
	return stageRank[a] > stageRank[b]
}
