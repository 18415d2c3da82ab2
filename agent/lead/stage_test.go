package lead

import (
	"errors"
	"testing"
	"time"

	contractx "github.com/zensbot/leadflow/agent/contract"
)

func strPtr(s string) *string { return &s }

func TestDeriveStagePriorityOrder(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name string
		data Data
		want Stage
	}{
		{"empty", Data{}, StageNew},
		{"name only", Data{Name: strPtr("Ahmed")}, StageNameCollected},
		{"course skips name", Data{SelectedCourse: strPtr("CTA")}, StageCourseSelected},
		{"course wins over name", Data{Name: strPtr("Ahmed"), SelectedCourse: strPtr("CTA")}, StageCourseSelected},
		{"education", Data{Name: strPtr("Ahmed"), EducationLevel: strPtr("Bachelors")}, StageEducationCollected},
		{"goal skips education", Data{Name: strPtr("Ahmed"), Goal: strPtr("career change")}, StageGoalCollected},
		{"demo beats goal", Data{Goal: strPtr("career change"), DemoShared: true}, StageDemoShared},
		{"enrolled beats everything", Data{DemoShared: true, Enrolled: true}, StageEnrolled},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			if got := DeriveStage(tc.data); got != tc.want {
				t.Fatalf("DeriveStage=%s want=%s", got, tc.want)
			}
		})
	}
}

func TestParseStageRejectsUnknown(t *testing.T) {
	t.Parallel()

	if _, err := ParseStage("SOMETHING_ELSE"); !errors.Is(err, contractx.ErrInvalidStage) {
		t.Fatalf("expected ErrInvalidStage, got %v", err)
	}
	if s, err := ParseStage("DEMO_SHARED"); err != nil || s != StageDemoShared {
		t.Fatalf("unexpected: stage=%s err=%v", s, err)
	}
}

func TestRederiveStageAppendsHistory(t *testing.T) {
	t.Parallel()

	now := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	rec := NewRecord("c1", now)

	rec.Data.Name = strPtr("Ahmed Khan")
	rec.RederiveStage(now.Add(time.Minute))

	if rec.Stage != StageNameCollected {
		t.Fatalf("stage=%s want NAME_COLLECTED", rec.Stage)
	}
	if len(rec.StageHistory) != 2 {
		t.Fatalf("history len=%d want 2", len(rec.StageHistory))
	}

	// Re-deriving again with no new data is a no-op.
	rec.RederiveStage(now.Add(2 * time.Minute))
	if len(rec.StageHistory) != 2 {
		t.Fatalf("history grew on unchanged stage: len=%d", len(rec.StageHistory))
	}
}

func TestManualOverrideIsFloorNotFreeze(t *testing.T) {
	t.Parallel()

	now := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	rec := NewRecord("c1", now)
	rec.Data.SelectedCourse = strPtr("ACCA")
	rec.RederiveStage(now)

	// Manual correction back to NAME_COLLECTED...
	rec.SetStageManual(StageNameCollected, now.Add(time.Minute))
	if rec.Stage != StageNameCollected {
		t.Fatalf("stage=%s", rec.Stage)
	}

	// ...does not survive the next derivation because the data already
	// implies a later stage: the floor lets forward progress through.
	rec.RederiveStage(now.Add(2 * time.Minute))
	if rec.Stage != StageCourseSelected {
		t.Fatalf("stage=%s want COURSE_SELECTED", rec.Stage)
	}
}

func TestManualOverrideSuppressesStaleDerivation(t *testing.T) {
	t.Parallel()

	now := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	rec := NewRecord("c1", now)
	rec.Data.Name = strPtr("Sara")
	rec.RederiveStage(now)

	rec.SetStageManual(StageGoalCollected, now.Add(time.Minute))

	// Data still only implies NAME_COLLECTED; the manual stage must hold.
	rec.RederiveStage(now.Add(2 * time.Minute))
	if rec.Stage != StageGoalCollected {
		t.Fatalf("stage=%s want GOAL_COLLECTED", rec.Stage)
	}
}

func TestManualLostIsPinned(t *testing.T) {
	t.Parallel()

	now := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	rec := NewRecord("c1", now)
	rec.Data.DemoShared = true
	rec.RederiveStage(now)

	rec.SetStageManual(StageLost, now.Add(time.Minute))

	rec.Data.Enrolled = true
	rec.RederiveStage(now.Add(2 * time.Minute))
	if rec.Stage != StageLost {
		t.Fatalf("stage=%s want LOST", rec.Stage)
	}

	// Only another manual call moves off LOST.
	rec.SetStageManual(StageEnrolled, now.Add(3*time.Minute))
	if rec.Stage != StageEnrolled {
		t.Fatalf("stage=%s want ENROLLED", rec.Stage)
	}
}
