package lead

import (
	"time"
)

// DefaultTurnCap bounds the in-record turn log; oldest turns are evicted
// FIFO once the cap is exceeded.
const DefaultTurnCap = 100

// Data holds the collected lead fields. String fields are nil until a value
// is captured; automatic extraction only ever fills blanks forward, it never
// retracts a value.
type Data struct {
	Name           *string `json:"name"`
	Phone          *string `json:"phone"`
	SelectedCourse *string `json:"selected_course"`
	EducationLevel *string `json:"education_level"`
	Goal           *string `json:"goal"`
	DemoShared     bool    `json:"demo_shared"`
	Enrolled       bool    `json:"enrolled"`
}

type Turn struct {
	Timestamp        time.Time `json:"timestamp"`
	UserMessage      string    `json:"user_message"`
	AssistantMessage string    `json:"assistant_message"`
}

type StageChange struct {
	Stage     Stage     `json:"stage"`
	Timestamp time.Time `json:"timestamp"`
	Manual    bool      `json:"manual,omitempty"`
}

// Record is the per-conversation source of truth for funnel tracking.
type Record struct {
	ConversationID string        `json:"-"`
	CreatedAt      time.Time     `json:"created_at"`
	UpdatedAt      time.Time     `json:"updated_at"`
	Stage          Stage         `json:"stage"`
	StageUpdatedAt time.Time     `json:"stage_updated_at"`
	StageHistory   []StageChange `json:"stage_history"`
	Data           Data          `json:"lead_data"`
	Turns          []Turn        `json:"turns"`
	Summary        *string       `json:"summary"`
}

// FieldUpdates is a partial update produced by extraction or a tool call.
// Nil means "no new information", never "clear the existing value".
type FieldUpdates struct {
	Name           *string
	Phone          *string
	SelectedCourse *string
	EducationLevel *string
	Goal           *string
	DemoShared     *bool
	Enrolled       *bool
}

func (u FieldUpdates) Empty() bool {
	return u.Name == nil && u.Phone == nil && u.SelectedCourse == nil &&
		u.EducationLevel == nil && u.Goal == nil && u.DemoShared == nil && u.Enrolled == nil
}

// Merge overlays other on top of u: non-nil fields of other win. Used to let
// structured tool arguments take precedence over text-derived guesses.
func (u FieldUpdates) Merge(other FieldUpdates) FieldUpdates {
	out := u
	if other.Name != nil {
		out.Name = other.Name
	}
	if other.Phone != nil {
		out.Phone = other.Phone
	}
	if other.SelectedCourse != nil {
		out.SelectedCourse = other.SelectedCourse
	}
	if other.EducationLevel != nil {
		out.EducationLevel = other.EducationLevel
	}
	if other.Goal != nil {
		out.Goal = other.Goal
	}
	if other.DemoShared != nil {
		out.DemoShared = other.DemoShared
	}
	if other.Enrolled != nil {
		out.Enrolled = other.Enrolled
	}
	return out
}

// NewRecord seeds a record with defaults: stage NEW and a first history entry.
func NewRecord(conversationID string, now time.Time) *Record {
	now = now.UTC()
	return &Record{
		ConversationID: conversationID,
		CreatedAt:      now,
		UpdatedAt:      now,
		Stage:          StageNew,
		StageUpdatedAt: now,
		StageHistory: []StageChange{
			{Stage: StageNew, Timestamp: now},
		},
	}
}

// MergeFields applies a partial update. Incoming non-nil values overwrite;
// absent values never erase.
func (r *Record) MergeFields(u FieldUpdates) {
	if u.Name != nil {
		r.Data.Name = u.Name
	}
	if u.Phone != nil {
		r.Data.Phone = u.Phone
	}
	if u.SelectedCourse != nil {
		r.Data.SelectedCourse = u.SelectedCourse
	}
	if u.EducationLevel != nil {
		r.Data.EducationLevel = u.EducationLevel
	}
	if u.Goal != nil {
		r.Data.Goal = u.Goal
	}
	if u.DemoShared != nil {
		r.Data.DemoShared = *u.DemoShared
	}
	if u.Enrolled != nil {
		r.Data.Enrolled = *u.Enrolled
	}
}

// AppendTurn appends a turn and evicts the oldest entries beyond cap.
func (r *Record) AppendTurn(t Turn, cap int) {
	if cap <= 0 {
		cap = DefaultTurnCap
	}
	r.Turns = append(r.Turns, t)
	if len(r.Turns) > cap {
		r.Turns = append(r.Turns[:0:0], r.Turns[len(r.Turns)-cap:]...)
	}
}

// RecentTurns returns up to n most recent turns (all when n <= 0).
func (r *Record) RecentTurns(n int) []Turn {
	if n <= 0 || n >= len(r.Turns) {
		return append([]Turn(nil), r.Turns...)
	}
	return append([]Turn(nil), r.Turns[len(r.Turns)-n:]...)
}

// manualFloor reports whether the most recent stage transition was a manual
// override, which pins the stage as a floor for automatic derivation.
func (r *Record) manualFloor() bool {
	if len(r.StageHistory) == 0 {
		return false
	}
	return r.StageHistory[len(r.StageHistory)-1].Manual
}

func (r *Record) setStage(s Stage, now time.Time, manual bool) {
	if s == r.Stage {
		return
	}
	now = now.UTC()
	r.Stage = s
	r.StageUpdatedAt = now
	r.StageHistory = append(r.StageHistory, StageChange{
		Stage:     s,
		Timestamp: now,
		Manual:    manual,
	})
}

// RederiveStage recomputes the stage from lead data and records the
// transition when it changes. A manual override acts as a floor: the derived
// stage applies only when strictly later in the funnel order. Manual LOST is
// pinned entirely; only another manual call moves off it.
func (r *Record) RederiveStage(now time.Time) {
	derived := DeriveStage(r.Data)
	if r.manualFloor() {
		if r.Stage == StageLost {
			return
		}
		if !later(derived, r.Stage) {
			return
		}
	}
	r.setStage(derived, now, false)
}

// SetStageManual forces the stage, tagging the history entry manual.
func (r *Record) SetStageManual(s Stage, now time.Time) {
	r.setStage(s, now, true)
}

// Touch bumps the mutation timestamp.
func (r *Record) Touch(now time.Time) {
	r.UpdatedAt = now.UTC()
}

// Clone returns a deep copy safe to hand to callers outside the store lock.
func (r *Record) Clone() *Record {
	if r == nil {
		return nil
	}
	out := *r
	out.StageHistory = append([]StageChange(nil), r.StageHistory...)
	out.Turns = append([]Turn(nil), r.Turns...)
	out.Data = r.Data.clone()
	if r.Summary != nil {
		s := *r.Summary
		out.Summary = &s
	}
	return &out
}

func (d Data) clone() Data {
	out := d
	out.Name = cloneStr(d.Name)
	out.Phone = cloneStr(d.Phone)
	out.SelectedCourse = cloneStr(d.SelectedCourse)
	out.EducationLevel = cloneStr(d.EducationLevel)
	out.Goal = cloneStr(d.Goal)
	return out
}

func cloneStr(p *string) *string {
	if p == nil {
		return nil
	}
	s := *p
	return &s
}

// migrate upgrades a record loaded in a legacy shape (missing stage tracking
// substructure) to the current defaults. Returns true when anything changed.
func (r *Record) migrate(conversationID string, now time.Time) bool {
	changed := false
	r.ConversationID = conversationID
	if r.CreatedAt.IsZero() {
		r.CreatedAt = now.UTC()
		changed = true
	}
	if r.Stage == "" {
		r.Stage = DeriveStage(r.Data)
		r.StageUpdatedAt = now.UTC()
		changed = true
	}
	if len(r.StageHistory) == 0 {
		r.StageHistory = []StageChange{{Stage: r.Stage, Timestamp: r.StageUpdatedAt}}
		changed = true
	}
	return changed
}
