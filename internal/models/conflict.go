package models

// ConflictSeverity tiers residual violations for ranking.
type ConflictSeverity string

const (
	SeverityCritical ConflictSeverity = "CRITICAL"
	SeverityHigh     ConflictSeverity = "HIGH"
	SeverityMedium   ConflictSeverity = "MEDIUM"
	SeverityLow      ConflictSeverity = "LOW"
)

// Tier returns the sort order of the severity, lowest first for Critical.
func (s ConflictSeverity) Tier() int {
	switch s {
	case SeverityCritical:
		return 0
	case SeverityHigh:
		return 1
	case SeverityMedium:
		return 2
	default:
		return 3
	}
}

// Conflict identifies a specific constraint violation between slots.
// CourseID is set when the violation concerns a course with no placed slot,
// e.g. a missing weekly meeting.
type Conflict struct {
	Constraint string   `json:"constraint"`
	Hard       bool     `json:"hard"`
	Reason     string   `json:"reason"`
	SlotKeys   []string `json:"slot_keys"`
	CourseID   string   `json:"course_id,omitempty"`
	Penalty    float64  `json:"penalty"`
}

// ConflictRanking is a ranked residual violation with its blast radius.
type ConflictRanking struct {
	Type          string           `json:"type"`
	Description   string           `json:"description"`
	Severity      ConflictSeverity `json:"severity"`
	PriorityScore float64          `json:"priority_score"`
	SlotKeys      []string         `json:"slot_keys"`
	AffectedCount int              `json:"affected_count"`
}

// ResolutionMoveKind enumerates the concrete fixes the resolver can suggest.
type ResolutionMoveKind string

const (
	ResolutionSwapTeacher ResolutionMoveKind = "SWAP_TEACHER"
	ResolutionSwapRoom    ResolutionMoveKind = "SWAP_ROOM"
	ResolutionMoveSlot    ResolutionMoveKind = "MOVE_SLOT"
)

// ResolutionSuggestion proposes one move with a 0-1 confidence that it
// improves the schedule. Suggestions are advisory; applying one re-scores
// first.
type ResolutionSuggestion struct {
	Kind        ResolutionMoveKind `json:"kind"`
	Description string             `json:"description"`
	SlotKey     string             `json:"slot_key"`
	TargetID    string             `json:"target_id,omitempty"`
	Confidence  float64            `json:"confidence"`
}
