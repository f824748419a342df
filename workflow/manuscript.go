package workflow

import (
	"strings"
	"time"

	"manuscript-workflow/models"
)

var manuscriptTransitions = map[models.ManuscriptStatus][]models.ManuscriptStatus{
	models.StatusSubmitted:        {models.StatusUnderReview, models.StatusRejected},
	models.StatusUnderReview:      {models.StatusRevisionRequired, models.StatusAccepted, models.StatusRejected},
	models.StatusRevisionRequired: {models.StatusUnderReview, models.StatusRejected},
	models.StatusAccepted:         {models.StatusPublished, models.StatusRejected},
}

// CanTransition reports whether the edge from -> to exists in the status graph.
func CanTransition(from, to models.ManuscriptStatus) bool {
	for _, next := range manuscriptTransitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// NextStatuses lists the statuses reachable from the given one without override.
func NextStatuses(from models.ManuscriptStatus) []models.ManuscriptStatus {
	return append([]models.ManuscriptStatus(nil), manuscriptTransitions[from]...)
}

type Transition struct {
	To       models.ManuscriptStatus
	Actor    models.Actor
	Comments string
	Override bool
}

// Machine applies manuscript status transitions.
type Machine struct {
	Gate Gate
	Now  func() time.Time
}

func NewMachine(gate Gate) Machine {
	return Machine{Gate: gate, Now: time.Now}
}

// Apply mutates m in place and returns the audit record for the change. On
// error m is left as it was.
//
// An override skips graph, comment and gate checks; only the editor role is
// required.
func (mc Machine) Apply(m *models.Manuscript, t Transition) (*models.StatusHistory, error) {
	if !t.To.Valid() {
		errs := models.ValidationErrors{}
		errs.Add("status", "unknown status %q", t.To)
		return nil, errs.Err()
	}

	from := m.Status
	comments := strings.TrimSpace(t.Comments)

	if t.Override {
		if !t.Actor.IsEditor() {
			return nil, models.Forbidden("administrative override requires the editor role")
		}
	} else {
		if !CanTransition(from, t.To) {
			return nil, models.InvalidTransition("manuscript cannot move from %s to %s", from, t.To)
		}
		if t.To == models.StatusRevisionRequired && comments == "" {
			errs := models.ValidationErrors{}
			errs.Add("comments", "comments are required when requesting a revision")
			return nil, errs.Err()
		}
		if t.To == models.StatusPublished {
			if res := mc.Gate.Evaluate(m); !res.Satisfied {
				return nil, GateError(res)
			}
		}
	}

	now := mc.now()
	m.Status = t.To
	if t.To == models.StatusRevisionRequired && comments != "" {
		m.ReviewerComments = comments
	}
	if t.To == models.StatusPublished && m.PublishedAt == nil {
		m.PublishedAt = &now
	}

	return &models.StatusHistory{
		ManuscriptID: m.ID,
		FromStatus:   from,
		ToStatus:     t.To,
		ActorID:      t.Actor.UserID,
		ActorRole:    t.Actor.Role,
		Override:     t.Override,
		Comments:     comments,
		CreatedAt:    now,
	}, nil
}

func (mc Machine) now() time.Time {
	if mc.Now == nil {
		return time.Now()
	}
	return mc.Now()
}
