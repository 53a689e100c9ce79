package wizard

import (
	"encoding/json"
	"errors"
	"fmt"
	"slices"
	"time"

	"taxfile/internal/filing/models"
	id "taxfile/pkg/domain"
)

var (
	// ErrSubmitting is returned for any mutation while a submit is in flight.
	ErrSubmitting = errors.New("submission in progress")
	// ErrNotAtReview is returned when submit is attempted before the last step.
	ErrNotAtReview = errors.New("submit is only available on the review step")
)

// StepRangeError reports a GoTo target outside the registry.
type StepRangeError struct {
	Index int
	Last  int
}

func (e *StepRangeError) Error() string {
	return fmt.Sprintf("step %d is out of range [0, %d]", e.Index, e.Last)
}

// Session is one filer's progress through the wizard: the current step, the
// form state and the steps that passed validation. A Session is not safe for
// concurrent use; callers serialise access per session.
type Session struct {
	id         id.SessionID
	filingID   id.FilingID
	owner      id.UserID
	registry   *Registry
	state      *FormState
	current    int
	validated  map[models.StepID]bool
	submitting bool
	createdAt  time.Time
	updatedAt  time.Time
}

// NewSession starts a session at step 0 with an empty state.
func NewSession(registry *Registry, sessionID id.SessionID, filingID id.FilingID, owner id.UserID, now time.Time) *Session {
	return &Session{
		id:        sessionID,
		filingID:  filingID,
		owner:     owner,
		registry:  registry,
		state:     NewFormState(),
		validated: map[models.StepID]bool{},
		createdAt: now,
		updatedAt: now,
	}
}

// ID returns the session id.
func (s *Session) ID() id.SessionID { return s.id }

// FilingID returns the filing this session edits.
func (s *Session) FilingID() id.FilingID { return s.filingID }

// Owner returns the user who opened the session.
func (s *Session) Owner() id.UserID { return s.owner }

// Current returns the zero-based index of the active step.
func (s *Session) Current() int { return s.current }

// Submitting reports whether a submission is in flight.
func (s *Session) Submitting() bool { return s.submitting }

func (s *Session) CreatedAt() time.Time { return s.createdAt }
func (s *Session) UpdatedAt() time.Time { return s.updatedAt }

// Registry returns the step registry the session walks.
func (s *Session) Registry() *Registry { return s.registry }

// State returns a clone of the form state; changes to it do not reach the
// session. Use Set or Toggle to edit.
func (s *Session) State() *FormState { return s.state.Clone() }

// IsLast reports whether the active step is the review step.
func (s *Session) IsLast() bool { return s.current == s.registry.Last() }

// Touch sets the last-modified time. Callers touch before persisting.
func (s *Session) Touch(now time.Time) { s.updatedAt = now }

// CurrentStep returns the active step id.
func (s *Session) CurrentStep() models.StepID { return models.StepID(s.current) }

// Validated returns the steps marked valid, in order.
func (s *Session) Validated() []models.StepID {
	out := make([]models.StepID, 0, len(s.validated))
	for step, ok := range s.validated {
		if ok {
			out = append(out, step)
		}
	}
	slices.Sort(out)
	return out
}

// IsValidated reports whether step was marked valid by a transition.
func (s *Session) IsValidated(step models.StepID) bool { return s.validated[step] }

// Set writes one field.
func (s *Session) Set(f models.Field, value any) error {
	if s.submitting {
		return ErrSubmitting
	}
	return s.state.Set(f, value)
}

// Toggle includes or excludes id in a list field.
func (s *Session) Toggle(f models.Field, id string, included bool) error {
	if s.submitting {
		return ErrSubmitting
	}
	return s.state.ToggleInArray(f, id, included)
}

// Import merges previously saved step data into the state. It is used when a
// session is rehydrated and is subject to the same checks as Set.
func (s *Session) Import(partial map[models.Field]any) []error {
	return s.state.Import(partial)
}

// Next validates the current step and advances on success. On failure the
// index is unchanged and a *models.StepValidationError is returned. At the
// last step a valid Next is a no-op.
func (s *Session) Next() error {
	if s.submitting {
		return ErrSubmitting
	}
	step, _ := s.registry.Step(s.CurrentStep())
	res := s.registry.Validate(step.ID, s.state)
	if !res.Valid {
		s.validated[step.ID] = false
		return res.Err(step)
	}
	s.validated[step.ID] = true
	if s.current < s.registry.Last() {
		s.current++
	}
	return nil
}

// Resume advances over every leading step that is already valid, stopping at
// the first invalid step or the last one. It returns the resulting index.
func (s *Session) Resume() int {
	for !s.IsLast() && !s.submitting {
		if err := s.Next(); err != nil {
			break
		}
	}
	return s.current
}

// Back moves to the previous step without validating. No-op at step 0.
func (s *Session) Back() {
	if s.submitting {
		return
	}
	if s.current > 0 {
		s.current--
	}
}

// GoTo jumps to index. Going back is always allowed. Going forward requires
// every step from the current one up to, but excluding, index to be valid
// against the current state; the first invalid step is reported.
func (s *Session) GoTo(index int) error {
	if s.submitting {
		return ErrSubmitting
	}
	if index < 0 || index > s.registry.Last() {
		return &StepRangeError{Index: index, Last: s.registry.Last()}
	}
	if index <= s.current {
		s.current = index
		return nil
	}
	for i := s.current; i < index; i++ {
		step, _ := s.registry.Step(models.StepID(i))
		res := s.registry.Validate(step.ID, s.state)
		if !res.Valid {
			s.validated[step.ID] = false
			return res.Err(step)
		}
		s.validated[step.ID] = true
	}
	s.current = index
	return nil
}

// BeginSubmit disables further submits and edits until EndSubmit.
func (s *Session) BeginSubmit() error {
	if s.submitting {
		return ErrSubmitting
	}
	if !s.IsLast() {
		return ErrNotAtReview
	}
	s.submitting = true
	return nil
}

// EndSubmit re-enables the session after a failed submit.
func (s *Session) EndSubmit() { s.submitting = false }

// Record is the persisted form of a Session.
type Record struct {
	ID         id.SessionID    `json:"id"`
	FilingID   id.FilingID     `json:"filing_id"`
	Owner      id.UserID       `json:"owner"`
	Current    int             `json:"current"`
	Validated  []models.StepID `json:"validated"`
	Submitting bool            `json:"submitting"`
	State      json.RawMessage `json:"state"`
	CreatedAt  time.Time       `json:"created_at"`
	UpdatedAt  time.Time       `json:"updated_at"`
}

// Record snapshots the session for storage.
func (s *Session) Record() (Record, error) {
	state, err := json.Marshal(s.state)
	if err != nil {
		return Record{}, fmt.Errorf("encode form state: %w", err)
	}
	return Record{
		ID:         s.id,
		FilingID:   s.filingID,
		Owner:      s.owner,
		Current:    s.current,
		Validated:  s.Validated(),
		Submitting: s.submitting,
		State:      state,
		CreatedAt:  s.createdAt,
		UpdatedAt:  s.updatedAt,
	}, nil
}

// RestoreSession rebuilds a Session from a stored Record.
func RestoreSession(registry *Registry, rec Record) (*Session, error) {
	if rec.Current < 0 || rec.Current > registry.Last() {
		return nil, &StepRangeError{Index: rec.Current, Last: registry.Last()}
	}
	state := NewFormState()
	if len(rec.State) > 0 {
		if err := json.Unmarshal(rec.State, state); err != nil {
			return nil, fmt.Errorf("decode form state: %w", err)
		}
	}
	validated := make(map[models.StepID]bool, len(rec.Validated))
	for _, step := range rec.Validated {
		if step.Valid() {
			validated[step] = true
		}
	}
	return &Session{
		id:         rec.ID,
		filingID:   rec.FilingID,
		owner:      rec.Owner,
		registry:   registry,
		state:      state,
		current:    rec.Current,
		validated:  validated,
		submitting: rec.Submitting,
		createdAt:  rec.CreatedAt,
		updatedAt:  rec.UpdatedAt,
	}, nil
}
