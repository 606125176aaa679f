package wizard

import (
	"errors"
	"time"

	"parker/internal/domain/tier"
)

// Stage is one of the ordered phases of the registration wizard.
type Stage int

const (
	StageTierAndIdentity Stage = iota + 1
	StageBackground
	StagePayment
)

// String returns the stage label shown in the progress indicator.
func (s Stage) String() string {
	switch s {
	case StageTierAndIdentity:
		return "Team Selection"
	case StageBackground:
		return "Education & Experience"
	case StagePayment:
		return "Payment"
	default:
		return "Unknown"
	}
}

// SubmitTimeout bounds how long a submission may stay in flight before another attempt
// is allowed to take over. It only matters when a process dies mid-submit.
const SubmitTimeout = 2 * time.Minute

// SubmitDeadline bounds the external submission call. It is strictly shorter than
// SubmitTimeout, so a claim is retaken only after its submitter has been cancelled.
const SubmitDeadline = SubmitTimeout / 2

// Domain errors
var (
	ErrSessionClosed      = errors.New("registration already submitted")
	ErrSubmissionInFlight = errors.New("a submission is already in progress")
	ErrWrongStage         = errors.New("operation not allowed at the current stage")
	ErrStagesIncomplete   = errors.New("earlier stages have not been completed")
	ErrUnknownTier        = errors.New("unknown team tier")
)

// Session is the in-progress state of one visitor's registration.
// It is not safe for concurrent use; stores serialise access.
type Session struct {
	Stage        Stage          `json:"stage"`
	SelectedTier string         `json:"selectedTier"`
	Accumulated  Fields         `json:"accumulated"`
	Validated    map[Stage]bool `json:"validated"`
	Submitting   bool           `json:"submitting"`
	SubmitStart  time.Time      `json:"submitStart"`
	Done         bool           `json:"done"`
	LastError    string         `json:"lastError,omitempty"`
	CreatedAt    time.Time      `json:"createdAt"`
}

// NewSession starts a registration at stage one. A referral tier is pre-selected only when
// it names a catalog entry; anything else leaves the selection empty.
// POST: Stage is StageTierAndIdentity, no fields accumulated
func NewSession(referralTier string) *Session {
	s := &Session{
		Stage:       StageTierAndIdentity,
		Accumulated: Fields{},
		Validated:   map[Stage]bool{},
		CreatedAt:   time.Now(),
	}
	if tier.IsValid(referralTier) {
		s.SelectedTier = referralTier
	}
	return s
}

// SelectTier changes the tier choice on stage one.
// PRE: id is a catalog tier
// POST: SelectedTier is id; accumulated fields are untouched until Advance
func (s *Session) SelectTier(id string) error {
	if err := s.checkOpen(); err != nil {
		return err
	}
	if s.Stage != StageTierAndIdentity {
		return ErrWrongStage
	}
	if !tier.IsValid(id) {
		return ErrUnknownTier
	}
	s.SelectedTier = id
	return nil
}

// Advance validates the active stage and moves forward one stage.
// On field errors the session is left exactly as it was.
// PRE: Stage is stage one or two
// POST: on success the stage's fields are merged and Stage is incremented
func (s *Session) Advance(input Fields) (FieldErrors, error) {
	if err := s.checkOpen(); err != nil {
		return nil, err
	}
	if s.Stage != StageTierAndIdentity && s.Stage != StageBackground {
		return nil, ErrWrongStage
	}
	if s.Stage == StageBackground && !s.Validated[StageTierAndIdentity] {
		return nil, ErrStagesIncomplete
	}

	valid, fe := Validate(s.Stage, s.withTier(input))
	if fe != nil {
		return fe, nil
	}

	s.merge(s.Stage, valid)
	if s.Stage == StageTierAndIdentity {
		s.SelectedTier = valid[FieldSelectedTier]
	}
	s.Stage++
	return nil, nil
}

// Back returns to the previous stage without validating or clearing anything.
// Stage one has no previous stage and is left as is.
// INVARIANT: Accumulated is not mutated
func (s *Session) Back() error {
	if err := s.checkOpen(); err != nil {
		return err
	}
	if s.Submitting {
		return ErrSubmissionInFlight
	}
	if s.Stage > StageTierAndIdentity {
		s.Stage--
	}
	return nil
}

// BeginSubmit validates the payment stage and marks the session as submitting.
// The returned payload is the union of all accumulated fields. SubmitStart identifies the
// claim and must be handed back to FinishSubmit.
// PRE: Stage is StagePayment and stages one and two were validated
// POST: on success Submitting is true and SubmitStart is now until FinishSubmit
func (s *Session) BeginSubmit(input Fields, now time.Time) (Payload, FieldErrors, error) {
	if err := s.checkOpen(); err != nil {
		return Payload{}, nil, err
	}
	if s.Submitting && now.Sub(s.SubmitStart) < SubmitTimeout {
		return Payload{}, nil, ErrSubmissionInFlight
	}
	if s.Stage != StagePayment {
		return Payload{}, nil, ErrWrongStage
	}
	if !s.Validated[StageTierAndIdentity] || !s.Validated[StageBackground] {
		return Payload{}, nil, ErrStagesIncomplete
	}

	valid, fe := Validate(StagePayment, input)
	if fe != nil {
		return Payload{}, fe, nil
	}

	s.merge(StagePayment, valid)
	s.Submitting = true
	s.SubmitStart = now
	s.LastError = ""
	return payloadFrom(s.Accumulated), nil, nil
}

// FinishSubmit records the outcome of the submission identified by claim, the SubmitStart
// set by its BeginSubmit. A claim that was retaken by a later attempt is ignored and
// reported as false.
// A failure leaves the session on the payment stage with all data intact for a retry.
// POST: when true, Submitting is false and Done is true only when err is nil
func (s *Session) FinishSubmit(claim time.Time, err error) bool {
	if !s.Submitting || !s.SubmitStart.Equal(claim) {
		return false
	}
	s.Submitting = false
	s.SubmitStart = time.Time{}
	if err != nil {
		s.LastError = err.Error()
		return true
	}
	s.Done = true
	return true
}

// Clone returns a deep copy so stores can hand out sessions without sharing maps.
func (s *Session) Clone() *Session {
	c := *s
	c.Accumulated = s.Accumulated.Clone()
	c.Validated = make(map[Stage]bool, len(s.Validated))
	for k, v := range s.Validated {
		c.Validated[k] = v
	}
	return &c
}

// Busy reports whether a submission is in flight.
func (s *Session) Busy() bool {
	return s.Submitting
}

// Fields returns a copy of the accumulated fields.
func (s *Session) Fields() Fields {
	return s.Accumulated.Clone()
}

// Values returns the accepted values of a stage so the form can be prefilled on re-entry.
// Password fields are never echoed back.
func (s *Session) Values(stage Stage) Fields {
	out := Fields{}
	for _, name := range StageFields(stage) {
		if name == FieldPassword || name == FieldConfirmPassword {
			continue
		}
		if v, ok := s.Accumulated[name]; ok {
			out[name] = v
		}
	}
	if stage == StageTierAndIdentity {
		out[FieldSelectedTier] = s.SelectedTier
	}
	return out
}

func (s *Session) checkOpen() error {
	if s.Done {
		return ErrSessionClosed
	}
	if s.Accumulated == nil {
		s.Accumulated = Fields{}
	}
	if s.Validated == nil {
		s.Validated = map[Stage]bool{}
	}
	return nil
}

func (s *Session) withTier(input Fields) Fields {
	if s.Stage != StageTierAndIdentity {
		return input
	}
	if input[FieldSelectedTier] != "" {
		return input
	}
	in := input.Clone()
	in[FieldSelectedTier] = s.SelectedTier
	return in
}

func (s *Session) merge(stage Stage, valid Fields) {
	for k, v := range valid {
		s.Accumulated[k] = v
	}
	s.Validated[stage] = true
}
