package wizard

import (
	"errors"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"

	"parker/internal/domain/tier"
)

// Wire names of every wizard field. These are also the keys of the aggregate payload.
const (
	FieldSelectedTier    = "selectedTier"
	FieldName            = "name"
	FieldEmail           = "email"
	FieldPassword        = "password"
	FieldConfirmPassword = "confirmPassword"
	FieldEducation       = "education"
	FieldExperience      = "experience"
	FieldSkills          = "skills"
	FieldMotivation      = "motivation"
	FieldCardNumber      = "cardNumber"
	FieldExpiryDate      = "expiryDate"
	FieldCVV             = "cvv"
	FieldCardholderName  = "cardholderName"
)

// Fields maps a field name to its value.
type Fields map[string]string

// Clone returns an independent copy.
func (f Fields) Clone() Fields {
	out := make(Fields, len(f))
	for k, v := range f {
		out[k] = v
	}
	return out
}

// FieldErrors carries one message per offending field.
type FieldErrors map[string]string

// Error implements error so callers can return field errors through error paths.
func (fe FieldErrors) Error() string {
	parts := make([]string, 0, len(fe))
	for k, v := range fe {
		parts = append(parts, k+": "+v)
	}
	return strings.Join(parts, "; ")
}

// Length rules count runes, so "李明" is a two-character name.
type tierAndIdentity struct {
	SelectedTier    string `json:"selectedTier" validate:"required,tier"`
	Name            string `json:"name" validate:"min=2"`
	Email           string `json:"email" validate:"required,email"`
	Password        string `json:"password" validate:"min=8"`
	ConfirmPassword string `json:"confirmPassword" validate:"eqfield=Password"`
}

type background struct {
	Education  string `json:"education" validate:"min=10"`
	Experience string `json:"experience" validate:"min=10"`
	Skills     string `json:"skills" validate:"min=10"`
	Motivation string `json:"motivation" validate:"min=10"`
}

// Card fields are only checked for presence. Format rules belong to whoever wires a real
// payment processor.
type payment struct {
	CardNumber     string `json:"cardNumber" validate:"required"`
	ExpiryDate     string `json:"expiryDate" validate:"required"`
	CVV            string `json:"cvv" validate:"required"`
	CardholderName string `json:"cardholderName" validate:"required"`
}

// schema describes the fields a stage owns and how to report failures.
type schema struct {
	fields   []string
	build    func(Fields) any
	messages map[string]string
}

var schemas = map[Stage]schema{
	StageTierAndIdentity: {
		fields: []string{FieldSelectedTier, FieldName, FieldEmail, FieldPassword, FieldConfirmPassword},
		build: func(in Fields) any {
			return &tierAndIdentity{
				SelectedTier:    in[FieldSelectedTier],
				Name:            in[FieldName],
				Email:           in[FieldEmail],
				Password:        in[FieldPassword],
				ConfirmPassword: in[FieldConfirmPassword],
			}
		},
		messages: map[string]string{
			FieldSelectedTier:    "Please select a team tier",
			FieldName:            "Name must be at least 2 characters",
			FieldEmail:           "Please enter a valid email address",
			FieldPassword:        "Password must be at least 8 characters",
			FieldConfirmPassword: "Passwords don't match",
		},
	},
	StageBackground: {
		fields: []string{FieldEducation, FieldExperience, FieldSkills, FieldMotivation},
		build: func(in Fields) any {
			return &background{
				Education:  in[FieldEducation],
				Experience: in[FieldExperience],
				Skills:     in[FieldSkills],
				Motivation: in[FieldMotivation],
			}
		},
		messages: map[string]string{
			FieldEducation:  "Please provide your education details",
			FieldExperience: "Please provide your experience details",
			FieldSkills:     "Please list your technical skills",
			FieldMotivation: "Please explain your motivation",
		},
	},
	StagePayment: {
		fields: []string{FieldCardNumber, FieldExpiryDate, FieldCVV, FieldCardholderName},
		build: func(in Fields) any {
			return &payment{
				CardNumber:     in[FieldCardNumber],
				ExpiryDate:     in[FieldExpiryDate],
				CVV:            in[FieldCVV],
				CardholderName: in[FieldCardholderName],
			}
		},
		messages: map[string]string{
			FieldCardNumber:     "Card number is required",
			FieldExpiryDate:     "Expiry date is required",
			FieldCVV:            "CVV is required",
			FieldCardholderName: "Cardholder name is required",
		},
	},
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		return name
	})
	_ = v.RegisterValidation("tier", func(fl validator.FieldLevel) bool {
		return tier.IsValid(fl.Field().String())
	})
	return v
}

// StageFields lists the field names owned by a stage, or nil for an unknown stage.
func StageFields(stage Stage) []string {
	s, ok := schemas[stage]
	if !ok {
		return nil
	}
	out := make([]string, len(s.fields))
	copy(out, s.fields)
	return out
}

// Validate checks input against the stage's schema. Only the stage's own fields are read;
// the single cross-field rule is password confirmation within stage one.
// PRE: stage is one of the three wizard stages
// POST: exactly one of the results is non-nil
// INVARIANT: input is not mutated
func Validate(stage Stage, input Fields) (Fields, FieldErrors) {
	s, ok := schemas[stage]
	if !ok {
		return nil, FieldErrors{"stage": "unknown stage"}
	}

	err := validate.Struct(s.build(input))
	if err != nil {
		var verrs validator.ValidationErrors
		if !errors.As(err, &verrs) {
			return nil, FieldErrors{"stage": err.Error()}
		}
		fe := make(FieldErrors, len(verrs))
		for _, v := range verrs {
			if _, seen := fe[v.Field()]; seen {
				continue
			}
			fe[v.Field()] = s.messages[v.Field()]
		}
		return nil, fe
	}

	out := make(Fields, len(s.fields))
	for _, name := range s.fields {
		out[name] = input[name]
	}
	return out, nil
}
