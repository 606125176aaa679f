package contact

import (
	"errors"
	"reflect"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
)

// Max length constants for user-editable fields.
const (
	MaxNameLength    = 200
	MaxSubjectLength = 300
	MaxBodyLength    = 5000
)

// FieldErrors carries one message per offending field, keyed by the JSON field name.
type FieldErrors map[string]string

// Message is an enquiry sent through the contact form.
type Message struct {
	ID        string    `json:"-"`
	Name      string    `json:"name" validate:"min=2,max=200"`
	Email     string    `json:"email" validate:"required,email"`
	Subject   string    `json:"subject" validate:"min=5,max=300"`
	Body      string    `json:"message" validate:"min=10,max=5000"`
	CreatedAt time.Time `json:"-"`
}

var messages = map[string]map[string]string{
	"name": {
		"min": "Name must be at least 2 characters",
		"max": "Name cannot exceed 200 characters",
	},
	"email": {
		"required": "Please enter a valid email address",
		"email":    "Please enter a valid email address",
	},
	"subject": {
		"min": "Subject must be at least 5 characters",
		"max": "Subject cannot exceed 300 characters",
	},
	"message": {
		"min": "Message must be at least 10 characters",
		"max": "Message cannot exceed 5000 characters",
	},
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// Normalize trims surrounding whitespace from every user-entered field.
func (m *Message) Normalize() {
	m.Name = strings.TrimSpace(m.Name)
	m.Email = strings.TrimSpace(m.Email)
	m.Subject = strings.TrimSpace(m.Subject)
	m.Body = strings.TrimSpace(m.Body)
}

// Validate checks the form fields.
// PRE: Message is populated from user input
// POST: Returns nil if valid, otherwise one message per failing field
// INVARIANT: Message fields are not mutated
func (m *Message) Validate() FieldErrors {
	err := validate.Struct(m)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return FieldErrors{"form": err.Error()}
	}
	fe := make(FieldErrors, len(verrs))
	for _, v := range verrs {
		if _, seen := fe[v.Field()]; seen {
			continue
		}
		msg := messages[v.Field()][v.Tag()]
		if msg == "" {
			msg = "Invalid value"
		}
		fe[v.Field()] = msg
	}
	return fe
}
