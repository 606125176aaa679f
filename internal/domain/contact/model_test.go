package contact_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"parker/internal/domain/contact"
)

func validMessage() contact.Message {
	return contact.Message{
		Name:    "Jo Lee",
		Email:   "jo@parker.dev",
		Subject: "Partnership",
		Body:    "We would like to talk about a project.",
	}
}

// TestMessage_Validate tests validation of Message.
func TestMessage_Validate(t *testing.T) {
	tests := []struct {
		name      string
		mutate    func(m *contact.Message)
		wantField string
		wantMsg   string
	}{
		{"valid", func(m *contact.Message) {}, "", ""},
		{"short name", func(m *contact.Message) { m.Name = "J" }, "name", "Name must be at least 2 characters"},
		{"bad email", func(m *contact.Message) { m.Email = "jo-at-parker" }, "email", "Please enter a valid email address"},
		{"empty email", func(m *contact.Message) { m.Email = "" }, "email", "Please enter a valid email address"},
		{"short subject", func(m *contact.Message) { m.Subject = "Hi" }, "subject", "Subject must be at least 5 characters"},
		{"short message", func(m *contact.Message) { m.Body = "Hello" }, "message", "Message must be at least 10 characters"},
		{"long message", func(m *contact.Message) { m.Body = strings.Repeat("x", 5001) }, "message", "Message cannot exceed 5000 characters"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := validMessage()
			tt.mutate(&m)
			fe := m.Validate()
			if tt.wantField == "" {
				assert.Nil(t, fe)
				return
			}
			assert.Len(t, fe, 1)
			assert.Equal(t, tt.wantMsg, fe[tt.wantField])
		})
	}
}

func TestMessage_ValidateReportsEveryField(t *testing.T) {
	var m contact.Message
	fe := m.Validate()
	assert.Len(t, fe, 4)
}

func TestMessage_Normalize(t *testing.T) {
	m := contact.Message{Name: "  Jo  ", Email: " jo@parker.dev\n", Subject: " Hello there ", Body: "\tbody text here "}
	m.Normalize()
	assert.Equal(t, "Jo", m.Name)
	assert.Equal(t, "jo@parker.dev", m.Email)
	assert.Equal(t, "Hello there", m.Subject)
	assert.Equal(t, "body text here", m.Body)
}
