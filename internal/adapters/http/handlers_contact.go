package web

import (
	"net/http"

	"parker/internal/application/orchestrators"
	"parker/internal/domain/contact"
)

// maxContactBody bounds the JSON body accepted by the contact API.
const maxContactBody = 64 << 10

const msgContactSent = "Message sent successfully! We'll get back to you soon."

type contactPage struct {
	Title  string
	Form   orchestrators.ContactInput
	Errors contact.FieldErrors
	Sent   bool
}

func (s *server) handleContactForm(w http.ResponseWriter, r *http.Request) {
	s.pages.render(w, r, http.StatusOK, "contact.html", contactPage{
		Title: "Contact Us",
		Sent:  r.URL.Query().Get("sent") == "1",
	})
}

func (s *server) handleContactSubmit(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "Invalid form submission", http.StatusBadRequest)
		return
	}
	input := orchestrators.ContactInput{
		Name:    r.PostForm.Get("name"),
		Email:   r.PostForm.Get("email"),
		Subject: r.PostForm.Get("subject"),
		Message: r.PostForm.Get("message"),
	}
	fe, err := orchestrators.ExecuteSubmitContact(r.Context(), input, s.deps.Contact)
	if err != nil {
		internalError(w, err)
		return
	}
	if fe != nil {
		s.pages.render(w, r, http.StatusUnprocessableEntity, "contact.html", contactPage{
			Title:  "Contact Us",
			Form:   input,
			Errors: fe,
		})
		return
	}
	http.Redirect(w, r, "/contact?sent=1", http.StatusSeeOther)
}

// handleAPIContact is the JSON endpoint used by scripted clients of the contact form.
// POST: 201 on success; 400 with a message (and per-field errors when validation failed)
func (s *server) handleAPIContact(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxContactBody)
	var input orchestrators.ContactInput
	if err := strictDecode(r, &input); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"message": "Invalid request"})
		return
	}
	fe, err := orchestrators.ExecuteSubmitContact(r.Context(), input, s.deps.Contact)
	if err != nil {
		internalError(w, err)
		return
	}
	if fe != nil {
		writeJSON(w, http.StatusBadRequest, map[string]any{
			"message": "Please correct the highlighted fields",
			"errors":  fe,
		})
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{
		"success": true,
		"message": msgContactSent,
	})
}
