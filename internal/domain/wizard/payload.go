package wizard

// Payload is the aggregate record handed to the submission collaborator once the payment
// stage validates. It carries every accumulated field, including the confirmation.
type Payload struct {
	SelectedTier    string `json:"selectedTier"`
	Name            string `json:"name"`
	Email           string `json:"email"`
	Password        string `json:"password"`
	ConfirmPassword string `json:"confirmPassword"`
	Education       string `json:"education"`
	Experience      string `json:"experience"`
	Skills          string `json:"skills"`
	Motivation      string `json:"motivation"`
	CardNumber      string `json:"cardNumber"`
	ExpiryDate      string `json:"expiryDate"`
	CVV             string `json:"cvv"`
	CardholderName  string `json:"cardholderName"`
}

func payloadFrom(f Fields) Payload {
	return Payload{
		SelectedTier:    f[FieldSelectedTier],
		Name:            f[FieldName],
		Email:           f[FieldEmail],
		Password:        f[FieldPassword],
		ConfirmPassword: f[FieldConfirmPassword],
		Education:       f[FieldEducation],
		Experience:      f[FieldExperience],
		Skills:          f[FieldSkills],
		Motivation:      f[FieldMotivation],
		CardNumber:      f[FieldCardNumber],
		ExpiryDate:      f[FieldExpiryDate],
		CVV:             f[FieldCVV],
		CardholderName:  f[FieldCardholderName],
	}
}

// Fields flattens the payload back into wire-named fields.
func (p Payload) Fields() Fields {
	return Fields{
		FieldSelectedTier:    p.SelectedTier,
		FieldName:            p.Name,
		FieldEmail:           p.Email,
		FieldPassword:        p.Password,
		FieldConfirmPassword: p.ConfirmPassword,
		FieldEducation:       p.Education,
		FieldExperience:      p.Experience,
		FieldSkills:          p.Skills,
		FieldMotivation:      p.Motivation,
		FieldCardNumber:      p.CardNumber,
		FieldExpiryDate:      p.ExpiryDate,
		FieldCVV:             p.CVV,
		FieldCardholderName:  p.CardholderName,
	}
}

// Redacted returns a copy safe for logging: secrets and card data are masked.
func (p Payload) Redacted() Payload {
	r := p
	r.Password = mask(p.Password)
	r.ConfirmPassword = mask(p.ConfirmPassword)
	r.CVV = mask(p.CVV)
	if n := len(p.CardNumber); n > 4 {
		r.CardNumber = "****" + p.CardNumber[n-4:]
	} else {
		r.CardNumber = mask(p.CardNumber)
	}
	return r
}

func mask(s string) string {
	if s == "" {
		return ""
	}
	return "****"
}
