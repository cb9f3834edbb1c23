package validate

import "strings"

// Contact form field names as submitted by the tour.
const (
	FieldName  = "nombre"
	FieldPhone = "telefono"
	FieldEmail = "email"
	FieldRUT   = "rut"
)

// ContactForm is a visitor's request to be contacted about a parcel.
type ContactForm struct {
	Name     string `json:"nombre"`
	Phone    string `json:"telefono"`
	Email    string `json:"email"`
	RUT      string `json:"rut"`
	ParcelID string `json:"loteId,omitempty"`
}

// Result holds the outcome of validating a ContactForm.
type Result struct {
	// Errors maps field name to message for every invalid field.
	Errors map[string]string `json:"errors,omitempty"`
	// Incomplete is set when a required field is blank.
	Incomplete bool `json:"incomplete,omitempty"`
}

// OK reports whether the form may be submitted.
func (r Result) OK() bool {
	return len(r.Errors) == 0 && !r.Incomplete
}

// Validate checks every field and flags blank ones.
func (f ContactForm) Validate() Result {
	res := Result{Errors: map[string]string{}}
	checks := []struct {
		field string
		value string
		check func(string) error
	}{
		{FieldName, f.Name, Name},
		{FieldPhone, f.Phone, Phone},
		{FieldEmail, f.Email, Email},
		{FieldRUT, f.RUT, RUT},
	}
	for _, c := range checks {
		if err := c.check(c.value); err != nil {
			res.Errors[c.field] = err.Error()
		}
		if strings.TrimSpace(c.value) == "" {
			res.Incomplete = true
		}
	}
	return res
}

// Normalized returns a copy with trimmed fields and a formatted RUT.
func (f ContactForm) Normalized() ContactForm {
	return ContactForm{
		Name:     strings.TrimSpace(f.Name),
		Phone:    phoneStrip.ReplaceAllString(f.Phone, ""),
		Email:    strings.TrimSpace(f.Email),
		RUT:      FormatRUT(f.RUT),
		ParcelID: strings.TrimSpace(f.ParcelID),
	}
}
