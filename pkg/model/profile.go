package model

import (
	"net/url"
	"strconv"
	"strings"
	"time"
)

// Field names of the profile form. They double as form-encoded keys and as
// keys of validation error payloads.
const (
	FieldName  = "name"
	FieldEmail = "email"
	FieldAge   = "age"
	FieldBio   = "bio"
)

// Profile is the record collected by the form.
type Profile struct {
	Name  string `json:"name"`
	Email string `json:"email"`
	Age   int    `json:"age"`
	Bio   string `json:"bio,omitempty"`
}

// StoredProfile is a Profile after it has been accepted by a store.
type StoredProfile struct {
	ID        string    `json:"id"`
	CreatedAt time.Time `json:"createdAt"`
	Profile
}

// Values encodes the profile as form values.
func (p Profile) Values() url.Values {
	values := url.Values{}
	values.Set(FieldName, p.Name)
	values.Set(FieldEmail, p.Email)
	if p.Age != 0 {
		values.Set(FieldAge, strconv.Itoa(p.Age))
	}
	values.Set(FieldBio, p.Bio)
	return values
}

// NormalizeEmail lowercases and trims an email for comparisons.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
