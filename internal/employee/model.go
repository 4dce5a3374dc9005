// Package employee shapes employee records between the API and the UI.
package employee

import (
	"strings"
	"time"
)

// Gender values accepted by the API.
type Gender string

const (
	GenderMale   Gender = "Male"
	GenderFemale Gender = "Female"
)

// Genders lists the selectable genders in display order.
var Genders = []Gender{GenderMale, GenderFemale}

// Date layouts.
const (
	// APIDateLayout is how dates travel to the server.
	APIDateLayout = "2006-01-02"
	// PickerDateLayout is how dates are typed and shown in the form.
	PickerDateLayout = "02-01-2006"
)

// ViewModel is the UI projection of an employee.
type ViewModel struct {
	ID            string
	Name          string
	MotherName    string
	FatherName    string
	Gender        Gender
	Country       string
	State         string
	Email         string
	Contact       string
	DOB           string
	ProfileBase64 string
	ProfileName   string
}

// Upload is an image chosen during the current form session.
type Upload struct {
	FileName string
	Base64   string
}

// FormValues is the editable form state. DOB is the date picker value; the
// zero time means no date picked.
type FormValues struct {
	Name       string    `validate:"required"`
	MotherName string    `validate:"required"`
	FatherName string    `validate:"required"`
	Gender     Gender    `validate:"required,oneof=Male Female"`
	DOB        time.Time `validate:"required"`
	Country    string    `validate:"required"`
	State      string    `validate:"required"`
	Email      string    `validate:"required,email"`
	Contact    string    `validate:"required,len=10,digits"`
	Image      *Upload   `validate:"-"`
}

// ProfileMeta is the image already stored for an employee being edited.
type ProfileMeta struct {
	FileName string
	Base64   string
}

// Normalize trims surrounding whitespace from the free-text fields.
func (v *FormValues) Normalize() {
	v.Name = strings.TrimSpace(v.Name)
	v.MotherName = strings.TrimSpace(v.MotherName)
	v.FatherName = strings.TrimSpace(v.FatherName)
	v.Email = strings.TrimSpace(v.Email)
	v.Contact = strings.TrimSpace(v.Contact)
}

var dateLayouts = []string{
	APIDateLayout,
	"2006-01-02T15:04:05",
	time.RFC3339,
	time.RFC3339Nano,
}

// ParseDate reads a server date. Only the calendar date is kept.
func ParseDate(value string) (time.Time, bool) {
	value = strings.TrimSpace(value)
	if value == "" {
		return time.Time{}, false
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, value); err == nil {
			return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC), true
		}
	}
	return time.Time{}, false
}

// ParsePickerDate reads a date typed in the form.
func ParsePickerDate(value string) (time.Time, bool) {
	t, err := time.Parse(PickerDateLayout, strings.TrimSpace(value))
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}

// FormatPickerDate renders a date for the form, or "" for the zero time.
func FormatPickerDate(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format(PickerDateLayout)
}
