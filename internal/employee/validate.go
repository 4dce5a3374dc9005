package employee

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/go-playground/validator/v10"
)

// Issue is one rejected form field.
type Issue struct {
	Field  string
	Reason string
}

// ValidationError lists every rejected field, sorted by field.
type ValidationError struct {
	Issues []Issue
}

func (e *ValidationError) Error() string {
	parts := make([]string, 0, len(e.Issues))
	for _, is := range e.Issues {
		parts = append(parts, is.Field+": "+is.Reason)
	}
	return "invalid employee: " + strings.Join(parts, "; ")
}

// Reason returns the message for field, or "".
func (e *ValidationError) Reason(field string) string {
	for _, is := range e.Issues {
		if is.Field == field {
			return is.Reason
		}
	}
	return ""
}

// Form field keys used in issues.
const (
	FieldName       = "name"
	FieldMotherName = "motherName"
	FieldFatherName = "fatherName"
	FieldGender     = "gender"
	FieldDOB        = "dob"
	FieldCountry    = "country"
	FieldState      = "state"
	FieldEmail      = "email"
	FieldContact    = "contact"
	FieldImage      = "image"
)

var fieldKeys = map[string]string{
	"Name":       FieldName,
	"MotherName": FieldMotherName,
	"FatherName": FieldFatherName,
	"Gender":     FieldGender,
	"DOB":        FieldDOB,
	"Country":    FieldCountry,
	"State":      FieldState,
	"Email":      FieldEmail,
	"Contact":    FieldContact,
}

var requiredMessages = map[string]string{
	FieldName:       "Please enter full name",
	FieldMotherName: "Please enter mother's name",
	FieldFatherName: "Please enter father's name",
	FieldGender:     "Please select gender",
	FieldDOB:        "Please select date of birth",
	FieldCountry:    "Please select country",
	FieldState:      "Please select state",
	FieldEmail:      "Please enter email",
	FieldContact:    "Please enter contact number",
	FieldImage:      "Please upload profile image",
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	err := v.RegisterValidation("digits", func(fl validator.FieldLevel) bool {
		s := fl.Field().String()
		for i := 0; i < len(s); i++ {
			if s[i] < '0' || s[i] > '9' {
				return false
			}
		}
		return s != ""
	})
	if err != nil {
		panic(fmt.Sprintf("register digits validation: %v", err))
	}
	return v
}

// Validate checks values before anything is sent. requireImage is true when
// creating, where a new image must have been read.
func Validate(values FormValues, requireImage bool) error {
	var issues []Issue
	if err := validate.Struct(values); err != nil {
		var verrs validator.ValidationErrors
		if !errors.As(err, &verrs) {
			return err
		}
		for _, fe := range verrs {
			key := fieldKeys[fe.StructField()]
			if key == "" {
				key = fe.StructField()
			}
			issues = append(issues, Issue{Field: key, Reason: reasonFor(key, fe.Tag())})
		}
	}
	if requireImage && (values.Image == nil || values.Image.Base64 == "") {
		issues = append(issues, Issue{Field: FieldImage, Reason: requiredMessages[FieldImage]})
	}
	if len(issues) == 0 {
		return nil
	}
	sort.SliceStable(issues, func(i, j int) bool { return issues[i].Field < issues[j].Field })
	return &ValidationError{Issues: issues}
}

func reasonFor(field, tag string) string {
	switch tag {
	case "required":
		return requiredMessages[field]
	case "email":
		return "Invalid email format"
	case "len":
		return "Contact must be 10 digits"
	case "digits":
		return "Only numbers allowed"
	case "oneof":
		return "Gender must be Male or Female"
	}
	return "is invalid"
}
