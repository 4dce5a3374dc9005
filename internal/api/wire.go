package api

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
)

// Remote operation names. Each is appended to the base URL as the request path.
const (
	ResourcePageLoad     = "PageLoadForEmployeeDemoProfile"
	ResourceSelect       = "SelectEmployeeDemoProfile"
	ResourceInsertUpdate = "InsertUpdateEmployeeDemoProfile"
	ResourceDelete       = "DeleteEmployeeDemoProfile"
)

// SelectKey is the field of the list response holding the employee records.
const SelectKey = "select-employee"

// Envelope is the body shape every endpoint answers with.
type Envelope struct {
	Status  int             `json:"status"`
	Message string          `json:"message,omitempty"`
	Data    json.RawMessage `json:"data,omitempty"`
}

// Code is an opaque record code. The API sends codes as strings or numbers
// depending on the backing table; both decode to the same string form.
type Code string

func (c *Code) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) == 0 || bytes.Equal(b, []byte("null")) {
		*c = ""
		return nil
	}
	if b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*c = Code(strings.TrimSpace(s))
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(b, &n); err != nil {
		return fmt.Errorf("decode code %s: %w", string(b), err)
	}
	*c = Code(n.String())
	return nil
}

func (c Code) String() string { return string(c) }

// LookupRecord is a country or state row from the page-load call. ParentID is
// empty for countries.
type LookupRecord struct {
	ID       Code   `json:"RECORD_ID"`
	Name     string `json:"RECORD_NAME"`
	ParentID Code   `json:"PARENT_RECORD_ID,omitempty"`
}

// PageLoad carries the lookup lists for the form and the list screen.
type PageLoad struct {
	CountryList []LookupRecord `json:"CountryList"`
	StateList   []LookupRecord `json:"StateList"`
}

// RawEmployee is an employee exactly as the list endpoint returns it.
type RawEmployee struct {
	ID            Code   `json:"ID"`
	Name          string `json:"NAME"`
	MotherName    string `json:"MOTHER_NAME"`
	FatherName    string `json:"FATHER_NAME"`
	Gender        string `json:"GENDER"`
	CountryCode   Code   `json:"COUNTRY_CODE"`
	StateCode     Code   `json:"STATE_CODE"`
	EmailAddress  string `json:"EMAIL_ADDRESS"`
	ContactNumber string `json:"CONTACT_NUMBER"`
	DOB           string `json:"DOB"`
	ProfileBase64 string `json:"EMPLOYEE_PROFILE_Base64String"`
	ProfileName   string `json:"EMPLOYEE_PROFILE_NAME,omitempty"`
}

type selectResponse struct {
	Employees []RawEmployee `json:"select-employee"`
}

// WritePayload is the body of the insert/update call. The odd casing of the
// keys is what the server binds against.
type WritePayload struct {
	ID            string `json:"id"`
	Name          string `json:"name"`
	MotherName    string `json:"motheR_NAME"`
	FatherName    string `json:"fatheR_NAME"`
	Gender        string `json:"gender"`
	CountryCode   string `json:"countrY_CODE"`
	StateCode     string `json:"statE_CODE"`
	EmailAddress  string `json:"emaiL_ADDRESS"`
	ContactNumber string `json:"contacT_NUMBER"`
	DOB           string `json:"DOB"`
	ProfileName   string `json:"EMPLOYEE_PROFILE_NAME"`
	ProfileBase64 string `json:"EMPLOYEE_PROFILE_Base64String"`
}

// DeletePayload is the body of the delete call.
type DeletePayload struct {
	ID string `json:"id"`
}
