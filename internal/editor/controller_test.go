package editor

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"empdir/internal/api"
	"empdir/internal/employee"
	"empdir/internal/lookup"
)

type fakeWriter struct {
	payloads []api.WritePayload
	err      error
}

func (f *fakeWriter) SaveEmployee(_ context.Context, p api.WritePayload) error {
	f.payloads = append(f.payloads, p)
	return f.err
}

type fakeLookups struct {
	data api.PageLoad
	err  error
}

func (f fakeLookups) PageLoad(context.Context) (api.PageLoad, error) { return f.data, f.err }

func testPageLoad() api.PageLoad {
	return api.PageLoad{
		CountryList: []api.LookupRecord{{ID: "IN", Name: "India"}, {ID: "US", Name: "USA"}},
		StateList:   []api.LookupRecord{{ID: "DL", Name: "Delhi", ParentID: "IN"}, {ID: "CA", Name: "California", ParentID: "US"}},
	}
}

func filledValues() employee.FormValues {
	return employee.FormValues{
		Name:       "Asha Verma",
		MotherName: "Meera Verma",
		FatherName: "Raj Verma",
		Gender:     employee.GenderFemale,
		DOB:        time.Date(1994, 3, 9, 0, 0, 0, 0, time.UTC),
		Country:    "IN",
		State:      "DL",
		Email:      "asha@example.com",
		Contact:    "9876543210",
		Image:      &employee.Upload{FileName: "asha.png", Base64: "aGVsbG8="},
	}
}

func prior() employee.ViewModel {
	return employee.ViewModel{
		ID:            "42",
		Name:          "Asha Verma",
		MotherName:    "Meera Verma",
		FatherName:    "Raj Verma",
		Gender:        employee.GenderFemale,
		Country:       "US",
		State:         "CA",
		Email:         "asha@example.com",
		Contact:       "9876543210",
		DOB:           "1994-03-09",
		ProfileBase64: "b2xk",
		ProfileName:   "old.png",
	}
}

func TestNewFormDefaults(t *testing.T) {
	c := NewCreate(&fakeWriter{})
	require.Equal(t, ModeNew, c.Mode())
	require.Empty(t, c.ID())
	require.Equal(t, employee.GenderMale, c.Values().Gender)
	require.Empty(t, c.Countries())
	require.Empty(t, c.States())
	require.False(t, c.LookupsLoaded())
}

func TestCountryChangeClearsState(t *testing.T) {
	c := NewCreate(&fakeWriter{})
	require.NoError(t, c.LoadLookups(context.Background(), fakeLookups{data: testPageLoad()}))
	require.Len(t, c.Countries(), 2)

	c.SelectCountry("IN")
	require.Equal(t, []lookup.State{{Code: "DL", Name: "Delhi", CountryCode: "IN"}}, c.States())
	require.NoError(t, c.SelectState("DL"))
	require.Equal(t, "DL", c.Values().State)

	c.SelectCountry("US")
	require.Empty(t, c.Values().State)
	require.Equal(t, []lookup.State{{Code: "CA", Name: "California", CountryCode: "US"}}, c.States())
	require.Error(t, c.SelectState("DL"))
	require.Empty(t, c.Values().State)
}

func TestLoadLookupsFailureCanRetry(t *testing.T) {
	c := NewCreate(&fakeWriter{})
	require.Error(t, c.LoadLookups(context.Background(), fakeLookups{err: errors.New("down")}))
	require.Empty(t, c.Countries())

	require.NoError(t, c.LoadLookups(context.Background(), fakeLookups{data: testPageLoad()}))
	require.Len(t, c.Countries(), 2)
}

func TestEditPrefillsOnceAndToleratesLateLookups(t *testing.T) {
	c := NewEdit(&fakeWriter{}, prior())
	require.Equal(t, ModeEditing, c.Mode())
	require.Equal(t, "42", c.ID())
	require.Equal(t, "US", c.Values().Country)
	require.Equal(t, "CA", c.Values().State)
	require.Equal(t, "1994-03-09", c.Values().DOB.Format(employee.APIDateLayout))
	require.Empty(t, c.States())

	v := c.Values()
	v.Name = "Asha V."
	c.SetValues(v)

	c.SetLookups(lookup.Build(testPageLoad().CountryList, testPageLoad().StateList))
	require.Equal(t, "Asha V.", c.Values().Name)
	require.Equal(t, "CA", c.Values().State)
	require.Len(t, c.States(), 1)
	require.Equal(t, "California", c.States()[0].Name)
}

func TestSubmitCreate(t *testing.T) {
	w := &fakeWriter{}
	c := NewCreate(w)

	res, err := c.Submit(context.Background(), filledValues())
	require.NoError(t, err)
	require.True(t, res.NavigateAway)
	require.Equal(t, "Employee added successfully", res.Notice)
	require.Len(t, w.payloads, 1)
	p := w.payloads[0]
	require.Empty(t, p.ID)
	require.Equal(t, "1994-03-09", p.DOB)
	require.Equal(t, "asha.png", p.ProfileName)
	require.Equal(t, "aGVsbG8=", p.ProfileBase64)
}

func TestSubmitCreateRequiresImage(t *testing.T) {
	w := &fakeWriter{}
	c := NewCreate(w)
	v := filledValues()
	v.Image = nil

	_, err := c.Submit(context.Background(), v)
	var verr *employee.ValidationError
	require.ErrorAs(t, err, &verr)
	require.NotEmpty(t, verr.Reason(employee.FieldImage))
	require.Empty(t, w.payloads)
}

func TestSubmitShortContactNeverCallsAPI(t *testing.T) {
	w := &fakeWriter{}
	c := NewCreate(w)
	v := filledValues()
	v.Contact = "12345"

	_, err := c.Submit(context.Background(), v)
	var verr *employee.ValidationError
	require.ErrorAs(t, err, &verr)
	require.Equal(t, "Contact must be 10 digits", verr.Reason(employee.FieldContact))
	require.Empty(t, w.payloads)
	require.Equal(t, "12345", c.Values().Contact)
}

func TestSubmitUpdateKeepsStoredImage(t *testing.T) {
	w := &fakeWriter{}
	c := NewEdit(w, prior())

	res, err := c.Submit(context.Background(), c.Values())
	require.NoError(t, err)
	require.Equal(t, "Employee updated successfully", res.Notice)
	require.Len(t, w.payloads, 1)
	p := w.payloads[0]
	require.Equal(t, "42", p.ID)
	require.Equal(t, "old.png", p.ProfileName)
	require.Equal(t, "b2xk", p.ProfileBase64)
	require.Equal(t, "US", p.CountryCode)
	require.Equal(t, "CA", p.StateCode)
}

func TestSubmitUpdateWithNewImage(t *testing.T) {
	w := &fakeWriter{}
	c := NewEdit(w, prior())
	c.SetImage(employee.Upload{FileName: "new.jpg", Base64: "bmV3"})

	_, err := c.Submit(context.Background(), c.Values())
	require.NoError(t, err)
	require.Equal(t, "new.jpg", w.payloads[0].ProfileName)
	require.Equal(t, "bmV3", w.payloads[0].ProfileBase64)
}

func TestSubmitFailureKeepsValues(t *testing.T) {
	w := &fakeWriter{err: &api.ServerError{StatusCode: 500}}
	c := NewCreate(w)
	v := filledValues()
	v.Name = "  Asha Verma  "

	_, err := c.Submit(context.Background(), v)
	require.Error(t, err)
	_, ok := api.AsServerError(err)
	require.True(t, ok)
	require.Equal(t, "Asha Verma", c.Values().Name)
	require.Equal(t, "9876543210", c.Values().Contact)
	require.NotNil(t, c.Values().Image)

	w.err = nil
	_, err = c.Submit(context.Background(), c.Values())
	require.NoError(t, err)
	require.Len(t, w.payloads, 2)
}

func TestPrepareSendsNothingAndCompleteReportsOutcome(t *testing.T) {
	w := &fakeWriter{}
	c := NewCreate(w)
	c.SetLookups(lookup.Build(testPageLoad().CountryList, testPageLoad().StateList))

	payload, err := c.Prepare(filledValues())
	require.NoError(t, err)
	require.Empty(t, w.payloads)
	require.Equal(t, "Asha Verma", payload.Name)
	require.Equal(t, "1994-03-09", payload.DOB)

	require.NoError(t, c.Save(context.Background(), payload))
	require.Len(t, w.payloads, 1)

	res, err := c.Complete(nil)
	require.NoError(t, err)
	require.Equal(t, "Employee added successfully", res.Notice)
	require.True(t, res.NavigateAway)

	_, err = c.Complete(errors.New("down"))
	require.ErrorContains(t, err, "save employee: down")
}
