package devserver

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"empdir/internal/api"
	"empdir/internal/directory"
	"empdir/internal/editor"
	"empdir/internal/employee"
	"empdir/internal/lookup"
	"empdir/internal/storage"
)

func newTestService(t *testing.T) (*api.Service, *storage.Store) {
	t.Helper()
	ctx := context.Background()
	store, err := storage.Open(ctx, storage.MemoryPath)
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	_, err = store.SeedDefaults(ctx)
	require.NoError(t, err)

	ts := httptest.NewServer(New(store, nil).Handler())
	t.Cleanup(ts.Close)
	return api.NewService(api.NewClient(ts.URL)), store
}

func newValues() employee.FormValues {
	return employee.FormValues{
		Name: "Asha Verma", MotherName: "Meera", FatherName: "Raj",
		Gender: employee.GenderFemale, DOB: time.Date(1994, 3, 9, 0, 0, 0, 0, time.UTC),
		Country: "IN", State: "DL", Email: "asha@example.com", Contact: "0987654321",
		Image: &employee.Upload{FileName: "asha.png", Base64: "aGVsbG8="},
	}
}

func TestPageLoadServesSeededLookups(t *testing.T) {
	svc, _ := newTestService(t)

	ix, err := lookup.Load(context.Background(), svc)
	require.NoError(t, err)
	require.Equal(t, 2, ix.Len())
	require.Equal(t, "India", ix.CountryName("IN"))
	require.Equal(t, "Texas", ix.StateName("US", "TX"))
	require.Len(t, ix.States("IN"), 3)
}

func TestEmptyDirectoryListsNothing(t *testing.T) {
	svc, _ := newTestService(t)
	list, err := svc.ListEmployees(context.Background())
	require.NoError(t, err)
	require.Empty(t, list)
}

func TestCreateEditDeleteRoundTrip(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestService(t)
	ix, err := lookup.Load(ctx, svc)
	require.NoError(t, err)

	create := editor.NewCreate(svc)
	create.SetLookups(ix)
	res, err := create.Submit(ctx, newValues())
	require.NoError(t, err)
	require.Equal(t, "Employee added successfully", res.Notice)

	sync := directory.New(svc, ix)
	require.NoError(t, sync.Refresh(ctx))
	require.Len(t, sync.All(), 1)
	stored := sync.All()[0]
	require.NotEmpty(t, stored.ID)
	require.Equal(t, "1994-03-09", stored.DOB)
	require.Equal(t, "asha.png", stored.ProfileName)

	rows := sync.Rows()
	require.Equal(t, "India", rows[0].CountryName)
	require.Equal(t, "Delhi", rows[0].StateName)

	// editing without a new image keeps the stored one
	edit := editor.NewEdit(svc, stored)
	edit.SetLookups(ix)
	values := edit.Values()
	values.Contact = "1234567890"
	res, err = edit.Submit(ctx, values)
	require.NoError(t, err)
	require.Equal(t, "Employee updated successfully", res.Notice)

	require.NoError(t, sync.Refresh(ctx))
	updated, ok := sync.Find(stored.ID)
	require.True(t, ok)
	require.Equal(t, "1234567890", updated.Contact)
	require.Equal(t, stored.ProfileBase64, updated.ProfileBase64)
	require.Equal(t, "asha.png", updated.ProfileName)

	require.NoError(t, sync.Delete(ctx, stored.ID))
	require.Empty(t, sync.All())
	list, err := svc.ListEmployees(ctx)
	require.NoError(t, err)
	require.Empty(t, list)
}

func TestInsertRejectsInvalidPayload(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestService(t)

	payload := employee.ToWritePayload(newValues(), "", employee.ProfileMeta{})
	payload.ContactNumber = "12345"
	err := svc.SaveEmployee(ctx, payload)
	serr, ok := api.AsServerError(err)
	require.True(t, ok)
	require.Equal(t, http.StatusBadRequest, serr.StatusCode)
	require.Contains(t, serr.Payload.Message, "Contact must be 10 digits")

	payload = employee.ToWritePayload(newValues(), "", employee.ProfileMeta{})
	payload.ProfileBase64 = ""
	err = svc.SaveEmployee(ctx, payload)
	serr, ok = api.AsServerError(err)
	require.True(t, ok)
	require.Contains(t, serr.Payload.Message, "Please upload profile image")
}

func TestInsertRejectsStateOfOtherCountry(t *testing.T) {
	svc, _ := newTestService(t)
	values := newValues()
	values.State = "TX"
	err := svc.SaveEmployee(context.Background(), employee.ToWritePayload(values, "", employee.ProfileMeta{}))
	serr, ok := api.AsServerError(err)
	require.True(t, ok)
	require.Equal(t, http.StatusBadRequest, serr.StatusCode)
	require.Contains(t, serr.Error(), "does not belong to country IN")
}

func TestUpdateAndDeleteUnknownEmployee(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestService(t)

	err := svc.SaveEmployee(ctx, employee.ToWritePayload(newValues(), "missing", employee.ProfileMeta{}))
	serr, ok := api.AsServerError(err)
	require.True(t, ok)
	require.Equal(t, http.StatusNotFound, serr.StatusCode)

	err = svc.DeleteEmployee(ctx, "missing")
	serr, ok = api.AsServerError(err)
	require.True(t, ok)
	require.Equal(t, http.StatusNotFound, serr.StatusCode)
}

func TestUnknownResourceAndHealth(t *testing.T) {
	ctx := context.Background()
	store, err := storage.Open(ctx, storage.MemoryPath)
	require.NoError(t, err)
	defer store.Close()
	h := New(store, nil).Handler()

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/Nope", nil))
	require.Equal(t, http.StatusNotFound, rec.Code)
	require.True(t, strings.Contains(rec.Body.String(), `"status":404`))

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/"+api.ResourceDelete, strings.NewReader("{")))
	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestUpdateWithoutImageKeepsStoredImage(t *testing.T) {
	ctx := context.Background()
	svc, store := newTestService(t)

	require.NoError(t, svc.SaveEmployee(ctx, employee.ToWritePayload(newValues(), "", employee.ProfileMeta{})))
	list, err := store.ListEmployees(ctx)
	require.NoError(t, err)
	require.Len(t, list, 1)
	id := list[0].ID

	values := newValues()
	values.Image = nil
	values.Name = "Asha V."
	require.NoError(t, svc.SaveEmployee(ctx, employee.ToWritePayload(values, id, employee.ProfileMeta{})))

	got, err := store.EmployeeByID(ctx, id)
	require.NoError(t, err)
	require.Equal(t, "Asha V.", got.Name)
	require.Equal(t, "aGVsbG8=", got.ProfileBase64)
	require.Equal(t, "asha.png", got.ProfileName)
}
