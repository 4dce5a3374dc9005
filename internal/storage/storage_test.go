package storage

import (
	"context"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(context.Background(), MemoryPath)
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func sampleEmployee() *Employee {
	return &Employee{
		Name: "Asha Verma", MotherName: "Meera", FatherName: "Raj", Gender: "Female",
		CountryCode: "IN", StateCode: "DL", Email: "asha@example.com", Contact: "0987654321",
		DOB: "1994-03-09", ProfileName: "asha.png", ProfileBase64: "aGVsbG8=",
	}
}

func TestSeedDefaultsOnce(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t)

	seeded, err := s.SeedDefaults(ctx)
	require.NoError(t, err)
	require.True(t, seeded)

	seeded, err = s.SeedDefaults(ctx)
	require.NoError(t, err)
	require.False(t, seeded)

	countries, err := s.ListCountries(ctx)
	require.NoError(t, err)
	require.Equal(t, DefaultCountries, countries)

	states, err := s.ListStates(ctx)
	require.NoError(t, err)
	require.Equal(t, DefaultStates, states)
}

func TestStateCodesScopedByCountry(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t)
	require.NoError(t, s.UpsertCountry(ctx, Country{Code: "IN", Name: "India"}))
	require.NoError(t, s.UpsertCountry(ctx, Country{Code: "US", Name: "USA"}))
	require.NoError(t, s.UpsertState(ctx, State{CountryCode: "IN", Code: "CA", Name: "Calcutta"}))
	require.NoError(t, s.UpsertState(ctx, State{CountryCode: "US", Code: "CA", Name: "California"}))
	require.NoError(t, s.UpsertState(ctx, State{CountryCode: "US", Code: "CA", Name: "Calif."}))

	states, err := s.ListStates(ctx)
	require.NoError(t, err)
	require.Equal(t, []State{
		{CountryCode: "IN", Code: "CA", Name: "Calcutta"},
		{CountryCode: "US", Code: "CA", Name: "Calif."},
	}, states)

	err = s.UpsertState(ctx, State{CountryCode: "FR", Code: "PA", Name: "Paris"})
	require.ErrorIs(t, err, ErrUnknownCountry)
}

func TestEmployeeLifecycle(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t)

	e := sampleEmployee()
	require.NoError(t, s.SaveEmployee(ctx, e))
	require.NotEmpty(t, e.ID)
	require.False(t, e.CreatedAt.IsZero())

	got, err := s.EmployeeByID(ctx, e.ID)
	require.NoError(t, err)
	require.Equal(t, "Asha Verma", got.Name)
	require.Equal(t, "asha.png", got.ProfileName)
	require.Equal(t, "aGVsbG8=", got.ProfileBase64)

	got.Contact = "1234567890"
	got.ProfileName = ""
	require.NoError(t, s.SaveEmployee(ctx, got))

	list, err := s.ListEmployees(ctx)
	require.NoError(t, err)
	require.Len(t, list, 1)
	require.Equal(t, "1234567890", list[0].Contact)
	require.Empty(t, list[0].ProfileName)

	require.NoError(t, s.DeleteEmployee(ctx, e.ID))
	require.ErrorIs(t, s.DeleteEmployee(ctx, e.ID), ErrNotFound)
	_, err = s.EmployeeByID(ctx, e.ID)
	require.ErrorIs(t, err, ErrNotFound)
}

func TestUpdateUnknownEmployee(t *testing.T) {
	s := openTestStore(t)
	e := sampleEmployee()
	e.ID = "missing"
	require.ErrorIs(t, s.SaveEmployee(context.Background(), e), ErrNotFound)
}

func TestListEmployeesSortedByName(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t)
	for _, name := range []string{"zoya", "Bala", "amit"} {
		e := sampleEmployee()
		e.Name = name
		require.NoError(t, s.SaveEmployee(ctx, e))
	}
	list, err := s.ListEmployees(ctx)
	require.NoError(t, err)
	var names []string
	for _, e := range list {
		names = append(names, e.Name)
	}
	require.Equal(t, []string{"amit", "Bala", "zoya"}, names)
}

func TestImportLookupsCSV(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t)
	csv := strings.Join([]string{
		"kind,code,name,parent",
		"country,IN,India,",
		"state,DL,Delhi,IN",
		"state,PA,Paris,FR",
		"planet,EA,Earth,",
		"country,,Nowhere,",
	}, "\n")

	res, err := s.ImportLookupsCSV(ctx, strings.NewReader(csv))
	require.NoError(t, err)
	require.Equal(t, 1, res.Countries)
	require.Equal(t, 1, res.States)
	require.Equal(t, 3, res.Skipped)
	require.Len(t, res.Errors, 3)
	require.Contains(t, res.Errors[0], "unknown country 'FR'")

	_, err = s.ImportLookupsCSV(ctx, strings.NewReader("code,name\nIN,India"))
	require.Error(t, err)
}

func TestOpenFilePersists(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "dev.db")

	s, err := Open(ctx, path)
	require.NoError(t, err)
	require.Equal(t, path, s.Path())
	require.NoError(t, s.SaveEmployee(ctx, sampleEmployee()))
	require.NoError(t, s.Close())

	s, err = Open(ctx, path)
	require.NoError(t, err)
	defer s.Close()
	list, err := s.ListEmployees(ctx)
	require.NoError(t, err)
	require.Len(t, list, 1)
}
