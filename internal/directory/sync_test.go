package directory

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"empdir/internal/api"
	"empdir/internal/lookup"
)

type fakeSource struct {
	employees []api.RawEmployee
	listErr   error
	deleteErr error
	deleted   []string
	lists     int
}

func (f *fakeSource) ListEmployees(context.Context) ([]api.RawEmployee, error) {
	f.lists++
	if f.listErr != nil {
		return nil, f.listErr
	}
	return f.employees, nil
}

func (f *fakeSource) DeleteEmployee(_ context.Context, id string) error {
	f.deleted = append(f.deleted, id)
	return f.deleteErr
}

func testIndex() *lookup.Index {
	return lookup.Build(
		[]api.LookupRecord{{ID: "IN", Name: "India"}, {ID: "US", Name: "USA"}},
		[]api.LookupRecord{{ID: "DL", Name: "Delhi", ParentID: "IN"}, {ID: "CA", Name: "California", ParentID: "US"}},
	)
}

func testEmployees() []api.RawEmployee {
	return []api.RawEmployee{
		{ID: "1", Name: "Asha Verma", EmailAddress: "asha@example.com", ContactNumber: "9876543210", CountryCode: "IN", StateCode: "DL"},
		{ID: "2", Name: "John Smith", EmailAddress: "john@corp.io", ContactNumber: "4155550100", CountryCode: "US", StateCode: "CA"},
		{ID: "3", Name: "Ravi Kumar", EmailAddress: "ravi@example.com", ContactNumber: "9123456780", CountryCode: "IN", StateCode: "XX"},
	}
}

func ids(s *Synchronizer, visible bool) []string {
	list := s.All()
	if visible {
		list = s.Visible()
	}
	out := make([]string, 0, len(list))
	for _, e := range list {
		out = append(out, e.ID)
	}
	return out
}

func TestRefreshLoadsCollection(t *testing.T) {
	src := &fakeSource{employees: testEmployees()}
	s := New(src, testIndex())
	require.Equal(t, PhaseIdle, s.Phase())

	require.NoError(t, s.Refresh(context.Background()))
	require.Equal(t, PhaseReady, s.Phase())
	require.Equal(t, []string{"1", "2", "3"}, ids(s, false))
	require.Equal(t, []string{"1", "2", "3"}, ids(s, true))
	require.Equal(t, "Asha Verma", s.All()[0].Name)
}

func TestRefreshClearsSearch(t *testing.T) {
	src := &fakeSource{employees: testEmployees()}
	s := New(src, testIndex())
	require.NoError(t, s.Refresh(context.Background()))

	s.Search("john")
	require.Equal(t, []string{"2"}, ids(s, true))

	require.NoError(t, s.Refresh(context.Background()))
	require.Empty(t, s.Query())
	require.Equal(t, []string{"1", "2", "3"}, ids(s, true))
}

func TestFailedRefreshKeepsPreviousList(t *testing.T) {
	src := &fakeSource{employees: testEmployees()}
	s := New(src, testIndex())
	require.NoError(t, s.Refresh(context.Background()))
	s.Search("asha")

	boom := &api.TransportError{Method: "GET", Resource: api.ResourceSelect, Err: errors.New("connection refused")}
	src.listErr = boom
	err := s.Refresh(context.Background())
	require.ErrorIs(t, err, boom)
	require.True(t, api.IsTransport(err))
	require.Equal(t, PhaseReady, s.Phase())
	require.Equal(t, []string{"1", "2", "3"}, ids(s, false))
	require.Equal(t, []string{"1"}, ids(s, true))
}

func TestFailedFirstRefreshReturnsToIdle(t *testing.T) {
	s := New(&fakeSource{listErr: errors.New("down")}, nil)
	require.Error(t, s.Refresh(context.Background()))
	require.Equal(t, PhaseIdle, s.Phase())
	require.Empty(t, s.All())
}

func TestBeginRefreshEntersLoading(t *testing.T) {
	s := New(&fakeSource{employees: testEmployees()}, nil)
	s.BeginRefresh()
	require.Equal(t, PhaseLoading, s.Phase())

	raws, err := s.Fetch(context.Background())
	require.Equal(t, PhaseLoading, s.Phase())
	require.NoError(t, s.FinishRefresh(raws, err))
	require.Equal(t, PhaseReady, s.Phase())
}

func TestSearchMatchesResolvedNames(t *testing.T) {
	s := New(&fakeSource{employees: testEmployees()}, testIndex())
	require.NoError(t, s.Refresh(context.Background()))

	cases := map[string][]string{
		"INDIA":    {"1", "3"},
		"delhi":    {"1"},
		"californ": {"2"},
		"@example": {"1", "3"},
		"415555":   {"2"},
		"smith":    {"2"},
		"xx":       {"3"},
		"nobody":   {},
		"a ":       {"1"},
		" kumar":   {"3"},
		"kumar ":   {},
		"   ":      {"1", "2", "3"},
	}
	for q, want := range cases {
		s.Search(q)
		require.Equal(t, want, ids(s, true), q)
	}
}

func TestSearchIsNotCumulative(t *testing.T) {
	s := New(&fakeSource{employees: testEmployees()}, testIndex())
	require.NoError(t, s.Refresh(context.Background()))

	s.Search("asha")
	s.Search("john")
	require.Equal(t, []string{"2"}, ids(s, true))

	s.Search("abc")
	require.Empty(t, ids(s, true))
	s.Search("")
	require.Equal(t, []string{"1", "2", "3"}, ids(s, true))
}

func TestSearchWithoutIndexUsesCodes(t *testing.T) {
	s := New(&fakeSource{employees: testEmployees()}, nil)
	require.NoError(t, s.Refresh(context.Background()))

	s.Search("india")
	require.Empty(t, ids(s, true))

	s.SetIndex(testIndex())
	require.Equal(t, []string{"1", "3"}, ids(s, true))
}

func TestDeleteRemovesLocally(t *testing.T) {
	src := &fakeSource{employees: testEmployees()}
	s := New(src, testIndex())
	require.NoError(t, s.Refresh(context.Background()))
	s.Search("example")

	require.NoError(t, s.Delete(context.Background(), "1"))
	require.Equal(t, []string{"1"}, src.deleted)
	require.Equal(t, []string{"2", "3"}, ids(s, false))
	require.Equal(t, []string{"3"}, ids(s, true))
	require.Equal(t, 1, src.lists)
}

func TestDeleteAbsentIDIsNoop(t *testing.T) {
	src := &fakeSource{employees: testEmployees()}
	s := New(src, testIndex())
	require.NoError(t, s.Refresh(context.Background()))

	require.NoError(t, s.Delete(context.Background(), "404"))
	require.Empty(t, src.deleted)
	require.Equal(t, []string{"1", "2", "3"}, ids(s, false))

	require.NoError(t, s.Delete(context.Background(), "2"))
	require.NoError(t, s.Delete(context.Background(), "2"))
	require.Equal(t, []string{"2"}, src.deleted)
}

func TestFailedDeleteLeavesState(t *testing.T) {
	src := &fakeSource{employees: testEmployees(), deleteErr: errors.New("nope")}
	s := New(src, testIndex())
	require.NoError(t, s.Refresh(context.Background()))

	require.Error(t, s.Delete(context.Background(), "2"))
	require.Equal(t, []string{"1", "2", "3"}, ids(s, false))
	require.Equal(t, []string{"1", "2", "3"}, ids(s, true))
}

func TestRowsResolveNames(t *testing.T) {
	s := New(&fakeSource{employees: testEmployees()}, testIndex())
	require.NoError(t, s.Refresh(context.Background()))

	rows := s.Rows()
	require.Len(t, rows, 3)
	require.Equal(t, "India", rows[0].CountryName)
	require.Equal(t, "Delhi", rows[0].StateName)
	require.Equal(t, "XX", rows[2].StateName)
}

func TestFind(t *testing.T) {
	s := New(&fakeSource{employees: testEmployees()}, nil)
	require.NoError(t, s.Refresh(context.Background()))

	emp, ok := s.Find("2")
	require.True(t, ok)
	require.Equal(t, "John Smith", emp.Name)
	_, ok = s.Find("9")
	require.False(t, ok)
}

func TestPage(t *testing.T) {
	rows := make([]Row, 7)
	for i := range rows {
		rows[i].Employee.ID = string(rune('a' + i))
	}
	require.Len(t, Page(rows, 0, 3), 3)
	require.Len(t, Page(rows, 2, 3), 1)
	require.Nil(t, Page(rows, 3, 3))
	require.Nil(t, Page(rows, -1, 3))
	require.Len(t, Page(rows, 0, 0), 7)
	require.Equal(t, 3, PageCount(7, 3))
	require.Equal(t, 1, PageCount(0, 3))
}
