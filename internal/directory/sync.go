// Package directory owns the working employee collection and its filtered view.
package directory

import (
	"context"
	"fmt"
	"strings"

	"empdir/internal/api"
	"empdir/internal/employee"
	"empdir/internal/lookup"
)

// Phase is the load state of the collection.
type Phase int

const (
	PhaseIdle Phase = iota
	PhaseLoading
	PhaseReady
)

func (p Phase) String() string {
	switch p {
	case PhaseIdle:
		return "idle"
	case PhaseLoading:
		return "loading"
	case PhaseReady:
		return "ready"
	default:
		return fmt.Sprintf("phase(%d)", int(p))
	}
}

// Source is the remote side of the collection.
type Source interface {
	ListEmployees(ctx context.Context) ([]api.RawEmployee, error)
	DeleteEmployee(ctx context.Context, id string) error
}

// Row is an employee with codes resolved to display names.
type Row struct {
	Employee    employee.ViewModel
	CountryName string
	StateName   string
}

// Synchronizer keeps the local collection in step with the server. It is not
// safe for concurrent use; callers drive it from one loop and run only
// Fetch and the Source calls off that loop.
type Synchronizer struct {
	src   Source
	index *lookup.Index

	phase     Phase
	prevPhase Phase
	all       []employee.ViewModel
	visible   []employee.ViewModel
	query     string
}

// New builds a synchronizer. index may be nil until lookups load.
func New(src Source, index *lookup.Index) *Synchronizer {
	return &Synchronizer{src: src, index: index, phase: PhaseIdle}
}

// SetIndex swaps the lookup snapshot and re-applies the active search, since
// resolved names may now match differently.
func (s *Synchronizer) SetIndex(ix *lookup.Index) {
	s.index = ix
	if s.query != "" {
		s.Search(s.query)
	}
}

// Index returns the lookup snapshot in use.
func (s *Synchronizer) Index() *lookup.Index { return s.index }

// Phase returns the current load phase.
func (s *Synchronizer) Phase() Phase { return s.phase }

// Query returns the active search text.
func (s *Synchronizer) Query() string { return s.query }

// All returns the full collection.
func (s *Synchronizer) All() []employee.ViewModel { return s.all }

// Visible returns the filtered view.
func (s *Synchronizer) Visible() []employee.ViewModel { return s.visible }

// Refresh re-fetches the collection. On failure the previous collection stays.
func (s *Synchronizer) Refresh(ctx context.Context) error {
	s.BeginRefresh()
	raws, err := s.Fetch(ctx)
	return s.FinishRefresh(raws, err)
}

// BeginRefresh enters the loading phase.
func (s *Synchronizer) BeginRefresh() {
	if s.phase != PhaseLoading {
		s.prevPhase = s.phase
	}
	s.phase = PhaseLoading
}

// Fetch performs the network read only. It does not touch local state and may
// run off the owning loop.
func (s *Synchronizer) Fetch(ctx context.Context) ([]api.RawEmployee, error) {
	return s.src.ListEmployees(ctx)
}

// FinishRefresh applies a fetch result. Success replaces both the collection
// and the view and clears the search.
func (s *Synchronizer) FinishRefresh(raws []api.RawEmployee, err error) error {
	if err != nil {
		s.phase = s.prevPhase
		return fmt.Errorf("refresh employees: %w", err)
	}
	s.all = employee.ToViewModels(raws)
	s.visible = s.all
	s.query = ""
	s.phase = PhaseReady
	return nil
}

// Search filters the full collection by a case-insensitive substring over
// name, email, contact and the resolved country and state names. An empty
// or blank query shows everything; otherwise the query is matched as typed,
// spaces included.
func (s *Synchronizer) Search(query string) {
	s.query = query
	if strings.TrimSpace(query) == "" {
		s.visible = s.all
		return
	}
	needle := strings.ToLower(s.query)
	out := make([]employee.ViewModel, 0, len(s.all))
	for _, emp := range s.all {
		if s.matches(emp, needle) {
			out = append(out, emp)
		}
	}
	s.visible = out
}

func (s *Synchronizer) matches(emp employee.ViewModel, needle string) bool {
	fields := [...]string{
		emp.Name,
		emp.Email,
		emp.Contact,
		s.index.CountryName(emp.Country),
		s.index.StateName(emp.Country, emp.State),
	}
	for _, f := range fields {
		if strings.Contains(strings.ToLower(f), needle) {
			return true
		}
	}
	return false
}

// Contains reports whether id is in the full collection.
func (s *Synchronizer) Contains(id string) bool {
	for _, emp := range s.all {
		if emp.ID == id {
			return true
		}
	}
	return false
}

// Find returns the record with id.
func (s *Synchronizer) Find(id string) (employee.ViewModel, bool) {
	for _, emp := range s.all {
		if emp.ID == id {
			return emp, true
		}
	}
	return employee.ViewModel{}, false
}

// Delete removes id on the server and then locally. An id that is not in the
// collection is a no-op. A failed server call leaves local state untouched.
func (s *Synchronizer) Delete(ctx context.Context, id string) error {
	if !s.Contains(id) {
		return nil
	}
	if err := s.src.DeleteEmployee(ctx, id); err != nil {
		return fmt.Errorf("delete employee %s: %w", id, err)
	}
	s.Remove(id)
	return nil
}

// Remove drops id from the collection and the view without a server call.
func (s *Synchronizer) Remove(id string) {
	s.all = without(s.all, id)
	s.visible = without(s.visible, id)
}

func without(list []employee.ViewModel, id string) []employee.ViewModel {
	out := make([]employee.ViewModel, 0, len(list))
	for _, emp := range list {
		if emp.ID != id {
			out = append(out, emp)
		}
	}
	return out
}

// Rows resolves the visible records for display.
func (s *Synchronizer) Rows() []Row {
	rows := make([]Row, 0, len(s.visible))
	for _, emp := range s.visible {
		rows = append(rows, Row{
			Employee:    emp,
			CountryName: s.index.CountryName(emp.Country),
			StateName:   s.index.StateName(emp.Country, emp.State),
		})
	}
	return rows
}

// Page slices rows client-side. page is zero-based; out-of-range pages are empty.
func Page(rows []Row, page, size int) []Row {
	if size <= 0 {
		return rows
	}
	start := page * size
	if page < 0 || start >= len(rows) {
		return nil
	}
	end := start + size
	if end > len(rows) {
		end = len(rows)
	}
	return rows[start:end]
}

// PageCount returns how many pages of size n rows make.
func PageCount(n, size int) int {
	if size <= 0 || n == 0 {
		return 1
	}
	return (n + size - 1) / size
}
