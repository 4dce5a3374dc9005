// Package devserver serves the employee API from a local SQLite store, for
// running the client without the real backend.
package devserver

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/sirupsen/logrus"

	"empdir/internal/api"
	"empdir/internal/employee"
	"empdir/internal/logging"
	"empdir/internal/lookup"
	"empdir/internal/storage"
)

const maxBodyBytes = 16 << 20

// Server answers the four employee endpoints.
type Server struct {
	store  *storage.Store
	log    logrus.FieldLogger
	router chi.Router
}

// New builds the router over store.
func New(store *storage.Store, log logrus.FieldLogger) *Server {
	if log == nil {
		log = logging.Nop()
	}
	s := &Server{store: store, log: log}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(requestLogger(log))
	r.Use(middleware.Recoverer)
	r.Use(bodyLimit(maxBodyBytes))

	r.Get("/healthz", s.handleHealth)
	r.Get("/"+api.ResourcePageLoad, s.handlePageLoad)
	r.Get("/"+api.ResourceSelect, s.handleSelect)
	r.Post("/"+api.ResourceInsertUpdate, s.handleInsertUpdate)
	r.Post("/"+api.ResourceDelete, s.handleDelete)
	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		writeEnvelope(w, http.StatusNotFound, "unknown resource", nil)
	})
	s.router = r
	return s
}

// Handler exposes the router.
func (s *Server) Handler() http.Handler { return s.router }

// ListenAndServe serves on addr until ctx is cancelled.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}
	errCh := make(chan error, 1)
	go func() {
		s.log.WithField("addr", addr).Info("dev api listening")
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return err
		}
		return nil
	}
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()
	if err := s.store.Ping(ctx); err != nil {
		writeEnvelope(w, http.StatusServiceUnavailable, "db not ready", nil)
		return
	}
	writeEnvelope(w, http.StatusOK, "ok", nil)
}

func (s *Server) handlePageLoad(w http.ResponseWriter, r *http.Request) {
	countries, states, err := s.lookups(r.Context())
	if err != nil {
		s.fail(w, r, http.StatusInternalServerError, "could not load lookups", err)
		return
	}
	writeEnvelope(w, http.StatusOK, "", api.PageLoad{CountryList: countries, StateList: states})
}

func (s *Server) handleSelect(w http.ResponseWriter, r *http.Request) {
	list, err := s.store.ListEmployees(r.Context())
	if err != nil {
		s.fail(w, r, http.StatusInternalServerError, "could not load employees", err)
		return
	}
	out := make([]api.RawEmployee, 0, len(list))
	for _, e := range list {
		out = append(out, toRaw(e))
	}
	writeEnvelope(w, http.StatusOK, "", map[string][]api.RawEmployee{api.SelectKey: out})
}

func (s *Server) handleInsertUpdate(w http.ResponseWriter, r *http.Request) {
	var p api.WritePayload
	if err := json.NewDecoder(r.Body).Decode(&p); err != nil {
		writeEnvelope(w, http.StatusBadRequest, "invalid request body", nil)
		return
	}
	creating := p.ID == ""
	values := employee.FormValuesFromPayload(p)
	if err := employee.Validate(values, creating); err != nil {
		writeEnvelope(w, http.StatusBadRequest, err.Error(), nil)
		return
	}

	countries, states, err := s.lookups(r.Context())
	if err != nil {
		s.fail(w, r, http.StatusInternalServerError, "could not load lookups", err)
		return
	}
	if !lookup.Build(countries, states).HasState(values.Country, values.State) {
		writeEnvelope(w, http.StatusBadRequest, "state "+values.State+" does not belong to country "+values.Country, nil)
		return
	}

	if !creating {
		existing, err := s.store.EmployeeByID(r.Context(), p.ID)
		if errors.Is(err, storage.ErrNotFound) {
			writeEnvelope(w, http.StatusNotFound, "employee not found", nil)
			return
		}
		if err != nil {
			s.fail(w, r, http.StatusInternalServerError, "could not load employee", err)
			return
		}
		// an update without an image body keeps the stored image
		if p.ProfileBase64 == "" {
			p.ProfileBase64 = existing.ProfileBase64
			if p.ProfileName == "" {
				p.ProfileName = existing.ProfileName
			}
		}
	}

	rec := &storage.Employee{
		ID:            p.ID,
		Name:          values.Name,
		MotherName:    values.MotherName,
		FatherName:    values.FatherName,
		Gender:        string(values.Gender),
		CountryCode:   values.Country,
		StateCode:     values.State,
		Email:         values.Email,
		Contact:       values.Contact,
		DOB:           values.DOB.Format(employee.APIDateLayout),
		ProfileName:   p.ProfileName,
		ProfileBase64: p.ProfileBase64,
	}
	if err := s.store.SaveEmployee(r.Context(), rec); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			writeEnvelope(w, http.StatusNotFound, "employee not found", nil)
			return
		}
		s.fail(w, r, http.StatusInternalServerError, "could not save employee", err)
		return
	}

	msg := "Employee updated successfully"
	if creating {
		msg = "Employee added successfully"
	}
	s.log.WithFields(logrus.Fields{"id": rec.ID, "created": creating}).Info("employee saved")
	writeEnvelope(w, http.StatusOK, msg, map[string]string{"id": rec.ID})
}

func (s *Server) handleDelete(w http.ResponseWriter, r *http.Request) {
	var p api.DeletePayload
	if err := json.NewDecoder(r.Body).Decode(&p); err != nil || p.ID == "" {
		writeEnvelope(w, http.StatusBadRequest, "employee id required", nil)
		return
	}
	if err := s.store.DeleteEmployee(r.Context(), p.ID); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			writeEnvelope(w, http.StatusNotFound, "employee not found", nil)
			return
		}
		s.fail(w, r, http.StatusInternalServerError, "could not delete employee", err)
		return
	}
	s.log.WithField("id", p.ID).Info("employee deleted")
	writeEnvelope(w, http.StatusOK, "Employee deleted successfully", nil)
}

func (s *Server) lookups(ctx context.Context) ([]api.LookupRecord, []api.LookupRecord, error) {
	countries, err := s.store.ListCountries(ctx)
	if err != nil {
		return nil, nil, err
	}
	states, err := s.store.ListStates(ctx)
	if err != nil {
		return nil, nil, err
	}
	cl := make([]api.LookupRecord, 0, len(countries))
	for _, c := range countries {
		cl = append(cl, api.LookupRecord{ID: api.Code(c.Code), Name: c.Name})
	}
	sl := make([]api.LookupRecord, 0, len(states))
	for _, st := range states {
		sl = append(sl, api.LookupRecord{ID: api.Code(st.Code), Name: st.Name, ParentID: api.Code(st.CountryCode)})
	}
	return cl, sl, nil
}

func (s *Server) fail(w http.ResponseWriter, r *http.Request, status int, msg string, err error) {
	s.log.WithFields(logrus.Fields{
		"path":       r.URL.Path,
		"request_id": middleware.GetReqID(r.Context()),
	}).WithError(err).Error(msg)
	writeEnvelope(w, status, msg, nil)
}

func toRaw(e storage.Employee) api.RawEmployee {
	return api.RawEmployee{
		ID:            api.Code(e.ID),
		Name:          e.Name,
		MotherName:    e.MotherName,
		FatherName:    e.FatherName,
		Gender:        e.Gender,
		CountryCode:   api.Code(e.CountryCode),
		StateCode:     api.Code(e.StateCode),
		EmailAddress:  e.Email,
		ContactNumber: e.Contact,
		DOB:           e.DOB,
		ProfileBase64: e.ProfileBase64,
		ProfileName:   e.ProfileName,
	}
}

type envelope struct {
	Status  int    `json:"status"`
	Message string `json:"message,omitempty"`
	Data    any    `json:"data,omitempty"`
}

func writeEnvelope(w http.ResponseWriter, status int, message string, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(envelope{Status: status, Message: message, Data: data})
}
