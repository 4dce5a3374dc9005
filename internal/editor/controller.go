// Package editor drives the create/edit lifecycle of a single employee form.
package editor

import (
	"context"
	"fmt"

	"empdir/internal/api"
	"empdir/internal/employee"
	"empdir/internal/lookup"
)

// Mode distinguishes a new record from an existing one.
type Mode int

const (
	ModeNew Mode = iota
	ModeEditing
)

func (m Mode) String() string {
	if m == ModeEditing {
		return "editing"
	}
	return "new"
}

// Writer persists a record.
type Writer interface {
	SaveEmployee(ctx context.Context, payload api.WritePayload) error
}

// Result tells the caller what to do after a successful submit.
type Result struct {
	Notice       string
	NavigateAway bool
}

// Controller holds one form session. Like the list synchronizer it is driven
// from a single loop.
type Controller struct {
	writer Writer
	mode   Mode
	id     string
	stored employee.ProfileMeta

	index  *lookup.Index
	states []lookup.State
	values employee.FormValues
}

// NewCreate starts a form for a new employee.
func NewCreate(w Writer) *Controller {
	return &Controller{
		writer: w,
		mode:   ModeNew,
		values: employee.FormValues{Gender: employee.GenderMale},
	}
}

// NewEdit starts a form prefilled from prior. The prefill happens here, once;
// later lookups only re-derive the state options.
func NewEdit(w Writer, prior employee.ViewModel) *Controller {
	return &Controller{
		writer: w,
		mode:   ModeEditing,
		id:     prior.ID,
		stored: employee.ProfileMetaFromViewModel(prior),
		values: employee.FormValuesFromViewModel(prior),
	}
}

// Mode returns the lifecycle mode.
func (c *Controller) Mode() Mode { return c.mode }

// ID returns the identifier being edited, "" for a new record.
func (c *Controller) ID() string { return c.id }

// StoredProfile returns the image already on the server for this record.
func (c *Controller) StoredProfile() employee.ProfileMeta { return c.stored }

// Values returns a copy of the current form values.
func (c *Controller) Values() employee.FormValues { return c.values }

// SetValues replaces the form values wholesale. The state options follow the
// new country.
func (c *Controller) SetValues(v employee.FormValues) {
	c.values = v
	c.deriveStates()
}

// LoadLookups fetches and installs the lookup index. On failure the options
// stay empty and the call can be retried.
func (c *Controller) LoadLookups(ctx context.Context, src lookup.Source) error {
	ix, err := lookup.Load(ctx, src)
	if err != nil {
		return err
	}
	c.SetLookups(ix)
	return nil
}

// SetLookups installs ix and re-derives the state options from the current
// country. The chosen state is kept.
func (c *Controller) SetLookups(ix *lookup.Index) {
	c.index = ix
	c.deriveStates()
}

// LookupsLoaded reports whether an index is installed.
func (c *Controller) LookupsLoaded() bool { return c.index != nil }

// Index returns the installed lookup index, possibly nil.
func (c *Controller) Index() *lookup.Index { return c.index }

// Countries returns the country options; empty until lookups load.
func (c *Controller) Countries() []lookup.Country {
	return c.index.Countries()
}

// States returns the state options for the chosen country.
func (c *Controller) States() []lookup.State {
	return c.states
}

func (c *Controller) deriveStates() {
	c.states = c.index.States(c.values.Country)
}

// SelectCountry sets the country, replaces the state options and clears the
// chosen state.
func (c *Controller) SelectCountry(code string) {
	c.values.Country = code
	c.values.State = ""
	c.deriveStates()
}

// SelectState picks a state offered for the current country.
func (c *Controller) SelectState(code string) error {
	for _, s := range c.states {
		if s.Code == code {
			c.values.State = code
			return nil
		}
	}
	return fmt.Errorf("state %q is not offered for country %q", code, c.values.Country)
}

// SetImage records a newly read image.
func (c *Controller) SetImage(u employee.Upload) {
	c.values.Image = &u
}

// Submit validates values, then creates or updates the record. On any failure
// values are kept so the form can be corrected and resubmitted.
func (c *Controller) Submit(ctx context.Context, values employee.FormValues) (Result, error) {
	payload, err := c.Prepare(values)
	if err != nil {
		return Result{}, err
	}
	return c.Complete(c.Save(ctx, payload))
}

// Prepare stores and validates values and builds the write payload. Nothing
// is sent.
func (c *Controller) Prepare(values employee.FormValues) (api.WritePayload, error) {
	values.Normalize()
	c.values = values
	c.deriveStates()

	if err := employee.Validate(values, c.mode == ModeNew); err != nil {
		return api.WritePayload{}, err
	}
	return employee.ToWritePayload(values, c.id, c.stored), nil
}

// Save performs the network write only and may run off the owning loop.
func (c *Controller) Save(ctx context.Context, payload api.WritePayload) error {
	return c.writer.SaveEmployee(ctx, payload)
}

// Complete turns the outcome of Save into the submit result.
func (c *Controller) Complete(err error) (Result, error) {
	if err != nil {
		return Result{}, fmt.Errorf("save employee: %w", err)
	}
	notice := "Employee added successfully"
	if c.mode == ModeEditing {
		notice = "Employee updated successfully"
	}
	return Result{Notice: notice, NavigateAway: true}, nil
}
