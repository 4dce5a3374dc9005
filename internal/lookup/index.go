// Package lookup resolves country and state codes to display names.
package lookup

import (
	"context"
	"fmt"

	"empdir/internal/api"
)

// State is a selectable state under a country. Codes repeat across countries.
type State struct {
	Code        string
	Name        string
	CountryCode string
}

// Country owns its states in input order.
type Country struct {
	Code   string
	Name   string
	States []State
}

// Index maps country codes to countries. A nil *Index is valid and resolves
// nothing, which is what consumers see before lookups arrive.
type Index struct {
	order     []string
	countries map[string]*Country
}

// Source provides the raw lookup lists.
type Source interface {
	PageLoad(ctx context.Context) (api.PageLoad, error)
}

// Load fetches the lookup lists from src and builds an index.
func Load(ctx context.Context, src Source) (*Index, error) {
	data, err := src.PageLoad(ctx)
	if err != nil {
		return nil, fmt.Errorf("load lookups: %w", err)
	}
	return Build(data.CountryList, data.StateList), nil
}

// Build groups states under their parent country. States whose parent is not
// in countries are dropped. A repeated state code under one country keeps its
// first position and takes the last name seen.
func Build(countries, states []api.LookupRecord) *Index {
	ix := &Index{countries: make(map[string]*Country, len(countries))}
	for _, rec := range countries {
		code := rec.ID.String()
		if c, ok := ix.countries[code]; ok {
			c.Name = rec.Name
			continue
		}
		ix.countries[code] = &Country{Code: code, Name: rec.Name}
		ix.order = append(ix.order, code)
	}

	positions := make(map[[2]string]int)
	for _, rec := range states {
		parent := rec.ParentID.String()
		c, ok := ix.countries[parent]
		if !ok {
			continue
		}
		st := State{Code: rec.ID.String(), Name: rec.Name, CountryCode: parent}
		key := [2]string{parent, st.Code}
		if pos, seen := positions[key]; seen {
			c.States[pos] = st
			continue
		}
		positions[key] = len(c.States)
		c.States = append(c.States, st)
	}
	return ix
}

// Len returns the number of countries.
func (ix *Index) Len() int {
	if ix == nil {
		return 0
	}
	return len(ix.order)
}

// Countries returns the countries in input order.
func (ix *Index) Countries() []Country {
	if ix == nil {
		return nil
	}
	out := make([]Country, 0, len(ix.order))
	for _, code := range ix.order {
		out = append(out, ix.clone(ix.countries[code]))
	}
	return out
}

// Country returns the country for code.
func (ix *Index) Country(code string) (Country, bool) {
	if ix == nil {
		return Country{}, false
	}
	c, ok := ix.countries[code]
	if !ok {
		return Country{}, false
	}
	return ix.clone(c), true
}

// States returns the states of a country, or nil when the code is unknown.
func (ix *Index) States(countryCode string) []State {
	c, ok := ix.Country(countryCode)
	if !ok {
		return nil
	}
	return c.States
}

// HasState reports whether stateCode belongs to countryCode.
func (ix *Index) HasState(countryCode, stateCode string) bool {
	for _, s := range ix.States(countryCode) {
		if s.Code == stateCode {
			return true
		}
	}
	return false
}

// CountryName returns the display name for code, or code itself when unknown.
func (ix *Index) CountryName(code string) string {
	if ix == nil {
		return code
	}
	if c, ok := ix.countries[code]; ok {
		return c.Name
	}
	return code
}

// StateName returns the display name of a state within its country, or
// stateCode itself when either code is unknown.
func (ix *Index) StateName(countryCode, stateCode string) string {
	if ix == nil {
		return stateCode
	}
	c, ok := ix.countries[countryCode]
	if !ok {
		return stateCode
	}
	for _, s := range c.States {
		if s.Code == stateCode {
			return s.Name
		}
	}
	return stateCode
}

func (ix *Index) clone(c *Country) Country {
	out := Country{Code: c.Code, Name: c.Name}
	if len(c.States) > 0 {
		out.States = append([]State(nil), c.States...)
	}
	return out
}
