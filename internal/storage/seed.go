package storage

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"
)

// ImportResult summarises a lookup CSV import.
type ImportResult struct {
	Countries int
	States    int
	Skipped   int
	Errors    []string
}

// DefaultCountries and DefaultStates seed an empty development database.
var (
	DefaultCountries = []Country{
		{Code: "IN", Name: "India"},
		{Code: "US", Name: "United States"},
	}
	DefaultStates = []State{
		{CountryCode: "IN", Code: "DL", Name: "Delhi"},
		{CountryCode: "IN", Code: "MH", Name: "Maharashtra"},
		{CountryCode: "IN", Code: "KA", Name: "Karnataka"},
		{CountryCode: "US", Code: "CA", Name: "California"},
		{CountryCode: "US", Code: "NY", Name: "New York"},
		{CountryCode: "US", Code: "TX", Name: "Texas"},
	}
)

// SeedDefaults loads the default lookups when no countries exist yet. It
// reports whether anything was written.
func (s *Store) SeedDefaults(ctx context.Context) (bool, error) {
	var n int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM countries`).Scan(&n); err != nil {
		return false, fmt.Errorf("count countries: %w", err)
	}
	if n > 0 {
		return false, nil
	}
	for _, c := range DefaultCountries {
		if err := s.UpsertCountry(ctx, c); err != nil {
			return false, err
		}
	}
	for _, st := range DefaultStates {
		if err := s.UpsertState(ctx, st); err != nil {
			return false, err
		}
	}
	return true, nil
}

// ImportLookupsCSV ingests countries and states from a CSV reader with the
// columns kind, code, name and parent. kind is "country" or "state"; parent
// names the country of a state row. Bad rows are skipped and reported.
func (s *Store) ImportLookupsCSV(ctx context.Context, r io.Reader) (ImportResult, error) {
	result := ImportResult{}
	reader := csv.NewReader(r)
	reader.TrimLeadingSpace = true
	reader.FieldsPerRecord = -1
	header, err := reader.Read()
	if err != nil {
		return result, fmt.Errorf("read header: %w", err)
	}
	index := map[string]int{}
	for i, h := range header {
		key := strings.ToLower(strings.TrimSpace(h))
		if key != "" {
			index[key] = i
		}
	}
	for _, col := range []string{"kind", "code", "name"} {
		if _, ok := index[col]; !ok {
			return result, fmt.Errorf("csv missing '%s' column", col)
		}
	}
	field := func(record []string, col string) string {
		if idx, ok := index[col]; ok && idx < len(record) {
			return strings.TrimSpace(record[idx])
		}
		return ""
	}

	row := 1
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		row++
		if err != nil {
			result.Errors = append(result.Errors, fmt.Sprintf("row %d: %v", row, err))
			result.Skipped++
			continue
		}
		code := field(record, "code")
		if code == "" {
			result.Errors = append(result.Errors, fmt.Sprintf("row %d: code required", row))
			result.Skipped++
			continue
		}
		switch strings.ToLower(field(record, "kind")) {
		case "country":
			if err := s.UpsertCountry(ctx, Country{Code: code, Name: field(record, "name")}); err != nil {
				result.Errors = append(result.Errors, fmt.Sprintf("row %d: %v", row, err))
				result.Skipped++
				continue
			}
			result.Countries++
		case "state":
			st := State{Code: code, Name: field(record, "name"), CountryCode: field(record, "parent")}
			if err := s.UpsertState(ctx, st); err != nil {
				if errors.Is(err, ErrUnknownCountry) {
					result.Errors = append(result.Errors, fmt.Sprintf("row %d: unknown country '%s'", row, st.CountryCode))
				} else {
					result.Errors = append(result.Errors, fmt.Sprintf("row %d: %v", row, err))
				}
				result.Skipped++
				continue
			}
			result.States++
		default:
			result.Errors = append(result.Errors, fmt.Sprintf("row %d: unknown kind '%s'", row, field(record, "kind")))
			result.Skipped++
		}
	}
	return result, nil
}
