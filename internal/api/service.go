package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
)

// Service exposes the remote employee operations on top of a Client.
type Service struct {
	client *Client
}

// NewService wraps client.
func NewService(client *Client) *Service {
	return &Service{client: client}
}

// InFlight reports whether a call is outstanding on the underlying client.
func (s *Service) InFlight() bool {
	return s.client.InFlight()
}

// PageLoad fetches the country and state lookup lists.
func (s *Service) PageLoad(ctx context.Context) (PageLoad, error) {
	var out PageLoad
	env, err := s.client.Call(ctx, http.MethodGet, ResourcePageLoad, nil)
	if err != nil {
		return out, err
	}
	if err := decodeData(env, &out); err != nil {
		return out, fmt.Errorf("decode lookups: %w", err)
	}
	return out, nil
}

// ListEmployees fetches every employee record.
func (s *Service) ListEmployees(ctx context.Context) ([]RawEmployee, error) {
	env, err := s.client.Call(ctx, http.MethodGet, ResourceSelect, nil)
	if err != nil {
		return nil, err
	}
	var out selectResponse
	if err := decodeData(env, &out); err != nil {
		if errors.Is(err, errNoData) {
			return []RawEmployee{}, nil
		}
		return nil, fmt.Errorf("decode employees: %w", err)
	}
	if out.Employees == nil {
		return []RawEmployee{}, nil
	}
	return out.Employees, nil
}

// SaveEmployee inserts the record when payload.ID is empty and updates it otherwise.
func (s *Service) SaveEmployee(ctx context.Context, payload WritePayload) error {
	_, err := s.client.Call(ctx, http.MethodPost, ResourceInsertUpdate, payload)
	return err
}

// DeleteEmployee removes the record with the given id.
func (s *Service) DeleteEmployee(ctx context.Context, id string) error {
	_, err := s.client.Call(ctx, http.MethodPost, ResourceDelete, DeletePayload{ID: id})
	return err
}

var errNoData = errors.New("response has no data")

func decodeData(env *Envelope, v any) error {
	if env == nil || len(env.Data) == 0 || string(env.Data) == "null" {
		return errNoData
	}
	return json.Unmarshal(env.Data, v)
}
