package scenario

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/fundwise/waterfall/internal/waterfall"
)

// Service evaluates waterfalls and persists the runs.
type Service struct {
	repo Repository
}

// NewService creates a new scenario Service.
func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// Evaluate computes the waterfall for params and stores both the parameters
// and the itemized result under the given name, replacing any previous run
// with that name.
func (s *Service) Evaluate(ctx context.Context, name string, params waterfall.Parameters) (waterfall.Result, error) {
	if name == "" {
		return waterfall.Result{}, fmt.Errorf("scenario name must not be empty")
	}

	result, err := waterfall.Compute(params)
	if err != nil {
		return waterfall.Result{}, fmt.Errorf("computing scenario %s: %w", name, err)
	}

	paramsJSON, err := json.Marshal(params.WithDefaults())
	if err != nil {
		return waterfall.Result{}, fmt.Errorf("marshaling scenario params: %w", err)
	}
	resultJSON, err := json.Marshal(result)
	if err != nil {
		return waterfall.Result{}, fmt.Errorf("marshaling scenario result: %w", err)
	}

	if err := s.repo.Save(ctx, name, paramsJSON, resultJSON); err != nil {
		return waterfall.Result{}, err
	}
	return result, nil
}

// Replay recomputes a stored scenario from its saved parameters. The stored
// result is ignored, so replays pick up engine fixes.
func (s *Service) Replay(ctx context.Context, name string) (waterfall.Result, error) {
	stored, err := s.repo.Get(ctx, name)
	if err != nil {
		return waterfall.Result{}, err
	}

	var params waterfall.Parameters
	if err := json.Unmarshal(stored.Params, &params); err != nil {
		return waterfall.Result{}, fmt.Errorf("unmarshaling scenario %s params: %w", name, err)
	}

	result, err := waterfall.Compute(params)
	if err != nil {
		return waterfall.Result{}, fmt.Errorf("replaying scenario %s: %w", name, err)
	}
	return result, nil
}

// Get returns a stored scenario by name.
func (s *Service) Get(ctx context.Context, name string) (*Scenario, error) {
	return s.repo.Get(ctx, name)
}

// List returns stored scenarios, most recently updated first.
func (s *Service) List(ctx context.Context, limit int) ([]Scenario, error) {
	return s.repo.List(ctx, limit)
}

// Params returns the saved parameters of a stored scenario.
func (s *Service) Params(ctx context.Context, name string) (waterfall.Parameters, error) {
	stored, err := s.repo.Get(ctx, name)
	if err != nil {
		return waterfall.Parameters{}, err
	}

	var params waterfall.Parameters
	if err := json.Unmarshal(stored.Params, &params); err != nil {
		return waterfall.Parameters{}, fmt.Errorf("unmarshaling scenario %s params: %w", name, err)
	}
	return params, nil
}
