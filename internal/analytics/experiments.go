package analytics

import (
	"context"
	"net/url"
	"time"
)

// Experiment is a stored model configuration bound to a dataset.
type Experiment struct {
	ID         string             `json:"id"`
	Name       string             `json:"name"`
	DatasetID  string             `json:"dataset_id"`
	Target     string             `json:"target"`
	Features   []string           `json:"features"`
	Parameters map[string]float64 `json:"parameters,omitempty"`
	Status     string             `json:"status"`
	CreatedAt  time.Time          `json:"created_at"`
	UpdatedAt  time.Time          `json:"updated_at"`
}

// ExperimentList is the response from GET /experiments.
type ExperimentList struct {
	Experiments []Experiment `json:"experiments"`
	Count       int          `json:"count"`
}

func (c *Client) ListExperiments(ctx context.Context, datasetID string) (*ExperimentList, error) {
	query := url.Values{}
	if datasetID != "" {
		query.Set("dataset_id", datasetID)
	}
	var list ExperimentList
	if err := c.get(ctx, "/experiments", query, &list); err != nil {
		return nil, err
	}
	return &list, nil
}

func (c *Client) GetExperiment(ctx context.Context, experimentID string) (*Experiment, error) {
	var experiment Experiment
	if err := c.get(ctx, "/experiments/"+url.PathEscape(experimentID), nil, &experiment); err != nil {
		return nil, err
	}
	return &experiment, nil
}

// ExperimentRequest is the request body for creating or updating an
// experiment.
type ExperimentRequest struct {
	Name       string             `json:"name"`
	DatasetID  string             `json:"dataset_id"`
	Target     string             `json:"target"`
	Features   []string           `json:"features"`
	Parameters map[string]float64 `json:"parameters,omitempty"`
}

func (c *Client) CreateExperiment(ctx context.Context, request *ExperimentRequest) (*Experiment, error) {
	var experiment Experiment
	if err := c.post(ctx, "/experiments", request, &experiment); err != nil {
		return nil, err
	}
	return &experiment, nil
}

func (c *Client) UpdateExperiment(ctx context.Context, experimentID string, request *ExperimentRequest) (*Experiment, error) {
	var experiment Experiment
	if err := c.put(ctx, "/experiments/"+url.PathEscape(experimentID), request, &experiment); err != nil {
		return nil, err
	}
	return &experiment, nil
}

func (c *Client) DeleteExperiment(ctx context.Context, experimentID string) error {
	return c.delete(ctx, "/experiments/"+url.PathEscape(experimentID))
}
