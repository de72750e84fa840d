package analytics

import (
	"context"
	"net/url"
	"time"
)

// Prediction is one model run for an experiment.
type Prediction struct {
	ID           string             `json:"id"`
	ExperimentID string             `json:"experiment_id"`
	Status       string             `json:"status"`
	Metrics      map[string]float64 `json:"metrics,omitempty"`
	StartedAt    time.Time          `json:"started_at"`
	FinishedAt   *time.Time         `json:"finished_at,omitempty"`
}

// PredictionList is the response from GET /predictions.
type PredictionList struct {
	Predictions []Prediction `json:"predictions"`
	Count       int          `json:"count"`
}

func (c *Client) ListPredictions(ctx context.Context, experimentID string) (*PredictionList, error) {
	query := url.Values{}
	if experimentID != "" {
		query.Set("experiment_id", experimentID)
	}
	var list PredictionList
	if err := c.get(ctx, "/predictions", query, &list); err != nil {
		return nil, err
	}
	return &list, nil
}

func (c *Client) GetPrediction(ctx context.Context, predictionID string) (*Prediction, error) {
	var prediction Prediction
	if err := c.get(ctx, "/predictions/"+url.PathEscape(predictionID), nil, &prediction); err != nil {
		return nil, err
	}
	return &prediction, nil
}

// RunPredictionRequest is the request body for POST /predictions.
type RunPredictionRequest struct {
	ExperimentID string `json:"experiment_id"`
}

// RunPrediction asks quarry-core to run the experiment's model. The run is
// asynchronous, the returned prediction starts out pending.
func (c *Client) RunPrediction(ctx context.Context, request *RunPredictionRequest) (*Prediction, error) {
	var prediction Prediction
	if err := c.post(ctx, "/predictions", request, &prediction); err != nil {
		return nil, err
	}
	return &prediction, nil
}
