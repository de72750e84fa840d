package analytics

import "context"

// All analysis endpoints are opaque forwards. The dashboard never computes
// anything itself, it hands the parameters to quarry-core and renders whatever
// comes back.

// OutlierRequest is the request body for POST /analysis/outliers. Method is
// the backend's detector name, currently "iqr" or "zscore".
type OutlierRequest struct {
	DatasetID string  `json:"dataset_id"`
	Column    string  `json:"column"`
	Method    string  `json:"method"`
	Threshold float64 `json:"threshold,omitempty"`
}

// OutlierResult is the response from POST /analysis/outliers.
type OutlierResult struct {
	Indices []int64   `json:"indices"`
	Scores  []float64 `json:"scores"`
}

func (c *Client) DetectOutliers(ctx context.Context, request *OutlierRequest) (*OutlierResult, error) {
	var result OutlierResult
	if err := c.post(ctx, "/analysis/outliers", request, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// DownsampleRequest is the request body for POST /analysis/downsample.
type DownsampleRequest struct {
	DatasetID string `json:"dataset_id"`
	Column    string `json:"column"`
	Points    int    `json:"points"`
}

// DownsampleResult is the response from POST /analysis/downsample.
type DownsampleResult struct {
	Timestamps []int64   `json:"timestamps"`
	Values     []float64 `json:"values"`
}

func (c *Client) Downsample(ctx context.Context, request *DownsampleRequest) (*DownsampleResult, error) {
	var result DownsampleResult
	if err := c.post(ctx, "/analysis/downsample", request, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// SensitivityRequest is the request body for POST /analysis/sensitivity.
type SensitivityRequest struct {
	ExperimentID string   `json:"experiment_id"`
	Features     []string `json:"features,omitempty"`
}

// SensitivityResult is the response from POST /analysis/sensitivity.
type SensitivityResult struct {
	Scores map[string]float64 `json:"scores"`
}

func (c *Client) SensitivityAnalysis(ctx context.Context, request *SensitivityRequest) (*SensitivityResult, error) {
	var result SensitivityResult
	if err := c.post(ctx, "/analysis/sensitivity", request, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// CorrelationRequest is the request body for POST /analysis/correlation.
type CorrelationRequest struct {
	DatasetID string   `json:"dataset_id"`
	Columns   []string `json:"columns,omitempty"`
}

// CorrelationResult is the response from POST /analysis/correlation.
type CorrelationResult struct {
	Columns []string    `json:"columns"`
	Matrix  [][]float64 `json:"matrix"`
}

func (c *Client) CorrelationMatrix(ctx context.Context, request *CorrelationRequest) (*CorrelationResult, error) {
	var result CorrelationResult
	if err := c.post(ctx, "/analysis/correlation", request, &result); err != nil {
		return nil, err
	}
	return &result, nil
}
