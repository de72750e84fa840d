package analytics

import (
	"context"

	"github.com/quarry-platform/quarry-dashboard/internal/models"
)

// ChartDataRequest is the request body for POST /charts/data.
type ChartDataRequest struct {
	DatasetID string   `json:"dataset_id"`
	Columns   []string `json:"columns"`
	Points    int      `json:"points,omitempty"`
}

// ChartData is the response from POST /charts/data. Series maps the series
// name to its rendering hint and keeps the order the backend chose, the
// dashboard draws series in exactly that order.
type ChartData struct {
	Labels []string                      `json:"labels"`
	Series models.SerializableOrderedMap `json:"series"`
	Values map[string][]float64          `json:"values"`
}

func (c *Client) GetChartData(ctx context.Context, request *ChartDataRequest) (*ChartData, error) {
	var data ChartData
	if err := c.post(ctx, "/charts/data", request, &data); err != nil {
		return nil, err
	}
	return &data, nil
}
