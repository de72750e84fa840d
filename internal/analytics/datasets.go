package analytics

import (
	"context"
	"net/http"
	"net/url"
	"time"

	"github.com/google/uuid"
	"github.com/quarry-platform/quarry-dashboard/internal/dispatch"
)

// DefaultUploadTimeout bounds dataset row uploads. Large uploads take far
// longer than the regular exchange timeout allows.
const DefaultUploadTimeout = 5 * time.Minute

// Dataset describes one dataset stored in quarry-core.
type Dataset struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description,omitempty"`
	RowCount    int64     `json:"row_count"`
	SizeBytes   int64     `json:"size_bytes"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// DatasetList is the response from GET /datasets.
type DatasetList struct {
	Datasets []Dataset `json:"datasets"`
	Count    int       `json:"count"`
}

func (c *Client) ListDatasets(ctx context.Context) (*DatasetList, error) {
	var list DatasetList
	if err := c.get(ctx, "/datasets", nil, &list); err != nil {
		return nil, err
	}
	return &list, nil
}

func (c *Client) GetDataset(ctx context.Context, datasetID string) (*Dataset, error) {
	var dataset Dataset
	if err := c.get(ctx, "/datasets/"+url.PathEscape(datasetID), nil, &dataset); err != nil {
		return nil, err
	}
	return &dataset, nil
}

// CreateDatasetRequest is the request body for POST /datasets.
type CreateDatasetRequest struct {
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
}

func (c *Client) CreateDataset(ctx context.Context, request *CreateDatasetRequest) (*Dataset, error) {
	var dataset Dataset
	if err := c.post(ctx, "/datasets", request, &dataset); err != nil {
		return nil, err
	}
	return &dataset, nil
}

func (c *Client) DeleteDataset(ctx context.Context, datasetID string) error {
	return c.delete(ctx, "/datasets/"+url.PathEscape(datasetID))
}

// UploadResult is the response from POST /datasets/{id}/rows.
type UploadResult struct {
	RowsIngested int64 `json:"rows_ingested"`
	RowsRejected int64 `json:"rows_rejected"`
}

// UploadDatasetRows streams CSV rows into a dataset. The idempotency key lets
// quarry-core discard a duplicate ingest when the exchange had to be replayed.
func (c *Client) UploadDatasetRows(ctx context.Context, datasetID string, rows []byte) (*UploadResult, error) {
	header := http.Header{}
	header.Set("Content-Type", "text/csv")
	header.Set("Idempotency-Key", uuid.NewString())
	call := dispatch.Call{
		Method:  http.MethodPost,
		Path:    "/datasets/" + url.PathEscape(datasetID) + "/rows",
		Body:    rows,
		Header:  header,
		Timeout: c.uploadTimeout,
	}
	var result UploadResult
	if err := c.caller.Do(ctx, call, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// Export is a downloaded dataset archive together with the content metadata
// the browser needs to save it.
type Export struct {
	ContentType string
	Disposition string
	Data        []byte
}

// ExportDataset downloads the dataset as a compressed archive. This goes
// through the raw dispatcher because the content type and disposition headers
// carry the filename and encoding.
func (c *Client) ExportDataset(ctx context.Context, datasetID string) (*Export, error) {
	call := dispatch.Call{
		Method:  http.MethodGet,
		Path:    "/datasets/" + url.PathEscape(datasetID) + "/export",
		Timeout: c.uploadTimeout,
	}
	res, err := c.raw.Do(ctx, call)
	if err != nil {
		return nil, err
	}
	return &Export{
		ContentType: res.Header.Get("Content-Type"),
		Disposition: res.Header.Get("Content-Disposition"),
		Data:        res.Body,
	}, nil
}
