package server

import (
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/quarry-platform/quarry-dashboard/internal/analytics"
	"github.com/quarry-platform/quarry-dashboard/internal/credentials"
	"github.com/quarry-platform/quarry-dashboard/internal/dasherrors"
	"github.com/quarry-platform/quarry-dashboard/internal/dispatch"
	"github.com/quarry-platform/quarry-dashboard/internal/models"
	"github.com/quarry-platform/quarry-dashboard/internal/utils"
)

type errorResponse struct {
	Error string `json:"error"`
}

// apiError translates client and storage failures into dashboard API
// responses. Backend rejections keep their original status and body.
func apiError(c echo.Context, err error) error {
	apiErr := &dispatch.APIError{}
	var urlErr *url.Error
	switch {
	case errors.As(err, &apiErr):
		if len(apiErr.Body) == 0 {
			return c.NoContent(apiErr.StatusCode)
		}
		return c.JSONBlob(apiErr.StatusCode, apiErr.Body)
	case errors.Is(err, dasherrors.ErrInvalidCredentials):
		return c.JSON(http.StatusUnauthorized, errorResponse{Error: err.Error()})
	case errors.Is(err, dasherrors.ErrSessionExpired),
		errors.Is(err, dasherrors.ErrRenewalSuppressed),
		errors.Is(err, dasherrors.ErrNoRenewalCredential),
		errors.Is(err, dasherrors.ErrCredentialsNotFound):
		slog.Warn(
			"SERVER",
			"message",
			"backend session is unavailable",
			"error",
			err,
			"requestID",
			utils.GetRequestID(c),
			"traceID",
			utils.GetTraceID(c),
		)
		return c.JSON(http.StatusServiceUnavailable, errorResponse{Error: err.Error()})
	case errors.Is(err, dasherrors.ErrViewNotFound):
		return c.JSON(http.StatusNotFound, errorResponse{Error: err.Error()})
	case errors.As(err, &urlErr):
		return c.JSON(http.StatusBadGateway, errorResponse{Error: err.Error()})
	default:
		return c.JSON(http.StatusInternalServerError, errorResponse{Error: err.Error()})
	}
}

func (s *DashboardServer) PostLogin(c echo.Context) error {
	request := analytics.LoginRequest{}
	if err := c.Bind(&request); err != nil {
		return c.JSON(http.StatusBadRequest, errorResponse{Error: err.Error()})
	}
	ctx := c.Request().Context()
	creds, err := s.analytics.Login(ctx, &request)
	if err != nil {
		return apiError(c, err)
	}
	err = s.credentials.Set(ctx, creds.AccessCredential, creds.RenewalCredential)
	if err != nil {
		return apiError(c, err)
	}
	if err := s.events.PublishServiceLogin(ctx, credentials.DefaultSetID); err != nil {
		slog.Warn("SERVER", "message", "publishing the login event failed", "error", err, "requestID", utils.GetRequestID(c))
	}
	return c.NoContent(http.StatusNoContent)
}

func (s *DashboardServer) PostRegister(c echo.Context) error {
	request := analytics.RegisterRequest{}
	if err := c.Bind(&request); err != nil {
		return c.JSON(http.StatusBadRequest, errorResponse{Error: err.Error()})
	}
	ctx := c.Request().Context()
	creds, err := s.analytics.Register(ctx, &request)
	if err != nil {
		return apiError(c, err)
	}
	err = s.credentials.Set(ctx, creds.AccessCredential, creds.RenewalCredential)
	if err != nil {
		return apiError(c, err)
	}
	if err := s.events.PublishServiceLogin(ctx, credentials.DefaultSetID); err != nil {
		slog.Warn("SERVER", "message", "publishing the login event failed", "error", err, "requestID", utils.GetRequestID(c))
	}
	return c.NoContent(http.StatusCreated)
}

func (s *DashboardServer) PostLogout(c echo.Context) error {
	ctx := c.Request().Context()
	if err := s.analytics.Logout(ctx); err != nil {
		// the local pair is cleared even when the backend call fails
		slog.Warn("SERVER", "message", "backend logout failed", "error", err, "requestID", utils.GetRequestID(c))
	}
	if err := s.credentials.Clear(ctx); err != nil {
		return apiError(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}

func (s *DashboardServer) GetDatasets(c echo.Context) error {
	datasets, err := s.analytics.ListDatasets(c.Request().Context())
	if err != nil {
		return apiError(c, err)
	}
	return c.JSON(http.StatusOK, datasets)
}

func (s *DashboardServer) PostDataset(c echo.Context) error {
	request := analytics.CreateDatasetRequest{}
	if err := c.Bind(&request); err != nil {
		return c.JSON(http.StatusBadRequest, errorResponse{Error: err.Error()})
	}
	dataset, err := s.analytics.CreateDataset(c.Request().Context(), &request)
	if err != nil {
		return apiError(c, err)
	}
	return c.JSON(http.StatusCreated, dataset)
}

func (s *DashboardServer) GetDataset(c echo.Context) error {
	dataset, err := s.analytics.GetDataset(c.Request().Context(), c.Param("datasetID"))
	if err != nil {
		return apiError(c, err)
	}
	return c.JSON(http.StatusOK, dataset)
}

func (s *DashboardServer) DeleteDataset(c echo.Context) error {
	err := s.analytics.DeleteDataset(c.Request().Context(), c.Param("datasetID"))
	if err != nil {
		return apiError(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}

func (s *DashboardServer) PostDatasetRows(c echo.Context) error {
	rows, err := io.ReadAll(c.Request().Body)
	if err != nil {
		return c.JSON(http.StatusBadRequest, errorResponse{Error: err.Error()})
	}
	result, err := s.analytics.UploadDatasetRows(c.Request().Context(), c.Param("datasetID"), rows)
	if err != nil {
		return apiError(c, err)
	}
	if err := s.metrics.DatasetUploaded(); err != nil {
		slog.Warn("SERVER", "message", "recording the upload metric failed", "error", err, "requestID", utils.GetRequestID(c))
	}
	return c.JSON(http.StatusOK, result)
}

func (s *DashboardServer) GetDatasetExport(c echo.Context) error {
	export, err := s.analytics.ExportDataset(c.Request().Context(), c.Param("datasetID"))
	if err != nil {
		return apiError(c, err)
	}
	if export.Disposition != "" {
		c.Response().Header().Set(echo.HeaderContentDisposition, export.Disposition)
	}
	return c.Blob(http.StatusOK, export.ContentType, export.Data)
}

func (s *DashboardServer) GetExperiments(c echo.Context) error {
	experiments, err := s.analytics.ListExperiments(c.Request().Context(), c.QueryParam("dataset_id"))
	if err != nil {
		return apiError(c, err)
	}
	return c.JSON(http.StatusOK, experiments)
}

func (s *DashboardServer) PostExperiment(c echo.Context) error {
	request := analytics.ExperimentRequest{}
	if err := c.Bind(&request); err != nil {
		return c.JSON(http.StatusBadRequest, errorResponse{Error: err.Error()})
	}
	experiment, err := s.analytics.CreateExperiment(c.Request().Context(), &request)
	if err != nil {
		return apiError(c, err)
	}
	return c.JSON(http.StatusCreated, experiment)
}

func (s *DashboardServer) GetExperiment(c echo.Context) error {
	experiment, err := s.analytics.GetExperiment(c.Request().Context(), c.Param("experimentID"))
	if err != nil {
		return apiError(c, err)
	}
	return c.JSON(http.StatusOK, experiment)
}

func (s *DashboardServer) PutExperiment(c echo.Context) error {
	request := analytics.ExperimentRequest{}
	if err := c.Bind(&request); err != nil {
		return c.JSON(http.StatusBadRequest, errorResponse{Error: err.Error()})
	}
	experiment, err := s.analytics.UpdateExperiment(c.Request().Context(), c.Param("experimentID"), &request)
	if err != nil {
		return apiError(c, err)
	}
	return c.JSON(http.StatusOK, experiment)
}

func (s *DashboardServer) DeleteExperiment(c echo.Context) error {
	err := s.analytics.DeleteExperiment(c.Request().Context(), c.Param("experimentID"))
	if err != nil {
		return apiError(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}

func (s *DashboardServer) GetPredictions(c echo.Context) error {
	predictions, err := s.analytics.ListPredictions(c.Request().Context(), c.QueryParam("experiment_id"))
	if err != nil {
		return apiError(c, err)
	}
	return c.JSON(http.StatusOK, predictions)
}

func (s *DashboardServer) PostPrediction(c echo.Context) error {
	request := analytics.RunPredictionRequest{}
	if err := c.Bind(&request); err != nil {
		return c.JSON(http.StatusBadRequest, errorResponse{Error: err.Error()})
	}
	prediction, err := s.analytics.RunPrediction(c.Request().Context(), &request)
	if err != nil {
		return apiError(c, err)
	}
	return c.JSON(http.StatusAccepted, prediction)
}

func (s *DashboardServer) GetPrediction(c echo.Context) error {
	prediction, err := s.analytics.GetPrediction(c.Request().Context(), c.Param("predictionID"))
	if err != nil {
		return apiError(c, err)
	}
	return c.JSON(http.StatusOK, prediction)
}

func (s *DashboardServer) PostOutliers(c echo.Context) error {
	request := analytics.OutlierRequest{}
	if err := c.Bind(&request); err != nil {
		return c.JSON(http.StatusBadRequest, errorResponse{Error: err.Error()})
	}
	result, err := s.analytics.DetectOutliers(c.Request().Context(), &request)
	if err != nil {
		return apiError(c, err)
	}
	return c.JSON(http.StatusOK, result)
}

func (s *DashboardServer) PostDownsample(c echo.Context) error {
	request := analytics.DownsampleRequest{}
	if err := c.Bind(&request); err != nil {
		return c.JSON(http.StatusBadRequest, errorResponse{Error: err.Error()})
	}
	result, err := s.analytics.Downsample(c.Request().Context(), &request)
	if err != nil {
		return apiError(c, err)
	}
	return c.JSON(http.StatusOK, result)
}

func (s *DashboardServer) PostSensitivity(c echo.Context) error {
	request := analytics.SensitivityRequest{}
	if err := c.Bind(&request); err != nil {
		return c.JSON(http.StatusBadRequest, errorResponse{Error: err.Error()})
	}
	result, err := s.analytics.SensitivityAnalysis(c.Request().Context(), &request)
	if err != nil {
		return apiError(c, err)
	}
	return c.JSON(http.StatusOK, result)
}

func (s *DashboardServer) PostCorrelation(c echo.Context) error {
	request := analytics.CorrelationRequest{}
	if err := c.Bind(&request); err != nil {
		return c.JSON(http.StatusBadRequest, errorResponse{Error: err.Error()})
	}
	result, err := s.analytics.CorrelationMatrix(c.Request().Context(), &request)
	if err != nil {
		return apiError(c, err)
	}
	return c.JSON(http.StatusOK, result)
}

func (s *DashboardServer) PostChartData(c echo.Context) error {
	request := analytics.ChartDataRequest{}
	if err := c.Bind(&request); err != nil {
		return c.JSON(http.StatusBadRequest, errorResponse{Error: err.Error()})
	}
	data, err := s.analytics.GetChartData(c.Request().Context(), &request)
	if err != nil {
		return apiError(c, err)
	}
	return c.JSON(http.StatusOK, data)
}

type createViewRequest struct {
	Name   string                        `json:"name"`
	Panels models.SerializableOrderedMap `json:"panels"`
}

type viewList struct {
	Views []models.SavedView `json:"views"`
}

func (s *DashboardServer) GetViews(c echo.Context) error {
	createdAfter := time.Unix(0, 0)
	createdBefore := time.Now().UTC()
	if raw := c.QueryParam("created_after"); raw != "" {
		parsed, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			return c.JSON(http.StatusBadRequest, errorResponse{Error: err.Error()})
		}
		createdAfter = parsed
	}
	if raw := c.QueryParam("created_before"); raw != "" {
		parsed, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			return c.JSON(http.StatusBadRequest, errorResponse{Error: err.Error()})
		}
		createdBefore = parsed
	}
	ctx := c.Request().Context()
	viewIDs, err := s.views.GetViewIDs(ctx, createdAfter, createdBefore)
	if err != nil {
		return apiError(c, err)
	}
	output := viewList{Views: []models.SavedView{}}
	for _, viewID := range viewIDs {
		view, err := s.views.GetView(ctx, viewID)
		if err != nil {
			return apiError(c, err)
		}
		output.Views = append(output.Views, view)
	}
	return c.JSON(http.StatusOK, output)
}

func (s *DashboardServer) PostView(c echo.Context) error {
	request := createViewRequest{}
	if err := c.Bind(&request); err != nil {
		return c.JSON(http.StatusBadRequest, errorResponse{Error: err.Error()})
	}
	if request.Name == "" {
		return c.JSON(http.StatusBadRequest, errorResponse{Error: "a view needs a name"})
	}
	viewID, err := s.idGenerator.ID()
	if err != nil {
		return apiError(c, err)
	}
	view := models.SavedView{
		ID:        viewID,
		Name:      request.Name,
		CreatedAt: time.Now().UTC(),
		Panels:    request.Panels,
	}
	if err := s.views.SetView(c.Request().Context(), view); err != nil {
		return apiError(c, err)
	}
	return c.JSON(http.StatusCreated, view)
}

func (s *DashboardServer) GetView(c echo.Context) error {
	view, err := s.views.GetView(c.Request().Context(), c.Param("viewID"))
	if err != nil {
		return apiError(c, err)
	}
	return c.JSON(http.StatusOK, view)
}

func (s *DashboardServer) DeleteView(c echo.Context) error {
	ctx := c.Request().Context()
	view, err := s.views.GetView(ctx, c.Param("viewID"))
	if err != nil {
		return apiError(c, err)
	}
	if err := s.views.RemoveView(ctx, view); err != nil {
		return apiError(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}
