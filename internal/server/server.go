// Package server exposes the dashboard API that the browser frontend talks to.
// Analytics routes forward to the quarry-core backend through the authenticated
// dispatchers, saved view routes are served straight from the view repository.
package server

import (
	"context"
	"fmt"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/quarry-platform/quarry-dashboard/internal/analytics"
	"github.com/quarry-platform/quarry-dashboard/internal/models"
)

// ViewRepository persists saved dashboard views.
type ViewRepository interface {
	models.ViewGetter
	models.ViewSetter
	models.ViewRemover
}

// CredentialWriter stores or clears the backend credential pair when an
// operator logs the service in or out.
type CredentialWriter interface {
	Set(ctx context.Context, access string, renewal string) error
	Clear(ctx context.Context) error
}

type DashboardServer struct {
	analytics   *analytics.Client
	views       ViewRepository
	credentials CredentialWriter
	events      models.LifecycleEventPublisher
	metrics     models.MetricsClient
	idGenerator models.IDGenerator
}

func (s *DashboardServer) RegisterHandlers(server *echo.Echo, commonMiddlewares ...echo.MiddlewareFunc) {
	e := server.Group("/api")
	e.Use(commonMiddlewares...)

	e.POST("/auth/login", s.PostLogin, NoCaching)
	e.POST("/auth/register", s.PostRegister, NoCaching)
	e.POST("/auth/logout", s.PostLogout, NoCaching)

	e.GET("/datasets", s.GetDatasets)
	e.POST("/datasets", s.PostDataset)
	e.GET("/datasets/:datasetID", s.GetDataset)
	e.DELETE("/datasets/:datasetID", s.DeleteDataset)
	e.POST("/datasets/:datasetID/rows", s.PostDatasetRows)
	e.GET("/datasets/:datasetID/export", s.GetDatasetExport)

	e.GET("/experiments", s.GetExperiments)
	e.POST("/experiments", s.PostExperiment)
	e.GET("/experiments/:experimentID", s.GetExperiment)
	e.PUT("/experiments/:experimentID", s.PutExperiment)
	e.DELETE("/experiments/:experimentID", s.DeleteExperiment)

	e.GET("/predictions", s.GetPredictions)
	e.POST("/predictions", s.PostPrediction)
	e.GET("/predictions/:predictionID", s.GetPrediction)

	e.POST("/analysis/outliers", s.PostOutliers)
	e.POST("/analysis/downsample", s.PostDownsample)
	e.POST("/analysis/sensitivity", s.PostSensitivity)
	e.POST("/analysis/correlation", s.PostCorrelation)

	e.POST("/charts/data", s.PostChartData)

	e.GET("/views", s.GetViews)
	e.POST("/views", s.PostView)
	e.GET("/views/:viewID", s.GetView)
	e.DELETE("/views/:viewID", s.DeleteView)
}

// NoCaching sets headers in responses that prevent caching by the browser.
func NoCaching(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		var noCacheHeaders = map[string]string{
			"Expires":         time.Unix(0, 0).Format(time.RFC1123),
			"Cache-Control":   "no-cache, no-store, must-revalidate, max-age=0",
			"X-Accel-Expires": "0",
		}
		for k, v := range noCacheHeaders {
			c.Response().Header().Set(k, v)
		}
		return next(c)
	}
}

type DashboardServerOption func(*DashboardServer) error

func WithAnalyticsClient(client *analytics.Client) DashboardServerOption {
	return func(s *DashboardServer) error {
		s.analytics = client
		return nil
	}
}

func WithViewRepository(views ViewRepository) DashboardServerOption {
	return func(s *DashboardServer) error {
		s.views = views
		return nil
	}
}

func WithCredentialWriter(credentials CredentialWriter) DashboardServerOption {
	return func(s *DashboardServer) error {
		s.credentials = credentials
		return nil
	}
}

func WithEventPublisher(events models.LifecycleEventPublisher) DashboardServerOption {
	return func(s *DashboardServer) error {
		s.events = events
		return nil
	}
}

func WithMetricsClient(metrics models.MetricsClient) DashboardServerOption {
	return func(s *DashboardServer) error {
		s.metrics = metrics
		return nil
	}
}

// NewDashboardServer creates the API server. The event publisher and metrics
// client default to dummies, everything else has to be provided.
func NewDashboardServer(options ...DashboardServerOption) (*DashboardServer, error) {
	server := DashboardServer{
		events:      models.DummyLifecycleEventPublisher{},
		metrics:     models.DummyMetricsClient{},
		idGenerator: models.ULIDGenerator{},
	}
	for _, opt := range options {
		err := opt(&server)
		if err != nil {
			return &DashboardServer{}, err
		}
	}
	if server.analytics == nil {
		return &DashboardServer{}, fmt.Errorf("analytics client is not initialized")
	}
	if server.views == nil {
		return &DashboardServer{}, fmt.Errorf("view repository is not initialized")
	}
	if server.credentials == nil {
		return &DashboardServer{}, fmt.Errorf("credential writer is not initialized")
	}
	return &server, nil
}
