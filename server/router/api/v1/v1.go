// Package v1 exposes the language pipeline over HTTP, so other tooling can
// resolve and segment reminder text without going through the bot.
package v1

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"github.com/napomni/napomni/internal/profile"
	"github.com/napomni/napomni/plugin/nl/segment"
	"github.com/napomni/napomni/plugin/nl/timeparse"
)

// APIV1Service handles the /api/v1 routes.
type APIV1Service struct {
	profile   *profile.Profile
	resolver  *timeparse.Resolver
	segmenter *segment.Segmenter
}

// NewAPIV1Service creates the API service.
func NewAPIV1Service(profile *profile.Profile, resolver *timeparse.Resolver, segmenter *segment.Segmenter) *APIV1Service {
	return &APIV1Service{
		profile:   profile,
		resolver:  resolver,
		segmenter: segmenter,
	}
}

// Register mounts the routes on an echo instance.
func (s *APIV1Service) Register(e *echo.Echo) {
	e.Use(middleware.Recover())

	e.GET("/healthz", s.healthz)

	g := e.Group("/api/v1")
	g.POST("/parse", s.parse)
	g.POST("/segment", s.segment)
}

func (s *APIV1Service) healthz(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]string{
		"status":  "ok",
		"version": s.profile.Version,
	})
}

type parseRequest struct {
	Text  string            `json:"text"`
	Times map[string]string `json:"times,omitempty"`
}

type segmentRequest struct {
	Text  string `json:"text"`
	Smart bool   `json:"smart,omitempty"`
}

func (s *APIV1Service) parse(c echo.Context) error {
	var req parseRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "malformed request body")
	}
	if req.Text == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "text is required")
	}

	resolver := s.resolver
	if len(req.Times) > 0 {
		resolver = resolver.WithSettings(timeparse.NormalizeSettings(req.Times))
	}

	return c.JSON(http.StatusOK, resolver.Resolve(c.Request().Context(), req.Text))
}

func (s *APIV1Service) segment(c echo.Context) error {
	var req segmentRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "malformed request body")
	}
	if req.Text == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "text is required")
	}

	var res segment.SegmentResult
	if req.Smart {
		res = s.segmenter.SplitSmart(c.Request().Context(), req.Text)
	} else {
		res = s.segmenter.Split(req.Text)
	}
	return c.JSON(http.StatusOK, res)
}
