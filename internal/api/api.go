// Package api exposes the clinic service over HTTP.
package api

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"github.com/julianstephens/clinicsched/internal/clinic"
	"github.com/julianstephens/clinicsched/internal/clock"
	"github.com/julianstephens/clinicsched/internal/constants"
	"github.com/julianstephens/clinicsched/internal/lock"
	"github.com/julianstephens/clinicsched/internal/logger"
	"github.com/julianstephens/clinicsched/internal/models"
	"github.com/julianstephens/clinicsched/internal/optimizer"
	"github.com/julianstephens/clinicsched/internal/storage"
)

type Handler struct {
	svc *clinic.Service
}

func NewHandler(svc *clinic.Service) *Handler {
	return &Handler{svc: svc}
}

// RegisterRoutes registers the clinic routes on e.
func (h *Handler) RegisterRoutes(e *echo.Echo) {
	e.GET("/healthz", h.Health)
	e.POST("/optimize", h.OptimizeAll)

	d := e.Group("/doctors/:id")
	d.GET("/appointments", h.ListAppointments)
	d.POST("/optimize", h.Optimize)
	d.GET("/validate", h.Validate)

	a := e.Group("/appointments/:id")
	a.POST("/finish", h.Finish)
	a.GET("/history", h.History)
}

// NewServer builds an echo instance with recovery, request logging and the
// clinic routes.
func NewServer(h *Handler) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Use(middleware.Recover())
	e.Use(middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		LogMethod:  true,
		LogURI:     true,
		LogStatus:  true,
		LogLatency: true,
		LogValuesFunc: func(c echo.Context, v middleware.RequestLoggerValues) error {
			logger.Info("request", "method", v.Method, "uri", v.URI, "status", v.Status, "latency", v.Latency)
			return nil
		},
	}))
	h.RegisterRoutes(e)
	return e
}

// Serve runs the server on addr until ctx is cancelled.
func Serve(ctx context.Context, e *echo.Echo, addr string) error {
	errCh := make(chan error, 1)
	go func() {
		errCh <- e.Start(addr)
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		return err
	}
	return nil
}

func (h *Handler) Health(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]string{"status": "ok", "version": constants.Version})
}

// ListAppointments handles GET /doctors/:id/appointments?date=YYYY-MM-DD.
func (h *Handler) ListAppointments(c echo.Context) error {
	doctorID, err := intParam(c, "id")
	if err != nil {
		return err
	}

	var date *clock.Date
	if s := c.QueryParam("date"); s != "" {
		d, err := clock.ParseDate(s)
		if err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, err.Error())
		}
		date = &d
	}

	appts, err := h.svc.Appointments(doctorID, date)
	if err != nil {
		return httpError(err)
	}
	if appts == nil {
		appts = []models.Appointment{}
	}
	return c.JSON(http.StatusOK, appts)
}

// Optimize handles POST /doctors/:id/optimize?dry_run=&precision=&max_weeks=.
func (h *Handler) Optimize(c echo.Context) error {
	doctorID, err := intParam(c, "id")
	if err != nil {
		return err
	}
	opts, err := runOptions(c)
	if err != nil {
		return err
	}

	res, err := h.svc.Optimize(c.Request().Context(), doctorID, opts)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, res)
}

type doctorResult struct {
	clinic.Result
	Error string `json:"error,omitempty"`
}

// OptimizeAll handles POST /optimize. Per-doctor failures are reported in
// the body; the status is 200 unless the run as a whole could not start.
func (h *Handler) OptimizeAll(c echo.Context) error {
	opts, err := runOptions(c)
	if err != nil {
		return err
	}

	results, err := h.svc.OptimizeAll(c.Request().Context(), opts)
	if results == nil && err != nil {
		return httpError(err)
	}
	out := make([]doctorResult, len(results))
	for i, r := range results {
		out[i] = doctorResult{Result: r}
		if r.Err != nil {
			out[i].Error = r.Err.Error()
		}
	}
	return c.JSON(http.StatusOK, out)
}

func (h *Handler) Validate(c echo.Context) error {
	doctorID, err := intParam(c, "id")
	if err != nil {
		return err
	}
	result, err := h.svc.Validate(doctorID)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, result)
}

func (h *Handler) Finish(c echo.Context) error {
	id, err := intParam(c, "id")
	if err != nil {
		return err
	}
	if err := h.svc.Finish(id); err != nil {
		return httpError(err)
	}
	return c.NoContent(http.StatusNoContent)
}

func (h *Handler) History(c echo.Context) error {
	id, err := intParam(c, "id")
	if err != nil {
		return err
	}
	attempts, err := h.svc.History(id)
	if err != nil {
		return httpError(err)
	}
	if attempts == nil {
		attempts = []models.RescheduleAttempt{}
	}
	return c.JSON(http.StatusOK, attempts)
}

func intParam(c echo.Context, name string) (int, error) {
	v, err := strconv.Atoi(c.Param(name))
	if err != nil || v <= 0 {
		return 0, echo.NewHTTPError(http.StatusBadRequest, "invalid "+name)
	}
	return v, nil
}

func runOptions(c echo.Context) (clinic.RunOptions, error) {
	var opts clinic.RunOptions
	if s := c.QueryParam("dry_run"); s != "" {
		v, err := strconv.ParseBool(s)
		if err != nil {
			return opts, echo.NewHTTPError(http.StatusBadRequest, "invalid dry_run")
		}
		opts.DryRun = v
	}
	for name, dst := range map[string]*int{"precision": &opts.Precision, "max_weeks": &opts.MaxWeeks} {
		s := c.QueryParam(name)
		if s == "" {
			continue
		}
		v, err := strconv.Atoi(s)
		if err != nil || v <= 0 {
			return opts, echo.NewHTTPError(http.StatusBadRequest, "invalid "+name)
		}
		*dst = v
	}
	return opts, nil
}

func httpError(err error) error {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, clinic.ErrInvalidOptions):
		status = http.StatusBadRequest
	case errors.Is(err, storage.ErrNotFound):
		status = http.StatusNotFound
	case errors.Is(err, optimizer.ErrMalformedSchedule), errors.Is(err, clinic.ErrNoSchedule),
		errors.Is(err, optimizer.ErrTooManyPending):
		status = http.StatusUnprocessableEntity
	case errors.Is(err, optimizer.ErrUnschedulable), errors.Is(err, storage.ErrFinished):
		status = http.StatusConflict
	case errors.Is(err, optimizer.ErrCanceled):
		status = http.StatusServiceUnavailable
	case errors.Is(err, lock.ErrLocked):
		status = http.StatusLocked
	default:
		logger.Error("request failed", "error", err)
	}
	return echo.NewHTTPError(status, err.Error())
}
