// Package api exposes the progress of a running search over HTTP.
package api

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/labstack/echo/v4"

	"forkskinny-go/pkg/draw"
	"forkskinny-go/pkg/integral"
	"forkskinny-go/pkg/log"
)

type Status struct {
	Batch    string                    `json:"batch"`
	Params   integral.Params           `json:"params"`
	Progress integral.ProgressSnapshot `json:"progress"`
	Last     *LastResult               `json:"last,omitempty"`
}

// LastResult is the outcome of the most recent finished trial.
type LastResult struct {
	Trial      int `json:"trial"`
	Control    int `json:"control"`
	TargetSum  int `json:"target_sum"`
	ControlSum int `json:"control_sum"`
}

type Server struct {
	Api *echo.Echo

	batch    string
	params   integral.Params
	progress *integral.Progress

	mu    sync.RWMutex
	shape draw.Shape
	last  *LastResult
}

func NewServer(batch string, p integral.Params, progress *integral.Progress) *Server {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	s := &Server{
		Api:      e,
		batch:    batch,
		params:   p,
		progress: progress,
		shape:    draw.NewShape(p),
	}
	e.GET("/status", s.GetStatus)
	e.GET("/shape", s.GetShape)
	e.GET("/shape.svg", s.GetShapeSVG)
	return s
}

// Observe records a finished trial.
func (s *Server) Observe(trial int, res *integral.Result) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.shape = s.shape.WithControl(res.Control)
	s.last = &LastResult{
		Trial:      trial,
		Control:    res.Control,
		TargetSum:  int(res.TargetSum),
		ControlSum: int(res.ControlSum),
	}
}

func (s *Server) currentShape() draw.Shape {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.shape
}

func (s *Server) GetStatus(c echo.Context) error {
	s.mu.RLock()
	st := Status{Batch: s.batch, Params: s.params, Progress: s.progress.Snapshot(), Last: s.last}
	s.mu.RUnlock()
	return c.JSON(http.StatusOK, st)
}

func (s *Server) GetShape(c echo.Context) error {
	return c.String(http.StatusOK, s.currentShape().DOT())
}

func (s *Server) GetShapeSVG(c echo.Context) error {
	svg, err := s.currentShape().SVG(c.Request().Context())
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.Blob(http.StatusOK, "image/svg+xml", svg)
}

// Run serves on addr until ctx is done.
func (s *Server) Run(ctx context.Context, addr string) error {
	errc := make(chan error, 1)
	go func() {
		log.Info().Str("addr", addr).Msg("api: listening")
		errc <- s.Api.Start(addr)
	}()
	select {
	case err := <-errc:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := s.Api.Shutdown(shutdownCtx); err != nil {
		return err
	}
	log.Info().Msg("api: stopped")
	return nil
}
