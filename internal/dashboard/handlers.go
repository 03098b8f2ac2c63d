package dashboard

import (
	"bytes"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/Yagna-Patil/Battery-Simulator/internal/cells"
	"github.com/Yagna-Patil/Battery-Simulator/internal/chart"
	"github.com/Yagna-Patil/Battery-Simulator/internal/metrics"
	"github.com/Yagna-Patil/Battery-Simulator/internal/models"
	"github.com/Yagna-Patil/Battery-Simulator/internal/report"
	"github.com/Yagna-Patil/Battery-Simulator/internal/simulation"
)

type cellView struct {
	models.Cell
	ChargePercent float64 `json:"charge_percent"`
}

func cellViews(cs []models.Cell) []cellView {
	views := make([]cellView, len(cs))
	for i, c := range cs {
		views[i] = cellView{Cell: c, ChargePercent: c.ChargePercent()}
	}
	return views
}

type runView struct {
	simulation.Snapshot
	Cells []cellView `json:"cells"`
}

func viewOf(snap simulation.Snapshot) runView {
	return runView{Snapshot: snap, Cells: cellViews(snap.Cells)}
}

type previewRequest struct {
	Chemistries []string `json:"chemistries" binding:"required"`
}

func (s *Server) Index(c *gin.Context) {
	c.HTML(http.StatusOK, "index.html", gin.H{
		"Chemistries":  models.Chemistries,
		"TaskTypes":    models.TaskTypes,
		"Plan":         models.DefaultPlan(),
		"MinCells":     models.MinCells,
		"MaxCells":     models.MaxCells,
		"MinTasks":     models.MinTasks,
		"MaxTasks":     models.MaxTasks,
		"MinSeconds":   models.MinTaskSeconds,
		"MaxSeconds":   models.MaxTaskSeconds,
		"ChartTitle":   chart.Title,
		"SimpleFile":   report.SimpleFileName,
		"DetailedFile": report.FileName,
	})
}

// PreviewCells builds a registry for the dashboard cards.
func (s *Server) PreviewCells(c *gin.Context) {
	var req previewRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	chems := make([]models.Chemistry, len(req.Chemistries))
	for i, name := range req.Chemistries {
		chem, err := models.ParseChemistry(name)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		chems[i] = chem
	}

	s.rngMu.Lock()
	registry, err := cells.Build(chems, s.rng)
	s.rngMu.Unlock()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"cells": cellViews(registry.Cells())})
}

func (s *Server) StartSimulation(c *gin.Context) {
	var plan models.Plan
	if err := c.ShouldBindJSON(&plan); err != nil {
		s.recorder.IncCounter(metrics.RunsRejected, 1)
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	run, err := s.runner.Start(plan)
	switch {
	case errors.Is(err, simulation.ErrRunInProgress):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
		return
	case isPlanError(err):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	case err != nil:
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	s.log.WithField("run_id", run.ID()).Info("Simulation requested from dashboard")
	c.JSON(http.StatusAccepted, gin.H{"run_id": run.ID(), "status": run.Status()})
}

func (s *Server) CurrentSimulation(c *gin.Context) {
	run, ok := s.runner.Current()
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "no simulation has been run"})
		return
	}
	c.JSON(http.StatusOK, viewOf(run.Snapshot()))
}

func (s *Server) GetSimulation(c *gin.Context) {
	run, ok := s.lookup(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, viewOf(run.Snapshot()))
}

func (s *Server) Chart(c *gin.Context) {
	run, ok := s.lookup(c)
	if !ok {
		return
	}

	snap := run.Snapshot()
	var buf bytes.Buffer
	if err := chart.RenderPNG(&buf, snap.Samples, chart.Options{Ticks: snap.Ticks}); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.Header("Cache-Control", "no-store")
	c.Data(http.StatusOK, "image/png", buf.Bytes())
}

func (s *Server) SimpleCSV(c *gin.Context) {
	run, ok := s.lookup(c)
	if !ok {
		return
	}

	var buf bytes.Buffer
	if err := run.WriteSimpleCSV(&buf); err != nil {
		s.exportError(c, err)
		return
	}
	s.recorder.IncExport("simple")
	attachment(c, report.SimpleFileName, buf.Bytes())
}

func (s *Server) DetailedReport(c *gin.Context) {
	run, ok := s.lookup(c)
	if !ok {
		return
	}

	start := time.Now()
	rep, err := run.Report()
	if err != nil {
		s.exportError(c, err)
		return
	}
	var buf bytes.Buffer
	if _, err := rep.WriteTo(&buf); err != nil {
		s.exportError(c, err)
		return
	}
	s.recorder.ObserveLatency(metrics.ReportLatency, time.Since(start).Seconds())
	s.recorder.IncExport("report")
	attachment(c, report.FileName, buf.Bytes())
}

func (s *Server) lookup(c *gin.Context) (*simulation.Run, bool) {
	id := c.Param("run_id")
	run, ok := s.runner.Get(id)
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "simulation not found", "run_id": id})
		return nil, false
	}
	return run, true
}

func (s *Server) exportError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, simulation.ErrRunNotFinished):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	case errors.Is(err, report.ErrNoSamples):
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
	default:
		s.log.WithError(err).Error("Export failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
	}
}

func attachment(c *gin.Context, name string, body []byte) {
	c.Header("Content-Disposition", `attachment; filename="`+name+`"`)
	c.Data(http.StatusOK, "text/csv; charset=utf-8", body)
}

func isPlanError(err error) bool {
	return errors.Is(err, models.ErrCellCount) ||
		errors.Is(err, models.ErrInvalidTask) ||
		errors.Is(err, models.ErrUnknownChemistry)
}
