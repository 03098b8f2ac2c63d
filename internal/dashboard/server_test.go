package dashboard

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Yagna-Patil/Battery-Simulator/internal/generator"
	"github.com/Yagna-Patil/Battery-Simulator/internal/metrics"
	"github.com/Yagna-Patil/Battery-Simulator/internal/models"
	"github.com/Yagna-Patil/Battery-Simulator/internal/report"
	"github.com/Yagna-Patil/Battery-Simulator/internal/simulation"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type fixture struct {
	server *Server
	runner *simulation.Runner
	reg    *prometheus.Registry
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	logger, _ := test.NewNullLogger()
	reg := prometheus.NewRegistry()
	rec := metrics.NewPromRecorder(reg)

	runner := simulation.NewRunner(simulation.Options{
		Generator: generator.Config{Ticks: 8},
		Seed:      5,
		Now:       func() time.Time { return time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC) },
		Recorder:  rec,
		Log:       logger,
	})
	srv, err := New(Config{Runner: runner, Recorder: rec, Gatherer: reg, Log: logger, Seed: 3})
	require.NoError(t, err)
	return &fixture{server: srv, runner: runner, reg: reg}
}

func (f *fixture) do(t *testing.T, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	f.server.Handler().ServeHTTP(w, req)
	return w
}

// finishedRun starts a simulation and waits for it to complete.
func (f *fixture) finishedRun(t *testing.T) string {
	t.Helper()
	w := f.do(t, http.MethodPost, "/api/v1/simulations", gin.H{
		"cells": []string{"lfp", "nmc"},
		"tasks": []gin.H{{"task_type": "CC_CV", "cc_cp": "5A", "cv_voltage": 3.65}},
	})
	require.Equal(t, http.StatusAccepted, w.Code, w.Body.String())

	var resp struct {
		RunID string `json:"run_id"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.NotEmpty(t, resp.RunID)
	f.runner.Wait()
	return resp.RunID
}

func TestNewRequiresRunner(t *testing.T) {
	_, err := New(Config{})
	assert.Error(t, err)
}

func TestIndex(t *testing.T) {
	f := newFixture(t)
	w := f.do(t, http.MethodGet, "/", nil)

	require.Equal(t, http.StatusOK, w.Code)
	body := w.Body.String()
	assert.Contains(t, body, "Interactive Battery Simulation Dashboard")
	assert.Contains(t, body, report.SimpleFileName)
	assert.Contains(t, body, report.FileName)
	assert.Contains(t, body, `"CC_CV"`)
}

func TestHealthz(t *testing.T) {
	f := newFixture(t)
	w := f.do(t, http.MethodGet, "/healthz", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"status":"ok"}`, w.Body.String())
}

func TestPreviewCells(t *testing.T) {
	f := newFixture(t)

	t.Run("valid", func(t *testing.T) {
		w := f.do(t, http.MethodPost, "/api/v1/cells", gin.H{"chemistries": []string{"LFP", "nmc", "lfp"}})
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())

		var resp struct {
			Cells []cellView `json:"cells"`
		}
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		require.Len(t, resp.Cells, 3)
		assert.Equal(t, "Cell 1 (lfp)", resp.Cells[0].Key)
		assert.Equal(t, "Cell 2 (nmc)", resp.Cells[1].Key)
		assert.Equal(t, 3.6, resp.Cells[1].Voltage)
		assert.InDelta(t, 50.0, resp.Cells[1].ChargePercent, 1e-9)
	})

	t.Run("unknown chemistry", func(t *testing.T) {
		w := f.do(t, http.MethodPost, "/api/v1/cells", gin.H{"chemistries": []string{"lead"}})
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("too many cells", func(t *testing.T) {
		chems := make([]string, models.MaxCells+1)
		for i := range chems {
			chems[i] = "lfp"
		}
		w := f.do(t, http.MethodPost, "/api/v1/cells", gin.H{"chemistries": chems})
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("missing body", func(t *testing.T) {
		w := f.do(t, http.MethodPost, "/api/v1/cells", nil)
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}

func TestCurrentSimulationBeforeAnyRun(t *testing.T) {
	f := newFixture(t)
	w := f.do(t, http.MethodGet, "/api/v1/simulations/current", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestStartSimulationRejectsInvalidPlan(t *testing.T) {
	f := newFixture(t)

	w := f.do(t, http.MethodPost, "/api/v1/simulations", gin.H{"cells": []string{}, "tasks": []gin.H{}})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = f.do(t, http.MethodPost, "/api/v1/simulations", gin.H{
		"cells": []string{"lfp"},
		"tasks": []gin.H{{"task_type": "BOOST"}},
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	_, ok := f.runner.Current()
	assert.False(t, ok)
}

func TestSimulationLifecycle(t *testing.T) {
	f := newFixture(t)
	id := f.finishedRun(t)

	w := f.do(t, http.MethodGet, "/api/v1/simulations/current", nil)
	require.Equal(t, http.StatusOK, w.Code)

	var view struct {
		ID       string  `json:"id"`
		Status   string  `json:"status"`
		Done     int     `json:"done"`
		Progress float64 `json:"progress"`
		Cells    []struct {
			Key           string  `json:"key"`
			ChargePercent float64 `json:"charge_percent"`
		} `json:"cells"`
		Samples []models.Sample `json:"samples"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &view))
	assert.Equal(t, id, view.ID)
	assert.Equal(t, string(models.RunStatusFinished), view.Status)
	assert.Equal(t, 8, view.Done)
	assert.Equal(t, 1.0, view.Progress)
	require.Len(t, view.Cells, 2)
	assert.Equal(t, "Cell 2 (nmc)", view.Cells[1].Key)
	assert.Len(t, view.Samples, 8)

	w = f.do(t, http.MethodGet, "/api/v1/simulations/"+id, nil)
	assert.Equal(t, http.StatusOK, w.Code)

	w = f.do(t, http.MethodGet, "/api/v1/simulations/nope", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestChart(t *testing.T) {
	f := newFixture(t)
	id := f.finishedRun(t)

	w := f.do(t, http.MethodGet, "/api/v1/simulations/"+id+"/chart.png", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "image/png", w.Header().Get("Content-Type"))
	assert.True(t, bytes.HasPrefix(w.Body.Bytes(), []byte("\x89PNG")))
}

func TestExports(t *testing.T) {
	f := newFixture(t)
	id := f.finishedRun(t)

	w := f.do(t, http.MethodGet, "/api/v1/simulations/"+id+"/data.csv", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Header().Get("Content-Disposition"), report.SimpleFileName)
	lines := strings.Split(strings.TrimRight(w.Body.String(), "\n"), "\n")
	assert.Equal(t, "Time (s),Voltage (V),Current (A),Temperature (°C)", strings.TrimRight(lines[0], "\r"))
	assert.Len(t, lines, 9)

	w = f.do(t, http.MethodGet, "/api/v1/simulations/"+id+"/report.csv", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Header().Get("Content-Disposition"), report.FileName)
	assert.True(t, strings.HasPrefix(w.Body.String(), "### Test Data ###"))

	families, err := f.reg.Gather()
	require.NoError(t, err)
	var exports float64
	for _, mf := range families {
		if mf.GetName() != metrics.ExportsTotal {
			continue
		}
		for _, m := range mf.GetMetric() {
			exports += m.GetCounter().GetValue()
		}
	}
	assert.Equal(t, 2.0, exports)
}

func TestMetricsEndpoint(t *testing.T) {
	f := newFixture(t)
	f.finishedRun(t)

	w := f.do(t, http.MethodGet, "/metrics", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), metrics.RunsFinished+" 1")
	assert.Contains(t, w.Body.String(), metrics.TicksTotal+" 8")
}
