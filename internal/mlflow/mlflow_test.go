package mlflow

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/databricks/databricks-sdk-go/service/ml"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Yagna-Patil/Battery-Simulator/internal/config"
	"github.com/Yagna-Patil/Battery-Simulator/internal/generator"
	"github.com/Yagna-Patil/Battery-Simulator/internal/models"
	"github.com/Yagna-Patil/Battery-Simulator/internal/report"
	"github.com/Yagna-Patil/Battery-Simulator/internal/simulation"
)

var simStart = time.Date(2024, 5, 1, 9, 15, 0, 0, time.UTC)

// fakeExperiments records the calls LogSimulation makes. Methods it does not
// override panic through the nil embedded interface.
type fakeExperiments struct {
	ml.ExperimentsInterface

	artifactURI string
	batchErr    error

	created ml.CreateRun
	params  []ml.Param
	metrics []ml.Metric
	updates []ml.UpdateRun
}

func (f *fakeExperiments) CreateRun(_ context.Context, req ml.CreateRun) (*ml.CreateRunResponse, error) {
	f.created = req
	return &ml.CreateRunResponse{Run: &ml.Run{Info: &ml.RunInfo{RunId: "mlflow-run-1"}}}, nil
}

func (f *fakeExperiments) LogBatch(_ context.Context, req ml.LogBatch) error {
	if f.batchErr != nil {
		return f.batchErr
	}
	f.params = append(f.params, req.Params...)
	f.metrics = append(f.metrics, req.Metrics...)
	return nil
}

func (f *fakeExperiments) UpdateRun(_ context.Context, req ml.UpdateRun) (*ml.UpdateRunResponse, error) {
	f.updates = append(f.updates, req)
	return &ml.UpdateRunResponse{}, nil
}

func (f *fakeExperiments) GetRun(_ context.Context, req ml.GetRunRequest) (*ml.GetRunResponse, error) {
	return &ml.GetRunResponse{Run: &ml.Run{Info: &ml.RunInfo{RunId: req.RunId, ArtifactUri: f.artifactURI}}}, nil
}

func testClient(exp ml.ExperimentsInterface, trackingURI string) *Client {
	logger, _ := test.NewNullLogger()
	return &Client{
		experiments: exp,
		config:      &config.Config{TrackingURI: trackingURI, ExperimentID: "7"},
		httpClient:  http.DefaultClient,
		log:         logger,
	}
}

func finishedRun(t *testing.T) *simulation.Run {
	t.Helper()
	logger, _ := test.NewNullLogger()
	run, err := simulation.Execute(models.Plan{
		Cells: []models.Chemistry{models.ChemistryLFP, models.ChemistryNMC},
		Tasks: []models.Task{{Type: models.TaskIdle}},
	}, simulation.Options{
		Generator: generator.Config{Ticks: 4},
		Seed:      9,
		Now:       func() time.Time { return simStart },
		Log:       logger,
	})
	require.NoError(t, err)
	return run
}

func strPtr(s string) *string { return &s }

func TestLogSimulation(t *testing.T) {
	dir := t.TempDir()
	exp := &fakeExperiments{artifactURI: "file://" + dir}
	client := testClient(exp, "http://localhost:5000")
	run := finishedRun(t)

	info, err := client.LogSimulation(context.Background(), run, &models.RunConfig{
		ExperimentID: strPtr("7"),
		Tags:         map[string]string{"team": "cells"},
	})
	require.NoError(t, err)

	assert.Equal(t, "mlflow-run-1", info.RunID)
	assert.Equal(t, "sim-2024-05-01-09-15-00", info.RunName)
	assert.Equal(t, string(models.RunStatusFinished), info.Status)
	assert.Equal(t, "7", exp.created.ExperimentId)
	assert.Equal(t, simStart.UnixMilli(), exp.created.StartTime)
	assert.Contains(t, exp.created.Tags, ml.RunTag{Key: "battery_sim.run_id", Value: run.ID()})
	assert.Contains(t, exp.created.Tags, ml.RunTag{Key: "team", Value: "cells"})

	assert.Contains(t, exp.params, ml.Param{Key: "cell_count", Value: "2"})
	assert.Contains(t, exp.params, ml.Param{Key: "cell.2.chemistry", Value: "nmc"})
	assert.Contains(t, exp.params, ml.Param{Key: "task.1.task_type", Value: "IDLE"})
	assert.Contains(t, exp.params, ml.Param{Key: "ticks", Value: "4"})

	require.Len(t, exp.metrics, 12)
	last := exp.metrics[11]
	assert.Equal(t, models.MetricTemperature, last.Key)
	assert.Equal(t, int64(3), last.Step)
	assert.Equal(t, simStart.Add(6*time.Second).UnixMilli(), last.Timestamp)

	require.Len(t, exp.updates, 1)
	assert.Equal(t, ml.UpdateRunStatusFinished, exp.updates[0].Status)

	detailed, err := os.ReadFile(filepath.Join(dir, report.FileName))
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(detailed), "### Test Data ###"))
	_, err = os.Stat(filepath.Join(dir, report.SimpleFileName))
	assert.NoError(t, err)
}

func TestLogSimulationMarksRunFailed(t *testing.T) {
	exp := &fakeExperiments{artifactURI: "file://" + t.TempDir(), batchErr: errors.New("boom")}
	client := testClient(exp, "http://localhost:5000")

	info, err := client.LogSimulation(context.Background(), finishedRun(t), &models.RunConfig{ExperimentID: strPtr("7")})
	require.Error(t, err)
	assert.Equal(t, string(models.RunStatusFailed), info.Status)
	require.Len(t, exp.updates, 1)
	assert.Equal(t, ml.UpdateRunStatusFailed, exp.updates[0].Status)
}

func TestCreateRunRequiresExperiment(t *testing.T) {
	client := testClient(&fakeExperiments{}, "http://localhost:5000")
	_, err := client.CreateRun(context.Background(), &models.RunConfig{}, simStart)
	assert.Error(t, err)
}

func TestRunTags(t *testing.T) {
	tags := runTags(map[string]string{"b": "2", "a": "1"}, "sim-x", "notes")
	assert.Equal(t, []ml.RunTag{
		{Key: "a", Value: "1"},
		{Key: "b", Value: "2"},
		{Key: tagRunName, Value: "sim-x"},
		{Key: tagDescription, Value: "notes"},
	}, tags)
}

func TestLogMetricsBatches(t *testing.T) {
	exp := &fakeExperiments{}
	client := testClient(exp, "http://localhost:5000")

	metrics := make([]models.Metric, maxMetricsPerBatch+5)
	for i := range metrics {
		metrics[i] = models.Metric{Key: models.MetricVoltage, Value: 3.3, Timestamp: simStart, Step: int64(i)}
	}
	require.NoError(t, client.LogMetrics(context.Background(), "r", metrics))
	assert.Len(t, exp.metrics, len(metrics))
	assert.Equal(t, int64(maxMetricsPerBatch+4), exp.metrics[len(metrics)-1].Step)
}

func TestSortedParams(t *testing.T) {
	params := SortedParams(map[string]string{"z": "1", "a": "2"})
	assert.Equal(t, []models.Parameter{{Key: "a", Value: "2"}, {Key: "z", Value: "1"}}, params)
}

func TestExtractIDsFromArtifactURI(t *testing.T) {
	exp, run, err := extractIDsFromArtifactURI("mlflow-artifacts:/0/47485d6a0b734e37aaddc60be04b7371/artifacts")
	require.NoError(t, err)
	assert.Equal(t, "0", exp)
	assert.Equal(t, "47485d6a0b734e37aaddc60be04b7371", run)

	_, _, err = extractIDsFromArtifactURI("mlflow-artifacts:/0")
	assert.Error(t, err)
}

func TestExtractRunIDFromDBFSURI(t *testing.T) {
	run, err := extractRunIDFromDBFSURI("dbfs:/databricks/mlflow-tracking/123/abc/artifacts")
	require.NoError(t, err)
	assert.Equal(t, "abc", run)

	_, err = extractRunIDFromDBFSURI("dbfs:/other/123/abc")
	assert.Error(t, err)
}

func TestUploadToMLflowArtifacts(t *testing.T) {
	var gotPath, gotBody string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPut, r.Method)
		gotPath = r.URL.Path
		body, _ := io.ReadAll(r.Body)
		gotBody = string(body)
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	exp := &fakeExperiments{artifactURI: "mlflow-artifacts:/3/run9/artifacts"}
	client := testClient(exp, srv.URL)

	require.NoError(t, client.UploadArtifact(context.Background(), "run9", "report.csv", []byte("a,b\n")))
	assert.Equal(t, "/api/2.0/mlflow-artifacts/artifacts/3/run9/artifacts/report.csv", gotPath)
	assert.Equal(t, "a,b\n", gotBody)
}

func TestUploadRejectsUnknownScheme(t *testing.T) {
	client := testClient(&fakeExperiments{artifactURI: "s3://bucket/run"}, "http://localhost:5000")
	err := client.UploadArtifact(context.Background(), "r", "x.csv", nil)
	assert.Error(t, err)
}

func TestSignedURIRequest(t *testing.T) {
	req, err := signedURIRequest(context.Background(), ArtifactCredentialInfo{
		SignedURI: "https://blob.example.com/x",
		Type:      "AZURE_SAS_URI",
		Headers:   []HTTPHeader{{Name: "x-ms-meta", Value: "1"}},
	}, []byte("abc"))
	require.NoError(t, err)
	assert.Equal(t, int64(3), req.ContentLength)
	assert.Equal(t, "BlockBlob", req.Header.Get("x-ms-blob-type"))
	assert.Equal(t, "1", req.Header.Get("x-ms-meta"))
}
