package mlflow

import (
	"context"
	"fmt"

	"github.com/databricks/databricks-sdk-go/service/ml"

	"github.com/Yagna-Patil/Battery-Simulator/internal/models"
)

// MLflow accepts at most 1000 metrics per batch.
const maxMetricsPerBatch = 1000

func toMLMetrics(metrics []models.Metric) []ml.Metric {
	out := make([]ml.Metric, len(metrics))
	for i, m := range metrics {
		out[i] = ml.Metric{
			Key:       m.Key,
			Value:     m.Value,
			Timestamp: m.Timestamp.UnixMilli(),
			Step:      m.Step,
		}
	}
	return out
}

func (c *Client) LogMetrics(ctx context.Context, runID string, metrics []models.Metric) error {
	all := toMLMetrics(metrics)
	for start := 0; start < len(all); start += maxMetricsPerBatch {
		end := min(start+maxMetricsPerBatch, len(all))
		if err := c.experiments.LogBatch(ctx, ml.LogBatch{RunId: runID, Metrics: all[start:end]}); err != nil {
			return fmt.Errorf("failed to log metrics %d-%d: %w", start, end-1, err)
		}
	}
	return nil
}
