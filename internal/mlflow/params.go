package mlflow

import (
	"context"
	"fmt"
	"sort"

	"github.com/databricks/databricks-sdk-go/service/ml"

	"github.com/Yagna-Patil/Battery-Simulator/internal/models"
)

// MLflow accepts at most 100 params per batch.
const maxParamsPerBatch = 100

// SortedParams flattens a parameter map in key order.
func SortedParams(params map[string]string) []models.Parameter {
	out := make([]models.Parameter, 0, len(params))
	for k, v := range params {
		out = append(out, models.Parameter{Key: k, Value: v})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Key < out[j].Key })
	return out
}

func (c *Client) LogParams(ctx context.Context, runID string, params []models.Parameter) error {
	for start := 0; start < len(params); start += maxParamsPerBatch {
		end := min(start+maxParamsPerBatch, len(params))
		batch := make([]ml.Param, 0, end-start)
		for _, p := range params[start:end] {
			batch = append(batch, ml.Param{Key: p.Key, Value: p.Value})
		}

		if err := c.experiments.LogBatch(ctx, ml.LogBatch{RunId: runID, Params: batch}); err != nil {
			return fmt.Errorf("failed to log parameters %d-%d: %w", start, end-1, err)
		}
	}
	return nil
}
