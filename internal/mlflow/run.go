package mlflow

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/databricks/databricks-sdk-go/service/ml"

	"github.com/Yagna-Patil/Battery-Simulator/internal/models"
)

const (
	tagRunName     = "mlflow.runName"
	tagDescription = "mlflow.note.content"
)

// DefaultRunName names a run after the simulation start time.
func DefaultRunName(start time.Time) string {
	return "sim-" + start.Format("2006-01-02-15-04-05")
}

func (c *Client) CreateRun(ctx context.Context, cfg *models.RunConfig, start time.Time) (*models.RunInfo, error) {
	if cfg.ExperimentID == nil || *cfg.ExperimentID == "" {
		return nil, fmt.Errorf("experiment ID must be provided")
	}
	experimentID := *cfg.ExperimentID

	runName := DefaultRunName(start)
	if cfg.RunName != nil && *cfg.RunName != "" {
		runName = *cfg.RunName
	}
	description := ""
	if cfg.Description != nil {
		description = *cfg.Description
	}

	resp, err := c.experiments.CreateRun(ctx, ml.CreateRun{
		ExperimentId: experimentID,
		RunName:      runName,
		StartTime:    start.UnixMilli(),
		Tags:         runTags(cfg.Tags, runName, description),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create run: %w", err)
	}

	return &models.RunInfo{
		RunID:        resp.Run.Info.RunId,
		ExperimentID: experimentID,
		RunName:      runName,
		Status:       string(models.RunStatusRunning),
		StartTime:    start,
		Tags:         cfg.Tags,
		Description:  description,
	}, nil
}

// runTags returns user tags sorted by key, followed by the reserved name and
// description tags.
func runTags(tags map[string]string, runName, description string) []ml.RunTag {
	keys := make([]string, 0, len(tags))
	for k := range tags {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	out := make([]ml.RunTag, 0, len(keys)+2)
	for _, k := range keys {
		out = append(out, ml.RunTag{Key: k, Value: tags[k]})
	}
	out = append(out, ml.RunTag{Key: tagRunName, Value: runName})
	if description != "" {
		out = append(out, ml.RunTag{Key: tagDescription, Value: description})
	}
	return out
}

func updateStatus(status models.RunStatus) ml.UpdateRunStatus {
	switch status {
	case models.RunStatusRunning:
		return ml.UpdateRunStatusRunning
	case models.RunStatusFailed:
		return ml.UpdateRunStatusFailed
	case models.RunStatusKilled:
		return ml.UpdateRunStatusKilled
	default:
		return ml.UpdateRunStatusFinished
	}
}

func (c *Client) UpdateRun(ctx context.Context, runID string, status models.RunStatus, end time.Time) error {
	req := ml.UpdateRun{
		RunId:  runID,
		Status: updateStatus(status),
	}
	if status.Terminal() {
		req.EndTime = end.UnixMilli()
	}

	if _, err := c.experiments.UpdateRun(ctx, req); err != nil {
		return fmt.Errorf("failed to update run: %w", err)
	}
	return nil
}
