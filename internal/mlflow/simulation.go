package mlflow

import (
	"bytes"
	"context"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/Yagna-Patil/Battery-Simulator/internal/models"
	"github.com/Yagna-Patil/Battery-Simulator/internal/numfmt"
	"github.com/Yagna-Patil/Battery-Simulator/internal/report"
	"github.com/Yagna-Patil/Battery-Simulator/internal/simulation"
	timeutils "github.com/Yagna-Patil/Battery-Simulator/internal/time"
)

// LogSimulation records a finished run as an MLflow run: plan and cell
// params, one metric series per telemetry channel and both CSV exports as
// artifacts. The MLflow run ends FAILED if any step after creation fails.
func (c *Client) LogSimulation(ctx context.Context, run *simulation.Run, cfg *models.RunConfig) (*models.RunInfo, error) {
	snap := run.Snapshot()
	if snap.Status != models.RunStatusFinished {
		return nil, fmt.Errorf("%w: %s is %s", simulation.ErrRunNotFinished, snap.ID, snap.Status)
	}

	rep, err := run.Report()
	if err != nil {
		return nil, fmt.Errorf("failed to build report: %w", err)
	}
	var detailed, simple bytes.Buffer
	if _, err := rep.WriteTo(&detailed); err != nil {
		return nil, fmt.Errorf("failed to render report: %w", err)
	}
	if err := run.WriteSimpleCSV(&simple); err != nil {
		return nil, fmt.Errorf("failed to render simple CSV: %w", err)
	}

	info, err := c.CreateRun(ctx, withSimulationTag(cfg, snap.ID), snap.StartTime)
	if err != nil {
		return nil, err
	}
	log := c.log.WithFields(logrus.Fields{"run_id": info.RunID, "simulation_id": snap.ID})
	log.Info("Created MLflow run")

	end := time.Now()
	if snap.EndTime != nil {
		end = *snap.EndTime
	}

	if err := c.logSimulation(ctx, info.RunID, snap, detailed.Bytes(), simple.Bytes()); err != nil {
		log.WithError(err).Error("Publishing failed, marking MLflow run as failed")
		if uerr := c.UpdateRun(ctx, info.RunID, models.RunStatusFailed, end); uerr != nil {
			log.WithError(uerr).Warn("Failed to mark MLflow run as failed")
		}
		info.Status = string(models.RunStatusFailed)
		return info, err
	}

	if err := c.UpdateRun(ctx, info.RunID, models.RunStatusFinished, end); err != nil {
		return info, err
	}
	info.Status = string(models.RunStatusFinished)
	info.EndTime = &end
	log.Info("Published simulation")
	return info, nil
}

func (c *Client) logSimulation(ctx context.Context, runID string, snap simulation.Snapshot, detailed, simple []byte) error {
	if err := c.LogParams(ctx, runID, SortedParams(SimulationParams(snap))); err != nil {
		return err
	}
	if err := c.LogMetrics(ctx, runID, timeutils.ProcessSamples(snap.Samples, snap.StartTime)); err != nil {
		return err
	}
	if err := c.UploadArtifact(ctx, runID, report.FileName, detailed); err != nil {
		return fmt.Errorf("failed to upload %s: %w", report.FileName, err)
	}
	if err := c.UploadArtifact(ctx, runID, report.SimpleFileName, simple); err != nil {
		return fmt.Errorf("failed to upload %s: %w", report.SimpleFileName, err)
	}
	return nil
}

// SimulationParams flattens the plan and the generated cell attributes.
func SimulationParams(snap simulation.Snapshot) map[string]string {
	plan := models.Plan{Cells: make([]models.Chemistry, len(snap.Cells)), Tasks: snap.Tasks}
	for i, cell := range snap.Cells {
		plan.Cells[i] = cell.Chemistry
	}

	params := plan.Params()
	params["ticks"] = numfmt.Int(snap.Ticks)
	for i, cell := range snap.Cells {
		prefix := fmt.Sprintf("cell.%d.", i+1)
		params[prefix+"current"] = numfmt.Float(cell.Current)
		params[prefix+"temp"] = numfmt.Float(cell.Temperature)
		params[prefix+"capacity"] = numfmt.Float(cell.Capacity)
	}
	return params
}

func withSimulationTag(cfg *models.RunConfig, simulationID string) *models.RunConfig {
	out := *cfg
	out.Tags = make(map[string]string, len(cfg.Tags)+1)
	for k, v := range cfg.Tags {
		out.Tags[k] = v
	}
	out.Tags["battery_sim.run_id"] = simulationID
	return &out
}
