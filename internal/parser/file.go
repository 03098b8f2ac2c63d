package parser

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/Yagna-Patil/Battery-Simulator/internal/models"
)

// ParsePlanFile loads a plan from a .json, .yaml or .yml file and validates
// it.
func ParsePlanFile(path string) (*models.Plan, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open file %s: %w", path, err)
	}
	defer file.Close()

	var plan *models.Plan
	ext := strings.ToLower(filepath.Ext(path))

	switch ext {
	case ".json":
		plan, err = ParseJSONPlan(file)
	case ".yaml", ".yml":
		plan, err = ParseYAMLPlan(file)
	default:
		return nil, fmt.Errorf("unsupported file format: %s (supported: .json, .yaml, .yml)", ext)
	}
	if err != nil {
		return nil, err
	}

	if err := plan.Normalize(); err != nil {
		return nil, fmt.Errorf("invalid plan in %s: %w", path, err)
	}
	return plan, nil
}
