package parser

import (
	"fmt"
	"io"

	"gopkg.in/yaml.v3"

	"github.com/Yagna-Patil/Battery-Simulator/internal/models"
)

func ParseYAMLPlan(reader io.Reader) (*models.Plan, error) {
	var data models.Plan
	decoder := yaml.NewDecoder(reader)
	decoder.KnownFields(true)

	if err := decoder.Decode(&data); err != nil {
		return nil, fmt.Errorf("failed to parse YAML plan: %w", err)
	}

	return &data, nil
}
