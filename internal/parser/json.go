package parser

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/Yagna-Patil/Battery-Simulator/internal/models"
)

func ParseJSONPlan(reader io.Reader) (*models.Plan, error) {
	var data models.Plan
	decoder := json.NewDecoder(reader)
	decoder.DisallowUnknownFields()

	if err := decoder.Decode(&data); err != nil {
		return nil, fmt.Errorf("failed to parse JSON plan: %w", err)
	}

	return &data, nil
}
