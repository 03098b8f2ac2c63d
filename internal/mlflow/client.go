// Package mlflow publishes finished simulation runs to an MLflow tracking
// server, either self-hosted or on Databricks.
package mlflow

import (
	"fmt"
	"net/http"
	"time"

	"github.com/databricks/databricks-sdk-go"
	"github.com/databricks/databricks-sdk-go/httpclient"
	"github.com/databricks/databricks-sdk-go/service/ml"
	"github.com/sirupsen/logrus"

	"github.com/Yagna-Patil/Battery-Simulator/internal/config"
)

type Client struct {
	client      *databricks.WorkspaceClient
	experiments ml.ExperimentsInterface
	apiClient   *httpclient.ApiClient
	config      *config.Config
	httpClient  *http.Client
	log         logrus.FieldLogger
}

func NewClient(cfg *config.Config, log logrus.FieldLogger) (*Client, error) {
	if err := cfg.ValidateTracking(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	if log == nil {
		log = logrus.StandardLogger()
	}

	var databricksConfig *databricks.Config

	if cfg.IsDatabricks() {
		databricksConfig = &databricks.Config{}

		if cfg.TrackingURI == "databricks" {
			if cfg.DatabricksHost != "" {
				databricksConfig.Host = cfg.DatabricksHost
			}
		} else if profile := cfg.DatabricksProfile(); profile != "" {
			databricksConfig.Profile = profile
		} else {
			databricksConfig.Host = cfg.TrackingURI
		}

		// Token overrides the profile.
		if cfg.DatabricksToken != "" {
			databricksConfig.Token = cfg.DatabricksToken
		}

		if databricksConfig.Host == "" && databricksConfig.Profile == "" {
			return nil, fmt.Errorf("databricks host or profile is required when tracking to Databricks: set DATABRICKS_HOST, use a full workspace URL, or use databricks://{profile}")
		}
	} else {
		// Self-hosted servers do not authenticate; the SDK still wants a credential.
		databricksConfig = &databricks.Config{
			Host:  cfg.TrackingURI,
			Token: "unused-token-for-self-hosted-mlflow",
		}
	}

	client, err := databricks.NewWorkspaceClient(databricksConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to create MLflow client: %w", err)
	}

	c := &Client{
		client:      client,
		experiments: client.Experiments,
		config:      cfg,
		httpClient:  &http.Client{Timeout: 60 * time.Second},
		log:         log,
	}

	if cfg.IsDatabricks() {
		apiClient, err := client.Config.NewApiClient()
		if err != nil {
			return nil, fmt.Errorf("failed to create Databricks API client: %w", err)
		}
		c.apiClient = apiClient
	}

	return c, nil
}
