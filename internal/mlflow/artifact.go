package mlflow

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/databricks/databricks-sdk-go/httpclient"
	"github.com/databricks/databricks-sdk-go/service/ml"
	"github.com/sirupsen/logrus"
)

type credentialsForWriteRequest struct {
	RunID string   `json:"run_id"`
	Path  []string `json:"path"`
}

type credentialsForWriteResponse struct {
	CredentialInfos []ArtifactCredentialInfo `json:"credential_infos"`
}

// ArtifactCredentialInfo is a signed upload target issued by Databricks.
type ArtifactCredentialInfo struct {
	RunID     string       `json:"run_id"`
	Path      string       `json:"path"`
	SignedURI string       `json:"signed_uri"`
	Headers   []HTTPHeader `json:"headers"`
	Type      string       `json:"type"`
}

type HTTPHeader struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

// UploadArtifact stores content under artifactPath in the run's artifact root.
func (c *Client) UploadArtifact(ctx context.Context, runID, artifactPath string, content []byte) error {
	artifactURI, err := c.artifactURI(ctx, runID)
	if err != nil {
		return fmt.Errorf("failed to get artifact URI: %w", err)
	}

	c.log.WithFields(logrus.Fields{
		"run_id":        runID,
		"artifact_path": artifactPath,
		"bytes":         len(content),
	}).Debug("Uploading artifact")

	return c.uploadToStorage(ctx, artifactURI, artifactPath, content)
}

func (c *Client) artifactURI(ctx context.Context, runID string) (string, error) {
	if c.experiments != nil {
		resp, err := c.experiments.GetRun(ctx, ml.GetRunRequest{RunId: runID})
		if err != nil {
			return "", fmt.Errorf("failed to get run: %w", err)
		}
		if resp.Run.Info.ArtifactUri == "" {
			return "", fmt.Errorf("artifact URI not found for run %s", runID)
		}
		return resp.Run.Info.ArtifactUri, nil
	}

	return c.artifactURIFromHTTP(ctx, runID)
}

func (c *Client) artifactURIFromHTTP(ctx context.Context, runID string) (string, error) {
	url := fmt.Sprintf("%s/api/2.0/mlflow/runs/get?run_id=%s", strings.TrimSuffix(c.config.TrackingURI, "/"), runID)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return "", fmt.Errorf("get run request failed with status %d: %s", resp.StatusCode, string(body))
	}

	var runResponse struct {
		Run struct {
			Info struct {
				ArtifactURI string `json:"artifact_uri"`
			} `json:"info"`
		} `json:"run"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&runResponse); err != nil {
		return "", fmt.Errorf("failed to decode response: %w", err)
	}
	if runResponse.Run.Info.ArtifactURI == "" {
		return "", fmt.Errorf("artifact URI not found for run %s", runID)
	}
	return runResponse.Run.Info.ArtifactURI, nil
}

func (c *Client) uploadToStorage(ctx context.Context, artifactURI, artifactPath string, content []byte) error {
	switch {
	case strings.HasPrefix(artifactURI, "mlflow-artifacts:/"):
		return c.uploadToMLflowArtifacts(ctx, artifactURI, artifactPath, content)
	case strings.HasPrefix(artifactURI, "dbfs:/"):
		return c.uploadToDBFS(ctx, artifactURI, artifactPath, content)
	case strings.HasPrefix(artifactURI, "file://"), strings.HasPrefix(artifactURI, "/"):
		return uploadToLocalFS(artifactURI, artifactPath, content)
	default:
		return fmt.Errorf("unsupported artifact URI scheme: %s", artifactURI)
	}
}

// uploadToMLflowArtifacts PUTs to the tracking server's artifact proxy.
func (c *Client) uploadToMLflowArtifacts(ctx context.Context, artifactURI, artifactPath string, content []byte) error {
	experimentID, runID, err := extractIDsFromArtifactURI(artifactURI)
	if err != nil {
		return fmt.Errorf("failed to extract IDs from artifact URI: %w", err)
	}

	baseURL := strings.TrimSuffix(c.config.TrackingURI, "/")
	url := fmt.Sprintf("%s/api/2.0/mlflow-artifacts/artifacts/%s/%s/artifacts/%s", baseURL, experimentID, runID, artifactPath)

	req, err := http.NewRequestWithContext(ctx, http.MethodPut, url, bytes.NewReader(content))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/octet-stream")
	c.addAuthHeaders(req)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to upload to MLflow Artifacts Service: %w", err)
	}
	defer resp.Body.Close()

	if !isSuccessStatusCode(resp.StatusCode) {
		body, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("MLflow Artifacts Service upload failed with status %d: %s", resp.StatusCode, string(body))
	}
	return nil
}

func uploadToLocalFS(artifactURI, artifactPath string, content []byte) error {
	localPath := filepath.Join(strings.TrimPrefix(artifactURI, "file://"), filepath.FromSlash(artifactPath))

	dir := filepath.Dir(localPath)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create directory %s: %w", dir, err)
	}
	if err := os.WriteFile(localPath, content, 0o644); err != nil {
		return fmt.Errorf("failed to write artifact %s: %w", localPath, err)
	}
	return nil
}

// extractIDsFromArtifactURI splits mlflow-artifacts:/<experiment>/<run>/artifacts.
func extractIDsFromArtifactURI(artifactURI string) (string, string, error) {
	path := strings.TrimPrefix(strings.TrimPrefix(artifactURI, "mlflow-artifacts:"), "/")
	parts := strings.Split(path, "/")
	if len(parts) < 3 || parts[0] == "" || parts[1] == "" {
		return "", "", fmt.Errorf("invalid mlflow-artifacts URI format: %s", artifactURI)
	}
	return parts[0], parts[1], nil
}

func (c *Client) addAuthHeaders(req *http.Request) {
	if !c.config.IsDatabricks() {
		return
	}
	if c.client != nil && c.client.Config != nil && c.client.Config.Token != "" {
		req.Header.Set("Authorization", "Bearer "+c.client.Config.Token)
	} else if c.config.DatabricksToken != "" {
		req.Header.Set("Authorization", "Bearer "+c.config.DatabricksToken)
	}
}

// uploadToDBFS asks Databricks for a signed URI and uploads to it.
func (c *Client) uploadToDBFS(ctx context.Context, artifactURI, artifactPath string, content []byte) error {
	runID, err := extractRunIDFromDBFSURI(artifactURI)
	if err != nil {
		return fmt.Errorf("failed to extract run ID from DBFS URI: %w", err)
	}

	credentials, err := c.credentialsForWrite(ctx, runID, []string{artifactPath})
	if err != nil {
		return fmt.Errorf("failed to get write credentials: %w", err)
	}
	if len(credentials) == 0 {
		return fmt.Errorf("no credentials returned for path: %s", artifactPath)
	}

	req, err := signedURIRequest(ctx, credentials[0], content)
	if err != nil {
		return err
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to upload to %s signed URI: %w", credentials[0].Type, err)
	}
	defer resp.Body.Close()

	if !isSuccessStatusCode(resp.StatusCode) {
		body, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("signed URI upload failed with status %d: %s", resp.StatusCode, string(body))
	}
	return nil
}

// extractRunIDFromDBFSURI reads dbfs:/databricks/mlflow-tracking/<experiment>/<run>/artifacts.
func extractRunIDFromDBFSURI(artifactURI string) (string, error) {
	const prefix = "dbfs:/databricks/mlflow-tracking/"
	if !strings.HasPrefix(artifactURI, prefix) {
		return "", fmt.Errorf("invalid DBFS artifact URI format: %s", artifactURI)
	}

	parts := strings.Split(strings.TrimPrefix(artifactURI, prefix), "/")
	if len(parts) < 2 || parts[1] == "" {
		return "", fmt.Errorf("run ID not found in DBFS URI: %s", artifactURI)
	}
	return parts[1], nil
}

func (c *Client) credentialsForWrite(ctx context.Context, runID string, paths []string) ([]ArtifactCredentialInfo, error) {
	if c.apiClient == nil {
		return nil, fmt.Errorf("DBFS artifacts require a Databricks tracking URI")
	}

	var response credentialsForWriteResponse
	err := c.apiClient.Do(ctx, http.MethodPost, "/api/2.0/mlflow/artifacts/credentials-for-write",
		httpclient.WithRequestData(credentialsForWriteRequest{RunID: runID, Path: paths}),
		httpclient.WithResponseUnmarshal(&response),
	)
	if err != nil {
		return nil, fmt.Errorf("credentials-for-write request failed: %w", err)
	}
	return response.CredentialInfos, nil
}

func signedURIRequest(ctx context.Context, credential ArtifactCredentialInfo, content []byte) (*http.Request, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPut, credential.SignedURI, bytes.NewReader(content))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	// Some stores reject chunked uploads.
	req.ContentLength = int64(len(content))
	req.Header.Set("Content-Type", "application/octet-stream")

	if credential.Type == "AZURE_SAS_URI" {
		req.Header.Set("x-ms-blob-type", "BlockBlob")
	}
	for _, header := range credential.Headers {
		req.Header.Set(header.Name, header.Value)
	}
	return req, nil
}

func isSuccessStatusCode(statusCode int) bool {
	return statusCode >= 200 && statusCode < 300
}
