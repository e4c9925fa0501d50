package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/oarbit/oarbit/internal/models"
	"github.com/oarbit/oarbit/internal/storage"
)

// HTTPClient implements DataSource by calling the Oarbit REST API.
// Used for remote MCP mode where the binary runs locally (stdio) but
// data lives on the remote server (accessed over Tailscale).
type HTTPClient struct {
	baseURL    string
	httpClient *http.Client
}

// Compile-time check: HTTPClient satisfies DataSource.
var _ DataSource = (*HTTPClient)(nil)

// NewHTTPClient creates an HTTPClient targeting the given base URL.
func NewHTTPClient(baseURL string) *HTTPClient {
	return &HTTPClient{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: 30 * time.Second},
	}
}

func (c *HTTPClient) get(ctx context.Context, path string, params url.Values) ([]byte, error) {
	u := c.baseURL + path
	if len(params) > 0 {
		u += "?" + params.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, fmt.Errorf("httpclient: create request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("httpclient: %s: %w", path, err)
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("httpclient: read body: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("httpclient: %s returned %d: %s", path, resp.StatusCode, body)
	}

	return body, nil
}

func timeParams(start, end time.Time) url.Values {
	v := url.Values{}
	v.Set("start", start.Format(time.RFC3339))
	v.Set("end", end.Format(time.RFC3339))
	return v
}

func (c *HTTPClient) QueryWorkouts(ctx context.Context, start, end time.Time, _ int, typeFilter string) ([]models.Workout, error) {
	params := timeParams(start, end)
	if typeFilter != "" {
		params.Set("type", typeFilter)
	}

	body, err := c.get(ctx, "/api/v1/workouts", params)
	if err != nil {
		return nil, err
	}

	var workouts []models.Workout
	if err := json.Unmarshal(body, &workouts); err != nil {
		return nil, fmt.Errorf("httpclient: decode workouts: %w", err)
	}
	return workouts, nil
}

func (c *HTTPClient) GetWorkout(ctx context.Context, workoutID uuid.UUID, _ int) (*models.Workout, error) {
	// The detail endpoint returns the workout fields flat, plus an
	// interval annotation this decode ignores.
	body, err := c.get(ctx, "/api/v1/workouts/"+workoutID.String(), nil)
	if err != nil {
		return nil, err
	}

	var w models.Workout
	if err := json.Unmarshal(body, &w); err != nil {
		return nil, fmt.Errorf("httpclient: decode workout: %w", err)
	}
	return &w, nil
}

func (c *HTTPClient) GetTrainingVolume(ctx context.Context, start, end time.Time, bucket string, _ int) ([]storage.VolumePeriod, error) {
	params := timeParams(start, end)
	if bucket != "" {
		params.Set("bucket", bucket)
	}

	body, err := c.get(ctx, "/api/v1/volume", params)
	if err != nil {
		return nil, err
	}

	var periods []storage.VolumePeriod
	if err := json.Unmarshal(body, &periods); err != nil {
		return nil, fmt.Errorf("httpclient: decode volume: %w", err)
	}
	return periods, nil
}
