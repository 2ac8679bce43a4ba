// File: internal/source/api.go
package source

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	jsoniter "github.com/json-iterator/go"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/xkilldash9x/patchreport/api/schemas"
	"github.com/xkilldash9x/patchreport/internal/config"
	"github.com/xkilldash9x/patchreport/internal/network"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// maxErrorBody caps how much of a failed response is quoted in errors.
const maxErrorBody = 512

// APIClient talks to the update server's administrative REST API.
//
//	GET /api/v1/groups                    -> []Group
//	GET /api/v1/computers                 -> []MachineIdentity
//	GET /api/v1/groups/{id}/computers     -> []MachineIdentity
//	GET /api/v1/computers/{id}/updates    -> []UpdateRecord
type APIClient struct {
	baseURL string
	token   string
	client  *http.Client
	// limiter is nil when pacing is disabled.
	limiter *rate.Limiter
	logger  *zap.Logger
}

// NewAPIClient creates a client for the server described by cfg.
func NewAPIClient(cfg config.SourceConfig, logger *zap.Logger) *APIClient {
	clientCfg := network.NewDefaultClientConfig()
	clientCfg.IgnoreTLSErrors = cfg.InsecureSkipVerify
	if cfg.Timeout > 0 {
		clientCfg.RequestTimeout = cfg.Timeout
	}
	clientCfg.Logger = logger

	return newAPIClient(cfg.BaseURL(), cfg.Token, cfg.RequestsPerSecond, network.NewClient(clientCfg), logger)
}

func newAPIClient(baseURL, token string, rps float64, client *http.Client, logger *zap.Logger) *APIClient {
	c := &APIClient{
		baseURL: baseURL,
		token:   token,
		client:  client,
		logger:  logger.Named("source_api"),
	}
	if rps > 0 {
		c.limiter = rate.NewLimiter(rate.Limit(rps), 1)
	}
	return c
}

// ListGroups returns every computer group on the server.
func (c *APIClient) ListGroups(ctx context.Context) ([]schemas.Group, error) {
	var groups []schemas.Group
	if err := c.getJSON(ctx, "/api/v1/groups", &groups); err != nil {
		return nil, err
	}
	return groups, nil
}

// ListMachines returns the machines in scope. A named scope is resolved
// against the group list first so an unknown name fails before any machine
// data is collected.
func (c *APIClient) ListMachines(ctx context.Context, scope string) ([]schemas.MachineIdentity, error) {
	path := "/api/v1/computers"
	if scope != "" {
		groups, err := c.ListGroups(ctx)
		if err != nil {
			return nil, err
		}
		group, ok := findGroup(groups, scope)
		if !ok {
			return nil, fmt.Errorf("%w: no computer group named %q", schemas.ErrScopeNotFound, scope)
		}
		path = "/api/v1/groups/" + url.PathEscape(group.ID) + "/computers"
	}

	var machines []schemas.MachineIdentity
	if err := c.getJSON(ctx, path, &machines); err != nil {
		return nil, err
	}
	c.logger.Debug("Listed machines", zap.String("scope", scope), zap.Int("count", len(machines)))
	return machines, nil
}

// GetUpdateStates returns the raw per-update states of one machine.
func (c *APIClient) GetUpdateStates(ctx context.Context, machineID string) ([]schemas.UpdateRecord, error) {
	var records []schemas.UpdateRecord
	path := "/api/v1/computers/" + url.PathEscape(machineID) + "/updates"
	if err := c.getJSON(ctx, path, &records); err != nil {
		return nil, err
	}
	return records, nil
}

// getJSON performs a paced GET and decodes the body into out. Every failure
// is reported as ErrSourceUnavailable.
func (c *APIClient) getJSON(ctx context.Context, path string, out any) error {
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return fmt.Errorf("%w: %s: %v", schemas.ErrSourceUnavailable, path, err)
		}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return fmt.Errorf("%w: building request for %s: %v", schemas.ErrSourceUnavailable, path, err)
	}
	req.Header.Set("Accept", "application/json")
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	start := time.Now()
	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("%w: GET %s: %v", schemas.ErrSourceUnavailable, path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return fmt.Errorf("%w: GET %s: status %d: %s", schemas.ErrSourceUnavailable, path, resp.StatusCode, body)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("%w: decoding %s: %v", schemas.ErrSourceUnavailable, path, err)
	}

	c.logger.Debug("Source request completed", zap.String("path", path), zap.Duration("duration", time.Since(start)))
	return nil
}
