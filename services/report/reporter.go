package report

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/ezenkico/deploy-commander/stagehand/services/probe"
)

const (
	EnvEndpoint = "STAGEHAND_REPORT_ENDPOINT"
	EnvToken    = "STAGEHAND_REPORT_TOKEN"
)

const requestTimeout = 30 * time.Second

// Reporter posts run outcomes to a control endpoint over tcp or a unix socket.
type Reporter struct {
	endpoint *probe.Endpoint
	token    string // bearer token
}

// NewReporterFromEnv builds a reporter for endpoint, falling back to
// STAGEHAND_REPORT_ENDPOINT. It returns nil without error when neither is set.
func NewReporterFromEnv(endpoint string) (*Reporter, error) {
	endpoint = strings.TrimSpace(endpoint)
	if endpoint == "" {
		endpoint = strings.TrimSpace(os.Getenv(EnvEndpoint))
	}
	if endpoint == "" {
		return nil, nil
	}

	token := strings.TrimSpace(os.Getenv(EnvToken))
	if token == "" {
		return nil, errors.New(EnvToken + " is not set")
	}

	return NewReporter(endpoint, token)
}

func NewReporter(endpoint string, token string) (*Reporter, error) {
	e, err := probe.ParseEndpoint(endpoint)
	if err != nil {
		return nil, fmt.Errorf("invalid report endpoint: %w", err)
	}
	return &Reporter{endpoint: e, token: token}, nil
}

func (r *Reporter) newRequest(
	ctx context.Context,
	method string,
	path string,
	body io.Reader,
) (*http.Request, error) {

	req, err := http.NewRequestWithContext(ctx, method, r.endpoint.URL(path), body)
	if err != nil {
		return nil, err
	}

	req.Header.Set("Authorization", "Bearer "+r.token)
	req.Header.Set("Content-Type", "application/json")

	return req, nil
}
