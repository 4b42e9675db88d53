package probe

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/ezenkico/deploy-commander/stagehand/pkg/logging"
)

// InitRequest describes the one-time HTTP call made once a service is ready.
type InitRequest struct {
	Endpoint string
	Method   string
	Path     string
	Body     string
	Headers  map[string]string
}

// Init builds a post-start hook sending r. Any non-2xx answer is an error.
func Init(r InitRequest) (func(context.Context) error, error) {
	e, err := ParseEndpoint(r.Endpoint)
	if err != nil {
		return nil, err
	}

	method := strings.ToUpper(strings.TrimSpace(r.Method))
	if method == "" {
		method = http.MethodPost
	}
	client := e.Client(initTimeout)
	target := e.URL(r.Path)

	return func(ctx context.Context) error {
		var body io.Reader
		if r.Body != "" {
			body = strings.NewReader(r.Body)
		}

		req, err := http.NewRequestWithContext(ctx, method, target, body)
		if err != nil {
			return err
		}
		for k, v := range r.Headers {
			req.Header.Set(k, v)
		}
		if r.Body != "" && req.Header.Get("Content-Type") == "" {
			req.Header.Set("Content-Type", "application/json")
		}

		resp, err := client.Do(req)
		if err != nil {
			return fmt.Errorf("init %s %s: %w", method, target, err)
		}
		defer resp.Body.Close()

		if resp.StatusCode < 200 || resp.StatusCode >= 300 {
			rb, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
			return fmt.Errorf("init %s %s failed (%d): %s", method, target, resp.StatusCode, strings.TrimSpace(string(rb)))
		}

		logging.Debug("Probe", "Init %s %s answered %d", method, target, resp.StatusCode)
		return nil
	}, nil
}
