package probe

import (
	"context"
	"io"
	"net"
	"net/http"

	"github.com/ezenkico/deploy-commander/stagehand/pkg/logging"
)

// Readiness builds a readiness check for endpoint. A tcp endpoint without a
// path is ready once it accepts connections; every other endpoint is ready
// when a GET on path answers with a 2xx status.
func Readiness(endpoint string, path string) (func(context.Context) bool, error) {
	e, err := ParseEndpoint(endpoint)
	if err != nil {
		return nil, err
	}

	if e.Type == TypeTCP && path == "" {
		return dialCheck(e.HostPort), nil
	}
	return httpCheck(e.Client(probeTimeout), e.URL(path)), nil
}

func dialCheck(hostPort string) func(context.Context) bool {
	dialer := &net.Dialer{Timeout: defaultDialTimeout}
	return func(ctx context.Context) bool {
		conn, err := dialer.DialContext(ctx, "tcp", hostPort)
		if err != nil {
			logging.Debug("Probe", "Dial %s: %v", hostPort, err)
			return false
		}
		_ = conn.Close()
		return true
	}
}

func httpCheck(client *http.Client, target string) func(context.Context) bool {
	return func(ctx context.Context) bool {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
		if err != nil {
			return false
		}
		resp, err := client.Do(req)
		if err != nil {
			logging.Debug("Probe", "GET %s: %v", target, err)
			return false
		}
		defer resp.Body.Close()
		_, _ = io.Copy(io.Discard, resp.Body)

		return resp.StatusCode >= 200 && resp.StatusCode < 300
	}
}
