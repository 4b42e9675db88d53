package probe

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"
)

const (
	TypeTCP  = "tcp"
	TypeUnix = "unix"
	TypeHTTP = "http"
)

const (
	defaultDialTimeout = 2 * time.Second
	probeTimeout       = 5 * time.Second
	initTimeout        = 60 * time.Second
)

// Endpoint is a parsed service address. Supported forms:
//
//	tcp://localhost:5432
//	unix:///var/run/service.sock
//	http://localhost:8080/health
type Endpoint struct {
	Raw  string
	Type string

	SocketPath string
	HostPort   string
	BaseURL    string
	Path       string
}

func ParseEndpoint(raw string) (*Endpoint, error) {
	u, err := url.Parse(strings.TrimSpace(raw))
	if err != nil {
		return nil, fmt.Errorf("invalid endpoint %q: %w", raw, err)
	}

	e := &Endpoint{Raw: raw}

	switch strings.ToLower(u.Scheme) {
	case "unix":
		// url.Parse treats unix:///path as Path="/path"
		if u.Path == "" {
			return nil, fmt.Errorf("unix endpoint missing socket path: %q", raw)
		}
		e.Type = TypeUnix
		e.SocketPath = u.Path

		// The transport ignores the host, but net/http requires a valid URL.
		e.BaseURL = "http://unix"

	case "tcp":
		if u.Host == "" {
			return nil, fmt.Errorf("tcp endpoint missing host:port: %q", raw)
		}
		e.Type = TypeTCP
		e.HostPort = u.Host
		e.BaseURL = "http://" + u.Host

	case "http", "https":
		if u.Host == "" {
			return nil, fmt.Errorf("http endpoint missing host: %q", raw)
		}
		e.Type = TypeHTTP
		e.HostPort = u.Host
		e.BaseURL = strings.ToLower(u.Scheme) + "://" + u.Host
		e.Path = strings.TrimSuffix(u.Path, "/")

	default:
		return nil, fmt.Errorf("unsupported endpoint scheme %q (use tcp://, unix:// or http://)", u.Scheme)
	}

	return e, nil
}

// Client returns an *http.Client that talks to the endpoint, dialing the
// socket path for unix endpoints.
func (e *Endpoint) Client(timeout time.Duration) *http.Client {
	if e.Type != TypeUnix {
		return &http.Client{Timeout: timeout}
	}

	dialer := &net.Dialer{Timeout: defaultDialTimeout}
	tr := &http.Transport{
		// ignore the addr and always dial the unix socket path
		DialContext: func(ctx context.Context, _, _ string) (net.Conn, error) {
			return dialer.DialContext(ctx, "unix", e.SocketPath)
		},
	}
	return &http.Client{
		Transport: tr,
		Timeout:   timeout,
	}
}

// URL joins the endpoint's base path with path.
func (e *Endpoint) URL(path string) string {
	p := e.Path
	if path != "" {
		if !strings.HasPrefix(path, "/") {
			path = "/" + path
		}
		p += path
	}
	return e.BaseURL + p
}
