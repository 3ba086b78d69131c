package objectstore

import (
	"errors"
	"net"
	"net/url"
	"strings"

	"github.com/koustreak/featurerepo/internal/errs"
)

// Endpoint is a parsed object-store endpoint URL such as
// "http://minio.kubeflow:9000". It is immutable.
type Endpoint struct {
	raw    string
	scheme string
	host   string // hostname without brackets or port
	port   string // explicit port, empty when omitted
}

// ParseEndpoint parses raw as an http or https URL with a host and no path.
// Failures are endpoint errors attributed to field.
func ParseEndpoint(field, raw string) (*Endpoint, error) {
	ep, err := parseEndpoint(raw)
	if err != nil {
		return nil, errs.WrapField(errs.ErrKindEndpoint, field, "invalid endpoint URL "+quote(raw), err)
	}
	return ep, nil
}

func parseEndpoint(raw string) (*Endpoint, error) {
	if strings.TrimSpace(raw) == "" {
		return nil, errors.New("must not be empty")
	}
	u, err := url.Parse(raw)
	if err != nil {
		return nil, err
	}
	switch u.Scheme {
	case "http", "https":
	case "":
		return nil, errors.New("missing scheme (expected http:// or https://)")
	default:
		return nil, errors.New("unsupported scheme " + quote(u.Scheme))
	}
	if u.Hostname() == "" {
		return nil, errors.New("missing host")
	}
	if u.User != nil {
		return nil, errors.New("credentials must not be embedded in the endpoint")
	}
	if u.Path != "" && u.Path != "/" {
		return nil, errors.New("endpoint must not contain a path")
	}
	if u.RawQuery != "" || u.Fragment != "" {
		return nil, errors.New("endpoint must not contain a query or fragment")
	}

	return &Endpoint{
		raw:    raw,
		scheme: u.Scheme,
		host:   strings.ToLower(u.Hostname()),
		port:   u.Port(),
	}, nil
}

// String returns the endpoint exactly as configured.
func (e *Endpoint) String() string {
	return e.raw
}

// Scheme returns "http" or "https".
func (e *Endpoint) Scheme() string {
	return e.scheme
}

// Host returns host[:port] as configured, the form minio-go expects.
func (e *Endpoint) Host() string {
	if e.port == "" {
		return hostLiteral(e.host)
	}
	return net.JoinHostPort(e.host, e.port)
}

// WithScheme returns the endpoint URL rebuilt with the given scheme.
// The transport scheme follows the TLS flag, not the configured URL.
func (e *Endpoint) WithScheme(scheme string) string {
	return scheme + "://" + e.Host()
}

// Canonical returns scheme://host:port with the default port filled in.
func (e *Endpoint) Canonical() string {
	port := e.port
	if port == "" {
		port = "80"
		if e.scheme == "https" {
			port = "443"
		}
	}
	return e.scheme + "://" + net.JoinHostPort(e.host, port)
}

// SameAs reports whether both endpoints address the same store.
func (e *Endpoint) SameAs(other *Endpoint) bool {
	if e == nil || other == nil {
		return e == other
	}
	return e.Canonical() == other.Canonical()
}

func hostLiteral(host string) string {
	if strings.Contains(host, ":") {
		return "[" + host + "]"
	}
	return host
}

func quote(s string) string {
	return "\"" + s + "\""
}
