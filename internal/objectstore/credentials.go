package objectstore

import (
	"fmt"
	"strings"

	"github.com/koustreak/featurerepo/internal/errs"
)

// Provider identifies the client library behind a FileSystem.
type Provider string

const (
	ProviderMinIO Provider = "minio"
	ProviderS3    Provider = "s3"
)

// DefaultRegion is used for request signing when none is configured.
// MinIO ignores it; S3 clients refuse to sign without one.
const DefaultRegion = "us-east-1"

// Credentials binds authentication material to an object-store endpoint.
// It is immutable once built and safe to share between goroutines.
type Credentials struct {
	accessKey string
	secretKey string
	endpoint  *Endpoint
	useTLS    bool

	provider  Provider
	region    string
	pathStyle bool
}

// CredentialOption customises optional Credentials settings.
type CredentialOption func(*Credentials)

// WithProvider selects the client library. Defaults to ProviderMinIO.
func WithProvider(p Provider) CredentialOption {
	return func(c *Credentials) {
		if p != "" {
			c.provider = p
		}
	}
}

// WithRegion sets the signing region. Defaults to DefaultRegion.
func WithRegion(region string) CredentialOption {
	return func(c *Credentials) {
		if region != "" {
			c.region = region
		}
	}
}

// WithPathStyle forces path-style bucket addressing (ProviderS3 only;
// minio-go detects it from the endpoint).
func WithPathStyle(on bool) CredentialOption {
	return func(c *Credentials) {
		c.pathStyle = on
	}
}

// NewCredentials validates and freezes the binding. No network I/O happens here.
//
// The TLS flag and the endpoint scheme are independent: useTLS=true with an
// http:// endpoint is accepted and the transport follows useTLS.
func NewCredentials(accessKey, secretKey, endpointURL string, useTLS bool, opts ...CredentialOption) (*Credentials, error) {
	if strings.TrimSpace(accessKey) == "" {
		return nil, errs.Field(errs.ErrKindCredential, "access_key", "must not be empty")
	}
	if strings.TrimSpace(secretKey) == "" {
		return nil, errs.Field(errs.ErrKindCredential, "secret_key", "must not be empty")
	}

	ep, err := ParseEndpoint("endpoint_url", endpointURL)
	if err != nil {
		return nil, err
	}

	c := &Credentials{
		accessKey: accessKey,
		secretKey: secretKey,
		endpoint:  ep,
		useTLS:    useTLS,
		provider:  ProviderMinIO,
		region:    DefaultRegion,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

func (c *Credentials) AccessKey() string   { return c.accessKey }
func (c *Credentials) SecretKey() string   { return c.secretKey }
func (c *Credentials) Endpoint() *Endpoint { return c.endpoint }
func (c *Credentials) UseTLS() bool        { return c.useTLS }
func (c *Credentials) Provider() Provider  { return c.provider }
func (c *Credentials) Region() string      { return c.region }
func (c *Credentials) PathStyle() bool     { return c.pathStyle }

// TransportScheme is the scheme requests actually use, derived from UseTLS.
func (c *Credentials) TransportScheme() string {
	if c.useTLS {
		return "https"
	}
	return "http"
}

// String redacts the secret key.
func (c *Credentials) String() string {
	return fmt.Sprintf("Credentials{provider=%s endpoint=%s access_key=%s secret_key=REDACTED use_tls=%t region=%s}",
		c.provider, c.endpoint, c.accessKey, c.useTLS, c.region)
}

// GoString keeps %#v from printing the secret.
func (c *Credentials) GoString() string {
	return c.String()
}
