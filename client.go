// Package uploader provides client initialization and configuration.
//
// The Client composes the credential source, the two direct transports, and
// the backend relay behind a single upload entry point with configurable
// thresholds and injectable collaborators.
package uploader

import (
	"net/http"
	"strings"

	"github.com/input-output-hk/catalyst-forge-libs/fs"
	"github.com/input-output-hk/catalyst-forge-libs/fs/billy"

	"github.com/perimeter-studio/uploader/errors"
	"github.com/perimeter-studio/uploader/internal/credential"
	"github.com/perimeter-studio/uploader/internal/transport"
	"github.com/perimeter-studio/uploader/uptypes"
)

// Backend endpoint paths, relative to the base URL.
const (
	credentialPath = "/api/s3/presigned-url/"
	relayPath      = "/api/upload/"
	proxyPath      = "/api/s3/proxy/"
	projectsPath   = "/api/projects/"
)

// Client orchestrates uploads against a backend and its object store.
// It holds no per-upload state; any number of uploads may run concurrently.
type Client struct {
	// baseURL is the backend base URL
	baseURL string

	// httpClient is used for every network call
	httpClient *http.Client

	// tokens supplies bearer tokens for backend calls
	tokens uptypes.TokenProvider

	// creds issues presigned credentials for direct uploads
	creds uptypes.CredentialSource

	// proxied and raw are the ordered direct transports
	proxied transport.Transport
	raw     transport.Transport

	// relay is the backend relay path for small files
	relay *transport.Relay

	// fs is the filesystem abstraction for file operations
	fs fs.Filesystem

	// relayThreshold and proxyCeiling are the strategy size boundaries
	relayThreshold int64
	proxyCeiling   int64

	// concurrency bounds batch gallery uploads
	concurrency int
}

// New creates a new uploader client for the given backend base URL.
//
// Example:
//
//	client, err := uploader.New("https://backend.example",
//	    uploader.WithTokenProvider(uptypes.StaticToken(token)),
//	    uploader.WithRelayThreshold(512*1024),
//	)
func New(baseURL string, opts ...uptypes.Option) (*Client, error) {
	if baseURL == "" {
		return nil, errors.NewError("client initialization", errors.ErrInvalidInput).
			WithMessage("base URL cannot be empty")
	}
	baseURL = strings.TrimSuffix(baseURL, "/")

	cfg := &uptypes.ClientConfig{
		RelayThreshold: DefaultRelayThreshold,
		ProxyCeiling:   DefaultProxyCeiling,
		Concurrency:    4,
	}
	for _, opt := range opts {
		opt(cfg)
	}

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{}
	}

	// Default to the backend credential endpoint; the presign package can
	// substitute a local source.
	creds := cfg.CredentialSource
	if creds == nil {
		creds = credential.New(httpClient, baseURL+credentialPath, cfg.TokenProvider)
	}

	proxyURL := cfg.ProxyURL
	if proxyURL == "" {
		proxyURL = baseURL + proxyPath
	}

	filesystem := cfg.Filesystem
	if filesystem == nil {
		filesystem = billy.NewOSFS("/")
	}

	return &Client{
		baseURL:    baseURL,
		httpClient: httpClient,
		tokens:     cfg.TokenProvider,
		creds:      creds,
		proxied:    &transport.Proxied{Client: httpClient, ProxyURL: proxyURL},
		raw:        &transport.Raw{Client: httpClient},
		relay: &transport.Relay{
			Client:       httpClient,
			Endpoint:     baseURL + relayPath,
			Tokens:       cfg.TokenProvider,
			TickInterval: cfg.RelayTickInterval,
		},
		fs:             filesystem,
		relayThreshold: cfg.RelayThreshold,
		proxyCeiling:   cfg.ProxyCeiling,
		concurrency:    cfg.Concurrency,
	}, nil
}
