// Package uploader provides functional options for configuring client and
// upload behavior. These options follow the functional options pattern for
// clean, composable configuration.
package uploader

import (
	"net/http"
	"time"

	"github.com/input-output-hk/catalyst-forge-libs/fs"

	"github.com/perimeter-studio/uploader/uptypes"
)

// WithHTTPClient allows providing a custom HTTP client.
// This gives full control over HTTP behavior including timeouts and proxies.
func WithHTTPClient(client *http.Client) uptypes.Option {
	return func(c *uptypes.ClientConfig) {
		c.HTTPClient = client
	}
}

// WithTokenProvider sets the bearer-token source for backend calls.
// Without one, credential requests and relay uploads fail with an
// authentication error.
func WithTokenProvider(tokens uptypes.TokenProvider) uptypes.Option {
	return func(c *uptypes.ClientConfig) {
		c.TokenProvider = tokens
	}
}

// WithCredentialSource replaces the backend credential client with a custom
// source, such as the presign package's local signer.
func WithCredentialSource(source uptypes.CredentialSource) uptypes.Option {
	return func(c *uptypes.ClientConfig) {
		c.CredentialSource = source
	}
}

// WithProxyEndpoint sets the CORS-relaxing proxy endpoint used by the
// proxied transport. Defaults to the backend's proxy path.
func WithProxyEndpoint(proxyURL string) uptypes.Option {
	return func(c *uptypes.ClientConfig) {
		c.ProxyURL = proxyURL
	}
}

// WithRelayThreshold sets the size boundary for strategy selection.
// Default is 300 KiB. Files at or below the threshold relay through the
// backend.
func WithRelayThreshold(threshold int64) uptypes.Option {
	return func(c *uptypes.ClientConfig) {
		if threshold > 0 {
			c.RelayThreshold = threshold
		}
	}
}

// WithProxyCeiling sets the largest file the proxied transport will attempt.
// Default is 50 MiB. Larger files go straight to the raw transport.
func WithProxyCeiling(ceiling int64) uptypes.Option {
	return func(c *uptypes.ClientConfig) {
		if ceiling > 0 {
			c.ProxyCeiling = ceiling
		}
	}
}

// WithConcurrency sets the maximum number of concurrent uploads for batch
// gallery operations. Default is 4.
func WithConcurrency(concurrency int) uptypes.Option {
	return func(c *uptypes.ClientConfig) {
		if concurrency > 0 {
			c.Concurrency = concurrency
		}
	}
}

// WithFilesystem sets a custom filesystem implementation for file operations.
// This allows using in-memory filesystems for testing.
// If not specified, defaults to the OS filesystem.
func WithFilesystem(filesystem fs.Filesystem) uptypes.Option {
	return func(c *uptypes.ClientConfig) {
		c.Filesystem = filesystem
	}
}

// WithRelayTickInterval sets how often the relay path's simulated progress
// advances while a request is in flight.
func WithRelayTickInterval(interval time.Duration) uptypes.Option {
	return func(c *uptypes.ClientConfig) {
		if interval > 0 {
			c.RelayTickInterval = interval
		}
	}
}

// WithFolder sets the destination folder for an upload.
func WithFolder(folder string) uptypes.UploadOption {
	return func(c *uptypes.UploadOptionConfig) {
		c.Folder = folder
	}
}

// WithContentType sets the content type for an upload, skipping detection.
func WithContentType(contentType string) uptypes.UploadOption {
	return func(c *uptypes.UploadOptionConfig) {
		c.ContentType = contentType
	}
}

// WithProgress sets a progress tracker for an upload.
func WithProgress(tracker uptypes.ProgressTracker) uptypes.UploadOption {
	return func(c *uptypes.UploadOptionConfig) {
		c.ProgressTracker = tracker
	}
}

// WithMaxSize sets a pre-transfer size limit. Files above it fail fast
// before any network call.
func WithMaxSize(maxSize int64) uptypes.UploadOption {
	return func(c *uptypes.UploadOptionConfig) {
		if maxSize > 0 {
			c.MaxSize = maxSize
		}
	}
}

// WithStrategy overrides strategy selection for an upload. A relay override
// is ignored when the file exceeds the relay threshold, so a large file
// cannot be pushed down the slower relay path.
func WithStrategy(strategy uptypes.Strategy) uptypes.UploadOption {
	return func(c *uptypes.UploadOptionConfig) {
		c.Strategy = strategy
	}
}

// WithCaption attaches a caption metadata field to a relay upload.
func WithCaption(caption string) uptypes.UploadOption {
	return func(c *uptypes.UploadOptionConfig) {
		c.Caption = caption
	}
}

// WithPrimary marks a relay upload's metadata as the record's primary image.
func WithPrimary(isPrimary bool) uptypes.UploadOption {
	return func(c *uptypes.UploadOptionConfig) {
		c.IsPrimary = isPrimary
	}
}
