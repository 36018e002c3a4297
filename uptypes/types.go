// Package uptypes provides shared type definitions for the uploader module.
package uptypes

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/input-output-hk/catalyst-forge-libs/fs"
)

// Strategy represents the transport strategy for an upload.
type Strategy string

// Predefined transport strategies
const (
	// StrategyDirect transfers bytes straight to the object store using a
	// presigned URL
	StrategyDirect Strategy = "direct"

	// StrategyRelay sends bytes to the application backend, which performs
	// the object-store write on the client's behalf
	StrategyRelay Strategy = "relay"
)

// UploadRequest describes a single file to be uploaded.
// It is immutable and created per call.
type UploadRequest struct {
	// FileName is the name the object will be stored under
	FileName string

	// ContentType is the MIME type of the file
	ContentType string

	// Size is the file size in bytes
	Size int64

	// Folder is the optional destination folder (object key prefix)
	Folder string
}

// Credential is a short-lived upload credential issued for exactly one file.
// It is single-use and time-bounded: never reused across files, but the same
// credential may serve both transport attempts for the same file.
type Credential struct {
	// PresignedURL authorizes a single PUT to the object store
	PresignedURL string

	// PublicURL is where the object will be readable after the upload
	PublicURL string
}

// TokenProvider supplies the bearer token used to authenticate against the
// backend. The token store is externally owned; the uploader treats it as
// read-only input per call.
type TokenProvider interface {
	// Token returns the current bearer token, or an error if none is available
	Token(ctx context.Context) (string, error)
}

// TokenFunc adapts a function to the TokenProvider interface.
type TokenFunc func(ctx context.Context) (string, error)

// Token implements TokenProvider.
func (f TokenFunc) Token(ctx context.Context) (string, error) {
	return f(ctx)
}

// StaticToken returns a TokenProvider that always yields the given token.
func StaticToken(token string) TokenProvider {
	return TokenFunc(func(context.Context) (string, error) {
		return token, nil
	})
}

// CredentialSource issues upload credentials for direct uploads.
// The default implementation requests them from the backend; the presign
// package provides one that signs locally against AWS.
type CredentialSource interface {
	// Issue returns a fresh credential scoped to the requested object key
	Issue(ctx context.Context, req UploadRequest) (*Credential, error)
}

// ProgressTracker defines the interface for tracking transfer progress.
// Implementations can provide real-time progress updates during uploads.
//
// Within one transfer attempt updates are monotonically non-decreasing and
// end at the total on success. A fallback attempt starts over from zero.
type ProgressTracker interface {
	// Update is called periodically with transfer progress
	Update(bytesTransferred, totalBytes int64)

	// Complete is called when the transfer completes successfully
	Complete()

	// Error is called when the transfer fails
	Error(err error)
}

// UploadResult contains the result of an upload operation.
type UploadResult struct {
	// URL is the public URL of the uploaded object. For direct uploads this
	// is the credential's public URL verbatim; for relay uploads it is the
	// file_url returned by the backend.
	URL string

	// Strategy is the transport strategy that performed the upload
	Strategy Strategy

	// Size is the size of the uploaded object in bytes
	Size int64

	// Duration is how long the upload took
	Duration time.Duration
}

// GalleryImage describes metadata registered against a backend record after
// a successful storage write.
type GalleryImage struct {
	// SourceURL is the public URL of the already-uploaded object
	SourceURL string

	// Caption is an optional caption for the image
	Caption string

	// IsPrimary marks the image as the record's primary image
	IsPrimary bool
}

// GalleryRecord is a registered gallery image as known to the backend.
type GalleryRecord struct {
	ID        string `json:"id"`
	Image     string `json:"image"`
	Caption   string `json:"caption"`
	IsPrimary bool   `json:"is_primary"`
}

// GalleryUpload pairs a local file with the metadata to register for it.
type GalleryUpload struct {
	// Path is the local file path
	Path string

	// Caption is an optional caption for the image
	Caption string

	// IsPrimary marks the image as the record's primary image
	IsPrimary bool
}

// Configuration types for functional options

// ClientConfig holds configuration for the uploader client.
type ClientConfig struct {
	ProxyURL          string
	RelayThreshold    int64
	ProxyCeiling      int64
	Concurrency       int
	HTTPClient        *http.Client
	TokenProvider     TokenProvider
	CredentialSource  CredentialSource
	Filesystem        fs.Filesystem // Filesystem abstraction for file operations
	RelayTickInterval time.Duration
}

// UploadOptionConfig holds configuration for upload operations via functional options.
type UploadOptionConfig struct {
	Folder          string
	ContentType     string
	Caption         string
	IsPrimary       bool
	MaxSize         int64
	Strategy        Strategy
	ProgressTracker ProgressTracker
}

// Option is a functional option for configuring the uploader client.
type (
	Option func(*ClientConfig)
	// UploadOption is a functional option for configuring upload operations.
	UploadOption func(*UploadOptionConfig)
)

// PercentTracker adapts byte-based progress updates into a monotonically
// non-decreasing 0-100 percentage for display. The final value on success is
// always 100.
//
// ResetDelay optionally schedules OnChange(0) after a terminal state so a UI
// indicator clears itself; the delay is configurable rather than owned by the
// orchestrator, and After is injectable so tests can use a deterministic
// clock.
type PercentTracker struct {
	// OnChange receives each new percentage value
	OnChange func(percent int)

	// ResetDelay is how long after a terminal state the percentage resets
	// to zero. Zero disables the reset.
	ResetDelay time.Duration

	// After is the clock used to schedule the reset. Defaults to time.After.
	After func(d time.Duration) <-chan time.Time

	mu   sync.Mutex
	last int
}

// Update implements ProgressTracker.
func (t *PercentTracker) Update(bytesTransferred, totalBytes int64) {
	if totalBytes <= 0 {
		return
	}
	percent := int(bytesTransferred * 100 / totalBytes)
	if percent > 100 {
		percent = 100
	}

	t.mu.Lock()
	defer t.mu.Unlock()
	if percent < t.last {
		// A fallback attempt restarted from zero; keep the displayed value.
		return
	}
	t.last = percent
	t.emit(percent)
}

// Complete implements ProgressTracker.
func (t *PercentTracker) Complete() {
	t.mu.Lock()
	t.last = 100
	t.emit(100)
	t.mu.Unlock()

	t.scheduleReset()
}

// Error implements ProgressTracker.
func (t *PercentTracker) Error(err error) {
	t.scheduleReset()
}

func (t *PercentTracker) emit(percent int) {
	if t.OnChange != nil {
		t.OnChange(percent)
	}
}

func (t *PercentTracker) scheduleReset() {
	if t.ResetDelay <= 0 {
		return
	}
	after := t.After
	if after == nil {
		after = time.After
	}
	ch := after(t.ResetDelay)
	go func() {
		<-ch
		t.mu.Lock()
		t.last = 0
		t.emit(0)
		t.mu.Unlock()
	}()
}
