// Package uploader provides the upload orchestration entry points.
package uploader

import (
	"context"
	"io"
	"mime"
	"path/filepath"
	"strings"
	"time"

	"github.com/gabriel-vasile/mimetype"
	"github.com/go-logr/logr"

	"github.com/perimeter-studio/uploader/errors"
	"github.com/perimeter-studio/uploader/internal/transport"
	"github.com/perimeter-studio/uploader/internal/validation"
	"github.com/perimeter-studio/uploader/uptypes"
)

const (
	// DefaultContentType is the default content type used when content type detection fails
	DefaultContentType = "application/octet-stream"
)

// Upload uploads in-memory data under the given file name.
// It selects the transport strategy from the file size, acquires a presigned
// credential for direct uploads, and attempts the proxied transport before
// falling back exactly once to the raw transport with the same credential.
// Relay uploads go through the backend and have no fallback.
//
// Progress reported to the tracker is monotonically non-decreasing within
// one attempt and ends at the total on success. A fallback attempt starts
// over from zero; wrap the tracker in a uptypes.PercentTracker for a
// display value that never regresses.
//
// Returns:
//   - *UploadResult: the public URL of the object plus the strategy used
//   - error: a typed error describing the failure
//
// Errors:
//   - ErrInvalidInput: if the file name or folder is invalid
//   - ErrSizeLimit: if the data exceeds the WithMaxSize limit
//   - ErrAuthentication: if no bearer token is available or it was rejected
//   - ErrCredentialRequest: if the backend refused to issue a credential
//   - ErrTransport: if the transfer failed on every applicable transport
func (c *Client) Upload(
	ctx context.Context,
	fileName string,
	data []byte,
	opts ...uptypes.UploadOption,
) (*uptypes.UploadResult, error) {
	if err := validation.ValidateFileName(fileName); err != nil {
		return nil, err
	}

	cfg := &uptypes.UploadOptionConfig{}
	for _, opt := range opts {
		opt(cfg)
	}

	if err := validation.ValidateFolder(cfg.Folder); err != nil {
		return nil, err
	}

	size := int64(len(data))

	// Pre-transfer check; never reaches the network.
	if cfg.MaxSize > 0 && size > cfg.MaxSize {
		return nil, errors.NewError("upload", errors.ErrSizeLimit).
			WithKey(fileName).
			WithMessage("file exceeds maximum allowed size")
	}

	contentType := cfg.ContentType
	if contentType == "" {
		contentType = detectContentType(fileName, data)
	}

	strategy := resolveStrategy(cfg.Strategy, size, c.relayThreshold)

	log := logr.FromContextOrDiscard(ctx).WithValues(
		"file", fileName,
		"size", size,
		"strategy", strategy,
	)
	log.V(1).Info("starting upload")

	startTime := time.Now()

	var (
		publicURL string
		err       error
	)
	switch strategy {
	case uptypes.StrategyRelay:
		publicURL, err = c.uploadRelay(ctx, fileName, data, cfg)
	default:
		publicURL, err = c.uploadDirect(ctx, fileName, data, size, contentType, cfg, log)
	}
	if err != nil {
		if cfg.ProgressTracker != nil {
			cfg.ProgressTracker.Error(err)
		}
		return nil, err
	}

	return &uptypes.UploadResult{
		URL:      publicURL,
		Strategy: strategy,
		Size:     size,
		Duration: time.Since(startTime),
	}, nil
}

// UploadFile uploads a file from the local filesystem.
// The file name is taken from the path's base and the content type is
// sniffed from the file's bytes, falling back to extension-based lookup.
//
// Example:
//
//	result, err := client.UploadFile(ctx, "/path/to/report.pdf",
//	    uploader.WithFolder("documents"),
//	    uploader.WithProgress(tracker),
//	)
func (c *Client) UploadFile(
	ctx context.Context,
	path string,
	opts ...uptypes.UploadOption,
) (*uptypes.UploadResult, error) {
	if path == "" {
		return nil, errors.NewError("uploadFile", errors.ErrInvalidInput).
			WithMessage("path cannot be empty")
	}

	info, err := c.fs.Stat(path)
	if err != nil {
		return nil, errors.NewError("uploadFile", err).WithKey(path)
	}
	if info.IsDir() {
		return nil, errors.NewError("uploadFile", errors.ErrInvalidInput).
			WithKey(path).
			WithMessage("path points to a directory, not a file")
	}

	file, err := c.fs.Open(path)
	if err != nil {
		return nil, errors.NewError("uploadFile", err).WithKey(path)
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		return nil, errors.NewError("uploadFile", err).WithKey(path)
	}

	return c.Upload(ctx, filepath.Base(path), data, opts...)
}

// uploadRelay sends the file through the backend relay endpoint.
// There is no secondary path: a relay failure is terminal.
func (c *Client) uploadRelay(
	ctx context.Context,
	fileName string,
	data []byte,
	cfg *uptypes.UploadOptionConfig,
) (string, error) {
	fields := make(map[string]string)
	if cfg.Folder != "" {
		fields["folder"] = cfg.Folder
	}
	if cfg.Caption != "" {
		fields["caption"] = cfg.Caption
	}
	if cfg.IsPrimary {
		fields["is_primary"] = "true"
	}

	return c.relay.Upload(ctx, fileName, data, fields, cfg.ProgressTracker)
}

// uploadDirect acquires a credential and walks the ordered transport list.
// The first success short-circuits; the proxied transport is skipped
// entirely above the proxy ceiling. Both attempts reuse the same credential
// since only the way bytes are pushed changes, not the target.
func (c *Client) uploadDirect(
	ctx context.Context,
	fileName string,
	data []byte,
	size int64,
	contentType string,
	cfg *uptypes.UploadOptionConfig,
	log logr.Logger,
) (string, error) {
	cred, err := c.creds.Issue(ctx, uptypes.UploadRequest{
		FileName:    fileName,
		ContentType: contentType,
		Size:        size,
		Folder:      cfg.Folder,
	})
	if err != nil {
		// A failed credential request aborts the whole attempt.
		return "", err
	}

	var attempts []transport.Transport
	if size <= c.proxyCeiling {
		attempts = append(attempts, c.proxied)
	}
	attempts = append(attempts, c.raw)

	var lastErr error
	for i, t := range attempts {
		err := t.Upload(ctx, data, cred, contentType, cfg.ProgressTracker)
		if err == nil {
			return cred.PublicURL, nil
		}
		lastErr = err
		if i < len(attempts)-1 {
			log.Error(err, "transport failed, trying fallback", "transport", t.Name())
		}
	}

	return "", lastErr
}

// resolveStrategy applies the caller's override on top of size-based
// selection. A relay override above the threshold is forced back to direct.
func resolveStrategy(override uptypes.Strategy, size, threshold int64) uptypes.Strategy {
	if override == uptypes.StrategyDirect {
		return uptypes.StrategyDirect
	}
	if override == uptypes.StrategyRelay && size <= threshold {
		return uptypes.StrategyRelay
	}
	return SelectStrategy(size, threshold)
}

// detectContentType determines the content type using mimetype where
// possible, falling back to extension-based lookup.
func detectContentType(fileName string, data []byte) string {
	if len(data) > 0 {
		if mt := mimetype.Detect(data); mt != nil && mt.String() != DefaultContentType {
			return mt.String()
		}
	}

	ext := strings.ToLower(filepath.Ext(fileName))
	if ext != "" {
		if byExt := mime.TypeByExtension(ext); byExt != "" {
			return byExt
		}
	}

	return DefaultContentType
}
