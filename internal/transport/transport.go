// Package transport implements the byte-transfer strategies for uploads.
//
// Direct uploads push bytes at a presigned URL through one of two
// interchangeable Transport implementations: a CORS-relaxing proxy with
// coarse progress, and a raw PUT with fine-grained progress. Relay uploads
// instead send the file through the backend as a multipart payload.
package transport

import (
	"context"
	"io"

	"github.com/perimeter-studio/uploader/uptypes"
)

// Header values applied to every object-store PUT. Objects are made publicly
// readable so the resulting public URL serves them without further auth.
const (
	aclHeader     = "x-amz-acl"
	aclPublicRead = "public-read"
)

// Transport pushes file bytes to the object store for a presigned credential.
// Implementations are stateless and safe for concurrent use.
type Transport interface {
	// Name identifies the transport in logs and errors
	Name() string

	// Upload transfers data to the credential's presigned URL, reporting
	// progress to tracker (which may be nil)
	Upload(
		ctx context.Context,
		data []byte,
		cred *uptypes.Credential,
		contentType string,
		tracker uptypes.ProgressTracker,
	) error
}

// progressReader counts bytes as they are read from the underlying reader
// and reports them to the tracker.
type progressReader struct {
	reader  io.Reader
	total   int64
	read    int64
	tracker uptypes.ProgressTracker
}

// Read implements io.Reader.
func (r *progressReader) Read(p []byte) (int, error) {
	n, err := r.reader.Read(p)
	if n > 0 {
		r.read += int64(n)
		if r.tracker != nil {
			r.tracker.Update(r.read, r.total)
		}
	}
	return n, err
}
