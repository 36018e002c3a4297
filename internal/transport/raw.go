package transport

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"

	"github.com/perimeter-studio/uploader/errors"
	"github.com/perimeter-studio/uploader/uptypes"
)

// Raw issues the PUT directly against the presigned URL. It reports real
// progress as bytes are flushed over the connection, and serves as the
// fallback after a proxied failure as well as the primary transport for
// files above the proxy size ceiling.
//
// A failure here is terminal for the direct strategy; there is no third
// transport to fall back to.
type Raw struct {
	// Client is the HTTP client used for the PUT
	Client *http.Client
}

// Name implements Transport.
func (r *Raw) Name() string { return "raw" }

// Upload implements Transport.
func (r *Raw) Upload(
	ctx context.Context,
	data []byte,
	cred *uptypes.Credential,
	contentType string,
	tracker uptypes.ProgressTracker,
) error {
	total := int64(len(data))
	body := &progressReader{
		reader:  bytes.NewReader(data),
		total:   total,
		tracker: tracker,
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPut, cred.PresignedURL, body)
	if err != nil {
		return errors.NewError("rawUpload", errors.ErrTransport).WithMessage(err.Error())
	}
	req.ContentLength = total
	req.Header.Set("Content-Type", contentType)
	req.Header.Set(aclHeader, aclPublicRead)

	resp, err := r.Client.Do(req)
	if err != nil {
		return errors.NewError("rawUpload", errors.ErrTransport).WithMessage(err.Error())
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return errors.NewError("rawUpload", errors.ErrTransport).
			WithMessage(fmt.Sprintf("object store returned status %d", resp.StatusCode))
	}

	if tracker != nil {
		tracker.Update(total, total)
		tracker.Complete()
	}

	return nil
}
