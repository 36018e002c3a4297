package transport

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"

	"github.com/perimeter-studio/uploader/errors"
	"github.com/perimeter-studio/uploader/uptypes"
)

// Proxied routes the presigned PUT through a CORS-relaxing proxy endpoint.
// It is the primary transport for direct uploads up to the configured size
// ceiling. The proxy has no visibility into partial bytes sent, so progress
// is coarse: a small initial tick when the request begins, then completion.
//
// Failures here are not terminal; the orchestrator falls back to the raw
// transport with the same credential.
type Proxied struct {
	// Client is the HTTP client used for the proxied request
	Client *http.Client

	// ProxyURL is the proxy endpoint; the presigned target is passed as a
	// url query parameter
	ProxyURL string
}

// Name implements Transport.
func (p *Proxied) Name() string { return "proxied" }

// Upload implements Transport.
func (p *Proxied) Upload(
	ctx context.Context,
	data []byte,
	cred *uptypes.Credential,
	contentType string,
	tracker uptypes.ProgressTracker,
) error {
	target, err := proxyTarget(p.ProxyURL, cred.PresignedURL)
	if err != nil {
		return errors.NewError("proxiedUpload", errors.ErrTransport).WithMessage(err.Error())
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPut, target, bytes.NewReader(data))
	if err != nil {
		return errors.NewError("proxiedUpload", errors.ErrTransport).WithMessage(err.Error())
	}
	req.Header.Set("Content-Type", contentType)
	req.Header.Set(aclHeader, aclPublicRead)

	total := int64(len(data))
	if tracker != nil && total > 0 {
		// Coarse initial tick; the proxy reports nothing until it finishes.
		tracker.Update(total/10, total)
	}

	resp, err := p.Client.Do(req)
	if err != nil {
		return errors.NewError("proxiedUpload", errors.ErrTransport).WithMessage(err.Error())
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return errors.NewError("proxiedUpload", errors.ErrTransport).
			WithMessage(fmt.Sprintf("proxy returned status %d", resp.StatusCode))
	}

	if tracker != nil {
		tracker.Update(total, total)
		tracker.Complete()
	}

	return nil
}

// proxyTarget builds the proxy request URL carrying the presigned target.
func proxyTarget(proxyURL, presignedURL string) (string, error) {
	u, err := url.Parse(proxyURL)
	if err != nil {
		return "", fmt.Errorf("invalid proxy url: %w", err)
	}
	q := u.Query()
	q.Set("url", presignedURL)
	u.RawQuery = q.Encode()
	return u.String(), nil
}
