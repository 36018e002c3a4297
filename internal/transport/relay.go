package transport

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"mime/multipart"
	"net/http"
	"sync"
	"time"

	"github.com/perimeter-studio/uploader/errors"
	"github.com/perimeter-studio/uploader/uptypes"
)

// Simulated progress parameters. The backend offers no progress channel, so
// the indicator advances in fixed steps on a timer while the request is in
// flight, capped below completion until the response arrives. This is a UX
// affordance, not a measured transfer rate.
const (
	relayProgressStep = 10
	relayProgressCap  = 90
	relayProgressMax  = 100

	// DefaultRelayTickInterval is how often simulated progress advances.
	DefaultRelayTickInterval = 500 * time.Millisecond
)

// Relay sends the file through the backend instead of directly to storage.
// The backend performs the object-store write on the caller's behalf and
// returns the resulting public URL.
type Relay struct {
	// Client is the HTTP client used for the multipart request
	Client *http.Client

	// Endpoint is the backend upload endpoint
	Endpoint string

	// Tokens supplies the bearer token for the request
	Tokens uptypes.TokenProvider

	// TickInterval is how often simulated progress advances. Defaults to
	// DefaultRelayTickInterval.
	TickInterval time.Duration

	// Ticker creates the timer channel driving simulated progress. It is
	// injectable so tests can use a deterministic clock. Defaults to
	// time.NewTicker.
	Ticker func(d time.Duration) (<-chan time.Time, func())
}

type relayResponse struct {
	FileURL string `json:"file_url"`
}

// Upload sends the file plus any metadata fields as a multipart form body
// and returns the public URL reported by the backend.
func (r *Relay) Upload(
	ctx context.Context,
	fileName string,
	data []byte,
	fields map[string]string,
	tracker uptypes.ProgressTracker,
) (string, error) {
	token, err := r.bearerToken(ctx)
	if err != nil {
		return "", err
	}

	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)
	part, err := writer.CreateFormFile("file", fileName)
	if err != nil {
		return "", errors.NewError("relayUpload", err).WithKey(fileName)
	}
	if _, err := part.Write(data); err != nil {
		return "", errors.NewError("relayUpload", err).WithKey(fileName)
	}
	for name, value := range fields {
		if err := writer.WriteField(name, value); err != nil {
			return "", errors.NewError("relayUpload", err).WithKey(fileName)
		}
	}
	if err := writer.Close(); err != nil {
		return "", errors.NewError("relayUpload", err).WithKey(fileName)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, r.Endpoint, &buf)
	if err != nil {
		return "", errors.NewError("relayUpload", errors.ErrTransport).
			WithKey(fileName).
			WithMessage(err.Error())
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())
	req.Header.Set("Authorization", "Bearer "+token)

	stopProgress := r.simulateProgress(tracker)
	resp, err := r.Client.Do(req)
	stopProgress()

	if err != nil {
		return "", errors.NewError("relayUpload", errors.ErrTransport).
			WithKey(fileName).
			WithMessage(err.Error())
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden {
		return "", errors.NewError("relayUpload", errors.ErrAuthentication).
			WithKey(fileName).
			WithMessage(fmt.Sprintf("backend returned status %d", resp.StatusCode))
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", errors.NewError("relayUpload", errors.ErrTransport).
			WithKey(fileName).
			WithMessage(fmt.Sprintf("backend returned status %d", resp.StatusCode))
	}

	var result relayResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return "", errors.NewError("relayUpload", errors.ErrTransport).
			WithKey(fileName).
			WithMessage("invalid response body: " + err.Error())
	}
	if result.FileURL == "" {
		return "", errors.NewError("relayUpload", errors.ErrTransport).
			WithKey(fileName).
			WithMessage("response missing file_url")
	}

	if tracker != nil {
		tracker.Update(relayProgressMax, relayProgressMax)
		tracker.Complete()
	}

	return result.FileURL, nil
}

// simulateProgress advances the tracker on a timer while the request is in
// flight, capped at relayProgressCap. The returned func stops the timer and
// waits for the progress goroutine to exit, so the caller's final update
// cannot race with a simulated one.
func (r *Relay) simulateProgress(tracker uptypes.ProgressTracker) (stop func()) {
	if tracker == nil {
		return func() {}
	}

	interval := r.TickInterval
	if interval <= 0 {
		interval = DefaultRelayTickInterval
	}
	newTicker := r.Ticker
	if newTicker == nil {
		newTicker = defaultTicker
	}

	ticks, stopTicker := newTicker(interval)
	done := make(chan struct{})

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		progress := int64(0)
		for {
			select {
			case <-done:
				return
			case <-ticks:
				if progress < relayProgressCap {
					progress += relayProgressStep
					tracker.Update(progress, relayProgressMax)
				}
			}
		}
	}()

	return func() {
		close(done)
		stopTicker()
		wg.Wait()
	}
}

func (r *Relay) bearerToken(ctx context.Context) (string, error) {
	if r.Tokens == nil {
		return "", errors.NewError("relayUpload", errors.ErrAuthentication).
			WithMessage("no token provider configured")
	}
	token, err := r.Tokens.Token(ctx)
	if err != nil {
		return "", errors.NewError("relayUpload", errors.ErrAuthentication).
			WithMessage(err.Error())
	}
	if token == "" {
		return "", errors.NewError("relayUpload", errors.ErrAuthentication).
			WithMessage("no bearer token available")
	}
	return token, nil
}

func defaultTicker(d time.Duration) (<-chan time.Time, func()) {
	t := time.NewTicker(d)
	return t.C, t.Stop
}
