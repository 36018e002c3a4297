// Package uploader provides gallery metadata registration.
//
// Registration is a second phase after a successful storage write: the
// uploaded object is attached to a backend project record. If registration
// fails the storage object is NOT rolled back; it stays in the store without
// an owning record. That gap is deliberate and surfaced as ErrRegistration
// rather than papered over.
package uploader

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"mime/multipart"
	"net/http"
	"strconv"

	"github.com/go-logr/logr"
	"github.com/samber/lo"
	"golang.org/x/sync/errgroup"

	"github.com/perimeter-studio/uploader/errors"
	"github.com/perimeter-studio/uploader/uptypes"
)

type registerResponse struct {
	ID json.Number `json:"id"`
}

type galleryImageWire struct {
	ID        json.Number `json:"id"`
	Image     string      `json:"image"`
	Caption   string      `json:"caption"`
	IsPrimary bool        `json:"is_primary"`
}

type projectWire struct {
	GalleryImages []galleryImageWire `json:"gallery_images"`
}

// RegisterGalleryImage registers an already-uploaded object's metadata
// against a project record and returns the new record's ID.
//
// The caller invokes this after a successful upload; the orchestrator never
// does it automatically. On failure the uploaded object remains in storage,
// orphaned.
//
// Errors:
//   - ErrAuthentication: if no bearer token is available or it was rejected
//   - ErrRegistration: if the backend refused the registration
func (c *Client) RegisterGalleryImage(
	ctx context.Context,
	projectID string,
	img uptypes.GalleryImage,
) (string, error) {
	if projectID == "" {
		return "", errors.NewError("registerGalleryImage", errors.ErrInvalidInput).
			WithMessage("project ID cannot be empty")
	}
	if img.SourceURL == "" {
		return "", errors.NewError("registerGalleryImage", errors.ErrInvalidInput).
			WithMessage("source URL cannot be empty")
	}

	token, err := c.bearerToken(ctx, "registerGalleryImage")
	if err != nil {
		return "", err
	}

	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)
	fields := map[string]string{
		"s3_url":     img.SourceURL,
		"caption":    img.Caption,
		"is_primary": strconv.FormatBool(img.IsPrimary),
	}
	for name, value := range fields {
		if err := writer.WriteField(name, value); err != nil {
			return "", errors.NewError("registerGalleryImage", err)
		}
	}
	if err := writer.Close(); err != nil {
		return "", errors.NewError("registerGalleryImage", err)
	}

	endpoint := c.baseURL + projectsPath + projectID + "/register_s3_image/"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, &buf)
	if err != nil {
		return "", errors.NewError("registerGalleryImage", err)
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", errors.NewError("registerGalleryImage", errors.ErrRegistration).
			WithMessage(err.Error())
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden {
		return "", errors.NewError("registerGalleryImage", errors.ErrAuthentication).
			WithMessage(fmt.Sprintf("backend returned status %d", resp.StatusCode))
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", errors.NewError("registerGalleryImage", errors.ErrRegistration).
			WithMessage(fmt.Sprintf("backend returned status %d", resp.StatusCode))
	}

	var result registerResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return "", errors.NewError("registerGalleryImage", errors.ErrRegistration).
			WithMessage("invalid response body: " + err.Error())
	}

	return result.ID.String(), nil
}

// SetPrimaryImage marks a registered gallery image as the project's primary
// image using a two-tier endpoint fallback: the preferred set_primary_image
// endpoint first, then the legacy upload_image endpoint with the same body.
//
// When both tiers fail, the project's authoritative gallery state is
// re-fetched and returned alongside the error so the caller can reconcile
// its local view instead of guessing. On success the returned slice is nil.
func (c *Client) SetPrimaryImage(
	ctx context.Context,
	projectID, imageID string,
) ([]uptypes.GalleryRecord, error) {
	if projectID == "" || imageID == "" {
		return nil, errors.NewError("setPrimaryImage", errors.ErrInvalidInput).
			WithMessage("project ID and image ID cannot be empty")
	}

	log := logr.FromContextOrDiscard(ctx).WithValues(
		"project", projectID,
		"image", imageID,
	)

	// Whether the legacy endpoint is still authoritative is an open
	// question; both paths are kept and neither is assumed canonical.
	endpoints := []string{
		c.baseURL + projectsPath + projectID + "/set_primary_image/",
		c.baseURL + projectsPath + projectID + "/upload_image/",
	}

	var lastErr error
	for i, endpoint := range endpoints {
		err := c.postImageID(ctx, endpoint, imageID)
		if err == nil {
			return nil, nil
		}
		lastErr = err
		if i < len(endpoints)-1 {
			log.Error(err, "primary-image endpoint failed, trying legacy endpoint")
		}
	}

	// Total failure: reconcile with the backend's authoritative state.
	records, fetchErr := c.fetchGallery(ctx, projectID)
	if fetchErr != nil {
		log.Error(fetchErr, "gallery reconciliation fetch failed")
	}

	return records, errors.NewError("setPrimaryImage", errors.ErrRegistration).
		WithKey(imageID).
		WithMessage(lastErr.Error())
}

// UploadGallery uploads several local files concurrently and registers each
// one against the project record. Concurrency is bounded by the client's
// configured limit. Results are returned in input order.
//
// If any upload or registration fails, the whole batch returns that error;
// objects already written to storage are not rolled back.
func (c *Client) UploadGallery(
	ctx context.Context,
	projectID string,
	images []uptypes.GalleryUpload,
	opts ...uptypes.UploadOption,
) ([]uptypes.GalleryRecord, error) {
	if projectID == "" {
		return nil, errors.NewError("uploadGallery", errors.ErrInvalidInput).
			WithMessage("project ID cannot be empty")
	}
	if len(images) == 0 {
		return nil, errors.NewError("uploadGallery", errors.ErrInvalidInput).
			WithMessage("images cannot be empty")
	}

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(c.concurrency)

	records := make([]uptypes.GalleryRecord, len(images))
	for i, img := range images {
		g.Go(func() error {
			result, err := c.UploadFile(ctx, img.Path, opts...)
			if err != nil {
				return err
			}

			id, err := c.RegisterGalleryImage(ctx, projectID, uptypes.GalleryImage{
				SourceURL: result.URL,
				Caption:   img.Caption,
				IsPrimary: img.IsPrimary,
			})
			if err != nil {
				return err
			}

			records[i] = uptypes.GalleryRecord{
				ID:        id,
				Image:     result.URL,
				Caption:   img.Caption,
				IsPrimary: img.IsPrimary,
			}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	return records, nil
}

// postImageID posts the {image_id} body shared by both primary-image tiers.
func (c *Client) postImageID(ctx context.Context, endpoint, imageID string) error {
	token, err := c.bearerToken(ctx, "setPrimaryImage")
	if err != nil {
		return err
	}

	body, err := json.Marshal(map[string]string{"image_id": imageID})
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("backend returned status %d", resp.StatusCode)
	}
	return nil
}

// fetchGallery retrieves the project's authoritative gallery records.
func (c *Client) fetchGallery(ctx context.Context, projectID string) ([]uptypes.GalleryRecord, error) {
	token, err := c.bearerToken(ctx, "fetchGallery")
	if err != nil {
		return nil, err
	}

	endpoint := c.baseURL + projectsPath + projectID + "/"
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, errors.NewError("fetchGallery", err)
	}
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, errors.NewError("fetchGallery", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, errors.NewError("fetchGallery", errors.ErrRegistration).
			WithMessage(fmt.Sprintf("backend returned status %d", resp.StatusCode))
	}

	var project projectWire
	if err := json.NewDecoder(resp.Body).Decode(&project); err != nil {
		return nil, errors.NewError("fetchGallery", err)
	}

	return lo.Map(project.GalleryImages, func(w galleryImageWire, _ int) uptypes.GalleryRecord {
		return uptypes.GalleryRecord{
			ID:        w.ID.String(),
			Image:     w.Image,
			Caption:   w.Caption,
			IsPrimary: w.IsPrimary,
		}
	}), nil
}

// bearerToken resolves the current bearer token for backend calls.
func (c *Client) bearerToken(ctx context.Context, op string) (string, error) {
	if c.tokens == nil {
		return "", errors.NewError(op, errors.ErrAuthentication).
			WithMessage("no token provider configured")
	}
	token, err := c.tokens.Token(ctx)
	if err != nil {
		return "", errors.NewError(op, errors.ErrAuthentication).WithMessage(err.Error())
	}
	if token == "" {
		return "", errors.NewError(op, errors.ErrAuthentication).
			WithMessage("no bearer token available")
	}
	return token, nil
}
