// Package credential requests short-lived upload credentials from the
// backend. A credential scopes a single presigned PUT to exactly the object
// key the backend derived from the request.
//
// A failed credential request aborts the whole upload attempt; this is a
// prerequisite step, not a transient transfer step, so there is no retry.
package credential

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/perimeter-studio/uploader/errors"
	"github.com/perimeter-studio/uploader/uptypes"
)

// Backend issues credentials by calling the backend's presigned-url endpoint.
type Backend struct {
	client   *http.Client
	endpoint string
	tokens   uptypes.TokenProvider
}

// New creates a Backend credential source.
func New(client *http.Client, endpoint string, tokens uptypes.TokenProvider) *Backend {
	return &Backend{
		client:   client,
		endpoint: endpoint,
		tokens:   tokens,
	}
}

type credentialRequest struct {
	FileName string `json:"file_name"`
	FileType string `json:"file_type"`
	Folder   string `json:"folder,omitempty"`
}

type credentialResponse struct {
	PresignedURL string `json:"presigned_url"`
	PublicURL    string `json:"public_url"`
}

type errorResponse struct {
	Detail string `json:"detail"`
}

// Issue implements uptypes.CredentialSource.
func (b *Backend) Issue(ctx context.Context, req uptypes.UploadRequest) (*uptypes.Credential, error) {
	token, err := b.bearerToken(ctx)
	if err != nil {
		return nil, err
	}

	body, err := json.Marshal(credentialRequest{
		FileName: req.FileName,
		FileType: req.ContentType,
		Folder:   req.Folder,
	})
	if err != nil {
		return nil, errors.NewError("issueCredential", err).WithKey(req.FileName)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, b.endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, errors.NewError("issueCredential", err).WithKey(req.FileName)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+token)

	resp, err := b.client.Do(httpReq)
	if err != nil {
		return nil, errors.NewError("issueCredential", errors.ErrCredentialRequest).
			WithKey(req.FileName).
			WithMessage(err.Error())
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden {
		return nil, errors.NewError("issueCredential", errors.ErrAuthentication).
			WithKey(req.FileName).
			WithMessage(fmt.Sprintf("backend returned status %d", resp.StatusCode))
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, errors.NewError("issueCredential", errors.ErrCredentialRequest).
			WithKey(req.FileName).
			WithMessage(responseDetail(resp))
	}

	var cred credentialResponse
	if err := json.NewDecoder(resp.Body).Decode(&cred); err != nil {
		return nil, errors.NewError("issueCredential", errors.ErrCredentialRequest).
			WithKey(req.FileName).
			WithMessage("invalid response body: " + err.Error())
	}
	if cred.PresignedURL == "" {
		return nil, errors.NewError("issueCredential", errors.ErrCredentialRequest).
			WithKey(req.FileName).
			WithMessage("response missing presigned_url")
	}

	return &uptypes.Credential{
		PresignedURL: cred.PresignedURL,
		PublicURL:    cred.PublicURL,
	}, nil
}

func (b *Backend) bearerToken(ctx context.Context) (string, error) {
	if b.tokens == nil {
		return "", errors.NewError("issueCredential", errors.ErrAuthentication).
			WithMessage("no token provider configured")
	}
	token, err := b.tokens.Token(ctx)
	if err != nil {
		return "", errors.NewError("issueCredential", errors.ErrAuthentication).
			WithMessage(err.Error())
	}
	if token == "" {
		return "", errors.NewError("issueCredential", errors.ErrAuthentication).
			WithMessage("no bearer token available")
	}
	return token, nil
}

// responseDetail extracts the backend-provided detail message from an error
// response, falling back to the HTTP status.
func responseDetail(resp *http.Response) string {
	data, err := io.ReadAll(io.LimitReader(resp.Body, 4096))
	if err == nil && len(data) > 0 {
		var e errorResponse
		if json.Unmarshal(data, &e) == nil && e.Detail != "" {
			return e.Detail
		}
	}
	return fmt.Sprintf("backend returned status %d", resp.StatusCode)
}
