// Package testutil provides shared fakes for uploader tests.
package testutil

import (
	"context"
	"sync"

	"github.com/perimeter-studio/uploader/uptypes"
)

// RecordingTracker captures progress callbacks as percentages for
// assertions. It is safe for concurrent use.
type RecordingTracker struct {
	mu        sync.Mutex
	percents  []int
	completed bool
	err       error
}

// Update implements uptypes.ProgressTracker.
func (t *RecordingTracker) Update(bytesTransferred, totalBytes int64) {
	if totalBytes <= 0 {
		return
	}
	percent := int(bytesTransferred * 100 / totalBytes)

	t.mu.Lock()
	defer t.mu.Unlock()
	t.percents = append(t.percents, percent)
}

// Complete implements uptypes.ProgressTracker.
func (t *RecordingTracker) Complete() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.completed = true
}

// Error implements uptypes.ProgressTracker.
func (t *RecordingTracker) Error(err error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.err = err
}

// Percents returns a copy of the observed percentage values.
func (t *RecordingTracker) Percents() []int {
	t.mu.Lock()
	defer t.mu.Unlock()
	out := make([]int, len(t.percents))
	copy(out, t.percents)
	return out
}

// Completed reports whether Complete was called.
func (t *RecordingTracker) Completed() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.completed
}

// Err returns the error passed to Error, if any.
func (t *RecordingTracker) Err() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.err
}

// FakeCredentialSource is a function-backed CredentialSource that records
// every request it sees.
type FakeCredentialSource struct {
	IssueFunc func(ctx context.Context, req uptypes.UploadRequest) (*uptypes.Credential, error)

	mu    sync.Mutex
	calls []uptypes.UploadRequest
}

// Issue implements uptypes.CredentialSource.
func (f *FakeCredentialSource) Issue(
	ctx context.Context,
	req uptypes.UploadRequest,
) (*uptypes.Credential, error) {
	f.mu.Lock()
	f.calls = append(f.calls, req)
	f.mu.Unlock()
	return f.IssueFunc(ctx, req)
}

// Calls returns a copy of the requests seen so far.
func (f *FakeCredentialSource) Calls() []uptypes.UploadRequest {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]uptypes.UploadRequest, len(f.calls))
	copy(out, f.calls)
	return out
}
