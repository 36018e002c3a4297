package errors

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestError_Error(t *testing.T) {
	tests := []struct {
		name string
		err  *Error
		want string
	}{
		{
			name: "without key",
			err:  NewError("upload", ErrTransport),
			want: "uploader.upload: uploader: transport failed",
		},
		{
			name: "with key",
			err:  NewError("upload", ErrTransport).WithKey("name.png"),
			want: "uploader.upload name.png: uploader: transport failed",
		},
		{
			name: "with message",
			err:  NewError("upload", ErrTransport).WithMessage("proxy returned status 502"),
			want: "uploader.upload: proxy returned status 502: uploader: transport failed",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.err.Error())
		})
	}
}

func TestError_Unwrap(t *testing.T) {
	err := NewError("upload", ErrTransport).WithKey("name.png")

	assert.True(t, errors.Is(err, ErrTransport))
	assert.False(t, errors.Is(err, ErrAuthentication))
}

func TestError_WithMessagePreservesSentinel(t *testing.T) {
	err := NewError("issueCredential", ErrCredentialRequest).
		WithMessage("backend returned status 500")

	assert.True(t, IsCredentialRequest(err))
}

func TestSentinelCheckers(t *testing.T) {
	tests := []struct {
		name  string
		check func(error) bool
		err   error
	}{
		{name: "authentication", check: IsAuthentication, err: ErrAuthentication},
		{name: "credential request", check: IsCredentialRequest, err: ErrCredentialRequest},
		{name: "transport", check: IsTransport, err: ErrTransport},
		{name: "size limit", check: IsSizeLimit, err: ErrSizeLimit},
		{name: "registration", check: IsRegistration, err: ErrRegistration},
		{name: "invalid input", check: IsInvalidInput, err: ErrInvalidInput},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.True(t, tt.check(tt.err))
			assert.True(t, tt.check(fmt.Errorf("wrapped: %w", tt.err)))
			assert.False(t, tt.check(errors.New("unrelated")))
			assert.False(t, tt.check(nil))
		})
	}
}
