// Package presign issues upload credentials locally using the AWS SDK
// instead of asking the backend for them. It is meant for development and
// integration testing where the backend collaborator is unavailable; the
// resulting credentials are interchangeable with backend-issued ones.
package presign

import (
	"context"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	v4 "github.com/aws/aws-sdk-go-v2/aws/signer/v4"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	awstypes "github.com/aws/aws-sdk-go-v2/service/s3/types"

	"github.com/perimeter-studio/uploader/errors"
	"github.com/perimeter-studio/uploader/uptypes"
)

// DefaultExpiry is how long issued credentials stay valid.
const DefaultExpiry = 15 * time.Minute

// Presigner is the subset of the SDK presign client the source needs.
// It exists so tests can substitute a fake.
type Presigner interface {
	PresignPutObject(
		ctx context.Context,
		params *s3.PutObjectInput,
		optFns ...func(*s3.PresignOptions),
	) (*v4.PresignedHTTPRequest, error)
}

// Source issues single-use presigned PUT credentials against an S3 bucket.
type Source struct {
	presigner     Presigner
	bucket        string
	publicBaseURL string
	expiry        time.Duration
}

// Option is a functional option for configuring the Source.
type Option func(*Source)

// WithExpiry sets how long issued credentials stay valid.
// Default is DefaultExpiry.
func WithExpiry(expiry time.Duration) Option {
	return func(s *Source) {
		if expiry > 0 {
			s.expiry = expiry
		}
	}
}

// WithPresigner provides a pre-configured presign client, skipping default
// AWS configuration loading. This is also how tests inject a fake.
func WithPresigner(presigner Presigner) Option {
	return func(s *Source) {
		s.presigner = presigner
	}
}

// New creates a Source for the given bucket. The public base URL is the
// prefix under which uploaded objects become readable (bucket website or
// CDN origin). AWS credentials come from the default credential chain
// unless a presigner is supplied.
func New(ctx context.Context, bucket, publicBaseURL string, opts ...Option) (*Source, error) {
	if bucket == "" {
		return nil, errors.NewError("presign initialization", errors.ErrInvalidInput).
			WithMessage("bucket cannot be empty")
	}
	if publicBaseURL == "" {
		return nil, errors.NewError("presign initialization", errors.ErrInvalidInput).
			WithMessage("public base URL cannot be empty")
	}

	source := &Source{
		bucket:        bucket,
		publicBaseURL: strings.TrimSuffix(publicBaseURL, "/"),
		expiry:        DefaultExpiry,
	}
	for _, opt := range opts {
		opt(source)
	}

	if source.presigner == nil {
		cfg, err := config.LoadDefaultConfig(ctx)
		if err != nil {
			return nil, errors.NewError("presign initialization", err)
		}
		source.presigner = s3.NewPresignClient(s3.NewFromConfig(cfg))
	}

	return source, nil
}

// Issue implements uptypes.CredentialSource. The object key is the request's
// folder joined with its file name; the object is made publicly readable so
// the public URL serves it directly.
func (s *Source) Issue(ctx context.Context, req uptypes.UploadRequest) (*uptypes.Credential, error) {
	key := req.FileName
	if req.Folder != "" {
		key = strings.TrimSuffix(req.Folder, "/") + "/" + req.FileName
	}

	input := &s3.PutObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
		ACL:    awstypes.ObjectCannedACLPublicRead,
	}
	if req.ContentType != "" {
		input.ContentType = aws.String(req.ContentType)
	}

	presigned, err := s.presigner.PresignPutObject(ctx, input, s3.WithPresignExpires(s.expiry))
	if err != nil {
		return nil, errors.NewError("issueCredential", errors.ErrCredentialRequest).
			WithKey(key).
			WithMessage(err.Error())
	}

	return &uptypes.Credential{
		PresignedURL: presigned.URL,
		PublicURL:    s.publicBaseURL + "/" + key,
	}, nil
}
