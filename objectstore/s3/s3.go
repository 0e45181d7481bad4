// Package s3 implements core.ObjectStore on Amazon S3 (or S3 compatible
// services) for s3:// URIs.
package s3

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/url"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"

	"github.com/hupe1980/agentlab/core"
	"github.com/hupe1980/agentlab/objectstore"
)

// Compile-time interface compliance check.
var _ core.ObjectStore = (*Store)(nil)

// API is the subset of the S3 client used by Store.
type API interface {
	GetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
	HeadObject(ctx context.Context, params *s3.HeadObjectInput, optFns ...func(*s3.Options)) (*s3.HeadObjectOutput, error)
	DeleteObject(ctx context.Context, params *s3.DeleteObjectInput, optFns ...func(*s3.Options)) (*s3.DeleteObjectOutput, error)
}

// Options configures the S3 client.
type Options struct {
	Region string
	// Endpoint overrides the service endpoint (MinIO, R2, LocalStack).
	Endpoint     string
	UsePathStyle bool
}

// Store reads and writes s3:// objects.
type Store struct {
	api  API
	opts Options
}

// New creates a store from the default AWS credential chain.
func New(ctx context.Context, optFns ...func(o *Options)) (*Store, error) {
	opts := Options{}
	for _, fn := range optFns {
		fn(&opts)
	}

	var loadOpts []func(*config.LoadOptions) error
	if opts.Region != "" {
		loadOpts = append(loadOpts, config.WithRegion(opts.Region))
	}

	cfg, err := config.LoadDefaultConfig(ctx, loadOpts...)
	if err != nil {
		return nil, fmt.Errorf("loading aws config: %w", err)
	}
	if opts.Region == "" {
		opts.Region = cfg.Region
	}

	client := s3.NewFromConfig(cfg, func(o *s3.Options) {
		if opts.Endpoint != "" {
			o.BaseEndpoint = aws.String(opts.Endpoint)
		}
		o.UsePathStyle = opts.UsePathStyle
	})

	return NewFromAPI(client, opts), nil
}

// NewFromAPI wraps an existing client.
func NewFromAPI(api API, opts Options) *Store {
	return &Store{api: api, opts: opts}
}

// Read downloads an object.
func (s *Store) Read(ctx context.Context, uri string) (*core.Object, error) {
	u, err := parse(uri)
	if err != nil {
		return nil, err
	}

	out, err := s.api.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(u.Bucket),
		Key:    aws.String(u.Key),
	})
	if err != nil {
		if isNotFound(err) {
			return nil, fmt.Errorf("object %s: %w", uri, core.ErrNotFound)
		}
		return nil, fmt.Errorf("getting %s: %w", uri, err)
	}
	defer out.Body.Close()

	data, err := io.ReadAll(out.Body)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", uri, err)
	}

	return &core.Object{Data: data, ContentType: aws.ToString(out.ContentType)}, nil
}

// Write uploads an object.
func (s *Store) Write(ctx context.Context, uri string, data []byte, contentType string) error {
	u, err := parse(uri)
	if err != nil {
		return err
	}

	in := &s3.PutObjectInput{
		Bucket: aws.String(u.Bucket),
		Key:    aws.String(u.Key),
		Body:   bytes.NewReader(data),
	}
	if contentType != "" {
		in.ContentType = aws.String(contentType)
	}

	if _, err := s.api.PutObject(ctx, in); err != nil {
		return fmt.Errorf("putting %s: %w", uri, err)
	}

	return nil
}

// Exists issues a HEAD request.
func (s *Store) Exists(ctx context.Context, uri string) (bool, error) {
	u, err := parse(uri)
	if err != nil {
		return false, err
	}

	_, err = s.api.HeadObject(ctx, &s3.HeadObjectInput{
		Bucket: aws.String(u.Bucket),
		Key:    aws.String(u.Key),
	})
	if err != nil {
		if isNotFound(err) {
			return false, nil
		}
		return false, fmt.Errorf("head %s: %w", uri, err)
	}

	return true, nil
}

// Delete removes the object. S3 treats deleting a missing key as success.
func (s *Store) Delete(ctx context.Context, uri string) error {
	u, err := parse(uri)
	if err != nil {
		return err
	}

	if _, err := s.api.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(u.Bucket),
		Key:    aws.String(u.Key),
	}); err != nil {
		return fmt.Errorf("deleting %s: %w", uri, err)
	}

	return nil
}

// PublicURL returns the virtual-hosted (or path style, with a custom
// endpoint) HTTPS URL of the object.
func (s *Store) PublicURL(uri string) (string, error) {
	u, err := parse(uri)
	if err != nil {
		return "", err
	}

	key := (&url.URL{Path: u.Key}).EscapedPath()

	if s.opts.Endpoint != "" {
		return strings.TrimRight(s.opts.Endpoint, "/") + "/" + u.Bucket + "/" + key, nil
	}

	region := s.opts.Region
	if region == "" {
		region = "us-east-1"
	}

	return fmt.Sprintf("https://%s.s3.%s.amazonaws.com/%s", u.Bucket, region, key), nil
}

func isNotFound(err error) bool {
	var nsk *types.NoSuchKey
	var nf *types.NotFound
	return errors.As(err, &nsk) || errors.As(err, &nf)
}

func parse(uri string) (objectstore.URI, error) {
	u, err := objectstore.ParseURI(uri)
	if err != nil {
		return objectstore.URI{}, err
	}
	if u.Scheme != objectstore.SchemeS3 {
		return objectstore.URI{}, fmt.Errorf("s3 store can not handle %q", uri)
	}
	if u.Key == "" {
		return objectstore.URI{}, fmt.Errorf("object uri %q: missing key", uri)
	}
	return u, nil
}
