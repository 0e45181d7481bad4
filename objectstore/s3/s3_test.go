package s3

import (
	"bytes"
	"context"
	"io"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/agentlab/core"
)

type fakeAPI struct {
	objects map[string]fakeObject
}

type fakeObject struct {
	data        []byte
	contentType string
}

func newFakeAPI() *fakeAPI { return &fakeAPI{objects: map[string]fakeObject{}} }

func (f *fakeAPI) GetObject(_ context.Context, in *s3.GetObjectInput, _ ...func(*s3.Options)) (*s3.GetObjectOutput, error) {
	obj, ok := f.objects[aws.ToString(in.Bucket)+"/"+aws.ToString(in.Key)]
	if !ok {
		return nil, &types.NoSuchKey{}
	}
	return &s3.GetObjectOutput{
		Body:        io.NopCloser(bytes.NewReader(obj.data)),
		ContentType: aws.String(obj.contentType),
	}, nil
}

func (f *fakeAPI) PutObject(_ context.Context, in *s3.PutObjectInput, _ ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	data, err := io.ReadAll(in.Body)
	if err != nil {
		return nil, err
	}
	f.objects[aws.ToString(in.Bucket)+"/"+aws.ToString(in.Key)] = fakeObject{data: data, contentType: aws.ToString(in.ContentType)}
	return &s3.PutObjectOutput{}, nil
}

func (f *fakeAPI) HeadObject(_ context.Context, in *s3.HeadObjectInput, _ ...func(*s3.Options)) (*s3.HeadObjectOutput, error) {
	if _, ok := f.objects[aws.ToString(in.Bucket)+"/"+aws.ToString(in.Key)]; !ok {
		return nil, &types.NotFound{}
	}
	return &s3.HeadObjectOutput{}, nil
}

func (f *fakeAPI) DeleteObject(_ context.Context, in *s3.DeleteObjectInput, _ ...func(*s3.Options)) (*s3.DeleteObjectOutput, error) {
	delete(f.objects, aws.ToString(in.Bucket)+"/"+aws.ToString(in.Key))
	return &s3.DeleteObjectOutput{}, nil
}

func TestStore_ReadWriteExists(t *testing.T) {
	ctx := context.Background()
	s := NewFromAPI(newFakeAPI(), Options{Region: "eu-west-1"})

	ok, err := s.Exists(ctx, "s3://bucket/img.png")
	require.NoError(t, err)
	assert.False(t, ok)

	_, err = s.Read(ctx, "s3://bucket/img.png")
	assert.ErrorIs(t, err, core.ErrNotFound)

	require.NoError(t, s.Write(ctx, "s3://bucket/img.png", []byte{1, 2, 3}, "image/png"))

	ok, err = s.Exists(ctx, "s3://bucket/img.png")
	require.NoError(t, err)
	assert.True(t, ok)

	obj, err := s.Read(ctx, "s3://bucket/img.png")
	require.NoError(t, err)
	assert.Equal(t, []byte{1, 2, 3}, obj.Data)
	assert.Equal(t, "image/png", obj.ContentType)

	require.NoError(t, s.Delete(ctx, "s3://bucket/img.png"))
	ok, err = s.Exists(ctx, "s3://bucket/img.png")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestStore_PublicURL(t *testing.T) {
	s := NewFromAPI(newFakeAPI(), Options{Region: "eu-west-1"})
	url, err := s.PublicURL("s3://bucket/a b.png")
	require.NoError(t, err)
	assert.Equal(t, "https://bucket.s3.eu-west-1.amazonaws.com/a%20b.png", url)

	s = NewFromAPI(newFakeAPI(), Options{Endpoint: "http://localhost:9000/"})
	url, err = s.PublicURL("s3://bucket/k")
	require.NoError(t, err)
	assert.Equal(t, "http://localhost:9000/bucket/k", url)
}

func TestStore_RejectsForeignScheme(t *testing.T) {
	s := NewFromAPI(newFakeAPI(), Options{})
	assert.Error(t, s.Write(context.Background(), "gs://bucket/k", nil, ""))
}
