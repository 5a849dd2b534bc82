package s3

import (
	"bytes"
	"context"
	"testing"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/service/s3/s3manager"
	"github.com/seventv/image-editor/go/internal/testutil"
)

func TestMockRoundTrip(t *testing.T) {
	ctx := context.Background()

	mock, err := NewMock(ctx, map[string]map[string][]byte{
		"input":  {"a.png": []byte("hello")},
		"output": {},
	})
	testutil.IsNil(t, err, "mock init")

	data, err := Fetcher{S3: mock}.Fetch(ctx, "s3://input/a.png")
	testutil.IsNil(t, err, "fetch existing key")
	testutil.Assert(t, "hello", string(data), "fetched bytes")

	_, err = Fetcher{S3: mock}.Fetch(ctx, "s3://input/b.png")
	testutil.IsErr(t, err, "missing key")

	err = mock.UploadFile(ctx, &s3manager.UploadInput{
		Bucket:      aws.String("output"),
		Key:         aws.String("dir/out.jpg"),
		ContentType: aws.String("image/jpeg"),
		Body:        bytes.NewReader([]byte("jpeg")),
	})
	testutil.IsNil(t, err, "upload")

	out, inp, ok := mock.Object("output", "dir/out.jpg")
	testutil.Assert(t, true, ok, "object stored")
	testutil.Assert(t, "jpeg", string(out), "stored bytes")
	testutil.Assert(t, "image/jpeg", aws.StringValue(inp.ContentType), "content type kept")

	err = mock.UploadFile(ctx, &s3manager.UploadInput{Bucket: aws.String("nope"), Key: aws.String("x"), Body: bytes.NewReader(nil)})
	testutil.IsErr(t, err, "unknown bucket")

	buckets, err := mock.ListBuckets(ctx)
	testutil.IsNil(t, err, "list buckets")
	testutil.Assert(t, 2, len(buckets), "bucket count")
}

func TestParseRef(t *testing.T) {
	bucket, key, err := ParseRef("s3://art/2024/cover.png")
	testutil.IsNil(t, err, "valid ref")
	testutil.Assert(t, "art", bucket, "bucket")
	testutil.Assert(t, "2024/cover.png", key, "key keeps slashes")

	for _, ref := range []string{"s3://", "s3://bucket", "s3:///key"} {
		_, _, err := ParseRef(ref)
		testutil.IsErr(t, err, ref)
	}
}
