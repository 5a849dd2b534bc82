package s3

import (
	"context"
	"fmt"
	"strings"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/service/s3"
	"github.com/seventv/image-editor/go/internal/instance"
)

// Fetcher resolves "s3://bucket/key" references through an S3 instance.
type Fetcher struct {
	S3 instance.S3
}

func (f Fetcher) Fetch(ctx context.Context, ref string) ([]byte, error) {
	bucket, key, err := ParseRef(ref)
	if err != nil {
		return nil, err
	}

	buf := aws.NewWriteAtBuffer([]byte{})
	if err := f.S3.DownloadFile(ctx, buf, &s3.GetObjectInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(key),
	}); err != nil {
		return nil, err
	}

	return buf.Bytes(), nil
}

func ParseRef(ref string) (bucket string, key string, err error) {
	rest := strings.TrimPrefix(ref, "s3://")
	bucket, key, ok := strings.Cut(rest, "/")
	if !ok || bucket == "" || key == "" {
		return "", "", fmt.Errorf("malformed s3 reference %q", ref)
	}

	return bucket, key, nil
}
