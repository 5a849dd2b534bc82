package s3

import (
	"context"
	"fmt"
	"io"
	"sync"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/service/s3"
	"github.com/aws/aws-sdk-go/service/s3/s3manager"
)

// MockInstance keeps objects in memory, bucket -> key -> data.
type MockInstance struct {
	mtx   sync.Mutex
	files map[string]map[string][]byte
	meta  map[string]map[string]*s3manager.UploadInput
}

func NewMock(ctx context.Context, files map[string]map[string][]byte) (*MockInstance, error) {
	if files == nil {
		files = map[string]map[string][]byte{}
	}

	return &MockInstance{
		files: files,
		meta:  map[string]map[string]*s3manager.UploadInput{},
	}, nil
}

func (i *MockInstance) DownloadFile(ctx context.Context, output io.WriterAt, inp *s3.GetObjectInput) error {
	i.mtx.Lock()
	defer i.mtx.Unlock()

	bucket, ok := i.files[aws.StringValue(inp.Bucket)]
	if !ok {
		return fmt.Errorf("bucket not found: %s", aws.StringValue(inp.Bucket))
	}

	data, ok := bucket[aws.StringValue(inp.Key)]
	if !ok {
		return fmt.Errorf("key not found: %s", aws.StringValue(inp.Key))
	}

	_, err := output.WriteAt(data, 0)

	return err
}

func (i *MockInstance) UploadFile(ctx context.Context, inp *s3manager.UploadInput) error {
	data, err := io.ReadAll(inp.Body)
	if err != nil {
		return err
	}

	i.mtx.Lock()
	defer i.mtx.Unlock()

	name := aws.StringValue(inp.Bucket)
	if _, ok := i.files[name]; !ok {
		return fmt.Errorf("bucket not found: %s", name)
	}

	i.files[name][aws.StringValue(inp.Key)] = data
	if i.meta[name] == nil {
		i.meta[name] = map[string]*s3manager.UploadInput{}
	}
	i.meta[name][aws.StringValue(inp.Key)] = inp

	return nil
}

func (i *MockInstance) ListBuckets(ctx context.Context) ([]*s3.Bucket, error) {
	i.mtx.Lock()
	defer i.mtx.Unlock()

	buckets := make([]*s3.Bucket, 0, len(i.files))
	for k := range i.files {
		buckets = append(buckets, &s3.Bucket{Name: aws.String(k)})
	}

	return buckets, nil
}

// Object returns a stored object and the upload input it was stored with.
func (i *MockInstance) Object(bucket, key string) ([]byte, *s3manager.UploadInput, bool) {
	i.mtx.Lock()
	defer i.mtx.Unlock()

	data, ok := i.files[bucket][key]

	return data, i.meta[bucket][key], ok
}
