package s3

import (
	"context"
	"io"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/credentials"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/s3"
	"github.com/aws/aws-sdk-go/service/s3/s3manager"
	"github.com/seventv/image-editor/go/internal/instance"
)

type Options struct {
	Region      string
	Endpoint    string
	AccessToken string
	SecretKey   string
}

type Instance struct {
	session    *session.Session
	client     *s3.S3
	uploader   *s3manager.Uploader
	downloader *s3manager.Downloader
}

func New(o Options) (instance.S3, error) {
	cfg := &aws.Config{
		Region:           aws.String(o.Region),
		S3ForcePathStyle: aws.Bool(o.Endpoint != ""),
	}
	if o.Endpoint != "" {
		cfg.Endpoint = aws.String(o.Endpoint)
	}
	if o.AccessToken != "" {
		cfg.Credentials = credentials.NewStaticCredentials(o.AccessToken, o.SecretKey, "")
	}

	sess, err := session.NewSession(cfg)
	if err != nil {
		return nil, err
	}

	return &Instance{
		session:    sess,
		client:     s3.New(sess),
		uploader:   s3manager.NewUploader(sess),
		downloader: s3manager.NewDownloader(sess),
	}, nil
}

func (i *Instance) DownloadFile(ctx context.Context, output io.WriterAt, inp *s3.GetObjectInput) error {
	_, err := i.downloader.DownloadWithContext(ctx, output, inp)
	return err
}

func (i *Instance) UploadFile(ctx context.Context, inp *s3manager.UploadInput) error {
	_, err := i.uploader.UploadWithContext(ctx, inp)
	return err
}

func (i *Instance) ListBuckets(ctx context.Context) ([]*s3.Bucket, error) {
	resp, err := i.client.ListBucketsWithContext(ctx, &s3.ListBucketsInput{})
	if err != nil {
		return nil, err
	}

	return resp.Buckets, nil
}
