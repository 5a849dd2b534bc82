package health

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go/service/s3"
	"github.com/aws/aws-sdk-go/service/s3/s3manager"
	"github.com/seventv/image-editor/go/internal/configure"
	"github.com/seventv/image-editor/go/internal/global"
	s3svc "github.com/seventv/image-editor/go/internal/svc/s3"
	"github.com/seventv/image-editor/go/internal/testutil"
)

type brokenS3 struct{}

func (brokenS3) DownloadFile(context.Context, io.WriterAt, *s3.GetObjectInput) error {
	return fmt.Errorf("down")
}

func (brokenS3) UploadFile(context.Context, *s3manager.UploadInput) error {
	return fmt.Errorf("down")
}

func (brokenS3) ListBuckets(context.Context) ([]*s3.Bucket, error) {
	return nil, fmt.Errorf("down")
}

func TestHealth(t *testing.T) {
	config := &configure.Config{}
	config.Health.Enabled = true
	config.Health.Bind = "127.0.1.1:3000"

	gCtx, cancel := global.WithCancel(global.New(context.Background(), config))

	var err error
	gCtx.Inst().S3, err = s3svc.NewMock(gCtx, map[string]map[string][]byte{"output": {}})
	testutil.IsNil(t, err, "s3 init successful")

	done := New(gCtx)

	time.Sleep(time.Millisecond * 50)

	resp, err := http.DefaultClient.Get("http://127.0.1.1:3000")
	testutil.IsNil(t, err, "No error")
	_ = resp.Body.Close()
	testutil.Assert(t, http.StatusOK, resp.StatusCode, "response code")

	gCtx.Inst().S3 = brokenS3{}

	resp, err = http.DefaultClient.Get("http://127.0.1.1:3000")
	testutil.IsNil(t, err, "No error")
	_ = resp.Body.Close()
	testutil.Assert(t, http.StatusInternalServerError, resp.StatusCode, "unreachable storage fails the probe")

	cancel()

	<-done

	time.Sleep(time.Second)
}
