package image_processor

import (
	"bytes"
	"context"
	"encoding/hex"
	"fmt"
	"os"
	"path"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/service/s3/s3manager"
	"github.com/seventv/image-editor/go/container"
	"github.com/seventv/image-editor/go/editor"
	"github.com/seventv/image-editor/go/internal/global"
	"github.com/seventv/image-editor/go/internal/svc/s3"
	"github.com/seventv/image-editor/go/task"
	"go.uber.org/multierr"
	"go.uber.org/zap"
	"golang.org/x/crypto/sha3"
)

type Worker struct {
	loader   *editor.Loader
	exporter *editor.Exporter
	quality  float64
}

// NewWorker builds a worker from the configuration of gCtx. When an S3
// instance is present, "s3://bucket/key" inputs are resolved through it.
func NewWorker(gCtx global.Context) Worker {
	cfg := gCtx.Config()

	opts := []editor.LoaderOption{
		editor.WithHTTPTimeout(time.Duration(cfg.Fetch.TimeoutSeconds) * time.Second),
		editor.WithMaxBytes(cfg.Fetch.MaxBodyBytes),
	}
	if gCtx.Inst().S3 != nil {
		opts = append(opts, editor.WithFetcher("s3", s3.Fetcher{S3: gCtx.Inst().S3}))
	}

	style := editor.DefaultWatermarkStyle()
	if wm := cfg.Editor.Watermark; wm.FontDivisor > 0 {
		style.FontDivisor = wm.FontDivisor
		style.MinFontSize = wm.MinFontSize
		style.Padding = wm.Padding
		style.StrokeWidth = wm.StrokeWidth
	}

	return Worker{
		loader:   editor.NewLoader(opts...),
		exporter: editor.NewExporter(style),
		quality:  cfg.Editor.DefaultQuality,
	}
}

type output struct {
	name     string
	platform editor.Platform
	enc      *editor.Encoded
}

func (w Worker) Work(ctx global.Context, tsk task.Task, result *task.Result) (err error) {
	if result == nil {
		return fmt.Errorf("nil for result")
	}

	zap.S().Debugw("starting new task",
		"task_id", tsk.ID,
	)

	finish := ctx.Inst().Prometheus.StartTask()
	result.StartedAt = time.Now()

	defer func() {
		if pnk := recover(); pnk != nil {
			err = multierr.Append(fmt.Errorf("panic at runtime: %v", pnk), err)
		}

		result.FinishedAt = time.Now()

		finish(err == nil)
	}()

	timeout := tsk.Limits.MaxProcessingTime
	if timeout <= 0 {
		timeout = time.Duration(ctx.Config().Worker.TimeoutSeconds) * time.Second
	}
	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = global.WithTimeout(ctx, timeout)
		defer cancel()
	}

	done := ctx.Inst().Prometheus.DownloadFile()

	raw, err := w.loader.Fetch(ctx, tsk.Input.Reference())
	if err != nil {
		return multierr.Append(fmt.Errorf("failed at download file"), err)
	}

	done()

	if tsk.Limits.MaxInputBytes != 0 && len(raw) > tsk.Limits.MaxInputBytes {
		return fmt.Errorf("file is too big (%d bytes where the limit is %d)", len(raw), tsk.Limits.MaxInputBytes)
	}

	match := container.Match(raw)

	ctx.Inst().Prometheus.InputFileType(match.MIME.Value)
	ctx.Inst().Prometheus.TotalBytesDownloaded(len(raw))

	zap.S().Debugw("downloaded file",
		"content_type", match.MIME.Value,
		"size", len(raw),
		"task_id", tsk.ID,
	)

	done = ctx.Inst().Prometheus.DecodeImage()

	img, err := editor.Decode(raw)
	if err != nil {
		return multierr.Append(fmt.Errorf("failed at decode image"), err)
	}

	done()

	width, height := img.Width(), img.Height()

	zap.S().Debugw("decoded image",
		"width", width,
		"height", height,
		"task_id", tsk.ID,
	)

	if (tsk.Limits.MaxWidth != 0 && tsk.Limits.MaxWidth < width) || (tsk.Limits.MaxHeight != 0 && tsk.Limits.MaxHeight < height) {
		return fmt.Errorf("file dimensions are too big (%dx%d where the limit is %dx%d)", width, height, tsk.Limits.MaxWidth, tsk.Limits.MaxHeight)
	}

	result.ImageInput = task.ResultFile{
		Name:        "input",
		SHA3:        hash(raw),
		ContentType: match.MIME.Value,
		Size:        len(raw),
		Width:       width,
		Height:      height,
	}

	done = ctx.Inst().Prometheus.TransformImage()

	img, err = task.ApplyAll(img, tsk.Operations)
	if err != nil {
		return multierr.Append(fmt.Errorf("failed at transform image"), err)
	}

	done()

	ctx.Inst().Prometheus.TotalOperationsApplied(len(tsk.Operations))

	zap.S().Debugw("applied operations",
		"operations", len(tsk.Operations),
		"task_id", tsk.ID,
	)

	done = ctx.Inst().Prometheus.ExportImage()

	outputs, err := w.export(ctx, tsk, img)
	if err != nil {
		return multierr.Append(fmt.Errorf("failed at export image"), err)
	}

	done()

	done = ctx.Inst().Prometheus.UploadResults()

	err = w.uploadResults(ctx, tsk, outputs, result)
	if err != nil {
		return multierr.Append(fmt.Errorf("failed at upload results"), err)
	}

	zap.S().Debugw("uploaded results",
		"outputs", len(outputs),
		"task_id", tsk.ID,
	)

	done()

	return nil
}

func (w Worker) export(ctx context.Context, tsk task.Task, img *editor.Raster) (outputs []output, err error) {
	defer func() {
		if pnk := recover(); pnk != nil {
			err = multierr.Append(fmt.Errorf("panic at runtime: %v", pnk), err)
		}
	}()

	title := tsk.Input.Title
	if title == "" {
		title = tsk.ID
	}

	base := strings.TrimSuffix(editor.GenerateFilename(title, time.Now()), ".jpg")

	spec := tsk.Export
	if spec.Quality == nil {
		spec.Quality = task.OutputQuality(tsk.Operations)
	}
	if spec.Quality == nil {
		spec.Quality = editor.Float64(w.quality)
	}

	enc, err := w.exporter.Export(ctx, img, spec)
	if err != nil {
		return nil, err
	}

	outputs = append(outputs, output{
		name: base + "." + enc.Format.Extension(),
		enc:  enc,
	})

	for _, p := range tsk.Platforms {
		if _, ok := editor.PlatformProfile(p); !ok {
			zap.S().Warnw("unknown platform, using the instagram profile",
				"platform", p,
				"task_id", tsk.ID,
			)
		}

		enc, err := w.exporter.OptimizeForPlatform(ctx, img, p)
		if err != nil {
			return nil, multierr.Append(fmt.Errorf("failed at platform %s", p), err)
		}

		outputs = append(outputs, output{
			name:     fmt.Sprintf("%s-%s.%s", base, p, enc.Format.Extension()),
			platform: p,
			enc:      enc,
		})
	}

	return outputs, nil
}

func (Worker) uploadResults(ctx global.Context, tsk task.Task, outputs []output, result *task.Result) (err error) {
	defer func() {
		if pnk := recover(); pnk != nil {
			err = multierr.Append(fmt.Errorf("panic at runtime: %v", pnk), err)
		}
	}()

	if tsk.Output.Bucket == "" && tsk.Output.Dir == "" {
		return fmt.Errorf("task has no output bucket or dir")
	}

	if tsk.Output.Bucket != "" && ctx.Inst().S3 == nil {
		return fmt.Errorf("output bucket %s requested but s3 is not configured", tsk.Output.Bucket)
	}

	if tsk.Output.Bucket == "" {
		if err := os.MkdirAll(tsk.Output.Dir, 0700); err != nil {
			return multierr.Append(fmt.Errorf("failed at mkdir output dir"), err)
		}
	}

	var (
		uploadErr error
		mtx       sync.Mutex
		wg        sync.WaitGroup
	)

	files := make([]task.ResultFile, len(outputs))

	upload := func(i int, out output) {
		defer wg.Done()
		defer func() {
			if pnk := recover(); pnk != nil {
				mtx.Lock()
				defer mtx.Unlock()

				uploadErr = multierr.Append(fmt.Errorf("panic at runtime: %v", pnk), uploadErr)
			}
		}()

		data := out.enc.Data

		file := task.ResultFile{
			Name:        out.name,
			SHA3:        hash(data),
			ContentType: out.enc.ContentType(),
			Size:        len(data),
			Platform:    string(out.platform),
			Width:       out.enc.Width,
			Height:      out.enc.Height,
		}

		if tsk.Output.Bucket != "" {
			file.Key = path.Join(tsk.Output.Prefix, out.name)
			file.Bucket = tsk.Output.Bucket
			file.ACL = tsk.Output.ACL
			file.CacheControl = tsk.Output.CacheControl

			if err := ctx.Inst().S3.UploadFile(ctx, &s3manager.UploadInput{
				Body:         bytes.NewReader(data),
				ACL:          aws.String(tsk.Output.ACL),
				Bucket:       aws.String(tsk.Output.Bucket),
				CacheControl: aws.String(tsk.Output.CacheControl),
				ContentType:  aws.String(file.ContentType),
				Key:          aws.String(file.Key),
			}); err != nil {
				mtx.Lock()
				uploadErr = multierr.Append(fmt.Errorf("failed at s3 upload %s", file.Key), multierr.Append(err, uploadErr))
				mtx.Unlock()
				return
			}
		} else {
			file.Path = filepath.Join(tsk.Output.Dir, tsk.Output.Prefix+out.name)

			if err := os.WriteFile(file.Path, data, 0600); err != nil {
				mtx.Lock()
				uploadErr = multierr.Append(fmt.Errorf("failed at write %s", file.Path), multierr.Append(err, uploadErr))
				mtx.Unlock()
				return
			}
		}

		ctx.Inst().Prometheus.TotalBytesUploaded(len(data))

		files[i] = file
	}

	for i, out := range outputs {
		wg.Add(1)
		go upload(i, out)
	}

	wg.Wait()

	if uploadErr != nil {
		return uploadErr
	}

	result.ImageOutputs = files

	return nil
}

func hash(data []byte) string {
	h := sha3.New512()
	_, _ = h.Write(data)

	return hex.EncodeToString(h.Sum(nil))
}
