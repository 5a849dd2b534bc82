package image_processor

import (
	"bytes"
	"context"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"github.com/seventv/image-editor/go/editor"
	"github.com/seventv/image-editor/go/internal/configure"
	"github.com/seventv/image-editor/go/internal/global"
	"github.com/seventv/image-editor/go/internal/svc/prometheus"
	"github.com/seventv/image-editor/go/internal/svc/s3"
	"github.com/seventv/image-editor/go/internal/testutil"
	"github.com/seventv/image-editor/go/task"
)

func setup(t *testing.T, gCtx global.Context) *s3.MockInstance {
	gCtx.Inst().Prometheus = prometheus.New(prometheus.Options{})

	mock, err := s3.NewMock(gCtx, map[string]map[string][]byte{
		"input": {
			"landscape.png": testutil.PNG(t, testutil.Gradient(400, 200)),
			"notes.txt":     []byte("this is not an image"),
		},
		"output": {},
	})
	testutil.IsNil(t, err, "s3 init successful")

	gCtx.Inst().S3 = mock

	return mock
}

func newContext() (global.Context, context.CancelFunc) {
	config := configure.Default()
	config.Worker.Jobs = 2

	return global.WithCancel(global.New(context.Background(), &config))
}

func TestWorkS3(t *testing.T) {
	gCtx, cancel := newContext()
	defer cancel()
	mock := setup(t, gCtx)

	result := task.Result{}
	err := NewWorker(gCtx).Work(gCtx, task.Task{
		ID: "cover",
		Input: task.TaskInput{
			Bucket: "input",
			Key:    "landscape.png",
			Title:  "Blue Hour",
		},
		Operations: []task.Operation{
			{Type: task.OperationCropRatio, Ratio: "square"},
			{Type: task.OperationPreset, Preset: editor.PresetWarm},
		},
		Export: editor.ExportSpec{
			Format:    editor.FormatPNG,
			MaxWidth:  100,
			Watermark: &editor.WatermarkSpec{Text: "Studio"},
		},
		Platforms: []editor.Platform{editor.PlatformTwitter},
		Output: task.TaskOutput{
			Bucket:       "output",
			Prefix:       "exports",
			CacheControl: "public, max-age=60",
		},
	}, &result)
	testutil.IsNil(t, err, "task processed")

	testutil.Assert(t, 400, result.ImageInput.Width, "input width recorded")
	testutil.Assert(t, "image/png", result.ImageInput.ContentType, "input type sniffed")
	testutil.Assert(t, 128, len(result.ImageInput.SHA3), "sha3-512 hex digest")
	testutil.Assert(t, 2, len(result.ImageOutputs), "primary output and one platform output")

	primary := result.ImageOutputs[0]
	testutil.Assert(t, 100, primary.Width, "primary output is bounded")
	testutil.Assert(t, 100, primary.Height, "square crop survives")
	testutil.Assert(t, "image/png", primary.ContentType, "primary output format")
	testutil.Assert(t, "output", primary.Bucket, "uploaded to output bucket")

	data, inp, ok := mock.Object("output", primary.Key)
	testutil.Assert(t, true, ok, "primary output stored under its key")
	testutil.Assert(t, primary.Size, len(data), "stored size matches")
	testutil.Assert(t, "public, max-age=60", *inp.CacheControl, "cache control forwarded")

	cfg, err := png.DecodeConfig(bytes.NewReader(data))
	testutil.IsNil(t, err, "stored output decodes")
	testutil.Assert(t, 100, cfg.Width, "stored output width")

	social := result.ImageOutputs[1]
	testutil.Assert(t, "twitter", social.Platform, "platform recorded")
	testutil.Assert(t, 200, social.Width, "square fits the twitter box by height")
	testutil.Assert(t, "image/jpeg", social.ContentType, "platform exports are jpeg")
}

func TestWorkLocalDir(t *testing.T) {
	gCtx, cancel := newContext()
	defer cancel()
	setup(t, gCtx)

	dir := t.TempDir()
	input := filepath.Join(dir, "in.png")
	testutil.IsNil(t, os.WriteFile(input, testutil.PNG(t, testutil.Gradient(60, 40)), 0600), "write input")

	result := task.Result{}
	err := NewWorker(gCtx).Work(gCtx, task.Task{
		ID:         "local",
		Input:      task.TaskInput{Ref: input},
		Operations: []task.Operation{{Type: task.OperationRotate, Degrees: 90}},
		Output:     task.TaskOutput{Dir: filepath.Join(dir, "out")},
	}, &result)
	testutil.IsNil(t, err, "task processed")

	testutil.Assert(t, 1, len(result.ImageOutputs), "one output")
	out := result.ImageOutputs[0]
	testutil.Assert(t, 40, out.Width, "rotated width")
	testutil.Assert(t, 60, out.Height, "rotated height")

	data := testutil.ReadFile(t, out.Path)
	testutil.Assert(t, out.Size, len(data), "file written")
}

func TestWorkResizeQuality(t *testing.T) {
	gCtx, cancel := newContext()
	defer cancel()
	setup(t, gCtx)

	dir := t.TempDir()

	sizes := map[string]int{}
	for name, quality := range map[string]*float64{"default": nil, "low": editor.Float64(0.3)} {
		result := task.Result{}
		err := NewWorker(gCtx).Work(gCtx, task.Task{
			ID:    name,
			Input: task.TaskInput{Bucket: "input", Key: "landscape.png", Title: name},
			Operations: []task.Operation{
				{Type: task.OperationResize, Resize: &editor.ResizeSpec{Width: 200, Quality: quality}},
			},
			Output: task.TaskOutput{Dir: dir},
		}, &result)
		testutil.IsNil(t, err, name)
		testutil.Assert(t, "image/jpeg", result.ImageOutputs[0].ContentType, "jpeg output")

		sizes[name] = result.ImageOutputs[0].Size
	}

	testutil.Assert(t, true, sizes["low"] < sizes["default"], "resize quality drives the export quality")
}

func TestWorkFailures(t *testing.T) {
	gCtx, cancel := newContext()
	defer cancel()
	setup(t, gCtx)

	tests := []struct {
		name string
		tsk  task.Task
	}{
		{"missing key", task.Task{Input: task.TaskInput{Bucket: "input", Key: "nope.png"}, Output: task.TaskOutput{Bucket: "output"}}},
		{"not an image", task.Task{Input: task.TaskInput{Bucket: "input", Key: "notes.txt"}, Output: task.TaskOutput{Bucket: "output"}}},
		{"too wide", task.Task{
			Input:  task.TaskInput{Bucket: "input", Key: "landscape.png"},
			Output: task.TaskOutput{Bucket: "output"},
			Limits: task.TaskLimits{MaxWidth: 100},
		}},
		{"too big", task.Task{
			Input:  task.TaskInput{Bucket: "input", Key: "landscape.png"},
			Output: task.TaskOutput{Bucket: "output"},
			Limits: task.TaskLimits{MaxInputBytes: 10},
		}},
		{"bad crop", task.Task{
			Input:      task.TaskInput{Bucket: "input", Key: "landscape.png"},
			Operations: []task.Operation{{Type: task.OperationCrop, Crop: &editor.CropSpec{X: 390, Width: 20, Height: 20}}},
			Output:     task.TaskOutput{Bucket: "output"},
		}},
		{"no output", task.Task{Input: task.TaskInput{Bucket: "input", Key: "landscape.png"}}},
		{"unknown bucket", task.Task{Input: task.TaskInput{Bucket: "input", Key: "landscape.png"}, Output: task.TaskOutput{Bucket: "elsewhere"}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := task.Result{}
			err := NewWorker(gCtx).Work(gCtx, tt.tsk, &result)
			testutil.IsErr(t, err, tt.name)
			testutil.Assert(t, false, result.FinishedAt.IsZero(), "finish time is always set")
		})
	}
}
