package image_processor

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"time"

	"github.com/seventv/image-editor/go/editor"
	"github.com/seventv/image-editor/go/internal/global"
	"github.com/seventv/image-editor/go/task"
	"go.uber.org/multierr"
	"go.uber.org/zap"
)

// Run processes tasks on a pool of worker.jobs goroutines. Results arrive in
// completion order and the channel is closed once every task is done.
func Run(gCtx global.Context, tasks []task.Task) <-chan task.Result {
	jobCount := gCtx.Config().Worker.Jobs
	if jobCount <= 0 {
		jobCount = runtime.GOMAXPROCS(0)
	}

	worker := NewWorker(gCtx)

	results := make(chan task.Result, len(tasks))
	blockers := make(chan struct{}, jobCount)

	zap.S().Infof("Starting job worker with %d jobs", jobCount)

	go func() {
		defer close(results)

		pending := make(chan struct{}, len(tasks))
		for _, t := range tasks {
			select {
			case blockers <- struct{}{}:
			case <-gCtx.Done():
				results <- process(gCtx, worker, t)
				pending <- struct{}{}
				continue
			}

			go func(t task.Task) {
				defer func() {
					<-blockers
					pending <- struct{}{}
				}()

				results <- process(gCtx, worker, t)
			}(t)
		}

		for range tasks {
			<-pending
		}
	}()

	return results
}

func process(gCtx global.Context, worker Worker, t task.Task) task.Result {
	result := task.Result{
		ID:    t.ID,
		State: task.ResultStateFailed,
	}

	if err := gCtx.Err(); err != nil {
		result.Message = err.Error()
		return result
	}

	ctx, cancel := global.WithCancel(gCtx)
	defer cancel()

	if err := worker.Work(ctx, t, &result); err != nil {
		zap.S().Errorw("task processing failed",
			"task_id", t.ID,
			"error", err,
		)
		result.Message = err.Error()
	} else {
		result.State = task.ResultStateSuccess
	}

	return result
}

// RunBatch exports the items of b one after the other into b.Dir, waiting
// worker.batch_delay_ms between items.
func RunBatch(gCtx global.Context, b task.Batch) ([]editor.BatchResult, error) {
	cfg := gCtx.Config()
	worker := NewWorker(gCtx)

	if err := os.MkdirAll(b.Dir, 0700); err != nil {
		return nil, multierr.Append(fmt.Errorf("failed at mkdir batch dir"), err)
	}

	mode := editor.BatchAbortOnError
	if cfg.Worker.ContinueOnError {
		mode = editor.BatchContinueOnError
	}

	spec := b.Export
	if spec.Quality == nil {
		spec.Quality = editor.Float64(worker.quality)
	}

	sink := editor.SinkFunc(func(ctx context.Context, filename string, enc *editor.Encoded) error {
		gCtx.Inst().Prometheus.TotalBytesUploaded(len(enc.Data))
		return os.WriteFile(filepath.Join(b.Dir, filename), enc.Data, 0600)
	})

	results, err := worker.exporter.ExportMultiple(gCtx, worker.loader, b.Items, spec, sink, editor.BatchOptions{
		Delay: time.Duration(cfg.Worker.BatchDelayMs) * time.Millisecond,
		Mode:  mode,
	})

	for _, res := range results {
		if res.Err != nil {
			zap.S().Warnw("batch item failed",
				"id", res.Item.ID,
				"ref", res.Item.Ref,
				"error", res.Err,
			)
			continue
		}

		zap.S().Infow("batch item exported",
			"id", res.Item.ID,
			"filename", res.Filename,
			"size", editor.FormatFileSize(int64(res.Size)),
		)
	}

	return results, err
}
