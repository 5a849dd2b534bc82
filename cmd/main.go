package main

import (
	"context"
	"encoding/json"
	"os"
	"os/signal"
	"runtime"
	"runtime/debug"
	"strconv"
	"sync"
	"syscall"
	"time"

	"github.com/bugsnag/panicwrap"
	"github.com/seventv/image-editor/go/internal/configure"
	"github.com/seventv/image-editor/go/internal/global"
	"github.com/seventv/image-editor/go/internal/health"
	"github.com/seventv/image-editor/go/internal/image_processor"
	"github.com/seventv/image-editor/go/internal/monitoring"
	"github.com/seventv/image-editor/go/internal/svc/prometheus"
	"github.com/seventv/image-editor/go/internal/svc/s3"
	"github.com/seventv/image-editor/go/task"
	"go.uber.org/zap"
)

var (
	Version = "development"
	Unix    = ""
	Time    = "unknown"
	User    = "unknown"
)

func init() {
	debug.SetGCPercent(2000)
	if i, err := strconv.Atoi(Unix); err == nil {
		Time = time.Unix(int64(i), 0).Format(time.RFC3339)
	}
}

func main() {
	config := configure.New()

	exitStatus, err := panicwrap.BasicWrap(func(s string) {
		zap.S().Error("panic: ", s)
	})
	if err != nil {
		zap.S().Errorw("failed to setup panic handler: ",
			"error", err,
		)
		os.Exit(2)
	}

	if exitStatus >= 0 {
		os.Exit(exitStatus)
	}

	if !config.NoHeader {
		zap.S().Info("Image Editor")
		zap.S().Infof("Version: %s", Version)
		zap.S().Infof("build.Time: %s", Time)
		zap.S().Infof("build.User: %s", User)
	}

	zap.S().Debug("MaxProcs: ", runtime.GOMAXPROCS(0))

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)

	gCtx, cancel := global.WithCancel(global.New(context.Background(), config))

	gCtx.Inst().Prometheus = prometheus.New(prometheus.Options{
		Labels: config.Monitoring.Labels.ToPrometheus(),
	})

	if config.S3Enabled() {
		gCtx.Inst().S3, err = s3.New(s3.Options{
			Region:      config.S3.Region,
			Endpoint:    config.S3.Endpoint,
			AccessToken: config.S3.AccessToken,
			SecretKey:   config.S3.SecretKey,
		})
		if err != nil {
			zap.S().Fatalw("failed to setup s3",
				"error", err,
			)
		}
	}

	manifest, err := task.LoadManifest(config.Tasks)
	if err != nil {
		zap.S().Fatalw("failed to load tasks",
			"file", config.Tasks,
			"error", err,
		)
	}

	wg := sync.WaitGroup{}

	if gCtx.Config().Health.Enabled {
		wg.Add(1)
		go func() {
			defer wg.Done()
			<-health.New(gCtx)
		}()
	}
	if gCtx.Config().Monitoring.Enabled {
		wg.Add(1)
		go func() {
			defer wg.Done()
			<-monitoring.New(gCtx)
		}()
	}

	go func() {
		<-sig
		cancel()
		go func() {
			select {
			case <-time.After(time.Minute):
			case <-sig:
			}
			zap.S().Fatal("force shutdown")
		}()

		zap.S().Info("shutting down")
	}()

	zap.S().Infow("running",
		"tasks", len(manifest.Tasks),
		"batch", manifest.Batch != nil,
	)

	failed := 0
	results := []task.Result{}
	for result := range image_processor.Run(gCtx, manifest.Tasks) {
		if result.State != task.ResultStateSuccess {
			failed++
		}

		zap.S().Infow("task finished",
			"task_id", result.ID,
			"state", result.State.String(),
			"outputs", len(result.ImageOutputs),
		)

		results = append(results, result)
	}

	if manifest.Batch != nil {
		if _, err := image_processor.RunBatch(gCtx, *manifest.Batch); err != nil {
			failed++
			zap.S().Errorw("batch export failed",
				"error", err,
			)
		}
	}

	if err := writeResults(config.Results, results); err != nil {
		zap.S().Errorw("failed to write results",
			"file", config.Results,
			"error", err,
		)
		failed++
	}

	cancel()
	wg.Wait()

	zap.S().Infow("shutdown",
		"failed", failed,
	)

	if failed != 0 {
		os.Exit(1)
	}

	os.Exit(0)
}

func writeResults(file string, results []task.Result) error {
	data, err := json.MarshalIndent(results, "", "  ")
	if err != nil {
		return err
	}

	if file == "-" {
		_, err = os.Stdout.Write(append(data, '\n'))
		return err
	}

	return os.WriteFile(file, data, 0600)
}
