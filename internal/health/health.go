package health

import (
	"context"
	"time"

	"github.com/seventv/image-editor/go/internal/global"
	"github.com/valyala/fasthttp"
	"go.uber.org/zap"
)

func New(gCtx global.Context) <-chan struct{} {
	done := make(chan struct{})

	srv := fasthttp.Server{
		Handler: func(ctx *fasthttp.RequestCtx) {
			defer func() {
				if err := recover(); err != nil {
					zap.S().Errorw("panic in health",
						"panic", err,
					)
				}
			}()

			if gCtx.Inst().S3 != nil {
				lCtx, cancel := context.WithTimeout(gCtx, time.Second*5)
				_, err := gCtx.Inst().S3.ListBuckets(lCtx)
				cancel()
				if err != nil {
					zap.S().Warnw("s3 is not responding",
						"error", err,
					)
					ctx.SetStatusCode(fasthttp.StatusInternalServerError)
					return
				}
			}

			ctx.SetStatusCode(fasthttp.StatusOK)
		},
	}

	go func() {
		defer close(done)
		zap.S().Infow("Health enabled",
			"bind", gCtx.Config().Health.Bind,
		)

		if err := srv.ListenAndServe(gCtx.Config().Health.Bind); err != nil {
			zap.S().Fatalw("failed to bind health",
				"error", err,
			)
		}
	}()

	go func() {
		<-gCtx.Done()

		_ = srv.Shutdown()
	}()

	return done
}
