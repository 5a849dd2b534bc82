package monitoring

import (
	"context"
	"strings"
	"testing"

	"github.com/seventv/image-editor/go/internal/configure"
	"github.com/seventv/image-editor/go/internal/global"
	"github.com/seventv/image-editor/go/internal/svc/prometheus"
	"github.com/seventv/image-editor/go/internal/testutil"
	"github.com/valyala/fasthttp"
)

func TestHandler(t *testing.T) {
	gCtx, cancel := global.WithCancel(global.New(context.Background(), &configure.Config{}))
	defer cancel()

	gCtx.Inst().Prometheus = prometheus.New(prometheus.Options{})
	gCtx.Inst().Prometheus.StartTask()(true)

	handler := Handler(NewRegistry(gCtx))

	ctx := &fasthttp.RequestCtx{}
	ctx.Request.SetRequestURI("/metrics")
	handler(ctx)

	testutil.Assert(t, fasthttp.StatusOK, ctx.Response.StatusCode(), "metrics are served")

	body := string(ctx.Response.Body())
	testutil.Assert(t, true, strings.Contains(body, "image_editor_total_tasks"), "task counter is exported")
	testutil.Assert(t, true, strings.Contains(body, "go_goroutines"), "runtime collectors are exported")
}
