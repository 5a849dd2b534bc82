package prometheus

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegisterAndCount(t *testing.T) {
	inst := New(Options{Labels: prometheus.Labels{"pod": "test"}}).(*Instance)

	reg := prometheus.NewRegistry()
	require.NotPanics(t, func() { inst.Register(reg) }, "metrics sharing a name register together")

	finish := inst.StartTask()
	assert.Equal(t, 1.0, testutil.ToFloat64(inst.currentTasks))
	finish(true)
	assert.Equal(t, 0.0, testutil.ToFloat64(inst.currentTasks))
	assert.Equal(t, 1.0, testutil.ToFloat64(inst.totalSuccessfulTasks))
	assert.Equal(t, 0.0, testutil.ToFloat64(inst.totalFailedTasks))

	inst.StartTask()(false)
	assert.Equal(t, 1.0, testutil.ToFloat64(inst.totalFailedTasks))

	inst.TotalBytesDownloaded(10)
	inst.TotalBytesUploaded(32)
	assert.Equal(t, 10.0, testutil.ToFloat64(inst.totalBytesDownloaded))
	assert.Equal(t, 32.0, testutil.ToFloat64(inst.totalBytesUploaded))

	inst.InputFileType("image/png")
	inst.InputFileType("image/png")
	assert.Equal(t, 2.0, testutil.ToFloat64(inst.inputFileTypes.WithLabelValues("image/png")))

	inst.DecodeImage()()
	assert.Equal(t, 1, testutil.CollectAndCount(inst.decodeImageDurationSeconds))
}
