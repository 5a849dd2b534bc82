package prometheus

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/seventv/image-editor/go/internal/instance"
)

type Options struct {
	Labels prometheus.Labels
}

func copyLabels(p prometheus.Labels) prometheus.Labels {
	x := prometheus.Labels{}
	for k, v := range p {
		x[k] = v
	}

	return x
}

func New(o Options) instance.Prometheus {
	totalSuccessfulTasks := copyLabels(o.Labels)
	totalFailedTasks := copyLabels(o.Labels)
	currentTasks := copyLabels(o.Labels)
	taskDurationSeconds := copyLabels(o.Labels)
	totalBytesDownloaded := copyLabels(o.Labels)
	totalBytesUploaded := copyLabels(o.Labels)
	totalOperationsApplied := copyLabels(o.Labels)
	downloadFileDuration := copyLabels(o.Labels)
	transformImageDuration := copyLabels(o.Labels)
	decodeImageDuration := copyLabels(o.Labels)
	exportImageDuration := copyLabels(o.Labels)
	uploadResultsDuration := copyLabels(o.Labels)
	inputFileTypes := copyLabels(o.Labels)

	totalSuccessfulTasks["state"] = "successful"
	totalFailedTasks["state"] = "failed"

	totalBytesDownloaded["state"] = "downloaded"
	totalBytesUploaded["state"] = "uploaded"

	return &Instance{
		totalSuccessfulTasks: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace:   "image_editor",
			Name:        "total_tasks",
			Help:        "The total number of tasks by state",
			ConstLabels: totalSuccessfulTasks,
		}),
		totalFailedTasks: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace:   "image_editor",
			Name:        "total_tasks",
			Help:        "The total number of tasks by state",
			ConstLabels: totalFailedTasks,
		}),
		currentTasks: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace:   "image_editor",
			Name:        "current_tasks",
			Help:        "The current number of request",
			ConstLabels: currentTasks,
		}),
		taskDurationSeconds: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace:   "image_editor",
			Name:        "task_duration_seconds",
			Help:        "The seconds spent running tasks",
			ConstLabels: taskDurationSeconds,
		}),
		downloadFileDurationSeconds: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace:   "image_editor",
			Name:        "download_file_duration_seconds",
			Help:        "The seconds spent downloading files",
			ConstLabels: downloadFileDuration,
		}),
		decodeImageDurationSeconds: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace:   "image_editor",
			Name:        "decode_image_duration_seconds",
			Help:        "The seconds spent decoding input images",
			ConstLabels: decodeImageDuration,
		}),
		transformImageDurationSeconds: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace:   "image_editor",
			Name:        "transform_image_duration_seconds",
			Help:        "The seconds spent applying edit operations",
			ConstLabels: transformImageDuration,
		}),
		exportImageDurationSeconds: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace:   "image_editor",
			Name:        "export_image_duration_seconds",
			Help:        "The seconds spent watermarking and encoding outputs",
			ConstLabels: exportImageDuration,
		}),
		uploadResultsDurationSeconds: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace:   "image_editor",
			Name:        "upload_results_duration_seconds",
			Help:        "The seconds spent uploading results",
			ConstLabels: uploadResultsDuration,
		}),
		totalBytesDownloaded: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace:   "image_editor",
			Name:        "total_bytes",
			Help:        "The total number of bytes transferred by direction",
			ConstLabels: totalBytesDownloaded,
		}),
		totalBytesUploaded: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace:   "image_editor",
			Name:        "total_bytes",
			Help:        "The total number of bytes transferred by direction",
			ConstLabels: totalBytesUploaded,
		}),
		inputFileTypes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace:   "image_editor",
			Name:        "input_file_types",
			Help:        "The number of inputs by detected content type",
			ConstLabels: inputFileTypes,
		}, []string{"content_type"}),
		totalOperationsApplied: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace:   "image_editor",
			Name:        "total_operations",
			Help:        "The total number of edit operations applied",
			ConstLabels: totalOperationsApplied,
		}),
	}
}

type Instance struct {
	totalSuccessfulTasks prometheus.Counter
	totalFailedTasks     prometheus.Counter
	currentTasks         prometheus.Gauge
	taskDurationSeconds  prometheus.Histogram

	downloadFileDurationSeconds   prometheus.Histogram
	decodeImageDurationSeconds    prometheus.Histogram
	transformImageDurationSeconds prometheus.Histogram
	exportImageDurationSeconds    prometheus.Histogram
	uploadResultsDurationSeconds  prometheus.Histogram

	totalBytesDownloaded   prometheus.Counter
	totalBytesUploaded     prometheus.Counter
	totalOperationsApplied prometheus.Counter
	inputFileTypes         *prometheus.CounterVec
}

func (m *Instance) Register(r prometheus.Registerer) {
	r.MustRegister(
		m.currentTasks,
		m.taskDurationSeconds,
		m.totalFailedTasks,
		m.totalSuccessfulTasks,

		m.downloadFileDurationSeconds,
		m.transformImageDurationSeconds,
		m.decodeImageDurationSeconds,
		m.exportImageDurationSeconds,
		m.uploadResultsDurationSeconds,

		m.totalBytesDownloaded,
		m.totalBytesUploaded,
		m.totalOperationsApplied,
		m.inputFileTypes,
	)
}

func (m *Instance) StartTask() func(success bool) {
	start := time.Now()
	m.currentTasks.Inc()

	return func(success bool) {
		if success {
			m.totalSuccessfulTasks.Inc()
		} else {
			m.totalFailedTasks.Inc()
		}
		m.currentTasks.Dec()
		m.taskDurationSeconds.Observe(float64(time.Since(start)/time.Millisecond) / 1000)
	}
}

func (m *Instance) TotalBytesDownloaded(bytes int) {
	m.totalBytesDownloaded.Add(float64(bytes))
}

func (m *Instance) TotalBytesUploaded(bytes int) {
	m.totalBytesUploaded.Add(float64(bytes))
}

func (m *Instance) TotalOperationsApplied(n int) {
	m.totalOperationsApplied.Add(float64(n))
}

func (m *Instance) InputFileType(mime string) {
	m.inputFileTypes.WithLabelValues(mime).Inc()
}

func (m *Instance) DownloadFile() func() {
	start := time.Now()

	return func() {
		m.downloadFileDurationSeconds.Observe(float64(time.Since(start)/time.Millisecond) / 1000)
	}
}

func (m *Instance) TransformImage() func() {
	start := time.Now()

	return func() {
		m.transformImageDurationSeconds.Observe(float64(time.Since(start)/time.Millisecond) / 1000)
	}
}

func (m *Instance) DecodeImage() func() {
	start := time.Now()

	return func() {
		m.decodeImageDurationSeconds.Observe(float64(time.Since(start)/time.Millisecond) / 1000)
	}
}

func (m *Instance) ExportImage() func() {
	start := time.Now()

	return func() {
		m.exportImageDurationSeconds.Observe(float64(time.Since(start)/time.Millisecond) / 1000)
	}
}

func (m *Instance) UploadResults() func() {
	start := time.Now()

	return func() {
		m.uploadResultsDurationSeconds.Observe(float64(time.Since(start)/time.Millisecond) / 1000)
	}
}
