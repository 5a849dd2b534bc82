package instance

import (
	"github.com/prometheus/client_golang/prometheus"
)

type Prometheus interface {
	Register(r prometheus.Registerer)

	StartTask() func(success bool)

	DownloadFile() func()
	DecodeImage() func()
	TransformImage() func()
	ExportImage() func()
	UploadResults() func()

	InputFileType(mime string)
	TotalOperationsApplied(int)
	TotalBytesDownloaded(int)
	TotalBytesUploaded(int)
}
