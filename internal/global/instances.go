package global

import "github.com/seventv/image-editor/go/internal/instance"

type Instances struct {
	S3         instance.S3
	Prometheus instance.Prometheus
}
