package task

import (
	"fmt"
	"time"

	"github.com/seventv/image-editor/go/editor"
)

type Task struct {
	ID         string            `json:"id" yaml:"id"`
	Input      TaskInput         `json:"input" yaml:"input"`
	Operations []Operation       `json:"operations" yaml:"operations"`
	Export     editor.ExportSpec `json:"export" yaml:"export"`
	Platforms  []editor.Platform `json:"platforms,omitempty" yaml:"platforms,omitempty"`
	Output     TaskOutput        `json:"output" yaml:"output"`
	Limits     TaskLimits        `json:"limits" yaml:"limits"`
}

type TaskLimits struct {
	MaxProcessingTime time.Duration `json:"max_processing_time" yaml:"max_processing_time"`
	MaxInputBytes     int           `json:"max_input_bytes" yaml:"max_input_bytes"`
	MaxWidth          int           `json:"max_width" yaml:"max_width"`
	MaxHeight         int           `json:"max_height" yaml:"max_height"`
}

// TaskInput names the source image either by reference (path, data uri,
// http url) or by bucket and key.
type TaskInput struct {
	Ref    string `json:"ref,omitempty" yaml:"ref,omitempty"`
	Bucket string `json:"bucket,omitempty" yaml:"bucket,omitempty"`
	Key    string `json:"key,omitempty" yaml:"key,omitempty"`
	Title  string `json:"title,omitempty" yaml:"title,omitempty"`
}

// Reference returns the loader reference of the input.
func (i TaskInput) Reference() string {
	if i.Ref != "" {
		return i.Ref
	}

	return fmt.Sprintf("s3://%s/%s", i.Bucket, i.Key)
}

// TaskOutput is where the exported files go. A non empty Bucket uploads to
// object storage, otherwise files are written below Dir.
type TaskOutput struct {
	Prefix       string `json:"prefix,omitempty" yaml:"prefix,omitempty"`
	ACL          string `json:"acl,omitempty" yaml:"acl,omitempty"`
	Bucket       string `json:"bucket,omitempty" yaml:"bucket,omitempty"`
	CacheControl string `json:"cache_control,omitempty" yaml:"cache_control,omitempty"`
	Dir          string `json:"dir,omitempty" yaml:"dir,omitempty"`
}

// Batch exports a list of items with one shared ExportSpec, one after the
// other, into Dir.
type Batch struct {
	Items  []editor.BatchItem `json:"items" yaml:"items"`
	Export editor.ExportSpec  `json:"export" yaml:"export"`
	Dir    string             `json:"dir" yaml:"dir"`
}
