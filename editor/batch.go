package editor

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/multierr"
)

const DefaultBatchDelay = 500 * time.Millisecond

// BatchMode decides what ExportMultiple does when an item fails.
type BatchMode int

const (
	// BatchAbortOnError stops at the first failing item.
	BatchAbortOnError BatchMode = iota
	// BatchContinueOnError exports every item and returns all errors combined.
	BatchContinueOnError
)

type BatchItem struct {
	ID    string `json:"id" yaml:"id"`
	Ref   string `json:"ref" yaml:"ref"`
	Title string `json:"title,omitempty" yaml:"title,omitempty"`
}

// Sink receives exported files, for example a download directory or a
// bucket.
type Sink interface {
	Save(ctx context.Context, filename string, enc *Encoded) error
}

type SinkFunc func(ctx context.Context, filename string, enc *Encoded) error

func (f SinkFunc) Save(ctx context.Context, filename string, enc *Encoded) error {
	return f(ctx, filename, enc)
}

// BatchOptions configures ExportMultiple. A zero Delay exports items back to
// back. Now defaults to time.Now and names the files.
type BatchOptions struct {
	Delay time.Duration
	Mode  BatchMode
	Now   func() time.Time
}

type BatchResult struct {
	Item     BatchItem
	Filename string
	Size     int
	Err      error
}

// ExportMultiple loads, exports and saves items one at a time, waiting
// opts.Delay between items. Items are never processed in parallel.
//
// The returned slice holds one result per attempted item. With
// BatchAbortOnError the first failure is returned and the remaining items
// are not attempted.
func (e *Exporter) ExportMultiple(ctx context.Context, loader *Loader, items []BatchItem, spec ExportSpec, sink Sink, opts BatchOptions) ([]BatchResult, error) {
	now := opts.Now
	if now == nil {
		now = time.Now
	}

	var (
		results = make([]BatchResult, 0, len(items))
		errs    error
		used    = map[string]bool{}
	)

	for i, item := range items {
		if i > 0 && opts.Delay > 0 {
			t := time.NewTimer(opts.Delay)
			select {
			case <-ctx.Done():
				t.Stop()
				return results, multierr.Append(errs, ctx.Err())
			case <-t.C:
			}
		}

		if err := ctx.Err(); err != nil {
			return results, multierr.Append(errs, err)
		}

		res := BatchResult{Item: item}
		res.Filename = uniqueName(used, batchFilename(item.Title, now(), spec.Format))

		res.Size, res.Err = e.exportOne(ctx, loader, item, spec, sink, res.Filename)
		results = append(results, res)

		if res.Err != nil {
			err := fmt.Errorf("item %d (%s): %w", i, item.Ref, res.Err)
			if opts.Mode == BatchAbortOnError {
				return results, err
			}
			errs = multierr.Append(errs, err)
		}
	}

	return results, errs
}

func (e *Exporter) exportOne(ctx context.Context, loader *Loader, item BatchItem, spec ExportSpec, sink Sink, filename string) (int, error) {
	r, err := loader.Load(ctx, item.Ref)
	if err != nil {
		return 0, err
	}

	enc, err := e.Export(ctx, r, spec)
	if err != nil {
		return 0, err
	}

	if err := sink.Save(ctx, filename, enc); err != nil {
		return 0, err
	}

	return len(enc.Data), nil
}

func batchFilename(title string, at time.Time, format Format) string {
	name := GenerateFilename(title, at)
	if ext := format.Extension(); ext != "jpg" {
		name = strings.TrimSuffix(name, ".jpg") + "." + ext
	}

	return name
}

// uniqueName suffixes repeated names within one batch with the first free
// -2, -3, ...
func uniqueName(used map[string]bool, name string) string {
	dot := strings.LastIndex(name, ".")
	if dot < 0 {
		dot = len(name)
	}

	candidate := name
	for n := 2; used[candidate]; n++ {
		candidate = fmt.Sprintf("%s-%d%s", name[:dot], n, name[dot:])
	}
	used[candidate] = true

	return candidate
}

// ExportMultiple runs a batch export with the default watermark style.
func ExportMultiple(ctx context.Context, loader *Loader, items []BatchItem, spec ExportSpec, sink Sink, opts BatchOptions) ([]BatchResult, error) {
	return defaultExporter.ExportMultiple(ctx, loader, items, spec, sink, opts)
}
