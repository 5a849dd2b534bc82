package editor

import (
	"bytes"
	"context"
	"fmt"
	"image/jpeg"
	"image/png"
	"math"

	"github.com/chai2010/webp"
	"github.com/seventv/image-editor/go/container"
)

const DefaultQuality = 0.92

type Format string

const (
	// FormatJPEG is lossy and quality parameterized.
	FormatJPEG Format = "jpeg"
	// FormatPNG is lossless; quality is ignored.
	FormatPNG Format = "png"
	// FormatWebP is lossy and quality parameterized.
	FormatWebP Format = "webp"
)

func (f Format) orDefault() Format {
	if f == "" {
		return FormatJPEG
	}

	return f
}

func (f Format) MIME() string {
	switch f.orDefault() {
	case FormatPNG:
		return container.MimePNG
	case FormatWebP:
		return container.MimeWEBP
	default:
		return container.MimeJPEG
	}
}

func (f Format) Extension() string {
	switch f.orDefault() {
	case FormatPNG:
		return "png"
	case FormatWebP:
		return "webp"
	default:
		return "jpg"
	}
}

// ExportSpec controls Export. A nil Quality means DefaultQuality, an explicit
// zero is the lowest quality. An empty Format means FormatJPEG. MaxWidth and MaxHeight bound the output
// without ever upscaling; zero leaves the dimension unbounded.
type ExportSpec struct {
	Quality   *float64       `json:"quality,omitempty" yaml:"quality,omitempty"`
	Format    Format         `json:"format,omitempty" yaml:"format,omitempty"`
	MaxWidth  int            `json:"max_width,omitempty" yaml:"max_width,omitempty"`
	MaxHeight int            `json:"max_height,omitempty" yaml:"max_height,omitempty"`
	Watermark *WatermarkSpec `json:"watermark,omitempty" yaml:"watermark,omitempty"`
}

// Encoded is the output of an export.
type Encoded struct {
	Data   []byte
	Format Format
	Width  int
	Height int
}

func (e *Encoded) ContentType() string { return e.Format.MIME() }

// Exporter encodes rasters. The zero value is not usable, use NewExporter.
type Exporter struct {
	style WatermarkStyle
}

func NewExporter(style WatermarkStyle) *Exporter {
	return &Exporter{style: style.withDefaults()}
}

var defaultExporter = NewExporter(DefaultWatermarkStyle())

// Export runs the export pipeline with the default watermark style.
func Export(ctx context.Context, r *Raster, spec ExportSpec) (*Encoded, error) {
	return defaultExporter.Export(ctx, r, spec)
}

// Export shrinks r into the bounding box, draws the watermark and encodes
// the result, strictly in that order.
func (e *Exporter) Export(ctx context.Context, r *Raster, spec ExportSpec) (*Encoded, error) {
	format := spec.Format.orDefault()

	w, h := BoundedSize(r.Width(), r.Height(), spec.MaxWidth, spec.MaxHeight)
	if w != r.Width() || h != r.Height() {
		r = scale(r, w, h)
	}

	if spec.Watermark != nil {
		var err error
		if r, err = e.style.Apply(r, *spec.Watermark); err != nil {
			return nil, err
		}
	}

	if err := ctx.Err(); err != nil {
		return nil, &EncodeError{Format: format, Err: err}
	}

	quality := DefaultQuality
	if spec.Quality != nil {
		quality = *spec.Quality
	}

	data, err := Encode(r, format, quality)
	if err != nil {
		return nil, err
	}

	return &Encoded{
		Data:   data,
		Format: format,
		Width:  r.Width(),
		Height: r.Height(),
	}, nil
}

// BoundedSize shrinks w x h to fit maxW x maxH keeping the aspect ratio.
// The width bound is applied first, then the height bound.
func BoundedSize(w, h, maxW, maxH int) (int, int) {
	fw, fh := float64(w), float64(h)
	ratio := fw / fh

	if maxW > 0 && fw > float64(maxW) {
		fw = float64(maxW)
		fh = fw / ratio
	}

	if maxH > 0 && fh > float64(maxH) {
		fh = float64(maxH)
		fw = fh * ratio
	}

	return maxInt(int(math.Round(fw)), 1), maxInt(int(math.Round(fh)), 1)
}

// Encode serializes r. quality is in [0, 1] and ignored by PNG.
func Encode(r *Raster, format Format, quality float64) ([]byte, error) {
	format = format.orDefault()

	if math.IsNaN(quality) || quality < 0 || quality > 1 {
		return nil, &EncodeError{Format: format, Err: fmt.Errorf("quality %v out of range [0, 1]", quality)}
	}

	buf := bytes.Buffer{}

	var err error
	switch format {
	case FormatJPEG:
		q := int(math.Round(quality * 100))
		if q < 1 {
			q = 1
		}
		err = jpeg.Encode(&buf, r.img, &jpeg.Options{Quality: q})
	case FormatPNG:
		err = png.Encode(&buf, r.img)
	case FormatWebP:
		err = webp.Encode(&buf, r.img, &webp.Options{Quality: float32(quality * 100)})
	default:
		err = fmt.Errorf("%w: %s", ErrUnsupportedFormat, format)
	}
	if err != nil {
		return nil, &EncodeError{Format: format, Err: err}
	}

	if buf.Len() == 0 {
		return nil, &EncodeError{Format: format, Err: fmt.Errorf("codec produced no output")}
	}

	return buf.Bytes(), nil
}

// EstimateFileSize returns the size in bytes an export would have, or 0
// when the export fails.
func EstimateFileSize(ctx context.Context, r *Raster, spec ExportSpec) int {
	enc, err := Export(ctx, r, spec)
	if err != nil {
		return 0
	}

	return len(enc.Data)
}

// PreviewWithWatermark renders r at full size with a 0.7 opacity watermark
// as a default quality JPEG.
func PreviewWithWatermark(ctx context.Context, r *Raster, text string, position WatermarkPosition) (*Encoded, error) {
	return Export(ctx, r, ExportSpec{
		Format: FormatJPEG,
		Watermark: &WatermarkSpec{
			Text:     text,
			Position: position,
			Opacity:  Float64(0.7),
		},
	})
}

// Float64 returns a pointer to v, for the optional fields of ExportSpec,
// WatermarkSpec and ResizeSpec.
func Float64(v float64) *float64 { return &v }
