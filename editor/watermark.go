package editor

import (
	"errors"
	"fmt"
	"image"
	"image/color"
	"math"

	"github.com/fogleman/gg"
	"github.com/golang/freetype/truetype"
	"golang.org/x/image/draw"
	"golang.org/x/image/font/gofont/goregular"
)

const DefaultWatermarkText = "© Art Social Publisher"

var ErrInvalidWatermark = errors.New("invalid watermark")

type WatermarkPosition string

const (
	WatermarkBottomRight WatermarkPosition = "bottom-right"
	WatermarkBottomLeft  WatermarkPosition = "bottom-left"
	WatermarkTopRight    WatermarkPosition = "top-right"
	WatermarkTopLeft     WatermarkPosition = "top-left"
	WatermarkCenter      WatermarkPosition = "center"
)

// WatermarkSpec describes the text overlay of an export. Empty Text and
// Position fall back to DefaultWatermarkText and WatermarkBottomRight, a nil
// Opacity to 0.5.
type WatermarkSpec struct {
	Text     string            `json:"text,omitempty" yaml:"text,omitempty"`
	Position WatermarkPosition `json:"position,omitempty" yaml:"position,omitempty"`
	Opacity  *float64          `json:"opacity,omitempty" yaml:"opacity,omitempty"`
}

// WatermarkStyle holds the layout constants of the watermark.
type WatermarkStyle struct {
	// FontDivisor: font size is floor(width / FontDivisor) pixels.
	FontDivisor float64
	MinFontSize float64
	Padding     float64
	StrokeWidth float64
	Font        *truetype.Font
}

var goRegular = func() *truetype.Font {
	f, err := truetype.Parse(goregular.TTF)
	if err != nil {
		panic(err)
	}

	return f
}()

func DefaultWatermarkStyle() WatermarkStyle {
	return WatermarkStyle{
		FontDivisor: 40,
		MinFontSize: 12,
		Padding:     20,
		StrokeWidth: 2,
		Font:        goRegular,
	}
}

func (s WatermarkStyle) withDefaults() WatermarkStyle {
	d := DefaultWatermarkStyle()
	if s.FontDivisor <= 0 {
		s.FontDivisor = d.FontDivisor
	}
	if s.MinFontSize <= 0 {
		s.MinFontSize = d.MinFontSize
	}
	if s.Padding < 0 {
		s.Padding = d.Padding
	}
	if s.StrokeWidth < 0 {
		s.StrokeWidth = d.StrokeWidth
	}
	if s.Font == nil {
		s.Font = d.Font
	}

	return s
}

// FontSize returns the watermark font size in pixels for a canvas width.
func (s WatermarkStyle) FontSize(canvasWidth int) float64 {
	return math.Max(math.Floor(float64(canvasWidth)/s.FontDivisor), s.MinFontSize)
}

// Origin returns the baseline origin of a text of the given size at pos.
func (s WatermarkStyle) Origin(pos WatermarkPosition, w, h, textW, textH float64) (float64, float64, error) {
	switch pos {
	case WatermarkBottomRight, "":
		return w - textW - s.Padding, h - s.Padding, nil
	case WatermarkBottomLeft:
		return s.Padding, h - s.Padding, nil
	case WatermarkTopRight:
		return w - textW - s.Padding, textH + s.Padding, nil
	case WatermarkTopLeft:
		return s.Padding, textH + s.Padding, nil
	case WatermarkCenter:
		return (w - textW) / 2, h / 2, nil
	}

	return 0, 0, fmt.Errorf("%w: unknown position %q", ErrInvalidWatermark, pos)
}

// Apply draws wm onto a copy of r: white text at the requested opacity
// over a black outline at half of it.
func (s WatermarkStyle) Apply(r *Raster, wm WatermarkSpec) (*Raster, error) {
	s = s.withDefaults()

	text := wm.Text
	if text == "" {
		text = DefaultWatermarkText
	}

	opacity := 0.5
	if wm.Opacity != nil {
		opacity = *wm.Opacity
	}
	if math.IsNaN(opacity) || opacity < 0 || opacity > 1 {
		return nil, fmt.Errorf("%w: opacity %v out of range [0, 1]", ErrInvalidWatermark, opacity)
	}

	size := s.FontSize(r.Width())
	face := truetype.NewFace(s.Font, &truetype.Options{Size: size})
	defer face.Close()

	fill := gg.NewContext(r.Width(), r.Height())
	fill.SetFontFace(face)
	textW, _ := fill.MeasureString(text)

	x, y, err := s.Origin(wm.Position, float64(r.Width()), float64(r.Height()), textW, size)
	if err != nil {
		return nil, err
	}

	stroke := gg.NewContext(r.Width(), r.Height())
	stroke.SetFontFace(face)
	stroke.SetRGB(0, 0, 0)
	reach := int(math.Ceil(s.StrokeWidth / 2))
	for dy := -reach; dy <= reach; dy++ {
		for dx := -reach; dx <= reach; dx++ {
			stroke.DrawString(text, x+float64(dx), y+float64(dy))
		}
	}

	fill.SetRGB(1, 1, 1)
	fill.DrawString(text, x, y)

	dst := r.Clone()
	composite(dst, stroke.Image(), opacity*0.5)
	composite(dst, fill.Image(), opacity)

	return wrap(dst), nil
}

func composite(dst *image.NRGBA, layer image.Image, opacity float64) {
	mask := image.NewUniform(color.Alpha{A: uint8(math.Round(opacity * 255))})
	draw.DrawMask(dst, dst.Bounds(), layer, image.Point{}, mask, image.Point{}, draw.Over)
}

// AddWatermark draws wm onto r with the default style.
func AddWatermark(r *Raster, wm WatermarkSpec) (*Raster, error) {
	return DefaultWatermarkStyle().Apply(r, wm)
}
