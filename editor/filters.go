package editor

import (
	"image"
	"math"

	"github.com/disintegration/imaging"
)

// FilterSpec is a set of tonal adjustments. Every zero value is the
// identity, so an empty FilterSpec leaves the raster unchanged. Present
// adjustments always compose in the order brightness, contrast,
// saturation, sepia, grayscale, blur, hue rotate, invert.
type FilterSpec struct {
	Brightness float64 `json:"brightness,omitempty" yaml:"brightness,omitempty"` // -100..100
	Contrast   float64 `json:"contrast,omitempty" yaml:"contrast,omitempty"`     // -100..100
	Saturation float64 `json:"saturation,omitempty" yaml:"saturation,omitempty"` // -100..100
	Sepia      float64 `json:"sepia,omitempty" yaml:"sepia,omitempty"`           // 0..100
	Grayscale  bool    `json:"grayscale,omitempty" yaml:"grayscale,omitempty"`
	Blur       float64 `json:"blur,omitempty" yaml:"blur,omitempty"`             // 0..10 px
	HueRotate  float64 `json:"hue_rotate,omitempty" yaml:"hue_rotate,omitempty"` // 0..360 degrees
	Invert     bool    `json:"invert,omitempty" yaml:"invert,omitempty"`
}

func (f FilterSpec) IsIdentity() bool {
	return f == FilterSpec{}
}

func (f FilterSpec) Validate() error {
	checks := []struct {
		field    string
		value    float64
		min, max float64
	}{
		{"brightness", f.Brightness, -100, 100},
		{"contrast", f.Contrast, -100, 100},
		{"saturation", f.Saturation, -100, 100},
		{"sepia", f.Sepia, 0, 100},
		{"blur", f.Blur, 0, 10},
		{"hue_rotate", f.HueRotate, 0, 360},
	}

	for _, c := range checks {
		if math.IsNaN(c.value) || c.value < c.min || c.value > c.max {
			return &InvalidFilterError{Field: c.field, Value: c.value, Min: c.min, Max: c.max}
		}
	}

	return nil
}

// colorMatrix is an affine map on normalized RGB: the first three columns
// are the linear part, the fourth is the offset.
type colorMatrix [3][4]float64

var identityMatrix = colorMatrix{
	{1, 0, 0, 0},
	{0, 1, 0, 0},
	{0, 0, 1, 0},
}

// then returns the matrix applying m first and n second.
func (m colorMatrix) then(n colorMatrix) colorMatrix {
	var out colorMatrix
	for i := 0; i < 3; i++ {
		for j := 0; j < 4; j++ {
			var v float64
			for k := 0; k < 3; k++ {
				v += n[i][k] * m[k][j]
			}
			out[i][j] = v
		}
		out[i][3] += n[i][3]
	}

	return out
}

func linear(a [3][3]float64) colorMatrix {
	return colorMatrix{
		{a[0][0], a[0][1], a[0][2], 0},
		{a[1][0], a[1][1], a[1][2], 0},
		{a[2][0], a[2][1], a[2][2], 0},
	}
}

func brightnessMatrix(v float64) colorMatrix {
	a := (100 + v) / 100
	return linear([3][3]float64{{a, 0, 0}, {0, a, 0}, {0, 0, a}})
}

func contrastMatrix(v float64) colorMatrix {
	a := (100 + v) / 100
	b := 0.5 - 0.5*a

	return colorMatrix{
		{a, 0, 0, b},
		{0, a, 0, b},
		{0, 0, a, b},
	}
}

func saturateMatrix(v float64) colorMatrix {
	s := (100 + v) / 100
	return linear([3][3]float64{
		{0.213 + 0.787*s, 0.715 - 0.715*s, 0.072 - 0.072*s},
		{0.213 - 0.213*s, 0.715 + 0.285*s, 0.072 - 0.072*s},
		{0.213 - 0.213*s, 0.715 - 0.715*s, 0.072 + 0.928*s},
	})
}

func sepiaMatrix(v float64) colorMatrix {
	a := 1 - v/100
	return linear([3][3]float64{
		{0.393 + 0.607*a, 0.769 - 0.769*a, 0.189 - 0.189*a},
		{0.349 - 0.349*a, 0.686 + 0.314*a, 0.168 - 0.168*a},
		{0.272 - 0.272*a, 0.534 - 0.534*a, 0.131 + 0.869*a},
	})
}

var grayscaleMatrix = linear([3][3]float64{
	{0.2126, 0.7152, 0.0722},
	{0.2126, 0.7152, 0.0722},
	{0.2126, 0.7152, 0.0722},
})

func hueRotateMatrix(degrees float64) colorMatrix {
	rad := degrees * math.Pi / 180
	c, s := math.Cos(rad), math.Sin(rad)

	return linear([3][3]float64{
		{0.213 + c*0.787 - s*0.213, 0.715 - c*0.715 - s*0.715, 0.072 - c*0.072 + s*0.928},
		{0.213 - c*0.213 + s*0.143, 0.715 + c*0.285 + s*0.140, 0.072 - c*0.072 - s*0.283},
		{0.213 - c*0.213 - s*0.787, 0.715 - c*0.715 + s*0.715, 0.072 + c*0.928 + s*0.072},
	})
}

var invertMatrix = colorMatrix{
	{-1, 0, 0, 1},
	{0, -1, 0, 1},
	{0, 0, -1, 1},
}

// matrix folds every tonal adjustment of f into one operator.
func (f FilterSpec) matrix() colorMatrix {
	m := identityMatrix
	if f.Brightness != 0 {
		m = m.then(brightnessMatrix(f.Brightness))
	}
	if f.Contrast != 0 {
		m = m.then(contrastMatrix(f.Contrast))
	}
	if f.Saturation != 0 {
		m = m.then(saturateMatrix(f.Saturation))
	}
	if f.Sepia != 0 {
		m = m.then(sepiaMatrix(f.Sepia))
	}
	if f.Grayscale {
		m = m.then(grayscaleMatrix)
	}
	if f.HueRotate != 0 {
		m = m.then(hueRotateMatrix(f.HueRotate))
	}
	if f.Invert {
		m = m.then(invertMatrix)
	}

	return m
}

// ApplyFilters runs every adjustment of f over r in a single colour pass.
//
// The colour operators are affine and the blur kernel is normalized, so
// blurring after the combined colour pass is equivalent to blurring between
// grayscale and hue rotate.
func ApplyFilters(r *Raster, f FilterSpec) (*Raster, error) {
	if err := f.Validate(); err != nil {
		return nil, err
	}

	if f.IsIdentity() {
		return wrap(r.Clone()), nil
	}

	dst := r.Clone()
	if m := f.matrix(); m != identityMatrix {
		applyMatrix(dst, m)
	}

	if f.Blur > 0 {
		dst = imaging.Blur(dst, f.Blur)
	}

	return wrap(dst), nil
}

func applyMatrix(img *image.NRGBA, m colorMatrix) {
	w, h := img.Rect.Dx(), img.Rect.Dy()
	for y := 0; y < h; y++ {
		row := img.Pix[y*img.Stride : y*img.Stride+w*4]
		for i := 0; i < len(row); i += 4 {
			r := float64(row[i]) / 255
			g := float64(row[i+1]) / 255
			b := float64(row[i+2]) / 255

			row[i] = toByte(m[0][0]*r + m[0][1]*g + m[0][2]*b + m[0][3])
			row[i+1] = toByte(m[1][0]*r + m[1][1]*g + m[1][2]*b + m[1][3])
			row[i+2] = toByte(m[2][0]*r + m[2][1]*g + m[2][2]*b + m[2][3])
		}
	}
}

func toByte(v float64) uint8 {
	v = math.Round(v * 255)
	if v < 0 {
		return 0
	}
	if v > 255 {
		return 255
	}

	return uint8(v)
}

func AdjustBrightness(r *Raster, v float64) (*Raster, error) {
	return ApplyFilters(r, FilterSpec{Brightness: v})
}

func AdjustContrast(r *Raster, v float64) (*Raster, error) {
	return ApplyFilters(r, FilterSpec{Contrast: v})
}

func AdjustSaturation(r *Raster, v float64) (*Raster, error) {
	return ApplyFilters(r, FilterSpec{Saturation: v})
}
