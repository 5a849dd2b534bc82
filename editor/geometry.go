package editor

import (
	"image"
	"math"
	"sort"

	"github.com/fogleman/gg"
	"github.com/nfnt/resize"
)

// CropSpec is a rectangle in the pixel space of the source raster.
type CropSpec struct {
	X      int `json:"x" yaml:"x"`
	Y      int `json:"y" yaml:"y"`
	Width  int `json:"width" yaml:"width"`
	Height int `json:"height" yaml:"height"`
}

type FlipSpec struct {
	Horizontal bool `json:"horizontal" yaml:"horizontal"`
	Vertical   bool `json:"vertical" yaml:"vertical"`
}

// AspectMode controls how Resize treats the source aspect ratio. The zero
// value locks it.
type AspectMode string

const (
	// AspectLock keeps the source aspect ratio and fits inside the box.
	AspectLock AspectMode = "lock"
	// AspectStretch uses the requested dimensions as is.
	AspectStretch AspectMode = "stretch"
)

// ResizeSpec describes a target size. A zero Width or Height means the
// dimension is not set. Quality is carried to the export of the resized
// raster when the export itself sets none; see task.OutputQuality.
type ResizeSpec struct {
	Width   int        `json:"width,omitempty" yaml:"width,omitempty"`
	Height  int        `json:"height,omitempty" yaml:"height,omitempty"`
	Aspect  AspectMode `json:"aspect,omitempty" yaml:"aspect,omitempty"`
	Quality *float64   `json:"quality,omitempty" yaml:"quality,omitempty"`
}

// Crop copies the sub-region c of r verbatim.
func Crop(r *Raster, c CropSpec) (*Raster, error) {
	if c.X < 0 || c.Y < 0 {
		return nil, geometryErr("crop", "negative offset (%d, %d)", c.X, c.Y)
	}
	if c.Width <= 0 || c.Height <= 0 {
		return nil, geometryErr("crop", "non-positive size %dx%d", c.Width, c.Height)
	}
	if c.X+c.Width > r.Width() || c.Y+c.Height > r.Height() {
		return nil, geometryErr("crop", "rectangle %dx%d+%d+%d exceeds source %dx%d",
			c.Width, c.Height, c.X, c.Y, r.Width(), r.Height())
	}

	dst := image.NewNRGBA(image.Rect(0, 0, c.Width, c.Height))
	rowLen := c.Width * 4
	for y := 0; y < c.Height; y++ {
		src := r.img.PixOffset(c.X, c.Y+y)
		copy(dst.Pix[y*dst.Stride:y*dst.Stride+rowLen], r.img.Pix[src:src+rowLen])
	}

	return wrap(dst), nil
}

// normalizeAngle maps any angle in degrees into [0, 360).
func normalizeAngle(degrees float64) float64 {
	a := math.Mod(degrees, 360)
	if a < 0 {
		a += 360
	}
	if a >= 360 {
		a = 0
	}

	return a
}

// Rotate turns r clockwise by degrees around its center. Right angles are
// pixel exact; other angles grow the canvas to the bounding box of the
// rotated rectangle and leave the corners transparent.
func Rotate(r *Raster, degrees float64) (*Raster, error) {
	if math.IsNaN(degrees) || math.IsInf(degrees, 0) {
		return nil, geometryErr("rotate", "angle %v is not finite", degrees)
	}

	switch angle := normalizeAngle(degrees); angle {
	case 0:
		return wrap(r.Clone()), nil
	case 90:
		return Rotate90(r), nil
	case 180:
		return Rotate180(r), nil
	case 270:
		return Rotate270(r), nil
	default:
		return rotateFree(r, angle), nil
	}
}

func rotateFree(r *Raster, angle float64) *Raster {
	rad := gg.Radians(angle)
	sin, cos := math.Abs(math.Sin(rad)), math.Abs(math.Cos(rad))

	w, h := float64(r.Width()), float64(r.Height())
	// canvas dimensions truncate, the same as assigning to canvas.width
	cw := maxInt(int(w*cos+h*sin), 1)
	ch := maxInt(int(w*sin+h*cos), 1)

	dc := gg.NewContext(cw, ch)
	dc.Translate(float64(cw)/2, float64(ch)/2)
	dc.Rotate(rad)
	dc.DrawImageAnchored(r.img, 0, 0, 0.5, 0.5)

	return NewRaster(dc.Image())
}

func Rotate90(r *Raster) *Raster {
	w, h := r.Width(), r.Height()
	dst := image.NewNRGBA(image.Rect(0, 0, h, w))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			copyPixel(dst, h-1-y, x, r.img, x, y)
		}
	}

	return wrap(dst)
}

func Rotate180(r *Raster) *Raster {
	w, h := r.Width(), r.Height()
	dst := image.NewNRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			copyPixel(dst, w-1-x, h-1-y, r.img, x, y)
		}
	}

	return wrap(dst)
}

func Rotate270(r *Raster) *Raster {
	w, h := r.Width(), r.Height()
	dst := image.NewNRGBA(image.Rect(0, 0, h, w))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			copyPixel(dst, y, w-1-x, r.img, x, y)
		}
	}

	return wrap(dst)
}

// Flip mirrors r along the requested axes. Both axes together equal a 180
// degree rotation.
func Flip(r *Raster, f FlipSpec) *Raster {
	w, h := r.Width(), r.Height()
	dst := image.NewNRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		dy := y
		if f.Vertical {
			dy = h - 1 - y
		}
		for x := 0; x < w; x++ {
			dx := x
			if f.Horizontal {
				dx = w - 1 - x
			}
			copyPixel(dst, dx, dy, r.img, x, y)
		}
	}

	return wrap(dst)
}

func FlipHorizontal(r *Raster) *Raster { return Flip(r, FlipSpec{Horizontal: true}) }
func FlipVertical(r *Raster) *Raster   { return Flip(r, FlipSpec{Vertical: true}) }

// ResizeDimensions computes the output size of Resize for a srcW x srcH
// source. With AspectLock and both dimensions set the result is a contain
// fit inside the box.
func ResizeDimensions(srcW, srcH int, s ResizeSpec) (int, int, error) {
	if s.Width < 0 || s.Height < 0 {
		return 0, 0, geometryErr("resize", "negative target %dx%d", s.Width, s.Height)
	}
	if srcW <= 0 || srcH <= 0 {
		return 0, 0, geometryErr("resize", "empty source %dx%d", srcW, srcH)
	}

	w, h := float64(srcW), float64(srcH)
	if s.Width > 0 {
		w = float64(s.Width)
	}
	if s.Height > 0 {
		h = float64(s.Height)
	}

	if s.Aspect != AspectStretch {
		ratio := float64(srcW) / float64(srcH)
		switch {
		case s.Width > 0 && s.Height == 0:
			h = w / ratio
		case s.Height > 0 && s.Width == 0:
			w = h * ratio
		case s.Width > 0 && s.Height > 0:
			if ratio > float64(s.Width)/float64(s.Height) {
				h = w / ratio
			} else {
				w = h * ratio
			}
		}
	}

	return maxInt(int(math.Round(w)), 1), maxInt(int(math.Round(h)), 1), nil
}

// Resize resamples r to the size described by s using bicubic filtering.
func Resize(r *Raster, s ResizeSpec) (*Raster, error) {
	w, h, err := ResizeDimensions(r.Width(), r.Height(), s)
	if err != nil {
		return nil, err
	}

	return scale(r, w, h), nil
}

func scale(r *Raster, w, h int) *Raster {
	if w == r.Width() && h == r.Height() {
		return wrap(r.Clone())
	}

	return NewRaster(resize.Resize(uint(w), uint(h), r.img, resize.Bicubic))
}

// CropDimensions returns the largest centered crop of a w x h image whose
// aspect ratio is ratio (width / height). Values are rounded to the
// nearest pixel.
func CropDimensions(w, h int, ratio float64) CropSpec {
	var cw, ch, x, y float64

	if float64(w)/float64(h) > ratio {
		ch = float64(h)
		cw = float64(h) * ratio
		x = (float64(w) - cw) / 2
	} else {
		cw = float64(w)
		ch = float64(w) / ratio
		y = (float64(h) - ch) / 2
	}

	return CropSpec{
		X:      int(math.Round(x)),
		Y:      int(math.Round(y)),
		Width:  int(math.Round(cw)),
		Height: int(math.Round(ch)),
	}
}

// CropToRatio crops r to the maximal centered region with the given ratio.
func CropToRatio(r *Raster, ratio float64) (*Raster, error) {
	if !(ratio > 0) || math.IsInf(ratio, 0) {
		return nil, geometryErr("crop ratio", "ratio %v must be positive", ratio)
	}

	return Crop(r, CropDimensions(r.Width(), r.Height(), ratio))
}

type CropRatioName string

const (
	CropSquare            CropRatioName = "square"
	CropPortrait          CropRatioName = "portrait"
	CropLandscape         CropRatioName = "landscape"
	CropInstagramSquare   CropRatioName = "instagram-square"
	CropInstagramPortrait CropRatioName = "instagram-portrait"
	CropStory             CropRatioName = "story"
	CropFacebook          CropRatioName = "facebook"
	CropTwitter           CropRatioName = "twitter"
)

type CropRatio struct {
	Width  int
	Height int
	Label  string
}

func (c CropRatio) Ratio() float64 { return float64(c.Width) / float64(c.Height) }

var cropRatios = map[CropRatioName]CropRatio{
	CropSquare:            {1, 1, "Square (1:1)"},
	CropPortrait:          {4, 5, "Portrait (4:5)"},
	CropLandscape:         {16, 9, "Landscape (16:9)"},
	CropInstagramSquare:   {1080, 1080, "Instagram square"},
	CropInstagramPortrait: {1080, 1350, "Instagram portrait"},
	CropStory:             {9, 16, "Story (9:16)"},
	CropFacebook:          {1200, 630, "Facebook"},
	CropTwitter:           {1200, 675, "Twitter"},
}

func LookupCropRatio(name CropRatioName) (CropRatio, bool) {
	c, ok := cropRatios[name]
	return c, ok
}

func CropRatioNames() []CropRatioName {
	names := make([]CropRatioName, 0, len(cropRatios))
	for k := range cropRatios {
		names = append(names, k)
	}
	sort.Slice(names, func(i, j int) bool { return names[i] < names[j] })

	return names
}

// CropToPreset crops r to one of the named ratios.
func CropToPreset(r *Raster, name CropRatioName) (*Raster, error) {
	c, ok := cropRatios[name]
	if !ok {
		return nil, geometryErr("crop ratio", "unknown ratio %q", name)
	}

	return CropToRatio(r, c.Ratio())
}

func copyPixel(dst *image.NRGBA, dx, dy int, src *image.NRGBA, sx, sy int) {
	d := dst.PixOffset(dx, dy)
	s := src.PixOffset(sx, sy)
	copy(dst.Pix[d:d+4], src.Pix[s:s+4])
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}

	return b
}
