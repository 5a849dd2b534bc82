// Package editor implements the image edit pipeline: loading a surface,
// geometry transforms, tonal filters and export encoding.
//
// Every operation takes a *Raster and returns a new one. Rasters are never
// modified after construction, so a single Raster can be shared freely
// between goroutines.
package editor

import (
	"image"
	"image/color"

	"golang.org/x/image/draw"
)

// Raster is a decoded, pixel addressable image with non-premultiplied
// 8-bit RGBA samples. Its bounds always start at (0, 0).
type Raster struct {
	img *image.NRGBA
}

// NewRaster copies src into a new Raster.
func NewRaster(src image.Image) *Raster {
	b := src.Bounds()
	dst := image.NewNRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	draw.Draw(dst, dst.Bounds(), src, b.Min, draw.Src)

	return &Raster{img: dst}
}

// wrap takes ownership of img, which must not be modified afterwards.
func wrap(img *image.NRGBA) *Raster {
	if img.Rect.Min != (image.Point{}) {
		return NewRaster(img)
	}

	return &Raster{img: img}
}

func (r *Raster) Width() int  { return r.img.Rect.Dx() }
func (r *Raster) Height() int { return r.img.Rect.Dy() }

func (r *Raster) ColorModel() color.Model { return color.NRGBAModel }
func (r *Raster) Bounds() image.Rectangle { return r.img.Rect }
func (r *Raster) At(x, y int) color.Color { return r.img.At(x, y) }

// NRGBAAt returns the pixel at (x, y) without boxing it in an interface.
func (r *Raster) NRGBAAt(x, y int) color.NRGBA { return r.img.NRGBAAt(x, y) }

// Clone returns a deep copy that the caller may draw on.
func (r *Raster) Clone() *image.NRGBA {
	dst := image.NewNRGBA(r.img.Rect)
	copy(dst.Pix, r.img.Pix)

	return dst
}

// Equal reports whether both rasters have the same size and pixels.
func (r *Raster) Equal(o *Raster) bool {
	if r.img.Rect != o.img.Rect {
		return false
	}

	w := r.Width() * 4
	for y := 0; y < r.Height(); y++ {
		a := r.img.Pix[y*r.img.Stride : y*r.img.Stride+w]
		b := o.img.Pix[y*o.img.Stride : y*o.img.Stride+w]
		for i := range a {
			if a[i] != b[i] {
				return false
			}
		}
	}

	return true
}
