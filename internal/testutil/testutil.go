package testutil

import (
	"bytes"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func Assert(t *testing.T, expected interface{}, value interface{}, msg string) {
	t.Helper()

	assert.Equal(t, expected, value, msg)
}

func IsNil(t *testing.T, err error, msg string) {
	t.Helper()

	require.NoError(t, err, msg)
}

func IsErr(t *testing.T, err error, msg string) {
	t.Helper()

	require.Error(t, err, msg)
}

func ReadFile(t *testing.T, file string) []byte {
	t.Helper()

	data, err := os.ReadFile(file)
	require.NoError(t, err, "read file %s", file)

	return data
}

// Gradient returns a w x h image whose pixels all differ, so geometry
// mistakes show up as pixel mismatches.
func Gradient(w, h int) *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.SetNRGBA(x, y, color.NRGBA{
				R: uint8(x * 255 / maxInt(w-1, 1)),
				G: uint8(y * 255 / maxInt(h-1, 1)),
				B: uint8((x + y) % 256),
				A: 255,
			})
		}
	}

	return img
}

func PNG(t *testing.T, img image.Image) []byte {
	t.Helper()

	buf := bytes.Buffer{}
	require.NoError(t, png.Encode(&buf, img), "png encode")

	return buf.Bytes()
}

func JPEG(t *testing.T, img image.Image) []byte {
	t.Helper()

	buf := bytes.Buffer{}
	require.NoError(t, jpeg.Encode(&buf, img, &jpeg.Options{Quality: 90}), "jpeg encode")

	return buf.Bytes()
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}

	return b
}
