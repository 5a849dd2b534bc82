package editor

import (
	"errors"
	"image"
	"image/color"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func solid(w, h int, c color.NRGBA) *Raster {
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.SetNRGBA(x, y, c)
		}
	}

	return wrap(img)
}

func gray(v uint8) color.NRGBA {
	return color.NRGBA{R: v, G: v, B: v, A: 255}
}

func TestApplyFiltersIdentity(t *testing.T) {
	src := gradient(20, 20)

	out, err := ApplyFilters(src, FilterSpec{})
	require.NoError(t, err)
	assert.True(t, src.Equal(out))
}

func TestApplyFiltersSingleOperators(t *testing.T) {
	tests := []struct {
		name string
		in   color.NRGBA
		spec FilterSpec
		want color.NRGBA
	}{
		{"brightness", color.NRGBA{100, 100, 100, 255}, FilterSpec{Brightness: 100}, color.NRGBA{200, 200, 200, 255}},
		{"darken", color.NRGBA{200, 100, 50, 255}, FilterSpec{Brightness: -100}, color.NRGBA{0, 0, 0, 255}},
		{"invert", color.NRGBA{0, 128, 255, 200}, FilterSpec{Invert: true}, color.NRGBA{255, 127, 0, 200}},
		{"grayscale", color.NRGBA{255, 0, 0, 255}, FilterSpec{Grayscale: true}, color.NRGBA{54, 54, 54, 255}},
		{"contrast flattens", color.NRGBA{10, 240, 90, 255}, FilterSpec{Contrast: -100}, color.NRGBA{128, 128, 128, 255}},
		{"desaturate", color.NRGBA{255, 0, 0, 255}, FilterSpec{Saturation: -100}, color.NRGBA{54, 54, 54, 255}},
		{"clamped", color.NRGBA{200, 200, 200, 255}, FilterSpec{Brightness: 100}, color.NRGBA{255, 255, 255, 255}},
		{"hue-rotate half turn", color.NRGBA{255, 0, 0, 255}, FilterSpec{HueRotate: 180}, color.NRGBA{0, 109, 109, 255}},
		{"hue-rotate quarter turn", color.NRGBA{255, 0, 0, 255}, FilterSpec{HueRotate: 90}, color.NRGBA{0, 91, 0, 255}},
		{"half sepia", color.NRGBA{200, 100, 50, 255}, FilterSpec{Sepia: 50}, color.NRGBA{182, 123, 82, 255}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, err := ApplyFilters(solid(3, 3, tt.in), tt.spec)
			require.NoError(t, err)
			assert.Equal(t, tt.want, out.NRGBAAt(1, 1))
		})
	}
}

func TestApplyFiltersOrder(t *testing.T) {
	// 102 is 0.4 normalized: brightness(150%) gives 0.6, contrast(150%)
	// gives 1.5*0.6-0.25 = 0.65. The reverse order would give 0.525.
	out, err := ApplyFilters(solid(2, 2, color.NRGBA{102, 102, 102, 255}), FilterSpec{Brightness: 50, Contrast: 50})
	require.NoError(t, err)
	assert.Equal(t, uint8(166), out.NRGBAAt(0, 0).R)
}

func TestApplyFiltersBlur(t *testing.T) {
	img := image.NewNRGBA(image.Rect(0, 0, 21, 21))
	for i := 3; i < len(img.Pix); i += 4 {
		img.Pix[i] = 255
	}
	img.SetNRGBA(10, 10, color.NRGBA{255, 255, 255, 255})

	out, err := ApplyFilters(wrap(img), FilterSpec{Blur: 2})
	require.NoError(t, err)
	assert.Equal(t, 21, out.Width())
	assert.Less(t, out.NRGBAAt(10, 10).R, uint8(255), "peak spreads out")
	assert.Greater(t, out.NRGBAAt(11, 10).R, uint8(0), "neighbours pick up energy")
}

func TestApplyFiltersValidation(t *testing.T) {
	src := gradient(4, 4)

	bad := []FilterSpec{
		{Brightness: 150},
		{Contrast: -101},
		{Saturation: 200},
		{Sepia: -1},
		{Blur: 11},
		{HueRotate: 361},
	}

	for _, spec := range bad {
		_, err := ApplyFilters(src, spec)

		var filterErr *InvalidFilterError
		assert.True(t, errors.As(err, &filterErr), "%+v is rejected", spec)
	}
}

func TestPresets(t *testing.T) {
	assert.Len(t, PresetNames(), 10)

	sepia, ok := LookupPreset(PresetSepia)
	require.True(t, ok)
	assert.Equal(t, FilterSpec{Sepia: 100, Brightness: 10}, sepia)

	vintage, _ := LookupPreset(PresetVintage)
	assert.Equal(t, FilterSpec{Sepia: 30, Contrast: -10, Saturation: -20, Brightness: 5}, vintage)

	cool, _ := LookupPreset(PresetCool)
	assert.Equal(t, FilterSpec{HueRotate: 200, Saturation: 10}, cool)

	for _, name := range PresetNames() {
		spec, _ := LookupPreset(name)
		assert.NoError(t, spec.Validate(), string(name))
		assert.NotEqual(t, string(name), PresetDescription(name))
	}

	assert.Equal(t, "mystery", PresetDescription("mystery"))
}

func TestApplyPresetDeterministic(t *testing.T) {
	src := gradient(32, 32)

	first, err := ApplyPreset(src, PresetSepia)
	require.NoError(t, err)
	assert.False(t, src.Equal(first), "sepia changes the image")

	second, err := ApplyPreset(src, PresetSepia)
	require.NoError(t, err)
	assert.True(t, first.Equal(second), "same input gives the same output")

	_, err = ApplyPreset(src, "lomo")
	assert.True(t, errors.Is(err, ErrUnknownPreset))
}
