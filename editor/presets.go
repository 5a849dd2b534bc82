package editor

import (
	"fmt"
	"sort"
)

type PresetName string

const (
	PresetBlackAndWhite PresetName = "blackAndWhite"
	PresetSepia         PresetName = "sepia"
	PresetVintage       PresetName = "vintage"
	PresetVibrant       PresetName = "vibrant"
	PresetSoft          PresetName = "soft"
	PresetDramatic      PresetName = "dramatic"
	PresetCool          PresetName = "cool"
	PresetWarm          PresetName = "warm"
	PresetFaded         PresetName = "faded"
	PresetSharpen       PresetName = "sharpen"
)

type preset struct {
	spec        FilterSpec
	description string
}

var presets = map[PresetName]preset{
	PresetBlackAndWhite: {FilterSpec{Grayscale: true, Contrast: 10}, "Classic black and white"},
	PresetSepia:         {FilterSpec{Sepia: 100, Brightness: 10}, "Vintage sepia effect"},
	PresetVintage:       {FilterSpec{Sepia: 30, Contrast: -10, Saturation: -20, Brightness: 5}, "Softened retro look"},
	PresetVibrant:       {FilterSpec{Saturation: 30, Contrast: 10, Brightness: 5}, "Vivid colors"},
	PresetSoft:          {FilterSpec{Brightness: 10, Contrast: -10, Saturation: -10}, "Soft and subtle"},
	PresetDramatic:      {FilterSpec{Contrast: 30, Saturation: 20, Brightness: -5}, "Intense contrast"},
	PresetCool:          {FilterSpec{HueRotate: 200, Saturation: 10}, "Cool tones"},
	PresetWarm:          {FilterSpec{HueRotate: 30, Saturation: 15}, "Warm tones"},
	PresetFaded:         {FilterSpec{Contrast: -20, Brightness: 15, Saturation: -15}, "Faded effect"},
	PresetSharpen:       {FilterSpec{Contrast: 20, Saturation: 10}, "Enhanced sharpness"},
}

// LookupPreset returns the fixed FilterSpec of a named preset.
func LookupPreset(name PresetName) (FilterSpec, bool) {
	p, ok := presets[name]
	return p.spec, ok
}

// PresetDescription returns a human readable description, or the name
// itself for unknown presets.
func PresetDescription(name PresetName) string {
	if p, ok := presets[name]; ok {
		return p.description
	}

	return string(name)
}

func PresetNames() []PresetName {
	names := make([]PresetName, 0, len(presets))
	for k := range presets {
		names = append(names, k)
	}
	sort.Slice(names, func(i, j int) bool { return names[i] < names[j] })

	return names
}

func ApplyPreset(r *Raster, name PresetName) (*Raster, error) {
	spec, ok := LookupPreset(name)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownPreset, name)
	}

	return ApplyFilters(r, spec)
}
