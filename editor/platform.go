package editor

import (
	"context"
	"sort"
)

type Platform string

const (
	PlatformInstagram Platform = "instagram"
	PlatformFacebook  Platform = "facebook"
	PlatformTwitter   Platform = "twitter"
	PlatformLinkedIn  Platform = "linkedin"
)

var platformProfiles = map[Platform]ExportSpec{
	PlatformInstagram: {MaxWidth: 1080, MaxHeight: 1080, Quality: Float64(0.9), Format: FormatJPEG},
	PlatformFacebook:  {MaxWidth: 2048, MaxHeight: 2048, Quality: Float64(0.9), Format: FormatJPEG},
	PlatformTwitter:   {MaxWidth: 1200, MaxHeight: 675, Quality: Float64(0.85), Format: FormatJPEG},
	PlatformLinkedIn:  {MaxWidth: 1200, MaxHeight: 627, Quality: Float64(0.9), Format: FormatJPEG},
}

// PlatformProfile returns the export profile of p. Unknown platforms get
// the instagram profile and ok is false.
func PlatformProfile(p Platform) (spec ExportSpec, ok bool) {
	spec, ok = platformProfiles[p]
	if !ok {
		spec = platformProfiles[PlatformInstagram]
	}

	return spec, ok
}

func Platforms() []Platform {
	out := make([]Platform, 0, len(platformProfiles))
	for k := range platformProfiles {
		out = append(out, k)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })

	return out
}

// OptimizeForPlatform exports r with the profile of the named platform.
func OptimizeForPlatform(ctx context.Context, r *Raster, p Platform) (*Encoded, error) {
	return defaultExporter.OptimizeForPlatform(ctx, r, p)
}

func (e *Exporter) OptimizeForPlatform(ctx context.Context, r *Raster, p Platform) (*Encoded, error) {
	spec, _ := PlatformProfile(p)

	return e.Export(ctx, r, spec)
}
