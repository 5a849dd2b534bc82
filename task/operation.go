package task

import (
	"strconv"
	"strings"

	"github.com/pkg/errors"
	"github.com/seventv/image-editor/go/editor"
)

type OperationType string

const (
	OperationCrop      OperationType = "crop"
	OperationRotate    OperationType = "rotate"
	OperationFlip      OperationType = "flip"
	OperationResize    OperationType = "resize"
	OperationCropRatio OperationType = "crop_ratio"
	OperationFilters   OperationType = "filters"
	OperationPreset    OperationType = "preset"
)

var ErrInvalidOperation = errors.New("invalid operation")

// Operation is one step of a task's edit chain. Only the field matching
// Type is read.
type Operation struct {
	Type    OperationType      `json:"type" yaml:"type"`
	Crop    *editor.CropSpec   `json:"crop,omitempty" yaml:"crop,omitempty"`
	Degrees float64            `json:"degrees,omitempty" yaml:"degrees,omitempty"`
	Flip    *editor.FlipSpec   `json:"flip,omitempty" yaml:"flip,omitempty"`
	Resize  *editor.ResizeSpec `json:"resize,omitempty" yaml:"resize,omitempty"`
	// Ratio is a crop preset name, "W:H" or a decimal ratio.
	Ratio   string             `json:"ratio,omitempty" yaml:"ratio,omitempty"`
	Filters *editor.FilterSpec `json:"filters,omitempty" yaml:"filters,omitempty"`
	Preset  editor.PresetName  `json:"preset,omitempty" yaml:"preset,omitempty"`
}

func (o Operation) Validate() error {
	switch o.Type {
	case OperationCrop:
		if o.Crop == nil {
			return errors.Wrap(ErrInvalidOperation, "crop without region")
		}
	case OperationFlip:
		if o.Flip == nil {
			return errors.Wrap(ErrInvalidOperation, "flip without axes")
		}
	case OperationResize:
		if o.Resize == nil {
			return errors.Wrap(ErrInvalidOperation, "resize without size")
		}
	case OperationFilters:
		if o.Filters == nil {
			return errors.Wrap(ErrInvalidOperation, "filters without values")
		}
		return o.Filters.Validate()
	case OperationCropRatio:
		_, err := ParseRatio(o.Ratio)
		return err
	case OperationPreset:
		if _, ok := editor.LookupPreset(o.Preset); !ok {
			return errors.Wrapf(editor.ErrUnknownPreset, "preset %q", o.Preset)
		}
	case OperationRotate:
	default:
		return errors.Wrapf(ErrInvalidOperation, "unknown type %q", o.Type)
	}

	return nil
}

// Apply runs the operation on r and returns the new raster.
func (o Operation) Apply(r *editor.Raster) (*editor.Raster, error) {
	if err := o.Validate(); err != nil {
		return nil, err
	}

	switch o.Type {
	case OperationCrop:
		return editor.Crop(r, *o.Crop)
	case OperationRotate:
		return editor.Rotate(r, o.Degrees)
	case OperationFlip:
		return editor.Flip(r, *o.Flip), nil
	case OperationResize:
		return editor.Resize(r, *o.Resize)
	case OperationCropRatio:
		ratio, _ := ParseRatio(o.Ratio)
		return editor.CropToRatio(r, ratio)
	case OperationFilters:
		return editor.ApplyFilters(r, *o.Filters)
	case OperationPreset:
		return editor.ApplyPreset(r, o.Preset)
	}

	return nil, errors.Wrapf(ErrInvalidOperation, "unknown type %q", o.Type)
}

// ParseRatio accepts a crop preset name ("story"), a "W:H" pair or a
// positive decimal.
func ParseRatio(s string) (float64, error) {
	if c, ok := editor.LookupCropRatio(editor.CropRatioName(s)); ok {
		return c.Ratio(), nil
	}

	if w, h, ok := strings.Cut(s, ":"); ok {
		fw, err1 := strconv.ParseFloat(strings.TrimSpace(w), 64)
		fh, err2 := strconv.ParseFloat(strings.TrimSpace(h), 64)
		if err1 != nil || err2 != nil || fw <= 0 || fh <= 0 {
			return 0, errors.Wrapf(ErrInvalidOperation, "bad ratio %q", s)
		}

		return fw / fh, nil
	}

	v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil || v <= 0 {
		return 0, errors.Wrapf(ErrInvalidOperation, "bad ratio %q", s)
	}

	return v, nil
}

// OutputQuality returns the quality of the last resize in ops that sets
// one, or nil.
func OutputQuality(ops []Operation) *float64 {
	var q *float64
	for _, op := range ops {
		if op.Type == OperationResize && op.Resize != nil && op.Resize.Quality != nil {
			q = op.Resize.Quality
		}
	}

	return q
}

// ApplyAll runs ops in order.
func ApplyAll(r *editor.Raster, ops []Operation) (*editor.Raster, error) {
	for i, op := range ops {
		var err error
		if r, err = op.Apply(r); err != nil {
			return nil, errors.Wrapf(err, "operation %d (%s)", i, op.Type)
		}
	}

	return r, nil
}
