package cryst

import (
	"math"

	"github.com/pkg/errors"
)

// StandardScaler standardizes property vectors elementwise using location and
// scale parameters fit once over a whole collection. Fitting is a collaborator
// operation: datasets never fit their own scaler, they receive one after
// construction and treat it as immutable from then on (read-only sharing,
// safe for concurrent indexed access).
type StandardScaler struct {
	Means []float64
	Stds  []float64
}

// FitScaler fits a StandardScaler over a collection of equally sized property
// vectors. Components with fewer than two observations or zero spread get a
// unit scale so the transform stays defined and invertible.
func FitScaler(values [][]float64) (*StandardScaler, error) {
	if len(values) == 0 {
		return nil, ErrEmptyFit
	}
	dim := len(values[0])
	if dim == 0 {
		return nil, errors.Wrap(ErrEmptyFit, "zero-length value vectors")
	}
	for i, v := range values {
		if len(v) != dim {
			return nil, errors.Wrapf(ErrDimensionMismatch, "value %d has dimension %d, want %d", i, len(v), dim)
		}
	}

	means := make([]float64, dim)
	for _, v := range values {
		for j, x := range v {
			means[j] += x
		}
	}
	n := float64(len(values))
	for j := range means {
		means[j] /= n
	}

	stds := make([]float64, dim)
	if len(values) < 2 {
		for j := range stds {
			stds[j] = 1
		}
		return &StandardScaler{Means: means, Stds: stds}, nil
	}
	for _, v := range values {
		for j, x := range v {
			d := x - means[j]
			stds[j] += d * d
		}
	}
	for j := range stds {
		// Sample standard deviation, matching the reference fit.
		stds[j] = math.Sqrt(stds[j] / (n - 1))
		if stds[j] == 0 {
			stds[j] = 1
		}
	}
	return &StandardScaler{Means: means, Stds: stds}, nil
}

// FitScalerFromRecords fits a StandardScaler over the named property of every
// record. All records must carry the property with one common dimension.
func FitScalerFromRecords(records []Record, key string) (*StandardScaler, error) {
	values := make([][]float64, 0, len(records))
	for _, rec := range records {
		v, err := rec.Prop(key)
		if err != nil {
			return nil, err
		}
		values = append(values, v)
	}
	scaler, err := FitScaler(values)
	if err != nil {
		return nil, errors.Wrapf(err, "fitting scaler over property %q", key)
	}
	return scaler, nil
}

// Dim returns the fitted dimension, or 0 for an unfitted scaler.
func (s *StandardScaler) Dim() int {
	if s == nil {
		return 0
	}
	return len(s.Means)
}

// Transform standardizes x elementwise: (x - mean) / std.
func (s *StandardScaler) Transform(x []float64) ([]float64, error) {
	if s == nil || len(s.Means) == 0 {
		return nil, ErrNotFitted
	}
	if len(x) != len(s.Means) {
		return nil, errors.Wrapf(ErrDimensionMismatch, "value has dimension %d, scaler fitted with %d", len(x), len(s.Means))
	}
	out := make([]float64, len(x))
	for j, v := range x {
		out[j] = (v - s.Means[j]) / s.Stds[j]
	}
	return out, nil
}

// InverseTransform undoes Transform: y * std + mean.
func (s *StandardScaler) InverseTransform(y []float64) ([]float64, error) {
	if s == nil || len(s.Means) == 0 {
		return nil, ErrNotFitted
	}
	if len(y) != len(s.Means) {
		return nil, errors.Wrapf(ErrDimensionMismatch, "value has dimension %d, scaler fitted with %d", len(y), len(s.Means))
	}
	out := make([]float64, len(y))
	for j, v := range y {
		out[j] = v*s.Stds[j] + s.Means[j]
	}
	return out, nil
}
