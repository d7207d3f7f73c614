package ffnn

import (
	"errors"
	"math"
)

var (
	// ErrIndexRange is returned when a unit, weight, or training rule
	// is requested at a position beyond the stored count.
	ErrIndexRange = errors.New("index out of range")
	// ErrDimension is returned when a vector length disagrees with
	// the network's input or output unit count.
	ErrDimension = errors.New("dimension mismatch")
	// ErrUninitialized is returned when a unit is used before it has
	// been connected and randomized.
	ErrUninitialized = errors.New("unit not initialized")
	// ErrRandomized is returned by a second call to Randomize.
	ErrRandomized = errors.New("unit already randomized")
	// ErrBackward is returned when a hidden unit's backward buffers
	// don't hold exactly one entry per connected output unit.
	ErrBackward = errors.New("backward buffer mismatch")
	// ErrMaxEpochs is returned by Train when the error bound was not
	// reached.
	ErrMaxEpochs = errors.New("max epochs reached")
)

// Sigmoid is the logistic activation function used by every unit.
func Sigmoid(x float64) float64 {
	return 1.0 / (1.0 + math.Exp(-x))
}

// SigmoidD1 is the sigmoid derivative expressed in terms of the
// sigmoid's own output y.
func SigmoidD1(y float64) float64 {
	return y * (1 - y)
}
