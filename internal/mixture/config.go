package mixture

import (
	"errors"
	"fmt"
)

// Configuration errors returned by Config.Validate.
var (
	ErrTooFewComponents = errors.New("mixture: need at least 2 components")
	ErrBadPiZero        = errors.New("mixture: PiZero must be in (0, 1)")
	ErrBadHyperPrior    = errors.New("mixture: invalid hyper-prior setting")
)

// Config describes a Gaussian mixture prior over network weights.
//
// Component 0 is the pruning "spike": its mean is pinned at exactly 0 and its
// mixing proportion at PiZero. The remaining K-1 components have learned
// means and share the remaining 1-PiZero mass through learned logits.
type Config struct {
	// K is the total number of mixture components, including the zero spike.
	K int

	// PiZero is the fixed mixing proportion of the zero component.
	// Values near 1 (e.g. 0.99) express a strong pruning preference.
	PiZero float64

	// TargetVariance centers the Inverse-Gamma hyper-prior: each component's
	// variance has hyper-prior mean TargetVariance.
	TargetVariance float64

	// Confidence sets how tightly the hyper-prior concentrates around
	// TargetVariance for the non-zero components. Must be > 1.
	Confidence float64

	// ZeroConfidence is the hyper-prior confidence for the zero component.
	// It must exceed Confidence: the spike accumulates far more weight
	// evidence, so its variance needs a correspondingly stronger anchor.
	ZeroConfidence float64

	// VarianceFloor is the smallest variance the density computation will
	// use. Guards the log-density against a collapsed component producing
	// non-finite values. Defaults to 1e-8.
	VarianceFloor float64
}

// Validate checks the configuration, returning a descriptive error for the
// first violated constraint.
func (c Config) Validate() error {
	if c.K < 2 {
		return fmt.Errorf("%w: K=%d", ErrTooFewComponents, c.K)
	}
	if c.PiZero <= 0 || c.PiZero >= 1 {
		return fmt.Errorf("%w: got %g", ErrBadPiZero, c.PiZero)
	}
	if c.TargetVariance <= 0 {
		return fmt.Errorf("%w: TargetVariance=%g (must be > 0)", ErrBadHyperPrior, c.TargetVariance)
	}
	if c.Confidence <= 1 {
		return fmt.Errorf("%w: Confidence=%g (must be > 1)", ErrBadHyperPrior, c.Confidence)
	}
	if c.ZeroConfidence <= c.Confidence {
		return fmt.Errorf("%w: ZeroConfidence=%g must exceed Confidence=%g",
			ErrBadHyperPrior, c.ZeroConfidence, c.Confidence)
	}
	return nil
}

// withDefaults fills in unset optional fields.
func (c Config) withDefaults() Config {
	if c.VarianceFloor == 0 {
		c.VarianceFloor = 1e-8
	}
	return c
}

// HyperPrior holds the Inverse-Gamma shape/rate pair anchoring one
// component's variance.
type HyperPrior struct {
	Shape float64 // alpha
	Rate  float64 // beta
}

// hyperPriorFor derives the shape/rate pair from a target variance and a
// confidence c > 1, chosen so the Inverse-Gamma mean beta/(alpha-1) equals
// the target exactly and larger confidence means tighter concentration.
func hyperPriorFor(targetVariance, confidence float64) HyperPrior {
	return HyperPrior{
		Shape: confidence,
		Rate:  (confidence - 1) * targetVariance,
	}
}
