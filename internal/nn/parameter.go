package nn

import (
	"github.com/softshare-ml/softshare/internal/tensor"
)

// Group tags a parameter with the optimization group it belongs to.
//
// The retraining objective mixes parameters with very different natural
// scales (network weights vs. mixture means vs. log-variances vs. mixing
// logits), so the optimizer applies a separate learning rate per group.
// Tags are explicit rather than derived from parameter names.
type Group int

// Parameter groups, one per differential learning rate.
const (
	GroupWeights Group = iota // Network weights (and biases during pretraining)
	GroupMeans                // Mixture component means
	GroupLogVars              // Mixture component log-variances
	GroupLogits               // Mixture mixing-proportion logits
)

// String returns a human-readable group name.
func (g Group) String() string {
	switch g {
	case GroupWeights:
		return "weights"
	case GroupMeans:
		return "means"
	case GroupLogVars:
		return "logvars"
	case GroupLogits:
		return "logits"
	default:
		return "unknown"
	}
}

// Parameter represents a trainable tensor.
//
// Parameters carry their gradient (accumulated by backward passes and
// consumed by the optimizer), a Group tag, and an optional set of fixed
// element indices that the optimizer must never update. The fixed-index
// mechanism is how the zero component's mean stays pinned at exactly 0.
//
// Example:
//
//	means := nn.NewParameter("mixture.means", t, nn.GroupMeans)
//	means.Freeze(0) // zero-component mean never moves
type Parameter struct {
	name   string
	tensor *tensor.Tensor
	grad   *tensor.Tensor // Allocated on first use
	group  Group
	fixed  []bool // nil when no element is fixed
}

// NewParameter creates a new trainable parameter.
func NewParameter(name string, t *tensor.Tensor, group Group) *Parameter {
	return &Parameter{
		name:   name,
		tensor: t,
		group:  group,
	}
}

// Name returns the parameter name.
func (p *Parameter) Name() string {
	return p.name
}

// Group returns the optimization group tag.
func (p *Parameter) Group() Group {
	return p.group
}

// Tensor returns the parameter tensor.
func (p *Parameter) Tensor() *tensor.Tensor {
	return p.tensor
}

// Grad returns the gradient tensor, allocating a zero-filled one on first use.
func (p *Parameter) Grad() *tensor.Tensor {
	if p.grad == nil {
		p.grad = tensor.Zeros(p.tensor.Shape())
	}
	return p.grad
}

// ZeroGrad clears the accumulated gradient.
//
// Call before each training iteration to avoid accumulating gradients
// across iterations.
func (p *Parameter) ZeroGrad() {
	if p.grad != nil {
		p.grad.Fill(0)
	}
}

// Freeze marks the element at flat index i as fixed: the optimizer skips it
// regardless of the group learning rate.
func (p *Parameter) Freeze(i int) {
	if p.fixed == nil {
		p.fixed = make([]bool, p.tensor.NumElements())
	}
	p.fixed[i] = true
}

// IsFixed reports whether the element at flat index i is fixed.
func (p *Parameter) IsFixed(i int) bool {
	return p.fixed != nil && p.fixed[i]
}
