package scan

import "obsidian-core/chaincfg"

// ActivationHeights is the "opaque handle" named in spec.md §6: a source of
// protocol activation heights, used only by the tree-size seed resolver to
// decide whether a pre-activation block may be scanned with a zero starting
// tree size. Modeled as an interface rather than a concrete dependency on
// *chaincfg.Params so tests can supply fixed activation heights without
// constructing a full network parameter set.
type ActivationHeights interface {
	// SaplingActivation returns the Sapling activation height and true if
	// one is configured for this network.
	SaplingActivation() (height uint64, ok bool)
	// OrchardActivation returns the Orchard activation height and true if
	// one is configured for this network.
	OrchardActivation() (height uint64, ok bool)
}

// ParamsActivation adapts *chaincfg.Params to ActivationHeights, letting the
// scanner reuse the node's existing network parameters instead of carrying
// its own copy of the activation schedule.
type ParamsActivation struct {
	Params *chaincfg.Params
}

func (p ParamsActivation) SaplingActivation() (uint64, bool) {
	if p.Params == nil || p.Params.SaplingActivationHeight == nil {
		return 0, false
	}
	return uint64(*p.Params.SaplingActivationHeight), true
}

func (p ParamsActivation) OrchardActivation() (uint64, bool) {
	if p.Params == nil || p.Params.OrchardActivationHeight == nil {
		return 0, false
	}
	return uint64(*p.Params.OrchardActivationHeight), true
}

// NeverActive is an ActivationHeights that reports both protocols as having
// no activation height configured, which is useful for tests that don't
// care about pre-activation zero-sizing behavior.
type NeverActive struct{}

func (NeverActive) SaplingActivation() (uint64, bool) { return 0, false }
func (NeverActive) OrchardActivation() (uint64, bool) { return 0, false }
