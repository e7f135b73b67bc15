package cache

// ScopedKeyer wraps a Keyer with a prefix so deployments sharing one
// backend (several model runs feeding one Redis, say) keep separate cache
// namespaces.
//
// Example usage:
//
//	// Keys scoped to one model run
//	runKeyer := NewScopedKeyer(NewDefaultKeyer(), "run:2021052315:")
type ScopedKeyer struct {
	inner  Keyer
	prefix string
}

// NewScopedKeyer creates a keyer with a prefix.
// The prefix is prepended to all generated keys.
func NewScopedKeyer(inner Keyer, prefix string) Keyer {
	if inner == nil {
		inner = NewDefaultKeyer()
	}
	return &ScopedKeyer{
		inner:  inner,
		prefix: prefix,
	}
}

// FigureKey generates a prefixed key for figure caching.
func (k *ScopedKeyer) FigureKey(contentHash string, opts FigureKeyOpts) string {
	return k.prefix + k.inner.FigureKey(contentHash, opts)
}
