package cache

// ScopedKeyer wraps a Keyer with a prefix so multiple projects can share
// one cache backend without key collisions. The serve mode uses one scope
// per watched project.
//
// Example usage:
//
//	projectKeyer := NewScopedKeyer(NewDefaultKeyer(), "project:payments:")
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

// SnapshotKey generates a prefixed key for a raw snapshot.
func (k *ScopedKeyer) SnapshotKey(hash string) string {
	return k.prefix + k.inner.SnapshotKey(hash)
}

// DetectKey generates a prefixed key for a detection result.
func (k *ScopedKeyer) DetectKey(snapshotHash string, opts DetectKeyOpts) string {
	return k.prefix + k.inner.DetectKey(snapshotHash, opts)
}

// LayoutKey generates a prefixed key for a finalized layout.
func (k *ScopedKeyer) LayoutKey(snapshotHash string, opts LayoutKeyOpts) string {
	return k.prefix + k.inner.LayoutKey(snapshotHash, opts)
}
