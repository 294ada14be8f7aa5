package models

// Lifecycle is the visibility state of a stored entity.
//
//	Active      visible and referenced
//	Deactivated hidden, still referenced by history (soft delete)
//	Purged      gone from the store (hard delete); never persisted
type Lifecycle string

const (
	LifecycleActive      Lifecycle = "active"
	LifecycleDeactivated Lifecycle = "deactivated"
	LifecyclePurged      Lifecycle = "purged"
)

// IsActive reports whether the entity should be visible.
func (l Lifecycle) IsActive() bool {
	return l == LifecycleActive
}
