package model

// Lifecycle is the derived state of a monetary record. Storage keeps the
// deleted/rejected/reversed columns; this collapses them into the one legal
// state so callers never reason about flag combinations.
type Lifecycle string

const (
	LifecycleActive           Lifecycle = "active"
	LifecycleDeleted          Lifecycle = "deleted"
	LifecycleRejected         Lifecycle = "rejected"
	LifecycleRejectedReversed Lifecycle = "rejected_reversed"
)

func lifecycleOf(deleted, rejected, reversed bool) Lifecycle {
	switch {
	case deleted:
		return LifecycleDeleted
	case rejected && reversed:
		return LifecycleRejectedReversed
	case rejected:
		return LifecycleRejected
	default:
		return LifecycleActive
	}
}
