package uow

// Kind describes the net effect of all lifecycle events observed for one
// entity within a single unit of work.
type Kind int

const (
	Insert Kind = iota
	Update
	Delete
	// StaleVersion marks an entity whose whole lifecycle fell inside the
	// current unit of work. No version record may be emitted for it.
	StaleVersion
)

func (k Kind) String() string {
	switch k {
	case Insert:
		return "insert"
	case Update:
		return "update"
	case Delete:
		return "delete"
	case StaleVersion:
		return "stale"
	}
	return "unknown"
}

// Operation is the finalized entry the ledger holds for one entity.
// Processed is owned by the downstream consumer; the ledger stores fresh
// operations with Processed unset and never flips the flag on merge.
type Operation struct {
	Key       EntityKey
	Kind      Kind
	Processed bool
}

// Equal compares target identity and kind. Processed is consumer-side
// bookkeeping and does not participate.
func (o Operation) Equal(other Operation) bool {
	return o.Key.Equal(other.Key) && o.Kind == other.Kind
}
