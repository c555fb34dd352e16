package uow

// Entity is the minimal view of a tracked object the engine needs: its
// declared type name and its current primary key values.
type Entity interface {
	EntityType() string
	// PrimaryKey returns the current primary key column values in declared
	// order.
	PrimaryKey() []any
}

// Schema is the capability set the lifecycle-tracking collaborator injects.
// It keeps the merge engine decoupled from any particular object mapping:
// the engine never introspects relationship metadata itself, it asks.
type Schema interface {
	// IsCollectionAttribute reports whether attr on entityType denotes a
	// to-many or many-to-many relationship. Changes to such attributes are
	// expressed on the other side of the relationship and must not mark
	// this entity as changed.
	IsCollectionAttribute(entityType, attr string) bool

	// PrimaryKeyAttributes returns the primary key column names for
	// entityType in declared order.
	PrimaryKeyAttributes(entityType string) []string

	// PersistedIdentity returns the primary key values e was last persisted
	// with, distinct from its current attribute values. The boolean is
	// false if e has never been persisted.
	PersistedIdentity(e Entity) ([]any, bool)
}
