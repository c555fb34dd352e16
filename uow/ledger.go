package uow

import (
	"log/slog"
	"os"
	"sort"

	"github.com/cockroachdb/errors"
	"github.com/emirpasic/gods/maps/linkedhashmap"
	"github.com/emirpasic/gods/sets/hashset"
)

// Ledger collapses the raw lifecycle events of one unit of work into at most
// one Operation per entity. It is owned exclusively by the enclosing unit of
// work: one writer, one flush-time reader, no locking.
//
// Entries keep their insertion position when overwritten. The one exception
// is primary key re-keying, where the entry is removed and reinserted under
// the new key and therefore moves to the end of the iteration order. That is
// the documented contract, not an accident of the container.
type Ledger struct {
	schema Schema
	ops    *linkedhashmap.Map // EntityKey hash -> Operation
	log    *slog.Logger
}

func NewLedger(schema Schema) *Ledger {
	return NewLedgerWithLogger(schema, slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelWarn,
	})))
}

func NewLedgerWithLogger(schema Schema, log *slog.Logger) *Ledger {
	return &Ledger{
		schema: schema,
		ops:    linkedhashmap.New(),
		log:    log,
	}
}

// RecordInsert notes that e was newly created in this unit of work. An
// insert observed for an identity that already carries an operation means
// the identity was deleted and re-assigned within the same unit of work; the
// net observable effect for that identity's history is a modification.
func (l *Ledger) RecordInsert(e Entity) error {
	k, err := KeyOf(e)
	if err != nil {
		return errors.WithStack(err)
	}

	kind := Insert
	if existing, ok := l.Get(k); ok && existing.Kind != Insert {
		kind = Update
	}
	l.put(k, Operation{Key: k, Kind: kind})

	l.log.Info("record insert",
		slog.String("key", k.String()),
		slog.String("kind", kind.String()),
	)

	return nil
}

// RecordUpdate notes that e was mutated, with the names of the changed
// attributes. Changes to to-many and many-to-many relationship attributes do
// not count: they are expressed on the other side of the relationship and
// would otherwise double-count. If no qualifying change remains, the ledger
// is left untouched.
func (l *Ledger) RecordUpdate(e Entity, changed []string) error {
	if !l.hasQualifyingChange(e.EntityType(), changed) {
		return nil
	}

	if l.primaryKeyChanged(e.EntityType(), changed) {
		if err := l.rekey(e); err != nil {
			return errors.WithStack(err)
		}
	}

	k, err := KeyOf(e)
	if err != nil {
		return errors.WithStack(err)
	}

	// An entity already recorded as Insert was never externally visible
	// before this unit of work, so the net operation stays Insert.
	kind := Update
	if existing, ok := l.Get(k); ok {
		switch existing.Kind {
		case Insert:
			kind = Insert
		case Delete:
			kind = Delete
		case Update, StaleVersion:
		}
	}
	l.put(k, Operation{Key: k, Kind: kind})

	l.log.Info("record update",
		slog.String("key", k.String()),
		slog.String("kind", kind.String()),
	)

	return nil
}

// RecordDelete notes that e was removed. Delete after Insert within the same
// unit of work yields StaleVersion: the entity never outlived the unit of
// work that created it, and no version record may be emitted.
func (l *Ledger) RecordDelete(e Entity) error {
	k, err := KeyOf(e)
	if err != nil {
		return errors.WithStack(err)
	}

	kind := Delete
	if existing, ok := l.Get(k); ok && existing.Kind == Insert {
		kind = StaleVersion
	}
	l.put(k, Operation{Key: k, Kind: kind})

	l.log.Info("record delete",
		slog.String("key", k.String()),
		slog.String("kind", kind.String()),
	)

	return nil
}

func (l *Ledger) hasQualifyingChange(entityType string, changed []string) bool {
	for _, attr := range changed {
		if !l.schema.IsCollectionAttribute(entityType, attr) {
			return true
		}
	}
	return false
}

func (l *Ledger) primaryKeyChanged(entityType string, changed []string) bool {
	for _, pk := range l.schema.PrimaryKeyAttributes(entityType) {
		for _, attr := range changed {
			if attr == pk {
				return true
			}
		}
	}
	return false
}

// rekey moves the entry recorded under the entity's previously persisted
// identity to the key derived from its current attribute values, so the
// following merge sees the correct prior state. The moved entry ends up at
// the end of the iteration order.
func (l *Ledger) rekey(e Entity) error {
	oldKey, ok, err := PersistedKeyOf(l.schema, e)
	if err != nil {
		return errors.WithStack(err)
	}
	if !ok {
		return nil
	}

	op, ok := l.Get(oldKey)
	if !ok {
		return nil
	}

	newKey, err := KeyOf(e)
	if err != nil {
		return errors.WithStack(err)
	}

	l.ops.Remove(oldKey.Hash())
	op.Key = newKey
	l.put(newKey, op)

	l.log.Info("rekey",
		slog.String("old", oldKey.String()),
		slog.String("new", newKey.String()),
	)

	return nil
}

func (l *Ledger) put(k EntityKey, op Operation) {
	l.ops.Put(k.Hash(), op)
}

// Contains reports whether an operation is recorded for k.
func (l *Ledger) Contains(k EntityKey) bool {
	_, ok := l.ops.Get(k.Hash())
	return ok
}

// Get returns the operation recorded for k, if any.
func (l *Ledger) Get(k EntityKey) (Operation, bool) {
	v, ok := l.ops.Get(k.Hash())
	if !ok {
		return Operation{}, false
	}
	op, ok := v.(Operation)
	if !ok {
		return Operation{}, false
	}
	return op, true
}

// Set stores op under k, replacing any existing entry without moving it.
func (l *Ledger) Set(k EntityKey, op Operation) {
	l.put(k, op)
}

// Remove drops the entry for k. Removing an absent key is a contract
// violation by the caller and fails with ErrNotFound.
func (l *Ledger) Remove(k EntityKey) error {
	if !l.Contains(k) {
		return errors.Wrapf(ErrNotFound, "key %s", k)
	}
	l.ops.Remove(k.Hash())
	return nil
}

func (l *Ledger) Len() int {
	return l.ops.Size()
}

func (l *Ledger) Empty() bool {
	return l.ops.Empty()
}

// Each visits every recorded operation in insertion order, including
// StaleVersion entries.
func (l *Ledger) Each(fn func(EntityKey, Operation)) {
	l.ops.Each(func(_ interface{}, value interface{}) {
		op, ok := value.(Operation)
		if !ok {
			return
		}
		fn(op.Key, op)
	})
}

// Operations returns every recorded operation in insertion order, including
// StaleVersion entries. This is the raw view; persistence consumers want
// FinalizedOperations.
func (l *Ledger) Operations() []Operation {
	out := make([]Operation, 0, l.ops.Size())
	l.Each(func(_ EntityKey, op Operation) {
		out = append(out, op)
	})
	return out
}

// FinalizedOperations returns the operations to persist, in insertion order,
// with StaleVersion entries filtered out. Processed flags are returned as
// stored; consumers filter already-emitted operations themselves.
func (l *Ledger) FinalizedOperations() []Operation {
	out := make([]Operation, 0, l.ops.Size())
	l.Each(func(_ EntityKey, op Operation) {
		if op.Kind == StaleVersion {
			return
		}
		out = append(out, op)
	})
	return out
}

// ChangedEntityTypes returns the distinct entity types across all non-stale
// keys, sorted for deterministic output.
func (l *Ledger) ChangedEntityTypes() []string {
	set := hashset.New()
	l.Each(func(k EntityKey, op Operation) {
		if op.Kind == StaleVersion {
			return
		}
		set.Add(k.Type)
	})

	out := make([]string, 0, set.Size())
	for _, v := range set.Values() {
		t, ok := v.(string)
		if !ok {
			continue
		}
		out = append(out, t)
	}
	sort.Strings(out)
	return out
}

// MarkProcessed flips the Processed flag on the entry for k, reporting
// whether such an entry exists. The entry keeps its position.
func (l *Ledger) MarkProcessed(k EntityKey) bool {
	op, ok := l.Get(k)
	if !ok {
		return false
	}
	op.Processed = true
	l.put(k, op)
	return true
}

