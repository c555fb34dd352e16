package uow

import (
	"encoding/binary"
	"fmt"
	"math"

	"github.com/cockroachdb/errors"
	"github.com/spaolacci/murmur3"

	"github.com/bootjp/opmerge/internal"
)

// EntityKey identifies one logical entity within a unit of work: the declared
// entity type plus a canonical encoding of its primary key tuple. Two keys
// are equal iff type and primary key components are equal element-wise. The
// canonical encoding is injective, so EntityKey is a plain comparable value
// and safe to use as a Go map key.
type EntityKey struct {
	Type string
	pk   string
}

// component type tags for the canonical primary key encoding
const (
	pkTagNil byte = iota
	pkTagBool
	pkTagInt
	pkTagUint
	pkTagFloat
	pkTagString
	pkTagBytes
)

const pkLenPrefixSize = 8

func appendComponent(dst []byte, v any) ([]byte, error) {
	var raw [pkLenPrefixSize]byte

	switch c := v.(type) {
	case nil:
		return append(dst, pkTagNil), nil
	case bool:
		if c {
			return append(dst, pkTagBool, 1), nil
		}
		return append(dst, pkTagBool, 0), nil
	case int:
		return appendComponent(dst, int64(c))
	case int32:
		return appendComponent(dst, int64(c))
	case int64:
		dst = append(dst, pkTagInt)
		binary.BigEndian.PutUint64(raw[:], uint64(c))
		return append(dst, raw[:]...), nil
	case uint32:
		return appendComponent(dst, uint64(c))
	case uint64:
		dst = append(dst, pkTagUint)
		binary.BigEndian.PutUint64(raw[:], c)
		return append(dst, raw[:]...), nil
	case float64:
		dst = append(dst, pkTagFloat)
		binary.BigEndian.PutUint64(raw[:], math.Float64bits(c))
		return append(dst, raw[:]...), nil
	case string:
		dst = append(dst, pkTagString)
		binary.BigEndian.PutUint64(raw[:], uint64(len(c)))
		dst = append(dst, raw[:]...)
		return append(dst, c...), nil
	case []byte:
		dst = append(dst, pkTagBytes)
		binary.BigEndian.PutUint64(raw[:], uint64(len(c)))
		dst = append(dst, raw[:]...)
		return append(dst, c...), nil
	default:
		return nil, errors.Wrapf(ErrKeyComponent, "%T", v)
	}
}

// NewEntityKey builds a key from the entity type and its primary key
// components in declared column order. Component contents are not validated
// beyond encodability; a nil component is a legal, distinct value.
func NewEntityKey(entityType string, pk ...any) (EntityKey, error) {
	buf := make([]byte, 0, 16*len(pk))
	var err error
	for _, c := range pk {
		buf, err = appendComponent(buf, c)
		if err != nil {
			return internal.WithStacks(EntityKey{}, err)
		}
	}
	return EntityKey{Type: entityType, pk: string(buf)}, nil
}

func (k EntityKey) Equal(other EntityKey) bool {
	return k == other
}

// Hash returns a stable 64-bit value hash of the key. The ledger uses it as
// its map key, the same way a byte key is hashed before storage elsewhere.
func (k EntityKey) Hash() uint64 {
	buf := make([]byte, 0, len(k.Type)+1+len(k.pk))
	buf = append(buf, k.Type...)
	buf = append(buf, 0x00)
	buf = append(buf, k.pk...)
	return murmur3.Sum64(buf)
}

func (k EntityKey) String() string {
	return fmt.Sprintf("%s(%x)", k.Type, k.pk)
}

// KeyOf derives the entity's key from its current primary key values. It is
// pure and must work mid-insert, before any surrogate identity is assigned.
// We cannot rely on the entity's own identity bookkeeping here since it is
// not yet updated at this phase.
func KeyOf(e Entity) (EntityKey, error) {
	return internal.WithStacks(NewEntityKey(e.EntityType(), e.PrimaryKey()...))
}

// PersistedKeyOf derives the key the entity was last persisted under. The
// boolean is false for an entity that has never been persisted.
func PersistedKeyOf(s Schema, e Entity) (EntityKey, bool, error) {
	id, ok := s.PersistedIdentity(e)
	if !ok {
		return EntityKey{}, false, nil
	}
	k, err := NewEntityKey(e.EntityType(), id...)
	if err != nil {
		return EntityKey{}, false, errors.WithStack(err)
	}
	return k, true, nil
}
