// Package testent provides a minimal stand-in for the lifecycle-tracking
// collaborator: attribute-map records with a persisted-state snapshot, and a
// model registry implementing uow.Schema. Test use only.
package testent

import (
	"github.com/hashicorp/go-hclog"

	"github.com/bootjp/opmerge/uow"
)

type Model struct {
	Type    string
	PKAttrs []string
	// Collections lists the to-many / many-to-many attribute names.
	Collections []string
}

type Registry struct {
	models map[string]Model
	log    hclog.Logger
}

var _ uow.Schema = (*Registry)(nil)

func NewRegistry(models ...Model) *Registry {
	r := &Registry{
		models: map[string]Model{},
		log: hclog.New(&hclog.LoggerOptions{
			Name:  "testent",
			Level: hclog.Warn,
		}),
	}
	for _, m := range models {
		r.models[m.Type] = m
		r.log.Debug("registered model", "type", m.Type, "pk", m.PKAttrs)
	}
	return r
}

func (r *Registry) IsCollectionAttribute(entityType, attr string) bool {
	for _, c := range r.models[entityType].Collections {
		if c == attr {
			return true
		}
	}
	return false
}

func (r *Registry) PrimaryKeyAttributes(entityType string) []string {
	return r.models[entityType].PKAttrs
}

func (r *Registry) PersistedIdentity(e uow.Entity) ([]any, bool) {
	rec, ok := e.(*Record)
	if !ok || rec.persisted == nil {
		return nil, false
	}
	id := make([]any, 0, len(rec.model.PKAttrs))
	for _, pk := range rec.model.PKAttrs {
		id = append(id, rec.persisted[pk])
	}
	return id, true
}

// NewRecord builds an unpersisted record of the given model type.
func (r *Registry) NewRecord(entityType string, attrs map[string]any) *Record {
	cp := make(map[string]any, len(attrs))
	for k, v := range attrs {
		cp[k] = v
	}
	return &Record{model: r.models[entityType], attrs: cp}
}

// Record is one tracked entity instance: current attribute values plus the
// values it was last persisted with.
type Record struct {
	model     Model
	attrs     map[string]any
	persisted map[string]any
}

var _ uow.Entity = (*Record)(nil)

func (rec *Record) EntityType() string {
	return rec.model.Type
}

func (rec *Record) PrimaryKey() []any {
	pk := make([]any, 0, len(rec.model.PKAttrs))
	for _, attr := range rec.model.PKAttrs {
		pk = append(pk, rec.attrs[attr])
	}
	return pk
}

func (rec *Record) Get(attr string) any {
	return rec.attrs[attr]
}

func (rec *Record) Set(attr string, v any) {
	rec.attrs[attr] = v
}

// MarkPersisted snapshots the current attribute values as the persisted
// identity source, as a flush would.
func (rec *Record) MarkPersisted() {
	rec.persisted = make(map[string]any, len(rec.attrs))
	for k, v := range rec.attrs {
		rec.persisted[k] = v
	}
}
