package state

import (
	"fmt"
	"reflect"
	"sort"
)

// Attributes is the attribute map of a single entity. Values are plain
// data: bool, float64, string, or []any of those.
type Attributes map[string]any

// Snapshot is an immutable subsystem → entity → attribute mapping.
// The zero value is an empty snapshot. Snapshot values are cheap to copy;
// writes produce a new Snapshot sharing all untouched subsystems and
// entities with the original.
type Snapshot struct {
	subsystems map[string]map[string]Attributes
}

// New builds a Snapshot from plain nested maps. The input is deep-copied,
// so the caller keeps ownership of its maps.
func New(data map[string]map[string]map[string]any) Snapshot {
	subs := make(map[string]map[string]Attributes, len(data))
	for sub, entities := range data {
		m := make(map[string]Attributes, len(entities))
		for id, attrs := range entities {
			a := make(Attributes, len(attrs))
			for k, v := range attrs {
				a[k] = copyValue(v)
			}
			m[id] = a
		}
		subs[sub] = m
	}
	return Snapshot{subsystems: subs}
}

// Lookup returns the value at the given resolved path.
func (s Snapshot) Lookup(p Path) (any, bool) {
	entities, ok := s.subsystems[p.Subsystem()]
	if !ok {
		return nil, false
	}
	attrs, ok := entities[p.Entity()]
	if !ok {
		return nil, false
	}
	v, ok := attrs[p.Attribute()]
	if !ok {
		return nil, false
	}
	return copyValue(v), true
}

// HasEntity reports whether the subsystem contains the entity.
func (s Snapshot) HasEntity(subsystem, entity string) bool {
	entities, ok := s.subsystems[subsystem]
	if !ok {
		return false
	}
	_, ok = entities[entity]
	return ok
}

// Subsystems returns the subsystem names in sorted order.
func (s Snapshot) Subsystems() []string {
	names := make([]string, 0, len(s.subsystems))
	for name := range s.subsystems {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Entities returns the entity ids of a subsystem in sorted order.
func (s Snapshot) Entities(subsystem string) []string {
	entities := s.subsystems[subsystem]
	ids := make([]string, 0, len(entities))
	for id := range entities {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Entity returns a copy of an entity's attributes.
func (s Snapshot) Entity(subsystem, entity string) (Attributes, bool) {
	entities, ok := s.subsystems[subsystem]
	if !ok {
		return nil, false
	}
	attrs, ok := entities[entity]
	if !ok {
		return nil, false
	}
	out := make(Attributes, len(attrs))
	for k, v := range attrs {
		out[k] = copyValue(v)
	}
	return out, true
}

// With returns a new Snapshot with the value set at the given resolved
// path, creating the subsystem and entity levels as needed. Only the
// touched subsystem and entity maps are copied; everything else is shared
// with the receiver.
func (s Snapshot) With(p Path, value any) (Snapshot, error) {
	if err := p.Validate(); err != nil {
		return Snapshot{}, err
	}
	if p.IsTemplate() {
		return Snapshot{}, fmt.Errorf("cannot write unresolved path %q", p)
	}

	subs := make(map[string]map[string]Attributes, len(s.subsystems)+1)
	for name, entities := range s.subsystems {
		subs[name] = entities
	}

	oldEntities := subs[p.Subsystem()]
	entities := make(map[string]Attributes, len(oldEntities)+1)
	for id, attrs := range oldEntities {
		entities[id] = attrs
	}

	oldAttrs := entities[p.Entity()]
	attrs := make(Attributes, len(oldAttrs)+1)
	for k, v := range oldAttrs {
		attrs[k] = v
	}
	attrs[p.Attribute()] = copyValue(value)

	entities[p.Entity()] = attrs
	subs[p.Subsystem()] = entities

	return Snapshot{subsystems: subs}, nil
}

// Equal reports whether two snapshots hold exactly the same data.
func (s Snapshot) Equal(other Snapshot) bool {
	if len(s.subsystems) != len(other.subsystems) {
		// Distinguish nil vs empty maps: both count as empty.
		if len(s.subsystems) != 0 || len(other.subsystems) != 0 {
			return false
		}
	}
	if len(s.subsystems) == 0 && len(other.subsystems) == 0 {
		return true
	}
	return reflect.DeepEqual(s.subsystems, other.subsystems)
}

// Data returns a deep copy of the snapshot as plain nested maps,
// suitable for serialization by external persistence layers.
func (s Snapshot) Data() map[string]map[string]map[string]any {
	out := make(map[string]map[string]map[string]any, len(s.subsystems))
	for sub, entities := range s.subsystems {
		m := make(map[string]map[string]any, len(entities))
		for id, attrs := range entities {
			a := make(map[string]any, len(attrs))
			for k, v := range attrs {
				a[k] = copyValue(v)
			}
			m[id] = a
		}
		out[sub] = m
	}
	return out
}

// copyValue copies slice values so shared snapshots can never observe a
// caller's mutation. Scalars are immutable and returned as-is.
func copyValue(v any) any {
	list, ok := v.([]any)
	if !ok {
		return v
	}
	out := make([]any, len(list))
	for i, e := range list {
		out[i] = copyValue(e)
	}
	return out
}
