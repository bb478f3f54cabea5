// Package metadata implements the conceptual entity model: entity types,
// their properties, keys, foreign keys, navigations and indexes.
//
// Every element is created through the owning EntityType and removed
// through it again, so the graph stays consistent after each call returns.
// Property slot numbering (Index, ShadowIndex, OriginalValueIndex) is
// recomputed for the whole inheritance hierarchy after every mutation that
// can affect it.
//
// The graph is not safe for concurrent mutation.
package metadata

import (
	"reflect"
	"sort"
)

// Model is the root of the metadata graph.
type Model struct {
	Annotations

	entityTypes map[string]*EntityType
}

// NewModel creates an empty model.
func NewModel() *Model {
	return &Model{entityTypes: make(map[string]*EntityType)}
}

// AddEntityType adds a shadow entity type with no backing Go type.
func (m *Model) AddEntityType(name string) (*EntityType, error) {
	return m.addEntityType(name, nil)
}

// AddEntityTypeFor adds an entity type backed by a Go struct type.
func (m *Model) AddEntityTypeFor(goType reflect.Type) (*EntityType, error) {
	if goType == nil {
		return nil, newError(InvalidArgument, "an entity type requires a Go type")
	}
	if goType.Kind() == reflect.Pointer {
		goType = goType.Elem()
	}
	if goType.Kind() != reflect.Struct {
		return nil, newError(InvalidArgument, "the type '%s' cannot be used as an entity type because it is not a struct", goType)
	}
	return m.addEntityType(goType.Name(), goType)
}

func (m *Model) addEntityType(name string, goType reflect.Type) (*EntityType, error) {
	if name == "" {
		return nil, newError(InvalidArgument, "the entity type name must not be empty")
	}
	if _, ok := m.entityTypes[name]; ok {
		return nil, newError(DuplicateEntityType, "The entity type '%s' cannot be added to the model because an entity type with the same name already exists.", name)
	}

	e := newEntityType(name, goType, m)
	m.entityTypes[name] = e
	return e, nil
}

// GetOrAddEntityType returns the entity type called name, adding a shadow
// entity type if none exists.
func (m *Model) GetOrAddEntityType(name string) (*EntityType, error) {
	if e := m.FindEntityType(name); e != nil {
		return e, nil
	}
	return m.AddEntityType(name)
}

// FindEntityType returns the entity type called name, or nil.
func (m *Model) FindEntityType(name string) *EntityType {
	return m.entityTypes[name]
}

// EntityTypes returns all entity types ordered by name.
func (m *Model) EntityTypes() []*EntityType {
	result := make([]*EntityType, 0, len(m.entityTypes))
	for _, e := range m.entityTypes {
		result = append(result, e)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].name < result[j].name })
	return result
}

// RemoveEntityType detaches e from the model. It fails while other entity
// types derive from e or reference it through a foreign key.
func (m *Model) RemoveEntityType(e *EntityType) error {
	if m.entityTypes[e.name] != e {
		return newError(InvalidArgument, "The entity type '%s' does not belong to this model.", e.name)
	}
	if len(e.derivedTypes) > 0 {
		return newError(EntityTypeInUse, "The entity type '%s' cannot be removed because '%s' derives from it.", e.name, e.DerivedTypes()[0].name)
	}
	for _, other := range m.EntityTypes() {
		if other == e {
			continue
		}
		for _, fk := range other.foreignKeys {
			if fk.principalEntityType == e {
				return newError(EntityTypeInUse, "The entity type '%s' cannot be removed because it is referenced by foreign key %s on entity type '%s'.",
					e.name, formatProperties(fk.properties), other.name)
			}
		}
	}

	if e.baseType != nil {
		old := e.baseType
		delete(old.derivedTypes, e.name)
		e.baseType = nil
		old.rebuild()
	}
	delete(m.entityTypes, e.name)
	return nil
}
