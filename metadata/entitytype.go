package metadata

import (
	"reflect"
	"sort"
)

// PropertyChangeNotifier is implemented by entity structs that report their
// own property changes. Such types do not need eager snapshots.
type PropertyChangeNotifier interface {
	OnPropertyChanged(func(propertyName string))
}

var notifierType = reflect.TypeOf((*PropertyChangeNotifier)(nil)).Elem()

// EntityType describes an entity in the model, either backed by a Go
// struct or shadow-only.
type EntityType struct {
	Annotations

	name   string
	goType reflect.Type
	model  *Model

	baseType     *EntityType
	derivedTypes map[string]*EntityType

	properties  map[string]*Property
	keys        []*Key
	primaryKey  *Key
	foreignKeys []*ForeignKey
	navigations map[string]*Navigation
	indexes     []*Index

	useEagerSnapshots *bool

	propertyCount       int
	shadowPropertyCount int
	originalValueCount  int
}

func newEntityType(name string, goType reflect.Type, model *Model) *EntityType {
	return &EntityType{
		name:         name,
		goType:       goType,
		model:        model,
		derivedTypes: make(map[string]*EntityType),
		properties:   make(map[string]*Property),
		navigations:  make(map[string]*Navigation),
	}
}

func (e *EntityType) Name() string { return e.name }

// GoType returns the backing struct type, or nil for shadow entity types.
func (e *EntityType) GoType() reflect.Type { return e.goType }

func (e *EntityType) Model() *Model { return e.model }

// HasGoType reports whether the entity type is backed by a struct.
func (e *EntityType) HasGoType() bool { return e.goType != nil }

// PropertyCount is the number of properties including inherited ones.
func (e *EntityType) PropertyCount() int { return e.propertyCount }

// ShadowPropertyCount is the number of shadow properties including inherited ones.
func (e *EntityType) ShadowPropertyCount() int { return e.shadowPropertyCount }

// OriginalValueCount is the number of properties that need a snapshot.
func (e *EntityType) OriginalValueCount() int { return e.originalValueCount }

// UseEagerSnapshots defaults to false for shadow entity types and to true
// for struct types that do not implement PropertyChangeNotifier.
func (e *EntityType) UseEagerSnapshots() bool {
	if e.useEagerSnapshots != nil {
		return *e.useEagerSnapshots
	}
	if e.goType == nil {
		return false
	}
	return !reflect.PointerTo(e.goType).Implements(notifierType)
}

func (e *EntityType) SetUseEagerSnapshots(v bool) {
	e.useEagerSnapshots = &v
	e.rebuild()
}

// Inheritance

func (e *EntityType) BaseType() *EntityType { return e.baseType }

// RootType returns the top of the inheritance chain.
func (e *EntityType) RootType() *EntityType {
	root := e
	for root.baseType != nil {
		root = root.baseType
	}
	return root
}

// DerivedTypes returns the directly derived types ordered by name.
func (e *EntityType) DerivedTypes() []*EntityType {
	result := make([]*EntityType, 0, len(e.derivedTypes))
	for _, d := range e.derivedTypes {
		result = append(result, d)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].name < result[j].name })
	return result
}

// IsAssignableFrom reports whether other is e or derives from e.
func (e *EntityType) IsAssignableFrom(other *EntityType) bool {
	for t := other; t != nil; t = t.baseType {
		if t == e {
			return true
		}
	}
	return false
}

// SetBaseType changes the base type. A nil base detaches e from its
// current base.
func (e *EntityType) SetBaseType(base *EntityType) error {
	if base == e.baseType {
		return nil
	}

	if base != nil {
		if base.model != e.model {
			return newError(EntityTypeModelMismatch,
				"The entity types '%s' and '%s' do not belong to the same model.", e.name, base.name)
		}
		if e.IsAssignableFrom(base) {
			return newError(CircularInheritance,
				"The entity type '%s' cannot inherit from '%s' because '%s' is a descendent of '%s'.",
				e.name, base.name, base.name, e.name)
		}
		if len(e.keys) > 0 {
			return newError(DerivedEntityCannotHaveKeys,
				"Unable to set a base type for entity type '%s' because it has one or more keys defined.", e.name)
		}
		if err := e.checkBaseCollisions(base); err != nil {
			return err
		}
	}

	old := e.baseType
	if old != nil {
		delete(old.derivedTypes, e.name)
	}
	e.baseType = base
	if base != nil {
		base.derivedTypes[e.name] = e
	}

	e.rebuild()
	if old != nil {
		old.rebuild()
	}
	return nil
}

// checkBaseCollisions compares member names declared in e's subtree with
// the members visible on base.
func (e *EntityType) checkBaseCollisions(base *EntityType) error {
	var err error
	e.walkDerived(func(t *EntityType) {
		if err != nil {
			return
		}
		for _, name := range t.declaredPropertyNames() {
			if base.FindProperty(name) != nil {
				err = newError(DuplicateProperty,
					"The property '%s' on entity type '%s' has the same name as a property on base type '%s'.", name, t.name, base.name)
				return
			}
			if base.FindNavigation(name) != nil {
				err = newError(ConflictingNavigation,
					"The property '%s' on entity type '%s' has the same name as a navigation on base type '%s'.", name, t.name, base.name)
				return
			}
		}
		for _, name := range t.declaredNavigationNames() {
			if base.FindNavigation(name) != nil {
				err = newError(DuplicateNavigation,
					"The navigation '%s' on entity type '%s' has the same name as a navigation on base type '%s'.", name, t.name, base.name)
				return
			}
			if base.FindProperty(name) != nil {
				err = newError(ConflictingProperty,
					"The navigation '%s' on entity type '%s' has the same name as a property on base type '%s'.", name, t.name, base.name)
				return
			}
		}
	})
	return err
}

// walkDerived visits e and every type deriving from it.
func (e *EntityType) walkDerived(fn func(*EntityType)) {
	fn(e)
	for _, d := range e.DerivedTypes() {
		d.walkDerived(fn)
	}
}

// walkHierarchy visits every type sharing e's root.
func (e *EntityType) walkHierarchy(fn func(*EntityType)) {
	e.RootType().walkDerived(fn)
}

// findInDerived returns the first type strictly below e for which match
// reports true.
func (e *EntityType) findInDerived(match func(*EntityType) bool) *EntityType {
	var found *EntityType
	for _, d := range e.DerivedTypes() {
		d.walkDerived(func(t *EntityType) {
			if found == nil && match(t) {
				found = t
			}
		})
	}
	return found
}

// Properties

// AddProperty adds a shadow property.
func (e *EntityType) AddProperty(name string, goType reflect.Type) (*Property, error) {
	return e.addProperty(name, goType, nil)
}

// AddPropertyFor adds a property backed by the named field of the entity
// struct.
func (e *EntityType) AddPropertyFor(fieldName string) (*Property, error) {
	if e.goType == nil {
		return nil, newError(NonShadowPropertyOnShadowEntity,
			"The property '%s' cannot be added to entity type '%s' because it has no Go type. Only shadow properties can be added.", fieldName, e.name)
	}
	field, ok := e.goType.FieldByName(fieldName)
	if !ok {
		return nil, newError(InvalidArgument,
			"The property '%s' cannot be added to entity type '%s' because struct '%s' has no such field.", fieldName, e.name, e.goType)
	}
	return e.addProperty(fieldName, field.Type, &field)
}

func (e *EntityType) addProperty(name string, goType reflect.Type, field *reflect.StructField) (*Property, error) {
	if name == "" {
		return nil, newError(InvalidArgument, "the property name must not be empty")
	}
	if goType == nil {
		return nil, newError(MissingPropertyType,
			"The property '%s' cannot be added to entity type '%s' because no type was specified.", name, e.name)
	}
	if err := e.checkMemberName(name, DuplicateProperty, ConflictingNavigation, "property"); err != nil {
		return nil, err
	}

	p := newProperty(name, goType, e, field == nil)
	p.field = field
	e.properties[name] = p
	e.rebuild()
	return p, nil
}

// checkMemberName reports a collision when name is already used by a
// property or navigation in e's base chain or derived types.
func (e *EntityType) checkMemberName(name string, sameKind, otherKind ErrorKind, what string) error {
	if owner := e.propertyOwner(name); owner != nil {
		kind := otherKind
		if what == "property" {
			kind = sameKind
		}
		return newError(kind,
			"The %s '%s' cannot be added to entity type '%s' because a property with the same name already exists on entity type '%s'.",
			what, name, e.name, owner.name)
	}
	if owner := e.navigationOwner(name); owner != nil {
		kind := otherKind
		if what == "navigation" {
			kind = sameKind
		}
		return newError(kind,
			"The %s '%s' cannot be added to entity type '%s' because a navigation with the same name already exists on entity type '%s'.",
			what, name, e.name, owner.name)
	}
	return nil
}

func (e *EntityType) propertyOwner(name string) *EntityType {
	if p := e.FindProperty(name); p != nil {
		return p.declaringType
	}
	return e.findInDerived(func(t *EntityType) bool { return t.properties[name] != nil })
}

func (e *EntityType) navigationOwner(name string) *EntityType {
	if n := e.FindNavigation(name); n != nil {
		return n.declaringType
	}
	return e.findInDerived(func(t *EntityType) bool { return t.navigations[name] != nil })
}

// GetOrAddProperty returns the property called name, adding a shadow
// property when none is visible.
func (e *EntityType) GetOrAddProperty(name string, goType reflect.Type) (*Property, error) {
	if p := e.FindProperty(name); p != nil {
		return p, nil
	}
	return e.AddProperty(name, goType)
}

// FindProperty searches e and its base types.
func (e *EntityType) FindProperty(name string) *Property {
	for t := e; t != nil; t = t.baseType {
		if p, ok := t.properties[name]; ok {
			return p
		}
	}
	return nil
}

// FindDeclaredProperty searches only the properties declared on e.
func (e *EntityType) FindDeclaredProperty(name string) *Property {
	return e.properties[name]
}

// Properties returns inherited properties first, then the declared ones.
func (e *EntityType) Properties() []*Property {
	var result []*Property
	if e.baseType != nil {
		result = e.baseType.Properties()
	}
	return append(result, e.DeclaredProperties()...)
}

// DeclaredProperties returns the declared properties with primary key
// members first, in key order, followed by the rest ordered by name.
func (e *EntityType) DeclaredProperties() []*Property {
	result := make([]*Property, 0, len(e.properties))
	seen := make(map[*Property]bool)
	if pk := e.FindPrimaryKey(); pk != nil {
		for _, p := range pk.properties {
			if p.declaringType == e {
				result = append(result, p)
				seen[p] = true
			}
		}
	}

	rest := make([]*Property, 0, len(e.properties))
	for _, p := range e.properties {
		if !seen[p] {
			rest = append(rest, p)
		}
	}
	sort.Slice(rest, func(i, j int) bool { return rest[i].name < rest[j].name })
	return append(result, rest...)
}

func (e *EntityType) declaredPropertyNames() []string {
	names := make([]string, 0, len(e.properties))
	for name := range e.properties {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func (e *EntityType) declaredNavigationNames() []string {
	names := make([]string, 0, len(e.navigations))
	for name := range e.navigations {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// RemoveProperty removes a declared property. It fails while the property
// is part of a key, foreign key or index.
func (e *EntityType) RemoveProperty(p *Property) error {
	if e.properties[p.name] != p {
		return newError(InvalidArgument,
			"The property '%s' cannot be removed from entity type '%s' because it is declared on entity type '%s'.",
			p.name, e.name, p.declaringType.name)
	}

	for _, k := range e.Keys() {
		if k.contains(p) {
			return newError(PropertyInUse,
				"The property '%s' cannot be removed from entity type '%s' because it is being used in the key %s.",
				p.name, e.name, formatProperties(k.properties))
		}
	}

	var err error
	e.walkHierarchy(func(t *EntityType) {
		if err != nil {
			return
		}
		for _, fk := range t.foreignKeys {
			if fk.contains(p) {
				err = newError(PropertyInUse,
					"The property '%s' cannot be removed from entity type '%s' because it is being used in the foreign key %s on '%s'.",
					p.name, e.name, formatProperties(fk.properties), t.name)
				return
			}
		}
		for _, idx := range t.indexes {
			if idx.contains(p) {
				err = newError(PropertyInUse,
					"The property '%s' cannot be removed from entity type '%s' because it is being used in the index %s on '%s'.",
					p.name, e.name, formatProperties(idx.properties), t.name)
				return
			}
		}
	})
	if err != nil {
		return err
	}

	delete(e.properties, p.name)
	p.index, p.shadowIndex, p.originalValueIndex = -1, -1, -1
	e.rebuild()
	return nil
}

// Numbering

// rebuild renumbers every property in e's hierarchy.
func (e *EntityType) rebuild() {
	e.RootType().updateIndexes(0, 0, 0)
}

func (e *EntityType) updateIndexes(index, shadow, original int) {
	for _, p := range e.DeclaredProperties() {
		p.index = index
		index++

		p.shadowIndex = -1
		if p.IsShadowProperty() {
			p.shadowIndex = shadow
			shadow++
		}

		p.originalValueIndex = -1
		if p.requiresOriginalValue() {
			p.originalValueIndex = original
			original++
		}
	}

	e.propertyCount = index
	e.shadowPropertyCount = shadow
	e.originalValueCount = original

	for _, d := range e.DerivedTypes() {
		d.updateIndexes(index, shadow, original)
	}
}

func (e *EntityType) String() string { return e.name }
