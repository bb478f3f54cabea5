package metadata

import "sort"

// Keys

// SetPrimaryKey makes the key over properties the primary key, adding it
// if needed. Calling it with no properties clears the primary key but
// keeps the key itself.
func (e *EntityType) SetPrimaryKey(properties ...*Property) (*Key, error) {
	if e.baseType != nil {
		return nil, newError(DerivedEntityCannotHaveKeys,
			"The derived type '%s' cannot have keys other than those declared on the root type '%s'.", e.name, e.RootType().name)
	}
	if len(properties) == 0 {
		e.primaryKey = nil
		e.rebuild()
		return nil, nil
	}

	for _, p := range properties {
		if v, ok := p.flags.get(flagNullable); ok && v {
			return nil, newError(NullablePrimaryKey,
				"The property '%s' cannot be part of the primary key of entity type '%s' because it is configured as nullable.", p.name, e.name)
		}
	}

	key, err := e.GetOrAddKey(properties...)
	if err != nil {
		return nil, err
	}
	e.primaryKey = key
	e.rebuild()
	return key, nil
}

// FindPrimaryKey returns the primary key of the hierarchy root, or nil.
func (e *EntityType) FindPrimaryKey() *Key {
	return e.RootType().primaryKey
}

// AddKey adds an alternate key.
func (e *EntityType) AddKey(properties ...*Property) (*Key, error) {
	if len(properties) == 0 {
		return nil, newError(InvalidArgument, "a key on entity type '%s' requires at least one property", e.name)
	}
	if e.baseType != nil {
		return nil, newError(DerivedEntityCannotHaveKeys,
			"The derived type '%s' cannot have keys other than those declared on the root type '%s'.", e.name, e.RootType().name)
	}
	if !e.ownsAll(properties) {
		return nil, newError(KeyPropertiesWrongEntity,
			"The specified key properties %s are not declared on the entity type '%s'.", formatProperties(properties), e.name)
	}
	if existing := e.FindKey(properties...); existing != nil {
		return nil, newError(DuplicateKey,
			"The key %s cannot be added to the entity type '%s' because a key on the same properties already exists on entity type '%s'.",
			formatProperties(properties), e.name, existing.declaringType.name)
	}

	key := &Key{properties: copyProperties(properties), declaringType: e}
	e.keys = insertSorted(e.keys, key, func(k *Key) []*Property { return k.properties })
	e.rebuild()
	return key, nil
}

// GetOrAddKey returns the key over properties, adding it if needed.
func (e *EntityType) GetOrAddKey(properties ...*Property) (*Key, error) {
	if k := e.FindKey(properties...); k != nil {
		return k, nil
	}
	return e.AddKey(properties...)
}

// FindKey returns the key over the given set of properties, or nil.
func (e *EntityType) FindKey(properties ...*Property) *Key {
	for _, k := range e.Keys() {
		if SameProperties(k.properties, properties) {
			return k
		}
	}
	return nil
}

// Keys returns the keys of the hierarchy ordered by PropertyListComparer.
func (e *EntityType) Keys() []*Key {
	return e.RootType().keys
}

// RemoveKey removes a key. It fails while a foreign key references it.
func (e *EntityType) RemoveKey(key *Key) error {
	i := indexOf(e.keys, key)
	if i < 0 {
		return newError(InvalidArgument, "The key %s is not declared on entity type '%s'.", formatProperties(key.properties), e.name)
	}
	if refs := key.ReferencingForeignKeys(); len(refs) > 0 {
		return newError(KeyInUse,
			"The key %s cannot be removed from entity type '%s' because it is referenced by a foreign key in entity type '%s'.",
			formatProperties(key.properties), e.name, refs[0].declaringType.name)
	}

	e.keys = append(e.keys[:i], e.keys[i+1:]...)
	if e.primaryKey == key {
		e.primaryKey = nil
	}
	e.rebuild()
	return nil
}

// Foreign keys

// AddForeignKey declares that properties reference principalKey. When
// principalEntityType is nil the key's declaring type is used.
func (e *EntityType) AddForeignKey(properties []*Property, principalKey *Key, principalEntityType *EntityType) (*ForeignKey, error) {
	if len(properties) == 0 {
		return nil, newError(InvalidArgument, "a foreign key on entity type '%s' requires at least one property", e.name)
	}
	if principalKey == nil {
		return nil, newError(InvalidArgument, "a foreign key on entity type '%s' requires a principal key", e.name)
	}
	if principalEntityType == nil {
		principalEntityType = principalKey.declaringType
	}
	if principalEntityType.model != e.model {
		return nil, newError(EntityTypeModelMismatch,
			"The entity types '%s' and '%s' do not belong to the same model.", e.name, principalEntityType.name)
	}
	if indexOf(principalEntityType.Keys(), principalKey) < 0 {
		return nil, newError(ForeignKeyPrincipalKeyMissing,
			"The principal key %s is not a key of entity type '%s'.", formatProperties(principalKey.properties), principalEntityType.name)
	}
	if !e.ownsAll(properties) {
		return nil, newError(ForeignKeyPropertiesWrongEntity,
			"The specified foreign key properties %s are not declared on the entity type '%s'.", formatProperties(properties), e.name)
	}
	if len(properties) != len(principalKey.properties) {
		return nil, newError(ForeignKeyCountMismatch,
			"The number of properties specified for the foreign key %s on entity type '%s' does not match the number of properties in the principal key %s on entity type '%s'.",
			formatProperties(properties), e.name, formatProperties(principalKey.properties), principalEntityType.name)
	}
	if owner := e.foreignKeyOwner(properties); owner != nil {
		return nil, newError(DuplicateForeignKey,
			"The foreign key %s cannot be added to the entity type '%s' because a foreign key on the same properties already exists on entity type '%s'.",
			formatProperties(properties), e.name, owner.name)
	}

	fk := &ForeignKey{
		properties:          copyProperties(properties),
		principalKey:        principalKey,
		principalEntityType: principalEntityType,
		declaringType:       e,
	}
	e.foreignKeys = insertSorted(e.foreignKeys, fk, func(f *ForeignKey) []*Property { return f.properties })
	e.rebuild()
	return fk, nil
}

// GetOrAddForeignKey returns the foreign key over properties, adding it
// if needed.
func (e *EntityType) GetOrAddForeignKey(properties []*Property, principalKey *Key, principalEntityType *EntityType) (*ForeignKey, error) {
	if fk := e.FindForeignKey(properties...); fk != nil {
		return fk, nil
	}
	return e.AddForeignKey(properties, principalKey, principalEntityType)
}

// FindForeignKey searches e and its base types.
func (e *EntityType) FindForeignKey(properties ...*Property) *ForeignKey {
	for t := e; t != nil; t = t.baseType {
		for _, fk := range t.foreignKeys {
			if SameProperties(fk.properties, properties) {
				return fk
			}
		}
	}
	return nil
}

func (e *EntityType) foreignKeyOwner(properties []*Property) *EntityType {
	if fk := e.FindForeignKey(properties...); fk != nil {
		return fk.declaringType
	}
	return e.findInDerived(func(t *EntityType) bool {
		for _, fk := range t.foreignKeys {
			if SameProperties(fk.properties, properties) {
				return true
			}
		}
		return false
	})
}

// ForeignKeys returns inherited foreign keys first, each level ordered by
// PropertyListComparer.
func (e *EntityType) ForeignKeys() []*ForeignKey {
	var result []*ForeignKey
	if e.baseType != nil {
		result = e.baseType.ForeignKeys()
	}
	return append(result, e.foreignKeys...)
}

// DeclaredForeignKeys returns the foreign keys declared on e.
func (e *EntityType) DeclaredForeignKeys() []*ForeignKey {
	return e.foreignKeys
}

// ReferencingForeignKeys returns foreign keys in the model whose principal
// is e.
func (e *EntityType) ReferencingForeignKeys() []*ForeignKey {
	var result []*ForeignKey
	for _, t := range e.model.EntityTypes() {
		for _, fk := range t.foreignKeys {
			if fk.principalEntityType == e {
				result = append(result, fk)
			}
		}
	}
	return result
}

// RemoveForeignKey removes a declared foreign key. It fails while a
// navigation still uses it.
func (e *EntityType) RemoveForeignKey(fk *ForeignKey) error {
	i := indexOf(e.foreignKeys, fk)
	if i < 0 {
		return newError(InvalidArgument, "The foreign key %s is not declared on entity type '%s'.", formatProperties(fk.properties), e.name)
	}
	for _, nav := range []*Navigation{fk.dependentToPrincipal, fk.principalToDependent} {
		if nav != nil {
			return newError(ForeignKeyInUse,
				"The foreign key %s cannot be removed from entity type '%s' because it is referenced by navigation '%s' on entity type '%s'.",
				formatProperties(fk.properties), e.name, nav.name, nav.declaringType.name)
		}
	}

	e.foreignKeys = append(e.foreignKeys[:i], e.foreignKeys[i+1:]...)
	e.rebuild()
	return nil
}

// Navigations

// AddNavigation adds a navigation that follows fk. pointsToPrincipal
// selects the dependent-to-principal end.
func (e *EntityType) AddNavigation(name string, fk *ForeignKey, pointsToPrincipal bool) (*Navigation, error) {
	if name == "" {
		return nil, newError(InvalidArgument, "the navigation name must not be empty")
	}
	if fk == nil {
		return nil, newError(InvalidArgument, "the navigation '%s' requires a foreign key", name)
	}
	if err := e.checkMemberName(name, DuplicateNavigation, ConflictingProperty, "navigation"); err != nil {
		return nil, err
	}

	expected := fk.principalEntityType
	if pointsToPrincipal {
		expected = fk.declaringType
	}
	if !expected.IsAssignableFrom(e) {
		return nil, newError(NavigationForWrongForeignKey,
			"The navigation '%s' cannot be added to entity type '%s' because the foreign key %s belongs to entity type '%s'.",
			name, e.name, formatProperties(fk.properties), expected.name)
	}

	slot := &fk.principalToDependent
	if pointsToPrincipal {
		slot = &fk.dependentToPrincipal
	}
	if *slot != nil {
		return nil, newError(NavigationAlreadyAssigned,
			"The navigation '%s' cannot be added to entity type '%s' because the foreign key %s already has navigation '%s' at that end.",
			name, e.name, formatProperties(fk.properties), (*slot).name)
	}

	nav := &Navigation{name: name, declaringType: e, foreignKey: fk, pointsToPrincipal: pointsToPrincipal}
	*slot = nav
	e.navigations[name] = nav
	return nav, nil
}

// GetOrAddNavigation returns the navigation called name, adding it if needed.
func (e *EntityType) GetOrAddNavigation(name string, fk *ForeignKey, pointsToPrincipal bool) (*Navigation, error) {
	if n := e.FindNavigation(name); n != nil {
		return n, nil
	}
	return e.AddNavigation(name, fk, pointsToPrincipal)
}

// FindNavigation searches e and its base types.
func (e *EntityType) FindNavigation(name string) *Navigation {
	for t := e; t != nil; t = t.baseType {
		if n, ok := t.navigations[name]; ok {
			return n
		}
	}
	return nil
}

// Navigations returns every visible navigation ordered by name.
func (e *EntityType) Navigations() []*Navigation {
	var result []*Navigation
	for t := e; t != nil; t = t.baseType {
		for _, n := range t.navigations {
			result = append(result, n)
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].name < result[j].name })
	return result
}

// RemoveNavigation removes a declared navigation and frees its end of the
// foreign key.
func (e *EntityType) RemoveNavigation(nav *Navigation) error {
	if e.navigations[nav.name] != nav {
		return newError(InvalidArgument, "The navigation '%s' is not declared on entity type '%s'.", nav.name, e.name)
	}
	if nav.pointsToPrincipal {
		nav.foreignKey.dependentToPrincipal = nil
	} else {
		nav.foreignKey.principalToDependent = nil
	}
	delete(e.navigations, nav.name)
	return nil
}

// Indexes

// AddIndex adds an index over properties.
func (e *EntityType) AddIndex(properties ...*Property) (*Index, error) {
	if len(properties) == 0 {
		return nil, newError(InvalidArgument, "an index on entity type '%s' requires at least one property", e.name)
	}
	if !e.ownsAll(properties) {
		return nil, newError(IndexPropertiesWrongEntity,
			"The specified index properties %s are not declared on the entity type '%s'.", formatProperties(properties), e.name)
	}
	if owner := e.indexOwner(properties); owner != nil {
		return nil, newError(DuplicateIndex,
			"The index %s cannot be added to the entity type '%s' because an index on the same properties already exists on entity type '%s'.",
			formatProperties(properties), e.name, owner.name)
	}

	idx := &Index{properties: copyProperties(properties), declaringType: e}
	e.indexes = insertSorted(e.indexes, idx, func(i *Index) []*Property { return i.properties })
	return idx, nil
}

// GetOrAddIndex returns the index over properties, adding it if needed.
func (e *EntityType) GetOrAddIndex(properties ...*Property) (*Index, error) {
	if idx := e.FindIndex(properties...); idx != nil {
		return idx, nil
	}
	return e.AddIndex(properties...)
}

// FindIndex searches e and its base types.
func (e *EntityType) FindIndex(properties ...*Property) *Index {
	for t := e; t != nil; t = t.baseType {
		for _, idx := range t.indexes {
			if SameProperties(idx.properties, properties) {
				return idx
			}
		}
	}
	return nil
}

func (e *EntityType) indexOwner(properties []*Property) *EntityType {
	if idx := e.FindIndex(properties...); idx != nil {
		return idx.declaringType
	}
	return e.findInDerived(func(t *EntityType) bool {
		for _, idx := range t.indexes {
			if SameProperties(idx.properties, properties) {
				return true
			}
		}
		return false
	})
}

// Indexes returns inherited indexes first, each level ordered by
// PropertyListComparer.
func (e *EntityType) Indexes() []*Index {
	var result []*Index
	if e.baseType != nil {
		result = e.baseType.Indexes()
	}
	return append(result, e.indexes...)
}

// RemoveIndex removes a declared index.
func (e *EntityType) RemoveIndex(idx *Index) error {
	i := indexOf(e.indexes, idx)
	if i < 0 {
		return newError(InvalidArgument, "The index %s is not declared on entity type '%s'.", formatProperties(idx.properties), e.name)
	}
	e.indexes = append(e.indexes[:i], e.indexes[i+1:]...)
	return nil
}

// helpers

// ownsAll reports whether every property is visible on e.
func (e *EntityType) ownsAll(properties []*Property) bool {
	for _, p := range properties {
		if p == nil || e.FindProperty(p.name) != p {
			return false
		}
	}
	return true
}

func copyProperties(properties []*Property) []*Property {
	return append([]*Property(nil), properties...)
}

func indexOf[T comparable](items []T, item T) int {
	for i, candidate := range items {
		if candidate == item {
			return i
		}
	}
	return -1
}

func insertSorted[T any](items []T, item T, props func(T) []*Property) []T {
	i := sort.Search(len(items), func(i int) bool {
		return PropertyListComparer(props(items[i]), props(item)) > 0
	})
	items = append(items, item)
	copy(items[i+1:], items[i:])
	items[i] = item
	return items
}
