package metadata

// Key is a set of properties that uniquely identifies an entity.
type Key struct {
	Annotations

	properties    []*Property
	declaringType *EntityType
}

// Properties returns the key properties in declaration order.
func (k *Key) Properties() []*Property { return k.properties }

// DeclaringEntityType returns the entity type that declares the key.
func (k *Key) DeclaringEntityType() *EntityType { return k.declaringType }

// IsPrimaryKey reports whether the key is the primary key of its type.
func (k *Key) IsPrimaryKey() bool { return k.declaringType.primaryKey == k }

// ReferencingForeignKeys returns every foreign key in the model whose
// principal key is k.
func (k *Key) ReferencingForeignKeys() []*ForeignKey {
	var result []*ForeignKey
	for _, e := range k.declaringType.model.EntityTypes() {
		for _, fk := range e.foreignKeys {
			if fk.principalKey == k {
				result = append(result, fk)
			}
		}
	}
	return result
}

func (k *Key) contains(p *Property) bool {
	return containsProperty(k.properties, p)
}

func (k *Key) String() string {
	return k.declaringType.Name() + " " + formatProperties(k.properties)
}

// Index is a non-key index over entity properties.
type Index struct {
	Annotations

	properties    []*Property
	declaringType *EntityType
	isUnique      bool
}

// Properties returns the indexed properties in declaration order.
func (i *Index) Properties() []*Property { return i.properties }

// DeclaringEntityType returns the entity type that declares the index.
func (i *Index) DeclaringEntityType() *EntityType { return i.declaringType }

func (i *Index) IsUnique() bool { return i.isUnique }

func (i *Index) SetIsUnique(unique bool) { i.isUnique = unique }

func (i *Index) contains(p *Property) bool {
	return containsProperty(i.properties, p)
}

func containsProperty(properties []*Property, p *Property) bool {
	for _, candidate := range properties {
		if candidate == p {
			return true
		}
	}
	return false
}
