package metadata

import (
	"database/sql"
	"reflect"
	"strings"
)

// ValueGenerated describes when the store generates a value for a property.
type ValueGenerated int

const (
	Never ValueGenerated = iota
	OnAdd
	OnUpdate
	OnAddOrUpdate
)

func (v ValueGenerated) String() string {
	switch v {
	case OnAdd:
		return "OnAdd"
	case OnUpdate:
		return "OnUpdate"
	case OnAddOrUpdate:
		return "OnAddOrUpdate"
	default:
		return "Never"
	}
}

type propertyFlag uint16

const (
	flagNullable propertyFlag = 1 << iota
	flagReadOnlyBeforeSave
	flagReadOnlyAfterSave
	flagConcurrencyToken
	flagStoreGeneratedAlways
	flagShadow
	flagValueGenerated
)

// flagSet stores three-state flags: a bit in set marks the flag as
// explicitly configured, the matching bit in values holds its value.
type flagSet struct {
	values propertyFlag
	set    propertyFlag
}

func (f *flagSet) get(flag propertyFlag) (value, ok bool) {
	return f.values&flag != 0, f.set&flag != 0
}

func (f *flagSet) put(flag propertyFlag, value bool) {
	f.set |= flag
	if value {
		f.values |= flag
	} else {
		f.values &^= flag
	}
}

func (f *flagSet) clear(flag propertyFlag) {
	f.set &^= flag
	f.values &^= flag
}

// Property is a scalar member of an entity type. Properties are created
// through EntityType.AddProperty or EntityType.AddPropertyFor.
type Property struct {
	Annotations

	name          string
	goType        reflect.Type
	declaringType *EntityType
	field         *reflect.StructField

	flags          flagSet
	valueGenerated ValueGenerated

	index              int
	shadowIndex        int
	originalValueIndex int
}

func newProperty(name string, goType reflect.Type, declaringType *EntityType, shadow bool) *Property {
	p := &Property{
		name:               name,
		goType:             goType,
		declaringType:      declaringType,
		index:              -1,
		shadowIndex:        -1,
		originalValueIndex: -1,
	}
	p.flags.put(flagShadow, shadow)
	return p
}

// Name returns the property name.
func (p *Property) Name() string { return p.name }

// GoType returns the Go type of the property value.
func (p *Property) GoType() reflect.Type { return p.goType }

// DeclaringEntityType returns the entity type that declares the property.
func (p *Property) DeclaringEntityType() *EntityType { return p.declaringType }

// Field returns the backing struct field, or nil for shadow properties.
func (p *Property) Field() *reflect.StructField { return p.field }

// Index is the storage slot of the property across the whole hierarchy.
func (p *Property) Index() int { return p.index }

// ShadowIndex is the slot of the property among shadow properties, or -1.
func (p *Property) ShadowIndex() int { return p.shadowIndex }

// OriginalValueIndex is the snapshot slot of the property, or -1 when no
// original value is tracked.
func (p *Property) OriginalValueIndex() int { return p.originalValueIndex }

// IsShadowProperty reports whether the property has no backing struct field.
func (p *Property) IsShadowProperty() bool {
	v, _ := p.flags.get(flagShadow)
	return v
}

// SetIsShadowProperty changes the shadow state and renumbers the hierarchy.
func (p *Property) SetIsShadowProperty(shadow bool) {
	p.flags.put(flagShadow, shadow)
	p.declaringType.rebuild()
}

// IsNullable defaults to true for nullable Go types outside the primary key.
func (p *Property) IsNullable() bool {
	if v, ok := p.flags.get(flagNullable); ok {
		return v
	}
	return !p.IsPrimaryKey() && isNullableType(p.goType)
}

// SetIsNullable configures nullability explicitly.
func (p *Property) SetIsNullable(nullable bool) error {
	if nullable {
		if !isNullableType(p.goType) {
			return newError(NonNullableType,
				"The property '%s' on entity type '%s' cannot be marked as nullable because the type of the property is '%s' which is not a nullable type.",
				p.name, p.declaringType.Name(), p.goType)
		}
		if p.IsPrimaryKey() {
			return newError(NullablePrimaryKey,
				"The property '%s' on entity type '%s' cannot be marked as nullable because the property is part of the primary key.",
				p.name, p.declaringType.Name())
		}
	}
	p.flags.put(flagNullable, nullable)
	return nil
}

// ClearIsNullable returns nullability to its computed default.
func (p *Property) ClearIsNullable() { p.flags.clear(flagNullable) }

// ValueGenerated defaults to Never.
func (p *Property) ValueGenerated() ValueGenerated {
	if _, ok := p.flags.get(flagValueGenerated); ok {
		return p.valueGenerated
	}
	return Never
}

func (p *Property) SetValueGenerated(v ValueGenerated) {
	p.flags.put(flagValueGenerated, true)
	p.valueGenerated = v
}

func (p *Property) ClearValueGenerated() {
	p.flags.clear(flagValueGenerated)
	p.valueGenerated = Never
}

// StoreGeneratedAlways defaults to false.
func (p *Property) StoreGeneratedAlways() bool {
	v, _ := p.flags.get(flagStoreGeneratedAlways)
	return v
}

func (p *Property) SetStoreGeneratedAlways(v bool) { p.flags.put(flagStoreGeneratedAlways, v) }

func (p *Property) ClearStoreGeneratedAlways() { p.flags.clear(flagStoreGeneratedAlways) }

func (p *Property) generatedOnEverySave() bool {
	return p.ValueGenerated() == OnAddOrUpdate && !p.StoreGeneratedAlways()
}

// IsReadOnlyBeforeSave defaults to true for values generated on every save.
func (p *Property) IsReadOnlyBeforeSave() bool {
	if v, ok := p.flags.get(flagReadOnlyBeforeSave); ok {
		return v
	}
	return p.generatedOnEverySave()
}

func (p *Property) SetIsReadOnlyBeforeSave(v bool) { p.flags.put(flagReadOnlyBeforeSave, v) }

func (p *Property) ClearIsReadOnlyBeforeSave() { p.flags.clear(flagReadOnlyBeforeSave) }

// IsReadOnlyAfterSave defaults to true for key properties and values
// generated on every save.
func (p *Property) IsReadOnlyAfterSave() bool {
	if v, ok := p.flags.get(flagReadOnlyAfterSave); ok {
		return v
	}
	return p.IsKey() || p.generatedOnEverySave()
}

// SetIsReadOnlyAfterSave fails when a key property is made writable.
func (p *Property) SetIsReadOnlyAfterSave(v bool) error {
	if !v && p.IsKey() {
		return newError(KeyPropertyMustBeReadOnly,
			"The property '%s' on entity type '%s' must be marked as read-only after it has been saved because it is part of a key. Key properties are always read-only once an entity has been saved for the first time.",
			p.name, p.declaringType.Name())
	}
	p.flags.put(flagReadOnlyAfterSave, v)
	return nil
}

func (p *Property) ClearIsReadOnlyAfterSave() { p.flags.clear(flagReadOnlyAfterSave) }

// IsConcurrencyToken defaults to false.
func (p *Property) IsConcurrencyToken() bool {
	v, _ := p.flags.get(flagConcurrencyToken)
	return v
}

// SetIsConcurrencyToken changes the flag and renumbers original values.
func (p *Property) SetIsConcurrencyToken(v bool) {
	p.flags.put(flagConcurrencyToken, v)
	p.declaringType.rebuild()
}

func (p *Property) ClearIsConcurrencyToken() {
	p.flags.clear(flagConcurrencyToken)
	p.declaringType.rebuild()
}

// IsPrimaryKey reports whether the property is part of the primary key.
func (p *Property) IsPrimaryKey() bool {
	pk := p.declaringType.FindPrimaryKey()
	return pk != nil && pk.contains(p)
}

// IsKey reports whether the property is part of any key.
func (p *Property) IsKey() bool {
	for _, k := range p.declaringType.Keys() {
		if k.contains(p) {
			return true
		}
	}
	return false
}

// IsForeignKey reports whether the property is part of a foreign key
// declared anywhere in its hierarchy.
func (p *Property) IsForeignKey() bool {
	found := false
	p.declaringType.walkHierarchy(func(e *EntityType) {
		for _, fk := range e.foreignKeys {
			if fk.contains(p) {
				found = true
			}
		}
	})
	return found
}

func (p *Property) requiresOriginalValue() bool {
	return p.declaringType.UseEagerSnapshots() || p.IsConcurrencyToken() || p.IsForeignKey()
}

func (p *Property) String() string {
	return p.declaringType.Name() + "." + p.name
}

var nullTypePrefix = reflect.TypeOf(sql.NullString{}).PkgPath()

func isNullableType(t reflect.Type) bool {
	if t == nil {
		return true
	}
	switch t.Kind() {
	case reflect.Pointer, reflect.Interface, reflect.Slice, reflect.Map:
		return true
	case reflect.Struct:
		return t.PkgPath() == nullTypePrefix && strings.HasPrefix(t.Name(), "Null")
	}
	return false
}
