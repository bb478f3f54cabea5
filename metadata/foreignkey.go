package metadata

// DeleteBehavior controls what happens to dependents when the principal
// is deleted.
type DeleteBehavior int

const (
	DeleteRestrict DeleteBehavior = iota
	DeleteCascade
	DeleteSetNull
	DeleteNoAction
)

func (d DeleteBehavior) String() string {
	switch d {
	case DeleteCascade:
		return "Cascade"
	case DeleteSetNull:
		return "SetNull"
	case DeleteNoAction:
		return "NoAction"
	default:
		return "Restrict"
	}
}

// ForeignKey relates dependent properties to a principal key.
type ForeignKey struct {
	Annotations

	properties          []*Property
	principalKey        *Key
	principalEntityType *EntityType
	declaringType       *EntityType

	isUnique       bool
	isRequired     *bool
	deleteBehavior DeleteBehavior

	dependentToPrincipal *Navigation
	principalToDependent *Navigation
}

// Properties returns the dependent properties.
func (fk *ForeignKey) Properties() []*Property { return fk.properties }

// PrincipalKey returns the referenced key.
func (fk *ForeignKey) PrincipalKey() *Key { return fk.principalKey }

// PrincipalEntityType returns the principal end of the relationship.
func (fk *ForeignKey) PrincipalEntityType() *EntityType { return fk.principalEntityType }

// DeclaringEntityType returns the dependent end of the relationship.
func (fk *ForeignKey) DeclaringEntityType() *EntityType { return fk.declaringType }

// IsUnique reports whether the relationship is one-to-one.
func (fk *ForeignKey) IsUnique() bool { return fk.isUnique }

func (fk *ForeignKey) SetIsUnique(unique bool) { fk.isUnique = unique }

// IsRequired defaults to true when none of the dependent properties are
// nullable.
func (fk *ForeignKey) IsRequired() bool {
	if fk.isRequired != nil {
		return *fk.isRequired
	}
	for _, p := range fk.properties {
		if p.IsNullable() {
			return false
		}
	}
	return true
}

func (fk *ForeignKey) SetIsRequired(required bool) { fk.isRequired = &required }

func (fk *ForeignKey) DeleteBehavior() DeleteBehavior { return fk.deleteBehavior }

func (fk *ForeignKey) SetDeleteBehavior(b DeleteBehavior) { fk.deleteBehavior = b }

// DependentToPrincipal is the navigation on the dependent, or nil.
func (fk *ForeignKey) DependentToPrincipal() *Navigation { return fk.dependentToPrincipal }

// PrincipalToDependent is the navigation on the principal, or nil.
func (fk *ForeignKey) PrincipalToDependent() *Navigation { return fk.principalToDependent }

// IsSelfReferencing reports whether both ends are the same entity type.
func (fk *ForeignKey) IsSelfReferencing() bool {
	return fk.declaringType == fk.principalEntityType
}

func (fk *ForeignKey) contains(p *Property) bool {
	return containsProperty(fk.properties, p)
}

func (fk *ForeignKey) String() string {
	return fk.declaringType.Name() + " " + formatProperties(fk.properties) +
		" -> " + fk.principalEntityType.Name() + " " + formatProperties(fk.principalKey.properties)
}

// Navigation is a reference or collection member that follows a foreign key.
type Navigation struct {
	Annotations

	name              string
	declaringType     *EntityType
	foreignKey        *ForeignKey
	pointsToPrincipal bool
}

func (n *Navigation) Name() string { return n.name }

func (n *Navigation) DeclaringEntityType() *EntityType { return n.declaringType }

func (n *Navigation) ForeignKey() *ForeignKey { return n.foreignKey }

// PointsToPrincipal reports whether the navigation goes from dependent to
// principal.
func (n *Navigation) PointsToPrincipal() bool { return n.pointsToPrincipal }

// IsCollection reports whether the navigation holds many dependents.
func (n *Navigation) IsCollection() bool {
	return !n.pointsToPrincipal && !n.foreignKey.IsUnique()
}

// TargetType returns the entity type at the other end of the navigation.
func (n *Navigation) TargetType() *EntityType {
	if n.pointsToPrincipal {
		return n.foreignKey.principalEntityType
	}
	return n.foreignKey.declaringType
}
