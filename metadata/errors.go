package metadata

import (
	"fmt"
	"strings"
)

// ErrorKind classifies metadata errors so callers can branch with errors.Is.
type ErrorKind int

const (
	// Configuration errors.
	InvalidArgument ErrorKind = iota + 1
	MissingPropertyType
	NonShadowPropertyOnShadowEntity
	NullablePrimaryKey
	NonNullableType
	KeyPropertyMustBeReadOnly

	// Collision errors.
	DuplicateEntityType
	DuplicateProperty
	DuplicateNavigation
	ConflictingProperty
	ConflictingNavigation
	DuplicateKey
	DuplicateForeignKey
	DuplicateIndex
	NavigationAlreadyAssigned

	// Shape and integrity errors.
	CircularInheritance
	DerivedEntityCannotHaveKeys
	KeyPropertiesWrongEntity
	ForeignKeyPropertiesWrongEntity
	ForeignKeyCountMismatch
	ForeignKeyPrincipalKeyMissing
	IndexPropertiesWrongEntity
	NavigationForWrongForeignKey
	EntityTypeModelMismatch
	EntityTypeInUse
	KeyInUse
	ForeignKeyInUse
	PropertyInUse
)

var kindNames = map[ErrorKind]string{
	InvalidArgument:                 "InvalidArgument",
	MissingPropertyType:             "MissingPropertyType",
	NonShadowPropertyOnShadowEntity: "NonShadowPropertyOnShadowEntity",
	NullablePrimaryKey:              "NullablePrimaryKey",
	NonNullableType:                 "NonNullableType",
	KeyPropertyMustBeReadOnly:       "KeyPropertyMustBeReadOnly",
	DuplicateEntityType:             "DuplicateEntityType",
	DuplicateProperty:               "DuplicateProperty",
	DuplicateNavigation:             "DuplicateNavigation",
	ConflictingProperty:             "ConflictingProperty",
	ConflictingNavigation:           "ConflictingNavigation",
	DuplicateKey:                    "DuplicateKey",
	DuplicateForeignKey:             "DuplicateForeignKey",
	DuplicateIndex:                  "DuplicateIndex",
	NavigationAlreadyAssigned:       "NavigationAlreadyAssigned",
	CircularInheritance:             "CircularInheritance",
	DerivedEntityCannotHaveKeys:     "DerivedEntityCannotHaveKeys",
	KeyPropertiesWrongEntity:        "KeyPropertiesWrongEntity",
	ForeignKeyPropertiesWrongEntity: "ForeignKeyPropertiesWrongEntity",
	ForeignKeyCountMismatch:         "ForeignKeyCountMismatch",
	ForeignKeyPrincipalKeyMissing:   "ForeignKeyPrincipalKeyMissing",
	IndexPropertiesWrongEntity:      "IndexPropertiesWrongEntity",
	NavigationForWrongForeignKey:    "NavigationForWrongForeignKey",
	EntityTypeModelMismatch:         "EntityTypeModelMismatch",
	EntityTypeInUse:                 "EntityTypeInUse",
	KeyInUse:                        "KeyInUse",
	ForeignKeyInUse:                 "ForeignKeyInUse",
	PropertyInUse:                   "PropertyInUse",
}

func (k ErrorKind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return fmt.Sprintf("ErrorKind(%d)", int(k))
}

// MetadataError is returned by every failing mutation of the metadata graph.
type MetadataError struct {
	Kind    ErrorKind
	Message string
}

func (e *MetadataError) Error() string {
	return e.Message
}

// Is reports whether target is a MetadataError of the same kind.
func (e *MetadataError) Is(target error) bool {
	t, ok := target.(*MetadataError)
	return ok && t.Kind == e.Kind
}

// Sentinels for errors.Is.
var (
	ErrDuplicateProperty            = &MetadataError{Kind: DuplicateProperty}
	ErrDuplicateNavigation          = &MetadataError{Kind: DuplicateNavigation}
	ErrConflictingProperty          = &MetadataError{Kind: ConflictingProperty}
	ErrConflictingNavigation        = &MetadataError{Kind: ConflictingNavigation}
	ErrDuplicateKey                 = &MetadataError{Kind: DuplicateKey}
	ErrDuplicateForeignKey          = &MetadataError{Kind: DuplicateForeignKey}
	ErrDuplicateIndex               = &MetadataError{Kind: DuplicateIndex}
	ErrCircularInheritance          = &MetadataError{Kind: CircularInheritance}
	ErrDerivedEntityCannotHaveKeys  = &MetadataError{Kind: DerivedEntityCannotHaveKeys}
	ErrKeyPropertiesWrongEntity     = &MetadataError{Kind: KeyPropertiesWrongEntity}
	ErrForeignKeyPropertiesWrong    = &MetadataError{Kind: ForeignKeyPropertiesWrongEntity}
	ErrEntityTypeModelMismatch      = &MetadataError{Kind: EntityTypeModelMismatch}
	ErrKeyInUse                     = &MetadataError{Kind: KeyInUse}
	ErrForeignKeyInUse              = &MetadataError{Kind: ForeignKeyInUse}
	ErrPropertyInUse                = &MetadataError{Kind: PropertyInUse}
	ErrKeyPropertyMustBeReadOnly    = &MetadataError{Kind: KeyPropertyMustBeReadOnly}
	ErrNavigationForWrongForeignKey = &MetadataError{Kind: NavigationForWrongForeignKey}
)

func newError(kind ErrorKind, format string, args ...any) error {
	return &MetadataError{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// formatProperties renders a property list as {'A', 'B'} for error messages.
func formatProperties(properties []*Property) string {
	names := make([]string, len(properties))
	for i, p := range properties {
		names[i] = "'" + p.Name() + "'"
	}
	return "{" + strings.Join(names, ", ") + "}"
}
