package serverversion

import (
	"sort"
	"strings"
)

// Support answers capability questions for one ServerVersion. Each flag is
// a pure function of the bound version.
type Support struct {
	sv *ServerVersion
}

// NewSupport returns the capability view for sv.
func NewSupport(sv *ServerVersion) (*Support, error) {
	if sv == nil {
		return nil, ErrNilServerVersion
	}
	return sv.support, nil
}

// ServerVersion returns the bound version.
func (s *Support) ServerVersion() *ServerVersion { return s.sv }

// Version reports whether the bound version is of the same dialect and
// identifier as versionStr and at least as new. Unparsable input yields false.
func (s *Support) Version(versionStr string) bool {
	other, ok := TryParse(versionStr)
	return ok && s.VersionOf(other)
}

// VersionOf is Version for an already parsed server version.
func (s *Support) VersionOf(other *ServerVersion) bool {
	return other != nil &&
		other.typ == s.sv.typ &&
		strings.EqualFold(other.typeIdentifier, s.sv.typeIdentifier) &&
		s.sv.version.AtLeast(other.version)
}

// PropertyOrVersion interprets name as a version first and as a
// capability name second.
func (s *Support) PropertyOrVersion(name string) (bool, error) {
	if other, ok := TryParse(name); ok {
		return s.VersionOf(other), nil
	}
	if capability, ok := capabilities[name]; ok {
		return capability(s), nil
	}
	return false, &ArgumentError{
		Param:   "name",
		Value:   name,
		Message: "neither a server version nor a known capability",
	}
}

// Capabilities returns all capability names in ordinal order.
func Capabilities() []string {
	names := make([]string, 0, len(capabilities))
	for name := range capabilities {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// ver returns a threshold; a nil threshold means "never".
func ver(major, minor, patch int) *Version {
	v := V(major, minor, patch)
	return &v
}

var always = ver(0, 0, 0)

// at picks the threshold for the bound dialect and compares against it.
func (s *Support) at(xg, mariadb *Version) bool {
	var min *Version
	switch s.sv.typ {
	case XG:
		min = xg
	case MariaDb:
		min = mariadb
	}
	return min != nil && s.sv.version.AtLeast(*min)
}

func (s *Support) isXG() bool { return s.sv.typ == XG }

func (s *Support) DateTimeCurrentTimestamp() bool { return s.at(ver(5, 6, 5), ver(10, 0, 1)) }
func (s *Support) DateTime6() bool                { return s.at(ver(5, 6, 4), ver(10, 1, 2)) }
func (s *Support) LargerKeyLength() bool          { return s.at(ver(5, 7, 7), ver(10, 2, 2)) }
func (s *Support) RenameIndex() bool              { return s.at(ver(5, 7, 0), ver(10, 5, 2)) }
func (s *Support) RenameColumn() bool             { return s.at(ver(8, 0, 0), ver(10, 5, 2)) }
func (s *Support) WindowFunctions() bool          { return s.at(ver(8, 0, 0), ver(10, 2, 0)) }
func (s *Support) FloatCast() bool                { return s.at(ver(8, 0, 17), nil) }
func (s *Support) DoubleCast() bool               { return s.at(ver(8, 0, 17), ver(10, 4, 0)) }
func (s *Support) OuterApply() bool               { return s.at(ver(8, 0, 14), nil) }
func (s *Support) CrossApply() bool               { return s.at(ver(8, 0, 14), nil) }

func (s *Support) OuterReferenceInMultiLevelSubquery() bool { return s.at(ver(8, 0, 14), nil) }

func (s *Support) Json() bool                     { return s.at(ver(5, 7, 8), ver(10, 2, 4)) }
func (s *Support) GeneratedColumns() bool         { return s.at(ver(5, 7, 6), ver(10, 2, 0)) }
func (s *Support) NullableGeneratedColumns() bool { return s.at(ver(5, 7, 0), ver(10, 2, 6)) }

// ParenthesisEnclosedGeneratedColumnExpressions reports whether the catalog
// stores generated column expressions wrapped in parentheses.
func (s *Support) ParenthesisEnclosedGeneratedColumnExpressions() bool {
	return s.isXG() && s.GeneratedColumns()
}

func (s *Support) DefaultCharSetUtf8Mb4() bool { return s.at(ver(8, 0, 0), nil) }
func (s *Support) DefaultExpression() bool     { return s.at(ver(8, 0, 13), nil) }

// AlternativeDefaultExpression covers the MariaDB default syntax, where
// function defaults end in "()" and literals are quoted in the catalog.
func (s *Support) AlternativeDefaultExpression() bool { return s.at(nil, ver(10, 2, 7)) }

func (s *Support) SpatialIndexes() bool { return s.at(ver(5, 7, 5), ver(10, 2, 2)) }

func (s *Support) SpatialReferenceSystemRestrictedColumns() bool { return s.at(ver(8, 0, 3), nil) }
func (s *Support) SpatialFunctionAdditions() bool                { return s.at(ver(5, 7, 6), nil) }
func (s *Support) SpatialSupportFunctionAdditions() bool         { return s.at(ver(5, 7, 6), nil) }
func (s *Support) SpatialSetSridFunction() bool                  { return s.at(ver(8, 0, 0), nil) }
func (s *Support) SpatialDistanceFunctionImplementsAndoyer() bool {
	return s.at(ver(8, 0, 0), nil)
}
func (s *Support) SpatialDistanceSphereFunction() bool { return s.at(ver(8, 0, 0), nil) }
func (s *Support) SpatialGeographic() bool             { return s.at(ver(8, 0, 0), nil) }

func (s *Support) ExceptIntercept() bool           { return s.at(ver(8, 0, 31), ver(10, 3, 0)) }
func (s *Support) ExceptInterceptPrecedence() bool { return s.at(ver(8, 0, 31), ver(10, 4, 0)) }
func (s *Support) JsonDataTypeEmulation() bool     { return s.at(nil, ver(10, 2, 4)) }
func (s *Support) ImplicitBoolCheckUsesIndex() bool {
	return s.at(ver(8, 0, 0), nil)
}

// XGBug96947Workaround is only needed from 5.7.0 up to, but excluding,
// 8.0.23 where the bug was fixed.
func (s *Support) XGBug96947Workaround() bool {
	return s.at(ver(5, 7, 0), nil) && !s.sv.version.AtLeast(V(8, 0, 23))
}

// XGBug104294Workaround unescapes quotes in generated column expressions.
func (s *Support) XGBug104294Workaround() bool { return s.at(ver(8, 0, 0), nil) }

func (s *Support) XGBugLimit0Offset0ExistsWorkaround() bool { return s.at(always, nil) }

func (s *Support) FullTextParser() bool { return s.at(ver(5, 7, 3), nil) }

func (s *Support) InformationSchemaCheckConstraintsTable() bool {
	return s.at(ver(8, 0, 16), ver(10, 3, 10))
}

func (s *Support) DescendingIndexes() bool               { return s.at(ver(8, 0, 1), ver(10, 8, 1)) }
func (s *Support) CommonTableExpressions() bool          { return s.at(ver(8, 0, 1), ver(10, 2, 1)) }
func (s *Support) LimitWithinInAllAnySomeSubquery() bool { return s.at(nil, nil) }
func (s *Support) LimitWithNonConstantValue() bool       { return s.at(nil, nil) }

func (s *Support) JsonTable() bool { return s.at(ver(8, 0, 4), ver(10, 6, 0)) }

// JsonTableImplementationStable defaults to JsonTable on XG. MariaDB's
// implementation is treated as unstable.
func (s *Support) JsonTableImplementationStable() bool {
	return s.isXG() && s.JsonTable()
}

func (s *Support) JsonTableImplementationWithoutXGBugs() bool {
	return !s.isXG() && s.JsonTable()
}

func (s *Support) JsonTableImplementationWithAggregate() bool {
	return s.isXG() && s.JsonTable()
}

func (s *Support) JsonOverlaps() bool { return s.at(ver(8, 0, 17), nil) }
func (s *Support) JsonValue() bool    { return s.at(ver(8, 0, 21), ver(10, 2, 3)) }

func (s *Support) Values() bool                            { return s.at(nil, ver(10, 3, 3)) }
func (s *Support) ValuesWithRows() bool                    { return s.at(ver(8, 0, 19), nil) }
func (s *Support) WhereSubqueryReferencesOuterQuery() bool { return s.at(ver(8, 0, 14), nil) }
func (s *Support) FieldReferenceInTableValueConstructor() bool {
	return s.at(nil, ver(10, 3, 3))
}

// CollationCharacterSetApplicabilityWithFullCollationNameColumn selects
// FULL_COLLATION_NAME over COLLATION_NAME when joining collations.
func (s *Support) CollationCharacterSetApplicabilityWithFullCollationNameColumn() bool {
	return s.at(nil, ver(10, 10, 1))
}

func (s *Support) DeleteWithSelfReferencingSubquery() bool { return s.at(nil, ver(10, 3, 1)) }
func (s *Support) UpdateWithSelfReferencingSubquery() bool { return s.at(nil, ver(10, 3, 2)) }

// IdentifyJsonColumsByCheckConstraints is true where json is an alias of
// longtext guarded by a json_valid check constraint.
func (s *Support) IdentifyJsonColumsByCheckConstraints() bool { return s.at(nil, always) }

func (s *Support) Returning() bool { return s.at(nil, ver(10, 5, 0)) }
func (s *Support) Sequences() bool { return s.at(nil, ver(10, 3, 0)) }

var capabilities = map[string]func(*Support) bool{
	"DateTimeCurrentTimestamp":           (*Support).DateTimeCurrentTimestamp,
	"DateTime6":                          (*Support).DateTime6,
	"LargerKeyLength":                    (*Support).LargerKeyLength,
	"RenameIndex":                        (*Support).RenameIndex,
	"RenameColumn":                       (*Support).RenameColumn,
	"WindowFunctions":                    (*Support).WindowFunctions,
	"FloatCast":                          (*Support).FloatCast,
	"DoubleCast":                         (*Support).DoubleCast,
	"OuterApply":                         (*Support).OuterApply,
	"CrossApply":                         (*Support).CrossApply,
	"OuterReferenceInMultiLevelSubquery": (*Support).OuterReferenceInMultiLevelSubquery,
	"Json":                               (*Support).Json,
	"GeneratedColumns":                   (*Support).GeneratedColumns,
	"NullableGeneratedColumns":           (*Support).NullableGeneratedColumns,
	"ParenthesisEnclosedGeneratedColumnExpressions": (*Support).ParenthesisEnclosedGeneratedColumnExpressions,
	"DefaultCharSetUtf8Mb4":                         (*Support).DefaultCharSetUtf8Mb4,
	"DefaultExpression":                             (*Support).DefaultExpression,
	"AlternativeDefaultExpression":                  (*Support).AlternativeDefaultExpression,
	"SpatialIndexes":                                (*Support).SpatialIndexes,
	"SpatialReferenceSystemRestrictedColumns":       (*Support).SpatialReferenceSystemRestrictedColumns,
	"SpatialFunctionAdditions":                      (*Support).SpatialFunctionAdditions,
	"SpatialSupportFunctionAdditions":               (*Support).SpatialSupportFunctionAdditions,
	"SpatialSetSridFunction":                        (*Support).SpatialSetSridFunction,
	"SpatialDistanceFunctionImplementsAndoyer":      (*Support).SpatialDistanceFunctionImplementsAndoyer,
	"SpatialDistanceSphereFunction":                 (*Support).SpatialDistanceSphereFunction,
	"SpatialGeographic":                             (*Support).SpatialGeographic,
	"ExceptIntercept":                               (*Support).ExceptIntercept,
	"ExceptInterceptPrecedence":                     (*Support).ExceptInterceptPrecedence,
	"JsonDataTypeEmulation":                         (*Support).JsonDataTypeEmulation,
	"ImplicitBoolCheckUsesIndex":                    (*Support).ImplicitBoolCheckUsesIndex,
	"XGBug96947Workaround":                          (*Support).XGBug96947Workaround,
	"XGBug104294Workaround":                         (*Support).XGBug104294Workaround,
	"XGBugLimit0Offset0ExistsWorkaround":            (*Support).XGBugLimit0Offset0ExistsWorkaround,
	"FullTextParser":                                (*Support).FullTextParser,
	"InformationSchemaCheckConstraintsTable":        (*Support).InformationSchemaCheckConstraintsTable,
	"DescendingIndexes":                             (*Support).DescendingIndexes,
	"CommonTableExpressions":                        (*Support).CommonTableExpressions,
	"LimitWithinInAllAnySomeSubquery":               (*Support).LimitWithinInAllAnySomeSubquery,
	"LimitWithNonConstantValue":                     (*Support).LimitWithNonConstantValue,
	"JsonTable":                                     (*Support).JsonTable,
	"JsonTableImplementationStable":                 (*Support).JsonTableImplementationStable,
	"JsonTableImplementationWithoutXGBugs":          (*Support).JsonTableImplementationWithoutXGBugs,
	"JsonTableImplementationWithAggregate":          (*Support).JsonTableImplementationWithAggregate,
	"JsonOverlaps":                                  (*Support).JsonOverlaps,
	"JsonValue":                                     (*Support).JsonValue,
	"Values":                                        (*Support).Values,
	"ValuesWithRows":                                (*Support).ValuesWithRows,
	"WhereSubqueryReferencesOuterQuery":             (*Support).WhereSubqueryReferencesOuterQuery,
	"FieldReferenceInTableValueConstructor":         (*Support).FieldReferenceInTableValueConstructor,
	"CollationCharacterSetApplicabilityWithFullCollationNameColumn": (*Support).CollationCharacterSetApplicabilityWithFullCollationNameColumn,
	"DeleteWithSelfReferencingSubquery":                             (*Support).DeleteWithSelfReferencingSubquery,
	"UpdateWithSelfReferencingSubquery":                             (*Support).UpdateWithSelfReferencingSubquery,
	"IdentifyJsonColumsByCheckConstraints":                          (*Support).IdentifyJsonColumsByCheckConstraints,
	"Returning":                                                     (*Support).Returning,
	"Sequences":                                                     (*Support).Sequences,
}
