// Package serverversion models XG and MariaDB server versions and the
// feature set each version supports.
//
// A ServerVersion is immutable. Its Support view answers capability
// questions such as Supports().Json() by comparing the version against
// per-dialect thresholds, so all dialect differences live in one table.
package serverversion

import (
	"fmt"
	"regexp"
	"strings"
)

var versionPattern = regexp.MustCompile(`\d+\.\d+\.?(?:\d+)?`)

// Latest known versions, used when a server cannot be asked.
var (
	LatestSupportedXG            = NewXG(8, 0, 31)
	LatestSupportedMariaDb       = NewMariaDb(11, 0, 2)
	LatestSupportedServerVersion = LatestSupportedXG
)

// ServerVersion identifies a dialect instance.
type ServerVersion struct {
	version        Version
	typ            ServerType
	typeIdentifier string
	support        *Support
}

// New builds a server version. An empty typeIdentifier defaults to the
// lowercase type name.
func New(version Version, typ ServerType, typeIdentifier string) (*ServerVersion, error) {
	if typeIdentifier == "" {
		if typ == Custom {
			return nil, &ArgumentError{Param: "typeIdentifier", Value: typeIdentifier, Message: "a custom server type requires an identifier"}
		}
		typeIdentifier = typ.Identifier()
	}

	sv := &ServerVersion{
		version:        version,
		typ:            typ,
		typeIdentifier: strings.ToLower(typeIdentifier),
	}
	sv.support = &Support{sv: sv}
	return sv, nil
}

// NewXG returns an XG server version.
func NewXG(major, minor, patch int) *ServerVersion {
	sv, _ := New(V(major, minor, patch), XG, "")
	return sv
}

// NewMariaDb returns a MariaDB server version.
func NewMariaDb(major, minor, patch int) *ServerVersion {
	sv, _ := New(V(major, minor, patch), MariaDb, "")
	return sv
}

// Parse reads a version such as "8.0.21-mysql" or "5.5.5-10.5.3-MariaDB".
// The dialect is taken from serverType when given, otherwise inferred from
// the text. For MariaDB the second version number is used when two are
// present, because the server banner prefixes a compatibility version.
func Parse(s string, serverType ...ServerType) (*ServerVersion, error) {
	matches := versionPattern.FindAllString(s, -1)
	if len(matches) == 0 {
		return nil, fmt.Errorf("%w from version string '%s'", ErrInvalidVersion, s)
	}

	typ := XG
	if len(serverType) > 0 {
		typ = serverType[0]
	} else if strings.Contains(strings.ToLower(s), "mariadb") {
		typ = MariaDb
	}
	if typ != XG && typ != MariaDb {
		return nil, fmt.Errorf("%w %s in version string '%s'", ErrUnsupportedServerType, typ, s)
	}

	match := matches[0]
	if typ == MariaDb && len(matches) > 1 {
		match = matches[1]
	}

	version, err := parseVersion(match)
	if err != nil {
		return nil, fmt.Errorf("%w from version string '%s': %w", ErrInvalidVersion, s, err)
	}
	return New(version, typ, "")
}

// TryParse is Parse without the error.
func TryParse(s string, serverType ...ServerType) (*ServerVersion, bool) {
	sv, err := Parse(s, serverType...)
	if err != nil {
		return nil, false
	}
	return sv, true
}

// MustParse panics when s cannot be parsed. Intended for constants.
func MustParse(s string, serverType ...ServerType) *ServerVersion {
	sv, err := Parse(s, serverType...)
	if err != nil {
		panic(err)
	}
	return sv
}

func (sv *ServerVersion) Version() Version { return sv.version }

func (sv *ServerVersion) Type() ServerType { return sv.typ }

func (sv *ServerVersion) TypeIdentifier() string { return sv.typeIdentifier }

// Supports returns the capability view bound to sv.
func (sv *ServerVersion) Supports() *Support { return sv.support }

// Equal compares version, type and identifier.
func (sv *ServerVersion) Equal(other *ServerVersion) bool {
	if sv == nil || other == nil {
		return sv == other
	}
	return sv.version == other.version &&
		sv.typ == other.typ &&
		sv.typeIdentifier == other.typeIdentifier
}

func (sv *ServerVersion) String() string {
	return sv.version.String() + "-" + sv.typeIdentifier
}
