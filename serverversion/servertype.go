package serverversion

import "strings"

// ServerType identifies the dialect family.
type ServerType int

const (
	Custom ServerType = iota
	XG
	MariaDb
)

// Identifier returns the default lowercase type identifier.
func (t ServerType) Identifier() string {
	return strings.ToLower(t.String())
}

func (t ServerType) String() string {
	switch t {
	case XG:
		return "XG"
	case MariaDb:
		return "MariaDb"
	default:
		return "Custom"
	}
}

// ParseServerType accepts the names and identifiers above, case-insensitively.
// "mysql" is accepted as an alias for XG.
func ParseServerType(s string) (ServerType, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "xg", "mysql":
		return XG, true
	case "mariadb":
		return MariaDb, true
	case "custom":
		return Custom, true
	}
	return Custom, false
}
