package db

import (
	"regexp"
	"slices"
	"strconv"
	"strings"

	"golang.org/x/text/cases"

	"github.com/tordrt/xgscaffold/metadata"
	"github.com/tordrt/xgscaffold/serverversion"
)

var (
	trailingCommentPattern   = regexp.MustCompile(`(?s)\s*/\*(?:.*?)\*/\s*$`)
	enclosingParensPattern   = regexp.MustCompile(`(?s)^\((.*)\)$`)
	currentTimestampPattern  = regexp.MustCompile(`(?i)^CURRENT_TIMESTAMP(?:\(\d*\))?$`)
	simpleNumericPattern     = regexp.MustCompile(`^\d+(?:\.\d+)?$`)
	zeroFractionPattern      = regexp.MustCompile(`^0\.0+$`)
	jsonValidCheckPattern    = regexp.MustCompile("(?is)json_valid\\s*\\(\\s*`((?:[^`]|``)+)`\\s*\\)")
	fullTextParserPattern    = regexp.MustCompile("(?i)\\s*FULLTEXT\\s+(?:INDEX|KEY)\\s+(?:`((?:[^`]|``)+)`|(\\S+)).*WITH\\s+PARSER\\s+(?:`((?:[^`]|``)+)`|(\\S+))")
	zeroDefaultTypes         = []string{"bit", "tinyint", "smallint", "int", "bigint", "decimal", "double", "float"}
	zeroFractionDefaultTypes = []string{"decimal", "double", "float"}
)

// folder is shared: the fold caser holds no state between calls.
var folder = cases.Fold()

// JSON columns are stored with this charset and collation on every server.
const (
	jsonCharSet   = "utf8mb4"
	jsonCollation = "utf8mb4_bin"
)

// equalFold compares identifiers the way the catalog does on
// case-insensitive file systems.
func equalFold(a, b string) bool {
	return folder.String(a) == folder.String(b)
}

// indexFold is strings.Index ignoring case.
func indexFold(s, substr string) int {
	return strings.Index(folder.String(s), folder.String(substr))
}

// stripTrailingComment removes C style comments that MariaDB appends to
// column types of casted view columns, e.g. "datetime /* mariadb-5.3 */".
func stripTrailingComment(columnType string) string {
	return trailingCommentPattern.ReplaceAllString(columnType, "")
}

// normalizeGeneration removes the parentheses XG stores around generated
// column expressions and undoes the quote escaping of XG bug 104294.
func normalizeGeneration(support *serverversion.Support, generation string) string {
	if support.ParenthesisEnclosedGeneratedColumnExpressions() {
		generation = enclosingParensPattern.ReplaceAllString(generation, "$1")
	}
	if support.XGBug104294Workaround() {
		generation = strings.ReplaceAll(generation, `\'`, `'`)
	}
	return generation
}

func isDateTimeType(dataType string) bool {
	return equalFold(dataType, "timestamp") || equalFold(dataType, "datetime")
}

// isDefaultValueSQLFunction reports whether a catalog default is a function
// call rather than a literal.
func isDefaultValueSQLFunction(support *serverversion.Support, defaultValue *string, dataType string) bool {
	if defaultValue == nil {
		return false
	}
	if isDateTimeType(dataType) && currentTimestampPattern.MatchString(*defaultValue) {
		return true
	}
	// MariaDB always renders function defaults with a trailing "()".
	return support.AlternativeDefaultExpression() && strings.HasSuffix(*defaultValue, "()")
}

func isSimpleNumericDefaultValue(defaultValue string) bool {
	return simpleNumericPattern.MatchString(defaultValue)
}

// convertMariaDbDefault rewrites a MariaDB 10.2.7+ catalog default into
// the XG form. Quoted literals are unquoted, NULL becomes nil and anything
// else that is not a plain number is an expression.
func convertMariaDbDefault(defaultValue string) (converted *string, isExpression bool) {
	if strings.EqualFold(defaultValue, "NULL") {
		return nil, false
	}

	if len(defaultValue) >= 2 && strings.HasPrefix(defaultValue, "'") && strings.HasSuffix(defaultValue, "'") {
		unquoted := strings.ReplaceAll(defaultValue[1:len(defaultValue)-1], "''", "'")
		return &unquoted, false
	}

	return &defaultValue, !isSimpleNumericDefaultValue(defaultValue)
}

// filterClrDefaults drops zero defaults of non-nullable numeric columns,
// since they equal the implicit default anyway.
func filterClrDefaults(dataType string, nullable bool, defaultValue *string) *string {
	if defaultValue == nil || nullable {
		return defaultValue
	}

	switch {
	case *defaultValue == "0":
		if slices.Contains(zeroDefaultTypes, dataType) {
			return nil
		}
	case zeroFractionPattern.MatchString(*defaultValue):
		if slices.Contains(zeroFractionDefaultTypes, dataType) {
			return nil
		}
	}
	return defaultValue
}

// defaultValueSQL renders the default as SQL: functions and expressions
// verbatim, bit literals verbatim, everything else as a quoted string.
func defaultValueSQL(defaultValue *string, dataType string, isSQLFunction, isExpression bool) *string {
	if defaultValue == nil {
		return nil
	}
	if isSQLFunction || isExpression {
		return defaultValue
	}
	if strings.EqualFold(dataType, "bit") && len(*defaultValue) >= 2 && strings.EqualFold((*defaultValue)[:2], "b'") {
		return defaultValue
	}

	quoted := "'" + strings.ReplaceAll(strings.ReplaceAll(*defaultValue, `\`, `\\`), "'", "''") + "'"
	return &quoted
}

// valueGenerated derives the generation strategy from EXTRA. A nil result
// means the column has no store generated value.
func valueGenerated(extra string, defaultValue *string, dataType string) *metadata.ValueGenerated {
	var v metadata.ValueGenerated
	switch {
	case strings.Contains(extra, "auto_increment"):
		v = metadata.OnAdd
	case strings.Contains(extra, "on update"):
		if defaultValue != nil && strings.Index(extra, *defaultValue) > 0 ||
			isDateTimeType(dataType) && indexFold(extra, "CURRENT_TIMESTAMP") > 0 {
			v = metadata.OnAddOrUpdate
		} else {
			v = metadata.OnUpdate
		}
	default:
		return nil
	}
	return &v
}

// jsonColumnOverrides scans check clauses for json_valid(`column`) and
// returns the columns that MariaDB stores as longtext aliases of json.
// The first clause for a column wins.
func jsonColumnOverrides(checkClauses []string) map[string]bool {
	overrides := make(map[string]bool)
	for _, clause := range checkClauses {
		match := jsonValidCheckPattern.FindStringSubmatch(clause)
		if match == nil {
			continue
		}
		name := strings.ReplaceAll(match[1], "``", "`")
		if _, ok := overrides[name]; !ok {
			overrides[name] = true
		}
	}
	return overrides
}

// overrideJSONType returns "json" for a json_valid guarded column with the
// enforced json charset and collation, or dataType otherwise.
func overrideJSONType(dataType, charset, collation string) string {
	if charset == jsonCharSet && collation == jsonCollation {
		return "json"
	}
	return dataType
}

// fullTextParsers maps fulltext index names to their parser, read from a
// SHOW CREATE TABLE statement.
func fullTextParsers(createTable string) map[string]string {
	parsers := make(map[string]string)
	for _, m := range fullTextParserPattern.FindAllStringSubmatch(createTable, -1) {
		name := firstNonEmpty(m[1], m[2])
		parser := firstNonEmpty(m[3], m[4])
		parsers[strings.ReplaceAll(name, "``", "`")] = strings.ReplaceAll(parser, "``", "`")
	}
	return parsers
}

// parseEnumValues parses enum and set members from the column type, e.g.
// "enum('a','b')". Doubled quotes inside members are unescaped.
func parseEnumValues(columnType string) []string {
	lowerType := strings.ToLower(columnType)
	if !strings.HasPrefix(lowerType, "enum(") && !strings.HasPrefix(lowerType, "set(") {
		return nil
	}

	start := strings.Index(columnType, "(")
	end := strings.LastIndex(columnType, ")")
	if start == -1 || end == -1 || start >= end {
		return nil
	}

	var values []string
	list := columnType[start+1 : end]
	for i := 0; i < len(list); i++ {
		if list[i] != '\'' {
			continue
		}
		var value strings.Builder
		for i++; i < len(list); i++ {
			if list[i] == '\'' {
				if i+1 < len(list) && list[i+1] == '\'' {
					value.WriteByte('\'')
					i++
					continue
				}
				break
			}
			value.WriteByte(list[i])
		}
		values = append(values, value.String())
	}
	return values
}

func parsePrefixLengths(subParts string) ([]int, error) {
	parts := strings.Split(subParts, ",")
	lengths := make([]int, len(parts))
	for i, part := range parts {
		n, err := strconv.Atoi(strings.TrimSpace(part))
		if err != nil {
			return nil, err
		}
		lengths[i] = n
	}
	return lengths, nil
}

func quoteIdentifier(name string) string {
	return "`" + strings.ReplaceAll(name, "`", "``") + "`"
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
