package config

import (
	"fmt"
	"regexp"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"gopkg.in/yaml.v3"
)

var charSetNamePattern = regexp.MustCompile(`^[A-Za-z0-9_]+$`)

// foldName lowercases a name. Casers keep state, so each call gets its own.
func foldName(name string) string {
	return cases.Lower(language.Und).String(name)
}

// CharSet is a server character set and the maximum number of bytes a
// single character can occupy in it.
type CharSet struct {
	Name            string
	MaxBytesPerChar int
}

// Well-known character sets.
var (
	Armscii8 = CharSet{"armscii8", 1}
	ASCII    = CharSet{"ascii", 1}
	Big5     = CharSet{"big5", 2}
	Binary   = CharSet{"binary", 1}
	Cp1250   = CharSet{"cp1250", 1}
	Cp1251   = CharSet{"cp1251", 1}
	Cp1256   = CharSet{"cp1256", 1}
	Cp1257   = CharSet{"cp1257", 1}
	Cp850    = CharSet{"cp850", 1}
	Cp852    = CharSet{"cp852", 1}
	Cp866    = CharSet{"cp866", 1}
	Cp932    = CharSet{"cp932", 2}
	Dec8     = CharSet{"dec8", 1}
	EucJpms  = CharSet{"eucjpms", 3}
	EucKr    = CharSet{"euckr", 2}
	Gb18030  = CharSet{"gb18030", 4}
	Gb2312   = CharSet{"gb2312", 2}
	Gbk      = CharSet{"gbk", 2}
	Geostd8  = CharSet{"geostd8", 1}
	Greek    = CharSet{"greek", 1}
	Hebrew   = CharSet{"hebrew", 1}
	Hp8      = CharSet{"hp8", 1}
	Keybcs2  = CharSet{"keybcs2", 1}
	Koi8r    = CharSet{"koi8r", 1}
	Koi8u    = CharSet{"koi8u", 1}
	Latin1   = CharSet{"latin1", 1}
	Latin2   = CharSet{"latin2", 1}
	Latin5   = CharSet{"latin5", 1}
	Latin7   = CharSet{"latin7", 1}
	MacCe    = CharSet{"macce", 1}
	MacRoman = CharSet{"macroman", 1}
	Sjis     = CharSet{"sjis", 2}
	Swe7     = CharSet{"swe7", 1}
	Tis620   = CharSet{"tis620", 1}
	Ucs2     = CharSet{"ucs2", 2}
	Ujis     = CharSet{"ujis", 3}
	Utf16    = CharSet{"utf16", 4}
	Utf16le  = CharSet{"utf16le", 4}
	Utf32    = CharSet{"utf32", 4}
	Utf8Mb3  = CharSet{"utf8mb3", 3}
	Utf8Mb4  = CharSet{"utf8mb4", 4}
)

var wellKnownCharSets = []CharSet{
	Armscii8, ASCII, Big5, Binary, Cp1250, Cp1251, Cp1256, Cp1257, Cp850,
	Cp852, Cp866, Cp932, Dec8, EucJpms, EucKr, Gb18030, Gb2312, Gbk,
	Geostd8, Greek, Hebrew, Hp8, Keybcs2, Koi8r, Koi8u, Latin1, Latin2,
	Latin5, Latin7, MacCe, MacRoman, Sjis, Swe7, Tis620, Ucs2, Ujis, Utf16,
	Utf16le, Utf32, Utf8Mb3, Utf8Mb4,
}

// NewCharSet validates name and maxBytesPerChar.
func NewCharSet(name string, maxBytesPerChar int) (CharSet, error) {
	cs := CharSet{Name: name, MaxBytesPerChar: maxBytesPerChar}
	if err := cs.Validate(); err != nil {
		return CharSet{}, err
	}
	return cs, nil
}

// Validate checks the name syntax and a non-negative byte width.
func (c CharSet) Validate() error {
	if c.Name == "" {
		return &ValidationError{Field: "charSet", Message: "name must not be empty"}
	}
	if !charSetNamePattern.MatchString(c.Name) {
		return &ValidationError{Field: "charSet", Message: fmt.Sprintf("invalid name '%s'", c.Name)}
	}
	if c.MaxBytesPerChar < 0 {
		return &ValidationError{Field: "charSet", Message: fmt.Sprintf("maxBytesPerChar must not be negative, got %d", c.MaxBytesPerChar)}
	}
	return nil
}

// LookupCharSet finds a well-known character set by name, ignoring case.
// "utf8" resolves to utf8mb3 the way the server does.
func LookupCharSet(name string) (CharSet, bool) {
	name = foldName(name)
	if name == "utf8" {
		return Utf8Mb3, true
	}
	for _, cs := range wellKnownCharSets {
		if cs.Name == name {
			return cs, true
		}
	}
	return CharSet{}, false
}

func (c CharSet) String() string { return c.Name }

// UnmarshalYAML accepts either a name or a {name, maxBytesPerChar} mapping.
func (c *CharSet) UnmarshalYAML(value *yaml.Node) error {
	if value.Kind == yaml.ScalarNode {
		if cs, ok := LookupCharSet(value.Value); ok {
			*c = cs
			return nil
		}
		*c = CharSet{Name: value.Value}
		return c.Validate()
	}

	var raw struct {
		Name            string `yaml:"name"`
		MaxBytesPerChar int    `yaml:"maxBytesPerChar"`
	}
	if err := value.Decode(&raw); err != nil {
		return err
	}
	*c = CharSet{Name: raw.Name, MaxBytesPerChar: raw.MaxBytesPerChar}
	return c.Validate()
}
