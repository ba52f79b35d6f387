package generator

import "strings"

// Kind is the target scalar type a source column maps to.
type Kind int

const (
	String Kind = iota
	Int32
	Int64
	Decimal
	Double
	Boolean
	DateTime
	UUID
	Bytes
)

// typeRule maps any source type containing one of its keywords to a Kind.
type typeRule struct {
	keywords []string
	kind     Kind
}

// typeRules is checked in order; the first keyword found wins. "bigint" must
// precede "int".
var typeRules = []typeRule{
	{[]string{"bigint"}, Int64},
	{[]string{"int"}, Int32},
	{[]string{"decimal", "numeric", "money"}, Decimal},
	{[]string{"float", "real", "double"}, Double},
	{[]string{"bit", "bool"}, Boolean},
	{[]string{"datetime", "date", "timestamp"}, DateTime},
	{[]string{"uniqueidentifier", "uuid"}, UUID},
	{[]string{"varbinary", "binary", "image", "bytea", "blob"}, Bytes},
}

// MapSourceType maps a database source type such as "nvarchar(50)" or
// "BIGINT UNSIGNED" to a Kind by case-insensitive substring match. It never
// fails: anything unmatched is a String.
func MapSourceType(sourceType string) Kind {
	s := strings.ToLower(sourceType)
	for _, rule := range typeRules {
		for _, kw := range rule.keywords {
			if strings.Contains(s, kw) {
				return rule.kind
			}
		}
	}
	return String
}

var csharpNames = map[Kind]string{
	String:   "string",
	Int32:    "int",
	Int64:    "long",
	Decimal:  "decimal",
	Double:   "double",
	Boolean:  "bool",
	DateTime: "DateTime",
	UUID:     "Guid",
	Bytes:    "byte[]",
}

// CSharp returns the C# type name, e.g. "int" or "byte[]".
func (k Kind) CSharp() string { return csharpNames[k] }

// IsValueType reports whether the C# type is a struct, which needs "?" to
// become nullable.
func (k Kind) IsValueType() bool {
	return k != String && k != Bytes
}

// CSharpType returns the declared property type for a column of this kind.
func (k Kind) CSharpType(nullable bool) string {
	if nullable {
		return k.CSharp() + "?"
	}
	return k.CSharp()
}

// OpenAPI returns the JSON schema type and format for the kind.
func (k Kind) OpenAPI() (typ, format string) {
	switch k {
	case Int32:
		return "integer", "int32"
	case Int64:
		return "integer", "int64"
	case Decimal:
		return "number", "double"
	case Double:
		return "number", "double"
	case Boolean:
		return "boolean", ""
	case DateTime:
		return "string", "date-time"
	case UUID:
		return "string", "uuid"
	case Bytes:
		return "string", "byte"
	}
	return "string", ""
}

// inputType is the HTML input type used by generated forms.
func (k Kind) inputType() string {
	switch k {
	case Int32, Int64, Decimal, Double:
		return "number"
	case Boolean:
		return "checkbox"
	case DateTime:
		return "datetime-local"
	}
	return "text"
}

func (k Kind) String() string {
	switch k {
	case Int32:
		return "Int32"
	case Int64:
		return "Int64"
	case Decimal:
		return "Decimal"
	case Double:
		return "Double"
	case Boolean:
		return "Boolean"
	case DateTime:
		return "DateTime"
	case UUID:
		return "UUID"
	case Bytes:
		return "Bytes"
	}
	return "String"
}
