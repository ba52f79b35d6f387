package generator

import (
	"strings"
	"unicode"
)

// csharpKeywords are reserved words that need an "@" prefix to be used as
// identifiers.
var csharpKeywords = map[string]bool{
	"abstract": true, "as": true, "base": true, "bool": true, "break": true,
	"byte": true, "case": true, "catch": true, "char": true, "checked": true,
	"class": true, "const": true, "continue": true, "decimal": true, "default": true,
	"delegate": true, "do": true, "double": true, "else": true, "enum": true,
	"event": true, "explicit": true, "extern": true, "false": true, "finally": true,
	"fixed": true, "float": true, "for": true, "foreach": true, "goto": true,
	"if": true, "implicit": true, "in": true, "int": true, "interface": true,
	"internal": true, "is": true, "lock": true, "long": true, "namespace": true,
	"new": true, "null": true, "object": true, "operator": true, "out": true,
	"override": true, "params": true, "private": true, "protected": true, "public": true,
	"readonly": true, "ref": true, "return": true, "sbyte": true, "sealed": true,
	"short": true, "sizeof": true, "stackalloc": true, "static": true, "string": true,
	"struct": true, "switch": true, "this": true, "throw": true, "true": true,
	"try": true, "typeof": true, "uint": true, "ulong": true, "unchecked": true,
	"unsafe": true, "ushort": true, "using": true, "virtual": true, "void": true,
	"volatile": true, "while": true,
}

func isWordSeparator(r rune) bool {
	return r == '_' || r == '-' || r == ' '
}

// Identifier converts a table or column name into a PascalCase C# identifier.
// Words split at '_', '-' and spaces; other characters that cannot appear in
// an identifier are dropped. A leading digit gets a "_" prefix and a result
// that is a C# keyword gets "@".
func Identifier(name string) string {
	var b strings.Builder
	for _, word := range strings.FieldsFunc(name, isWordSeparator) {
		first := true
		for _, r := range word {
			if !unicode.IsLetter(r) && !unicode.IsDigit(r) {
				continue
			}
			if first {
				r = unicode.ToUpper(r)
				first = false
			}
			b.WriteRune(r)
		}
	}
	return escape(b.String())
}

// localName converts an identifier to camelCase for parameters and locals.
func localName(ident string) string {
	ident = strings.TrimLeft(ident, "@_")
	if ident == "" {
		return "item"
	}
	runes := []rune(ident)
	runes[0] = unicode.ToLower(runes[0])
	return escape(string(runes))
}

// jsonName is the property name System.Text.Json writes for a C# member
// under JsonNamingPolicy.CamelCase: the leading run of capitals is
// lower-cased, except the last one when a lower-case letter follows it.
func jsonName(ident string) string {
	ident = strings.TrimPrefix(ident, "@")
	runes := []rune(ident)
	if len(runes) == 0 || !unicode.IsUpper(runes[0]) {
		return ident
	}
	for i := range runes {
		if i == 1 && !unicode.IsUpper(runes[i]) {
			break
		}
		if i > 0 && i+1 < len(runes) && !unicode.IsUpper(runes[i+1]) {
			if runes[i+1] == ' ' {
				runes[i] = unicode.ToLower(runes[i])
			}
			break
		}
		runes[i] = unicode.ToLower(runes[i])
	}
	return string(runes)
}

func escape(ident string) string {
	switch {
	case ident == "":
		return "_"
	case unicode.IsDigit([]rune(ident)[0]):
		return "_" + ident
	case csharpKeywords[ident]:
		return "@" + ident
	}
	return ident
}

// routeName is the lower-case URL segment for a table.
func routeName(ident string) string {
	return strings.ToLower(strings.TrimLeft(ident, "@_"))
}

// csString escapes s for a C# regular string literal.
func csString(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `"`, `\"`, "\n", `\n`, "\r", `\r`, "\t", `\t`)
	return r.Replace(s)
}
