package core

import "strings"

// descriptor letter -> canonical primitive name
var primitiveDescriptors = map[byte]string{
	'C': "char",
	'I': "int",
	'B': "byte",
	'Z': "boolean",
	'F': "float",
	'D': "double",
	'S': "short",
	'J': "long",
	'V': "void",
}

var primitiveLetters = map[string]byte{
	"char":    'C',
	"int":     'I',
	"byte":    'B',
	"boolean": 'Z',
	"float":   'F',
	"double":  'D',
	"short":   'S',
	"long":    'J',
	"void":    'V',
}

// ToCanonicalName converts a Dalvik type descriptor into the canonical name
// used as the Scope key:
//
//	Ljava/lang/String;  -> java.lang.String
//	I                   -> int
//	[Ljava/lang/Object; -> [Ljava.lang.Object;
//
// Array descriptors keep their descriptor shape with '/' replaced by '.'.
// An empty string is returned for a malformed descriptor.
func ToCanonicalName(desc string) string {
	if desc == "" {
		return ""
	}
	desc = strings.ReplaceAll(desc, "/", ".")
	switch first := desc[0]; first {
	case 'L':
		if len(desc) < 3 || desc[len(desc)-1] != ';' {
			return ""
		}
		return desc[1 : len(desc)-1]
	case '[':
		return desc
	default:
		if len(desc) != 1 {
			return ""
		}
		return primitiveDescriptors[first]
	}
}

// ToDalvikName is the inverse of ToCanonicalName.
func ToDalvikName(name string) string {
	if name == "" {
		return ""
	}
	if name[0] == '[' {
		return strings.ReplaceAll(name, ".", "/")
	}
	if letter, ok := primitiveLetters[name]; ok {
		return string(letter)
	}
	return "L" + strings.ReplaceAll(name, ".", "/") + ";"
}

// elementName returns the canonical name of an array's element type.
func elementName(arrayName string) string {
	if len(arrayName) < 2 || arrayName[0] != '[' {
		return ""
	}
	rest := arrayName[1:]
	switch rest[0] {
	case '[':
		return rest
	case 'L':
		if len(rest) < 3 || rest[len(rest)-1] != ';' {
			return ""
		}
		return rest[1 : len(rest)-1]
	default:
		if len(rest) != 1 {
			return ""
		}
		return primitiveDescriptors[rest[0]]
	}
}
