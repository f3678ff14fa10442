package compiler

import (
	"sort"
	"unicode"
)

// Property types carried as the first operand of PROP and NOTPROP.
const (
	PropAny    = 0 // \p{Any}
	PropLAmp   = 1 // \p{L&}: Lu, Ll or Lt
	PropGC     = 2 // general category, one letter
	PropPC     = 3 // particular category, two letters
	PropScript = 4 // script name
)

// property is a \p{...} item: type and value operand.
type property struct {
	typ   byte
	value byte
}

var (
	generalCategories    []string
	particularCategories []string
	scriptNames          []string
)

func init() {
	for name := range unicode.Categories {
		switch len(name) {
		case 1:
			generalCategories = append(generalCategories, name)
		case 2:
			particularCategories = append(particularCategories, name)
		}
	}
	for name := range unicode.Scripts {
		scriptNames = append(scriptNames, name)
	}
	sort.Strings(generalCategories)
	sort.Strings(particularCategories)
	sort.Strings(scriptNames)
}

// lookupProperty maps a property name to its operands.
func lookupProperty(name string) (property, bool) {
	switch name {
	case "Any":
		return property{typ: PropAny}, true
	case "L&":
		return property{typ: PropLAmp}, true
	}
	if i := sort.SearchStrings(generalCategories, name); i < len(generalCategories) && generalCategories[i] == name {
		return property{typ: PropGC, value: byte(i)}, true
	}
	if i := sort.SearchStrings(particularCategories, name); i < len(particularCategories) && particularCategories[i] == name {
		return property{typ: PropPC, value: byte(i)}, true
	}
	if i := sort.SearchStrings(scriptNames, name); i < len(scriptNames) && scriptNames[i] == name {
		return property{typ: PropScript, value: byte(i)}, true
	}
	return property{}, false
}

// PropertyName returns the name encoded by PROP operands typ and value.
func PropertyName(typ, value byte) string {
	var names []string
	switch typ {
	case PropAny:
		return "Any"
	case PropLAmp:
		return "L&"
	case PropGC:
		names = generalCategories
	case PropPC:
		names = particularCategories
	case PropScript:
		names = scriptNames
	}
	if int(value) < len(names) {
		return names[value]
	}
	return ""
}
