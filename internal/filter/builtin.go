package filter

import "sort"

// Predefined chains for common front-end tools.
var (
	Less     = Chain{MustStep("lessc $IN", string(ModeFileIn))}
	CSSMin   = Chain{MustStep("cssmin", string(ModeStream))}
	UglifyJS = Chain{MustStep("uglifyjs", string(ModeStream))}
)

var builtins = map[string]Chain{
	"less":     Less,
	"cssmin":   CSSMin,
	"uglifyjs": UglifyJS,
}

// Lookup returns a predefined chain by name.
func Lookup(name string) (Chain, bool) {
	c, ok := builtins[name]
	return c, ok
}

// BuiltinNames lists the predefined chain names in sorted order.
func BuiltinNames() []string {
	names := make([]string, 0, len(builtins))
	for n := range builtins {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}
