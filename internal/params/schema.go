// Package params normalizes loosely typed detector parameters against a
// declarative per-detector schema.
package params

// Type is the expected type of a parameter.
type Type int

// Parameter types. Auto infers the type from the declared default.
const (
	Auto Type = iota
	Int
	Float
	Bool
	String
)

func (t Type) String() string {
	switch t {
	case Int:
		return "int"
	case Float:
		return "float"
	case Bool:
		return "bool"
	case String:
		return "string"
	default:
		return "auto"
	}
}

// Spec declares one accepted parameter.
type Spec struct {
	Name    string
	Type    Type // Auto to infer from Default
	Default any  // nil when the detector has no static default
	Aliases []string
}

// ExpectedType returns the explicit type or the one inferred from Default.
// Auto means the value is passed through uncoerced.
func (s Spec) ExpectedType() Type {
	if s.Type != Auto {
		return s.Type
	}
	switch s.Default.(type) {
	case int, int32, int64:
		return Int
	case float32, float64:
		return Float
	case bool:
		return Bool
	case string:
		return String
	default:
		return Auto
	}
}

// Schema is the full set of parameters a detector accepts.
type Schema []Spec

// Lookup returns the spec declared under name.
func (s Schema) Lookup(name string) (Spec, bool) {
	for _, spec := range s {
		if spec.Name == name {
			return spec, true
		}
	}
	return Spec{}, false
}

// Declares reports whether name is a canonical parameter of the schema.
func (s Schema) Declares(name string) bool {
	_, ok := s.Lookup(name)
	return ok
}

// Names returns canonical names in declaration order.
func (s Schema) Names() []string {
	names := make([]string, len(s))
	for i, spec := range s {
		names[i] = spec.Name
	}
	return names
}

// Merge returns a schema with specs from other appended; later specs
// replace earlier ones with the same name.
func (s Schema) Merge(other Schema) Schema {
	out := make(Schema, 0, len(s)+len(other))
	index := make(map[string]int, len(s)+len(other))
	for _, spec := range append(append(Schema{}, s...), other...) {
		if i, ok := index[spec.Name]; ok {
			out[i] = spec
			continue
		}
		index[spec.Name] = len(out)
		out = append(out, spec)
	}
	return out
}
