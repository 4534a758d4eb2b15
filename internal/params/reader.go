package params

import "fmt"

// Reader reads typed values from a normalized mapping, falling back to
// schema defaults for absent names. The first failure is kept in Err.
type Reader struct {
	values map[string]any
	schema Schema
	err    error
}

// NewReader creates a Reader over values.
func NewReader(values map[string]any, schema Schema) *Reader {
	return &Reader{values: values, schema: schema}
}

// Err returns the first read error.
func (r *Reader) Err() error {
	return r.err
}

// Has reports whether name was supplied.
func (r *Reader) Has(name string) bool {
	_, ok := r.values[name]
	return ok
}

func (r *Reader) Int(name string) int {
	v, ok := r.value(name)
	if !ok {
		return 0
	}
	i, ok := toInt(v)
	if !ok {
		r.fail(name, Int, v)
	}
	return i
}

func (r *Reader) Float(name string) float64 {
	v, ok := r.value(name)
	if !ok {
		return 0
	}
	f, ok := toFloat(v)
	if !ok {
		r.fail(name, Float, v)
	}
	return f
}

func (r *Reader) Bool(name string) bool {
	v, ok := r.value(name)
	if !ok {
		return false
	}
	b, ok := toBool(v)
	if !ok {
		r.fail(name, Bool, v)
	}
	return b
}

func (r *Reader) String(name string) string {
	v, ok := r.value(name)
	if !ok {
		return ""
	}
	s, ok := toString(v)
	if !ok {
		r.fail(name, String, v)
	}
	return s
}

// value returns the supplied value or the declared default.
func (r *Reader) value(name string) (any, bool) {
	if v, ok := r.values[name]; ok && v != nil {
		return v, true
	}
	spec, ok := r.schema.Lookup(name)
	if !ok || spec.Default == nil {
		return nil, false
	}
	return spec.Default, true
}

func (r *Reader) fail(name string, t Type, v any) {
	if r.err == nil {
		r.err = fmt.Errorf("%w: %s: cannot read %v (%T) as %s", ErrInvalidParam, name, v, v, t)
	}
}
