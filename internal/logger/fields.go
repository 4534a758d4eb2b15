package logger

import (
	"time"

	"github.com/rs/zerolog"
)

// Field is one structured key/value.
type Field interface {
	AddTo(event *zerolog.Event)
	addToContext(ctx zerolog.Context) zerolog.Context
}

type stringField struct {
	key   string
	value string
}

func (f stringField) AddTo(e *zerolog.Event) { e.Str(f.key, f.value) }

func (f stringField) addToContext(c zerolog.Context) zerolog.Context { return c.Str(f.key, f.value) }

type intField struct {
	key   string
	value int64
}

func (f intField) AddTo(e *zerolog.Event) { e.Int64(f.key, f.value) }

func (f intField) addToContext(c zerolog.Context) zerolog.Context { return c.Int64(f.key, f.value) }

type floatField struct {
	key   string
	value float64
}

func (f floatField) AddTo(e *zerolog.Event) { e.Float64(f.key, f.value) }

func (f floatField) addToContext(c zerolog.Context) zerolog.Context { return c.Float64(f.key, f.value) }

type boolField struct {
	key   string
	value bool
}

func (f boolField) AddTo(e *zerolog.Event) { e.Bool(f.key, f.value) }

func (f boolField) addToContext(c zerolog.Context) zerolog.Context { return c.Bool(f.key, f.value) }

type errorField struct {
	value error
}

func (f errorField) AddTo(e *zerolog.Event) { e.Err(f.value) }

func (f errorField) addToContext(c zerolog.Context) zerolog.Context { return c.Err(f.value) }

type anyField struct {
	key   string
	value interface{}
}

func (f anyField) AddTo(e *zerolog.Event) { e.Interface(f.key, f.value) }

func (f anyField) addToContext(c zerolog.Context) zerolog.Context { return c.Interface(f.key, f.value) }

// --- Field constructors ---

func String(key, value string) Field {
	return stringField{key: key, value: value}
}

func Int(key string, value int) Field {
	return intField{key: key, value: int64(value)}
}

func Int64(key string, value int64) Field {
	return intField{key: key, value: value}
}

func Float64(key string, value float64) Field {
	return floatField{key: key, value: value}
}

func Bool(key string, value bool) Field {
	return boolField{key: key, value: value}
}

func Error(err error) Field {
	return errorField{value: err}
}

func Any(key string, value interface{}) Field {
	return anyField{key: key, value: value}
}

// Duration logs milliseconds.
func Duration(key string, value time.Duration) Field {
	return intField{key: key, value: value.Milliseconds()}
}
