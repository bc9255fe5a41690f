// Package record holds the flat, ordered output record written to the remote
// table and the local CSV mirror.
package record

import "strings"

// Field is a single named value in a Record.
type Field struct {
	Name  string
	Value string
}

// Record is an ordered list of fields. Methods never modify the receiver;
// With returns a copy so a record handed to one sink cannot change under
// another.
type Record struct {
	fields []Field
}

// New builds a record from fields in the given order. Later duplicates of a
// name replace the earlier value but keep its position.
func New(fields ...Field) Record {
	var r Record
	for _, f := range fields {
		r = r.With(f.Name, f.Value)
	}
	return r
}

// With returns a copy of r with name set to value. A new name is appended.
func (r Record) With(name, value string) Record {
	out := make([]Field, len(r.fields), len(r.fields)+1)
	copy(out, r.fields)
	for i := range out {
		if out[i].Name == name {
			out[i].Value = value
			return Record{fields: out}
		}
	}
	return Record{fields: append(out, Field{Name: name, Value: value})}
}

// Get returns the value stored under name.
func (r Record) Get(name string) (string, bool) {
	for _, f := range r.fields {
		if f.Name == name {
			return f.Value, true
		}
	}
	return "", false
}

// Len reports the number of fields.
func (r Record) Len() int { return len(r.fields) }

// Names returns field names in insertion order.
func (r Record) Names() []string {
	names := make([]string, len(r.fields))
	for i, f := range r.fields {
		names[i] = f.Name
	}
	return names
}

// Values returns field values in insertion order.
func (r Record) Values() []string {
	values := make([]string, len(r.fields))
	for i, f := range r.fields {
		values[i] = f.Value
	}
	return values
}

// Fields returns a copy of the underlying fields.
func (r Record) Fields() []Field {
	out := make([]Field, len(r.fields))
	copy(out, r.fields)
	return out
}

// Map returns the record as a name to value map.
func (r Record) Map() map[string]string {
	m := make(map[string]string, len(r.fields))
	for _, f := range r.fields {
		m[f.Name] = f.Value
	}
	return m
}

// String renders the record as name=value pairs for logs.
func (r Record) String() string {
	var b strings.Builder
	for i, f := range r.fields {
		if i > 0 {
			b.WriteByte(' ')
		}
		b.WriteString(f.Name)
		b.WriteByte('=')
		b.WriteString(f.Value)
	}
	return b.String()
}

// SameNames reports whether a and b contain exactly the same set of names,
// ignoring order.
func SameNames(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	set := make(map[string]int, len(a))
	for _, name := range a {
		set[name]++
	}
	for _, name := range b {
		if set[name] == 0 {
			return false
		}
		set[name]--
	}
	return true
}
