package contacts

// Field is one custom field: a case-sensitive source property name and
// its values. Single-valued fields hold one entry.
type Field struct {
	Key    string   `json:"key" yaml:"key"`
	Values []string `json:"values" yaml:"values"`
}

// Fields is an ordered collection of custom fields. Order is
// first-seen source order, preserved for round-tripping.
type Fields []Field

// Get returns the values for a key, or nil when absent.
func (f Fields) Get(key string) []string {
	for _, field := range f {
		if field.Key == key {
			return field.Values
		}
	}
	return nil
}

// First returns the first value for a key, or empty.
func (f Fields) First(key string) string {
	if values := f.Get(key); len(values) > 0 {
		return values[0]
	}
	return ""
}

// Append adds a value under key, creating the field at the end of the
// collection if the key is new.
func (f *Fields) Append(key, value string) {
	for i := range *f {
		if (*f)[i].Key == key {
			(*f)[i].Values = append((*f)[i].Values, value)
			return
		}
	}
	*f = append(*f, Field{Key: key, Values: []string{value}})
}

// AppendMissing adds a value under key only if the exact value is not
// already present.
func (f *Fields) AppendMissing(key, value string) {
	for _, existing := range f.Get(key) {
		if existing == value {
			return
		}
	}
	f.Append(key, value)
}

// Keys returns the keys in order.
func (f Fields) Keys() []string {
	keys := make([]string, len(f))
	for i, field := range f {
		keys[i] = field.Key
	}
	return keys
}

// Len returns the number of fields.
func (f Fields) Len() int {
	return len(f)
}

// Clone returns a deep copy.
func (f Fields) Clone() Fields {
	if f == nil {
		return nil
	}
	out := make(Fields, len(f))
	for i, field := range f {
		out[i] = Field{Key: field.Key, Values: append([]string{}, field.Values...)}
	}
	return out
}
