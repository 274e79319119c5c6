// Package vcard provides low-level vCard document tokenization.
//
// This package handles line unfolding, card boundary detection, and
// property-line parsing, converting a raw card document into Card
// structures holding ordered property records (name, parameters,
// value). Both the legacy 2.1 and the current 3.0/4.0 major versions
// of the format are accepted leniently; the declared VERSION never
// gates feature availability.
//
// Example usage:
//
//	d := vcard.NewDecoder(reader, vcard.WithFilename("contacts.vcf"))
//	cards, err := d.Decode()
//	if err != nil {
//	    log.Fatal(err)
//	}
//	for _, card := range cards {
//	    for _, prop := range card.Properties {
//	        fmt.Printf("%s = %s\n", prop.Name, prop.Value)
//	    }
//	}
package vcard

import (
	"strings"
)

// Card is one tokenized vCard: an ordered sequence of properties.
type Card struct {
	// Version is the declared VERSION value ("2.1", "3.0", "4.0"),
	// empty if the card carried none. Informational only.
	Version string

	// Properties holds every property line in source order, with
	// vendor item-group labels already resolved into parameters.
	Properties []Property
}

// First returns the first property with the given name, or nil.
func (c *Card) First(name string) *Property {
	for i := range c.Properties {
		if c.Properties[i].Name == name {
			return &c.Properties[i]
		}
	}
	return nil
}

// All returns every property with the given name in source order.
func (c *Card) All(name string) []Property {
	var props []Property
	for _, p := range c.Properties {
		if p.Name == name {
			props = append(props, p)
		}
	}
	return props
}

// Property is one tokenized property line.
type Property struct {
	// Group is the vendor item-group prefix (e.g. "item1") with the
	// dot stripped, or empty when the property is ungrouped.
	Group string

	// Name is the property name, upper-cased.
	Name string

	// Params holds the property parameters. KEY=VALUE parameters keep
	// their value; bare flag tokens are stored with an empty value.
	Params Params

	// Value is the raw property value with transfer encoding already
	// decoded. Text escaping (\n \, \; \\) is preserved; use Unescape
	// or SplitStructured when consuming it.
	Value string
}

// Types returns the property's type tokens, upper-cased: every value
// of the TYPE parameter plus every bare flag token. vCard 2.1 writes
// types as bare flags (TEL;HOME;CELL:...), 3.0+ as TYPE=HOME,CELL.
func (p *Property) Types() []string {
	var types []string
	for _, v := range p.Params.Values("TYPE") {
		types = append(types, strings.ToUpper(v))
	}
	for key, value := range p.Params {
		if value == "" && key != "TYPE" {
			types = append(types, key)
		}
	}
	return types
}

// HasType reports whether the property carries the given type token.
func (p *Property) HasType(token string) bool {
	token = strings.ToUpper(token)
	for _, t := range p.Types() {
		if t == token {
			return true
		}
	}
	return false
}

// Preferred reports whether the property is flagged as preferred,
// via a bare PREF flag, TYPE=PREF, or vCard 4.0 PREF=1.
func (p *Property) Preferred() bool {
	if p.HasType("PREF") {
		return true
	}
	return p.Params.Get("PREF") != ""
}

// Params maps parameter names (upper-cased) to their values.
// Repeated parameters accumulate comma-separated.
type Params map[string]string

// Add records a parameter value. Repeated keys accumulate.
func (p Params) Add(key, value string) {
	key = strings.ToUpper(key)
	if existing, ok := p[key]; ok && existing != "" && value != "" {
		p[key] = existing + "," + value
		return
	}
	if existing, ok := p[key]; !ok || existing == "" {
		p[key] = value
	}
}

// Get returns the raw (possibly comma-joined) value for a key.
func (p Params) Get(key string) string {
	return p[strings.ToUpper(key)]
}

// Has reports whether the parameter is present, as a flag or with a value.
func (p Params) Has(key string) bool {
	_, ok := p[strings.ToUpper(key)]
	return ok
}

// Values returns the individual values for a key, splitting on commas.
func (p Params) Values(key string) []string {
	raw := p.Get(key)
	if raw == "" {
		return nil
	}
	parts := strings.Split(raw, ",")
	values := make([]string, 0, len(parts))
	for _, part := range parts {
		if part = strings.TrimSpace(part); part != "" {
			values = append(values, part)
		}
	}
	return values
}

// Unescape decodes vCard text escaping: \n and \N to newline,
// \, \; and \\ to the literal character.
func Unescape(s string) string {
	if !strings.ContainsRune(s, '\\') {
		return s
	}
	var b strings.Builder
	b.Grow(len(s))
	for i := 0; i < len(s); i++ {
		if s[i] != '\\' || i+1 == len(s) {
			b.WriteByte(s[i])
			continue
		}
		i++
		switch s[i] {
		case 'n', 'N':
			b.WriteByte('\n')
		default:
			b.WriteByte(s[i])
		}
	}
	return b.String()
}

// SplitStructured splits a compound value on unescaped semicolons and
// unescapes each component. Used for N, ADR, and ORG values.
func SplitStructured(s string) []string {
	var parts []string
	var b strings.Builder
	for i := 0; i < len(s); i++ {
		switch {
		case s[i] == '\\' && i+1 < len(s):
			b.WriteByte(s[i])
			i++
			b.WriteByte(s[i])
		case s[i] == ';':
			parts = append(parts, Unescape(b.String()))
			b.Reset()
		default:
			b.WriteByte(s[i])
		}
	}
	parts = append(parts, Unescape(b.String()))
	return parts
}
