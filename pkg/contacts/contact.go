// Package contacts defines the canonical contact record and the
// builders that produce it from tokenized vCards and mapped delimited
// rows. Every parser in the system converges on the Record type; the
// reconciliation core never sees a source-specific representation.
package contacts

import (
	"strings"
	"time"
)

// EmailKind categorizes an email address.
type EmailKind string

// Email kinds.
const (
	EmailWork  EmailKind = "work"
	EmailHome  EmailKind = "home"
	EmailOther EmailKind = "other"
)

// String returns the string representation of an EmailKind.
func (k EmailKind) String() string {
	return string(k)
}

// EmailAddress is one email entry. Order within a record is preserved
// from the source; only the first entry participates in default
// matching.
type EmailAddress struct {
	Address   string    `json:"address" yaml:"address"`
	Kind      EmailKind `json:"kind" yaml:"kind"`
	Preferred bool      `json:"preferred,omitempty" yaml:"preferred,omitempty"`
}

// Organization holds employer details.
type Organization struct {
	Company    string `json:"company,omitempty" yaml:"company,omitempty"`
	Department string `json:"department,omitempty" yaml:"department,omitempty"`
	JobTitle   string `json:"job_title,omitempty" yaml:"job_title,omitempty"`
}

// IsEmpty reports whether every component is blank.
func (o Organization) IsEmpty() bool {
	return o.Company == "" && o.Department == "" && o.JobTitle == ""
}

// Address is one postal address block.
type Address struct {
	Street     string `json:"street,omitempty" yaml:"street,omitempty"`
	City       string `json:"city,omitempty" yaml:"city,omitempty"`
	State      string `json:"state,omitempty" yaml:"state,omitempty"`
	PostalCode string `json:"postal_code,omitempty" yaml:"postal_code,omitempty"`
	Country    string `json:"country,omitempty" yaml:"country,omitempty"`
}

// IsEmpty reports whether every component is blank. Merge logic treats
// address blocks as all-or-nothing; there is no component-level merge.
func (a Address) IsEmpty() bool {
	return a.Street == "" && a.City == "" && a.State == "" && a.PostalCode == "" && a.Country == ""
}

// Provenance records where an existing record was read from. It is set
// only for records fetched from the directory service; freshly parsed
// incoming records carry none.
type Provenance struct {
	LocationID   string `json:"location_id" yaml:"location_id"`
	LocationName string `json:"location_name,omitempty" yaml:"location_name,omitempty"`
	ExternalID   string `json:"external_id" yaml:"external_id"`
}

// Record is the canonical contact record. Instances are created once
// per parse or per directory read and only read afterward; merged
// records are synthesized fresh by the planner, never mutated in place.
type Record struct {
	// DisplayName is never empty after construction; builders derive
	// it when the source carries no explicit name.
	DisplayName string `json:"display_name" yaml:"display_name"`

	NamePrefix string `json:"name_prefix,omitempty" yaml:"name_prefix,omitempty"`
	GivenName  string `json:"given_name,omitempty" yaml:"given_name,omitempty"`
	MiddleName string `json:"middle_name,omitempty" yaml:"middle_name,omitempty"`
	Surname    string `json:"surname,omitempty" yaml:"surname,omitempty"`
	NameSuffix string `json:"name_suffix,omitempty" yaml:"name_suffix,omitempty"`

	// Emails preserves source order. Addresses are trimmed; blank
	// entries are dropped during construction, never retained.
	Emails []EmailAddress `json:"emails" yaml:"emails"`

	BusinessPhones []string `json:"business_phones" yaml:"business_phones"`
	HomePhones     []string `json:"home_phones" yaml:"home_phones"`
	MobilePhone    string   `json:"mobile_phone,omitempty" yaml:"mobile_phone,omitempty"`
	FaxNumbers     []string `json:"fax_numbers" yaml:"fax_numbers"`

	Organization Organization `json:"organization" yaml:"organization"`

	BusinessAddress Address `json:"business_address" yaml:"business_address"`
	HomeAddress     Address `json:"home_address" yaml:"home_address"`
	OtherAddress    Address `json:"other_address" yaml:"other_address"`

	Birthday    *time.Time `json:"birthday,omitempty" yaml:"birthday,omitempty"`
	Anniversary *time.Time `json:"anniversary,omitempty" yaml:"anniversary,omitempty"`

	Websites   []string `json:"websites" yaml:"websites"`
	Categories []string `json:"categories" yaml:"categories"`
	Notes      string   `json:"notes,omitempty" yaml:"notes,omitempty"`

	// Custom preserves source properties not mapped to a named field.
	// Keys are case-sensitive source property names, in first-seen order.
	Custom Fields `json:"custom,omitempty" yaml:"custom,omitempty"`

	// Provenance is nil for incoming records.
	Provenance *Provenance `json:"provenance,omitempty" yaml:"provenance,omitempty"`
}

// New returns an empty Record with every list field initialized.
// Collections default to empty, never nil, to keep merge logic
// branch-free.
func New() *Record {
	return &Record{
		Emails:         []EmailAddress{},
		BusinessPhones: []string{},
		HomePhones:     []string{},
		FaxNumbers:     []string{},
		Websites:       []string{},
		Categories:     []string{},
	}
}

// FirstEmail returns the first email address, or empty when the record
// has none. This is the value default matching keys on.
func (r *Record) FirstEmail() string {
	if len(r.Emails) == 0 {
		return ""
	}
	return r.Emails[0].Address
}

// AddEmail appends an email entry, trimming the address and dropping
// it when blank.
func (r *Record) AddEmail(address string, kind EmailKind, preferred bool) {
	address = strings.TrimSpace(address)
	if address == "" {
		return
	}
	r.Emails = append(r.Emails, EmailAddress{Address: address, Kind: kind, Preferred: preferred})
}

// Clone returns a deep copy of the record.
func (r *Record) Clone() *Record {
	out := *r
	out.Emails = append([]EmailAddress{}, r.Emails...)
	out.BusinessPhones = append([]string{}, r.BusinessPhones...)
	out.HomePhones = append([]string{}, r.HomePhones...)
	out.FaxNumbers = append([]string{}, r.FaxNumbers...)
	out.Websites = append([]string{}, r.Websites...)
	out.Categories = append([]string{}, r.Categories...)
	out.Custom = r.Custom.Clone()
	if r.Birthday != nil {
		b := *r.Birthday
		out.Birthday = &b
	}
	if r.Anniversary != nil {
		a := *r.Anniversary
		out.Anniversary = &a
	}
	if r.Provenance != nil {
		p := *r.Provenance
		out.Provenance = &p
	}
	return &out
}

// structuredName joins the non-empty structured name components in
// display order.
func (r *Record) structuredName() string {
	parts := make([]string, 0, 5)
	for _, p := range []string{r.NamePrefix, r.GivenName, r.MiddleName, r.Surname, r.NameSuffix} {
		if p != "" {
			parts = append(parts, p)
		}
	}
	return strings.Join(parts, " ")
}

// UnknownContactName is the display-name placeholder of last resort.
const UnknownContactName = "Unknown Contact"

// deriveDisplayName applies the fallback chain when no explicit
// full-name exists: structured name, then company, then first email,
// then the literal placeholder. The order is a deliberate contract.
func (r *Record) deriveDisplayName() {
	if r.DisplayName != "" {
		return
	}
	if name := r.structuredName(); name != "" {
		r.DisplayName = name
		return
	}
	if r.Organization.Company != "" {
		r.DisplayName = r.Organization.Company
		return
	}
	if email := r.FirstEmail(); email != "" {
		r.DisplayName = email
		return
	}
	r.DisplayName = UnknownContactName
}

// isEmpty reports whether nothing at all was mapped into the record.
// Such records fail validation: there is no usable display name and no
// fallback source.
func (r *Record) isEmpty() bool {
	return r.DisplayName == "" &&
		r.structuredName() == "" &&
		r.Organization.IsEmpty() &&
		len(r.Emails) == 0 &&
		len(r.BusinessPhones) == 0 &&
		len(r.HomePhones) == 0 &&
		r.MobilePhone == "" &&
		len(r.FaxNumbers) == 0 &&
		r.Notes == "" &&
		r.Custom.Len() == 0
}
