package remote

import (
	"encoding/json"
	"time"

	"github.com/cardsync/cardsync/pkg/contacts"
	"github.com/cardsync/cardsync/pkg/directory"
)

// page is the directory service's pagination envelope. The client
// follows NextPageToken until it comes back empty.
type page[T any] struct {
	Value         []T    `json:"value"`
	NextPageToken string `json:"nextPageToken,omitempty"`
}

// wireEmail is one email entry on the wire.
type wireEmail struct {
	Address   string `json:"address"`
	Kind      string `json:"kind,omitempty"`
	Preferred bool   `json:"preferred,omitempty"`
}

// wireAddress is one postal address block on the wire.
type wireAddress struct {
	Street     string `json:"street,omitempty"`
	City       string `json:"city,omitempty"`
	State      string `json:"state,omitempty"`
	PostalCode string `json:"postalCode,omitempty"`
	Country    string `json:"countryOrRegion,omitempty"`
}

// wireContact is a contact as the directory service serves it.
// Multi-valued fields are declared as raw JSON: the service returns
// them as a single object (or bare string) when there is one value and
// as a list otherwise, so each is normalized at decode time.
type wireContact struct {
	ID             string          `json:"id,omitempty"`
	DisplayName    string          `json:"displayName,omitempty"`
	Title          string          `json:"title,omitempty"`
	GivenName      string          `json:"givenName,omitempty"`
	MiddleName     string          `json:"middleName,omitempty"`
	Surname        string          `json:"surname,omitempty"`
	Generation     string          `json:"generation,omitempty"`
	EmailAddresses json.RawMessage `json:"emailAddresses,omitempty"`
	BusinessPhones json.RawMessage `json:"businessPhones,omitempty"`
	HomePhones     json.RawMessage `json:"homePhones,omitempty"`
	MobilePhone    string          `json:"mobilePhone,omitempty"`
	FaxNumbers     json.RawMessage `json:"faxNumbers,omitempty"`
	CompanyName    string          `json:"companyName,omitempty"`
	Department     string          `json:"department,omitempty"`
	JobTitle       string          `json:"jobTitle,omitempty"`

	BusinessAddress *wireAddress `json:"businessAddress,omitempty"`
	HomeAddress     *wireAddress `json:"homeAddress,omitempty"`
	OtherAddress    *wireAddress `json:"otherAddress,omitempty"`

	Birthday    string `json:"birthday,omitempty"`
	Anniversary string `json:"anniversary,omitempty"`

	Websites      json.RawMessage `json:"websites,omitempty"`
	Categories    json.RawMessage `json:"categories,omitempty"`
	PersonalNotes string          `json:"personalNotes,omitempty"`
}

const wireDateFormat = "2006-01-02"

// toRecord converts a wire contact to the canonical record, attaching
// provenance from the location it was listed in.
func (w *wireContact) toRecord(loc directory.Location) (*contacts.Record, error) {
	rec := contacts.New()
	rec.DisplayName = w.DisplayName
	rec.NamePrefix = w.Title
	rec.GivenName = w.GivenName
	rec.MiddleName = w.MiddleName
	rec.Surname = w.Surname
	rec.NameSuffix = w.Generation
	rec.MobilePhone = w.MobilePhone
	rec.Organization = contacts.Organization{
		Company:    w.CompanyName,
		Department: w.Department,
		JobTitle:   w.JobTitle,
	}
	rec.Notes = w.PersonalNotes

	emails, err := directory.DecodeList[wireEmail](w.EmailAddresses)
	if err != nil {
		return nil, err
	}
	for _, e := range emails {
		rec.AddEmail(e.Address, emailKind(e.Kind), e.Preferred)
	}

	if rec.BusinessPhones, err = stringList(w.BusinessPhones); err != nil {
		return nil, err
	}
	if rec.HomePhones, err = stringList(w.HomePhones); err != nil {
		return nil, err
	}
	if rec.FaxNumbers, err = stringList(w.FaxNumbers); err != nil {
		return nil, err
	}
	if rec.Websites, err = stringList(w.Websites); err != nil {
		return nil, err
	}
	if rec.Categories, err = stringList(w.Categories); err != nil {
		return nil, err
	}

	if w.BusinessAddress != nil {
		rec.BusinessAddress = w.BusinessAddress.toAddress()
	}
	if w.HomeAddress != nil {
		rec.HomeAddress = w.HomeAddress.toAddress()
	}
	if w.OtherAddress != nil {
		rec.OtherAddress = w.OtherAddress.toAddress()
	}

	rec.Birthday = parseWireDate(w.Birthday)
	rec.Anniversary = parseWireDate(w.Anniversary)

	if rec.DisplayName == "" {
		rec.DisplayName = contacts.UnknownContactName
	}
	rec.Provenance = &contacts.Provenance{
		LocationID:   loc.ID,
		LocationName: loc.DisplayName,
		ExternalID:   w.ID,
	}
	return rec, nil
}

// fromRecord converts a canonical record to its wire form for create
// requests. Multi-valued fields are always sent as lists; the
// object-vs-list ambiguity exists only on reads.
func fromRecord(rec *contacts.Record) *wireContact {
	w := &wireContact{
		DisplayName:   rec.DisplayName,
		Title:         rec.NamePrefix,
		GivenName:     rec.GivenName,
		MiddleName:    rec.MiddleName,
		Surname:       rec.Surname,
		Generation:    rec.NameSuffix,
		MobilePhone:   rec.MobilePhone,
		CompanyName:   rec.Organization.Company,
		Department:    rec.Organization.Department,
		JobTitle:      rec.Organization.JobTitle,
		PersonalNotes: rec.Notes,
	}

	if len(rec.Emails) > 0 {
		emails := make([]wireEmail, 0, len(rec.Emails))
		for _, e := range rec.Emails {
			emails = append(emails, wireEmail{Address: e.Address, Kind: string(e.Kind), Preferred: e.Preferred})
		}
		w.EmailAddresses = mustMarshal(emails)
	}
	w.BusinessPhones = marshalStrings(rec.BusinessPhones)
	w.HomePhones = marshalStrings(rec.HomePhones)
	w.FaxNumbers = marshalStrings(rec.FaxNumbers)
	w.Websites = marshalStrings(rec.Websites)
	w.Categories = marshalStrings(rec.Categories)

	if !rec.BusinessAddress.IsEmpty() {
		w.BusinessAddress = fromAddress(rec.BusinessAddress)
	}
	if !rec.HomeAddress.IsEmpty() {
		w.HomeAddress = fromAddress(rec.HomeAddress)
	}
	if !rec.OtherAddress.IsEmpty() {
		w.OtherAddress = fromAddress(rec.OtherAddress)
	}

	if rec.Birthday != nil {
		w.Birthday = rec.Birthday.Format(wireDateFormat)
	}
	if rec.Anniversary != nil {
		w.Anniversary = rec.Anniversary.Format(wireDateFormat)
	}
	return w
}

func (a *wireAddress) toAddress() contacts.Address {
	return contacts.Address{
		Street:     a.Street,
		City:       a.City,
		State:      a.State,
		PostalCode: a.PostalCode,
		Country:    a.Country,
	}
}

func fromAddress(a contacts.Address) *wireAddress {
	return &wireAddress{
		Street:     a.Street,
		City:       a.City,
		State:      a.State,
		PostalCode: a.PostalCode,
		Country:    a.Country,
	}
}

func emailKind(kind string) contacts.EmailKind {
	switch kind {
	case string(contacts.EmailWork):
		return contacts.EmailWork
	case string(contacts.EmailHome):
		return contacts.EmailHome
	default:
		return contacts.EmailOther
	}
}

// stringList normalizes a raw JSON value that may be a bare string or
// a list of strings.
func stringList(raw json.RawMessage) ([]string, error) {
	items, err := directory.NormalizeList(raw)
	if err == nil {
		out := make([]string, 0, len(items))
		for _, item := range items {
			var s string
			if uerr := json.Unmarshal(item, &s); uerr != nil {
				return nil, uerr
			}
			out = append(out, s)
		}
		return out, nil
	}

	var s string
	if uerr := json.Unmarshal(raw, &s); uerr == nil {
		return []string{s}, nil
	}
	return nil, err
}

// parseWireDate tries the date formats the service serves, returning
// nil when none parse. A bad date on one contact must not fail the
// whole listing.
func parseWireDate(s string) *time.Time {
	if s == "" {
		return nil
	}
	if t, err := time.Parse(wireDateFormat, s); err == nil {
		return &t
	}
	// The service occasionally serves full timestamps.
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return &t
	}
	return nil
}

func mustMarshal(v any) json.RawMessage {
	b, err := json.Marshal(v)
	if err != nil {
		panic(err)
	}
	return b
}

func marshalStrings(values []string) json.RawMessage {
	if len(values) == 0 {
		return nil
	}
	return mustMarshal(values)
}
