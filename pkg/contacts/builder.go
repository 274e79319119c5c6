package contacts

import (
	"regexp"
	"strings"
	"time"

	"github.com/cardsync/cardsync/pkg/errors"
	"github.com/cardsync/cardsync/pkg/vcard"
)

// Date formats accepted for BDAY and ANNIVERSARY values. Values that
// parse as neither are left unset; an unparseable date is not an error.
var dateFormats = []string{"2006-01-02", "20060102"}

// extensionPrefix marks vendor extension properties. The prefix is
// stripped when storing them as custom fields.
const extensionPrefix = "X-"

// mobileShape matches the digit shape of a typical mobile number:
// national prefixes 01x (x in 5..7) and 07, with or without the
// leading zero. Used only when a phone carries no type and no resolved
// vendor label.
var mobileShape = regexp.MustCompile(`^(0?1[5-7]|07)\d+`)

// FromCard builds a canonical Record from one tokenized card.
//
// The returned warnings are non-blocking validation notes (missing
// phone or email). The returned error is a ValidationError when the
// card maps to nothing usable at all; such a record is excluded from
// the batch.
func FromCard(card *vcard.Card) (*Record, []string, error) {
	rec := New()
	var notes []string

	for i := range card.Properties {
		prop := &card.Properties[i]
		switch prop.Name {
		case "FN":
			if rec.DisplayName == "" {
				rec.DisplayName = strings.TrimSpace(vcard.Unescape(prop.Value))
			}

		case "N":
			applyStructuredName(rec, prop.Value)

		case "EMAIL":
			rec.AddEmail(vcard.Unescape(prop.Value), emailKind(prop), prop.Preferred())

		case "TEL":
			applyPhone(rec, prop)

		case "ORG":
			parts := vcard.SplitStructured(prop.Value)
			if len(parts) > 0 && rec.Organization.Company == "" {
				rec.Organization.Company = strings.TrimSpace(parts[0])
			}
			if len(parts) > 1 && rec.Organization.Department == "" {
				rec.Organization.Department = strings.TrimSpace(parts[1])
			}

		case "TITLE":
			if rec.Organization.JobTitle == "" {
				rec.Organization.JobTitle = strings.TrimSpace(vcard.Unescape(prop.Value))
			}

		case "NOTE":
			if note := strings.TrimSpace(vcard.Unescape(prop.Value)); note != "" {
				notes = append(notes, note)
			}

		case "URL":
			if url := strings.TrimSpace(prop.Value); url != "" {
				rec.Websites = append(rec.Websites, url)
			}

		case "CATEGORIES":
			for _, cat := range strings.Split(vcard.Unescape(prop.Value), ",") {
				if cat = strings.TrimSpace(cat); cat != "" {
					rec.Categories = append(rec.Categories, cat)
				}
			}

		case "BDAY":
			rec.Birthday = parseDate(prop.Value)

		case "ANNIVERSARY", "X-ANNIVERSARY":
			rec.Anniversary = parseDate(prop.Value)

		case "ADR":
			applyAddress(rec, prop)

		default:
			key := prop.Name
			if strings.HasPrefix(key, extensionPrefix) {
				key = strings.TrimPrefix(key, extensionPrefix)
			}
			rec.Custom.Append(key, vcard.Unescape(prop.Value))
		}
	}

	rec.Notes = strings.Join(notes, "\n")

	if rec.isEmpty() {
		return nil, nil, errors.NewValidationError("displayName", "", "no usable display name and no fallback source")
	}
	rec.deriveDisplayName()

	return rec, validationWarnings(rec), nil
}

// validationWarnings reports non-blocking completeness issues.
func validationWarnings(rec *Record) []string {
	var warnings []string
	if len(rec.Emails) == 0 {
		warnings = append(warnings, rec.DisplayName+": no email address; duplicate matching is not possible for this record")
	}
	if len(rec.BusinessPhones) == 0 && len(rec.HomePhones) == 0 && rec.MobilePhone == "" {
		warnings = append(warnings, rec.DisplayName+": no phone number")
	}
	return warnings
}

// applyStructuredName maps the five N components: surname, given,
// middle, prefix, suffix. Missing trailing components are left empty.
func applyStructuredName(rec *Record, value string) {
	parts := vcard.SplitStructured(value)
	fields := []*string{&rec.Surname, &rec.GivenName, &rec.MiddleName, &rec.NamePrefix, &rec.NameSuffix}
	for i, target := range fields {
		if i < len(parts) && *target == "" {
			*target = strings.TrimSpace(parts[i])
		}
	}
}

// emailKind maps the TYPE parameter to an email kind, defaulting to
// Other.
func emailKind(prop *vcard.Property) EmailKind {
	switch {
	case prop.HasType("WORK"), prop.HasType("BUSINESS"):
		return EmailWork
	case prop.HasType("HOME"), prop.HasType("PERSONAL"):
		return EmailHome
	default:
		return EmailOther
	}
}

// applyPhone categorizes a TEL property by its TYPE tokens. The first
// mobile number wins MobilePhone; later ones accumulate under the
// AdditionalMobile custom field. A phone with no type and no resolved
// vendor label defaults to business unless its raw value matches the
// mobile number shape.
func applyPhone(rec *Record, prop *vcard.Property) {
	number := strings.TrimSpace(vcard.Unescape(prop.Value))
	if number == "" {
		return
	}

	switch {
	case prop.HasType("FAX"):
		rec.FaxNumbers = append(rec.FaxNumbers, number)
	case prop.HasType("CELL"), prop.HasType("MOBILE"):
		addMobile(rec, number)
	case prop.HasType("WORK"), prop.HasType("BUSINESS"):
		rec.BusinessPhones = append(rec.BusinessPhones, number)
	case prop.HasType("HOME"), prop.HasType("PERSONAL"):
		rec.HomePhones = append(rec.HomePhones, number)
	case looksMobile(number):
		addMobile(rec, number)
	default:
		rec.BusinessPhones = append(rec.BusinessPhones, number)
	}
}

// AdditionalMobileField is the custom field collecting mobile numbers
// beyond the first.
const AdditionalMobileField = "AdditionalMobile"

func addMobile(rec *Record, number string) {
	if rec.MobilePhone == "" {
		rec.MobilePhone = number
		return
	}
	if rec.MobilePhone != number {
		rec.Custom.AppendMissing(AdditionalMobileField, number)
	}
}

// looksMobile applies the mobile number shape heuristic to the digits
// of a raw phone value. For international numbers the country code
// (assumed two digits after the +) is skipped and the national part
// re-tested.
func looksMobile(raw string) bool {
	var digits strings.Builder
	for _, r := range raw {
		if r >= '0' && r <= '9' {
			digits.WriteRune(r)
		}
	}
	d := digits.String()
	if mobileShape.MatchString(d) {
		return true
	}
	if strings.HasPrefix(strings.TrimSpace(raw), "+") && len(d) > 2 {
		return mobileShape.MatchString(d[2:])
	}
	return false
}

// applyAddress maps a 7-component ADR value. Components 3-7 are
// street, city, state, postal code, country; the first matching block
// wins, later ADRs of the same type are ignored.
func applyAddress(rec *Record, prop *vcard.Property) {
	parts := vcard.SplitStructured(prop.Value)
	at := func(i int) string {
		if i < len(parts) {
			return strings.TrimSpace(parts[i])
		}
		return ""
	}
	addr := Address{
		Street:     at(2),
		City:       at(3),
		State:      at(4),
		PostalCode: at(5),
		Country:    at(6),
	}
	if addr.IsEmpty() {
		return
	}

	var target *Address
	switch {
	case prop.HasType("WORK"), prop.HasType("BUSINESS"):
		target = &rec.BusinessAddress
	case prop.HasType("HOME"), prop.HasType("PERSONAL"):
		target = &rec.HomeAddress
	default:
		target = &rec.OtherAddress
	}
	if target.IsEmpty() {
		*target = addr
	}
}

// parseDate tries the accepted date formats, returning nil when none
// parse.
func parseDate(value string) *time.Time {
	value = strings.TrimSpace(value)
	for _, format := range dateFormats {
		if t, err := time.Parse(format, value); err == nil {
			return &t
		}
	}
	return nil
}
