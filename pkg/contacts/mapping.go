package contacts

import (
	"strconv"
	"strings"

	"github.com/cardsync/cardsync/pkg/errors"
)

// ColumnMapping associates one source column with one canonical field
// path. Column is a header name, or a 1-based position when the value
// parses as an integer.
type ColumnMapping struct {
	Column string `json:"column" yaml:"column"`
	Field  string `json:"field" yaml:"field"`
}

// FieldMapping is the externally supplied column-to-field table that
// drives delimited-file import. This package consumes the table; it
// never computes one.
//
// Supported field paths:
//
//	displayName, namePrefix, givenName, middleName, surname, nameSuffix
//	emailAddresses[N].address  (N is a 0-based order index)
//	businessPhones, homePhones, mobilePhone, faxNumbers
//	organization.company, organization.department, organization.jobTitle
//	addresses.{business|home|other}.{street|city|state|postalCode|country}
//	birthday, anniversary, websites, categories, notes
//	custom.<Key>
type FieldMapping struct {
	Columns []ColumnMapping `json:"columns" yaml:"columns"`
}

// FromRow builds a canonical Record from one delimited row using the
// supplied mapping table. Semantics match the card builder: blank
// emails are dropped, dates accept the same two formats, the
// display-name fallback chain is identical, and a row that maps to
// nothing usable fails validation.
func FromRow(header []string, row []string, mapping *FieldMapping) (*Record, []string, error) {
	rec := New()

	// Emails keyed by their mapped order index; appended in index
	// order afterward so source order survives sparse mappings.
	emails := map[int]string{}
	maxEmail := -1

	for _, cm := range mapping.Columns {
		value, ok := columnValue(header, row, cm.Column)
		if !ok {
			continue
		}
		value = strings.TrimSpace(value)
		if value == "" {
			continue
		}
		if idx, isEmail := emailIndex(cm.Field); isEmail {
			emails[idx] = value
			if idx > maxEmail {
				maxEmail = idx
			}
			continue
		}
		if err := applyField(rec, cm.Field, value); err != nil {
			return nil, nil, err
		}
	}

	for i := 0; i <= maxEmail; i++ {
		if addr, ok := emails[i]; ok {
			rec.AddEmail(addr, EmailOther, false)
		}
	}

	if rec.isEmpty() {
		return nil, nil, errors.NewValidationError("displayName", "", "no usable display name and no fallback source")
	}
	rec.deriveDisplayName()

	return rec, validationWarnings(rec), nil
}

// columnValue resolves a column reference against the header, by name
// first, then as a 1-based position.
func columnValue(header []string, row []string, column string) (string, bool) {
	for i, name := range header {
		if strings.EqualFold(strings.TrimSpace(name), column) {
			if i < len(row) {
				return row[i], true
			}
			return "", false
		}
	}
	if pos, err := strconv.Atoi(column); err == nil && pos >= 1 && pos <= len(row) {
		return row[pos-1], true
	}
	return "", false
}

// emailIndex parses an emailAddresses[N].address field path.
func emailIndex(field string) (int, bool) {
	rest, found := strings.CutPrefix(field, "emailAddresses[")
	if !found {
		return 0, false
	}
	idxStr, rest, found := strings.Cut(rest, "]")
	if !found || rest != ".address" {
		return 0, false
	}
	idx, err := strconv.Atoi(idxStr)
	if err != nil || idx < 0 {
		return 0, false
	}
	return idx, true
}

// applyField sets one canonical field from a mapped column value.
func applyField(rec *Record, field, value string) error {
	if key, found := strings.CutPrefix(field, "custom."); found {
		rec.Custom.Append(key, value)
		return nil
	}
	if rest, found := strings.CutPrefix(field, "addresses."); found {
		return applyAddressField(rec, rest, value)
	}

	switch field {
	case "displayName":
		rec.DisplayName = value
	case "namePrefix":
		rec.NamePrefix = value
	case "givenName":
		rec.GivenName = value
	case "middleName":
		rec.MiddleName = value
	case "surname":
		rec.Surname = value
	case "nameSuffix":
		rec.NameSuffix = value
	case "businessPhones":
		rec.BusinessPhones = append(rec.BusinessPhones, value)
	case "homePhones":
		rec.HomePhones = append(rec.HomePhones, value)
	case "mobilePhone":
		addMobile(rec, value)
	case "faxNumbers":
		rec.FaxNumbers = append(rec.FaxNumbers, value)
	case "organization.company":
		rec.Organization.Company = value
	case "organization.department":
		rec.Organization.Department = value
	case "organization.jobTitle":
		rec.Organization.JobTitle = value
	case "birthday":
		rec.Birthday = parseDate(value)
	case "anniversary":
		rec.Anniversary = parseDate(value)
	case "websites":
		rec.Websites = append(rec.Websites, value)
	case "categories":
		rec.Categories = append(rec.Categories, value)
	case "notes":
		if rec.Notes != "" {
			rec.Notes += "\n"
		}
		rec.Notes += value
	default:
		return errors.NewConfigError("mapping", "unknown field path "+field, nil)
	}
	return nil
}

// applyAddressField sets one address component, e.g. "home.city".
func applyAddressField(rec *Record, path, value string) error {
	block, component, found := strings.Cut(path, ".")
	if !found {
		return errors.NewConfigError("mapping", "invalid address field path addresses."+path, nil)
	}

	var target *Address
	switch block {
	case "business":
		target = &rec.BusinessAddress
	case "home":
		target = &rec.HomeAddress
	case "other":
		target = &rec.OtherAddress
	default:
		return errors.NewConfigError("mapping", "unknown address block "+block, nil)
	}

	switch component {
	case "street":
		target.Street = value
	case "city":
		target.City = value
	case "state":
		target.State = value
	case "postalCode":
		target.PostalCode = value
	case "country":
		target.Country = value
	default:
		return errors.NewConfigError("mapping", "unknown address component "+component, nil)
	}
	return nil
}
