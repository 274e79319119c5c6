package reconcile

import (
	"strings"

	"github.com/cardsync/cardsync/pkg/contacts"
)

// NotesSeparator joins non-blank notes from base and donors. Notes are
// never silently dropped.
const NotesSeparator = "\n\n"

// Merge combines a base record with one or more donor records into a
// fresh record:
//
//   - Scalar fields: a donor value fills the base field only if the
//     base field is empty; the first non-empty donor wins when folding
//     multiple donors in order.
//   - List fields: union of base and all donor lists, de-duplicated by
//     the list's natural key (phone string equality, email address
//     equality case-insensitive), base-first ordering preserved.
//   - Notes: concatenated when both sides are non-blank.
//   - Address blocks: a donor block is used only when the base block
//     is entirely empty; there is no component-level address merge.
//
// The result carries no provenance: it is a new record the executor
// realizes, not a view of any existing one.
func Merge(base *contacts.Record, donors ...*contacts.Record) *contacts.Record {
	merged := base.Clone()
	merged.Provenance = nil

	for _, donor := range donors {
		fillScalar(&merged.NamePrefix, donor.NamePrefix)
		fillScalar(&merged.GivenName, donor.GivenName)
		fillScalar(&merged.MiddleName, donor.MiddleName)
		fillScalar(&merged.Surname, donor.Surname)
		fillScalar(&merged.NameSuffix, donor.NameSuffix)

		fillScalar(&merged.Organization.Company, donor.Organization.Company)
		fillScalar(&merged.Organization.Department, donor.Organization.Department)
		fillScalar(&merged.Organization.JobTitle, donor.Organization.JobTitle)

		mergeMobile(merged, donor.MobilePhone)

		merged.Emails = unionEmails(merged.Emails, donor.Emails)
		merged.BusinessPhones = unionStrings(merged.BusinessPhones, donor.BusinessPhones)
		merged.HomePhones = unionStrings(merged.HomePhones, donor.HomePhones)
		merged.FaxNumbers = unionStrings(merged.FaxNumbers, donor.FaxNumbers)
		merged.Websites = unionStrings(merged.Websites, donor.Websites)
		merged.Categories = unionStrings(merged.Categories, donor.Categories)

		mergeNotes(merged, donor.Notes)

		fillAddress(&merged.BusinessAddress, donor.BusinessAddress)
		fillAddress(&merged.HomeAddress, donor.HomeAddress)
		fillAddress(&merged.OtherAddress, donor.OtherAddress)

		if merged.Birthday == nil && donor.Birthday != nil {
			b := *donor.Birthday
			merged.Birthday = &b
		}
		if merged.Anniversary == nil && donor.Anniversary != nil {
			a := *donor.Anniversary
			merged.Anniversary = &a
		}

		for _, field := range donor.Custom {
			for _, value := range field.Values {
				merged.Custom.AppendMissing(field.Key, value)
			}
		}
	}

	return merged
}

// fillScalar sets target from donor only when target is empty.
func fillScalar(target *string, donor string) {
	if *target == "" && donor != "" {
		*target = donor
	}
}

// mergeMobile fills an empty mobile slot; a different donor mobile
// joins the AdditionalMobile custom field instead of being dropped.
func mergeMobile(merged *contacts.Record, donor string) {
	if donor == "" {
		return
	}
	if merged.MobilePhone == "" {
		merged.MobilePhone = donor
		return
	}
	if merged.MobilePhone != donor {
		merged.Custom.AppendMissing(contacts.AdditionalMobileField, donor)
	}
}

// mergeNotes concatenates non-blank notes with the separator.
func mergeNotes(merged *contacts.Record, donor string) {
	donor = strings.TrimSpace(donor)
	if donor == "" {
		return
	}
	if strings.TrimSpace(merged.Notes) == "" {
		merged.Notes = donor
		return
	}
	if merged.Notes == donor {
		return
	}
	merged.Notes = merged.Notes + NotesSeparator + donor
}

// fillAddress copies the donor block only when the base block is
// entirely empty.
func fillAddress(target *contacts.Address, donor contacts.Address) {
	if target.IsEmpty() && !donor.IsEmpty() {
		*target = donor
	}
}

// unionStrings unions two lists de-duplicated by string equality,
// preserving base-first ordering.
func unionStrings(base, donor []string) []string {
	seen := make(map[string]bool, len(base))
	for _, v := range base {
		seen[v] = true
	}
	out := base
	for _, v := range donor {
		if !seen[v] {
			seen[v] = true
			out = append(out, v)
		}
	}
	return out
}

// unionEmails unions email lists de-duplicated by address,
// case-insensitively, preserving base-first ordering.
func unionEmails(base, donor []contacts.EmailAddress) []contacts.EmailAddress {
	seen := make(map[string]bool, len(base))
	for _, e := range base {
		seen[strings.ToLower(e.Address)] = true
	}
	out := base
	for _, e := range donor {
		key := strings.ToLower(e.Address)
		if !seen[key] {
			seen[key] = true
			out = append(out, e)
		}
	}
	return out
}
