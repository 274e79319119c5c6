package contacts_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cardsync/cardsync/pkg/contacts"
	"github.com/cardsync/cardsync/pkg/errors"
)

func TestFromRowByHeaderName(t *testing.T) {
	mapping := &contacts.FieldMapping{Columns: []contacts.ColumnMapping{
		{Column: "First Name", Field: "givenName"},
		{Column: "Last Name", Field: "surname"},
		{Column: "E-mail", Field: "emailAddresses[0].address"},
		{Column: "Company", Field: "organization.company"},
		{Column: "Job Title", Field: "organization.jobTitle"},
		{Column: "Mobile", Field: "mobilePhone"},
		{Column: "Home City", Field: "addresses.home.city"},
		{Column: "Born", Field: "birthday"},
	}}

	header := []string{"First Name", "Last Name", "E-mail", "Company", "Job Title", "Mobile", "Home City", "Born"}
	row := []string{"Jane", "Doe", "jane@example.com", "Acme", "Analyst", "0151 99", "Springfield", "1985-04-12"}

	rec, warnings, err := contacts.FromRow(header, row, mapping)
	require.NoError(t, err)
	assert.Empty(t, warnings)

	assert.Equal(t, "Jane Doe", rec.DisplayName)
	assert.Equal(t, "jane@example.com", rec.FirstEmail())
	assert.Equal(t, "Acme", rec.Organization.Company)
	assert.Equal(t, "Analyst", rec.Organization.JobTitle)
	assert.Equal(t, "0151 99", rec.MobilePhone)
	assert.Equal(t, "Springfield", rec.HomeAddress.City)
	require.NotNil(t, rec.Birthday)
}

func TestFromRowByPosition(t *testing.T) {
	mapping := &contacts.FieldMapping{Columns: []contacts.ColumnMapping{
		{Column: "1", Field: "displayName"},
		{Column: "2", Field: "emailAddresses[0].address"},
	}}

	rec, _, err := contacts.FromRow([]string{"col_a", "col_b"}, []string{"Jane Doe", "jane@example.com"}, mapping)
	require.NoError(t, err)
	assert.Equal(t, "Jane Doe", rec.DisplayName)
	assert.Equal(t, "jane@example.com", rec.FirstEmail())
}

func TestFromRowEmailOrderSurvivesSparseMapping(t *testing.T) {
	mapping := &contacts.FieldMapping{Columns: []contacts.ColumnMapping{
		{Column: "second", Field: "emailAddresses[1].address"},
		{Column: "first", Field: "emailAddresses[0].address"},
		{Column: "name", Field: "displayName"},
	}}

	header := []string{"name", "first", "second"}
	row := []string{"J", "primary@x.example", "secondary@x.example"}

	rec, _, err := contacts.FromRow(header, row, mapping)
	require.NoError(t, err)
	require.Len(t, rec.Emails, 2)
	assert.Equal(t, "primary@x.example", rec.FirstEmail())
}

func TestFromRowBlankEmailDropped(t *testing.T) {
	mapping := &contacts.FieldMapping{Columns: []contacts.ColumnMapping{
		{Column: "name", Field: "displayName"},
		{Column: "mail", Field: "emailAddresses[0].address"},
	}}

	rec, _, err := contacts.FromRow([]string{"name", "mail"}, []string{"J", "   "}, mapping)
	require.NoError(t, err)
	assert.Empty(t, rec.Emails)
}

func TestFromRowEmptyRowFailsValidation(t *testing.T) {
	mapping := &contacts.FieldMapping{Columns: []contacts.ColumnMapping{
		{Column: "name", Field: "displayName"},
	}}

	_, _, err := contacts.FromRow([]string{"name"}, []string{""}, mapping)
	require.Error(t, err)
	assert.True(t, errors.IsValidationError(err))
}

func TestFromRowUnknownFieldPath(t *testing.T) {
	mapping := &contacts.FieldMapping{Columns: []contacts.ColumnMapping{
		{Column: "name", Field: "displayNombre"},
	}}

	_, _, err := contacts.FromRow([]string{"name"}, []string{"J"}, mapping)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown field path")
}

func TestFromRowCustomField(t *testing.T) {
	mapping := &contacts.FieldMapping{Columns: []contacts.ColumnMapping{
		{Column: "name", Field: "displayName"},
		{Column: "spouse", Field: "custom.Spouse"},
	}}

	rec, _, err := contacts.FromRow([]string{"name", "spouse"}, []string{"J", "Pat"}, mapping)
	require.NoError(t, err)
	assert.Equal(t, "Pat", rec.Custom.First("Spouse"))
}
