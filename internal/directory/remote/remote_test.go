package remote

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cardsync/cardsync/pkg/contacts"
	"github.com/cardsync/cardsync/pkg/errors"
)

func newTestClient(t *testing.T, handler http.Handler) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	c, err := NewClient(srv.URL, WithToken("secret"))
	require.NoError(t, err)
	return c
}

func writeJSON(t *testing.T, w http.ResponseWriter, v any) {
	t.Helper()
	w.Header().Set("Content-Type", "application/json")
	require.NoError(t, json.NewEncoder(w).Encode(v))
}

func TestListRecordsFollowsPagination(t *testing.T) {
	handler := http.NewServeMux()
	handler.HandleFunc("GET /locations", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(t, w, map[string]any{
			"value": []map[string]string{{"id": "loc1", "displayName": "Clients"}},
		})
	})
	handler.HandleFunc("GET /locations/loc1/contacts", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer secret", r.Header.Get("Authorization"))
		switch r.URL.Query().Get("pageToken") {
		case "":
			writeJSON(t, w, map[string]any{
				"value":         []map[string]any{{"id": "c1", "displayName": "Jane"}},
				"nextPageToken": "page2",
			})
		case "page2":
			writeJSON(t, w, map[string]any{
				"value": []map[string]any{{"id": "c2", "displayName": "John"}},
			})
		default:
			t.Errorf("unexpected page token %q", r.URL.Query().Get("pageToken"))
		}
	})

	c := newTestClient(t, handler)
	records, err := c.ListRecords(context.Background(), "loc1")
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, "Jane", records[0].DisplayName)
	assert.Equal(t, "John", records[1].DisplayName)

	require.NotNil(t, records[0].Provenance)
	assert.Equal(t, "loc1", records[0].Provenance.LocationID)
	assert.Equal(t, "Clients", records[0].Provenance.LocationName)
	assert.Equal(t, "c1", records[0].Provenance.ExternalID)
}

func TestListRecordsNormalizesObjectShapedFields(t *testing.T) {
	handler := http.NewServeMux()
	handler.HandleFunc("GET /locations", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(t, w, map[string]any{
			"value": []map[string]string{{"id": "loc1", "displayName": "Clients"}},
		})
	})
	handler.HandleFunc("GET /locations/loc1/contacts", func(w http.ResponseWriter, r *http.Request) {
		// One contact with a single object where a list is expected,
		// one with proper lists.
		writeJSON(t, w, map[string]any{
			"value": []map[string]any{
				{
					"id":             "c1",
					"displayName":    "Jane",
					"emailAddresses": map[string]string{"address": "jane@example.com", "kind": "work"},
					"businessPhones": "555-1111",
				},
				{
					"id":          "c2",
					"displayName": "John",
					"emailAddresses": []map[string]string{
						{"address": "john@example.com"},
						{"address": "j@example.org", "kind": "home"},
					},
					"businessPhones": []string{"555-2222", "555-3333"},
				},
			},
		})
	})

	c := newTestClient(t, handler)
	records, err := c.ListRecords(context.Background(), "loc1")
	require.NoError(t, err)
	require.Len(t, records, 2)

	require.Len(t, records[0].Emails, 1)
	assert.Equal(t, "jane@example.com", records[0].Emails[0].Address)
	assert.Equal(t, contacts.EmailWork, records[0].Emails[0].Kind)
	assert.Equal(t, []string{"555-1111"}, records[0].BusinessPhones)

	require.Len(t, records[1].Emails, 2)
	assert.Equal(t, contacts.EmailOther, records[1].Emails[0].Kind)
	assert.Equal(t, contacts.EmailHome, records[1].Emails[1].Kind)
	assert.Equal(t, []string{"555-2222", "555-3333"}, records[1].BusinessPhones)
}

func TestCreateRecordSendsWireShape(t *testing.T) {
	var got wireContact
	handler := http.NewServeMux()
	handler.HandleFunc("POST /locations/loc1/contacts", func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.WriteHeader(http.StatusCreated)
		writeJSON(t, w, map[string]string{"id": "new-id"})
	})

	rec := contacts.New()
	rec.DisplayName = "Jane Doe"
	rec.AddEmail("jane@example.com", contacts.EmailWork, true)
	rec.BusinessPhones = []string{"555-1111"}
	rec.Organization.Company = "Acme"

	c := newTestClient(t, handler)
	id, err := c.CreateRecord(context.Background(), "loc1", rec)
	require.NoError(t, err)
	assert.Equal(t, "new-id", id)

	assert.Equal(t, "Jane Doe", got.DisplayName)
	assert.Equal(t, "Acme", got.CompanyName)

	emails, err := json.Marshal(got.EmailAddresses)
	require.NoError(t, err)
	assert.JSONEq(t, `[{"address":"jane@example.com","kind":"work","preferred":true}]`, string(emails))
}

func TestDeleteRecordNotFound(t *testing.T) {
	handler := http.NewServeMux()
	handler.HandleFunc("DELETE /contacts/missing", func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "no such contact", http.StatusNotFound)
	})

	c := newTestClient(t, handler)
	err := c.DeleteRecord(context.Background(), "missing")
	require.Error(t, err)
	assert.True(t, errors.IsNotFound(err))
}

func TestServerErrorIsDirectoryUnavailable(t *testing.T) {
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusServiceUnavailable)
	})

	c := newTestClient(t, handler)
	_, err := c.ListLocations(context.Background())
	require.Error(t, err)
	assert.True(t, errors.IsDirectoryUnavailable(err))
}

func TestEnsureLocation(t *testing.T) {
	created := false
	handler := http.NewServeMux()
	handler.HandleFunc("GET /locations", func(w http.ResponseWriter, r *http.Request) {
		value := []map[string]string{{"id": "loc1", "displayName": "Clients"}}
		if created {
			value = append(value, map[string]string{"id": "loc2", "displayName": "Vendors"})
		}
		writeJSON(t, w, map[string]any{"value": value})
	})
	handler.HandleFunc("POST /locations", func(w http.ResponseWriter, r *http.Request) {
		var loc map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&loc))
		assert.Equal(t, "Vendors", loc["displayName"])
		created = true
		w.WriteHeader(http.StatusCreated)
		writeJSON(t, w, map[string]string{"id": "loc2", "displayName": "Vendors"})
	})

	c := newTestClient(t, handler)

	id, err := c.EnsureLocation(context.Background(), "Clients")
	require.NoError(t, err)
	assert.Equal(t, "loc1", id)
	assert.False(t, created)

	id, err = c.EnsureLocation(context.Background(), "Vendors")
	require.NoError(t, err)
	assert.Equal(t, "loc2", id)
	assert.True(t, created)
}

func TestListRecordsToleratesBadDates(t *testing.T) {
	handler := http.NewServeMux()
	handler.HandleFunc("GET /locations", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(t, w, map[string]any{
			"value": []map[string]string{{"id": "loc1", "displayName": "Clients"}},
		})
	})
	handler.HandleFunc("GET /locations/loc1/contacts", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(t, w, map[string]any{
			"value": []map[string]any{
				{"id": "c1", "displayName": "Jane", "birthday": "1985-04-12"},
				{"id": "c2", "displayName": "John", "birthday": "April 12th"},
			},
		})
	})

	c := newTestClient(t, handler)
	records, err := c.ListRecords(context.Background(), "loc1")
	require.NoError(t, err)
	require.Len(t, records, 2)

	require.NotNil(t, records[0].Birthday)
	assert.Equal(t, 1985, records[0].Birthday.Year())
	assert.Nil(t, records[1].Birthday, "a date the service mangled stays unset")
}

func TestParseWireDates(t *testing.T) {
	d := parseWireDate("1985-04-12")
	require.NotNil(t, d)
	assert.Equal(t, 1985, d.Year())

	ts := parseWireDate("1985-04-12T00:00:00Z")
	require.NotNil(t, ts)
	assert.Equal(t, 1985, ts.Year())

	assert.Nil(t, parseWireDate(""))
	assert.Nil(t, parseWireDate("12/04/1985"))
}
