package client

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/eeeflix-contacts/internal/models"
)

const storePath = "/assets/contacts_2301001_to_2301060.json"

func TestFetchContacts(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, storePath, r.URL.Path)
		w.Header().Set("ETag", `"rev-1"`)
		_, _ = io.WriteString(w, `[{"No":2301001,"Contact No":"+880111","FB ID Link":"http://fb.com/a"}]`)
	}))
	defer srv.Close()

	c := New(Options{BaseURL: srv.URL + "/", StorePath: storePath})
	contacts, etag, err := c.FetchContacts(context.Background())
	require.NoError(t, err)
	assert.Equal(t, `"rev-1"`, etag)
	assert.Equal(t, []models.Contact{{No: 2301001, ContactNo: "+880111", FBLink: "http://fb.com/a"}}, contacts)
}

func TestFetchContactsMissingStore(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	defer srv.Close()

	_, _, err := New(Options{BaseURL: srv.URL, StorePath: storePath}).FetchContacts(context.Background())
	require.Error(t, err)
	assert.Equal(t, http.StatusNotFound, StatusOf(err))
}

func TestUpdateContactSendsSinglePatch(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, "/api/updateContacts", r.URL.Path)
		assert.Equal(t, "write-key", r.Header.Get("X-API-Key"))

		var body map[string]interface{}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, float64(2301001), body["studentId"])
		assert.Equal(t, "+880999", body["contactNo"])
		assert.Equal(t, "http://fb.com/b", body["fbLink"])
		assert.Nil(t, body["allStudents"])

		_, _ = io.WriteString(w, `{"success":true,"message":"Student 2301001 updated successfully"}`)
	}))
	defer srv.Close()

	c := New(Options{BaseURL: srv.URL, APIKey: "write-key"})
	msg, err := c.UpdateContact(context.Background(), 2301001, "+880999", "http://fb.com/b")
	require.NoError(t, err)
	assert.Equal(t, "Student 2301001 updated successfully", msg)
}

func TestUpdateAllSendsWholeList(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var body struct {
			UpdateAll   bool              `json:"updateAll"`
			AllStudents []json.RawMessage `json:"allStudents"`
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.True(t, body.UpdateAll)
		require.NotNil(t, body.AllStudents)
		assert.Len(t, body.AllStudents, 0)
		_, _ = io.WriteString(w, `{"success":true,"message":"All students updated successfully"}`)
	}))
	defer srv.Close()

	msg, err := New(Options{BaseURL: srv.URL}).UpdateAll(context.Background(), nil)
	require.NoError(t, err)
	assert.Equal(t, "All students updated successfully", msg)
}

func TestUpdateAllSendsRecordsUnchanged(t *testing.T) {
	const record = `{"Hall":"Zia","No":2301001,"Contact No":null,"FB ID Link":"https://facebook.com/profile.php?id=1&ref=a"}`
	got := make(chan string, 1)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		raw, err := io.ReadAll(r.Body)
		require.NoError(t, err)
		got <- string(raw)
		_, _ = io.WriteString(w, `{"success":true,"message":"All students updated successfully"}`)
	}))
	defer srv.Close()

	contacts, err := models.UnmarshalContacts([]byte("[" + record + "]"))
	require.NoError(t, err)
	_, err = New(Options{BaseURL: srv.URL}).UpdateAll(context.Background(), contacts)
	require.NoError(t, err)
	assert.Contains(t, <-got, `"allStudents":[`+record+`]`)
}

func TestUpdateMapsErrorBodies(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = io.WriteString(w, `{"error":"Failed to update contacts","message":"disk full"}`)
	}))
	defer srv.Close()

	_, err := New(Options{BaseURL: srv.URL}).UpdateContact(context.Background(), 1, "", "")
	require.Error(t, err)
	assert.Equal(t, http.StatusInternalServerError, StatusOf(err))
	assert.Equal(t, "Failed to update contacts: disk full", err.Error())
}

func TestUpdateMapsEnvelopeAndEmptyBodies(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/api/auth/login" {
			w.WriteHeader(http.StatusUnauthorized)
			_, _ = io.WriteString(w, `{"error":{"code":"INVALID_CREDENTIALS","message":"invalid username or password","status":401}}`)
			return
		}
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	c := New(Options{BaseURL: srv.URL})
	_, err := c.Login(context.Background(), "admin", "nope")
	require.Error(t, err)
	assert.Equal(t, "invalid username or password", err.Error())

	_, err = c.UpdateContact(context.Background(), 1, "", "")
	require.Error(t, err)
	assert.Equal(t, http.StatusBadGateway, StatusOf(err))
	assert.Equal(t, "Bad Gateway", err.Error())
}

func TestLoginStoresToken(t *testing.T) {
	var seenAuth string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/api/auth/login":
			_, _ = io.WriteString(w, `{"data":{"access_token":"tok","expires_in":3600,"username":"admin","role":"ADMIN"}}`)
		default:
			seenAuth = r.Header.Get("Authorization")
			_, _ = io.WriteString(w, `{"success":true,"message":"ok"}`)
		}
	}))
	defer srv.Close()

	c := New(Options{BaseURL: srv.URL})
	resp, err := c.Login(context.Background(), "admin", "s3cret")
	require.NoError(t, err)
	assert.Equal(t, "tok", resp.AccessToken)
	assert.Equal(t, models.RoleAdmin, resp.Role)

	_, err = c.UpdateContact(context.Background(), 2301001, "a", "b")
	require.NoError(t, err)
	assert.Equal(t, "Bearer tok", seenAuth)
}

func TestRequestsHonourTimeout(t *testing.T) {
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-release
	}))
	defer srv.Close()
	defer close(release)

	c := New(Options{BaseURL: srv.URL, Timeout: 50 * time.Millisecond})
	start := time.Now()
	_, err := c.UpdateContact(context.Background(), 2301001, "a", "b")
	require.Error(t, err)
	assert.Zero(t, StatusOf(err))
	assert.Less(t, time.Since(start), 5*time.Second)
}
