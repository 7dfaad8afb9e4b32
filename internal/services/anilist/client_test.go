package anilist

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/sirupsen/logrus"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()

	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	logger := logrus.New()
	logger.SetOutput(io.Discard)

	client := NewClient(logger)
	client.baseURL = server.URL
	return client
}

func TestViewer(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("Authorization"); got != "Bearer token" {
			t.Errorf("unexpected authorization header: %q", got)
		}
		var req graphqlRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("failed to decode request: %v", err)
		}
		w.Write([]byte(`{"data":{"Viewer":{"id":42,"name":"tester"}}}`))
	})

	viewer, err := client.Viewer(context.Background(), "token")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if viewer.ID != 42 || viewer.Name != "tester" {
		t.Fatalf("unexpected viewer: %+v", viewer)
	}
}

func TestViewerInvalidToken(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte(`{"data":null,"errors":[{"message":"Invalid token","status":400}]}`))
	})

	if _, err := client.Viewer(context.Background(), "bad"); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("expected ErrInvalidToken, got %v", err)
	}
}

func TestWatchingList(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		var req graphqlRequest
		json.NewDecoder(r.Body).Decode(&req)
		vars, _ := req.Variables.(map[string]interface{})
		if vars["user_id"] != float64(42) {
			t.Errorf("unexpected user_id variable: %v", vars["user_id"])
		}
		w.Write([]byte(`{"data":{"MediaListCollection":{"lists":[{"entries":[
			{"id":201,"status":"CURRENT","progress":4,"media":{"id":101,"title":{"romaji":"Sousou no Frieren","userPreferred":"Sousou no Frieren"},"synonyms":[]}}
		]}]}}}`))
	})

	entries, err := client.WatchingList(context.Background(), "token", 42)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(entries) != 1 {
		t.Fatalf("expected 1 entry, got %d", len(entries))
	}
	if entries[0].MediaID != 101 || entries[0].Progress != 4 {
		t.Fatalf("unexpected entry: %+v", entries[0])
	}
}

func TestUpdateProgressConfirmed(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"data":{"SaveMediaListEntry":{"progress":5}}}`))
	})

	if err := client.UpdateProgress(context.Background(), "token", 201, 5); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestUpdateProgressUnconfirmed(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"data":{"SaveMediaListEntry":{"progress":4}}}`))
	})

	if err := client.UpdateProgress(context.Background(), "token", 201, 5); err == nil {
		t.Fatal("expected an error when the write is not echoed back")
	}
}

func TestUpdateProgressMissingEntry(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		w.Write([]byte(`{"data":null,"errors":[{"message":"Not Found.","status":404}]}`))
	})

	if err := client.UpdateProgress(context.Background(), "token", 201, 5); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestDoQueryServerError(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		w.Write([]byte(`Internal Server Error`))
	})

	if _, err := client.Viewer(context.Background(), "token"); err == nil {
		t.Fatal("expected an error on a non-JSON failure response")
	}
}
