package client

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestSignup(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/signup/" || r.Method != http.MethodPost {
			t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
		}
		if r.FormValue("username") != "alice" {
			t.Errorf("unexpected username %q", r.FormValue("username"))
		}
		http.SetCookie(w, &http.Cookie{Name: "vertex_session", Value: "ctx-1", Path: "/"})
		json.NewEncoder(w).Encode(map[string]any{
			"status":           true,
			"your session key": "key-abc",
		})
	}))
	defer srv.Close()

	c, err := New(srv.URL)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	key, err := c.Signup(context.Background(), "alice", "alice@example.com", "pass")
	if err != nil {
		t.Fatalf("Signup: %v", err)
	}
	if key != "key-abc" {
		t.Errorf("expected key-abc, got %q", key)
	}
}

func TestSignupRejected(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{
			"status":  false,
			"message": "username already exists",
		})
	}))
	defer srv.Close()

	c, _ := New(srv.URL)
	_, err := c.Signup(context.Background(), "alice", "alice@example.com", "pass")
	if err == nil {
		t.Fatal("expected error for rejected signup")
	}
	if !strings.Contains(err.Error(), "username already exists") {
		t.Errorf("error should carry the server message, got %v", err)
	}
}

func TestCookiePersistsAcrossCalls(t *testing.T) {
	var tokenCookie string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/login/":
			http.SetCookie(w, &http.Cookie{Name: "vertex_session", Value: "ctx-9", Path: "/"})
			json.NewEncoder(w).Encode(map[string]any{"status": true, "session_key": "k1"})
		case "/token/":
			if c, err := r.Cookie("vertex_session"); err == nil {
				tokenCookie = c.Value
			}
			json.NewEncoder(w).Encode(map[string]any{"status": true, "key": "k1"})
		}
	}))
	defer srv.Close()

	c, _ := New(srv.URL)
	if _, err := c.Login(context.Background(), "alice", "pass"); err != nil {
		t.Fatalf("Login: %v", err)
	}
	if _, err := c.Token(context.Background(), "alice", "pass"); err != nil {
		t.Fatalf("Token: %v", err)
	}
	if tokenCookie != "ctx-9" {
		t.Errorf("expected session cookie ctx-9 on second call, got %q", tokenCookie)
	}
}

func TestUpload(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseMultipartForm(1 << 20); err != nil {
			t.Fatalf("parsing multipart form: %v", err)
		}
		if r.FormValue("key") != "key-abc" {
			t.Errorf("unexpected key %q", r.FormValue("key"))
		}
		f, header, err := r.FormFile("file")
		if err != nil {
			t.Fatalf("reading file field: %v", err)
		}
		defer f.Close()
		if header.Filename != "notes.txt" {
			t.Errorf("unexpected filename %q", header.Filename)
		}
		if ct := header.Header.Get("Content-Type"); ct != "text/plain" {
			t.Errorf("unexpected content type %q", ct)
		}
		json.NewEncoder(w).Encode(map[string]any{
			"status": true, "file_type": "text/plain", "filename": "notes.txt", "size": 5,
		})
	}))
	defer srv.Close()

	c, _ := New(srv.URL)
	res, err := c.Upload(context.Background(), "key-abc", "notes.txt", "text/plain", strings.NewReader("hello"))
	if err != nil {
		t.Fatalf("Upload: %v", err)
	}
	if res.Filename != "notes.txt" || res.Size != 5 {
		t.Errorf("unexpected result %+v", res)
	}
}

// brokenReader fails after yielding a little data, like a file that goes
// away mid-read.
type brokenReader struct {
	served bool
}

func (r *brokenReader) Read(p []byte) (int, error) {
	if !r.served {
		r.served = true
		return copy(p, "partial"), nil
	}
	return 0, errors.New("read failure")
}

func TestUploadReadError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// Draining the body surfaces the client-side read failure; no
		// well-formed response ever goes back.
		io.Copy(io.Discard, r.Body)
	}))
	defer srv.Close()

	c, _ := New(srv.URL)
	if _, err := c.Upload(context.Background(), "key-abc", "notes.txt", "text/plain", &brokenReader{}); err == nil {
		t.Fatal("expected error when the file reader fails mid-upload")
	}
}

func TestListEmptyRegistry(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{
			"status":  false,
			"message": "no files available for this user",
		})
	}))
	defer srv.Close()

	c, _ := New(srv.URL)
	files, err := c.List(context.Background(), "key-abc")
	if err != nil {
		t.Fatalf("an empty registry is not an error: %v", err)
	}
	if len(files) != 0 {
		t.Errorf("expected no files, got %v", files)
	}
}

func TestListRejected(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{
			"status":  false,
			"message": "invalid key: use the /token/ endpoint to fetch your existing key or register a new one",
		})
	}))
	defer srv.Close()

	c, _ := New(srv.URL)
	if _, err := c.List(context.Background(), "bad-key"); err == nil {
		t.Fatal("expected error for invalid key")
	}
}

func TestGet(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("id") != "file-1" || r.URL.Query().Get("token") != "key-abc" {
			t.Errorf("unexpected query %q", r.URL.RawQuery)
		}
		json.NewEncoder(w).Encode(map[string]any{
			"file": map[string]any{
				"notes.txt": map[string]any{"id": "file-1", "size": 5, "type": "text/plain"},
			},
		})
	}))
	defer srv.Close()

	c, _ := New(srv.URL)
	files, err := c.Get(context.Background(), "key-abc", "file-1")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	entry, ok := files["notes.txt"]
	if !ok {
		t.Fatalf("expected notes.txt entry, got %v", files)
	}
	if entry.ID != "file-1" || entry.Size != 5 {
		t.Errorf("unexpected entry %+v", entry)
	}
}
