package lml

import (
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"
	"time"
	"unicode/utf8"
)

// fixtureToken is the value of the hidden authenticity_token input in
// testdata/fixtures/upload_form.html.
const fixtureToken = "hQ9KcX2mWvTr4ZbYfL8sJd0gENuA1DoPiRkM6yBz3VCelSnUwIaqG5xtO7jHpF=="

// loginPage is what an expired session gets back, with a 200. Its own
// form carries an authenticity_token too, so form detection has to go
// by the upload form's action, not by the token input.
const loginPage = `<!DOCTYPE html>
<html>
<head><title>Log in</title></head>
<body>
  <h1>Log in</h1>
  <form action="/admin/session" accept-charset="UTF-8" method="post">
    <input type="hidden" name="authenticity_token" value="login-form-token" autocomplete="off">
    <input type="email" name="email" id="email">
    <input type="password" name="password" id="password">
    <input type="submit" name="commit" value="Log in">
  </form>
</body>
</html>`

const validationErrorPage = `<!DOCTYPE html>
<html>
<body>
  <div class="error_messages">
    <h2>1 error prohibited this upload from being saved:</h2>
    <ul><li>Content can't be blank</li></ul>
  </div>
</body>
</html>`

func loadUploadForm(t *testing.T) string {
	t.Helper()
	data, err := os.ReadFile("../../testdata/fixtures/upload_form.html")
	if err != nil {
		t.Fatalf("failed to load test fixture: %v", err)
	}
	return string(data)
}

func TestNewUploader_RequiresSession(t *testing.T) {
	_, err := NewUploader("https://api.example.com", "", 5*time.Second)
	if err == nil {
		t.Error("NewUploader() expected error for empty session, got nil")
	}

	u, err := NewUploader("https://api.example.com", "sess-abc", 5*time.Second)
	if err != nil {
		t.Fatalf("NewUploader() unexpected error: %v", err)
	}
	if u.State() != StateUnauthenticated {
		t.Errorf("State() = %v, want %v", u.State(), StateUnauthenticated)
	}
}

func TestFetchToken_Success(t *testing.T) {
	formPage := loadUploadForm(t)
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/admin/uploads/new" {
			t.Errorf("Expected path /admin/uploads/new, got %s", r.URL.Path)
		}
		if cookie := r.Header.Get("Cookie"); cookie != "_lml_session=sess-abc" {
			t.Errorf("Expected session cookie, got %q", cookie)
		}
		fmt.Fprint(w, formPage)
	}))
	defer server.Close()

	u, err := NewUploader(server.URL, "sess-abc", 5*time.Second)
	if err != nil {
		t.Fatalf("NewUploader() unexpected error: %v", err)
	}

	token, err := u.FetchToken()
	if err != nil {
		t.Fatalf("FetchToken() unexpected error: %v", err)
	}
	if token != fixtureToken {
		t.Errorf("FetchToken() = %q, want %q", token, fixtureToken)
	}
	if u.State() != StateTokenFetched {
		t.Errorf("State() = %v, want %v", u.State(), StateTokenFetched)
	}
}

func TestFetchToken_LoginPage(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, loginPage)
	}))
	defer server.Close()

	u, _ := NewUploader(server.URL, "expired-session", 5*time.Second)
	_, err := u.FetchToken()
	if err == nil {
		t.Fatal("FetchToken() expected error for login page, got nil")
	}
	if !errors.Is(err, ErrAuth) {
		t.Errorf("FetchToken() error = %v, want ErrAuth", err)
	}
	if u.State() != StateUnauthenticated {
		t.Errorf("State() = %v, want %v", u.State(), StateUnauthenticated)
	}
}

func TestFetchToken_RedirectToLogin(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Location", "/login")
		w.WriteHeader(http.StatusFound)
	}))
	defer server.Close()

	u, _ := NewUploader(server.URL, "sess-abc", 5*time.Second)
	_, err := u.FetchToken()
	if err == nil {
		t.Fatal("FetchToken() expected error for redirect, got nil")
	}
	if !errors.Is(err, ErrAuth) {
		t.Errorf("FetchToken() error = %v, want ErrAuth", err)
	}
	if !strings.Contains(err.Error(), "302") {
		t.Errorf("FetchToken() error = %v, want mention of status 302", err)
	}
}

func TestFetchToken_MissingToken(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `<html><body>
			<form action="/admin/uploads" method="post">
				<textarea name="lml_upload[content]"></textarea>
			</form>
		</body></html>`)
	}))
	defer server.Close()

	u, _ := NewUploader(server.URL, "sess-abc", 5*time.Second)
	_, err := u.FetchToken()
	if !errors.Is(err, ErrTokenNotFound) {
		t.Errorf("FetchToken() error = %v, want ErrTokenNotFound", err)
	}
}

func TestUpload_Success(t *testing.T) {
	formPage := loadUploadForm(t)
	requests := 0
	var server *httptest.Server
	server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests++
		switch {
		case r.Method == "GET" && r.URL.Path == "/admin/uploads/new":
			fmt.Fprint(w, formPage)
		case r.Method == "POST" && r.URL.Path == "/admin/uploads":
			if ct := r.Header.Get("Content-Type"); ct != "application/x-www-form-urlencoded" {
				t.Errorf("Expected form content type, got %s", ct)
			}
			if cookie := r.Header.Get("Cookie"); cookie != "_lml_session=sess-abc" {
				t.Errorf("Expected session cookie, got %q", cookie)
			}
			if origin := r.Header.Get("Origin"); origin != server.URL {
				t.Errorf("Origin = %q, want %q", origin, server.URL)
			}
			if referer := r.Header.Get("Referer"); referer != server.URL+"/admin/uploads/new" {
				t.Errorf("Referer = %q, want %q", referer, server.URL+"/admin/uploads/new")
			}

			if err := r.ParseForm(); err != nil {
				t.Fatalf("ParseForm failed: %v", err)
			}
			if got := r.PostForm.Get("authenticity_token"); got != fixtureToken {
				t.Errorf("authenticity_token = %q, want %q", got, fixtureToken)
			}
			if got := r.PostForm.Get("lml_upload[source]"); got != "Gig Guide - 2026-08-23" {
				t.Errorf("lml_upload[source] = %q, want %q", got, "Gig Guide - 2026-08-23")
			}
			if got := r.PostForm.Get("lml_upload[content]"); !strings.Contains(got, "venue_id: corner-hotel") {
				t.Errorf("lml_upload[content] = %q, want clipper payload", got)
			}
			if _, ok := r.PostForm["lml_upload[venue_label]"]; !ok {
				t.Error("Expected empty lml_upload[venue_label] field to be posted")
			}
			if _, ok := r.PostForm["lml_upload[venue_id]"]; !ok {
				t.Error("Expected empty lml_upload[venue_id] field to be posted")
			}
			if got := r.PostForm.Get("commit"); got != "Create Upload" {
				t.Errorf("commit = %q, want %q", got, "Create Upload")
			}

			w.Header().Set("Location", "/admin/uploads/3fa85f64-5717-4562-b3fc-2c963f66afa6")
			w.WriteHeader(http.StatusSeeOther)
		default:
			t.Errorf("Unexpected request: %s %s", r.Method, r.URL.Path)
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	defer server.Close()

	u, err := NewUploader(server.URL, "sess-abc", 5*time.Second)
	if err != nil {
		t.Fatalf("NewUploader() unexpected error: %v", err)
	}

	content := "venue_id: corner-hotel\ndate: 2026-08-29\nname: Midnight Swagger\ninformation: \n---"
	result, err := u.Upload("Gig Guide - 2026-08-23", content)
	if err != nil {
		t.Fatalf("Upload() unexpected error: %v", err)
	}

	if !result.Success {
		t.Errorf("Upload() result.Success = false, want true (error: %s)", result.Error)
	}
	if result.UploadID != "3fa85f64-5717-4562-b3fc-2c963f66afa6" {
		t.Errorf("result.UploadID = %q, want %q", result.UploadID, "3fa85f64-5717-4562-b3fc-2c963f66afa6")
	}
	if u.State() != StateSucceeded {
		t.Errorf("State() = %v, want %v", u.State(), StateSucceeded)
	}
	// Two requests only: the redirect target must not be fetched.
	if requests != 2 {
		t.Errorf("server saw %d requests, want 2", requests)
	}
}

func TestUpload_ValidationFailure(t *testing.T) {
	formPage := loadUploadForm(t)
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == "GET" {
			fmt.Fprint(w, formPage)
			return
		}
		w.WriteHeader(http.StatusUnprocessableEntity)
		fmt.Fprint(w, validationErrorPage)
	}))
	defer server.Close()

	u, _ := NewUploader(server.URL, "sess-abc", 5*time.Second)
	result, err := u.Upload("Gig Guide - 2026-08-23", "")
	if err != nil {
		t.Fatalf("Upload() unexpected error: %v", err)
	}

	if result.Success {
		t.Error("Upload() result.Success = true, want false")
	}
	if !strings.Contains(result.Error, "Content can't be blank") {
		t.Errorf("result.Error = %q, want validation message", result.Error)
	}
	if !strings.Contains(result.Error, "422") {
		t.Errorf("result.Error = %q, want mention of status 422", result.Error)
	}
	if u.State() != StateFailed {
		t.Errorf("State() = %v, want %v", u.State(), StateFailed)
	}
}

func TestUpload_SuccessWithoutRedirect(t *testing.T) {
	formPage := loadUploadForm(t)
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == "GET" {
			fmt.Fprint(w, formPage)
			return
		}
		fmt.Fprint(w, `<html><body>Upload created</body></html>`)
	}))
	defer server.Close()

	u, _ := NewUploader(server.URL, "sess-abc", 5*time.Second)
	result, err := u.Upload("src", "venue_id: v1\ndate: 2026-08-29\nname: N\ninformation: \n---")
	if err != nil {
		t.Fatalf("Upload() unexpected error: %v", err)
	}
	if !result.Success {
		t.Error("Upload() result.Success = false, want true")
	}
	if result.UploadID != "" {
		t.Errorf("result.UploadID = %q, want empty", result.UploadID)
	}
}

func TestUpload_ErrorBodyFallback(t *testing.T) {
	formPage := loadUploadForm(t)
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == "GET" {
			fmt.Fprint(w, formPage)
			return
		}
		w.WriteHeader(http.StatusInternalServerError)
		fmt.Fprint(w, `<html><body><h1>Something went wrong</h1></body></html>`)
	}))
	defer server.Close()

	u, _ := NewUploader(server.URL, "sess-abc", 5*time.Second)
	result, err := u.Upload("src", "payload")
	if err != nil {
		t.Fatalf("Upload() unexpected error: %v", err)
	}
	if result.Success {
		t.Error("Upload() result.Success = true, want false")
	}
	if !strings.Contains(result.Error, "Something went wrong") {
		t.Errorf("result.Error = %q, want body text", result.Error)
	}
	if !strings.Contains(result.Error, "500") {
		t.Errorf("result.Error = %q, want mention of status 500", result.Error)
	}
}

func TestUpload_ErrorTruncated(t *testing.T) {
	formPage := loadUploadForm(t)
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == "GET" {
			fmt.Fprint(w, formPage)
			return
		}
		w.WriteHeader(http.StatusUnprocessableEntity)
		fmt.Fprint(w, strings.Repeat("x", 2000))
	}))
	defer server.Close()

	u, _ := NewUploader(server.URL, "sess-abc", 5*time.Second)
	result, err := u.Upload("src", "payload")
	if err != nil {
		t.Fatalf("Upload() unexpected error: %v", err)
	}
	if !strings.HasSuffix(result.Error, "...") {
		t.Errorf("result.Error = %q, want truncation suffix", result.Error)
	}
	if n := utf8.RuneCountInString(result.Error); n > maxErrorLen+20 {
		t.Errorf("result.Error is %d runes, want at most %d plus prefix", n, maxErrorLen)
	}
}

func TestSubmit_RequiresToken(t *testing.T) {
	u, _ := NewUploader("https://api.example.com", "sess-abc", 5*time.Second)
	_, err := u.Submit("src", "payload")
	if err == nil {
		t.Error("Submit() expected error without token, got nil")
	}
}

func TestUploadIDFromLocation(t *testing.T) {
	tests := []struct {
		name     string
		location string
		want     string
	}{
		{
			name:     "relative path with UUID",
			location: "/admin/uploads/3fa85f64-5717-4562-b3fc-2c963f66afa6",
			want:     "3fa85f64-5717-4562-b3fc-2c963f66afa6",
		},
		{
			name:     "absolute URL with UUID",
			location: "https://api.lml.live/admin/uploads/9b2e7c4a-1f3d-4e5b-8a6c-0d9e8f7a6b5c",
			want:     "9b2e7c4a-1f3d-4e5b-8a6c-0d9e8f7a6b5c",
		},
		{
			name:     "no UUID segment",
			location: "/admin/uploads",
			want:     "",
		},
		{
			name:     "empty location",
			location: "",
			want:     "",
		},
		{
			name:     "UUID mid-path",
			location: "/admin/uploads/3fa85f64-5717-4562-b3fc-2c963f66afa6/edit",
			want:     "3fa85f64-5717-4562-b3fc-2c963f66afa6",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := uploadIDFromLocation(tt.location); got != tt.want {
				t.Errorf("uploadIDFromLocation(%q) = %q, want %q", tt.location, got, tt.want)
			}
		})
	}
}

func TestTruncate(t *testing.T) {
	tests := []struct {
		name string
		in   string
		max  int
		want string
	}{
		{name: "under limit", in: "short", max: 10, want: "short"},
		{name: "at limit", in: "exact", max: 5, want: "exact"},
		{name: "over limit", in: "too long here", max: 8, want: "too long..."},
		{name: "multibyte", in: "héllo wörld", max: 6, want: "héllo ..."},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := truncate(tt.in, tt.max); got != tt.want {
				t.Errorf("truncate(%q, %d) = %q, want %q", tt.in, tt.max, got, tt.want)
			}
		})
	}
}

func TestCollapseSpace(t *testing.T) {
	in := "  1 error prohibited\n\tthis upload   from being saved  "
	want := "1 error prohibited this upload from being saved"
	if got := collapseSpace(in); got != want {
		t.Errorf("collapseSpace(%q) = %q, want %q", in, got, want)
	}
}
