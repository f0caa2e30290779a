package lml

import (
	"bytes"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/PuerkitoBio/goquery"
	"github.com/google/uuid"

	"github.com/gigclip/gigclip/internal/logger"
)

const (
	// SessionCookie is the name of the admin session cookie.
	SessionCookie = "_lml_session"

	// acceptHTML mirrors what a browser sends when navigating pages.
	acceptHTML = "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8"

	// errorSelectors are the elements Rails renders validation
	// failures into on the upload form.
	errorSelectors = ".error_messages, .alert, .flash, .field_with_errors"

	// maxErrorLen bounds how much of an error page is kept in a Result.
	maxErrorLen = 300
)

// State tracks an Uploader through the submission sequence.
type State string

const (
	StateUnauthenticated State = "unauthenticated"
	StateTokenFetched    State = "token_fetched"
	StateSubmitted       State = "submitted"
	StateSucceeded       State = "succeeded"
	StateFailed          State = "failed"
)

// Result is the interpreted outcome of one submission. A Result with
// Success false is a normal outcome, not a transport error.
type Result struct {
	Success  bool   `json:"success"`
	UploadID string `json:"upload_id,omitempty"`
	Error    string `json:"error,omitempty"`
}

// Uploader submits clipper payloads through the admin upload form.
// It authenticates with a session cookie, fetches the form's CSRF
// token, and posts the payload without following redirects.
type Uploader struct {
	baseURL    string
	session    string
	token      string
	state      State
	httpClient *http.Client
}

// NewUploader creates an uploader for the given base URL and session
// credential.
func NewUploader(baseURL, session string, timeout time.Duration) (*Uploader, error) {
	if session == "" {
		return nil, fmt.Errorf("session credential is required")
	}
	return &Uploader{
		baseURL: strings.TrimRight(baseURL, "/"),
		session: session,
		state:   StateUnauthenticated,
		httpClient: &http.Client{
			Timeout: timeout,
			CheckRedirect: func(req *http.Request, via []*http.Request) error {
				// The redirect target is the signal, so keep
				// the 3xx response instead of following it.
				return http.ErrUseLastResponse
			},
		},
	}, nil
}

// State reports where the uploader is in the submission sequence.
func (u *Uploader) State() State {
	return u.state
}

func (u *Uploader) setState(s State) {
	u.state = s
	logger.Debug("upload state", logger.Fields{"state": string(s)})
}

// FetchToken loads the upload form and extracts its authenticity
// token. An expired session gets the login page back with a 200, so a
// response without the upload form counts as an auth failure.
func (u *Uploader) FetchToken() (string, error) {
	req, err := http.NewRequest("GET", u.baseURL+"/admin/uploads/new", nil)
	if err != nil {
		return "", fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Cookie", SessionCookie+"="+u.session)
	req.Header.Set("User-Agent", UserAgent)
	req.Header.Set("Accept", acceptHTML)

	resp, err := u.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("fetching upload form: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("%w: status %d fetching upload form", ErrAuth, resp.StatusCode)
	}

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return "", fmt.Errorf("parsing upload form: %w", err)
	}

	if doc.Find(`form[action="/admin/uploads"]`).Length() == 0 {
		return "", fmt.Errorf("%w: upload form not present, session may have expired", ErrAuth)
	}

	token, _ := doc.Find(`input[name="authenticity_token"]`).First().Attr("value")
	if token == "" {
		return "", ErrTokenNotFound
	}

	u.token = token
	u.setState(StateTokenFetched)
	return token, nil
}

// Submit posts the payload with the token from FetchToken and
// interprets the response. Server-side rejections come back as a
// failed Result; only transport problems return an error.
func (u *Uploader) Submit(source, content string) (*Result, error) {
	if u.token == "" {
		return nil, fmt.Errorf("no authenticity token: call FetchToken first")
	}

	form := url.Values{}
	form.Set("authenticity_token", u.token)
	form.Set("lml_upload[venue_label]", "")
	form.Set("lml_upload[venue_id]", "")
	form.Set("lml_upload[source]", source)
	form.Set("lml_upload[content]", content)
	form.Set("commit", "Create Upload")

	req, err := http.NewRequest("POST", u.baseURL+"/admin/uploads", strings.NewReader(form.Encode()))
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Cookie", SessionCookie+"="+u.session)
	req.Header.Set("User-Agent", UserAgent)
	req.Header.Set("Accept", acceptHTML)
	req.Header.Set("Origin", u.baseURL)
	req.Header.Set("Referer", u.baseURL+"/admin/uploads/new")

	resp, err := u.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("submitting upload: %w", err)
	}
	defer resp.Body.Close()
	u.setState(StateSubmitted)

	result := interpretResponse(resp)
	if result.Success {
		u.setState(StateSucceeded)
	} else {
		u.setState(StateFailed)
	}
	return result, nil
}

// Upload runs the full sequence: fetch a fresh token, submit the
// payload, interpret the response.
func (u *Uploader) Upload(source, content string) (*Result, error) {
	if _, err := u.FetchToken(); err != nil {
		return nil, err
	}
	return u.Submit(source, content)
}

// interpretResponse classifies the submission response. Rails answers
// a successful create with a redirect to the new upload's page, so a
// 3xx is success and its Location may carry the upload's ID.
func interpretResponse(resp *http.Response) *Result {
	if resp.StatusCode >= 300 && resp.StatusCode < 400 {
		return &Result{
			Success:  true,
			UploadID: uploadIDFromLocation(resp.Header.Get("Location")),
		}
	}
	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return &Result{Success: true}
	}
	return &Result{
		Success: false,
		Error:   extractError(resp),
	}
}

// uploadIDFromLocation pulls the upload's UUID out of a redirect
// target such as /admin/uploads/3fa85f64-5717-4562-b3fc-2c963f66afa6.
func uploadIDFromLocation(location string) string {
	if location == "" {
		return ""
	}
	parsed, err := url.Parse(location)
	if err != nil {
		return ""
	}
	for _, segment := range strings.Split(parsed.Path, "/") {
		if _, err := uuid.Parse(segment); err == nil {
			return segment
		}
	}
	return ""
}

// extractError digs a readable message out of a rejection page. It
// prefers the usual Rails error containers and falls back to the
// whole body, collapsed and truncated.
func extractError(resp *http.Response) string {
	body, _ := io.ReadAll(resp.Body)

	var detail string
	if doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body)); err == nil {
		var messages []string
		doc.Find(errorSelectors).Each(func(_ int, s *goquery.Selection) {
			if text := collapseSpace(s.Text()); text != "" {
				messages = append(messages, text)
			}
		})
		detail = strings.Join(messages, "; ")
	}
	if detail == "" {
		detail = collapseSpace(string(body))
	}
	if detail == "" {
		return fmt.Sprintf("upload rejected with status %d", resp.StatusCode)
	}
	return fmt.Sprintf("status %d: %s", resp.StatusCode, truncate(detail, maxErrorLen))
}

func collapseSpace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

func truncate(s string, max int) string {
	if utf8.RuneCountInString(s) <= max {
		return s
	}
	return string([]rune(s)[:max]) + "..."
}
