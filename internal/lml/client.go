package lml

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// UserAgent identifies this tool on every request.
const UserAgent = "gigclip/1.0 (github.com/gigclip/gigclip)"

// Venue identifies the venue of an existing gig.
type Venue struct {
	ID string `json:"id"`
}

// ExistingGig is one entry from the read API.
type ExistingGig struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Date  string `json:"date"`
	Venue Venue  `json:"venue"`
}

// Client is a read-only client for the gigs query API.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// NewClient creates a read API client for the given base URL.
func NewClient(baseURL string, timeout time.Duration) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
}

// QueryGigs fetches the gigs listed for a location between two dates,
// inclusive. One blocking request, no retries; any non-OK status wraps
// ErrAPIStatus.
func (c *Client) QueryGigs(location string, from, to time.Time) ([]ExistingGig, error) {
	params := url.Values{}
	params.Add("location", location)
	params.Add("date_from", from.Format("2006-01-02"))
	params.Add("date_to", to.Format("2006-01-02"))

	reqURL := fmt.Sprintf("%s/gigs/query?%s", c.baseURL, params.Encode())

	req, err := http.NewRequest("GET", reqURL, nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("User-Agent", UserAgent)
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("querying gigs: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: %d from gigs query", ErrAPIStatus, resp.StatusCode)
	}

	var gigs []ExistingGig
	if err := json.NewDecoder(resp.Body).Decode(&gigs); err != nil {
		return nil, fmt.Errorf("parsing gig list: %w", err)
	}

	return gigs, nil
}
