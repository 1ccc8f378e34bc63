// Package api handles remote server communication: fetching the media
// inventory a player turns into its "Inventory" group.
package api

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime"
	"net/http"
	"net/url"
	"path"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"go.uber.org/zap"

	"signage-player/internal/media"
)

// Upper bound on an inventory response body.
const maxBody = 8 << 20

// Entry is one element of the inventory JSON array. Some deployments
// send the media location in "name" and omit "url".
type Entry struct {
	ID   any    `json:"id,omitempty"`
	Name string `json:"name"`
	URL  string `json:"url"`
	Type string `json:"type"`
}

// Client fetches the inventory from a remote endpoint.
type Client struct {
	endpoint string
	httpCli  *http.Client
	log      *zap.Logger
}

// NewClient creates a client for endpoint, the full inventory URL
// (e.g. http://host:3001/inventory).
func NewClient(endpoint string, log *zap.Logger) (*Client, error) {
	u, err := url.Parse(endpoint)
	if err != nil {
		return nil, fmt.Errorf("parse inventory endpoint: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("inventory endpoint %q: want http or https", endpoint)
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Client{
		endpoint: endpoint,
		httpCli:  &http.Client{Timeout: 10 * time.Second},
		log:      log.Named("api"),
	}, nil
}

// Endpoint returns the configured inventory URL.
func (c *Client) Endpoint() string { return c.endpoint }

// FetchInventory retrieves the inventory list. Any non-2xx status or
// unparseable body is an error.
func (c *Client) FetchInventory(ctx context.Context) ([]media.Item, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json, text/html;q=0.5")

	resp, err := c.httpCli.Do(req)
	if err != nil {
		return nil, fmt.Errorf("inventory GET failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("inventory response: %d %s", resp.StatusCode, serverError(resp.Body))
	}

	body := io.LimitReader(resp.Body, maxBody)
	ct, _, _ := mime.ParseMediaType(resp.Header.Get("Content-Type"))

	var items []media.Item
	if ct == "text/html" {
		items, err = parseIndex(body, resp.Request.URL)
	} else {
		items, err = parseJSON(body)
	}
	if err != nil {
		return nil, err
	}

	c.log.Info("inventory fetched", zap.String("endpoint", c.endpoint), zap.Int("items", len(items)))
	return items, nil
}

// Ping reports whether the endpoint answers at all.
func (c *Client) Ping(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodHead, c.endpoint, nil)
	if err != nil {
		return err
	}
	resp, err := c.httpCli.Do(req)
	if err != nil {
		return err
	}
	resp.Body.Close()
	if resp.StatusCode >= 500 {
		return fmt.Errorf("inventory endpoint: %d", resp.StatusCode)
	}
	return nil
}

func parseJSON(r io.Reader) ([]media.Item, error) {
	var entries []Entry
	if err := json.NewDecoder(r).Decode(&entries); err != nil {
		return nil, fmt.Errorf("decode inventory: %w", err)
	}
	items := make([]media.Item, 0, len(entries))
	for _, e := range entries {
		loc := e.URL
		if loc == "" {
			loc = e.Name
		}
		if loc == "" {
			continue
		}
		items = append(items, media.Item{Source: media.RemoteMedia{Name: e.Name, URL: loc, Type: e.Type}})
	}
	return items, nil
}

// parseIndex reads an HTML directory listing: every link to a supported
// media file becomes an item, resolved against base.
func parseIndex(r io.Reader, base *url.URL) ([]media.Item, error) {
	doc, err := goquery.NewDocumentFromReader(r)
	if err != nil {
		return nil, fmt.Errorf("parse inventory index: %w", err)
	}

	var items []media.Item
	seen := make(map[string]bool)
	doc.Find("a[href]").Each(func(_ int, s *goquery.Selection) {
		href, _ := s.Attr("href")
		ref, err := url.Parse(strings.TrimSpace(href))
		if err != nil || ref.Path == "" || strings.HasSuffix(ref.Path, "/") {
			return
		}
		name, err := url.PathUnescape(path.Base(ref.Path))
		if err != nil || !media.IsSupported(name) {
			return
		}
		abs := base.ResolveReference(ref).String()
		if seen[abs] {
			return
		}
		seen[abs] = true
		items = append(items, media.Item{Source: media.RemoteMedia{Name: name, URL: abs}})
	})
	return items, nil
}

// serverError extracts {"error": "..."} from a failure body when present.
func serverError(r io.Reader) string {
	var body struct {
		Error string `json:"error"`
	}
	if err := json.NewDecoder(io.LimitReader(r, 64<<10)).Decode(&body); err != nil {
		return ""
	}
	return body.Error
}
