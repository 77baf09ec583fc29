package jupyter

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"sort"
	"strings"
	"time"

	"github.com/bytedance/sonic"

	"github.com/orrery-labs/orrery/backend/internal/shared/types"
)

// contentEntry is one row of the server's contents listing.
type contentEntry struct {
	Name         string `json:"name"`
	Path         string `json:"path"`
	Type         string `json:"type"`
	Size         int64  `json:"size"`
	LastModified string `json:"last_modified"`
}

type contentsListing struct {
	Content []contentEntry `json:"content"`
}

// contentsDocument wraps a full notebook fetch; the document itself sits
// under the content key.
type contentsDocument struct {
	Content json.RawMessage `json:"content"`
}

// ListNotebooks fetches the server's notebook listing and replaces the
// cached copy. On failure the cache keeps its previous value and the error
// goes to the caller.
func (c *Client) ListNotebooks(ctx context.Context) ([]types.NotebookEntry, error) {
	entries, err := c.fetchListing(ctx, "list_notebooks")
	if err != nil {
		return nil, err
	}

	c.mu.Lock()
	c.notebooks = append([]types.NotebookEntry(nil), entries...)
	c.mu.Unlock()
	return entries, nil
}

// Notebooks returns the cached listing from the last successful fetch.
func (c *Client) Notebooks() []types.NotebookEntry {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return append([]types.NotebookEntry(nil), c.notebooks...)
}

func (c *Client) fetchListing(ctx context.Context, op string) ([]types.NotebookEntry, error) {
	var listing contentsListing
	if err := c.getJSON(ctx, op, "/api/contents", map[string]string{"type": "notebook"}, &listing); err != nil {
		return nil, err
	}

	entries := make([]types.NotebookEntry, 0, len(listing.Content))
	for _, item := range listing.Content {
		if item.Type != "" && item.Type != "notebook" {
			continue
		}
		entry := types.NotebookEntry{
			Name: strings.TrimSuffix(item.Name, ".ipynb"),
			Path: item.Path,
			Size: item.Size,
		}
		if ts, err := time.Parse(time.RFC3339, item.LastModified); err == nil {
			entry.LastModified = ts.UTC()
		}
		entries = append(entries, entry)
	}
	sort.Slice(entries, func(i, j int) bool {
		if entries[i].Name != entries[j].Name {
			return entries[i].Name < entries[j].Name
		}
		return entries[i].Path < entries[j].Path
	})
	return entries, nil
}

// FetchNotebook retrieves the full document at the given server path. The
// result feeds the same decode and reconcile pipeline as local files.
func (c *Client) FetchNotebook(ctx context.Context, path string) (*types.Document, error) {
	if strings.TrimSpace(path) == "" {
		return nil, types.NewError(types.ErrFileRead, "empty notebook path")
	}

	endpoint := "/api/contents/" + escapePath(path)
	resp, err := c.getWithRetry(ctx, "fetch_notebook", endpoint, map[string]string{"content": "1"})
	if err != nil {
		return nil, err
	}
	if resp.StatusCode() == http.StatusNotFound {
		return nil, types.NewError(types.ErrFileRead, fmt.Sprintf("notebook %q not found on server", path))
	}
	if resp.IsError() {
		return nil, c.statusError("fetch_notebook", resp)
	}

	var wrapper contentsDocument
	if err := decodeBody("fetch_notebook", resp, &wrapper); err != nil {
		return nil, err
	}
	if len(wrapper.Content) == 0 {
		return nil, types.NewError(types.ErrDocumentParse, fmt.Sprintf("notebook %q has no content", path))
	}

	var doc types.Document
	if err := sonic.Unmarshal(wrapper.Content, &doc); err != nil {
		return nil, types.WrapError(types.ErrDocumentParse, err, "fetch_notebook document")
	}
	return &doc, nil
}

// escapePath escapes each path segment while keeping separators, so
// nested server paths survive URL encoding.
func escapePath(p string) string {
	segs := strings.Split(p, "/")
	for i, s := range segs {
		segs[i] = url.PathEscape(s)
	}
	return strings.Join(segs, "/")
}
