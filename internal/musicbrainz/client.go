// Package musicbrainz reads artist and release group metadata from the
// MusicBrainz JSON web service.
package musicbrainz

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"coverharvest/internal/release"
)

// DefaultBaseURL is the public MusicBrainz web service root.
const DefaultBaseURL = "https://musicbrainz.org/ws/2"

const browsePageSize = 100

// ErrArtistNotFound is returned when an artist search has no hits.
var ErrArtistNotFound = errors.New("artist not found")

// Fetcher performs GET requests. *fetch.Client satisfies it.
type Fetcher interface {
	Get(ctx context.Context, url string) ([]byte, error)
}

// Client queries MusicBrainz through a Fetcher so rate limiting and retries
// stay in one place.
type Client struct {
	fetcher Fetcher
	baseURL string
}

// New returns a Client. An empty baseURL selects DefaultBaseURL.
func New(fetcher Fetcher, baseURL string) *Client {
	baseURL = strings.TrimRight(strings.TrimSpace(baseURL), "/")
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &Client{fetcher: fetcher, baseURL: baseURL}
}

// ArtistHit is one result of an artist search.
type ArtistHit struct {
	ID             string `json:"id"`
	Name           string `json:"name"`
	Disambiguation string `json:"disambiguation"`
	Score          int    `json:"score"`
}

type artistSearch struct {
	Artists []ArtistHit `json:"artists"`
}

// SearchArtist returns the first hit of a free-text artist search.
func (c *Client) SearchArtist(ctx context.Context, name string) (ArtistHit, error) {
	params := url.Values{}
	params.Set("query", escapeQuery(name))
	params.Set("fmt", "json")
	var payload artistSearch
	if err := c.getJSON(ctx, "/artist?"+params.Encode(), &payload); err != nil {
		return ArtistHit{}, fmt.Errorf("search artist %q: %w", name, err)
	}
	if len(payload.Artists) == 0 || payload.Artists[0].ID == "" {
		return ArtistHit{}, fmt.Errorf("%w: %q", ErrArtistNotFound, name)
	}
	return payload.Artists[0], nil
}

type releaseGroupBrowse struct {
	Count  int `json:"release-group-count"`
	Offset int `json:"release-group-offset"`
	Groups []struct {
		ID string `json:"id"`
	} `json:"release-groups"`
}

// ReleaseGroupIDs lists every release group credited to the artist, paging
// through the browse endpoint.
func (c *Client) ReleaseGroupIDs(ctx context.Context, artistID string) ([]string, error) {
	var ids []string
	offset := 0
	for {
		params := url.Values{}
		params.Set("artist", artistID)
		params.Set("limit", strconv.Itoa(browsePageSize))
		params.Set("offset", strconv.Itoa(offset))
		params.Set("fmt", "json")

		var page releaseGroupBrowse
		if err := c.getJSON(ctx, "/release-group?"+params.Encode(), &page); err != nil {
			return nil, fmt.Errorf("browse release groups for %s: %w", artistID, err)
		}
		for _, group := range page.Groups {
			if group.ID != "" {
				ids = append(ids, group.ID)
			}
		}
		offset += len(page.Groups)
		if len(page.Groups) == 0 || offset >= page.Count {
			return ids, nil
		}
	}
}

// ReleaseGroup fetches a release group with its artist credit and genres.
func (c *Client) ReleaseGroup(ctx context.Context, id string) (release.Group, error) {
	params := url.Values{}
	params.Set("inc", "artists genres")
	params.Set("fmt", "json")
	var group release.Group
	if err := c.getJSON(ctx, "/release-group/"+url.PathEscape(id)+"?"+params.Encode(), &group); err != nil {
		return release.Group{}, fmt.Errorf("fetch release group %s: %w", id, err)
	}
	return group, nil
}

func (c *Client) getJSON(ctx context.Context, path string, out any) error {
	body, err := c.fetcher.Get(ctx, c.baseURL+path)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

var luceneEscaper = strings.NewReplacer(
	`\`, `\\`, `+`, `\+`, `-`, `\-`, `!`, `\!`, `(`, `\(`, `)`, `\)`,
	`{`, `\{`, `}`, `\}`, `[`, `\[`, `]`, `\]`, `^`, `\^`, `"`, `\"`,
	`~`, `\~`, `*`, `\*`, `?`, `\?`, `:`, `\:`, `/`, `\/`, `&`, `\&`, `|`, `\|`,
)

// escapeQuery neutralizes Lucene syntax so names like "AC/DC" or "!!!" are
// searched literally.
func escapeQuery(name string) string {
	return luceneEscaper.Replace(strings.TrimSpace(name))
}
