// Package supabase implements the remote object store and table on top of the
// Supabase Storage and PostgREST HTTP APIs.
//
// The project is expected to define two SQL functions callable over RPC:
// file_exists(bucket_id text, file_path text) returning boolean, and
// get_column_names(tablename text) returning the table's column names.
package supabase

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"coverharvest/internal/record"
)

// Sender issues HTTP requests under the shared retry policy. *fetch.Client
// satisfies it.
type Sender interface {
	Send(ctx context.Context, method, url string, body []byte, header http.Header) ([]byte, error)
}

// Client talks to one Supabase project.
type Client struct {
	sender  Sender
	baseURL string
	key     string
}

// New returns a Client for the project at baseURL authenticated with key.
func New(sender Sender, baseURL, key string) (*Client, error) {
	baseURL = strings.TrimRight(strings.TrimSpace(baseURL), "/")
	if baseURL == "" {
		return nil, errors.New("supabase: url is required")
	}
	if strings.TrimSpace(key) == "" {
		return nil, errors.New("supabase: key is required")
	}
	return &Client{sender: sender, baseURL: baseURL, key: strings.TrimSpace(key)}, nil
}

func (c *Client) header(contentType string) http.Header {
	h := http.Header{}
	h.Set("apikey", c.key)
	h.Set("Authorization", "Bearer "+c.key)
	h.Set("Accept", "application/json")
	if contentType != "" {
		h.Set("Content-Type", contentType)
	}
	return h
}

func (c *Client) rpc(ctx context.Context, name string, args any) ([]byte, error) {
	body, err := json.Marshal(args)
	if err != nil {
		return nil, fmt.Errorf("supabase: encode %s args: %w", name, err)
	}
	resp, err := c.sender.Send(ctx, http.MethodPost, c.baseURL+"/rest/v1/rpc/"+name, body, c.header("application/json"))
	if err != nil {
		return nil, fmt.Errorf("supabase: rpc %s: %w", name, err)
	}
	return resp, nil
}

func escapePath(objectPath string) string {
	segments := strings.Split(strings.Trim(objectPath, "/"), "/")
	for i, s := range segments {
		segments[i] = url.PathEscape(s)
	}
	return strings.Join(segments, "/")
}

// Storage is a bucket in Supabase Storage.
type Storage struct {
	client *Client
	bucket string
}

// Storage returns the object store for bucket.
func (c *Client) Storage(bucket string) *Storage {
	return &Storage{client: c, bucket: strings.TrimSpace(bucket)}
}

// Exists reports whether objectPath is present in the bucket.
func (s *Storage) Exists(ctx context.Context, objectPath string) (bool, error) {
	resp, err := s.client.rpc(ctx, "file_exists", map[string]string{
		"bucket_id": s.bucket,
		"file_path": objectPath,
	})
	if err != nil {
		return false, err
	}
	return truthy(resp)
}

// Upload stores data at objectPath. Existing objects are not overwritten.
func (s *Storage) Upload(ctx context.Context, objectPath string, data []byte, contentType string) error {
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	header := s.client.header(contentType)
	header.Set("x-upsert", "false")
	endpoint := s.client.baseURL + "/storage/v1/object/" + url.PathEscape(s.bucket) + "/" + escapePath(objectPath)
	if _, err := s.client.sender.Send(ctx, http.MethodPost, endpoint, data, header); err != nil {
		return fmt.Errorf("supabase: upload %s: %w", objectPath, err)
	}
	return nil
}

// PublicURL returns the public download URL of objectPath.
func (s *Storage) PublicURL(objectPath string) string {
	return s.client.baseURL + "/storage/v1/object/public/" + url.PathEscape(s.bucket) + "/" + escapePath(objectPath)
}

// Table is a PostgREST-exposed table.
type Table struct {
	client *Client
	name   string
}

// Table returns the table called name.
func (c *Client) Table(name string) *Table {
	return &Table{client: c, name: strings.TrimSpace(name)}
}

// Columns lists the table's column names via the get_column_names RPC.
func (t *Table) Columns(ctx context.Context) ([]string, error) {
	resp, err := t.client.rpc(ctx, "get_column_names", map[string]string{"tablename": t.name})
	if err != nil {
		return nil, err
	}
	var raw []json.RawMessage
	if err := json.Unmarshal(resp, &raw); err != nil {
		return nil, fmt.Errorf("supabase: decode columns: %w", err)
	}
	columns := make([]string, 0, len(raw))
	for _, item := range raw {
		var name string
		if err := json.Unmarshal(item, &name); err == nil {
			columns = append(columns, name)
			continue
		}
		var row struct {
			ColumnName string `json:"column_name"`
		}
		if err := json.Unmarshal(item, &row); err != nil || row.ColumnName == "" {
			return nil, fmt.Errorf("supabase: unexpected column entry %s", item)
		}
		columns = append(columns, row.ColumnName)
	}
	return columns, nil
}

// RowExists reports whether a row with column = value exists.
func (t *Table) RowExists(ctx context.Context, column, value string) (bool, error) {
	params := url.Values{}
	params.Set("select", column)
	params.Set(column, "eq."+value)
	params.Set("limit", "1")
	endpoint := t.client.baseURL + "/rest/v1/" + url.PathEscape(t.name) + "?" + params.Encode()
	resp, err := t.client.sender.Send(ctx, http.MethodGet, endpoint, nil, t.client.header(""))
	if err != nil {
		return false, fmt.Errorf("supabase: select %s: %w", t.name, err)
	}
	var rows []json.RawMessage
	if err := json.Unmarshal(resp, &rows); err != nil {
		return false, fmt.Errorf("supabase: decode rows: %w", err)
	}
	return len(rows) > 0, nil
}

// Insert adds rec as a new row.
func (t *Table) Insert(ctx context.Context, rec record.Record) error {
	body, err := json.Marshal(rec.Map())
	if err != nil {
		return fmt.Errorf("supabase: encode row: %w", err)
	}
	header := t.client.header("application/json")
	header.Set("Prefer", "return=minimal")
	endpoint := t.client.baseURL + "/rest/v1/" + url.PathEscape(t.name)
	if _, err := t.client.sender.Send(ctx, http.MethodPost, endpoint, body, header); err != nil {
		return fmt.Errorf("supabase: insert into %s: %w", t.name, err)
	}
	return nil
}

// truthy interprets an RPC result as a boolean: JSON true, or a non-empty
// array for set-returning functions.
func truthy(resp []byte) (bool, error) {
	resp = bytes.TrimSpace(resp)
	if len(resp) == 0 || bytes.Equal(resp, []byte("null")) {
		return false, nil
	}
	var value any
	if err := json.Unmarshal(resp, &value); err != nil {
		return false, fmt.Errorf("supabase: decode rpc result: %w", err)
	}
	switch v := value.(type) {
	case bool:
		return v, nil
	case []any:
		return len(v) > 0, nil
	default:
		return false, fmt.Errorf("supabase: unexpected rpc result %s", resp)
	}
}
