// Package embedding turns normalized cover images into fixed-length vectors
// by calling an image embedding service, and serializes those vectors into
// the record's embedding column.
package embedding

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/shopspring/decimal"
)

// ErrEmptyVector is returned when the service answers without an embedding.
var ErrEmptyVector = errors.New("embedding service returned an empty vector")

// Encoder produces an embedding for an encoded image.
type Encoder interface {
	Encode(ctx context.Context, image []byte) ([]float32, error)
}

// Sender issues HTTP requests under the shared retry policy. *fetch.Client
// satisfies it.
type Sender interface {
	Send(ctx context.Context, method, url string, body []byte, header http.Header) ([]byte, error)
}

// HTTPEncoder posts base64 images to an embedding endpoint.
type HTTPEncoder struct {
	sender   Sender
	endpoint string
	model    string
}

// NewHTTPEncoder returns an encoder for endpoint using model.
func NewHTTPEncoder(sender Sender, endpoint, model string) *HTTPEncoder {
	return &HTTPEncoder{sender: sender, endpoint: strings.TrimSpace(endpoint), model: model}
}

type encodeRequest struct {
	Model string `json:"model"`
	Image string `json:"image"`
}

type encodeResponse struct {
	Embedding []float32 `json:"embedding"`
}

// Encode sends the image and returns the vector.
func (e *HTTPEncoder) Encode(ctx context.Context, image []byte) ([]float32, error) {
	body, err := json.Marshal(encodeRequest{Model: e.model, Image: base64.StdEncoding.EncodeToString(image)})
	if err != nil {
		return nil, fmt.Errorf("encode embedding request: %w", err)
	}
	header := http.Header{}
	header.Set("Content-Type", "application/json")
	header.Set("Accept", "application/json")

	raw, err := e.sender.Send(ctx, http.MethodPost, e.endpoint, body, header)
	if err != nil {
		return nil, fmt.Errorf("embedding request: %w", err)
	}
	var resp encodeResponse
	if err := json.Unmarshal(raw, &resp); err != nil {
		return nil, fmt.Errorf("decode embedding response: %w", err)
	}
	if len(resp.Embedding) == 0 {
		return nil, ErrEmptyVector
	}
	return resp.Embedding, nil
}

// Format renders vec as "[v1,v2,...]" with plain decimal notation and no
// spaces.
func Format(vec []float32) string {
	var b strings.Builder
	b.Grow(len(vec)*12 + 2)
	b.WriteByte('[')
	for i, v := range vec {
		if i > 0 {
			b.WriteByte(',')
		}
		b.WriteString(decimal.NewFromFloat32(v).String())
	}
	b.WriteByte(']')
	return b.String()
}
