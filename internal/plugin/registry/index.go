package registry

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	apehttp "github.com/jmylchreest/ape-plugins/internal/util/http"
)

// IndexDocument is the JSON served by an index registry.
type IndexDocument struct {
	Name    string   `json:"name,omitempty"`
	Plugins []string `json:"plugins"`
}

// Index reads available plugins from a JSON document served over HTTP.
type Index struct {
	url    string
	client *http.Client
}

// NewIndex creates an index registry. A nil client uses the fetch defaults.
func NewIndex(url string, client *http.Client) *Index {
	return &Index{url: url, client: client}
}

// Available implements Registry.
func (i *Index) Available(ctx context.Context) ([]string, error) {
	data, err := apehttp.Fetch(ctx, i.url, apehttp.FetchOptions{
		Client:  i.client,
		Headers: map[string]string{"Accept": "application/json"},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to fetch plugin index %q: %w", i.url, err)
	}

	var doc IndexDocument
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("failed to parse plugin index %q: %w", i.url, err)
	}

	return normalize(doc.Plugins), nil
}
