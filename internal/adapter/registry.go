package adapter

import (
	"errors"
	"fmt"
	"net/http"
	"net/url"

	"github.com/amishk599/jobdigest/internal/model"
)

// Source kinds understood by the registry.
const (
	KindGreenhouse = "greenhouse"
	KindLever      = "lever"
	KindAshby      = "ashby"
	KindJSONLD     = "jsonld"
)

// ErrUnknownKind is returned by Build for a source kind with no adapter.
var ErrUnknownKind = errors.New("unknown source kind")

// Kinds lists every supported source kind.
func Kinds() []string {
	return []string{KindGreenhouse, KindLever, KindAshby, KindJSONLD}
}

// Decorator wraps a freshly built adapter, e.g. with retries or rate limiting.
type Decorator func(src model.Source, a model.SourceAdapter) model.SourceAdapter

// Registry builds the adapter for a Source record.
type Registry struct {
	client     *http.Client
	decorators []Decorator
}

// NewRegistry returns a registry whose adapters share client. Decorators
// are applied in order, so the last one is outermost.
func NewRegistry(client *http.Client, decorators ...Decorator) *Registry {
	return &Registry{client: client, decorators: decorators}
}

// Build returns the adapter for src.
func (r *Registry) Build(src model.Source) (model.SourceAdapter, error) {
	if err := Validate(src); err != nil {
		return nil, err
	}

	var a model.SourceAdapter
	switch src.Kind {
	case KindGreenhouse:
		a = NewGreenhouseAdapter(src.Name, src.BoardToken, src.Name, r.client)
	case KindLever:
		a = NewLeverAdapter(src.Name, src.BoardToken, src.Name, r.client)
	case KindAshby:
		a = NewAshbyAdapter(src.Name, src.BoardToken, src.Name, r.client)
	case KindJSONLD:
		a = NewJSONLDAdapter(src.Name, src.ListingURL, r.client)
	}

	for _, d := range r.decorators {
		a = d(src, a)
	}
	return a, nil
}

// Validate checks that src carries the fields its kind needs.
func Validate(src model.Source) error {
	switch src.Kind {
	case KindGreenhouse, KindLever, KindAshby:
		if src.BoardToken == "" {
			return fmt.Errorf("source %q: %s requires a board token", src.Name, src.Kind)
		}
	case KindJSONLD:
		if src.ListingURL == "" {
			return fmt.Errorf("source %q: jsonld requires a listing url", src.Name)
		}
		if _, err := url.ParseRequestURI(src.ListingURL); err != nil {
			return fmt.Errorf("source %q: invalid listing url: %w", src.Name, err)
		}
	default:
		return fmt.Errorf("source %q: %w %q", src.Name, ErrUnknownKind, src.Kind)
	}
	return nil
}

// Host returns the network host an adapter for src talks to. Sources on
// the same host share a rate-limit budget.
func Host(src model.Source) string {
	var raw string
	switch src.Kind {
	case KindGreenhouse:
		raw = greenhouseBaseURL
	case KindLever:
		raw = leverBaseURL
	case KindAshby:
		raw = ashbyBaseURL
	default:
		raw = src.ListingURL
	}
	u, err := url.Parse(raw)
	if err != nil || u.Host == "" {
		return src.Kind
	}
	return u.Host
}
