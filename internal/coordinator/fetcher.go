package coordinator

import (
	"Saffron/internal/entity"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"
)

// HTTPFetcher reads the admin collections over the REST API.
type HTTPFetcher struct {
	base   string
	token  string
	client *http.Client
}

func NewHTTPFetcher(serverURL, token string, client *http.Client) *HTTPFetcher {
	if client == nil {
		client = &http.Client{Timeout: 10 * time.Second}
	}
	return &HTTPFetcher{base: strings.TrimSuffix(serverURL, "/"), token: token, client: client}
}

// collection is an admin list endpoint and the JSON field holding the list.
// summarize reduces one stored record to the payload the realtime channel carries for it.
type collection struct {
	path      string
	field     string
	summarize func(raw json.RawMessage) (string, any, error)
}

var collections = map[Kind]collection{
	KindOrder:       {"/api/admin/orders", "orders", summarizeOrder},
	KindReservation: {"/api/admin/reservations", "reservations", summarizeReservation},
}

func summarizeOrder(raw json.RawMessage) (string, any, error) {
	var o entity.Order
	if err := json.Unmarshal(raw, &o); err != nil {
		return "", nil, err
	}
	return o.ID, entity.SummarizeOrder(o), nil
}

func summarizeReservation(raw json.RawMessage) (string, any, error) {
	var r entity.Reservation
	if err := json.Unmarshal(raw, &r); err != nil {
		return "", nil, err
	}
	return r.ID, entity.SummarizeReservation(r), nil
}

// Fetch returns the collection of kind with every record reduced to its channel summary,
// so polled and pushed notifications look the same to consumers.
func (f *HTTPFetcher) Fetch(ctx context.Context, kind Kind) ([]Item, error) {
	endpoint, ok := collections[kind]
	if !ok {
		return nil, fmt.Errorf("coordinator: %s is not a fetchable kind", kind)
	}
	var body map[string][]json.RawMessage
	if err := f.get(ctx, endpoint.path, &body); err != nil {
		return nil, err
	}
	items := make([]Item, 0, len(body[endpoint.field]))
	for _, raw := range body[endpoint.field] {
		id, summary, err := endpoint.summarize(raw)
		if err != nil || id == "" {
			continue
		}
		data, err := json.Marshal(summary)
		if err != nil {
			return nil, err
		}
		items = append(items, Item{ID: id, Data: data})
	}
	return items, nil
}

// FetchMetrics returns the dashboard aggregates.
func (f *HTTPFetcher) FetchMetrics(ctx context.Context) (entity.Metrics, error) {
	var body struct {
		Metrics entity.Metrics `json:"metrics"`
	}
	err := f.get(ctx, "/api/admin/metrics", &body)
	return body.Metrics, err
}

func (f *HTTPFetcher) get(ctx context.Context, path string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, f.base+path, nil)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")
	if f.token != "" {
		req.Header.Set("Authorization", "Bearer "+f.token)
	}
	resp, err := f.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("coordinator: GET %s responded %d", path, resp.StatusCode)
	}
	return json.NewDecoder(resp.Body).Decode(out)
}
