// Package doma wraps the Doma registry's poll/ack REST API and its GraphQL
// domain query endpoint.
package doma

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	models "domatrend/database/models_pkg"
)

// Client is a Doma registry API client
type Client struct {
	baseURL string
	apiKey  string
	timeout time.Duration
	client  *http.Client
}

// NewClient creates a new Doma registry client
func NewClient(baseURL, apiKey string, timeout time.Duration) *Client {
	transport := &http.Transport{
		MaxIdleConns:        100,
		MaxIdleConnsPerHost: 10,
		IdleConnTimeout:     90 * time.Second,
	}

	return &Client{
		baseURL: baseURL,
		apiKey:  apiKey,
		timeout: timeout,
		client: &http.Client{
			Transport: transport,
			// No client timeout - per-request contexts control deadlines
		},
	}
}

// Event is one registry event as delivered by the poll API
type Event struct {
	ID        int64      `json:"id"`
	Type      string     `json:"type"`
	Name      string     `json:"name"`
	UniqueID  string     `json:"uniqueId"`
	EventData *EventData `json:"eventData,omitempty"`
}

// EventData is the optional per-event payload
type EventData struct {
	TxHash       string   `json:"txHash,omitempty"`
	TokenAddress string   `json:"tokenAddress,omitempty"`
	TokenID      string   `json:"tokenId,omitempty"`
	NetworkID    string   `json:"networkId,omitempty"`
	Payment      *Payment `json:"payment,omitempty"`
}

// Payment carries the string-encoded payment amount attached to an event
type Payment struct {
	Price string `json:"price"`
}

// PollResult is the poll API response
type PollResult struct {
	Events        []Event `json:"events"`
	LastID        int64   `json:"lastId"`
	HasMoreEvents bool    `json:"hasMoreEvents"`
}

// Poll requests up to limit finalized events after the last acknowledged cursor
func (c *Client) Poll(ctx context.Context, limit int, finalizedOnly bool) (*PollResult, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	url := fmt.Sprintf("%s/v1/poll?limit=%d&finalizedOnly=%t", c.baseURL, limit, finalizedOnly)
	req, err := http.NewRequestWithContext(ctx, "GET", url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	c.setHeaders(req)

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("poll request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("poll API error %d: %s", resp.StatusCode, string(body))
	}

	var result PollResult
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("failed to decode poll response: %w", err)
	}
	return &result, nil
}

// Ack advances the registry's server-side cursor past lastID. Callers are
// expected to treat failures as benign: unacknowledged events are simply
// re-delivered and deduplicated by the event store.
func (c *Client) Ack(ctx context.Context, lastID int64) error {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	url := fmt.Sprintf("%s/v1/poll/ack/%d", c.baseURL, lastID)
	req, err := http.NewRequestWithContext(ctx, "POST", url, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	c.setHeaders(req)

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("ack request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("ack API error %d: %s", resp.StatusCode, string(body))
	}
	return nil
}

// QueryFilters narrows a GraphQL domain query
type QueryFilters struct {
	Name        string
	ClaimStatus string
	Take        int
	Skip        int
}

const domainsQuery = `
query GetNames($skip: Int, $take: Int, $claimStatus: NamesQueryClaimStatus, $name: String) {
  names(skip: $skip, take: $take, claimStatus: $claimStatus, name: $name) {
    items {
      name
      tokens {
        tokenId
        networkId
        ownerAddress
        createdAt
        expiresAt
        tokenAddress
      }
    }
    totalCount
  }
}`

type graphqlRequest struct {
	Query     string                 `json:"query"`
	Variables map[string]interface{} `json:"variables"`
}

type graphqlDomain struct {
	Name   string `json:"name"`
	Tokens []struct {
		TokenID      string `json:"tokenId"`
		NetworkID    string `json:"networkId"`
		OwnerAddress string `json:"ownerAddress"`
		CreatedAt    string `json:"createdAt"`
		ExpiresAt    string `json:"expiresAt"`
		TokenAddress string `json:"tokenAddress"`
	} `json:"tokens"`
}

type graphqlResponse struct {
	Data struct {
		Names struct {
			Items      []graphqlDomain `json:"items"`
			TotalCount int             `json:"totalCount"`
		} `json:"names"`
	} `json:"data"`
}

// QueryDomains fetches registry snapshots via the GraphQL API
func (c *Client) QueryDomains(ctx context.Context, filters QueryFilters) ([]models.DomainRecord, int, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	take := filters.Take
	if take <= 0 {
		take = 100
	}
	claimStatus := filters.ClaimStatus
	if claimStatus == "" {
		claimStatus = "ALL"
	}

	variables := map[string]interface{}{
		"skip":        filters.Skip,
		"take":        take,
		"claimStatus": claimStatus,
	}
	if filters.Name != "" {
		variables["name"] = filters.Name
	}

	jsonData, err := json.Marshal(graphqlRequest{Query: domainsQuery, Variables: variables})
	if err != nil {
		return nil, 0, fmt.Errorf("failed to marshal query: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, "POST", c.baseURL+"/graphql", bytes.NewReader(jsonData))
	if err != nil {
		return nil, 0, fmt.Errorf("failed to create request: %w", err)
	}
	c.setHeaders(req)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, 0, fmt.Errorf("query request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, 0, fmt.Errorf("graphql API error %d: %s", resp.StatusCode, string(body))
	}

	var parsed graphqlResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return nil, 0, fmt.Errorf("failed to decode graphql response: %w", err)
	}

	records := make([]models.DomainRecord, 0, len(parsed.Data.Names.Items))
	for _, item := range parsed.Data.Names.Items {
		records = append(records, mapDomain(item))
	}
	return records, parsed.Data.Names.TotalCount, nil
}

// DomainByName fetches a single domain snapshot, nil when the registry has
// no record for it.
func (c *Client) DomainByName(ctx context.Context, domainName string) (*models.DomainRecord, error) {
	records, _, err := c.QueryDomains(ctx, QueryFilters{Name: domainName, Take: 1})
	if err != nil {
		return nil, err
	}
	if len(records) == 0 {
		return nil, nil
	}
	return &records[0], nil
}

// mapDomain converts a GraphQL item to a DomainRecord, taking the first
// token when multiple exist.
func mapDomain(item graphqlDomain) models.DomainRecord {
	record := models.DomainRecord{
		Name:        item.Name,
		ClaimStatus: models.ClaimStatusUnclaimed,
		NetworkID:   "unknown",
	}

	if len(item.Tokens) == 0 {
		return record
	}

	token := item.Tokens[0]
	if token.OwnerAddress != "" {
		owner := token.OwnerAddress
		record.Owner = &owner
		record.ClaimStatus = models.ClaimStatusClaimed
	}
	if token.NetworkID != "" {
		record.NetworkID = token.NetworkID
	}
	if token.TokenID != "" {
		tokenID := token.TokenID
		record.TokenID = &tokenID
	}
	if token.TokenAddress != "" {
		addr := token.TokenAddress
		record.TokenAddress = &addr
	}
	if minted := parseTime(token.CreatedAt); minted != nil {
		record.MintedAt = minted
	}
	if active := parseTime(token.ExpiresAt); active != nil {
		record.LastActivityAt = active
	}
	return record
}

func parseTime(raw string) *time.Time {
	if raw == "" {
		return nil
	}
	t, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		return nil
	}
	return &t
}

// ExtractPrice parses the string payment amount attached to an event.
// Missing or unparseable amounts yield nil rather than an error.
func ExtractPrice(event *Event) *float64 {
	if event.EventData == nil || event.EventData.Payment == nil {
		return nil
	}
	price, err := strconv.ParseFloat(event.EventData.Payment.Price, 64)
	if err != nil {
		return nil
	}
	return &price
}

// ExtractNetworkID returns the event's network id, nil when absent
func ExtractNetworkID(event *Event) *string {
	if event.EventData == nil || event.EventData.NetworkID == "" {
		return nil
	}
	networkID := event.EventData.NetworkID
	return &networkID
}

// ExtractTxHash returns the event's transaction hash, nil when absent
func ExtractTxHash(event *Event) *string {
	if event.EventData == nil || event.EventData.TxHash == "" {
		return nil
	}
	txHash := event.EventData.TxHash
	return &txHash
}

func (c *Client) setHeaders(req *http.Request) {
	if c.apiKey != "" {
		req.Header.Set("Api-Key", c.apiKey)
	}
}
