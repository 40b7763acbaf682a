package cloudflare

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"

	"github.com/larivierec/cfddns/pkg/cloudprovider"
)

const DefaultAPIURL = "https://api.cloudflare.com/client/v4"

const perPage = 100

type CloudflareProvider struct {
	config  Configuration
	baseURL string
	http    *http.Client
}

// Configuration carries the credentials. When AccountEmail is set ApiKey is
// sent as a global API key, otherwise CloudflareToken is sent as a bearer token.
type Configuration struct {
	ApiKey          string
	AccountEmail    string
	CloudflareToken string
}

type Option func(*CloudflareProvider)

// WithBaseURL points the provider at another API root.
func WithBaseURL(u string) Option {
	return func(c *CloudflareProvider) {
		c.baseURL = u
	}
}

// WithHTTPClient replaces http.DefaultClient.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *CloudflareProvider) {
		if hc != nil {
			c.http = hc
		}
	}
}

func NewCloudflareProvider(config Configuration, opts ...Option) *CloudflareProvider {
	c := &CloudflareProvider{
		config:  config,
		baseURL: DefaultAPIURL,
		http:    http.DefaultClient,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

type resultInfo struct {
	Page       int `json:"page"`
	PerPage    int `json:"per_page"`
	TotalPages int `json:"total_pages"`
}

type listResponse struct {
	Result     []cloudprovider.Record `json:"result"`
	ResultInfo resultInfo             `json:"result_info"`
}

type updatePayload struct {
	Type    string `json:"type"`
	Name    string `json:"name"`
	Content string `json:"content"`
	TTL     int    `json:"ttl"`
	Proxied bool   `json:"proxied"`
}

// ListDNSRecords implements cloudprovider.Provider. Pages are followed until
// result_info.total_pages is reached.
func (c *CloudflareProvider) ListDNSRecords(ctx context.Context, zoneID string) ([]cloudprovider.Record, error) {
	var records []cloudprovider.Record
	for page := 1; ; page++ {
		query := url.Values{}
		query.Set("page", strconv.Itoa(page))
		query.Set("per_page", strconv.Itoa(perPage))
		endpoint := fmt.Sprintf("%s/zones/%s/dns_records?%s", c.baseURL, url.PathEscape(zoneID), query.Encode())

		req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
		if err != nil {
			return nil, fmt.Errorf("error creating list request: %w", err)
		}

		body, err := c.do(req)
		if err != nil {
			return nil, err
		}

		var result listResponse
		if err := json.Unmarshal(body, &result); err != nil {
			return nil, fmt.Errorf("error decoding DNS records: %w", err)
		}
		records = append(records, result.Result...)

		if page >= result.ResultInfo.TotalPages {
			return records, nil
		}
	}
}

// UpdateDNSRecord implements cloudprovider.Provider.
func (c *CloudflareProvider) UpdateDNSRecord(ctx context.Context, zoneID string, rec cloudprovider.Record, content string) error {
	endpoint := fmt.Sprintf("%s/zones/%s/dns_records/%s", c.baseURL, url.PathEscape(zoneID), url.PathEscape(rec.ID))
	data, err := json.Marshal(updatePayload{
		Type:    rec.Type,
		Name:    rec.Name,
		Content: content,
		TTL:     cloudprovider.AutomaticTTL,
		Proxied: rec.Proxied,
	})
	if err != nil {
		return fmt.Errorf("error encoding DNS record: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPut, endpoint, bytes.NewReader(data))
	if err != nil {
		return fmt.Errorf("error creating update request: %w", err)
	}

	_, err = c.do(req)
	return err
}

// do sends req and returns the body of a 200 response. The response body is
// always closed before returning.
func (c *CloudflareProvider) do(req *http.Request) ([]byte, error) {
	c.setHeaders(req)

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("error calling %s %s: %w", req.Method, req.URL.Path, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("error reading response body: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, &cloudprovider.APIError{Status: resp.StatusCode, Body: string(body)}
	}
	return body, nil
}

func (c *CloudflareProvider) setHeaders(req *http.Request) {
	if c.config.AccountEmail != "" {
		req.Header.Set("X-Auth-Email", c.config.AccountEmail)
		req.Header.Set("X-Auth-Key", c.config.ApiKey)
	} else {
		req.Header.Set("Authorization", "Bearer "+c.config.CloudflareToken)
	}
	req.Header.Set("Content-Type", "application/json")
}
