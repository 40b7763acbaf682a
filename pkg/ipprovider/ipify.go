package ipprovider

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
)

const ipifyName = "ipify"

type Ipify struct {
	// BaseUrl overrides the per-family endpoint.
	BaseUrl string
	Client  *http.Client
}

type IpInfo struct {
	Ip string `json:"ip"`
}

func (i *Ipify) GetProviderName() string {
	return ipifyName
}

func (i *Ipify) GetCurrentIP(ctx context.Context, family Family) (string, error) {
	url := "https://api.ipify.org?format=json"
	if family == IPv6 {
		url = "https://api6.ipify.org?format=json"
	}
	if i.BaseUrl != "" {
		url = i.BaseUrl
	}

	body, err := httpGet(ctx, i.Client, url)
	if err != nil {
		return "", &ResolutionError{Provider: ipifyName, Err: err}
	}

	ipInfo := IpInfo{}
	if err := json.Unmarshal(body, &ipInfo); err != nil {
		return "", &ResolutionError{Provider: ipifyName, Err: fmt.Errorf("error decoding response: %w", err)}
	}
	ip, err := parseAddress(ipInfo.Ip, family)
	if err != nil {
		return "", &ResolutionError{Provider: ipifyName, Err: err}
	}
	return ip, nil
}

func httpGet(ctx context.Context, client *http.Client, url string) ([]byte, error) {
	if client == nil {
		client = http.DefaultClient
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("error creating request: %w", err)
	}
	req.Header.Set("Cache-Control", "no-cache")

	response, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("http request failed: %w", err)
	}
	defer response.Body.Close()

	if response.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("http request returned %s", response.Status)
	}
	return io.ReadAll(response.Body)
}
