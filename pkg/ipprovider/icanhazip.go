package ipprovider

import (
	"context"
	"net/http"
)

const icanHazName = "icanhazip"

type ICanHazIp struct {
	// BaseUrl overrides the per-family endpoint.
	BaseUrl string
	Client  *http.Client
}

func (i *ICanHazIp) GetProviderName() string {
	return icanHazName
}

func (i *ICanHazIp) GetCurrentIP(ctx context.Context, family Family) (string, error) {
	url := "https://ipv4.icanhazip.com"
	if family == IPv6 {
		url = "https://ipv6.icanhazip.com"
	}
	if i.BaseUrl != "" {
		url = i.BaseUrl
	}

	body, err := httpGet(ctx, i.Client, url)
	if err != nil {
		return "", &ResolutionError{Provider: icanHazName, Err: err}
	}
	ip, err := parseAddress(string(body), family)
	if err != nil {
		return "", &ResolutionError{Provider: icanHazName, Err: err}
	}
	return ip, nil
}
