package cloudflare

import (
	"context"
	"fmt"

	cf "github.com/cloudflare/cloudflare-go"
)

// Verification describes what the credentials are able to reach.
type Verification struct {
	TokenID     string
	TokenStatus string
	ZoneName    string
}

// Verify checks that the configured credentials are usable for zoneID. Bearer
// tokens must report status "active"; global API keys are only checked
// against the zone.
func (c *CloudflareProvider) Verify(ctx context.Context, zoneID string) (Verification, error) {
	var v Verification

	api, err := c.sdk()
	if err != nil {
		return v, fmt.Errorf("error creating api client: %w", err)
	}

	if c.config.AccountEmail == "" {
		token, err := api.VerifyAPIToken(ctx)
		if err != nil {
			return v, fmt.Errorf("unable to verify api token: %w", err)
		}
		v.TokenID, v.TokenStatus = token.ID, token.Status
		if token.Status != "active" {
			return v, fmt.Errorf("expected api token status to be \"active\"; got \"%s\"", token.Status)
		}
	}

	zone, err := api.ZoneDetails(ctx, zoneID)
	if err != nil {
		return v, fmt.Errorf("unable to read zone %s: %w", zoneID, err)
	}
	v.ZoneName = zone.Name
	return v, nil
}

func (c *CloudflareProvider) sdk() (*cf.API, error) {
	opts := []cf.Option{cf.BaseURL(c.baseURL), cf.HTTPClient(c.http)}
	if c.config.AccountEmail != "" {
		return cf.New(c.config.ApiKey, c.config.AccountEmail, opts...)
	}
	return cf.NewWithAPIToken(c.config.CloudflareToken, opts...)
}
