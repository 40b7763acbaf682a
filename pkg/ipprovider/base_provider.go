package ipprovider

import (
	"context"
	"errors"
)

type IncrementFunc func(provider string)

func GetProviderName(provider Provider) string {
	return provider.GetProviderName()
}

// GetCurrentIP queries provider once. Any failure is returned as a
// *ResolutionError.
func GetCurrentIP(ctx context.Context, provider Provider, family Family, incrementFunc IncrementFunc) (string, error) {
	if incrementFunc != nil {
		incrementFunc(provider.GetProviderName())
	}
	ip, err := provider.GetCurrentIP(ctx, family)
	if err != nil {
		var resErr *ResolutionError
		if errors.As(err, &resErr) {
			return "", err
		}
		return "", &ResolutionError{Provider: provider.GetProviderName(), Err: err}
	}
	return ip, nil
}
