package ipprovider

import (
	"context"
	"fmt"
	"net/netip"
	"strings"
)

// Family selects the address family an IP is discovered for.
type Family int

const (
	IPv4 Family = iota
	IPv6
)

// FamilyOf maps the ipv6 configuration flag to a Family.
func FamilyOf(ipv6 bool) Family {
	if ipv6 {
		return IPv6
	}
	return IPv4
}

func (f Family) String() string {
	if f == IPv6 {
		return "ipv6"
	}
	return "ipv4"
}

type Provider interface {
	GetCurrentIP(ctx context.Context, family Family) (string, error)
	GetProviderName() string
}

// ResolutionError is returned when the public address could not be discovered.
type ResolutionError struct {
	Provider string
	Err      error
}

func (e *ResolutionError) Error() string {
	return fmt.Sprintf("unable to resolve public ip with %s: %v", e.Provider, e.Err)
}

func (e *ResolutionError) Unwrap() error {
	return e.Err
}

// New returns the provider registered under name.
func New(name string) (Provider, error) {
	switch name {
	case "", whoamiName:
		return &Whoami{}, nil
	case ipifyName:
		return &Ipify{}, nil
	case icanHazName, "icanhaz":
		return &ICanHazIp{}, nil
	default:
		return nil, fmt.Errorf("unknown ip provider %q", name)
	}
}

// parseAddress trims quotes and whitespace from raw and checks that it is an
// address of the requested family.
func parseAddress(raw string, family Family) (string, error) {
	s := strings.TrimSpace(strings.ReplaceAll(raw, `"`, ""))
	if s == "" {
		return "", fmt.Errorf("empty response")
	}
	addr, err := netip.ParseAddr(s)
	if err != nil {
		return "", fmt.Errorf("unable to parse %q: %w", s, err)
	}
	switch {
	case family == IPv4 && !addr.Is4():
		return "", fmt.Errorf("%s is not an ipv4 address", addr)
	case family == IPv6 && (!addr.Is6() || addr.Is4In6()):
		return "", fmt.Errorf("%s is not an ipv6 address", addr)
	}
	return addr.String(), nil
}
