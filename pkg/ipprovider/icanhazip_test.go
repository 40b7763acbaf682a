package ipprovider_test

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/larivierec/cfddns/pkg/ipprovider"
	"gotest.tools/v3/assert"
)

func serve(t *testing.T, status int, body string) string {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(status)
		io.WriteString(w, body)
	}))
	t.Cleanup(srv.Close)
	return srv.URL
}

func TestICanHaz(t *testing.T) {
	url := serve(t, http.StatusOK, "203.0.113.9\n")
	ip, err := ipprovider.GetCurrentIP(context.Background(), &ipprovider.ICanHazIp{BaseUrl: url}, ipprovider.IPv4, nil)
	assert.NilError(t, err)
	assert.Equal(t, ip, "203.0.113.9")
}

func TestICanHaz_IPv6(t *testing.T) {
	url := serve(t, http.StatusOK, "2001:db8:0:0::1\n")
	ip, err := ipprovider.GetCurrentIP(context.Background(), &ipprovider.ICanHazIp{BaseUrl: url}, ipprovider.IPv6, nil)
	assert.NilError(t, err)
	assert.Equal(t, ip, "2001:db8::1")
}

func TestIpify(t *testing.T) {
	url := serve(t, http.StatusOK, `{"ip":"203.0.113.9"}`)
	ip, err := ipprovider.GetCurrentIP(context.Background(), &ipprovider.Ipify{BaseUrl: url}, ipprovider.IPv4, nil)
	assert.NilError(t, err)
	assert.Equal(t, ip, "203.0.113.9")
}

func TestIpify_BadStatus(t *testing.T) {
	url := serve(t, http.StatusBadGateway, "")
	_, err := ipprovider.GetCurrentIP(context.Background(), &ipprovider.Ipify{BaseUrl: url}, ipprovider.IPv4, nil)
	var resErr *ipprovider.ResolutionError
	assert.Assert(t, errors.As(err, &resErr))
	assert.Equal(t, resErr.Provider, "ipify")
	assert.ErrorContains(t, err, "502")
}

type plainFailure struct{}

func (plainFailure) GetCurrentIP(context.Context, ipprovider.Family) (string, error) {
	return "", errors.New("no route")
}

func (plainFailure) GetProviderName() string { return "plain" }

func TestGetCurrentIP_WrapsErrorsAndCounts(t *testing.T) {
	var counted []string
	_, err := ipprovider.GetCurrentIP(context.Background(), plainFailure{}, ipprovider.IPv4, func(provider string) {
		counted = append(counted, provider)
	})
	var resErr *ipprovider.ResolutionError
	assert.Assert(t, errors.As(err, &resErr))
	assert.Equal(t, resErr.Provider, "plain")
	assert.ErrorContains(t, err, "no route")
	assert.DeepEqual(t, counted, []string{"plain"})
}

func TestNew(t *testing.T) {
	for name, want := range map[string]string{
		"":          "whoami",
		"whoami":    "whoami",
		"ipify":     "ipify",
		"icanhazip": "icanhazip",
		"icanhaz":   "icanhazip",
	} {
		p, err := ipprovider.New(name)
		assert.NilError(t, err)
		assert.Equal(t, ipprovider.GetProviderName(p), want)
	}

	_, err := ipprovider.New("random")
	assert.ErrorContains(t, err, "unknown ip provider")
}

func TestFamilyOf(t *testing.T) {
	assert.Equal(t, ipprovider.FamilyOf(false), ipprovider.IPv4)
	assert.Equal(t, ipprovider.FamilyOf(true), ipprovider.IPv6)
	assert.Equal(t, ipprovider.IPv6.String(), "ipv6")
}
