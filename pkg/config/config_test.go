package config_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/larivierec/cfddns/pkg/config"
	"gotest.tools/v3/assert"
)

func TestParse_KeyValue(t *testing.T) {
	input := `
# cfddns
zone_id = 023e105f4ecef8ad9ca31a8372d0c353
service_key = Bearer abcdef
domains = a.example.com, b.example.com,
ipv6 = yes
unknown = ignored
not a setting
`
	conf, err := config.Parse(strings.NewReader(input))
	assert.NilError(t, err)
	assert.Equal(t, conf.ZoneID, "023e105f4ecef8ad9ca31a8372d0c353")
	assert.Equal(t, conf.ServiceKey, "Bearer abcdef")
	assert.DeepEqual(t, conf.Domains, []string{"a.example.com", "b.example.com"})
	assert.Equal(t, conf.IPv6, true)
}

func TestLoad_KeyValueStripsBearer(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cfddns.conf")
	assert.NilError(t, os.WriteFile(path, []byte("zone_id=z\nservice_key=Bearer secret\ndomains=a.example.com\nipv6=no\n"), 0600))

	conf, err := config.Load(path)
	assert.NilError(t, err)
	assert.Equal(t, conf.ServiceKey, "secret")
	assert.Equal(t, conf.IPv6, false)
	assert.NilError(t, conf.Validate())
}

func TestLoad_YAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cfddns.yaml")
	data := `
zone_id: zone
service_key: token
domains:
  - a.example.com
  - " "
ipv6: true
`
	assert.NilError(t, os.WriteFile(path, []byte(data), 0600))

	conf, err := config.Load(path)
	assert.NilError(t, err)
	assert.DeepEqual(t, conf, config.Configuration{
		ZoneID:     "zone",
		ServiceKey: "token",
		Domains:    []string{"a.example.com"},
		IPv6:       true,
	})
}

func TestLoad_EnvOverrides(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cfddns.conf")
	assert.NilError(t, os.WriteFile(path, []byte("zone_id=file\nservice_key=file\ndomains=file.example.com\n"), 0600))

	t.Setenv("CFDDNS_ZONE_ID", "env-zone")
	t.Setenv("CFDDNS_DOMAINS", "x.example.com,y.example.com")
	t.Setenv("CFDDNS_IPV6", "true")

	conf, err := config.Load(path)
	assert.NilError(t, err)
	assert.Equal(t, conf.ZoneID, "env-zone")
	assert.Equal(t, conf.ServiceKey, "file")
	assert.DeepEqual(t, conf.Domains, []string{"x.example.com", "y.example.com"})
	assert.Equal(t, conf.IPv6, true)
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := config.Load(filepath.Join(t.TempDir(), "missing.conf"))
	assert.ErrorContains(t, err, "unable to open config")
}

func TestValidate(t *testing.T) {
	assert.ErrorContains(t, config.Configuration{ServiceKey: "k"}.Validate(), "zone_id")
	assert.ErrorContains(t, config.Configuration{ZoneID: "z"}.Validate(), "service_key")
	assert.NilError(t, config.Configuration{ZoneID: "z", ServiceKey: "k"}.Validate())
}
