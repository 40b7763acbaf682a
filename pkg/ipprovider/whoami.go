package ipprovider

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/miekg/dns"
)

const whoamiName = "whoami"

const (
	WhoamiQuestion = "whoami.cloudflare."
	WhoamiServerV4 = "1.1.1.1:53"
	WhoamiServerV6 = "[2606:4700:4700::1111]:53"
)

// Whoami asks the Cloudflare resolver which address the query came from,
// using a TXT record in the CHAOS class.
type Whoami struct {
	// Server overrides the resolver address for both families.
	Server string
	// Timeout of the exchange; zero keeps the dns package default.
	Timeout time.Duration
}

func (w *Whoami) GetProviderName() string {
	return whoamiName
}

func (w *Whoami) GetCurrentIP(ctx context.Context, family Family) (string, error) {
	server, network := WhoamiServerV4, "udp4"
	if family == IPv6 {
		server, network = WhoamiServerV6, "udp6"
	}
	if w.Server != "" {
		server = w.Server
	}

	c := &dns.Client{Net: network, Timeout: w.Timeout}

	m := new(dns.Msg)
	m.SetQuestion(WhoamiQuestion, dns.TypeTXT)
	m.Question[0].Qclass = dns.ClassCHAOS

	resp, _, err := c.ExchangeContext(ctx, m, server)
	if err != nil {
		return "", w.fail(fmt.Errorf("query to %s failed: %w", server, err))
	}
	if resp.Rcode != dns.RcodeSuccess {
		return "", w.fail(fmt.Errorf("query to %s returned %s", server, dns.RcodeToString[resp.Rcode]))
	}

	var txt []string
	for _, rr := range resp.Answer {
		if t, ok := rr.(*dns.TXT); ok {
			txt = append(txt, t.Txt...)
		}
	}
	ip, err := parseAddress(strings.Join(txt, ""), family)
	if err != nil {
		return "", w.fail(err)
	}
	return ip, nil
}

func (w *Whoami) fail(err error) error {
	return &ResolutionError{Provider: whoamiName, Err: err}
}
