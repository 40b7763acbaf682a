// Package reconciler keeps the monitored A/AAAA records of a zone pointed at
// the machine's current public address.
//
// Each cycle resolves the public address, lists the zone and rewrites the
// content of every monitored record that differs from it. Nothing is kept
// between cycles, so every cycle is a fresh convergence attempt. Run wraps the
// cycles in a supervisor that logs a failed cycle, pauses for a cooldown and
// starts over.
package reconciler

import (
	"context"
	"fmt"
	"runtime/debug"
	"time"

	"github.com/google/uuid"
	"github.com/larivierec/cfddns/pkg/cloudprovider"
	"github.com/larivierec/cfddns/pkg/config"
	"github.com/larivierec/cfddns/pkg/ipprovider"
	"github.com/larivierec/cfddns/pkg/logging"
	"github.com/larivierec/cfddns/pkg/metrics"
)

const (
	DefaultInterval = 60 * time.Second
	DefaultCooldown = 5 * time.Minute
)

type Reconciler struct {
	config    config.Configuration
	resolver  ipprovider.Provider
	directory cloudprovider.Provider
	logger    *logging.Logger

	interval time.Duration
	cooldown time.Duration
	sleep    func(ctx context.Context, d time.Duration) error
	now      func() time.Time
}

type Option func(*Reconciler)

// WithInterval sets the pause after a successful cycle.
func WithInterval(d time.Duration) Option {
	return func(r *Reconciler) {
		if d > 0 {
			r.interval = d
		}
	}
}

// WithCooldown sets the pause after a failed cycle.
func WithCooldown(d time.Duration) Option {
	return func(r *Reconciler) {
		if d > 0 {
			r.cooldown = d
		}
	}
}

// WithSleep replaces the context-aware sleep used between cycles.
func WithSleep(sleep func(ctx context.Context, d time.Duration) error) Option {
	return func(r *Reconciler) {
		r.sleep = sleep
	}
}

func New(conf config.Configuration, resolver ipprovider.Provider, directory cloudprovider.Provider, logger *logging.Logger, opts ...Option) *Reconciler {
	if logger == nil {
		logger = logging.Nop()
	}
	domains := make([]string, len(conf.Domains))
	copy(domains, conf.Domains)
	conf.Domains = domains

	r := &Reconciler{
		config:    conf,
		resolver:  resolver,
		directory: directory,
		logger:    logger,
		interval:  DefaultInterval,
		cooldown:  DefaultCooldown,
		sleep:     sleep,
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Result summarises one cycle.
type Result struct {
	GlobalIP   string
	Examined   int
	Candidates []cloudprovider.Record
	Updated    int
}

// Candidates returns, in input order, the A/AAAA records whose name is one of
// domains and whose content differs from globalIP.
func Candidates(records []cloudprovider.Record, domains []string, globalIP string) []cloudprovider.Record {
	monitored := make(map[string]struct{}, len(domains))
	for _, d := range domains {
		monitored[d] = struct{}{}
	}

	var out []cloudprovider.Record
	for _, rec := range records {
		if !rec.IsAddress() {
			continue
		}
		if _, ok := monitored[rec.Name]; !ok {
			continue
		}
		if rec.Content != globalIP {
			out = append(out, rec)
		}
	}
	return out
}

// Reconcile runs one cycle. Errors from the resolver and the directory are
// returned unchanged; the first failed update stops the cycle and earlier
// updates stay applied.
func (r *Reconciler) Reconcile(ctx context.Context) (Result, error) {
	return r.reconcile(ctx, r.logger)
}

func (r *Reconciler) reconcile(ctx context.Context, log *logging.Logger) (Result, error) {
	var res Result
	family := ipprovider.FamilyOf(r.config.IPv6)

	log.Debugf("resolving global %s address with %s", family, r.resolver.GetProviderName())
	globalIP, err := ipprovider.GetCurrentIP(ctx, r.resolver, family, metrics.IncrementProvider)
	if err != nil {
		return res, err
	}
	res.GlobalIP = globalIP
	log.Debugf("global ip address is %s", globalIP)

	records, err := r.directory.ListDNSRecords(ctx, r.config.ZoneID)
	if err != nil {
		return res, err
	}
	res.Examined = len(records)
	log.Debugf("listed %d records in zone %s", len(records), r.config.ZoneID)

	res.Candidates = Candidates(records, r.config.Domains, globalIP)
	if len(res.Candidates) == 0 {
		log.Debug("no incorrect DNS records")
		return res, nil
	}

	log.Infof("found %d incorrect DNS records, setting them to %s", len(res.Candidates), globalIP)
	for _, rec := range res.Candidates {
		log.Infof("updating %s record %s from %s to %s", rec.Type, rec.Name, rec.Content, globalIP)
		if err := r.directory.UpdateDNSRecord(ctx, r.config.ZoneID, rec, globalIP); err != nil {
			metrics.RecordUpdated(false)
			return res, err
		}
		metrics.RecordUpdated(true)
		res.Updated++
		log.Infof("%s record %s updated", rec.Type, rec.Name)
	}
	return res, nil
}

// Run reconciles until ctx is cancelled, which is also the only way it
// returns. A failed cycle, including one that panics, is logged at error
// level and followed by the cooldown before the loop starts over.
func (r *Reconciler) Run(ctx context.Context) error {
	r.logger.Infof("reconciling %d domains in zone %s every %s", len(r.config.Domains), r.config.ZoneID, r.interval)
	for {
		err := r.runCycles(ctx)
		if ctx.Err() != nil {
			return ctx.Err()
		}
		metrics.CycleFailed()
		r.logger.ErrorErr(err, "reconciliation failed")
		r.logger.Infof("restarting in %s", r.cooldown)
		if err := r.sleep(ctx, r.cooldown); err != nil {
			return err
		}
	}
}

// runCycles loops over successful cycles and returns the first failure.
func (r *Reconciler) runCycles(ctx context.Context) error {
	for {
		if err := r.attempt(ctx); err != nil {
			return err
		}
		if err := r.sleep(ctx, r.interval); err != nil {
			return err
		}
	}
}

func (r *Reconciler) attempt(ctx context.Context) (err error) {
	log := r.logger.WithFields(logging.Fields{"cycle": uuid.NewString()})
	defer func() {
		if p := recover(); p != nil {
			err = fmt.Errorf("panic during reconciliation: %v\n%s", p, debug.Stack())
		}
	}()

	if _, err := r.reconcile(ctx, log); err != nil {
		return err
	}
	metrics.CycleSucceeded(r.now())
	return nil
}

func sleep(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
