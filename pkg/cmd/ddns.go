package ddns

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/larivierec/cfddns/pkg/cloudprovider/cloudflare"
	"github.com/larivierec/cfddns/pkg/config"
	"github.com/larivierec/cfddns/pkg/ipprovider"
	"github.com/larivierec/cfddns/pkg/logging"
	"github.com/larivierec/cfddns/pkg/metrics"
	"github.com/larivierec/cfddns/pkg/reconciler"
	"github.com/spf13/cobra"
	"golang.org/x/term"
)

var (
	configPath     string
	logLevel       string
	logFormat      string
	ipProviderName string
	resolverAddr   string
	metricsAddr    string
	apiURL         string
	interval       time.Duration
	cooldown       time.Duration
	promptKey      bool
)

// NewRootCommand builds the cfddns command tree. Running the root command
// without a subcommand starts the daemon.
func NewRootCommand() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "cfddns",
		Short:         "Keep Cloudflare A/AAAA records pointed at this machine's public address",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE:          runDaemon,
	}
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", config.DefaultPath, "path to the configuration file (key=value or .yaml)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "info", "log level: debug, info, warn or error")
	rootCmd.PersistentFlags().StringVar(&logFormat, "log-format", "console", "log format: console or json")
	rootCmd.PersistentFlags().StringVar(&ipProviderName, "ip-provider", "whoami", "public ip provider: whoami, ipify or icanhazip")
	rootCmd.PersistentFlags().StringVar(&resolverAddr, "resolver", "", "host:port of the resolver queried by the whoami provider")
	rootCmd.PersistentFlags().StringVar(&apiURL, "api-url", cloudflare.DefaultAPIURL, "cloudflare api base url")

	runCmd := &cobra.Command{
		Use:   "run",
		Short: "Reconcile the configured records forever",
		RunE:  runDaemon,
	}
	for _, c := range []*cobra.Command{rootCmd, runCmd} {
		c.Flags().DurationVar(&interval, "interval", reconciler.DefaultInterval, "pause between successful cycles")
		c.Flags().DurationVar(&cooldown, "cooldown", reconciler.DefaultCooldown, "pause after a failed cycle")
		c.Flags().StringVar(&metricsAddr, "metrics-addr", ":8080", "address of the health and metrics server, empty to disable")
	}

	onceCmd := &cobra.Command{
		Use:   "once",
		Short: "Run a single reconciliation cycle and exit",
		RunE:  runOnce,
	}

	ipCmd := &cobra.Command{
		Use:   "ip",
		Short: "Print the discovered public address",
		RunE:  printIP,
	}

	verifyCmd := &cobra.Command{
		Use:   "verify",
		Short: "Check that the credential can reach the configured zone",
		RunE:  verify,
	}
	verifyCmd.Flags().BoolVar(&promptKey, "prompt", false, "read the service key from the terminal instead of the configuration")

	rootCmd.AddCommand(runCmd, onceCmd, ipCmd, verifyCmd)
	return rootCmd
}

// Execute runs the command tree until it returns or a termination signal
// arrives.
func Execute() int {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := NewRootCommand().ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	return 0
}

func newLogger() (*logging.Logger, error) {
	return logging.New(os.Stderr, logFormat, logLevel)
}

// loadConfig reads the configuration file. A missing file at the default
// location falls back to the environment.
func loadConfig(logger *logging.Logger) (config.Configuration, error) {
	conf, err := config.Load(configPath)
	if errors.Is(err, fs.ErrNotExist) && configPath == config.DefaultPath {
		logger.Debugf("%s not found, reading configuration from the environment", configPath)
		conf, err = config.FromEnv(), nil
	}
	if err != nil {
		return conf, err
	}
	logger.Info("cfddns configuration loaded")
	if len(conf.Domains) == 0 {
		logger.Warn("no domains configured, nothing will be updated")
	}
	return conf, nil
}

func newCloudProvider(conf config.Configuration) *cloudflare.CloudflareProvider {
	creds := cloudflare.Configuration{CloudflareToken: conf.ServiceKey}
	if conf.AccountEmail != "" {
		creds = cloudflare.Configuration{ApiKey: conf.ServiceKey, AccountEmail: conf.AccountEmail}
	}
	return cloudflare.NewCloudflareProvider(creds, cloudflare.WithBaseURL(apiURL))
}

func newResolver() (ipprovider.Provider, error) {
	resolver, err := ipprovider.New(ipProviderName)
	if err != nil {
		return nil, err
	}
	if w, ok := resolver.(*ipprovider.Whoami); ok {
		w.Server = resolverAddr
	}
	return resolver, nil
}

func newReconciler(logger *logging.Logger) (*reconciler.Reconciler, error) {
	conf, err := loadConfig(logger)
	if err != nil {
		return nil, err
	}
	if err := conf.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	resolver, err := newResolver()
	if err != nil {
		return nil, err
	}
	return reconciler.New(conf, resolver, newCloudProvider(conf), logger,
		reconciler.WithInterval(interval),
		reconciler.WithCooldown(cooldown),
	), nil
}

func runDaemon(cmd *cobra.Command, _ []string) error {
	logger, err := newLogger()
	if err != nil {
		return err
	}
	logger.Info("cfddns started")

	r, err := newReconciler(logger)
	if err != nil {
		return err
	}

	ctx := cmd.Context()
	if metricsAddr != "" {
		startHealthServer(ctx, metricsAddr, logger)
	} else {
		metrics.InitMetrics()
	}

	err = r.Run(ctx)
	if errors.Is(err, context.Canceled) {
		logger.Info("cfddns stopped")
		return nil
	}
	return err
}

func runOnce(cmd *cobra.Command, _ []string) error {
	logger, err := newLogger()
	if err != nil {
		return err
	}
	r, err := newReconciler(logger)
	if err != nil {
		return err
	}

	res, err := r.Reconcile(cmd.Context())
	if err != nil {
		return fmt.Errorf("reconciliation failed: %w", err)
	}
	logger.Infof("global ip %s, %d records examined, %d updated", res.GlobalIP, res.Examined, res.Updated)
	return nil
}

func printIP(cmd *cobra.Command, _ []string) error {
	logger, err := newLogger()
	if err != nil {
		return err
	}
	conf, err := loadConfig(logger)
	if err != nil {
		return err
	}
	resolver, err := newResolver()
	if err != nil {
		return err
	}

	ip, err := ipprovider.GetCurrentIP(cmd.Context(), resolver, ipprovider.FamilyOf(conf.IPv6), nil)
	if err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), ip)
	return nil
}

func verify(cmd *cobra.Command, _ []string) error {
	logger, err := newLogger()
	if err != nil {
		return err
	}
	conf, err := loadConfig(logger)
	if err != nil {
		return err
	}

	if promptKey {
		fmt.Fprint(cmd.ErrOrStderr(), "Enter Cloudflare service key: ")
		key, err := term.ReadPassword(int(os.Stdin.Fd()))
		fmt.Fprintln(cmd.ErrOrStderr())
		if err != nil {
			return fmt.Errorf("error reading from stdin: %w", err)
		}
		conf.ServiceKey = string(key)
	}
	if err := conf.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	logger.Info("verifying credential...")
	v, err := newCloudProvider(conf).Verify(cmd.Context(), conf.ZoneID)
	if err != nil {
		return err
	}
	if v.TokenStatus != "" {
		logger.Infof("token %s is %s", v.TokenID, v.TokenStatus)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "zone %s (%s) is reachable\n", v.ZoneName, conf.ZoneID)
	return nil
}
