package main

import (
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/corenet/netd/pkg/config"
	"github.com/corenet/netd/pkg/log"
	"github.com/corenet/netd/pkg/metrics"
	"github.com/corenet/netd/pkg/network"
	"github.com/corenet/netd/pkg/nl"
	"github.com/corenet/netd/pkg/reconciler"
	"github.com/corenet/netd/pkg/types"
)

var (
	Version = "dev"
	Commit  = "unknown"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:     "netd",
	Short:   "netd - container network subsystem daemon",
	Version: Version,
}

func init() {
	rootCmd.SetVersionTemplate(fmt.Sprintf("netd version %s\nCommit: %s\n", Version, Commit))

	rootCmd.PersistentFlags().String("log-level", "info", "Log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().Bool("log-json", false, "Output logs in JSON format")
	cobra.OnInitialize(initLogging)

	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(applyCmd)
}

func initLogging() {
	level, _ := rootCmd.PersistentFlags().GetString("log-level")
	jsonOut, _ := rootCmd.PersistentFlags().GetBool("log-json")
	log.Init(log.Config{Level: log.Level(level), JSONOutput: jsonOut})
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the network reconciliation daemon",
	Long: `serve starts the reconciliation worker against the host network
and every namespace registered with it, and exposes Prometheus metrics
and health endpoints for the process.`,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().StringP("config", "c", "", "Path to netd.yaml (uses built-in defaults if omitted)")
	serveCmd.Flags().String("metrics-addr", "127.0.0.1:9090", "Address for the /metrics, /health, /ready, /live endpoints")
}

func runServe(cmd *cobra.Command, args []string) error {
	configPath, _ := cmd.Flags().GetString("config")
	metricsAddr, _ := cmd.Flags().GetString("metrics-addr")

	cfg, err := loadConfig(configPath)
	if err != nil {
		return err
	}

	nlh, err := nl.OpenCurrent()
	if err != nil {
		return fmt.Errorf("netd: open host netlink handle: %w", err)
	}

	hostInode, err := hostNamespaceInode()
	if err != nil {
		return fmt.Errorf("netd: resolve host namespace inode: %w", err)
	}

	tree := newStandaloneTree()

	var nat *network.NATBitmap
	if cfg.NATCount > 0 {
		nat = network.NewNATBitmap(int(cfg.NATCount))
	}

	host := network.NewHandle(nlh, 0, network.HandleOpts{
		Inode:  hostInode,
		IsHost: true,
		Config: cfg,
		Iter:   tree,
		NAT:    nat,
	})

	registry := network.NewRegistry()
	registry.SetHost(host)

	watchdog := time.Duration(cfg.WatchdogMs) * time.Millisecond
	worker := reconciler.NewWorker(registry, tree, watchdog)
	worker.Start()
	log.WithComponent("netd").Info().Dur("watchdog", watchdog).Msg("reconciliation worker started")

	collector := metrics.NewCollector(host, registry, host, worker)
	collector.Start()

	metrics.SetVersion(Version)
	metrics.RegisterComponent("registry", true, "ready")
	metrics.RegisterComponent("worker", true, "ready")
	metrics.RegisterComponent("nl", true, "ready")

	mux := http.NewServeMux()
	mux.Handle("/metrics", metrics.Handler())
	mux.Handle("/health", metrics.HealthHandler())
	mux.Handle("/ready", metrics.ReadyHandler())
	mux.Handle("/live", metrics.LivenessHandler())

	srv := &http.Server{Addr: metricsAddr, Handler: mux}
	errCh := make(chan error, 1)
	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()
	log.WithComponent("netd").Info().Str("addr", metricsAddr).Msg("metrics endpoint listening")

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)

	select {
	case <-sigCh:
		log.WithComponent("netd").Info().Msg("shutting down")
	case err := <-errCh:
		log.WithComponent("netd").Error().Err(err).Msg("metrics server error")
	}

	collector.Stop()
	worker.Stop()
	host.Close()

	return nil
}

func loadConfig(path string) (*config.NetworkConfig, error) {
	if path == "" {
		return config.Default(), nil
	}
	return config.Load(path)
}

func hostNamespaceInode() (uint64, error) {
	ns, err := nl.GetCurrentNs()
	if err != nil {
		return 0, err
	}
	return nl.Inode(ns)
}

// standaloneTree is the ContainerIterator this daemon drives itself
// with when it is not embedded inside a process that owns a real
// container tree: a single bookkeeping container standing in for the
// host, its own root. A caller with a real container subsystem
// replaces this entirely with its own iterator over NewWorker.
type standaloneTree struct {
	mu    sync.Mutex
	root  *standaloneContainer
	state *types.ContainerNetState
}

type standaloneContainer struct{}

func (*standaloneContainer) ID() string { return "root" }

func newStandaloneTree() *standaloneTree {
	return &standaloneTree{root: &standaloneContainer{}, state: &types.ContainerNetState{}}
}

func (t *standaloneTree) Root() types.ContainerHandle { return t.root }
func (t *standaloneTree) Children(types.ContainerHandle) []types.ContainerHandle { return nil }
func (t *standaloneTree) Parent(types.ContainerHandle) types.ContainerHandle     { return nil }
func (t *standaloneTree) State(types.ContainerHandle) *types.ContainerNetState   { return t.state }
func (t *standaloneTree) NetStateLock(types.ContainerHandle) types.Locker        { return &t.mu }
func (t *standaloneTree) Network(types.ContainerHandle) uint64                   { return 0 }
func (t *standaloneTree) HostNetwork(types.ContainerHandle) bool                 { return true }
