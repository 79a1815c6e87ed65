package cmd

import (
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/ccnfwd/ccnfwd/fw/core"
	"github.com/ccnfwd/ccnfwd/fw/fw"
	"github.com/ccnfwd/ccnfwd/fw/mgmt"
	"github.com/spf13/cobra"
)

const statusUpdatePeriodMicros = 1_000_000

var config = core.DefaultConfig()
var httpAddr string

var CmdCCNFwd = &cobra.Command{
	Use:     "ccnfwd CONFIG-FILE",
	Short:   "content-centric-networking forwarding daemon",
	GroupID: "run",
	Version: core.Version,
	Args:    cobra.ExactArgs(1),
	Run:     run,
}

// Registers command-line flags for enabling CPU, memory, and block
// profiling, and for overriding the status endpoint's bind address.
func init() {
	CmdCCNFwd.Flags().StringVar(&config.Core.CpuProfile, "cpu-profile", "", "Write CPU profile to file")
	CmdCCNFwd.Flags().StringVar(&config.Core.MemProfile, "mem-profile", "", "Write memory profile to file")
	CmdCCNFwd.Flags().StringVar(&config.Core.BlockProfile, "block-profile", "", "Write block profile to file")
	CmdCCNFwd.Flags().StringVar(&httpAddr, "http-addr", "", "Override the status/metrics HTTP listen address")
}

// Initializes and starts the forwarder from the named config file, handles
// graceful shutdown on interrupt signals, and logs the exit.
func run(cmd *cobra.Command, args []string) {
	configfile := args[0]
	config.Core.BaseDir = filepath.Dir(configfile)
	core.ReadYaml(config, configfile)
	if httpAddr != "" {
		config.Mgmt.StatusAddr = httpAddr
	}
	core.ConfigureLog(config)

	profiler := NewProfiler(config)
	if err := profiler.Start(); err != nil {
		core.Log.Fatal(profiler, "failed to start profiler", "err", err)
	}

	forwarder := fw.New(config)
	if err := forwarder.Listen(); err != nil {
		core.Log.Fatal(forwarder, "failed to open listeners", "err", err)
	}
	forwarder.StartBackgroundTasks(config.Forwarder.InterestHalfLifeMicros)

	status := mgmt.NewModule()
	forwarder.Sched.Schedule(statusUpdatePeriodMicros, func(any) {
		status.Update(forwarder.StatusSnapshot())
	}, nil, statusUpdatePeriodMicros)

	httpServer := &http.Server{Addr: config.Mgmt.StatusAddr, Handler: status.Handler()}
	go func() {
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			core.Log.Error(forwarder, "status endpoint stopped", "err", err)
		}
	}()

	sigChannel := make(chan os.Signal, 1)
	signal.Notify(sigChannel, os.Interrupt, syscall.SIGTERM, syscall.SIGHUP)
	stop := make(chan struct{})
	go func() {
		sig := <-sigChannel
		core.Log.Info(forwarder, "received signal - shutting down", "signal", sig)
		close(stop)
	}()

	if err := forwarder.Run(stop); err != nil {
		core.Log.Fatal(forwarder, "event loop exited with error", "err", err)
	}
	httpServer.Close()
	profiler.Stop()
	core.Log.Info(forwarder, "exited")
}
