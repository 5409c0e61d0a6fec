package main

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"net/http/pprof"
	"os"
	"runtime"

	"github.com/regolith-labs/ore-cli-sub000/hashengine"
)

var (
	cfg *config
)

func startProfileServer() {
	listenAddr := net.JoinHostPort("localhost", cfg.ProfilePort)
	minrLog.Infof("Profile server listening on %s", listenAddr)
	mux := http.NewServeMux()
	mux.HandleFunc("/debug/pprof/", pprof.Index)
	mux.HandleFunc("/debug/pprof/cmdline", pprof.Cmdline)
	mux.HandleFunc("/debug/pprof/profile", pprof.Profile)
	mux.HandleFunc("/debug/pprof/symbol", pprof.Symbol)
	mux.HandleFunc("/debug/pprof/trace", pprof.Trace)
	minrLog.Errorf("%v", http.ListenAndServe(listenAddr, mux))
}

func minerMain() error {
	// Load configuration and parse command line.  This function also
	// initializes logging and configures it accordingly.
	tcfg, _, err := loadConfig()
	if err != nil {
		return err
	}
	cfg = tcfg

	defer func() {
		if logRotator != nil {
			logRotator.Close()
		}
	}()

	defer minrLog.Info("Shutdown complete")

	minrLog.Infof("Version %s", version())
	minrLog.Infof("CPU %s, %d logical cores", hashengine.CPUDescription(), hashengine.AvailableCores())

	if cfg.ProfilePort != "" {
		go startProfileServer()
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	addInterruptHandler(cancel)

	m, err := newMiner(cfg)
	if err != nil {
		minrLog.Errorf("%v", err)
		return err
	}

	errChan := make(chan error, 1)
	go func() {
		errChan <- m.run(ctx)
		simulateInterrupt()
	}()

	// Wait until the interrupt signal is received from an OS signal or
	// shutdown is requested because the miner stopped.
	<-interruptHandlersDone
	err = <-errChan
	if err == nil || errors.Is(err, context.Canceled) {
		return nil
	}
	progress.clear()
	minrLog.Errorf("Mining stopped: %v", err)
	return err
}

func main() {
	// Use all processor cores.
	runtime.GOMAXPROCS(runtime.NumCPU())

	if err := minerMain(); err != nil {
		fmt.Fprintln(os.Stderr, err.Error())
		os.Exit(1)
	}
}
