// Copyright 2020 The Swarm Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package cmd

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/ethersphere/authdisc"
	"github.com/ethersphere/authdisc/pkg/addressbook"
	"github.com/ethersphere/authdisc/pkg/authoritydiscovery"
	"github.com/ethersphere/authdisc/pkg/authoritydiscovery/static"
	"github.com/ethersphere/authdisc/pkg/debugapi"
	"github.com/ethersphere/authdisc/pkg/logging"
	"github.com/ethersphere/authdisc/pkg/statestore/leveldb"
	"github.com/ethersphere/authdisc/pkg/storage"
	"github.com/hashicorp/go-multierror"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

const shutdownTimeout = 15 * time.Second

var (
	errRecordsFileNotSet     = errors.New("records file not set")
	errRestoreWithoutDataDir = errors.New("restoring addresses requires a data directory")
)

func (c *command) initStartCmd() {
	cmd := &cobra.Command{
		Use:   "start",
		Short: "Start the authority discovery worker",
		PreRunE: func(cmd *cobra.Command, args []string) error {
			return c.config.BindPFlags(cmd.Flags())
		},
		RunE: func(cmd *cobra.Command, args []string) (err error) {
			if len(args) > 0 {
				return cmd.Help()
			}

			logger, err := newLogger(cmd, c.config.GetString(optionNameVerbosity))
			if err != nil {
				return err
			}

			n, err := c.newNode(logger)
			if err != nil {
				return err
			}

			logger.Infof("version: %v", authdisc.Version)
			if n.debugAPIServer != nil {
				logger.Infof("debug api address: %s", n.debugAPIListener.Addr())
			}

			// Wait for termination or interrupt signals.
			// We want to clean up things at the end.
			interruptChannel := make(chan os.Signal, 1)
			signal.Notify(interruptChannel, syscall.SIGINT, syscall.SIGTERM)

			// Block main goroutine until it is interrupted
			sig := <-interruptChannel

			logger.Debugf("received signal: %v", sig)
			logger.Info("shutting down")

			// Shutdown
			done := make(chan struct{})
			go func() {
				defer close(done)

				ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
				defer cancel()

				if err := n.Shutdown(ctx); err != nil {
					logger.Errorf("shutdown: %v", err)
				}
			}()

			// If shutdown function is blocking too long,
			// allow process termination by receiving another signal.
			select {
			case sig := <-interruptChannel:
				logger.Debugf("received signal: %v", sig)
			case <-done:
			}

			return nil
		},
	}

	c.setAllFlags(cmd)
	c.root.AddCommand(cmd)
}

func (c *command) setAllFlags(cmd *cobra.Command) {
	cmd.Flags().String(optionNameDataDir, "", "data directory for the address book, empty to keep it in memory only")
	cmd.Flags().Bool(optionNameRestoreAddresses, false, "preload the address cache from the address book in the data directory")
	cmd.Flags().String(optionNameVerbosity, "info", "log verbosity level 0=silent, 1=error, 2=warn, 3=info, 4=debug, 5=trace")
	cmd.Flags().String(optionNameDebugAPIAddr, ":1636", "debug HTTP API listen address, empty to disable")
	cmd.Flags().StringSlice(optionCORSAllowedOrigins, []string{}, "origins with CORS headers enabled")
	cmd.Flags().Duration(optionNameRateLimitInterval, time.Second, "interval in which a client may send one lookup or refresh request to the debug API")
	cmd.Flags().Int(optionNameRateLimitBurst, 10, "number of lookup or refresh requests a client may send at once, 0 to disable the limit")
	cmd.Flags().String(optionNameRecordsFile, "", "YAML file with the authority set and address records")
	cmd.Flags().Bool(optionNameDNSAddrResolve, true, "resolve /dnsaddr addresses of authorities")
	cmd.Flags().Duration(optionNameRefreshInterval, 10*time.Minute, "interval between refresh rounds")
	cmd.Flags().Duration(optionNameLookupTimeout, 30*time.Second, "timeout of a single authority lookup")
	cmd.Flags().Int(optionNameMaxConcurrentLookups, 16, "maximal number of concurrent authority lookups")
	cmd.Flags().Duration(optionNameFailedLookupBackoff, time.Minute, "time before an authority with a failed lookup is looked up again")
}

// node holds the running services of the start command.
type node struct {
	stateStore       storage.StateStorer
	worker           *authoritydiscovery.Worker
	debugAPIServer   *http.Server
	debugAPIListener net.Listener
	logger           logging.Logger
}

func (c *command) newNode(logger logging.Logger) (n *node, err error) {
	path := c.config.GetString(optionNameRecordsFile)
	if path == "" {
		return nil, errRecordsFileNotSet
	}
	if c.config.GetBool(optionNameRestoreAddresses) && c.config.GetString(optionNameDataDir) == "" {
		return nil, errRestoreWithoutDataDir
	}
	records, err := static.NewFile(path)
	if err != nil {
		return nil, err
	}

	var stateStore storage.StateStorer
	if dir := c.config.GetString(optionNameDataDir); dir != "" {
		stateStore, err = leveldb.NewStateStore(filepath.Join(dir, "statestore"), logger)
	} else {
		stateStore, err = leveldb.NewInMemoryStateStore(logger)
	}
	if err != nil {
		return nil, fmt.Errorf("statestore: %w", err)
	}
	defer func() {
		if err != nil {
			stateStore.Close()
		}
	}()

	var resolver authoritydiscovery.Resolver = records
	if c.config.GetBool(optionNameDNSAddrResolve) {
		resolver = authoritydiscovery.NewDNSAddrResolver(records, nil, logger)
	}

	worker, err := authoritydiscovery.New(resolver, records, logger, authoritydiscovery.Options{
		RefreshInterval:      c.config.GetDuration(optionNameRefreshInterval),
		LookupTimeout:        c.config.GetDuration(optionNameLookupTimeout),
		MaxConcurrentLookups: c.config.GetInt(optionNameMaxConcurrentLookups),
		FailedLookupBackoff:  c.config.GetDuration(optionNameFailedLookupBackoff),
		AddressBook:          addressbook.New(stateStore),
		RestoreAddresses:     c.config.GetBool(optionNameRestoreAddresses),
	})
	if err != nil {
		return nil, fmt.Errorf("authority discovery: %w", err)
	}

	n = &node{
		stateStore: stateStore,
		worker:     worker,
		logger:     logger,
	}

	if addr := c.config.GetString(optionNameDebugAPIAddr); addr != "" {
		debugAPIService := debugapi.New(debugapi.Options{
			Discoverer:         worker,
			Logger:             logger,
			CORSAllowedOrigins: c.config.GetStringSlice(optionCORSAllowedOrigins),
			RateLimitInterval:  c.config.GetDuration(optionNameRateLimitInterval),
			RateLimitBurst:     c.config.GetInt(optionNameRateLimitBurst),
		})
		// register metrics from components
		debugAPIService.MustRegisterMetrics(logger.Metrics()...)
		debugAPIService.MustRegisterMetrics(worker.Metrics()...)

		debugAPIListener, err := net.Listen("tcp", addr)
		if err != nil {
			return nil, fmt.Errorf("debug api listener: %w", err)
		}

		n.debugAPIListener = debugAPIListener
		n.debugAPIServer = &http.Server{
			Handler:           debugAPIService,
			ReadHeaderTimeout: 3 * time.Second,
			ErrorLog:          log.New(logger.WriterLevel(logrus.ErrorLevel), "", 0),
		}

		go func() {
			if err := n.debugAPIServer.Serve(debugAPIListener); err != nil && !errors.Is(err, http.ErrServerClosed) {
				logger.Debugf("debug api server: %v", err)
				logger.Error("unable to serve debug api")
			}
		}()
	}

	worker.Start()

	return n, nil
}

// Shutdown stops the debug API server and the worker and closes the
// state store.
func (n *node) Shutdown(ctx context.Context) error {
	var mErr error

	if n.debugAPIServer != nil {
		if err := n.debugAPIServer.Shutdown(ctx); err != nil {
			mErr = multierror.Append(mErr, fmt.Errorf("debug api server: %w", err))
		}
	}

	if err := n.worker.Close(); err != nil {
		mErr = multierror.Append(mErr, fmt.Errorf("authority discovery: %w", err))
	}

	if err := n.stateStore.Close(); err != nil {
		mErr = multierror.Append(mErr, fmt.Errorf("statestore: %w", err))
	}

	return mErr
}
