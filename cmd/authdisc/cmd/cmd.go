// Copyright 2020 The Swarm Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package cmd

import (
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/ethersphere/authdisc/pkg/logging"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

const (
	optionNameDataDir              = "data-dir"
	optionNameRestoreAddresses     = "restore-addresses"
	optionNameVerbosity            = "verbosity"
	optionNameDebugAPIAddr         = "debug-api-addr"
	optionCORSAllowedOrigins       = "cors-allowed-origins"
	optionNameRateLimitInterval    = "debug-api-rate-limit"
	optionNameRateLimitBurst       = "debug-api-rate-limit-burst"
	optionNameRecordsFile          = "records-file"
	optionNameDNSAddrResolve       = "dnsaddr-resolve"
	optionNameRefreshInterval      = "refresh-interval"
	optionNameLookupTimeout        = "lookup-timeout"
	optionNameMaxConcurrentLookups = "max-concurrent-lookups"
	optionNameFailedLookupBackoff  = "failed-lookup-backoff"
)

func init() {
	cobra.EnableCommandSorting = false
}

type command struct {
	root    *cobra.Command
	config  *viper.Viper
	cfgFile string
	homeDir string
}

type option func(*command)

func newCommand(opts ...option) (c *command, err error) {
	c = &command{
		root: &cobra.Command{
			Use:           "authdisc",
			Short:         "Authority discovery address cache",
			SilenceErrors: true,
			SilenceUsage:  true,
			PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
				return c.initConfig()
			},
		},
	}

	for _, o := range opts {
		o(c)
	}

	// Find home directory.
	if err := c.setHomeDir(); err != nil {
		return nil, err
	}

	c.initGlobalFlags()
	c.initStartCmd()
	c.initKeygenCmd()
	c.initConfigurateOptionsCmd()
	c.initVersionCmd()

	return c, nil
}

func (c *command) Execute() (err error) {
	return c.root.Execute()
}

// Execute parses command line arguments and runs appropriate functions.
func Execute() (err error) {
	c, err := newCommand()
	if err != nil {
		return err
	}
	return c.Execute()
}

func (c *command) initGlobalFlags() {
	globalFlags := c.root.PersistentFlags()
	globalFlags.StringVar(&c.cfgFile, "config", "", "config file (default is $HOME/.authdisc.yaml)")
}

func (c *command) initConfig() (err error) {
	config := viper.New()
	configName := ".authdisc"
	if c.cfgFile != "" {
		// Use config file from the flag.
		config.SetConfigFile(c.cfgFile)
	} else {
		// Search config in home directory with name ".authdisc" (without extension).
		config.AddConfigPath(c.homeDir)
		config.SetConfigName(configName)
	}

	// Environment
	config.SetEnvPrefix("authdisc")
	config.AutomaticEnv() // read in environment variables that match
	config.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))

	if c.homeDir != "" && c.cfgFile == "" {
		c.cfgFile = filepath.Join(c.homeDir, configName+".yaml")
	}

	// If a config file is found, read it in.
	if err := config.ReadInConfig(); err != nil {
		var e viper.ConfigFileNotFoundError
		if !errors.As(err, &e) {
			return err
		}
	}
	c.config = config
	return nil
}

func (c *command) setHomeDir() (err error) {
	if c.homeDir != "" {
		return
	}
	dir, err := os.UserHomeDir()
	if err != nil {
		return err
	}
	c.homeDir = dir
	return nil
}

func newLogger(cmd *cobra.Command, verbosity string) (logging.Logger, error) {
	level, enabled, err := logging.ParseVerbosity(verbosity)
	if err != nil {
		return nil, err
	}
	if !enabled {
		return logging.New(io.Discard, 0), nil
	}
	return logging.New(cmd.OutOrStdout(), level), nil
}
