/*
Copyright 2024 Blnk Finance Authors.

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

    http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/

package main

import (
	"fmt"
	"os"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/blnkfinance/tagrecon"
	"github.com/blnkfinance/tagrecon/config"
	"github.com/blnkfinance/tagrecon/database"
	"github.com/blnkfinance/tagrecon/internal/cache"
	"github.com/blnkfinance/tagrecon/internal/notification"
	"github.com/blnkfinance/tagrecon/platform"
)

// TagReconCLI is the command-line interface around the root Cobra command.
type TagReconCLI struct {
	cmd *cobra.Command
}

// tagreconInstance holds the service and configuration built by preRun.
type tagreconInstance struct {
	tagrecon *tagrecon.TagRecon
	cache    *cache.RedisCache
	cnf      *config.Configuration
}

func recoverPanic() {
	if rec := recover(); rec != nil {
		logrus.Error(rec)
		os.Exit(1)
	}
}

// preRun loads configuration and builds the service before any command that
// needs it. Commands annotated with skipSetup only get the configuration, and
// offline commands run on defaults when no valid configuration exists.
func preRun(app *tagreconInstance, configFile *string) func(cmd *cobra.Command, args []string) error {
	return func(cmd *cobra.Command, args []string) error {
		if err := config.InitConfig(*configFile); err != nil {
			if _, ok := cmd.Annotations[offline]; ok {
				logrus.Warnf("using default settings: %v", err)
				return nil
			}
			return fmt.Errorf("error loading config: %w", err)
		}

		cnf, err := config.Fetch()
		if err != nil {
			return err
		}
		app.cnf = cnf

		if _, skip := cmd.Annotations[skipSetup]; skip {
			return nil
		}

		service, c, err := setupTagRecon(cnf)
		if err != nil {
			notification.NotifyError(err)
			return err
		}
		app.tagrecon = service
		app.cache = c
		return nil
	}
}

const (
	skipSetup = "skip-setup"
	offline   = "offline"
)

// setupTagRecon wires the datasource, cache and platform client into a service.
func setupTagRecon(cfg *config.Configuration) (*tagrecon.TagRecon, *cache.RedisCache, error) {
	db, err := database.NewDataSource(cfg)
	if err != nil {
		return nil, nil, fmt.Errorf("error getting datasource: %v", err)
	}

	c, err := cache.NewCache()
	if err != nil {
		return nil, nil, fmt.Errorf("error creating cache: %v", err)
	}

	client, err := platform.NewClientFromConfig()
	if err != nil {
		return nil, nil, fmt.Errorf("error creating platform client: %v", err)
	}

	service := tagrecon.NewTagRecon(db, client, c).WithPublisher(client)
	if redisClient := c.Client(); redisClient != nil {
		service = service.WithDistributedLock(redisClient)
	}
	return service, c, nil
}

func NewCLI() *TagReconCLI {
	var configFile string
	t := &tagreconInstance{}

	var rootCmd = &cobra.Command{
		Use:   "tagrecon",
		Short: "Tag dropdown reconciliation and allocation resolution",
		Run:   func(cmd *cobra.Command, args []string) {},
	}

	rootCmd.PersistentFlags().StringVar(&configFile, "config", config.DEFAULT_CONFIG_FILE, "Configuration file for tagrecon")
	rootCmd.PersistentPreRunE = preRun(t, &configFile)

	rootCmd.AddCommand(serverCommands(t))
	rootCmd.AddCommand(migrateCommands(t))
	rootCmd.AddCommand(configCommands())
	rootCmd.AddCommand(matchCommands())
	rootCmd.AddCommand(reconcileCommands())

	return &TagReconCLI{cmd: rootCmd}
}

func (w TagReconCLI) executeCLI() {
	if err := w.cmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func main() {
	defer recoverPanic()

	cli := NewCLI()
	cli.executeCLI()
}
