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
	"encoding/json"
	"fmt"
	"log"

	"github.com/spf13/cobra"

	"github.com/blnkfinance/tagrecon/config"
)

const redacted = "********"

// redactConfig returns a copy of cfg with credentials masked.
func redactConfig(cfg config.Configuration) config.Configuration {
	if cfg.Server.SecretKey != "" {
		cfg.Server.SecretKey = redacted
	}
	if cfg.DataSource.Dns != "" {
		cfg.DataSource.Dns = redacted
	}
	if cfg.Notification.Slack.WebhookUrl != "" {
		cfg.Notification.Slack.WebhookUrl = redacted
	}
	if cfg.Redis.Dns != "" {
		cfg.Redis.Dns = redacted
	}
	if len(cfg.Notification.Webhook.Headers) > 0 {
		headers := make(map[string]string, len(cfg.Notification.Webhook.Headers))
		for key := range cfg.Notification.Webhook.Headers {
			headers[key] = redacted
		}
		cfg.Notification.Webhook.Headers = headers
	}
	return cfg
}

func configCommands() *cobra.Command {
	cmd := &cobra.Command{
		Use:         "config",
		Short:       "config outputs your instances computed configuration",
		Annotations: map[string]string{skipSetup: ""},
		Run: func(cmd *cobra.Command, args []string) {
			cfg, err := config.Fetch()
			if err != nil {
				log.Fatalf("Error getting config: %v\n", err)
			}

			data, err := json.MarshalIndent(redactConfig(*cfg), "", "    ")
			if err != nil {
				log.Fatalf("Error printing config: %v\n", err)
			}

			fmt.Println(string(data))
		},
	}
	return cmd
}
