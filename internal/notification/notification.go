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

package notification

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/blnkfinance/tagrecon/config"
	"github.com/blnkfinance/tagrecon/internal/request"
)

const (
	EventDropdownSynced    = "dropdown.synced"
	EventDropdownPublished = "dropdown.published"
)

// Webhook is the body posted to the configured webhook url.
type Webhook struct {
	Event   string      `json:"event"`
	Payload interface{} `json:"data"`
	SentAt  time.Time   `json:"sent_at"`
}

// SendWebhook posts event to the configured webhook url. It is a no-op when
// no url is configured.
func SendWebhook(ctx context.Context, event string, payload interface{}) error {
	conf, err := config.Fetch()
	if err != nil {
		return err
	}
	if conf.Notification.Webhook.Url == "" {
		return nil
	}

	body, err := request.ToJsonReq(Webhook{Event: event, Payload: payload, SentAt: time.Now().UTC()})
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, conf.Notification.Webhook.Url, body)
	if err != nil {
		return err
	}
	for key, value := range conf.Notification.Webhook.Headers {
		req.Header.Set(key, value)
	}

	_, err = request.Call(&http.Client{Timeout: 10 * time.Second}, req, nil)
	return err
}

// SlackNotification posts err to the configured Slack webhook.
func SlackNotification(err error) error {
	conf, cfgErr := config.Fetch()
	if cfgErr != nil {
		return cfgErr
	}

	message := map[string]interface{}{
		"blocks": []map[string]interface{}{
			{
				"type": "header",
				"text": map[string]interface{}{"type": "plain_text", "text": "Error From Tagrecon 🐞", "emoji": true},
			},
			{
				"type":   "section",
				"fields": []map[string]string{{"type": "mrkdwn", "text": fmt.Sprintf("*Error:*\n%v", err)}},
			},
			{
				"type":   "section",
				"fields": []map[string]string{{"type": "mrkdwn", "text": fmt.Sprintf("*Time:*\n%v", time.Now().Format(time.RFC822))}},
			},
		},
	}

	payload, encodeErr := json.Marshal(message)
	if encodeErr != nil {
		return encodeErr
	}
	body, encodeErr := request.ToJsonReq(json.RawMessage(payload))
	if encodeErr != nil {
		return encodeErr
	}

	req, reqErr := http.NewRequest(http.MethodPost, conf.Notification.Slack.WebhookUrl, body)
	if reqErr != nil {
		return reqErr
	}
	_, callErr := request.Call(nil, req, nil)
	return callErr
}

// NotifyError logs systemError and, when Slack is configured, reports it
// there. It never blocks the caller.
func NotifyError(systemError error) {
	go func(systemError error) {
		logrus.Error(systemError)

		conf, err := config.Fetch()
		if err != nil {
			logrus.Error(err)
			return
		}

		if conf.Notification.Slack.WebhookUrl != "" {
			if err := SlackNotification(systemError); err != nil {
				logrus.Errorf("slack notification failed: %v", err)
			}
		}
	}(systemError)
}
