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

package platform

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/cenkalti/backoff/v4"
	pkgerrors "github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/blnkfinance/tagrecon/config"
	"github.com/blnkfinance/tagrecon/internal/apierror"
	"github.com/blnkfinance/tagrecon/internal/request"
	"github.com/blnkfinance/tagrecon/model"
)

var tracer = otel.Tracer("tagrecon.platform")

// Client talks to the expense platform that owns custom field definitions
// and dropdown options.
type Client struct {
	baseURL         string
	httpClient      *http.Client
	maxRetries      uint64
	initialInterval time.Duration
}

type fieldDefinitionsResponse struct {
	Data []model.FieldDefinition `json:"data"`
}

type updateOptionsRequest struct {
	Name    string            `json:"name"`
	Options []model.TagOption `json:"options"`
}

// NewClient creates a platform client. Failed calls are retried up to
// maxRetries times with exponential backoff.
func NewClient(baseURL string, timeout time.Duration, maxRetries int) *Client {
	if maxRetries < 0 {
		maxRetries = 0
	}
	return &Client{
		baseURL:         baseURL,
		httpClient:      &http.Client{Timeout: timeout},
		maxRetries:      uint64(maxRetries),
		initialInterval: backoff.DefaultInitialInterval,
	}
}

// NewClientFromConfig creates a client from the loaded configuration.
func NewClientFromConfig() (*Client, error) {
	cfg, err := config.Fetch()
	if err != nil {
		return nil, err
	}
	if cfg.Platform.BaseURL == "" {
		return nil, errors.New("platform base url is not configured")
	}
	return NewClient(cfg.Platform.BaseURL, cfg.PlatformTimeout(), cfg.Platform.MaxRetries), nil
}

// FetchFieldDefinitions lists the custom field definitions visible to authToken.
func (c *Client) FetchFieldDefinitions(ctx context.Context, authToken string) ([]model.FieldDefinition, error) {
	ctx, span := tracer.Start(ctx, "FetchFieldDefinitions")
	defer span.End()

	if authToken == "" {
		return nil, apierror.NewAPIError(apierror.ErrInvalidInput, "auth token is required", nil)
	}

	var response fieldDefinitionsResponse
	err := c.do(ctx, http.MethodGet, "/custom-fields", authToken, nil, &response)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	span.SetAttributes(attribute.Int("field.count", len(response.Data)))
	return response.Data, nil
}

// UpdateTagDropdown replaces the options of the dropdown field on the platform.
func (c *Client) UpdateTagDropdown(ctx context.Context, authToken string, dropdown model.TagDropdown) error {
	ctx, span := tracer.Start(ctx, "UpdateTagDropdown")
	defer span.End()
	span.SetAttributes(attribute.String("field.id", dropdown.FieldID), attribute.Int("option.count", len(dropdown.Options)))

	if authToken == "" {
		return apierror.NewAPIError(apierror.ErrInvalidInput, "auth token is required", nil)
	}
	if dropdown.FieldID == "" {
		return apierror.NewAPIError(apierror.ErrInvalidInput, "dropdown is not linked to a platform field", nil)
	}

	path := fmt.Sprintf("/custom-fields/%s/options", url.PathEscape(dropdown.FieldID))
	body := updateOptionsRequest{Name: dropdown.Name, Options: dropdown.Options}
	if body.Options == nil {
		body.Options = []model.TagOption{}
	}

	err := c.do(ctx, http.MethodPut, path, authToken, body, nil)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	return err
}

func (c *Client) do(ctx context.Context, method, path, authToken string, payload, response interface{}) error {
	attempt := 0
	operation := func() error {
		attempt++
		req, err := c.newRequest(ctx, method, path, authToken, payload)
		if err != nil {
			return backoff.Permanent(err)
		}

		resp, err := request.Call(c.httpClient, req, response)
		if err == nil {
			return nil
		}

		var statusErr *request.StatusError
		if errors.As(err, &statusErr) && !statusErr.Temporary() {
			return backoff.Permanent(err)
		}
		// a 2xx that failed to decode will not improve on retry
		if resp != nil && statusErr == nil {
			return backoff.Permanent(pkgerrors.Wrap(err, "decoding platform response"))
		}
		if ctx.Err() != nil {
			return backoff.Permanent(err)
		}

		logrus.WithFields(logrus.Fields{
			"method":  method,
			"path":    path,
			"attempt": attempt,
		}).Warnf("platform call failed: %v", err)
		return err
	}

	policy := backoff.NewExponentialBackOff()
	policy.InitialInterval = c.initialInterval
	err := backoff.Retry(operation, backoff.WithContext(backoff.WithMaxRetries(policy, c.maxRetries), ctx))
	if err == nil {
		return nil
	}
	return toAPIError(method, path, err)
}

func (c *Client) newRequest(ctx context.Context, method, path, authToken string, payload interface{}) (*http.Request, error) {
	var req *http.Request
	var err error
	if payload != nil {
		body, encodeErr := request.ToJsonReq(payload)
		if encodeErr != nil {
			return nil, pkgerrors.Wrap(encodeErr, "encoding platform request")
		}
		req, err = http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	} else {
		req, err = http.NewRequestWithContext(ctx, method, c.baseURL+path, nil)
	}
	if err != nil {
		return nil, pkgerrors.Wrap(err, "building platform request")
	}
	req.Header.Set("Authorization", request.BearerAuth(authToken))
	return req, nil
}

func toAPIError(method, path string, err error) error {
	wrapped := pkgerrors.Wrapf(err, "platform %s %s", method, path)

	var statusErr *request.StatusError
	if errors.As(err, &statusErr) && statusErr.StatusCode == http.StatusNotFound {
		return apierror.NewAPIError(apierror.ErrNotFound, "resource not found on platform", wrapped)
	}
	return apierror.NewAPIError(apierror.ErrUpstream, "platform request failed", wrapped)
}
