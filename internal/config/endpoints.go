// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package config

import (
	"net"
	"net/url"
	"strings"

	"github.com/pkg/errors"

	"github.com/ashzansoc/darkchat-fusion/internal/chatapi"
)

// =============================================================================
// ENDPOINT SELECTION
// =============================================================================

// Endpoints are the three chat API addresses a session talks to.
type Endpoints struct {
	Chat     string `json:"chat"`
	Health   string `json:"health"`
	Fallback string `json:"fallback"`
}

// Environment names the selection branch that produced a set of endpoints.
type Environment string

const (
	// EnvDevelopment talks to a backend on the local machine.
	EnvDevelopment Environment = "development"
	// EnvDeployed talks to proxied paths on the serving origin.
	EnvDeployed Environment = "deployed"
)

// Paths used by each environment.
const (
	devHealthPath   = "/"
	devChatPath     = "/api/chat"
	devFallbackPath = "/simplified-chat"

	deployedHealthPath   = "/api/health"
	deployedChatPath     = "/api/chat"
	deployedFallbackPath = "/api/simplified-chat"
)

// IsLocalHost reports whether host names the local machine.
func IsLocalHost(host string) bool {
	h := strings.ToLower(strings.Trim(host, "[]"))
	switch h {
	case "", "localhost", "127.0.0.1", "::1":
		return true
	}
	if ip := net.ParseIP(h); ip != nil {
		return ip.IsLoopback()
	}
	return false
}

// DetectEnvironment classifies an origin. An empty origin is local.
func DetectEnvironment(origin string) (Environment, error) {
	if origin == "" {
		return EnvDevelopment, nil
	}
	u, err := url.Parse(origin)
	if err != nil {
		return "", errors.Wrapf(err, "invalid origin %q", origin)
	}
	if IsLocalHost(u.Hostname()) {
		return EnvDevelopment, nil
	}
	return EnvDeployed, nil
}

// ResolveEndpoints applies the selection policy:
//   - local origin: absolute URLs on api.dev_base_url
//   - other origin: /api/* paths resolved against the origin
//
// Explicit chat_url, health_url and fallback_url win over the policy;
// relative overrides are resolved against the selected base.
func ResolveEndpoints(api APIConfig) (Endpoints, Environment, error) {
	env, err := DetectEnvironment(api.Origin)
	if err != nil {
		return Endpoints{}, "", err
	}

	var baseRaw string
	var eps Endpoints
	if env == EnvDevelopment {
		baseRaw = api.DevBaseURL
		if baseRaw == "" {
			baseRaw = Default().API.DevBaseURL
		}
		eps = Endpoints{Chat: devChatPath, Health: devHealthPath, Fallback: devFallbackPath}
	} else {
		baseRaw = api.Origin
		eps = Endpoints{Chat: deployedChatPath, Health: deployedHealthPath, Fallback: deployedFallbackPath}
	}

	base, err := url.Parse(baseRaw)
	if err != nil {
		return Endpoints{}, "", errors.Wrapf(err, "invalid base URL %q", baseRaw)
	}

	if api.ChatURL != "" {
		eps.Chat = api.ChatURL
	}
	if api.HealthURL != "" {
		eps.Health = api.HealthURL
	}
	if api.FallbackURL != "" {
		eps.Fallback = api.FallbackURL
	}

	for _, p := range []*string{&eps.Chat, &eps.Health, &eps.Fallback} {
		resolved, err := resolveAgainst(base, *p)
		if err != nil {
			return Endpoints{}, "", err
		}
		*p = resolved
	}
	return eps, env, nil
}

func resolveAgainst(base *url.URL, ref string) (string, error) {
	u, err := url.Parse(ref)
	if err != nil {
		return "", errors.Wrapf(err, "invalid endpoint %q", ref)
	}
	if u.IsAbs() {
		return u.String(), nil
	}
	return base.ResolveReference(u).String(), nil
}

// Endpoints resolves the API endpoints for this configuration.
func (c *Config) Endpoints() (Endpoints, error) {
	eps, _, err := ResolveEndpoints(c.API)
	return eps, err
}

// ClientConfig builds the chat API client configuration.
func (c *Config) ClientConfig() (*chatapi.ClientConfig, error) {
	eps, err := c.Endpoints()
	if err != nil {
		return nil, err
	}
	return &chatapi.ClientConfig{
		ChatURL:     eps.Chat,
		HealthURL:   eps.Health,
		FallbackURL: eps.Fallback,
		Timeout:     c.Timeout(),
	}, nil
}
