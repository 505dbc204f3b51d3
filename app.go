package main

import (
	"log/slog"

	"github.com/edtools/pscpm-go/internal/cpm"
	"github.com/edtools/pscpm-go/internal/sync"
)

// app bundles the wired client stack for one command invocation. Everything
// hangs off the resolved configuration, so construction cannot fail once
// config validation has passed — except for an unparseable strategy, which
// validation already rejects.
type app struct {
	logger *slog.Logger
	client *cpm.Client
	engine *sync.Engine
}

// newApp builds the authenticators the configured strategy needs, the router
// over them, and the client. Strategies that do not use an authenticator
// leave it nil; the router never consults an authenticator its strategy does
// not route to.
func newApp() (*app, error) {
	logger := buildLogger()

	strategy, err := cpm.ParseStrategy(resolvedCfg.Server.AuthStrategy)
	if err != nil {
		return nil, err
	}

	httpClient := resolvedCfg.HTTPClient()
	baseURL := resolvedCfg.Server.BaseURL

	var session *cpm.SessionAuthenticator
	if strategy == cpm.StrategySession || strategy == cpm.StrategyHybrid {
		session = cpm.NewSessionAuthenticator(baseURL,
			resolvedCfg.Session.Username, resolvedCfg.Session.Password, httpClient, logger)
	}

	var token *cpm.TokenAuthenticator
	if strategy == cpm.StrategyToken || strategy == cpm.StrategyHybrid {
		token = cpm.NewTokenAuthenticator(baseURL,
			resolvedCfg.Token.ClientID, resolvedCfg.Token.ClientSecret, httpClient, logger)
	}

	router := cpm.NewAuthRouter(strategy, session, token, logger)
	client := cpm.NewClient(baseURL, httpClient, router, logger)

	return &app{
		logger: logger,
		client: client,
		engine: sync.NewEngine(client, sync.OSStore{}, logger),
	}, nil
}

// localRoot is the workspace directory the remote tree maps into.
func (a *app) localRoot() string {
	return resolvedCfg.Local.Root
}
