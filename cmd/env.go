package main

import (
	"context"

	"github.com/rotisserie/eris"

	"github.com/beemnet-bee/viplayer/internal/agents"
	"github.com/beemnet-bee/viplayer/internal/audit"
	"github.com/beemnet-bee/viplayer/internal/auth"
	"github.com/beemnet-bee/viplayer/internal/localstore"
	"github.com/beemnet-bee/viplayer/internal/orchestrator"
	"github.com/beemnet-bee/viplayer/internal/session"
	"github.com/beemnet-bee/viplayer/internal/trace"
	"github.com/beemnet-bee/viplayer/pkg/anthropic"
	"github.com/beemnet-bee/viplayer/pkg/perplexity"
)

// env bundles the wired application stack for the commands.
type env struct {
	Store  localstore.Store
	Auth   auth.Store
	Sess   *session.Session
	Tracer *trace.Tracer
	Audit  *audit.Log
	Orch   *orchestrator.Orchestrator
}

func (e *env) Close() {
	e.Store.Close()
}

// initEnv opens the store for the configured driver and wires the stack.
func initEnv(ctx context.Context) (*env, error) {
	var store localstore.Store
	switch cfg.Store.Driver {
	case "postgres":
		pg, err := localstore.NewPostgres(ctx, cfg.Store.DatabaseURL)
		if err != nil {
			return nil, err
		}
		store = pg
	default:
		sq, err := localstore.NewSQLite(cfg.Store.Path)
		if err != nil {
			return nil, err
		}
		store = sq
	}
	if err := store.Migrate(ctx); err != nil {
		store.Close()
		return nil, eris.Wrap(err, "migrate store")
	}

	agentClient := agents.New(cfg,
		anthropic.NewClient(cfg.Anthropic.Key),
		perplexity.NewClient(cfg.Perplexity.Key,
			perplexity.WithBaseURL(cfg.Perplexity.BaseURL),
			perplexity.WithModel(cfg.Perplexity.Model),
		),
	)

	authStore := auth.New(store)
	sess := session.New(ctx, store)
	tracer := trace.New()
	auditLog := audit.New(cfg.Retention.AuditMaxEntries)
	orch := orchestrator.New(agentClient, authStore, sess, tracer, auditLog, cfg.Retention.HistoryMaxEntries)

	return &env{
		Store:  store,
		Auth:   authStore,
		Sess:   sess,
		Tracer: tracer,
		Audit:  auditLog,
		Orch:   orch,
	}, nil
}

// requireSignIn loads the persisted session and fails when nobody is signed
// in.
func requireSignIn(e *env) error {
	if _, ok := e.Sess.CurrentUser(); !ok {
		return eris.New("not signed in, run: viplayer login")
	}
	return nil
}
