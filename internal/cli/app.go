// Package cli is the operator console: cobra commands acting as the screens
// of the ERP client.
package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"erpconsole/internal/api"
	"erpconsole/internal/apiclient"
	"erpconsole/internal/config"
	"erpconsole/internal/querycache"
	"erpconsole/internal/session"
	"erpconsole/internal/tokenstore"
)

// ErrNotSignedIn is returned by commands that need a session when there is none.
var ErrNotSignedIn = errors.New("not signed in, run `erpconsole login` first")

// Options wire the console to its environment. Zero fields fall back to the
// process defaults: configuration from the environment, the configured
// token store, and the standard streams.
type Options struct {
	Config *config.Console
	Store  tokenstore.Store
	In     io.Reader
	Out    io.Writer
	Err    io.Writer
}

// App is the console state shared by every command of one invocation.
type App struct {
	Config  *config.Console
	Store   tokenstore.Store
	API     *api.API
	Session *session.Session
	Cache   *querycache.Cache

	nav  *screenNav
	in   *bufio.Reader
	out  io.Writer
	errw io.Writer
}

func newApp(ctx context.Context, opts Options) (*App, error) {
	cfg := opts.Config
	if cfg == nil {
		var err error
		if cfg, err = config.LoadConsole(); err != nil {
			return nil, err
		}
	}

	store := opts.Store
	if store == nil {
		var err error
		if store, err = openStore(ctx, cfg); err != nil {
			return nil, err
		}
	}

	in, out, errw := opts.In, opts.Out, opts.Err
	if in == nil {
		in = os.Stdin
	}
	if out == nil {
		out = os.Stdout
	}
	if errw == nil {
		errw = os.Stderr
	}

	client := apiclient.New(cfg.APIURL, store, apiclient.WithTimeout(cfg.HTTPTimeout))
	a := api.New(client)
	nav := &screenNav{}
	sess := session.New(store, a.Auth, nav)
	sess.Watch(client)
	client.OnAuthCleared(func() {
		fmt.Fprintln(errw, "Your session has expired. Run `erpconsole login` to sign in again.")
	})

	app := &App{
		Config:  cfg,
		Store:   store,
		API:     a,
		Session: sess,
		Cache:   querycache.New(0),
		nav:     nav,
		in:      bufio.NewReader(in),
		out:     out,
		errw:    errw,
	}
	if sess.Hydrate() == session.StateAuthenticated {
		nav.current = session.PathDashboard
	} else {
		nav.current = session.PathLogin
	}
	return app, nil
}

func openStore(ctx context.Context, cfg *config.Console) (tokenstore.Store, error) {
	switch cfg.SessionBackend {
	case "memory":
		return tokenstore.NewMemoryStore(), nil
	case "redis":
		client, err := tokenstore.DialRedis(ctx, cfg.RedisAddress)
		if err != nil {
			return nil, fmt.Errorf("connect to redis at %s: %w", cfg.RedisAddress, err)
		}
		return tokenstore.NewRedisStore(client, cfg.RedisPrefix), nil
	default:
		return tokenstore.NewFileStore(cfg.SessionFile), nil
	}
}

// requireSession fails unless somebody is signed in.
func (a *App) requireSession() error {
	if !a.Session.Authenticated() {
		return ErrNotSignedIn
	}
	return nil
}
