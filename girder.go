// Copyright (c) 2025 Girderworks and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package girder

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strings"

	"github.com/girderworks/girder/config"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
)

// Runtime represents the entry point for user specific code.
// The Runtime should not worry about things like OS interrupts
// and config parsing because App is responsible for managing those
// more "low-level" things. A Runtime should be purely focused on
// running use case specific code e.g. serving a web endpoint,
// running a background job, etc.
type Runtime interface {
	Run(context.Context) error
}

// RuntimeFunc is a functional implementation of the Runtime interface.
type RuntimeFunc func(context.Context) error

// Run implements the Runtime interface.
func (f RuntimeFunc) Run(ctx context.Context) error {
	return f(ctx)
}

// RuntimeBuilder represents anything which can initialize a Runtime.
type RuntimeBuilder interface {
	Build(context.Context) (Runtime, error)
}

// RuntimeBuilderFunc is a functional implementation of
// the RuntimeBuilder interface.
type RuntimeBuilderFunc func(context.Context) (Runtime, error)

// Build implements the RuntimeBuilder interface.
func (f RuntimeBuilderFunc) Build(ctx context.Context) (Runtime, error) {
	return f(ctx)
}

// Lifecycle provides the ability to hook into certain points of
// the girder App.Run process.
type Lifecycle struct {
	preRunHooks  []func(context.Context) error
	postRunHooks []func(context.Context) error
}

// PreRun registers hooks to be called after the config is parsed and before Runtime.Run is called.
func (l *Lifecycle) PreRun(hooks ...func(context.Context) error) {
	l.preRunHooks = append(l.preRunHooks, hooks...)
}

// PostRun registers hooks to be called after Runtime.Run has completed, regardless
// whether it returned an error or not.
func (l *Lifecycle) PostRun(hooks ...func(context.Context) error) {
	l.postRunHooks = append(l.postRunHooks, hooks...)
}

type contextKey string

var (
	configContextKey    = contextKey("configContextKey")
	lifecycleContextKey = contextKey("lifecycleContextKey")
)

// ConfigFromContext extracts a *config.Manager from the given context.Context if it's present.
func ConfigFromContext(ctx context.Context) *config.Manager {
	return ctx.Value(configContextKey).(*config.Manager)
}

// LifecycleFromContext extracts a *Lifecycle from the given context.Context if it's present.
func LifecycleFromContext(ctx context.Context) *Lifecycle {
	return ctx.Value(lifecycleContextKey).(*Lifecycle)
}

// Option are used to configure an App.
type Option func(*App)

// Name configures the name of the application.
func Name(name string) Option {
	return func(a *App) {
		a.name = name
	}
}

// Config registers a config source with the application.
// If used multiple times, subsequent sources will be merged
// with the very first source provided. The subsequent sources
// values will override any previous sources values.
func Config(src config.Source) Option {
	return func(a *App) {
		a.cfgSrcs = append(a.cfgSrcs, src)
	}
}

// WithRuntimeBuilder registers the given RuntimeBuilder with the App.
func WithRuntimeBuilder(rb RuntimeBuilder) Option {
	return func(a *App) {
		a.rbs = append(a.rbs, rb)
	}
}

// WithRuntimeBuilderFunc registers the given function as a RuntimeBuilder.
func WithRuntimeBuilderFunc(f func(context.Context) (Runtime, error)) Option {
	return func(a *App) {
		a.rbs = append(a.rbs, RuntimeBuilderFunc(f))
	}
}

// WithRuntime registers an already initialized Runtime with the App.
func WithRuntime(rt Runtime) Option {
	return func(a *App) {
		a.rbs = append(a.rbs, RuntimeBuilderFunc(func(context.Context) (Runtime, error) {
			return rt, nil
		}))
	}
}

// Hooks allows you to register multiple lifecycle hooks.
func Hooks(fs ...func(*Lifecycle)) Option {
	return func(a *App) {
		for _, f := range fs {
			f(&a.life)
		}
	}
}

// App handles the lower level things of running a service in Go.
// App is responsible for the following:
//   - Parsing (and merging) your config source(s)
//   - Calling your lifecycle hooks at the appropriate times
//   - Running your Runtime(s) and propogating any OS interrupts
//     via context.Context cancellation
type App struct {
	name    string
	cfgSrcs []config.Source
	rbs     []RuntimeBuilder
	life    Lifecycle
}

// New returns a fully initialized App.
func New(opts ...Option) *App {
	var name string
	if len(os.Args) > 0 {
		name = os.Args[0]
	}
	app := &App{
		name: name,
	}
	for _, opt := range opts {
		opt(app)
	}
	return app
}

// Run executes the application. It also handles listening
// for interrupts from the underlying OS and terminates
// the application when one is received.
func (app *App) Run(args ...string) error {
	cmd := buildCmd(app)
	cmd.SetArgs(args)

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, os.Kill)
	defer cancel()

	return cmd.ExecuteContext(ctx)
}

var errNilRuntime = errors.New("nil runtime")

func buildCmd(app *App) *cobra.Command {
	var cfg *config.Manager

	rs := make([]Runtime, len(app.rbs))

	return &cobra.Command{
		Use:          app.name,
		SilenceUsage: true,
		PreRunE: func(cmd *cobra.Command, args []string) (err error) {
			defer errRecover(&err)

			cfg, err = config.Read(app.cfgSrcs...)
			if err != nil {
				return ConfigReadError{Cause: err}
			}

			// tell the garbage collector that we no longer
			// need the config sources and they can be collected
			app.cfgSrcs = nil

			ctx := context.WithValue(cmd.Context(), configContextKey, cfg)
			ctx = context.WithValue(ctx, lifecycleContextKey, &app.life)

			for i, rb := range app.rbs {
				r, err := rb.Build(ctx)
				if err != nil {
					return RuntimeBuildError{Cause: err}
				}
				if r == nil {
					return errNilRuntime
				}
				rs[i] = r

				app.rbs[i] = nil
			}
			// we no longer need this slice since all runtimes have been built
			app.rbs = nil

			var me multiError
			for _, f := range app.life.preRunHooks {
				err := f(ctx)
				if err != nil {
					me.errors = append(me.errors, err)
				}
			}
			if len(me.errors) == 0 {
				return nil
			}
			return me
		},
		RunE: func(cmd *cobra.Command, args []string) (err error) {
			defer errRecover(&err)

			if len(rs) == 0 {
				return
			}
			if len(rs) == 1 {
				return rs[0].Run(cmd.Context())
			}

			g, gctx := errgroup.WithContext(cmd.Context())
			for _, rt := range rs {
				rt := rt
				g.Go(func() (e error) {
					defer errRecover(&e)
					return rt.Run(gctx)
				})
			}
			return g.Wait()
		},
		PostRunE: func(cmd *cobra.Command, args []string) error {
			ctx := context.WithValue(cmd.Context(), configContextKey, cfg)
			ctx = context.WithValue(ctx, lifecycleContextKey, &app.life)

			var me multiError
			for _, f := range app.life.postRunHooks {
				err := f(ctx)
				if err != nil {
					me.errors = append(me.errors, err)
				}
			}

			if len(me.errors) == 0 {
				return nil
			}
			return me
		},
	}
}

// ConfigReadError occurs when the registered config sources fail to be read or merged.
type ConfigReadError struct {
	Cause error
}

// Error implements the [builtin.error] interface.
func (e ConfigReadError) Error() string {
	return fmt.Sprintf("failed to read config source(s): %s", e.Cause)
}

// Unwrap implements the implicit interface used by [errors.Is] and [errors.As].
func (e ConfigReadError) Unwrap() error {
	return e.Cause
}

// RuntimeBuildError occurs when a registered RuntimeBuilder fails.
type RuntimeBuildError struct {
	Cause error
}

// Error implements the [builtin.error] interface.
func (e RuntimeBuildError) Error() string {
	return fmt.Sprintf("failed to build runtime: %s", e.Cause)
}

// Unwrap implements the implicit interface used by [errors.Is] and [errors.As].
func (e RuntimeBuildError) Unwrap() error {
	return e.Cause
}

type multiError struct {
	errors []error
}

func (m multiError) Error() string {
	if len(m.errors) == 0 {
		return ""
	}

	e := ""
	for _, err := range m.errors {
		e += err.Error() + ";"
	}

	return strings.TrimSuffix(e, ";")
}

type panicError struct {
	v any
}

func (e panicError) Error() string {
	return fmt.Sprintf("girder: recovered from a panic caused by: %v", e.v)
}

func errRecover(err *error) {
	r := recover()
	if r == nil {
		return
	}
	rerr, ok := r.(error)
	if !ok {
		*err = panicError{v: r}
		return
	}
	*err = rerr
}
