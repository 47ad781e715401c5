// Copyright (c) 2025 Girderworks and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package girder

import (
	"context"
	"errors"
	"testing"

	"github.com/girderworks/girder/config"

	"github.com/stretchr/testify/assert"
)

func TestApp_Run(t *testing.T) {
	t.Run("will return an error", func(t *testing.T) {
		t.Run("if a config source fails to apply", func(t *testing.T) {
			app := New(
				Name("test"),
				Config(config.FromJson(readerFunc(func([]byte) (int, error) {
					return 0, errors.New("broken reader")
				}))),
			)

			err := app.Run()

			var cre ConfigReadError
			assert.ErrorAs(t, err, &cre)
		})

		t.Run("if a runtime builder fails", func(t *testing.T) {
			buildErr := errors.New("failed to build")
			app := New(
				Name("test"),
				WithRuntimeBuilderFunc(func(ctx context.Context) (Runtime, error) {
					return nil, buildErr
				}),
			)

			err := app.Run()

			var rbe RuntimeBuildError
			if !assert.ErrorAs(t, err, &rbe) {
				return
			}
			assert.ErrorIs(t, err, buildErr)
		})

		t.Run("if a runtime builder returns a nil runtime", func(t *testing.T) {
			app := New(
				Name("test"),
				WithRuntimeBuilderFunc(func(ctx context.Context) (Runtime, error) {
					return nil, nil
				}),
			)

			err := app.Run()
			assert.ErrorIs(t, err, errNilRuntime)
		})

		t.Run("if a runtime fails", func(t *testing.T) {
			runErr := errors.New("failed to run")
			app := New(
				Name("test"),
				WithRuntime(RuntimeFunc(func(ctx context.Context) error {
					return runErr
				})),
			)

			err := app.Run()
			assert.ErrorIs(t, err, runErr)
		})

		t.Run("if a runtime panics", func(t *testing.T) {
			app := New(
				Name("test"),
				WithRuntime(RuntimeFunc(func(ctx context.Context) error {
					panic("uh oh")
				})),
			)

			err := app.Run()
			assert.NotNil(t, err)
		})

		t.Run("if a pre run hook fails", func(t *testing.T) {
			hookErr := errors.New("pre run failed")

			ran := false
			app := New(
				Name("test"),
				WithRuntime(RuntimeFunc(func(ctx context.Context) error {
					ran = true
					return nil
				})),
				Hooks(func(life *Lifecycle) {
					life.PreRun(func(ctx context.Context) error {
						return hookErr
					})
				}),
			)

			err := app.Run()
			if !assert.NotNil(t, err) {
				return
			}
			assert.False(t, ran)
		})
	})

	t.Run("will not return an error", func(t *testing.T) {
		t.Run("if no runtimes are registered", func(t *testing.T) {
			app := New(Name("test"))

			assert.Nil(t, app.Run())
		})

		t.Run("if a single runtime runs to completion", func(t *testing.T) {
			ran := false
			app := New(
				Name("test"),
				WithRuntime(RuntimeFunc(func(ctx context.Context) error {
					ran = true
					return nil
				})),
			)

			if !assert.Nil(t, app.Run()) {
				return
			}
			assert.True(t, ran)
		})

		t.Run("if multiple runtimes run to completion", func(t *testing.T) {
			n := 0
			rt := func(ctx context.Context) error {
				n += 1
				return nil
			}

			app := New(
				Name("test"),
				WithRuntime(RuntimeFunc(rt)),
				WithRuntimeBuilderFunc(func(ctx context.Context) (Runtime, error) {
					return RuntimeFunc(func(ctx context.Context) error {
						return nil
					}), nil
				}),
			)

			if !assert.Nil(t, app.Run()) {
				return
			}
			assert.Equal(t, 1, n)
		})
	})

	t.Run("will expose the merged config", func(t *testing.T) {
		t.Run("if a runtime builder asks for it", func(t *testing.T) {
			var port int
			app := New(
				Name("test"),
				Config(config.Map{"port": 4000}),
				WithRuntimeBuilderFunc(func(ctx context.Context) (Runtime, error) {
					var cfg struct {
						Port int `config:"port"`
					}
					err := ConfigFromContext(ctx).Unmarshal(&cfg)
					if err != nil {
						return nil, err
					}
					port = cfg.Port

					return RuntimeFunc(func(ctx context.Context) error {
						return nil
					}), nil
				}),
			)

			if !assert.Nil(t, app.Run()) {
				return
			}
			assert.Equal(t, 4000, port)
		})
	})

	t.Run("will run lifecycle hooks", func(t *testing.T) {
		t.Run("if the runtime succeeds", func(t *testing.T) {
			var order []string
			app := New(
				Name("test"),
				WithRuntime(RuntimeFunc(func(ctx context.Context) error {
					order = append(order, "run")
					return nil
				})),
				Hooks(func(life *Lifecycle) {
					life.PreRun(func(ctx context.Context) error {
						order = append(order, "pre")
						return nil
					})
					life.PostRun(func(ctx context.Context) error {
						order = append(order, "post")
						return nil
					})
				}),
			)

			if !assert.Nil(t, app.Run()) {
				return
			}
			assert.Equal(t, []string{"pre", "run", "post"}, order)
		})
	})
}

type readerFunc func([]byte) (int, error)

func (f readerFunc) Read(b []byte) (int, error) {
	return f(b)
}
