// Copyright (c) 2025 Girderworks and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package config

import (
	"strings"
	"testing"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
)

func TestEnv_Apply(t *testing.T) {
	t.Run("will apply environment variables", func(t *testing.T) {
		t.Run("if they are well formed", func(t *testing.T) {
			src := Env{
				environ: func() []string {
					return []string{
						"PORT=4000",
						"malformed",
						"HOST=example.com",
					}
				},
			}

			m, err := Read(src)
			if !assert.Nil(t, err) {
				return
			}

			var cfg struct {
				Port int    `config:"PORT"`
				Host string `config:"HOST"`
			}
			if !assert.Nil(t, m.Unmarshal(&cfg)) {
				return
			}

			assert.Equal(t, 4000, cfg.Port)
			assert.Equal(t, "example.com", cfg.Host)
		})
	})
}

func TestYaml_Apply(t *testing.T) {
	t.Run("will return an error", func(t *testing.T) {
		t.Run("if the yaml is invalid", func(t *testing.T) {
			_, err := Read(FromYaml(strings.NewReader("\t")))

			var iye InvalidYamlError
			assert.ErrorAs(t, err, &iye)
		})
	})

	t.Run("will apply nested values", func(t *testing.T) {
		t.Run("if the yaml is valid", func(t *testing.T) {
			m, err := Read(FromYaml(strings.NewReader(`
http:
  port: 4000
url:
  host: example.com
`)))
			if !assert.Nil(t, err) {
				return
			}

			var cfg struct {
				HTTP struct {
					Port int `config:"port"`
				} `config:"http"`
				URL struct {
					Host string `config:"host"`
				} `config:"url"`
			}
			if !assert.Nil(t, m.Unmarshal(&cfg)) {
				return
			}

			assert.Equal(t, 4000, cfg.HTTP.Port)
			assert.Equal(t, "example.com", cfg.URL.Host)
		})
	})
}

func TestJson_Apply(t *testing.T) {
	t.Run("will return an error", func(t *testing.T) {
		t.Run("if the json is invalid", func(t *testing.T) {
			_, err := Read(FromJson(strings.NewReader("{")))

			var ije InvalidJsonError
			assert.ErrorAs(t, err, &ije)
		})
	})

	t.Run("will apply nested values", func(t *testing.T) {
		t.Run("if the json is valid", func(t *testing.T) {
			m, err := Read(FromJson(strings.NewReader(`{"http": {"port": 4000}}`)))
			if !assert.Nil(t, err) {
				return
			}

			var cfg struct {
				HTTP struct {
					Port int `config:"port"`
				} `config:"http"`
			}
			if !assert.Nil(t, m.Unmarshal(&cfg)) {
				return
			}

			assert.Equal(t, 4000, cfg.HTTP.Port)
		})
	})
}

func TestViper_Apply(t *testing.T) {
	t.Run("will apply nothing", func(t *testing.T) {
		t.Run("if the viper instance is nil", func(t *testing.T) {
			m, err := Read(FromViper(nil))
			if !assert.Nil(t, err) {
				return
			}

			var cfg struct {
				Port int `config:"port"`
			}
			assert.Nil(t, m.Unmarshal(&cfg))
			assert.Zero(t, cfg.Port)
		})
	})

	t.Run("will apply all settings", func(t *testing.T) {
		t.Run("if values were set on the viper instance", func(t *testing.T) {
			v := viper.New()
			v.Set("http.port", 4000)
			v.Set("url.host", "example.com")

			m, err := Read(FromViper(v))
			if !assert.Nil(t, err) {
				return
			}

			var cfg struct {
				HTTP struct {
					Port int `config:"port"`
				} `config:"http"`
				URL struct {
					Host string `config:"host"`
				} `config:"url"`
			}
			if !assert.Nil(t, m.Unmarshal(&cfg)) {
				return
			}

			assert.Equal(t, 4000, cfg.HTTP.Port)
			assert.Equal(t, "example.com", cfg.URL.Host)
		})
	})
}
