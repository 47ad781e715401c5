// Copyright (c) 2025 Girderworks and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package main

import (
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"strings"

	"github.com/girderworks/girder"
	"github.com/girderworks/girder/config"
	"github.com/girderworks/girder/endpoint"
	girderhttp "github.com/girderworks/girder/http"
)

const cfg = `
url:
  host: localhost
http:
  port: 8080
`

func main() {
	logHandler := slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{AddSource: true})

	sup := endpoint.NewSupervisor(
		girderhttp.NewAdapter(girderhttp.LogHandler(logHandler)),
		endpoint.LogHandler(logHandler),
		endpoint.WithConfig("SimpleWeb.Endpoint", config.FromYaml(strings.NewReader(cfg))),
	)

	mux := http.NewServeMux()
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, "Hello, world")
	})

	err := girder.New(
		girder.Name("simpleweb"),
		girder.WithRuntime(endpoint.Serve(sup, "simpleweb", "SimpleWeb.Endpoint", mux)),
	).Run()
	if err != nil {
		slog.New(logHandler).Error("failed to run", slog.Any("error", err))
		os.Exit(1)
	}
}
