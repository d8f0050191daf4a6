// SPDX-License-Identifier: GPL-3.0-or-later

// Command probed runs the probe engine as an HTTP service: a CRUD API
// for ISPs, websites, and game servers, a Prometheus /metrics endpoint,
// and the operator console that drives them.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/bassosimone/probeengine/internal/api"
	"github.com/bassosimone/probeengine/internal/metricshandler"
	"github.com/bassosimone/probeengine/internal/store"
	"github.com/bassosimone/probeengine/internal/webui"
)

// version is stamped into the operator console; overridden at release
// build time via -ldflags.
var version = "dev"

func main() {
	addr := flag.String("addr", ":3100", "HTTP listen address (e.g. :3100)")
	dbPath := flag.String("db", store.DefaultPath, "path to the JSON database file")
	shutdownTimeout := flag.Duration("shutdown_timeout", 5*time.Second, "graceful shutdown deadline")
	flag.Parse()

	s, err := store.New(*dbPath)
	if err != nil {
		log.Fatalf("probed: cannot open database %s: %v", *dbPath, err)
	}

	apiServer := api.NewServer(s)

	mux := http.NewServeMux()
	apiServer.RegisterRoutes(mux)
	webui.New(version).RegisterRoutes(mux)
	mux.Handle("GET /metrics", metricshandler.New(apiServer))

	httpServer := &http.Server{
		Addr:    *addr,
		Handler: mux,
	}

	go func() {
		fmt.Printf("probed %s listening on %s\n", version, *addr)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("probed: listen on %s: %v", *addr, err)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	fmt.Println("probed: shutting down...")
	ctx, cancel := context.WithTimeout(context.Background(), *shutdownTimeout)
	defer cancel()
	if err := httpServer.Shutdown(ctx); err != nil {
		log.Fatalf("probed: shutdown failed: %v", err)
	}
	fmt.Println("probed: stopped")
}
