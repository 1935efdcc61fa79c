package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"net/http"
	"sync"

	"github.com/gorilla/mux"
	"github.com/pkg/errors"
	"github.com/rs/cors"
	"go.uber.org/zap"

	"github.com/GunfireGames/Gunfire3DNavigation/internal/navlog"
	"github.com/GunfireGames/Gunfire3DNavigation/persist"
)

// renderToggleRequest/Response implement spec §6's one CLI/diagnostic
// surface: toggling rendering of a named nav-data configuration. This is
// the single endpoint the server exposes; everything else about navd's
// user-facing surface lives in the build/query subcommands, not here.
type renderToggleRequest struct {
	Name    string `json:"name"`
	Enabled bool   `json:"enabled"`
}

type renderToggleResponse struct {
	Name    string `json:"name"`
	Enabled bool   `json:"enabled"`
	Loaded  bool   `json:"loaded"`
}

// diagnosticServer tracks, per named nav-data configuration, whether it is
// currently loaded and whether debug rendering of it is toggled on. It
// owns no rendering itself (out of scope per spec §1); toggling just flips
// the flag a host-side renderer polls.
type diagnosticServer struct {
	mu       sync.Mutex
	loaded   map[string]bool
	rendered map[string]bool
}

func newDiagnosticServer() *diagnosticServer {
	return &diagnosticServer{loaded: make(map[string]bool), rendered: make(map[string]bool)}
}

func (d *diagnosticServer) load(name, path string) error {
	if _, err := persist.Load(path); err != nil {
		return err
	}
	d.mu.Lock()
	d.loaded[name] = true
	d.mu.Unlock()
	return nil
}

func (d *diagnosticServer) toggleRenderHandler(w http.ResponseWriter, r *http.Request) {
	var req renderToggleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Name == "" {
		http.Error(w, "invalid request", http.StatusBadRequest)
		return
	}

	d.mu.Lock()
	d.rendered[req.Name] = req.Enabled
	resp := renderToggleResponse{Name: req.Name, Enabled: d.rendered[req.Name], Loaded: d.loaded[req.Name]}
	d.mu.Unlock()

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(resp)
}

// runServe stands up the diagnostic HTTP surface, using the teacher's exact
// dependency pair (gorilla/mux for routing, rs/cors for CORS).
func runServe(args []string) error {
	fs := flag.NewFlagSet("serve", flag.ExitOnError)
	addr := fs.String("addr", ":8080", "listen address")
	navPath := fs.String("nav", "", "nav-data file to preload")
	navName := fs.String("name", "default", "name to register the preloaded nav-data configuration under")
	if err := fs.Parse(args); err != nil {
		return err
	}

	logger, err := navlog.New(navlog.Options{})
	if err != nil {
		return errors.Wrap(err, "navd serve: init logger")
	}
	defer logger.Sync()

	diag := newDiagnosticServer()
	if *navPath != "" {
		if err := diag.load(*navName, *navPath); err != nil {
			return errors.Wrap(err, "navd serve: preload nav data")
		}
	}

	router := mux.NewRouter()
	router.HandleFunc("/diagnostic/render", diag.toggleRenderHandler).Methods("POST")

	c := cors.New(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"*"},
	})

	logger.Info("navd serve: listening", zap.String("addr", *addr))
	fmt.Printf("navd serve: listening on %s\n", *addr)
	return http.ListenAndServe(*addr, c.Handler(router))
}
