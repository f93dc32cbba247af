/*
Copyright 2024 The Chronos Authors

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

    http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/

// Package server exposes the manager's state over HTTP for the serve mode:
// health, Prometheus metrics and read-only JSON views of partitions, devices
// and the shared lock directory.
package server

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/go-chi/chi/v5"
	"github.com/go-logr/logr"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/Oabraham1/chronos/pkg/lockstore"
	"github.com/Oabraham1/chronos/pkg/metricscollector"
	"github.com/Oabraham1/chronos/pkg/partition"
)

const shutdownTimeout = 5 * time.Second

// Server serves the HTTP status surface.
type Server struct {
	manager *partition.Manager
	log     logr.Logger
	addr    string
}

// New returns a Server for the given manager.
func New(manager *partition.Manager, addr string, log logr.Logger) *Server {
	return &Server{manager: manager, log: log, addr: addr}
}

// Run serves until ctx is cancelled. The lock-directory watcher runs
// alongside; its failure is logged but does not stop the server.
func (s *Server) Run(ctx context.Context) error {
	router := chi.NewRouter()
	router.Get("/healthz", s.handleHealthz)
	router.Handle("/metrics", promhttp.Handler())
	router.Get("/api/v1/partitions", s.handlePartitions)
	router.Get("/api/v1/devices", s.handleDevices)
	router.Get("/api/v1/locks", s.handleLocks)

	httpServer := &http.Server{
		Addr:    s.addr,
		Handler: router,
	}

	go s.watchLockDir(ctx)

	errCh := make(chan error, 1)
	go func() {
		s.log.Info("status server listening", "addr", s.addr)
		errCh <- httpServer.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return httpServer.Shutdown(shutdownCtx)
}

func (s *Server) handleHealthz(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

func (s *Server) handlePartitions(w http.ResponseWriter, _ *http.Request) {
	snapshots := s.manager.List()
	if snapshots == nil {
		snapshots = []partition.Snapshot{}
	}
	s.writeJSON(w, snapshots)
}

func (s *Server) handleDevices(w http.ResponseWriter, _ *http.Request) {
	stats := s.manager.DeviceStats()
	if stats == nil {
		stats = []partition.DeviceStat{}
	}
	s.writeJSON(w, stats)
}

func (s *Server) handleLocks(w http.ResponseWriter, _ *http.Request) {
	infos, err := s.manager.Locks()
	if err != nil {
		s.log.Error(err, "listing lock files")
		http.Error(w, "failed to list locks", http.StatusInternalServerError)
		return
	}
	if infos == nil {
		infos = []lockstore.Info{}
	}
	s.writeJSON(w, infos)
}

func (s *Server) writeJSON(w http.ResponseWriter, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		s.log.Error(err, "encoding response")
	}
}

// watchLockDir keeps the lock-file gauge current and logs lock activity
// from every process sharing the directory, this one included.
func (s *Server) watchLockDir(ctx context.Context) {
	dir := s.manager.LockDir()

	s.refreshLockGauge()

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		s.log.Error(err, "lock directory watcher unavailable")
		return
	}
	defer watcher.Close()

	if err := watcher.Add(dir); err != nil {
		s.log.Error(err, "cannot watch lock directory", "dir", dir)
		return
	}

	for {
		select {
		case <-ctx.Done():
			return
		case event, ok := <-watcher.Events:
			if !ok {
				return
			}
			if event.Op&(fsnotify.Create|fsnotify.Remove|fsnotify.Rename) != 0 {
				s.log.V(1).Info("lock directory changed", "op", event.Op.String(), "path", event.Name)
				s.refreshLockGauge()
			}
		case err, ok := <-watcher.Errors:
			if !ok {
				return
			}
			s.log.Error(err, "lock directory watch error")
		}
	}
}

func (s *Server) refreshLockGauge() {
	infos, err := s.manager.Locks()
	if err != nil {
		s.log.Error(err, "counting lock files")
		return
	}
	metricscollector.RecordLockFiles(len(infos))
}
