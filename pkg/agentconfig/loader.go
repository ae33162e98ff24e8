// Copyright 2026 Teradata
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//	http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.
package agentconfig

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"
)

// Loader discovers the *.yaml files directly in a directory and in its
// immediate subdirectories (deeper nesting is not scanned), migrates each to
// CurrentVersion, and caches the result keyed by Key. Errors in any single
// file are logged and that file is skipped; the loader never aborts on one
// bad file.
//
// Loader is safe for concurrent use; callers typically hold one Loader per
// agents directory (a per-path singleton in the reference server).
type Loader struct {
	dir    string
	logger *zap.Logger

	mu        sync.RWMutex
	catalog   map[string]AgentConfiguration
	migration []MigrationRecord
	watcher   *fsnotify.Watcher
}

// NewLoader constructs a Loader rooted at dir and performs an initial scan.
func NewLoader(dir string, logger *zap.Logger) (*Loader, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	l := &Loader{
		dir:     dir,
		logger:  logger,
		catalog: make(map[string]AgentConfiguration),
	}
	if err := l.Reload(); err != nil {
		return nil, err
	}
	return l, nil
}

// Reload re-scans the directory, replacing the cached catalog and resetting
// the migration report.
func (l *Loader) Reload() error {
	entries, err := filepath.Glob(filepath.Join(l.dir, "*.yaml"))
	if err != nil {
		return fmt.Errorf("agentconfig: glob agents dir: %w", err)
	}
	nested, _ := filepath.Glob(filepath.Join(l.dir, "**", "*.yaml"))
	entries = append(entries, nested...)

	catalog := make(map[string]AgentConfiguration, len(entries))
	var report []MigrationRecord

	for _, path := range entries {
		cfg, migrated, err := l.loadFile(path)
		if err != nil {
			l.logger.Warn("skipping agent config", zap.String("path", path), zap.Error(err))
			continue
		}
		if migrated {
			report = append(report, MigrationRecord{Path: path, Key: cfg.Key, FromVersion: 1, ToVersion: CurrentVersion})
		}
		catalog[cfg.Key] = cfg
	}

	l.mu.Lock()
	l.catalog = catalog
	l.migration = report
	l.mu.Unlock()
	return nil
}

func (l *Loader) loadFile(path string) (AgentConfiguration, bool, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return AgentConfiguration{}, false, fmt.Errorf("read: %w", err)
	}
	var raw rawFile
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return AgentConfiguration{}, false, fmt.Errorf("parse yaml: %w", err)
	}
	if raw.Name == "" || raw.ModelID == "" {
		return AgentConfiguration{}, false, fmt.Errorf("missing required field (name/model_id)")
	}
	cfg, migrated := migrateRaw(raw, string(data))
	if err := cfg.Validate(); err != nil {
		return AgentConfiguration{}, false, err
	}
	cfg.sourcePath = path
	return cfg, migrated, nil
}

// Catalog returns the full key->config map. Callers must not mutate it.
func (l *Loader) Catalog() map[string]AgentConfiguration {
	l.mu.RLock()
	defer l.mu.RUnlock()
	out := make(map[string]AgentConfiguration, len(l.catalog))
	for k, v := range l.catalog {
		out[k] = v
	}
	return out
}

// ClientCatalog returns catalog entries sorted by Name, the shape a UI
// listing consumes.
func (l *Loader) ClientCatalog() []AgentConfiguration {
	l.mu.RLock()
	defer l.mu.RUnlock()
	out := make([]AgentConfiguration, 0, len(l.catalog))
	for _, v := range l.catalog {
		out = append(out, v)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// AgentNames returns every catalog key, sorted.
func (l *Loader) AgentNames() []string {
	l.mu.RLock()
	defer l.mu.RUnlock()
	out := make([]string, 0, len(l.catalog))
	for k := range l.catalog {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

// Get returns the cached config for key, if any.
func (l *Loader) Get(key string) (AgentConfiguration, bool) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	cfg, ok := l.catalog[key]
	return cfg, ok
}

// Duplicate returns an independent copy of the catalog entry for key,
// suitable for installing on a session via Bridge.set_agent.
func (l *Loader) Duplicate(key string) (AgentConfiguration, error) {
	cfg, ok := l.Get(key)
	if !ok {
		return AgentConfiguration{}, fmt.Errorf("agentconfig: unknown agent key %q", key)
	}
	return cfg.Duplicate(), nil
}

// AddAgentConfig installs a config directly into the in-memory catalog
// (used by tests and by programmatic agent registration) without touching
// disk.
func (l *Loader) AddAgentConfig(cfg AgentConfiguration) error {
	if err := cfg.Validate(); err != nil {
		return err
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	l.catalog[cfg.Key] = cfg
	return nil
}

// GetMigrationReport returns the records produced by the most recent scan.
func (l *Loader) GetMigrationReport() []MigrationRecord {
	l.mu.RLock()
	defer l.mu.RUnlock()
	out := make([]MigrationRecord, len(l.migration))
	copy(out, l.migration)
	return out
}

// SaveMigratedConfigs rewrites every migrated file's YAML to CurrentVersion
// on disk, first copying the original to backupDir (if non-empty) so the
// v1 text isn't lost.
func (l *Loader) SaveMigratedConfigs(backupDir string) error {
	l.mu.RLock()
	report := append([]MigrationRecord(nil), l.migration...)
	catalog := make(map[string]AgentConfiguration, len(l.catalog))
	for k, v := range l.catalog {
		catalog[k] = v
	}
	l.mu.RUnlock()

	for _, rec := range report {
		cfg, ok := catalog[rec.Key]
		if !ok {
			continue
		}
		if backupDir != "" {
			if err := os.MkdirAll(backupDir, 0o755); err != nil {
				return fmt.Errorf("agentconfig: mkdir backup dir: %w", err)
			}
			original, err := os.ReadFile(rec.Path)
			if err != nil {
				return fmt.Errorf("agentconfig: read original %s: %w", rec.Path, err)
			}
			backupPath := filepath.Join(backupDir, filepath.Base(rec.Path)+".bak")
			if err := os.WriteFile(backupPath, original, 0o644); err != nil {
				return fmt.Errorf("agentconfig: write backup %s: %w", backupPath, err)
			}
		}
		out, err := yaml.Marshal(cfg)
		if err != nil {
			return fmt.Errorf("agentconfig: marshal %s: %w", rec.Key, err)
		}
		if err := os.WriteFile(rec.Path, out, 0o644); err != nil {
			return fmt.Errorf("agentconfig: write %s: %w", rec.Path, err)
		}
	}
	return nil
}

// WatchReload starts an fsnotify watch on the agents directory and calls
// Reload on every write/create/remove event, logging (never panicking) on
// a reload failure. Callers must call StopWatch to release the watcher.
func (l *Loader) WatchReload() error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("agentconfig: create watcher: %w", err)
	}
	if err := watcher.Add(l.dir); err != nil {
		watcher.Close()
		return fmt.Errorf("agentconfig: watch %s: %w", l.dir, err)
	}
	l.mu.Lock()
	l.watcher = watcher
	l.mu.Unlock()

	go func() {
		for {
			select {
			case event, ok := <-watcher.Events:
				if !ok {
					return
				}
				if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Remove|fsnotify.Rename) == 0 {
					continue
				}
				if err := l.Reload(); err != nil {
					l.logger.Warn("agent config reload failed", zap.Error(err))
				}
			case err, ok := <-watcher.Errors:
				if !ok {
					return
				}
				l.logger.Warn("agent config watcher error", zap.Error(err))
			}
		}
	}()
	return nil
}

// StopWatch closes the fsnotify watcher started by WatchReload, if any.
func (l *Loader) StopWatch() error {
	l.mu.Lock()
	w := l.watcher
	l.watcher = nil
	l.mu.Unlock()
	if w == nil {
		return nil
	}
	return w.Close()
}
