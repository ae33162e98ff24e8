// Copyright © 2026 Teradata Corporation - All Rights Reserved.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.

package config

import (
	"os"
	"path/filepath"
	"strings"
)

// DataDir returns the runtime's data directory.
//
// Priority:
// 1. AGENTRT_DATA_DIR environment variable (if set and non-empty)
// 2. ~/.agentrt (default)
//
// Tilde (~) in AGENTRT_DATA_DIR is expanded to the user's home directory
// and relative paths are converted to absolute paths. When the home
// directory cannot be determined, the default is the relative path
// ".agentrt".
func DataDir() string {
	if dataDir := os.Getenv("AGENTRT_DATA_DIR"); dataDir != "" {
		return expandPath(dataDir)
	}

	homeDir, err := os.UserHomeDir()
	if err != nil {
		return ".agentrt"
	}
	return filepath.Join(homeDir, ".agentrt")
}

// SandboxDir returns the directory command-style tools execute in by
// default.
//
// Priority:
// 1. AGENTRT_SANDBOX_DIR environment variable (if set and non-empty)
// 2. DataDir() (default)
//
// Kept separate from DataDir so sandbox execution never shares a root with
// internal state (databases, event logs, agent configs).
func SandboxDir() string {
	if sandboxDir := os.Getenv("AGENTRT_SANDBOX_DIR"); sandboxDir != "" {
		return expandPath(sandboxDir)
	}
	return DataDir()
}

// SubDir returns a subdirectory within the runtime's data directory.
// Example: SubDir("agents") returns ~/.agentrt/agents.
func SubDir(subdir string) string {
	return filepath.Join(DataDir(), subdir)
}

// expandPath expands ~ and resolves to absolute path
func expandPath(path string) string {
	if strings.HasPrefix(path, "~/") {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return path // Return as-is if we can't get home dir
		}
		return filepath.Join(homeDir, path[2:])
	}

	// Make path absolute
	absPath, err := filepath.Abs(path)
	if err != nil {
		return path // Return as-is if we can't make it absolute
	}
	return absPath
}
