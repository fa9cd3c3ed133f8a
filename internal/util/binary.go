// Package util provides shared utility functions.
package util

import (
	"fmt"
	"os"
	"os/exec"
)

// FindBinary searches for an executable binary by name.
// Search order:
//  1. Environment variable (if envVar is non-empty and set)
//  2. ./name (current directory, useful for development)
//  3. name on PATH (via exec.LookPath)
//
// Returns the path to the binary or an error if not found.
func FindBinary(name string, envVar string) (string, error) {
	if envVar != "" {
		if envPath := os.Getenv(envVar); envPath != "" && isExecutable(envPath) {
			return envPath, nil
		}
	}

	if localPath := "./" + name; isExecutable(localPath) {
		return localPath, nil
	}

	// LookPath already verifies executability.
	if path, err := exec.LookPath(name); err == nil {
		return path, nil
	}

	return "", fmt.Errorf("binary %s not found", name)
}

// isExecutable checks if a file exists and is executable by the current user.
func isExecutable(path string) bool {
	info, err := os.Stat(path)
	if err != nil || info.IsDir() {
		return false
	}
	return info.Mode()&0111 != 0
}
