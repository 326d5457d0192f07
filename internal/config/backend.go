package config

import (
	"fmt"
	"strings"
)

const (
	BackendExec = "exec"
	BackendTone = "tone"
)

func NormalizeBackend(raw string) (string, error) {
	backend := strings.ToLower(strings.TrimSpace(raw))
	if backend == "" {
		backend = BackendExec
	}
	switch backend {
	case BackendExec, BackendTone:
		return backend, nil
	case "sidecar":
		return BackendExec, nil
	default:
		return "", fmt.Errorf("invalid backend %q (expected %s|%s)", raw, BackendExec, BackendTone)
	}
}
