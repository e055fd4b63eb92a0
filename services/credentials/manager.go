// Package credentials resolves API keys from runtime settings overrides or
// the environment. Overrides live in memory only and reset on restart; actual
// key values are never exposed through the API.
package credentials

import (
	"log"
	"os"
	"sync"
)

// Known credential keys and the env vars they fall back to.
var serviceEnvVars = map[string]string{
	"JINA_API_KEY": "JINA_API_KEY",
	"JINA_VLM_URL": "JINA_VLM_URL",
}

const (
	StatusConfiguredUI  = "configured_ui"
	StatusConfiguredEnv = "configured_env"
	StatusNotConfigured = "not_configured"
)

// Manager holds runtime credential overrides. Settings updates and chat
// requests run concurrently, so access is mutex-guarded.
type Manager struct {
	mu        sync.RWMutex
	overrides map[string]string
}

func NewManager() *Manager {
	return &Manager{overrides: make(map[string]string)}
}

// Get returns a credential value, preferring a runtime override over the
// environment.
func (m *Manager) Get(key string) string {
	m.mu.RLock()
	value, ok := m.overrides[key]
	m.mu.RUnlock()
	if ok {
		return value
	}

	envVar, known := serviceEnvVars[key]
	if !known {
		envVar = key
	}
	return os.Getenv(envVar)
}

// Set stores a runtime override. Unknown keys are ignored.
func (m *Manager) Set(key, value string) {
	if _, known := serviceEnvVars[key]; !known {
		log.Printf("[WARN] Unknown credential key: %s", key)
		return
	}
	m.mu.Lock()
	m.overrides[key] = value
	m.mu.Unlock()
	log.Printf("[INFO] Credential %q set via settings", key)
}

// Clear removes a runtime override, falling back to the environment.
func (m *Manager) Clear(key string) {
	m.mu.Lock()
	delete(m.overrides, key)
	m.mu.Unlock()
	log.Printf("[INFO] Credential %q cleared from settings", key)
}

func (m *Manager) keyStatus(key string) string {
	m.mu.RLock()
	_, overridden := m.overrides[key]
	m.mu.RUnlock()
	if overridden {
		return StatusConfiguredUI
	}
	if os.Getenv(serviceEnvVars[key]) != "" {
		return StatusConfiguredEnv
	}
	return StatusNotConfigured
}

// Status reports per-service configuration state without revealing values.
func (m *Manager) Status() map[string]string {
	return map[string]string{
		"jina_vlm": m.keyStatus("JINA_API_KEY"),
	}
}

// IsVisionReady reports whether the vision collaborator can be called.
func (m *Manager) IsVisionReady() bool {
	return m.Get("JINA_API_KEY") != ""
}
