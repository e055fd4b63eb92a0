package config

import (
	"log"
	"os"

	"github.com/joho/godotenv"
)

type Config struct {
	Port string

	// Upstream agent orchestration service (Kibana Agent Builder).
	KibanaURL      string
	KibanaAPIKey   string
	DefaultAgentID string

	// Document search engine (product catalog, reviews, clickstream, orders).
	SearchURL    string
	SearchAPIKey string

	// Vision collaborator (Jina VLM, OpenAI-compatible).
	JinaAPIKey string

	// Optional API key protecting /api routes. Empty disables auth.
	BackendAPIKey string
}

// Load reads configuration from the environment. A local .env file is loaded
// first unless WORKSHOP=true, where the environment is provisioned externally.
func Load() *Config {
	if os.Getenv("WORKSHOP") != "true" {
		if err := godotenv.Load(); err != nil {
			log.Printf("[INFO] No .env file found, using environment variables")
		}
	}

	return &Config{
		Port:           getEnv("PORT", "8000"),
		KibanaURL:      getEnv("KIBANA_URL", "http://kubernetes-vm:30001"),
		KibanaAPIKey:   os.Getenv("ELASTICSEARCH_APIKEY"),
		DefaultAgentID: getEnv("DEFAULT_AGENT_ID", "wayfinder-search-agent"),
		SearchURL:      getEnv("ELASTICSEARCH_URL", "http://kubernetes-vm:30920"),
		SearchAPIKey:   os.Getenv("ELASTICSEARCH_APIKEY"),
		JinaAPIKey:     os.Getenv("JINA_API_KEY"),
		BackendAPIKey:  os.Getenv("WAYFINDER_API_KEY"),
	}
}

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}
