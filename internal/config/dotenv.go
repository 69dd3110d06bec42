package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/joho/godotenv"
)

// Keys read from the environment or ~/.docseek/.env.
const (
	KeyEmbeddingsProvider = "DOCSEEK_EMBEDDINGS_PROVIDER"
	KeyEmbeddingsModel    = "DOCSEEK_EMBEDDINGS_MODEL"
	KeyEmbeddingsAPIKey   = "DOCSEEK_EMBEDDINGS_API_KEY"
	KeyEmbeddingsBaseURL  = "DOCSEEK_EMBEDDINGS_BASE_URL"
	KeyAccessToken        = "DOCSEEK_ACCESS_TOKEN"
)

// DotEnvPath returns the absolute path to docseek's dotenv file (~/.docseek/.env).
func DotEnvPath() (string, error) {
	dir, err := DocseekDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, ".env"), nil
}

// LoadDotEnv reads ~/.docseek/.env and returns key/value pairs.
// A missing file yields an empty map.
func LoadDotEnv() (map[string]string, error) {
	p, err := DotEnvPath()
	if err != nil {
		return nil, err
	}
	m, err := godotenv.Read(p)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return map[string]string{}, nil
		}
		return nil, fmt.Errorf("cannot read dotenv file %s: %w", p, err)
	}
	return m, nil
}

// GetConfigValue returns the effective value for key, using process environment variables
// first and falling back to ~/.docseek/.env.
func GetConfigValue(key string) (string, error) {
	if v := os.Getenv(key); v != "" {
		return v, nil
	}
	dotenv, err := LoadDotEnv()
	if err != nil {
		return "", err
	}
	return dotenv[key], nil
}

// EnsureDotEnvTemplate creates ~/.docseek/.env if it does not already exist.
//
// The template lists the supported keys with empty values. Existing files are never touched.
func EnsureDotEnvTemplate() error {
	p, err := DotEnvPath()
	if err != nil {
		return err
	}

	if _, err := os.Stat(p); err == nil {
		return nil
	} else if !os.IsNotExist(err) {
		return fmt.Errorf("cannot stat dotenv file %s: %w", p, err)
	}

	if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
		return fmt.Errorf("cannot create %s: %w", filepath.Dir(p), err)
	}
	err = godotenv.Write(map[string]string{
		KeyEmbeddingsProvider: "openai",
		KeyEmbeddingsModel:    "text-embedding-3-large",
		KeyEmbeddingsAPIKey:   "",
		KeyEmbeddingsBaseURL:  "",
		KeyAccessToken:        "",
	}, p)
	if err != nil {
		return fmt.Errorf("cannot write dotenv template %s: %w", p, err)
	}
	return os.Chmod(p, 0o600)
}
