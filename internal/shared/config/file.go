package config

import (
	"fmt"
	"os"

	yaml "gopkg.in/yaml.v3"
)

// FileConfig is the optional YAML file named by CONFIG_FILE. Every value is
// a default; the matching environment variable wins.
type FileConfig struct {
	Server struct {
		Port             string   `yaml:"port"`
		Env              string   `yaml:"env"`
		CORSAllowOrigins []string `yaml:"corsAllowOrigins"`
	} `yaml:"server"`

	Database struct {
		URL string `yaml:"url"`
	} `yaml:"database"`

	LLM struct {
		BaseURL string `yaml:"base"`
		Model   string `yaml:"model"`
		APIKey  string `yaml:"key"`
	} `yaml:"llm"`

	Storage struct {
		Type          string `yaml:"type"`
		LocalDir      string `yaml:"localDir"`
		PublicBaseURL string `yaml:"publicBaseURL"`
		Region        string `yaml:"region"`
		Bucket        string `yaml:"bucket"`
		Prefix        string `yaml:"prefix"`
		SSEKMSKeyID   string `yaml:"sseKmsKeyId"`
		SignedURLTTL  string `yaml:"signedUrlTTL"`
	} `yaml:"storage"`

	Fallback struct {
		Path string `yaml:"path"`
	} `yaml:"fallback"`

	Redis struct {
		URL string `yaml:"url"`
	} `yaml:"redis"`

	Auth struct {
		JWTSecret          string `yaml:"jwtSecret"`
		GoogleClientID     string `yaml:"googleClientId"`
		GoogleClientSecret string `yaml:"googleClientSecret"`
		GoogleRedirectURL  string `yaml:"googleRedirectURL"`
	} `yaml:"auth"`

	Profile struct {
		Reconcile string `yaml:"reconcile"`
	} `yaml:"profile"`
}

// LoadFile reads a YAML config file.
func LoadFile(path string) (FileConfig, error) {
	var fc FileConfig
	data, err := os.ReadFile(path)
	if err != nil {
		return fc, fmt.Errorf("read config file %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, &fc); err != nil {
		return fc, fmt.Errorf("parse config file %s: %w", path, err)
	}
	return fc, nil
}
