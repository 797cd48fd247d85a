package persistence

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"gopkg.in/yaml.v3"

	"hue-bridge-client/internal/domain/model"
)

// CredentialsRepository caches the bridge address and app key in a file.
// Files ending in .yaml or .yml are YAML, anything else JSON.
type CredentialsRepository struct {
	filepath string
	mu       sync.RWMutex
}

// legacyCredentials is the v1 layout ("ip" and "username") left by older tools.
type legacyCredentials struct {
	IP       string `json:"ip" yaml:"ip"`
	Username string `json:"username" yaml:"username"`
}

func NewCredentialsRepository(filepath string) *CredentialsRepository {
	return &CredentialsRepository{filepath: filepath}
}

func (r *CredentialsRepository) isYAML() bool {
	ext := strings.ToLower(filepath.Ext(r.filepath))
	return ext == ".yaml" || ext == ".yml"
}

func (r *CredentialsRepository) unmarshal(data []byte, v any) error {
	if r.isYAML() {
		return yaml.Unmarshal(data, v)
	}
	return json.Unmarshal(data, v)
}

func (r *CredentialsRepository) Get(ctx context.Context) (*model.Credentials, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	data, err := os.ReadFile(r.filepath)
	if err != nil {
		if os.IsNotExist(err) {
			return &model.Credentials{}, nil
		}
		return nil, err
	}

	var creds model.Credentials
	if err := r.unmarshal(data, &creds); err != nil {
		return nil, err
	}
	if creds.Host == "" && creds.AppKey == "" {
		return r.migrate(data)
	}
	return &creds, nil
}

func (r *CredentialsRepository) migrate(data []byte) (*model.Credentials, error) {
	var legacy legacyCredentials
	if err := r.unmarshal(data, &legacy); err != nil {
		return &model.Credentials{}, nil
	}
	return &model.Credentials{Host: legacy.IP, AppKey: legacy.Username}, nil
}

// Save writes through a temporary file so a crash never leaves a truncated file.
func (r *CredentialsRepository) Save(ctx context.Context, creds *model.Credentials) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	var (
		data []byte
		err  error
	)
	if r.isYAML() {
		data, err = yaml.Marshal(creds)
	} else {
		data, err = json.MarshalIndent(creds, "", "  ")
	}
	if err != nil {
		return err
	}

	if dir := filepath.Dir(r.filepath); dir != "" {
		if err := os.MkdirAll(dir, 0o700); err != nil {
			return err
		}
	}
	tmp := r.filepath + ".tmp"
	if err := os.WriteFile(tmp, data, 0o600); err != nil {
		return err
	}
	return os.Rename(tmp, r.filepath)
}
