package commands

import (
	"sync"
	"time"

	"github.com/fivetwenty-io/storeadmin/internal/auth"
)

// ConfigPersister implements the auth.Persister interface.
type ConfigPersister struct {
	mutex sync.Mutex
}

var _ auth.Persister = (*ConfigPersister)(nil)

// NewConfigPersister creates a new config persister.
func NewConfigPersister() *ConfigPersister {
	return &ConfigPersister{}
}

// SaveToken stores the token and its expiry in the config file.
func (p *ConfigPersister) SaveToken(token string, expiresAt time.Time) error {
	p.mutex.Lock()
	defer p.mutex.Unlock()

	config := loadConfig()
	config.Token = token
	config.TokenExpiresAt = nil

	if !expiresAt.IsZero() {
		config.TokenExpiresAt = &expiresAt
	}

	return saveConfigStruct(config)
}

// ClearToken removes the token from the config file.
func (p *ConfigPersister) ClearToken() error {
	p.mutex.Lock()
	defer p.mutex.Unlock()

	config := loadConfig()
	config.Token = ""
	config.TokenExpiresAt = nil

	return saveConfigStruct(config)
}
