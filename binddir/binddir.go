// Package binddir is a small Postgres-backed directory of SMPP bind
// credentials, adapted from the teacher's gorm-backed client directory but
// scoped strictly to bind_transceiver authentication.
package binddir

import (
	"fmt"
	"sync"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

// BindCredential is one system_id/password pair allowed to bind.
type BindCredential struct {
	ID       uint   `gorm:"primaryKey"`
	SystemID string `gorm:"unique;not null"`
	Password string `gorm:"not null"`
}

// Directory caches bind credentials in memory, backed by Postgres for
// persistence and reload.
type Directory struct {
	db *gorm.DB

	mu          sync.RWMutex
	credentials map[string]string
}

// Open connects to Postgres via dsn, migrates the schema, and loads the
// credential cache.
func Open(dsn string) (*Directory, error) {
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{})
	if err != nil {
		return nil, fmt.Errorf("binddir: connect: %w", err)
	}

	d := &Directory{db: db, credentials: make(map[string]string)}
	if err := d.migrate(); err != nil {
		return nil, err
	}
	if err := d.Reload(); err != nil {
		return nil, err
	}
	return d, nil
}

func (d *Directory) migrate() error {
	if err := d.db.AutoMigrate(&BindCredential{}); err != nil {
		return fmt.Errorf("binddir: migrate: %w", err)
	}
	return nil
}

// Reload refreshes the in-memory credential cache from Postgres.
func (d *Directory) Reload() error {
	var rows []BindCredential
	if err := d.db.Find(&rows).Error; err != nil {
		return fmt.Errorf("binddir: load credentials: %w", err)
	}

	cache := make(map[string]string, len(rows))
	for _, r := range rows {
		cache[r.SystemID] = r.Password
	}

	d.mu.Lock()
	d.credentials = cache
	d.mu.Unlock()
	return nil
}

// Add persists a new bind credential and updates the cache.
func (d *Directory) Add(systemID, password string) error {
	row := &BindCredential{SystemID: systemID, Password: password}
	if err := d.db.Create(row).Error; err != nil {
		return fmt.Errorf("binddir: add %s: %w", systemID, err)
	}

	d.mu.Lock()
	d.credentials[systemID] = password
	d.mu.Unlock()
	return nil
}

// Authenticate reports whether systemID/password is a valid bind pair.
func (d *Directory) Authenticate(systemID, password string) bool {
	d.mu.RLock()
	defer d.mu.RUnlock()

	want, ok := d.credentials[systemID]
	if !ok {
		return false
	}
	return want == password
}
