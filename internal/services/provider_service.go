package services

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"path/filepath"
	"time"

	"focusnotebook/internal/config"
	"focusnotebook/internal/crypto"
	"focusnotebook/internal/database"
	"focusnotebook/internal/models"

	"github.com/fsnotify/fsnotify"
)

// ProviderService manages the AI provider registry. Providers are declared
// in providers.json and mirrored into MySQL; API keys are stored as
// local-kms references, never plaintext.
type ProviderService struct {
	db  *database.DB
	kms *crypto.KMSService
}

// NewProviderService creates a new provider service
func NewProviderService(db *database.DB, kms *crypto.KMSService) *ProviderService {
	return &ProviderService{db: db, kms: kms}
}

const providerColumns = "id, name, base_url, api_key, enabled, default_model, requests_per_minute, created_at, updated_at"

func (s *ProviderService) scanProvider(row interface{ Scan(...interface{}) error }) (*models.Provider, error) {
	var p models.Provider
	var defaultModel sql.NullString
	var rpm sql.NullInt64

	err := row.Scan(&p.ID, &p.Name, &p.BaseURL, &p.APIKey, &p.Enabled, &defaultModel, &rpm, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return nil, err
	}

	if defaultModel.Valid {
		p.DefaultModel = defaultModel.String
	}
	if rpm.Valid {
		p.RequestsPerMinute = int(rpm.Int64)
	}
	return &p, nil
}

// GetAll returns all enabled providers
func (s *ProviderService) GetAll() ([]models.Provider, error) {
	rows, err := s.db.Query(`
		SELECT ` + providerColumns + `
		FROM providers
		WHERE enabled = 1
		ORDER BY name
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to query providers: %w", err)
	}
	defer rows.Close()

	var providers []models.Provider
	for rows.Next() {
		p, err := s.scanProvider(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan provider: %w", err)
		}
		providers = append(providers, *p)
	}

	return providers, rows.Err()
}

// GetAllIncludingDisabled returns every provider in the registry
func (s *ProviderService) GetAllIncludingDisabled() ([]models.Provider, error) {
	rows, err := s.db.Query(`SELECT ` + providerColumns + ` FROM providers ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("failed to query providers: %w", err)
	}
	defer rows.Close()

	var providers []models.Provider
	for rows.Next() {
		p, err := s.scanProvider(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan provider: %w", err)
		}
		providers = append(providers, *p)
	}

	return providers, rows.Err()
}

// GetByID returns a provider by ID
func (s *ProviderService) GetByID(id int) (*models.Provider, error) {
	p, err := s.scanProvider(s.db.QueryRow(`SELECT `+providerColumns+` FROM providers WHERE id = ?`, id))
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("provider not found")
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query provider: %w", err)
	}
	return p, nil
}

// GetByName returns a provider by name, or nil if it does not exist
func (s *ProviderService) GetByName(name string) (*models.Provider, error) {
	p, err := s.scanProvider(s.db.QueryRow(`SELECT `+providerColumns+` FROM providers WHERE name = ?`, name))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query provider: %w", err)
	}
	return p, nil
}

// GetDefault returns the first enabled provider. The registry is small and
// ordered by name, so this is deterministic.
func (s *ProviderService) GetDefault() (*models.Provider, error) {
	providers, err := s.GetAll()
	if err != nil {
		return nil, err
	}
	if len(providers) == 0 {
		return nil, fmt.Errorf("no enabled providers configured")
	}
	return &providers[0], nil
}

// APIKeyPlaintext decrypts a provider's stored key for an outbound call
func (s *ProviderService) APIKeyPlaintext(p *models.Provider) (string, error) {
	if !crypto.IsReference(p.APIKey) {
		return "", fmt.Errorf("provider %s has a non-encrypted API key in the registry", p.Name)
	}
	return s.kms.DecryptString(p.APIKey)
}

// Create creates a new provider, encrypting the API key at rest
func (s *ProviderService) Create(cfg models.ProviderConfig) (*models.Provider, error) {
	encryptedKey, err := s.kms.EncryptString(cfg.APIKey)
	if err != nil {
		return nil, fmt.Errorf("failed to encrypt API key: %w", err)
	}

	result, err := s.db.Exec(`
		INSERT INTO providers (name, base_url, api_key, enabled, default_model, requests_per_minute)
		VALUES (?, ?, ?, ?, ?, ?)
	`, cfg.Name, cfg.BaseURL, encryptedKey, cfg.Enabled, cfg.DefaultModel, cfg.RequestsPerMinute)
	if err != nil {
		return nil, fmt.Errorf("failed to create provider: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("failed to get inserted ID: %w", err)
	}

	log.Printf("   ✅ Created provider %s with ID %d", cfg.Name, id)
	return s.GetByID(int(id))
}

// Update refreshes a provider's registration from config
func (s *ProviderService) Update(id int, cfg models.ProviderConfig) error {
	encryptedKey, err := s.kms.EncryptString(cfg.APIKey)
	if err != nil {
		return fmt.Errorf("failed to encrypt API key: %w", err)
	}

	_, err = s.db.Exec(`
		UPDATE providers
		SET base_url = ?, api_key = ?, enabled = ?, default_model = ?, requests_per_minute = ?
		WHERE id = ?
	`, cfg.BaseURL, encryptedKey, cfg.Enabled, cfg.DefaultModel, cfg.RequestsPerMinute, id)
	if err != nil {
		return fmt.Errorf("failed to update provider: %w", err)
	}
	return nil
}

// Delete removes a provider from the registry
func (s *ProviderService) Delete(id int) error {
	_, err := s.db.Exec(`DELETE FROM providers WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete provider: %w", err)
	}
	return nil
}

// SyncFromFile mirrors providers.json into the registry: new entries are
// created, existing ones refreshed, and entries removed from the file are
// deleted from the registry.
func (s *ProviderService) SyncFromFile(filePath string) error {
	log.Println("🔄 Syncing providers from providers.json...")

	providersConfig, err := config.LoadProviders(filePath)
	if err != nil {
		return fmt.Errorf("failed to load providers config: %w", err)
	}

	configNames := make(map[string]bool)
	for _, pc := range providersConfig.Providers {
		configNames[pc.Name] = true
	}

	existing, err := s.GetAllIncludingDisabled()
	if err != nil {
		log.Printf("⚠️  Could not check for stale providers: %v", err)
	} else {
		for _, p := range existing {
			if !configNames[p.Name] {
				log.Printf("   🗑️  Removing stale provider: %s (ID %d)", p.Name, p.ID)
				if err := s.Delete(p.ID); err != nil {
					log.Printf("   ⚠️  Failed to delete stale provider %s: %v", p.Name, err)
				}
			}
		}
	}

	for _, pc := range providersConfig.Providers {
		current, err := s.GetByName(pc.Name)
		if err != nil {
			return err
		}
		if current == nil {
			if _, err := s.Create(pc); err != nil {
				return err
			}
			continue
		}
		if err := s.Update(current.ID, pc); err != nil {
			return err
		}
	}

	log.Printf("✅ Synced %d providers", len(providersConfig.Providers))
	return nil
}

// WatchFile re-syncs the registry whenever providers.json changes on disk.
// Blocks until the context is cancelled; run it in a goroutine.
func (s *ProviderService) WatchFile(ctx context.Context, filePath string) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create file watcher: %w", err)
	}
	defer watcher.Close()

	// Watch the directory: editors replace the file on save, which drops
	// a watch registered on the file itself.
	if err := watcher.Add(filepath.Dir(filePath)); err != nil {
		return fmt.Errorf("failed to watch config directory: %w", err)
	}

	log.Printf("👀 Watching %s for changes", filePath)

	var debounce *time.Timer
	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(event.Name) != filepath.Clean(filePath) {
				continue
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) {
				continue
			}
			// Debounce: editors fire several events per save
			if debounce != nil {
				debounce.Stop()
			}
			debounce = time.AfterFunc(500*time.Millisecond, func() {
				if err := s.SyncFromFile(filePath); err != nil {
					log.Printf("⚠️  Provider re-sync failed: %v", err)
				}
			})
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			log.Printf("⚠️  File watcher error: %v", err)
		}
	}
}
