package indexing

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/lumen-agency/site-core/internal/models"
	"github.com/lumen-agency/site-core/internal/pkg/sealbox"
	"gorm.io/gorm"
)

// ConnectInput is what an operator supplies to connect the integration.
type ConnectInput struct {
	ClientID     string `json:"client_id"     binding:"required"`
	ClientSecret string `json:"client_secret" binding:"required"`
	RefreshToken string `json:"refresh_token" binding:"required"`
	SiteURL      string `json:"site_url"      binding:"required"`
	Scope        string `json:"scope"`
}

// CredentialStore reads and writes the search console credential rows.
// Client secret, access token and refresh token are sealed at rest when a
// box is configured; rows written before that stay readable.
type CredentialStore struct {
	db  *gorm.DB
	box *sealbox.Box
}

func NewCredentialStore(db *gorm.DB, box *sealbox.Box) *CredentialStore {
	return &CredentialStore{db: db, box: box}
}

// Active returns the single active credential or ErrNotConfigured.
func (s *CredentialStore) Active(ctx context.Context) (*models.SearchConsoleCredential, error) {
	var cred models.SearchConsoleCredential
	err := s.db.WithContext(ctx).
		Where("is_active = ?", true).
		Order("created_at DESC").
		First(&cred).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotConfigured
		}
		return nil, fmt.Errorf("load credential: %w", err)
	}
	if err := s.open(&cred); err != nil {
		return nil, fmt.Errorf("load credential: %w", err)
	}
	return &cred, nil
}

func (s *CredentialStore) open(cred *models.SearchConsoleCredential) error {
	for _, f := range []*string{&cred.ClientSecret, &cred.AccessToken, &cred.RefreshToken} {
		plain, err := s.box.Open(*f)
		if err != nil {
			return err
		}
		*f = plain
	}
	return nil
}

func (s *CredentialStore) seal(cred *models.SearchConsoleCredential) error {
	for _, f := range []*string{&cred.ClientSecret, &cred.AccessToken, &cred.RefreshToken} {
		sealed, err := s.box.Seal(*f)
		if err != nil {
			return err
		}
		*f = sealed
	}
	return nil
}

// saveAccessToken overwrites access token and expiry in one UPDATE.
func (s *CredentialStore) saveAccessToken(ctx context.Context, id, token string, expiresAt time.Time) error {
	stored, err := s.box.Seal(token)
	if err != nil {
		return err
	}
	res := s.db.WithContext(ctx).
		Model(&models.SearchConsoleCredential{}).
		Where("id = ? AND is_active = ?", id, true).
		Updates(map[string]interface{}{
			"access_token":     stored,
			"token_expires_at": expiresAt,
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotConfigured
	}
	return nil
}

// Connect stores a new active credential, deactivating any previous one in
// the same transaction.
func (s *CredentialStore) Connect(ctx context.Context, in ConnectInput) (*models.SearchConsoleCredential, error) {
	cred := models.SearchConsoleCredential{
		ClientID:     strings.TrimSpace(in.ClientID),
		ClientSecret: strings.TrimSpace(in.ClientSecret),
		RefreshToken: strings.TrimSpace(in.RefreshToken),
		SiteURL:      strings.TrimSpace(in.SiteURL),
		Scope:        strings.TrimSpace(in.Scope),
		IsActive:     true,
	}
	if cred.ClientID == "" || cred.ClientSecret == "" || cred.RefreshToken == "" || cred.SiteURL == "" {
		return nil, fmt.Errorf("%w: client_id, client_secret, refresh_token and site_url are required", ErrInvalidInput)
	}
	if !strings.HasPrefix(cred.SiteURL, "sc-domain:") && !strings.HasPrefix(cred.SiteURL, "http://") && !strings.HasPrefix(cred.SiteURL, "https://") {
		return nil, fmt.Errorf("%w: site_url must be sc-domain:<host> or an http(s) url", ErrInvalidInput)
	}

	row := cred
	if err := s.seal(&row); err != nil {
		return nil, fmt.Errorf("connect credential: %w", err)
	}
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&models.SearchConsoleCredential{}).
			Where("is_active = ?", true).
			Update("is_active", false).Error; err != nil {
			return err
		}
		return tx.Create(&row).Error
	})
	if err != nil {
		return nil, fmt.Errorf("connect credential: %w", err)
	}
	cred.Base = row.Base
	return &cred, nil
}

// Reseal rewrites stored credentials whose secrets are still plaintext and
// reports how many rows changed.
func (s *CredentialStore) Reseal(ctx context.Context) (int, error) {
	if s.box == nil {
		return 0, ErrNoSecretKey
	}
	var rows []models.SearchConsoleCredential
	if err := s.db.WithContext(ctx).Find(&rows).Error; err != nil {
		return 0, fmt.Errorf("load credentials: %w", err)
	}

	changed := 0
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for i := range rows {
			row := &rows[i]
			if isSealed(row) {
				continue
			}
			if err := s.open(row); err != nil {
				return err
			}
			if err := s.seal(row); err != nil {
				return err
			}
			if err := tx.Model(row).Updates(map[string]interface{}{
				"client_secret": row.ClientSecret,
				"access_token":  row.AccessToken,
				"refresh_token": row.RefreshToken,
			}).Error; err != nil {
				return err
			}
			changed++
		}
		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("reseal credentials: %w", err)
	}
	return changed, nil
}

func isSealed(cred *models.SearchConsoleCredential) bool {
	for _, v := range []string{cred.ClientSecret, cred.AccessToken, cred.RefreshToken} {
		if v != "" && !sealbox.Sealed(v) {
			return false
		}
	}
	return true
}

// Disconnect deactivates and removes every stored credential.
func (s *CredentialStore) Disconnect(ctx context.Context) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&models.SearchConsoleCredential{}).
			Where("is_active = ?", true).
			Update("is_active", false)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return ErrNotConfigured
		}
		return tx.Where("is_active = ?", false).Delete(&models.SearchConsoleCredential{}).Error
	})
}
