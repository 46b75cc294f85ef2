package repository

import (
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/yomu-app/backend/internal/models"
)

type SourceLinkRepository struct {
	db *sql.DB
}

func NewSourceLinkRepository(db *sql.DB) *SourceLinkRepository {
	return &SourceLinkRepository{db: db}
}

// GetByMangaID returns nil when no link is stored for the manga.
func (r *SourceLinkRepository) GetByMangaID(mangaID string) (*models.SourceLink, error) {
	row := r.db.QueryRow(`
		SELECT manga_id, provider, external_id, verified_at, created_at, updated_at
		FROM source_links
		WHERE manga_id = ?
	`, mangaID)

	link, err := scanSourceLink(row)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("get source link: %w", err)
	}

	return link, nil
}

func (r *SourceLinkRepository) List() ([]models.SourceLink, error) {
	rows, err := r.db.Query(`
		SELECT manga_id, provider, external_id, verified_at, created_at, updated_at
		FROM source_links
		ORDER BY manga_id ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("list source links: %w", err)
	}
	defer rows.Close()

	items := make([]models.SourceLink, 0)
	for rows.Next() {
		link, err := scanSourceLink(rows)
		if err != nil {
			return nil, fmt.Errorf("scan source link: %w", err)
		}
		items = append(items, *link)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate source links: %w", err)
	}

	return items, nil
}

func (r *SourceLinkRepository) Upsert(mangaID string, provider string, externalID string) (*models.SourceLink, error) {
	mangaID = strings.TrimSpace(mangaID)
	provider = strings.TrimSpace(provider)
	externalID = strings.TrimSpace(externalID)
	if mangaID == "" || provider == "" || externalID == "" {
		return nil, fmt.Errorf("manga id, provider and external id are required")
	}

	if _, err := r.db.Exec(`
		INSERT INTO source_links (manga_id, provider, external_id)
		VALUES (?, ?, ?)
		ON CONFLICT(manga_id)
		DO UPDATE SET
			provider = excluded.provider,
			external_id = excluded.external_id,
			verified_at = NULL,
			updated_at = CURRENT_TIMESTAMP
	`, mangaID, provider, externalID); err != nil {
		return nil, fmt.Errorf("upsert source link: %w", err)
	}

	return r.GetByMangaID(mangaID)
}

func (r *SourceLinkRepository) Delete(mangaID string) (bool, error) {
	result, err := r.db.Exec(`DELETE FROM source_links WHERE manga_id = ?`, mangaID)
	if err != nil {
		return false, fmt.Errorf("delete source link: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("delete source link rows affected: %w", err)
	}

	return affected > 0, nil
}

// TouchVerified stamps the last moment the linked series was confirmed
// reachable by the poller or the link-test endpoint.
func (r *SourceLinkRepository) TouchVerified(mangaID string, verifiedAt time.Time) error {
	if _, err := r.db.Exec(`
		UPDATE source_links
		SET verified_at = ?, updated_at = CURRENT_TIMESTAMP
		WHERE manga_id = ?
	`, verifiedAt.UTC(), mangaID); err != nil {
		return fmt.Errorf("touch source link: %w", err)
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanSourceLink(row rowScanner) (*models.SourceLink, error) {
	var link models.SourceLink
	var verifiedAt sql.NullTime
	if err := row.Scan(
		&link.MangaID,
		&link.Provider,
		&link.ExternalID,
		&verifiedAt,
		&link.CreatedAt,
		&link.UpdatedAt,
	); err != nil {
		return nil, err
	}
	if verifiedAt.Valid {
		link.VerifiedAt = &verifiedAt.Time
	}
	return &link, nil
}
