package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/narvanalabs/vaulty/internal/models"
	"github.com/narvanalabs/vaulty/internal/store"
)

var _ store.CredentialStore = (*CredentialStore)(nil)

// CredentialStore implements store.CredentialStore using PostgreSQL.
type CredentialStore struct {
	db     *sql.DB
	logger *slog.Logger
}

const credentialColumns = `id, owner_id, website, username, secret_ciphertext, category, created_at, updated_at`

// List retrieves the owner's credentials, most recently updated first.
func (s *CredentialStore) List(ctx context.Context, ownerID string) ([]*models.Credential, error) {
	query := `
		SELECT ` + credentialColumns + `
		FROM credentials
		WHERE owner_id = $1
		ORDER BY updated_at DESC, created_at DESC`

	rows, err := s.db.QueryContext(ctx, query, ownerID)
	if err != nil {
		return nil, fmt.Errorf("querying credentials: %w", err)
	}
	defer rows.Close()

	creds := make([]*models.Credential, 0)
	for rows.Next() {
		cred, err := scanCredential(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning credential: %w", err)
		}
		creds = append(creds, cred)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating credentials: %w", err)
	}

	return creds, nil
}

// Create inserts a new credential.
func (s *CredentialStore) Create(ctx context.Context, cred *models.Credential) (*models.Credential, error) {
	created := *cred
	created.ID = uuid.New().String()
	now := time.Now().UTC().Truncate(time.Microsecond)
	created.CreatedAt = now
	created.UpdatedAt = now

	query := `
		INSERT INTO credentials (` + credentialColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`

	_, err := s.db.ExecContext(ctx, query,
		created.ID,
		created.OwnerID,
		created.Website,
		created.Username,
		created.SecretCipherText,
		created.Category,
		created.CreatedAt,
		created.UpdatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("inserting credential: %w", err)
	}

	return &created, nil
}

// Update applies patch to the owner's credential in one UPDATE ... RETURNING,
// so ownership is checked and the write happens atomically.
func (s *CredentialStore) Update(ctx context.Context, id, ownerID string, patch models.CredentialPatch) (*models.Credential, error) {
	if !validID(id) {
		return nil, store.ErrNotFound
	}

	query := `
		UPDATE credentials SET
			website = COALESCE($3, website),
			username = COALESCE($4, username),
			category = COALESCE($5, category),
			secret_ciphertext = COALESCE($6, secret_ciphertext),
			updated_at = $7
		WHERE id = $1 AND owner_id = $2
		RETURNING ` + credentialColumns

	row := s.db.QueryRowContext(ctx, query,
		id,
		ownerID,
		store.StringOrNil(patch.Website),
		store.StringOrNil(patch.Username),
		store.StringOrNil(patch.Category),
		store.StringOrNil(patch.SecretCipherText),
		time.Now().UTC().Truncate(time.Microsecond),
	)

	cred, err := scanCredential(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, store.ErrNotFound
		}
		return nil, fmt.Errorf("updating credential: %w", err)
	}

	return cred, nil
}

// Delete removes the owner's credential.
func (s *CredentialStore) Delete(ctx context.Context, id, ownerID string) error {
	if !validID(id) {
		return store.ErrNotFound
	}

	query := `DELETE FROM credentials WHERE id = $1 AND owner_id = $2`

	result, err := s.db.ExecContext(ctx, query, id, ownerID)
	if err != nil {
		return fmt.Errorf("deleting credential: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("getting rows affected: %w", err)
	}

	if rowsAffected == 0 {
		return store.ErrNotFound
	}

	return nil
}

// FindOne retrieves the owner's credential by ID.
func (s *CredentialStore) FindOne(ctx context.Context, id, ownerID string) (*models.Credential, error) {
	if !validID(id) {
		return nil, store.ErrNotFound
	}

	query := `
		SELECT ` + credentialColumns + `
		FROM credentials
		WHERE id = $1 AND owner_id = $2`

	cred, err := scanCredential(s.db.QueryRowContext(ctx, query, id, ownerID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, store.ErrNotFound
		}
		return nil, fmt.Errorf("querying credential: %w", err)
	}

	return cred, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanCredential(row scanner) (*models.Credential, error) {
	var cred models.Credential
	err := row.Scan(
		&cred.ID,
		&cred.OwnerID,
		&cred.Website,
		&cred.Username,
		&cred.SecretCipherText,
		&cred.Category,
		&cred.CreatedAt,
		&cred.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	cred.CreatedAt = cred.CreatedAt.UTC()
	cred.UpdatedAt = cred.UpdatedAt.UTC()
	return &cred, nil
}

// validID reports whether id can name a row. Anything else cannot match and
// would only make PostgreSQL reject the UUID cast.
func validID(id string) bool {
	_, err := uuid.Parse(id)
	return err == nil
}
