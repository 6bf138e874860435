package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/narvanalabs/vaulty/internal/models"
	"github.com/narvanalabs/vaulty/internal/store"
)

var _ store.CredentialStore = (*CredentialRepo)(nil)

// CredentialRepo is the SQLite implementation of store.CredentialStore.
// Timestamps are stored as Unix nanoseconds.
type CredentialRepo struct {
	db *DB
}

const credentialColumns = `id, owner_id, website, username, secret_ciphertext, category, created_at, updated_at`

// List returns the owner's credentials, most recently updated first.
func (r *CredentialRepo) List(ctx context.Context, ownerID string) ([]*models.Credential, error) {
	const query = `SELECT ` + credentialColumns + ` FROM credentials
		WHERE owner_id = ?
		ORDER BY updated_at DESC, created_at DESC`

	rows, err := r.db.Reader.QueryContext(ctx, query, ownerID)
	if err != nil {
		return nil, fmt.Errorf("list credentials: %w", err)
	}
	defer rows.Close()

	creds := make([]*models.Credential, 0)
	for rows.Next() {
		cred, err := scanCredential(rows)
		if err != nil {
			return nil, fmt.Errorf("scan credential: %w", err)
		}
		creds = append(creds, cred)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate credentials: %w", err)
	}

	return creds, nil
}

// Create inserts a new credential.
func (r *CredentialRepo) Create(ctx context.Context, cred *models.Credential) (*models.Credential, error) {
	created := *cred
	created.ID = uuid.New().String()
	now := time.Now().UTC()
	created.CreatedAt = now
	created.UpdatedAt = now

	const query = `INSERT INTO credentials (` + credentialColumns + `) VALUES (?, ?, ?, ?, ?, ?, ?, ?)`
	_, err := r.db.Writer.ExecContext(ctx, query,
		created.ID,
		created.OwnerID,
		created.Website,
		created.Username,
		created.SecretCipherText,
		created.Category,
		now.UnixNano(),
		now.UnixNano(),
	)
	if err != nil {
		return nil, fmt.Errorf("insert credential: %w", err)
	}

	return &created, nil
}

// Update applies patch to the owner's credential with a single
// UPDATE ... RETURNING statement.
func (r *CredentialRepo) Update(ctx context.Context, id, ownerID string, patch models.CredentialPatch) (*models.Credential, error) {
	const query = `UPDATE credentials SET
			website = COALESCE(?, website),
			username = COALESCE(?, username),
			category = COALESCE(?, category),
			secret_ciphertext = COALESCE(?, secret_ciphertext),
			updated_at = ?
		WHERE id = ? AND owner_id = ?
		RETURNING ` + credentialColumns

	row := r.db.Writer.QueryRowContext(ctx, query,
		store.StringOrNil(patch.Website),
		store.StringOrNil(patch.Username),
		store.StringOrNil(patch.Category),
		store.StringOrNil(patch.SecretCipherText),
		time.Now().UTC().UnixNano(),
		id,
		ownerID,
	)

	cred, err := scanCredential(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, store.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("update credential %q: %w", id, err)
	}

	return cred, nil
}

// Delete permanently removes the owner's credential.
func (r *CredentialRepo) Delete(ctx context.Context, id, ownerID string) error {
	const query = `DELETE FROM credentials WHERE id = ? AND owner_id = ?`
	result, err := r.db.Writer.ExecContext(ctx, query, id, ownerID)
	if err != nil {
		return fmt.Errorf("delete credential %q: %w", id, err)
	}

	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		return store.ErrNotFound
	}
	return nil
}

// FindOne retrieves the owner's credential by ID.
func (r *CredentialRepo) FindOne(ctx context.Context, id, ownerID string) (*models.Credential, error) {
	const query = `SELECT ` + credentialColumns + ` FROM credentials WHERE id = ? AND owner_id = ?`

	cred, err := scanCredential(r.db.Reader.QueryRowContext(ctx, query, id, ownerID))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, store.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get credential %q: %w", id, err)
	}
	return cred, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanCredential(row scanner) (*models.Credential, error) {
	var cred models.Credential
	var createdAt, updatedAt int64
	err := row.Scan(
		&cred.ID,
		&cred.OwnerID,
		&cred.Website,
		&cred.Username,
		&cred.SecretCipherText,
		&cred.Category,
		&createdAt,
		&updatedAt,
	)
	if err != nil {
		return nil, err
	}
	cred.CreatedAt = time.Unix(0, createdAt).UTC()
	cred.UpdatedAt = time.Unix(0, updatedAt).UTC()
	return &cred, nil
}
