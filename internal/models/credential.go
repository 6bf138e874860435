// Package models defines the records persisted by the vault.
package models

import "time"

// DefaultCategory is assigned when a credential is created without one.
const DefaultCategory = "Personal"

// Credential is a stored website login. SecretCipherText holds the encrypted
// password and is never serialized.
type Credential struct {
	ID               string    `json:"id"`
	OwnerID          string    `json:"ownerId"`
	Website          string    `json:"website"`
	Username         string    `json:"username"`
	SecretCipherText string    `json:"-"`
	Category         string    `json:"category"`
	CreatedAt        time.Time `json:"createdAt"`
	UpdatedAt        time.Time `json:"updatedAt"`
}

// CredentialPatch is a partial update. Nil fields are left untouched.
type CredentialPatch struct {
	Website          *string
	Username         *string
	Category         *string
	SecretCipherText *string
}

// CredentialView is the client-facing form of a Credential. It has no field
// for the ciphertext, so no listing or read response can carry it.
type CredentialView struct {
	ID        string    `json:"id"`
	Website   string    `json:"website"`
	Username  string    `json:"username"`
	Category  string    `json:"category"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// View returns the redacted client-facing form of c.
func (c *Credential) View() CredentialView {
	return CredentialView{
		ID:        c.ID,
		Website:   c.Website,
		Username:  c.Username,
		Category:  c.Category,
		CreatedAt: c.CreatedAt,
		UpdatedAt: c.UpdatedAt,
	}
}
