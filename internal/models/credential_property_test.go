package models

import (
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
)

// TestPropertyCiphertextNeverSerialized checks that neither the record nor
// its view puts the stored ciphertext on the wire.
func TestPropertyCiphertextNeverSerialized(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 100
	properties := gopter.NewProperties(parameters)

	properties.Property("ciphertext is absent from JSON", prop.ForAll(
		func(website, username, secret string) bool {
			cred := &Credential{
				ID:               "c1",
				OwnerID:          "u1",
				Website:          website,
				Username:         username,
				SecretCipherText: "ct:" + secret,
				Category:         DefaultCategory,
				CreatedAt:        time.Unix(0, 0).UTC(),
				UpdatedAt:        time.Unix(0, 0).UTC(),
			}

			for _, v := range []any{cred, cred.View()} {
				data, err := json.Marshal(v)
				if err != nil {
					return false
				}
				if strings.Contains(string(data), "ct:"+secret) {
					return false
				}
			}
			return true
		},
		gen.Identifier(),
		gen.Identifier(),
		gen.Identifier(),
	))

	properties.TestingRun(t)
}

func TestViewCopiesVisibleFields(t *testing.T) {
	now := time.Now().UTC()
	cred := &Credential{
		ID:        "c1",
		OwnerID:   "u1",
		Website:   "example.com",
		Username:  "alice",
		Category:  "Work",
		CreatedAt: now,
		UpdatedAt: now.Add(time.Minute),
	}

	view := cred.View()
	if view.ID != cred.ID || view.Website != cred.Website || view.Username != cred.Username ||
		view.Category != cred.Category || !view.CreatedAt.Equal(now) || !view.UpdatedAt.Equal(cred.UpdatedAt) {
		t.Errorf("View() = %+v, want fields copied from %+v", view, cred)
	}
}
