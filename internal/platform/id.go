package platform

import (
	"crypto/rand"
	"encoding/hex"
	"strings"

	"github.com/google/uuid"
)

// NewID returns a prefixed, time-ordered entity id, e.g. NewID("ast") =>
// "ast_0190c2b8d3e471c49a1fb0d2c4e9a7f3".
func NewID(prefix string) string {
	id, err := uuid.NewV7()
	if err != nil {
		id = uuid.New()
	}
	return prefix + "_" + strings.ReplaceAll(id.String(), "-", "")
}

// NewSecret returns a prefixed random credential, e.g. an API key. The
// prefix stays visible in listings so operators can match keys to records.
func NewSecret(prefix string) string {
	b := make([]byte, 24)
	if _, err := rand.Read(b); err != nil {
		panic("crypto/rand: " + err.Error())
	}
	return prefix + "_" + hex.EncodeToString(b)
}
