package domain

import (
	"fmt"
	"strings"
)

// Credentials are the opaque secrets the core needs to reach its collaborators.
// Built once from configuration and passed by value.
type Credentials struct {
	EmbeddingAPIKey string
	StoreURL        string
	StoreKey        string

	// StoreKeyRequired is set by drivers that authenticate with StoreKey (PostgREST).
	StoreKeyRequired bool
	// StoreURLRequired is false for embedded stores (memory, bolt).
	StoreURLRequired bool
}

// Validate returns ErrConfiguration naming every missing field.
func (c Credentials) Validate() error {
	var missing []string
	if strings.TrimSpace(c.EmbeddingAPIKey) == "" {
		missing = append(missing, "embedding api key")
	}
	if c.StoreURLRequired && strings.TrimSpace(c.StoreURL) == "" {
		missing = append(missing, "store url")
	}
	if c.StoreKeyRequired && strings.TrimSpace(c.StoreKey) == "" {
		missing = append(missing, "store key")
	}
	if len(missing) > 0 {
		return fmt.Errorf("%w: missing %s", ErrConfiguration, strings.Join(missing, ", "))
	}
	return nil
}

// ValidateStore checks only the store half of the credentials.
func (c Credentials) ValidateStore() error {
	storeOnly := c
	storeOnly.EmbeddingAPIKey = "-"
	return storeOnly.Validate()
}
