// Package types contains the shared domain and API types for modelenv.
package types

import "time"

// InstalledModel is a registry entry for a model package that has been
// downloaded and installed into the local environment.
type InstalledModel struct {
	// Package name of the model, e.g. "en_core_web_sm".
	// example: en_core_web_sm
	Name string `json:"name" example:"en_core_web_sm"`
	// Version of the model package.
	// example: 3.7.1
	Version string `json:"version" example:"3.7.1"`
	// Absolute path of the downloaded archive kept in the store.
	// example: /home/user/.local/share/modelenv/archives/en_core_web_sm-3.7.1.tar.gz
	ArchivePath string `json:"archive_path,omitempty"`
	// SHA-256 digest of the archive, when the config pinned one.
	SHA256 string `json:"sha256,omitempty"`
	// ReceiptID uniquely identifies this install event.
	// example: 7f9c24e5-6f0b-4a7e-9b6d-0e6a4f2a9c11
	ReceiptID string `json:"receipt_id"`
	// InstalledAt is when the package was installed.
	InstalledAt time.Time `json:"installed_at"`
}

// Alias maps a short name to an installed model package.
type Alias struct {
	// Short name registered for downstream tools.
	// example: en
	Name string `json:"name" example:"en"`
	// Package the alias resolves to.
	// example: en_core_web_sm
	Package string `json:"package" example:"en_core_web_sm"`
}
