// Package models defines server-side data records persisted in the database.
package models

// Account is a registered user identity. PasswordHash and Salt are opaque
// credential material and are never serialized.
type Account struct {
	ID           string `json:"id"`
	Username     string `json:"username"`
	PasswordHash string `json:"-"`
	Salt         []byte `json:"-"`
}
