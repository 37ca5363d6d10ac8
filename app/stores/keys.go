package stores

import "strings"

// Storage keys shared by the stores. TokenKey holds the encrypted auth
// token, UserKey the JSON-serialised cached identity.
const (
	TokenKey = "token"
	UserKey  = "user"

	cartKeyPrefix = "cart_"
	guestCartKey  = "cart_guest"
)

// CartKey derives the storage key for an identity's cart. An empty id means
// guest scope. Both stores derive keys through this one function so a cart
// written by one identity is never read back under another.
func CartKey(identityID string) string {
	id := strings.TrimSpace(identityID)
	if id == "" {
		return guestCartKey
	}
	return cartKeyPrefix + id
}
