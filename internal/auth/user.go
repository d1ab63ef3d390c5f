package auth

// User is the local account record for a provider identity. Records are
// immutable once created; there is no update path.
type User struct {
	UserID string `json:"user_id"`
	Email  string `json:"email"`
}
