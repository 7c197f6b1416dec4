package domain

// Principal is the authenticated caller as derived from the bearer token by
// the auth guard. Token issuance and validation live in the auth service.
type Principal struct {
	UserID string `json:"user_id"`
	Email  string `json:"email"`
}
