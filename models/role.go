package models

// Roles carried in the access token's "role" claim.
const (
	RoleUser  = "user"
	RoleAdmin = "admin"
)
