package model

// User represents an account as stored in the `users` table.  Users are
// created at registration and never updated or deleted through the API.
//
// Fields:
//
//	ID           – primary key ("user-<xid>").
//	Username     – unique login name.
//	PasswordHash – bcrypt hash, never serialized.
//	Fullname     – display name.
type User struct {
	ID           string `json:"id"`
	Username     string `json:"username"`
	PasswordHash string `json:"-"`
	Fullname     string `json:"fullname"`
}
