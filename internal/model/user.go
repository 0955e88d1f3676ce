package model

// User is an account on the mail backend. It is both the authenticated
// party and a message participant.
type User struct {
	ID       int64  `json:"id"`
	Username string `json:"username"`
}
