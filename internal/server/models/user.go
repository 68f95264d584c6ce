package models

import "time"

// User is an account allowed to log in. Users are provisioned out of band
// (see cmd/useradd) and never changed by the file service.
type User struct {
	ID           string
	UserName     string
	PasswordHash []byte
	CreatedAt    time.Time
}
