package models

import (
	"time"
)

type User struct {
	Name      string    `bson:"name" json:"name" validate:"required,min=1,max=50"`
	Surname   string    `bson:"surname" json:"surname" validate:"required,min=1,max=50"`
	Username  string    `bson:"username" json:"username" validate:"required,min=1,max=50"`
	Admin     bool      `bson:"admin" json:"admin"`
	CreatedAt time.Time `bson:"created_at" json:"createdAt"`
}

// Role values carried in session tokens.
const (
	RoleAdmin    = "admin"
	RoleOperator = "operator"
)

func (u User) Role() string {
	if u.Admin {
		return RoleAdmin
	}
	return RoleOperator
}
