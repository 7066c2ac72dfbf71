package model

import "time"

type Role string

const (
	RoleUser  Role = "user"
	RoleAdmin Role = "admin"
)

// NicknameMaxLength mirrors the users.nickname column width.
const NicknameMaxLength = 20

type User struct {
	ID           int64     `json:"id"`
	Email        string    `json:"email"`
	Nickname     string    `json:"nickname"`
	PasswordHash string    `json:"-"`
	Role         Role      `json:"role"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// PublicUser is the shape of a user exposed to other clients.
type PublicUser struct {
	ID       int64  `json:"id"`
	Nickname string `json:"nickname"`
	Role     Role   `json:"role"`
}

func (u User) Public() PublicUser {
	return PublicUser{ID: u.ID, Nickname: u.Nickname, Role: u.Role}
}

type UserList struct {
	Users []User `json:"users"`
}
