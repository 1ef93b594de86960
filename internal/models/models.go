package models

import "time"

const (
	RoleUser  = "user"
	RoleAdmin = "admin"
)

type User struct {
	ID           int       `db:"id" json:"id"`
	Email        string    `db:"email" json:"email"`
	PasswordHash string    `db:"password_hash" json:"-"` // empty for OAuth-only accounts
	Username     string    `db:"username" json:"username"`
	Role         string    `db:"role" json:"role"`
	CreatedAt    time.Time `db:"created_at" json:"created_at"`
}

type Diary struct {
	ID        int       `db:"id" json:"id"`
	UserID    int       `db:"user_id" json:"user_id"`
	Title     string    `db:"title" json:"title"`
	Content   string    `db:"content" json:"content"`
	Image     *string   `db:"image" json:"image,omitempty"` // S3 object key
	IsPublic  bool      `db:"is_public" json:"state"`
	Emotion   *string   `db:"emotion" json:"emotion,omitempty"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
	DiaryDate time.Time `db:"diary_date" json:"diary_date"`
}
