package handlers

import (
	"time"

	"github.com/k0723/mini3/internal/models"
)

// DiaryDTO is the wire shape for diary entries: date-only diary_date,
// RFC3339 created_at, and the author's username joined in for list views.
type DiaryDTO struct {
	ID        int     `json:"id"`
	Title     string  `json:"title"`
	Content   string  `json:"content"`
	Image     *string `json:"image,omitempty"`
	State     bool    `json:"state"`
	Emotion   *string `json:"emotion,omitempty"`
	CreatedAt string  `json:"created_at"`
	DiaryDate string  `json:"diary_date"`
	UserID    int     `json:"user_id"`
	Username  string  `json:"username,omitempty"`
}

func ToDiaryDTO(d models.Diary, username string) DiaryDTO {
	return DiaryDTO{
		ID:        d.ID,
		Title:     d.Title,
		Content:   d.Content,
		Image:     d.Image,
		State:     d.IsPublic,
		Emotion:   d.Emotion,
		CreatedAt: d.CreatedAt.Format(time.RFC3339),
		DiaryDate: d.DiaryDate.Format("2006-01-02"),
		UserID:    d.UserID,
		Username:  username,
	}
}
