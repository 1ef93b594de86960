package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/jmoiron/sqlx"
)

type AdminHandler struct {
	db *sqlx.DB
}

func NewAdminHandler(db *sqlx.DB) *AdminHandler { return &AdminHandler{db: db} }

type adminOverview struct {
	TotalUsers      int `json:"total_users"`
	TotalDiaries    int `json:"total_diaries"`
	PublicDiaries   int `json:"public_diaries"`
	PrivateDiaries  int `json:"private_diaries"`
	DiariesThisWeek int `json:"diaries_this_week"`
}

// Overview returns service-wide counts. Admin only.
func (h *AdminHandler) Overview(w http.ResponseWriter, r *http.Request) {
	caller := resolveCaller(h.db, r)
	if !caller.IsAdmin() {
		http.Error(w, "forbidden", http.StatusForbidden)
		return
	}

	var out adminOverview
	query := `
		SELECT
			(SELECT COUNT(*) FROM users) AS total_users,
			COUNT(*) AS total_diaries,
			COALESCE(COUNT(*) FILTER (WHERE is_public), 0) AS public_diaries,
			COALESCE(COUNT(*) FILTER (WHERE NOT is_public), 0) AS private_diaries,
			COALESCE(COUNT(*) FILTER (WHERE diary_date >= date_trunc('week', CURRENT_DATE)), 0) AS diaries_this_week
		FROM diaries`
	if err := h.db.QueryRowx(query).Scan(&out.TotalUsers, &out.TotalDiaries, &out.PublicDiaries, &out.PrivateDiaries, &out.DiariesThisWeek); err != nil {
		http.Error(w, "server error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(out)
}
