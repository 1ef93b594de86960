package handlers

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"

	"github.com/k0723/mini3/internal/authz"
	"github.com/k0723/mini3/internal/models"
	"github.com/k0723/mini3/internal/sentiment"
	"github.com/k0723/mini3/internal/storage"
)

// Entry timestamps are recorded in Korean standard time.
var kst = time.FixedZone("KST", 9*60*60)

const diaryColumns = `d.id, d.user_id, d.title, d.content, d.image, d.is_public, d.emotion, d.created_at, d.diary_date`

type DiaryHandler struct {
	db         *sqlx.DB
	classifier sentiment.Classifier
	presigner  storage.Presigner
	logger     *zap.Logger
}

func NewDiaryHandler(db *sqlx.DB, classifier sentiment.Classifier, presigner storage.Presigner, logger *zap.Logger) *DiaryHandler {
	return &DiaryHandler{db: db, classifier: classifier, presigner: presigner, logger: logger}
}

// resolveCaller turns the optional userID set by the auth middleware into an
// authz.Caller. The role is read from the users table on every request so a
// demoted admin loses access immediately, stale tokens notwithstanding.
func resolveCaller(db *sqlx.DB, r *http.Request) authz.Caller {
	userID, ok := r.Context().Value("userID").(int)
	if !ok {
		return authz.Caller{}
	}
	var role string
	if err := db.Get(&role, `SELECT role FROM users WHERE id=$1`, userID); err != nil {
		return authz.Caller{}
	}
	return authz.Caller{ID: userID, Role: role, Authenticated: true}
}

type diaryRow struct {
	models.Diary
	Username string `db:"username"`
}

// List returns diary entries visible to the caller, newest first. The
// optional "state" query param filters by visibility.
func (h *DiaryHandler) List(w http.ResponseWriter, r *http.Request) {
	caller := resolveCaller(h.db, r)

	var state *bool
	if s := r.URL.Query().Get("state"); s != "" {
		v, err := strconv.ParseBool(s)
		if err != nil {
			http.Error(w, "invalid state; expected true or false", http.StatusBadRequest)
			return
		}
		state = &v
	}

	where, args, empty := authz.ListFilter(caller, state)
	out := []DiaryDTO{}
	if empty {
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(out)
		return
	}

	query := `SELECT ` + diaryColumns + `, u.username FROM diaries d JOIN users u ON u.id = d.user_id ` +
		where + ` ORDER BY d.created_at DESC`
	rows, err := h.db.Queryx(query, args...)
	if err != nil {
		http.Error(w, "could not fetch diaries", http.StatusInternalServerError)
		return
	}
	defer rows.Close()

	for rows.Next() {
		var row diaryRow
		if err := rows.StructScan(&row); err == nil {
			out = append(out, ToDiaryDTO(row.Diary, row.Username))
		}
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(out)
}

func (h *DiaryHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.Atoi(chi.URLParam(r, "id"))
	if err != nil {
		http.Error(w, "invalid diary id", http.StatusBadRequest)
		return
	}

	var row diaryRow
	err = h.db.Get(&row, `SELECT `+diaryColumns+`, u.username FROM diaries d JOIN users u ON u.id = d.user_id WHERE d.id=$1`, id)
	if err != nil {
		if err == sql.ErrNoRows {
			http.Error(w, "diary not found", http.StatusNotFound)
			return
		}
		http.Error(w, "server error", http.StatusInternalServerError)
		return
	}

	caller := resolveCaller(h.db, r)
	if !authz.CanView(caller, row.UserID, row.IsPublic) {
		http.Error(w, "you do not have access to this diary", http.StatusForbidden)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(ToDiaryDTO(row.Diary, row.Username))
}

type diaryCreateRequest struct {
	Title     string  `json:"title"`
	Content   string  `json:"content"`
	State     *bool   `json:"state"`
	Image     *string `json:"image"`
	DiaryDate string  `json:"diary_date"` // YYYY-MM-DD
}

func (h *DiaryHandler) Create(w http.ResponseWriter, r *http.Request) {
	userID := r.Context().Value("userID").(int)

	var req diaryCreateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Title == "" || req.DiaryDate == "" {
		http.Error(w, "invalid body", http.StatusBadRequest)
		return
	}
	diaryDate, err := time.Parse("2006-01-02", req.DiaryDate)
	if err != nil {
		http.Error(w, "invalid diary_date format; expected YYYY-MM-DD", http.StatusBadRequest)
		return
	}
	isPublic := true
	if req.State != nil {
		isPublic = *req.State
	}

	// Pre-insert duplicate check; not atomic with the insert below.
	var exists bool
	if err := h.db.Get(&exists, `SELECT EXISTS (SELECT 1 FROM diaries WHERE user_id=$1 AND diary_date=$2)`, userID, diaryDate); err != nil {
		http.Error(w, "server error", http.StatusInternalServerError)
		return
	}
	if exists {
		http.Error(w, "a diary already exists for this date", http.StatusConflict)
		return
	}

	var emotion *string
	if req.Content != "" {
		if label, err := h.classifier.Classify(r.Context(), req.Content); err != nil {
			h.logger.Warn("sentiment classification failed", zap.Error(err))
		} else {
			emotion = &label
		}
	}

	var d models.Diary
	err = h.db.QueryRowx(
		`INSERT INTO diaries (user_id, title, content, image, is_public, emotion, created_at, diary_date)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		 RETURNING id, user_id, title, content, image, is_public, emotion, created_at, diary_date`,
		userID, req.Title, req.Content, req.Image, isPublic, emotion, time.Now().In(kst), diaryDate).StructScan(&d)
	if err != nil {
		http.Error(w, "could not save diary", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(ToDiaryDTO(d, ""))
}

type diaryUpdateRequest struct {
	Title   *string `json:"title"`
	Content *string `json:"content"`
	Image   *string `json:"image"`
	State   *bool   `json:"state"`
}

// Update applies a partial field update. When content changes to non-empty
// text the sentiment label is recomputed; a classification failure keeps
// the previous label and the update still commits.
func (h *DiaryHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.Atoi(chi.URLParam(r, "id"))
	if err != nil {
		http.Error(w, "invalid diary id", http.StatusBadRequest)
		return
	}

	var req diaryUpdateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid body", http.StatusBadRequest)
		return
	}

	var row diaryRow
	err = h.db.Get(&row, `SELECT `+diaryColumns+`, u.username FROM diaries d JOIN users u ON u.id = d.user_id WHERE d.id=$1`, id)
	if err != nil {
		if err == sql.ErrNoRows {
			http.Error(w, "diary not found", http.StatusNotFound)
			return
		}
		http.Error(w, "server error", http.StatusInternalServerError)
		return
	}

	caller := resolveCaller(h.db, r)
	if !authz.CanModify(caller, row.UserID) {
		http.Error(w, "you do not have permission to modify this diary", http.StatusForbidden)
		return
	}

	setClauses := []string{}
	args := []interface{}{}
	argIdx := 1
	addClause := func(col string, val interface{}) {
		setClauses = append(setClauses, fmt.Sprintf("%s=$%d", col, argIdx))
		args = append(args, val)
		argIdx++
	}
	if req.Title != nil {
		addClause("title", *req.Title)
	}
	if req.Content != nil {
		addClause("content", *req.Content)
	}
	if req.Image != nil {
		addClause("image", *req.Image)
	}
	if req.State != nil {
		addClause("is_public", *req.State)
	}

	if len(setClauses) == 0 {
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(ToDiaryDTO(row.Diary, row.Username))
		return
	}

	if req.Content != nil && *req.Content != "" {
		if label, err := h.classifier.Classify(r.Context(), *req.Content); err != nil {
			h.logger.Warn("sentiment reclassification failed", zap.Error(err))
		} else {
			addClause("emotion", label)
		}
	}

	query := "UPDATE diaries SET " + strings.Join(setClauses, ", ") +
		fmt.Sprintf(" WHERE id=$%d RETURNING id, user_id, title, content, image, is_public, emotion, created_at, diary_date", argIdx)
	args = append(args, id)

	var d models.Diary
	if err := h.db.QueryRowx(query, args...).StructScan(&d); err != nil {
		http.Error(w, "could not update diary", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(ToDiaryDTO(d, row.Username))
}

func (h *DiaryHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.Atoi(chi.URLParam(r, "id"))
	if err != nil {
		http.Error(w, "invalid diary id", http.StatusBadRequest)
		return
	}

	var ownerID int
	if err := h.db.Get(&ownerID, `SELECT user_id FROM diaries WHERE id=$1`, id); err != nil {
		if err == sql.ErrNoRows {
			http.Error(w, "diary not found", http.StatusNotFound)
			return
		}
		http.Error(w, "server error", http.StatusInternalServerError)
		return
	}

	caller := resolveCaller(h.db, r)
	if !authz.CanModify(caller, ownerID) {
		http.Error(w, "you do not have permission to delete this diary", http.StatusForbidden)
		return
	}

	if _, err := h.db.Exec(`DELETE FROM diaries WHERE id=$1`, id); err != nil {
		http.Error(w, "could not delete diary", http.StatusInternalServerError)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// DeleteAll removes every diary owned by the caller. Admins get no wider
// scope here; the operation is always self-only.
func (h *DiaryHandler) DeleteAll(w http.ResponseWriter, r *http.Request) {
	userID := r.Context().Value("userID").(int)

	res, err := h.db.Exec(`DELETE FROM diaries WHERE user_id=$1`, userID)
	if err != nil {
		http.Error(w, "could not delete diaries", http.StatusInternalServerError)
		return
	}
	count, _ := res.RowsAffected()

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{
		"message": fmt.Sprintf("%d diaries deleted", count),
	})
}

func (h *DiaryHandler) CheckDuplicate(w http.ResponseWriter, r *http.Request) {
	userID := r.Context().Value("userID").(int)

	diaryDate, err := time.Parse("2006-01-02", r.URL.Query().Get("diary_date"))
	if err != nil {
		http.Error(w, "invalid diary_date format; expected YYYY-MM-DD", http.StatusBadRequest)
		return
	}

	var exists bool
	if err := h.db.Get(&exists, `SELECT EXISTS (SELECT 1 FROM diaries WHERE user_id=$1 AND diary_date=$2)`, userID, diaryDate); err != nil {
		http.Error(w, "server error", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]bool{"exists": exists})
}

// Search matches public entries by title substring, case-insensitively.
func (h *DiaryHandler) Search(w http.ResponseWriter, r *http.Request) {
	search := r.URL.Query().Get("search")
	if search == "" {
		http.Error(w, "search term required", http.StatusBadRequest)
		return
	}

	rows, err := h.db.Queryx(
		`SELECT `+diaryColumns+`, u.username FROM diaries d JOIN users u ON u.id = d.user_id
		 WHERE d.is_public = true AND d.title ILIKE $1 ORDER BY d.created_at DESC`,
		"%"+search+"%")
	if err != nil {
		http.Error(w, "could not search diaries", http.StatusInternalServerError)
		return
	}
	defer rows.Close()

	out := []DiaryDTO{}
	for rows.Next() {
		var row diaryRow
		if err := rows.StructScan(&row); err == nil {
			out = append(out, ToDiaryDTO(row.Diary, row.Username))
		}
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(out)
}
