package admin

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/codeatlas/codeatlas/internal/app/models"
	"github.com/codeatlas/codeatlas/internal/app/repositories"
	"github.com/codeatlas/codeatlas/internal/pkg/apperrors"
	"github.com/codeatlas/codeatlas/internal/pkg/auth"
)

// panelUserRepo is an in-memory UserRepository for the record-browser tests.
type panelUserRepo struct {
	repositories.UserRepository
	users  map[int64]*models.User
	nextID int64
	lastQ  repositories.PageQuery
}

func newPanelUserRepo() *panelUserRepo {
	return &panelUserRepo{users: map[int64]*models.User{}, nextID: 1}
}

func (r *panelUserRepo) Create(ctx context.Context, user *models.User) (int64, error) {
	user.ID = r.nextID
	copied := *user
	r.users[copied.ID] = &copied
	r.nextID++
	return copied.ID, nil
}

func (r *panelUserRepo) GetByID(ctx context.Context, id int64) (*models.User, error) {
	if u, ok := r.users[id]; ok {
		copied := *u
		return &copied, nil
	}
	return nil, apperrors.ErrUserNotFound
}

func (r *panelUserRepo) Update(ctx context.Context, user *models.User) error {
	if _, ok := r.users[user.ID]; !ok {
		return apperrors.ErrUserNotFound
	}
	copied := *user
	r.users[user.ID] = &copied
	return nil
}

func (r *panelUserRepo) Delete(ctx context.Context, id int64) error {
	if _, ok := r.users[id]; !ok {
		return apperrors.ErrUserNotFound
	}
	delete(r.users, id)
	return nil
}

func (r *panelUserRepo) Browse(ctx context.Context, q repositories.PageQuery) ([]*models.User, int64, error) {
	r.lastQ = q
	users := []*models.User{}
	for id := int64(1); id < r.nextID; id++ {
		if u, ok := r.users[id]; ok {
			copied := *u
			users = append(users, &copied)
		}
	}
	return users, int64(len(users)), nil
}

func newPanelRouter(userRepo repositories.UserRepository) *gin.Engine {
	gin.SetMode(gin.TestMode)
	panel := NewPanel(&repositories.Repositories{UserRepository: userRepo})

	router := gin.New()
	router.GET("/admin/users", panel.ListUsers)
	router.POST("/admin/users", panel.CreateUser)
	router.GET("/admin/users/export", panel.ExportUsers)
	router.GET("/admin/users/:id", panel.GetUser)
	router.PUT("/admin/users/:id", panel.UpdateUser)
	router.DELETE("/admin/users/:id", panel.DeleteUser)
	return router
}

func panelJSON(router *gin.Engine, method, path, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func TestPanelListUsersEnvelope(t *testing.T) {
	repo := newPanelUserRepo()
	_, err := repo.Create(context.Background(), &models.User{Username: "alice", Email: "a@ex.com"})
	require.NoError(t, err)
	router := newPanelRouter(repo)

	rec := panelJSON(router, http.MethodGet, "/admin/users?q=ali&sort=username&order=asc", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var body struct {
		Items    []models.User `json:"items"`
		Total    int64         `json:"total"`
		Page     int           `json:"page"`
		PageSize int           `json:"page_size"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Len(t, body.Items, 1)
	assert.Equal(t, int64(1), body.Total)
	assert.Equal(t, 1, body.Page)
	assert.Equal(t, 25, body.PageSize)

	assert.Equal(t, "ali", repo.lastQ.Search)
	assert.Equal(t, "username", repo.lastQ.SortBy)
	assert.False(t, repo.lastQ.SortDesc)
}

func TestPanelPageSizeClamped(t *testing.T) {
	repo := newPanelUserRepo()
	router := newPanelRouter(repo)

	rec := panelJSON(router, http.MethodGet, "/admin/users?page_size=1000", "")
	require.Equal(t, http.StatusOK, rec.Code)
	// Values beyond the largest page-size option fall back to the default.
	assert.Equal(t, uint64(25), repo.lastQ.Limit)

	rec = panelJSON(router, http.MethodGet, "/admin/users?page_size=100&page=3", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, uint64(100), repo.lastQ.Limit)
	assert.Equal(t, uint64(200), repo.lastQ.Offset)
}

func TestPanelCreateUserHashesPassword(t *testing.T) {
	repo := newPanelUserRepo()
	router := newPanelRouter(repo)

	rec := panelJSON(router, http.MethodPost, "/admin/users",
		`{"username":"alice","email":"Alice@Example.com","password":"panel password"}`)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	stored := repo.users[1]
	require.NotNil(t, stored)
	assert.Equal(t, "alice@example.com", stored.Email)
	assert.True(t, strings.HasPrefix(stored.HashedPassword, "$argon2id$"))
	assert.True(t, auth.CheckPassword("panel password", stored.HashedPassword))
	assert.NotContains(t, rec.Body.String(), "argon2id")
}

func TestPanelCreateUserDefaultPassword(t *testing.T) {
	repo := newPanelUserRepo()
	router := newPanelRouter(repo)

	rec := panelJSON(router, http.MethodPost, "/admin/users",
		`{"username":"alice","email":"alice@example.com"}`)
	require.Equal(t, http.StatusCreated, rec.Code)

	// Creating without a password stores the hash of the fallback.
	assert.True(t, auth.CheckPassword("changeme", repo.users[1].HashedPassword))
}

func TestPanelCreateUserMissingFields(t *testing.T) {
	router := newPanelRouter(newPanelUserRepo())

	rec := panelJSON(router, http.MethodPost, "/admin/users", `{"username":"alice"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestPanelUpdateUserRehashesPassword(t *testing.T) {
	repo := newPanelUserRepo()
	hash, err := auth.HashPassword("old password")
	require.NoError(t, err)
	_, err = repo.Create(context.Background(), &models.User{
		Username: "alice", Email: "alice@example.com", HashedPassword: hash,
	})
	require.NoError(t, err)
	router := newPanelRouter(repo)

	rec := panelJSON(router, http.MethodPut, "/admin/users/1", `{"password":"new password"}`)
	require.Equal(t, http.StatusOK, rec.Code)

	stored := repo.users[1]
	assert.True(t, auth.CheckPassword("new password", stored.HashedPassword))
	assert.False(t, auth.CheckPassword("old password", stored.HashedPassword))
	// Untouched fields survive.
	assert.Equal(t, "alice", stored.Username)
}

func TestPanelUpdateUserKeepsHashWithoutPassword(t *testing.T) {
	repo := newPanelUserRepo()
	hash, err := auth.HashPassword("old password")
	require.NoError(t, err)
	_, err = repo.Create(context.Background(), &models.User{
		Username: "alice", Email: "alice@example.com", HashedPassword: hash,
	})
	require.NoError(t, err)
	router := newPanelRouter(repo)

	rec := panelJSON(router, http.MethodPut, "/admin/users/1", `{"first_name":"Alice"}`)
	require.Equal(t, http.StatusOK, rec.Code)

	assert.Equal(t, hash, repo.users[1].HashedPassword)
}

func TestPanelDeleteUser(t *testing.T) {
	repo := newPanelUserRepo()
	_, err := repo.Create(context.Background(), &models.User{Username: "alice", Email: "a@ex.com"})
	require.NoError(t, err)
	router := newPanelRouter(repo)

	rec := panelJSON(router, http.MethodDelete, "/admin/users/1", "")
	assert.Equal(t, http.StatusNoContent, rec.Code)

	rec = panelJSON(router, http.MethodDelete, "/admin/users/1", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestPanelExportUsersCSV(t *testing.T) {
	repo := newPanelUserRepo()
	_, err := repo.Create(context.Background(), &models.User{
		Username: "alice", Email: "alice@example.com", HashedPassword: "$argon2id$secret",
	})
	require.NoError(t, err)
	router := newPanelRouter(repo)

	rec := panelJSON(router, http.MethodGet, "/admin/users/export", "")
	require.Equal(t, http.StatusOK, rec.Code)

	assert.Contains(t, rec.Header().Get("Content-Type"), "text/csv")
	assert.Contains(t, rec.Header().Get("Content-Disposition"), "attachment")

	body := rec.Body.String()
	assert.Contains(t, body, "id,username,email")
	assert.Contains(t, body, "alice@example.com")
	// The stored hash never leaves the server.
	assert.NotContains(t, body, "argon2id")
}

func TestPanelExportUsersJSON(t *testing.T) {
	repo := newPanelUserRepo()
	_, err := repo.Create(context.Background(), &models.User{
		Username: "alice", Email: "alice@example.com", HashedPassword: "$argon2id$secret",
	})
	require.NoError(t, err)
	router := newPanelRouter(repo)

	rec := panelJSON(router, http.MethodGet, "/admin/users/export?format=json", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var users []models.User
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &users))
	require.Len(t, users, 1)
	assert.NotContains(t, rec.Body.String(), "argon2id")
}
