package service

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/mmynk/foodgram/internal/auth"
	"github.com/mmynk/foodgram/internal/middleware"
	"github.com/mmynk/foodgram/internal/models"
	"github.com/mmynk/foodgram/internal/storage"
)

// UserService serves profiles, avatars, passwords and subscriptions.
type UserService struct {
	store         storage.UserStore
	authenticator auth.Authenticator
	publicURL     string
	logger        *slog.Logger
}

// NewUserService creates a UserService. publicURL may be empty, in which
// case pagination links are derived from the request.
func NewUserService(store storage.UserStore, authenticator auth.Authenticator, publicURL string, logger *slog.Logger) *UserService {
	return &UserService{
		store:         store,
		authenticator: authenticator,
		publicURL:     publicURL,
		logger:        logger,
	}
}

// List returns a page of users.
func (s *UserService) List(w http.ResponseWriter, r *http.Request) {
	page, err := parsePage(r)
	if err != nil {
		writeError(w, s.logger, err)
		return
	}

	viewerID := middleware.GetUserID(r.Context())
	users, total, err := s.store.ListUsers(r.Context(), viewerID, page.Limit, page.Offset())
	if err != nil {
		writeError(w, s.logger, err)
		return
	}

	views := make([]userView, 0, len(users))
	for _, u := range users {
		views = append(views, newUserView(u))
	}
	writeJSON(w, http.StatusOK, newPage(r, baseURL(r, s.publicURL), page, total, views))
}

// Me returns the authenticated user.
func (s *UserService) Me(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())
	user, err := s.store.GetUserByID(r.Context(), userID, userID)
	if err != nil {
		writeError(w, s.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, newUserView(user))
}

// Get returns one user by ID.
func (s *UserService) Get(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, s.logger, err)
		return
	}

	user, err := s.store.GetUserByID(r.Context(), id, middleware.GetUserID(r.Context()))
	if err != nil {
		writeError(w, s.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, newUserView(user))
}

type setPasswordRequest struct {
	CurrentPassword string `json:"current_password" validate:"required"`
	NewPassword     string `json:"new_password" validate:"required"`
}

// SetPassword replaces the password after checking the current one.
func (s *UserService) SetPassword(w http.ResponseWriter, r *http.Request) {
	var req setPasswordRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, s.logger, err)
		return
	}

	userID := middleware.GetUserID(r.Context())
	user, err := s.store.GetUserByID(r.Context(), userID, 0)
	if err != nil {
		writeError(w, s.logger, err)
		return
	}

	if err := s.authenticator.ChangeCredential(r.Context(), user, req.CurrentPassword, req.NewPassword); err != nil {
		if errors.Is(err, auth.ErrInvalidCredentials) {
			writeError(w, s.logger, badRequest("current password is incorrect"))
			return
		}
		writeError(w, s.logger, err)
		return
	}

	s.logger.Info("Password changed", "user_id", userID)
	w.WriteHeader(http.StatusNoContent)
}

type avatarRequest struct {
	Avatar string `json:"avatar" validate:"required,imagedata"`
}

type avatarResponse struct {
	Avatar string `json:"avatar"`
}

// SetAvatar stores a new avatar image.
func (s *UserService) SetAvatar(w http.ResponseWriter, r *http.Request) {
	var req avatarRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, s.logger, err)
		return
	}

	userID := middleware.GetUserID(r.Context())
	if err := s.store.SetAvatar(r.Context(), userID, req.Avatar); err != nil {
		writeError(w, s.logger, err)
		return
	}

	s.logger.Info("Avatar updated", "user_id", userID)
	writeJSON(w, http.StatusOK, avatarResponse{Avatar: req.Avatar})
}

// DeleteAvatar removes the avatar image.
func (s *UserService) DeleteAvatar(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())
	user, err := s.store.GetUserByID(r.Context(), userID, 0)
	if err != nil {
		writeError(w, s.logger, err)
		return
	}
	if user.Avatar == "" {
		writeError(w, s.logger, notFound("avatar not set"))
		return
	}

	if err := s.store.SetAvatar(r.Context(), userID, ""); err != nil {
		writeError(w, s.logger, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Subscriptions lists the authors the user follows.
func (s *UserService) Subscriptions(w http.ResponseWriter, r *http.Request) {
	page, err := parsePage(r)
	if err != nil {
		writeError(w, s.logger, err)
		return
	}
	recipesLimit, err := queryInt(r, "recipes_limit", 0)
	if err != nil {
		writeError(w, s.logger, err)
		return
	}

	userID := middleware.GetUserID(r.Context())
	authors, total, err := s.store.ListSubscriptions(r.Context(), userID, recipesLimit, page.Limit, page.Offset())
	if err != nil {
		writeError(w, s.logger, err)
		return
	}

	views := make([]authorView, 0, len(authors))
	for _, a := range authors {
		views = append(views, newAuthorView(a))
	}
	writeJSON(w, http.StatusOK, newPage(r, baseURL(r, s.publicURL), page, total, views))
}

// Subscribe follows the author in the path.
func (s *UserService) Subscribe(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())
	author, err := s.pathAuthor(r, userID)
	if err != nil {
		writeError(w, s.logger, err)
		return
	}
	if author.ID == userID {
		writeError(w, s.logger, badRequest("cannot subscribe to yourself"))
		return
	}

	recipesLimit, err := queryInt(r, "recipes_limit", 0)
	if err != nil {
		writeError(w, s.logger, err)
		return
	}

	if err := s.store.Subscribe(r.Context(), userID, author.ID); err != nil {
		if errors.Is(err, storage.ErrAlreadyExists) {
			writeError(w, s.logger, badRequest("already subscribed"))
			return
		}
		writeError(w, s.logger, err)
		return
	}

	view, err := s.store.GetAuthor(r.Context(), author.ID, userID, recipesLimit)
	if err != nil {
		writeError(w, s.logger, err)
		return
	}

	s.logger.Info("Subscribed", "user_id", userID, "author_id", author.ID)
	writeJSON(w, http.StatusCreated, newAuthorView(view))
}

// Unsubscribe stops following the author in the path.
func (s *UserService) Unsubscribe(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())
	author, err := s.pathAuthor(r, userID)
	if err != nil {
		writeError(w, s.logger, err)
		return
	}

	if err := s.store.Unsubscribe(r.Context(), userID, author.ID); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			writeError(w, s.logger, badRequest("not subscribed"))
			return
		}
		writeError(w, s.logger, err)
		return
	}

	s.logger.Info("Unsubscribed", "user_id", userID, "author_id", author.ID)
	w.WriteHeader(http.StatusNoContent)
}

func (s *UserService) pathAuthor(r *http.Request, viewerID int64) (*models.User, error) {
	id, err := pathID(r, "id")
	if err != nil {
		return nil, err
	}
	return s.store.GetUserByID(r.Context(), id, viewerID)
}
