// User HTTP handlers.
//
// This file exposes REST endpoints for economy accounts:
//   - POST /users                          (create or return by username)
//   - GET  /users/{id}
//   - GET  /users/by-username/{username}
//   - PUT  /users/{id}/language?language=en|zh
//   - GET  /users/{id}/level
//   - POST /users/{id}/experience?xp_amount=N
package handlers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/tbourn/astro-chart-backend/internal/domain"
	"github.com/tbourn/astro-chart-backend/internal/services"
	"github.com/tbourn/astro-chart-backend/internal/utils"
)

//
// DTOs
//

// CreateUserRequest is the JSON payload for creating an account.
type CreateUserRequest struct {
	Username string `json:"username" binding:"required" example:"stargazer"`
}

// LanguageResponse confirms a language change.
type LanguageResponse struct {
	Success  bool         `json:"success"`
	Language string       `json:"language" example:"zh"`
	User     *domain.User `json:"user"`
}

// LevelResponse reports experience and the matching tier.
type LevelResponse struct {
	Experience int64              `json:"experience" example:"650"`
	LevelInfo  services.LevelInfo `json:"level_info"`
}

//
// Handlers
//

// CreateUser godoc
// @ID          createUser
// @Summary     Create a user
// @Description Creates an account with zero balance and experience. An existing account with the same username is returned unchanged.
// @Tags        Users
// @Accept      json
// @Produce     json
//
// @Param       body  body  handlers.CreateUserRequest  true  "Username"
//
// @Success     200  {object}  domain.User
// @Failure     400  {object}  handlers.ErrorResponse  "Bad request"
// @Failure     500  {object}  handlers.ErrorResponse  "Internal error"
// @Router      /users [post]
func (h *Handlers) CreateUser(c *gin.Context) {
	var req CreateUserRequest
	if err := c.ShouldBindJSON(&req); err != nil || strings.TrimSpace(req.Username) == "" {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "username required")
		return
	}
	u, err := h.users.Create(c.Request.Context(), req.Username)
	if err != nil {
		failService(c, err, ErrCodeCreateFailed)
		return
	}
	ok(c, http.StatusOK, u)
}

// GetUser godoc
// @ID          getUser
// @Summary     Get a user
// @Tags        Users
// @Produce     json
//
// @Param       id  path  string  true  "User ID"
//
// @Success     200  {object}  domain.User
// @Failure     404  {object}  handlers.ErrorResponse  "User not found"
// @Router      /users/{id} [get]
func (h *Handlers) GetUser(c *gin.Context) {
	u, err := h.users.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		failService(c, err, ErrCodeInternal)
		return
	}
	ok(c, http.StatusOK, u)
}

// GetUserByUsername godoc
// @ID          getUserByUsername
// @Summary     Find a user by username
// @Tags        Users
// @Produce     json
//
// @Param       username  path  string  true  "Exact username"
//
// @Success     200  {object}  domain.User
// @Failure     404  {object}  handlers.ErrorResponse  "User not found"
// @Router      /users/by-username/{username} [get]
func (h *Handlers) GetUserByUsername(c *gin.Context) {
	u, err := h.users.GetByUsername(c.Request.Context(), c.Param("username"))
	if err != nil {
		failService(c, err, ErrCodeInternal)
		return
	}
	ok(c, http.StatusOK, u)
}

// UpdateLanguage godoc
// @ID          updateLanguage
// @Summary     Set the user's language
// @Description Sets the language used for level titles. Only en and zh are supported.
// @Tags        Users
// @Produce     json
//
// @Param       id        path   string  true   "User ID"
// @Param       language  query  string  false  "Language code"  Enums(en, zh) default(en)
//
// @Success     200  {object}  handlers.LanguageResponse
// @Failure     400  {object}  handlers.ErrorResponse  "Invalid language code"
// @Failure     404  {object}  handlers.ErrorResponse  "User not found"
// @Router      /users/{id}/language [put]
func (h *Handlers) UpdateLanguage(c *gin.Context) {
	lang := c.DefaultQuery("language", "en")
	u, err := h.users.SetLanguage(c.Request.Context(), c.Param("id"), lang)
	if err != nil {
		failService(c, err, ErrCodeInternal)
		return
	}
	ok(c, http.StatusOK, LanguageResponse{Success: true, Language: u.Language, User: u})
}

// GetLevel godoc
// @ID          getLevel
// @Summary     Get the user's level
// @Description Returns experience and the tier it falls in. `title` follows the user's language; `title_en` is always English.
// @Tags        Users
// @Produce     json
//
// @Param       id  path  string  true  "User ID"
//
// @Success     200  {object}  handlers.LevelResponse
// @Failure     404  {object}  handlers.ErrorResponse  "User not found"
// @Router      /users/{id}/level [get]
func (h *Handlers) GetLevel(c *gin.Context) {
	xp, info, err := h.users.Level(c.Request.Context(), c.Param("id"))
	if err != nil {
		failService(c, err, ErrCodeInternal)
		return
	}
	ok(c, http.StatusOK, LevelResponse{Experience: xp, LevelInfo: info})
}

// AddExperience godoc
// @ID          addExperience
// @Summary     Add experience
// @Description Adds xp_amount (may be negative) to the user's experience. Experience never drops below zero.
// @Tags        Users
// @Produce     json
//
// @Param       id         path   string  true  "User ID"
// @Param       xp_amount  query  int     true  "Experience delta"
//
// @Success     200  {object}  handlers.LevelResponse
// @Failure     400  {object}  handlers.ErrorResponse  "Bad request"
// @Failure     404  {object}  handlers.ErrorResponse  "User not found"
// @Router      /users/{id}/experience [post]
func (h *Handlers) AddExperience(c *gin.Context) {
	xp, valid := utils.ParseCoins(c.Query("xp_amount"))
	if !valid {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "xp_amount must be an integer")
		return
	}
	total, info, err := h.users.AddExperience(c.Request.Context(), c.Param("id"), xp)
	if err != nil {
		failService(c, err, ErrCodeInternal)
		return
	}
	ok(c, http.StatusOK, LevelResponse{Experience: total, LevelInfo: info})
}
