package http

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/mlevchik/mnemo/internal/auth"
	"github.com/mlevchik/mnemo/internal/database/users"
)

type AuthController struct {
	repo *users.Repository
}

func NewAuthController(repo *users.Repository) *AuthController {
	return &AuthController{repo: repo}
}

type tokenRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// IssueToken exchanges username/password credentials for a fresh API
// token. The previous token stops working.
func (ac *AuthController) IssueToken(c *gin.Context) {
	var req tokenRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		errorJSON(c, http.StatusBadRequest, "username and password are required")
		return
	}

	user, err := ac.repo.ByUsername(req.Username)
	if err != nil {
		errorJSON(c, http.StatusUnauthorized, "invalid credentials")
		return
	}
	if err := auth.CheckPassword(req.Password, user.PasswordHash); err != nil {
		errorJSON(c, http.StatusUnauthorized, "invalid credentials")
		return
	}

	token, err := ac.repo.RotateToken(user)
	if err != nil {
		errorJSON(c, http.StatusInternalServerError, "failed to issue token")
		return
	}

	c.JSON(http.StatusOK, gin.H{"token": token})
}
