package handlers

import (
	"errors"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"

	"pet-platform/internal/models"
	"pet-platform/internal/store"
	"pet-platform/internal/token"
)

// AuthHandler covers registration, token issuance and role lookups.
type AuthHandler struct {
	Accounts *store.AccountStore
	Tokens   *token.Service
}

func NewAuthHandler(accounts *store.AccountStore, tokens *token.Service) *AuthHandler {
	return &AuthHandler{Accounts: accounts, Tokens: tokens}
}

// RegisterRequest defines the JSON struct we expect from the client.
type RegisterRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Name     string `json:"name"`
	PhotoURL string `json:"photoUrl"`
}

// Register creates an account on first contact. Registration is
// idempotent: a duplicate request reports the existing account and never
// creates a second row.
func (h *AuthHandler) Register(c *gin.Context) {
	var req RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "Invalid request: " + err.Error()})
		return
	}

	account, created, err := h.Accounts.Create(c.Request.Context(), req.Email, req.Name, req.PhotoURL)
	if err != nil {
		log.Println("Failed to register account:", err)
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Server error."})
		return
	}

	if !created {
		c.JSON(http.StatusOK, gin.H{"message": "User already exists", "userId": account.ID})
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"message": "User created successfully.",
		"userId":  account.ID,
		"email":   account.Email,
		"role":    account.Role,
	})
}

type IssueTokenRequest struct {
	Email string `json:"email" binding:"required,email"`
}

// IssueToken signs a session token for a registered account. The role in
// the claims always comes from the identity store, never from the client.
func (h *AuthHandler) IssueToken(c *gin.Context) {
	var req IssueTokenRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "Invalid request: " + err.Error()})
		return
	}

	account, err := h.Accounts.GetByEmail(c.Request.Context(), req.Email)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"message": "User not found."})
			return
		}
		log.Println("Failed to look up account for token:", err)
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Server error."})
		return
	}

	tokenString, err := h.Tokens.Issue(account.Email, account.Role)
	if err != nil {
		log.Println("Failed to sign token:", err)
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Server error."})
		return
	}

	c.JSON(http.StatusOK, gin.H{"token": tokenString})
}

// GetRole reports the current role for an email; unknown emails read as
// plain users, matching the public role-probe the frontend uses.
func (h *AuthHandler) GetRole(c *gin.Context) {
	account, err := h.Accounts.GetByEmail(c.Request.Context(), c.Param("email"))
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			c.JSON(http.StatusOK, gin.H{"role": models.RoleUser})
			return
		}
		log.Println("Failed to look up role:", err)
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Server error."})
		return
	}
	c.JSON(http.StatusOK, gin.H{"role": account.Role})
}

func (h *AuthHandler) IsAdmin(c *gin.Context) {
	account, err := h.Accounts.GetByEmail(c.Request.Context(), c.Param("email"))
	if err != nil {
		c.JSON(http.StatusOK, gin.H{"admin": false})
		return
	}
	c.JSON(http.StatusOK, gin.H{"admin": account.Role == models.RoleAdmin})
}
