package handlers

import (
	"errors"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"

	"pet-platform/internal/models"
	"pet-platform/internal/store"
)

// AdminHandler covers role transitions and the admin user views. All of
// its routes sit behind the RequireAdmin gate except AdminRequest, which
// is gated by the configured secret key instead.
type AdminHandler struct {
	Accounts *store.AccountStore
	AdminKey string
}

func NewAdminHandler(accounts *store.AccountStore, adminKey string) *AdminHandler {
	return &AdminHandler{Accounts: accounts, AdminKey: adminKey}
}

func (h *AdminHandler) ListUsers(c *gin.Context) {
	accounts, err := h.Accounts.List(c.Request.Context())
	if err != nil {
		log.Println("Failed to list users:", err)
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Failed to fetch users"})
		return
	}
	c.JSON(http.StatusOK, accounts)
}

// PromoteAdmin sets a user's role to admin. Promoting an admin again is a
// no-op reported as success.
func (h *AdminHandler) PromoteAdmin(c *gin.Context) {
	h.setRole(c, models.RoleAdmin, "User promoted to admin successfully.", "Already an admin.")
}

// BanUser sets a user's role to banned. Their outstanding tokens keep
// verifying until expiry, but the gate's live role lookup locks them out
// on their next request.
func (h *AdminHandler) BanUser(c *gin.Context) {
	h.setRole(c, models.RoleBanned, "User has been banned successfully.", "User already banned.")
}

func (h *AdminHandler) setRole(c *gin.Context, role, okMsg, alreadyMsg string) {
	id := c.Param("id")

	account, err := h.Accounts.GetByID(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"message": "User not found."})
			return
		}
		log.Println("Failed to load user:", err)
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Server error"})
		return
	}

	if account.Role == role {
		c.JSON(http.StatusOK, gin.H{"message": alreadyMsg})
		return
	}

	if err := h.Accounts.SetRole(c.Request.Context(), id, role); err != nil {
		log.Println("Failed to update role:", err)
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Server error"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": okMsg})
}

type AdminRequestBody struct {
	Email    string `json:"email" binding:"required,email"`
	AdminKey string `json:"adminKey" binding:"required"`
}

// AdminRequest promotes a user to admin when they present the server's
// configured admin key.
func (h *AdminHandler) AdminRequest(c *gin.Context) {
	var req AdminRequestBody
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "Email and admin key are required."})
		return
	}

	if req.AdminKey != h.AdminKey {
		c.JSON(http.StatusForbidden, gin.H{"message": "Invalid admin key."})
		return
	}

	account, err := h.Accounts.GetByEmail(c.Request.Context(), req.Email)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"message": "User not found."})
			return
		}
		log.Println("Admin request lookup failed:", err)
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Server error. Please try again later."})
		return
	}

	if account.Role == models.RoleAdmin {
		c.JSON(http.StatusOK, gin.H{"message": "You are already an admin."})
		return
	}

	if err := h.Accounts.SetRole(c.Request.Context(), account.ID, models.RoleAdmin); err != nil {
		log.Println("Admin request role update failed:", err)
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Server error. Please try again later."})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Admin access granted successfully."})
}
