package handlers

import (
	"errors"
	"log"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"pet-platform/internal/middleware"
	"pet-platform/internal/models"
	"pet-platform/internal/payment"
	"pet-platform/internal/store"
)

// CampaignHandler covers donation-campaign reads and the gated mutations.
// It never touches a campaign's donated total; that column belongs to the
// donation orchestrator alone.
type CampaignHandler struct {
	Ledger *store.LedgerStore
}

func NewCampaignHandler(ledger *store.LedgerStore) *CampaignHandler {
	return &CampaignHandler{Ledger: ledger}
}

// campaignResponse exposes money fields in major units.
type campaignResponse struct {
	ID            string    `json:"id"`
	CreatorEmail  string    `json:"creatorEmail"`
	PetName       string    `json:"petName"`
	ImageURL      string    `json:"imageUrl"`
	TargetAmount  float64   `json:"targetAmount"`
	DonatedAmount float64   `json:"donatedAmount"`
	Paused        bool      `json:"paused"`
	CreatedAt     time.Time `json:"createdAt"`
}

func toCampaignResponse(c models.Campaign) campaignResponse {
	return campaignResponse{
		ID:            c.ID,
		CreatorEmail:  c.CreatorEmail,
		PetName:       c.PetName,
		ImageURL:      c.ImageURL,
		TargetAmount:  payment.MajorUnits(c.TargetAmountCents),
		DonatedAmount: payment.MajorUnits(c.DonatedAmountCents),
		Paused:        c.Paused,
		CreatedAt:     c.CreatedAt,
	}
}

type donationResponse struct {
	ID               string    `json:"id"`
	CampaignID       string    `json:"campaignId"`
	DonorEmail       string    `json:"donorEmail"`
	Amount           float64   `json:"amount"`
	CapturePaymentID string    `json:"capturePaymentId"`
	CreatedAt        time.Time `json:"createdAt"`
}

func toDonationResponse(d models.Donation) donationResponse {
	return donationResponse{
		ID:               d.ID,
		CampaignID:       d.CampaignID,
		DonorEmail:       d.DonorEmail,
		Amount:           payment.MajorUnits(d.AmountCents),
		CapturePaymentID: d.CapturePaymentID,
		CreatedAt:        d.CreatedAt,
	}
}

type CreateCampaignRequest struct {
	PetName      string  `json:"petName" binding:"required"`
	ImageURL     string  `json:"imageUrl"`
	TargetAmount float64 `json:"targetAmount" binding:"required,gt=0"`
}

// CreateCampaign creates a campaign owned by the authenticated caller.
func (h *CampaignHandler) CreateCampaign(c *gin.Context) {
	var req CreateCampaignRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "Invalid request: " + err.Error()})
		return
	}

	identity, ok := middleware.CallerIdentity(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"message": "Unauthorized access (No Token)"})
		return
	}

	campaign, err := h.Ledger.CreateCampaign(c.Request.Context(),
		identity.Email, req.PetName, req.ImageURL, payment.MinorUnits(req.TargetAmount))
	if err != nil {
		log.Println("Failed to create campaign:", err)
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Failed to create campaign."})
		return
	}

	c.JSON(http.StatusCreated, toCampaignResponse(*campaign))
}

// ListCampaigns is the public paginated campaign feed. It keeps the
// original route name /donations and its page/limit defaults.
func (h *CampaignHandler) ListCampaigns(c *gin.Context) {
	page, err := strconv.Atoi(c.DefaultQuery("page", "1"))
	if err != nil || page < 1 {
		page = 1
	}
	limit, err := strconv.Atoi(c.DefaultQuery("limit", "6"))
	if err != nil || limit < 1 {
		limit = 6
	}

	campaigns, total, err := h.Ledger.ListCampaigns(c.Request.Context(), page, limit)
	if err != nil {
		log.Println("Failed to list campaigns:", err)
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Failed to fetch donations"})
		return
	}

	out := make([]campaignResponse, 0, len(campaigns))
	for _, campaign := range campaigns {
		out = append(out, toCampaignResponse(campaign))
	}

	c.JSON(http.StatusOK, gin.H{
		"total":     total,
		"page":      page,
		"limit":     limit,
		"donations": out,
	})
}

func (h *CampaignHandler) GetCampaign(c *gin.Context) {
	campaign, err := h.Ledger.GetCampaign(c.Request.Context(), c.Param("id"))
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"message": "Donation not found"})
			return
		}
		log.Println("Failed to fetch campaign:", err)
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Failed to fetch donation"})
		return
	}
	c.JSON(http.StatusOK, toCampaignResponse(*campaign))
}

// MyCampaigns lists the campaigns created by the given email.
func (h *CampaignHandler) MyCampaigns(c *gin.Context) {
	email := c.Query("email")
	if email == "" {
		c.JSON(http.StatusBadRequest, gin.H{"message": "Email query is required"})
		return
	}

	campaigns, err := h.Ledger.ListCampaignsByCreator(c.Request.Context(), email)
	if err != nil {
		log.Println("Failed to list creator campaigns:", err)
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Failed to fetch campaigns."})
		return
	}

	out := make([]campaignResponse, 0, len(campaigns))
	for _, campaign := range campaigns {
		out = append(out, toCampaignResponse(campaign))
	}
	c.JSON(http.StatusOK, gin.H{"donations": out})
}

// MyDonations lists the donation records made by the given email.
func (h *CampaignHandler) MyDonations(c *gin.Context) {
	email := c.Query("email")
	if email == "" {
		c.JSON(http.StatusBadRequest, gin.H{"message": "Email query is required"})
		return
	}

	donations, err := h.Ledger.ListDonationsByDonor(c.Request.Context(), email)
	if err != nil {
		log.Println("Failed to list donor donations:", err)
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Failed to fetch my donations"})
		return
	}

	out := make([]donationResponse, 0, len(donations))
	for _, donation := range donations {
		out = append(out, toDonationResponse(donation))
	}
	c.JSON(http.StatusOK, out)
}

type PauseCampaignRequest struct {
	Paused *bool `json:"paused" binding:"required"`
}

// PauseCampaign sets the paused flag. Admin-gated at the router.
func (h *CampaignHandler) PauseCampaign(c *gin.Context) {
	var req PauseCampaignRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "Invalid request: " + err.Error()})
		return
	}

	err := h.Ledger.SetCampaignPaused(c.Request.Context(), c.Param("id"), *req.Paused)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"message": "Campaign not found."})
			return
		}
		log.Println("Failed to pause/unpause campaign:", err)
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Failed to pause/unpause."})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Campaign updated.", "paused": *req.Paused})
}

// DeleteCampaign removes a campaign. Admin-gated at the router.
func (h *CampaignHandler) DeleteCampaign(c *gin.Context) {
	err := h.Ledger.DeleteCampaign(c.Request.Context(), c.Param("id"))
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"message": "Campaign not found."})
			return
		}
		log.Println("Failed to delete campaign:", err)
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Failed to delete campaign."})
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}

// AllCampaigns is the unpaginated admin view.
func (h *CampaignHandler) AllCampaigns(c *gin.Context) {
	campaigns, _, err := h.Ledger.ListCampaigns(c.Request.Context(), 1, 1000)
	if err != nil {
		log.Println("Failed to list all campaigns:", err)
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Failed to fetch campaigns."})
		return
	}

	out := make([]campaignResponse, 0, len(campaigns))
	for _, campaign := range campaigns {
		out = append(out, toCampaignResponse(campaign))
	}
	c.JSON(http.StatusOK, out)
}
