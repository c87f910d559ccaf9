package handlers

import (
	"errors"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"

	"pet-platform/internal/donation"
	"pet-platform/internal/payment"
)

// DonationHandler is the HTTP face of the donation orchestrator.
type DonationHandler struct {
	Service *donation.Service
}

func NewDonationHandler(service *donation.Service) *DonationHandler {
	return &DonationHandler{Service: service}
}

// DonateRequest carries amounts in major units; the handler converts to
// minor units exactly once, with round-half-up.
type DonateRequest struct {
	CampaignID      string  `json:"campaignId" binding:"required"`
	Amount          float64 `json:"amount" binding:"required,gt=0"`
	Currency        string  `json:"currency"`
	DonorEmail      string  `json:"donorEmail" binding:"required,email"`
	PaymentMethodID string  `json:"paymentMethodId" binding:"required"`
}

// Donate runs the capture -> record -> increment flow and maps every
// outcome to the coarse response taxonomy. Adapter-internal detail stays
// in the logs.
func (h *DonationHandler) Donate(c *gin.Context) {
	var req DonateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": "Invalid request: " + err.Error()})
		return
	}

	currency := req.Currency
	if currency == "" {
		currency = "USD"
	}

	result, err := h.Service.Donate(c.Request.Context(), donation.DonateRequest{
		CampaignID:       req.CampaignID,
		AmountCents:      payment.MinorUnits(req.Amount),
		Currency:         currency,
		DonorEmail:       req.DonorEmail,
		PaymentMethodRef: req.PaymentMethodID,
	})
	if err != nil {
		h.writeDonateError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success":         true,
		"paymentIntentId": result.CaptureID,
		"donationId":      result.DonationID,
	})
}

func (h *DonationHandler) writeDonateError(c *gin.Context, err error) {
	var paymentErr *donation.PaymentError
	var ledgerErr *donation.LedgerWriteError

	switch {
	case errors.Is(err, donation.ErrInvalidAmount):
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": "Donation amount must be positive."})
	case errors.Is(err, donation.ErrCampaignNotFound):
		c.JSON(http.StatusNotFound, gin.H{"success": false, "message": "Campaign not found."})
	case errors.Is(err, donation.ErrCampaignPaused):
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": "Campaign is paused."})
	case errors.As(err, &paymentErr):
		if paymentErr.Declined {
			c.JSON(http.StatusPaymentRequired, gin.H{"success": false, "message": "Payment was declined."})
		} else {
			c.JSON(http.StatusInternalServerError, gin.H{"success": false, "message": "Payment failed."})
		}
	case errors.As(err, &ledgerErr):
		// Captured but unrecorded; the capture id is already in the logs
		// for manual reconciliation.
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "message": "Donation could not be recorded. Support has been notified."})
	default:
		log.Println("Donation failed:", err)
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "message": "Internal Server Error"})
	}
}

// Reconcile runs the ledger sweep. Admin-gated at the router.
func (h *DonationHandler) Reconcile(c *gin.Context) {
	discrepancies, err := h.Service.Reconcile(c.Request.Context())
	if err != nil {
		log.Println("Reconciliation sweep failed:", err)
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Reconciliation failed."})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"count":         len(discrepancies),
		"discrepancies": discrepancies,
	})
}
