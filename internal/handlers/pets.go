package handlers

import (
	"errors"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"

	"pet-platform/internal/middleware"
	"pet-platform/internal/models"
	"pet-platform/internal/store"
)

// PetHandler covers pet listings. Owner routes compare the authenticated
// caller against the pet's added_by field with exact string equality;
// admin variants are separate routes behind the admin gate.
type PetHandler struct {
	Pets *store.PetStore
}

func NewPetHandler(pets *store.PetStore) *PetHandler {
	return &PetHandler{Pets: pets}
}

type PetRequest struct {
	Name             string `json:"name" binding:"required"`
	Age              string `json:"age"`
	Category         string `json:"category"`
	Location         string `json:"location"`
	ImageURL         string `json:"imageUrl"`
	ShortDescription string `json:"shortDescription"`
	LongDescription  string `json:"longDescription"`
}

func (h *PetHandler) CreatePet(c *gin.Context) {
	var req PetRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "Invalid request: " + err.Error()})
		return
	}

	identity, ok := middleware.CallerIdentity(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"message": "Unauthorized access (No Token)"})
		return
	}

	pet, err := h.Pets.Create(c.Request.Context(), &models.Pet{
		Name:             req.Name,
		Age:              req.Age,
		Category:         req.Category,
		Location:         req.Location,
		ImageURL:         req.ImageURL,
		ShortDescription: req.ShortDescription,
		LongDescription:  req.LongDescription,
		AddedBy:          identity.Email,
	})
	if err != nil {
		log.Println("Failed to add pet:", err)
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Failed to add pet"})
		return
	}

	c.JSON(http.StatusCreated, pet)
}

func (h *PetHandler) ListPets(c *gin.Context) {
	pets, err := h.Pets.List(c.Request.Context())
	if err != nil {
		log.Println("Failed to list pets:", err)
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Failed to fetch pets"})
		return
	}
	c.JSON(http.StatusOK, pets)
}

func (h *PetHandler) GetPet(c *gin.Context) {
	pet, err := h.Pets.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"message": "Pet not found"})
			return
		}
		log.Println("Failed to fetch pet:", err)
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Failed to fetch pet"})
		return
	}
	c.JSON(http.StatusOK, pet)
}

func (h *PetHandler) MyPets(c *gin.Context) {
	email := c.Query("email")
	if email == "" {
		c.JSON(http.StatusBadRequest, gin.H{"message": "Email query is required"})
		return
	}

	pets, err := h.Pets.ListByOwner(c.Request.Context(), email)
	if err != nil {
		log.Println("Failed to list my pets:", err)
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Failed to fetch my pets"})
		return
	}
	c.JSON(http.StatusOK, pets)
}

// loadOwnedPet fetches the pet and enforces the owner check.
func (h *PetHandler) loadOwnedPet(c *gin.Context) (*models.Pet, bool) {
	identity, ok := middleware.CallerIdentity(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"message": "Unauthorized access (No Token)"})
		return nil, false
	}

	pet, err := h.Pets.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"message": "Pet not found"})
			return nil, false
		}
		log.Println("Failed to fetch pet:", err)
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Server error."})
		return nil, false
	}

	if pet.AddedBy != identity.Email {
		c.JSON(http.StatusForbidden, gin.H{"message": "You can manage only your own pet"})
		return nil, false
	}
	return pet, true
}

func (h *PetHandler) UpdateMyPet(c *gin.Context) {
	pet, ok := h.loadOwnedPet(c)
	if !ok {
		return
	}

	var req PetRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "Invalid request: " + err.Error()})
		return
	}

	pet.Name = req.Name
	pet.Age = req.Age
	pet.Category = req.Category
	pet.Location = req.Location
	pet.ImageURL = req.ImageURL
	pet.ShortDescription = req.ShortDescription
	pet.LongDescription = req.LongDescription

	if err := h.Pets.Update(c.Request.Context(), pet); err != nil {
		log.Println("Failed to update pet:", err)
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Failed to update pet"})
		return
	}
	c.JSON(http.StatusOK, pet)
}

func (h *PetHandler) DeleteMyPet(c *gin.Context) {
	pet, ok := h.loadOwnedPet(c)
	if !ok {
		return
	}

	if err := h.Pets.Delete(c.Request.Context(), pet.ID); err != nil {
		log.Println("Failed to delete pet:", err)
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Failed to delete pet"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}

// AdminUpdatePet edits any pet. Admin-gated at the router.
func (h *PetHandler) AdminUpdatePet(c *gin.Context) {
	pet, err := h.Pets.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"message": "Pet not found"})
			return
		}
		log.Println("Failed to fetch pet:", err)
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Server error."})
		return
	}

	var req PetRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "Invalid request: " + err.Error()})
		return
	}

	pet.Name = req.Name
	pet.Age = req.Age
	pet.Category = req.Category
	pet.Location = req.Location
	pet.ImageURL = req.ImageURL
	pet.ShortDescription = req.ShortDescription
	pet.LongDescription = req.LongDescription

	if err := h.Pets.Update(c.Request.Context(), pet); err != nil {
		log.Println("Failed to update pet:", err)
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Failed to update pet"})
		return
	}
	c.JSON(http.StatusOK, pet)
}

func (h *PetHandler) MarkAdopted(c *gin.Context) {
	err := h.Pets.MarkAdopted(c.Request.Context(), c.Param("id"))
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"message": "Pet not found"})
			return
		}
		log.Println("Failed to mark pet adopted:", err)
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Failed to update pet"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Pet marked as adopted."})
}

func (h *PetHandler) AdminDeletePet(c *gin.Context) {
	err := h.Pets.Delete(c.Request.Context(), c.Param("id"))
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"message": "Pet not found"})
			return
		}
		log.Println("Failed to delete pet:", err)
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Failed to delete pet"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}
