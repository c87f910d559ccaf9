package main

import (
	"log"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/jmoiron/sqlx"
	"github.com/spf13/viper"

	_ "github.com/jackc/pgx/v5/stdlib"

	"pet-platform/internal/donation"
	"pet-platform/internal/handlers"
	"pet-platform/internal/middleware"
	"pet-platform/internal/payment"
	"pet-platform/internal/store"
	"pet-platform/internal/token"
	ws "pet-platform/internal/websocket"
)

// This struct will hold our loaded configuration
type Config struct {
	DSN                 string `mapstructure:"DSN"`
	JWT_SECRET          string `mapstructure:"JWT_SECRET"`
	MIDTRANS_SERVER_KEY string `mapstructure:"MIDTRANS_SERVER_KEY"`
	ADMIN_SECRET_KEY    string `mapstructure:"ADMIN_SECRET_KEY"`
	SERVER_ADDR         string `mapstructure:"SERVER_ADDR"`
}

// Function loads the config.env file from the root folder
func loadConfig() (config Config, err error) {
	viper.AddConfigPath(".")
	viper.SetConfigName("config")
	viper.SetConfigType("env")
	viper.SetDefault("SERVER_ADDR", ":8080")
	viper.AutomaticEnv()

	err = viper.ReadInConfig()
	if err != nil {
		return
	}

	err = viper.Unmarshal(&config)
	return
}

func main() {
	log.Println("Starting pet adoption platform server...")

	// Load Configuration
	config, err := loadConfig()
	if err != nil {
		log.Fatal("cannot load config:", err)
	}

	// Connect to the Database
	db, err := sqlx.Connect("pgx", config.DSN)
	if err != nil {
		log.Fatal("cannot connect to database:", err)
	}
	defer db.Close()
	log.Println("Successfully connected to PostgreSQL!")

	// Stores, constructed once and injected everywhere
	accounts := store.NewAccountStore(db)
	ledger := store.NewLedgerStore(db)
	pets := store.NewPetStore(db)

	// Token service: 1 hour expiry
	tokens := token.NewService(config.JWT_SECRET, time.Hour)

	// Payment capture adapter with a bounded per-call timeout
	capturer := payment.NewMidtransCapturer(config.MIDTRANS_SERVER_KEY, 15*time.Second)

	// Donation alert hub
	hub := ws.NewHub()
	go hub.Run()

	// Donation orchestrator
	donations := donation.NewService(ledger, capturer, hub)

	// Handlers
	authHandler := handlers.NewAuthHandler(accounts, tokens)
	adminHandler := handlers.NewAdminHandler(accounts, config.ADMIN_SECRET_KEY)
	campaignHandler := handlers.NewCampaignHandler(ledger)
	donationHandler := handlers.NewDonationHandler(donations)
	petHandler := handlers.NewPetHandler(pets)
	wsHandler := handlers.NewWebSocketHandler(tokens, hub)

	// Set up our Gin router
	r := gin.Default()
	r.Use(cors.Default())

	// Simple test route
	r.GET("/ping", func(c *gin.Context) {
		c.JSON(200, gin.H{
			"message": "pong",
		})
	})

	authenticated := middleware.Authenticate(tokens, accounts)
	adminOnly := middleware.RequireAdmin(accounts)

	// Identity and tokens
	r.POST("/users", authHandler.Register)
	r.POST("/jwt", authHandler.IssueToken)
	r.GET("/users/role/:email", authHandler.GetRole)
	r.GET("/users/admin/:email", authHandler.IsAdmin)
	r.POST("/admin-request", adminHandler.AdminRequest)

	// Donation core
	r.POST("/donate", donationHandler.Donate)
	r.GET("/donations", campaignHandler.ListCampaigns)
	r.GET("/donations/:id", campaignHandler.GetCampaign)
	r.GET("/my-donations", campaignHandler.MyDonations)
	r.GET("/campaigns", campaignHandler.MyCampaigns)
	r.POST("/campaigns", authenticated, campaignHandler.CreateCampaign)

	// Pets
	r.GET("/pets", petHandler.ListPets)
	r.GET("/pets/:id", petHandler.GetPet)
	r.POST("/pets", authenticated, petHandler.CreatePet)
	r.GET("/mypets", petHandler.MyPets)
	r.PATCH("/mypets/:id", authenticated, petHandler.UpdateMyPet)
	r.DELETE("/mypets/:id", authenticated, petHandler.DeleteMyPet)

	// Admin routes: the gate re-resolves the caller's current role on
	// every request, so bans and demotions take effect immediately.
	r.GET("/all-users", adminOnly, adminHandler.ListUsers)
	r.PATCH("/users/admin/:id", adminOnly, adminHandler.PromoteAdmin)
	r.PATCH("/users/ban/:id", adminOnly, adminHandler.BanUser)
	r.GET("/all-campaigns", adminOnly, campaignHandler.AllCampaigns)
	r.PATCH("/campaigns/pause/:id", adminOnly, campaignHandler.PauseCampaign)
	r.DELETE("/campaigns/:id", adminOnly, campaignHandler.DeleteCampaign)
	r.POST("/admin/reconcile", adminOnly, donationHandler.Reconcile)
	// PUT rather than PATCH: gin's route tree cannot hold /pets/:id and
	// /pets/adopt/:id under the same method.
	r.PUT("/pets/:id", adminOnly, petHandler.AdminUpdatePet)
	r.PATCH("/pets/adopt/:id", adminOnly, petHandler.MarkAdopted)
	r.DELETE("/pets/:id", adminOnly, petHandler.AdminDeletePet)

	// Live donation alerts
	r.GET("/ws/alerts", wsHandler.ServeWs)

	// Start the server
	log.Println("Server starting on", config.SERVER_ADDR)
	if err := r.Run(config.SERVER_ADDR); err != nil {
		log.Fatal("could not start server:", err)
	}
}
