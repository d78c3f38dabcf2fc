package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"smart-parking-dashboard/pkg/auth"
	"smart-parking-dashboard/pkg/dashboard"
	"smart-parking-dashboard/pkg/models"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
)

// User-visible messages, kept byte-identical to the original dashboard.
const (
	MsgInvalidCredentials = "Invalid credentials"
	MsgAccountCreated     = "Account created successfully!"
	MsgUsernameExists     = "Username already exists."
	MsgInsufficientFunds  = "Insufficient funds to reserve this spot"
	MsgReserveFailed      = "Failed to reserve spot"
	MsgNoReservedSpots    = "You have no reserved spots."
	MsgReservedFetchFail  = "Failed to fetch reserved spots."
	MsgInvalidPrice       = "Please enter a valid price greater than 0."
	MsgAddSpotFailed      = "Error adding parking spot"
	MsgDeleteSpotFailed   = "Error deleting parking spot"
	MsgAddFundsFailed     = "Failed to add funds"
	MsgNoAdminWallet      = "Admin does not have a wallet"
)

// Handlers contains all HTTP handlers
type Handlers struct {
	dashboard *dashboard.Dashboard
	auth      *auth.Auth
	logger    zerolog.Logger
}

// New creates a new Handlers instance
func New(dash *dashboard.Dashboard, authService *auth.Auth, logger zerolog.Logger) *Handlers {
	return &Handlers{
		dashboard: dash,
		auth:      authService,
		logger:    logger.With().Str("component", "handlers").Logger(),
	}
}

// ============== Auth Handlers ==============

// Login handles user login
func (h *Handlers) Login(c *gin.Context) {
	var req models.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
		return
	}

	session, err := h.dashboard.Login(c.Request.Context(), req.Username, req.Password)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": MsgInvalidCredentials})
		return
	}

	token, err := h.auth.GenerateToken(session.Username)
	if err != nil {
		h.logger.Error().Err(err).Msg("token generation failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to generate token"})
		return
	}

	// Set token as cookie
	c.SetCookie("token", token, 86400, "/", "", false, true)

	c.JSON(http.StatusOK, gin.H{
		"token":   token,
		"message": "login successful",
		"session": session,
	})
}

// CreateAccount handles account creation
func (h *Handlers) CreateAccount(c *gin.Context) {
	var req models.CreateAccountRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
		return
	}

	if err := h.dashboard.CreateAccount(c.Request.Context(), req.Username, req.Password); err != nil {
		c.JSON(http.StatusConflict, gin.H{"error": MsgUsernameExists})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": MsgAccountCreated})
}

// Logout handles user logout
func (h *Handlers) Logout(c *gin.Context) {
	if username := c.GetString("username"); username != "" {
		h.dashboard.Logout(username)
	}
	c.SetCookie("token", "", -1, "/", "", false, true)
	c.Redirect(http.StatusTemporaryRedirect, "/login")
}

// Session reports the authenticated session to the frontend.
func (h *Handlers) Session(c *gin.Context) {
	session := models.Session{
		Username: c.GetString("username"),
		Admin:    c.GetBool("admin"),
	}

	resp := gin.H{"session": session}
	if !session.Admin {
		resp["wallet_balance"] = h.dashboard.WalletBalance(c.Request.Context(), session.Username)
	}
	c.JSON(http.StatusOK, resp)
}

// ============== Spot Handlers ==============

// ListSpots returns the priced spot board. Upstream failures serve the
// previous snapshot, so this endpoint never errors.
func (h *Handlers) ListSpots(c *gin.Context) {
	spots, banner, multiplier := h.dashboard.RefreshSpots(c.Request.Context())
	c.JSON(http.StatusOK, gin.H{
		"spots":        spots,
		"peak_message": banner,
		"multiplier":   multiplier,
	})
}

// ListAvailableSpots returns only unreserved spots.
func (h *Handlers) ListAvailableSpots(c *gin.Context) {
	spots, banner, err := h.dashboard.AvailableSpots(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusBadGateway, gin.H{"error": "failed to fetch availability"})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"spots":        spots,
		"peak_message": banner,
	})
}

// ReserveSpot runs the reservation workflow for the logged-in user.
func (h *Handlers) ReserveSpot(c *gin.Context) {
	spotID, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid spot id"})
		return
	}

	username := c.GetString("username")
	balance, err := h.dashboard.Reserve(c.Request.Context(), username, spotID)
	if err != nil {
		switch {
		case errors.Is(err, dashboard.ErrSpotNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": "spot not found"})
		case errors.Is(err, dashboard.ErrSpotUnavailable):
			c.JSON(http.StatusConflict, gin.H{"error": "spot is already reserved"})
		case errors.Is(err, dashboard.ErrReservationInFlight):
			c.JSON(http.StatusConflict, gin.H{"error": "reservation already in progress"})
		case errors.Is(err, dashboard.ErrInsufficientFunds):
			c.JSON(http.StatusBadRequest, gin.H{"error": MsgInsufficientFunds})
		default:
			c.JSON(http.StatusBadGateway, gin.H{"error": MsgReserveFailed})
		}
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message":        "Spot reserved successfully! Your new balance is $" + strconv.FormatFloat(balance, 'f', 2, 64),
		"wallet_balance": balance,
	})
}

// ReleaseSpot frees a reserved spot (admin only).
func (h *Handlers) ReleaseSpot(c *gin.Context) {
	spotID, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid spot id"})
		return
	}

	message, err := h.dashboard.Release(c.Request.Context(), spotID)
	if err != nil {
		c.JSON(http.StatusBadGateway, gin.H{"error": "failed to release spot"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": message})
}

// AddSpot creates a new spot (admin only).
func (h *Handlers) AddSpot(c *gin.Context) {
	var req models.AddSpotRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": MsgInvalidPrice})
		return
	}

	message, err := h.dashboard.AddSpot(c.Request.Context(), req.Price)
	if err != nil {
		if errors.Is(err, dashboard.ErrInvalidPrice) {
			c.JSON(http.StatusBadRequest, gin.H{"error": MsgInvalidPrice})
			return
		}
		c.JSON(http.StatusBadGateway, gin.H{"error": MsgAddSpotFailed})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": message})
}

// DeleteSpot removes a spot (admin only).
func (h *Handlers) DeleteSpot(c *gin.Context) {
	spotID, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid spot id"})
		return
	}

	message, err := h.dashboard.DeleteSpot(c.Request.Context(), spotID)
	if err != nil {
		c.JSON(http.StatusBadGateway, gin.H{"error": MsgDeleteSpotFailed})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": message})
}

// ============== Wallet Handlers ==============

// Wallet returns the logged-in user's balance.
func (h *Handlers) Wallet(c *gin.Context) {
	if c.GetBool("admin") {
		c.JSON(http.StatusOK, gin.H{"message": MsgNoAdminWallet})
		return
	}
	username := c.GetString("username")
	c.JSON(http.StatusOK, gin.H{
		"username":       username,
		"wallet_balance": h.dashboard.WalletBalance(c.Request.Context(), username),
	})
}

// AddFunds credits the logged-in user's wallet.
func (h *Handlers) AddFunds(c *gin.Context) {
	var req models.AddFundsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": MsgAddFundsFailed})
		return
	}

	update, err := h.dashboard.AddFunds(c.Request.Context(), c.GetString("username"), req.Amount)
	if err != nil {
		c.JSON(http.StatusBadGateway, gin.H{"error": MsgAddFundsFailed})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"message":        update.Message,
		"wallet_balance": update.WalletBalance,
	})
}

// ============== Reservation Handlers ==============

// Reservations lists the logged-in user's reserved spots. An empty list
// carries the no-reservations message so the frontend can skip the
// modal.
func (h *Handlers) Reservations(c *gin.Context) {
	spots, err := h.dashboard.ReservedSpots(c.Request.Context(), c.GetString("username"))
	if err != nil {
		c.JSON(http.StatusBadGateway, gin.H{"error": MsgReservedFetchFail})
		return
	}

	if len(spots) == 0 {
		c.JSON(http.StatusOK, gin.H{
			"spots":   []models.ReservedSpot{},
			"message": MsgNoReservedSpots,
		})
		return
	}
	c.JSON(http.StatusOK, gin.H{"spots": spots})
}
