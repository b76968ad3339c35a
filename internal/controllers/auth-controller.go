package controllers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	log "github.com/sirupsen/logrus"

	"github.com/franciscosanchezn/bonos-api/internal/auth"
	"github.com/franciscosanchezn/bonos-api/internal/metrics"
	"github.com/franciscosanchezn/bonos-api/internal/middleware"
	"github.com/franciscosanchezn/bonos-api/internal/models"
	"github.com/franciscosanchezn/bonos-api/internal/services"
)

// LoginRequest is the body accepted by the login endpoint
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// LoginResponse is returned on a successful login
type LoginResponse struct {
	Message   string       `json:"message"`
	User      *models.User `json:"user"`
	Token     string       `json:"token"`
	TokenType string       `json:"token_type"`
	ExpiresIn int64        `json:"expires_in"`
}

type AuthController struct {
	authService  services.AuthService
	userService  services.UserService
	sessions     *auth.SessionManager
	secureCookie bool
}

func NewAuthController(authService services.AuthService, userService services.UserService, sessions *auth.SessionManager, secureCookie bool) *AuthController {
	return &AuthController{
		authService:  authService,
		userService:  userService,
		sessions:     sessions,
		secureCookie: secureCookie,
	}
}

// Signup godoc
// @Summary Register a user
// @Description Create an account with role user
// @Tags auth
// @Accept json
// @Produce json
// @Param user body services.SignupInput true "Profile"
// @Success 201 {object} map[string]interface{}
// @Failure 400 {object} models.APIError
// @Failure 409 {object} models.APIError
// @Router /api/v1/auth/signup [post]
func (ac *AuthController) Signup(c *gin.Context) {
	var input services.SignupInput
	if err := decodeStrict(c, &input); err != nil {
		respondError(c, err)
		return
	}

	user, err := ac.authService.Signup(c.Request.Context(), input)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"message": "User created", "id": user.ID})
}

// Login godoc
// @Summary Log in
// @Description Verify credentials, set the session cookie and return a bearer token
// @Tags auth
// @Accept json
// @Produce json
// @Param credentials body LoginRequest true "Credentials"
// @Success 200 {object} LoginResponse
// @Failure 400 {object} models.APIError
// @Failure 401 {object} models.APIError
// @Failure 429 {object} models.APIError
// @Router /api/v1/auth/login [post]
func (ac *AuthController) Login(c *gin.Context) {
	var req LoginRequest
	if err := decodeStrict(c, &req); err != nil {
		respondError(c, err)
		return
	}
	if req.Email == "" || req.Password == "" {
		c.JSON(http.StatusBadRequest, models.NewAPIError(models.ErrValidationFailed, "Email and password are required"))
		return
	}

	user, err := ac.authService.Login(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		if errors.Is(err, services.ErrInvalidCredentials) {
			metrics.LoginAttempts.WithLabelValues("invalid_credentials").Inc()
		} else {
			metrics.LoginAttempts.WithLabelValues("error").Inc()
		}
		respondError(c, err)
		return
	}

	token, _, err := ac.sessions.Issue(user)
	if err != nil {
		metrics.LoginAttempts.WithLabelValues("error").Inc()
		respondError(c, err)
		return
	}

	maxAge := int(ac.sessions.TTL().Seconds())
	middleware.SetSessionCookie(c, token, maxAge, ac.secureCookie)
	metrics.LoginAttempts.WithLabelValues("success").Inc()
	log.WithFields(log.Fields{"user_id": user.ID, "role": user.Role}).Info("User logged in")

	c.JSON(http.StatusOK, LoginResponse{
		Message:   "Login successful",
		User:      user,
		Token:     token,
		TokenType: "Bearer",
		ExpiresIn: int64(maxAge),
	})
}

// Logout godoc
// @Summary Log out
// @Description Clear the session cookie
// @Tags auth
// @Produce json
// @Success 200 {object} map[string]string
// @Router /api/v1/auth/logout [post]
func (ac *AuthController) Logout(c *gin.Context) {
	middleware.ClearSessionCookie(c, ac.secureCookie)
	c.JSON(http.StatusOK, gin.H{"message": "Logged out"})
}

// Me godoc
// @Summary Current user
// @Description Return the user of the current session
// @Tags auth
// @Produce json
// @Success 200 {object} models.User
// @Failure 401 {object} models.APIError
// @Security BearerAuth
// @Router /api/v1/auth/me [get]
func (ac *AuthController) Me(c *gin.Context) {
	session, ok := mustSession(c)
	if !ok {
		return
	}
	user, err := ac.userService.GetUserByID(c.Request.Context(), session.UserID)
	if err != nil {
		if errors.Is(err, services.ErrNotFound) {
			respondError(c, services.ErrUnauthorized)
			return
		}
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, user)
}
