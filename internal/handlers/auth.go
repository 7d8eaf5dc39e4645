package handlers

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"firebase.google.com/go/v4/auth"
	"github.com/golang-jwt/jwt/v4"
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/thelittlethings/backend/internal/models"
	"github.com/thelittlethings/backend/internal/repositories"
	"github.com/thelittlethings/backend/pkg/challenge"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

const tokenTTL = 72 * time.Hour

// IDTokenVerifier verifies Firebase ID tokens. *auth.Client implements it.
type IDTokenVerifier interface {
	VerifyIDToken(ctx context.Context, idToken string) (*auth.Token, error)
}

// AuthHandler handles authentication-related HTTP requests
type AuthHandler struct {
	userRepository  repositories.UserRepository
	tokenRepository repositories.TokenRepository
	firebaseAuth    IDTokenVerifier
	jwtSecret       string
	log             *zap.Logger
	now             func() time.Time
}

// NewAuthHandler creates a new AuthHandler. firebaseAuth may be nil.
func NewAuthHandler(userRepo repositories.UserRepository, tokenRepo repositories.TokenRepository, firebaseAuth IDTokenVerifier, jwtSecret string, log *zap.Logger) *AuthHandler {
	return &AuthHandler{
		userRepository:  userRepo,
		tokenRepository: tokenRepo,
		firebaseAuth:    firebaseAuth,
		jwtSecret:       jwtSecret,
		log:             log,
		now:             time.Now,
	}
}

// RegisterAuthRoutes registers the public authentication routes
func (h *AuthHandler) RegisterAuthRoutes(g *echo.Group) {
	g.POST("/register", h.Register)
	g.POST("/login", h.Login)
	g.POST("/firebase-login", h.FirebaseLogin)
}

// RegisterSessionRoutes registers routes that need a valid token
func (h *AuthHandler) RegisterSessionRoutes(g *echo.Group) {
	g.POST("/logout", h.Logout)
}

// Register creates a local account and signs the user in
func (h *AuthHandler) Register(c echo.Context) error {
	var req models.CreateUserRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}
	ctx := c.Request().Context()

	if _, err := h.userRepository.GetUserByUsername(ctx, req.Username); err == nil {
		return echo.NewHTTPError(http.StatusConflict, "Username is already taken")
	} else if !errors.Is(err, challenge.ErrNotFound) {
		return toHTTPError(err)
	}
	if _, err := h.userRepository.GetUserByEmail(ctx, req.Email); err == nil {
		return echo.NewHTTPError(http.StatusConflict, "User with this email already registered")
	} else if !errors.Is(err, challenge.ErrNotFound) {
		return toHTTPError(err)
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to hash password")
	}

	user := &models.User{
		Username: req.Username,
		Email:    strings.ToLower(req.Email),
		Password: string(hashedPassword),
		Region:   strings.TrimSpace(req.Region),
	}
	if err := h.userRepository.CreateUser(ctx, user); err != nil {
		return toHTTPError(err)
	}
	h.log.Info("user registered", zap.Uint("user", user.ID), zap.String("username", user.Username))

	return h.respondWithToken(c, http.StatusCreated, user)
}

// Login authenticates with a username or email and a password
func (h *AuthHandler) Login(c echo.Context) error {
	var req models.LoginRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}
	ctx := c.Request().Context()

	lookup := h.userRepository.GetUserByUsername
	if strings.Contains(req.UsernameOrEmail, "@") {
		lookup = h.userRepository.GetUserByEmail
	}
	user, err := lookup(ctx, strings.TrimSpace(req.UsernameOrEmail))
	if err != nil {
		if errors.Is(err, challenge.ErrNotFound) {
			return echo.NewHTTPError(http.StatusUnauthorized, "Invalid credentials")
		}
		return toHTTPError(err)
	}
	if user.Password == "" || bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(req.Password)) != nil {
		return echo.NewHTTPError(http.StatusUnauthorized, "Invalid credentials")
	}

	return h.respondWithToken(c, http.StatusOK, user)
}

// Logout revokes the presented token until it would have expired
func (h *AuthHandler) Logout(c echo.Context) error {
	claims := getClaims(c)
	if claims == nil {
		return echo.NewHTTPError(http.StatusUnauthorized, "User not authenticated")
	}
	if claims.ID != "" {
		expiresAt := h.now().Add(tokenTTL)
		if claims.ExpiresAt != nil {
			expiresAt = claims.ExpiresAt.Time
		}
		if err := h.tokenRepository.Revoke(c.Request().Context(), claims.ID, expiresAt); err != nil {
			return toHTTPError(err)
		}
	}
	return c.NoContent(http.StatusNoContent)
}

// FirebaseLoginRequest defines the request body for Firebase login
type FirebaseLoginRequest struct {
	IDToken  string `json:"idToken" validate:"required"`
	Username string `json:"username,omitempty" validate:"omitempty,username"`
}

// FirebaseLogin verifies a Firebase ID token and issues a local JWT,
// creating or linking the local account on first use.
func (h *AuthHandler) FirebaseLogin(c echo.Context) error {
	if h.firebaseAuth == nil {
		return echo.NewHTTPError(http.StatusNotImplemented, "Firebase login is not configured")
	}
	var req FirebaseLoginRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}
	ctx := c.Request().Context()

	token, err := h.firebaseAuth.VerifyIDToken(ctx, req.IDToken)
	if err != nil {
		return echo.NewHTTPError(http.StatusUnauthorized, "Invalid Firebase ID token")
	}
	firebaseUID := token.UID
	email, _ := token.Claims["email"].(string)
	if email == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "Firebase account has no email")
	}

	user, err := h.userRepository.GetUserByFirebaseUID(ctx, firebaseUID)
	switch {
	case err == nil:
	case errors.Is(err, challenge.ErrNotFound):
		user, err = h.userRepository.GetUserByEmail(ctx, email)
		switch {
		case err == nil:
			// link the existing local account
			user.FirebaseUID = &firebaseUID
			if err := h.userRepository.UpdateUser(ctx, user); err != nil {
				return toHTTPError(err)
			}
		case errors.Is(err, challenge.ErrNotFound):
			if req.Username == "" {
				return echo.NewHTTPError(http.StatusBadRequest, "username is required for a new account")
			}
			user = &models.User{
				Username:    req.Username,
				Email:       strings.ToLower(email),
				FirebaseUID: &firebaseUID,
			}
			if err := h.userRepository.CreateUser(ctx, user); err != nil {
				return echo.NewHTTPError(http.StatusConflict, "Failed to create user").SetInternal(err)
			}
		default:
			return toHTTPError(err)
		}
	default:
		return toHTTPError(err)
	}

	return h.respondWithToken(c, http.StatusOK, user)
}

func (h *AuthHandler) respondWithToken(c echo.Context, status int, user *models.User) error {
	token, err := h.generateJWT(user)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to generate token")
	}
	return c.JSON(status, models.AuthResponse{Token: token, UserID: user.ID, Username: user.Username})
}

// generateJWT generates a JWT token for a given user
func (h *AuthHandler) generateJWT(user *models.User) (string, error) {
	now := h.now()
	claims := &models.JwtCustomClaims{
		UserID:   user.ID,
		Username: user.Username,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Subject:   user.Username,
			ExpiresAt: jwt.NewNumericDate(now.Add(tokenTTL)),
			IssuedAt:  jwt.NewNumericDate(now),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(h.jwtSecret))
}
