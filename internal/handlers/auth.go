package handlers

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"gorm.io/gorm"

	"github.com/streetsupply/wholesale_market/internal/hash"
	"github.com/streetsupply/wholesale_market/internal/jwtmiddleware"
	"github.com/streetsupply/wholesale_market/internal/models"
	"github.com/streetsupply/wholesale_market/internal/mykafka"
)

const accessTokenTTL = 7 * 24 * time.Hour

type AuthHandler struct {
	DB        *gorm.DB
	JWTSecret []byte
	Producer  *mykafka.Producer
}

func validRole(role string) bool {
	switch role {
	case jwtmiddleware.RoleVendor, jwtmiddleware.RoleSupplier, jwtmiddleware.RoleDeliveryPartner:
		return true
	}
	return false
}

func accessCookie(value string, expires time.Time) *http.Cookie {
	return &http.Cookie{
		Name:     "accessToken",
		Value:    value,
		Path:     "/",
		Expires:  expires,
		HttpOnly: true,
		Secure:   true,
		SameSite: http.SameSiteStrictMode,
	}
}

func (h *AuthHandler) Register(c echo.Context) error {
	var req struct {
		Fullname string `json:"fullname"`
		Email    string `json:"email"`
		Phone    string `json:"phone"`
		Password string `json:"password"`
		Role     string `json:"role"`
	}
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}
	if req.Fullname == "" || req.Email == "" || req.Phone == "" || req.Password == "" || req.Role == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "all fields are required")
	}
	if !validRole(req.Role) {
		return echo.NewHTTPError(http.StatusBadRequest, "unknown role")
	}

	var existing models.User
	err := h.DB.Where("email = ?", req.Email).First(&existing).Error
	if err == nil {
		return echo.NewHTTPError(http.StatusBadRequest, "email already exists")
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return errorResponse(c, err)
	}

	passwordHash, err := hash.HashPassword(req.Password)
	if err != nil {
		return errorResponse(c, err)
	}

	user := models.User{
		Fullname:     req.Fullname,
		Email:        req.Email,
		Phone:        req.Phone,
		PasswordHash: passwordHash,
		Role:         req.Role,
	}
	if err := h.DB.Create(&user).Error; err != nil {
		return errorResponse(c, err)
	}

	token, err := jwtmiddleware.IssueToken(h.JWTSecret, user.ID, user.Role, accessTokenTTL)
	if err != nil {
		return errorResponse(c, err)
	}
	c.SetCookie(accessCookie(token, time.Now().Add(accessTokenTTL)))

	publish(c, h.Producer, mykafka.TopicUserEvents, fmt.Sprint(user.ID), map[string]interface{}{
		"type":   "user_registered",
		"userID": user.ID,
		"role":   user.Role,
	})

	return c.JSON(http.StatusCreated, user)
}

func (h *AuthHandler) Login(c echo.Context) error {
	var req struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}

	var user models.User
	if err := h.DB.Where("email = ?", req.Email).First(&user).Error; err != nil {
		return echo.NewHTTPError(http.StatusUnauthorized, "invalid credentials")
	}
	if !hash.CheckPassword(user.PasswordHash, req.Password) {
		return echo.NewHTTPError(http.StatusUnauthorized, "invalid credentials")
	}

	token, err := jwtmiddleware.IssueToken(h.JWTSecret, user.ID, user.Role, accessTokenTTL)
	if err != nil {
		return errorResponse(c, err)
	}
	c.SetCookie(accessCookie(token, time.Now().Add(accessTokenTTL)))

	return c.JSON(http.StatusOK, map[string]interface{}{
		"access_token": token,
		"user":         user,
	})
}

func (h *AuthHandler) Logout(c echo.Context) error {
	c.SetCookie(accessCookie("", time.Unix(0, 0)))
	return c.JSON(http.StatusOK, map[string]string{"message": "logged out"})
}
