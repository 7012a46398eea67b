package api

import (
	"errors"
	"fmt"
	"net/http"

	"vertex/internal/server/config"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
)

// SetupRouter creates and configures the echo router with all routes and
// middleware. mediaDir, when non-empty, is served under /media/ so the
// filesystem blob backend's URLs resolve; the s3 backend hands out
// presigned URLs instead and passes "".
func SetupRouter(handler *Handler, cfg *config.Config, mediaDir string) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HTTPErrorHandler = payloadErrorHandler

	// Global middleware
	e.Use(middleware.Recover())
	e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins: []string{"*"},
		AllowMethods: []string{"GET", "POST", "OPTIONS"},
		AllowHeaders: []string{"Content-Type"},
	}))
	e.Use(RequestLogger())
	e.Use(SessionContext(cfg.CookieName))

	// Rate limiter on the credential endpoints only
	authLimiter := NewRateLimiter(cfg.RateLimitRPS, cfg.RateLimitBurst)

	// Health
	e.GET("/", handler.HandleHealth)
	e.POST("/", handler.HandleHealth)

	// Auth
	e.POST("/signup/", handler.HandleSignup, authLimiter.Middleware())
	e.POST("/login/", handler.HandleLogin, authLimiter.Middleware())
	e.POST("/token/", handler.HandleToken, authLimiter.Middleware())

	// Files
	e.POST("/create/file/", handler.HandleUpload)
	e.POST("/get/files/", handler.HandleListFiles)
	e.GET("/get/file/", handler.HandleGetFile)

	if mediaDir != "" {
		e.Static("/media", mediaDir)
	}

	return e
}

// payloadErrorHandler keeps error signaling in the payload: routing-level
// failures (unknown route, wrong verb) render the same
// {"status":false,"message":...} shape the handlers use.
func payloadErrorHandler(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}

	code := http.StatusInternalServerError
	message := "internal server error"

	var he *echo.HTTPError
	if errors.As(err, &he) {
		code = he.Code
		switch code {
		case http.StatusMethodNotAllowed:
			message = fmt.Sprintf("%s request method not allowed on this route", c.Request().Method)
		case http.StatusNotFound:
			message = "no such route"
		default:
			if msg, ok := he.Message.(string); ok {
				message = msg
			}
		}
	}

	if err := c.JSON(code, echo.Map{"status": false, "message": message}); err != nil {
		c.Logger().Error(err)
	}
}
