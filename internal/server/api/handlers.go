package api

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"vertex/internal/server/config"
	"vertex/internal/server/service"
	"vertex/internal/server/session"

	"github.com/labstack/echo/v4"
)

// Handler contains the HTTP handlers for the vertex API.
//
// Every response is a single JSON object. Failures are signaled in the
// payload as {"status":false,"message":...}; clients must not rely on the
// HTTP status code to detect them.
type Handler struct {
	auth     *service.AuthService
	files    *service.FileService
	sessions session.Store
	cfg      *config.Config
}

// NewHandler creates a new handler with the given dependencies.
func NewHandler(auth *service.AuthService, files *service.FileService, sessions session.Store, cfg *config.Config) *Handler {
	return &Handler{auth: auth, files: files, sessions: sessions, cfg: cfg}
}

// HandleHealth handles GET|POST /.
// No auth; always returns a static liveness payload.
func (h *Handler) HandleHealth(c echo.Context) error {
	return c.JSON(http.StatusOK, echo.Map{
		"status":         true,
		"request method": c.Request().Method,
		"message":        "api is running correctly",
		"runtime":        "active",
	})
}

// HandleSignup handles POST /signup/.
// Registers the account, binds this session context to it, and returns a
// freshly minted session key.
func (h *Handler) HandleSignup(c echo.Context) error {
	username := c.FormValue("username")
	email := c.FormValue("email")
	password := c.FormValue("password")

	if username == "" || email == "" || password == "" {
		return fail(c, "username, email and password are required")
	}

	user, err := h.auth.Register(c.Request().Context(), username, email, password)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrUsernameTaken):
			return fail(c, "username already exists")
		case errors.Is(err, service.ErrEmailTaken):
			return fail(c, "email already exists")
		default:
			return internal(c, "signup failed", err)
		}
	}

	token, err := h.sessions.Issue(contextID(c), user.ID, user.Username)
	if err != nil {
		return internal(c, "signup failed", err)
	}

	return c.JSON(http.StatusOK, echo.Map{
		"status":           true,
		"session":          true,
		"session_name":     "current_user",
		"message":          fmt.Sprintf("new user %s has been created successfully", user.Username),
		"your session key": token,
	})
}

// HandleLogin handles POST /login/.
// A successful login always regenerates the session key; the failure
// message never reveals whether the username exists.
func (h *Handler) HandleLogin(c echo.Context) error {
	username := c.FormValue("username")
	password := c.FormValue("password")

	if username == "" || password == "" {
		return fail(c, "username and password are required")
	}

	user, err := h.auth.Authenticate(c.Request().Context(), username, password)
	if err != nil {
		if errors.Is(err, service.ErrInvalidCredentials) {
			return fail(c, "invalid username or password")
		}
		return internal(c, "login failed", err)
	}

	token, err := h.sessions.Issue(contextID(c), user.ID, user.Username)
	if err != nil {
		return internal(c, "login failed", err)
	}

	return c.JSON(http.StatusOK, echo.Map{
		"status":      true,
		"session":     true,
		"logged_in":   true,
		"user":        user.Username,
		"session_key": token,
	})
}

// HandleToken handles POST /token/.
// Re-verifies the password, then prefers returning the live key over
// minting a new one.
func (h *Handler) HandleToken(c echo.Context) error {
	username := c.FormValue("username")
	password := c.FormValue("password")

	if username == "" || password == "" {
		return fail(c, "username and password are required")
	}

	user, err := h.auth.Authenticate(c.Request().Context(), username, password)
	if err != nil {
		if errors.Is(err, service.ErrInvalidCredentials) {
			return fail(c, "invalid username or password")
		}
		return internal(c, "token request failed", err)
	}

	token, reused, err := h.sessions.IssueOrReuse(contextID(c), user.ID, user.Username)
	if err != nil {
		return internal(c, "token request failed", err)
	}

	message := "a new key has been created for you"
	if reused {
		message = "your existing key is still available"
	}

	return c.JSON(http.StatusOK, echo.Map{
		"status":  true,
		"message": message,
		"key":     token,
	})
}

// HandleUpload handles POST /create/file/.
// Expects a "key" form field and a "file" multipart field.
func (h *Handler) HandleUpload(c echo.Context) error {
	sess, err := h.authorize(c, c.FormValue("key"))
	if err != nil {
		return h.authFailure(c, err)
	}

	fileHeader, err := c.FormFile("file")
	if err != nil {
		return fail(c, "file is required (use form field 'file')")
	}

	if fileHeader.Size > h.cfg.MaxFileSize {
		return fail(c, "file exceeds maximum allowed size")
	}

	src, err := fileHeader.Open()
	if err != nil {
		return internal(c, "failed to read uploaded file", err)
	}
	defer src.Close()

	contentType := fileHeader.Header.Get("Content-Type")
	if contentType == "" {
		contentType = "application/octet-stream"
	}

	info, err := h.files.Store(
		c.Request().Context(),
		sess.UserID,
		src,
		fileHeader.Filename,
		contentType,
		fileHeader.Size,
	)
	if err != nil {
		return internal(c, "upload failed", err)
	}

	return c.JSON(http.StatusOK, echo.Map{
		"status":    true,
		"message":   "file created successfully and has been saved",
		"file_type": info.Type,
		"filename":  info.Name,
		"size":      info.Size,
	})
}

// HandleListFiles handles POST /get/files/.
// An empty registry is an explicit "no files" payload, distinguishable
// from both success and error.
func (h *Handler) HandleListFiles(c echo.Context) error {
	sess, err := h.authorize(c, c.FormValue("key"))
	if err != nil {
		return h.authFailure(c, err)
	}

	infos, err := h.files.List(c.Request().Context(), sess.UserID)
	if err != nil {
		return internal(c, "failed to list files", err)
	}

	if len(infos) == 0 {
		return fail(c, "no files available for this user")
	}

	return c.JSON(http.StatusOK, echo.Map{"file": fileMap(infos)})
}

// HandleGetFile handles GET /get/file/?id=&token=.
// Read-only, so both the file id and the token travel as query parameters.
func (h *Handler) HandleGetFile(c echo.Context) error {
	sess, err := h.authorize(c, c.QueryParam("token"))
	if err != nil {
		return h.authFailure(c, err)
	}

	info, err := h.files.Get(c.Request().Context(), sess.UserID, c.QueryParam("id"))
	if err != nil {
		if errors.Is(err, service.ErrNotFound) {
			return fail(c, "no file with this id is available under this user")
		}
		return internal(c, "failed to get file", err)
	}

	return c.JSON(http.StatusOK, echo.Map{"file": fileMap([]*service.FileInfo{info})})
}

// authorize validates the submitted key against this session context.
func (h *Handler) authorize(c echo.Context, submitted string) (*session.Session, error) {
	return h.sessions.Authorize(contextID(c), submitted)
}

// authFailure renders authorization errors, pointing the caller at the
// token endpoint the way the API always has.
func (h *Handler) authFailure(c echo.Context, err error) error {
	switch {
	case errors.Is(err, session.ErrNoSession):
		return fail(c, "no authenticated session: log in or sign up first, or fetch a key from the /token/ endpoint")
	case errors.Is(err, session.ErrInvalidToken):
		return fail(c, "invalid key: use the /token/ endpoint to fetch your existing key or register a new one")
	default:
		return internal(c, "authorization failed", err)
	}
}

// fileMap renders file metadata in the API's filename-keyed response shape.
func fileMap(infos []*service.FileInfo) map[string]*service.FileInfo {
	out := make(map[string]*service.FileInfo, len(infos))
	for _, info := range infos {
		out[info.Name] = info
	}
	return out
}

// fail renders a taxonomy error as a payload-only failure.
func fail(c echo.Context, message string) error {
	return c.JSON(http.StatusOK, echo.Map{
		"status":  false,
		"message": message,
	})
}

// internal renders an unexpected fault; the detail goes to the log, not
// the client.
func internal(c echo.Context, message string, err error) error {
	slog.Error(message,
		"method", c.Request().Method,
		"path", c.Request().URL.Path,
		"error", err,
	)
	return fail(c, message)
}
