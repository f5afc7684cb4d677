package fiber

import (
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gofiber/fiber/v3"
	"go.uber.org/zap"

	"github.com/cuonglevan23/ybproject/core"
)

const (
	minPasswordLength = 3
	maxKeywordLimit   = 50
)

// ok writes a success envelope
func ok(c fiber.Ctx, status int, data any) error {
	return c.Status(status).JSON(core.Envelope[any]{Data: data, Success: true})
}

// fail writes an unsuccessful envelope with a machine readable code
func fail(c fiber.Ctx, status int, code, message string) error {
	return c.Status(status).JSON(fiber.Map{
		"data":    nil,
		"success": false,
		"message": message,
		"code":    code,
	})
}

// handleError renders errors returned by handlers and the router
func (s *Server) handleError(c fiber.Ctx, err error) error {
	var fe *fiber.Error
	if errors.As(err, &fe) {
		return fail(c, fe.Code, strings.ToUpper(strings.ReplaceAll(http.StatusText(fe.Code), " ", "_")), fe.Message)
	}

	status, code := mapErrorToStatus(err)
	if status == http.StatusInternalServerError {
		s.logger.Error("mock handler failed", zap.String("path", c.Path()), zap.Error(err))
	}
	return fail(c, status, code, err.Error())
}

// mapErrorToStatus maps domain errors to HTTP status codes
func mapErrorToStatus(err error) (int, string) {
	switch {
	case errors.Is(err, core.ErrInvalidCredentials):
		return http.StatusUnauthorized, "INVALID_CREDENTIALS"

	case errors.Is(err, core.ErrUserExists):
		return http.StatusConflict, "USER_EXISTS"

	case errors.Is(err, core.ErrEmailRequired),
		errors.Is(err, core.ErrPasswordRequired),
		errors.Is(err, core.ErrPasswordTooShort),
		errors.Is(err, core.ErrPasswordMismatch),
		errors.Is(err, core.ErrInvalidEmail),
		errors.Is(err, core.ErrEmptyMessage):
		return http.StatusBadRequest, "VALIDATION_ERROR"

	default:
		return http.StatusInternalServerError, "INTERNAL_ERROR"
	}
}

func (s *Server) health(c fiber.Ctx) error {
	return ok(c, fiber.StatusOK, fiber.Map{"status": "healthy"})
}

type authResponse struct {
	User  *core.User `json:"user"`
	Token string     `json:"token"`
}

func (s *Server) login(c fiber.Ctx) error {
	var input core.LoginInput
	if err := c.Bind().Body(&input); err != nil {
		return fail(c, fiber.StatusBadRequest, "INVALID_BODY", "invalid request body")
	}

	if strings.TrimSpace(input.Email) == "" {
		return core.ErrEmailRequired
	}
	if input.Password == "" {
		return core.ErrPasswordRequired
	}

	user, err := s.accounts.Authenticate(input.Email, input.Password)
	if errors.Is(err, core.ErrInvalidCredentials) && s.demoPass != "" && input.Password == s.demoPass {
		user, err = s.accounts.Register("", input.Email, input.Password)
		if errors.Is(err, core.ErrUserExists) {
			err = core.ErrInvalidCredentials
		}
		if err == nil {
			s.logger.Info("demo account created", zap.String("user_id", user.ID))
		}
	}
	if err != nil {
		return err
	}

	return s.respondWithToken(c, fiber.StatusOK, user)
}

func (s *Server) signup(c fiber.Ctx) error {
	var input core.SignUpInput
	if err := c.Bind().Body(&input); err != nil {
		return fail(c, fiber.StatusBadRequest, "INVALID_BODY", "invalid request body")
	}

	// Step 1: Validate input
	if input.Password != input.ConfirmPassword {
		return core.ErrPasswordMismatch
	}
	if len(input.Password) < minPasswordLength {
		return core.ErrPasswordTooShort
	}
	email := strings.TrimSpace(input.Email)
	if email == "" {
		return core.ErrEmailRequired
	}
	if !strings.Contains(email, "@") {
		return core.ErrInvalidEmail
	}

	// Step 2: Create the account
	user, err := s.accounts.Register(strings.TrimSpace(input.Name), email, input.Password)
	if err != nil {
		return err
	}

	// Step 3: Sign the new user in
	return s.respondWithToken(c, fiber.StatusCreated, user)
}

func (s *Server) respondWithToken(c fiber.Ctx, status int, user *core.User) error {
	token, err := s.tokens.Issue(user.ID, user.Email, user.Name)
	if err != nil {
		return err
	}
	return ok(c, status, authResponse{User: user, Token: token})
}

func (s *Server) logout(c fiber.Ctx) error {
	token, _ := c.Locals(localToken).(string)
	s.tokens.Revoke(token, claimsFrom(c))
	return ok(c, fiber.StatusOK, nil)
}

func (s *Server) me(c fiber.Ctx) error {
	claims := claimsFrom(c)
	user, found := s.accounts.ByID(claims.Subject)
	if !found {
		return fail(c, fiber.StatusUnauthorized, "UNAUTHORIZED", core.ErrNotAuthenticated.Error())
	}
	return ok(c, fiber.StatusOK, user)
}

func (s *Server) channelOverview(c fiber.Ctx) error {
	return ok(c, fiber.StatusOK, s.fixtures.Overview)
}

func (s *Server) keywords(c fiber.Ctx) error {
	limit := 0
	if raw := c.Query("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			return fail(c, fiber.StatusBadRequest, "VALIDATION_ERROR", "limit must be a non-negative integer")
		}
		limit = min(n, maxKeywordLimit)
	}

	return ok(c, fiber.StatusOK, core.FilterKeywords(s.fixtures.Keywords, c.Query("q"), limit))
}

func (s *Server) competitors(c fiber.Ctx) error {
	return ok(c, fiber.StatusOK, s.fixtures.Competitors)
}

func (s *Server) chatHistory(c fiber.Ctx) error {
	userID := claimsFrom(c).Subject

	s.chatMu.Lock()
	history := append([]core.ChatMessage{}, s.chats[userID]...)
	s.chatMu.Unlock()

	return ok(c, fiber.StatusOK, history)
}

func (s *Server) sendChatMessage(c fiber.Ctx) error {
	var req core.ChatRequest
	if err := c.Bind().Body(&req); err != nil {
		return fail(c, fiber.StatusBadRequest, "INVALID_BODY", "invalid request body")
	}
	message := strings.TrimSpace(req.Message)
	if message == "" {
		return core.ErrEmptyMessage
	}

	question, err := s.newMessage("user", message)
	if err != nil {
		return err
	}
	answer, err := s.newMessage("assistant", s.fixtures.Coach.reply(message))
	if err != nil {
		return err
	}

	userID := claimsFrom(c).Subject
	s.chatMu.Lock()
	s.chats[userID] = append(s.chats[userID], question, answer)
	s.chatMu.Unlock()

	return ok(c, fiber.StatusOK, answer)
}

func (s *Server) newMessage(role, content string) (core.ChatMessage, error) {
	id, err := s.ids.NewID()
	if err != nil {
		return core.ChatMessage{}, err
	}
	return core.ChatMessage{ID: id, Role: role, Content: content, CreatedAt: time.Now().UTC()}, nil
}

func (s *Server) videoOptimization(c fiber.Ctx) error {
	video, found := s.fixtures.video(c.Params("id"))
	if !found {
		return fail(c, fiber.StatusNotFound, "NOT_FOUND", "video not found")
	}
	return ok(c, fiber.StatusOK, video)
}
