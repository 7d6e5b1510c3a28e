package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/messagely/messagely-api/internal/core/domain"
	"github.com/messagely/messagely-api/internal/core/ports"
)

type UserHandler struct {
	userService ports.UserService
}

func NewUserHandler(userService ports.UserService) *UserHandler {
	return &UserHandler{userService: userService}
}

// List returns every user.
//
// @Summary      List users
// @Tags         users
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  usersEnvelope
// @Failure      401  {object}  ErrorResponse
// @Router       /users [get]
func (h *UserHandler) List(c echo.Context) error {
	users, err := h.userService.All(c.Request().Context())
	if err != nil {
		return err
	}
	if users == nil {
		users = []domain.UserSummary{}
	}
	return c.JSON(http.StatusOK, usersEnvelope{Users: users})
}

// Get returns the caller's own profile.
//
// @Summary      Get user
// @Tags         users
// @Produce      json
// @Security     BearerAuth
// @Param        username  path      string  true  "Username"
// @Success      200       {object}  userEnvelope
// @Failure      401       {object}  ErrorResponse
// @Failure      404       {object}  ErrorResponse
// @Router       /users/{username} [get]
func (h *UserHandler) Get(c echo.Context) error {
	user, err := h.userService.Get(c.Request().Context(), c.Param("username"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, userEnvelope{User: user})
}

// MessagesTo returns messages received by the user.
//
// @Summary      Messages received
// @Tags         users
// @Produce      json
// @Security     BearerAuth
// @Param        username  path      string  true  "Username"
// @Success      200       {object}  messagesEnvelope[receivedMessage]
// @Failure      401       {object}  ErrorResponse
// @Failure      404       {object}  ErrorResponse
// @Router       /users/{username}/to [get]
func (h *UserHandler) MessagesTo(c echo.Context) error {
	msgs, err := h.userService.MessagesTo(c.Request().Context(), c.Param("username"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, messagesEnvelope[receivedMessage]{Messages: toReceivedMessages(msgs)})
}

// MessagesFrom returns messages sent by the user.
//
// @Summary      Messages sent
// @Tags         users
// @Produce      json
// @Security     BearerAuth
// @Param        username  path      string  true  "Username"
// @Success      200       {object}  messagesEnvelope[sentMessage]
// @Failure      401       {object}  ErrorResponse
// @Failure      404       {object}  ErrorResponse
// @Router       /users/{username}/from [get]
func (h *UserHandler) MessagesFrom(c echo.Context) error {
	msgs, err := h.userService.MessagesFrom(c.Request().Context(), c.Param("username"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, messagesEnvelope[sentMessage]{Messages: toSentMessages(msgs)})
}
