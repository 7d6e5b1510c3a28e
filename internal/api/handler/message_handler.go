package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/messagely/messagely-api/internal/core/domain"
	"github.com/messagely/messagely-api/internal/core/ports"
)

// HeaderIdempotencyKey lets clients retry POST /messages without creating
// duplicates.
const HeaderIdempotencyKey = "Idempotency-Key"

type MessageHandler struct {
	messageService ports.MessageService
}

func NewMessageHandler(messageService ports.MessageService) *MessageHandler {
	return &MessageHandler{messageService: messageService}
}

// Get returns a message with both parties resolved.
//
// @Summary      Get message
// @Description  Only the sender or the recipient may read a message.
// @Tags         messages
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      int  true  "Message ID"
// @Success      200  {object}  messageEnvelope[domain.MessageDetail]
// @Failure      400  {object}  ErrorResponse
// @Failure      401  {object}  ErrorResponse
// @Failure      404  {object}  ErrorResponse
// @Router       /messages/{id} [get]
func (h *MessageHandler) Get(c echo.Context) error {
	username, err := ctxUsername(c)
	if err != nil {
		return err
	}
	id, err := paramID(c)
	if err != nil {
		return err
	}

	msg, err := h.messageService.GetForUser(c.Request().Context(), id, username)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, messageEnvelope[*domain.MessageDetail]{Message: msg})
}

// Create sends a message from the authenticated user.
//
// @Summary      Send message
// @Tags         messages
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        Idempotency-Key  header    string                false  "Client-generated retry key"
// @Param        body             body      createMessageRequest  true   "Message to send"
// @Success      201              {object}  messageEnvelope[domain.Message]
// @Failure      400              {object}  ErrorResponse
// @Failure      401              {object}  ErrorResponse
// @Failure      404              {object}  ErrorResponse
// @Failure      409              {object}  ErrorResponse
// @Router       /messages [post]
func (h *MessageHandler) Create(c echo.Context) error {
	username, err := ctxUsername(c)
	if err != nil {
		return err
	}

	var req createMessageRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	msg, err := h.messageService.Create(c.Request().Context(), ports.CreateMessageInput{
		FromUsername:   username,
		ToUsername:     req.ToUsername,
		Body:           req.Body,
		IdempotencyKey: c.Request().Header.Get(HeaderIdempotencyKey),
	})
	if err != nil {
		return err
	}

	return c.JSON(http.StatusCreated, messageEnvelope[*domain.Message]{Message: msg})
}

// MarkRead records that the recipient has read the message.
//
// @Summary      Mark message read
// @Description  Only the recipient may mark a message read.
// @Tags         messages
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      int  true  "Message ID"
// @Success      200  {object}  messageEnvelope[domain.ReadReceipt]
// @Failure      400  {object}  ErrorResponse
// @Failure      401  {object}  ErrorResponse
// @Failure      404  {object}  ErrorResponse
// @Router       /messages/{id}/read [post]
func (h *MessageHandler) MarkRead(c echo.Context) error {
	username, err := ctxUsername(c)
	if err != nil {
		return err
	}
	id, err := paramID(c)
	if err != nil {
		return err
	}

	receipt, err := h.messageService.MarkReadForUser(c.Request().Context(), id, username)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, messageEnvelope[*domain.ReadReceipt]{Message: receipt})
}
