package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/shinyyama/unimart-backend/internal/model"
	"github.com/shinyyama/unimart-backend/internal/service"
	"github.com/sirupsen/logrus"
)

type MessageHandler struct {
	svc service.ChatService
	log logrus.FieldLogger
}

func NewMessageHandler(svc service.ChatService, log logrus.FieldLogger) *MessageHandler {
	return &MessageHandler{svc: svc, log: log}
}

type CreateMessageRequest struct {
	Text string `json:"text"`
}

func (h *MessageHandler) List(c echo.Context) error {
	actor, ok := identity(c)
	if !ok {
		return missingIdentity(c)
	}
	msgs, err := h.svc.List(c.Request().Context(), c.Param("id"), actor)
	if err != nil {
		return writeServiceError(c, h.log, err)
	}
	if msgs == nil {
		msgs = []model.Message{}
	}
	return c.JSON(http.StatusOK, msgs)
}

func (h *MessageHandler) Create(c echo.Context) error {
	actor, ok := identity(c)
	if !ok {
		return missingIdentity(c)
	}
	var req CreateMessageRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, NewErrorResponse("bad_request", "invalid json"))
	}
	msg, err := h.svc.Send(c.Request().Context(), c.Param("id"), actor, req.Text)
	if err != nil {
		return writeServiceError(c, h.log, err)
	}
	return c.JSON(http.StatusCreated, msg)
}
