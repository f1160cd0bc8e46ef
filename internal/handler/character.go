package handler

import (
	"context"
	"errors"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/character-api/internal/apperr"
	"github.com/iliyamo/character-api/internal/middleware"
	"github.com/iliyamo/character-api/internal/model"
	"github.com/iliyamo/character-api/internal/queue"
	"github.com/iliyamo/character-api/internal/repository"
	"github.com/iliyamo/character-api/internal/service"
)

// CharacterHandler serves the /characters resource.  Role checks happen in
// middleware; handlers only validate input and talk to the repository.
type CharacterHandler struct {
	Characters *repository.CharacterRepo
	Events     service.EventPublisher
}

func NewCharacterHandler(r *repository.CharacterRepo, ev service.EventPublisher) *CharacterHandler {
	if ev == nil {
		ev = service.NopPublisher{}
	}
	return &CharacterHandler{Characters: r, Events: ev}
}

type characterReq struct {
	Name     string `json:"name" validate:"min=6"`
	LastName string `json:"lastName" validate:"min=6"`
}

func parseCharacterID(c echo.Context) (uint64, error) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || id == 0 {
		return 0, apperr.ErrInvalidCharacterID
	}
	return id, nil
}

// storeError maps repository failures onto response errors.
func storeError(err error) error {
	if errors.Is(err, repository.ErrNotFound) {
		return apperr.ErrCharacterNotFound
	}
	return apperr.Internal(err)
}

func (h *CharacterHandler) publish(c echo.Context, typ string, characterID uint64) {
	ev := queue.AuditEvent{Type: typ, CharacterID: characterID, RequestID: requestID(c)}
	if id, ok := middleware.IdentityFrom(c); ok {
		ev.UserID, ev.Email, ev.Role = id.UserID, id.Email, string(id.Role)
	}
	service.PublishAsync(h.Events, ev, publishTimeout)
}

// GET /characters
func (h *CharacterHandler) List(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), requestTimeout)
	defer cancel()

	list, err := h.Characters.List(ctx)
	if err != nil {
		return apperr.Internal(err)
	}
	if list == nil {
		list = []model.Character{}
	}
	return c.JSON(http.StatusOK, list)
}

// GET /characters/:id
func (h *CharacterHandler) Get(c echo.Context) error {
	id, err := parseCharacterID(c)
	if err != nil {
		return err
	}
	ctx, cancel := context.WithTimeout(c.Request().Context(), requestTimeout)
	defer cancel()

	ch, err := h.Characters.GetByID(ctx, id)
	if err != nil {
		return storeError(err)
	}
	return c.JSON(http.StatusOK, ch)
}

// POST /characters
func (h *CharacterHandler) Create(c echo.Context) error {
	var req characterReq
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}
	ctx, cancel := context.WithTimeout(c.Request().Context(), requestTimeout)
	defer cancel()

	ch, err := h.Characters.Create(ctx, model.Character{Name: req.Name, LastName: req.LastName})
	if err != nil {
		return apperr.Internal(err)
	}
	h.publish(c, queue.EventCharacterCreated, ch.ID)
	return c.JSON(http.StatusOK, ch)
}

// PUT /characters/:id replaces name and lastName.
func (h *CharacterHandler) Replace(c echo.Context) error {
	id, err := parseCharacterID(c)
	if err != nil {
		return err
	}
	var req characterReq
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}
	ctx, cancel := context.WithTimeout(c.Request().Context(), requestTimeout)
	defer cancel()

	ch, err := h.Characters.Replace(ctx, id, model.Character{Name: req.Name, LastName: req.LastName})
	if err != nil {
		return storeError(err)
	}
	h.publish(c, queue.EventCharacterUpdated, ch.ID)
	return c.JSON(http.StatusOK, ch)
}

// DELETE /characters/:id
func (h *CharacterHandler) Delete(c echo.Context) error {
	id, err := parseCharacterID(c)
	if err != nil {
		return err
	}
	ctx, cancel := context.WithTimeout(c.Request().Context(), requestTimeout)
	defer cancel()

	if err := h.Characters.DeleteByID(ctx, id); err != nil {
		return storeError(err)
	}
	h.publish(c, queue.EventCharacterDeleted, id)
	return c.NoContent(http.StatusNoContent)
}
