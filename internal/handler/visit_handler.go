package handler

import (
	"database/sql"
	"net/http"

	"carecircle/internal/domain/visit"
	"carecircle/internal/services"
	"carecircle/internal/transport/httpdto"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type VisitHandler struct {
	visits *services.VisitService
}

func NewVisitHandler(visits *services.VisitService) *VisitHandler {
	return &VisitHandler{visits: visits}
}

func (h *VisitHandler) Create(c *gin.Context) {
	var req httpdto.CreateVisitRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, httpdto.NewErrorResponse("invalid request", "INVALID_REQUEST"))
		return
	}
	circleID, err := uuid.Parse(req.CircleID)
	if err != nil {
		c.JSON(http.StatusBadRequest, httpdto.NewErrorResponse("invalid circle_id", "INVALID_REQUEST"))
		return
	}

	v := visit.Visit{
		CircleID:    circleID,
		Title:       req.Title,
		ScheduledAt: req.ScheduledAt,
	}
	if req.Notes != "" {
		v.Notes = sql.NullString{String: req.Notes, Valid: true}
	}

	if err := h.visits.Create(c.Request.Context(), &v); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, httpdto.NewSuccessResponse(httpdto.NewVisitDTO(v)))
}

func (h *VisitHandler) GetByID(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, httpdto.NewErrorResponse("invalid visit id", "INVALID_REQUEST"))
		return
	}
	v, err := h.visits.GetByID(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, httpdto.NewSuccessResponse(httpdto.NewVisitDTO(v)))
}

func (h *VisitHandler) ListByCircle(c *gin.Context) {
	circleID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, httpdto.NewErrorResponse("invalid circle id", "INVALID_REQUEST"))
		return
	}
	visits, err := h.visits.ListByCircle(c.Request.Context(), circleID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, httpdto.NewSuccessResponse(gin.H{"visits": httpdto.NewVisitDTOs(visits)}))
}
