package discipline

import (
	"net/http"

	"github.com/gfourspa/fit-clase-api/internal/api"
	"github.com/gfourspa/fit-clase-api/internal/auth"

	"github.com/gin-gonic/gin"
)

type Handler struct {
	service Service
}

func NewHandler(service Service) *Handler {
	return &Handler{
		service: service,
	}
}

// @Summary      Create a discipline
// @Description  gym_id defaults to the caller's gym
// @Tags         disciplines
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        request body discipline.CreateDisciplineRequest true "Discipline payload"
// @Success      201 {object} discipline.Discipline
// @Failure      400 {object} api.ErrorResponse
// @Failure      403 {object} api.ErrorResponse
// @Failure      409 {object} api.ErrorResponse
// @Router       /disciplines [post]
func (h *Handler) CreateDiscipline(c *gin.Context) {
	principal, ok := auth.GetPrincipal(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, api.ErrorResponse{Error: "User not authenticated"})
		return
	}

	var req CreateDisciplineRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, api.ErrorResponse{Error: err.Error()})
		return
	}

	d, err := h.service.CreateDiscipline(c.Request.Context(), principal, req)
	if err != nil {
		api.RespondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, d)
}

// @Summary      List disciplines
// @Tags         disciplines
// @Produce      json
// @Security     BearerAuth
// @Param        gym_id query string false "Gym ID"
// @Param        name   query string false "Case-insensitive name filter"
// @Success      200 {array} discipline.Discipline
// @Failure      400 {object} api.ErrorResponse
// @Failure      403 {object} api.ErrorResponse
// @Router       /disciplines [get]
func (h *Handler) ListDisciplines(c *gin.Context) {
	principal, ok := auth.GetPrincipal(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, api.ErrorResponse{Error: "User not authenticated"})
		return
	}

	var q ListQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		c.JSON(http.StatusBadRequest, api.ErrorResponse{Error: err.Error()})
		return
	}

	disciplines, err := h.service.ListDisciplines(c.Request.Context(), principal, q)
	if err != nil {
		api.RespondError(c, err)
		return
	}

	c.JSON(http.StatusOK, disciplines)
}

// @Summary      Get a discipline
// @Tags         disciplines
// @Produce      json
// @Security     BearerAuth
// @Param        id path string true "Discipline ID"
// @Success      200 {object} discipline.Discipline
// @Failure      403 {object} api.ErrorResponse
// @Failure      404 {object} api.ErrorResponse
// @Router       /disciplines/{id} [get]
func (h *Handler) GetDiscipline(c *gin.Context) {
	principal, ok := auth.GetPrincipal(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, api.ErrorResponse{Error: "User not authenticated"})
		return
	}
	id, ok := api.ParseUUIDParam(c, "id")
	if !ok {
		return
	}

	d, err := h.service.GetDiscipline(c.Request.Context(), principal, id)
	if err != nil {
		api.RespondError(c, err)
		return
	}

	c.JSON(http.StatusOK, d)
}

// @Summary      Update a discipline
// @Tags         disciplines
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id path string true "Discipline ID"
// @Param        request body discipline.UpdateDisciplineRequest true "Fields to change"
// @Success      200 {object} discipline.Discipline
// @Failure      400 {object} api.ErrorResponse
// @Failure      403 {object} api.ErrorResponse
// @Failure      404 {object} api.ErrorResponse
// @Failure      409 {object} api.ErrorResponse
// @Router       /disciplines/{id} [put]
func (h *Handler) UpdateDiscipline(c *gin.Context) {
	principal, ok := auth.GetPrincipal(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, api.ErrorResponse{Error: "User not authenticated"})
		return
	}
	id, ok := api.ParseUUIDParam(c, "id")
	if !ok {
		return
	}

	var req UpdateDisciplineRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, api.ErrorResponse{Error: err.Error()})
		return
	}

	d, err := h.service.UpdateDiscipline(c.Request.Context(), principal, id, req)
	if err != nil {
		api.RespondError(c, err)
		return
	}

	c.JSON(http.StatusOK, d)
}

// @Summary      Delete a discipline
// @Tags         disciplines
// @Security     BearerAuth
// @Param        id path string true "Discipline ID"
// @Success      204
// @Failure      403 {object} api.ErrorResponse
// @Failure      404 {object} api.ErrorResponse
// @Failure      409 {object} api.ErrorResponse
// @Router       /disciplines/{id} [delete]
func (h *Handler) DeleteDiscipline(c *gin.Context) {
	principal, ok := auth.GetPrincipal(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, api.ErrorResponse{Error: "User not authenticated"})
		return
	}
	id, ok := api.ParseUUIDParam(c, "id")
	if !ok {
		return
	}

	if err := h.service.DeleteDiscipline(c.Request.Context(), principal, id); err != nil {
		api.RespondError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}
