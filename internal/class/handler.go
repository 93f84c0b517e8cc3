package class

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

// @Summary      Create a class
// @Description  gym_id defaults to the caller's gym. The teacher must belong to the gym.
// @Tags         classes
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        request body class.CreateClassRequest true "Class payload"
// @Success      201 {object} class.Class
// @Failure      400 {object} api.ErrorResponse
// @Failure      403 {object} api.ErrorResponse
// @Failure      404 {object} api.ErrorResponse
// @Router       /classes [post]
func (h *Handler) CreateClass(c *gin.Context) {
	principal, ok := auth.GetPrincipal(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, api.ErrorResponse{Error: "User not authenticated"})
		return
	}

	var req CreateClassRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, api.ErrorResponse{Error: err.Error()})
		return
	}

	class, err := h.service.CreateClass(c.Request.Context(), principal, req)
	if err != nil {
		api.RespondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, class)
}

// @Summary      List classes visible to the caller
// @Tags         classes
// @Produce      json
// @Security     BearerAuth
// @Param        date          query string false "Day (YYYY-MM-DD)"
// @Param        discipline_id query string false "Discipline ID"
// @Param        gym_id        query string false "Gym ID"
// @Param        page          query int    false "Page (default 1)"
// @Param        limit         query int    false "Page size (default 10, max 100)"
// @Success      200 {object} class.ListResult
// @Failure      400 {object} api.ErrorResponse
// @Failure      403 {object} api.ErrorResponse
// @Router       /classes [get]
func (h *Handler) ListClasses(c *gin.Context) {
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

	result, err := h.service.ListClasses(c.Request.Context(), principal, q)
	if err != nil {
		api.RespondError(c, err)
		return
	}

	c.JSON(http.StatusOK, result)
}

// @Summary      Get a class
// @Tags         classes
// @Produce      json
// @Security     BearerAuth
// @Param        id path string true "Class ID"
// @Success      200 {object} class.Class
// @Failure      403 {object} api.ErrorResponse
// @Failure      404 {object} api.ErrorResponse
// @Router       /classes/{id} [get]
func (h *Handler) GetClass(c *gin.Context) {
	principal, ok := auth.GetPrincipal(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, api.ErrorResponse{Error: "User not authenticated"})
		return
	}
	id, ok := api.ParseUUIDParam(c, "id")
	if !ok {
		return
	}

	class, err := h.service.GetClass(c.Request.Context(), principal, id)
	if err != nil {
		api.RespondError(c, err)
		return
	}

	c.JSON(http.StatusOK, class)
}

// @Summary      Update a class
// @Tags         classes
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id path string true "Class ID"
// @Param        request body class.UpdateClassRequest true "Fields to change"
// @Success      200 {object} class.Class
// @Failure      400 {object} api.ErrorResponse
// @Failure      403 {object} api.ErrorResponse
// @Failure      404 {object} api.ErrorResponse
// @Router       /classes/{id} [put]
func (h *Handler) UpdateClass(c *gin.Context) {
	principal, ok := auth.GetPrincipal(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, api.ErrorResponse{Error: "User not authenticated"})
		return
	}
	id, ok := api.ParseUUIDParam(c, "id")
	if !ok {
		return
	}

	var req UpdateClassRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, api.ErrorResponse{Error: err.Error()})
		return
	}

	class, err := h.service.UpdateClass(c.Request.Context(), principal, id, req)
	if err != nil {
		api.RespondError(c, err)
		return
	}

	c.JSON(http.StatusOK, class)
}

// @Summary      Delete a class
// @Description  Fails once the class has any reservation.
// @Tags         classes
// @Security     BearerAuth
// @Param        id path string true "Class ID"
// @Success      204
// @Failure      403 {object} api.ErrorResponse
// @Failure      404 {object} api.ErrorResponse
// @Failure      409 {object} api.ErrorResponse
// @Router       /classes/{id} [delete]
func (h *Handler) DeleteClass(c *gin.Context) {
	principal, ok := auth.GetPrincipal(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, api.ErrorResponse{Error: "User not authenticated"})
		return
	}
	id, ok := api.ParseUUIDParam(c, "id")
	if !ok {
		return
	}

	if err := h.service.DeleteClass(c.Request.Context(), principal, id); err != nil {
		api.RespondError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}

// @Summary      List a teacher's classes
// @Tags         classes
// @Produce      json
// @Security     BearerAuth
// @Param        id path string true "Teacher ID"
// @Success      200 {array} class.Class
// @Failure      403 {object} api.ErrorResponse
// @Router       /teachers/{id}/classes [get]
func (h *Handler) ListClassesByTeacher(c *gin.Context) {
	principal, ok := auth.GetPrincipal(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, api.ErrorResponse{Error: "User not authenticated"})
		return
	}
	teacherID, ok := api.ParseUUIDParam(c, "id")
	if !ok {
		return
	}

	classes, err := h.service.ListClassesByTeacher(c.Request.Context(), principal, teacherID)
	if err != nil {
		api.RespondError(c, err)
		return
	}

	c.JSON(http.StatusOK, classes)
}
