package reservation

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

// @Summary      Book a seat in a class
// @Description  Students only. The class must belong to the student's gym and start in the future.
// @Tags         reservations
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        request body reservation.CreateReservationRequest true "Class to book"
// @Success      201 {object} reservation.Reservation
// @Failure      400 {object} api.ErrorResponse
// @Failure      403 {object} api.ErrorResponse
// @Failure      404 {object} api.ErrorResponse
// @Failure      409 {object} api.ErrorResponse
// @Router       /reservations [post]
func (h *Handler) CreateReservation(c *gin.Context) {
	principal, ok := auth.GetPrincipal(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, api.ErrorResponse{Error: "User not authenticated"})
		return
	}

	var req CreateReservationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, api.ErrorResponse{Error: err.Error()})
		return
	}

	res, err := h.service.Create(c.Request.Context(), principal, req.ClassID)
	if err != nil {
		api.RespondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, res)
}

// @Summary      List my reservations
// @Description  Newest first, with the class schedule.
// @Tags         reservations
// @Produce      json
// @Security     BearerAuth
// @Success      200 {array} reservation.WithClass
// @Failure      403 {object} api.ErrorResponse
// @Router       /reservations/me [get]
func (h *Handler) ListMyReservations(c *gin.Context) {
	principal, ok := auth.GetPrincipal(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, api.ErrorResponse{Error: "User not authenticated"})
		return
	}

	list, err := h.service.ListMine(c.Request.Context(), principal)
	if err != nil {
		api.RespondError(c, err)
		return
	}

	c.JSON(http.StatusOK, list)
}

// @Summary      Cancel a reservation
// @Description  Students may cancel their own reservation until the cancellation window closes. Gym admins and super admins may cancel any active reservation of their gyms.
// @Tags         reservations
// @Produce      json
// @Security     BearerAuth
// @Param        id path string true "Reservation ID"
// @Success      200 {object} reservation.Reservation
// @Failure      400 {object} api.ErrorResponse
// @Failure      403 {object} api.ErrorResponse
// @Failure      404 {object} api.ErrorResponse
// @Router       /reservations/{id}/cancel [put]
func (h *Handler) CancelReservation(c *gin.Context) {
	principal, ok := auth.GetPrincipal(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, api.ErrorResponse{Error: "User not authenticated"})
		return
	}

	id, ok := api.ParseUUIDParam(c, "id")
	if !ok {
		return
	}

	res, err := h.service.Cancel(c.Request.Context(), principal, id)
	if err != nil {
		api.RespondError(c, err)
		return
	}

	c.JSON(http.StatusOK, res)
}

// @Summary      Mark attendance
// @Description  The class teacher or a gym admin records whether a booked student attended. Only once the class has started.
// @Tags         reservations
// @Produce      json
// @Security     BearerAuth
// @Param        id        path  string true "Class ID"
// @Param        studentId path  string true "Student ID"
// @Param        attended  query bool   true "Whether the student attended"
// @Success      200 {object} reservation.Reservation
// @Failure      400 {object} api.ErrorResponse
// @Failure      403 {object} api.ErrorResponse
// @Failure      404 {object} api.ErrorResponse
// @Router       /classes/{id}/students/{studentId}/attendance [put]
func (h *Handler) MarkAttendance(c *gin.Context) {
	principal, ok := auth.GetPrincipal(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, api.ErrorResponse{Error: "User not authenticated"})
		return
	}

	classID, ok := api.ParseUUIDParam(c, "id")
	if !ok {
		return
	}
	studentID, ok := api.ParseUUIDParam(c, "studentId")
	if !ok {
		return
	}

	var q AttendanceQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		c.JSON(http.StatusBadRequest, api.ErrorResponse{Error: err.Error()})
		return
	}

	res, err := h.service.MarkAttendance(c.Request.Context(), principal, classID, studentID, *q.Attended)
	if err != nil {
		api.RespondError(c, err)
		return
	}

	c.JSON(http.StatusOK, res)
}

// @Summary      Class roster
// @Description  Every reservation of the class in booking order. Visible to the class teacher and gym admins.
// @Tags         reservations
// @Produce      json
// @Security     BearerAuth
// @Param        id path string true "Class ID"
// @Success      200 {array} reservation.RosterEntry
// @Failure      403 {object} api.ErrorResponse
// @Failure      404 {object} api.ErrorResponse
// @Router       /classes/{id}/reservations [get]
func (h *Handler) ListClassReservations(c *gin.Context) {
	principal, ok := auth.GetPrincipal(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, api.ErrorResponse{Error: "User not authenticated"})
		return
	}

	classID, ok := api.ParseUUIDParam(c, "id")
	if !ok {
		return
	}

	roster, err := h.service.ListByClass(c.Request.Context(), principal, classID)
	if err != nil {
		api.RespondError(c, err)
		return
	}

	c.JSON(http.StatusOK, roster)
}
