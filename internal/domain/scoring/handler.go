package scoring

import (
	"net/http"

	"github.com/labstack/echo/v4"
)

type Handler struct{}

func NewHandler() *Handler {
	return &Handler{}
}

// RegisterRoutes mounts the questionnaire definitions. Public: the intake
// form fetches them before the patient has any session.
func (h *Handler) RegisterRoutes(public *echo.Group) {
	public.GET("/questionnaires", h.List)
}

func (h *Handler) List(c echo.Context) error {
	return c.JSON(http.StatusOK, Questionnaires())
}
