package handlers

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"stockdesk/internal/common"
)

// JobRunner is the part of the background scheduler exposed over HTTP.
type JobRunner interface {
	RunNow(name string) bool
	GetJobStatus() map[string]any
}

type JobHandlers struct {
	jobs JobRunner
}

func NewJobHandlers(jobs JobRunner) *JobHandlers {
	return &JobHandlers{jobs: jobs}
}

func (h *JobHandlers) Register(g *echo.Group) {
	g.GET("/jobs", h.Status)
	g.POST("/jobs/:name/run", h.Run)
}

func (h *JobHandlers) Status(c echo.Context) error {
	return c.JSON(http.StatusOK, h.jobs.GetJobStatus())
}

// Run triggers a registered job outside its schedule.
func (h *JobHandlers) Run(c echo.Context) error {
	name := c.Param("name")
	if !h.jobs.RunNow(name) {
		return common.SendNotFoundError(c, "Job "+name)
	}
	return c.JSON(http.StatusAccepted, map[string]string{
		"job":    name,
		"status": "triggered",
	})
}
