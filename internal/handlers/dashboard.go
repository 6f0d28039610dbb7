package handlers

import (
	"bytes"

	"github.com/gofiber/fiber/v2"
	"github.com/ridecast/ridecast/internal/features"
	"github.com/ridecast/ridecast/internal/logging"
	"github.com/ridecast/ridecast/internal/middleware"
	"github.com/ridecast/ridecast/internal/models"
)

type dashboardView struct {
	Form     models.DashboardForm
	Seasons  []string
	Years    []int
	Months   []string
	Weekdays []string
	Weathers []string
	YesNo    []string
	HourMin  int
	HourMax  int
	Result   *dashboardResult
	Error    string
}

type dashboardResult struct {
	Prediction int
	Insights   []models.Insight
	Warnings   []string
}

// Dashboard handles GET /, the prediction form with its default values
func (h *Handler) Dashboard(c *fiber.Ctx) error {
	form := models.DefaultDashboardForm()
	form.Hour = min(max(form.Hour, h.hourMin), h.hourMax)
	return h.render(c, fiber.StatusOK, h.view(form))
}

// DashboardSubmit handles POST /, scoring the submitted form
func (h *Handler) DashboardSubmit(c *fiber.Ctx) error {
	form := models.DefaultDashboardForm()
	if err := c.BodyParser(&form); err != nil {
		v := h.view(form)
		v.Error = "Could not read the form: " + err.Error()
		return h.render(c, fiber.StatusBadRequest, v)
	}

	v := h.view(form)

	rec, err := form.Record()
	if err != nil {
		logging.DebugCtx(c.UserContext(), "Dashboard form rejected", "error", err)
		v.Error = "Error making prediction: " + err.Error()
		return h.render(c, fiber.StatusBadRequest, v)
	}

	p, err := h.predictionService.Predict(c.UserContext(), features.RawRecord(rec))
	if err != nil {
		v.Error = "Error making prediction: " + middleware.ErrorDetailFor(err).Message
		return h.render(c, middleware.StatusForError(err), v)
	}

	v.Result = &dashboardResult{
		Prediction: p.Count,
		Insights:   form.Insights(),
		Warnings:   p.Warnings,
	}
	return h.render(c, fiber.StatusOK, v)
}

func (h *Handler) view(form models.DashboardForm) dashboardView {
	return dashboardView{
		Form:     form,
		Seasons:  models.Seasons,
		Years:    models.Years,
		Months:   models.Months,
		Weekdays: models.Weekdays,
		Weathers: models.Weathers,
		YesNo:    models.YesNo,
		HourMin:  h.hourMin,
		HourMax:  h.hourMax,
	}
}

func (h *Handler) render(c *fiber.Ctx, status int, v dashboardView) error {
	var buf bytes.Buffer
	if err := h.dashboard.Execute(&buf, v); err != nil {
		h.logger.WithContext(c.UserContext()).Error("Failed to render dashboard", "error", err)
		return h.respondError(c, err)
	}
	c.Set(fiber.HeaderContentType, fiber.MIMETextHTMLCharsetUTF8)
	return c.Status(status).Send(buf.Bytes())
}
