package api

import (
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/healthmonitree/healthtrack/internal/appointments"
)

type appointmentRequest struct {
	Title     string    `json:"title"`
	Doctor    string    `json:"doctor"`
	Location  string    `json:"location"`
	StartTime time.Time `json:"startTime"`
	Notes     string    `json:"notes"`
}

func (s *Server) handleListAppointments(c *fiber.Ctx) error {
	appts, err := s.Appointments.List(userID(c))
	if err != nil {
		return s.fail(c, err)
	}
	return c.JSON(appts)
}

func (s *Server) handleCreateAppointment(c *fiber.Ctx) error {
	var req appointmentRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "invalid request"})
	}

	appt := &appointments.Appointment{
		UserID:    userID(c),
		Title:     req.Title,
		Doctor:    req.Doctor,
		Location:  req.Location,
		StartTime: req.StartTime,
		Notes:     req.Notes,
	}
	if err := s.Appointments.Create(appt, time.Now()); err != nil {
		return s.fail(c, err)
	}
	return c.Status(201).JSON(appt)
}

func (s *Server) handleGetAppointment(c *fiber.Ctx) error {
	appt, err := s.Appointments.Get(userID(c), c.Params("id"))
	if err != nil {
		return s.fail(c, err)
	}
	return c.JSON(appt)
}

func (s *Server) handleUpdateAppointment(c *fiber.Ctx) error {
	appt, err := s.Appointments.Get(userID(c), c.Params("id"))
	if err != nil {
		return s.fail(c, err)
	}

	var req appointmentRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "invalid request"})
	}

	if req.Title != "" {
		appt.Title = req.Title
	}
	if !req.StartTime.IsZero() {
		appt.StartTime = req.StartTime
	}
	appt.Doctor = req.Doctor
	appt.Location = req.Location
	appt.Notes = req.Notes

	if err := s.Appointments.Update(appt, time.Now()); err != nil {
		return s.fail(c, err)
	}
	return c.JSON(appt)
}

func (s *Server) handleDeleteAppointment(c *fiber.Ctx) error {
	if err := s.Appointments.Delete(userID(c), c.Params("id")); err != nil {
		return s.fail(c, err)
	}
	return c.SendStatus(204)
}

func (s *Server) handleCountdowns(c *fiber.Ctx) error {
	countdowns, err := s.Appointments.Countdowns(userID(c), time.Now())
	if err != nil {
		return s.fail(c, err)
	}
	return c.JSON(countdowns)
}

func (s *Server) handleDismissCountdown(c *fiber.Ctx) error {
	if err := s.Appointments.Dismiss(userID(c), c.Params("id"), time.Now()); err != nil {
		return s.fail(c, err)
	}
	return c.SendStatus(204)
}

func (s *Server) handleExportAppointment(c *fiber.Ctx) error {
	appt, err := s.Appointments.Get(userID(c), c.Params("id"))
	if err != nil {
		return s.fail(c, err)
	}

	c.Set("Content-Type", "text/calendar; charset=utf-8")
	c.Set("Content-Disposition", `attachment; filename="appointment.ics"`)
	return c.SendString(appointments.ExportICS(appt, time.Now()))
}

func (s *Server) handleCalendarLinks(c *fiber.Ctx) error {
	appt, err := s.Appointments.Get(userID(c), c.Params("id"))
	if err != nil {
		return s.fail(c, err)
	}
	return c.JSON(fiber.Map{
		"google":  appointments.GoogleCalendarURL(appt),
		"outlook": appointments.OutlookURL(appt),
	})
}
