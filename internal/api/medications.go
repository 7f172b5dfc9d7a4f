package api

import (
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/healthmonitree/healthtrack/internal/medications"
)

type medicationRequest struct {
	Name      string     `json:"name"`
	Dosage    string     `json:"dosage"`
	Frequency string     `json:"frequency"`
	Times     []string   `json:"times"`
	Enabled   *bool      `json:"enabled"`
	StartDate time.Time  `json:"startDate"`
	EndDate   *time.Time `json:"endDate"`
	Notes     string     `json:"notes"`
}

func (s *Server) handleListMedications(c *fiber.Ctx) error {
	meds, err := s.Medications.ListMedications(userID(c))
	if err != nil {
		return s.fail(c, err)
	}
	return c.JSON(meds)
}

func (s *Server) handleCreateMedication(c *fiber.Ctx) error {
	var req medicationRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "invalid request"})
	}

	med := &medications.Medication{
		UserID:    userID(c),
		Name:      req.Name,
		Dosage:    req.Dosage,
		Frequency: req.Frequency,
		Enabled:   true,
		StartDate: req.StartDate,
		EndDate:   req.EndDate,
		Notes:     req.Notes,
	}
	if req.Enabled != nil {
		med.Enabled = *req.Enabled
	}
	if err := med.SetTimes(req.Times); err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "invalid reminder times"})
	}

	if err := s.Medications.CreateMedication(med, time.Now()); err != nil {
		return s.fail(c, err)
	}
	return c.Status(201).JSON(med)
}

func (s *Server) handleGetMedication(c *fiber.Ctx) error {
	med, err := s.Medications.GetMedication(userID(c), c.Params("id"))
	if err != nil {
		return s.fail(c, err)
	}
	return c.JSON(med)
}

func (s *Server) handleUpdateMedication(c *fiber.Ctx) error {
	med, err := s.Medications.GetMedication(userID(c), c.Params("id"))
	if err != nil {
		return s.fail(c, err)
	}

	var req medicationRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "invalid request"})
	}

	if req.Name != "" {
		med.Name = req.Name
	}
	if req.Frequency != "" {
		med.Frequency = req.Frequency
	}
	if req.Times != nil {
		if err := med.SetTimes(req.Times); err != nil {
			return c.Status(400).JSON(fiber.Map{"error": "invalid reminder times"})
		}
	}
	if !req.StartDate.IsZero() {
		med.StartDate = req.StartDate
	}
	if req.Enabled != nil {
		med.Enabled = *req.Enabled
	}
	med.Dosage = req.Dosage
	med.Notes = req.Notes
	med.EndDate = req.EndDate

	if err := s.Medications.UpdateMedication(med, time.Now()); err != nil {
		return s.fail(c, err)
	}
	return c.JSON(med)
}

func (s *Server) handleDeleteMedication(c *fiber.Ctx) error {
	if err := s.Medications.DeleteMedication(userID(c), c.Params("id")); err != nil {
		return s.fail(c, err)
	}
	return c.SendStatus(204)
}

func (s *Server) handleListLogs(c *fiber.Ctx) error {
	var since time.Time
	if days := c.QueryInt("days", 0); days > 0 {
		since = time.Now().AddDate(0, 0, -days)
	}

	logs, err := s.Medications.ListLogs(userID(c), c.Params("id"), since)
	if err != nil {
		return s.fail(c, err)
	}
	return c.JSON(logs)
}

func (s *Server) handleAdherence(c *fiber.Ctx) error {
	windowDays := c.QueryInt("days", 0)
	report, err := s.Medications.Adherence(userID(c), c.Params("id"), windowDays, time.Now())
	if err != nil {
		return s.fail(c, err)
	}
	return c.JSON(report)
}

func (s *Server) handleMarkTaken(c *fiber.Ctx) error {
	var req struct {
		ScheduledTime time.Time `json:"scheduledTime"`
	}
	if err := c.BodyParser(&req); err != nil || req.ScheduledTime.IsZero() {
		return c.Status(400).JSON(fiber.Map{"error": "scheduledTime is required"})
	}

	log, err := s.Scheduler.MarkTaken(userID(c), c.Params("id"), req.ScheduledTime, time.Now())
	if err != nil {
		return s.fail(c, err)
	}
	return c.JSON(log)
}

func (s *Server) handleSnooze(c *fiber.Ctx) error {
	var req struct {
		ScheduledTime time.Time `json:"scheduledTime"`
		Minutes       int       `json:"minutes"`
	}
	if err := c.BodyParser(&req); err != nil || req.ScheduledTime.IsZero() {
		return c.Status(400).JSON(fiber.Map{"error": "scheduledTime is required"})
	}

	reminder, err := s.Scheduler.Snooze(userID(c), c.Params("id"), req.ScheduledTime, req.Minutes, time.Now())
	if err != nil {
		return s.fail(c, err)
	}
	return c.JSON(reminder)
}

func (s *Server) handleActiveReminders(c *fiber.Ctx) error {
	reminders, err := s.Medications.ListActiveReminders(userID(c))
	if err != nil {
		return s.fail(c, err)
	}
	return c.JSON(reminders)
}

func (s *Server) handleExportMedications(c *fiber.Ctx) error {
	meds, err := s.Medications.ListMedications(userID(c))
	if err != nil {
		return s.fail(c, err)
	}

	ics, err := medications.ExportICS(meds, time.Now())
	if err != nil {
		return s.fail(c, err)
	}

	c.Set("Content-Type", "text/calendar; charset=utf-8")
	c.Set("Content-Disposition", `attachment; filename="medications.ics"`)
	return c.SendString(ics)
}
