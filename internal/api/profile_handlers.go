package api

import (
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/healthmonitree/healthtrack/internal/profile"
)

func (s *Server) handleGetProfile(c *fiber.Ctx) error {
	p, err := s.Profiles.Get(userID(c))
	if err != nil {
		return s.fail(c, err)
	}
	return c.JSON(p)
}

func (s *Server) handleUpsertProfile(c *fiber.Ctx) error {
	var req struct {
		Age              int     `json:"age"`
		Sex              string  `json:"sex"`
		HeightCM         float64 `json:"heightCm"`
		WeightKG         float64 `json:"weightKg"`
		ActivityLevel    string  `json:"activityLevel"`
		BloodType        string  `json:"bloodType"`
		Allergies        string  `json:"allergies"`
		Conditions       string  `json:"conditions"`
		Medications      string  `json:"medications"`
		EmergencyContact string  `json:"emergencyContact"`
		Smoking          string  `json:"smoking"`
		Alcohol          string  `json:"alcohol"`
	}
	if err := c.BodyParser(&req); err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "invalid request"})
	}

	p := &profile.HealthProfile{
		UserID:           userID(c),
		Age:              req.Age,
		Sex:              req.Sex,
		HeightCM:         req.HeightCM,
		WeightKG:         req.WeightKG,
		ActivityLevel:    req.ActivityLevel,
		BloodType:        req.BloodType,
		Allergies:        req.Allergies,
		Conditions:       req.Conditions,
		Medications:      req.Medications,
		EmergencyContact: req.EmergencyContact,
		Smoking:          req.Smoking,
		Alcohol:          req.Alcohol,
	}
	if err := s.Profiles.Upsert(p, time.Now()); err != nil {
		return s.fail(c, err)
	}
	return c.JSON(p)
}

func (s *Server) handleWeightHistory(c *fiber.Ctx) error {
	limit := c.QueryInt("limit", 0)
	history, err := s.Profiles.WeightHistory(userID(c), limit)
	if err != nil {
		return s.fail(c, err)
	}
	return c.JSON(history)
}

func (s *Server) handleInsights(c *fiber.Ctx) error {
	insights, err := s.Profiles.InsightsFor(userID(c))
	if err != nil {
		return s.fail(c, err)
	}
	return c.JSON(insights)
}
