package api

import (
	"strconv"

	"github.com/gofiber/fiber/v2"
)

func (s *Server) handleSearchHospitals(c *fiber.Ctx) error {
	radius := c.QueryInt("radius", 0)

	if address := c.Query("address"); address != "" {
		hospitals, coords, err := s.Hospitals.SearchByAddress(c.Context(), address, radius)
		if err != nil {
			return s.fail(c, err)
		}
		return c.JSON(fiber.Map{"origin": coords, "hospitals": hospitals})
	}

	lat, latErr := strconv.ParseFloat(c.Query("lat"), 64)
	lng, lngErr := strconv.ParseFloat(c.Query("lng"), 64)
	if latErr != nil || lngErr != nil {
		return c.Status(400).JSON(fiber.Map{"error": "lat and lng (or address) are required"})
	}

	hospitals, err := s.Hospitals.Search(c.Context(), lat, lng, radius)
	if err != nil {
		return s.fail(c, err)
	}
	return c.JSON(fiber.Map{
		"origin":    fiber.Map{"latitude": lat, "longitude": lng},
		"hospitals": hospitals,
	})
}

func (s *Server) handleGeocode(c *fiber.Ctx) error {
	address := c.Query("address")
	if address == "" {
		return c.Status(400).JSON(fiber.Map{"error": "address is required"})
	}

	coords, err := s.Hospitals.Geocode(c.Context(), address)
	if err != nil {
		return s.fail(c, err)
	}
	return c.JSON(coords)
}
