// Package api is the thin HTTP layer over the weather query facade.
package api

import (
	"errors"
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/mizukake/tenki/internal/weather"
)

// RegisterRoutes wires the HTTP handlers into the Fiber app.
func RegisterRoutes(app *fiber.App, service *weather.Service) {
	app.Get("/api/weather", func(c *fiber.Ctx) error {
		locationID, err := strconv.ParseInt(c.Query("location_id"), 10, 64)
		if err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "location_id must be an integer")
		}

		date := c.Query("date")
		if _, err := time.Parse("2006-01-02", date); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "date must be YYYY-MM-DD")
		}

		snapshot, err := service.GetWeather(c.Context(), locationID, date)
		if err != nil {
			return mapError(err)
		}
		return c.JSON(snapshot)
	})

	app.Get("/api/weather/forecast", func(c *fiber.Ctx) error {
		locationID, err := strconv.ParseInt(c.Query("location_id"), 10, 64)
		if err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "location_id must be an integer")
		}

		days, err := strconv.Atoi(c.Query("days", "7"))
		if err != nil || days < 1 || days > 14 {
			return fiber.NewError(fiber.StatusBadRequest, "days must be between 1 and 14")
		}

		forecast, err := service.GetForecast(c.Context(), locationID, days)
		if err != nil {
			return mapError(err)
		}
		return c.JSON(forecast)
	})
}

func mapError(err error) error {
	var upstream *weather.UpstreamError
	switch {
	case errors.Is(err, weather.ErrLocationNotFound):
		return fiber.NewError(fiber.StatusNotFound, "location not found")
	case errors.As(err, &upstream):
		return fiber.NewError(fiber.StatusBadGateway, upstream.Error())
	default:
		return fiber.NewError(fiber.StatusInternalServerError, "failed to fetch weather data")
	}
}
