package middleware

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/mensa-app/mensa/internal/schedule"
	"github.com/mensa-app/mensa/internal/store"
	"gorm.io/gorm"
)

// Phase resolves the request's arrival time to the current meal phase,
// creating the phase row on first sight of this (date, moment), and stores
// it in the request context. A nil clock means time.Now; tests inject a
// fixed clock to pin the phase.
func Phase(db *gorm.DB, sched schedule.Schedule, now func() time.Time) fiber.Handler {
	if now == nil {
		now = time.Now
	}
	return func(c *fiber.Ctx) error {
		refTime := now()
		date, moment := sched.Resolve(refTime)

		phase, err := store.GetOrCreatePhase(db, date, moment)
		if err != nil {
			return err
		}

		c.Locals("phase", phase)
		c.Locals("refTime", refTime)
		return c.Next()
	}
}
