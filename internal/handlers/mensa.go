package handlers

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/mensa-app/mensa/internal/config"
	"github.com/mensa-app/mensa/internal/models"
	"github.com/mensa-app/mensa/internal/schedule"
	"github.com/mensa-app/mensa/internal/store"
	"gorm.io/gorm"
)

// Handler serves the mensa routes. It expects the identity and phase
// middleware to have populated "user" and "phase" in the request context.
type Handler struct {
	DB       *gorm.DB
	Cfg      *config.Config
	Schedule schedule.Schedule
}

// declarationView is one rendered row of the declarations list.
type declarationView struct {
	Username string
	Value    string
}

// statementJSON is one entry of the /json feed.
type statementJSON struct {
	Username string `json:"username"`
	Value    string `json:"value"`
}

// Home handles GET / and renders the declaration form along with the
// current declarations for the phase. The caller's own latest value is
// pre-filled into the input field; a withdrawal renders as an empty field.
func (h *Handler) Home(c *fiber.Ctx) error {
	user := c.Locals("user").(*models.User)
	phase := c.Locals("phase").(*models.Phase)

	declarations, err := store.ListCurrentDeclarations(h.DB, phase)
	if err != nil {
		return err
	}

	latest, err := store.LatestStatement(h.DB, user, phase)
	if err != nil {
		return err
	}
	ownValue := ""
	if latest != nil && latest.Value != nil {
		ownValue = *latest.Value
	}

	rows := make([]declarationView, 0, len(declarations))
	for _, d := range declarations {
		rows = append(rows, declarationView{
			Username: d.User.PrettyName(h.Cfg.UserDomainSuffix),
			Value:    d.Value,
		})
	}

	return c.Render("views/home", fiber.Map{
		"PrettyName":   user.PrettyName(h.Cfg.UserDomainSuffix),
		"Date":         time.Time(phase.Date).Format("2006-01-02"),
		"MomentName":   h.Schedule.Name(phase.Moment),
		"Declarations": rows,
		"OwnValue":     ownValue,
	})
}

// SubmitStatement handles POST /state. An empty or absent statement field
// records a withdrawal. Always answers with a redirect to the form.
func (h *Handler) SubmitStatement(c *fiber.Ctx) error {
	if c.Method() != fiber.MethodPost {
		return fiber.ErrMethodNotAllowed
	}

	user := c.Locals("user").(*models.User)
	phase := c.Locals("phase").(*models.Phase)
	refTime := c.Locals("refTime").(time.Time)

	var value *string
	if v := c.FormValue("statement"); v != "" {
		value = &v
	}

	if _, err := store.RecordStatement(h.DB, user, phase, refTime, value); err != nil {
		return err
	}

	return c.Redirect("/", fiber.StatusFound)
}

// JSONStatements handles GET /json and emits the current declarations of
// the phase, ordered by ascending declaration time.
func (h *Handler) JSONStatements(c *fiber.Ctx) error {
	phase := c.Locals("phase").(*models.Phase)

	declarations, err := store.ListCurrentDeclarations(h.DB, phase)
	if err != nil {
		return err
	}

	statements := make([]statementJSON, 0, len(declarations))
	for _, d := range declarations {
		statements = append(statements, statementJSON{
			Username: d.User.PrettyName(h.Cfg.UserDomainSuffix),
			Value:    d.Value,
		})
	}

	return c.JSON(fiber.Map{"statements": statements})
}

// Debug handles /debug with a plain-text dump of the request metadata.
// Operator tool, no stability contract.
func (h *Handler) Debug(c *fiber.Ctx) error {
	var b strings.Builder

	fmt.Fprintf(&b, "%s %s %s\n", c.Method(), c.OriginalURL(), c.Protocol())
	fmt.Fprintf(&b, "request id: %v\n", c.Locals("requestID"))

	if user, ok := c.Locals("user").(*models.User); ok {
		fmt.Fprintf(&b, "user: %s (enabled=%t)\n", user.Username, user.Enabled)
	}
	if phase, ok := c.Locals("phase").(*models.Phase); ok {
		fmt.Fprintf(&b, "phase: %s moment=%d (%s)\n",
			time.Time(phase.Date).Format("2006-01-02"), phase.Moment, h.Schedule.Name(phase.Moment))
	}

	headers := c.GetReqHeaders()
	keys := make([]string, 0, len(headers))
	for k := range headers {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	b.WriteString("headers:\n")
	for _, k := range keys {
		for _, v := range headers[k] {
			fmt.Fprintf(&b, "  %s: %s\n", k, v)
		}
	}

	c.Set(fiber.HeaderContentType, fiber.MIMETextPlainCharsetUTF8)
	return c.SendString(b.String())
}
