package middleware

import (
	"github.com/gofiber/fiber/v2"
	"github.com/veridian/lib-license-go/constant"
)

// Middleware creates a Fiber middleware that runs startup validation and
// manages background refresh. Per-request it only consults the in-memory
// guard snapshot, so it adds no I/O to the request path.
func (c *LicenseClient) Middleware() fiber.Handler {
	// Perform startup validation
	c.startupValidation()

	// Return request handler
	return func(ctx *fiber.Ctx) error {
		if c == nil || c.validator == nil {
			return ctx.Next()
		}

		if !c.licensed() {
			return c.rejectRequest(ctx, constant.ErrCodeLicenseInvalid,
				"Invalid License", "No valid license is active for this application")
		}

		return ctx.Next()
	}
}

// RequireFeature creates a Fiber middleware that rejects requests unless the
// named capability is unlocked by the current license.
func (c *LicenseClient) RequireFeature(name string) fiber.Handler {
	c.startupValidation()

	return func(ctx *fiber.Ctx) error {
		if c == nil || c.validator == nil {
			return ctx.Next()
		}

		if !c.guard.CheckFeature(name) {
			l := c.validator.GetLogger()
			l.Warnf("Feature %s blocked by license (code %s)", name, constant.ErrCodeFeatureNotLicensed)

			return c.rejectRequest(ctx, constant.ErrCodeFeatureNotLicensed,
				"Feature Not Licensed", "The current license does not unlock feature "+name)
		}

		return ctx.Next()
	}
}

// StatusHandler returns a Fiber handler exposing the current license status
// snapshot, useful for diagnostics endpoints.
func (c *LicenseClient) StatusHandler() fiber.Handler {
	return func(ctx *fiber.Ctx) error {
		return ctx.JSON(c.guard.Status())
	}
}

func (c *LicenseClient) licensed() bool {
	res, ok := c.validator.LastResult()
	return ok && res.Valid
}

func (c *LicenseClient) rejectRequest(ctx *fiber.Ctx, code, title, message string) error {
	return ctx.Status(fiber.StatusForbidden).JSON(fiber.Map{
		"code":    code,
		"title":   title,
		"message": message,
	})
}
