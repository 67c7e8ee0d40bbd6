package http

import (
	"context"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRequestTimeoutSetsDeadlineOnUserContext(t *testing.T) {
	app := fiber.New()
	app.Use(requestTimeoutMiddleware(time.Second))

	var hasDeadline bool
	app.Get("/", func(c *fiber.Ctx) error {
		_, hasDeadline = c.UserContext().Deadline()
		return c.SendStatus(fiber.StatusNoContent)
	})

	resp, err := app.Test(httptest.NewRequest("GET", "/", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusNoContent, resp.StatusCode)
	assert.True(t, hasDeadline, "handlers must see the request deadline")
}

func TestRequestTimeoutCancelsSlowWork(t *testing.T) {
	app := fiber.New()
	app.Use(requestTimeoutMiddleware(20 * time.Millisecond))

	var ctxErr error
	app.Get("/slow", func(c *fiber.Ctx) error {
		ctx := c.UserContext()
		select {
		case <-ctx.Done():
			ctxErr = ctx.Err()
		case <-time.After(2 * time.Second):
		}
		return c.SendStatus(fiber.StatusOK)
	})

	_, err := app.Test(httptest.NewRequest("GET", "/slow", nil), 5000)
	require.NoError(t, err)
	assert.ErrorIs(t, ctxErr, context.DeadlineExceeded)
}
