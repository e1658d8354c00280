package handlers

import (
	"notification-service/internal/google"
	"notification-service/internal/notify"

	"github.com/gofiber/fiber/v3"
)

// PushHandler exposes an ops endpoint for verifying push delivery to a
// single device token.
type PushHandler struct {
	firebaseService *google.FirebaseService
}

func NewPushHandler(firebaseService *google.FirebaseService) *PushHandler {
	return &PushHandler{
		firebaseService: firebaseService,
	}
}

func (h *PushHandler) Register(app *fiber.App) {
	protectedGr := app.Group("/notification/protected/api/v2")
	pushGr := protectedGr.Group("/push")

	pushGr.Post("/test", h.TestPush)
}

func (h *PushHandler) TestPush(c fiber.Ctx) error {
	type TestPushRequest struct {
		Token string `json:"token"`
		Title string `json:"title"`
		Body  string `json:"body"`
	}
	var req TestPushRequest

	if err := c.Bind().Body(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request body",
		})
	}
	if req.Token == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "token is required",
		})
	}

	payload := notify.Payload{
		Title: req.Title,
		Body:  req.Body,
		Data:  map[string]string{"test": "true"},
	}
	report, err := h.firebaseService.Send(c.Context(), []string{req.Token}, payload)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error":  "Failed to send push",
			"detail": err.Error(),
		})
	}
	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"success_count": report.SuccessCount,
		"failure_count": report.FailureCount,
	})
}
