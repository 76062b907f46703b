package controllers

import (
	"context"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/log"
	"github.com/google/uuid"

	"github.com/le10del10/paybridge/internal/pkg/docstore"
)

// CounterSnapshotter exposes the webhook outcome counters.
type CounterSnapshotter interface {
	Snapshot(ctx context.Context) (map[string]int64, error)
}

type HealthController struct {
	store    docstore.Store
	counters CounterSnapshotter
}

// NewHealthController takes nil for a disabled store or missing counters.
func NewHealthController(store docstore.Store, counters CounterSnapshotter) *HealthController {
	return &HealthController{store: store, counters: counters}
}

func (h *HealthController) HandleHealth(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{"ok": true})
}

// HandleStorePing writes a throwaway document to prove the store accepts writes.
func (h *HealthController) HandleStorePing(c *fiber.Ctx) error {
	if h.store == nil {
		return jsonError(c, fiber.StatusServiceUnavailable, msgStoreUnavailable)
	}

	ctx, cancel := context.WithTimeout(c.UserContext(), requestTimeout)
	defer cancel()

	id := uuid.New().String()
	err := h.store.Merge(ctx, docstore.CollectionDiagnostics, id, map[string]any{
		"kind":      "store-ping",
		"createdAt": docstore.ServerTimestamp,
	})
	if err != nil {
		log.Errorf("[Health] Store ping %s failed: %v", id, err)
		return jsonError(c, fiber.StatusInternalServerError, "Store write failed.")
	}

	return c.JSON(fiber.Map{"ok": true, "id": id})
}

// HandleWebhookCounters reports webhook outcomes as "<provider>:<outcome>" counts.
func (h *HealthController) HandleWebhookCounters(c *fiber.Ctx) error {
	if h.counters == nil {
		return jsonError(c, fiber.StatusServiceUnavailable, "Webhook counters unavailable.")
	}

	ctx, cancel := context.WithTimeout(c.UserContext(), requestTimeout)
	defer cancel()

	counts, err := h.counters.Snapshot(ctx)
	if err != nil {
		log.Errorf("[Health] Reading webhook counters failed: %v", err)
		return jsonError(c, fiber.StatusInternalServerError, "Unable to read webhook counters.")
	}
	return c.JSON(fiber.Map{"counters": counts})
}
