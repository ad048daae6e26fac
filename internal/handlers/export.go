package handlers

import (
	"fmt"
	"time"

	"github.com/gofiber/fiber/v3"

	"github.com/ashmitsharp/trackmoney-api/internal/services"
)

// ExportHandler serves the ledger as a spreadsheet download
type ExportHandler struct {
	ledger   LedgerService
	exporter *services.Exporter
	now      func() time.Time
}

func NewExportHandler(svc LedgerService, exporter *services.Exporter) *ExportHandler {
	return &ExportHandler{ledger: svc, exporter: exporter, now: time.Now}
}

// Export handles GET /v1/export
func (h *ExportHandler) Export(c fiber.Ctx) error {
	userID, err := requireUser(c)
	if err != nil {
		return err
	}

	snap, err := h.ledger.Snapshot(c.Context(), userID)
	if err != nil {
		return toAPIError(err)
	}

	data, err := h.exporter.Export(snap)
	if err != nil {
		return toAPIError(err)
	}

	filename := fmt.Sprintf("trackmoney-%s.xlsx", h.now().Format("2006-01-02"))
	c.Set(fiber.HeaderContentType, services.XLSXContentType)
	c.Set(fiber.HeaderContentDisposition, fmt.Sprintf(`attachment; filename="%s"`, filename))
	return c.Send(data)
}
