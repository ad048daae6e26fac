package handlers

import (
	"bytes"
	"errors"
	"io"
	"strings"

	"github.com/gofiber/fiber/v3"

	"github.com/ashmitsharp/trackmoney-api/internal/services"
	"github.com/ashmitsharp/trackmoney-api/internal/utils"
)

type ImportHandler struct {
	ledger LedgerService
	parser *services.Parser
}

func NewImportHandler(svc LedgerService, parser *services.Parser) *ImportHandler {
	return &ImportHandler{ledger: svc, parser: parser}
}

// Import handles POST /v1/transactions/import. The statement is either a
// multipart "file" field or the raw request body; XLSX is recognised by
// extension or content type, anything else is read as CSV.
func (h *ImportHandler) Import(c fiber.Ctx) error {
	userID, err := requireUser(c)
	if err != nil {
		return err
	}

	var (
		reader      io.Reader
		filename    string
		contentType string
	)
	if fh, err := c.FormFile("file"); err == nil {
		file, err := fh.Open()
		if err != nil {
			return utils.NewBadRequestError("Could not open uploaded file", nil)
		}
		defer file.Close()

		reader = file
		filename = fh.Filename
		contentType = fh.Header.Get(fiber.HeaderContentType)
	} else {
		body := c.Body()
		if len(body) == 0 {
			return utils.NewBadRequestError("file is required", nil)
		}
		reader = bytes.NewReader(body)
		contentType = c.Get(fiber.HeaderContentType)
	}

	var batch services.ParsedBatch
	if strings.HasPrefix(contentType, services.XLSXContentType) {
		batch, err = h.parser.ParseXLSX(reader)
	} else {
		batch, err = h.parser.ParseFile(reader, filename)
	}
	if err != nil {
		switch {
		case errors.Is(err, services.ErrEmptyFile),
			errors.Is(err, services.ErrUnknownFormat),
			errors.Is(err, services.ErrTooManyRows):
			return utils.NewBadRequestError(err.Error(), nil)
		default:
			return utils.NewBadRequestError("Could not read file", map[string]string{"error": err.Error()})
		}
	}

	result, err := h.ledger.ImportTransactions(c.Context(), userID, batch)
	if err != nil {
		return toAPIError(err)
	}
	return c.JSON(result)
}
