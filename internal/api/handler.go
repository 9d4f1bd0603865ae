// Package api exposes the converter over HTTP: a multipart PDF upload in,
// the parsed statement as JSON (plus a rendered CSV) out.
package api

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/finparse/kb-statement-converter/internal/models"
	"github.com/finparse/kb-statement-converter/internal/parser"
	"github.com/finparse/kb-statement-converter/internal/rowsource"
	"github.com/finparse/kb-statement-converter/internal/writer"
)

const version = "1.0.0"

// ConvertResponse is the JSON response from the /api/convert endpoint.
type ConvertResponse struct {
	Success     bool                      `json:"success"`
	Error       string                    `json:"error,omitempty"`
	Metadata    *models.StatementMetadata `json:"metadata,omitempty"`
	Rows        []models.StatementRow     `json:"rows"`
	CSV         string                    `json:"csv,omitempty"`
	TotalDebit  string                    `json:"totalDebit"`
	TotalCredit string                    `json:"totalCredit"`
	Count       int                       `json:"count"`
	Version     string                    `json:"version,omitempty"`
}

// Handler holds the HTTP handlers for the API.
type Handler struct {
	Source rowsource.Source
	Log    *zap.Logger
}

// New builds a Handler; a nil logger disables logging.
func New(src rowsource.Source, log *zap.Logger) *Handler {
	if log == nil {
		log = zap.NewNop()
	}
	return &Handler{Source: src, Log: log}
}

// Register sets up the HTTP routes.
func (h *Handler) Register(app *fiber.App) {
	app.Get("/api/health", h.Health)
	app.Post("/api/convert", h.Convert)
}

// Health reports service liveness.
func (h *Handler) Health(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"status":  "ok",
		"engine":  "fiber",
		"version": version,
	})
}

// Convert accepts one uploaded PDF statement and returns the parsed rows,
// metadata, totals and a CSV rendering.
func (h *Handler) Convert(c *fiber.Ctx) error {
	fileHeader, err := c.FormFile("file")
	if err != nil {
		return writeError(c, fiber.StatusBadRequest, "No file uploaded. Use form field 'file'.")
	}

	if !strings.HasSuffix(strings.ToLower(fileHeader.Filename), ".pdf") {
		return writeError(c, fiber.StatusBadRequest, "Only PDF files are supported.")
	}

	tmp, err := os.CreateTemp("", "statement-*.pdf")
	if err != nil {
		return writeError(c, fiber.StatusInternalServerError, "Failed to create temp file.")
	}
	tmpPath := tmp.Name()
	tmp.Close()
	defer os.Remove(tmpPath)

	if err := c.SaveFile(fileHeader, tmpPath); err != nil {
		return writeError(c, fiber.StatusInternalServerError, "Failed to save uploaded file.")
	}

	h.Log.Info("converting uploaded statement",
		zap.String("file", filepath.Base(fileHeader.Filename)),
		zap.Int64("size", fileHeader.Size))

	rd, err := parser.NewStatementReader(h.Source, tmpPath, h.Log)
	if err != nil {
		return writeError(c, statusFor(err), fmt.Sprintf("Parsing failed: %v", err))
	}

	var rows []models.StatementRow
	for {
		row, err := rd.Next()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return writeError(c, statusFor(err), fmt.Sprintf("Parsing failed: %v", err))
		}
		rows = append(rows, row)
	}

	meta := rd.Metadata()
	csvText, err := writer.RowsCSV(meta, rows)
	if err != nil {
		return writeError(c, fiber.StatusInternalServerError, fmt.Sprintf("CSV generation failed: %v", err))
	}

	// Rows must never be nil (nil marshals to JSON null, not []).
	if rows == nil {
		rows = []models.StatementRow{}
	}

	debit, credit := rd.Totals()
	return c.JSON(ConvertResponse{
		Success:     true,
		Metadata:    &meta,
		Rows:        rows,
		CSV:         csvText,
		TotalDebit:  debit.String(),
		TotalCredit: credit.String(),
		Count:       len(rows),
		Version:     version,
	})
}

// statusFor maps parse failures to 422 and everything else to 500.
func statusFor(err error) int {
	if parser.IsParserError(err) {
		return fiber.StatusUnprocessableEntity
	}
	return fiber.StatusInternalServerError
}

func writeError(c *fiber.Ctx, status int, msg string) error {
	return c.Status(status).JSON(ConvertResponse{
		Success: false,
		Error:   msg,
	})
}
