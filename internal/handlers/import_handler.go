package handlers

import (
	"encoding/csv"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/xuri/excelize/v2"

	"catalog-service/internal/importer"
	"catalog-service/internal/middleware"
	"catalog-service/internal/models"
)

const (
	// MaxImportFileSize caps uploads at 10 MB; catalog CSVs are far smaller.
	MaxImportFileSize = 10 << 20

	// MaxImagesPerRow bounds review-surface image edits.
	MaxImagesPerRow = 5
)

type ImportHandler struct {
	manager *importer.Manager
}

func NewImportHandler(manager *importer.Manager) *ImportHandler {
	return &ImportHandler{manager: manager}
}

// importSessionView is the review-surface projection of a session
type importSessionView struct {
	ID          uuid.UUID                     `json:"id"`
	PartnerID   string                        `json:"partnerId"`
	State       importer.State                `json:"state"`
	Rows        []*importer.NormalizedProduct `json:"rows"`
	TotalRows   int                           `json:"totalRows"`
	InvalidRows int                           `json:"invalidRows"`
}

func sessionView(s *importer.Session) importSessionView {
	rows := s.Rows()
	return importSessionView{
		ID:          s.ID,
		PartnerID:   s.PartnerID,
		State:       s.State(),
		Rows:        rows,
		TotalRows:   len(rows),
		InvalidRows: s.InvalidCount(),
	}
}

// GetImportTemplate returns the import template definition or file
// GET /api/v1/products/import/template
func (h *ImportHandler) GetImportTemplate(c *gin.Context) {
	format := c.DefaultQuery("format", "json")

	template := models.ProductImportTemplate()

	switch format {
	case "csv":
		h.generateCSVTemplate(c, template)
	case "xlsx":
		h.generateXLSXTemplate(c, template)
	default:
		c.JSON(http.StatusOK, gin.H{
			"success":  true,
			"template": template,
		})
	}
}

// generateCSVTemplate generates and downloads a CSV template (headers only)
func (h *ImportHandler) generateCSVTemplate(c *gin.Context, template models.ImportTemplate) {
	c.Header("Content-Type", "text/csv")
	c.Header("Content-Disposition", "attachment; filename=products_import_template.csv")

	writer := csv.NewWriter(c.Writer)
	defer writer.Flush()

	headers := make([]string, len(template.Columns))
	for i, col := range template.Columns {
		headers[i] = col.Name
	}
	writer.Write(headers)
}

// generateXLSXTemplate generates and downloads an Excel template
func (h *ImportHandler) generateXLSXTemplate(c *gin.Context, template models.ImportTemplate) {
	f := excelize.NewFile()
	defer f.Close()

	sheetName := "Products"
	f.SetSheetName("Sheet1", sheetName)

	headerStyle, _ := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true, Color: "FFFFFF"},
		Fill: excelize.Fill{Type: "pattern", Color: []string{"4472C4"}, Pattern: 1},
		Border: []excelize.Border{
			{Type: "bottom", Color: "000000", Style: 1},
		},
	})

	requiredStyle, _ := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true, Color: "FFFFFF"},
		Fill: excelize.Fill{Type: "pattern", Color: []string{"C65911"}, Pattern: 1},
		Border: []excelize.Border{
			{Type: "bottom", Color: "000000", Style: 1},
		},
	})

	for i, col := range template.Columns {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		headerText := col.Name
		if col.Required {
			headerText = col.Name + " *"
		}
		f.SetCellValue(sheetName, cell, headerText)

		if col.Required {
			f.SetCellStyle(sheetName, cell, cell, requiredStyle)
		} else {
			f.SetCellStyle(sheetName, cell, cell, headerStyle)
		}

		colName, _ := excelize.ColumnNumberToName(i + 1)
		f.SetColWidth(sheetName, colName, colName, 20)
	}

	// Instructions sheet
	f.NewSheet("Instructions")
	f.SetCellValue("Instructions", "A1", "Product Import Instructions")

	f.SetCellValue("Instructions", "A3", "SMART COLUMN MAPPING:")
	f.SetCellValue("Instructions", "A4", "You do not have to use these exact headers. The importer maps your column names")
	f.SetCellValue("Instructions", "A5", "onto the product schema automatically, so 'Product Name', 'Cost' or 'Qty' work too.")
	f.SetCellValue("Instructions", "A6", "Unrecognized columns are kept as product metadata instead of being dropped.")

	f.SetCellValue("Instructions", "A8", "REVIEW BEFORE COMMIT:")
	f.SetCellValue("Instructions", "A9", "Nothing is saved until you confirm the import. Rows with problems are shown for")
	f.SetCellValue("Instructions", "A10", "correction first; only rows without validation errors are committed.")

	f.SetCellValue("Instructions", "A12", "Column Definitions:")
	f.SetCellValue("Instructions", "A13", "Column")
	f.SetCellValue("Instructions", "B13", "Description")
	f.SetCellValue("Instructions", "C13", "Required")
	f.SetCellValue("Instructions", "D13", "Type")
	f.SetCellValue("Instructions", "E13", "Example")

	for i, col := range template.Columns {
		row := i + 14
		f.SetCellValue("Instructions", fmt.Sprintf("A%d", row), col.Name)
		f.SetCellValue("Instructions", fmt.Sprintf("B%d", row), col.Description)
		required := "Optional"
		if col.Required {
			required = "Required"
		}
		f.SetCellValue("Instructions", fmt.Sprintf("C%d", row), required)
		f.SetCellValue("Instructions", fmt.Sprintf("D%d", row), col.Type)
		f.SetCellValue("Instructions", fmt.Sprintf("E%d", row), col.Example)
	}

	f.SetColWidth("Instructions", "A", "A", 25)
	f.SetColWidth("Instructions", "B", "B", 60)
	f.SetColWidth("Instructions", "C", "C", 15)
	f.SetColWidth("Instructions", "D", "D", 15)
	f.SetColWidth("Instructions", "E", "E", 40)

	sheetIdx, _ := f.GetSheetIndex(sheetName)
	f.SetActiveSheet(sheetIdx)

	c.Header("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	c.Header("Content-Disposition", "attachment; filename=products_import_template.xlsx")

	f.Write(c.Writer)
}

// StartImport parses and normalizes an uploaded CSV, returning a review
// session; nothing is persisted at this point
// POST /api/v1/products/import
func (h *ImportHandler) StartImport(c *gin.Context) {
	partnerID := middleware.GetPartnerID(c)

	fileHeader, err := c.FormFile("file")
	if err != nil {
		respondError(c, http.StatusBadRequest, "FILE_REQUIRED", "A CSV file upload named 'file' is required")
		return
	}
	if fileHeader.Size > MaxImportFileSize {
		respondError(c, http.StatusRequestEntityTooLarge, "FILE_TOO_LARGE", "Import file exceeds the 10MB limit")
		return
	}

	file, err := fileHeader.Open()
	if err != nil {
		respondError(c, http.StatusBadRequest, "FILE_UNREADABLE", "Failed to read uploaded file")
		return
	}
	defer file.Close()

	session, err := h.manager.StartImport(c.Request.Context(), partnerID, file)
	if err != nil {
		var parseErr *importer.ParseError
		switch {
		case errors.As(err, &parseErr):
			respondError(c, http.StatusBadRequest, "PARSE_ERROR", "The file could not be parsed: "+parseErr.Error())
		case errors.Is(err, importer.ErrEmptyFile):
			respondError(c, http.StatusBadRequest, "EMPTY_FILE", "The file contains no data rows")
		case errors.Is(err, importer.ErrImportInFlight):
			respondError(c, http.StatusConflict, "IMPORT_IN_FLIGHT", "An import is already in progress for this partner")
		case errors.Is(err, importer.ErrPartnerRequired):
			respondError(c, http.StatusUnauthorized, "PARTNER_REQUIRED", "Partner ID is required")
		default:
			respondError(c, http.StatusInternalServerError, "IMPORT_FAILED", "Failed to start import: "+err.Error())
		}
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"success": true,
		"data":    sessionView(session),
	})
}

// GetImportSession returns the current review state of an import session
// GET /api/v1/products/import/sessions/:id
func (h *ImportHandler) GetImportSession(c *gin.Context) {
	session, ok := h.sessionForRequest(c)
	if !ok {
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    sessionView(session),
	})
}

// EditImportRow applies a correction to one row and re-validates it
// PUT /api/v1/products/import/sessions/:id/rows/:index
func (h *ImportHandler) EditImportRow(c *gin.Context) {
	session, ok := h.sessionForRequest(c)
	if !ok {
		return
	}

	index, err := strconv.Atoi(c.Param("index"))
	if err != nil {
		respondError(c, http.StatusBadRequest, "INVALID_ROW_INDEX", "Row index must be an integer")
		return
	}

	var edit models.ImportRowEdit
	if err := c.ShouldBindJSON(&edit); err != nil {
		respondError(c, http.StatusBadRequest, "INVALID_REQUEST", "Invalid edit payload: "+err.Error())
		return
	}
	if edit.Images != nil && len(*edit.Images) > MaxImagesPerRow {
		respondError(c, http.StatusBadRequest, "VALIDATION_ERROR", fmt.Sprintf("A product can have at most %d images", MaxImagesPerRow))
		return
	}

	row, err := session.EditRow(index, importer.RowEdit{
		Title:       edit.Title,
		Description: edit.Description,
		Price:       edit.Price,
		Currency:    edit.Currency,
		Stock:       edit.Stock,
		Sizes:       edit.Sizes,
		Tags:        edit.Tags,
		Images:      edit.Images,
		Category:    edit.Category,
	})
	if err != nil {
		h.respondSessionError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    row,
	})
}

// DeleteImportRow removes one row from the pending batch
// DELETE /api/v1/products/import/sessions/:id/rows/:index
func (h *ImportHandler) DeleteImportRow(c *gin.Context) {
	session, ok := h.sessionForRequest(c)
	if !ok {
		return
	}

	index, err := strconv.Atoi(c.Param("index"))
	if err != nil {
		respondError(c, http.StatusBadRequest, "INVALID_ROW_INDEX", "Row index must be an integer")
		return
	}

	if err := session.DeleteRow(index); err != nil {
		h.respondSessionError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    sessionView(session),
	})
}

// ConfirmImport commits the batch: valid rows are persisted, invalid rows
// are skipped
// POST /api/v1/products/import/sessions/:id/confirm
func (h *ImportHandler) ConfirmImport(c *gin.Context) {
	session, ok := h.sessionForRequest(c)
	if !ok {
		return
	}

	outcome, err := session.Confirm(c.Request.Context())
	if err != nil {
		if errors.Is(err, importer.ErrInvalidState) {
			h.respondSessionError(c, err)
			return
		}
		// Partial failure: report what was committed before the abort
		c.JSON(http.StatusInternalServerError, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "IMPORT_FAILED",
				"message": err.Error(),
			},
			"data": outcome,
		})
		return
	}

	h.manager.Release(session.ID)

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    outcome,
	})
}

// CancelImport discards the pending batch without persisting anything
// POST /api/v1/products/import/sessions/:id/cancel
func (h *ImportHandler) CancelImport(c *gin.Context) {
	session, ok := h.sessionForRequest(c)
	if !ok {
		return
	}

	if err := session.Cancel(); err != nil {
		h.respondSessionError(c, err)
		return
	}

	h.manager.Release(session.ID)

	message := "Import cancelled"
	c.JSON(http.StatusOK, models.SuccessResponse{Success: true, Message: &message})
}

// sessionForRequest resolves the session from the path and enforces partner
// ownership. A session belonging to another partner reads as not found.
func (h *ImportHandler) sessionForRequest(c *gin.Context) (*importer.Session, bool) {
	sessionID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		respondError(c, http.StatusBadRequest, "INVALID_SESSION_ID", "Session ID must be a valid UUID")
		return nil, false
	}

	session, found := h.manager.Get(sessionID)
	if !found || session.PartnerID != middleware.GetPartnerID(c) {
		respondError(c, http.StatusNotFound, "SESSION_NOT_FOUND", "Import session not found")
		return nil, false
	}

	return session, true
}

func (h *ImportHandler) respondSessionError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, importer.ErrInvalidState):
		respondError(c, http.StatusConflict, "INVALID_STATE", "Operation not allowed in the session's current state")
	case errors.Is(err, importer.ErrRowOutOfRange):
		respondError(c, http.StatusNotFound, "ROW_NOT_FOUND", "Row index out of range")
	default:
		respondError(c, http.StatusInternalServerError, "INTERNAL_ERROR", err.Error())
	}
}

func respondError(c *gin.Context, status int, code, message string) {
	c.JSON(status, models.ErrorResponse{
		Success: false,
		Error:   models.Error{Code: code, Message: message},
	})
}
