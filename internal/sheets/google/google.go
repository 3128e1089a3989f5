// Package google implements the spreadsheet mirror on the Google
// Sheets API with service-account credentials.
package google

import (
	"context"
	"errors"
	"fmt"
	"os"

	goption "google.golang.org/api/option"
	gsheet "google.golang.org/api/sheets/v4"

	"registro/internal/config"
	"registro/internal/core"
	"registro/internal/log"
	"registro/internal/sheets"
)

// headerRow mirrors the CSV export column order, with the record id and
// owner appended so rows stay traceable.
var headerRow = []string{"Data", "Tipo", "Categoria", "Importo", "Note", "ID", "Utente"}

const rowDateLayout = "02/01/2006"

type Client struct {
	svc           *gsheet.Service
	spreadsheetID string
	sheetName     string
	logger        *log.Logger
}

var _ sheets.RowAppender = (*Client)(nil)

// NewFromConfig builds the client from the application configuration.
// Credentials come inline from GOOGLE_CREDENTIALS_JSON or from the file
// named by GOOGLE_CREDENTIALS_FILE.
func NewFromConfig(ctx context.Context, cfg *config.Config) (*Client, error) {
	if err := cfg.ValidateSheets(); err != nil {
		return nil, err
	}

	credentialsJSON := []byte(cfg.GoogleCredentialsJSON)
	if len(credentialsJSON) == 0 {
		data, err := os.ReadFile(cfg.GoogleCredentialsFile)
		if err != nil {
			return nil, fmt.Errorf("read credentials file: %w", err)
		}
		credentialsJSON = data
	}

	svc, err := gsheet.NewService(ctx,
		goption.WithCredentialsJSON(credentialsJSON),
		goption.WithScopes(gsheet.SpreadsheetsScope))
	if err != nil {
		return nil, fmt.Errorf("create sheets service: %w", err)
	}

	logger := log.Component(log.ComponentSheets)
	logger.InfoContext(ctx, "Google Sheets client created",
		"spreadsheet_id", cfg.GoogleSpreadsheetID,
		"sheet_name", cfg.GoogleSheetName)

	return &Client{
		svc:           svc,
		spreadsheetID: cfg.GoogleSpreadsheetID,
		sheetName:     cfg.GoogleSheetName,
		logger:        logger,
	}, nil
}

// AppendTransaction appends one transaction row after the last used row
// of the sheet and returns the updated range reference.
func (c *Client) AppendTransaction(ctx context.Context, tx core.Transaction) (string, error) {
	if c.svc == nil {
		return "", errors.New("sheets service not initialized")
	}

	row := []any{
		tx.Date.Format(rowDateLayout),
		typeLabel(tx.Type),
		tx.Category,
		tx.Amount.String(),
		tx.Notes,
		tx.ID,
		tx.UserID,
	}

	rng := fmt.Sprintf("%s!A:G", c.sheetName)
	resp, err := c.svc.Spreadsheets.Values.Append(c.spreadsheetID, rng, &gsheet.ValueRange{
		Values: [][]any{row},
	}).ValueInputOption("USER_ENTERED").InsertDataOption("INSERT_ROWS").Context(ctx).Do()
	if err != nil {
		return "", fmt.Errorf("append to sheet %s: %w", c.sheetName, err)
	}

	ref := ""
	if resp.Updates != nil {
		ref = resp.Updates.UpdatedRange
	}

	c.logger.InfoContext(ctx, "Appended transaction row",
		log.FieldSheetsRef, ref,
		log.FieldTransactionID, tx.ID,
		log.FieldOperation, log.OpAppend)

	return ref, nil
}

// EnsureHeader writes the header row when the sheet is still empty.
func (c *Client) EnsureHeader(ctx context.Context) error {
	if c.svc == nil {
		return errors.New("sheets service not initialized")
	}

	rng := fmt.Sprintf("%s!A1:G1", c.sheetName)
	resp, err := c.svc.Spreadsheets.Values.Get(c.spreadsheetID, rng).Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("read header row: %w", err)
	}
	if len(resp.Values) > 0 {
		return nil
	}

	row := make([]any, len(headerRow))
	for i, h := range headerRow {
		row[i] = h
	}
	_, err = c.svc.Spreadsheets.Values.Update(c.spreadsheetID, rng, &gsheet.ValueRange{
		Values: [][]any{row},
	}).ValueInputOption("RAW").Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("write header row: %w", err)
	}

	c.logger.InfoContext(ctx, "Header row written", "sheet_name", c.sheetName)
	return nil
}

func typeLabel(t core.Type) string {
	if t == core.Income {
		return "Entrata"
	}
	return "Uscita"
}
