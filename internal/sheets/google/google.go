package google

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"sync"

	"ledger/internal/core"
	ports "ledger/internal/sheets"

	goption "google.golang.org/api/option"
	gsheet "google.golang.org/api/sheets/v4"
)

const (
	defaultSheetName = "Ledger"
	// Values are written verbatim so dates and decimal strings are not reinterpreted.
	valueInputOption = "RAW"
	columns          = "A:E"
)

// Config selects the spreadsheet and the service account used to reach it.
type Config struct {
	SpreadsheetID   string
	SheetName       string
	CredentialsJSON string
	CredentialsFile string
}

type Client struct {
	svc           *gsheet.Service
	spreadsheetID string
	sheet         string

	mu      sync.Mutex
	sheetID *int64
}

var (
	_ ports.TransactionMirror = (*Client)(nil)
	_ ports.MirrorReader      = (*Client)(nil)
)

// New creates a Sheets client authenticated with service account credentials.
func New(ctx context.Context, cfg Config) (*Client, error) {
	if strings.TrimSpace(cfg.SpreadsheetID) == "" {
		return nil, errors.New("missing spreadsheet id")
	}
	creds, err := loadCredentials(cfg)
	if err != nil {
		return nil, err
	}
	svc, err := gsheet.NewService(ctx,
		goption.WithCredentialsJSON(creds),
		goption.WithScopes(gsheet.SpreadsheetsScope))
	if err != nil {
		return nil, fmt.Errorf("create sheets service: %w", err)
	}
	slog.InfoContext(ctx, "Google Sheets service created", "spreadsheet_id", cfg.SpreadsheetID, "sheet", sheetName(cfg.SheetName))
	return NewWithService(svc, cfg.SpreadsheetID, cfg.SheetName), nil
}

// NewWithService wraps an already configured service.
func NewWithService(svc *gsheet.Service, spreadsheetID, sheet string) *Client {
	return &Client{svc: svc, spreadsheetID: spreadsheetID, sheet: sheetName(sheet)}
}

func sheetName(s string) string {
	if s = strings.TrimSpace(s); s == "" {
		return defaultSheetName
	}
	return s
}

func loadCredentials(cfg Config) ([]byte, error) {
	switch {
	case strings.TrimSpace(cfg.CredentialsJSON) != "":
		return []byte(cfg.CredentialsJSON), nil
	case strings.TrimSpace(cfg.CredentialsFile) != "":
		b, err := os.ReadFile(cfg.CredentialsFile)
		if err != nil {
			return nil, fmt.Errorf("read service account file: %w", err)
		}
		return b, nil
	default:
		return nil, errors.New("missing service account credentials (set GOOGLE_SERVICE_ACCOUNT_JSON, GOOGLE_SERVICE_ACCOUNT_FILE, or GOOGLE_APPLICATION_CREDENTIALS)")
	}
}

func (c *Client) rng(r string) string {
	return fmt.Sprintf("%s!%s", c.sheet, r)
}

func (c *Client) readRows(ctx context.Context) ([][]any, error) {
	if c.svc == nil {
		return nil, errors.New("sheets service not initialized")
	}
	resp, err := c.svc.Spreadsheets.Values.Get(c.spreadsheetID, c.rng(columns)).
		ValueRenderOption("UNFORMATTED_VALUE").Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", c.rng(columns), err)
	}
	return resp.Values, nil
}

func (c *Client) writeRange(ctx context.Context, r string, values [][]any) error {
	vr := &gsheet.ValueRange{Values: values}
	_, err := c.svc.Spreadsheets.Values.Update(c.spreadsheetID, c.rng(r), vr).
		ValueInputOption(valueInputOption).Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("update %s: %w", c.rng(r), err)
	}
	return nil
}

// Upsert rewrites the row holding t.ID, or appends one when it is not mirrored yet.
func (c *Client) Upsert(ctx context.Context, t core.Transaction) error {
	rows, err := c.readRows(ctx)
	if err != nil {
		return err
	}
	if len(rows) == 0 {
		if err := c.writeRange(ctx, "A1:E1", [][]any{header()}); err != nil {
			return err
		}
		rows = [][]any{header()}
	}

	if n := findRow(rows, t.ID); n > 0 {
		slog.DebugContext(ctx, "Updating mirrored row", "id", t.ID, "row", n)
		return c.writeRange(ctx, fmt.Sprintf("A%d:E%d", n, n), [][]any{toRow(t)})
	}

	vr := &gsheet.ValueRange{Values: [][]any{toRow(t)}}
	_, err = c.svc.Spreadsheets.Values.Append(c.spreadsheetID, c.rng(columns), vr).
		ValueInputOption(valueInputOption).InsertDataOption("INSERT_ROWS").Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("append to %s: %w", c.sheet, err)
	}
	slog.DebugContext(ctx, "Appended mirrored row", "id", t.ID)
	return nil
}

// Remove deletes the sheet row for id.
func (c *Client) Remove(ctx context.Context, id int64) error {
	rows, err := c.readRows(ctx)
	if err != nil {
		return err
	}
	n := findRow(rows, id)
	if n == 0 {
		slog.DebugContext(ctx, "Row not mirrored, nothing to remove", "id", id)
		return nil
	}
	sid, err := c.lookupSheetID(ctx)
	if err != nil {
		return err
	}
	req := &gsheet.BatchUpdateSpreadsheetRequest{
		Requests: []*gsheet.Request{{
			DeleteDimension: &gsheet.DeleteDimensionRequest{
				Range: &gsheet.DimensionRange{
					SheetId:    sid,
					Dimension:  "ROWS",
					StartIndex: int64(n - 1),
					EndIndex:   int64(n),
				},
			},
		}},
	}
	if _, err := c.svc.Spreadsheets.BatchUpdate(c.spreadsheetID, req).Context(ctx).Do(); err != nil {
		return fmt.Errorf("delete row %d in %s: %w", n, c.sheet, err)
	}
	return nil
}

// ReplaceAll rewrites the sheet with txs. Nothing is written when the sheet already matches.
func (c *Client) ReplaceAll(ctx context.Context, txs []core.Transaction) error {
	rows, err := c.readRows(ctx)
	if err != nil {
		return err
	}
	if len(rows) > 0 && sameTransactions(parseRows(ctx, rows), txs) {
		slog.DebugContext(ctx, "Mirror already in sync", "rows", len(txs))
		return nil
	}

	if _, err := c.svc.Spreadsheets.Values.Clear(c.spreadsheetID, c.rng(columns), &gsheet.ClearValuesRequest{}).
		Context(ctx).Do(); err != nil {
		return fmt.Errorf("clear %s: %w", c.sheet, err)
	}
	values := make([][]any, 0, len(txs)+1)
	values = append(values, header())
	for _, t := range txs {
		values = append(values, toRow(t))
	}
	if err := c.writeRange(ctx, fmt.Sprintf("A1:E%d", len(values)), values); err != nil {
		return err
	}
	slog.InfoContext(ctx, "Mirror rewritten", "sheet", c.sheet, "rows", len(txs))
	return nil
}

// Snapshot returns the transactions currently in the sheet.
func (c *Client) Snapshot(ctx context.Context) ([]core.Transaction, error) {
	rows, err := c.readRows(ctx)
	if err != nil {
		return nil, err
	}
	return parseRows(ctx, rows), nil
}

func (c *Client) lookupSheetID(ctx context.Context) (int64, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.sheetID != nil {
		return *c.sheetID, nil
	}
	resp, err := c.svc.Spreadsheets.Get(c.spreadsheetID).Fields("sheets.properties").Context(ctx).Do()
	if err != nil {
		return 0, fmt.Errorf("get spreadsheet: %w", err)
	}
	for _, s := range resp.Sheets {
		if s.Properties != nil && s.Properties.Title == c.sheet {
			id := s.Properties.SheetId
			c.sheetID = &id
			return id, nil
		}
	}
	return 0, fmt.Errorf("sheet %q not found in spreadsheet", c.sheet)
}
