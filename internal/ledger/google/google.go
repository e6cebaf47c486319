// Package google adapts the Google Sheets API to the ledger.Store port.
// Each partition is one sheet tab; formula costs round-trip through the
// FORMULA value render option so difference expressions survive reads.
package google

import (
	"context"
	"fmt"
	"net/http"
	"strconv"

	"tally/internal/cache"
	"tally/internal/ledger"

	"google.golang.org/api/option"
	gsheet "google.golang.org/api/sheets/v4"
)

type Client struct {
	svc           *gsheet.Service
	spreadsheetID string

	// sheet name -> sheetId, read-through, scoped to this client (one run)
	sheetIDs cache.Cache[int64]
}

var _ ledger.Store = (*Client)(nil)

// New builds a Sheets-backed ledger store.
func New(ctx context.Context, httpClient *http.Client, spreadsheetID string) (*Client, error) {
	svc, err := gsheet.NewService(ctx, option.WithHTTPClient(httpClient))
	if err != nil {
		return nil, fmt.Errorf("sheets service: %w", err)
	}
	return &Client{
		svc:           svc,
		spreadsheetID: spreadsheetID,
		sheetIDs:      cache.NewLRUCache[int64](128, 0),
	}, nil
}

func (c *Client) ListTabs(ctx context.Context) ([]ledger.Tab, error) {
	resp, err := c.svc.Spreadsheets.Get(c.spreadsheetID).
		Fields("sheets.properties(sheetId,title,index)").
		Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("get spreadsheet: %w", err)
	}
	tabs := make([]ledger.Tab, 0, len(resp.Sheets))
	for _, sh := range resp.Sheets {
		if sh.Properties == nil {
			continue
		}
		c.sheetIDs.Set(sh.Properties.Title, sh.Properties.SheetId)
		tabs = append(tabs, ledger.Tab{Name: sh.Properties.Title, Index: int(sh.Properties.Index)})
	}
	return tabs, nil
}

func (c *Client) ReadRows(ctx context.Context, tab string, layout ledger.Layout) ([]ledger.Row, error) {
	rangeRef := windowRange(tab, layout)
	resp, err := c.svc.Spreadsheets.Values.Get(c.spreadsheetID, rangeRef).
		ValueRenderOption("FORMULA").
		Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", rangeRef, err)
	}

	rows := make([]ledger.Row, layout.Rows)
	for i := range rows {
		if i >= len(resp.Values) {
			break
		}
		cells := resp.Values[i]
		rows[i] = ledger.Row{
			Date:     cellString(cells, 0),
			Name:     cellString(cells, 1),
			Cost:     cellString(cells, 2),
			Category: cellString(cells, layout.CategoryCol()-layout.DateCol),
			Type:     cellString(cells, layout.TypeCol()-layout.DateCol),
		}
	}
	return rows, nil
}

func (c *Client) WriteRows(ctx context.Context, tab string, layout ledger.Layout, start int, rows []ledger.Row) error {
	if len(rows) == 0 {
		return nil
	}
	// Two disjoint column spans: date/name/cost, then category/type. The
	// gap between them may hold user content that must not be clobbered.
	main := make([][]interface{}, len(rows))
	meta := make([][]interface{}, len(rows))
	for i, r := range rows {
		main[i] = []interface{}{r.Date, r.Name, r.Cost}
		meta[i] = []interface{}{r.Category, r.Type}
	}

	firstRow := layout.StartRow + start + 1
	mainRange := fmt.Sprintf("'%s'!%s%d:%s%d", tab,
		colName(layout.DateCol), firstRow, colName(layout.CostCol()), firstRow+len(rows)-1)
	metaRange := fmt.Sprintf("'%s'!%s%d:%s%d", tab,
		colName(layout.CategoryCol()), firstRow, colName(layout.TypeCol()), firstRow+len(rows)-1)

	data := []*gsheet.ValueRange{
		{Range: mainRange, Values: main},
		{Range: metaRange, Values: meta},
	}
	_, err := c.svc.Spreadsheets.Values.BatchUpdate(c.spreadsheetID, &gsheet.BatchUpdateValuesRequest{
		ValueInputOption: "USER_ENTERED",
		Data:             data,
	}).Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("write %s: %w", mainRange, err)
	}
	return nil
}

func (c *Client) ClearRows(ctx context.Context, tab string, layout ledger.Layout, start, count int) error {
	blank := make([]ledger.Row, count)
	return c.WriteRows(ctx, tab, layout, start, blank)
}

func (c *Client) Annotate(ctx context.Context, tab string, layout ledger.Layout, row int, text string, isError bool) error {
	sheetID, err := c.sheetID(ctx, tab)
	if err != nil {
		return err
	}

	cell := &gsheet.CellData{Note: text}
	fields := "note"
	if isError {
		cell.UserEnteredFormat = &gsheet.CellFormat{
			BackgroundColor: &gsheet.Color{Red: 0.96, Green: 0.70, Blue: 0.70},
		}
		fields = "note,userEnteredFormat.backgroundColor"
	}

	req := &gsheet.Request{
		UpdateCells: &gsheet.UpdateCellsRequest{
			Range: &gsheet.GridRange{
				SheetId:          sheetID,
				StartRowIndex:    int64(layout.StartRow + row),
				EndRowIndex:      int64(layout.StartRow + row + 1),
				StartColumnIndex: int64(layout.NameCol()),
				EndColumnIndex:   int64(layout.NameCol() + 1),
			},
			Rows:   []*gsheet.RowData{{Values: []*gsheet.CellData{cell}}},
			Fields: fields,
		},
	}
	return c.batchUpdate(ctx, req)
}

func (c *Client) MarkAmountMissing(ctx context.Context, tab string, layout ledger.Layout, row int) error {
	sheetID, err := c.sheetID(ctx, tab)
	if err != nil {
		return err
	}
	req := &gsheet.Request{
		RepeatCell: &gsheet.RepeatCellRequest{
			Range: &gsheet.GridRange{
				SheetId:          sheetID,
				StartRowIndex:    int64(layout.StartRow + row),
				EndRowIndex:      int64(layout.StartRow + row + 1),
				StartColumnIndex: int64(layout.CostCol()),
				EndColumnIndex:   int64(layout.CostCol() + 1),
			},
			Cell: &gsheet.CellData{
				UserEnteredFormat: &gsheet.CellFormat{
					BackgroundColor: &gsheet.Color{Red: 1, Green: 0.92, Blue: 0.62},
				},
			},
			Fields: "userEnteredFormat.backgroundColor",
		},
	}
	return c.batchUpdate(ctx, req)
}

func (c *Client) DuplicateTab(ctx context.Context, template, newName string, index int) error {
	sheetID, err := c.sheetID(ctx, template)
	if err != nil {
		return err
	}
	req := &gsheet.Request{
		DuplicateSheet: &gsheet.DuplicateSheetRequest{
			SourceSheetId:    sheetID,
			NewSheetName:     newName,
			InsertSheetIndex: int64(index),
		},
	}
	if err := c.batchUpdate(ctx, req); err != nil {
		return err
	}
	// Indexes shifted; drop stale metadata rather than fixing it up.
	c.sheetIDs.Delete(newName)
	return nil
}

func (c *Client) SetTabColor(ctx context.Context, tab, hexColor string) error {
	sheetID, err := c.sheetID(ctx, tab)
	if err != nil {
		return err
	}
	color, err := parseHexColor(hexColor)
	if err != nil {
		return err
	}
	req := &gsheet.Request{
		UpdateSheetProperties: &gsheet.UpdateSheetPropertiesRequest{
			Properties: &gsheet.SheetProperties{
				SheetId:  sheetID,
				TabColor: color,
			},
			Fields: "tabColor",
		},
	}
	return c.batchUpdate(ctx, req)
}

func (c *Client) batchUpdate(ctx context.Context, reqs ...*gsheet.Request) error {
	_, err := c.svc.Spreadsheets.BatchUpdate(c.spreadsheetID, &gsheet.BatchUpdateSpreadsheetRequest{
		Requests: reqs,
	}).Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("spreadsheet batch update: %w", err)
	}
	return nil
}

func (c *Client) sheetID(ctx context.Context, tab string) (int64, error) {
	return cache.GetOrLoad(c.sheetIDs, tab, func() (int64, error) {
		resp, err := c.svc.Spreadsheets.Get(c.spreadsheetID).
			Fields("sheets.properties(sheetId,title)").
			Context(ctx).Do()
		if err != nil {
			return 0, fmt.Errorf("get spreadsheet: %w", err)
		}
		for _, sh := range resp.Sheets {
			if sh.Properties != nil {
				c.sheetIDs.Set(sh.Properties.Title, sh.Properties.SheetId)
			}
		}
		if id, ok := c.sheetIDs.Get(tab); ok {
			return id, nil
		}
		return 0, fmt.Errorf("no sheet named %q", tab)
	})
}

// windowRange renders the A1 range spanning the whole transaction window,
// from the date column through the type column.
func windowRange(tab string, layout ledger.Layout) string {
	return fmt.Sprintf("'%s'!%s%d:%s%d", tab,
		colName(layout.DateCol), layout.StartRow+1,
		colName(layout.TypeCol()), layout.StartRow+layout.Rows)
}

func colName(col int) string {
	name := ""
	for col >= 0 {
		name = string(rune('A'+col%26)) + name
		col = col/26 - 1
	}
	return name
}

func cellString(cells []interface{}, idx int) string {
	if idx < 0 || idx >= len(cells) {
		return ""
	}
	switch v := cells[idx].(type) {
	case string:
		return v
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	case nil:
		return ""
	default:
		return fmt.Sprint(v)
	}
}
