// Package gsheets implements the sheet store on the Google Sheets REST API v4.
package gsheets

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"strings"

	"go.uber.org/zap"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"

	"law-reports-backend/internal/apperr"
	"law-reports-backend/internal/models"
	"law-reports-backend/internal/repository"
)

const (
	defaultBaseURL = "https://sheets.googleapis.com/v4/spreadsheets/"
	scope          = "https://www.googleapis.com/auth/spreadsheets"
)

// Store talks to a single spreadsheet. Each logical sheet is one tab.
type Store struct {
	client        *http.Client
	baseURL       string
	spreadsheetID string
	log           *zap.Logger
}

// New builds a store authenticated with a service account credentials file.
func New(ctx context.Context, spreadsheetID, credentialsFile string, log *zap.Logger) (*Store, error) {
	data, err := os.ReadFile(credentialsFile)
	if err != nil {
		return nil, fmt.Errorf("reading credentials: %w", err)
	}
	creds, err := google.CredentialsFromJSON(ctx, data, scope)
	if err != nil {
		return nil, fmt.Errorf("parsing credentials: %w", err)
	}
	return NewWithClient(oauth2.NewClient(ctx, creds.TokenSource), defaultBaseURL, spreadsheetID, log), nil
}

// NewWithClient is used by tests to point the store at a fake server.
func NewWithClient(client *http.Client, baseURL, spreadsheetID string, log *zap.Logger) *Store {
	if log == nil {
		log = zap.NewNop()
	}
	if !strings.HasSuffix(baseURL, "/") {
		baseURL += "/"
	}
	return &Store{client: client, baseURL: baseURL, spreadsheetID: spreadsheetID, log: log}
}

type spreadsheet struct {
	Sheets []struct {
		Properties struct {
			Title string `json:"title"`
		} `json:"properties"`
	} `json:"sheets"`
}

type valueRange struct {
	Range  string          `json:"range,omitempty"`
	Values [][]interface{} `json:"values"`
}

func (s *Store) ListSheets(ctx context.Context) ([]string, error) {
	var meta spreadsheet
	if err := s.do(ctx, "list sheets", http.MethodGet, "?fields=sheets.properties.title", nil, &meta); err != nil {
		return nil, err
	}
	names := make([]string, 0, len(meta.Sheets))
	for _, sh := range meta.Sheets {
		names = append(names, sh.Properties.Title)
	}
	return names, nil
}

func (s *Store) Exists(ctx context.Context, sheet string) (bool, error) {
	names, err := s.ListSheets(ctx)
	if err != nil {
		return false, err
	}
	for _, n := range names {
		if n == sheet {
			return true, nil
		}
	}
	return false, nil
}

func (s *Store) Read(ctx context.Context, sheet string) (models.Table, error) {
	ok, err := s.Exists(ctx, sheet)
	if err != nil {
		return models.Table{}, err
	}
	if !ok {
		return models.Table{}, apperr.Fatal("read "+sheet, fmt.Errorf("%w: %s", repository.ErrSheetNotFound, sheet))
	}

	var vr valueRange
	if err := s.do(ctx, "read "+sheet, http.MethodGet, "/values/"+quoteRange(sheet), nil, &vr); err != nil {
		return models.Table{}, err
	}
	var t models.Table
	for i, row := range vr.Values {
		cells := make([]string, len(row))
		for j, v := range row {
			cells[j] = fmt.Sprint(v)
		}
		if i == 0 {
			t.Header = cells
			continue
		}
		t.Rows = append(t.Rows, cells)
	}
	return t, nil
}

func (s *Store) Append(ctx context.Context, sheet string, rows [][]string) error {
	if len(rows) == 0 {
		return nil
	}
	path := "/values/" + quoteRange(sheet) + ":append?valueInputOption=RAW&insertDataOption=INSERT_ROWS"
	return s.do(ctx, "append "+sheet, http.MethodPost, path, valueRange{Values: toValues(rows)}, nil)
}

// Overwrite writes table over the tab in place and only then clears the rows
// the old content had past the new end, so a failed write never leaves the tab empty.
func (s *Store) Overwrite(ctx context.Context, sheet string, table models.Table) error {
	ok, err := s.Exists(ctx, sheet)
	if err != nil {
		return err
	}
	rng := quoteRange(sheet)
	var old valueRange
	if ok {
		if err := s.do(ctx, "read "+sheet, http.MethodGet, "/values/"+rng, nil, &old); err != nil {
			return err
		}
	} else {
		body := map[string]interface{}{
			"requests": []interface{}{
				map[string]interface{}{
					"addSheet": map[string]interface{}{
						"properties": map[string]string{"title": sheet},
					},
				},
			},
		}
		if err := s.do(ctx, "create "+sheet, http.MethodPost, ":batchUpdate", body, nil); err != nil {
			return err
		}
		s.log.Info("created sheet", zap.String("sheet", sheet))
	}

	oldWidth := 0
	for _, row := range old.Values {
		if len(row) > oldWidth {
			oldWidth = len(row)
		}
	}
	all := append([][]string{table.Header}, table.Rows...)
	values := toValues(all)
	// blank out cells of old columns the new rows no longer reach
	for i, row := range values {
		for len(row) < oldWidth {
			row = append(row, "")
		}
		values[i] = row
	}
	if err := s.do(ctx, "overwrite "+sheet, http.MethodPut, "/values/"+rng+"?valueInputOption=RAW",
		valueRange{Range: sheet, Values: values}, nil); err != nil {
		return err
	}

	if len(old.Values) > len(all) {
		tail := rowRange(sheet, len(all)+1, len(old.Values))
		if err := s.do(ctx, "clear "+sheet, http.MethodPost, "/values/"+tail+":clear", struct{}{}, nil); err != nil {
			return err
		}
	}
	return nil
}

func (s *Store) do(ctx context.Context, op, method, path string, in, out interface{}) error {
	var body io.Reader
	if in != nil {
		buf, err := json.Marshal(in)
		if err != nil {
			return apperr.Fatal(op, err)
		}
		body = bytes.NewReader(buf)
	}

	req, err := http.NewRequestWithContext(ctx, method, s.baseURL+s.spreadsheetID+path, body)
	if err != nil {
		return apperr.Fatal(op, err)
	}
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return apperr.Transient(op, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return classifyStatus(op, resp.StatusCode, strings.TrimSpace(string(msg)))
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return apperr.Fatal(op, fmt.Errorf("decoding response: %w", err))
	}
	return nil
}

func classifyStatus(op string, code int, msg string) error {
	err := fmt.Errorf("sheets api returned %d: %s", code, msg)
	switch {
	case code == http.StatusTooManyRequests, code >= 500:
		return apperr.Transient(op, err)
	case code == http.StatusNotFound:
		return apperr.Fatal(op, fmt.Errorf("%w: %v", repository.ErrSheetNotFound, err))
	default:
		return apperr.Fatal(op, err)
	}
}

// quoteRange addresses a whole tab, e.g. 'Call_Report_Master'.
func quoteRange(sheet string) string {
	return url.PathEscape("'" + strings.ReplaceAll(sheet, "'", "''") + "'")
}

// rowRange addresses whole rows from..to (1-based, inclusive), e.g. 'Batch_Registry'!4:9.
func rowRange(sheet string, from, to int) string {
	return url.PathEscape(fmt.Sprintf("'%s'!%d:%d", strings.ReplaceAll(sheet, "'", "''"), from, to))
}

func toValues(rows [][]string) [][]interface{} {
	out := make([][]interface{}, len(rows))
	for i, r := range rows {
		vals := make([]interface{}, len(r))
		for j, c := range r {
			vals[j] = c
		}
		out[i] = vals
	}
	return out
}
