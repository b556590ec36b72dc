package sheets

import (
	"context"
	"fmt"
	"strings"

	"golang.org/x/oauth2/jwt"
	"google.golang.org/api/option"
	"google.golang.org/api/sheets/v4"
)

const spreadsheetScope = "https://www.googleapis.com/auth/spreadsheets"

// Config holds the connection settings for the Google Sheets backend.
type Config struct {
	SpreadsheetID string
	ClientEmail   string
	PrivateKey    string
	SheetName     string
}

// DefaultSheetName is the tab that holds the order rows.
const DefaultSheetName = "Orders"

// NewService builds an authenticated Sheets API client from service
// account credentials.
func NewService(ctx context.Context, config Config) (*sheets.Service, error) {
	if config.SpreadsheetID == "" {
		return nil, fmt.Errorf("sheets: spreadsheet ID is required")
	}
	if config.ClientEmail == "" || config.PrivateKey == "" {
		return nil, fmt.Errorf("sheets: service account credentials are required")
	}

	jwtConfig := &jwt.Config{
		Email: config.ClientEmail,
		// Private keys delivered through env vars carry escaped newlines.
		PrivateKey: []byte(strings.ReplaceAll(config.PrivateKey, `\n`, "\n")),
		Scopes:     []string{spreadsheetScope},
		TokenURL:   "https://oauth2.googleapis.com/token",
	}

	service, err := sheets.NewService(ctx, option.WithTokenSource(jwtConfig.TokenSource(ctx)))
	if err != nil {
		return nil, fmt.Errorf("failed to create sheets service: %w", err)
	}
	return service, nil
}

// columnLetter converts a zero-based column index into its A1 notation
// letter, e.g. 0 -> "A", 25 -> "Z", 26 -> "AA".
func columnLetter(index int) string {
	letter := ""
	for index >= 0 {
		letter = string(rune('A'+index%26)) + letter
		index = index/26 - 1
	}
	return letter
}

// headerIndex resolves a column by its header text, case-insensitively
// and ignoring surrounding whitespace. Returns -1 when absent.
func headerIndex(headers []interface{}, name string) int {
	for i, h := range headers {
		if strings.EqualFold(strings.TrimSpace(cellString(h)), name) {
			return i
		}
	}
	return -1
}

func cellString(cell interface{}) string {
	if cell == nil {
		return ""
	}
	if s, ok := cell.(string); ok {
		return s
	}
	return fmt.Sprintf("%v", cell)
}
