//go:build integration

package google

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/Jeffrog22/Lista-de-Chamada-Web/internal/core"
)

// Integration tests require a real spreadsheet shared with the service account.
// Run with: go test -tags=integration ./internal/sheets/google

func TestIntegration_PublishFlow(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}
	spreadsheetID := os.Getenv("GOOGLE_SPREADSHEET_ID")
	if spreadsheetID == "" {
		t.Skip("GOOGLE_SPREADSHEET_ID not set, skipping integration test")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	client, err := New(ctx, Options{
		SpreadsheetID:   spreadsheetID,
		CredentialsJSON: os.Getenv("GOOGLE_SERVICE_ACCOUNT_JSON"),
		CredentialsFile: os.Getenv("GOOGLE_SERVICE_ACCOUNT_FILE"),
	})
	if err != nil {
		t.Fatalf("Failed to create client: %v", err)
	}

	month := "1999-01"
	reports := []core.ClassReport{{
		Label: "Integração", Schedule: "0900", Teacher: "Teste",
		Students: []core.StudentReport{{Name: "Aluno Teste", Present: 1, Frequency: 100, History: map[string]string{"05": "c"}}},
	}}
	if err := client.PublishClassReports(ctx, month, reports); err != nil {
		t.Fatalf("PublishClassReports: %v", err)
	}
	// Publishing twice must replace rather than append.
	if err := client.PublishClassReports(ctx, month, reports); err != nil {
		t.Fatalf("PublishClassReports (again): %v", err)
	}

	resp, err := client.svc.Spreadsheets.Values.Get(spreadsheetID, quote(ReportsSheetName(month))).Context(ctx).Do()
	if err != nil {
		t.Fatalf("read back: %v", err)
	}
	if len(resp.Values) != len(MonthValues(month, reports)) {
		t.Errorf("expected %d rows, got %d", len(MonthValues(month, reports)), len(resp.Values))
	}
}
