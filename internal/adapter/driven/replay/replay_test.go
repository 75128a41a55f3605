package replay

import (
	"context"
	"os"
	"path/filepath"
	"reflect"
	"testing"
	"time"
)

func TestLoadFixture(t *testing.T) {
	path := filepath.Join(t.TempDir(), "fixture.json")
	content := `{
		"account_id": "123456789012",
		"daily_costs": [
			{"date": "2026-03-03", "amount": 120.5},
			{"date": "2026-03-01", "amount": 100.0},
			{"date": "2026-03-02", "amount": 110.25}
		],
		"by_service": {"Amazon EC2": 200.0, "Amazon S3": 130.75},
		"budgets": [{"name": "monthly", "limit": 5000, "actual": 3300}]
	}`
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatal(err)
	}

	l, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	asOf := time.Date(2026, 3, 4, 12, 0, 0, 0, time.UTC)
	data, err := l.GetCostData(context.Background(), 30, asOf)
	if err != nil {
		t.Fatalf("GetCostData: %v", err)
	}

	if data.AccountID != "123456789012" {
		t.Errorf("account = %q", data.AccountID)
	}
	if len(data.DailyCosts) != 3 {
		t.Fatalf("got %d points, want 3", len(data.DailyCosts))
	}
	// Sorted ascending regardless of file order.
	for i := 1; i < len(data.DailyCosts); i++ {
		if !data.DailyCosts[i-1].Date.Before(data.DailyCosts[i].Date) {
			t.Errorf("points not ascending: %v", data.DailyCosts)
		}
	}
	if data.TotalCost != 330.75 {
		t.Errorf("total = %f, want 330.75", data.TotalCost)
	}

	budgets, err := l.GetBudgets(context.Background())
	if err != nil {
		t.Fatalf("GetBudgets: %v", err)
	}
	if len(budgets) != 1 || budgets[0].Limit != 5000 {
		t.Errorf("budgets = %+v", budgets)
	}
}

func TestLoadFixtureWindow(t *testing.T) {
	path := filepath.Join(t.TempDir(), "fixture.json")
	content := `{
		"account_id": "a",
		"daily_costs": [
			{"date": "2026-03-01", "amount": 1},
			{"date": "2026-03-02", "amount": 2},
			{"date": "2026-03-03", "amount": 4},
			{"date": "2026-03-04", "amount": 8}
		]
	}`
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatal(err)
	}

	l, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	// A 2-day window ending at asOf=03-04 covers 03-02 and 03-03 only;
	// the as-of day itself is excluded.
	asOf := time.Date(2026, 3, 4, 0, 0, 0, 0, time.UTC)
	data, err := l.GetCostData(context.Background(), 2, asOf)
	if err != nil {
		t.Fatalf("GetCostData: %v", err)
	}
	if len(data.DailyCosts) != 2 {
		t.Fatalf("got %d points, want 2: %+v", len(data.DailyCosts), data.DailyCosts)
	}
	if data.TotalCost != 6 {
		t.Errorf("total = %f, want 6", data.TotalCost)
	}
}

func TestLoadRejectsBadFixtures(t *testing.T) {
	dir := t.TempDir()

	tests := []struct {
		name    string
		content string
	}{
		{"empty series", `{"account_id": "a", "daily_costs": []}`},
		{"bad date", `{"daily_costs": [{"date": "03/01/2026", "amount": 1}]}`},
		{"duplicate date", `{"daily_costs": [{"date": "2026-03-01", "amount": 1}, {"date": "2026-03-01", "amount": 2}]}`},
		{"not json", `hello`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(dir, tt.name+".json")
			if err := os.WriteFile(path, []byte(tt.content), 0o600); err != nil {
				t.Fatal(err)
			}
			if _, err := Load(path); err == nil {
				t.Error("Load accepted a bad fixture")
			}
		})
	}
}

func TestDemoIsDeterministic(t *testing.T) {
	d := NewDemo()
	asOf := time.Date(2026, 3, 15, 9, 30, 0, 0, time.UTC)

	first, err := d.GetCostData(context.Background(), 30, asOf)
	if err != nil {
		t.Fatalf("GetCostData: %v", err)
	}
	second, err := d.GetCostData(context.Background(), 30, asOf)
	if err != nil {
		t.Fatalf("GetCostData: %v", err)
	}
	if !reflect.DeepEqual(first, second) {
		t.Fatal("demo data differs between runs")
	}

	if len(first.DailyCosts) != 30 {
		t.Fatalf("got %d points, want 30", len(first.DailyCosts))
	}
	for _, p := range first.DailyCosts {
		if p.Amount <= 0 {
			t.Errorf("non-positive demo cost on %s: %f", p.Date, p.Amount)
		}
		if !p.Date.Before(asOf) {
			t.Errorf("demo point on or after asOf: %s", p.Date)
		}
	}
	if len(first.ByService) == 0 {
		t.Error("demo data has no service breakdown")
	}
}

func TestDemoContainsSpike(t *testing.T) {
	d := NewDemo()
	asOf := time.Date(2026, 3, 15, 0, 0, 0, 0, time.UTC)

	data, err := d.GetCostData(context.Background(), 30, asOf)
	if err != nil {
		t.Fatalf("GetCostData: %v", err)
	}

	var sum float64
	for _, p := range data.DailyCosts {
		sum += p.Amount
	}
	mean := sum / float64(len(data.DailyCosts))

	var maxAmount float64
	for _, p := range data.DailyCosts {
		if p.Amount > maxAmount {
			maxAmount = p.Amount
		}
	}
	if maxAmount < 2*mean {
		t.Errorf("max %f is not a clear spike over mean %f", maxAmount, mean)
	}
}
