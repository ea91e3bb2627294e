package store

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/azairamail/EASYAiPOS/internal/domain"
	"github.com/azairamail/EASYAiPOS/internal/snapshot"
)

// createTestStore opens a fresh store in a temp directory.
func createTestStore(t *testing.T) *Store {
	t.Helper()
	path := filepath.Join(t.TempDir(), "test.db")
	s, err := Open(path)
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

var testTime = time.Date(2024, 3, 1, 12, 30, 0, 0, time.UTC)

// createTestSnapshot is a small restaurant with one running order.
func createTestSnapshot() snapshot.Snapshot {
	settings := domain.DefaultSettings()
	settings.StoreName = "Test Kitchen"
	settings.InvoiceStartingNumber = 1002

	line := domain.CartItem{
		CartItemID: "L1",
		ItemID:     "M1",
		Name:       "Kacchi",
		Category:   "Rice",
		Price:      decimal.RequireFromString("350"),
		Quantity:   2,
		IsPrinted:  true,
	}
	admin := domain.DefaultAdmin()

	return snapshot.Snapshot{
		Orders: map[string]domain.Order{
			"O1": {
				ID:            "O1",
				InvoiceNumber: "INV-1001",
				TableID:       "T1",
				Items:         []domain.CartItem{line},
				Status:        domain.StatusPending,
				Type:          domain.OrderDineIn,
				Timestamp:     testTime,
				TotalAmount:   decimal.RequireFromString("735"),
			},
		},
		Menu: map[string]domain.MenuItem{
			"M1": {ID: "M1", Name: "Kacchi", Category: "Rice", Price: decimal.RequireFromString("350"), InStock: true},
		},
		Tables: map[string]domain.Table{
			"T1": {ID: "T1", Name: "Table 1", Status: domain.TableOccupied, CurrentOrderID: "O1"},
			"T2": {ID: "T2", Name: "Table 2", Status: domain.TableAvailable},
		},
		Inventory: map[string]domain.InventoryItem{
			"I1": {ID: "I1", Name: "Rice", Quantity: decimal.RequireFromString("12.5"), Unit: "kg", Threshold: decimal.RequireFromString("2")},
		},
		Settings:    settings,
		TeamMembers: map[string]domain.TeamMember{admin.ID: admin},
	}
}
