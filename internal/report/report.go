// Package report aggregates sales figures from the order history.
package report

import (
	"encoding/csv"
	"fmt"
	"io"
	"sort"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/azairamail/EASYAiPOS/internal/domain"
	"github.com/azairamail/EASYAiPOS/internal/pos"
)

// TopItemsLimit caps Summary.TopItems.
const TopItemsLimit = 8

// grossMargin is the flat margin used for the profit estimate.
var grossMargin = decimal.RequireFromString("0.6")

type HourBucket struct {
	Hour   int             `json:"hour"`
	Label  string          `json:"label"`
	Sales  decimal.Decimal `json:"sales"`
	Orders int             `json:"orders"`
}

type ItemStat struct {
	Name     string          `json:"name"`
	Quantity int             `json:"quantity"`
	Revenue  decimal.Decimal `json:"revenue"`
}

type Amount struct {
	Name  string          `json:"name"`
	Value decimal.Decimal `json:"value"`
}

type Count struct {
	Name  string `json:"name"`
	Value int    `json:"value"`
}

// Summary is the reports dashboard. Cancelled orders are excluded
// everywhere.
type Summary struct {
	TotalSales     decimal.Decimal        `json:"totalSales"`
	OrderCount     int                    `json:"orderCount"`
	AverageOrder   decimal.Decimal        `json:"averageOrder"`
	EstGrossProfit decimal.Decimal        `json:"estGrossProfit"`
	Hourly         []HourBucket           `json:"hourly"`
	TopItems       []ItemStat             `json:"topItems"`
	Payments       []Amount               `json:"payments"`
	OrderTypes     []Count                `json:"orderTypes"`
	Categories     []Amount               `json:"categories"`
	LowStock       []domain.InventoryItem `json:"lowStock"`
}

// Summarize builds the dashboard for st. Hours are read in loc.
func Summarize(st pos.State, loc *time.Location) Summary {
	if loc == nil {
		loc = time.Local
	}

	s := Summary{
		TotalSales:     decimal.Zero,
		AverageOrder:   decimal.Zero,
		EstGrossProfit: decimal.Zero,
		Hourly:         []HourBucket{},
		TopItems:       []ItemStat{},
		Payments:       []Amount{},
		OrderTypes:     []Count{},
		Categories:     []Amount{},
		LowStock:       []domain.InventoryItem{},
	}

	var hours [24]HourBucket
	for h := range hours {
		hours[h] = HourBucket{Hour: h, Label: hourLabel(h), Sales: decimal.Zero}
	}
	items := map[string]*ItemStat{}
	payments := map[string]decimal.Decimal{}
	types := map[string]int{}
	categories := map[string]decimal.Decimal{}

	for _, o := range st.Orders {
		if o.Status == domain.StatusCancelled {
			continue
		}
		s.TotalSales = s.TotalSales.Add(o.TotalAmount)
		s.OrderCount++

		if !o.Timestamp.IsZero() {
			h := o.Timestamp.In(loc).Hour()
			hours[h].Sales = hours[h].Sales.Add(o.TotalAmount)
			hours[h].Orders++
		}
		if o.PaymentMethod != "" {
			payments[string(o.PaymentMethod)] = payments[string(o.PaymentMethod)].Add(o.TotalAmount)
		}
		types[strings.ReplaceAll(string(o.Type), "_", " ")]++

		for _, line := range o.Items {
			revenue := line.Price.Mul(decimal.NewFromInt(int64(line.Quantity)))
			stat, ok := items[line.Name]
			if !ok {
				stat = &ItemStat{Name: line.Name, Revenue: decimal.Zero}
				items[line.Name] = stat
			}
			stat.Quantity += line.Quantity
			stat.Revenue = stat.Revenue.Add(revenue)
			categories[line.Category] = categories[line.Category].Add(revenue)
		}
	}

	if s.OrderCount > 0 {
		s.AverageOrder = s.TotalSales.DivRound(decimal.NewFromInt(int64(s.OrderCount)), 2)
		for _, b := range hours {
			if b.Sales.IsPositive() || (b.Hour >= 8 && b.Hour <= 23) {
				s.Hourly = append(s.Hourly, b)
			}
		}
	}
	s.EstGrossProfit = s.TotalSales.Mul(grossMargin).Round(2)

	for _, stat := range items {
		s.TopItems = append(s.TopItems, *stat)
	}
	sort.Slice(s.TopItems, func(i, j int) bool {
		a, b := s.TopItems[i], s.TopItems[j]
		if !a.Revenue.Equal(b.Revenue) {
			return a.Revenue.GreaterThan(b.Revenue)
		}
		return a.Name < b.Name
	})
	if len(s.TopItems) > TopItemsLimit {
		s.TopItems = s.TopItems[:TopItemsLimit]
	}

	s.Payments = amounts(payments)
	sort.Slice(s.Payments, func(i, j int) bool { return s.Payments[i].Name < s.Payments[j].Name })

	for name, n := range types {
		s.OrderTypes = append(s.OrderTypes, Count{Name: name, Value: n})
	}
	sort.Slice(s.OrderTypes, func(i, j int) bool { return s.OrderTypes[i].Name < s.OrderTypes[j].Name })

	s.Categories = amounts(categories)
	sort.Slice(s.Categories, func(i, j int) bool {
		a, b := s.Categories[i], s.Categories[j]
		if !a.Value.Equal(b.Value) {
			return a.Value.GreaterThan(b.Value)
		}
		return a.Name < b.Name
	})

	for _, inv := range st.Inventory {
		if inv.LowStock() {
			s.LowStock = append(s.LowStock, inv)
		}
	}
	return s
}

// WriteCSV writes one row per order: date, invoice (or id), type, total and
// payment method ("Unpaid" when none).
func WriteCSV(w io.Writer, orders []domain.Order, loc *time.Location) error {
	if loc == nil {
		loc = time.Local
	}
	cw := csv.NewWriter(w)
	if err := cw.Write([]string{"Date", "Order ID", "Type", "Total", "Payment"}); err != nil {
		return fmt.Errorf("write csv header: %w", err)
	}
	for _, o := range orders {
		id := o.InvoiceNumber
		if id == "" {
			id = o.ID
		}
		payment := string(o.PaymentMethod)
		if payment == "" {
			payment = "Unpaid"
		}
		row := []string{o.Timestamp.In(loc).Format("02/01/2006"), id, string(o.Type), o.TotalAmount.String(), payment}
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("write csv row %s: %w", o.ID, err)
		}
	}
	cw.Flush()
	return cw.Error()
}

func hourLabel(h int) string {
	switch {
	case h == 0:
		return "12am"
	case h == 12:
		return "12pm"
	case h > 12:
		return fmt.Sprintf("%dpm", h-12)
	default:
		return fmt.Sprintf("%dam", h)
	}
}

func amounts(m map[string]decimal.Decimal) []Amount {
	out := make([]Amount, 0, len(m))
	for name, v := range m {
		out = append(out, Amount{Name: name, Value: v})
	}
	return out
}
