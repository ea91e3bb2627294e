package terminal

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/azairamail/EASYAiPOS/internal/cart"
	"github.com/azairamail/EASYAiPOS/internal/config"
	"github.com/azairamail/EASYAiPOS/internal/domain"
	"github.com/azairamail/EASYAiPOS/internal/lifecycle"
	"github.com/azairamail/EASYAiPOS/internal/pos"
	"github.com/azairamail/EASYAiPOS/internal/store"
	"github.com/azairamail/EASYAiPOS/internal/testutil"
)

const (
	waitFor = 2 * time.Second
	tick    = 5 * time.Millisecond
	account = "bhoj-dhaka"
)

func newTestTerminal(t *testing.T) (*Terminal, *store.Store) {
	t.Helper()
	st, err := store.Open(filepath.Join(t.TempDir(), "pos.db"))
	require.NoError(t, err)

	term := New(Options{
		Remote:   st,
		Local:    st,
		IDs:      testutil.NewSequentialIDs(),
		Now:      testutil.NewStepClock(testutil.Epoch, time.Second).Now,
		Debounce: 10 * time.Millisecond,
	})
	require.NoError(t, term.Start(context.Background()))
	t.Cleanup(func() {
		term.Close()
		st.Close()
	})
	return term, st
}

func signIn(t *testing.T, term *Terminal) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), waitFor)
	defer cancel()
	require.NoError(t, term.SignIn(context.Background(), account))
	require.NoError(t, term.WaitReady(ctx))
}

func seedFloor(term *Terminal) {
	term.Dispatch(pos.AddTable{Table: domain.Table{ID: "T1", Name: "Table 1", Status: domain.TableAvailable}})
	term.Dispatch(pos.AddTable{Table: domain.Table{ID: "T2", Name: "Table 2", Status: domain.TableAvailable}})
	term.Dispatch(pos.AddMenuItem{Item: domain.MenuItem{
		ID: "M1", Name: "Kacchi Biryani", Category: "Rice", Price: decimal.NewFromInt(100), InStock: true,
		AvailableModifiers: []domain.Modifier{{Name: "Extra Meat", Price: decimal.NewFromInt(50)}},
	}})
	term.Dispatch(pos.AddMenuItem{Item: domain.MenuItem{ID: "M2", Name: "Borhani", Category: "Drinks", Price: decimal.NewFromInt(40), InStock: false}})
}

func TestTerminal_SignedOutStartsWithDefaults(t *testing.T) {
	term, _ := newTestTerminal(t)

	select {
	case <-term.Ready():
	case <-time.After(waitFor):
		t.Fatal("signed-out terminal never became ready")
	}
	assert.Nil(t, term.Session())
	assert.Empty(t, term.Account())

	s := term.State()
	assert.Equal(t, domain.DefaultSettings(), s.Settings)
	require.Len(t, s.TeamMembers, 1)
	assert.Equal(t, domain.DefaultAdmin().ID, s.TeamMembers[0].ID)
}

func TestTerminal_SignInHydratesAndSaves(t *testing.T) {
	term, st := newTestTerminal(t)
	signIn(t, term)
	assert.Equal(t, account, term.Account())

	seedFloor(term)

	require.Eventually(t, func() bool {
		snap, err := st.LoadSnapshot(context.Background(), account)
		return err == nil && snap != nil && len(snap.Tables) == 2 && len(snap.Menu) == 2
	}, waitFor, tick)
}

func TestTerminal_DineInOrderFlow(t *testing.T) {
	term, _ := newTestTerminal(t)
	signIn(t, term)
	seedFloor(term)

	s, err := term.AddToCart("M1", 1, nil, "")
	require.NoError(t, err)
	require.Len(t, s.Cart, 1)

	placed, err := term.PlaceOrder(lifecycle.PlaceRequest{TableID: "T1", Type: domain.OrderDineIn})
	require.NoError(t, err)
	assert.Equal(t, "ORD-0002", placed.OrderID)
	assert.Equal(t, "INV-1001", placed.InvoiceNumber)
	assert.False(t, placed.Appended)
	assert.Contains(t, placed.Kitchen, lifecycle.TicketNewOrder)
	assert.Contains(t, placed.Kitchen, "Kacchi Biryani")

	s = term.State()
	assert.Empty(t, s.Cart)
	o, ok := s.Order(placed.OrderID)
	require.True(t, ok)
	assert.Equal(t, domain.StatusPending, o.Status)
	assert.Equal(t, "105", o.TotalAmount.String())
	tb, _ := s.Table("T1")
	assert.Equal(t, domain.TableOccupied, tb.Status)
	assert.Equal(t, placed.OrderID, tb.CurrentOrderID)

	for _, want := range []domain.OrderStatus{domain.StatusCooking, domain.StatusReady, domain.StatusCompleted} {
		s, err = term.Advance(placed.OrderID)
		require.NoError(t, err)
		o, _ = s.Order(placed.OrderID)
		assert.Equal(t, want, o.Status)
	}
	tb, _ = s.Table("T1")
	assert.Equal(t, domain.TableAvailable, tb.Status)

	_, err = term.Void(placed.OrderID)
	assert.True(t, lifecycle.IsInvalidTransition(err))
}

func TestTerminal_AddOnAppendsToRunningOrder(t *testing.T) {
	term, _ := newTestTerminal(t)
	signIn(t, term)
	seedFloor(term)

	_, err := term.AddToCart("M1", 1, nil, "")
	require.NoError(t, err)
	first, err := term.PlaceOrder(lifecycle.PlaceRequest{TableID: "T1"})
	require.NoError(t, err)

	_, err = term.AddToCart("M1", 2, []string{"Extra Meat"}, "spicy")
	require.NoError(t, err)
	second, err := term.PlaceOrder(lifecycle.PlaceRequest{TableID: "T1"})
	require.NoError(t, err)

	assert.True(t, second.Appended)
	assert.Equal(t, first.OrderID, second.OrderID)
	assert.Contains(t, second.Kitchen, lifecycle.TicketAddOn)

	o, _ := term.State().Order(first.OrderID)
	assert.Len(t, o.Items, 2)
	assert.Equal(t, "420", o.TotalAmount.String())
}

func TestTerminal_KitchenTicketReprintsWhenAllSent(t *testing.T) {
	term, _ := newTestTerminal(t)
	signIn(t, term)
	seedFloor(term)

	_, err := term.AddToCart("M1", 1, nil, "")
	require.NoError(t, err)
	placed, err := term.PlaceOrder(lifecycle.PlaceRequest{TableID: "T1"})
	require.NoError(t, err)

	text, err := term.KitchenTicket(placed.OrderID)
	require.NoError(t, err)
	assert.Contains(t, text, "DUPLICATE / REPRINT")

	_, err = term.KitchenTicket("ORD-missing")
	assert.True(t, lifecycle.IsNotFound(err))
}

func TestTerminal_BillAndSettle(t *testing.T) {
	term, _ := newTestTerminal(t)
	signIn(t, term)
	seedFloor(term)

	_, err := term.AddToCart("M1", 2, nil, "")
	require.NoError(t, err)

	preview, err := term.CartBill("T1", domain.OrderDineIn, cart.Discount{})
	require.NoError(t, err)
	assert.Contains(t, preview, "INV-1001")

	placed, err := term.PlaceOrder(lifecycle.PlaceRequest{TableID: "T1"})
	require.NoError(t, err)

	bill, err := term.Bill(placed.OrderID)
	require.NoError(t, err)
	assert.Contains(t, bill, "210.00")

	s, err := term.Settle(placed.OrderID, domain.PaymentBkash)
	require.NoError(t, err)
	o, _ := s.Order(placed.OrderID)
	assert.Equal(t, domain.StatusCompleted, o.Status)
	assert.Equal(t, domain.PaymentBkash, o.PaymentMethod)
	tb, _ := s.Table("T1")
	assert.Equal(t, domain.TableAvailable, tb.Status)
}

func TestTerminal_Split(t *testing.T) {
	term, _ := newTestTerminal(t)
	signIn(t, term)
	seedFloor(term)

	_, err := term.AddToCart("M1", 1, nil, "")
	require.NoError(t, err)
	_, err = term.AddToCart("M1", 1, []string{"Extra Meat"}, "")
	require.NoError(t, err)
	placed, err := term.PlaceOrder(lifecycle.PlaceRequest{TableID: "T1"})
	require.NoError(t, err)
	require.Len(t, placed.Lines, 2)

	s, err := term.Split(placed.OrderID, "T2", []string{placed.Lines[1].CartItemID})
	require.NoError(t, err)
	assert.Len(t, s.Orders, 2)
	tb, _ := s.Table("T2")
	assert.Equal(t, domain.TableOccupied, tb.Status)

	_, err = term.Split(placed.OrderID, "T2", []string{"nope"})
	assert.True(t, lifecycle.IsInvalidRequest(err))
}

func TestTerminal_AddToCartRejections(t *testing.T) {
	term, _ := newTestTerminal(t)
	signIn(t, term)
	seedFloor(term)

	_, err := term.AddToCart("M404", 1, nil, "")
	assert.True(t, lifecycle.IsNotFound(err))

	_, err = term.AddToCart("M2", 1, nil, "")
	assert.Equal(t, lifecycle.ErrCodeOutOfStock, lifecycle.CodeOf(err))

	_, err = term.AddToCart("M1", 1, []string{"Gold Leaf"}, "")
	assert.Equal(t, lifecycle.ErrCodeInvalidModifier, lifecycle.CodeOf(err))

	assert.Empty(t, term.State().Cart)
}

func TestTerminal_StaffLoginAndSignOut(t *testing.T) {
	term, _ := newTestTerminal(t)
	signIn(t, term)

	_, err := term.StaffLogin(domain.DefaultAdmin().ID, "0000")
	assert.True(t, lifecycle.IsInvalidPIN(err))

	s, err := term.StaffLogin(domain.DefaultAdmin().ID, domain.DefaultAdmin().PIN)
	require.NoError(t, err)
	require.NotNil(t, s.ActiveStaff)

	require.NoError(t, term.SignOut(context.Background()))
	assert.Nil(t, term.Session())
	assert.Nil(t, term.State().ActiveStaff)
}

func TestTerminal_Reserve(t *testing.T) {
	term, _ := newTestTerminal(t)
	signIn(t, term)
	seedFloor(term)

	soon := term.Now().Add(30 * time.Minute)
	s, err := term.Reserve("T2", domain.Reservation{CustomerName: "Rahim", DateTime: soon, Guests: 4})
	require.NoError(t, err)
	tb, _ := s.Table("T2")
	require.Len(t, tb.Reservations, 1)
	assert.NotEmpty(t, tb.Reservations[0].ID)
	assert.Equal(t, domain.TableReserved, tb.Status)

	s, err = term.ReleaseTable("T2")
	require.NoError(t, err)
	tb, _ = s.Table("T2")
	assert.Equal(t, domain.TableAvailable, tb.Status)
}

func TestTerminal_CartSurvivesRestart(t *testing.T) {
	dir := t.TempDir()
	cfg := config.Default()
	cfg.LocalPath = filepath.Join(dir, "local.db")
	cfg.Store.SQLitePath = cfg.LocalPath
	cfg.Sync.Debounce = config.Duration(10 * time.Millisecond)
	ctx := context.Background()

	term, err := Open(ctx, cfg)
	require.NoError(t, err)
	require.NoError(t, term.Start(ctx))
	require.NoError(t, term.SignIn(ctx, account))
	require.NoError(t, term.WaitReady(ctx))
	seedFloor(term)
	_, err = term.AddToCart("M1", 3, nil, "")
	require.NoError(t, err)

	require.Eventually(t, func() bool {
		items, err := term.Local().LoadCart(ctx)
		return err == nil && len(items) == 1
	}, waitFor, tick)
	require.NoError(t, term.Close())

	again, err := Open(ctx, cfg)
	require.NoError(t, err)
	defer again.Close()
	require.NoError(t, again.Start(ctx))

	cartLines := again.State().Cart
	require.Len(t, cartLines, 1)
	assert.Equal(t, 3, cartLines[0].Quantity)

	entries, err := again.Local().ReadJournal(ctx, account)
	require.NoError(t, err)
	assert.NotEmpty(t, entries)
	assert.Greater(t, again.Seq(), int64(0))
}

func TestTerminal_AccountSwitchKeepsJournalEntries(t *testing.T) {
	cfg := config.Default()
	cfg.LocalPath = filepath.Join(t.TempDir(), "local.db")
	cfg.Store.SQLitePath = cfg.LocalPath
	cfg.Sync.Debounce = config.Duration(10 * time.Millisecond)
	ctx := context.Background()

	term, err := Open(ctx, cfg)
	require.NoError(t, err)
	require.NoError(t, term.Start(ctx))
	require.NoError(t, term.SignIn(ctx, account))
	require.NoError(t, term.WaitReady(ctx))

	// Switch while the floor changes may still be queued.
	seedFloor(term)
	require.NoError(t, term.SignIn(ctx, "second-branch"))
	require.NoError(t, term.WaitReady(ctx))
	require.NoError(t, term.Close())

	local, err := store.Open(cfg.LocalPath)
	require.NoError(t, err)
	defer local.Close()

	kinds := func(acct string) map[pos.Kind]int {
		entries, err := local.ReadJournal(ctx, acct)
		require.NoError(t, err)
		seen := map[pos.Kind]int{}
		for _, e := range entries {
			seen[e.Action.Type]++
		}
		return seen
	}
	first := kinds(account)
	assert.Equal(t, 2, first[pos.KindAddTable])
	assert.Equal(t, 2, first[pos.KindAddMenuItem])

	second := kinds("second-branch")
	assert.Zero(t, second[pos.KindAddTable])
	assert.Zero(t, second[pos.KindAddMenuItem])
}

func TestOpen_UnknownDriver(t *testing.T) {
	cfg := config.Default()
	cfg.LocalPath = filepath.Join(t.TempDir(), "local.db")
	cfg.Store.Driver = "mongo"

	_, err := Open(context.Background(), cfg)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown store driver")
}
