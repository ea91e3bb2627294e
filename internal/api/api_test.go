package api

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/azairamail/EASYAiPOS/internal/domain"
	"github.com/azairamail/EASYAiPOS/internal/pos"
	"github.com/azairamail/EASYAiPOS/internal/snapshot"
	"github.com/azairamail/EASYAiPOS/internal/store"
	"github.com/azairamail/EASYAiPOS/internal/syncer"
	"github.com/azairamail/EASYAiPOS/internal/terminal"
	"github.com/azairamail/EASYAiPOS/internal/testutil"
)

const account = "bhoj-dhaka"

func init() {
	gin.SetMode(gin.TestMode)
}

type apiResponse struct {
	Success bool            `json:"success"`
	Message string          `json:"message"`
	Code    string          `json:"code"`
	Data    json.RawMessage `json:"data"`
}

func newTerminal(t *testing.T, remote syncer.RemoteStore) *terminal.Terminal {
	t.Helper()
	st, err := store.Open(filepath.Join(t.TempDir(), "pos.db"))
	require.NoError(t, err)
	if remote == nil {
		remote = st
	}

	term := terminal.New(terminal.Options{
		Remote:   remote,
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
	return term
}

func readyTerminal(t *testing.T) *terminal.Terminal {
	t.Helper()
	term := newTerminal(t, nil)
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	require.NoError(t, term.SignIn(context.Background(), account))
	require.NoError(t, term.WaitReady(ctx))

	term.Dispatch(pos.AddTable{Table: domain.Table{ID: "T1", Name: "Table 1", Status: domain.TableAvailable}})
	term.Dispatch(pos.AddMenuItem{Item: domain.MenuItem{ID: "M1", Name: "Kacchi Biryani", Category: "Rice", Price: decimal.NewFromInt(100), InStock: true}})
	return term
}

func newRouter(t *testing.T, term *terminal.Terminal, opts Options) *gin.Engine {
	t.Helper()
	opts.Location = time.UTC
	r, err := NewRouter(term, opts)
	require.NoError(t, err)
	return r
}

func do(r http.Handler, method, path string, body any, token string) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	switch b := body.(type) {
	case nil:
	case string:
		buf.WriteString(b)
	case []byte:
		buf.Write(b)
	default:
		json.NewEncoder(&buf).Encode(b)
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder) apiResponse {
	t.Helper()
	var resp apiResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp), w.Body.String())
	return resp
}

func TestHealth(t *testing.T) {
	r := newRouter(t, readyTerminal(t), Options{})

	w := do(r, http.MethodGet, "/api/v1/health", nil, "")
	require.Equal(t, http.StatusOK, w.Code)

	var h healthResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &h))
	assert.Equal(t, "ok", h.Status)
	assert.Equal(t, account, h.Account)
	assert.True(t, h.Ready)
}

func TestDispatchAction(t *testing.T) {
	term := readyTerminal(t)
	r := newRouter(t, term, Options{})

	w := do(r, http.MethodPost, "/api/v1/actions",
		`{"type":"ADD_TABLE","payload":{"table":{"id":"T9","name":"Patio","status":"AVAILABLE"}}}`, "")
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	_, ok := term.State().Table("T9")
	assert.True(t, ok)

	w = do(r, http.MethodPost, "/api/v1/actions", `{"type":"FLY_TO_MOON"}`, "")
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, decode(t, w).Message, "unknown type")
}

func TestOrderFlow(t *testing.T) {
	r := newRouter(t, readyTerminal(t), Options{})

	w := do(r, http.MethodPost, "/api/v1/cart/items", addItemRequest{ItemID: "M1", Quantity: 1}, "")
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w = do(r, http.MethodPost, "/api/v1/cart/items", addItemRequest{ItemID: "M1", Quantity: 0}, "")
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = do(r, http.MethodPost, "/api/v1/orders", map[string]any{"tableId": "T1", "type": "DINE_IN"}, "")
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var placed struct {
		OrderID       string `json:"orderId"`
		InvoiceNumber string `json:"invoiceNumber"`
		Kitchen       string `json:"kitchen"`
	}
	require.NoError(t, json.Unmarshal(decode(t, w).Data, &placed))
	assert.Equal(t, "ORD-0002", placed.OrderID)
	assert.Equal(t, "INV-1001", placed.InvoiceNumber)
	assert.Contains(t, placed.Kitchen, "KOT (NEW ORDER)")

	w = do(r, http.MethodGet, "/api/v1/orders/ORD-0002/receipt", nil, "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "105.00")

	w = do(r, http.MethodPost, "/api/v1/orders/ORD-0002/advance", nil, "")
	require.Equal(t, http.StatusOK, w.Code)
	var order domain.Order
	require.NoError(t, json.Unmarshal(decode(t, w).Data, &order))
	assert.Equal(t, domain.StatusCooking, order.Status)

	w = do(r, http.MethodPost, "/api/v1/orders/ORD-0002/void", nil, "")
	require.Equal(t, http.StatusOK, w.Code)

	w = do(r, http.MethodPost, "/api/v1/orders/ORD-0002/advance", nil, "")
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, "INVALID_TRANSITION", decode(t, w).Code)

	w = do(r, http.MethodPost, "/api/v1/orders/ORD-404/settle", settleRequest{PaymentMethod: domain.PaymentCash}, "")
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = do(r, http.MethodPost, "/api/v1/orders", map[string]any{"tableId": "T1"}, "")
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "EMPTY_CART", decode(t, w).Code)
}

func TestStaffLogin(t *testing.T) {
	r := newRouter(t, readyTerminal(t), Options{})
	admin := domain.DefaultAdmin()

	w := do(r, http.MethodPost, "/api/v1/staff/login", staffLoginRequest{MemberID: admin.ID, PIN: "9999"}, "")
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = do(r, http.MethodPost, "/api/v1/staff/login", staffLoginRequest{MemberID: admin.ID, PIN: admin.PIN}, "")
	assert.Equal(t, http.StatusOK, w.Code)

	w = do(r, http.MethodPost, "/api/v1/staff/logout", nil, "")
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestBackupRestore(t *testing.T) {
	term := readyTerminal(t)
	r := newRouter(t, term, Options{})

	w := do(r, http.MethodGet, "/api/v1/backup", nil, "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Header().Get("Content-Disposition"), "easypos_backup_")
	exported := w.Body.Bytes()

	term.Dispatch(pos.DeleteTable{TableID: "T1"})
	_, ok := term.State().Table("T1")
	require.False(t, ok)

	w = do(r, http.MethodPost, "/api/v1/restore", exported, "")
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	_, ok = term.State().Table("T1")
	assert.True(t, ok)

	w = do(r, http.MethodPost, "/api/v1/restore", `{"version":"1.0","data":{}}`, "")
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, decode(t, w).Message, "invalid backup file format")
}

func TestReports(t *testing.T) {
	r := newRouter(t, readyTerminal(t), Options{})

	w := do(r, http.MethodGet, "/api/v1/reports/summary", nil, "")
	assert.Equal(t, http.StatusOK, w.Code)

	w = do(r, http.MethodGet, "/api/v1/reports/summary?tz=Mars/Olympus", nil, "")
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = do(r, http.MethodGet, "/api/v1/reports/orders.csv", nil, "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Header().Get("Content-Type"), "text/csv")
}

func TestBearerAuth(t *testing.T) {
	secret := "s3cret"
	r := newRouter(t, readyTerminal(t), Options{JWTSecret: secret})
	now := time.Now()

	w := do(r, http.MethodGet, "/api/v1/health", nil, "")
	assert.Equal(t, http.StatusOK, w.Code)

	w = do(r, http.MethodGet, "/api/v1/state", nil, "")
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = do(r, http.MethodGet, "/api/v1/state", nil, "not-a-jwt")
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	other, err := IssueToken([]byte(secret), "someone-else", time.Hour, now)
	require.NoError(t, err)
	w = do(r, http.MethodGet, "/api/v1/state", nil, other)
	assert.Equal(t, http.StatusForbidden, w.Code)

	wrongKey, err := IssueToken([]byte("other-secret"), account, time.Hour, now)
	require.NoError(t, err)
	w = do(r, http.MethodGet, "/api/v1/state", nil, wrongKey)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	expired, err := IssueToken([]byte(secret), account, time.Hour, now.Add(-2*time.Hour))
	require.NoError(t, err)
	w = do(r, http.MethodGet, "/api/v1/state", nil, expired)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	good, err := IssueToken([]byte(secret), account, time.Hour, now)
	require.NoError(t, err)
	w = do(r, http.MethodGet, "/api/v1/state", nil, good)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestParseToken(t *testing.T) {
	tok, err := IssueToken([]byte("k"), account, time.Minute, time.Now())
	require.NoError(t, err)
	sub, err := ParseToken([]byte("k"), tok)
	require.NoError(t, err)
	assert.Equal(t, account, sub)
}

func TestRateLimit(t *testing.T) {
	r := newRouter(t, readyTerminal(t), Options{Rate: "2-M"})

	assert.Equal(t, http.StatusOK, do(r, http.MethodGet, "/api/v1/health", nil, "").Code)
	assert.Equal(t, http.StatusOK, do(r, http.MethodGet, "/api/v1/health", nil, "").Code)
	assert.Equal(t, http.StatusTooManyRequests, do(r, http.MethodGet, "/api/v1/health", nil, "").Code)
}

func TestRateLimit_BadFormat(t *testing.T) {
	_, err := RateLimit("lots")
	assert.Error(t, err)
}

// silentRemote never delivers a snapshot.
type silentRemote struct{}

func (silentRemote) Subscribe(ctx context.Context, _ string) (<-chan syncer.Payload, error) {
	ch := make(chan syncer.Payload)
	go func() {
		<-ctx.Done()
		close(ch)
	}()
	return ch, nil
}

func (silentRemote) Save(context.Context, string, snapshot.Snapshot) error { return nil }

func TestRoutesWaitForHydration(t *testing.T) {
	term := newTerminal(t, silentRemote{})
	require.NoError(t, term.SignIn(context.Background(), account))
	r := newRouter(t, term, Options{})

	for _, path := range []string{"/api/v1/state", "/api/v1/backup", "/api/v1/reports/summary", "/api/v1/orders/ORD-1/receipt"} {
		w := do(r, http.MethodGet, path, nil, "")
		assert.Equal(t, http.StatusServiceUnavailable, w.Code, path)
	}

	w := do(r, http.MethodPost, "/api/v1/actions", `{"type":"CLEAR_CART"}`, "")
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)

	w = do(r, http.MethodGet, "/api/v1/health", nil, "")
	require.Equal(t, http.StatusOK, w.Code)
	var h healthResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &h))
	assert.False(t, h.Ready)
}

func TestReset(t *testing.T) {
	term := readyTerminal(t)
	r := newRouter(t, term, Options{})
	term.Dispatch(pos.UpdateSettings{Patch: domain.SettingsPatch{StoreName: strPtr("Kept")}})
	require.NotEmpty(t, term.State().Tables)

	w := do(r, http.MethodPost, "/api/v1/reset", nil, "")
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	st := term.State()
	assert.Empty(t, st.Orders)
	assert.Empty(t, st.Menu)
	assert.Empty(t, st.Tables)
	assert.Empty(t, st.Inventory)
	assert.Equal(t, "Kept", st.Settings.StoreName)
	assert.NotEmpty(t, st.TeamMembers)
}

func strPtr(s string) *string { return &s }
