package api

import (
	"bytes"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	"github.com/azairamail/EASYAiPOS/internal/backup"
	"github.com/azairamail/EASYAiPOS/internal/cart"
	"github.com/azairamail/EASYAiPOS/internal/domain"
	"github.com/azairamail/EASYAiPOS/internal/lifecycle"
	"github.com/azairamail/EASYAiPOS/internal/pos"
	"github.com/azairamail/EASYAiPOS/internal/report"
)

type addItemRequest struct {
	ItemID    string   `json:"itemId" binding:"required"`
	Quantity  int      `json:"quantity" binding:"required,min=1"`
	Modifiers []string `json:"modifiers"`
	Notes     string   `json:"notes"`
}

type settleRequest struct {
	PaymentMethod domain.PaymentMethod `json:"paymentMethod" binding:"required"`
}

type splitRequest struct {
	TargetTableID string   `json:"targetTableId" binding:"required"`
	CartItemIDs   []string `json:"cartItemIds" binding:"required,min=1"`
}

type reserveRequest struct {
	CustomerName  string    `json:"customerName" binding:"required"`
	CustomerPhone string    `json:"customerPhone"`
	DateTime      time.Time `json:"dateTime" binding:"required"`
	Guests        int       `json:"guests" binding:"required,min=1"`
}

type staffLoginRequest struct {
	MemberID string `json:"memberId" binding:"required"`
	PIN      string `json:"pin" binding:"required"`
}

type cartBillQuery struct {
	TableID      string            `form:"tableId"`
	Type         domain.OrderType  `form:"type"`
	DiscountMode cart.DiscountMode `form:"discountMode"`
	Discount     string            `form:"discount"`
}

type healthResponse struct {
	Status  string `json:"status"`
	Account string `json:"account,omitempty"`
	Ready   bool   `json:"ready"`
	Seq     int64  `json:"seq"`
}

func (s *server) health(c *gin.Context) {
	ready := false
	select {
	case <-s.term.Ready():
		ready = true
	default:
	}
	c.JSON(http.StatusOK, healthResponse{Status: "ok", Account: s.term.Account(), Ready: ready, Seq: s.term.Seq()})
}

func (s *server) state(c *gin.Context) {
	c.JSON(http.StatusOK, successResponse("state", s.term.State()))
}

func (s *server) dispatch(c *gin.Context) {
	var env pos.Envelope
	if err := c.ShouldBindJSON(&env); err != nil {
		c.JSON(http.StatusBadRequest, errorResponse("invalid action: "+err.Error()))
		return
	}
	a, err := pos.DecodeAction(env)
	if err != nil {
		c.JSON(http.StatusBadRequest, errorResponse(err.Error()))
		return
	}
	c.JSON(http.StatusOK, successResponse(string(a.Kind())+" applied", s.term.Dispatch(a)))
}

func (s *server) addToCart(c *gin.Context) {
	var req addItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, errorResponse("invalid request: "+err.Error()))
		return
	}
	st, err := s.term.AddToCart(req.ItemID, req.Quantity, req.Modifiers, req.Notes)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, successResponse("added to cart", st.Cart))
}

func (s *server) cartBill(c *gin.Context) {
	var q cartBillQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		c.JSON(http.StatusBadRequest, errorResponse("invalid query parameters"))
		return
	}
	d := cart.Discount{Mode: q.DiscountMode}
	if q.Discount != "" {
		v, err := decimal.NewFromString(q.Discount)
		if err != nil {
			c.JSON(http.StatusBadRequest, errorResponse("invalid discount"))
			return
		}
		d.Value = v
	}
	text, err := s.term.CartBill(q.TableID, q.Type, d)
	if err != nil {
		fail(c, err)
		return
	}
	c.String(http.StatusOK, text)
}

func (s *server) placeOrder(c *gin.Context) {
	var req lifecycle.PlaceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, errorResponse("invalid request: "+err.Error()))
		return
	}
	placed, err := s.term.PlaceOrder(req)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, successResponse("order placed", placed))
}

func (s *server) advance(c *gin.Context) {
	s.respondOrder(c, "order advanced")(s.term.Advance(c.Param("id")))
}

func (s *server) void(c *gin.Context) {
	s.respondOrder(c, "order voided")(s.term.Void(c.Param("id")))
}

func (s *server) settle(c *gin.Context) {
	var req settleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, errorResponse("invalid request: "+err.Error()))
		return
	}
	s.respondOrder(c, "order settled")(s.term.Settle(c.Param("id"), req.PaymentMethod))
}

func (s *server) split(c *gin.Context) {
	var req splitRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, errorResponse("invalid request: "+err.Error()))
		return
	}
	st, err := s.term.Split(c.Param("id"), req.TargetTableID, req.CartItemIDs)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, successResponse("order split", st.Orders))
}

// respondOrder writes the order named in the path as it stands after a
// policy call.
func (s *server) respondOrder(c *gin.Context, message string) func(pos.State, error) {
	return func(st pos.State, err error) {
		if err != nil {
			fail(c, err)
			return
		}
		o, _ := st.Order(c.Param("id"))
		c.JSON(http.StatusOK, successResponse(message, o))
	}
}

func (s *server) printKitchen(c *gin.Context) {
	text, err := s.term.KitchenTicket(c.Param("id"))
	if err != nil {
		fail(c, err)
		return
	}
	c.String(http.StatusOK, text)
}

func (s *server) receipt(c *gin.Context) {
	text, err := s.term.Bill(c.Param("id"))
	if err != nil {
		fail(c, err)
		return
	}
	c.String(http.StatusOK, text)
}

func (s *server) releaseTable(c *gin.Context) {
	st, err := s.term.ReleaseTable(c.Param("id"))
	if err != nil {
		fail(c, err)
		return
	}
	tb, _ := st.Table(c.Param("id"))
	c.JSON(http.StatusOK, successResponse("table released", tb))
}

func (s *server) reserve(c *gin.Context) {
	var req reserveRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, errorResponse("invalid request: "+err.Error()))
		return
	}
	st, err := s.term.Reserve(c.Param("id"), domain.Reservation{
		CustomerName:  req.CustomerName,
		CustomerPhone: req.CustomerPhone,
		DateTime:      req.DateTime,
		Guests:        req.Guests,
	})
	if err != nil {
		fail(c, err)
		return
	}
	tb, _ := st.Table(c.Param("id"))
	c.JSON(http.StatusCreated, successResponse("reservation added", tb))
}

func (s *server) staffLogin(c *gin.Context) {
	var req staffLoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, errorResponse("invalid request: "+err.Error()))
		return
	}
	st, err := s.term.StaffLogin(req.MemberID, req.PIN)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, successResponse("welcome "+st.ActiveStaff.Name, st.ActiveStaff))
}

func (s *server) staffLogout(c *gin.Context) {
	s.term.StaffLogout()
	c.JSON(http.StatusOK, successResponse("logged out", nil))
}

func (s *server) summary(c *gin.Context) {
	loc, err := s.location(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, errorResponse(err.Error()))
		return
	}
	c.JSON(http.StatusOK, successResponse("summary", report.Summarize(s.term.State(), loc)))
}

func (s *server) ordersCSV(c *gin.Context) {
	loc, err := s.location(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, errorResponse(err.Error()))
		return
	}
	var buf bytes.Buffer
	if err := report.WriteCSV(&buf, s.term.State().Orders, loc); err != nil {
		fail(c, err)
		return
	}
	c.Header("Content-Disposition", `attachment; filename="orders.csv"`)
	c.Data(http.StatusOK, "text/csv; charset=utf-8", buf.Bytes())
}

func (s *server) backup(c *gin.Context) {
	now := s.term.Now()
	data, err := backup.Encode(backup.Export(s.term.State(), now))
	if err != nil {
		fail(c, err)
		return
	}
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", backup.FileName(now)))
	c.Data(http.StatusOK, "application/json", data)
}

func (s *server) restore(c *gin.Context) {
	raw, err := c.GetRawData()
	if err != nil {
		c.JSON(http.StatusBadRequest, errorResponse("read body: "+err.Error()))
		return
	}
	doc, err := backup.Parse(raw)
	if err != nil {
		fail(c, err)
		return
	}
	st := s.term.Dispatch(doc.Action())
	c.JSON(http.StatusOK, successResponse("data restored", gin.H{
		"orders": len(st.Orders),
		"menu":   len(st.Menu),
		"tables": len(st.Tables),
	}))
}

// reset clears orders, menu, tables and inventory. Settings and team
// members stay.
func (s *server) reset(c *gin.Context) {
	st := s.term.Dispatch(pos.ClearBusinessData())
	c.JSON(http.StatusOK, successResponse("business data cleared", gin.H{
		"orders": len(st.Orders),
		"menu":   len(st.Menu),
		"tables": len(st.Tables),
	}))
}

func (s *server) location(c *gin.Context) (*time.Location, error) {
	tz := c.Query("tz")
	if tz == "" {
		return s.loc, nil
	}
	loc, err := time.LoadLocation(tz)
	if err != nil {
		return nil, fmt.Errorf("unknown time zone %q", tz)
	}
	return loc, nil
}
