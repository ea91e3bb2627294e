package harness

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/azairamail/EASYAiPOS/internal/domain"
	"github.com/azairamail/EASYAiPOS/internal/engine"
	"github.com/azairamail/EASYAiPOS/internal/lifecycle"
	"github.com/azairamail/EASYAiPOS/internal/pos"
	"github.com/azairamail/EASYAiPOS/internal/receipt"
	"github.com/azairamail/EASYAiPOS/internal/snapshot"
	"github.com/azairamail/EASYAiPOS/internal/testutil"
)

const (
	phaseSetup = "setup"
	phaseFlow  = "flow"

	reservationIDPrefix = "RES-"
)

// ClockStep is how far the run's clock moves on every reading.
const ClockStep = time.Minute

// Run executes a scenario and evaluates its assertions.
//
// The returned error is reserved for scenarios that cannot run at all: a
// failing setup step, args that do not decode, or an unknown $reference.
// Behavioral mismatches are reported through Result.Errors.
func Run(s *Scenario) (*Result, error) {
	r := &runner{
		result: NewResult(),
		clock:  testutil.NewStepClock(testutil.Epoch, ClockStep),
		ids:    testutil.NewSequentialIDs(),
		refs:   map[string]string{},
	}
	r.planner = lifecycle.NewPlanner(r.ids, r.clock.Now)

	initial := pos.Initial().WithPersisted(snapshot.Default().Persisted())
	r.engine = engine.New(initial, engine.WithObserver(r.observe))

	for i, step := range s.Setup {
		r.phase, r.step = phaseSetup, i
		if err := r.runStep(step); err != nil {
			return nil, fmt.Errorf("setup[%d]: %w", i, err)
		}
	}

	for i, step := range s.Flow {
		r.phase, r.step = phaseFlow, i
		where := fmt.Sprintf("flow[%d]", i)
		err := r.runStep(step)

		var perr *lifecycle.Error
		switch {
		case err != nil && !errors.As(err, &perr):
			return nil, fmt.Errorf("%s: %w", where, err)
		case perr != nil:
			r.result.Trace = append(r.result.Trace, TraceEvent{
				Phase:    r.phase,
				Step:     i,
				Policy:   step.Policy,
				Rejected: string(perr.Code),
			})
			if step.ExpectError == "" {
				r.result.AddError(fmt.Sprintf("%s: %s failed: %v", where, step.Policy, perr))
			} else if string(perr.Code) != step.ExpectError {
				r.result.AddError(fmt.Sprintf("%s: expected error %s, got %s", where, step.ExpectError, perr.Code))
			}
		case step.ExpectError != "":
			r.result.AddError(fmt.Sprintf("%s: expected error %s, got none", where, step.ExpectError))
		}

		for _, msg := range EvaluateAssertions(r.engine.State(), step.Assert, r.refs) {
			r.result.AddError(where + ": " + msg)
		}
	}

	state := r.engine.State()
	for _, msg := range EvaluateAssertions(state, s.Assertions, r.refs) {
		r.result.AddError(msg)
	}
	r.result.State = state
	return r.result, nil
}

type runner struct {
	result  *Result
	engine  *engine.Engine
	planner *lifecycle.Planner
	clock   *testutil.StepClock
	ids     *testutil.SequentialIDs
	refs    map[string]string

	phase string
	step  int
}

func (r *runner) observe(_, _ pos.State, a pos.Action) {
	r.result.Trace = append(r.result.Trace, TraceEvent{
		Seq:    r.engine.Seq(),
		Phase:  r.phase,
		Step:   r.step,
		Action: a.Kind(),
	})
}

func (r *runner) runStep(step Step) error {
	args, err := resolveArgs(step.Args, r.refs)
	if err != nil {
		return err
	}
	payload, err := json.Marshal(args)
	if err != nil {
		return fmt.Errorf("encode args: %w", err)
	}

	if step.Action != "" {
		a, err := pos.ParseAction(step.Action, payload)
		if err != nil {
			return err
		}
		r.engine.Dispatch(a)
		return nil
	}

	produced, err := r.runPolicy(step.Policy, payload)
	if err != nil {
		return err
	}
	if step.As != "" {
		if produced == "" {
			return fmt.Errorf("%s produced nothing to bind as %q", step.Policy, step.As)
		}
		r.refs[step.As] = produced
	}
	return nil
}

// runPolicy runs one policy operation and returns the id it produced, if
// any.
func (r *runner) runPolicy(name string, payload []byte) (string, error) {
	s := r.engine.State()
	switch name {
	case PolicyAddToCart:
		var args struct {
			ItemID    string   `json:"itemId"`
			Quantity  int      `json:"quantity"`
			Modifiers []string `json:"modifiers"`
			Notes     string   `json:"notes"`
		}
		if err := decodeArgs(name, payload, &args); err != nil {
			return "", err
		}
		item, ok := s.MenuItem(args.ItemID)
		if !ok {
			return "", &lifecycle.Error{Code: lifecycle.ErrCodeMenuItemNotFound, Message: "menu item not found: " + args.ItemID}
		}
		a, err := r.planner.AddToCart(item, args.Quantity, args.Modifiers, args.Notes)
		if err != nil {
			return "", err
		}
		r.engine.Dispatch(a)
		return a.(pos.AddToCart).Item.CartItemID, nil

	case PolicyPlace:
		var req lifecycle.PlaceRequest
		if err := decodeArgs(name, payload, &req); err != nil {
			return "", err
		}
		p, err := r.planner.PlaceOrder(s, req)
		if err != nil {
			return "", err
		}
		next := r.engine.Apply(p.Actions...)
		if len(p.Lines) > 0 {
			orderType := req.Type
			if o, ok := next.Order(p.OrderID); ok {
				orderType = o.Type
			}
			var table *domain.Table
			if t, ok := next.Table(req.TableID); ok {
				table = &t
			}
			r.result.Tickets = append(r.result.Tickets,
				receipt.CartKitchen(p.Lines, table, orderType, p.OrderID, p.Ticket, next.Settings, r.clock.Now()))
		}
		return p.OrderID, nil

	case PolicyAdvance, PolicyVoid:
		var args struct {
			OrderID string `json:"orderId"`
		}
		if err := decodeArgs(name, payload, &args); err != nil {
			return "", err
		}
		plan := lifecycle.Advance
		if name == PolicyVoid {
			plan = lifecycle.Void
		}
		actions, err := plan(s, args.OrderID)
		if err != nil {
			return "", err
		}
		r.engine.Apply(actions...)
		return args.OrderID, nil

	case PolicySettle:
		var args struct {
			OrderID       string               `json:"orderId"`
			PaymentMethod domain.PaymentMethod `json:"paymentMethod"`
		}
		if err := decodeArgs(name, payload, &args); err != nil {
			return "", err
		}
		actions, err := lifecycle.Settle(s, args.OrderID, args.PaymentMethod)
		if err != nil {
			return "", err
		}
		r.engine.Apply(actions...)
		return args.OrderID, nil

	case PolicySplit:
		var args struct {
			OrderID       string   `json:"orderId"`
			TargetTableID string   `json:"targetTableId"`
			CartItemIDs   []string `json:"cartItemIds"`
		}
		if err := decodeArgs(name, payload, &args); err != nil {
			return "", err
		}
		actions, err := r.planner.Split(s, args.OrderID, args.TargetTableID, args.CartItemIDs)
		if err != nil {
			return "", err
		}
		r.engine.Apply(actions...)
		return actions[0].(pos.SplitOrder).NewOrderID, nil

	case PolicyRelease:
		var args struct {
			TableID string `json:"tableId"`
		}
		if err := decodeArgs(name, payload, &args); err != nil {
			return "", err
		}
		actions, err := lifecycle.ReleaseTable(s, args.TableID)
		if err != nil {
			return "", err
		}
		r.engine.Apply(actions...)
		return "", nil

	case PolicyReserve:
		var args struct {
			TableID     string             `json:"tableId"`
			Reservation domain.Reservation `json:"reservation"`
		}
		if err := decodeArgs(name, payload, &args); err != nil {
			return "", err
		}
		if args.Reservation.ID == "" {
			args.Reservation.ID = reservationIDPrefix + r.ids.Generate()
		}
		actions, err := lifecycle.Reserve(s, args.TableID, args.Reservation, r.clock.Now())
		if err != nil {
			return "", err
		}
		r.engine.Apply(actions...)
		return args.Reservation.ID, nil

	case PolicyStaffLogin:
		var args struct {
			MemberID string `json:"memberId"`
			PIN      string `json:"pin"`
		}
		if err := decodeArgs(name, payload, &args); err != nil {
			return "", err
		}
		a, err := lifecycle.StaffLogin(s, args.MemberID, args.PIN)
		if err != nil {
			return "", err
		}
		r.engine.Dispatch(a)
		return args.MemberID, nil

	case PolicyPrintKOT:
		var args struct {
			OrderID string `json:"orderId"`
		}
		if err := decodeArgs(name, payload, &args); err != nil {
			return "", err
		}
		o, ok := s.Order(args.OrderID)
		if !ok {
			return "", &lifecycle.Error{Code: lifecycle.ErrCodeOrderNotFound, Message: "order not found", OrderID: args.OrderID}
		}
		var table *domain.Table
		if t, ok := s.Table(o.TableID); ok {
			table = &t
		}
		text, fresh := receipt.RunningKitchen(o, table, s.Settings, r.clock.Now())
		if fresh {
			r.engine.Dispatch(pos.MarkItemsPrinted{OrderID: o.ID})
		}
		r.result.Tickets = append(r.result.Tickets, text)
		return o.ID, nil
	}
	return "", fmt.Errorf("unknown policy %q", name)
}

func decodeArgs(policy string, payload []byte, v any) error {
	if err := json.Unmarshal(payload, v); err != nil {
		return fmt.Errorf("decode %s args: %w", policy, err)
	}
	return nil
}

// resolveArgs copies args, replacing every "$name" string with the id bound
// to name.
func resolveArgs(args map[string]any, refs map[string]string) (map[string]any, error) {
	out := make(map[string]any, len(args))
	for k, v := range args {
		rv, err := resolveValue(v, refs)
		if err != nil {
			return nil, fmt.Errorf("arg %s: %w", k, err)
		}
		out[k] = rv
	}
	return out, nil
}

func resolveValue(v any, refs map[string]string) (any, error) {
	switch val := v.(type) {
	case string:
		return resolveRef(val, refs)
	case map[string]any:
		return resolveArgs(val, refs)
	case []any:
		out := make([]any, len(val))
		for i, elem := range val {
			rv, err := resolveValue(elem, refs)
			if err != nil {
				return nil, err
			}
			out[i] = rv
		}
		return out, nil
	default:
		return v, nil
	}
}

func resolveRef(s string, refs map[string]string) (string, error) {
	if !strings.HasPrefix(s, "$") {
		return s, nil
	}
	id, ok := refs[s[1:]]
	if !ok {
		return "", fmt.Errorf("unbound reference %s", s)
	}
	return id, nil
}
