// Package harness runs YAML scenarios against the reducer and the lifecycle
// policy.
//
// # Scenario Format
//
//	name: dine_in_order
//	description: "One biryani at table T1 comes to 105.00"
//	setup:
//	  - action: ADD_TABLE
//	    args: { table: { id: T1, name: "Table 1", status: AVAILABLE } }
//	flow:
//	  - policy: add_to_cart
//	    args: { itemId: M1, quantity: 1 }
//	  - policy: place
//	    as: order
//	    args: { tableId: T1, type: DINE_IN }
//	  - policy: void
//	    args: { orderId: $order }
//	    expect_error: INVALID_TRANSITION
//	assertions:
//	  - type: order_total
//	    order: $order
//	    total: "105.00"
//
// Setup steps and flow steps both take either a reducer action (action:
// followed by its wire name) or a policy operation (policy: followed by one
// of add_to_cart, place, advance, void, settle, split, release, reserve,
// staff_login, print_kot). A policy step's "as" names the id it produced:
// the order for place and split, the cart line for add_to_cart, the booking
// for reserve. "$name" anywhere in later args or assertions refers to it.
//
// A flow step may carry its own assert list, checked right after the step.
//
// # Assertion Types
//
//   - order_status: order has status
//   - order_count: number of orders
//   - order_total: stored total of an order, compared as a decimal
//   - order_items: number of lines on an order
//   - table_status: table has status, and optionally current_order and
//     merged_into
//   - cart_lines: number of cart lines
//   - invoice_counter: the next invoice number
//
// # Deterministic Testing
//
// Every run starts from the default restaurant with the seeded admin, a
// StepClock at testutil.Epoch advancing one minute per reading and
// sequential ids, so two runs of a scenario produce identical traces.
package harness
