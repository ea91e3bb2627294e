package harness

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/azairamail/EASYAiPOS/internal/pos"
)

// Scenario is one executable example of the ordering rules.
type Scenario struct {
	Name        string `yaml:"name"`
	Description string `yaml:"description"`

	// Setup establishes the floor and menu. Setup steps must succeed.
	Setup []Step `yaml:"setup,omitempty"`

	Flow []Step `yaml:"flow"`

	Assertions []Assertion `yaml:"assertions"`
}

// Step is either a reducer action or a policy operation.
type Step struct {
	// Action is the wire name of a reducer action, e.g. ADD_TABLE.
	Action string `yaml:"action,omitempty"`

	// Policy is a lifecycle operation name, e.g. advance.
	Policy string `yaml:"policy,omitempty"`

	Args map[string]any `yaml:"args,omitempty"`

	// As names the order a policy step produced, for $name references.
	As string `yaml:"as,omitempty"`

	// ExpectError is the policy error code the step must fail with.
	ExpectError string `yaml:"expect_error,omitempty"`

	// Assert is checked right after the step.
	Assert []Assertion `yaml:"assert,omitempty"`
}

// Assertion checks the state.
type Assertion struct {
	Type string `yaml:"type"`

	Order string `yaml:"order,omitempty"`
	Table string `yaml:"table,omitempty"`

	Status string `yaml:"status,omitempty"`
	Total  string `yaml:"total,omitempty"`
	Count  *int   `yaml:"count,omitempty"`
	Value  *int64 `yaml:"value,omitempty"`

	CurrentOrder *string `yaml:"current_order,omitempty"`
	MergedInto   *string `yaml:"merged_into,omitempty"`
}

// Assertion type constants.
const (
	AssertOrderStatus    = "order_status"
	AssertOrderCount     = "order_count"
	AssertOrderTotal     = "order_total"
	AssertOrderItems     = "order_items"
	AssertTableStatus    = "table_status"
	AssertCartLines      = "cart_lines"
	AssertInvoiceCounter = "invoice_counter"
)

// Policy step names.
const (
	PolicyAddToCart  = "add_to_cart"
	PolicyPlace      = "place"
	PolicyAdvance    = "advance"
	PolicyVoid       = "void"
	PolicySettle     = "settle"
	PolicySplit      = "split"
	PolicyRelease    = "release"
	PolicyReserve    = "reserve"
	PolicyStaffLogin = "staff_login"
	PolicyPrintKOT   = "print_kot"
)

var policies = map[string]bool{
	PolicyAddToCart: true, PolicyPlace: true, PolicyAdvance: true, PolicyVoid: true,
	PolicySettle: true, PolicySplit: true, PolicyRelease: true, PolicyReserve: true,
	PolicyStaffLogin: true, PolicyPrintKOT: true,
}

// LoadScenario reads and parses a scenario YAML file.
// Returns an error if the file doesn't exist, is malformed,
// contains unknown fields (typos), or is missing required fields.
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario file: %w", err)
	}
	return ParseScenario(data)
}

// ParseScenario parses scenario YAML.
func ParseScenario(data []byte) (*Scenario, error) {
	var scenario Scenario
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true) // Reject unknown fields
	if err := decoder.Decode(&scenario); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	if err := validateScenario(&scenario); err != nil {
		return nil, fmt.Errorf("invalid scenario: %w", err)
	}
	return &scenario, nil
}

// FindScenarios lists the .yaml and .yml files under dir, sorted.
func FindScenarios(dir string) ([]string, error) {
	var files []string
	err := filepath.WalkDir(dir, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		if ext := strings.ToLower(filepath.Ext(path)); ext == ".yaml" || ext == ".yml" {
			files = append(files, path)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("scan %s: %w", dir, err)
	}
	sort.Strings(files)
	return files, nil
}

func validateScenario(s *Scenario) error {
	if s.Name == "" {
		return fmt.Errorf("name is required")
	}
	if s.Description == "" {
		return fmt.Errorf("description is required")
	}
	if len(s.Flow) == 0 {
		return fmt.Errorf("flow list is required and must be non-empty")
	}
	if len(s.Assertions) == 0 {
		return fmt.Errorf("assertions list is required and must be non-empty")
	}

	for i, step := range s.Setup {
		if err := validateStep(fmt.Sprintf("setup[%d]", i), step); err != nil {
			return err
		}
		if step.ExpectError != "" {
			return fmt.Errorf("setup[%d]: setup steps cannot expect errors", i)
		}
	}
	for i, step := range s.Flow {
		where := fmt.Sprintf("flow[%d]", i)
		if err := validateStep(where, step); err != nil {
			return err
		}
		for j, a := range step.Assert {
			if err := validateAssertion(fmt.Sprintf("%s.assert[%d]", where, j), a); err != nil {
				return err
			}
		}
	}
	for i, a := range s.Assertions {
		if err := validateAssertion(fmt.Sprintf("assertions[%d]", i), a); err != nil {
			return err
		}
	}
	return nil
}

func validateStep(where string, step Step) error {
	switch {
	case step.Action == "" && step.Policy == "":
		return fmt.Errorf("%s: action or policy is required", where)
	case step.Action != "" && step.Policy != "":
		return fmt.Errorf("%s: action and policy are exclusive", where)
	}
	if step.Action != "" {
		if !knownKind(pos.Kind(step.Action)) {
			return fmt.Errorf("%s: unknown action %q", where, step.Action)
		}
		if step.ExpectError != "" {
			return fmt.Errorf("%s: reducer actions never fail; expect_error needs a policy step", where)
		}
		if step.As != "" {
			return fmt.Errorf("%s: as needs a policy step", where)
		}
	}
	if step.Policy != "" && !policies[step.Policy] {
		return fmt.Errorf("%s: unknown policy %q", where, step.Policy)
	}
	return nil
}

func knownKind(k pos.Kind) bool {
	for _, known := range pos.Kinds() {
		if k == known {
			return true
		}
	}
	return false
}

func validateAssertion(where string, a Assertion) error {
	switch a.Type {
	case "":
		return fmt.Errorf("%s: type is required", where)
	case AssertOrderStatus:
		if a.Order == "" || a.Status == "" {
			return fmt.Errorf("%s: order and status are required for order_status", where)
		}
	case AssertOrderTotal:
		if a.Order == "" || a.Total == "" {
			return fmt.Errorf("%s: order and total are required for order_total", where)
		}
	case AssertOrderItems:
		if a.Order == "" || a.Count == nil {
			return fmt.Errorf("%s: order and count are required for order_items", where)
		}
	case AssertOrderCount, AssertCartLines:
		if a.Count == nil {
			return fmt.Errorf("%s: count is required for %s", where, a.Type)
		}
	case AssertTableStatus:
		if a.Table == "" {
			return fmt.Errorf("%s: table is required for table_status", where)
		}
	case AssertInvoiceCounter:
		if a.Value == nil {
			return fmt.Errorf("%s: value is required for invoice_counter", where)
		}
	default:
		return fmt.Errorf("%s: unknown assertion type %q", where, a.Type)
	}
	return nil
}
