package enum

import (
	"database/sql/driver"
	"encoding/json"
)

// TaxPolicy represents how VAT relates to a unit price: added on top
// (exclusive) or already contained in it (inclusive). The company setting is
// the default; an item may override it, and a line freezes the policy it was
// created with.
type TaxPolicy int

const (
	TaxPolicyExclusive TaxPolicy = 0
	TaxPolicyInclusive TaxPolicy = 1
)

func (t TaxPolicy) String() string {
	names := [...]string{"Exclusive", "Inclusive"}
	if int(t) < 0 || int(t) >= len(names) {
		return "Exclusive"
	}
	return names[t]
}

func (t TaxPolicy) MarshalJSON() ([]byte, error) {
	return json.Marshal(t.String())
}

func (t *TaxPolicy) UnmarshalJSON(data []byte) error {
	var str string
	if err := json.Unmarshal(data, &str); err != nil {
		var i int
		if err := json.Unmarshal(data, &i); err != nil {
			return err
		}
		*t = TaxPolicy(i)
		return nil
	}
	switch str {
	case "Exclusive":
		*t = TaxPolicyExclusive
	case "Inclusive":
		*t = TaxPolicyInclusive
	}
	return nil
}

func (t TaxPolicy) Value() (driver.Value, error) {
	return int64(t), nil
}

func (t *TaxPolicy) Scan(value interface{}) error {
	if value == nil {
		*t = TaxPolicyExclusive
		return nil
	}
	switch v := value.(type) {
	case int64:
		*t = TaxPolicy(v)
	case int:
		*t = TaxPolicy(v)
	}
	return nil
}
