package enum

import (
	"database/sql/driver"
	"encoding/json"
)

// CreditPolicy controls what happens when a credit invoice would push a
// customer's projected balance past their credit limit.
type CreditPolicy int

const (
	CreditPolicyBlock           CreditPolicy = 0
	CreditPolicyRequireApproval CreditPolicy = 1
)

func (p CreditPolicy) String() string {
	names := [...]string{"Block", "RequireApproval"}
	if int(p) < 0 || int(p) >= len(names) {
		return "Block"
	}
	return names[p]
}

func (p CreditPolicy) MarshalJSON() ([]byte, error) {
	return json.Marshal(p.String())
}

func (p *CreditPolicy) UnmarshalJSON(data []byte) error {
	var str string
	if err := json.Unmarshal(data, &str); err != nil {
		var i int
		if err := json.Unmarshal(data, &i); err != nil {
			return err
		}
		*p = CreditPolicy(i)
		return nil
	}
	switch str {
	case "Block":
		*p = CreditPolicyBlock
	case "RequireApproval":
		*p = CreditPolicyRequireApproval
	}
	return nil
}

func (p CreditPolicy) Value() (driver.Value, error) {
	return int64(p), nil
}

func (p *CreditPolicy) Scan(value interface{}) error {
	if value == nil {
		*p = CreditPolicyBlock
		return nil
	}
	switch v := value.(type) {
	case int64:
		*p = CreditPolicy(v)
	case int:
		*p = CreditPolicy(v)
	}
	return nil
}
