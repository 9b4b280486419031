package enum

import (
	"database/sql/driver"
	"encoding/json"
)

// PaymentMode represents the instrument family settling an invoice.
type PaymentMode int

const (
	PaymentModeCash   PaymentMode = 0
	PaymentModeCard   PaymentMode = 1
	PaymentModeCredit PaymentMode = 2
)

func (m PaymentMode) String() string {
	names := [...]string{"Cash", "Card", "Credit"}
	if int(m) < 0 || int(m) >= len(names) {
		return "Cash"
	}
	return names[m]
}

func (m PaymentMode) MarshalJSON() ([]byte, error) {
	return json.Marshal(m.String())
}

func (m *PaymentMode) UnmarshalJSON(data []byte) error {
	var str string
	if err := json.Unmarshal(data, &str); err != nil {
		var i int
		if err := json.Unmarshal(data, &i); err != nil {
			return err
		}
		*m = PaymentMode(i)
		return nil
	}
	switch str {
	case "Cash":
		*m = PaymentModeCash
	case "Card":
		*m = PaymentModeCard
	case "Credit":
		*m = PaymentModeCredit
	}
	return nil
}

func (m PaymentMode) Value() (driver.Value, error) {
	return int64(m), nil
}

func (m *PaymentMode) Scan(value interface{}) error {
	if value == nil {
		*m = PaymentModeCash
		return nil
	}
	switch v := value.(type) {
	case int64:
		*m = PaymentMode(v)
	case int:
		*m = PaymentMode(v)
	}
	return nil
}
