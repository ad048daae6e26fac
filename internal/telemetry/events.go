// Package telemetry ships analytics events without ever getting in the way of the
// request that produced them.
package telemetry

import (
	"encoding/json"
	"time"

	"github.com/shopspring/decimal"
)

const (
	EventLogin                = "login"
	EventSignUp               = "sign_up"
	EventLogout               = "logout"
	EventAddTransaction       = "add_transaction"
	EventDeleteTransaction    = "delete_transaction"
	EventUpdateDebtBalance    = "update_debt_balance"
	EventUpdateSavingsBalance = "update_savings_balance"
	EventViewCharts           = "view_charts"
	EventHideCharts           = "hide_charts"
)

// Event is a named analytics event with a fixed parameter schema per name
type Event struct {
	Name      string         `json:"name"`
	UserID    string         `json:"user_id,omitempty"`
	Params    map[string]any `json:"params,omitempty"`
	Timestamp time.Time      `json:"timestamp"`
}

// ToJSON encodes the event for the wire
func (e Event) ToJSON() ([]byte, error) {
	return json.Marshal(e)
}

func newEvent(name, userID string, params map[string]any) Event {
	return Event{Name: name, UserID: userID, Params: params, Timestamp: time.Now().UTC()}
}

func Login(userID, method string) Event {
	return newEvent(EventLogin, userID, map[string]any{"method": method})
}

func SignUp(userID, method string) Event {
	return newEvent(EventSignUp, userID, map[string]any{"method": method})
}

func Logout(userID string) Event {
	return newEvent(EventLogout, userID, nil)
}

func AddTransaction(userID, transactionType, category string, amount decimal.Decimal) Event {
	return newEvent(EventAddTransaction, userID, transactionParams(transactionType, category, amount))
}

func DeleteTransaction(userID, transactionType, category string, amount decimal.Decimal) Event {
	return newEvent(EventDeleteTransaction, userID, transactionParams(transactionType, category, amount))
}

// UpdateBalance reports a debt or savings change; kind is "debt" or "savings"
func UpdateBalance(userID, kind string, amount decimal.Decimal, isManual bool) Event {
	name := EventUpdateDebtBalance
	if kind == "savings" {
		name = EventUpdateSavingsBalance
	}
	return newEvent(name, userID, map[string]any{
		"amount":    amount.InexactFloat64(),
		"is_manual": isManual,
	})
}

// ChartsVisibility reports the charts panel being shown or hidden
func ChartsVisibility(userID string, visible bool) Event {
	if visible {
		return newEvent(EventViewCharts, userID, nil)
	}
	return newEvent(EventHideCharts, userID, nil)
}

func transactionParams(transactionType, category string, amount decimal.Decimal) map[string]any {
	return map[string]any{
		"transaction_type": transactionType,
		"category":         category,
		"amount":           amount.InexactFloat64(),
	}
}
