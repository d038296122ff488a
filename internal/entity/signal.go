package entity

import "fmt"

// SignalType identifies what kind of observation produced a signal.
type SignalType string

const (
	SignalForeigner        SignalType = "foreigner"
	SignalInstitution      SignalType = "institution"
	SignalMajorShareholder SignalType = "major_shareholder"
	SignalExecutiveTrading SignalType = "executive_trading"
)

// Priority orders signals for delivery.
type Priority string

const (
	PriorityHigh   Priority = "high"
	PriorityMedium Priority = "medium"
	PriorityLow    Priority = "low"
)

// Rank returns a sortable rank, high first.
func (p Priority) Rank() int {
	switch p {
	case PriorityHigh:
		return 0
	case PriorityMedium:
		return 1
	case PriorityLow:
		return 2
	}
	return 99
}

// AlertID identifies one alert for dedup purposes. Flow alerts are keyed by
// (type, date, code); disclosure alerts by (type, rcept no). The rendered
// form matches the identifiers persisted in state.json.
type AlertID struct {
	Type    SignalType
	Date    string // flow alerts only
	Code    string // flow alerts only
	RceptNo string // disclosure alerts only
}

// FlowAlertID builds the alert identity for a flow signal.
func FlowAlertID(t SignalType, date, code string) AlertID {
	return AlertID{Type: t, Date: date, Code: code}
}

// DisclosureAlertID builds the alert identity for a disclosure signal.
func DisclosureAlertID(t SignalType, rceptNo string) AlertID {
	return AlertID{Type: t, RceptNo: rceptNo}
}

// String renders the persisted identifier.
func (a AlertID) String() string {
	if a.RceptNo != "" {
		// Disclosure ids use the short "major"/"executive" prefixes the state
		// file has always carried.
		prefix := string(a.Type)
		switch a.Type {
		case SignalMajorShareholder:
			prefix = "major"
		case SignalExecutiveTrading:
			prefix = "executive"
		}
		return fmt.Sprintf("%s_%s", prefix, a.RceptNo)
	}
	return fmt.Sprintf("%s_%s_%s", a.Type, a.Date, a.Code)
}

// Signal is an alertable observation produced per run. Exactly one of Flow
// or Disclosure is set, depending on Type.
type Signal struct {
	Type       SignalType
	Priority   Priority
	Flow       *FlowRecord
	Disclosure *DisclosureRecord
	Reason     string
}
