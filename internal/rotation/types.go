package rotation

import "fmt"

// SwitchReason classifies why a switch happened. The set is closed; audit
// entries and API payloads only ever carry one of these values.
type SwitchReason string

const (
	ReasonAutoQuota SwitchReason = "auto_quota"
	ReasonManual    SwitchReason = "manual"
	ReasonTest      SwitchReason = "test"
)

// ParseSwitchReason maps a wire value onto the closed reason set,
// defaulting to manual for anything unrecognized.
func ParseSwitchReason(s string) SwitchReason {
	switch SwitchReason(s) {
	case ReasonAutoQuota, ReasonManual, ReasonTest:
		return SwitchReason(s)
	default:
		return ReasonManual
	}
}

// AccountStats tracks per-account usage counters.
type AccountStats struct {
	SwitchesCount int    `yaml:"switches_count" json:"switches_count"`
	LastUsed      string `yaml:"last_used,omitempty" json:"last_used,omitempty"`
}

// RotationState is the durable record of which account is active and how
// the pool has been used. It is only ever mutated inside a locked swap.
type RotationState struct {
	CurrentIndex  int                     `yaml:"current_index" json:"current_index"`
	TotalAccounts int                     `yaml:"total_accounts" json:"total_accounts"`
	LastSwitch    string                  `yaml:"last_switch,omitempty" json:"last_switch,omitempty"`
	SwitchesTotal int                     `yaml:"switches_total" json:"switches_total"`
	Accounts      map[string]AccountStats `yaml:"accounts" json:"accounts"`
}

// Clone returns a deep copy so callers can hand snapshots around without
// aliasing the accounts map.
func (s RotationState) Clone() RotationState {
	out := s
	out.Accounts = make(map[string]AccountStats, len(s.Accounts))
	for k, v := range s.Accounts {
		out.Accounts[k] = v
	}
	return out
}

// AccountKey renders the state-file key for an account index ("account3").
func AccountKey(index int) string {
	return fmt.Sprintf("account%d", index)
}

// AccountInfo is the per-account view returned by ListAccounts.
type AccountInfo struct {
	Index         int    `json:"index"`
	Active        bool   `json:"active"`
	Exists        bool   `json:"exists"`
	SwitchesCount int    `json:"switches_count"`
	LastUsed      string `json:"last_used,omitempty"`
}

// Stats is the aggregate summary returned by GetStats.
type Stats struct {
	Accounts       map[string]int `json:"accounts"`
	TotalSwitches  int            `json:"total_switches"`
	LastSwitch     string         `json:"last_switch,omitempty"`
	CurrentAccount string         `json:"current_account"`
	MostUsed       string         `json:"most_used_account"`
	MostUsedCount  int            `json:"most_used_count"`
}
