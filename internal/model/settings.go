package model

// NotificationSettings holds the per-category notification toggles.
// The zero value is the default: everything enabled, sound on.
type NotificationSettings struct {
	// SilentMode mutes the terminal bell for new toasts.
	SilentMode bool `json:"silentMode"`

	// DisableSigma suppresses toasts for new Sigma rules.
	DisableSigma bool `json:"disableSigma"`

	// DisableReports suppresses toasts for new reports.
	DisableReports bool `json:"disableReports"`

	// DisableThreats suppresses toasts for new threats.
	DisableThreats bool `json:"disableThreats"`
}

// Suppresses reports whether an alert of type t must not surface as a toast.
// Types outside the known categories are never suppressed.
func (s NotificationSettings) Suppresses(t AlertType) bool {
	switch t {
	case AlertTypeSigma:
		return s.DisableSigma
	case AlertTypeReport:
		return s.DisableReports
	case AlertTypeThreat:
		return s.DisableThreats
	default:
		return false
	}
}
