package alerting

// DefaultRules is the starter rule set installed on first boot.
func DefaultRules() []Rule {
	return []Rule{
		{
			ID:        "1",
			Name:      "Healthcare Ransomware Monitor",
			Industry:  "Healthcare",
			Keywords:  []string{"ransomware", "healthcare", "hospital"},
			Targets:   []string{"*.hospital.com", "10.0.0.0/8"},
			AlertType: "Email",
			Frequency: "Immediate",
			CreatedAt: "2024-01-10T14:30:00Z",
			Enabled:   true,
		},
		{
			ID:        "2",
			Name:      "Financial Phishing Watch",
			Industry:  "Finance",
			Keywords:  []string{"phishing", "banking", "credential"},
			Targets:   []string{"*.bank.com"},
			AlertType: "Slack",
			Frequency: "Daily",
			CreatedAt: "2024-01-08T09:15:00Z",
			Enabled:   true,
		},
		{
			ID:        "3",
			Name:      "APT Group Activity",
			Industry:  "Technology",
			Keywords:  []string{"apt", "advanced-persistent-threat"},
			Targets:   []string{"*.techcorp.com"},
			AlertType: "Email",
			Frequency: "Weekly",
			CreatedAt: "2024-01-05T16:45:00Z",
			Enabled:   false,
		},
	}
}
