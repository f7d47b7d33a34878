package knowledge

// Default returns the built-in policy tables. The entry order below is the
// render order for retrieved context; the rule order is the keyword
// precedence contract.
func Default() *Base {
	entries := []Entry{
		{Key: "AMOUNT_HIGH", Text: "High transaction amounts are often correlated with account takeover or mule activity."},
		{Key: "VELOCITY_REAPPLY", Text: "Applying for a loan multiple times within a short period suggests rule evasion or high risk, relating to the 'second time within 24 hours' rule."},
		{Key: "IDENTITY_MISMATCH", Text: "A discrepancy with NID or TIN registration suggests identity fraud or synthetic identity attempts."},
		{Key: "ACTIVE_LOAN_CHECK", Text: "The presence of an existing active loan often correlates with debt stacking and solvency risk."},
		{Key: "NEW_DEVICE_LOGIN", Text: "A new device being used to log in or transact increases the probability of fraud, especially if geolocation changes."},
		{Key: AnomalyKey, Text: "The AI Anomaly Detection Model has flagged a significant risk driver that is too subtle for manual rules."},
	}
	rules := []FlagRule{
		{Keyword: "amount", Key: "AMOUNT_HIGH"},
		{Keyword: "reapply", Key: "VELOCITY_REAPPLY"},
		{Keyword: "24 hours", Key: "VELOCITY_REAPPLY"},
		{Keyword: "tin", Key: "IDENTITY_MISMATCH"},
		{Keyword: "nid", Key: "IDENTITY_MISMATCH"},
		{Keyword: "kyc", Key: "IDENTITY_MISMATCH"},
		{Keyword: "active loan", Key: "ACTIVE_LOAN_CHECK"},
		{Keyword: "device", Key: "NEW_DEVICE_LOGIN"},
	}
	base, err := New(entries, rules)
	if err != nil {
		// The built-in tables are static; a construction failure is a bug.
		panic(err)
	}
	return base
}
