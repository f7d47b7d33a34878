package rules

// Default returns the built-in rule table. Rule names double as the flag
// labels handed to the reasoning engine, so they carry the wording its
// keyword matcher looks for.
func Default() *Engine {
	engine, err := NewEngine([]Rule{
		{
			Name:      "AMOUNT_OVER_10K",
			Enabled:   true,
			Type:      TypeSimple,
			Condition: &Condition{Field: "amount", Op: "gt", Value: 10000.0},
		},
		{
			Name:      "REAPPLY_VELOCITY_24_HOURS",
			Enabled:   true,
			Type:      TypeSimple,
			Condition: &Condition{Field: "reapplyVelocityFlag", Op: "true"},
		},
		{
			Name:      "KYC IDENTITY MISMATCH",
			Enabled:   true,
			Type:      TypeSimple,
			Condition: &Condition{Field: "kycVerified", Op: "eq", Value: "false"},
		},
		{
			Name:      "MULTIPLE ACTIVE LOANS",
			Enabled:   true,
			Type:      TypeSimple,
			Condition: &Condition{Field: "activeLoansCount", Op: "gt", Value: 2.0},
		},
		{
			Name:      "NEW_DEVICE_LOGIN",
			Enabled:   true,
			Type:      TypeSimple,
			Condition: &Condition{Field: "newDeviceFlag", Op: "true"},
		},
		{
			Name:     "HIGH VALUE ON NEW DEVICE",
			Enabled:  true,
			Type:     TypeComposite,
			Operator: OpAll,
			SubRules: []string{"AMOUNT_OVER_10K", "NEW_DEVICE_LOGIN"},
		},
	})
	if err != nil {
		// The built-in table is static; a construction failure is a bug.
		panic(err)
	}
	return engine
}
