package main

import "testing"

func TestDemoAffiliateRegisterInput(t *testing.T) {
	for _, item := range demoAffiliates {
		input := item.registerInput()
		if input.Email != item.email || input.Name != item.name {
			t.Fatalf("unexpected input for %s: %+v", item.email, input)
		}
		if item.rate == "" {
			if input.CommissionRate != nil {
				t.Fatalf("%s should use merchant default rate", item.email)
			}
			continue
		}
		if input.CommissionRate == nil || input.CommissionRate.String() != item.rate {
			t.Fatalf("%s rate mismatch: %v", item.email, input.CommissionRate)
		}
	}
}
