package services

import "testing"

func TestLoyaltyDiscount(t *testing.T) {
	tests := []struct {
		name         string
		userID       string
		subtotal     float64
		wantDiscount float64
		wantPerks    int
	}{
		{"platinum member", "platinum-amy", 100, 10, 1},
		{"business account", "business_acme", 200, 30, 1},
		{"regular shopper", "casual-carl", 100, 0, 0},
		{"tier word inside id does not count", "my-platinum-friend", 100, 0, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			discount, perks := loyaltyDiscount(tt.userID, tt.subtotal)
			if discount != tt.wantDiscount {
				t.Errorf("discount = %v, want %v", discount, tt.wantDiscount)
			}
			if len(perks) != tt.wantPerks {
				t.Errorf("perks = %v, want %d entries", perks, tt.wantPerks)
			}
		})
	}
}

func TestTierPrefix(t *testing.T) {
	tests := []struct {
		userID string
		want   string
	}{
		{"platinum-amy", "platinum"},
		{"business_acme", "business"},
		{"anonymous", "anonymous"},
		{"", ""},
	}

	for _, tt := range tests {
		if got := tierPrefix(tt.userID); got != tt.want {
			t.Errorf("tierPrefix(%q) = %q, want %q", tt.userID, got, tt.want)
		}
	}
}

func TestRound2(t *testing.T) {
	if got := round2(19.999); got != 20.0 {
		t.Errorf("round2(19.999) = %v", got)
	}
	if got := round2(10.004); got != 10.0 {
		t.Errorf("round2(10.004) = %v", got)
	}
}
