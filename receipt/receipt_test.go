package receipt

import (
	"testing"
	"time"

	"slether-arena/lobby"
)

func testResult() lobby.CashoutResult {
	return lobby.CashoutResult{
		PlayerID: "p1",
		RoomID:   "room-1",
		Name:     "Alice",
		Earnings: 4.5,
		Payout:   9.5,
		Kills:    3,
		Deaths:   1,
		Elapsed:  90 * time.Second,
	}
}

func TestSignAndVerify(t *testing.T) {
	s := NewSigner("secret", "arena", time.Hour)
	token, err := s.SignCashout(testResult())
	if err != nil {
		t.Fatalf("sign: %v", err)
	}
	claims, err := s.Verify(token)
	if err != nil {
		t.Fatalf("verify: %v", err)
	}
	if claims.Subject != "p1" || claims.RoomID != "room-1" || claims.Payout != 9.5 || claims.Kills != 3 {
		t.Fatalf("claims = %+v", claims)
	}
	if claims.ElapsedMS != 90000 || claims.Issuer != "arena" {
		t.Fatalf("claims = %+v", claims)
	}
}

func TestVerifyRejectsWrongSecret(t *testing.T) {
	token, err := NewSigner("secret", "arena", time.Hour).SignCashout(testResult())
	if err != nil {
		t.Fatalf("sign: %v", err)
	}
	if _, err := NewSigner("other", "arena", time.Hour).Verify(token); err == nil {
		t.Fatalf("expected signature error")
	}
}

func TestVerifyRejectsExpired(t *testing.T) {
	s := NewSigner("secret", "arena", time.Minute)
	s.now = func() time.Time { return time.Now().Add(-time.Hour) }
	token, err := s.SignCashout(testResult())
	if err != nil {
		t.Fatalf("sign: %v", err)
	}
	if _, err := s.Verify(token); err == nil {
		t.Fatalf("expected expiry error")
	}
}

func TestSignWithoutSecret(t *testing.T) {
	if _, err := NewSigner("", "arena", time.Hour).SignCashout(testResult()); err == nil {
		t.Fatalf("expected error without secret")
	}
}
