// Package receipt signs cashout results so an external payout service can
// verify the amounts were produced by this server.
package receipt

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v4"

	"slether-arena/lobby"
)

// Claims is the signed body of a cashout receipt.
type Claims struct {
	RoomID    string  `json:"room"`
	Name      string  `json:"name"`
	Earnings  float64 `json:"earnings"`
	Payout    float64 `json:"payout"`
	Kills     int     `json:"kills"`
	Deaths    int     `json:"deaths"`
	ElapsedMS int64   `json:"elapsedMs"`
	jwt.RegisteredClaims
}

// Signer issues HS256 receipts.
type Signer struct {
	secret []byte
	issuer string
	ttl    time.Duration
	now    func() time.Time
}

// NewSigner creates a signer. Receipts expire after ttl.
func NewSigner(secret, issuer string, ttl time.Duration) *Signer {
	return &Signer{secret: []byte(secret), issuer: issuer, ttl: ttl, now: time.Now}
}

// SignCashout implements lobby.CashoutSigner
func (s *Signer) SignCashout(res lobby.CashoutResult) (string, error) {
	if len(s.secret) == 0 {
		return "", errors.New("receipt secret not configured")
	}
	now := s.now()
	claims := Claims{
		RoomID:    res.RoomID,
		Name:      res.Name,
		Earnings:  res.Earnings,
		Payout:    res.Payout,
		Kills:     res.Kills,
		Deaths:    res.Deaths,
		ElapsedMS: res.Elapsed.Milliseconds(),
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   res.PlayerID,
			Issuer:    s.issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.ttl)),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("sign receipt: %w", err)
	}
	return signed, nil
}

// Verify parses a receipt and checks its signature and expiry.
func (s *Signer) Verify(tokenString string) (*Claims, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return s.secret, nil
	})
	if err != nil {
		return nil, err
	}
	if !token.Valid {
		return nil, errors.New("invalid receipt")
	}
	return claims, nil
}
