package auth

import (
	"context"
	"crypto/rand"
	"database/sql"
	"errors"
	"fmt"
	"math/big"
	"time"

	"github.com/ezza-forms/backend/log"
)

// ErrInvalidOTP covers every failure mode of code verification: unknown
// email, wrong code, expired code. Callers must not distinguish them.
var ErrInvalidOTP = errors.New("invalid or expired code")

// OTPStore keeps login codes in the database rather than process memory, so
// codes survive restarts and expired rows can be swept explicitly.
type OTPStore struct {
	db  *sql.DB
	ttl time.Duration
}

func NewOTPStore(db *sql.DB, ttl time.Duration) *OTPStore {
	return &OTPStore{db: db, ttl: ttl}
}

// Issue generates a fresh 6-digit code for the email, replacing any code
// already pending for it.
func (s *OTPStore) Issue(ctx context.Context, email string) (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(1_000_000))
	if err != nil {
		return "", err
	}
	code := fmt.Sprintf("%06d", n.Int64())

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO login_otps (email, code, expires_at) VALUES (?, ?, ?)
		ON CONFLICT (email) DO UPDATE SET code = excluded.code, expires_at = excluded.expires_at`,
		email,
		code,
		time.Now().Add(s.ttl),
	)
	if err != nil {
		return "", err
	}
	return code, nil
}

// Verify checks the code and consumes it. A code can be used at most once;
// mismatch and expiry both fail closed with ErrInvalidOTP.
func (s *OTPStore) Verify(ctx context.Context, email, code string) error {
	var stored string
	var expiresAt time.Time
	err := s.db.QueryRowContext(ctx, `
		SELECT code, expires_at FROM login_otps WHERE email = ?`,
		email,
	).Scan(&stored, &expiresAt)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		return ErrInvalidOTP
	case err != nil:
		return err
	}

	if stored != code || time.Now().After(expiresAt) {
		return ErrInvalidOTP
	}

	_, err = s.db.ExecContext(ctx, `DELETE FROM login_otps WHERE email = ?`, email)
	return err
}

// Sweep deletes expired codes.
func (s *OTPStore) Sweep(ctx context.Context) (int64, error) {
	res, err := s.db.ExecContext(ctx, `DELETE FROM login_otps WHERE expires_at < ?`, time.Now())
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

// RunSweeper sweeps on the given interval until ctx is canceled.
func (s *OTPStore) RunSweeper(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			n, err := s.Sweep(ctx)
			if err != nil {
				log.Errorf("otp.sweep: %s", err)
			} else if n > 0 {
				log.Debugf("otp.sweep: removed %d expired codes", n)
			}
		}
	}
}
