// Package twofactor manages TOTP enrollment and verification for
// wallets.
package twofactor

import (
	"context"
	"strings"
	"time"

	"github.com/pkg/errors"
	"github.com/pquerna/otp"
	"github.com/pquerna/otp/totp"
	"github.com/rs/zerolog/log"

	"github.com/coinpurse/wallet-sim/internal/ledger"
	"github.com/coinpurse/wallet-sim/internal/metrics"
	"github.com/coinpurse/wallet-sim/internal/qr"
)

// DefaultIssuer is the issuer shown in authenticator apps.
const DefaultIssuer = "CoinPurse"

// secretSize is the raw secret length in bytes (32 base32 characters).
const secretSize = 20

// Enrollment is returned once, at enrollment time. The secret and QR
// code are never shown again.
type Enrollment struct {
	Secret string `json:"secret"`
	URL    string `json:"otpauth_url"`
	QRCode string `json:"qr_code"`
}

// Service verifies time-based one-time codes against wallet secrets.
type Service struct {
	store  ledger.Store
	issuer string
	now    func() time.Time
}

// Option configures a Service.
type Option func(*Service)

// WithIssuer overrides the issuer label.
func WithIssuer(issuer string) Option {
	return func(s *Service) { s.issuer = issuer }
}

// WithClock overrides the wall clock, for tests.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

func NewService(store ledger.Store, opts ...Option) *Service {
	s := &Service{
		store:  store,
		issuer: DefaultIssuer,
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Enroll generates a fresh TOTP secret for a wallet and stores it.
// Fails with ErrTwoFactorEnrolled when the wallet already has one;
// disable first to rotate.
func (s *Service) Enroll(ctx context.Context, address string) (*Enrollment, error) {
	w, err := s.store.GetWallet(ctx, address)
	if err != nil {
		return nil, err
	}
	if w.TwoFactorEnabled() {
		return nil, ledger.ErrTwoFactorEnrolled
	}

	key, err := totp.Generate(totp.GenerateOpts{
		Issuer:      s.issuer,
		AccountName: address,
		SecretSize:  secretSize,
	})
	if err != nil {
		return nil, errors.Wrap(err, "generate totp secret")
	}

	qrCode, err := qr.DataURI(key.URL())
	if err != nil {
		return nil, err
	}

	if err := s.store.SetTwoFactorSecret(ctx, address, key.Secret()); err != nil {
		return nil, err
	}

	metrics.TwoFactorEnrollments.Inc()
	log.Info().Str("address", address).Msg("2FA enabled")
	return &Enrollment{Secret: key.Secret(), URL: key.URL(), QRCode: qrCode}, nil
}

// Verify checks a code against the wallet's secret. A wrong code is
// not an error; it just reports invalid. Codes from the adjacent time
// window are accepted to tolerate clock skew.
func (s *Service) Verify(ctx context.Context, address, code string) (bool, error) {
	w, err := s.store.GetWallet(ctx, address)
	if err != nil {
		return false, err
	}
	if !w.TwoFactorEnabled() {
		return false, ledger.ErrTwoFactorNotEnrolled
	}
	return s.validate(code, w.TwoFactorSecret), nil
}

// Disable removes a wallet's TOTP secret. The caller must present a
// currently valid code.
func (s *Service) Disable(ctx context.Context, address, code string) error {
	w, err := s.store.GetWallet(ctx, address)
	if err != nil {
		return err
	}
	if !w.TwoFactorEnabled() {
		return ledger.ErrTwoFactorNotEnrolled
	}
	if !s.validate(code, w.TwoFactorSecret) {
		return ledger.ErrUnauthorized
	}
	if err := s.store.ClearTwoFactorSecret(ctx, address); err != nil {
		return err
	}

	metrics.TwoFactorEnrollments.Dec()
	log.Info().Str("address", address).Msg("2FA disabled")
	return nil
}

func (s *Service) validate(code, secret string) bool {
	valid, err := totp.ValidateCustom(strings.TrimSpace(code), secret, s.now().UTC(), totp.ValidateOpts{
		Period:    30,
		Skew:      1,
		Digits:    otp.DigitsSix,
		Algorithm: otp.AlgorithmSHA1,
	})
	if err != nil {
		return false
	}
	return valid
}
