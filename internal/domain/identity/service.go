package identity

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/voicescreen/voicescreen/internal/platform/apperr"
	"github.com/voicescreen/voicescreen/internal/platform/auth"
	"github.com/voicescreen/voicescreen/internal/platform/qr"
)

// ErrBadCredentials covers both unknown email and wrong password, so a login
// response never reveals which one it was.
var ErrBadCredentials = errors.New("invalid email or password")

const minPasswordLen = 8

type Service struct {
	repo     Repository
	qr       qr.Encoder
	baseURL  string
	secret   []byte
	tokenTTL time.Duration
	now      func() time.Time
}

func NewService(repo Repository, encoder qr.Encoder, baseURL string, secret []byte, tokenTTL time.Duration) *Service {
	return &Service{
		repo:     repo,
		qr:       encoder,
		baseURL:  baseURL,
		secret:   secret,
		tokenTTL: tokenTTL,
		now:      time.Now,
	}
}

// Register creates a clinician account: bcrypt-hashes the password and bakes
// the onboarding QR into the record, so the handout works even if the QR
// library is unavailable later. Duplicate emails map to apperr.ErrDuplicate.
func (s *Service) Register(ctx context.Context, email, password, name string) (*Doctor, error) {
	var fields []string
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" || !strings.Contains(email, "@") {
		fields = append(fields, "email")
	}
	if len(password) < minPasswordLen {
		fields = append(fields, fmt.Sprintf("password: at least %d characters", minPasswordLen))
	}
	if strings.TrimSpace(name) == "" {
		fields = append(fields, "name")
	}
	if len(fields) > 0 {
		return nil, apperr.Validation(fields...)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}

	d := &Doctor{
		ID:           uuid.New(),
		Email:        email,
		PasswordHash: string(hash),
		Name:         strings.TrimSpace(name),
		Role:         RoleDoctor,
		CreatedAt:    s.now().UTC(),
	}
	qrCode, err := s.qr.DataURI(s.OnboardingURL(d.ID))
	if err != nil {
		return nil, err
	}
	d.QRCode = qrCode

	if err := s.repo.Create(ctx, d); err != nil {
		return nil, err
	}
	return d, nil
}

// Login verifies the password and issues a session token.
func (s *Service) Login(ctx context.Context, email, password string) (string, *Doctor, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	d, err := s.repo.ByEmail(ctx, email)
	if errors.Is(err, apperr.ErrNotFound) {
		return "", nil, ErrBadCredentials
	}
	if err != nil {
		return "", nil, err
	}
	if bcrypt.CompareHashAndPassword([]byte(d.PasswordHash), []byte(password)) != nil {
		return "", nil, ErrBadCredentials
	}

	token, err := auth.IssueToken(d.ID.String(), d.Role, s.secret, s.tokenTTL)
	if err != nil {
		return "", nil, err
	}
	return token, d, nil
}

func (s *Service) ByID(ctx context.Context, id uuid.UUID) (*Doctor, error) {
	return s.repo.ByID(ctx, id)
}

// OnboardingURL is the patient intake form pre-bound to the doctor; it is
// what the clinician's QR code encodes.
func (s *Service) OnboardingURL(doctorID uuid.UUID) string {
	return fmt.Sprintf("%s/assessment?doctor=%s", strings.TrimRight(s.baseURL, "/"), doctorID)
}
