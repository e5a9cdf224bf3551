package credits

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

type Service struct {
	repo        Repository
	freeCredits int
}

func NewService(repo Repository, freeCredits int) *Service {
	return &Service{repo: repo, freeCredits: freeCredits}
}

// GrantInitial tops a new user up to the free allowance. Safe to call on
// every login: only the first call has an effect.
func (s *Service) GrantInitial(ctx context.Context, userID uuid.UUID) error {
	granted, err := s.repo.GrantInitial(ctx, userID, s.freeCredits, "Creditos iniciais gratis")
	if err != nil {
		return err
	}
	if granted > 0 {
		log.Info().
			Str("user_id", userID.String()).
			Int("amount", granted).
			Msg("initial credits granted")
	}
	return nil
}

// Purchase mints the credits of a known package. Unknown package IDs fail
// with ErrInvalidPackage before any balance change.
func (s *Service) Purchase(ctx context.Context, userID uuid.UUID, packageID string) (int, error) {
	pkg, ok := Packages[packageID]
	if !ok {
		return 0, ErrInvalidPackage
	}

	if err := s.repo.Add(ctx, userID, pkg.Credits, pkg.Description); err != nil {
		return 0, err
	}

	balance, err := s.repo.Balance(ctx, userID)
	if err != nil {
		return 0, err
	}

	log.Info().
		Str("user_id", userID.String()).
		Str("package", packageID).
		Int("credits", pkg.Credits).
		Msg("credit package purchased")
	return balance, nil
}

// DebitForGeneration spends quantity credits for a generation job.
func (s *Service) DebitForGeneration(ctx context.Context, userID uuid.UUID, quantity int) error {
	desc := fmt.Sprintf("Geracao de %d imagens", quantity)
	return s.repo.Deduct(ctx, userID, quantity, desc)
}

func (s *Service) Balance(ctx context.Context, userID uuid.UUID) (int, error) {
	return s.repo.Balance(ctx, userID)
}

func (s *Service) ListTransactions(ctx context.Context, userID uuid.UUID) ([]Transaction, error) {
	return s.repo.ListTransactions(ctx, userID, 50)
}
