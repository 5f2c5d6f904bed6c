package accounts

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/Rhymond/go-money"

	"github.com/cleared-dev/backoffice/internal/model"
)

// Service holds the reference accounts of a workspace.
type Service struct {
	accounts []model.Account
}

// NewService creates a Service from a slice of accounts.
func NewService(accounts []model.Account) *Service {
	return &Service{accounts: accounts}
}

// Path returns the accounts file of a repo.
func Path(repoRoot string) string {
	return filepath.Join(repoRoot, "reference", "accounts.csv")
}

// Load reads reference/accounts.csv from a repo root and returns a Service.
func Load(repoRoot string) (*Service, error) {
	f, err := os.Open(Path(repoRoot))
	if err != nil {
		return nil, fmt.Errorf("opening accounts: %w", err)
	}
	defer f.Close()

	accts, err := ReadAccounts(f)
	if err != nil {
		return nil, fmt.Errorf("reading accounts: %w", err)
	}
	return NewService(accts), nil
}

// All returns all accounts.
func (s *Service) All() []model.Account {
	return s.accounts
}

// Validate checks for duplicate IDs, blank names and unknown currencies.
func (s *Service) Validate() error {
	seen := make(map[int]bool, len(s.accounts))
	for _, a := range s.accounts {
		if seen[a.ID] {
			return fmt.Errorf("account %d: duplicate account_id", a.ID)
		}
		seen[a.ID] = true
		if strings.TrimSpace(a.Name) == "" {
			return fmt.Errorf("account %d: name is required", a.ID)
		}
		if money.GetCurrency(a.CurrencyCode) == nil {
			return fmt.Errorf("account %d: unknown currency %q", a.ID, a.CurrencyCode)
		}
	}
	return nil
}

// Save writes the accounts to reference/accounts.csv.
func (s *Service) Save(repoRoot string) error {
	path := Path(repoRoot)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("creating reference dir: %w", err)
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating accounts file: %w", err)
	}
	defer f.Close()

	if err := WriteAccounts(f, s.accounts); err != nil {
		return fmt.Errorf("writing accounts: %w", err)
	}
	return nil
}
