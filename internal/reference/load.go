package reference

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/cleared-dev/backoffice/internal/accounts"
	"github.com/cleared-dev/backoffice/internal/model"
)

// Dir is the reference subdirectory of a workspace.
const Dir = "reference"

// Writer receives reference data. The SQL store implements it.
type Writer interface {
	PutAccounts(ctx context.Context, accts []model.Account) error
	PutTags(ctx context.Context, tags []model.Tag) error
	PutUsers(ctx context.Context, users []model.User) error
}

// Counts reports how many entities a load wrote.
type Counts struct {
	Accounts int
	Tags     int
	Users    int
}

// Read loads the reference files of repoRoot. accounts.csv is required;
// tags.csv and users.csv are optional.
func Read(repoRoot string) (model.ReferenceData, error) {
	var ref model.ReferenceData

	svc, err := accounts.Load(repoRoot)
	if err != nil {
		return ref, err
	}
	if err := svc.Validate(); err != nil {
		return ref, fmt.Errorf("validating accounts: %w", err)
	}
	ref.Accounts = svc.All()

	if err := readOptional(filepath.Join(repoRoot, Dir, "tags.csv"), func(r io.Reader) (err error) {
		ref.Tags, err = ReadTags(r)
		return err
	}); err != nil {
		return ref, err
	}
	if err := readOptional(filepath.Join(repoRoot, Dir, "users.csv"), func(r io.Reader) (err error) {
		ref.Users, err = ReadUsers(r)
		return err
	}); err != nil {
		return ref, err
	}
	return ref, nil
}

// LoadDir reads repoRoot's reference files and upserts them into w.
func LoadDir(ctx context.Context, repoRoot string, w Writer) (Counts, error) {
	ref, err := Read(repoRoot)
	if err != nil {
		return Counts{}, err
	}
	if err := w.PutAccounts(ctx, ref.Accounts); err != nil {
		return Counts{}, fmt.Errorf("storing accounts: %w", err)
	}
	if err := w.PutTags(ctx, ref.Tags); err != nil {
		return Counts{}, fmt.Errorf("storing tags: %w", err)
	}
	if err := w.PutUsers(ctx, ref.Users); err != nil {
		return Counts{}, fmt.Errorf("storing users: %w", err)
	}
	return Counts{Accounts: len(ref.Accounts), Tags: len(ref.Tags), Users: len(ref.Users)}, nil
}

// Seed writes starter reference files into repoRoot.
func Seed(repoRoot string, chart []model.Account) error {
	if err := accounts.NewService(chart).Save(repoRoot); err != nil {
		return err
	}
	if err := writeFile(filepath.Join(repoRoot, Dir, "tags.csv"), func(w io.Writer) error {
		return WriteTags(w, DefaultTags())
	}); err != nil {
		return err
	}
	return writeFile(filepath.Join(repoRoot, Dir, "users.csv"), func(w io.Writer) error {
		return WriteUsers(w, nil)
	})
}

// DefaultTags returns the starter tag list.
func DefaultTags() []model.Tag {
	return []model.Tag{
		{ID: 1, Name: "Travel", Color: "#1f77b4"},
		{ID: 2, Name: "Meals", Color: "#ff7f0e"},
		{ID: 3, Name: "Software", Color: "#2ca02c"},
		{ID: 4, Name: "Office", Color: "#9467bd"},
	}
}

func readOptional(path string, fn func(io.Reader) error) error {
	f, err := os.Open(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("opening %s: %w", filepath.Base(path), err)
	}
	defer f.Close()
	if err := fn(f); err != nil {
		return fmt.Errorf("%s: %w", filepath.Base(path), err)
	}
	return nil
}

func writeFile(path string, fn func(io.Writer) error) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("creating %s: %w", filepath.Dir(path), err)
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating %s: %w", filepath.Base(path), err)
	}
	defer f.Close()
	if err := fn(f); err != nil {
		return fmt.Errorf("writing %s: %w", filepath.Base(path), err)
	}
	return nil
}
