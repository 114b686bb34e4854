package sqlite

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/cwygoda/modscope/internal/domain"
)

func setupTestRepo(t *testing.T) (*Repository, func()) {
	t.Helper()
	dir := t.TempDir()
	dbPath := filepath.Join(dir, "test.db")

	repo, err := New(dbPath)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	cleanup := func() {
		repo.Close()
		os.Remove(dbPath)
	}
	return repo, cleanup
}

func completedLookup(url string) *domain.Lookup {
	return &domain.Lookup{
		URL:      url,
		Status:   domain.StatusCompleted,
		Provider: domain.Modrinth,
		ModID:    "AANobbMI",
		Name:     "Sodium",
		Pairs: []domain.VersionPair{
			{GameVersion: "1.20.1", Loader: domain.LoaderFabric},
			{GameVersion: "1.21", Loader: domain.LoaderNeoForge},
		},
		CreatedAt: time.Now(),
	}
}

func TestRepository_Create(t *testing.T) {
	repo, cleanup := setupTestRepo(t)
	defer cleanup()

	ctx := context.Background()
	l := completedLookup("https://modrinth.com/mod/sodium")

	if err := repo.Create(ctx, l); err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	if l.ID == 0 {
		t.Error("Create() lookup.ID = 0, want non-zero")
	}
}

func TestRepository_Get(t *testing.T) {
	repo, cleanup := setupTestRepo(t)
	defer cleanup()

	ctx := context.Background()

	created := completedLookup("https://modrinth.com/mod/sodium")
	repo.Create(ctx, created)

	l, err := repo.Get(ctx, created.ID)
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if l.ID != created.ID {
		t.Errorf("Get() ID = %d, want %d", l.ID, created.ID)
	}
	if l.Status != domain.StatusCompleted {
		t.Errorf("Get() Status = %q, want %q", l.Status, domain.StatusCompleted)
	}
	if l.Provider != domain.Modrinth || l.Name != "Sodium" || l.ModID != "AANobbMI" {
		t.Errorf("Get() = %+v", l)
	}
	if len(l.Pairs) != 2 || l.Pairs[1] != (domain.VersionPair{GameVersion: "1.21", Loader: domain.LoaderNeoForge}) {
		t.Errorf("Get() Pairs = %v", l.Pairs)
	}

	_, err = repo.Get(ctx, 9999)
	if !errors.Is(err, domain.ErrLookupNotFound) {
		t.Errorf("Get() error = %v, want %v", err, domain.ErrLookupNotFound)
	}
}

func TestRepository_Get_Failed(t *testing.T) {
	repo, cleanup := setupTestRepo(t)
	defer cleanup()

	ctx := context.Background()

	created := &domain.Lookup{
		URL:       "https://example.com/mod/x",
		Status:    domain.StatusFailed,
		Error:     "unknown provider: https://example.com/mod/x",
		CreatedAt: time.Now(),
	}
	if err := repo.Create(ctx, created); err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	l, err := repo.Get(ctx, created.ID)
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if l.Status != domain.StatusFailed {
		t.Errorf("Get() Status = %q, want %q", l.Status, domain.StatusFailed)
	}
	if l.Error != created.Error {
		t.Errorf("Get() Error = %q, want %q", l.Error, created.Error)
	}
	if len(l.Pairs) != 0 {
		t.Errorf("Get() Pairs = %v, want empty", l.Pairs)
	}
}

func TestRepository_Recent(t *testing.T) {
	repo, cleanup := setupTestRepo(t)
	defer cleanup()

	ctx := context.Background()

	for i := 1; i <= 3; i++ {
		repo.Create(ctx, completedLookup(fmt.Sprintf("https://modrinth.com/mod/m%d", i)))
	}

	lookups, err := repo.Recent(ctx, 2)
	if err != nil {
		t.Fatalf("Recent() error = %v", err)
	}
	if len(lookups) != 2 {
		t.Fatalf("Recent() returned %d lookups, want 2", len(lookups))
	}
	if lookups[0].URL != "https://modrinth.com/mod/m3" {
		t.Errorf("Recent()[0].URL = %q, want newest first", lookups[0].URL)
	}
	if lookups[1].URL != "https://modrinth.com/mod/m2" {
		t.Errorf("Recent()[1].URL = %q", lookups[1].URL)
	}
}

func TestRepository_ConcurrentCreate(t *testing.T) {
	repo, cleanup := setupTestRepo(t)
	defer cleanup()

	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			if err := repo.Create(ctx, completedLookup(fmt.Sprintf("https://modrinth.com/mod/c%d", i))); err != nil {
				t.Errorf("Create() error = %v", err)
			}
		}(i)
	}
	wg.Wait()

	lookups, err := repo.Recent(ctx, 100)
	if err != nil {
		t.Fatalf("Recent() error = %v", err)
	}
	if len(lookups) != 16 {
		t.Errorf("Recent() returned %d lookups, want 16", len(lookups))
	}
}

func TestNew_CreatesDirectory(t *testing.T) {
	dir := t.TempDir()
	dbPath := filepath.Join(dir, "subdir", "nested", "test.db")

	repo, err := New(dbPath)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	defer repo.Close()

	if _, err := os.Stat(filepath.Dir(dbPath)); os.IsNotExist(err) {
		t.Error("New() did not create parent directory")
	}
}
