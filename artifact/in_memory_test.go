package artifact

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/hupe1980/agentlab/core"
)

// Interface compliance (compile-time assertions)
var (
	_ core.ArtifactStore = (*InMemoryStore)(nil)
	_ core.ArtifactStore = (*ObjectStore)(nil)
)

var testKey = core.ArtifactKey{App: "agentlab", UserID: "u1", SessionID: "c1", Filename: "text-abc-notes"}

func TestInMemoryArtifactStore_SaveLoadIsolation(t *testing.T) {
	ctx := context.Background()
	svc := NewInMemoryStore()
	data := []byte("hello")
	if _, err := svc.Save(ctx, testKey, core.InlineDataPart{Data: data, MimeType: "image/png"}); err != nil {
		t.Fatalf("save: %v", err)
	}
	// mutate original slice
	data[0] = 'H'
	out, err := svc.Load(ctx, testKey, core.LatestVersion)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	got := out.(core.InlineDataPart)
	if string(got.Data) != "hello" { // should not reflect mutation
		t.Fatalf("expected 'hello', got %q", string(got.Data))
	}
	// mutate returned slice
	got.Data[0] = 'x'
	out2, _ := svc.Load(ctx, testKey, 0)
	if string(out2.(core.InlineDataPart).Data) != "hello" {
		t.Fatalf("expected isolation, got %q", string(out2.(core.InlineDataPart).Data))
	}
}

func TestInMemoryArtifactStore_Versions(t *testing.T) {
	ctx := context.Background()
	svc := NewInMemoryStore()
	for i := 0; i < 3; i++ {
		v, err := svc.Save(ctx, testKey, core.TextPart{Text: fmt.Sprintf("v%d", i)})
		if err != nil {
			t.Fatal(err)
		}
		if v != i {
			t.Fatalf("expected version %d, got %d", i, v)
		}
	}
	versions, err := svc.ListVersions(ctx, testKey)
	if err != nil {
		t.Fatal(err)
	}
	if len(versions) != 3 {
		t.Fatalf("expected 3 versions, got %d", len(versions))
	}
	p, err := svc.Load(ctx, testKey, 1)
	if err != nil {
		t.Fatal(err)
	}
	if p.(core.TextPart).Text != "v1" {
		t.Fatalf("expected v1, got %v", p)
	}
	latest, _ := svc.Load(ctx, testKey, core.LatestVersion)
	if latest.(core.TextPart).Text != "v2" {
		t.Fatalf("expected v2, got %v", latest)
	}
	if _, err := svc.Load(ctx, testKey, 7); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestInMemoryArtifactStore_Delete(t *testing.T) {
	ctx := context.Background()
	svc := NewInMemoryStore()
	if _, err := svc.Save(ctx, testKey, core.TextPart{Text: "1"}); err != nil {
		t.Fatal(err)
	}
	if err := svc.Delete(ctx, testKey); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, err := svc.Load(ctx, testKey, core.LatestVersion); !errors.Is(err, core.ErrNotFound) {
		t.Fatalf("expected error for deleted artifact, got %v", err)
	}
	if err := svc.Delete(ctx, testKey); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound on second delete, got %v", err)
	}
}

func TestInMemoryArtifactStore_ScopeIsolation(t *testing.T) {
	ctx := context.Background()
	svc := NewInMemoryStore()
	other := testKey
	other.SessionID = "c2"
	if _, err := svc.Save(ctx, testKey, core.TextPart{Text: "a"}); err != nil {
		t.Fatal(err)
	}
	if _, err := svc.Load(ctx, other, core.LatestVersion); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected other session to be empty, got %v", err)
	}
}

func TestInMemoryArtifactStore_Concurrency(t *testing.T) {
	ctx := context.Background()
	svc := NewInMemoryStore()
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := svc.Save(ctx, testKey, core.TextPart{Text: "x"}); err != nil {
				t.Errorf("save: %v", err)
			}
		}()
	}
	wg.Wait()
	versions, _ := svc.ListVersions(ctx, testKey)
	if len(versions) != 50 {
		t.Fatalf("expected 50 versions, got %d", len(versions))
	}
}
