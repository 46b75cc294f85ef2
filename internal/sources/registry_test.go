package sources_test

import (
	"context"
	"errors"
	"testing"

	"github.com/yomu-app/backend/internal/sources"
)

type fakeSource struct {
	key    string
	name   string
	health error
}

func (f *fakeSource) Key() string                       { return f.key }
func (f *fakeSource) Name() string                      { return f.name }
func (f *fakeSource) HealthCheck(context.Context) error { return f.health }
func (f *fakeSource) GetChapters(context.Context, string) ([]sources.Chapter, error) {
	return nil, nil
}
func (f *fakeSource) GetChapterPages(context.Context, string) (*sources.ChapterPages, error) {
	return nil, nil
}

func TestRegistryRegisterListHealth(t *testing.T) {
	r := sources.NewRegistry()

	if err := r.Register(&fakeSource{key: "mangadex", name: "MangaDex"}); err != nil {
		t.Fatalf("register mangadex: %v", err)
	}
	if err := r.Register(&fakeSource{key: "batoto", name: "Batoto", health: errors.New("down")}); err != nil {
		t.Fatalf("register batoto: %v", err)
	}

	list := r.List()
	if len(list) != 2 {
		t.Fatalf("expected 2 sources, got %d", len(list))
	}
	if list[0].Key != "batoto" || list[1].Key != "mangadex" {
		t.Fatalf("expected sorted keys batoto,mangadex got %s,%s", list[0].Key, list[1].Key)
	}

	health := r.Health(context.Background())
	if len(health) != 2 {
		t.Fatalf("expected 2 health items, got %d", len(health))
	}
	if health[0].Key != "batoto" || health[0].Healthy {
		t.Fatalf("expected batoto unhealthy")
	}
	if health[1].Key != "mangadex" || !health[1].Healthy {
		t.Fatalf("expected mangadex healthy")
	}
}

func TestRegistryRejectsDuplicateAndEmptyKeys(t *testing.T) {
	r := sources.NewRegistry()

	if err := r.Register(&fakeSource{key: "mangadex", name: "MangaDex"}); err != nil {
		t.Fatalf("register mangadex: %v", err)
	}
	if err := r.Register(&fakeSource{key: "mangadex", name: "MangaDex"}); err == nil {
		t.Fatal("expected duplicate key to be rejected")
	}
	if err := r.Register(&fakeSource{key: "", name: "Anonymous"}); err == nil {
		t.Fatal("expected empty key to be rejected")
	}
	if err := r.Register(nil); err == nil {
		t.Fatal("expected nil source to be rejected")
	}

	if _, ok := r.Get("batoto"); ok {
		t.Fatal("expected unknown key to miss")
	}
}
