package cache

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

func testClient(t *testing.T) *redis.Client {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })
	return client
}

func TestCacheHelper_SetAndGet(t *testing.T) {
	helper := NewCacheHelper(testClient(t), "exam:")
	ctx := context.Background()

	type row struct {
		ID   uint   `json:"id"`
		Name string `json:"name"`
	}

	if err := helper.Set(ctx, "id:1", row{ID: 1, Name: "Midterm"}, time.Minute); err != nil {
		t.Fatalf("Set() error = %v", err)
	}

	var got row
	if err := helper.Get(ctx, "id:1", &got); err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if got.ID != 1 || got.Name != "Midterm" {
		t.Errorf("Get() = %+v, want id 1 name Midterm", got)
	}
}

func TestCacheHelper_GetMiss(t *testing.T) {
	helper := NewCacheHelper(testClient(t), "exam:")

	var dest map[string]any
	err := helper.Get(context.Background(), "id:404", &dest)
	if err != ErrCacheNotFound {
		t.Errorf("Get() error = %v, want ErrCacheNotFound", err)
	}
}

func TestCacheHelper_Delete(t *testing.T) {
	helper := NewCacheHelper(testClient(t), "exam:")
	ctx := context.Background()

	if err := helper.SetString(ctx, "id:1", "x", time.Minute); err != nil {
		t.Fatalf("SetString() error = %v", err)
	}
	if err := helper.SetString(ctx, "id:2", "y", time.Minute); err != nil {
		t.Fatalf("SetString() error = %v", err)
	}

	if err := helper.Delete(ctx, "id:1", "id:2"); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}

	exists, err := helper.Exists(ctx, "id:1")
	if err != nil {
		t.Fatalf("Exists() error = %v", err)
	}
	if exists {
		t.Error("key should be gone after delete")
	}
}

func TestCacheHelper_InvalidatePattern(t *testing.T) {
	helper := NewCacheHelper(testClient(t), "stats:")
	ctx := context.Background()

	if err := helper.SetString(ctx, "exam:20:summary", "a", time.Minute); err != nil {
		t.Fatalf("SetString() error = %v", err)
	}
	if err := helper.SetString(ctx, "exam:20:wrong", "b", time.Minute); err != nil {
		t.Fatalf("SetString() error = %v", err)
	}
	if err := helper.SetString(ctx, "exam:21:summary", "c", time.Minute); err != nil {
		t.Fatalf("SetString() error = %v", err)
	}

	if err := helper.InvalidatePattern(ctx, "exam:20*"); err != nil {
		t.Fatalf("InvalidatePattern() error = %v", err)
	}

	if exists, _ := helper.Exists(ctx, "exam:20:summary"); exists {
		t.Error("matching key should be invalidated")
	}
	if exists, _ := helper.Exists(ctx, "exam:21:summary"); !exists {
		t.Error("non-matching key should survive")
	}
}

func TestCacheHelper_NilClientDegradesGracefully(t *testing.T) {
	helper := NewCacheHelper(nil, "exam:")
	ctx := context.Background()

	if err := helper.Set(ctx, "id:1", "x", time.Minute); err != nil {
		t.Errorf("Set() with nil client should be a no-op, got %v", err)
	}

	var dest string
	if err := helper.Get(ctx, "id:1", &dest); err != ErrCacheNotAvailable {
		t.Errorf("Get() error = %v, want ErrCacheNotAvailable", err)
	}
}

func TestCacheHelper_CacheOrExecute(t *testing.T) {
	helper := NewCacheHelper(testClient(t), "fast:")
	ctx := context.Background()

	calls := 0
	fetch := func() (interface{}, error) {
		calls++
		return map[string]int{"total": 3}, nil
	}

	var first map[string]int
	if err := helper.CacheOrExecute(ctx, "exam:20", &first, time.Minute, fetch); err != nil {
		t.Fatalf("CacheOrExecute() error = %v", err)
	}
	if first["total"] != 3 {
		t.Errorf("first fetch = %v, want total 3", first)
	}
	if calls != 1 {
		t.Errorf("fetch called %d times, want 1", calls)
	}
}
