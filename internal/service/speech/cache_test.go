package speech

import "testing"

func TestAudioCacheEvictsLeastRecentlyUsed(t *testing.T) {
	cache := NewAudioCache(2)

	cache.Put("a", "/static/audio/a.mp3")
	cache.Put("b", "/static/audio/b.mp3")

	// touching a makes b the eviction candidate
	if _, ok := cache.Get("a"); !ok {
		t.Fatal("expected a to be cached")
	}
	cache.Put("c", "/static/audio/c.mp3")

	if _, ok := cache.Get("b"); ok {
		t.Fatal("expected b to be evicted")
	}
	if got, ok := cache.Get("a"); !ok || got != "/static/audio/a.mp3" {
		t.Fatalf("unexpected a entry: %q %v", got, ok)
	}
	if cache.Len() != 2 {
		t.Fatalf("expected 2 entries, got %d", cache.Len())
	}
}

func TestAudioCacheOverwriteAndRemove(t *testing.T) {
	cache := NewAudioCache(4)
	cache.Put("k", "/old")
	cache.Put("k", "/new")

	if got, _ := cache.Get("k"); got != "/new" {
		t.Fatalf("expected overwrite, got %q", got)
	}
	cache.Remove("k")
	if cache.Len() != 0 {
		t.Fatalf("expected empty cache, got %d", cache.Len())
	}
}

func TestAudioCacheZeroCapacityDisables(t *testing.T) {
	cache := NewAudioCache(0)
	cache.Put("k", "/v")
	if _, ok := cache.Get("k"); ok {
		t.Fatal("zero-capacity cache must not store entries")
	}

	var nilCache *AudioCache
	nilCache.Put("k", "/v")
	if _, ok := nilCache.Get("k"); ok {
		t.Fatal("nil cache must miss")
	}
}

func TestAudioCacheConcurrentAccess(t *testing.T) {
	cache := NewAudioCache(8)
	done := make(chan struct{})
	for g := 0; g < 4; g++ {
		go func(g int) {
			defer func() { done <- struct{}{} }()
			for i := 0; i < 100; i++ {
				key := string(rune('a' + (g+i)%16))
				cache.Put(key, "/static/audio/"+key+".mp3")
				cache.Get(key)
			}
		}(g)
	}
	for g := 0; g < 4; g++ {
		<-done
	}
	if cache.Len() > 8 {
		t.Fatalf("cache grew past capacity: %d", cache.Len())
	}
}
