package cache_test

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/michaelzixizhou/codag/pkg/cache"
)

func ExampleFileCache() {
	dir := filepath.Join(os.TempDir(), "codag-example")
	c, err := cache.NewFileCache(dir)
	if err != nil {
		fmt.Println("Error:", err)
		return
	}
	defer os.RemoveAll(dir)

	ctx := context.Background()
	keyer := cache.NewDefaultKeyer()
	key := keyer.SnapshotKey("abc123")

	// Store a snapshot payload
	if err := c.Set(ctx, key, []byte(`{"nodes":[]}`), time.Hour); err != nil {
		fmt.Println("Error:", err)
		return
	}

	// Retrieve it
	data, ok, err := c.Get(ctx, key)
	if err != nil {
		fmt.Println("Error:", err)
		return
	}
	fmt.Println("Found:", ok)
	fmt.Println("Payload:", string(data))
	// Output:
	// Found: true
	// Payload: {"nodes":[]}
}

func ExampleFileCache_miss() {
	dir := filepath.Join(os.TempDir(), "codag-example-miss")
	c, _ := cache.NewFileCache(dir)
	defer os.RemoveAll(dir)

	// Keys never written come back as a clean miss
	_, ok, err := c.Get(context.Background(), "snapshot:unknown")
	fmt.Println("Found:", ok)
	fmt.Println("Error:", err)
	// Output:
	// Found: false
	// Error: <nil>
}
