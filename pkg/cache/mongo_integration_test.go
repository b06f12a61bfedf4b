//go:build integration

package cache

import (
	"context"
	"os"
	"testing"
	"time"

	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

func TestMongoCache_Integration(t *testing.T) {
	uri := os.Getenv("STACKQUERY_MONGO_URI")
	if uri == "" {
		t.Skip("STACKQUERY_MONGO_URI not set, skipping integration test")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		t.Fatalf("connect: %v", err)
	}
	defer client.Disconnect(ctx)

	coll := client.Database("stackquery_test").Collection("queries")
	defer coll.Drop(ctx)

	c, err := NewMongoCache(ctx, coll)
	if err != nil {
		t.Fatalf("NewMongoCache: %v", err)
	}

	if err := c.Set(ctx, "k", []byte("v"), time.Hour); err != nil {
		t.Fatalf("Set: %v", err)
	}
	data, hit, err := c.Get(ctx, "k")
	if err != nil || !hit || string(data) != "v" {
		t.Fatalf("Get = %q, %v, %v", data, hit, err)
	}
	if err := c.Delete(ctx, "k"); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if _, hit, _ := c.Get(ctx, "k"); hit {
		t.Error("entry should be gone after Delete")
	}

	for _, k := range []string{"a", "b"} {
		if err := c.Set(ctx, k, []byte("v"), 0); err != nil {
			t.Fatalf("Set: %v", err)
		}
	}
	if n, err := c.Clear(ctx); err != nil || n != 2 {
		t.Errorf("Clear = %d, %v; want 2, nil", n, err)
	}
}
