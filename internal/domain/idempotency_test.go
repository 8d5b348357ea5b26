package domain

import (
	"testing"
	"time"
)

func TestIdempotency_Migration_UniqueTuple(t *testing.T) {
	db := newDomainDB(t)
	if err := db.AutoMigrate(&Idempotency{}); err != nil {
		t.Fatalf("automigrate: %v", err)
	}
	if !db.Migrator().HasIndex(&Idempotency{}, "ux_user_resource_key") {
		t.Fatalf("expected unique index ux_user_resource_key")
	}

	now := time.Now().UTC()
	first := Idempotency{ID: "a", UserID: "u", ResourceID: "chart-1", Key: "k", ResultID: "chart-1", Status: 200, ExpiresAt: now.Add(time.Hour)}
	if err := db.Create(&first).Error; err != nil {
		t.Fatalf("insert first: %v", err)
	}

	dup := first
	dup.ID = "b"
	if err := db.Create(&dup).Error; err == nil {
		t.Fatalf("expected unique violation on (user_id, resource_id, key)")
	}

	other := first
	other.ID = "c"
	other.ResourceID = "chart-2"
	if err := db.Create(&other).Error; err != nil {
		t.Fatalf("same key on another resource should insert: %v", err)
	}
}
