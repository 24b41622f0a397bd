package main

import (
	"encoding/json"
	"testing"

	"github.com/example/courier-orders/internal/models"
)

func TestOrderSnapshotCarriesBadges(t *testing.T) {
	orders := []models.Order{
		{ID: "o1", Status: models.StatusPending},
		{ID: "o2", Status: models.StatusInTransit},
	}
	raw, err := json.Marshal(orderSnapshot(orders))
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	var snap struct {
		Orders []struct {
			ID    string `json:"id"`
			Badge string `json:"badge"`
		} `json:"orders"`
	}
	if err := json.Unmarshal(raw, &snap); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if len(snap.Orders) != 2 {
		t.Fatalf("expected 2 orders, got %d", len(snap.Orders))
	}
	if snap.Orders[0].Badge != "Pending" || snap.Orders[1].Badge != "In transit" {
		t.Fatalf("unexpected badges: %+v", snap.Orders)
	}
}

func TestDefaultCatalogCoversAllServiceTypes(t *testing.T) {
	seen := map[models.ServiceType]bool{}
	for _, svc := range defaultCatalog() {
		seen[svc.Type] = true
	}
	for _, want := range []models.ServiceType{models.ServiceCarpooling, models.ServiceShopping, models.ServiceLargeItems} {
		if !seen[want] {
			t.Fatalf("catalog missing service type %s", want)
		}
	}
}
