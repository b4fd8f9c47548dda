package main

import (
	"testing"

	"broadband-compare/models"
)

func TestResolveProviders(t *testing.T) {
	all, err := resolveProviders("all")
	if err != nil || len(all) != len(models.AllProviders) {
		t.Fatalf("resolveProviders(all) = %v, %v", all, err)
	}

	subset, err := resolveProviders("bt, Sky")
	if err != nil {
		t.Fatalf("resolveProviders subset: %v", err)
	}
	if len(subset) != 2 || subset[0] != "bt" || subset[1] != "sky" {
		t.Errorf("subset = %v; want [bt sky]", subset)
	}

	if _, err := resolveProviders("bt,talktalk"); err == nil {
		t.Error("unknown provider accepted")
	}
	if _, err := resolveProviders(","); err == nil {
		t.Error("empty provider list accepted")
	}
}
