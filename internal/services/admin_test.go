package services

import (
	"testing"
)

func TestAdminSet_AddAndCheck(t *testing.T) {
	admins := NewAdminSet(newTestDB(t))

	if err := admins.Add("u1", "g1", "admin"); err != nil {
		t.Fatalf("Add() error = %v", err)
	}

	isAdmin, err := admins.IsAdmin("u1", "g1")
	if err != nil {
		t.Fatalf("IsAdmin() error = %v", err)
	}
	if !isAdmin {
		t.Error("u1 should be an admin of g1")
	}

	// Same user, different guild.
	isAdmin, _ = admins.IsAdmin("u1", "g2")
	if isAdmin {
		t.Error("u1 should not be an admin of g2")
	}

	isAdmin, _ = admins.IsAdmin("u2", "g1")
	if isAdmin {
		t.Error("u2 should not be an admin of g1")
	}
}

func TestAdminSet_AddIsIdempotent(t *testing.T) {
	admins := NewAdminSet(newTestDB(t))

	if err := admins.Add("u1", "g1", "admin"); err != nil {
		t.Fatalf("first Add() error = %v", err)
	}
	if err := admins.Add("u1", "g1", "admin"); err != nil {
		t.Fatalf("second Add() error = %v", err)
	}

	list, err := admins.List("g1")
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if len(list) != 1 {
		t.Errorf("List() returned %d admins, expected 1", len(list))
	}
}

func TestAdminSet_Remove(t *testing.T) {
	admins := NewAdminSet(newTestDB(t))

	if err := admins.Add("u1", "g1", "admin"); err != nil {
		t.Fatalf("Add() error = %v", err)
	}
	if err := admins.Remove("u1", "g1"); err != nil {
		t.Fatalf("Remove() error = %v", err)
	}

	isAdmin, _ := admins.IsAdmin("u1", "g1")
	if isAdmin {
		t.Error("u1 should no longer be an admin")
	}

	// Removing a non-existent admin is not an error.
	if err := admins.Remove("ghost", "g1"); err != nil {
		t.Errorf("Remove(ghost) error = %v", err)
	}
}
