package persona_test

import (
	"testing"

	"github.com/pranav-p-pathak/mental-health-chatbot/internal/model/persona"
)

func TestFindByID(t *testing.T) {
	store := persona.NewMemoryStore(persona.Seed())

	p, ok := store.FindByID("motivational-coach")
	if !ok {
		t.Fatal("expected motivational-coach to exist")
	}
	if p.Instruction == "" {
		t.Fatal("persona must carry an instruction")
	}

	if _, ok := store.FindByID("missing"); ok {
		t.Fatal("did not expect unknown persona to resolve via FindByID")
	}
}

func TestResolveUnknownFallsBackToCalmTherapist(t *testing.T) {
	store := persona.NewMemoryStore(persona.Seed())
	calm, _ := store.FindByID(persona.DefaultID)

	for _, id := range []string{"", "default", "zen-master"} {
		got := store.Resolve(id)
		if got.ID != calm.ID || got.Instruction != calm.Instruction {
			t.Fatalf("Resolve(%q) = %q, want calm-therapist", id, got.ID)
		}
	}

	coach := store.Resolve("motivational-coach")
	if coach.ID != "motivational-coach" {
		t.Fatalf("known persona must resolve to itself, got %q", coach.ID)
	}
}
