package session

import (
	"fmt"
	"reflect"
	"testing"

	"github.com/rs/zerolog"

	"github.com/cartiq/cartiq-go/internal/state"
)

func TestRecencyMostRecentFirst(t *testing.T) {
	r := NewRecency(state.NewMemoryStore(), zerolog.Nop())

	r.TouchProduct("p-1")
	r.TouchProduct("p-2")
	r.TouchProduct("p-3")

	want := []string{"p-3", "p-2", "p-1"}
	if got := r.ProductIDs(); !reflect.DeepEqual(got, want) {
		t.Fatalf("ProductIDs() = %v, want %v", got, want)
	}
}

func TestRecencyRetouchMovesToFront(t *testing.T) {
	r := NewRecency(state.NewMemoryStore(), zerolog.Nop())

	r.TouchCategory("Electronics")
	r.TouchCategory("Audio")
	r.TouchCategory("Electronics")

	want := []string{"Electronics", "Audio"}
	if got := r.Categories(); !reflect.DeepEqual(got, want) {
		t.Fatalf("Categories() = %v, want %v", got, want)
	}
}

func TestRecencyCapped(t *testing.T) {
	r := NewRecency(state.NewMemoryStore(), zerolog.Nop())

	for i := 0; i < MaxRecent+5; i++ {
		r.TouchProduct(fmt.Sprintf("p-%d", i))
	}

	got := r.ProductIDs()
	if len(got) != MaxRecent {
		t.Fatalf("len = %d, want %d", len(got), MaxRecent)
	}
	if got[0] != fmt.Sprintf("p-%d", MaxRecent+4) {
		t.Fatalf("front = %q, want newest", got[0])
	}
	// The oldest entries fell off the back.
	if got[len(got)-1] != "p-5" {
		t.Fatalf("back = %q, want p-5", got[len(got)-1])
	}
}

func TestRecencyIgnoresEmpty(t *testing.T) {
	r := NewRecency(state.NewMemoryStore(), zerolog.Nop())

	r.TouchProduct("")
	r.TouchCategory("")

	if got := r.ProductIDs(); len(got) != 0 {
		t.Fatalf("ProductIDs() = %v, want empty", got)
	}
	if got := r.Categories(); len(got) != 0 {
		t.Fatalf("Categories() = %v, want empty", got)
	}
}

func TestRecencyPersistsAcrossInstances(t *testing.T) {
	store := state.NewMemoryStore()

	r := NewRecency(store, zerolog.Nop())
	r.TouchProduct("p-1")
	r.TouchProduct("p-2")
	r.TouchCategory("Audio")

	r2 := NewRecency(store, zerolog.Nop())
	if got, want := r2.ProductIDs(), []string{"p-2", "p-1"}; !reflect.DeepEqual(got, want) {
		t.Fatalf("reloaded ProductIDs() = %v, want %v", got, want)
	}
	if got, want := r2.Categories(), []string{"Audio"}; !reflect.DeepEqual(got, want) {
		t.Fatalf("reloaded Categories() = %v, want %v", got, want)
	}
}

func TestRecencySurvivesStorageFailure(t *testing.T) {
	store := state.NewMemoryStore()
	store.FailReads = true
	store.FailWrites = true

	r := NewRecency(store, zerolog.Nop())
	r.TouchProduct("p-1")
	r.TouchProduct("p-2")

	if got, want := r.ProductIDs(), []string{"p-2", "p-1"}; !reflect.DeepEqual(got, want) {
		t.Fatalf("in-memory ProductIDs() = %v, want %v", got, want)
	}
}

func TestRecencyDiscardsCorruptBuffer(t *testing.T) {
	store := state.NewMemoryStore()
	if err := store.Set("cartiq_recent_products", "{not json"); err != nil {
		t.Fatal(err)
	}

	r := NewRecency(store, zerolog.Nop())
	if got := r.ProductIDs(); len(got) != 0 {
		t.Fatalf("ProductIDs() = %v, want empty after corrupt load", got)
	}
}
