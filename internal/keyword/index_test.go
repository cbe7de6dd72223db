package keyword

import (
	"testing"

	"github.com/foodlang/tarjama/internal/models"
)

func testEntries() []models.GlossaryEntry {
	return []models.GlossaryEntry{
		{Source: "Whole Milk", Target: "حليب كامل الدسم", Row: 1},
		{Source: "Brown Sugar", Target: "سكر بني", Row: 2},
		{Source: "Sea Salt", Target: "ملح البحر", Row: 3},
	}
}

func TestBuildAndSearch(t *testing.T) {
	idx, err := Build(testEntries())
	if err != nil {
		t.Fatal(err)
	}
	defer idx.Close()

	if idx.Len() != 3 {
		t.Errorf("Len=%d", idx.Len())
	}

	matches, err := idx.Search("milk", 10)
	if err != nil {
		t.Fatal(err)
	}
	if len(matches) != 1 {
		t.Fatalf("matches=%d", len(matches))
	}
	if matches[0].Entry.Source != "Whole Milk" {
		t.Errorf("wrong match: %+v", matches[0].Entry)
	}
}

func TestSearchTargetLanguage(t *testing.T) {
	idx, err := Build(testEntries())
	if err != nil {
		t.Fatal(err)
	}
	defer idx.Close()

	matches, err := idx.Search("سكر", 10)
	if err != nil {
		t.Fatal(err)
	}
	if len(matches) != 1 || matches[0].Entry.Source != "Brown Sugar" {
		t.Errorf("target-language search failed: %v", matches)
	}
}

func TestSearchNoResults(t *testing.T) {
	idx, err := Build(testEntries())
	if err != nil {
		t.Fatal(err)
	}
	defer idx.Close()

	matches, err := idx.Search("chocolate", 10)
	if err != nil {
		t.Fatal(err)
	}
	if len(matches) != 0 {
		t.Errorf("expected no matches, got %v", matches)
	}
}

func TestBuildEmpty(t *testing.T) {
	idx, err := Build(nil)
	if err != nil {
		t.Fatal(err)
	}
	defer idx.Close()
	matches, err := idx.Search("milk", 5)
	if err != nil {
		t.Fatal(err)
	}
	if len(matches) != 0 {
		t.Errorf("matches on empty index: %v", matches)
	}
}
