package migrate

import (
	"encoding/json"
	"errors"
	"fmt"
	"reflect"
	"testing"

	"github.com/mmynk/treasurer/internal/models"
)

func TestMigrateNothingStored(t *testing.T) {
	res, err := Migrate(nil, []byte("  "))
	if err != nil {
		t.Fatalf("Migrate failed: %v", err)
	}
	if !res.Seeded || !res.Changed {
		t.Errorf("expected seeded+changed, got %+v", res)
	}
	if len(res.Data.Categories) != 1 || res.Data.ActiveCategory != models.DefaultCategoryID {
		t.Errorf("unexpected seeded ledger: %+v", res.Data)
	}
}

func TestMigrateCorrupt(t *testing.T) {
	tests := []struct {
		name    string
		current string
		legacy  string
	}{
		{"truncated current blob", `{"students": [`, ""},
		{"wrong type", `{"students": "many"}`, ""},
		{"corrupt legacy blob", `{"students": []}`, `[{"firstName": `},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Migrate([]byte(tt.current), []byte(tt.legacy))
			if !errors.Is(err, models.ErrCorruptData) {
				t.Fatalf("expected ErrCorruptData, got %v", err)
			}
		})
	}
}

func TestMigrateLegacyShape(t *testing.T) {
	newID = func() string { return "t-fixed" }
	t.Cleanup(func() { newID = defaultNewID })

	legacy := `[
		{"id": "1", "firstName": "Juan", "middleInitial": "P", "lastName": "Dela Cruz", "section": "BSCS-2B",
		 "amount": 500, "isPaid": true, "paymentDate": "2024-01-15"},
		{"id": "2", "firstName": "Ana", "lastName": "Reyes", "section": "BSCS-2B",
		 "amount": "150", "isPaid": false, "paymentDate": null}
	]`

	res, err := Migrate(nil, []byte(legacy))
	if err != nil {
		t.Fatalf("Migrate failed: %v", err)
	}
	if !res.LegacyConsumed || !res.Changed {
		t.Errorf("expected legacy consumed and changed, got %+v", res)
	}
	if res.Data.ActiveCategory != models.DefaultCategoryID {
		t.Errorf("active = %q", res.Data.ActiveCategory)
	}
	if len(res.Data.Categories) != 1 || res.Data.Categories[0].ID != models.DefaultCategoryID {
		t.Fatalf("unexpected categories: %+v", res.Data.Categories)
	}
	if len(res.Data.Students) != 2 {
		t.Fatalf("expected 2 students, got %d", len(res.Data.Students))
	}

	juan := res.Data.Students[0].Categories[models.DefaultCategoryID]
	want := models.CategoryRecord{
		Amount:      500,
		IsPaid:      true,
		PaymentDate: "2024-01-15",
		Transactions: []models.Transaction{
			{ID: "t-fixed", Amount: 500, Date: "2024-01-15", Notes: migratedNote},
		},
	}
	if !reflect.DeepEqual(juan, want) {
		t.Errorf("juan record = %+v, want %+v", juan, want)
	}

	ana := res.Data.Students[1].Categories[models.DefaultCategoryID]
	if ana.Amount != 150 || ana.IsPaid || len(ana.Transactions) != 0 {
		t.Errorf("ana record = %+v", ana)
	}
}

func TestMigrateAssignsMissingStudentIDs(t *testing.T) {
	n := 0
	newID = func() string { n++; return fmt.Sprintf("gen-%d", n) }
	t.Cleanup(func() { newID = defaultNewID })

	legacy := `[
		{"firstName": "Juan", "lastName": "Dela Cruz", "section": "bscs-2b ", "amount": 500, "isPaid": false},
		{"firstName": "Ana", "lastName": "Reyes", "section": "BSCS-2B", "amount": 100, "isPaid": false},
		{"id": "7", "firstName": "Ben", "lastName": "Cruz", "section": "abm-1"},
		{"id": "7", "firstName": "Lito", "lastName": "Lapid", "section": "abm-1"}
	]`
	res, err := Migrate(nil, []byte(legacy))
	if err != nil {
		t.Fatalf("Migrate failed: %v", err)
	}
	if len(res.Data.Students) != 4 {
		t.Fatalf("expected 4 students, got %d", len(res.Data.Students))
	}

	seen := make(map[string]string)
	for _, s := range res.Data.Students {
		if s.ID == "" {
			t.Errorf("student %s has no id", s.FirstName)
		}
		if prev, dup := seen[s.ID]; dup {
			t.Errorf("students %s and %s share id %q", prev, s.FirstName, s.ID)
		}
		seen[s.ID] = s.FirstName
	}
	if got := res.Data.Students[2].ID; got != "7" {
		t.Errorf("existing id rewritten to %q", got)
	}
	if got := res.Data.Students[0].Section; got != "BSCS-2B" {
		t.Errorf("section = %q, want BSCS-2B", got)
	}
	if got := res.Data.Students[3].Section; got != "ABM-1" {
		t.Errorf("section = %q, want ABM-1", got)
	}

	t.Run("assigned ids survive a second migration", func(t *testing.T) {
		blob, err := json.Marshal(res.Data)
		if err != nil {
			t.Fatalf("Marshal failed: %v", err)
		}
		again, err := Migrate(blob, nil)
		if err != nil {
			t.Fatalf("second Migrate failed: %v", err)
		}
		if again.Changed || !reflect.DeepEqual(again.Data, res.Data) {
			t.Errorf("second migration changed data: changed=%v", again.Changed)
		}
	})
}

func TestMigrateCurrentWithoutCategories(t *testing.T) {
	current := `{"students": [{"id": "s1", "firstName": "A", "lastName": "B", "section": "C",
		"categories": {}}], "categories": [], "activeCategory": null}`

	res, err := Migrate([]byte(current), nil)
	if err != nil {
		t.Fatalf("Migrate failed: %v", err)
	}
	if res.LegacyConsumed {
		t.Error("no legacy blob was given")
	}
	if len(res.Data.Categories) != 1 || res.Data.ActiveCategory != models.DefaultCategoryID {
		t.Errorf("expected seeded default category, got %+v", res.Data)
	}
	if len(res.Data.Students) != 1 || len(res.Data.Students[0].Categories) != 0 {
		t.Errorf("student should be kept without invented records: %+v", res.Data.Students)
	}
}

func TestMigrateRepairsActiveCategory(t *testing.T) {
	current := `{"students": [], "categories": [{"id": "c1", "name": "Fund"}, {"id": "c2", "name": "Trip"}],
		"activeCategory": "gone"}`
	res, err := Migrate([]byte(current), nil)
	if err != nil {
		t.Fatalf("Migrate failed: %v", err)
	}
	if res.Data.ActiveCategory != "c1" || !res.Changed {
		t.Errorf("expected active repaired to c1, got %q (changed=%v)", res.Data.ActiveCategory, res.Changed)
	}
}

func TestMigrateIdempotent(t *testing.T) {
	current := `{
		"students": [{
			"id": "s1", "firstName": "Alice", "middleInitial": "A", "lastName": "Smith", "section": "BSCS-1A",
			"categories": {"c1": {"amount": 500, "isPaid": true, "paymentDate": "2024-01-15",
				"transactions": [{"id": "t1", "amount": 500, "date": "2024-01-15", "notes": "Payment recorded"}]}}
		}],
		"categories": [{"id": "c1", "name": "Tuition", "description": "", "targetAmount": 1000}],
		"activeCategory": "c1"
	}`

	var want models.LedgerData
	if err := json.Unmarshal([]byte(current), &want); err != nil {
		t.Fatalf("setup: %v", err)
	}

	res, err := Migrate([]byte(current), nil)
	if err != nil {
		t.Fatalf("Migrate failed: %v", err)
	}
	if res.Changed || res.Seeded || res.LegacyConsumed {
		t.Errorf("current-shape data should pass through, got %+v", res)
	}
	if !reflect.DeepEqual(res.Data, want) {
		t.Errorf("data changed:\n got %+v\nwant %+v", res.Data, want)
	}

	t.Run("second run over migrated legacy data is a no-op", func(t *testing.T) {
		first, err := Migrate(nil, []byte(`[{"id": "1", "firstName": "A", "lastName": "B", "section": "C",
			"amount": 10, "isPaid": true, "paymentDate": "2024-02-02"}]`))
		if err != nil {
			t.Fatalf("Migrate failed: %v", err)
		}
		blob, err := json.Marshal(first.Data)
		if err != nil {
			t.Fatalf("Marshal failed: %v", err)
		}
		second, err := Migrate(blob, nil)
		if err != nil {
			t.Fatalf("second Migrate failed: %v", err)
		}
		if second.Changed {
			t.Error("second migration reported changes")
		}
		if !reflect.DeepEqual(first.Data, second.Data) {
			t.Errorf("second migration altered data:\n got %+v\nwant %+v", second.Data, first.Data)
		}
	})
}

func TestMigrateIgnoresLegacyWhenCategoriesExist(t *testing.T) {
	current := `{"students": [], "categories": [{"id": "c1", "name": "Fund"}], "activeCategory": "c1"}`
	res, err := Migrate([]byte(current), []byte(`[{"id": "x", "firstName": "A", "lastName": "B", "section": "C"}]`))
	if err != nil {
		t.Fatalf("Migrate failed: %v", err)
	}
	if res.LegacyConsumed || len(res.Data.Students) != 0 {
		t.Errorf("legacy data must only be migrated into a category-less ledger: %+v", res)
	}
}
