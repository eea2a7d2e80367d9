package will

import (
	"encoding/json"
	"errors"
	"os"
	"strings"
	"testing"
	"time"
)

var fixedNow = func() time.Time { return time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC) }

func newTestValidator(t *testing.T) *Validator {
	t.Helper()
	v, err := NewValidator()
	if err != nil {
		t.Fatalf("NewValidator: %v", err)
	}
	return v.WithClock(fixedNow)
}

func loadFixture(t *testing.T) map[string]any {
	t.Helper()
	data, err := os.ReadFile("testdata/valid_will.json")
	if err != nil {
		t.Fatal(err)
	}
	var m map[string]any
	if err := json.Unmarshal(data, &m); err != nil {
		t.Fatal(err)
	}
	return m
}

// withChange returns the fixture with fn applied, encoded as JSON.
func withChange(t *testing.T, fn func(m map[string]any)) []byte {
	t.Helper()
	m := loadFixture(t)
	fn(m)
	data, err := json.Marshal(m)
	if err != nil {
		t.Fatal(err)
	}
	return data
}

func obj(m map[string]any, key string) map[string]any { return m[key].(map[string]any) }

func item(m map[string]any, key string, i int) map[string]any {
	return m[key].([]any)[i].(map[string]any)
}

func validationErrors(t *testing.T, err error) []string {
	t.Helper()
	var ve *ValidationError
	if !errors.As(err, &ve) {
		t.Fatalf("err = %v, want *ValidationError", err)
	}
	return ve.Errors
}

func TestValidate_ValidWill(t *testing.T) {
	v := newTestValidator(t)
	w, err := v.Validate(withChange(t, func(map[string]any) {}))
	if err != nil {
		t.Fatalf("Validate: %v", err)
	}

	if w.Title() != "Will of Thandi Nkosi" {
		t.Errorf("Title = %q", w.Title())
	}
	if w.Testator.Address.PostalCode != "8001" {
		t.Errorf("postal_code alias not applied: %+v", w.Testator.Address)
	}
	if w.Testator.Address.Country != DefaultCountry {
		t.Errorf("country default = %q", w.Testator.Address.Country)
	}
	if w.Liabilities[0].Currency != "ZAR" {
		t.Errorf("liability currency default = %q", w.Liabilities[0].Currency)
	}
	if w.Assets[0].Usufruct.TerminationType != TerminationDeath {
		t.Errorf("usufruct termination default = %q", w.Assets[0].Usufruct.TerminationType)
	}
	if *w.MinorBeneficiaryProvisions.AgeOfInheritance != 18 {
		t.Errorf("age of inheritance default = %d", *w.MinorBeneficiaryProvisions.AgeOfInheritance)
	}
	if *w.Executors[0].IsAlternate {
		t.Error("executor isAlternate should default to false")
	}
}

func TestValidate_Structural(t *testing.T) {
	tests := []struct {
		name   string
		change func(m map[string]any)
		want   string
	}{
		{"missing testator", func(m map[string]any) { delete(m, "testator") }, "testator"},
		{"missing marriage", func(m map[string]any) { delete(m, "marriage") }, "marriage"},
		{"bad marital regime", func(m map[string]any) {
			item(obj(m, "marriage"), "spouses", 0)["maritalRegime"] = "COP"
		}, "maritalRegime"},
		{"bad asset type", func(m map[string]any) { item(m, "assets", 0)["type"] = "yacht" }, "type"},
		{"negative liability", func(m map[string]any) { item(m, "liabilities", 0)["amount"] = -5 }, "amount"},
		{"liability missing assetId key", func(m map[string]any) { delete(item(m, "liabilities", 0), "assetId") }, "assetId"},
		{"short executor phone", func(m map[string]any) { item(m, "executors", 0)["phone"] = "123" }, "phone"},
		{"bad email", func(m map[string]any) { obj(m, "testator")["email"] = "not-an-email" }, "email"},
		{"allocation over 100", func(m map[string]any) { item(m, "beneficiaries", 0)["allocationPercentage"] = 120 }, "allocationPercentage"},
		{"age of inheritance too high", func(m map[string]any) {
			obj(m, "minorBeneficiaryProvisions")["ageOfInheritance"] = 40
		}, "ageOfInheritance"},
		{"short revocation clause", func(m map[string]any) { m["revocationClause"] = "revoke" }, "revocationClause"},
		{"address without postal code", func(m map[string]any) {
			delete(item(m, "executors", 0)["address"].(map[string]any), "postalCode")
		}, "address"},
	}
	v := newTestValidator(t)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := v.Validate(withChange(t, tt.change))
			errs := validationErrors(t, err)
			if !strings.Contains(strings.Join(errs, "\n"), tt.want) {
				t.Errorf("errors %v do not mention %q", errs, tt.want)
			}
		})
	}
}

func TestValidate_InvalidJSON(t *testing.T) {
	v := newTestValidator(t)
	errs := validationErrors(t, func() error { _, err := v.Validate([]byte(`{"testator":`)); return err }())
	if len(errs) != 1 {
		t.Errorf("errors = %v", errs)
	}
}

func TestValidate_TestatorAge(t *testing.T) {
	tests := []struct {
		dob  string
		want string
	}{
		{"2010-01-01", "at least 18"},
		{"2008-01-02", "at least 18"},
		{"1850-01-01", "Invalid date of birth"},
		{"15/05/1980", "YYYY-MM-DD"},
		{"1980-13-01", "YYYY-MM-DD"},
		{"2008-01-01", ""},
	}
	v := newTestValidator(t)
	for _, tt := range tests {
		t.Run(tt.dob, func(t *testing.T) {
			_, err := v.Validate(withChange(t, func(m map[string]any) {
				obj(m, "testator")["dateOfBirth"] = tt.dob
			}))
			if tt.want == "" {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				return
			}
			errs := validationErrors(t, err)
			if !strings.Contains(strings.Join(errs, "\n"), tt.want) {
				t.Errorf("errors %v do not mention %q", errs, tt.want)
			}
		})
	}
}

func TestValidate_AssetAllocationsSum(t *testing.T) {
	v := newTestValidator(t)

	_, err := v.Validate(withChange(t, func(m map[string]any) {
		allocs := item(m, "assets", 0)["beneficiaryAllocations"].([]any)
		allocs[1].(map[string]any)["percentage"] = 30
	}))
	errs := validationErrors(t, err)
	if len(errs) != 1 || !strings.Contains(errs[0], "must sum to 100%, got 90%") {
		t.Errorf("errors = %v", errs)
	}

	// within tolerance
	_, err = v.Validate(withChange(t, func(m map[string]any) {
		allocs := item(m, "assets", 0)["beneficiaryAllocations"].([]any)
		allocs[0].(map[string]any)["percentage"] = 33.333
		allocs[1].(map[string]any)["percentage"] = 66.667
	}))
	if err != nil {
		t.Errorf("allocations within tolerance rejected: %v", err)
	}
}

func TestValidate_CrossFieldRules(t *testing.T) {
	tests := []struct {
		name   string
		change func(m map[string]any)
		want   string
	}{
		{"witness is executor", func(m map[string]any) {
			item(m, "witnesses", 0)["idNumber"] = "7503030456081"
		}, "Conflicting IDs: 7503030456081"},
		{"witness is beneficiary", func(m map[string]any) {
			item(m, "witnesses", 1)["idNumber"] = "7801015009087"
		}, "Witnesses cannot be beneficiaries"},
		{"total allocation over 100", func(m map[string]any) {
			item(m, "beneficiaries", 1)["allocationPercentage"] = 60
		}, "Total beneficiary allocations (110%) exceed 100%"},
		{"minor without guardian", func(m map[string]any) {
			delete(item(m, "beneficiaries", 1), "guardianId")
		}, "Minor beneficiary 'Lerato Nkosi' must have a guardianId"},
		{"unknown guardian", func(m map[string]any) {
			item(m, "beneficiaries", 1)["guardianId"] = "g9"
		}, "Guardian ID 'g9' for beneficiary 'Lerato Nkosi' not found"},
		{"digital asset beneficiary", func(m map[string]any) {
			item(m, "digitalAssets", 0)["beneficiaryId"] = "b9"
		}, "Beneficiary ID 'b9' in digital asset 'd1' not found"},
		{"bequest beneficiary", func(m map[string]any) {
			item(m, "specificBequests", 0)["beneficiaryId"] = "b9"
		}, "Beneficiary ID 'b9' in bequest 'sb1' not found"},
		{"bequest substitute", func(m map[string]any) {
			item(m, "specificBequests", 0)["substituteBeneficiaryId"] = "b8"
		}, "Substitute beneficiary ID 'b8' in bequest 'sb1' not found"},
		{"beneficiary substitute", func(m map[string]any) {
			item(m, "beneficiaries", 0)["substituteBeneficiaryId"] = "b7"
		}, "Substitute beneficiary ID 'b7' for 'Sipho Nkosi' not found"},
		{"usufructuary unknown", func(m map[string]any) {
			obj(item(m, "assets", 0), "usufruct")["usufructuaryId"] = "b5"
		}, "Usufructuary ID 'b5' in asset 'a1' not found"},
		{"usufruct same person", func(m map[string]any) {
			obj(item(m, "assets", 0), "usufruct")["bareDominiumOwnerId"] = "b1"
		}, "must be different beneficiaries"},
		{"one witness", func(m map[string]any) {
			m["witnesses"] = m["witnesses"].([]any)[:1]
		}, "Minimum 2 witnesses required"},
		{"trust without trustee", func(m map[string]any) {
			delete(obj(m, "minorBeneficiaryProvisions"), "trusteeId")
		}, "Trustee ID required when using testamentary trust"},
		{"trust with unknown trustee", func(m map[string]any) {
			obj(m, "minorBeneficiaryProvisions")["trusteeId"] = "t9"
		}, "Trustee ID 't9' in minor provisions not found"},
	}
	v := newTestValidator(t)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := v.Validate(withChange(t, tt.change))
			errs := validationErrors(t, err)
			if !strings.Contains(strings.Join(errs, "\n"), tt.want) {
				t.Errorf("errors %v do not mention %q", errs, tt.want)
			}
		})
	}
}

func TestValidate_TrusteeUncheckedWithoutTrustees(t *testing.T) {
	v := newTestValidator(t)
	for _, trustees := range []any{nil, []any{}} {
		_, err := v.Validate(withChange(t, func(m map[string]any) {
			m["trustees"] = trustees
			obj(m, "minorBeneficiaryProvisions")["trusteeId"] = "t9"
		}))
		if err != nil {
			t.Errorf("trustees=%v: %v", trustees, err)
		}
	}
}

func TestValidate_CollectsAllViolations(t *testing.T) {
	v := newTestValidator(t)
	_, err := v.Validate(withChange(t, func(m map[string]any) {
		m["witnesses"] = []any{}
		item(m, "beneficiaries", 1)["guardianId"] = "g9"
		obj(m, "minorBeneficiaryProvisions")["trusteeId"] = "t9"
		obj(m, "testator")["dateOfBirth"] = "2015-01-01"
	}))
	errs := validationErrors(t, err)
	if len(errs) != 4 {
		t.Errorf("got %d errors, want 4: %v", len(errs), errs)
	}
}

func TestTitle(t *testing.T) {
	first, last, blank := "Jan", "Botha", "  "
	tests := []struct {
		name string
		t    TestatorInfo
		want string
	}{
		{"full name", TestatorInfo{FirstName: &first, LastName: &last}, "Will of Jan Botha"},
		{"first only", TestatorInfo{FirstName: &first}, "Will of Jan"},
		{"last only", TestatorInfo{LastName: &last}, "Will of Botha"},
		{"no name", TestatorInfo{}, "Will of Unknown"},
		{"blank name", TestatorInfo{FirstName: &blank}, "Will of Unknown"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := WillContent{Testator: tt.t}
			if got := w.Title(); got != tt.want {
				t.Errorf("Title() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestAgeOn(t *testing.T) {
	born := time.Date(2000, 6, 15, 0, 0, 0, 0, time.UTC)
	tests := []struct {
		now  time.Time
		want int
	}{
		{time.Date(2018, 6, 14, 0, 0, 0, 0, time.UTC), 17},
		{time.Date(2018, 6, 15, 0, 0, 0, 0, time.UTC), 18},
		{time.Date(2018, 7, 1, 0, 0, 0, 0, time.UTC), 18},
	}
	for _, tt := range tests {
		if got := ageOn(born, tt.now); got != tt.want {
			t.Errorf("ageOn(%s) = %d, want %d", tt.now.Format(time.DateOnly), got, tt.want)
		}
	}
}
