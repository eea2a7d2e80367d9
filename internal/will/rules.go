package will

import (
	"fmt"
	"slices"
	"strings"
)

// MinWitnesses is the number of witnesses a South African will needs.
const MinWitnesses = 2

// A rule inspects a parsed will and returns one message per violation.
type rule func(w *WillContent) []string

var crossFieldRules = []rule{
	witnessesNotInterested,
	totalAllocationAtMostFull,
	minorsHaveGuardians,
	guardianReferencesExist,
	beneficiaryReferencesExist,
	usufructReferencesValid,
	enoughWitnesses,
	testamentaryTrustHasTrustee,
}

func witnessesNotInterested(w *WillContent) []string {
	interested := make(map[string]bool)
	for _, b := range w.Beneficiaries {
		if b.IDNumber != nil && *b.IDNumber != "" {
			interested[*b.IDNumber] = true
		}
	}
	for _, e := range w.Executors {
		interested[e.IDNumber] = true
	}
	for _, g := range w.Guardians {
		interested[g.IDNumber] = true
	}

	var conflicts []string
	for _, wt := range w.Witnesses {
		if wt.IDNumber == nil || *wt.IDNumber == "" {
			continue
		}
		if interested[*wt.IDNumber] && !slices.Contains(conflicts, *wt.IDNumber) {
			conflicts = append(conflicts, *wt.IDNumber)
		}
	}
	if len(conflicts) == 0 {
		return nil
	}
	slices.Sort(conflicts)
	return []string{fmt.Sprintf("Witnesses cannot be beneficiaries, executors, or guardians. Conflicting IDs: %s", strings.Join(conflicts, ", "))}
}

func totalAllocationAtMostFull(w *WillContent) []string {
	var total float64
	for _, b := range w.Beneficiaries {
		if b.AllocationPercentage != nil {
			total += *b.AllocationPercentage
		}
	}
	if total > 100 {
		return []string{fmt.Sprintf("Total beneficiary allocations (%g%%) exceed 100%%", total)}
	}
	return nil
}

func minorsHaveGuardians(w *WillContent) []string {
	var errs []string
	for _, b := range w.Beneficiaries {
		if b.IsMinor != nil && *b.IsMinor && (b.GuardianID == nil || *b.GuardianID == "") {
			errs = append(errs, fmt.Sprintf("Minor beneficiary '%s' must have a guardianId", b.Name()))
		}
	}
	return errs
}

func guardianReferencesExist(w *WillContent) []string {
	ids := make(map[string]bool, len(w.Guardians))
	for _, g := range w.Guardians {
		ids[g.ID] = true
	}
	var errs []string
	for _, b := range w.Beneficiaries {
		if b.GuardianID != nil && *b.GuardianID != "" && !ids[*b.GuardianID] {
			errs = append(errs, fmt.Sprintf("Guardian ID '%s' for beneficiary '%s' not found", *b.GuardianID, b.Name()))
		}
	}
	return errs
}

func beneficiaryIDs(w *WillContent) map[string]bool {
	ids := make(map[string]bool, len(w.Beneficiaries))
	for _, b := range w.Beneficiaries {
		ids[b.ID] = true
	}
	return ids
}

func beneficiaryReferencesExist(w *WillContent) []string {
	ids := beneficiaryIDs(w)
	missing := func(p *string) bool { return p != nil && *p != "" && !ids[*p] }

	var errs []string
	for _, d := range w.DigitalAssets {
		if missing(d.BeneficiaryID) {
			errs = append(errs, fmt.Sprintf("Beneficiary ID '%s' in digital asset '%s' not found", *d.BeneficiaryID, d.ID))
		}
	}
	for _, bq := range w.SpecificBequests {
		if !ids[bq.BeneficiaryID] {
			errs = append(errs, fmt.Sprintf("Beneficiary ID '%s' in bequest '%s' not found", bq.BeneficiaryID, bq.ID))
		}
		if missing(bq.SubstituteBeneficiaryID) {
			errs = append(errs, fmt.Sprintf("Substitute beneficiary ID '%s' in bequest '%s' not found", *bq.SubstituteBeneficiaryID, bq.ID))
		}
	}
	for _, b := range w.Beneficiaries {
		if missing(b.SubstituteBeneficiaryID) {
			errs = append(errs, fmt.Sprintf("Substitute beneficiary ID '%s' for '%s' not found", *b.SubstituteBeneficiaryID, b.Name()))
		}
	}
	return errs
}

func usufructReferencesValid(w *WillContent) []string {
	ids := beneficiaryIDs(w)
	var errs []string
	for _, a := range w.Assets {
		u := a.Usufruct
		if u == nil {
			continue
		}
		if !ids[u.UsufructuaryID] {
			errs = append(errs, fmt.Sprintf("Usufructuary ID '%s' in asset '%s' not found", u.UsufructuaryID, a.ID))
		}
		if !ids[u.BareDominiumOwnerID] {
			errs = append(errs, fmt.Sprintf("Bare dominium owner ID '%s' in asset '%s' not found", u.BareDominiumOwnerID, a.ID))
		}
		if u.UsufructuaryID == u.BareDominiumOwnerID {
			errs = append(errs, fmt.Sprintf("Usufructuary and bare dominium owner of asset '%s' must be different beneficiaries", a.ID))
		}
	}
	return errs
}

func enoughWitnesses(w *WillContent) []string {
	if len(w.Witnesses) < MinWitnesses {
		return []string{fmt.Sprintf("Minimum %d witnesses required for South African wills", MinWitnesses)}
	}
	return nil
}

func testamentaryTrustHasTrustee(w *WillContent) []string {
	p := w.MinorBeneficiaryProvisions
	if p == nil || p.Method != ProvisionTestamentaryTrust {
		return nil
	}
	if p.TrusteeID == nil || *p.TrusteeID == "" {
		return []string{"Trustee ID required when using testamentary trust for minor provisions"}
	}
	// The trustee may be appointed outside this document when none are listed.
	if len(w.Trustees) == 0 {
		return nil
	}
	for _, t := range w.Trustees {
		if t.ID == *p.TrusteeID {
			return nil
		}
	}
	return []string{fmt.Sprintf("Trustee ID '%s' in minor provisions not found", *p.TrusteeID)}
}
