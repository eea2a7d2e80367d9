package will

import (
	_ "embed"
	"encoding/json"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/xeipuuv/gojsonschema"
)

//go:embed schema.json
var schemaJSON []byte

// ValidationError carries every problem found in a submitted will.
type ValidationError struct {
	Errors []string
}

func (e *ValidationError) Error() string {
	return "will validation failed: " + strings.Join(e.Errors, "; ")
}

// Validator checks submitted wills in three passes: JSON Schema structure,
// field rules, then cross-field rules. Problems within the last two passes
// are collected and reported together.
type Validator struct {
	schema *gojsonschema.Schema
	now    func() time.Time
}

// NewValidator compiles the embedded schema.
func NewValidator() (*Validator, error) {
	schema, err := gojsonschema.NewSchema(gojsonschema.NewBytesLoader(schemaJSON))
	if err != nil {
		return nil, fmt.Errorf("compile will schema: %w", err)
	}
	return &Validator{schema: schema, now: time.Now}, nil
}

// WithClock returns a copy of v that computes ages against now.
func (v *Validator) WithClock(now func() time.Time) *Validator {
	cp := *v
	cp.now = now
	return &cp
}

// Validate parses raw and returns the will with defaults applied, or a
// *ValidationError listing everything wrong with it.
func (v *Validator) Validate(raw []byte) (*WillContent, error) {
	result, err := v.schema.Validate(gojsonschema.NewBytesLoader(raw))
	if err != nil {
		return nil, &ValidationError{Errors: []string{fmt.Sprintf("invalid JSON: %s", err)}}
	}
	if !result.Valid() {
		var errs []string
		for _, desc := range result.Errors() {
			errs = append(errs, desc.String())
		}
		return nil, &ValidationError{Errors: errs}
	}

	var w WillContent
	if err := json.Unmarshal(raw, &w); err != nil {
		return nil, &ValidationError{Errors: []string{fmt.Sprintf("decode will: %s", err)}}
	}
	w.applyDefaults()

	var errs []string
	errs = append(errs, v.fieldErrors(&w)...)
	for _, r := range crossFieldRules {
		errs = append(errs, r(&w)...)
	}
	if len(errs) > 0 {
		return nil, &ValidationError{Errors: errs}
	}
	return &w, nil
}

func (v *Validator) fieldErrors(w *WillContent) []string {
	var errs []string
	if msg := checkTestatorAge(w.Testator.DateOfBirth, v.now()); msg != "" {
		errs = append(errs, msg)
	}
	for _, a := range w.Assets {
		if len(a.BeneficiaryAllocations) == 0 {
			continue
		}
		var total float64
		for _, alloc := range a.BeneficiaryAllocations {
			total += alloc.Percentage
		}
		if math.Abs(total-100) > 0.01 {
			errs = append(errs, fmt.Sprintf("Beneficiary allocations for asset '%s' must sum to 100%%, got %g%%", a.ID, total))
		}
	}
	return errs
}

// checkTestatorAge requires a YYYY-MM-DD date giving an age from 18 to 150.
func checkTestatorAge(dob string, now time.Time) string {
	born, err := time.Parse(time.DateOnly, dob)
	if err != nil {
		return fmt.Sprintf("Invalid date format for testator dateOfBirth %q. Use YYYY-MM-DD format", dob)
	}
	age := ageOn(born, now)
	switch {
	case age < 18:
		return "Testator must be at least 18 years old"
	case age > 150:
		return "Invalid date of birth"
	}
	return ""
}

func ageOn(born, now time.Time) int {
	age := now.Year() - born.Year()
	if now.Month() < born.Month() || (now.Month() == born.Month() && now.Day() < born.Day()) {
		age--
	}
	return age
}
