// Package will models the content of a last will and testament submitted
// through the intake API, and validates it.
package will

import (
	"encoding/json"
	"strings"
)

type WillType string

const (
	WillIndividual WillType = "individual"
	WillMutual     WillType = "mutual"
	WillJoint      WillType = "joint"
)

type Gender string

const (
	GenderMale           Gender = "male"
	GenderFemale         Gender = "female"
	GenderOther          Gender = "other"
	GenderPreferNotToSay Gender = "prefer_not_to_say"
)

type MaritalStatus string

const (
	Single    MaritalStatus = "single"
	Married   MaritalStatus = "married"
	Divorced  MaritalStatus = "divorced"
	Widowed   MaritalStatus = "widowed"
	Separated MaritalStatus = "separated"
)

// MaritalRegime is a South African matrimonial property regime.
type MaritalRegime string

const (
	RegimeICOP   MaritalRegime = "ICOP"    // in community of property
	RegimeOCOP   MaritalRegime = "OCOP"    // out of community of property
	RegimeOCOPA  MaritalRegime = "OCOP-A"  // out of community, with accrual
	RegimeOCOPNA MaritalRegime = "OCOP-NA" // out of community, without accrual
)

type AssetType string

const (
	AssetRealEstate       AssetType = "real-estate"
	AssetVehicle          AssetType = "vehicle"
	AssetBankAccount      AssetType = "bank-account"
	AssetInvestment       AssetType = "investment"
	AssetInsurance        AssetType = "insurance"
	AssetBusiness         AssetType = "business"
	AssetPersonalProperty AssetType = "personal-property"
	AssetDigital          AssetType = "digital-asset"
	AssetOther            AssetType = "other"
)

type RelationshipType string

const (
	RelSpouse      RelationshipType = "spouse"
	RelChild       RelationshipType = "child"
	RelParent      RelationshipType = "parent"
	RelSibling     RelationshipType = "sibling"
	RelGrandchild  RelationshipType = "grandchild"
	RelGrandparent RelationshipType = "grandparent"
	RelNieceNephew RelationshipType = "niece_nephew"
	RelCousin      RelationshipType = "cousin"
	RelFriend      RelationshipType = "friend"
	RelCharity     RelationshipType = "charity"
	RelOther       RelationshipType = "other"
)

type LiabilityType string

const (
	LiabilityMortgage        LiabilityType = "mortgage"
	LiabilityLoan            LiabilityType = "loan"
	LiabilityCreditCard      LiabilityType = "credit-card"
	LiabilityTax             LiabilityType = "tax"
	LiabilityNormal          LiabilityType = "normal"
	LiabilityCounterClaim    LiabilityType = "counter claim"
	LiabilityMasterFee       LiabilityType = "master's fee"
	LiabilityExecutorFee     LiabilityType = "executor's fee"
	LiabilityEstateDuty      LiabilityType = "estate duty"
	LiabilityCapitalGainsTax LiabilityType = "capital's gains tax"
	LiabilityOther           LiabilityType = "other"
)

type FuneralPreference string

const (
	FuneralBurial    FuneralPreference = "burial"
	FuneralCremation FuneralPreference = "cremation"
	FuneralDonation  FuneralPreference = "donation"
	FuneralOther     FuneralPreference = "other"
)

type DigitalAssetType string

const (
	DigitalSocialMedia    DigitalAssetType = "social-media"
	DigitalEmail          DigitalAssetType = "email"
	DigitalCloudStorage   DigitalAssetType = "cloud-storage"
	DigitalCryptocurrency DigitalAssetType = "cryptocurrency"
	DigitalDomain         DigitalAssetType = "domain"
	DigitalOther          DigitalAssetType = "other"
)

type MinorProvisionMethod string

const (
	ProvisionGuardianFund      MinorProvisionMethod = "guardian-fund"
	ProvisionTestamentaryTrust MinorProvisionMethod = "testamentary-trust"
	ProvisionOther             MinorProvisionMethod = "other"
)

type ChildRelationship string

const (
	ChildBiological ChildRelationship = "biological"
	ChildAdopted    ChildRelationship = "adopted"
	ChildStepchild  ChildRelationship = "stepchild"
	ChildOther      ChildRelationship = "other"
)

// UsufructTerminationType is the event that ends a usufruct.
type UsufructTerminationType string

const TerminationDeath UsufructTerminationType = "death"

const (
	DefaultCountry          = "South Africa"
	DefaultCurrency         = "ZAR"
	DefaultAgeOfInheritance = 18
)

type Address struct {
	Street     string `json:"street"`
	City       string `json:"city"`
	State      string `json:"state"`
	PostalCode string `json:"postalCode"`
	Country    string `json:"country"`
}

// UnmarshalJSON accepts postal_code as an alias of postalCode.
func (a *Address) UnmarshalJSON(data []byte) error {
	type plain Address
	var aux struct {
		plain
		PostalCodeSnake string `json:"postal_code"`
	}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	*a = Address(aux.plain)
	if a.PostalCode == "" {
		a.PostalCode = aux.PostalCodeSnake
	}
	return nil
}

// UsufructConfig splits an asset between a usufructuary, who may use and
// enjoy it, and a bare dominium owner, who holds ownership.
type UsufructConfig struct {
	UsufructuaryID      string                  `json:"usufructuaryId"`
	BareDominiumOwnerID string                  `json:"bareDominiumOwnerId"`
	TerminationType     UsufructTerminationType `json:"terminationType"`
}

type BeneficiaryAllocation struct {
	BeneficiaryID string  `json:"beneficiaryId"`
	Percentage    float64 `json:"percentage"`
}

type FuneralWishes struct {
	Preference           FuneralPreference `json:"preference"`
	Location             *string           `json:"location"`
	SpecificInstructions *string           `json:"specificInstructions"`
	PrePaid              *bool             `json:"prePaid"`
	FuneralHome          *string           `json:"funeralHome"`
	ReligiousPreferences *string           `json:"religiousPreferences"`
}

type TestatorInfo struct {
	FirstName   *string  `json:"firstName"`
	LastName    *string  `json:"lastName"`
	DateOfBirth string   `json:"dateOfBirth"`
	IDNumber    string   `json:"idNumber"`
	Address     *Address `json:"address"`
	Phone       *string  `json:"phone"`
	Email       *string  `json:"email"`
	Occupation  *string  `json:"occupation"`
}

type SpouseInfo struct {
	ID             string        `json:"id"`
	FirstName      *string       `json:"firstName"`
	LastName       *string       `json:"lastName"`
	IDNumber       *string       `json:"idNumber"`
	DateOfBirth    *string       `json:"dateOfBirth"`
	DateOfMarriage *string       `json:"dateOfMarriage"`
	MaritalRegime  MaritalRegime `json:"maritalRegime"`
}

// MarriageInfo allows several spouses for polygamous marriages.
type MarriageInfo struct {
	Status  MaritalStatus `json:"status"`
	Spouses []SpouseInfo  `json:"spouses"`
}

type Child struct {
	ID                     string            `json:"id"`
	FirstName              *string           `json:"firstName"`
	LastName               *string           `json:"lastName"`
	IDNumber               *string           `json:"idNumber"`
	DateOfBirth            string            `json:"dateOfBirth"`
	IsMinor                bool              `json:"isMinor"`
	ParentSpouseID         *string           `json:"parentSpouseId"`
	RelationshipToTestator ChildRelationship `json:"relationshipToTestator"`
}

type Witness struct {
	ID            string  `json:"id"`
	FullName      string  `json:"fullName"`
	IDNumber      *string `json:"idNumber"`
	Address       Address `json:"address"`
	Phone         *string `json:"phone"`
	Occupation    *string `json:"occupation"`
	DateWitnessed *string `json:"dateWitnessed"`
}

type Liability struct {
	ID            string        `json:"id"`
	Type          LiabilityType `json:"type"`
	Creditor      string        `json:"creditor"`
	Amount        float64       `json:"amount"`
	Currency      string        `json:"currency"`
	AccountNumber *string       `json:"accountNumber"`
	Notes         *string       `json:"notes"`
	BeneficiaryID *string       `json:"beneficiaryId"`
	AssetID       *string       `json:"assetId"`
}

type DigitalAsset struct {
	ID            string           `json:"id"`
	Type          DigitalAssetType `json:"type"`
	Platform      string           `json:"platform"`
	Username      *string          `json:"username"`
	Instructions  string           `json:"instructions"`
	BeneficiaryID *string          `json:"beneficiaryId"`
}

type SpecificBequest struct {
	ID                      string  `json:"id"`
	Description             string  `json:"description"`
	BeneficiaryID           string  `json:"beneficiaryId"`
	SubstituteBeneficiaryID *string `json:"substituteBeneficiaryId"`
}

type MinorBeneficiaryProvisions struct {
	Method           MinorProvisionMethod `json:"method"`
	AgeOfInheritance *int                 `json:"ageOfInheritance"`
	TrusteeID        *string              `json:"trusteeId"`
	Instructions     *string              `json:"instructions"`
}

type Trustee struct {
	ID               string   `json:"id"`
	FullName         string   `json:"fullName"`
	IDNumber         string   `json:"idNumber"`
	Relationship     string   `json:"relationship"`
	Address          Address  `json:"address"`
	Phone            string   `json:"phone"`
	Email            *string  `json:"email"`
	ForBeneficiaries []string `json:"forBeneficiaries"`
	IsAlternate      *bool    `json:"isAlternate"`
	IsGuardian       *bool    `json:"isGuardian"`
	GuardianID       *string  `json:"guardianId"`
}

type Asset struct {
	ID                     string                  `json:"id"`
	Type                   AssetType               `json:"type"`
	Description            string                  `json:"description"`
	Location               *string                 `json:"location"`
	EstimatedValue         *float64                `json:"estimatedValue"`
	Currency               *string                 `json:"currency"`
	AccountNumber          *string                 `json:"accountNumber"`
	Notes                  *string                 `json:"notes"`
	BeneficiaryAllocations []BeneficiaryAllocation `json:"beneficiaryAllocations"`
	Usufruct               *UsufructConfig         `json:"usufruct"`
}

type Beneficiary struct {
	ID                      string   `json:"id"`
	FirstName               *string  `json:"firstName"`
	LastName                *string  `json:"lastName"`
	IDNumber                *string  `json:"idNumber"`
	Relationship            string   `json:"relationship"`
	DateOfBirth             *string  `json:"dateOfBirth"`
	Address                 *Address `json:"address"`
	Phone                   *string  `json:"phone"`
	Email                   *string  `json:"email"`
	AllocationPercentage    *float64 `json:"allocationPercentage"`
	SpecificBequests        []string `json:"specificBequests"`
	IsMinor                 *bool    `json:"isMinor"`
	GuardianID              *string  `json:"guardianId"`
	SubstituteBeneficiaryID *string  `json:"substituteBeneficiaryId"`
}

// Name returns the beneficiary's display name, falling back to the id.
func (b Beneficiary) Name() string {
	if n := joinName(b.FirstName, b.LastName); n != "" {
		return n
	}
	return b.ID
}

type Executor struct {
	ID                string  `json:"id"`
	FullName          string  `json:"fullName"`
	IDNumber          string  `json:"idNumber"`
	Relationship      string  `json:"relationship"`
	Address           Address `json:"address"`
	Phone             string  `json:"phone"`
	Email             *string `json:"email"`
	IsAlternate       *bool   `json:"isAlternate"`
	IsSurvivingSpouse *bool   `json:"isSurvivingSpouse"`
}

type Guardian struct {
	ID           string   `json:"id"`
	FullName     string   `json:"fullName"`
	IDNumber     string   `json:"idNumber"`
	Relationship string   `json:"relationship"`
	Address      Address  `json:"address"`
	Phone        string   `json:"phone"`
	Email        *string  `json:"email"`
	ForChildren  []string `json:"forChildren"`
	IsAlternate  *bool    `json:"isAlternate"`
}

// WillContent is the complete will submitted by a user.
type WillContent struct {
	WillType                   *WillType                   `json:"willType"`
	Testator                   TestatorInfo                `json:"testator"`
	Marriage                   MarriageInfo                `json:"marriage"`
	Children                   []Child                     `json:"children"`
	Assets                     []Asset                     `json:"assets"`
	Beneficiaries              []Beneficiary               `json:"beneficiaries"`
	Executors                  []Executor                  `json:"executors"`
	Witnesses                  []Witness                   `json:"witnesses"`
	Guardians                  []Guardian                  `json:"guardians"`
	Trustees                   []Trustee                   `json:"trustees"`
	Liabilities                []Liability                 `json:"liabilities"`
	FuneralWishes              *FuneralWishes              `json:"funeralWishes"`
	DigitalAssets              []DigitalAsset              `json:"digitalAssets"`
	SpecialInstructions        *string                     `json:"specialInstructions"`
	RevocationClause           *string                     `json:"revocationClause"`
	ResiduaryClause            *string                     `json:"residuaryClause"`
	SpecificBequests           []SpecificBequest           `json:"specificBequests"`
	MinorBeneficiaryProvisions *MinorBeneficiaryProvisions `json:"minorBeneficiaryProvisions"`
	AttestationClause          *string                     `json:"attestationClause"`
	DateExecuted               *string                     `json:"dateExecuted"`
	PlaceExecuted              *string                     `json:"placeExecuted"`
}

// Title is the display title of a stored will.
func (w *WillContent) Title() string {
	name := joinName(w.Testator.FirstName, w.Testator.LastName)
	if name == "" {
		name = "Unknown"
	}
	return "Will of " + name
}

// applyDefaults fills the values an omitted field takes.
func (w *WillContent) applyDefaults() {
	setCountry := func(a *Address) {
		if a != nil && a.Country == "" {
			a.Country = DefaultCountry
		}
	}
	setCountry(w.Testator.Address)

	// Lists that default to empty rather than null.
	if w.Beneficiaries == nil {
		w.Beneficiaries = []Beneficiary{}
	}
	if w.Executors == nil {
		w.Executors = []Executor{}
	}
	if w.Witnesses == nil {
		w.Witnesses = []Witness{}
	}
	if w.Guardians == nil {
		w.Guardians = []Guardian{}
	}
	if w.Trustees == nil {
		w.Trustees = []Trustee{}
	}
	if w.Liabilities == nil {
		w.Liabilities = []Liability{}
	}
	if w.SpecificBequests == nil {
		w.SpecificBequests = []SpecificBequest{}
	}

	f := false
	for i := range w.Beneficiaries {
		b := &w.Beneficiaries[i]
		setCountry(b.Address)
		if b.IsMinor == nil {
			b.IsMinor = &f
		}
	}
	for i := range w.Executors {
		e := &w.Executors[i]
		setCountry(&e.Address)
		if e.IsAlternate == nil {
			e.IsAlternate = &f
		}
		if e.IsSurvivingSpouse == nil {
			e.IsSurvivingSpouse = &f
		}
	}
	for i := range w.Witnesses {
		setCountry(&w.Witnesses[i].Address)
	}
	for i := range w.Guardians {
		g := &w.Guardians[i]
		setCountry(&g.Address)
		if g.IsAlternate == nil {
			g.IsAlternate = &f
		}
	}
	for i := range w.Trustees {
		t := &w.Trustees[i]
		setCountry(&t.Address)
		if t.IsAlternate == nil {
			t.IsAlternate = &f
		}
		if t.IsGuardian == nil {
			t.IsGuardian = &f
		}
	}
	for i := range w.Liabilities {
		if w.Liabilities[i].Currency == "" {
			w.Liabilities[i].Currency = DefaultCurrency
		}
	}
	for i := range w.Assets {
		a := &w.Assets[i]
		if a.Currency == nil {
			c := DefaultCurrency
			a.Currency = &c
		}
		if a.Usufruct != nil && a.Usufruct.TerminationType == "" {
			a.Usufruct.TerminationType = TerminationDeath
		}
	}
	if p := w.MinorBeneficiaryProvisions; p != nil && p.AgeOfInheritance == nil {
		age := DefaultAgeOfInheritance
		p.AgeOfInheritance = &age
	}
}

func joinName(first, last *string) string {
	var parts []string
	for _, p := range []*string{first, last} {
		if p != nil && strings.TrimSpace(*p) != "" {
			parts = append(parts, strings.TrimSpace(*p))
		}
	}
	return strings.Join(parts, " ")
}
