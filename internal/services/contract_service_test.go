package services

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"buildtrack/internal/models"
	"buildtrack/internal/repositories"
	"buildtrack/internal/wizard"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func housingContract() *models.Contract {
	return &models.Contract{
		ContractClassification: models.ClassificationHousingLoan,
		ContractType:           "lump_sum",
		ContractDate:           "2024-02-01",
		ContractorName:         "Gulf Builders",
		TotalProjectValue:      models.NumberPtr(1000000),
		TotalBankValue:         models.NumberPtr(350000),
		TotalOwnerValue:        models.NumberPtr(650000),
		ProjectDurationMonths:  12,
	}
}

func newContractService(fb *fakeBackend) *ContractService {
	return NewContractService(fb, repositories.NewMemorySuggestionRepository(), wizard.NewBus(), zerolog.Nop())
}

func TestProjectEndDate(t *testing.T) {
	tests := []struct {
		name     string
		start    string
		duration float64
		exts     []models.Extension
		want     string
		ok       bool
	}{
		{name: "duration only", start: "2024-01-15", duration: 12, want: "2025-01-15", ok: true},
		{name: "months then days", start: "2024-01-15", duration: 12, exts: []models.Extension{{Months: 2, Days: 10}}, want: "2025-03-25", ok: true},
		{name: "several extensions", start: "2024-01-15", duration: 6, exts: []models.Extension{{Days: 5}, {Months: 1, Days: 5}}, want: "2024-08-25", ok: true},
		{name: "month overflow", start: "2024-01-31", duration: 1, want: "2024-03-02", ok: true},
		{name: "no start", duration: 12},
		{name: "no duration", start: "2024-01-15"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := ProjectEndDate(tt.start, tt.duration, tt.exts)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestDerivedOwnerValue(t *testing.T) {
	assert.Equal(t, 650000.0, DerivedOwnerValue(1000000, 350000))
	assert.Equal(t, 0.0, DerivedOwnerValue(100, 250), "never negative")
}

func TestContractPreview(t *testing.T) {
	svc := newContractService(newFakeBackend())
	c := housingContract()
	c.TotalOwnerValue = nil
	c.StartOrderDate = "2024-03-01"

	p := svc.Preview(c)
	assert.Equal(t, 650000.0, p.TotalOwnerValue)
	assert.Equal(t, "2025-03-01", p.ProjectEndDate)
}

func TestContractValidate(t *testing.T) {
	svc := newContractService(newFakeBackend())

	tests := []struct {
		name string
		edit func(c *models.Contract)
		rule string
	}{
		{name: "valid", edit: func(*models.Contract) {}},
		{name: "classification first", edit: func(c *models.Contract) {
			c.ContractClassification = ""
			c.ContractType = ""
		}, rule: RuleClassification},
		{name: "contract type", edit: func(c *models.Contract) { c.ContractType = "" }, rule: RuleContractType},
		{name: "contract date", edit: func(c *models.Contract) { c.ContractDate = " " }, rule: RuleContractDate},
		{name: "total missing", edit: func(c *models.Contract) { c.TotalProjectValue = nil }, rule: RuleTotalValue},
		{name: "total zero", edit: func(c *models.Contract) { c.TotalProjectValue = models.NumberPtr(0) }, rule: RuleTotalValue},
		{name: "housing bank missing", edit: func(c *models.Contract) { c.TotalBankValue = nil }, rule: RuleBankValue},
		{name: "housing bank negative", edit: func(c *models.Contract) { c.TotalBankValue = models.NumberPtr(-1) }, rule: RuleBankValue},
		{name: "owner value within tolerance", edit: func(c *models.Contract) { c.TotalOwnerValue = models.NumberPtr(650000.005) }},
		{name: "owner value forced", edit: func(c *models.Contract) {
			c.TotalBankValue = models.NumberPtr(400000)
			c.TotalOwnerValue = models.NumberPtr(650000)
		}, rule: RuleOwnerValue},
		{name: "private ignores bank and owner", edit: func(c *models.Contract) {
			c.ContractClassification = models.ClassificationPrivateFunding
			c.TotalBankValue = nil
			c.TotalOwnerValue = models.NumberPtr(1)
		}},
		{name: "start order needs file", edit: func(c *models.Contract) {
			c.HasStartOrder = true
			c.StartOrderDate = "2024-03-01"
		}, rule: RuleStartOrderFile},
		{name: "start order file before date", edit: func(c *models.Contract) {
			c.HasStartOrder = true
		}, rule: RuleStartOrderFile},
		{name: "start order needs date", edit: func(c *models.Contract) {
			c.HasStartOrder = true
			c.StartOrderFile = "/media/start.pdf"
		}, rule: RuleStartOrderDate},
		{name: "removed start order file", edit: func(c *models.Contract) {
			c.HasStartOrder = true
			c.StartOrderFile = "/media/start.pdf"
			c.StartOrderDate = "2024-03-01"
			c.Files = map[string]models.FileField{"start_order_file": models.RemoveFile()}
		}, rule: RuleStartOrderFile},
		{name: "new start order file", edit: func(c *models.Contract) {
			c.HasStartOrder = true
			c.StartOrderDate = "2024-03-01"
			c.Files = map[string]models.FileField{"start_order_file": models.ReplaceFile("so.pdf", []byte("x"))}
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := housingContract()
			tt.edit(c)
			err := svc.Validate(c)
			if tt.rule == "" {
				require.NoError(t, err)
				return
			}
			v, ok := AsValidation(err)
			require.True(t, ok, "expected validation error, got %v", err)
			assert.Equal(t, tt.rule, v.Rule)
		})
	}
}

func TestCleanExtensions(t *testing.T) {
	got := CleanExtensions([]models.Extension{
		{Reason: "   "},
		{Reason: " rain ", Days: 0},
		{Days: 3},
		{},
		{Months: 1},
	})
	require.Len(t, got, 3)
	assert.Equal(t, "rain", got[0].Reason)
	assert.Equal(t, models.Number(3), got[1].Days)
	assert.Equal(t, models.Number(1), got[2].Months)
}

func TestContractBuildForm(t *testing.T) {
	svc := newContractService(newFakeBackend())
	c := housingContract()
	c.TotalOwnerValue = nil
	c.Owners = []models.ContractOwner{{OwnerNameAr: "علي", SharePercent: 100}}
	c.Extensions = []models.Extension{{Reason: " "}, {Reason: "design change", Months: 1}}
	c.Attachments = []models.Attachment{
		{Type: " ", Notes: " "},
		{Notes: "signed copy", File: models.ReplaceFile("signed.pdf", []byte("x"))},
		{Type: "appendix", FileURL: "/media/a.pdf"},
	}
	c.ContractFile = "/media/contract.pdf"
	c.Files = map[string]models.FileField{
		"contract_file":          models.RemoveFile(),
		"contract_appendix_file": models.ReplaceFile("appendix.pdf", []byte("y")),
	}
	c.OwnerFees = models.ConsultantFees{IncludesConsultant: true, DesignPercent: models.NumberPtr(2.5)}

	form, err := svc.BuildForm(c)
	require.NoError(t, err)

	value := func(key string) string {
		v, ok := form.Value(key)
		require.True(t, ok, "missing %s", key)
		return v
	}
	assert.Equal(t, "1000000", value("total_project_value"))
	assert.Equal(t, "350000", value("total_bank_value"))
	assert.Equal(t, "650000", value("total_owner_value"))
	assert.Equal(t, "false", value("start_order_exists"))
	assert.Equal(t, "true", value("owner_includes_consultant"))
	assert.Equal(t, "2.5", value("owner_fee_design_percent"))
	assert.Equal(t, "0", value("owner_fee_supervision_percent"))
	assert.Equal(t, "percent", value("owner_fee_extra_mode"))
	assert.Equal(t, "0", value("bank_fee_extra_value"))

	var exts []models.Extension
	require.NoError(t, json.Unmarshal([]byte(value("extensions")), &exts))
	require.Len(t, exts, 1)
	assert.Equal(t, "design change", exts[0].Reason)

	var atts []map[string]any
	require.NoError(t, json.Unmarshal([]byte(value("attachments")), &atts))
	require.Len(t, atts, 2)
	assert.Equal(t, models.AttachmentTypeMainContract, atts[0]["type"])
	assert.Nil(t, atts[0]["file_url"])
	assert.Equal(t, "/media/a.pdf", atts[1]["file_url"])

	name, ok := form.File("attachments[0][file]")
	require.True(t, ok)
	assert.Equal(t, "signed.pdf", name)
	_, ok = form.File("attachments[1][file]")
	assert.False(t, ok)

	assert.Equal(t, "true", value("contract_file_delete"))
	_, ok = form.File("contract_appendix_file")
	assert.True(t, ok)
	_, ok = form.Value("start_order_date")
	assert.False(t, ok, "empty dates are omitted")
}

func TestContractBuildFormPrivateFunding(t *testing.T) {
	svc := newContractService(newFakeBackend())
	c := housingContract()
	c.ContractClassification = models.ClassificationPrivateFunding

	form, err := svc.BuildForm(c)
	require.NoError(t, err)
	bank, _ := form.Value("total_bank_value")
	owner, _ := form.Value("total_owner_value")
	owners, _ := form.Value("owners")
	assert.Equal(t, "0", bank)
	assert.Equal(t, "1000000", owner)
	assert.Equal(t, "[]", owners)
}

func TestNextAfterSave(t *testing.T) {
	assert.Equal(t, ActionAdvance, NextAfterSave(&models.Contract{ContractClassification: models.ClassificationHousingLoan}))
	assert.Equal(t, ActionExit, NextAfterSave(&models.Contract{ContractClassification: models.ClassificationPrivateFunding}))
}

func TestContractSaveComputesEndDateAndRemembersContractor(t *testing.T) {
	fb := newFakeBackend()
	store := repositories.NewMemorySuggestionRepository()
	bus := wizard.NewBus()
	var kinds []wizard.EventKind
	bus.Subscribe(func(_ context.Context, e wizard.Event) { kinds = append(kinds, e.Kind) })
	svc := NewContractService(fb, store, bus, zerolog.Nop())

	c := housingContract()
	c.HasStartOrder = true
	c.StartOrderDate = "2024-03-01"
	c.Files = map[string]models.FileField{"start_order_file": models.ReplaceFile("so.pdf", []byte("x"))}

	saved, err := svc.Save(context.Background(), 8, c, nil)
	require.NoError(t, err)
	assert.NotZero(t, saved.ID)

	form := fb.form("contract/8")
	require.NotNil(t, form)
	end, _ := form.Value("project_end_date")
	assert.Equal(t, "2025-03-01", end)
	exists, _ := form.Value("start_order_exists")
	assert.Equal(t, "true", exists)

	assert.Equal(t, []wizard.EventKind{wizard.EventContractUpdated}, kinds)
	got, err := store.List(context.Background(), models.SuggestionContractor, "gulf", 0)
	require.NoError(t, err)
	assert.Len(t, got, 1)
}

func TestContractDraftPrefills(t *testing.T) {
	fb := newFakeBackend()
	fb.licenses[4] = &models.License{ID: 1, ContractorName: "Gulf Builders", ContractorLicenseNo: "T-1", ContractorPhone: "050"}
	fb.sitePlans[4] = &models.SitePlan{ID: 2, Owners: []models.Owner{{OwnerName: "علي", IDNumber: "784", SharePercent: 100}}}
	svc := newContractService(fb)
	svc.now = func() time.Time { return time.Date(2026, 10, 14, 9, 0, 0, 0, time.UTC) }

	c, err := svc.Draft(context.Background(), 4)
	require.NoError(t, err)
	assert.Equal(t, "2026-10-14", c.ContractDate)
	assert.Equal(t, "Gulf Builders", c.ContractorName)
	assert.Equal(t, "T-1", c.ContractorTradeLicense)
	require.Len(t, c.Owners, 1)
	assert.Equal(t, "علي", c.Owners[0].OwnerNameAr)
	assert.Equal(t, "784", c.Owners[0].IDNumber)
}

func TestContractDraftKeepsStoredValues(t *testing.T) {
	fb := newFakeBackend()
	fb.contracts[4] = &models.Contract{
		ID:             3,
		ContractDate:   "2024-01-01",
		ContractorName: "Stored Co",
		Owners:         []models.ContractOwner{{OwnerNameAr: "stored"}},
	}
	fb.licenses[4] = &models.License{ID: 1, ContractorName: "Other"}
	svc := newContractService(fb)

	c, err := svc.Draft(context.Background(), 4)
	require.NoError(t, err)
	assert.Equal(t, "Stored Co", c.ContractorName)
	assert.Equal(t, "2024-01-01", c.ContractDate)
	require.Len(t, c.Owners, 1)
	assert.Equal(t, "stored", c.Owners[0].OwnerNameAr)
}
