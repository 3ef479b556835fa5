package country

import (
	"github.com/shopspring/decimal"

	"github.com/kethan23/build-buddy-app-766-sub000/internal/model"
)

// Defaults is the starter registry loaded by `visactl countries seed`.
func Defaults() []model.CountryRequirementRequest {
	common := []string{model.DocPassport, model.DocPassportPhoto, model.DocMedicalReports, model.DocHospitalInvitation}
	withFinance := append(append([]string{}, common...), model.DocFinancialProof)

	return []model.CountryRequirementRequest{
		{CountryCode: "US", CountryName: "United States", VisaType: "medical", RequiredDocuments: []string{model.DocPassport, model.DocPassportPhoto, model.DocMedicalReports}, ProcessingDays: 5, ValidityDays: 60, ExtensionAllowed: true, Fee: decimal.NewFromInt(80)},
		{CountryCode: "GB", CountryName: "United Kingdom", VisaType: "medical", RequiredDocuments: common, ProcessingDays: 5, ValidityDays: 60, ExtensionAllowed: true, Fee: decimal.NewFromInt(80)},
		{CountryCode: "BD", CountryName: "Bangladesh", VisaType: "medical", RequiredDocuments: withFinance, ProcessingDays: 7, ValidityDays: 90, ExtensionAllowed: true, Fee: decimal.NewFromInt(25)},
		{CountryCode: "NG", CountryName: "Nigeria", VisaType: "medical", RequiredDocuments: append(append([]string{}, withFinance...), model.DocBankStatement, model.DocPoliceClearance), ProcessingDays: 10, ValidityDays: 60, Fee: decimal.RequireFromString("100.50")},
		{CountryCode: "AE", CountryName: "United Arab Emirates", VisaType: "medical", RequiredDocuments: append(append([]string{}, common...), model.DocTravelInsurance), ProcessingDays: 4, ValidityDays: 60, ExtensionAllowed: true, Fee: decimal.NewFromInt(40)},
	}
}
