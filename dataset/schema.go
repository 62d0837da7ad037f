// Package dataset loads the IBM HR attrition table into a typed frame and
// provides the row-level operations the analysis needs: cleaning, stratified
// splitting, feature engineering, descriptive statistics and the mixed-type
// Gower distance.
package dataset

// Target and identifier columns.
const (
	// TargetColumn is the binary attrition label, recoded Yes/No to 1/0.
	TargetColumn = "Attrition"

	// IDColumn identifies the employee; it is kept for row identity but
	// excluded from every model.
	IDColumn = "EmployeeNumber"

	// ExpectedRows is the row count of the canonical IBM HR table.
	ExpectedRows = 1470
)

// RawColumns is the expected CSV schema, in file order.
var RawColumns = []string{
	"Age",
	"Attrition",
	"BusinessTravel",
	"DailyRate",
	"Department",
	"DistanceFromHome",
	"Education",
	"EducationField",
	"EmployeeCount",
	"EmployeeNumber",
	"EnvironmentSatisfaction",
	"Gender",
	"HourlyRate",
	"JobInvolvement",
	"JobLevel",
	"JobRole",
	"JobSatisfaction",
	"MaritalStatus",
	"MonthlyIncome",
	"MonthlyRate",
	"NumCompaniesWorked",
	"Over18",
	"OverTime",
	"PercentSalaryHike",
	"PerformanceRating",
	"RelationshipSatisfaction",
	"StandardHours",
	"StockOptionLevel",
	"TotalWorkingYears",
	"TrainingTimesLastYear",
	"WorkLifeBalance",
	"YearsAtCompany",
	"YearsInCurrentRole",
	"YearsSinceLastPromotion",
	"YearsWithCurrManager",
}

// ConstantColumns carry a single value for every employee and are dropped by
// Clean.
var ConstantColumns = []string{"EmployeeCount", "StandardHours", "Over18"}

// CategoricalColumns are the string-valued columns after cleaning.
var CategoricalColumns = []string{
	"BusinessTravel",
	"Department",
	"EducationField",
	"Gender",
	"JobRole",
	"MaritalStatus",
	"OverTime",
}

// NumericColumns are the numeric and ordinal columns after cleaning, the
// identifier and target excluded.
var NumericColumns = []string{
	"Age",
	"DailyRate",
	"DistanceFromHome",
	"Education",
	"EnvironmentSatisfaction",
	"HourlyRate",
	"JobInvolvement",
	"JobLevel",
	"JobSatisfaction",
	"MonthlyIncome",
	"MonthlyRate",
	"NumCompaniesWorked",
	"PercentSalaryHike",
	"PerformanceRating",
	"RelationshipSatisfaction",
	"StockOptionLevel",
	"TotalWorkingYears",
	"TrainingTimesLastYear",
	"WorkLifeBalance",
	"YearsAtCompany",
	"YearsInCurrentRole",
	"YearsSinceLastPromotion",
	"YearsWithCurrManager",
}

// SatisfactionColumns are averaged into the engineered composite score.
var SatisfactionColumns = []string{
	"EnvironmentSatisfaction",
	"JobInvolvement",
	"JobSatisfaction",
	"RelationshipSatisfaction",
}

// NoisyColumns are dropped by Engineer: the three rate columns carry no
// signal beyond MonthlyIncome, and PerformanceRating is nearly constant.
var NoisyColumns = []string{"HourlyRate", "DailyRate", "MonthlyRate", "PerformanceRating"}

// ScoreColumn is the engineered composite satisfaction score.
const ScoreColumn = "SatisfactionScore"
