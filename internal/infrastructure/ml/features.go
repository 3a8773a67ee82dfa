package ml

import "math"

// Features is the canonical feature row handed to any downstream classifier.
// Field names, order and types are part of the model contract.
type Features struct {
	Amount              float64 `json:"Amount"`
	UserMeanAmount      float64 `json:"User_Mean_Amount"`
	UserStdAmount       float64 `json:"User_Std_Amount"`
	TimeSinceLastTxnSec float64 `json:"Time_Since_Last_TXN_Sec"`
	TimeSinceLastTxnHrs float64 `json:"Time_Since_Last_TXN_Hrs"`
	AmountZScore        float64 `json:"Amount_Z_Score"`
	GeoVelocityCheck    float64 `json:"Geo_Velocity_Check"`
	TxnCount30Min       int     `json:"Txn_Count_30_Min"`
	CategoryUsageScore  float64 `json:"Category_Usage_Score"`

	// Categorical
	Location string `json:"Location"`
	Category string `json:"Category"`
}

// NumericFeatureNames lists the numeric columns in row order
var NumericFeatureNames = []string{
	"Amount",
	"User_Mean_Amount",
	"User_Std_Amount",
	"Time_Since_Last_TXN_Sec",
	"Time_Since_Last_TXN_Hrs",
	"Amount_Z_Score",
	"Geo_Velocity_Check",
	"Txn_Count_30_Min",
	"Category_Usage_Score",
}

// CategoricalFeatureNames lists the categorical columns in row order
var CategoricalFeatureNames = []string{"Location", "Category"}

// FeatureNames returns every column name, numeric first
func FeatureNames() []string {
	names := make([]string, 0, len(NumericFeatureNames)+len(CategoricalFeatureNames))
	names = append(names, NumericFeatureNames...)
	return append(names, CategoricalFeatureNames...)
}

// ToVector converts the numeric features to a float slice for model input
func (f *Features) ToVector() []float64 {
	return []float64{
		f.Amount,
		f.UserMeanAmount,
		f.UserStdAmount,
		f.TimeSinceLastTxnSec,
		f.TimeSinceLastTxnHrs,
		f.AmountZScore,
		f.GeoVelocityCheck,
		float64(f.TxnCount30Min),
		f.CategoryUsageScore,
	}
}

// Categorical returns the categorical features in row order
func (f *Features) Categorical() []string {
	return []string{f.Location, f.Category}
}

// finite replaces NaN and infinities with 0 so every row stays defined
func finite(v float64) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0
	}
	return v
}
