package schema

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSearchText(t *testing.T) {
	col := Column{
		Description:   "Overall transaction risk score",
		BusinessTerms: []string{"risk score", "txn risk"},
	}

	text := SearchText("Overall_Tran_Risk_Score", col)
	assert.Equal(t, "overall_tran_risk_score overall transaction risk score risk score txn risk", text)
	assert.Contains(t, text, "risk score")
}

func TestSortedNames(t *testing.T) {
	sch := Schema{
		"b_table": {Columns: map[string]Column{"z": {}, "a": {}, "m": {}}},
		"a_table": {Columns: map[string]Column{}},
	}

	assert.Equal(t, []string{"a_table", "b_table"}, sch.TableNames())
	assert.Equal(t, []string{"a", "m", "z"}, sch["b_table"].ColumnNames())
}

func TestHumanize(t *testing.T) {
	assert.Equal(t, "Overall Tran Risk Score", Humanize("Overall_Tran_Risk_Score"))
	assert.Equal(t, "Ml Risk Score", Humanize("ML_Risk_Score"))
	assert.Equal(t, "Amount", Humanize("amount"))
	assert.Equal(t, "", Humanize(""))
}

func TestColumnRefString(t *testing.T) {
	ref := ColumnRef{Table: "Payments", Column: "Amount"}
	assert.Equal(t, "Payments.Amount", ref.String())
}
