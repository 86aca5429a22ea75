package entry

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"controle/internal/core"
)

func TestDraftBuild(t *testing.T) {
	t.Run("income", func(t *testing.T) {
		m, err := Draft{Kind: "income", Amount: "1000", Date: "2024-12-01", Description: "Salário"}.Build("u1")
		require.NoError(t, err)
		assert.Equal(t, "u1", m.OwnerID)
		assert.Equal(t, core.KindIncome, m.Kind)
		assert.Equal(t, int64(100000), m.Amount.Cents)
		assert.Equal(t, "2024-12-01", m.Date.String())
		assert.Empty(t, m.Status)
		assert.Nil(t, m.Months)
	})

	t.Run("variable expense without status is paid", func(t *testing.T) {
		m, err := Draft{Kind: "expense", Amount: "45,90", Date: "2024-12-03", Description: "Mercado", ExpenseKind: "variable"}.Build("u1")
		require.NoError(t, err)
		assert.Equal(t, core.StatusPaid, m.Status)
		assert.Nil(t, m.Months)
	})

	t.Run("fixed expense defaults", func(t *testing.T) {
		m, err := Draft{Kind: "expense", Amount: "300", Date: "2024-12-02", Description: "Conta de Luz", ExpenseKind: "fixed"}.Build("u1")
		require.NoError(t, err)
		assert.Equal(t, core.StatusPending, m.Status)
		assert.Equal(t, core.Months{core.MonthIndex(2024, 12)}, m.Months)
	})

	t.Run("fixed expense with months and paid", func(t *testing.T) {
		m, err := Draft{Kind: "expense", Amount: "300", Date: "2024-12-02", Description: "Aluguel", ExpenseKind: "fixed", Status: "paid", Months: "6"}.Build("u1")
		require.NoError(t, err)
		assert.Equal(t, core.StatusPaid, m.Status)
		assert.Equal(t, "12/2024 a 05/2025", m.Months.Label())
	})

	missing := []Draft{
		{Kind: "income", Amount: "", Date: "2024-12-01", Description: "x"},
		{Kind: "income", Amount: "10", Date: "", Description: "x"},
		{Kind: "income", Amount: "10", Date: "2024-12-01", Description: "   "},
		{Kind: "expense", Amount: "10", Date: "2024-12-01", Description: "x"},
	}
	for _, d := range missing {
		_, err := d.Build("u1")
		assert.ErrorIs(t, err, ErrMissingFields, "%+v", d)
	}

	_, err := Draft{Kind: "income", Amount: "abc", Date: "2024-12-01", Description: "x"}.Build("u1")
	assert.ErrorIs(t, err, core.ErrInvalidAmount)

	_, err = Draft{Kind: "income", Amount: "10", Date: "2024-12-01", Description: "x"}.Build("")
	assert.ErrorIs(t, err, core.ErrMissingOwner)
}

func TestParseMonthCount(t *testing.T) {
	assert.Equal(t, 1, ParseMonthCount(""))
	assert.Equal(t, 1, ParseMonthCount("-2"))
	assert.Equal(t, 12, ParseMonthCount(" 12 "))
	assert.Equal(t, core.MaxMonthSpan, ParseMonthCount("5000"))
}
