package directory

import (
	"fmt"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/harentsoaR/medadmin-api/internal/models"
)

func names(accounts []models.Account) []string {
	out := []string{}
	for _, a := range accounts {
		out = append(out, a.Name)
	}
	return out
}

func TestFilter(t *testing.T) {
	accounts := []models.Account{
		{Name: "Ana", Email: "a@x.com", Role: models.RoleDoctor},
		{Name: "Luis", Email: "l@x.com", Role: models.RolePatient},
		{Name: "Mariana", Email: "m@x.com", Role: models.RolePatient},
		{Name: "Pedro", Email: "ANA.p@x.com", Role: models.RoleAdmin},
	}

	tests := []struct {
		name     string
		criteria Criteria
		want     []string
	}{
		{"no criteria", Criteria{}, []string{"Ana", "Luis", "Mariana", "Pedro"}},
		{"search is case-insensitive on name and email", Criteria{Search: "ana"}, []string{"Ana", "Mariana", "Pedro"}},
		{"role all", Criteria{Role: RoleAll}, []string{"Ana", "Luis", "Mariana", "Pedro"}},
		{"role only", Criteria{Role: "patient"}, []string{"Luis", "Mariana"}},
		{"search and role combine with AND", Criteria{Search: "ana", Role: "patient"}, []string{"Mariana"}},
		{"no match", Criteria{Search: "zzz"}, []string{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, names(Filter(accounts, tt.criteria)))
		})
	}
}

func TestFilter_TwoRecordScenario(t *testing.T) {
	accounts := []models.Account{
		{Name: "Ana", Email: "a@x.com"},
		{Name: "Luis", Email: "l@x.com"},
	}
	assert.Equal(t, []string{"Ana"}, names(Filter(accounts, Criteria{Search: "ana"})))
}

func TestPaginate(t *testing.T) {
	items := make([]models.Account, 23)
	for i := range items {
		items[i].Name = fmt.Sprintf("u%02d", i)
	}

	p := Paginate(items, 0, 0)
	assert.Equal(t, DefaultRowsPerPage, p.RowsPerPage)
	assert.Len(t, p.Items, 10)
	assert.Equal(t, 23, p.Total)

	p = Paginate(items, 2, 10)
	assert.Equal(t, []string{"u20", "u21", "u22"}, names(p.Items))

	p = Paginate(items, 1, 25)
	assert.Empty(t, p.Items)
	assert.Equal(t, 1, p.Page)

	p = Paginate(items, 1, 7)
	assert.Equal(t, DefaultRowsPerPage, p.RowsPerPage, "unsupported size falls back to default")

	p = Paginate(items, -3, 5)
	assert.Equal(t, 0, p.Page)
	assert.Len(t, p.Items, 5)
}

func TestPaginate_HugePageIsEmpty(t *testing.T) {
	items := []models.Account{{ID: "a"}, {ID: "b"}}

	for _, page := range []int{math.MaxInt / 5, math.MaxInt} {
		p := Paginate(items, page, 10)
		assert.Empty(t, p.Items)
		assert.Equal(t, 2, p.Total)
		assert.Equal(t, page, p.Page)
	}
}
