// Package directory filters and pages account lists for the listing views.
package directory

import (
	"slices"
	"strings"

	"github.com/harentsoaR/medadmin-api/internal/models"
)

const (
	RoleAll            = "all"
	DefaultRowsPerPage = 10
)

var RowsPerPageOptions = []int{5, 10, 25, 50}

// Criteria narrows a listing. Search matches name or email case-insensitively;
// an empty or "all" Role matches every role. Both apply together.
type Criteria struct {
	Search string `form:"search" json:"search"`
	Role   string `form:"role" json:"role"`
}

func Filter(accounts []models.Account, c Criteria) []models.Account {
	term := strings.ToLower(strings.TrimSpace(c.Search))
	role := strings.TrimSpace(c.Role)

	out := make([]models.Account, 0, len(accounts))
	for _, a := range accounts {
		if term != "" &&
			!strings.Contains(strings.ToLower(a.Name), term) &&
			!strings.Contains(strings.ToLower(a.Email), term) {
			continue
		}
		if role != "" && role != RoleAll && string(a.Role) != role {
			continue
		}
		out = append(out, a)
	}
	return out
}

type Page struct {
	Items       []models.Account `json:"items"`
	Total       int              `json:"total"`
	Page        int              `json:"page"`
	RowsPerPage int              `json:"rowsPerPage"`
}

// NormalizeRowsPerPage returns n when it is an offered option, otherwise the
// default.
func NormalizeRowsPerPage(n int) int {
	if slices.Contains(RowsPerPageOptions, n) {
		return n
	}
	return DefaultRowsPerPage
}

// Paginate returns the zero-based page of items. A page past the end is empty.
func Paginate(items []models.Account, page, rowsPerPage int) Page {
	rowsPerPage = NormalizeRowsPerPage(rowsPerPage)
	if page < 0 {
		page = 0
	}
	p := Page{Items: []models.Account{}, Total: len(items), Page: page, RowsPerPage: rowsPerPage}

	if page >= (len(items)+rowsPerPage-1)/rowsPerPage {
		return p
	}
	start := page * rowsPerPage
	end := min(start+rowsPerPage, len(items))
	p.Items = items[start:end]
	return p
}
