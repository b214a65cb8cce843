package api

import (
	"github.com/Sternrassler/oneapi-client/pkg/model"
)

// DefaultLimit is the page size used when ListOptions.Limit is not set.
const DefaultLimit = 10

// Page is one bounded slice of a larger result set.
type Page[T any] struct {
	Docs   []T `json:"docs"`
	Total  int `json:"total"`
	Limit  int `json:"limit"`
	Offset int `json:"offset"`
	Page   int `json:"page"`
	Pages  int `json:"pages"`
}

// ListOptions controls paging and ordering of a list request.
type ListOptions struct {
	Offset int
	// Limit defaults to DefaultLimit when zero.
	Limit int
	// Sort names the field to order by; empty means server order.
	Sort           string
	SortDescending bool
}

// pageQuery is the wire form of ListOptions, encoded with go-querystring.
type pageQuery struct {
	Offset int    `url:"offset"`
	Limit  int    `url:"limit"`
	Sort   string `url:"sort,omitempty"`
}

func (o ListOptions) query() pageQuery {
	q := pageQuery{Offset: o.Offset, Limit: o.Limit}
	if q.Limit <= 0 {
		q.Limit = DefaultLimit
	}
	if o.Sort != "" {
		dir := "asc"
		if o.SortDescending {
			dir = "desc"
		}
		q.Sort = o.Sort + ":" + dir
	}
	return q
}

// Movie is a movie record as returned by the API.
type Movie struct {
	ID                         string  `json:"_id"`
	Name                       string  `json:"name"`
	RuntimeInMinutes           float64 `json:"runtimeInMinutes"`
	BudgetInMillions           float64 `json:"budgetInMillions"`
	BoxOfficeRevenueInMillions float64 `json:"boxOfficeRevenueInMillions"`
	AcademyAwardNominations    int     `json:"academyAwardNominations"`
	AcademyAwardWins           int     `json:"academyAwardWins"`
	RottenTomatoesScore        float64 `json:"rottenTomatoesScore"`
}

// Model converts the wire record to the SDK entity.
func (m Movie) Model() model.Movie {
	return model.Movie{
		ID:                         m.ID,
		Name:                       m.Name,
		RuntimeInMinutes:           m.RuntimeInMinutes,
		BudgetInMillions:           m.BudgetInMillions,
		BoxOfficeRevenueInMillions: m.BoxOfficeRevenueInMillions,
		AcademyAwardNominations:    m.AcademyAwardNominations,
		AcademyAwardWins:           m.AcademyAwardWins,
		RottenTomatoesScore:        m.RottenTomatoesScore,
	}
}

// Quote is a quote record as returned by the API. Character is a raw character id.
type Quote struct {
	ID        string `json:"_id"`
	Dialog    string `json:"dialog"`
	Movie     string `json:"movie"`
	Character string `json:"character"`
}

// character is the only field of a character record the SDK reads.
type character struct {
	Name string `json:"name"`
}
