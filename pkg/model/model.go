// Package model defines the catalog entities handed out by the SDK.
package model

// MovieID identifies a movie.
type MovieID = string

// QuoteID identifies a quote.
type QuoteID = string

// CharacterID identifies a character referenced by quotes.
type CharacterID = string

// Movie is a catalog entry. Identity is by ID; once fetched it is treated as immutable.
type Movie struct {
	ID                         MovieID `json:"id"`
	Name                       string  `json:"name"`
	RuntimeInMinutes           float64 `json:"runtimeInMinutes"`
	BudgetInMillions           float64 `json:"budgetInMillions"`
	BoxOfficeRevenueInMillions float64 `json:"boxOfficeRevenueInMillions"`
	AcademyAwardNominations    int     `json:"academyAwardNominations"`
	AcademyAwardWins           int     `json:"academyAwardWins"`
	RottenTomatoesScore        float64 `json:"rottenTomatoesScore"`
}

// Quote is a line of dialog owned by exactly one movie.
// Character holds the resolved character name, CharacterID the raw reference.
type Quote struct {
	ID          QuoteID     `json:"id"`
	MovieID     MovieID     `json:"movieId"`
	Dialog      string      `json:"dialog"`
	CharacterID CharacterID `json:"characterId"`
	Character   string      `json:"character"`
}
