package cli

import (
	"fmt"
	"slices"
	"strings"

	"github.com/spf13/cobra"

	"github.com/Sternrassler/oneapi-client/internal/filter"
	"github.com/Sternrassler/oneapi-client/pkg/catalog"
)

func (a *app) moviesCommand() *cobra.Command {
	var filterExpr string

	cmd := &cobra.Command{
		Use:   "movies",
		Short: "List the names of all movies",
		Example: `  oneapi movies
  oneapi movies --filter 'AcademyAwardWins > 0'
  oneapi movies --filter 'Name contains "Towers"'`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			var f *filter.MovieFilter
			if filterExpr != "" {
				var err error
				if f, err = filter.Compile(filterExpr); err != nil {
					return err
				}
			}

			c, closeFn, err := openCatalog(cmd.Context(), a.cfg)
			if err != nil {
				return err
			}
			defer closeFn()

			movies, err := c.AllMovies(cmd.Context())
			if err != nil {
				return err
			}

			matched, err := filter.Apply(f, movies)
			if err != nil {
				return err
			}
			for _, m := range matched {
				fmt.Fprintln(cmd.OutOrStdout(), m.Name)
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&filterExpr, "filter", "f", "", "expr filter over movie fields")
	return cmd
}

func (a *app) movieCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "movie ID",
		Short: "Show one movie",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, closeFn, err := openCatalog(cmd.Context(), a.cfg)
			if err != nil {
				return err
			}
			defer closeFn()

			m, err := c.Movie(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			printMovie(cmd, m)
			return nil
		},
	}
}

func (a *app) quotesCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "quotes MOVIE_ID",
		Short: "List every quote of a movie with its character",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, closeFn, err := openCatalog(cmd.Context(), a.cfg)
			if err != nil {
				return err
			}
			defer closeFn()

			quotes, err := c.MovieQuotes(cmd.Context(), args[0])
			if err != nil {
				return err
			}

			sorted := make([]catalog.Quote, 0, len(quotes))
			for _, q := range quotes {
				sorted = append(sorted, q)
			}
			slices.SortFunc(sorted, func(x, y catalog.Quote) int { return strings.Compare(x.ID, y.ID) })

			for _, q := range sorted {
				fmt.Fprintf(cmd.OutOrStdout(), "%s: %s\n", q.Character, strings.TrimSpace(q.Dialog))
			}
			a.logger.Debug().Int("quotes", len(sorted)).Msg("Quotes listed")
			return nil
		},
	}
}

func (a *app) characterCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "character ID",
		Short: "Resolve a character id to its name",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, closeFn, err := openCatalog(cmd.Context(), a.cfg)
			if err != nil {
				return err
			}
			defer closeFn()

			name, err := c.CharacterName(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), name)
			return nil
		},
	}
}

func printMovie(cmd *cobra.Command, m catalog.Movie) {
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "%s (%s)\n", m.Name, m.ID)
	fmt.Fprintf(out, "  Runtime:      %g min\n", m.RuntimeInMinutes)
	fmt.Fprintf(out, "  Budget:       $%gM\n", m.BudgetInMillions)
	fmt.Fprintf(out, "  Box office:   $%gM\n", m.BoxOfficeRevenueInMillions)
	fmt.Fprintf(out, "  Academy:      %d wins / %d nominations\n", m.AcademyAwardWins, m.AcademyAwardNominations)
	fmt.Fprintf(out, "  Tomatometer:  %g%%\n", m.RottenTomatoesScore)
}
