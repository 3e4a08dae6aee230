package main

import (
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/spf13/cobra"

	"pokegate/internal/platform/logger"
	"pokegate/internal/pokemon/gateway/pokeapi"
	"pokegate/internal/pokemon/handler"
	"pokegate/internal/pokemon/models"
	"pokegate/internal/pokemon/service"
	"pokegate/internal/pokemon/store"
	dErrors "pokegate/pkg/domain-errors"
)

type lookupOptions struct {
	baseURL string
	timeout time.Duration
	compact bool
	verbose bool
}

func newLookupCmd() *cobra.Command {
	var opts lookupOptions

	cmd := &cobra.Command{
		Use:   "lookup <name>...",
		Short: "Look up one or more pokemon by exact name",
		Long: "Fetches each pokemon and its abilities from PokeAPI and prints the normalized JSON.\n" +
			"Names are used verbatim. Repeated names are answered from an in-memory cache.",
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runLookup(cmd, args, opts)
		},
	}

	cmd.Flags().StringVar(&opts.baseURL, "base-url", pokeapi.DefaultBaseURL, "PokeAPI base URL")
	cmd.Flags().DurationVar(&opts.timeout, "timeout", pokeapi.DefaultTimeout, "Per-request timeout")
	cmd.Flags().BoolVar(&opts.compact, "compact", false, "Print one JSON document per line")
	cmd.Flags().BoolVarP(&opts.verbose, "verbose", "v", false, "Log lookups to stderr")

	return cmd
}

func runLookup(cmd *cobra.Command, names []string, opts lookupOptions) error {
	log := slog.New(slog.DiscardHandler)
	if opts.verbose {
		log = logger.NewWithWriter(cmd.ErrOrStderr(), "debug", "text")
	}

	client := pokeapi.New(opts.baseURL,
		pokeapi.WithTimeout(opts.timeout),
		pokeapi.WithLogger(log),
	)
	svc, err := service.New(client,
		service.WithCache(store.NewInMemoryCache(time.Hour)),
		service.WithLogger(log),
	)
	if err != nil {
		return fmt.Errorf("building lookup service: %w", err)
	}

	for _, raw := range names {
		name, err := models.ParseName(raw)
		if err != nil {
			return err
		}
		pokemon, err := svc.Lookup(cmd.Context(), name)
		if err != nil {
			return fmt.Errorf("%s: %s", raw, describe(err))
		}
		if err := writePokemon(cmd.OutOrStdout(), pokemon, opts.compact); err != nil {
			return err
		}
	}
	return nil
}

func writePokemon(w io.Writer, pokemon *models.Pokemon, compact bool) error {
	enc := json.NewEncoder(w)
	if !compact {
		enc.SetIndent("", "  ")
	}
	if err := enc.Encode(handler.FromPokemon(pokemon)); err != nil {
		return fmt.Errorf("writing output: %w", err)
	}
	return nil
}

// describe prefers the domain message and keeps the cause for upstream failures.
func describe(err error) string {
	switch dErrors.CodeOf(err) {
	case dErrors.CodeNotFound, dErrors.CodeValidation:
		return dErrors.MessageOf(err)
	default:
		return err.Error()
	}
}
