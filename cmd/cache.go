package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/papapumpkin/starmap/internal/cache"
	"github.com/papapumpkin/starmap/internal/catalog"
	"github.com/papapumpkin/starmap/internal/config"
)

var cacheCmd = &cobra.Command{
	Use:   "cache",
	Short: "Manage the local star cache",
	Long: `The star cache stores decoded stars in a local SQLite database so a
large catalog is parsed once and later renders query it by sky window
("starmap render --from-cache").`,
}

var cacheBuildCmd = &cobra.Command{
	Use:   "build [FILE]",
	Short: "Parse the catalog and (re)build the star cache",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runCacheBuild,
}

var cacheInfoCmd = &cobra.Command{
	Use:   "info",
	Short: "Show what the star cache currently holds",
	Args:  cobra.NoArgs,
	RunE:  runCacheInfo,
}

func init() {
	cacheCmd.AddCommand(cacheBuildCmd)
	cacheCmd.AddCommand(cacheInfoCmd)
	rootCmd.AddCommand(cacheCmd)
}

func runCacheBuild(cmd *cobra.Command, args []string) error {
	cfg := config.Load()
	source := cfg.Catalog
	if len(args) > 0 {
		source = args[0]
	}

	res, err := catalog.Load(source)
	if err != nil {
		return err
	}
	if res.Skips.Total > 0 {
		fmt.Fprintf(cmd.ErrOrStderr(), "Skipped %d rows while parsing %s\n", res.Skips.Total, source)
	}

	store, err := cache.Open(cmd.Context(), cfg.CachePath)
	if err != nil {
		return err
	}
	defer store.Close()

	if err := store.Replace(cmd.Context(), source, res.Stars); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Cached %d stars from %s in %s\n", len(res.Stars), source, cfg.CachePath)
	return nil
}

func runCacheInfo(cmd *cobra.Command, _ []string) error {
	cfg := config.Load()

	store, err := cache.Open(cmd.Context(), cfg.CachePath)
	if err != nil {
		return err
	}
	defer store.Close()

	info, err := store.Info(cmd.Context())
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Cache:  %s\n", cfg.CachePath)
	fmt.Fprintf(out, "Source: %s\n", info.Source)
	fmt.Fprintf(out, "Built:  %s\n", info.BuiltAt.Format("2006-01-02 15:04:05 MST"))
	fmt.Fprintf(out, "Stars:  %d\n", info.Count)
	return nil
}
