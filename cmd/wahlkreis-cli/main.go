// 运维命令行：离线执行选区定位、地理编码、话题分类与推荐，并维护数据库结构与目录
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"wahlkreis-api/internal/app"
	"wahlkreis-api/internal/catalog"
	"wahlkreis-api/internal/config"
	"wahlkreis-api/internal/logger"
	"wahlkreis-api/internal/migrate"
	"wahlkreis-api/internal/resolve"
	"wahlkreis-api/internal/topic"
	"wahlkreis-api/internal/utils"
)

func main() {
	_ = godotenv.Load(".env")
	_ = godotenv.Load(filepath.Join("data", "env", ".env"))
	logger.Setup()
	if err := newRoot(os.Stdout).Execute(); err != nil {
		os.Exit(1)
	}
}

func newRoot(out io.Writer) *cobra.Command {
	root := &cobra.Command{
		Use:           "wahlkreis-cli",
		Short:         "Operator tools for the wahlkreis API",
		SilenceUsage:  true,
		SilenceErrors: false,
	}
	root.SetOut(out)
	root.AddCommand(
		locateCmd(),
		geocodeCmd(),
		classifyCmd(),
		suggestCmd(),
		schemaCmd(),
		catalogImportCmd(),
	)
	return root
}

func build(cmd *cobra.Command) (*app.App, error) {
	return app.Build(cmd.Context(), config.FromEnv())
}

func printJSON(cmd *cobra.Command, v any) error {
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func locateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "locate <lat> <lon>",
		Short: "Point-in-polygon lookup against the loaded boundaries",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			lat, err := strconv.ParseFloat(args[0], 64)
			if err != nil {
				return fmt.Errorf("lat: %w", err)
			}
			lon, err := strconv.ParseFloat(args[1], 64)
			if err != nil {
				return fmt.Errorf("lon: %w", err)
			}
			a, err := build(cmd)
			if err != nil {
				return err
			}
			defer a.Close()
			loc := a.Index.Locate(lat, lon)
			return printJSON(cmd, map[string]any{"location": loc, "resolution": a.Resolver.Lookup(cmd.Context(), loc)})
		},
	}
}

func geocodeCmd() *cobra.Command {
	var country string
	c := &cobra.Command{
		Use:   "geocode <address>",
		Short: "Geocode an address through the cache chain and throttle",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := build(cmd)
			if err != nil {
				return err
			}
			defer a.Close()
			return printJSON(cmd, a.Geocoder.Geocode(cmd.Context(), strings.Join(args, " "), country))
		},
	}
	c.Flags().StringVar(&country, "country", "de", "ISO country code")
	return c
}

func classifyCmd() *cobra.Command {
	var taxonomyPath string
	c := &cobra.Command{
		Use:   "classify <text>",
		Short: "Classify a concern into topics and a government level",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			tx, err := loadTaxonomy(taxonomyPath)
			if err != nil {
				return err
			}
			return printJSON(cmd, topic.NewClassifier(tx).Classify(strings.Join(args, " ")))
		},
	}
	c.Flags().StringVar(&taxonomyPath, "taxonomy", os.Getenv("TAXONOMY_PATH"), "taxonomy YAML (default: embedded)")
	return c
}

func loadTaxonomy(path string) (*topic.Taxonomy, error) {
	if path == "" {
		return topic.DefaultTaxonomy()
	}
	return topic.LoadTaxonomy(path)
}

func suggestCmd() *cobra.Command {
	var addr resolve.Address
	c := &cobra.Command{
		Use:   "suggest <concern>",
		Short: "Recommend representatives for a concern and optional address",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := build(cmd)
			if err != nil {
				return err
			}
			defer a.Close()
			var ap *resolve.Address
			if !addr.Empty() {
				ap = &addr
			}
			s, err := a.Engine.Suggest(cmd.Context(), strings.Join(args, " "), ap)
			if err != nil {
				return err
			}
			return printJSON(cmd, s)
		},
	}
	f := c.Flags()
	f.StringVar(&addr.Line, "line", "", "free-form address line")
	f.StringVar(&addr.Street, "street", "", "street and house number")
	f.StringVar(&addr.PostalCode, "postal-code", "", "five-digit postal code")
	f.StringVar(&addr.City, "city", "", "city")
	f.StringVar(&addr.Country, "country", "", "country (default Germany)")
	return c
}

func schemaCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "schema",
		Short: "Create the Postgres tables if they do not exist",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			db, err := utils.OpenPostgresFromEnv(cmd.Context())
			if err != nil {
				return err
			}
			defer db.Close()
			if err := migrate.EnsureSchema(cmd.Context(), utils.Raw(db)); err != nil {
				return err
			}
			cmd.Println("schema ok")
			return nil
		},
	}
}

func catalogImportCmd() *cobra.Command {
	var path string
	c := &cobra.Command{
		Use:   "catalog-import",
		Short: "Upsert a YAML catalog fixture into Postgres",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			m, err := catalog.LoadFixture(path)
			if err != nil {
				return err
			}
			return importCatalog(cmd.Context(), cmd, m)
		},
	}
	c.Flags().StringVar(&path, "fixture", filepath.Join("data", "catalog.yaml"), "catalog YAML")
	return c
}

func importCatalog(ctx context.Context, cmd *cobra.Command, m *catalog.MemoryStore) error {
	db, err := utils.OpenPostgresFromEnv(ctx)
	if err != nil {
		return err
	}
	defer db.Close()
	if err := migrate.EnsureSchema(ctx, utils.Raw(db)); err != nil {
		return err
	}
	st, err := catalog.NewPostgresStore(db).Import(ctx, m)
	if err != nil {
		return err
	}
	return printJSON(cmd, st)
}
