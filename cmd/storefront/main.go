package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"text/tabwriter"
	"time"

	jsoniter "github.com/json-iterator/go"
	"github.com/silmarabolos/storefront/config"
	"github.com/silmarabolos/storefront/internal/adminapi"
	"github.com/silmarabolos/storefront/internal/app"
	"github.com/silmarabolos/storefront/internal/domain"
	"github.com/silmarabolos/storefront/internal/webserver"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

type rootOptions struct {
	configFile string
}

func main() {
	if err := newRootCommand().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCommand() *cobra.Command {
	opts := &rootOptions{}
	cmd := &cobra.Command{
		Use:          "storefront",
		Short:        "Cake shop catalog with WhatsApp ordering",
		SilenceUsage: true,
	}
	cmd.PersistentFlags().StringVarP(&opts.configFile, "config", "c", "", "config file (yaml)")

	cmd.AddCommand(newServeCommand(opts))
	cmd.AddCommand(newInitdbCommand(opts))
	cmd.AddCommand(newProductsCommand(opts))
	return cmd
}

func loadApp(ctx context.Context, opts *rootOptions) (*app.Application, error) {
	cfg, err := config.LoadConfig(opts.configFile)
	if err != nil {
		return nil, err
	}
	a := app.NewApplication(cfg)
	if err := a.Init(ctx); err != nil {
		return nil, err
	}
	return a, nil
}

func newServeCommand(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the storefront web server",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			a, err := loadApp(ctx, opts)
			if err != nil {
				return err
			}
			defer a.Release()

			adminapi.Init()
			srv := webserver.NewServer(webserver.Options{
				Config:    a.Config(),
				AppCtx:    a,
				JWTSecret: a.Auth().Secret(),
				StaticDir: a.ObjectDir(),
			})

			return runServer(ctx, srv, 10*time.Second)
		},
	}
}

type server interface {
	Start() error
	Shutdown(ctx context.Context) error
}

// runServer serves until ctx is done or Start fails, then shuts down gracefully.
func runServer(ctx context.Context, srv server, grace time.Duration) error {
	g, gctx := errgroup.WithContext(ctx)
	g.Go(srv.Start)
	g.Go(func() error {
		<-gctx.Done()
		zap.L().Info("shutting down", zap.String("namespace", "main"))
		shutdownCtx, cancel := context.WithTimeout(context.Background(), grace)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})
	return g.Wait()
}

func newInitdbCommand(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "initdb",
		Short: "Drop and recreate the remote product table",
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := loadApp(cmd.Context(), opts)
			if err != nil {
				return err
			}
			defer a.Release()
			return a.InitDb()
		},
	}
}

func newProductsCommand(opts *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "products",
		Short: "Inspect the catalog",
	}
	var format string
	list := &cobra.Command{
		Use:   "list",
		Short: "List products through the fallback chain",
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := loadApp(cmd.Context(), opts)
			if err != nil {
				return err
			}
			defer a.Release()

			items, err := a.Catalog().ListProducts(cmd.Context())
			if err != nil {
				return err
			}
			if format == "json" {
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				return enc.Encode(items)
			}
			return writeTable(cmd.OutOrStdout(), items)
		},
	}
	list.Flags().StringVar(&format, "format", "text", "output format (json|text)")
	cmd.AddCommand(list)
	return cmd
}

func writeTable(out io.Writer, items []domain.Product) error {
	w := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tNAME\tCATEGORY\tPRICE")
	for _, p := range items {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", p.ID, p.Name, p.Category, formatPrice(p.Price))
	}
	return w.Flush()
}

// formatPrice renders a price the way the storefront shows it, e.g. "R$ 45,99".
func formatPrice(v float64) string {
	return "R$ " + strings.Replace(strconv.FormatFloat(v, 'f', 2, 64), ".", ",", 1)
}
