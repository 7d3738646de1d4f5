package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/urfave/cli/v2"

	"github.com/vijaylaxmi/flourmill/internal/billing"
	"github.com/vijaylaxmi/flourmill/internal/console"
	"github.com/vijaylaxmi/flourmill/internal/core"
	"github.com/vijaylaxmi/flourmill/internal/export"
	"github.com/vijaylaxmi/flourmill/internal/notify"
	"github.com/vijaylaxmi/flourmill/internal/repo"
	"github.com/vijaylaxmi/flourmill/internal/voice"
	"github.com/vijaylaxmi/flourmill/internal/web"
	logx "github.com/vijaylaxmi/flourmill/pkg/logger"
)

// runtime is the state shared by all commands once flags and env are read.
type runtime struct {
	cfg AppConfig
}

func newApp() *cli.App {
	rt := &runtime{}

	return &cli.App{
		Name:  "flourmill",
		Usage: "billing counter for a flour mill",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "env-file", Value: ".env", Usage: "dotenv file to load"},
			&cli.StringFlag{Name: "catalog-source", Usage: "price list source: builtin, file or redis"},
			&cli.StringFlag{Name: "catalog-file", Usage: "YAML price list for the file source"},
			&cli.StringFlag{Name: "record-file", Usage: "CSV file bills are appended to"},
		},
		Before: func(c *cli.Context) error {
			cfg, err := loadConfig(c.String("env-file"))
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}
			if c.IsSet("catalog-source") {
				cfg.Catalog.Source = c.String("catalog-source")
			}
			if c.IsSet("catalog-file") {
				cfg.Catalog.File = c.String("catalog-file")
			}
			if c.IsSet("record-file") {
				cfg.Records.File = c.String("record-file")
			}
			logx.Init(logx.LoggerOpts{Environment: core.ParseEnvironment(cfg.Env)})
			rt.cfg = cfg
			return nil
		},
		Commands: []*cli.Command{
			{
				Name:  "bill",
				Usage: "bill customers at the console",
				Flags: []cli.Flag{
					&cli.BoolFlag{Name: "voice", Usage: "accept spoken names and orders (needs GEMINI_API_KEY)"},
					&cli.BoolFlag{Name: "no-pdf", Usage: "do not save bills as PDF"},
				},
				Action: rt.billAction,
			},
			{
				Name:  "serve",
				Usage: "serve the billing form over HTTP",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "addr", Usage: "listen address (default WEB_ADDR)"},
				},
				Action: rt.serveAction,
			},
			{
				Name:  "catalog",
				Usage: "inspect or publish the price list",
				Subcommands: []*cli.Command{
					{
						Name:  "list",
						Usage: "print the current price list",
						Flags: []cli.Flag{
							&cli.BoolFlag{Name: "yaml", Usage: "print as a catalog file"},
						},
						Action: rt.catalogListAction,
					},
					{
						Name:  "push",
						Usage: "publish a price list to Redis for all counters",
						Flags: []cli.Flag{
							&cli.StringFlag{Name: "from", Value: "file", Usage: "source to publish: builtin or file"},
						},
						Action: rt.catalogPushAction,
					},
				},
			},
			{
				Name:      "dictate",
				Usage:     "parse a dictated order and print the bill lines",
				ArgsUsage: "\"<utterance>\"",
				Flags: []cli.Flag{
					&cli.BoolFlag{Name: "show-prompt", Usage: "print the prompt sent to the model"},
				},
				Action: rt.dictateAction,
			},
		},
	}
}

func (rt *runtime) catalogSource(ctx context.Context, source string) (repo.CatalogSource, func(), error) {
	switch strings.ToLower(source) {
	case "", "builtin":
		return repo.NewBuiltinCatalogSource(), func() {}, nil
	case "file":
		return repo.NewFileCatalogSource(rt.cfg.Catalog.File), func() {}, nil
	case "redis":
		rdb, err := rt.cfg.Redis.New(ctx)
		if err != nil {
			return nil, nil, fmt.Errorf("connect redis: %w", err)
		}
		return repo.NewRedisCatalogSource(rdb, rt.cfg.Catalog.RedisKey), func() { _ = rdb.Close() }, nil
	default:
		return nil, nil, fmt.Errorf("unknown catalog source %q", source)
	}
}

func (rt *runtime) loadCatalog(ctx context.Context) (*billing.Catalog, error) {
	src, closeFn, err := rt.catalogSource(ctx, rt.cfg.Catalog.Source)
	if err != nil {
		return nil, err
	}
	defer closeFn()

	entries, err := src.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("load catalog from %s: %w", rt.cfg.Catalog.Source, err)
	}
	catalog, err := billing.NewCatalog(entries)
	if err != nil {
		return nil, err
	}
	logx.Debug().Str("source", rt.cfg.Catalog.Source).Int("items", catalog.Len()).Msg("catalog loaded")
	return catalog, nil
}

func (rt *runtime) records() *repo.CSVRecordStore {
	if !rt.cfg.Records.Enabled {
		return nil
	}
	return repo.NewCSVRecordStore(rt.cfg.Records.File)
}

func (rt *runtime) billAction(c *cli.Context) error {
	ctx := c.Context
	catalog, err := rt.loadCatalog(ctx)
	if err != nil {
		return err
	}

	deps := console.Deps{
		Catalog:  catalog,
		Options:  billing.OptionsFromConfig(rt.cfg.Billing),
		Notifier: notify.NewNotifier(rt.cfg.Billing.ShopName, rt.cfg.Notify, notify.BrowserOpener{}),
	}
	if store := rt.records(); store != nil {
		deps.Records = store
	}
	if !c.Bool("no-pdf") {
		deps.PDF = export.NewPDFExporter(rt.cfg.PDF.Dir)
	}

	if c.Bool("voice") {
		listener, orders, err := rt.voiceInput(ctx, catalog)
		if err != nil {
			return err
		}
		deps.Listener = listener
		deps.Orders = orders
	}

	return console.New(os.Stdin, os.Stdout, deps).RunLoop(ctx)
}

func (rt *runtime) voiceInput(ctx context.Context, catalog *billing.Catalog) (*voice.Listener, *voice.OrderParser, error) {
	clients, err := voice.NewClients(ctx, rt.cfg.Voice)
	if err != nil {
		return nil, nil, err
	}
	recorder, err := voice.NewCommandRecorder(rt.cfg.Voice.RecordCommand)
	if err != nil {
		return nil, nil, err
	}
	transcriber := voice.NewGeminiTranscriber(clients.GenAI, rt.cfg.Voice.Model, rt.cfg.Voice.Language)
	orders, err := voice.NewOrderParser(ctx, clients.Chat, clients.ModelName, catalog.Entries())
	if err != nil {
		return nil, nil, err
	}
	return voice.NewListener(recorder, transcriber, rt.cfg.Voice.MaxAttempts, os.Stdout), orders, nil
}

func (rt *runtime) serveAction(c *cli.Context) error {
	ctx, stop := signal.NotifyContext(c.Context, os.Interrupt, syscall.SIGTERM)
	defer stop()

	catalog, err := rt.loadCatalog(ctx)
	if err != nil {
		return err
	}

	deps := web.Deps{
		Catalog: catalog,
		Options: billing.OptionsFromConfig(rt.cfg.Billing),
		Notify:  rt.cfg.Notify,
		PDF:     export.NewPDFExporter(rt.cfg.PDF.Dir),
	}
	if store := rt.records(); store != nil {
		deps.Records = store
	}
	srv, err := web.NewServer(deps)
	if err != nil {
		return err
	}

	addr := rt.cfg.Web.Addr
	if c.IsSet("addr") {
		addr = c.String("addr")
	}
	return srv.ListenAndServe(ctx, addr)
}

func (rt *runtime) catalogListAction(c *cli.Context) error {
	catalog, err := rt.loadCatalog(c.Context)
	if err != nil {
		return err
	}

	if c.Bool("yaml") {
		b, err := repo.MarshalCatalogYAML(catalog.Entries())
		if err != nil {
			return err
		}
		_, err = os.Stdout.Write(b)
		return err
	}

	currency := billing.OptionsFromConfig(rt.cfg.Billing).CurrencySymbol
	for i, e := range catalog.Entries() {
		fmt.Printf("%d. %s : %s%s per kg\n", i+1, billing.DisplayName(e.Name), currency, e.Price.StringFixed(2))
	}
	return nil
}

func (rt *runtime) catalogPushAction(c *cli.Context) error {
	ctx := c.Context
	from := c.String("from")
	if strings.EqualFold(from, "redis") {
		return fmt.Errorf("cannot push from redis to itself")
	}

	src, closeFn, err := rt.catalogSource(ctx, from)
	if err != nil {
		return err
	}
	defer closeFn()
	entries, err := src.Load(ctx)
	if err != nil {
		return err
	}
	if _, err := billing.NewCatalog(entries); err != nil {
		return err
	}

	rdb, err := rt.cfg.Redis.New(ctx)
	if err != nil {
		return fmt.Errorf("connect redis: %w", err)
	}
	defer rdb.Close()

	if err := repo.NewRedisCatalogSource(rdb, rt.cfg.Catalog.RedisKey).Save(ctx, entries); err != nil {
		return err
	}
	fmt.Printf("Published %d items to %s\n", len(entries), rt.cfg.Catalog.RedisKey)
	return nil
}

func (rt *runtime) dictateAction(c *cli.Context) error {
	ctx := c.Context
	utterance := strings.TrimSpace(strings.Join(c.Args().Slice(), " "))
	if utterance == "" {
		return cli.Exit("usage: flourmill dictate \"two kilo wheat and one kilo rice\"", 2)
	}

	catalog, err := rt.loadCatalog(ctx)
	if err != nil {
		return err
	}

	if c.Bool("show-prompt") {
		msgs, err := voice.RenderOrderPrompt(ctx, catalog.Entries(), utterance)
		if err != nil {
			return err
		}
		for _, m := range msgs {
			fmt.Printf("[%s]\n%s\n\n", m.Role, m.Content)
		}
	}

	clients, err := voice.NewClients(ctx, rt.cfg.Voice)
	if err != nil {
		return err
	}
	parser, err := voice.NewOrderParser(ctx, clients.Chat, clients.ModelName, catalog.Entries())
	if err != nil {
		return err
	}
	order, err := parser.Parse(ctx, utterance)
	if err != nil {
		return err
	}

	return printDictation(os.Stdout, billing.NewLedger(catalog, billing.OptionsFromConfig(rt.cfg.Billing)), order)
}

// printDictation adds the parsed order to ledger and prints the resulting
// lines; entries the ledger rejects are listed instead of failing the command.
func printDictation(w io.Writer, ledger *billing.Ledger, order *voice.Order) error {
	for _, e := range order.Entries {
		line, err := ledger.AddEntry(e)
		if err != nil {
			fmt.Fprintf(w, "skipped %s (%s kg): %v\n", e.Token, e.Quantity, err)
			continue
		}
		fmt.Fprintf(w, "%-15s %10s kg x %8s = %10s\n", line.ItemName, line.QuantityKg.StringFixed(2), line.UnitPrice.StringFixed(2), line.LineTotal.StringFixed(2))
	}
	for _, u := range order.Unmatched {
		fmt.Fprintf(w, "not on the price list: %s\n", u)
	}
	for _, p := range order.Problems {
		fmt.Fprintf(w, "unreadable: %s\n", p)
	}
	if ledger.IsEmpty() {
		fmt.Fprintln(w, "no billable lines")
		return nil
	}

	rate := ledger.TaxRate()
	_, err := fmt.Fprintf(w, "subtotal %s, tax %s, grand total %s\n",
		ledger.Subtotal().StringFixed(2), ledger.Tax(rate).StringFixed(2), ledger.GrandTotal(rate).StringFixed(2))
	return err
}
