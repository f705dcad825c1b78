package cli

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/conslogger/conslogger/internal/client/aggregator"
	"github.com/conslogger/conslogger/internal/client/api"
	"github.com/conslogger/conslogger/internal/client/auth"
	"github.com/conslogger/conslogger/internal/client/halt"
	"github.com/conslogger/conslogger/internal/client/iocli"
	"github.com/conslogger/conslogger/internal/client/reconciler"
	"github.com/conslogger/conslogger/internal/client/sites"
	"github.com/conslogger/conslogger/internal/client/storage"
	"github.com/conslogger/conslogger/internal/client/syncgraph"
)

// Deps сервисы, на которых работают команды.
// Партнёрская часть (Graph, Agg, Rec, Self) присутствует только
// в авторизованном режиме; в гостевом режиме эти поля nil.
type Deps struct {
	IO     iocli.IO
	Logger *slog.Logger
	Auth   auth.Service
	API    *api.Client
	Halts  *halt.Service
	Sites  *sites.Service
	Shifts storage.ShiftStore
	Prefs  storage.PrefsStorage

	Graph *syncgraph.Service
	Agg   *aggregator.Service
	Rec   *reconciler.Reconciler
	Self  *storage.AuthData
}

type Cli struct {
	io     iocli.IO
	logger *slog.Logger
	auth   auth.Service
	api    *api.Client
	halts  *halt.Service
	sites  *sites.Service
	shifts storage.ShiftStore
	prefs  storage.PrefsStorage

	graph *syncgraph.Service
	agg   *aggregator.Service
	rec   *reconciler.Reconciler
	self  *storage.AuthData
}

func New(deps Deps) *Cli {
	return &Cli{
		io:     deps.IO,
		logger: deps.Logger,
		auth:   deps.Auth,
		api:    deps.API,
		halts:  deps.Halts,
		sites:  deps.Sites,
		shifts: deps.Shifts,
		prefs:  deps.Prefs,
		graph:  deps.Graph,
		agg:    deps.Agg,
		rec:    deps.Rec,
		self:   deps.Self,
	}
}

// Run выполняет одну команду. Ошибку печатает вызывающий код
func (c *Cli) Run(ctx context.Context, command string, args []string) error {
	c.welcomeOnce(ctx)

	switch command {
	case "register":
		return c.runRegister(ctx)
	case "login":
		return c.runLogin(ctx)
	case "logout":
		return c.runLogout(ctx)
	case "status":
		return c.runStatus(ctx)
	case "profile":
		return c.runProfile(ctx, args)
	case "start":
		return c.runStart(ctx, args)
	case "stop":
		return c.runStop(ctx)
	case "list":
		return c.runList(ctx, args)
	case "update":
		return c.runUpdate(ctx, args)
	case "delete":
		return c.runDelete(ctx, args)
	case "site":
		return c.runSite(ctx, args)
	case "shift":
		return c.runShift(ctx, args)
	case "partners":
		return c.runPartners(ctx)
	case "request":
		return c.runRequest(ctx, args)
	case "requests":
		return c.runRequests(ctx)
	case "accept":
		return c.runAccept(ctx, args)
	case "reject":
		return c.runReject(ctx, args)
	case "disconnect":
		return c.runDisconnect(ctx, args)
	case "watch":
		return c.runWatch(ctx)
	case "summary":
		return c.runSummary(ctx, args)
	case "export":
		return c.runExport(ctx, args)
	default:
		PrintUsage()
		return fmt.Errorf("unknown command: %s", command)
	}
}

// welcomeOnce показывает подсказку при самом первом запуске
func (c *Cli) welcomeOnce(ctx context.Context) {
	onboarded, err := c.prefs.IsOnboarded(ctx)
	if err != nil || onboarded {
		return
	}
	c.io.Println("Welcome to conslogger!")
	c.io.Println("Track halts with 'start' and 'stop'; 'login' enables partner sync.")
	c.io.Println()
	if err := c.prefs.SetOnboarded(ctx, true); err != nil {
		c.logger.WarnContext(ctx, "failed to persist onboarded flag", "error", err)
	}
}

// requirePartnerMode охраняет команды, работающие с графом синхронизации
func (c *Cli) requirePartnerMode() error {
	if c.graph == nil {
		return fmt.Errorf("partner sync requires an account. Run 'conslogger login' first")
	}
	return nil
}

func PrintUsage() {
	fmt.Println("conslogger - halt time tracking for construction crews")
	fmt.Println()
	fmt.Println("Usage:")
	fmt.Println("  conslogger [OPTIONS] COMMAND [ARGS]")
	fmt.Println()
	fmt.Println("Options:")
	fmt.Println("  --version         Show version information")
	fmt.Println("  --server URL      Server URL (default: http://localhost:8080)")
	fmt.Println("  --db PATH         Path to local database (default: conslogger.db)")
	fmt.Println()
	fmt.Println("Account:")
	fmt.Println("  register                      Register new account")
	fmt.Println("  login                         Login to server")
	fmt.Println("  logout                        Logout and clear local session")
	fmt.Println("  status                        Show session and site status")
	fmt.Println("  profile <display name>        Change display name")
	fmt.Println()
	fmt.Println("Halts:")
	fmt.Println("  start <category> [note]       Start a halt timer on the selected site")
	fmt.Println("  stop                          Stop the running halt")
	fmt.Println("  list [YYYY-MM-DD]             List halts for a day (default: today)")
	fmt.Println("  update <id> [YYYY-MM-DD]      Edit a completed halt")
	fmt.Println("  delete <id>... [-d date]      Delete one or more halts")
	fmt.Println()
	fmt.Println("Sites and shifts:")
	fmt.Println("  site list                     List sites")
	fmt.Println("  site add <name> [location]    Create a site")
	fmt.Println("  site select <id>              Select the active site")
	fmt.Println("  site switch <id>              Select a site, reconciling partner scopes")
	fmt.Println("  site delete <id>              Delete a site")
	fmt.Println("  shift list [site-id]          List shift windows for a site")
	fmt.Println("  shift add <name> <HH:MM> <HH:MM> [site-id]")
	fmt.Println("  shift delete <id>             Delete a shift window")
	fmt.Println()
	fmt.Println("Partner sync (requires an account):")
	fmt.Println("  partners                      Show partners and their halts for today")
	fmt.Println("  request <handle> [site-id]    Invite a partner, optionally scoped to a site")
	fmt.Println("  requests                      List pending incoming requests")
	fmt.Println("  accept <request-id> [site-id] Accept a request (site-id overrides scope)")
	fmt.Println("  reject <request-id>           Reject a request")
	fmt.Println("  disconnect <partner-id>       Remove a partner connection")
	fmt.Println("  watch                         Follow connection and request events")
	fmt.Println()
	fmt.Println("Reports:")
	fmt.Println("  summary [YYYY-MM-DD]          Daily totals by category")
	fmt.Println("  summary week                  Totals for the last 7 days")
	fmt.Println("  export <csv|json> <path> [YYYY-MM-DD]")
	fmt.Println()
	fmt.Println("Examples:")
	fmt.Println("  conslogger start Weather \"heavy rain\"")
	fmt.Println("  conslogger stop")
	fmt.Println("  conslogger list 2026-08-30")
	fmt.Println("  conslogger request alice")
	fmt.Println("  conslogger export csv halts.csv")
}
