// Command ticketbooth is a terminal client for the concert reservation
// service: subcommands for scripting plus an interactive TUI dashboard.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"ticketbooth/internal/api"
	"ticketbooth/internal/errs"
	"ticketbooth/internal/model"
	"ticketbooth/internal/reconcile"
	"ticketbooth/internal/session"
	"ticketbooth/internal/tui"
)

var (
	version   = "dev"
	buildDate = "unknown"
)

func envOr(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func usage() {
	fmt.Fprintf(os.Stderr, `ticketbooth CLI
Usage:
  ticketbooth [-addr URL] <cmd> [args]

Commands:
  version
  register        -name <name> -email <email> -password <pw>   (saves session)
  login           -email <email> -password <pw>                (saves session)
  me
  logout
  concerts        [-page N] [-limit N]
  reserve         -concert <id>
  cancel          -concert <id>
  history         [-page N] [-limit N] [-all]
  dashboard                                                    (admin)
  create-concert  -name <name> [-desc <text>] -seats <n>       (admin)
  cancel-concert  -concert <id>                                (admin)
  tui             [-allow-rebook]
`)
	os.Exit(2)
}

func fail(err error) {
	fmt.Fprintln(os.Stderr, errs.UserMessage(err))
	os.Exit(1)
}

func printJSON(v any) {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	_ = enc.Encode(v)
}

// app bundles the client-side state every subcommand needs.
type app struct {
	client *api.Client
	sess   *session.Store
}

func newApp(addr string) *app {
	sess := session.NewStore(session.NewFileStorage(""))
	client := api.New(addr, api.WithTokenSource(sess.Token))
	return &app{client: client, sess: sess}
}

// hydrate loads the persisted session without a network round trip.
// Commands that need verified identity use restore instead.
func (a *app) hydrate() {
	st, err := session.NewFileStorage("").Load()
	if err != nil || st.Token == "" {
		fail(fmt.Errorf("not logged in"))
	}
	if err := a.sess.SetAuth(st.Token, st.Role, st.User); err != nil {
		fail(err)
	}
}

// commitAuth persists an auth result. When the backend omits role or user id
// from the response, the identity endpoint fills them in.
func (a *app) commitAuth(ctx context.Context, res api.AuthResult) model.User {
	user := model.User{ID: res.UserID, Role: res.Role}
	if res.Role == "" || res.UserID == "" {
		if err := a.sess.SetAuth(res.Token, model.RoleUser, user); err != nil {
			fail(err)
		}
		resolved, err := a.client.Me(ctx)
		if err != nil {
			_ = a.sess.Logout()
			fail(err)
		}
		user = resolved
		res.Role = resolved.Role
	}
	if err := a.sess.SetAuth(res.Token, res.Role, user); err != nil {
		fail(err)
	}
	return user
}

func (a *app) userID() string {
	_, uid, ok := a.sess.Credentials()
	if !ok {
		fail(fmt.Errorf("not logged in"))
	}
	return uid
}

// main dispatches subcommands.
func main() {
	addr := flag.String("addr", envOr("TICKETBOOTH_ADDR", "http://localhost:8080"), "service base URL")
	flag.Usage = usage
	flag.Parse()

	if flag.NArg() < 1 {
		usage()
	}
	cmd := flag.Arg(0)
	args := flag.Args()[1:]

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	a := newApp(*addr)

	switch cmd {

	case "version":
		fmt.Printf("ticketbooth %s (%s)\n", version, buildDate)

	case "register":
		fs := flag.NewFlagSet("register", flag.ExitOnError)
		name := fs.String("name", "", "display name")
		email := fs.String("email", "", "email")
		password := fs.String("password", "", "password")
		_ = fs.Parse(args)
		if *name == "" || *email == "" || *password == "" {
			fmt.Fprintln(os.Stderr, "need -name, -email and -password")
			os.Exit(1)
		}
		res, err := a.client.Register(ctx, *name, *email, *password, model.RoleUser)
		if err != nil {
			fail(err)
		}
		user := a.commitAuth(ctx, res)
		fmt.Printf("registered %s (%s)\n", user.Email, user.Role)

	case "login":
		fs := flag.NewFlagSet("login", flag.ExitOnError)
		email := fs.String("email", "", "email")
		password := fs.String("password", "", "password")
		_ = fs.Parse(args)
		if *email == "" || *password == "" {
			fmt.Fprintln(os.Stderr, "need -email and -password")
			os.Exit(1)
		}
		res, err := a.client.Login(ctx, *email, *password)
		if err != nil {
			fail(err)
		}
		user := a.commitAuth(ctx, res)
		fmt.Printf("logged in as %s (%s)\n", user.Email, user.Role)

	case "me":
		a.hydrate()
		if err := a.sess.Restore(ctx, a.client); err != nil {
			fail(err)
		}
		printJSON(a.sess.User())

	case "logout":
		if err := a.sess.Logout(); err != nil {
			fail(err)
		}
		fmt.Println("logged out")

	case "concerts":
		fs := flag.NewFlagSet("concerts", flag.ExitOnError)
		page := fs.Int("page", 1, "page")
		limit := fs.Int("limit", 5, "page size")
		_ = fs.Parse(args)

		params := api.ListConcertsParams{Page: *page, Limit: *limit}
		// Reservation state is only embedded for a logged-in user.
		if st, err := session.NewFileStorage("").Load(); err == nil && st.Token != "" {
			_ = a.sess.SetAuth(st.Token, st.Role, st.User)
			params.UserID = st.User.ID
		}
		out, err := a.client.ListConcerts(ctx, params)
		if err != nil {
			fail(err)
		}
		printJSON(out)

	case "reserve":
		fs := flag.NewFlagSet("reserve", flag.ExitOnError)
		concert := fs.String("concert", "", "concert id")
		_ = fs.Parse(args)
		if *concert == "" {
			fmt.Fprintln(os.Stderr, "need -concert")
			os.Exit(1)
		}
		a.hydrate()
		id, err := a.client.Reserve(ctx, a.userID(), *concert)
		if err != nil {
			fail(err)
		}
		fmt.Println(id)

	case "cancel":
		fs := flag.NewFlagSet("cancel", flag.ExitOnError)
		concert := fs.String("concert", "", "concert id")
		_ = fs.Parse(args)
		if *concert == "" {
			fmt.Fprintln(os.Stderr, "need -concert")
			os.Exit(1)
		}
		a.hydrate()
		if err := a.client.CancelReservation(ctx, a.userID(), *concert); err != nil {
			fail(err)
		}
		fmt.Println("cancelled")

	case "history":
		fs := flag.NewFlagSet("history", flag.ExitOnError)
		page := fs.Int("page", 1, "page")
		limit := fs.Int("limit", 5, "page size")
		all := fs.Bool("all", false, "global history (admin)")
		_ = fs.Parse(args)
		a.hydrate()
		params := api.ListTransactionsParams{Page: *page, Limit: *limit}
		if *all {
			params.Admin = true
		} else {
			params.UserID = a.userID()
		}
		out, err := a.client.ListTransactions(ctx, params)
		if err != nil {
			fail(err)
		}
		printJSON(out)

	case "dashboard":
		a.hydrate()
		out, err := a.client.DashboardStats(ctx)
		if err != nil {
			fail(err)
		}
		printJSON(out)

	case "create-concert":
		fs := flag.NewFlagSet("create-concert", flag.ExitOnError)
		name := fs.String("name", "", "concert name")
		desc := fs.String("desc", "", "description")
		seats := fs.Int("seats", 0, "seat count")
		_ = fs.Parse(args)
		if *name == "" || *seats <= 0 {
			fmt.Fprintln(os.Stderr, "need -name and a positive -seats")
			os.Exit(1)
		}
		a.hydrate()
		out, err := a.client.CreateConcert(ctx, api.CreateConcertParams{
			Name: *name, Description: *desc, MaxSeats: *seats,
		})
		if err != nil {
			fail(err)
		}
		printJSON(out)

	case "cancel-concert":
		fs := flag.NewFlagSet("cancel-concert", flag.ExitOnError)
		concert := fs.String("concert", "", "concert id")
		_ = fs.Parse(args)
		if *concert == "" {
			fmt.Fprintln(os.Stderr, "need -concert")
			os.Exit(1)
		}
		a.hydrate()
		out, err := a.client.CancelConcert(ctx, *concert)
		if err != nil {
			fail(err)
		}
		printJSON(out)

	case "tui":
		fs := flag.NewFlagSet("tui", flag.ExitOnError)
		rebook := fs.Bool("allow-rebook", false, "allow re-reserving after a cancelled reservation")
		_ = fs.Parse(args)

		rec := reconcile.New(a.client, a.sess, reconcile.Config{AllowRebookAfterCancel: *rebook})
		p := tea.NewProgram(tui.New(a.client, a.sess, rec), tea.WithAltScreen())
		if _, err := p.Run(); err != nil {
			fail(err)
		}

	default:
		usage()
	}
}
