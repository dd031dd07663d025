package main

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"text/tabwriter"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/jonboulle/clockwork"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/atinyakov/nomoslink/internal/client/insight"
	"github.com/atinyakov/nomoslink/internal/client/notify"
	"github.com/atinyakov/nomoslink/internal/client/practice"
	"github.com/atinyakov/nomoslink/internal/client/syncer"
	"github.com/atinyakov/nomoslink/internal/config"
	"github.com/atinyakov/nomoslink/internal/logger"
	"github.com/atinyakov/nomoslink/internal/models"
)

const helpText = `Commands:
  login <email> <password>          start a session
  logout | whoami
  users | add-user <role> <email> <password> <name...>
  files <transaction|case|letter>   list files with labels
  add-file <kind> <billed> <name...>
  edit <kind> <id> key=value...     e.g. edit case CASE-1 paid=5000
  note <kind> <id> <message...>     add a progress note
  attach <kind> <id> <name> <url>
  archive <transaction|case> <id> | rm <kind> <id>
  tasks | task <assigneeID> <title...> | done <taskID> [note...]
  clients | add-client <name...> | log <clientID> <note...> | logs <clientID>
  invoices | invoice <clientID> <billed> | pay <invoiceID> <amount>
  expenses | expense <amount> <category> <description...>
  inbox | read                      notifications
  board                             lawyer leaderboard
  status | help | exit`

// syncState is the read-only view of the sync engine. Pushes only ever
// come from the debounce timer or the final drain on exit.
type syncState interface {
	Ready() bool
	Pending() bool
}

// shell runs the interactive command loop.
type shell struct {
	app   *practice.App
	notes *notify.Engine
	sync  syncState
	conn  syncer.Connectivity
	clock clockwork.Clock
	out   io.Writer
}

type shellOptions struct {
	AdminEmail    string
	AdminPassword string
	Offline       bool
}

func newShellCommand(root *rootOptions) *cobra.Command {
	opts := &shellOptions{}

	cmd := &cobra.Command{
		Use:   "shell",
		Short: "Start the interactive practice shell",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runShell(cmd, root, opts)
		},
	}
	cmd.Flags().StringVar(&opts.AdminEmail, "admin-email", "", "seed an admin with this email when there are no users")
	cmd.Flags().StringVar(&opts.AdminPassword, "admin-password", "", "password for the seeded admin")
	cmd.Flags().BoolVar(&opts.Offline, "offline", false, "never contact the server")
	return cmd
}

func runShell(cmd *cobra.Command, root *rootOptions, opts *shellOptions) error {
	cfg, err := config.LoadClient(root.ConfigPath, os.Getenv)
	if err != nil {
		return err
	}
	if root.LogLevel != "" {
		cfg.Log.Level = root.LogLevel
	}

	log := logger.New()
	var outputs []string
	if cfg.Log.File != "" {
		outputs = append(outputs, cfg.Log.File)
	}
	if err := log.Init(cfg.Log.Level, outputs...); err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	defer func() { _ = log.Log.Sync() }()

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGTERM)
	defer stop()

	rt, err := openRuntime(ctx, cfg, log.Log, opts.Offline)
	if err != nil {
		return err
	}
	defer func() {
		closeCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.Timeout.Duration)
		defer cancel()
		rt.close(closeCtx)
	}()

	if rt.app.SeedAdmin(models.User{Name: "Administrator", Email: opts.AdminEmail, Password: opts.AdminPassword}) {
		log.Log.Info("seeded admin", zap.String("email", opts.AdminEmail))
	}

	sh := &shell{
		app:   rt.app,
		notes: rt.notes,
		sync:  rt.sync,
		conn:  rt.conn,
		clock: clockwork.NewRealClock(),
		out:   cmd.OutOrStdout(),
	}
	return sh.run(ctx, cmd.InOrStdin())
}

// run reads commands until exit, end of input or ctx is done.
func (sh *shell) run(ctx context.Context, in io.Reader) error {
	scanner := bufio.NewScanner(in)
	for {
		if ctx.Err() != nil {
			return nil
		}
		fmt.Fprint(sh.out, sh.prompt())
		if !scanner.Scan() {
			return scanner.Err()
		}
		args := strings.Fields(scanner.Text())
		if len(args) == 0 {
			continue
		}
		if quit := sh.exec(ctx, args); quit {
			return nil
		}
	}
}

func (sh *shell) prompt() string {
	u, ok := sh.app.CurrentUser()
	if !ok {
		return "nomoslink> "
	}
	if n := sh.notes.UnreadCount(u.ID); n > 0 {
		return fmt.Sprintf("nomoslink %s (%d)> ", u.Name, n)
	}
	return fmt.Sprintf("nomoslink %s> ", u.Name)
}

func (sh *shell) say(format string, a ...any) {
	fmt.Fprintf(sh.out, format+"\n", a...)
}

func (sh *shell) result(ok bool, done string) {
	if ok {
		sh.say("%s", done)
		return
	}
	sh.say("nothing changed")
}

// exec runs one command and reports whether the shell should quit.
func (sh *shell) exec(ctx context.Context, args []string) bool {
	cmd, rest := args[0], args[1:]
	if !sh.enough(cmd, rest) {
		return false
	}

	switch cmd {
	case "help":
		sh.say("%s", helpText)
	case "exit", "quit":
		sh.say("Bye")
		return true

	case "login":
		if sh.app.Login(rest[0], rest[1]) {
			u, _ := sh.app.CurrentUser()
			sh.say("Welcome, %s (%s)", u.Name, u.Role)
		} else {
			sh.say("invalid credentials")
		}
	case "logout":
		sh.app.Logout()
		sh.say("logged out")
	case "whoami":
		if u, ok := sh.app.CurrentUser(); ok {
			sh.say("%s <%s> %s", u.Name, u.Email, u.Role)
		} else {
			sh.say("not logged in")
		}
	case "users":
		sh.table("ID\tNAME\tEMAIL\tROLE", func(w io.Writer) {
			for _, u := range sh.app.Store().Users.All() {
				fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", u.ID, u.Name, u.Email, u.Role)
			}
		})
	case "add-user":
		u, ok := sh.app.AddUser(models.User{
			Role: models.Role(rest[0]), Email: rest[1], Password: rest[2], Name: strings.Join(rest[3:], " "),
		})
		sh.result(ok, "added "+u.ID)

	case "files":
		sh.files(rest[0])
	case "add-file":
		sh.addFile(rest[0], rest[1], strings.Join(rest[2:], " "))
	case "edit":
		sh.edit(practice.Kind(rest[0]), rest[1], rest[2:])
	case "note":
		n, ok := sh.app.AddProgress(practice.Kind(rest[0]), rest[1], strings.Join(rest[2:], " "))
		sh.result(ok, "note "+n.ID+" added")
	case "attach":
		d, ok := sh.app.AttachDocument(practice.Kind(rest[0]), rest[1], rest[2], rest[3])
		sh.result(ok, "document "+d.ID+" attached")
	case "archive":
		switch practice.Kind(rest[0]) {
		case practice.KindTransaction:
			sh.result(sh.app.ArchiveTransaction(rest[1]), "archived")
		case practice.KindCourtCase:
			sh.result(sh.app.ArchiveCourtCase(rest[1]), "archived")
		default:
			sh.say("only transactions and cases can be archived")
		}
	case "rm":
		sh.remove(ctx, rest[0], rest[1])

	case "tasks":
		sh.table("ID\tTITLE\tASSIGNEE\tSTATUS\tCREATED", func(w io.Writer) {
			for _, t := range sh.app.Store().Tasks.All() {
				if t.Archived {
					continue
				}
				fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n", t.ID, t.Title, t.AssignedToName, t.Status, t.DateCreated)
			}
		})
	case "task":
		to, _ := sh.app.Store().Users.Get(rest[0])
		t, ok := sh.app.AddTask(practice.TaskInput{
			Title: strings.Join(rest[1:], " "), AssignedToID: rest[0], AssignedToName: to.Name,
		})
		sh.result(ok, "task "+t.ID+" created")
	case "done":
		sh.result(sh.app.CompleteTask(rest[0], strings.Join(rest[1:], " ")), "completed")

	case "clients":
		sh.table("ID\tNAME\tTYPE\tEMAIL\tADDED", func(w io.Writer) {
			for _, c := range sh.app.Store().Clients.All() {
				fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n", c.ID, c.Name, c.Type, c.Email, c.DateAdded)
			}
		})
	case "add-client":
		c, ok := sh.app.AddClient(models.Client{Name: strings.Join(rest, " "), Type: models.ClientIndividual})
		sh.result(ok, "client "+c.ID+" added")
	case "log":
		l, ok := sh.app.AddCommLog(rest[0], strings.Join(rest[1:], " "))
		sh.result(ok, "logged "+l.ID)
	case "logs":
		for _, l := range sh.app.CommLogs(rest[0]) {
			sh.say("%s  %s: %s", l.Date, l.AuthorName, l.Note)
		}

	case "invoices":
		sh.table("ID\tFILE\tBILLED\tPAID\tBALANCE\tPAID?", func(w io.Writer) {
			for _, inv := range sh.app.Store().Invoices.All() {
				fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%v\n", inv.ID, inv.FileName,
					money(inv.AmountBilled), money(inv.AmountPaid), money(inv.Balance), inv.IsPaid)
			}
		})
	case "invoice":
		c, _ := sh.app.Store().Clients.Get(rest[0])
		inv, ok := sh.app.AddInvoice(models.Invoice{
			FileName: c.Name, RelatedFile: rest[0], AmountBilled: models.Coerce(rest[1]),
		})
		sh.result(ok, "invoice "+inv.ID+" created")
	case "pay":
		sh.result(sh.app.RecordPayment(rest[0], rest[1]), "payment recorded")

	case "expenses":
		var total int64
		sh.table("ID\tDATE\tCATEGORY\tAMOUNT\tDESCRIPTION", func(w io.Writer) {
			for _, e := range sh.app.Store().Expenses.All() {
				total += e.Amount
				fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n", e.ID, e.Date, e.Category, money(e.Amount), e.Description)
			}
		})
		sh.say("total %s", money(total))
	case "expense":
		e, ok := sh.app.AddExpense(strings.Join(rest[2:], " "), rest[1], rest[0])
		sh.result(ok, "expense "+e.ID+" recorded")

	case "inbox":
		sh.inbox()
	case "read":
		sh.app.MarkNotificationsRead(ctx)
		sh.say("all read")
	case "board":
		sh.board()

	case "status":
		sh.say("online=%v ready=%v pending=%v", sh.conn.Online(), sh.sync.Ready(), sh.sync.Pending())

	default:
		sh.say("Unknown command. Type 'help' for a list of commands.")
	}
	return false
}

// minArgs is the number of arguments each command needs.
var minArgs = map[string]int{
	"login": 2, "add-user": 4, "files": 1, "add-file": 3, "edit": 3, "note": 3,
	"attach": 4, "archive": 2, "rm": 2, "task": 2, "done": 1, "add-client": 1,
	"log": 2, "logs": 1, "invoice": 2, "pay": 2, "expense": 3,
}

func (sh *shell) enough(cmd string, rest []string) bool {
	if n := minArgs[cmd]; len(rest) < n {
		sh.say("%s needs %d argument(s); type 'help'", cmd, n)
		return false
	}
	return true
}

func (sh *shell) table(header string, rows func(w io.Writer)) {
	w := tabwriter.NewWriter(sh.out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, header)
	rows(w)
	_ = w.Flush()
}

func money(v int64) string { return humanize.Comma(v) }

func labels(ls []insight.Label) string {
	parts := make([]string, len(ls))
	for i, l := range ls {
		parts[i] = string(l)
	}
	return strings.Join(parts, ",")
}

func (sh *shell) files(kind string) {
	s := sh.app.Store()
	now := sh.clock.Now()
	switch practice.Kind(kind) {
	case practice.KindTransaction:
		sh.table("ID\tFILE\tSTATUS\tBILLED\tPAID\tBALANCE\tLABELS", func(w io.Writer) {
			for _, t := range s.Transactions.All() {
				if t.Archived {
					continue
				}
				fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\t%s\n", t.ID, t.FileName, t.Status,
					money(t.BilledAmount), money(t.PaidAmount), money(t.Balance),
					labels(insight.Labels(insight.TransactionSubject(t), now)))
			}
		})
	case practice.KindCourtCase:
		sh.table("ID\tFILE\tSTATUS\tNEXT\tBALANCE\tLABELS", func(w io.Writer) {
			for _, c := range s.CourtCases.All() {
				if c.Archived {
					continue
				}
				fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\n", c.ID, c.FileName, c.Status, c.NextCourtDate,
					money(c.Balance), labels(insight.Labels(insight.CourtCaseSubject(c), now)))
			}
		})
	case practice.KindLetter:
		sh.table("ID\tSUBJECT\tTYPE\tSTATUS\tBALANCE", func(w io.Writer) {
			for _, l := range s.Letters.All() {
				fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n", l.ID, l.Subject, l.Type, l.Status, money(l.Balance))
			}
		})
	default:
		sh.say("unknown kind %q", kind)
	}
}

func (sh *shell) addFile(kind, billed, name string) {
	u, _ := sh.app.CurrentUser()
	amount := models.Coerce(billed)
	switch practice.Kind(kind) {
	case practice.KindTransaction:
		t, ok := sh.app.AddTransaction(models.Transaction{FileName: name, BilledAmount: amount, LawyerID: u.ID})
		sh.result(ok, "transaction "+t.ID+" added")
	case practice.KindCourtCase:
		c, ok := sh.app.AddCourtCase(models.CourtCase{FileName: name, Billed: amount, LawyerID: u.ID})
		sh.result(ok, "case "+c.ID+" added")
	case practice.KindLetter:
		l, ok := sh.app.AddLetter(models.Letter{Subject: name, Billed: amount, Type: models.LetterOutgoing, LawyerID: u.ID})
		sh.result(ok, "letter "+l.ID+" added")
	default:
		sh.say("unknown kind %q", kind)
	}
}

// parsePatch turns key=value pairs into a patch. Values that parse as
// JSON keep their type, anything else is a string.
func parsePatch(pairs []string) (practice.Patch, error) {
	patch := practice.Patch{}
	for _, p := range pairs {
		k, v, ok := strings.Cut(p, "=")
		if !ok || k == "" {
			return nil, fmt.Errorf("bad pair %q, want key=value", p)
		}
		dec := json.NewDecoder(bytes.NewReader([]byte(v)))
		dec.UseNumber()
		var parsed any
		if err := dec.Decode(&parsed); err == nil && !dec.More() {
			patch[k] = parsed
		} else {
			patch[k] = v
		}
	}
	return patch, nil
}

func (sh *shell) edit(kind practice.Kind, id string, pairs []string) {
	patch, err := parsePatch(pairs)
	if err != nil {
		sh.say("%v", err)
		return
	}
	switch kind {
	case practice.KindTransaction:
		sh.result(sh.app.EditTransaction(id, patch), "updated")
	case practice.KindCourtCase:
		sh.result(sh.app.EditCourtCase(id, patch), "updated")
	case practice.KindLetter:
		sh.result(sh.app.EditLetter(id, patch), "updated")
	case "task":
		sh.result(sh.app.UpdateTask(id, patch), "updated")
	default:
		sh.say("unknown kind %q", kind)
	}
}

func (sh *shell) remove(ctx context.Context, kind, id string) {
	var ok bool
	switch kind {
	case string(practice.KindTransaction):
		ok = sh.app.DeleteTransaction(ctx, id)
	case string(practice.KindCourtCase):
		ok = sh.app.DeleteCourtCase(ctx, id)
	case string(practice.KindLetter):
		ok = sh.app.DeleteLetter(ctx, id)
	case "task":
		ok = sh.app.DeleteTask(ctx, id)
	case "client":
		ok = sh.app.DeleteClient(ctx, id)
	case "invoice":
		ok = sh.app.DeleteInvoice(ctx, id)
	case "expense":
		ok = sh.app.DeleteExpense(ctx, id)
	case "user":
		ok = sh.app.DeleteUser(ctx, id)
	default:
		sh.say("unknown kind %q", kind)
		return
	}
	sh.result(ok, "deleted")
}

func (sh *shell) inbox() {
	u, ok := sh.app.CurrentUser()
	if !ok {
		sh.say("not logged in")
		return
	}
	for _, n := range sh.notes.ForUser(u.ID) {
		mark := " "
		if !n.Read {
			mark = "*"
		}
		line := fmt.Sprintf("%s %s  %s", mark, n.Date.Local().Format(time.DateTime), n.Message)
		if route, ok := n.Link().Route(); ok {
			line += "  " + route
		}
		sh.say("%s", line)
	}
}

func (sh *shell) board() {
	s := sh.app.Store()
	txs, cases, letters := s.Transactions.All(), s.CourtCases.All(), s.Letters.All()
	names := map[string]string{}
	for _, u := range s.Users.All() {
		names[u.ID] = u.Name
	}
	sh.table("LAWYER\tFILES\tBILLED\tPAID\tRATE\tSCORE", func(w io.Writer) {
		for _, m := range insight.Leaderboard(sh.app.Lawyers(), txs, cases, letters) {
			files := m.Workload.Transactions + m.Workload.Cases + m.Workload.Letters
			fmt.Fprintf(w, "%s\t%d\t%s\t%s\t%d%%\t%d\n", names[m.LawyerID], files,
				money(m.Finance.Billed), money(m.Finance.Paid), m.Finance.CollectionRate, m.Productivity.Score)
		}
	})
}
