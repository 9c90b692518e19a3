// Command fleetctl inspects service reminders and administers the
// maintenance store from the command line.
package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/ukydev/fleet-maintenance/internal/config"
	"github.com/ukydev/fleet-maintenance/internal/db"
	"github.com/ukydev/fleet-maintenance/internal/fixture"
	"github.com/ukydev/fleet-maintenance/internal/reminders"
)

var (
	green  = color.New(color.FgGreen).SprintFunc()
	yellow = color.New(color.FgYellow).SprintFunc()
	red    = color.New(color.FgRed).SprintFunc()
	gray   = color.New(color.FgHiBlack).SprintFunc()
	bold   = color.New(color.Bold).SprintFunc()
)

// cli holds flags shared by every command.
type cli struct {
	out         io.Writer
	fixturePath string
	asJSON      bool
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd(os.Stdout).ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, red("Error: "+err.Error()))
		os.Exit(1)
	}
}

func newRootCmd(out io.Writer) *cobra.Command {
	c := &cli{out: out}
	root := &cobra.Command{
		Use:   "fleetctl",
		Short: "Fleet service reminder tooling",
		Long: fmt.Sprintf(`%s

Reads from MongoDB using the same environment as the API server
(MONGO_URI, MONGO_DB, JWT_SECRET, ...), or from a YAML fixture with --fixture.

%s
  fleetctl reminders list --status overdue
  fleetctl reminders summary --fixture fleet.yaml
  fleetctl seed --fixture fleet.yaml
  fleetctl clients add reporting --role viewer --secret '...'
  fleetctl token ops --role admin`,
			bold("fleetctl"), bold("Examples:")),
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.SetOut(out)
	root.PersistentFlags().StringVar(&c.fixturePath, "fixture", "", "read data from a YAML fixture instead of MongoDB")
	root.PersistentFlags().BoolVar(&c.asJSON, "json", false, "print JSON instead of a table")

	root.AddCommand(
		c.remindersCmd(),
		c.seedCmd(),
		c.clientsCmd(),
		c.tokenCmd(),
		c.hashSecretCmd(),
	)
	return root
}

// connect opens the configured Mongo database. The returned func disconnects.
func connect(ctx context.Context) (*config.Config, *mongo.Database, func(), error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, nil, err
	}
	client, err := db.ConnectMongo(ctx, cfg.MongoURI, cfg.MongoTimeout)
	if err != nil {
		return nil, nil, nil, err
	}
	closeFn := func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = client.Disconnect(ctx)
	}
	return cfg, client.Database(cfg.MongoDB), closeFn, nil
}

// engine builds a reminder engine over the fixture or Mongo. A fixture that
// pins "now" evaluates at that instant.
func (c *cli) engine(ctx context.Context) (*reminders.Engine, func(), error) {
	if c.fixturePath != "" {
		src, err := fixture.Load(c.fixturePath)
		if err != nil {
			return nil, nil, err
		}
		var opts []reminders.Option
		if now, ok := src.Now(); ok {
			opts = append(opts, reminders.WithClock(func() time.Time { return now }))
		}
		return reminders.NewEngine(src, opts...), func() {}, nil
	}

	cfg, database, closeFn, err := connect(ctx)
	if err != nil {
		return nil, nil, err
	}
	store := db.NewMaintenanceStoreFromDatabase(database)
	return reminders.NewEngine(store, reminders.WithWorkers(cfg.EvaluationWorkers)), closeFn, nil
}
