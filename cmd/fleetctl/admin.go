package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/ukydev/fleet-maintenance/internal/auth"
	"github.com/ukydev/fleet-maintenance/internal/config"
	"github.com/ukydev/fleet-maintenance/internal/db"
	"github.com/ukydev/fleet-maintenance/internal/fixture"
	"github.com/ukydev/fleet-maintenance/internal/models"
)

// seedStore is the subset of the maintenance store used by seed.
type seedStore interface {
	InsertProgram(ctx context.Context, p *models.ServiceProgram) error
	InsertTask(ctx context.Context, t *models.ServiceTask) error
	InsertVehicle(ctx context.Context, v *models.Vehicle) error
	CreateSchedule(ctx context.Context, s *models.ServiceSchedule) error
	Enroll(ctx context.Context, e models.ProgramEnrollment) error
}

type seedReport struct {
	Programs, Tasks, Vehicles, Schedules, Enrollments int
	// Invalid counts schedules rejected by validation.
	Invalid int
}

// seed copies a fixture into store. Invalid schedules are reported and
// skipped; any other error stops the import.
func seed(ctx context.Context, store seedStore, src *fixture.Source) (seedReport, error) {
	var rep seedReport
	for _, p := range src.Programs() {
		if err := store.InsertProgram(ctx, &p); err != nil {
			return rep, fmt.Errorf("program %q: %w", p.Name, err)
		}
		rep.Programs++
	}
	for _, t := range src.Tasks() {
		if err := store.InsertTask(ctx, &t); err != nil {
			return rep, fmt.Errorf("task %q: %w", t.Name, err)
		}
		rep.Tasks++
	}
	vehicles, err := src.ListVehicles(ctx)
	if err != nil {
		return rep, err
	}
	for _, v := range vehicles {
		if err := store.InsertVehicle(ctx, &v); err != nil {
			return rep, fmt.Errorf("vehicle %q: %w", v.DisplayName(), err)
		}
		rep.Vehicles++
	}
	for _, s := range src.AllSchedules() {
		err := store.CreateSchedule(ctx, &s)
		if errors.Is(err, models.ErrInvalidConfiguration) {
			log.WithError(err).WithField("schedule", s.Name).Warn("Skipping invalid schedule")
			rep.Invalid++
			continue
		}
		if err != nil {
			return rep, fmt.Errorf("schedule %q: %w", s.Name, err)
		}
		rep.Schedules++
	}
	enrollments, err := src.ListEnrollments(ctx)
	if err != nil {
		return rep, err
	}
	for _, e := range enrollments {
		if err := store.Enroll(ctx, e); err != nil {
			return rep, fmt.Errorf("enrollment %s/%s: %w", e.VehicleID.Hex(), e.ProgramID.Hex(), err)
		}
		rep.Enrollments++
	}
	return rep, nil
}

func (c *cli) seedCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "seed",
		Short: "Import a YAML fixture into MongoDB",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if c.fixturePath == "" {
				return errors.New("--fixture is required")
			}
			src, err := fixture.Load(c.fixturePath)
			if err != nil {
				return err
			}
			_, database, closeFn, err := connect(cmd.Context())
			if err != nil {
				return err
			}
			defer closeFn()

			rep, err := seed(cmd.Context(), db.NewMaintenanceStoreFromDatabase(database), src)
			if err != nil {
				return err
			}
			printSeedReport(c.out, rep)
			return nil
		},
	}
}

func printSeedReport(w io.Writer, rep seedReport) {
	fmt.Fprintf(w, "%s %d programs, %d tasks, %d vehicles, %d schedules, %d enrollments\n",
		green("Seeded"), rep.Programs, rep.Tasks, rep.Vehicles, rep.Schedules, rep.Enrollments)
	if rep.Invalid > 0 {
		fmt.Fprintln(w, yellow(fmt.Sprintf("Skipped %d invalid schedules", rep.Invalid)))
	}
}

// clientStore is the subset of db.ClientCollection used by the clients commands.
type clientStore interface {
	FindClient(ctx context.Context, id string) (*models.APIClient, error)
	SaveClient(ctx context.Context, client models.APIClient) error
}

func addClient(ctx context.Context, store clientStore, id, secret string, role models.Role) error {
	if !models.IsValidRole(role) {
		return fmt.Errorf("invalid role %q", role)
	}
	hash, err := auth.HashSecret(secret)
	if err != nil {
		return err
	}
	return store.SaveClient(ctx, models.APIClient{ID: id, SecretHash: hash, Role: role})
}

func setClientDisabled(ctx context.Context, store clientStore, id string, disabled bool) error {
	client, err := store.FindClient(ctx, id)
	if err != nil {
		return err
	}
	client.Disabled = disabled
	return store.SaveClient(ctx, *client)
}

func (c *cli) clientsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "clients",
		Short: "Manage API clients stored in MongoDB",
	}

	withClients := func(ctx context.Context, fn func(clientStore) error) error {
		_, database, closeFn, err := connect(ctx)
		if err != nil {
			return err
		}
		defer closeFn()
		return fn(&db.ClientCollection{Collection: &db.MongoCollection{Collection: database.Collection(db.ClientsCollection)}})
	}

	var secret, role string
	add := &cobra.Command{
		Use:   "add <client-id>",
		Short: "Create a client or rotate its secret",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			err := withClients(cmd.Context(), func(s clientStore) error {
				return addClient(cmd.Context(), s, args[0], secret, models.Role(role))
			})
			if err != nil {
				return err
			}
			fmt.Fprintf(c.out, "%s client %s (%s)\n", green("Saved"), bold(args[0]), role)
			return nil
		},
	}
	add.Flags().StringVar(&secret, "secret", "", "client secret (at least 12 characters)")
	add.Flags().StringVar(&role, "role", string(models.RoleViewer), "admin, manager, operator or viewer")
	_ = add.MarkFlagRequired("secret")

	toggle := func(use, short string, disabled bool) *cobra.Command {
		return &cobra.Command{
			Use:   use + " <client-id>",
			Short: short,
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				err := withClients(cmd.Context(), func(s clientStore) error {
					return setClientDisabled(cmd.Context(), s, args[0], disabled)
				})
				if err != nil {
					return err
				}
				fmt.Fprintf(c.out, "%s client %s\n", green(use+"d"), bold(args[0]))
				return nil
			},
		}
	}

	cmd.AddCommand(add,
		toggle("disable", "Stop a client from requesting tokens", true),
		toggle("enable", "Allow a disabled client to request tokens again", false),
	)
	return cmd
}

func (c *cli) tokenCmd() *cobra.Command {
	var role string
	cmd := &cobra.Command{
		Use:   "token <subject>",
		Short: "Sign an access token with the configured JWT secret",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if !models.IsValidRole(models.Role(role)) {
				return fmt.Errorf("invalid role %q", role)
			}
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			if cfg.UsesDefaultSecret() {
				fmt.Fprintln(cmd.ErrOrStderr(), yellow("Warning: JWT_SECRET is not set; the token is signed with the development default"))
			}
			svc, err := auth.NewService(cfg.JWTSecret, cfg.JWTExpiry)
			if err != nil {
				return err
			}
			token, exp, err := svc.GenerateToken(args[0], models.Role(role))
			if err != nil {
				return err
			}
			fmt.Fprintln(c.out, token)
			fmt.Fprintln(cmd.ErrOrStderr(), gray("expires "+exp.Format(time.RFC3339)))
			return nil
		},
	}
	cmd.Flags().StringVar(&role, "role", string(models.RoleViewer), "admin, manager, operator or viewer")
	return cmd
}

func (c *cli) hashSecretCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "hash-secret <secret>",
		Short: "Print the bcrypt hash of a client secret for API_CLIENTS",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			hash, err := auth.HashSecret(args[0])
			if err != nil {
				return err
			}
			fmt.Fprintln(c.out, hash)
			return nil
		},
	}
}
