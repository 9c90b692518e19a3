package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"
	"testing"

	"github.com/fatih/color"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ukydev/fleet-maintenance/internal/auth"
	"github.com/ukydev/fleet-maintenance/internal/fixture"
	"github.com/ukydev/fleet-maintenance/internal/models"
	"github.com/ukydev/fleet-maintenance/internal/reminders"
)

const fleetFixture = "../../internal/fixture/testdata/fleet.yaml"

func TestMain(m *testing.M) {
	color.NoColor = true
	os.Exit(m.Run())
}

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	cmd := newRootCmd(&out)
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs(args)
	err := cmd.ExecuteContext(context.Background())
	return out.String(), err
}

func TestRemindersList_Fixture(t *testing.T) {
	out, err := run(t, "reminders", "list", "--fixture", fleetFixture, "--status", "overdue")
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSpace(out), "\n")
	require.Len(t, lines, 4)
	assert.True(t, strings.HasPrefix(lines[0], "VEHICLE"))
	assert.Contains(t, lines[1], "2023 Tesla Model 3")
	assert.Contains(t, lines[1], "CRITICAL")
	assert.Contains(t, lines[2], "Iveco Daily")
	assert.Contains(t, lines[2], "74.30")
	assert.Equal(t, "Page 1 of 1, 2 reminders", lines[3])
}

func TestRemindersList_JSON(t *testing.T) {
	out, err := run(t, "reminders", "list", "--fixture", fleetFixture, "--json", "--page-size", "2", "--page", "2")
	require.NoError(t, err)

	var page models.Page[models.ServiceReminder]
	require.NoError(t, json.Unmarshal([]byte(out), &page))
	assert.Equal(t, 5, page.TotalCount)
	assert.Equal(t, 3, page.TotalPages)
	assert.Len(t, page.Items, 2)
	assert.True(t, page.HasPreviousPage)
	assert.True(t, page.HasNextPage)
}

func TestRemindersList_BadFlags(t *testing.T) {
	_, err := run(t, "reminders", "list", "--fixture", fleetFixture, "--status", "late")
	assert.ErrorContains(t, err, "unknown status")

	_, err = run(t, "reminders", "list", "--fixture", fleetFixture, "--page-size", "500")
	assert.ErrorIs(t, err, reminders.ErrBadRequest)

	_, err = run(t, "reminders", "list", "--fixture", fleetFixture, "--vehicle", "nope")
	assert.ErrorContains(t, err, "invalid vehicle id")
}

func TestRemindersSummary_Fixture(t *testing.T) {
	out, err := run(t, "reminders", "summary", "--fixture", fleetFixture)
	require.NoError(t, err)
	assert.Contains(t, out, "Summary: 5 reminders at 2024-06-01 00:00 UTC")
	assert.Contains(t, out, "critical=1 high=1 medium=1 low=2")

	out, err = run(t, "reminders", "summary", "--fixture", fleetFixture, "--json")
	require.NoError(t, err)
	var s reminders.Summary
	require.NoError(t, json.Unmarshal([]byte(out), &s))
	assert.Equal(t, 5, s.Total)
	assert.Equal(t, 2, s.ByStatus[models.StatusOverdue])
}

func TestRenderPage_Empty(t *testing.T) {
	var buf bytes.Buffer
	renderPage(&buf, &models.Page[models.ServiceReminder]{PageNumber: 1, PageSize: 20})
	assert.Equal(t, "No reminders.\n", buf.String())
}

func TestDueColumns(t *testing.T) {
	days := -3
	variance := 120.0
	due := 15000.0
	date, mileage := dueColumns(models.ServiceReminder{DaysUntilDue: &days, DueMileage: &due, MileageVariance: &variance})
	assert.Equal(t, "-", date)
	assert.Equal(t, "15000 (+120)", mileage)
}

func TestHashSecret(t *testing.T) {
	out, err := run(t, "hash-secret", "a-long-enough-secret")
	require.NoError(t, err)
	assert.True(t, auth.CheckSecret("a-long-enough-secret", strings.TrimSpace(out)))

	_, err = run(t, "hash-secret", "short")
	assert.Error(t, err)
}

func TestSeedRequiresFixture(t *testing.T) {
	_, err := run(t, "seed")
	assert.ErrorContains(t, err, "--fixture is required")
}

type fakeSeedStore struct {
	programs, tasks, vehicles []string
	schedules                 []*models.ServiceSchedule
	enrollments               []models.ProgramEnrollment
	rejectSchedule            string
	failVehicles              error
}

func (f *fakeSeedStore) InsertProgram(_ context.Context, p *models.ServiceProgram) error {
	f.programs = append(f.programs, p.Name)
	return nil
}

func (f *fakeSeedStore) InsertTask(_ context.Context, t *models.ServiceTask) error {
	f.tasks = append(f.tasks, t.Name)
	return nil
}

func (f *fakeSeedStore) InsertVehicle(_ context.Context, v *models.Vehicle) error {
	if f.failVehicles != nil {
		return f.failVehicles
	}
	f.vehicles = append(f.vehicles, v.DisplayName())
	return nil
}

func (f *fakeSeedStore) CreateSchedule(_ context.Context, s *models.ServiceSchedule) error {
	if s.Name == f.rejectSchedule {
		return fmt.Errorf("%w: rejected", models.ErrInvalidConfiguration)
	}
	f.schedules = append(f.schedules, s)
	return nil
}

func (f *fakeSeedStore) Enroll(_ context.Context, e models.ProgramEnrollment) error {
	f.enrollments = append(f.enrollments, e)
	return nil
}

func TestSeed(t *testing.T) {
	src, err := fixture.Load(fleetFixture)
	require.NoError(t, err)

	store := &fakeSeedStore{rejectSchedule: "Paused check"}
	rep, err := seed(context.Background(), store, src)
	require.NoError(t, err)

	assert.Equal(t, seedReport{Programs: 2, Tasks: 4, Vehicles: 3, Schedules: 3, Enrollments: 3, Invalid: 1}, rep)
	assert.Equal(t, []string{"Van maintenance", "Car maintenance"}, store.programs)
	assert.Equal(t, fixture.ID("schedule", "van-oil"), store.schedules[0].ID)

	var buf bytes.Buffer
	printSeedReport(&buf, rep)
	assert.Equal(t, "Seeded 2 programs, 4 tasks, 3 vehicles, 3 schedules, 3 enrollments\nSkipped 1 invalid schedules\n", buf.String())
}

func TestSeed_StopsOnStoreError(t *testing.T) {
	src, err := fixture.Load(fleetFixture)
	require.NoError(t, err)

	store := &fakeSeedStore{failVehicles: errors.New("write failed")}
	rep, err := seed(context.Background(), store, src)
	assert.ErrorContains(t, err, "write failed")
	assert.Equal(t, 0, rep.Vehicles)
	assert.Empty(t, store.schedules)
}

type fakeClientStore struct {
	clients map[string]models.APIClient
}

func (f *fakeClientStore) FindClient(_ context.Context, id string) (*models.APIClient, error) {
	c, ok := f.clients[id]
	if !ok {
		return nil, models.ErrNotFound
	}
	return &c, nil
}

func (f *fakeClientStore) SaveClient(_ context.Context, c models.APIClient) error {
	f.clients[c.ID] = c
	return nil
}

func TestClientAdministration(t *testing.T) {
	store := &fakeClientStore{clients: map[string]models.APIClient{}}
	ctx := context.Background()

	require.NoError(t, addClient(ctx, store, "reporting", "reporting-secret", models.RoleViewer))
	saved := store.clients["reporting"]
	assert.Equal(t, models.RoleViewer, saved.Role)
	assert.True(t, auth.CheckSecret("reporting-secret", saved.SecretHash))

	require.NoError(t, setClientDisabled(ctx, store, "reporting", true))
	assert.True(t, store.clients["reporting"].Disabled)
	assert.Equal(t, saved.SecretHash, store.clients["reporting"].SecretHash)

	assert.ErrorIs(t, setClientDisabled(ctx, store, "ghost", true), models.ErrNotFound)
	assert.Error(t, addClient(ctx, store, "x", "reporting-secret", models.Role("root")))
	assert.Error(t, addClient(ctx, store, "x", "short", models.RoleViewer))
}
