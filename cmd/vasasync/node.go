package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/iudanet/vasasync/internal/cli"
	"github.com/iudanet/vasasync/internal/config"
	"github.com/iudanet/vasasync/internal/group"
	"github.com/iudanet/vasasync/internal/iocli"
	"github.com/iudanet/vasasync/internal/link"
	"github.com/iudanet/vasasync/internal/link/wslink"
	"github.com/iudanet/vasasync/internal/models"
	"github.com/iudanet/vasasync/internal/position"
	"github.com/iudanet/vasasync/internal/reconcile"
	"github.com/iudanet/vasasync/internal/storage"
	"github.com/iudanet/vasasync/internal/storage/boltdb"
	"github.com/iudanet/vasasync/internal/storage/memory"
	"github.com/iudanet/vasasync/internal/storage/sqlite"
	"github.com/iudanet/vasasync/internal/sync"
)

type role int

const (
	roleHost role = iota
	roleJoin
)

var errNoGroup = errors.New("group is required (--group or VASASYNC_GROUP)")

// nodeFlags override values loaded from the environment
type nodeFlags struct {
	seeds    []string
	admit    []string
	userID   string
	userName string
	group    string
	listen   string
	driver   string
	path     string
	logLevel string
	lat      float64
	lon      float64
	headless bool
}

func newHostCmd() *cobra.Command {
	f := &nodeFlags{}
	cmd := &cobra.Command{
		Use:   "host",
		Short: "Host a group and accept entries from nearby members",
		Example: `  vasasync host --user isak --group kiruna-2026 --lat 67.85 --lon 20.22
  vasasync host --group g1 --admit aslak@67.851,20.221 --admit ellen@67.9,20.3`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := f.load(cmd)
			if err != nil {
				return err
			}
			if cfg.Link.ListenAddr == "" {
				cfg.Link.ListenAddr = config.DefaultListenAddr
			}
			return runNode(cmd.Context(), cfg, roleHost, f)
		},
	}
	f.register(cmd)
	cmd.Flags().StringArrayVar(&f.admit, "admit", nil, "admit a member requesting from user@lat,lon (repeatable)")
	return cmd
}

func newJoinCmd() *cobra.Command {
	f := &nodeFlags{}
	cmd := &cobra.Command{
		Use:     "join",
		Short:   "Join a hosted group and hand over entries",
		Example: `  vasasync join --user aslak --group kiruna-2026 --peer 192.168.1.10:7070`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := f.load(cmd)
			if err != nil {
				return err
			}
			return runNode(cmd.Context(), cfg, roleJoin, f)
		},
	}
	f.register(cmd)
	return cmd
}

func (f *nodeFlags) register(cmd *cobra.Command) {
	flags := cmd.Flags()
	flags.StringVar(&f.userID, "user", "", "user id of this device")
	flags.StringVar(&f.userName, "name", "", "display name stored with entries")
	flags.StringVar(&f.group, "group", "", "group id")
	flags.StringVar(&f.listen, "listen", "", "address to serve links on")
	flags.StringSliceVar(&f.seeds, "peer", nil, "host:port of a device to look for (repeatable)")
	flags.StringVar(&f.driver, "store", "", "storage driver: bolt, sqlite or memory")
	flags.StringVar(&f.path, "db", "", "database file")
	flags.StringVar(&f.logLevel, "log-level", "", "debug, info, warn or error")
	flags.Float64Var(&f.lat, "lat", 0, "latitude of this device")
	flags.Float64Var(&f.lon, "lon", 0, "longitude of this device")
	flags.BoolVar(&f.headless, "headless", false, "do not read commands from stdin")
}

// load reads the env file and the environment, then applies flags that were set
func (f *nodeFlags) load(cmd *cobra.Command) (*config.Config, error) {
	flags := cmd.Flags()

	envFile, err := flags.GetString("env-file")
	if err != nil {
		return nil, err
	}
	cfg, err := config.Load(envFile)
	if err != nil {
		return nil, err
	}

	overrides := []struct {
		dst  *string
		name string
		val  string
	}{
		{&cfg.Node.UserID, "user", f.userID},
		{&cfg.Node.UserName, "name", f.userName},
		{&cfg.Node.Group, "group", f.group},
		{&cfg.Link.ListenAddr, "listen", f.listen},
		{&cfg.Store.Driver, "store", f.driver},
		{&cfg.Store.Path, "db", f.path},
		{&cfg.Log.Level, "log-level", f.logLevel},
	}
	for _, o := range overrides {
		if flags.Changed(o.name) {
			*o.dst = o.val
		}
	}
	if flags.Changed("peer") {
		cfg.Link.Seeds = f.seeds
	}
	if flags.Changed("lat") != flags.Changed("lon") {
		return nil, fmt.Errorf("%w: --lat and --lon go together", config.ErrInvalidConfig)
	}
	if flags.Changed("lat") {
		cfg.Location = config.LocationConfig{Latitude: f.lat, Longitude: f.lon, Set: true}
	}

	if cfg.Node.Group == "" {
		return nil, errNoGroup
	}
	if cfg.Node.UserName == "" {
		cfg.Node.UserName = cfg.Node.UserID
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// runNode wires a node and serves it until a signal, quit or end of input
func runNode(parent context.Context, cfg *config.Config, r role, f *nodeFlags) error {
	ctx, stop := signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
	defer stop()

	logger := newLogger(os.Stderr, cfg.LogLevel())

	kv, closeStore, err := openStore(ctx, cfg.Store)
	if err != nil {
		return err
	}
	defer closeStore()
	store := reconcile.NewStore(kv)

	transport := wslink.New(wslink.Config{
		ID:           cfg.Node.UserID,
		ListenAddr:   cfg.Link.ListenAddr,
		Seeds:        cfg.Link.Seeds,
		PollInterval: cfg.Link.PollInterval,
	}, logger)
	manager := link.NewManager(transport, logger,
		link.WithScanWindow(cfg.Link.ScanWindow),
		link.WithConnectTimeout(cfg.Link.ConnectTimeout),
	)

	var posOpts []position.StaticOption
	if cfg.Location.Set {
		posOpts = append(posOpts, position.WithFix(position.Coordinates{
			Latitude:  cfg.Location.Latitude,
			Longitude: cfg.Location.Longitude,
		}, cfg.Location.Accuracy))
	}
	pos := position.NewStatic(logger, posOpts...)

	engine := sync.New(manager, pos, store, logger, sync.WithConfig(cfg.EngineConfig()))
	defer func() {
		if err := engine.Destroy(); err != nil {
			logger.Error("Failed to destroy engine", "error", err)
		}
	}()
	events, _ := engine.Subscribe()

	if err := engine.Initialize(ctx, cfg.Node.UserID); err != nil {
		return fmt.Errorf("failed to initialize: %w", err)
	}

	groupID := cfg.Node.Group
	switch r {
	case roleHost:
		if err := engine.StartHosting(ctx, groupID); err != nil {
			return fmt.Errorf("failed to host group: %w", err)
		}
		if len(f.admit) > 0 {
			members := admitMembers(ctx, logger, position.NewGate(pos), groupID, cfg.Node.UserID, f.admit)
			engine.SetMembers(groupID, members)
		}
	case roleJoin:
		if len(cfg.Link.Seeds) == 0 {
			logger.Warn("No peers configured, nothing to scan", "group_id", groupID)
		}
		if err := engine.JoinGroup(ctx, groupID); err != nil {
			return fmt.Errorf("failed to join group: %w", err)
		}
	}

	console := iocli.NewStdio()
	session := cli.New(engine, store, console, cfg.Node.UserID, cfg.Node.UserName)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		session.Watch(events)
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		return engine.Destroy()
	})

	if !f.headless {
		// чтение stdin не отменяется контекстом, поэтому не в errgroup
		go func() {
			if err := session.Run(gctx); err != nil {
				logger.Error("Console failed", "error", err)
			}
			stop()
		}()
	}

	return g.Wait()
}

func openStore(ctx context.Context, cfg config.StoreConfig) (storage.KV, func(), error) {
	switch cfg.Driver {
	case config.DriverBolt:
		s, err := boltdb.New(ctx, cfg.Path)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to open store: %w", err)
		}
		return s, func() { _ = s.Close() }, nil
	case config.DriverSQLite:
		s, err := sqlite.New(ctx, cfg.Path)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to open store: %w", err)
		}
		return s, func() { _ = s.Close() }, nil
	default:
		return memory.New(), func() {}, nil
	}
}

// admitMembers runs join requests given as user@lat,lon through the
// proximity gate. The owner is always part of the returned member list.
func admitMembers(ctx context.Context, logger *slog.Logger, gate group.ProximityChecker, groupID, ownerID string, requests []string) []string {
	g := &models.Group{
		ID:        groupID,
		OwnerID:   ownerID,
		Active:    true,
		CreatedAt: time.Now().UTC(),
	}
	admission := group.NewAdmission(gate, logger)

	for _, req := range requests {
		userID, loc, err := parseJoinRequest(req)
		if err != nil {
			logger.Warn("Skipping join request", "request", req, "error", err)
			continue
		}
		if err := admission.RequestJoin(g, userID, userID, loc); err != nil {
			logger.Warn("Join request refused", "user_id", userID, "error", err)
			continue
		}
		if err := admission.Admit(ctx, g, userID); err != nil {
			logger.Warn("Member not admitted", "user_id", userID, "error", err)
		}
	}

	return append([]string{ownerID}, g.Members...)
}

// parseJoinRequest разбирает строку вида user@lat,lon
func parseJoinRequest(s string) (string, *models.Location, error) {
	userID, coords, ok := strings.Cut(s, "@")
	if !ok || userID == "" {
		return "", nil, fmt.Errorf("expected user@lat,lon, got %q", s)
	}
	latStr, lonStr, ok := strings.Cut(coords, ",")
	if !ok {
		return "", nil, fmt.Errorf("expected user@lat,lon, got %q", s)
	}

	lat, err := strconv.ParseFloat(strings.TrimSpace(latStr), 64)
	if err != nil {
		return "", nil, fmt.Errorf("invalid latitude: %w", err)
	}
	lon, err := strconv.ParseFloat(strings.TrimSpace(lonStr), 64)
	if err != nil {
		return "", nil, fmt.Errorf("invalid longitude: %w", err)
	}
	return userID, &models.Location{Latitude: lat, Longitude: lon}, nil
}
