package main

import (
	"context"
	"fmt"
	"io"
	"os"

	customersrepo "crm_backend/internal/customers/repository"
	"crm_backend/internal/dataio"
	dealsrepo "crm_backend/internal/deals/repository"
	"crm_backend/internal/domain"
	"crm_backend/internal/events"
	scoringservice "crm_backend/internal/scoring/service"
	segmentationservice "crm_backend/internal/segmentation/service"
	"crm_backend/platform/cache"
	"crm_backend/platform/config"
	"crm_backend/platform/db"
	"crm_backend/platform/logger"
	"crm_backend/platform/phone"
)

// env is the wiring shared by every command.
type env struct {
	cfg  *config.Config
	conn *db.DB
	bus  *events.InMemoryBus
	log  *logger.Logger
}

func withEnv(ctx context.Context, cfg *config.Config, log *logger.Logger, fn func(e *env) error) error {
	conn, err := db.Open(ctx, cfg)
	if err != nil {
		return err
	}
	defer conn.Close()

	bus := events.NewInMemoryBus(log)
	defer bus.Wait()

	return fn(&env{cfg: cfg, conn: conn, bus: bus, log: log})
}

func cmdMigrate(ctx context.Context, e *env, w io.Writer) error {
	if err := db.Migrate(ctx, e.conn); err != nil {
		return err
	}
	version, err := db.MigrationVersion(ctx, e.conn)
	if err != nil {
		return err
	}
	fmt.Fprintf(w, "schema at version %d (%s)\n", version, e.conn.Dialect())
	return nil
}

func cmdScore(ctx context.Context, e *env, top int, w io.Writer) error {
	svc := scoringservice.New(e.conn, e.bus, e.log)
	result, err := svc.Run(ctx, scoringservice.TriggerCLI)
	if err != nil {
		return err
	}
	renderScores(w, scoringservice.ToRunResponse(result), top)
	return nil
}

func cmdSegment(ctx context.Context, e *env, w io.Writer) error {
	svc := segmentationservice.New(customersrepo.New(e.conn), dealsrepo.New(e.conn), cache.Nop{}, 0, e.log)
	resp, err := svc.Segment(ctx)
	if err != nil {
		return err
	}
	renderSegments(w, resp)
	return nil
}

func cmdExport(ctx context.Context, e *env, entity, path string, stdout, stderr io.Writer) error {
	out := stdout
	if path != "" {
		f, err := os.Create(path)
		if err != nil {
			return err
		}
		defer f.Close()
		out = f
	}

	svc := dataio.NewService(e.conn, domain.NewValidator(), e.bus, phone.NewNormalizer(e.cfg.GetPhoneDefaultRegion()), e.log)
	n, err := svc.Export(ctx, entity, out)
	if err != nil {
		return err
	}
	fmt.Fprintf(stderr, "exported %d %s\n", n, entity)
	return nil
}

func cmdImport(ctx context.Context, e *env, entity, path string, w io.Writer) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()

	svc := dataio.NewService(e.conn, domain.NewValidator(), e.bus, phone.NewNormalizer(e.cfg.GetPhoneDefaultRegion()), e.log)
	result, err := svc.Import(ctx, entity, f)
	if err != nil {
		return err
	}
	fmt.Fprintf(w, "imported %d %s\n", result.Imported, result.Entity)
	return nil
}
