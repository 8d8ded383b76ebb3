package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"text/tabwriter"

	"github.com/jmoiron/sqlx"
	"github.com/urfave/cli"
	"go.uber.org/zap"

	"github.com/noah-isme/reschedule-api/internal/dto"
	"github.com/noah-isme/reschedule-api/internal/repository"
	"github.com/noah-isme/reschedule-api/internal/service"
	"github.com/noah-isme/reschedule-api/pkg/cache"
	"github.com/noah-isme/reschedule-api/pkg/config"
	"github.com/noah-isme/reschedule-api/pkg/database"
	"github.com/noah-isme/reschedule-api/pkg/logger"
)

var changeRequestFlag = &cli.StringFlag{
	Name:     "change-request",
	Usage:    "Change request identifier",
	Required: true,
}

var GenerateCmd = cli.Command{
	Name:  "generate",
	Usage: "Computes and stores room recommendations for a change request",
	Flags: []cli.Flag{
		changeRequestFlag,
		&cli.StringFlag{Name: "user1", Usage: "First negotiating user", Required: true},
		&cli.StringFlag{Name: "user2", Usage: "Second negotiating user", Required: true},
		&cli.BoolFlag{Name: "replace", Usage: "Drop stored recommendations before inserting"},
	},
	Action: withService(func(c *cli.Context, svc recommendationOperator) error {
		resp, err := svc.Generate(context.Background(), c.String("change-request"), dto.GenerateRecommendationsRequest{
			User1ID: c.String("user1"),
			User2ID: c.String("user2"),
			Replace: c.Bool("replace"),
		})
		if err != nil {
			return err
		}
		fmt.Fprintf(c.App.Writer, "created %d recommendations from %d common slots\n", resp.CreatedCount, resp.CandidateCount)
		return nil
	}),
}

var ListCmd = cli.Command{
	Name:  "list",
	Usage: "Lists stored recommendations of a change request",
	Flags: []cli.Flag{changeRequestFlag},
	Action: withService(func(c *cli.Context, svc recommendationOperator) error {
		views, err := svc.List(context.Background(), c.String("change-request"))
		if err != nil {
			return err
		}
		return writeRecommendations(c.App.Writer, views)
	}),
}

var ClearCmd = cli.Command{
	Name:  "clear",
	Usage: "Deletes every stored recommendation of a change request",
	Flags: []cli.Flag{changeRequestFlag},
	Action: withService(func(c *cli.Context, svc recommendationOperator) error {
		deleted, err := svc.Clear(context.Background(), c.String("change-request"))
		if err != nil {
			return err
		}
		fmt.Fprintf(c.App.Writer, "deleted %d recommendations\n", deleted)
		return nil
	}),
}

var ExportCmd = cli.Command{
	Name:  "export",
	Usage: "Writes stored recommendations as csv or pdf",
	Flags: []cli.Flag{
		changeRequestFlag,
		&cli.StringFlag{Name: "format", Usage: "csv or pdf", Value: "csv"},
		&cli.StringFlag{Name: "out", Usage: "Output file, defaults to the suggested file name"},
	},
	Action: withService(func(c *cli.Context, svc recommendationOperator) error {
		file, err := svc.Export(context.Background(), c.String("change-request"), c.String("format"))
		if err != nil {
			return err
		}
		path := c.String("out")
		if path == "" {
			path = file.Filename
		}
		if err := os.WriteFile(path, file.Payload, 0o644); err != nil {
			return fmt.Errorf("write %s: %w", path, err)
		}
		fmt.Fprintf(c.App.Writer, "wrote %s\n", path)
		return nil
	}),
}

func writeRecommendations(w io.Writer, views []dto.RecommendationView) error {
	if len(views) == 0 {
		_, err := fmt.Fprintln(w, "nothing found")
		return err
	}
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "DAY\tSLOT\tROOM\tID")
	for _, v := range views {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", v.Day, v.SlotID, v.RoomID, v.ID)
	}
	return tw.Flush()
}

type recommendationOperator interface {
	Generate(ctx context.Context, changeRequestID string, req dto.GenerateRecommendationsRequest) (*dto.GenerateRecommendationsResponse, error)
	List(ctx context.Context, changeRequestID string) ([]dto.RecommendationView, error)
	Clear(ctx context.Context, changeRequestID string) (int64, error)
	Export(ctx context.Context, changeRequestID, format string) (*dto.ExportFile, error)
}

// openService is replaced in tests.
var openService = openRecommendationService

func withService(action func(*cli.Context, recommendationOperator) error) func(*cli.Context) error {
	return func(c *cli.Context) error {
		svc, closeFn, err := openService(c)
		if err != nil {
			return err
		}
		defer closeFn()
		return action(c, svc)
	}
}

// openRecommendationService builds the recommendation service against the
// configured database. When the recommendation cache is enabled the CLI
// shares the API's Redis so its writes drop the cached lists.
func openRecommendationService(c *cli.Context) (recommendationOperator, func(), error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, fmt.Errorf("load config: %w", err)
	}
	if c.GlobalBool("debug") {
		cfg.Log.Level = "debug"
	}
	cfg.Log.Format = "console"
	logr, err := logger.New(cfg)
	if err != nil {
		return nil, nil, fmt.Errorf("init logger: %w", err)
	}
	logr = logr.With(zap.String("component", appName))

	db, err := database.NewPostgres(cfg.Database)
	if err != nil {
		_ = logr.Sync()
		return nil, nil, err
	}

	client, err := cache.Connect(context.Background(), cfg.Recommendations.CacheEnabled, cfg.Redis)
	if err != nil {
		logr.Warn("redis unavailable, cached recommendation lists are not invalidated", zap.Error(err))
	}
	cacheRepo := repository.NewCacheRepository(client)
	cacheSvc := service.NewCacheService(cacheRepo, nil, cfg.Recommendations.CacheTTL, logr, client != nil)

	closeFn := func() {
		_ = cacheRepo.Close()
		_ = db.Close()
		_ = logr.Sync()
	}
	return newRecommendationService(db, cacheSvc, cfg, logr), closeFn, nil
}

func newRecommendationService(db *sqlx.DB, cacheSvc *service.CacheService, cfg *config.Config, logr *zap.Logger) *service.RecommendationService {
	rooms := repository.NewRoomRepository(db)
	return service.NewRecommendationService(
		repository.NewChangeRequestRepository(db),
		repository.NewUserRepository(db),
		repository.NewAvailabilityRepository(db),
		rooms,
		service.NewRoomFilter(rooms, nil),
		repository.NewRecommendationRepository(db),
		db,
		cacheSvc,
		nil,
		nil,
		logr,
		service.RecommendationConfig{Isolation: database.IsolationLevel(cfg.Recommendations.Isolation)},
	)
}
