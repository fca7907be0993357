// internal/app/bootstrap/startup.go
package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/dalemusser/fiveplanner/internal/app/resources"
	"github.com/dalemusser/fiveplanner/internal/app/store/confirmations"
	"github.com/dalemusser/fiveplanner/internal/app/store/oauthstate"
	"github.com/dalemusser/fiveplanner/internal/app/system/availapi"
	"github.com/dalemusser/fiveplanner/internal/app/system/ratelimit"
	"github.com/dalemusser/fiveplanner/internal/app/system/svctoken"
	"github.com/dalemusser/fiveplanner/internal/app/system/tasks"
	"github.com/dalemusser/waffle/config"
	"go.uber.org/zap"
)

var errNoServices = errors.New("bootstrap: DBDeps.Services is nil; ConnectDB must run first")

// Startup runs one-time application initialization after DB connections and
// schema setup are complete, but before the HTTP handler is built. It loads
// shared templates, builds the availability client and limiters, and starts
// the cleanup jobs.
func Startup(ctx context.Context, coreCfg *config.CoreConfig, appCfg AppConfig, deps DBDeps, logger *zap.Logger) error {
	if deps.Services == nil {
		return errNoServices
	}
	resources.LoadSharedTemplates()

	svc, err := buildServices(appCfg, logger)
	if err != nil {
		return err
	}
	*deps.Services = *svc

	sched := tasks.New(logger.Named("tasks"))
	jobs := []tasks.Job{
		tasks.OAuthStateCleanupJob(oauthstate.New(deps.MongoDatabase), logger),
		tasks.ConfirmationCleanupJob(confirmations.New(deps.MongoDatabase), logger),
		tasks.RateLimitSweepJob(logger, svc.LoginLimiter, svc.PlannerLimiter),
	}
	for _, j := range jobs {
		if err := sched.Add(j); err != nil {
			return err
		}
	}
	sched.Start()
	deps.Services.Scheduler = sched
	return nil
}

// buildServices creates everything in Services except the scheduler.
func buildServices(appCfg AppConfig, logger *zap.Logger) (*Services, error) {
	loc, err := time.LoadLocation(appCfg.TimeZone)
	if err != nil {
		return nil, fmt.Errorf("load time zone: %w", err)
	}

	issuer, err := svctoken.NewIssuer(appCfg.ServiceTokenSecret, appCfg.ServiceTokenTTL)
	if err != nil {
		return nil, err
	}
	avail, err := availapi.New(availapi.Config{
		BaseURL:    appCfg.AvailabilityAPIURL,
		RatePerSec: float64(appCfg.APIRatePerSec),
		Burst:      appCfg.APIBurst,
	}, issuer, logger.Named("availapi"))
	if err != nil {
		return nil, err
	}

	return &Services{
		Availability:   avail,
		Location:       loc,
		LoginLimiter:   ratelimit.New(appCfg.LoginPerMinute, appCfg.LoginBurst),
		PlannerLimiter: ratelimit.New(appCfg.PlannerPerMinute, appCfg.PlannerBurst),
	}, nil
}
