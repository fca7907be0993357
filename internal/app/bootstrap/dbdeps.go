// internal/app/bootstrap/dbdeps.go
package bootstrap

import (
	"time"

	"github.com/dalemusser/fiveplanner/internal/app/system/availapi"
	"github.com/dalemusser/fiveplanner/internal/app/system/ratelimit"
	"github.com/dalemusser/fiveplanner/internal/app/system/tasks"
	"go.mongodb.org/mongo-driver/mongo"
)

// DBDeps holds database/back-end dependencies for the app.
type DBDeps struct {
	MongoClient   *mongo.Client
	MongoDatabase *mongo.Database

	// Services is allocated by ConnectDB, filled by Startup and read by
	// BuildHandler and Shutdown.
	Services *Services
}

// Services are the long-lived collaborators built once at startup.
type Services struct {
	Availability   *availapi.Service
	Location       *time.Location
	LoginLimiter   *ratelimit.Limiter
	PlannerLimiter *ratelimit.Limiter
	Scheduler      *tasks.Scheduler
}
