package bootstrap

import (
	fbauth "firebase.google.com/go/v4/auth"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"

	httpapi "github.com/atelier-ai/atelier-backend/internal/api/http"
	"github.com/atelier-ai/atelier-backend/internal/api/http/middleware"
	"github.com/atelier-ai/atelier-backend/internal/archive"
	"github.com/atelier-ai/atelier-backend/internal/auth"
	authmw "github.com/atelier-ai/atelier-backend/internal/auth/middleware"
	"github.com/atelier-ai/atelier-backend/internal/gateway"
	"github.com/atelier-ai/atelier-backend/internal/studio/generate"
	studiohttp "github.com/atelier-ai/atelier-backend/internal/studio/http"
	"github.com/atelier-ai/atelier-backend/internal/studio/refine"
	"github.com/atelier-ai/atelier-backend/internal/studio/session"
	"github.com/atelier-ai/atelier-backend/internal/users"
)

type RouterDeps struct {
	ServiceName string
	Version     string
	Redis       *redis.Client
	DB          *pgxpool.Pool
	Archive     *archive.Repo
	Generator   gateway.Generator
	// FirebaseAuth is optional; when nil the X-User-Id fallback applies.
	FirebaseAuth *fbauth.Client
}

func BuildRouter(dep RouterDeps) *gin.Engine {
	r := gin.Default()
	r.Use(cors.Default())
	r.Use(middleware.RequestID())

	healthHandler := httpapi.NewHealthHandler(dep.ServiceName, dep.Version, dep.Redis, dep.DB)
	healthHandler.RegisterRoutes(r)

	api := r.Group("/api/v1")

	if dep.FirebaseAuth != nil {
		api.Use(authmw.FirebaseAuth(dep.FirebaseAuth))
	}
	if dep.DB != nil {
		api.Use(auth.WithUser(users.NewRepo(dep.DB)))
	}

	sessions := session.NewManager(dep.Archive)
	genSvc := generate.NewService(dep.Generator, dep.Archive)
	refSvc := refine.NewService(dep.Generator, dep.Archive)

	studiohttp.Register(api, studiohttp.NewHandler(sessions, genSvc, refSvc, dep.Archive))

	return r
}
