package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	analyticshandler "github.com/mockview/backend/internal/handler/analytics"
	avatarhandler "github.com/mockview/backend/internal/handler/avatar"
	codinghandler "github.com/mockview/backend/internal/handler/coding"
	emotionhandler "github.com/mockview/backend/internal/handler/emotion"
	interviewhandler "github.com/mockview/backend/internal/handler/interview"
	skillshandler "github.com/mockview/backend/internal/handler/skills"
	middlewarePkg "github.com/mockview/backend/internal/middleware"
	"github.com/mockview/backend/internal/repository"
	"github.com/mockview/backend/internal/service/analysis"
	avatarservice "github.com/mockview/backend/internal/service/avatar"
	"github.com/mockview/backend/internal/service/codeeval"
	emotionservice "github.com/mockview/backend/internal/service/emotion"
	interviewservice "github.com/mockview/backend/internal/service/interview"
	skillsservice "github.com/mockview/backend/internal/service/skills"
)

// NewRouter wires HTTP routes to core services. avatarClient may be nil
// when the avatar provider is not configured.
func NewRouter(
	interviewSvc *interviewservice.Service,
	analysisSvc *analysis.Service,
	codeSvc *codeeval.Service,
	skillAnalyzer *skillsservice.Analyzer,
	jds repository.JobDescriptionRepository,
	tracker *emotionservice.Tracker,
	avatarClient *avatarservice.Client,
) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middlewarePkg.CORS)

	interviewHandler := interviewhandler.New(interviewSvc)
	analyticsHandler := analyticshandler.New(analysisSvc)
	codingHandler := codinghandler.New(codeSvc)
	skillsHandler := skillshandler.New(skillAnalyzer, jds)
	emotionHandler := emotionhandler.New(tracker)

	// A typed nil must not leak into the interface; the handler keys its
	// 502 behaviour off a nil check.
	var avatarAPI avatarhandler.AvatarClient
	if avatarClient != nil {
		avatarAPI = avatarClient
	}
	avatarHandler := avatarhandler.New(avatarAPI)

	r.Route("/api", func(api chi.Router) {
		interviewHandler.RegisterRoutes(api)
		analyticsHandler.RegisterRoutes(api)
		codingHandler.RegisterRoutes(api)
		skillsHandler.RegisterRoutes(api)
		emotionHandler.RegisterRoutes(api)
		avatarHandler.RegisterRoutes(api)
	})

	return r
}
