package http

import (
	"log/slog"
	"net/http"
	"os"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-chi/httplog/v3"
	"github.com/go-chi/jwtauth/v5"
	"github.com/rawatib-hr/policy-engine-go/internal/handler/http/middleware"
	"github.com/rawatib-hr/policy-engine-go/internal/pkg/jwt"
)

func NewRouter(
	jwtService jwt.Service,
	policyHandler PolicyHandler,
	payslipHandler PayslipHandler,
	auditHandler AuditHandler,
	env string,
) *chi.Mux {
	r := chi.NewRouter()
	logFormat := httplog.SchemaECS.Concise(false)
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		ReplaceAttr: logFormat.ReplaceAttr,
	})).With(
		slog.String("app", "policy-engine"),
		slog.String("version", "v1.0.0"),
		slog.String("env", env),
	)

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"http://localhost:3000"},
		AllowCredentials: true,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-CSRF-Token"},
		ExposedHeaders:   []string{"Link"},
		MaxAge:           300,
	}))

	r.Use(httplog.RequestLogger(logger, &httplog.Options{
		Level:  slog.LevelDebug,
		Schema: httplog.SchemaECS,
	}))

	r.Use(chiMiddleware.AllowContentEncoding("application/json"))
	r.Use(chiMiddleware.CleanPath)
	r.Use(chiMiddleware.Recoverer)
	r.Use(chiMiddleware.Heartbeat("/"))

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("ok\n"))
	})

	r.Route("/api/v1", func(r chi.Router) {

		// Requires authentication
		r.Group(func(r chi.Router) {
			r.Use(jwtauth.Verifier(jwtService.JWTAuth()))
			r.Use(middleware.AuthRequired(jwtService.JWTAuth()))

			r.Route("/policies", func(r chi.Router) {
				r.Get("/", policyHandler.List)
				r.Post("/", policyHandler.Create)
				r.Get("/conflict-matrix", policyHandler.ConflictMatrix)

				r.Route("/{id}", func(r chi.Router) {
					r.Get("/", policyHandler.Get)
					r.Put("/", policyHandler.Update)
					r.Delete("/", policyHandler.Delete)

					r.Post("/submit", policyHandler.SubmitForApproval)
					r.Post("/approve", policyHandler.Approve)
					r.Post("/reject", policyHandler.Reject)
					r.Post("/activate", policyHandler.Activate)
					r.Post("/deactivate", policyHandler.Deactivate)

					r.Get("/conflicts", policyHandler.DetectConflicts)
					r.Post("/simulate", policyHandler.Simulate)
					r.Get("/audit", auditHandler.ListByPolicy)
				})
			})

			r.Route("/payslips/{id}/policy-lines", func(r chi.Router) {
				r.Get("/", payslipHandler.ListLines)
				r.Put("/", payslipHandler.SaveLines)
			})

			r.Route("/payroll", func(r chi.Router) {
				r.Get("/lock-status", payslipHandler.LockStatus)
				r.Get("/retroactive-check", payslipHandler.RetroactiveCheck)
				r.Post("/runs/{id}/execute-policies", payslipHandler.ExecuteRun)
			})

			r.Get("/audit", auditHandler.ListByCompany)
		})
	})
	return r
}
