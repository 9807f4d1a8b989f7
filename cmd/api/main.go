package main

import (
	"fmt"
	"log/slog"
	"net/http"
	"os"

	"github.com/rawatib-hr/policy-engine-go/internal/config"
	appHTTP "github.com/rawatib-hr/policy-engine-go/internal/handler/http"
	"github.com/rawatib-hr/policy-engine-go/internal/pkg/database"
	"github.com/rawatib-hr/policy-engine-go/internal/pkg/jwt"
	"github.com/rawatib-hr/policy-engine-go/internal/repository/postgresql"
	auditService "github.com/rawatib-hr/policy-engine-go/internal/service/audit"
	"github.com/rawatib-hr/policy-engine-go/internal/service/laborlaw"
	payslipService "github.com/rawatib-hr/policy-engine-go/internal/service/payslip"
	policyService "github.com/rawatib-hr/policy-engine-go/internal/service/policy"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Println("Error loading config:", err)
		return
	}

	dsn := cfg.DatabaseURL()
	db, err := database.NewPostgreSQLDB(dsn, cfg.Database.MaxConns, cfg.Database.MinConns)
	if err != nil {
		fmt.Println("Error connecting to database:", err)
		return
	}

	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil)).With(
		slog.String("app", "policy-engine"),
	)

	policyRepo := postgresql.NewPolicyRepository(db)
	payslipLineRepo := postgresql.NewPayslipLineRepository(db)
	periodRepo := postgresql.NewPayrollPeriodRepository(db)
	runRepo := postgresql.NewPayrollRunRepository(db)
	componentRepo := postgresql.NewSalaryComponentRepository(db)
	auditRepo := postgresql.NewAuditRepository(db)

	JWTService := jwt.NewJWTService(cfg.JWT.Secret)

	recorder := auditService.NewRecorder(auditRepo, logger)
	laborLawSvc := laborlaw.NewLaborLawService(periodRepo)
	lockGuard := payslipService.NewPeriodLockGuard(periodRepo, runRepo)
	aggregator := payslipService.NewLineAggregator(db, payslipLineRepo, componentRepo, lockGuard, logger)
	executionSvc := payslipService.NewExecutionService(
		db,
		policyRepo,
		runRepo,
		componentRepo,
		aggregator,
		lockGuard,
		laborLawSvc,
		recorder,
		logger,
	)
	detector := policyService.NewConflictDetector(policyRepo)
	policySvc := policyService.NewPolicyService(policyRepo, detector, lockGuard, laborLawSvc, recorder)

	policyHandler := appHTTP.NewPolicyHandler(policySvc)
	payslipHandler := appHTTP.NewPayslipHandler(aggregator, executionSvc, lockGuard, laborLawSvc)
	auditHandler := appHTTP.NewAuditHandler(recorder)

	router := appHTTP.NewRouter(
		JWTService,
		policyHandler,
		payslipHandler,
		auditHandler,
		cfg.App.Env,
	)

	port := fmt.Sprintf(":%d", cfg.App.Port)
	fmt.Printf("Server running at http://localhost%s\n", port)
	if err := http.ListenAndServe(port, router); err != nil {
		fmt.Println("Server error:", err)
	}
}
