package postgresql

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/rawatib-hr/policy-engine-go/internal/domain/payslip"
	"github.com/rawatib-hr/policy-engine-go/internal/pkg/database"
)

// salaryComponentRepository is a read-only view: the component catalogue is
// owned by the main HR platform.
type salaryComponentRepository struct {
	db *database.DB
}

func NewSalaryComponentRepository(db *database.DB) payslip.ComponentRepository {
	return &salaryComponentRepository{db: db}
}

func (r *salaryComponentRepository) ListActiveByCompany(ctx context.Context, companyID string) ([]payslip.SalaryComponent, error) {
	q := GetQuerier(ctx, r.db)

	query := `
		SELECT id, company_id, code, name_ar, name_en, is_active
		FROM salary_components
		WHERE company_id = $1 AND is_active = true
		ORDER BY code
	`

	rows, err := q.Query(ctx, query, companyID)
	if err != nil {
		return nil, fmt.Errorf("failed to list salary components: %w", err)
	}
	defer rows.Close()

	var components []payslip.SalaryComponent
	for rows.Next() {
		var c payslip.SalaryComponent
		if err := rows.Scan(&c.ID, &c.CompanyID, &c.Code, &c.NameAr, &c.NameEn, &c.IsActive); err != nil {
			return nil, fmt.Errorf("failed to scan salary component: %w", err)
		}
		components = append(components, c)
	}

	return components, nil
}

func (r *salaryComponentRepository) GetByCode(ctx context.Context, companyID string, code string) (payslip.SalaryComponent, error) {
	q := GetQuerier(ctx, r.db)

	query := `
		SELECT id, company_id, code, name_ar, name_en, is_active
		FROM salary_components
		WHERE company_id = $1 AND code = $2
	`

	var c payslip.SalaryComponent
	err := q.QueryRow(ctx, query, companyID, code).Scan(&c.ID, &c.CompanyID, &c.Code, &c.NameAr, &c.NameEn, &c.IsActive)
	if err != nil {
		if err == pgx.ErrNoRows {
			return payslip.SalaryComponent{}, payslip.ErrComponentNotFound
		}
		return payslip.SalaryComponent{}, fmt.Errorf("failed to get salary component: %w", err)
	}

	return c, nil
}
