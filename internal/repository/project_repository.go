package repository

import (
	"context"
	"fmt"

	"github.com/spec-kit/support-tickets/internal/domain"
)

// ProjectRepository looks up tenant projects.
type ProjectRepository interface {
	Create(ctx context.Context, project *domain.Project) error
	GetForTenant(ctx context.Context, projectID, tenantID string) (*domain.Project, error)
}

type projectRepository struct {
	db DBTX
}

// NewProjectRepository builds the repository.
func NewProjectRepository(db DBTX) ProjectRepository {
	return &projectRepository{db: db}
}

func (r *projectRepository) Create(ctx context.Context, project *domain.Project) error {
	const query = `
        INSERT INTO projects (id, customer_id, name)
        VALUES ($1,$2,$3)
        RETURNING created_at`
	if err := r.db.QueryRow(ctx, query, project.ID, project.TenantID, project.Name).Scan(&project.CreatedAt); err != nil {
		return fmt.Errorf("insert project: %w", err)
	}
	return nil
}

func (r *projectRepository) GetForTenant(ctx context.Context, projectID, tenantID string) (*domain.Project, error) {
	const query = `SELECT id, customer_id, name, created_at FROM projects WHERE id=$1 AND customer_id=$2`
	var project domain.Project
	if err := r.db.QueryRow(ctx, query, projectID, tenantID).Scan(
		&project.ID,
		&project.TenantID,
		&project.Name,
		&project.CreatedAt,
	); err != nil {
		return nil, err
	}
	return &project, nil
}
