package service

import (
	"context"

	"github.com/fieldops-hq/fieldops-api/internal/models"
)

// auditLogger is satisfied by repository.UserRepository; services emit audit
// records best-effort and never fail the primary operation on audit errors.
type auditLogger interface {
	CreateAuditLog(ctx context.Context, log *models.AuditLog) error
}
