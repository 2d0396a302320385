package service

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/noah-isme/dept-scheduler-api/internal/models"
	appErrors "github.com/noah-isme/dept-scheduler-api/pkg/errors"
)

// changePublisher announces writes on the department change feed.
type changePublisher interface {
	Publish(ctx context.Context, event models.ChangeEvent) (models.ChangeEvent, error)
	Revision(ctx context.Context, departmentID string) (int64, error)
}

// ResolveDepartment picks the department a request operates on. An empty
// request falls back to the caller's own department.
func ResolveDepartment(actor *models.JWTClaims, requested string) (string, error) {
	dept := strings.TrimSpace(requested)
	if dept == "" && actor != nil {
		dept = actor.DepartmentID
	}
	if dept == "" {
		return "", appErrors.Clone(appErrors.ErrValidation, "department_id is required")
	}
	if err := authorizeDepartment(actor, dept); err != nil {
		return "", err
	}
	return dept, nil
}

// authorizeDepartment rejects callers outside the department partition.
// A nil actor is an internal caller (workers, the auto-assign loop).
func authorizeDepartment(actor *models.JWTClaims, departmentID string) error {
	if actor == nil {
		return nil
	}
	if !actor.CanAccessDepartment(departmentID) {
		return appErrors.Clone(appErrors.ErrForbidden, "department access denied")
	}
	return nil
}

// listingInvalidator drops cached section listings.
type listingInvalidator interface {
	Invalidate(ctx context.Context, pattern string) error
}

// sectionListingPrefix is shared by every cached listing of a department.
func sectionListingPrefix(departmentID string) string {
	return fmt.Sprintf("sections:%s:", departmentID)
}

// publishChange never fails the write it follows. It reports whether the
// department revision moved.
func publishChange(ctx context.Context, feed changePublisher, logger *zap.Logger, event models.ChangeEvent) bool {
	if feed == nil {
		return true
	}
	if _, err := feed.Publish(ctx, event); err != nil {
		logger.Warn("failed to publish change event",
			zap.String("collection", event.Collection),
			zap.String("department_id", event.DepartmentID),
			zap.String("record_id", event.RecordID),
			zap.Error(err))
		return false
	}
	return true
}

// publishSectionChange announces a section write. Listings are cached under
// the revision, so when it cannot be bumped they are dropped instead.
func publishSectionChange(ctx context.Context, feed changePublisher, cache listingInvalidator, logger *zap.Logger, event models.ChangeEvent) {
	if publishChange(ctx, feed, logger, event) || cache == nil {
		return
	}
	pattern := sectionListingPrefix(event.DepartmentID) + "*"
	if err := cache.Invalidate(ctx, pattern); err != nil {
		logger.Error("cached listings may be stale",
			zap.String("department_id", event.DepartmentID),
			zap.String("pattern", pattern),
			zap.Error(err))
	}
}

func internalError(err error, message string) error {
	return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, message)
}

func validationError(err error, message string) error {
	return appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, message)
}
