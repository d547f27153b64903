package service

import (
	"context"
	"errors"

	"github.com/google/uuid"

	"tenantgate/internal/audit"
	authModels "tenantgate/internal/auth/models"
	"tenantgate/internal/authz"
	tenantModels "tenantgate/internal/tenant/models"
	id "tenantgate/pkg/domain"
	dErrors "tenantgate/pkg/domain-errors"
	"tenantgate/pkg/platform/sentinel"
	"tenantgate/pkg/requestcontext"
	"tenantgate/pkg/secrets"
)

// CreateUser adds staff to tenantID. Permission and tenant scope are checked
// before the password is hashed. The max_users reservation and the insert
// share one transaction, so concurrent creates at the limit admit exactly
// one and a failed insert gives the allowance back.
func (s *Service) CreateUser(ctx context.Context, p *authModels.Principal, tenantID id.TenantID, cmd CreateUserCommand) (*authModels.TenantUser, error) {
	if err := requireTenantID(tenantID); err != nil {
		return nil, err
	}
	if err := cmd.Validate(); err != nil {
		return nil, err
	}
	if err := s.gate.Authorize(ctx, p, authz.CapabilityRequest{Capability: authz.CapUsersCreate, TenantID: &tenantID}); err != nil {
		return nil, err
	}
	if err := s.requireGrantable(p, cmd.Roles, nil); err != nil {
		return nil, err
	}

	hash, err := secrets.HashPassword(cmd.Password)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to hash password")
	}

	var user *authModels.TenantUser
	err = s.tx.RunInTx(ctx, func(txCtx context.Context) error {
		if err := s.gate.Authorize(txCtx, p, authz.CapabilityRequest{
			Capability: authz.CapUsersCreate,
			TenantID:   &tenantID,
			Delta:      1,
		}); err != nil {
			return err
		}
		tenant, err := s.tenants.FindByID(txCtx, tenantID)
		if err != nil {
			return wrapTenantErr(err, "failed to load tenant")
		}
		if tenant.Status == tenantModels.TenantStatusCancelled {
			return dErrors.New(dErrors.CodeConflict, "tenant is cancelled")
		}

		now := requestcontext.Now(txCtx)
		u := &authModels.TenantUser{
			ID:           id.UserID(uuid.New()),
			TenantID:     tenantID,
			Email:        cmd.Email,
			Name:         cmd.Name,
			PasswordHash: hash,
			Roles:        cmd.Roles,
			Active:       true,
			CreatedAt:    now,
			UpdatedAt:    now,
		}
		if err := s.users.Create(txCtx, u); err != nil {
			if errors.Is(err, sentinel.ErrConflict) {
				return dErrors.New(dErrors.CodeConflict, "email already in use in this tenant")
			}
			return dErrors.Wrap(err, dErrors.CodeInternal, "failed to create user")
		}
		user = u
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.metrics.IncrementUserCreated()
	s.emit(ctx, p, audit.Event{Action: audit.ActionUserCreated, TenantID: tenantID.String(), TargetID: user.ID.String()})
	return user, nil
}

func (s *Service) ListUsers(ctx context.Context, p *authModels.Principal, tenantID id.TenantID) ([]*authModels.TenantUser, error) {
	if err := requireTenantID(tenantID); err != nil {
		return nil, err
	}
	if err := s.gate.Authorize(ctx, p, authz.CapabilityRequest{Capability: authz.CapUsersRead, TenantID: &tenantID}); err != nil {
		return nil, err
	}
	users, err := s.users.ListByTenant(ctx, tenantID)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list users")
	}
	return users, nil
}

// UpdateUser replaces the roles and explicit grants of a tenant user. The
// caller must hold every capability it hands out. Sessions stay valid: the
// resolver reloads the user on every request, so the new access applies from
// the next one.
func (s *Service) UpdateUser(ctx context.Context, p *authModels.Principal, tenantID id.TenantID, userID id.UserID, cmd UpdateUserCommand) (*authModels.TenantUser, error) {
	if err := requireTenantID(tenantID); err != nil {
		return nil, err
	}
	if err := requireUserID(userID); err != nil {
		return nil, err
	}
	if err := cmd.Validate(); err != nil {
		return nil, err
	}
	if err := s.gate.Authorize(ctx, p, authz.CapabilityRequest{Capability: authz.CapUsersUpdate, TenantID: &tenantID}); err != nil {
		return nil, err
	}
	if err := s.requireGrantable(p, cmd.Roles, cmd.Permissions); err != nil {
		return nil, err
	}

	var user *authModels.TenantUser
	err := s.tx.RunInTx(ctx, func(txCtx context.Context) error {
		u, err := s.users.FindByID(txCtx, tenantID, userID)
		if err != nil {
			return wrapUserErr(err, "failed to load user")
		}
		if cmd.Roles != nil {
			u.Roles = cmd.Roles
		}
		if cmd.Permissions != nil {
			u.ExplicitPermissions = cmd.Permissions
		}
		u.UpdatedAt = requestcontext.Now(txCtx)
		if err := s.users.UpdateAccess(txCtx, tenantID, userID, u.Roles, u.ExplicitPermissions, u.UpdatedAt); err != nil {
			return wrapUserErr(err, "failed to update user")
		}
		user = u
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.emit(ctx, p, audit.Event{Action: audit.ActionUserUpdated, TenantID: tenantID.String(), TargetID: userID.String()})
	return user, nil
}

// DeleteUser removes a tenant user, returns the max_users allowance and
// revokes the user's sessions.
func (s *Service) DeleteUser(ctx context.Context, p *authModels.Principal, tenantID id.TenantID, userID id.UserID) error {
	if err := requireTenantID(tenantID); err != nil {
		return err
	}
	if err := requireUserID(userID); err != nil {
		return err
	}
	if err := s.gate.Authorize(ctx, p, authz.CapabilityRequest{Capability: authz.CapUsersDelete, TenantID: &tenantID}); err != nil {
		return err
	}
	if p.Kind == authModels.SubjectTenantUser && p.SubjectID == id.SubjectID(userID) {
		return dErrors.New(dErrors.CodeBadRequest, "users cannot delete themselves")
	}

	err := s.tx.RunInTx(ctx, func(txCtx context.Context) error {
		if err := s.users.Delete(txCtx, tenantID, userID); err != nil {
			return wrapUserErr(err, "failed to delete user")
		}
		return s.gate.Release(txCtx, tenantID, authz.CapUsersCreate, 1)
	})
	if err != nil {
		return err
	}

	s.metrics.IncrementUserDeleted()
	s.emit(ctx, p, audit.Event{Action: audit.ActionUserDeleted, TenantID: tenantID.String(), TargetID: userID.String()})
	if s.sessions != nil {
		if _, err := s.sessions.RevokeAllForSubject(ctx, authModels.SubjectTenantUser, id.SubjectID(userID)); err != nil {
			s.logger.ErrorContext(ctx, "failed to revoke sessions of deleted user",
				"user_id", userID.String(),
				"error", err,
				"request_id", requestcontext.RequestID(ctx),
			)
		}
	}
	return nil
}

// requireGrantable refuses to hand out roles or explicit grants carrying
// capabilities the caller does not hold itself.
func (s *Service) requireGrantable(p *authModels.Principal, roles []authModels.Role, explicit []string) error {
	if p == nil {
		return dErrors.New(dErrors.CodeUnauthenticated, "authentication required")
	}
	for capability := range s.catalog.Permissions(roles, explicit) {
		if !p.HasPermission(capability) {
			return dErrors.NewDenied(dErrors.CodePermissionDenied, dErrors.ReasonMissingPermission,
				"cannot grant capability "+capability)
		}
	}
	return nil
}
