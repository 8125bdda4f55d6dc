package application

import (
	"context"
	"fmt"

	"github.com/saransh1220/notify-relay/internal/modules/notification/domain"
	"github.com/saransh1220/notify-relay/internal/shared/errs"
)

// UserDirectory lists users by role.
type UserDirectory interface {
	ListAdmins(ctx context.Context) ([]string, error)
}

type Resolver struct {
	directory UserDirectory
}

func NewResolver(directory UserDirectory) *Resolver {
	return &Resolver{directory: directory}
}

// Resolve turns a recipient spec into user ids. Order follows the directory,
// duplicates are dropped. An empty admin set is not an error.
func (r *Resolver) Resolve(ctx context.Context, spec domain.RecipientSpec) ([]string, error) {
	switch spec.Kind {
	case domain.RecipientDirect:
		if spec.UserID == "" {
			return nil, errs.Validation("userId is required")
		}
		return []string{spec.UserID}, nil
	case domain.RecipientRole:
		if spec.Role != domain.RoleAdmin {
			return nil, errs.Validation(fmt.Sprintf("unsupported role %q", spec.Role))
		}
		ids, err := r.directory.ListAdmins(ctx)
		if err != nil {
			return nil, err
		}
		return dedupe(ids), nil
	default:
		return nil, errs.Validation(fmt.Sprintf("unknown recipient kind %q", spec.Kind))
	}
}

func dedupe(ids []string) []string {
	seen := make(map[string]struct{}, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if id == "" {
			continue
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}
