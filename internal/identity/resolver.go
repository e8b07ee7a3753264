package identity

import (
	"context"
	"fmt"

	"github.com/juju/errors"
	"github.com/kevinfinalboss/cmlporter/internal/logger"
	"github.com/kevinfinalboss/cmlporter/pkg/types"
)

type ProjectLister interface {
	ListUserProjects(ctx context.Context, username string) ([]types.UserProject, error)
}

// Resolver finds who really owns a project. Migrations started by an
// administrator must act as the project's creator afterwards.
type Resolver struct {
	client ProjectLister
	logger *logger.Logger
}

func NewResolver(client ProjectLister, log *logger.Logger) *Resolver {
	return &Resolver{client: client, logger: log}
}

// Resolve looks projectName up among the projects visible to
// requestingUsername. It returns an error satisfying
// errors.Is(err, errors.NotFound) when there is no such project.
func (r *Resolver) Resolve(ctx context.Context, requestingUsername, projectName string) (types.ProjectIdentity, error) {
	r.logger.Debug("identity_lookup").
		Str("requesting_user", requestingUsername).
		Str("project", projectName).
		Send()

	projects, err := r.client.ListUserProjects(ctx, requestingUsername)
	if err != nil {
		return types.ProjectIdentity{}, fmt.Errorf("failed to list projects of %s: %w", requestingUsername, err)
	}

	for _, p := range projects {
		if p.Name != projectName {
			continue
		}

		id := types.ProjectIdentity{
			CreatorUsername: p.Creator.Username,
			ProjectSlug:     p.SlugRaw,
			OwnerType:       types.ParseOwnerType(p.Owner.Type),
			OwnerName:       p.Owner.Username,
		}
		if id.CreatorUsername == "" {
			id.CreatorUsername = p.Owner.Username
		}
		if id.OwnerType == types.OwnerTypeUnknown && p.Owner.Username != "" && p.Owner.Username == id.CreatorUsername {
			id.OwnerType = types.OwnerTypeUser
		}
		if id.ProjectSlug == "" {
			id.ProjectSlug = p.Slug
		}
		if id.CreatorUsername == "" || id.ProjectSlug == "" {
			return types.ProjectIdentity{}, errors.NotValidf("project %s listing without creator or slug", projectName)
		}

		r.logger.Info("identity_resolved").
			Str("creator", id.CreatorUsername).
			Str("slug", id.ProjectSlug).
			Str("owner_type", string(id.OwnerType)).
			Send()

		return id, nil
	}

	return types.ProjectIdentity{}, errors.NotFoundf("project %s under user %s", projectName, requestingUsername)
}
