package validator

import (
	"context"
	"fmt"

	"github.com/kevinfinalboss/cmlporter/pkg/types"
)

type ProjectLister interface {
	ListUserProjects(ctx context.Context, username string) ([]types.UserProject, error)
}

type Pinger interface {
	Ping(ctx context.Context) error
}

type projectExists struct {
	client      ProjectLister
	username    string
	projectName string
}

// ProjectExists fails when username cannot see a project called projectName.
func ProjectExists(client ProjectLister, username, projectName string) Validator {
	return &projectExists{client: client, username: username, projectName: projectName}
}

func (v *projectExists) Name() string {
	return "project_exists"
}

func (v *projectExists) Validate(ctx context.Context) types.ValidationResult {
	projects, err := v.client.ListUserProjects(ctx, v.username)
	if err != nil {
		return types.Failed(fmt.Sprintf("cannot list projects of %s: %v", v.username, err))
	}
	for _, p := range projects {
		if p.Name == v.projectName {
			return types.Passed()
		}
	}
	return types.Failed(fmt.Sprintf("project %s not found under user %s", v.projectName, v.username))
}

type apiReachable struct {
	client Pinger
	host   string
}

func APIReachable(client Pinger, host string) Validator {
	return &apiReachable{client: client, host: host}
}

func (v *apiReachable) Name() string {
	return "api_reachable"
}

func (v *apiReachable) Validate(ctx context.Context) types.ValidationResult {
	if err := v.client.Ping(ctx); err != nil {
		return types.Failed(fmt.Sprintf("cannot reach %s with the configured credentials: %v", v.host, err))
	}
	return types.Passed()
}
