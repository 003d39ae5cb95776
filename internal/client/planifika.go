package client

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/drimsoft/planifika-admin/internal/models"
)

const orgLookupConcurrency = 4

// PlanifikaAPI reads users of the Planifika product. It authenticates with
// the service role key rather than the staff session.
type PlanifikaAPI struct {
	c *Client
}

// NewPlanifikaAPI creates the Planifika users service over c
func NewPlanifikaAPI(c *Client) *PlanifikaAPI {
	return &PlanifikaAPI{c: c}
}

// ServiceKeyOptions returns the client options that attach serviceKey both
// as a bearer token and as x-api-key
func ServiceKeyOptions(serviceKey string) []Option {
	opts := []Option{WithHeader(NgrokSkipHeader, "true")}
	if serviceKey != "" {
		opts = append(opts,
			WithTokenSource(StaticToken(serviceKey)),
			WithHeader("x-api-key", serviceKey),
		)
	}
	return opts
}

// PlanifikaAdmin is an organization admin with its organization name resolved
type PlanifikaAdmin struct {
	User             models.PlanifikaUser `json:"user"`
	OrganizationName string               `json:"organizationName"`
	PhotoURL         string               `json:"photoURL,omitempty"`
}

// List returns every Planifika user. A non-array response is an empty list.
func (p *PlanifikaAPI) List(ctx context.Context) ([]models.PlanifikaUser, error) {
	var raw json.RawMessage
	err := p.c.do(ctx, call{
		method:  http.MethodGet,
		path:    "/users",
		auth:    authOptional,
		failure: "Could not load Planifika users",
	}, &raw)
	if err != nil {
		return nil, err
	}

	var users []models.PlanifikaUser
	if err := json.Unmarshal(raw, &users); err != nil || users == nil {
		return []models.PlanifikaUser{}, nil
	}
	return users, nil
}

// Get returns one Planifika user
func (p *PlanifikaAPI) Get(ctx context.Context, id int64) (models.PlanifikaUser, error) {
	var user models.PlanifikaUser
	err := p.c.do(ctx, call{
		method:  http.MethodGet,
		path:    fmt.Sprintf("/users/%d", id),
		auth:    authOptional,
		failure: "Could not load Planifika user",
	}, &user)
	if err != nil {
		return nil, err
	}
	return user, nil
}

// Admins returns the organization admins
func (p *PlanifikaAPI) Admins(ctx context.Context) ([]models.PlanifikaUser, error) {
	users, err := p.List(ctx)
	if err != nil {
		return nil, err
	}
	admins := make([]models.PlanifikaUser, 0, len(users))
	for _, u := range users {
		if u.IsOrgAdmin() {
			admins = append(admins, u)
		}
	}
	return admins, nil
}

// AdminsWithOrganizations returns the organization admins with their
// organization names. Organizations that cannot be loaded leave the name
// empty.
func (p *PlanifikaAPI) AdminsWithOrganizations(ctx context.Context, orgs *OrganizationsAPI) ([]PlanifikaAdmin, error) {
	admins, err := p.Admins(ctx)
	if err != nil {
		return nil, err
	}

	ids := map[int64]struct{}{}
	for _, a := range admins {
		if id, ok := a.OrganizationID(); ok {
			ids[id] = struct{}{}
		}
	}

	names := make(map[int64]string, len(ids))
	var mu sync.Mutex
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(orgLookupConcurrency)
	for id := range ids {
		g.Go(func() error {
			org, err := orgs.Get(gctx, id)
			if err != nil {
				return nil
			}
			mu.Lock()
			names[id] = org.Name
			mu.Unlock()
			return nil
		})
	}
	_ = g.Wait()

	out := make([]PlanifikaAdmin, 0, len(admins))
	for _, a := range admins {
		entry := PlanifikaAdmin{User: a, PhotoURL: a.PhotoURL()}
		if id, ok := a.OrganizationID(); ok {
			entry.OrganizationName = names[id]
		}
		out = append(out, entry)
	}
	return out, nil
}
