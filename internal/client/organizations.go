package client

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/drimsoft/planifika-admin/internal/models"
)

// NgrokSkipHeader suppresses the ngrok interstitial on tunnelled backends
const NgrokSkipHeader = "ngrok-skip-browser-warning"

const memberCountConcurrency = 4

// OrganizationsAPI manages Planifika organizations
type OrganizationsAPI struct {
	c *Client
}

// NewOrganizationsAPI creates the organizations service over c
func NewOrganizationsAPI(c *Client) *OrganizationsAPI {
	return &OrganizationsAPI{c: c}
}

// List returns every organization
func (o *OrganizationsAPI) List(ctx context.Context) ([]models.Organization, error) {
	var orgs []models.Organization
	err := o.c.do(ctx, call{
		method:  http.MethodGet,
		path:    "/organizations",
		auth:    authOptional,
		failure: "Could not load organizations",
	}, &orgs)
	if err != nil {
		return nil, err
	}
	return orgs, nil
}

// Page returns one page of organizations matching search. Missing fields in
// the response fall back to the requested page and size.
func (o *OrganizationsAPI) Page(ctx context.Context, page, size int, search string) (*models.OrganizationPage, error) {
	query := url.Values{}
	query.Set("page", strconv.Itoa(page))
	query.Set("size", strconv.Itoa(size))
	if s := strings.TrimSpace(search); s != "" {
		query.Set("search", s)
	}

	var raw struct {
		Content       []models.Organization `json:"content"`
		TotalElements *int64                `json:"totalElements"`
		TotalPages    *int                  `json:"totalPages"`
		Size          *int                  `json:"size"`
		Number        *int                  `json:"number"`
	}
	err := o.c.do(ctx, call{
		method:  http.MethodGet,
		path:    "/organizations/paginated",
		query:   query,
		auth:    authOptional,
		failure: "Could not load organizations",
	}, &raw)
	if err != nil {
		return nil, err
	}

	result := &models.OrganizationPage{
		Content: raw.Content,
		Size:    size,
		Number:  page,
	}
	if result.Content == nil {
		result.Content = []models.Organization{}
	}
	if raw.TotalElements != nil {
		result.TotalElements = *raw.TotalElements
	}
	if raw.TotalPages != nil {
		result.TotalPages = *raw.TotalPages
	}
	if raw.Size != nil {
		result.Size = *raw.Size
	}
	if raw.Number != nil {
		result.Number = *raw.Number
	}
	return result, nil
}

// Get returns one organization
func (o *OrganizationsAPI) Get(ctx context.Context, id int64) (*models.Organization, error) {
	var org models.Organization
	err := o.c.do(ctx, call{
		method:  http.MethodGet,
		path:    fmt.Sprintf("/organizations/%d", id),
		auth:    authOptional,
		failure: "Could not load organization",
	}, &org)
	if err != nil {
		return nil, err
	}
	return &org, nil
}

// Create creates an organization
func (o *OrganizationsAPI) Create(ctx context.Context, input models.OrganizationInput) (*models.Organization, error) {
	var org models.Organization
	err := o.c.do(ctx, call{
		method:  http.MethodPost,
		path:    "/organizations",
		body:    input,
		auth:    authOptional,
		failure: "Could not create organization",
	}, &org)
	if err != nil {
		return nil, err
	}
	return &org, nil
}

// Update replaces an organization
func (o *OrganizationsAPI) Update(ctx context.Context, id int64, input models.OrganizationInput) (*models.Organization, error) {
	var org models.Organization
	err := o.c.do(ctx, call{
		method:  http.MethodPut,
		path:    fmt.Sprintf("/organizations/%d", id),
		body:    input,
		auth:    authOptional,
		failure: "Could not update organization",
	}, &org)
	if err != nil {
		return nil, err
	}
	return &org, nil
}

// Delete removes an organization
func (o *OrganizationsAPI) Delete(ctx context.Context, id int64) error {
	return o.c.do(ctx, call{
		method:  http.MethodDelete,
		path:    fmt.Sprintf("/organizations/%d", id),
		auth:    authOptional,
		failure: "Could not delete organization",
	}, nil)
}

// Members returns the Planifika users belonging to an organization
func (o *OrganizationsAPI) Members(ctx context.Context, id int64) ([]json.RawMessage, error) {
	var members []json.RawMessage
	err := o.c.do(ctx, call{
		method:  http.MethodGet,
		path:    fmt.Sprintf("/organizations/%d/users", id),
		auth:    authOptional,
		failure: "Could not load organization members",
	}, &members)
	if err != nil {
		return nil, err
	}
	return members, nil
}

// MemberCounts returns the number of members of each organization. Lookups
// that fail count as zero.
func (o *OrganizationsAPI) MemberCounts(ctx context.Context, ids []int64) map[int64]int {
	counts := make(map[int64]int, len(ids))
	var mu sync.Mutex

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(memberCountConcurrency)
	for _, id := range ids {
		g.Go(func() error {
			n := 0
			if members, err := o.Members(gctx, id); err == nil {
				n = len(members)
			}
			mu.Lock()
			counts[id] = n
			mu.Unlock()
			return nil
		})
	}
	_ = g.Wait()

	return counts
}
