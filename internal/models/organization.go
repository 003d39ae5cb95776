package models

import "encoding/json"

// Organization is a tenant of the Planifika product
type Organization struct {
	ID       int64             `json:"id,omitempty"`
	NIT      string            `json:"nit"`
	Name     string            `json:"name"`
	Address  string            `json:"address,omitempty"`
	Phone    string            `json:"phone,omitempty"`
	PhotoURL string            `json:"photoURL,omitempty"`
	Domain   string            `json:"domain,omitempty"`
	Users    []json.RawMessage `json:"users,omitempty"`
}

// OrganizationInput is the body of create and update calls
type OrganizationInput struct {
	NIT      string `json:"nit"`
	Name     string `json:"name"`
	Address  string `json:"address,omitempty"`
	Phone    string `json:"phone,omitempty"`
	PhotoURL string `json:"photoURL,omitempty"`
	Domain   string `json:"domain,omitempty"`
}

// OrganizationPage is one page of the paginated organization listing
type OrganizationPage struct {
	Content       []Organization `json:"content"`
	TotalElements int64          `json:"totalElements"`
	TotalPages    int            `json:"totalPages"`
	Size          int            `json:"size"`
	Number        int            `json:"number"`
}
