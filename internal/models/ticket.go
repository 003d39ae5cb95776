package models

import "strings"

// Ticket status identifiers mirrored from the backend
const (
	TicketStatusOpen       = 1
	TicketStatusInProgress = 2
	TicketStatusResolved   = 3
	TicketStatusClosed     = 4
	TicketStatusAnswered   = 5
)

// TicketStatus is a ticket status entry
type TicketStatus struct {
	ID   int64  `json:"idTicketStatus"`
	Name string `json:"name"`
}

// Ticket is a support request raised by a Planifika user
type Ticket struct {
	ID               int64  `json:"idtickets"`
	PlanifikaUserID  int64  `json:"idplanifikauser"`
	StatusID         int64  `json:"idticketstatus,omitempty"`
	StatusName       string `json:"ticketstatusname,omitempty"`
	Title            string `json:"title"`
	Description      string `json:"description"`
	Answer           string `json:"answer,omitempty"`
	DrimsoftUserID   int64  `json:"iddrimsoftuser,omitempty"`
	DrimsoftUserName string `json:"drimsoftusername,omitempty"`
}

// Matches reports whether the title or description contains q, ignoring case
func (t Ticket) Matches(q string) bool {
	q = strings.ToLower(strings.TrimSpace(q))
	if q == "" {
		return true
	}
	return strings.Contains(strings.ToLower(t.Title), q) ||
		strings.Contains(strings.ToLower(t.Description), q)
}

// TicketCreateRequest is the body of a ticket creation
type TicketCreateRequest struct {
	PlanifikaUserID int64  `json:"idplanifikauser"`
	Title           string `json:"title"`
	Description     string `json:"description"`
	DrimsoftUserID  int64  `json:"iddrimsoftuser,omitempty"`
	StatusID        int64  `json:"idticketstatus,omitempty"`
}

// TicketAnswerRequest is the body of an answer
type TicketAnswerRequest struct {
	Answer         string `json:"answer"`
	DrimsoftUserID int64  `json:"iddrimsoftuser,omitempty"`
}

// TicketPage is one page of the paged ticket listing
type TicketPage struct {
	Items         []Ticket `json:"items"`
	Page          int      `json:"page"`
	Size          int      `json:"size"`
	TotalElements int64    `json:"totalElements"`
	TotalPages    int      `json:"totalPages"`
	HasNext       bool     `json:"hasNext"`
	HasPrevious   bool     `json:"hasPrevious"`
}

// TicketSummary counts tickets by coarse status
type TicketSummary struct {
	Total      int `json:"total"`
	Pending    int `json:"pending"`
	InProgress int `json:"inProgress"`
	Answered   int `json:"answered"`
}

// SummarizeTickets counts the given tickets by status id, falling back to the
// backend's status names in English or Spanish
func SummarizeTickets(tickets []Ticket) TicketSummary {
	s := TicketSummary{Total: len(tickets)}
	for _, t := range tickets {
		name := strings.ToLower(t.StatusName)
		switch {
		case t.StatusID == TicketStatusOpen || containsAny(name, "pending", "pendiente"):
			s.Pending++
		case t.StatusID == TicketStatusInProgress || containsAny(name, "progress", "proceso"):
			s.InProgress++
		case t.StatusID == TicketStatusAnswered || containsAny(name, "answered", "respondido"):
			s.Answered++
		}
	}
	return s
}

func containsAny(s string, subs ...string) bool {
	for _, sub := range subs {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}

// AvailableTicketStatuses lists the statuses a ticket can be moved to
func AvailableTicketStatuses() []TicketStatus {
	return []TicketStatus{
		{ID: TicketStatusOpen, Name: "OPEN"},
		{ID: TicketStatusInProgress, Name: "IN_PROGRESS"},
		{ID: TicketStatusResolved, Name: "RESOLVED"},
		{ID: TicketStatusClosed, Name: "CLOSED"},
		{ID: TicketStatusAnswered, Name: "ANSWERED"},
	}
}
