// Package pagination implements the page/limit/total-pages state machine
// shared by concert lists and transaction histories.
package pagination

import "ticketbooth/internal/model"

// Pager tracks the current page against server-reported metadata. It is a
// pure state machine: transitions never trigger fetches themselves, the
// owning view re-fetches after a transition returns true.
type Pager struct {
	page  int
	limit int
	total int
	pages int
}

// New returns a Pager positioned on page 1 with the given page size.
func New(limit int) *Pager {
	if limit <= 0 {
		limit = 5
	}
	return &Pager{page: 1, limit: limit}
}

// SetMeta adopts server metadata. Pages is recomputed locally as
// ceil(total/limit) so a misbehaving server cannot push the pager out of
// range.
func (p *Pager) SetMeta(m model.Meta) {
	if m.Limit > 0 {
		p.limit = m.Limit
	}
	p.total = m.Total
	p.pages = Pages(p.total, p.limit)
	if m.Page >= 1 && m.Page <= p.pages {
		p.page = m.Page
	} else if p.page > p.pages && p.pages >= 1 {
		p.page = p.pages
	}
}

// Pages computes ceil(total/limit); 0 when there are no items.
func Pages(total, limit int) int {
	if total <= 0 || limit <= 0 {
		return 0
	}
	return (total + limit - 1) / limit
}

// GoToPage moves to page n. Returns false (no-op) when n is the current page
// or outside [1, Pages()].
func (p *Pager) GoToPage(n int) bool {
	if n == p.page || n < 1 || n > p.pages {
		return false
	}
	p.page = n
	return true
}

// Next steps forward one page, bounded.
func (p *Pager) Next() bool { return p.GoToPage(p.page + 1) }

// Prev steps back one page, bounded.
func (p *Pager) Prev() bool { return p.GoToPage(p.page - 1) }

// Page returns the current 1-based page.
func (p *Pager) Page() int { return p.page }

// PageCount returns the total number of pages.
func (p *Pager) PageCount() int { return p.pages }

// Limit returns the page size.
func (p *Pager) Limit() int { return p.limit }

// Total returns the total item count last reported by the server.
func (p *Pager) Total() int { return p.total }
