package policy

import (
	"fmt"
	"sort"

	"github.com/google/uuid"
)

type IssueCode string

const (
	IssueStartWithoutNext IssueCode = "start_without_next"
	IssueUnreachable      IssueCode = "unreachable"
	IssueCycle            IssueCode = "cycle"
	IssueForeignLink      IssueCode = "foreign_link"
)

// Issue is an advisory finding of Lint. Issues never make Validate fail.
type Issue struct {
	Code    IssueCode
	BlockID uuid.UUID
	Message string
}

func (i Issue) String() string {
	return fmt.Sprintf("%s: block %s: %s", i.Code, i.BlockID, i.Message)
}

// Lint runs checks stricter than Validate: reachability from the entry
// block, cycles, links to blocks outside the policy and a start block that
// leads nowhere. Issues are ordered by block order, then by code.
func (p *Policy) Lint() []Issue {
	var issues []Issue
	byBlock := map[uuid.UUID][]Issue{}
	add := func(code IssueCode, b *Block, format string, args ...any) {
		byBlock[b.ID] = append(byBlock[b.ID], Issue{Code: code, BlockID: b.ID, Message: fmt.Sprintf(format, args...)})
	}

	for _, b := range p.blocks {
		for _, l := range b.Links() {
			if !p.Owns(l) {
				add(IssueForeignLink, b, "links to block %s which is not part of the policy", l.ID)
			}
		}
	}

	visited := map[uuid.UUID]bool{}
	if s := p.start; s != nil {
		if s.Next == nil {
			add(IssueStartWithoutNext, s, "start block has no next block")
		}

		const (
			white = iota
			grey
			black
		)
		color := map[uuid.UUID]int{}
		var walk func(b *Block)
		walk = func(b *Block) {
			color[b.ID] = grey
			visited[b.ID] = true
			for _, l := range b.Links() {
				if !p.Owns(l) {
					continue
				}
				switch color[l.ID] {
				case white:
					walk(l)
				case grey:
					add(IssueCycle, l, "reached again from block %s", b.ID)
				}
			}
			color[b.ID] = black
		}
		walk(s)
	}

	for _, b := range p.blocks {
		if p.start != nil && !visited[b.ID] {
			add(IssueUnreachable, b, "not reachable from the start block")
		}
		found := byBlock[b.ID]
		sort.SliceStable(found, func(i, j int) bool { return found[i].Code < found[j].Code })
		issues = append(issues, found...)
	}
	return issues
}
