// Package moderation governs blog and review lifecycle transitions.
//
// The transition functions are pure: they take the current record, the
// acting identity and the clock reading, and return the next record or a
// typed error. Service persists their result with a compare-and-swap on the
// record version.
package moderation

import (
	"time"

	"github.com/Kyz7/reviewhub/internal/apperr"
	"github.com/Kyz7/reviewhub/internal/identity"
	"github.com/Kyz7/reviewhub/internal/models"
)

type BlogAction string

const (
	BlogPublish         BlogAction = "publish"
	BlogUnpublish       BlogAction = "unpublish"
	BlogArchive         BlogAction = "archive"
	BlogSoftDelete      BlogAction = "softDelete"
	BlogRestore         BlogAction = "restore"
	BlogPermanentDelete BlogAction = "permanentDelete"
	BlogFlag            BlogAction = "flag"
	BlogUnflag          BlogAction = "unflag"
	BlogFeature         BlogAction = "feature"
	BlogUnfeature       BlogAction = "unfeature"
)

func (a BlogAction) Valid() bool {
	switch a {
	case BlogPublish, BlogUnpublish, BlogArchive, BlogSoftDelete, BlogRestore,
		BlogPermanentDelete, BlogFlag, BlogUnflag, BlogFeature, BlogUnfeature:
		return true
	}
	return false
}

type ReviewAction string

const (
	ReviewHide            ReviewAction = "hide"
	ReviewUnhide          ReviewAction = "unhide"
	ReviewPin             ReviewAction = "pin"
	ReviewUnpin           ReviewAction = "unpin"
	ReviewPermanentDelete ReviewAction = "permanentDelete"
)

func (a ReviewAction) Valid() bool {
	switch a {
	case ReviewHide, ReviewUnhide, ReviewPin, ReviewUnpin, ReviewPermanentDelete:
		return true
	}
	return false
}

// Payload carries the arguments of a flag action.
type Payload struct {
	Reason  string `json:"reason"`
	Details string `json:"details"`
}

func ValidFlagReason(reason string) bool {
	for _, r := range models.FlagReasons {
		if string(r) == reason {
			return true
		}
	}
	return false
}

// TransitionBlog applies action to b. For BlogPermanentDelete the returned
// blog is unchanged and the caller removes the row.
func TransitionBlog(b models.Blog, action BlogAction, actor identity.Identity, p Payload, now time.Time) (models.Blog, error) {
	if !action.Valid() {
		return b, apperr.Transition("unknown blog action %q", action)
	}
	if actor.Anonymous() {
		return b, apperr.Denied("authentication required")
	}

	owner := actor.ID == b.AuthorID
	privileged := actor.Privileged()

	if b.IsDeleted && action != BlogRestore && action != BlogPermanentDelete {
		if !privileged && !owner {
			return b, apperr.NotFoundf("blog %d", b.ID)
		}
		return b, apperr.Transition("blog %d is deleted; only restore or permanent delete apply", b.ID)
	}

	switch action {
	case BlogPublish:
		if !privileged {
			return b, apperr.Denied("only admins and operators may publish")
		}
		if b.Status != models.BlogPublished {
			b.Status = models.BlogPublished
			b.PublishedAt = &now
		}

	case BlogUnpublish:
		if !privileged {
			return b, apperr.Denied("only admins and operators may unpublish")
		}
		if b.Status != models.BlogPublished {
			return b, apperr.Transition("cannot unpublish a %s blog", b.Status)
		}
		b.Status = models.BlogDraft

	case BlogArchive:
		if !privileged {
			return b, apperr.Denied("only admins and operators may archive")
		}
		if b.Status != models.BlogPublished {
			return b, apperr.Transition("cannot archive a %s blog", b.Status)
		}
		b.Status = models.BlogArchived

	case BlogSoftDelete:
		if !privileged && !owner {
			return b, apperr.Denied("only the author, admins and operators may delete")
		}
		b.IsDeleted = true

	case BlogRestore:
		if !privileged {
			return b, apperr.Denied("only admins and operators may restore")
		}
		if !b.IsDeleted {
			return b, apperr.Transition("blog %d is not deleted", b.ID)
		}
		b.IsDeleted = false

	case BlogPermanentDelete:
		if !actor.Is(models.RoleAdmin) {
			return b, apperr.Denied("only admins may permanently delete")
		}

	case BlogFlag:
		if !ValidFlagReason(p.Reason) {
			return b, apperr.Transition("invalid flag reason %q", p.Reason)
		}
		if b.IsFlagged {
			return b, apperr.Transition("blog %d is already flagged", b.ID)
		}
		reason := models.FlagReason(p.Reason)
		by := actor.ID
		at := now
		b.IsFlagged = true
		b.FlagReason = &reason
		b.FlaggedBy = &by
		b.FlaggedAt = &at
		b.FlagDetails = nil
		if p.Details != "" {
			details := p.Details
			b.FlagDetails = &details
		}

	case BlogUnflag:
		if !privileged {
			return b, apperr.Denied("only admins and operators may clear a flag")
		}
		if !b.IsFlagged {
			return b, apperr.Transition("blog %d is not flagged", b.ID)
		}
		b.IsFlagged = false
		b.FlagReason = nil
		b.FlagDetails = nil
		b.FlaggedBy = nil
		b.FlaggedAt = nil

	case BlogFeature, BlogUnfeature:
		if !privileged {
			return b, apperr.Denied("only admins and operators may feature")
		}
		b.IsFeatured = action == BlogFeature
	}

	return b, nil
}

// TransitionReview applies action to r. operatorID is the operator of the
// review's company, or zero when it has none. For ReviewPermanentDelete the
// returned review is unchanged and the caller removes the row.
func TransitionReview(r models.Review, operatorID uint, action ReviewAction, actor identity.Identity) (models.Review, error) {
	if !action.Valid() {
		return r, apperr.Transition("unknown review action %q", action)
	}
	if actor.Anonymous() {
		return r, apperr.Denied("authentication required")
	}

	switch action {
	case ReviewPermanentDelete:
		owner := actor.ID == r.UserID
		companyOperator := actor.Is(models.RoleOperator) && operatorID != 0 && actor.ID == operatorID
		if !owner && !companyOperator && !actor.Is(models.RoleAdmin) {
			return r, apperr.Denied("only the author, the company operator and admins may delete a review")
		}
		return r, nil
	}

	if !actor.Is(models.RoleAdmin) {
		return r, apperr.Denied("only admins may hide or pin reviews")
	}
	switch action {
	case ReviewHide:
		r.IsHidden = true
	case ReviewUnhide:
		r.IsHidden = false
	case ReviewPin:
		r.IsPinned = true
	case ReviewUnpin:
		r.IsPinned = false
	}
	return r, nil
}
