// ABOUTME: Read-only share links with expiry, revocation, and view counting
// ABOUTME: Resolution builds a fresh view-model and never touches the session cache
package engine

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"

	"github.com/harperreed/pursuit/db"
	"github.com/harperreed/pursuit/models"
	"github.com/oklog/ulid/v2"
)

// CreateShareLink issues a new token for the engagement valid for the
// configured TTL.
func (c *Coordinator) CreateShareLink(ctx context.Context, engagementID string) (link *models.ShareLink, err error) {
	defer c.observe("create_share_link", &err)
	if _, err := c.engagement(ctx, engagementID); err != nil {
		return nil, err
	}

	now := c.now()
	token, err := ulid.New(ulid.Timestamp(now), rand.Reader)
	if err != nil {
		return nil, fmt.Errorf("generate token: %w", err)
	}
	fields, err := db.Encode(models.ShareLink{
		EngagementID: engagementID,
		Token:        token.String(),
		ExpiresAt:    now.Add(c.shareTTL),
		IsActive:     true,
		CreatedBy:    c.userID,
	})
	if err != nil {
		return nil, err
	}
	rec, err := c.store.Create(ctx, db.ShareLinks, fields)
	if err != nil {
		return nil, fmt.Errorf("create share link: %w", err)
	}
	created, err := decodeAs[models.ShareLink](rec)
	if err != nil {
		return nil, err
	}

	c.record(ctx, engagementID, models.ChangeShareLinkCreated,
		fmt.Sprintf("Created share link expiring %s", created.ExpiresAt.Format("2006-01-02")), nil, nil)
	return &created, nil
}

// ListShareLinks returns every link issued for the engagement, oldest first.
func (c *Coordinator) ListShareLinks(ctx context.Context, engagementID string) ([]models.ShareLink, error) {
	return listAs[models.ShareLink](ctx, c.store, db.ShareLinks, db.Filter{"engagementId": engagementID})
}

// RevokeShareLink deactivates link. It is guarded on the revision link carries.
func (c *Coordinator) RevokeShareLink(ctx context.Context, link models.ShareLink) (err error) {
	defer c.observe("revoke_share_link", &err)
	if !link.IsActive {
		return nil
	}
	if _, err := c.guardedUpdate(ctx, db.ShareLinks, link.ID, link.UpdatedAt, db.Record{"isActive": false}); err != nil {
		return err
	}
	c.record(ctx, link.EngagementID, models.ChangeShareLinkRevoked, "Revoked share link", nil, nil)
	return nil
}

// ResolveShareLink returns the engagement behind token. Unknown, revoked, and
// expired tokens all report ErrNotFound.
func (c *Coordinator) ResolveShareLink(ctx context.Context, token string) (*models.EngagementViewModel, error) {
	links, err := listAs[models.ShareLink](ctx, c.store, db.ShareLinks, db.Filter{"token": token})
	if err != nil {
		return nil, err
	}
	if len(links) == 0 {
		return nil, notFound("share link", token)
	}
	link := links[0]
	if !link.Usable(c.now()) {
		return nil, notFound("share link", token)
	}

	vm, err := c.fetch(ctx, link.EngagementID, nil)
	if err != nil {
		return nil, err
	}

	c.countView(ctx, link)
	return vm, nil
}

const viewCountAttempts = 3

// countView increments the link's view counter, best effort. With a
// conditional store a lost race re-reads the link and retries; a plain store
// can drop counts under concurrent resolves.
func (c *Coordinator) countView(ctx context.Context, link models.ShareLink) {
	var err error
	for attempt := 0; attempt < viewCountAttempts; attempt++ {
		fields := db.Record{"viewCount": link.ViewCount + 1}
		if c.cond == nil {
			_, err = c.store.Update(ctx, db.ShareLinks, link.ID, fields)
			break
		}
		if _, err = c.cond.UpdateIf(ctx, db.ShareLinks, link.ID, link.UpdatedAt, fields); !errors.Is(err, db.ErrRevisionMismatch) {
			break
		}
		var rec db.Record
		if rec, err = c.store.Get(ctx, db.ShareLinks, link.ID); err != nil || rec == nil {
			break
		}
		if link, err = decodeAs[models.ShareLink](rec); err != nil {
			break
		}
		err = db.ErrRevisionMismatch
	}
	if err != nil {
		c.log.Warn("share link view count not updated", "engagement_id", link.EngagementID, "link_id", link.ID, "err", err)
	}
}
