package server

import (
	"context"
	"fmt"
	"time"

	"viralpik/internal/middleware"
	"viralpik/internal/models"
	"viralpik/internal/notifications"
	"viralpik/internal/observability"
)

// Event type constants prevent typos in event names.
const (
	EventAssetApproved = "asset_approved"
	EventAssetRejected = "asset_rejected"
	EventNewFollower   = "new_follower"
	EventNewComment    = "new_comment"
)

// publishUserEvent delivers to local connections and fans out through Redis
// for users connected to other instances.
func (s *Server) publishUserEvent(userID uint, eventType string, payload map[string]interface{}) {
	if userID == 0 {
		return
	}
	message, err := notifications.Encode(eventType, payload)
	if err != nil {
		middleware.Logger.Error("event not encoded", "event", eventType, "error", err)
		return
	}
	if s.notifier != nil {
		if err := s.notifier.PublishUser(context.Background(), userID, message); err != nil {
			middleware.Logger.Warn("event not published", "event", eventType, "user_id", userID, "error", err)
		}
		return
	}
	// no pub/sub: deliver locally only
	if s.hub != nil {
		s.hub.Broadcast(userID, message)
	}
}

func (s *Server) publishModeration(asset *models.Asset) {
	eventType := EventAssetRejected
	if asset.Status == models.AssetStatusApproved {
		eventType = EventAssetApproved
	}
	payload := map[string]interface{}{
		"asset_id": asset.ID,
		"title":    asset.Title,
		"status":   asset.Status,
	}
	if asset.RejectionReason != "" {
		payload["reason"] = asset.RejectionReason
	}
	s.publishUserEvent(asset.CreatorID, eventType, payload)

	if s.mailer != nil {
		a := *asset
		observability.RunBestEffort(context.Background(), "moderation_mail", 30*time.Second,
			map[string]interface{}{"asset_id": a.ID, "creator_id": a.CreatorID},
			func(ctx context.Context) error { return s.mailModerationIfOffline(ctx, &a, s.mailer.Send) })
	}
}

type sendMailFunc func(ctx context.Context, to, subject, body string) error

// mailModerationIfOffline emails the moderation outcome to a creator who has
// no notification socket open anywhere.
func (s *Server) mailModerationIfOffline(ctx context.Context, asset *models.Asset, send sendMailFunc) error {
	if s.hub != nil && s.hub.IsOnline(ctx, asset.CreatorID) {
		return nil
	}
	creator, err := s.profileRepo.GetByID(ctx, asset.CreatorID)
	if err != nil {
		return err
	}
	if creator.Email == "" {
		return nil
	}
	subject, body := moderationEmail(creator, asset)
	return send(ctx, creator.Email, subject, body)
}

func moderationEmail(creator *models.Profile, asset *models.Asset) (subject, body string) {
	name := creator.DisplayName
	if name == "" {
		name = creator.Username
	}
	if asset.Status == models.AssetStatusApproved {
		return fmt.Sprintf("%q is live on ViralPik", asset.Title),
			fmt.Sprintf("Hi %s,\n\nYour asset %q was approved and now appears in the feed.\n", name, asset.Title)
	}
	reason := asset.RejectionReason
	if reason == "" {
		reason = "No reason was given."
	}
	return fmt.Sprintf("%q was not approved", asset.Title),
		fmt.Sprintf("Hi %s,\n\nYour asset %q was rejected.\n\nReason: %s\n\nYou can fix it and submit again.\n",
			name, asset.Title, reason)
}

func profileSummary(p *models.Profile) map[string]interface{} {
	if p == nil {
		return nil
	}
	return map[string]interface{}{
		"id":         p.ID,
		"username":   p.Username,
		"avatar_url": p.AvatarURL,
	}
}
