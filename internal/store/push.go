package store

import (
	"database/sql"
	"fmt"

	"github.com/fennwick/hearth/internal/model"
)

func scanPushSubscription(scanner interface{ Scan(...any) error }) (*model.PushSubscription, error) {
	var sub model.PushSubscription
	err := scanner.Scan(&sub.ID, &sub.UserID, &sub.Endpoint, &sub.P256dhKey, &sub.AuthKey, &sub.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &sub, nil
}

const pushCols = `id, user_id, endpoint, p256dh, auth, created_at`

// SavePushSubscription registers a push endpoint. Re-subscribing the same
// endpoint replaces the keys rather than duplicating the row.
func (s *FamilyStore) SavePushSubscription(sub *model.PushSubscription) error {
	if sub.Endpoint == "" || sub.P256dhKey == "" || sub.AuthKey == "" {
		return fmt.Errorf("save push subscription: endpoint and keys are required")
	}
	_, err := s.db.Exec(
		`INSERT INTO push_subscriptions (id, user_id, endpoint, p256dh, auth) VALUES (?, ?, ?, ?, ?)
		 ON CONFLICT(endpoint) DO UPDATE SET
		   user_id = excluded.user_id,
		   p256dh = excluded.p256dh,
		   auth = excluded.auth`,
		sub.ID, sub.UserID, sub.Endpoint, sub.P256dhKey, sub.AuthKey,
	)
	if err != nil {
		return fmt.Errorf("save push subscription: %w", err)
	}
	return nil
}

// DeletePushSubscription removes one endpoint, typically after the push
// service reports it gone.
func (s *FamilyStore) DeletePushSubscription(id string) error {
	_, err := s.db.Exec(`DELETE FROM push_subscriptions WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete push subscription: %w", err)
	}
	return nil
}

// ListPushSubscriptions returns the user's registered endpoints.
func (s *FamilyStore) ListPushSubscriptions(userID string) ([]model.PushSubscription, error) {
	rows, err := s.db.Query(
		`SELECT `+pushCols+` FROM push_subscriptions WHERE user_id = ? ORDER BY created_at ASC`,
		userID,
	)
	if err != nil {
		return nil, fmt.Errorf("list push subscriptions: %w", err)
	}
	defer rows.Close()
	return collectPushSubscriptions(rows)
}

// ListFamilyPushSubscriptions returns the endpoints of every member of the
// family holding the given role, for fanning a notification out to all of
// a family's parents or kids.
func (s *FamilyStore) ListFamilyPushSubscriptions(familyID string, role model.Role) ([]model.PushSubscription, error) {
	rows, err := s.db.Query(
		`SELECT ps.id, ps.user_id, ps.endpoint, ps.p256dh, ps.auth, ps.created_at
		 FROM push_subscriptions ps
		 JOIN family_members fm ON fm.user_id = ps.user_id
		 WHERE fm.family_id = ? AND fm.role = ?
		 ORDER BY ps.created_at ASC`,
		familyID, string(role),
	)
	if err != nil {
		return nil, fmt.Errorf("list family push subscriptions: %w", err)
	}
	defer rows.Close()
	return collectPushSubscriptions(rows)
}

func collectPushSubscriptions(rows *sql.Rows) ([]model.PushSubscription, error) {
	var subs []model.PushSubscription
	for rows.Next() {
		sub, err := scanPushSubscription(rows)
		if err != nil {
			return nil, fmt.Errorf("scan push subscription: %w", err)
		}
		subs = append(subs, *sub)
	}
	return subs, rows.Err()
}
