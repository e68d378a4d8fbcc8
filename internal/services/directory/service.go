package directory

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"citywatch-worker/internal/models"
	"citywatch-worker/internal/storage"
)

// ErrCameraNotFound is returned when a camera id has no registration.
var ErrCameraNotFound = errors.New("camera not found")

// Service answers camera and authority lookups from the shared database.
type Service struct {
	db *storage.DB
}

func NewService(db *storage.DB) *Service {
	return &Service{db: db}
}

// GetLocation returns the installed location for a camera id.
func (s *Service) GetLocation(ctx context.Context, cameraID string) (string, error) {
	var location string
	err := s.db.Conn().QueryRowContext(ctx,
		`SELECT location FROM cameras WHERE id = ?`, cameraID,
	).Scan(&location)
	if errors.Is(err, sql.ErrNoRows) {
		return "", ErrCameraNotFound
	}
	if err != nil {
		return "", fmt.Errorf("failed to query camera: %w", err)
	}
	return location, nil
}

// ResolveRecipients returns every authority registered for a role. An
// empty result is not an error, merely zero recipients.
func (s *Service) ResolveRecipients(ctx context.Context, role models.Role) ([]models.Recipient, error) {
	rows, err := s.db.Conn().QueryContext(ctx,
		`SELECT email FROM authorities WHERE role = ? ORDER BY id`, string(role))
	if err != nil {
		return nil, fmt.Errorf("failed to query authorities: %w", err)
	}
	defer rows.Close()

	var recipients []models.Recipient
	for rows.Next() {
		var email string
		if err := rows.Scan(&email); err != nil {
			return nil, fmt.Errorf("failed to scan authority: %w", err)
		}
		recipients = append(recipients, models.Recipient{Email: email})
	}
	return recipients, rows.Err()
}

// RegisterCamera upserts a camera registration.
func (s *Service) RegisterCamera(ctx context.Context, cam models.Camera) error {
	_, err := s.db.Conn().ExecContext(ctx,
		`INSERT INTO cameras (id, location) VALUES (?, ?)
		 ON CONFLICT(id) DO UPDATE SET location = excluded.location`,
		cam.ID, cam.Location)
	if err != nil {
		return fmt.Errorf("failed to register camera: %w", err)
	}
	return nil
}

// RegisterAuthority adds a recipient for a role. Duplicate registrations
// are ignored.
func (s *Service) RegisterAuthority(ctx context.Context, email string, role models.Role) error {
	_, err := s.db.Conn().ExecContext(ctx,
		`INSERT OR IGNORE INTO authorities (email, role) VALUES (?, ?)`,
		email, string(role))
	if err != nil {
		return fmt.Errorf("failed to register authority: %w", err)
	}
	return nil
}
