// Package mcp provides the Model Context Protocol server integration for tickr.
package mcp

import (
	"context"
	"errors"
	"time"

	"tableflip.dev/tickr/pkg/app"
	"tableflip.dev/tickr/pkg/view"
)

// Service adapts the application service to transport-friendly values.
type Service struct {
	App *app.Service
}

// NewService builds a service wrapper around the application service.
func NewService(a *app.Service) *Service {
	return &Service{App: a}
}

func (s *Service) ready() error {
	if s.App == nil {
		return errors.New("timer service is not configured")
	}
	return nil
}

// Status returns the current timer.
func (s *Service) Status(_ context.Context) (*view.Timer, error) {
	if err := s.ready(); err != nil {
		return nil, err
	}
	st, err := s.App.Status()
	if err != nil {
		return nil, err
	}
	v := view.FromStatus(st)
	return &v, nil
}

// Start begins timing a new entry.
func (s *Service) Start(ctx context.Context, description string, projectID *int64) (*view.Timer, error) {
	if err := s.ready(); err != nil {
		return nil, err
	}
	st, err := s.App.Start(ctx, description, projectID)
	if err != nil {
		return nil, err
	}
	v := view.FromStatus(st)
	return &v, nil
}

// Pause suspends the running timer.
func (s *Service) Pause(_ context.Context) (*view.Timer, error) {
	if err := s.ready(); err != nil {
		return nil, err
	}
	st, err := s.App.Pause()
	if err != nil {
		return nil, err
	}
	v := view.FromStatus(st)
	return &v, nil
}

// Resume continues a paused timer.
func (s *Service) Resume(_ context.Context) (*view.Timer, error) {
	if err := s.ready(); err != nil {
		return nil, err
	}
	st, err := s.App.Resume()
	if err != nil {
		return nil, err
	}
	v := view.FromStatus(st)
	return &v, nil
}

// Stop ends the running timer.
func (s *Service) Stop(ctx context.Context) (*view.Stop, error) {
	if err := s.ready(); err != nil {
		return nil, err
	}
	res, err := s.App.Stop(ctx)
	if err != nil {
		return nil, err
	}
	v := view.FromStop(res)
	return &v, nil
}

// ListEntries returns one page of recorded entries.
func (s *Service) ListEntries(ctx context.Context, page, perPage int) (*view.Page, error) {
	if err := s.ready(); err != nil {
		return nil, err
	}
	p, err := s.App.Entries(ctx, page, perPage)
	if err != nil {
		return nil, err
	}
	v := view.FromPage(p)
	return &v, nil
}

// Sessions returns the local session log for the last window.
func (s *Service) Sessions(ctx context.Context, window time.Duration) ([]view.Session, error) {
	if err := s.ready(); err != nil {
		return nil, err
	}
	var since time.Time
	if window > 0 {
		since = time.Now().Add(-window)
	}
	sessions, err := s.App.Log(ctx, since, time.Time{})
	if err != nil {
		return nil, err
	}
	return view.FromSessions(sessions), nil
}
