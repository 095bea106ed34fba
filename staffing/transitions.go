package staffing

import (
	"context"
	"strings"

	"github.com/haashirideassion/workforcemanagement-sub000/cache"
	"github.com/haashirideassion/workforcemanagement-sub000/workforce"
)

// CommentInput appends a note to a transition's thread.
type CommentInput struct {
	Author string `json:"author" validate:"required,max=100"`
	Text   string `json:"text" validate:"required,max=2000"`
}

func (s *Service) GetTransition(ctx context.Context, id workforce.TransitionID) (*workforce.Transition, error) {
	t, err := s.store.GetTransition(ctx, id)
	if err != nil {
		return nil, err
	}
	if t == nil {
		return nil, workforce.ErrTransitionNotFound
	}
	return t, nil
}

// ListTransitions returns history newest first.
func (s *Service) ListTransitions(ctx context.Context, f workforce.TransitionFilter) ([]workforce.Transition, error) {
	return s.store.ListTransitions(ctx, f)
}

// EmployeeHistory is the transition list of one existing employee.
func (s *Service) EmployeeHistory(ctx context.Context, id workforce.EmployeeID) ([]workforce.Transition, error) {
	if _, err := s.employee(ctx, id); err != nil {
		return nil, err
	}
	return s.store.ListTransitions(ctx, workforce.TransitionFilter{EmployeeID: id})
}

func (s *Service) AddComment(ctx context.Context, transitionID workforce.TransitionID, in CommentInput) (*workforce.Comment, error) {
	in.Author = strings.TrimSpace(in.Author)
	in.Text = strings.TrimSpace(in.Text)
	if err := checkInput(in); err != nil {
		return nil, err
	}
	c := workforce.Comment{
		ID:           workforce.CommentID(s.newID()),
		TransitionID: transitionID,
		Author:       in.Author,
		Text:         in.Text,
		CreatedAt:    s.now(),
	}
	if err := s.store.AddComment(ctx, c); err != nil {
		return nil, err
	}
	s.bump(ctx, cache.Transitions)
	return &c, nil
}

func (s *Service) DeleteComment(ctx context.Context, transitionID workforce.TransitionID, id workforce.CommentID) error {
	if err := s.store.DeleteComment(ctx, transitionID, id); err != nil {
		return err
	}
	s.bump(ctx, cache.Transitions)
	return nil
}
