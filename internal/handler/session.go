package handler

import (
	"context"
	"errors"
	"time"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"
	"go.uber.org/zap"

	"github.com/young1lin/groundsearch/internal/models"
	"github.com/young1lin/groundsearch/internal/orchestrator"
	"github.com/young1lin/groundsearch/internal/presenter"
)

const (
	frameWriteTimeout = 10 * time.Second
	maxEventBytes     = 16 * 1024
)

// Session is one open page: a websocket bound to its own controller.
// Closing the socket discards the session and its state.
type Session struct {
	id   string
	conn *websocket.Conn
	ctrl *orchestrator.Controller
	opts presenter.Options
	log  *zap.Logger

	// one-slot mailbox, the newest state replaces an unsent one
	mailbox chan models.SearchState
}

// NewSession wires conn to ctrl
func NewSession(id string, conn *websocket.Conn, ctrl *orchestrator.Controller, opts presenter.Options, log *zap.Logger) *Session {
	conn.SetReadLimit(maxEventBytes)
	return &Session{
		id:      id,
		conn:    conn,
		ctrl:    ctrl,
		opts:    opts,
		log:     log,
		mailbox: make(chan models.SearchState, 1),
	}
}

// Run pushes a render on every state change and feeds client events to the
// controller until the socket closes.
func (s *Session) Run(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	defer s.ctrl.Close()

	unsubscribe := s.ctrl.Subscribe(s.post)
	defer unsubscribe()

	s.post(s.ctrl.State())

	errc := make(chan error, 2)
	go func() { errc <- s.writeLoop(ctx) }()
	go func() { errc <- s.readLoop(ctx) }()

	err := <-errc
	if err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}

// post replaces any unsent state with the newest one. A fast answer may
// overwrite its loading state before it is written; only the latest matters.
func (s *Session) post(state models.SearchState) {
	for {
		select {
		case s.mailbox <- state:
			return
		default:
		}
		select {
		case <-s.mailbox:
		default:
		}
	}
}

func (s *Session) writeLoop(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case state := <-s.mailbox:
			if err := s.writeFrame(ctx, state); err != nil {
				return err
			}
		}
	}
}

func (s *Session) writeFrame(ctx context.Context, state models.SearchState) error {
	query := s.ctrl.Query()
	html, err := presenter.RenderHTMLString(presenter.Build(state, query, s.opts))
	if err != nil {
		return err
	}

	frame := models.RenderFrame{
		Type:   "render",
		Status: state.Status,
		Query:  query,
		Seq:    state.Seq,
		HTML:   html,
	}

	ctx, cancel := context.WithTimeout(ctx, frameWriteTimeout)
	defer cancel()
	if err := wsjson.Write(ctx, s.conn, frame); err != nil {
		return err
	}

	s.log.Debug("frame sent", zap.String("status", string(state.Status)), zap.Uint64("seq", state.Seq))
	return nil
}

func (s *Session) readLoop(ctx context.Context) error {
	for {
		var ev models.ClientEvent
		if err := wsjson.Read(ctx, s.conn, &ev); err != nil {
			switch websocket.CloseStatus(err) {
			case websocket.StatusNormalClosure, websocket.StatusGoingAway:
				return nil
			}
			return err
		}
		s.handleEvent(ev)
	}
}

func (s *Session) handleEvent(ev models.ClientEvent) {
	switch ev.Type {
	case models.EventSubmit:
		if !s.ctrl.Submit(ev.Query) {
			s.log.Debug("blank query ignored")
		}
	case models.EventRetry:
		if !s.ctrl.Retry() {
			s.log.Debug("retry without query ignored")
		}
	case models.EventInput:
		s.ctrl.SetQuery(ev.Query)
	default:
		s.log.Warn("unknown client event", zap.String("type", ev.Type))
	}
}
