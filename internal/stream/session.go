package stream

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"stockstream/metrics"
	"stockstream/pkg/storage/postgres"
)

// DefaultListenTimeout bounds how long the listener waits for a subscription
// update before logging that it is still alive.
const DefaultListenTimeout = 60 * time.Second

// PriceSource reads the latest trade for a ticker. A (nil, nil) return means
// no trade exists yet.
type PriceSource interface {
	LatestTrade(ctx context.Context, ticker string) (*postgres.TradeRecord, error)
}

// Subscription is the per-connection mutable state shared by the two session
// loops. The listen loop is the only writer; the push loop takes a consistent
// snapshot of both fields each iteration.
type Subscription struct {
	mu       sync.Mutex
	ticker   string
	interval time.Duration
}

func (s *Subscription) Set(ticker string, interval time.Duration) {
	s.mu.Lock()
	s.ticker = ticker
	s.interval = interval
	s.mu.Unlock()
}

// Snapshot returns the current ticker and interval as one consistent pair.
func (s *Subscription) Snapshot() (string, time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.ticker, s.interval
}

// Session coordinates one connected stream client: a push loop that reads the
// latest price at the current cadence and a listen loop that applies
// client-sent reconfigurations. Either loop's failure tears the whole session
// down; teardown is idempotent.
type Session struct {
	conn          *websocket.Conn
	store         PriceSource
	logger        *zap.Logger
	listenTimeout time.Duration

	sub       Subscription
	closeOnce sync.Once
}

func NewSession(conn *websocket.Conn, store PriceSource, logger *zap.Logger,
	listenTimeout time.Duration) *Session {
	if listenTimeout <= 0 {
		listenTimeout = DefaultListenTimeout
	}
	return &Session{
		conn:          conn,
		store:         store,
		logger:        logger,
		listenTimeout: listenTimeout,
	}
}

// Run waits for the initial subscription message, then drives both loops
// until the connection closes, either loop fails, or ctx is cancelled. It
// returns after both loops have acknowledged shutdown and the connection is
// released.
func (s *Session) Run(ctx context.Context) error {
	defer s.close()

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	msgCh, errCh := s.startReader(ctx)

	first, err := s.awaitFirstMessage(ctx, msgCh, errCh)
	if err != nil {
		return err
	}
	s.sub.Set(first.normalizedTicker(), time.Duration(first.Tick)*time.Second)
	s.logger.Info("stream subscription established",
		zap.String("ticker", first.normalizedTicker()), zap.Int("tick", first.Tick))

	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		defer cancel()
		s.pushLoop(ctx)
	}()
	go func() {
		defer wg.Done()
		defer cancel()
		s.listenLoop(ctx, msgCh, errCh)
	}()
	wg.Wait()

	return nil
}

// startReader pumps inbound control messages into a channel so the listen
// loop can bound its waits and react to cancellation while a read is pending.
// Malformed JSON is logged and skipped; transport errors end the pump.
func (s *Session) startReader(ctx context.Context) (<-chan ControlMessage, <-chan error) {
	msgCh := make(chan ControlMessage)
	errCh := make(chan error, 1)

	go func() {
		for {
			var msg ControlMessage
			if err := s.conn.ReadJSON(&msg); err != nil {
				if isDecodeError(err) {
					s.logger.Warn("discarding malformed control message", zap.Error(err))
					continue
				}
				errCh <- err
				return
			}
			select {
			case msgCh <- msg:
			case <-ctx.Done():
				return
			}
		}
	}()

	return msgCh, errCh
}

func (s *Session) awaitFirstMessage(ctx context.Context, msgCh <-chan ControlMessage,
	errCh <-chan error) (ControlMessage, error) {
	for {
		select {
		case <-ctx.Done():
			return ControlMessage{}, ctx.Err()
		case err := <-errCh:
			return ControlMessage{}, err
		case msg := <-msgCh:
			if err := msg.Validate(); err != nil {
				s.logger.Warn("rejecting invalid initial subscription", zap.Error(err))
				continue
			}
			return msg, nil
		}
	}
}

// maxStoreFailures is how many consecutive read failures the push loop
// tolerates before treating the store as unreachable.
const maxStoreFailures = 3

// pushLoop reads the latest trade for the subscribed ticker and sends one
// tick message per interval. A read failure skips the tick; repeated failures
// mean the store is unreachable and end the session. A write failure ends the
// loop immediately.
func (s *Session) pushLoop(ctx context.Context) {
	storeFailures := 0
	for {
		ticker, interval := s.sub.Snapshot()

		rec, err := s.store.LatestTrade(ctx, ticker)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			storeFailures++
			if storeFailures >= maxStoreFailures {
				s.logger.Error("store unreachable, closing stream",
					zap.String("ticker", ticker), zap.Error(err))
				return
			}
			s.logger.Warn("latest trade read failed, skipping tick",
				zap.String("ticker", ticker), zap.Error(err))
			rec = nil
		} else {
			storeFailures = 0
		}

		msg := TickMessage{
			Type:        tickMessageType,
			Ticker:      ticker,
			CurrentTick: int(interval / time.Second),
		}
		if rec != nil {
			price, _ := rec.Price.Float64()
			msg.Data = &TickData{High: price, Low: price}
		}

		if err := s.conn.WriteJSON(msg); err != nil {
			if ctx.Err() == nil {
				s.logger.Error("tick write failed", zap.Error(err))
			}
			return
		}
		metrics.TicksSent.Inc()

		select {
		case <-ctx.Done():
			return
		case <-time.After(interval):
		}
	}
}

// listenLoop applies subscription updates. Going listenTimeout without a
// message is expected idle behavior, not a fault; only transport errors or
// cancellation end the loop.
func (s *Session) listenLoop(ctx context.Context, msgCh <-chan ControlMessage, errCh <-chan error) {
	for {
		select {
		case <-ctx.Done():
			return
		case err := <-errCh:
			if ctx.Err() == nil {
				s.logger.Error("control read failed", zap.Error(err))
			}
			return
		case msg := <-msgCh:
			if err := msg.Validate(); err != nil {
				s.logger.Warn("discarding invalid control message", zap.Error(err))
				continue
			}
			s.sub.Set(msg.normalizedTicker(), time.Duration(msg.Tick)*time.Second)
			s.logger.Info("subscription updated",
				zap.String("ticker", msg.normalizedTicker()), zap.Int("tick", msg.Tick))
		case <-time.After(s.listenTimeout):
			s.logger.Debug("waiting for subscription update")
		}
	}
}

func (s *Session) close() {
	s.closeOnce.Do(func() {
		deadline := time.Now().Add(time.Second)
		_ = s.conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""), deadline)
		_ = s.conn.Close()
	})
}

func isDecodeError(err error) bool {
	var syntaxErr *json.SyntaxError
	var typeErr *json.UnmarshalTypeError
	return errors.As(err, &syntaxErr) || errors.As(err, &typeErr)
}
