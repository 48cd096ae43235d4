package session

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ugaemi/jetlagged-server/internal/game"
	"github.com/ugaemi/jetlagged-server/internal/geo"
	"github.com/ugaemi/jetlagged-server/internal/locator"
	"github.com/ugaemi/jetlagged-server/internal/store"
	"github.com/ugaemi/jetlagged-server/internal/ws"
)

// manualClock hands out a single ticker that only fires when told to.
type manualClock struct {
	ch chan time.Time
}

func newManualClock() *manualClock {
	return &manualClock{ch: make(chan time.Time)}
}

func (m *manualClock) NewTicker(time.Duration) Ticker { return m }
func (m *manualClock) C() <-chan time.Time           { return m.ch }
func (m *manualClock) Stop()                         {}

// Advance delivers n ticks. Each send blocks until the loop has taken it.
func (m *manualClock) Advance(n int) {
	for i := 0; i < n; i++ {
		m.ch <- time.Now()
	}
}

// staticResolver always places the seeker at the same spot.
type staticResolver struct {
	at game.Address
}

func (r staticResolver) Resolve(_ context.Context, req locator.Request) (game.Address, error) {
	if err := req.Validate(); err != nil {
		return game.Address{}, err
	}
	return r.at, nil
}

// blockingResolver waits for cancellation and reports it.
type blockingResolver struct {
	cancelled chan struct{}
	once      sync.Once
}

func (r *blockingResolver) Resolve(ctx context.Context, _ locator.Request) (game.Address, error) {
	<-ctx.Done()
	r.once.Do(func() { close(r.cancelled) })
	return game.Address{}, ctx.Err()
}

func mockClient() *ws.Client {
	return &ws.Client{ID: "hider", Send: make(chan []byte, 1024)}
}

// drainMessages reads all pending messages from a client's send channel.
func drainMessages(client *ws.Client) []ws.Message {
	var msgs []ws.Message
	for {
		select {
		case data := <-client.Send:
			var msg ws.Message
			if err := json.Unmarshal(data, &msg); err == nil {
				msgs = append(msgs, msg)
			}
		default:
			return msgs
		}
	}
}

func messageTypes(msgs []ws.Message) []string {
	types := make([]string, 0, len(msgs))
	for _, m := range msgs {
		types = append(types, m.Type)
	}
	return types
}

func newTestSession(t *testing.T, r locator.Resolver, archive store.RoundArchive) (*Session, *manualClock, *ws.Client) {
	t.Helper()
	clock := newManualClock()
	client := mockClient()
	s := New("TEST", client, Deps{Locator: r, Archive: archive, Clock: clock}, fixedRand{f: 0.99})
	s.Start()
	t.Cleanup(s.Stop)
	return s, clock, client
}

func phaseOf(t *testing.T, s *Session) game.Phase {
	t.Helper()
	snap, err := s.Snapshot()
	require.NoError(t, err)
	return snap.Phase
}

func TestSession_PlaysARound(t *testing.T) {
	seekerAddr := game.NewAddress("1 Seeker Street, Testville", geo.Coordinate{Lat: 40.01, Lon: -75}, game.KindStreet, 0.5)
	archive := store.NewMemoryArchive()
	s, clock, client := newTestSession(t, staticResolver{at: seekerAddr}, archive)

	require.NoError(t, s.SelectHideout(testCity, testHideout))
	require.NoError(t, s.ConfirmHide())
	clock.Advance(game.HideCountdownTicks + game.ReleaseCountdownTicks)

	require.Eventually(t, func() bool {
		return phaseOf(t, s) == game.PhaseAwaitingAnswer
	}, time.Second, 5*time.Millisecond)

	msgs := drainMessages(client)
	types := messageTypes(msgs)
	assert.Contains(t, types, ws.TypeSessionState)
	assert.Contains(t, types, ws.TypeSeekerReleased)
	assert.Contains(t, types, ws.TypeSeekerMoved)
	assert.Contains(t, types, ws.TypeQuestion)

	for _, m := range msgs {
		if m.Type != ws.TypeQuestion {
			continue
		}
		var q questionMessage
		require.NoError(t, json.Unmarshal(m.Data, &q))
		assert.Equal(t, 1, q.Round)
		assert.Equal(t, 5.0, q.Question.ThresholdMiles)
		assert.Equal(t, game.AnswerTimeoutTicks, q.Timeout)
	}

	require.NoError(t, s.Answer())
	assert.Equal(t, game.PhaseShowingResult, phaseOf(t, s))
	assert.Contains(t, messageTypes(drainMessages(client)), ws.TypeResult)

	require.Eventually(t, func() bool {
		rounds, _ := archive.RoundsForSession(context.Background(), "TEST")
		return len(rounds) == 1
	}, time.Second, 5*time.Millisecond)
	rounds, err := archive.RoundsForSession(context.Background(), "TEST")
	require.NoError(t, err)
	assert.Equal(t, "distance", rounds[0].QuestionKind)
	assert.True(t, rounds[0].Answer)
	assert.False(t, rounds[0].AutoAnswered)
	assert.Equal(t, game.DistancePoints, rounds[0].Score)
}

func TestSession_ArchivesEveryGame(t *testing.T) {
	seekerAddr := game.NewAddress("1 Seeker Street, Testville", geo.Coordinate{Lat: 40.01, Lon: -75}, game.KindStreet, 0.5)
	archive := store.NewMemoryArchive()
	s, clock, _ := newTestSession(t, staticResolver{at: seekerAddr}, archive)

	playFirstRound := func() {
		require.NoError(t, s.SelectHideout(testCity, testHideout))
		require.NoError(t, s.ConfirmHide())
		clock.Advance(game.HideCountdownTicks + game.ReleaseCountdownTicks)
		require.Eventually(t, func() bool {
			return phaseOf(t, s) == game.PhaseAwaitingAnswer
		}, time.Second, 5*time.Millisecond)
		require.NoError(t, s.Answer())
	}

	playFirstRound()
	// Picking a new hideout resets the game and numbering starts over.
	playFirstRound()

	require.Eventually(t, func() bool {
		rounds, _ := archive.RoundsForSession(context.Background(), "TEST")
		return len(rounds) == 2
	}, time.Second, 5*time.Millisecond)
	rounds, err := archive.RoundsForSession(context.Background(), "TEST")
	require.NoError(t, err)
	assert.Equal(t, 1, rounds[0].Round)
	assert.Equal(t, 1, rounds[1].Round)
	assert.NotEmpty(t, rounds[0].GameID)
	assert.NotEmpty(t, rounds[1].GameID)
	assert.NotEqual(t, rounds[0].GameID, rounds[1].GameID)
}

func TestSession_StateMessageCarriesMap(t *testing.T) {
	seekerAddr := game.NewAddress("1 Seeker Street, Testville", geo.Coordinate{Lat: 40.01, Lon: -75}, game.KindStreet, 0.5)
	s, _, client := newTestSession(t, staticResolver{at: seekerAddr}, nil)

	require.NoError(t, s.SelectHideout(testCity, testHideout))
	// A second command waits for the first one's state to be flushed.
	_, err := s.Snapshot()
	require.NoError(t, err)

	var state stateMessage
	msgs := drainMessages(client)
	require.NotEmpty(t, msgs)
	last := msgs[len(msgs)-1]
	require.Equal(t, ws.TypeSessionState, last.Type)

	var raw map[string]json.RawMessage
	require.NoError(t, json.Unmarshal(last.Data, &raw))
	assert.JSONEq(t, `"confirming_hide"`, string(raw["phase"]))
	require.NoError(t, json.Unmarshal(raw["map"], &state.Map))
	require.Len(t, state.Map.Markers, 1)
	assert.Equal(t, "hideout", state.Map.Markers[0].Kind)
}

func TestSession_ResetCancelsInflightLookup(t *testing.T) {
	r := &blockingResolver{cancelled: make(chan struct{})}
	s, clock, _ := newTestSession(t, r, nil)

	require.NoError(t, s.SelectHideout(testCity, testHideout))
	require.NoError(t, s.ConfirmHide())
	clock.Advance(game.HideCountdownTicks + game.ReleaseCountdownTicks)
	require.Equal(t, game.PhaseAwaitingQuestion, phaseOf(t, s))

	require.NoError(t, s.Reset())
	select {
	case <-r.cancelled:
	case <-time.After(time.Second):
		t.Fatal("locator call was not cancelled by reset")
	}

	// The cancelled lookup's delivery is stale and must not move the game.
	clock.Advance(3)
	snap, err := s.Snapshot()
	require.NoError(t, err)
	assert.Equal(t, game.PhaseSelecting, snap.Phase)
	assert.Nil(t, snap.Seeker)
	assert.Zero(t, snap.Score)
}

func TestSession_CommandErrors(t *testing.T) {
	s, _, _ := newTestSession(t, staticResolver{}, nil)

	assert.ErrorIs(t, s.Answer(), ErrNoActiveQuestion)
	assert.ErrorIs(t, s.ConfirmHide(), ErrInvalidPhase)
	assert.ErrorIs(t, s.CancelHide(), ErrInvalidPhase)
}

func TestSession_StopIsIdempotent(t *testing.T) {
	s, _, _ := newTestSession(t, staticResolver{}, nil)

	s.Stop()
	s.Stop()

	_, err := s.Snapshot()
	assert.ErrorIs(t, err, ErrSessionStopped)
	assert.True(t, errors.Is(s.Reset(), ErrSessionStopped))
}

func TestSession_StopWithoutStart(t *testing.T) {
	s := New("IDLE", mockClient(), Deps{Locator: staticResolver{}}, fixedRand{})

	done := make(chan struct{})
	go func() {
		s.Stop()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Stop blocked on a session that never started")
	}
}

func TestManager_CreateAndRemove(t *testing.T) {
	m := NewManager(Deps{Locator: staticResolver{}, Clock: newManualClock()})

	a := m.CreateSession(mockClient())
	b := m.CreateSession(mockClient())
	assert.NotEqual(t, a.ID, b.ID)
	assert.Len(t, a.ID, codeLength)
	assert.Equal(t, 2, m.SessionCount())
	assert.Same(t, a, m.GetSession(a.ID))

	m.RemoveSession(a.ID)
	assert.Nil(t, m.GetSession(a.ID))
	assert.Equal(t, 1, m.SessionCount())
	_, err := a.Snapshot()
	assert.ErrorIs(t, err, ErrSessionStopped)

	m.RemoveSession("NOPE")
	m.StopAll()
	assert.Zero(t, m.SessionCount())
	_, err = b.Snapshot()
	assert.ErrorIs(t, err, ErrSessionStopped)
}

func TestManager_CodesAreUnique(t *testing.T) {
	m := NewManager(Deps{Locator: staticResolver{}})
	for i := 0; i < 200; i++ {
		code := m.freeCode()
		require.Len(t, code, codeLength)
		require.NotContains(t, m.sessions, code)
		require.NotContains(t, code, "I")
		require.NotContains(t, code, "O")
		// Placeholders are enough to mark a code as taken.
		m.sessions[code] = nil
	}
}
