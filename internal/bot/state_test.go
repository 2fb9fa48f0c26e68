package bot

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEveryStateHasOwner(t *testing.T) {
	for s := range stateNames {
		if s == StateIdle {
			continue
		}
		_, ok := transitions[s]
		assert.True(t, ok, "state %s has no transitions", s)
	}
	_, ok := transitions[StateIdle]
	assert.False(t, ok, "idle must not be owned by a flow")
}

func TestFlowsReachIdle(t *testing.T) {
	flows := map[string]Transitions{
		"language":     LanguageFlow,
		"privacy":      PrivacyFlow,
		"registration": RegistrationFlow,
		"food":         FoodLogFlow,
		"workout":      WorkoutFlow,
		"summary":      SummaryFlow,
		"advice":       AdviceFlow,
		"admin_type":   AdminTypeFlow,
	}
	for name, flow := range flows {
		t.Run(name, func(t *testing.T) {
			for start := range flow {
				s := start
				for i := 0; i < len(transitions) && s != StateIdle; i++ {
					next, err := s.Next(EventAccepted)
					require.NoError(t, err, "from %s", s)
					s = next
				}
				assert.Equal(t, StateIdle, s, "flow from %s never ends", start)
			}
		})
	}
}

func TestMergeFlowsPanicsOnDuplicateOwner(t *testing.T) {
	assert.Panics(t, func() {
		mergeFlows(FoodLogFlow, Transitions{StateFoodGrams: {EventAccepted: StateIdle}})
	})
}

func TestStateNext(t *testing.T) {
	next, err := StateWorkoutDuration.Next(EventNeedsWeight)
	require.NoError(t, err)
	assert.Equal(t, StateWorkoutWeight, next)

	next, err = StateLanguage.Next(EventRegister)
	require.NoError(t, err)
	assert.Equal(t, StateRegSex, next)

	next, err = StateLanguage.Next(EventNeedsConsent)
	require.NoError(t, err)
	assert.Equal(t, StatePrivacy, next)

	next, err = StatePrivacy.Next(EventRegister)
	require.NoError(t, err)
	assert.Equal(t, StateRegSex, next)

	_, err = StateFoodItems.Next(EventNeedsWeight)
	assert.Error(t, err)

	_, err = StateIdle.Next(EventAccepted)
	assert.Error(t, err)
}

func TestStateString(t *testing.T) {
	assert.Equal(t, "food_grams", StateFoodGrams.String())
	assert.Equal(t, "state(99)", State(99).String())
}

func TestSessionAdvance(t *testing.T) {
	s := &Session{Lang: "en"}
	s.Start(StateFoodItems)
	s.FoodNames = []string{"борщ"}

	require.NoError(t, s.Advance(EventAccepted))
	assert.Equal(t, StateFoodGrams, s.State)
	assert.Equal(t, []string{"борщ"}, s.FoodNames)

	require.NoError(t, s.Advance(EventAccepted))
	assert.Equal(t, StateIdle, s.State)
	assert.Nil(t, s.FoodNames, "finished dialog must drop its data")
	assert.Equal(t, "en", s.Lang)
}

func TestSessionAdvanceInvalidKeepsState(t *testing.T) {
	s := &Session{}
	s.Start(StateRegAge)
	assert.Error(t, s.Advance(EventNeedsMetrics))
	assert.Equal(t, StateRegAge, s.State)
}

func TestSessionStartKeepsLanguage(t *testing.T) {
	s := &Session{Lang: "ru", Minutes: 30, Register: true}
	s.Start(StateWorkoutType)
	assert.Equal(t, "ru", s.Lang)
	assert.Zero(t, s.Minutes)
	assert.False(t, s.Register)
}

func TestStateStoreGet(t *testing.T) {
	st := NewStateStore()
	a := st.Get(1)
	a.State = StateRecipe
	assert.Same(t, a, st.Get(1))
	assert.Equal(t, StateIdle, st.Get(2).State)
	assert.Equal(t, 2, st.Len())
}

func TestStateStoreLockSerializesUser(t *testing.T) {
	st := NewStateStore()
	var (
		wg      sync.WaitGroup
		counter int
	)
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			unlock := st.Lock(7)
			defer unlock()
			s := st.Get(7)
			s.Minutes++
			counter++
		}()
	}
	wg.Wait()
	assert.Equal(t, 50, counter)
	assert.Equal(t, 50, st.Get(7).Minutes)
}

func TestStateStorePrune(t *testing.T) {
	st := NewStateStore()
	st.Get(1).State = StateFoodGrams
	st.Get(2)

	st.mu.Lock()
	st.lastSeen[1] = time.Now().Add(-48 * time.Hour)
	st.mu.Unlock()

	assert.Equal(t, 1, st.Prune(24*time.Hour))
	assert.Equal(t, 1, st.Len())
	assert.Equal(t, StateIdle, st.Get(1).State, "pruned dialog starts over")
}
