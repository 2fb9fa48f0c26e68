package bot

import (
	"fmt"
	"sync"
	"time"

	"github.com/VadimVthvPro/PRO-pitashka/internal/models"
	"github.com/VadimVthvPro/PRO-pitashka/internal/service"
)

// State - шаг диалога с пользователем
type State int

const (
	StateIdle State = iota
	StateLanguage
	StatePrivacy

	StateRegSex
	StateRegAge
	StateRegHeight
	StateRegWeight
	StateRegAim

	StateFoodItems
	StateFoodGrams

	StateWorkoutType
	StateWorkoutDuration
	StateWorkoutWeight

	StateSummaryPeriod
	StateSummaryWeight
	StateSummaryHeight

	StateRecipe
	StateTrainingHelp

	StateAdminTypeNameRU
	StateAdminTypeNameEN
	StateAdminTypeEmoji
	StateAdminTypeCoef
)

var stateNames = map[State]string{
	StateIdle:            "idle",
	StateLanguage:        "language",
	StatePrivacy:         "privacy",
	StateRegSex:          "reg_sex",
	StateRegAge:          "reg_age",
	StateRegHeight:       "reg_height",
	StateRegWeight:       "reg_weight",
	StateRegAim:          "reg_aim",
	StateFoodItems:       "food_items",
	StateFoodGrams:       "food_grams",
	StateWorkoutType:     "workout_type",
	StateWorkoutDuration: "workout_duration",
	StateWorkoutWeight:   "workout_weight",
	StateSummaryPeriod:   "summary_period",
	StateSummaryWeight:   "summary_weight",
	StateSummaryHeight:   "summary_height",
	StateRecipe:          "recipe",
	StateTrainingHelp:    "training_help",
	StateAdminTypeNameRU: "admin_type_name_ru",
	StateAdminTypeNameEN: "admin_type_name_en",
	StateAdminTypeEmoji:  "admin_type_emoji",
	StateAdminTypeCoef:   "admin_type_coef",
}

func (s State) String() string {
	if n, ok := stateNames[s]; ok {
		return n
	}
	return fmt.Sprintf("state(%d)", int(s))
}

// Event - результат обработки ввода на текущем шаге
type Event int

const (
	EventAccepted     Event = iota // ввод принят, следующий шаг
	EventNeedsWeight               // нет сегодняшнего веса
	EventNeedsMetrics              // нет замеров за месяц
	EventRegister                  // язык выбран при первом запуске
	EventNeedsConsent              // нет согласия на обработку данных
)

// Transitions - таблица переходов одного диалога
type Transitions map[State]map[Event]State

var (
	LanguageFlow = Transitions{
		StateLanguage: {EventAccepted: StateIdle, EventRegister: StateRegSex, EventNeedsConsent: StatePrivacy},
	}

	// PrivacyFlow - согласие перед анкетой; зарегистрированный пользователь после согласия идёт в меню
	PrivacyFlow = Transitions{
		StatePrivacy: {EventAccepted: StateIdle, EventRegister: StateRegSex},
	}

	RegistrationFlow = Transitions{
		StateRegSex:    {EventAccepted: StateRegAge},
		StateRegAge:    {EventAccepted: StateRegHeight},
		StateRegHeight: {EventAccepted: StateRegWeight},
		StateRegWeight: {EventAccepted: StateRegAim},
		StateRegAim:    {EventAccepted: StateIdle},
	}

	FoodLogFlow = Transitions{
		StateFoodItems: {EventAccepted: StateFoodGrams},
		StateFoodGrams: {EventAccepted: StateIdle},
	}

	WorkoutFlow = Transitions{
		StateWorkoutType:     {EventAccepted: StateWorkoutDuration},
		StateWorkoutDuration: {EventAccepted: StateIdle, EventNeedsWeight: StateWorkoutWeight},
		StateWorkoutWeight:   {EventAccepted: StateIdle},
	}

	SummaryFlow = Transitions{
		StateSummaryPeriod: {EventAccepted: StateIdle, EventNeedsMetrics: StateSummaryWeight},
		StateSummaryWeight: {EventAccepted: StateSummaryHeight},
		StateSummaryHeight: {EventAccepted: StateIdle},
	}

	AdviceFlow = Transitions{
		StateRecipe:       {EventAccepted: StateIdle},
		StateTrainingHelp: {EventAccepted: StateIdle},
	}

	AdminTypeFlow = Transitions{
		StateAdminTypeNameRU: {EventAccepted: StateAdminTypeNameEN},
		StateAdminTypeNameEN: {EventAccepted: StateAdminTypeEmoji},
		StateAdminTypeEmoji:  {EventAccepted: StateAdminTypeCoef},
		StateAdminTypeCoef:   {EventAccepted: StateIdle},
	}
)

// transitions - объединённая таблица, у каждого состояния ровно один владелец
var transitions = mergeFlows(
	LanguageFlow, PrivacyFlow, RegistrationFlow, FoodLogFlow, WorkoutFlow, SummaryFlow, AdviceFlow, AdminTypeFlow,
)

func mergeFlows(flows ...Transitions) Transitions {
	all := make(Transitions)
	for _, f := range flows {
		for state, edges := range f {
			if _, dup := all[state]; dup {
				panic(fmt.Sprintf("state %s is owned by two flows", state))
			}
			all[state] = edges
		}
	}
	return all
}

// Next - состояние после события e. Неописанный переход - ошибка программы.
func (s State) Next(e Event) (State, error) {
	next, ok := transitions[s][e]
	if !ok {
		return s, fmt.Errorf("no transition from %s on event %d", s, e)
	}
	return next, nil
}

// Session - диалог одного пользователя
type Session struct {
	State     State
	Lang      string
	Register  bool
	Reg       service.RegistrationDTO
	FoodNames []string
	Option    service.TrainingOption
	Minutes   int
	Period    service.Period
	Weight    float64
	NewType   models.TrainingType
	UpdatedAt time.Time
}

// Start начинает диалог с шага state, данные прошлого диалога сбрасываются
func (s *Session) Start(state State) {
	lang := s.Lang
	*s = Session{State: state, Lang: lang, UpdatedAt: time.Now()}
}

// Advance переводит диалог по таблице переходов
func (s *Session) Advance(e Event) error {
	next, err := s.State.Next(e)
	if err != nil {
		return err
	}
	if next == StateIdle {
		s.Start(StateIdle)
		return nil
	}
	s.State = next
	s.UpdatedAt = time.Now()
	return nil
}

// StateStore - сессии пользователей в памяти процесса
type StateStore struct {
	mu       sync.Mutex
	sessions map[int64]*Session
	lastSeen map[int64]time.Time
	locks    map[int64]*sync.Mutex
}

func NewStateStore() *StateStore {
	return &StateStore{
		sessions: make(map[int64]*Session),
		lastSeen: make(map[int64]time.Time),
		locks:    make(map[int64]*sync.Mutex),
	}
}

// Lock сериализует апдейты одного пользователя, возвращает unlock
func (st *StateStore) Lock(userID int64) func() {
	st.mu.Lock()
	l, ok := st.locks[userID]
	if !ok {
		l = &sync.Mutex{}
		st.locks[userID] = l
	}
	st.mu.Unlock()

	l.Lock()
	return l.Unlock
}

// Get - сессия пользователя, создаётся при первом обращении.
// Менять сессию можно только под Lock этого пользователя.
func (st *StateStore) Get(userID int64) *Session {
	st.mu.Lock()
	defer st.mu.Unlock()
	s, ok := st.sessions[userID]
	if !ok {
		s = &Session{State: StateIdle, UpdatedAt: time.Now()}
		st.sessions[userID] = s
	}
	st.lastSeen[userID] = time.Now()
	return s
}

// Prune удаляет сессии, к которым не обращались дольше maxAge.
// Брошенный на середине диалог тоже сбрасывается.
func (st *StateStore) Prune(maxAge time.Duration) int {
	st.mu.Lock()
	defer st.mu.Unlock()
	cutoff := time.Now().Add(-maxAge)
	n := 0
	for id, seen := range st.lastSeen {
		if seen.Before(cutoff) {
			delete(st.sessions, id)
			delete(st.lastSeen, id)
			n++
		}
	}
	return n
}

func (st *StateStore) Len() int {
	st.mu.Lock()
	defer st.mu.Unlock()
	return len(st.sessions)
}
